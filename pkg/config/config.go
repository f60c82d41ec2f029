package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rekonder/qttester/pkg/capture"
	"github.com/rekonder/qttester/pkg/replay"
	"github.com/rekonder/qttester/pkg/widgets"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = "qttester.yaml"

// CurrentConfigVersion marks the supported config file version.
const CurrentConfigVersion = 1

// Input sources for record sessions.
const (
	InputSynthetic = "synthetic"
	InputNone      = "none"
)

// Config captures the user-adjustable knobs for record and replay.
type Config struct {
	ConfigVersion int             `mapstructure:"config_version" yaml:"config_version"`
	Toolkit       ToolkitConfig   `mapstructure:"toolkit" yaml:"toolkit"`
	Capture       CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Replay        ReplayConfig    `mapstructure:"replay" yaml:"replay"`
	Sessions      SessionsConfig  `mapstructure:"sessions" yaml:"sessions"`
	Info          InfoConfig      `mapstructure:"info" yaml:"info"`
	Logging       LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry     TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `mapstructure:"-" yaml:"-"`
}

// ToolkitConfig selects the toolkit variant and path matching mode.
type ToolkitConfig struct {
	Version string `mapstructure:"version" yaml:"version"`
	Fuzzy   bool   `mapstructure:"fuzzy" yaml:"fuzzy"`
}

// CaptureConfig narrows which events are recorded.
type CaptureConfig struct {
	Kinds   []string `mapstructure:"kinds" yaml:"kinds"`
	Include []string `mapstructure:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
	Input   string   `mapstructure:"input" yaml:"input"`
}

// ReplayConfig tunes replay pacing and failure handling.
type ReplayConfig struct {
	Pacing            string  `mapstructure:"pacing" yaml:"pacing"`
	Speed             float64 `mapstructure:"speed" yaml:"speed"`
	Strict            bool    `mapstructure:"strict" yaml:"strict"`
	ReadyKind         string  `mapstructure:"ready_kind" yaml:"ready_kind"`
	ReadyTimeoutMS    int     `mapstructure:"ready_timeout_ms" yaml:"ready_timeout_ms"`
	ResolveTimeoutMS  int     `mapstructure:"resolve_timeout_ms" yaml:"resolve_timeout_ms"`
	ResolveIntervalMS int     `mapstructure:"resolve_interval_ms" yaml:"resolve_interval_ms"`
}

// SessionsConfig controls where session manifests are written.
type SessionsConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Manifest bool   `mapstructure:"manifest" yaml:"manifest"`
}

// InfoConfig configures scenario inspection.
type InfoConfig struct {
	RedactPatterns []string `mapstructure:"redact_patterns" yaml:"redact_patterns"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TelemetryConfig enables OTLP trace export.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Toolkit: ToolkitConfig{
			Version: widgets.Version5,
		},
		Capture: CaptureConfig{
			Kinds: append([]string(nil), capture.DefaultKinds...),
			Input: InputSynthetic,
		},
		Replay: ReplayConfig{
			Pacing:            string(replay.PacingImmediate),
			Speed:             1,
			ReadyKind:         replay.DefaultReadyKind,
			ReadyTimeoutMS:    int(replay.DefaultReadyTimeout.Milliseconds()),
			ResolveTimeoutMS:  int(replay.DefaultResolveTimeout.Milliseconds()),
			ResolveIntervalMS: int(replay.DefaultResolveInterval.Milliseconds()),
		},
		Sessions: SessionsConfig{
			Dir:      "sessions",
			Manifest: false,
		},
		Info: InfoConfig{
			RedactPatterns: []string{"email"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./qttester.yaml but tolerates a missing file.
// Environment variables prefixed QTTESTER_ override both.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	if _, err := os.Stat(candidate); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("open config file %q: %w", candidate, err)
		}
		if explicit {
			return cfg, fmt.Errorf("config file %q not found", candidate)
		}
	} else {
		if err := readFile(candidate, &cfg); err != nil {
			return cfg, err
		}
		cfg.Source = candidate
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("toolkit.version", cfg.Toolkit.Version)
	v.SetDefault("toolkit.fuzzy", cfg.Toolkit.Fuzzy)
	v.SetDefault("capture.kinds", cfg.Capture.Kinds)
	v.SetDefault("capture.include", cfg.Capture.Include)
	v.SetDefault("capture.exclude", cfg.Capture.Exclude)
	v.SetDefault("capture.input", cfg.Capture.Input)
	v.SetDefault("replay.pacing", cfg.Replay.Pacing)
	v.SetDefault("replay.speed", cfg.Replay.Speed)
	v.SetDefault("replay.strict", cfg.Replay.Strict)
	v.SetDefault("replay.ready_kind", cfg.Replay.ReadyKind)
	v.SetDefault("replay.ready_timeout_ms", cfg.Replay.ReadyTimeoutMS)
	v.SetDefault("replay.resolve_timeout_ms", cfg.Replay.ResolveTimeoutMS)
	v.SetDefault("replay.resolve_interval_ms", cfg.Replay.ResolveIntervalMS)
	v.SetDefault("sessions.dir", cfg.Sessions.Dir)
	v.SetDefault("sessions.manifest", cfg.Sessions.Manifest)
	v.SetDefault("info.redact_patterns", cfg.Info.RedactPatterns)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("telemetry.enabled", cfg.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", cfg.Telemetry.Endpoint)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if v.GetInt("config_version") != CurrentConfigVersion {
		return fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
	}
	if err := v.UnmarshalExact(cfg); err != nil {
		return fmt.Errorf("decode config file %q: %w", path, err)
	}
	return nil
}

// envOverrides lists the QTTESTER_* variables. Unset variables leave the
// file or default value alone.
type envOverrides struct {
	Toolkit        *string  `env:"QTTESTER_QT"`
	Fuzzy          *bool    `env:"QTTESTER_FUZZY"`
	Include        []string `env:"QTTESTER_FILTER_INCLUDE" envSeparator:","`
	Exclude        []string `env:"QTTESTER_FILTER_EXCLUDE" envSeparator:","`
	Input          *string  `env:"QTTESTER_INPUT"`
	Pacing         *string  `env:"QTTESTER_PACING"`
	Speed          *float64 `env:"QTTESTER_SPEED"`
	Strict         *bool    `env:"QTTESTER_STRICT"`
	SessionsDir    *string  `env:"QTTESTER_SESSIONS_DIR"`
	Manifest       *bool    `env:"QTTESTER_MANIFEST"`
	LogLevel       *string  `env:"QTTESTER_LOG_LEVEL"`
	LogFormat      *string  `env:"QTTESTER_LOG_FORMAT"`
	TraceEnabled   *bool    `env:"QTTESTER_OTEL_ENABLED"`
	TraceEndpoint  *string  `env:"QTTESTER_OTEL_ENDPOINT"`
	RedactPatterns []string `env:"QTTESTER_REDACT_PATTERNS" envSeparator:","`
}

func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	setString(&cfg.Toolkit.Version, o.Toolkit)
	setBool(&cfg.Toolkit.Fuzzy, o.Fuzzy)
	if o.Include != nil {
		cfg.Capture.Include = o.Include
	}
	if o.Exclude != nil {
		cfg.Capture.Exclude = o.Exclude
	}
	setString(&cfg.Capture.Input, o.Input)
	setString(&cfg.Replay.Pacing, o.Pacing)
	if o.Speed != nil {
		cfg.Replay.Speed = *o.Speed
	}
	setBool(&cfg.Replay.Strict, o.Strict)
	setString(&cfg.Sessions.Dir, o.SessionsDir)
	setBool(&cfg.Sessions.Manifest, o.Manifest)
	setString(&cfg.Logging.Level, o.LogLevel)
	setString(&cfg.Logging.Format, o.LogFormat)
	setBool(&cfg.Telemetry.Enabled, o.TraceEnabled)
	setString(&cfg.Telemetry.Endpoint, o.TraceEndpoint)
	if o.RedactPatterns != nil {
		cfg.Info.RedactPatterns = o.RedactPatterns
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if !isVersion(c.Toolkit.Version) {
		return fmt.Errorf("toolkit.version must be one of %s, got %q", strings.Join(widgets.Versions(), ", "), c.Toolkit.Version)
	}
	for _, kind := range c.Capture.Kinds {
		if strings.TrimSpace(kind) == "" {
			return errors.New("capture.kinds must not contain empty names")
		}
	}
	for _, pattern := range append(append([]string(nil), c.Capture.Include...), c.Capture.Exclude...) {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("capture filter pattern %q: %w", pattern, err)
		}
	}
	switch c.Capture.Input {
	case InputSynthetic, InputNone:
	default:
		return fmt.Errorf("capture.input must be %s or %s, got %q", InputSynthetic, InputNone, c.Capture.Input)
	}

	if _, err := replay.ParsePacing(c.Replay.Pacing); err != nil {
		return fmt.Errorf("replay.pacing: %w", err)
	}
	if c.Replay.Speed <= 0 {
		return errors.New("replay.speed must be positive")
	}
	if strings.TrimSpace(c.Replay.ReadyKind) == "" {
		return errors.New("replay.ready_kind must not be empty")
	}
	if c.Replay.ReadyTimeoutMS <= 0 {
		return errors.New("replay.ready_timeout_ms must be positive")
	}
	if c.Replay.ResolveTimeoutMS < 0 {
		return errors.New("replay.resolve_timeout_ms must not be negative")
	}
	if c.Replay.ResolveIntervalMS <= 0 {
		return errors.New("replay.resolve_interval_ms must be positive")
	}

	if c.Sessions.Manifest && strings.TrimSpace(c.Sessions.Dir) == "" {
		return errors.New("sessions.dir must not be empty when manifests are enabled")
	}
	if c.Telemetry.Enabled && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return errors.New("telemetry.endpoint must be set when telemetry is enabled")
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}

	return nil
}

func isVersion(v string) bool {
	for _, known := range widgets.Versions() {
		if v == known {
			return true
		}
	}
	return false
}

func (c *Config) normalize() {
	defaults := Default()

	c.Toolkit.Version = strings.TrimSpace(c.Toolkit.Version)
	c.Capture.Input = strings.ToLower(strings.TrimSpace(c.Capture.Input))
	c.Capture.Include = trimList(c.Capture.Include)
	c.Capture.Exclude = trimList(c.Capture.Exclude)
	c.Info.RedactPatterns = trimList(c.Info.RedactPatterns)
	if len(c.Capture.Kinds) == 0 {
		c.Capture.Kinds = defaults.Capture.Kinds
	}
	if c.Capture.Input == "" {
		c.Capture.Input = defaults.Capture.Input
	}
	if strings.TrimSpace(c.Replay.Pacing) == "" {
		c.Replay.Pacing = defaults.Replay.Pacing
	}
	c.Replay.Pacing = strings.ToLower(strings.TrimSpace(c.Replay.Pacing))
	if strings.TrimSpace(c.Replay.ReadyKind) == "" {
		c.Replay.ReadyKind = defaults.Replay.ReadyKind
	}

	c.Sessions.Dir = filepath.Clean(strings.TrimSpace(c.Sessions.Dir))
	if c.Sessions.Dir == "." || c.Sessions.Dir == "" {
		c.Sessions.Dir = defaults.Sessions.Dir
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// WriteDefault writes the default config to path. An existing file is kept
// unless overwrite is set.
func WriteDefault(path string, overwrite bool) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultFileName
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encode default config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "trace":
		return "trace", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "structured":
		return "json", nil
	case "", "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
