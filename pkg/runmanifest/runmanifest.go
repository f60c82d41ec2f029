package runmanifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rekonder/qttester/pkg/config"
)

// SchemaVersion captures the manifest version for compatibility checks.
const SchemaVersion = 1

// Session modes.
const (
	ModeRecord = "record"
	ModeReplay = "replay"
)

// Session states.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Layout represents the absolute filesystem locations for a session.
type Layout struct {
	Root           string
	ManifestPath   string
	SessionLogPath string
}

// Paths holds the relative locations stored in the manifest for portability.
type Paths struct {
	Root       string `json:"root"`
	Manifest   string `json:"manifest"`
	SessionLog string `json:"session_log"`
	// Scenario is absolute since it usually lives outside the session root.
	Scenario string `json:"scenario"`
}

// Settings records the options the session ran with.
type Settings struct {
	Toolkit        string   `json:"toolkit"`
	Fuzzy          bool     `json:"fuzzy"`
	Kinds          []string `json:"kinds,omitempty"`
	Include        []string `json:"include,omitempty"`
	Exclude        []string `json:"exclude,omitempty"`
	Input          string   `json:"input,omitempty"`
	Pacing         string   `json:"pacing,omitempty"`
	Speed          float64  `json:"speed,omitempty"`
	Strict         bool     `json:"strict,omitempty"`
	ResolveTimeout string   `json:"resolve_timeout,omitempty"`
	ReadyTimeout   string   `json:"ready_timeout,omitempty"`
}

// Status summarises the lifecycle of a session.
type Status struct {
	State       string                    `json:"state"`
	Summary     string                    `json:"summary,omitempty"`
	StartedAt   *time.Time                `json:"started_at,omitempty"`
	EndedAt     *time.Time                `json:"ended_at,omitempty"`
	Termination string                    `json:"termination,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Controller  []ControllerTimelineEntry `json:"controller_timeline,omitempty"`
	Counts      map[string]int            `json:"counts,omitempty"`
}

// ControllerTimelineEntry records controller state transitions for diagnostics.
type ControllerTimelineEntry struct {
	State     string    `json:"state"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Manifest is the durable metadata describing a record or replay session.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	RunID         string    `json:"run_id"`
	Mode          string    `json:"mode"`
	SessionID     string    `json:"session_id,omitempty"`
	EntryPoint    string    `json:"entry_point"`
	CreatedAt     time.Time `json:"created_at"`
	Hostname      string    `json:"hostname"`
	AppVersion    string    `json:"app_version"`
	ConfigSource  string    `json:"config_source"`
	Settings      Settings  `json:"settings"`
	Paths         Paths     `json:"paths"`
	Status        Status    `json:"status"`
}

// Options captures the knobs for creating a new manifest.
type Options struct {
	RunID        string
	Mode         string
	EntryPoint   string
	ScenarioPath string
	CreatedAt    time.Time
	Hostname     string
	AppVersion   string
	Config       config.Config
	Layout       Layout
}

// New constructs a manifest using the supplied options.
func New(opts Options) Manifest {
	cfg := opts.Config
	settings := Settings{
		Toolkit: cfg.Toolkit.Version,
		Fuzzy:   cfg.Toolkit.Fuzzy,
	}
	switch opts.Mode {
	case ModeRecord:
		settings.Kinds = cfg.Capture.Kinds
		settings.Include = cfg.Capture.Include
		settings.Exclude = cfg.Capture.Exclude
		settings.Input = cfg.Capture.Input
	case ModeReplay:
		settings.Pacing = cfg.Replay.Pacing
		settings.Speed = cfg.Replay.Speed
		settings.Strict = cfg.Replay.Strict
		settings.ResolveTimeout = (time.Duration(cfg.Replay.ResolveTimeoutMS) * time.Millisecond).String()
		settings.ReadyTimeout = (time.Duration(cfg.Replay.ReadyTimeoutMS) * time.Millisecond).String()
	}

	paths := opts.Layout.RelativePaths()
	if opts.ScenarioPath != "" {
		if abs, err := filepath.Abs(opts.ScenarioPath); err == nil {
			paths.Scenario = abs
		} else {
			paths.Scenario = opts.ScenarioPath
		}
	}

	return Manifest{
		SchemaVersion: SchemaVersion,
		RunID:         opts.RunID,
		Mode:          opts.Mode,
		EntryPoint:    opts.EntryPoint,
		CreatedAt:     opts.CreatedAt.UTC(),
		Hostname:      opts.Hostname,
		AppVersion:    opts.AppVersion,
		ConfigSource:  cfg.Source,
		Settings:      settings,
		Paths:         paths,
		Status:        Status{State: StatePending},
	}
}

// Start marks the session as running.
func (m *Manifest) Start(at time.Time) {
	at = at.UTC()
	m.Status.State = StateRunning
	m.Status.StartedAt = &at
}

// Finish closes the session status. A nil err marks it completed.
func (m *Manifest) Finish(at time.Time, termination string, err error) {
	at = at.UTC()
	m.Status.EndedAt = &at
	m.Status.Termination = termination
	if err != nil {
		m.Status.State = StateFailed
		m.Status.Error = err.Error()
		return
	}
	m.Status.State = StateCompleted
}

// SetCount records a named counter such as recorded or skipped entries.
func (m *Manifest) SetCount(name string, n int) {
	if m.Status.Counts == nil {
		m.Status.Counts = make(map[string]int)
	}
	m.Status.Counts[name] = n
}

// ObserveController returns an observer for a session controller that
// appends every transition to the controller timeline.
func (m *Manifest) ObserveController(clock func() time.Time) func(state, reason string) {
	if clock == nil {
		clock = time.Now
	}
	return func(state, reason string) {
		m.Status.Controller = append(m.Status.Controller, ControllerTimelineEntry{
			State:     state,
			Reason:    reason,
			Timestamp: clock().UTC(),
		})
	}
}

// BuildLayout creates an absolute filesystem layout for a session.
func BuildLayout(sessionsDir, runID string) Layout {
	root := filepath.Join(sessionsDir, runID)
	return Layout{
		Root:           root,
		ManifestPath:   filepath.Join(root, "manifest.json"),
		SessionLogPath: filepath.Join(root, "session.log"),
	}
}

// RelativePaths exposes the manifest-friendly relative paths for the layout.
func (l Layout) RelativePaths() Paths {
	return Paths{
		Root:       ".",
		Manifest:   filepath.Base(l.ManifestPath),
		SessionLog: filepath.Base(l.SessionLogPath),
	}
}

// EnsureFilesystem prepares the directory tree for a session layout.
func EnsureFilesystem(layout Layout) error {
	if err := os.MkdirAll(layout.Root, 0o755); err != nil {
		return fmt.Errorf("create session root: %w", err)
	}

	file, err := os.OpenFile(layout.SessionLogPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("initialise session log: %w", err)
	}
	defer file.Close()

	return nil
}

// AppendLog appends timestamped lines to the session log.
func AppendLog(path string, now time.Time, lines ...string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer file.Close()

	stamp := now.UTC().Format(time.RFC3339)
	for _, line := range lines {
		if _, err := fmt.Fprintf(file, "%s %s\n", stamp, line); err != nil {
			return fmt.Errorf("write session log: %w", err)
		}
	}
	return nil
}

// Save writes the manifest JSON to disk with indentation for readability.
func Save(man Manifest, path string) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest JSON file from disk.
func Load(path string) (Manifest, error) {
	var man Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return man, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &man); err != nil {
		return man, fmt.Errorf("decode manifest: %w", err)
	}
	if man.SchemaVersion != SchemaVersion {
		return man, fmt.Errorf("unsupported manifest schema %d", man.SchemaVersion)
	}
	return man, nil
}

// ResolveRunID chooses a run identifier derived from the timestamp and avoids collisions.
func ResolveRunID(sessionsDir string, now time.Time) (string, error) {
	if strings.TrimSpace(sessionsDir) == "" {
		return "", errors.New("sessions directory must not be empty")
	}

	base := now.UTC().Format("20060102_150405")
	candidate := base
	suffix := 1
	for {
		_, err := os.Stat(filepath.Join(sessionsDir, candidate))
		if err == nil {
			candidate = fmt.Sprintf("%s_%02d", base, suffix)
			suffix++
			continue
		}
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		return "", fmt.Errorf("inspect sessions directory: %w", err)
	}
}
