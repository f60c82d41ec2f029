package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rekonder/qttester/internal/buildinfo"
	"github.com/rekonder/qttester/pkg/config"
	"github.com/rekonder/qttester/pkg/entrypoint"
	"github.com/rekonder/qttester/pkg/logging"
	"github.com/rekonder/qttester/pkg/telemetry"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

// AppContext exposes lazily initialised configuration and logging facilities.
type AppContext struct {
	Config   config.Config
	Logger   pslog.Logger
	Registry *entrypoint.Registry
}

type globalFlags struct {
	configPath string
	verbose    int
	logFormat  string
	qt         string
	fuzzy      bool
	include    []string
	exclude    []string
	manifest   bool
}

type RootCommand struct {
	cmd      *cobra.Command
	stdout   io.Writer
	stderr   io.Writer
	registry *entrypoint.Registry
	appCtx   *AppContext
	shutdown func(context.Context) error
	flags    globalFlags
}

// NewRootCommand constructs the CLI with the entry points available to --main.
func NewRootCommand(registry *entrypoint.Registry) *RootCommand {
	if registry == nil {
		registry = entrypoint.NewRegistry()
	}
	rc := &RootCommand{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		registry: registry,
	}

	root := &cobra.Command{
		Use:           "qttester",
		Short:         "Record and replay GUI interaction scenarios",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&rc.flags.configPath, "config", "", "Path to config file (default: ./"+config.DefaultFileName+" if present)")
	pf.CountVarP(&rc.flags.verbose, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	pf.StringVar(&rc.flags.logFormat, "log-format", "", "Override log output format (console, json)")
	pf.StringVar(&rc.flags.qt, "qt", "", "Toolkit major version (4 or 5)")
	pf.BoolVar(&rc.flags.fuzzy, "fuzzy", false, "Match widget paths fuzzily, ignoring intermediate structure")
	pf.StringSliceVar(&rc.flags.include, "filter-include", nil, "Only record event kinds matching one of these globs")
	pf.StringSliceVar(&rc.flags.exclude, "filter-exclude", nil, "Never record event kinds matching one of these globs")
	pf.BoolVar(&rc.flags.manifest, "manifest", false, "Write a session manifest under the sessions directory")

	root.AddCommand(rc.newRecordCommand())
	root.AddCommand(rc.newReplayCommand())
	root.AddCommand(rc.newInfoCommand())
	root.AddCommand(rc.newConfigCommand())
	root.AddCommand(rc.newVersionCommand())

	rc.cmd = root
	return rc
}

// SetOutput redirects command output and logs.
func (rc *RootCommand) SetOutput(stdout, stderr io.Writer) {
	rc.stdout = stdout
	rc.stderr = stderr
	rc.cmd.SetOut(stdout)
	rc.cmd.SetErr(stderr)
}

// Execute evaluates the supplied arguments and dispatches to a subcommand.
func (rc *RootCommand) Execute(ctx context.Context, args []string) error {
	rc.cmd.SetArgs(args)
	defer func() {
		if rc.shutdown != nil {
			if err := rc.shutdown(context.Background()); err != nil && rc.appCtx != nil {
				rc.appCtx.Logger.Warn("flush traces failed", "err", err)
			}
		}
	}()
	return rc.cmd.ExecuteContext(ctx)
}

func (rc *RootCommand) ensureAppContext(cmd *cobra.Command) (*AppContext, error) {
	if rc.appCtx != nil {
		return rc.appCtx, nil
	}

	cfg, err := config.Load(rc.flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := rc.applyFlagOverrides(cmd, &cfg); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: rc.stderr,
	})
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(cmd.Context(), telemetry.Options{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: "qttester",
		Version:     buildinfo.Version(),
	})
	if err != nil {
		return nil, fmt.Errorf("initialise telemetry: %w", err)
	}
	rc.shutdown = shutdown

	logger.Debug("configuration loaded", "source", cfg.Source, "toolkit", cfg.Toolkit.Version, "fuzzy", cfg.Toolkit.Fuzzy, "sessions_dir", cfg.Sessions.Dir)

	rc.appCtx = &AppContext{Config: cfg, Logger: logger, Registry: rc.registry}
	return rc.appCtx, nil
}

// applyFlagOverrides lets explicitly set global flags win over file and
// environment values.
func (rc *RootCommand) applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("qt") {
		cfg.Toolkit.Version = rc.flags.qt
	}
	if flags.Changed("fuzzy") {
		cfg.Toolkit.Fuzzy = rc.flags.fuzzy
	}
	if flags.Changed("filter-include") {
		cfg.Capture.Include = rc.flags.include
	}
	if flags.Changed("filter-exclude") {
		cfg.Capture.Exclude = rc.flags.exclude
	}
	if flags.Changed("manifest") {
		cfg.Sessions.Manifest = rc.flags.manifest
	}
	if flags.Changed("verbose") {
		cfg.Logging.Level = logging.VerboseLevel(rc.flags.verbose, cfg.Logging.Level)
	}
	if flags.Changed("log-format") {
		format, err := config.NormalizeFormat(rc.flags.logFormat)
		if err != nil {
			return err
		}
		cfg.Logging.Format = format
	}
	return cfg.Validate()
}

func versionString() string {
	return fmt.Sprintf("%s (%s/%s)", buildinfo.Version(), runtimeVersion(), runtimeGOOS())
}

// runtimeVersion is extracted for testability.
var runtimeVersion = func() string { return runtime.Version() }

// runtimeGOOS is extracted for testability.
var runtimeGOOS = func() string { return runtime.GOOS }
