package cmd

import (
	"fmt"
	"time"

	"github.com/rekonder/qttester/pkg/replay"
	"github.com/rekonder/qttester/pkg/runmanifest"
	"github.com/rekonder/qttester/pkg/scenario"
	"github.com/rekonder/qttester/pkg/widgets"
	"github.com/spf13/cobra"
)

type replayFlags struct {
	mainSpec       string
	pacing         string
	speed          float64
	strict         bool
	readyKind      string
	readyTimeout   time.Duration
	resolveTimeout time.Duration
	keepOpen       bool
}

func (rc *RootCommand) newReplayCommand() *cobra.Command {
	var f replayFlags
	cmd := &cobra.Command{
		Use:   "replay <scenario-file>",
		Short: "Run an application and replay a recorded scenario into it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext(cmd)
			if err != nil {
				return err
			}
			if err := applyReplayFlags(cmd, &f, app); err != nil {
				return err
			}
			return rc.runReplay(cmd, app, f, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.mainSpec, "main", "", "Entry point to run (module or module.function)")
	flags.StringVar(&f.pacing, "pacing", "", "Pacing policy (immediate, recorded)")
	flags.Float64Var(&f.speed, "speed", 0, "Speed factor for recorded pacing")
	flags.BoolVar(&f.strict, "strict", false, "Abort on the first entry whose target cannot be resolved")
	flags.StringVar(&f.readyKind, "ready-kind", "", "Event kind that marks the application ready (none disables the gate)")
	flags.DurationVar(&f.readyTimeout, "ready-timeout", 0, "How long to wait for the application to become ready")
	flags.DurationVar(&f.resolveTimeout, "resolve-timeout", 0, "How long to retry resolving a target (0 tries once)")
	flags.BoolVar(&f.keepOpen, "keep-open", false, "Leave the application running after the last entry")
	_ = cmd.MarkFlagRequired("main")
	return cmd
}

func applyReplayFlags(cmd *cobra.Command, f *replayFlags, app *AppContext) error {
	cfg := &app.Config
	flags := cmd.Flags()
	if flags.Changed("pacing") {
		cfg.Replay.Pacing = f.pacing
	}
	if flags.Changed("speed") {
		cfg.Replay.Speed = f.speed
	}
	if flags.Changed("strict") {
		cfg.Replay.Strict = f.strict
	}
	if flags.Changed("ready-kind") {
		cfg.Replay.ReadyKind = f.readyKind
	}
	if flags.Changed("ready-timeout") {
		cfg.Replay.ReadyTimeoutMS = int(f.readyTimeout / time.Millisecond)
	}
	if flags.Changed("resolve-timeout") {
		cfg.Replay.ResolveTimeoutMS = int(f.resolveTimeout / time.Millisecond)
	}
	return cfg.Validate()
}

func (rc *RootCommand) runReplay(cmd *cobra.Command, app *AppContext, f replayFlags, scenarioPath string) error {
	cfg := app.Config
	ctx := cmd.Context()

	entry, err := resolveEntry(app, f.mainSpec)
	if err != nil {
		return err
	}
	sc, err := scenario.Load(ctx, scenarioPath)
	if err != nil {
		return err
	}
	adapter, err := widgets.NewAdapter(cfg.Toolkit.Version)
	if err != nil {
		return err
	}
	pacing, err := replay.ParsePacing(cfg.Replay.Pacing)
	if err != nil {
		return err
	}

	session, err := openSession(app, runmanifest.ModeReplay, f.mainSpec, scenarioPath)
	if err != nil {
		return err
	}

	app.Logger.Info("replay command invoked",
		"scenario", scenarioPath,
		"session", sc.Header.SessionID,
		"entries", sc.Len(),
		"entry_point", f.mainSpec,
		"toolkit", cfg.Toolkit.Version,
		"pacing", string(pacing),
		"fuzzy", cfg.Toolkit.Fuzzy,
	)
	summary, runErr := replay.Session(ctx, replay.SessionOptions{
		Adapter:  adapter,
		Main:     entry.Main,
		Args:     []string{f.mainSpec},
		Scenario: sc,
		KeepOpen: f.keepOpen,
		Logger:   app.Logger,
		Replay: replay.Options{
			Pacing:          pacing,
			Speed:           cfg.Replay.Speed,
			Strict:          cfg.Replay.Strict,
			Fuzzy:           cfg.Toolkit.Fuzzy,
			ReadyKind:       cfg.Replay.ReadyKind,
			ReadyTimeout:    time.Duration(cfg.Replay.ReadyTimeoutMS) * time.Millisecond,
			ResolveTimeout:  time.Duration(cfg.Replay.ResolveTimeoutMS) * time.Millisecond,
			ResolveInterval: time.Duration(cfg.Replay.ResolveIntervalMS) * time.Millisecond,
			Logger:          app.Logger,
		},
	})

	line := fmt.Sprintf("replayed %d of %d entries (%d skipped, %d failed)", summary.Replayed, summary.Total, summary.Skipped, summary.Failed)
	counts := map[string]int{
		"total":    summary.Total,
		"replayed": summary.Replayed,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}
	termination := "completed"
	switch {
	case summary.Aborted:
		termination = "aborted"
	case runErr != nil:
		termination = "error"
	}
	finishErr := session.finish(sc.Header.SessionID, termination, line, counts, runErr)

	fmt.Fprintf(rc.stdout, "Scenario: %s (session %s)\n", scenarioPath, sc.Header.SessionID)
	fmt.Fprintf(rc.stdout, "Replayed: %d of %d entries\n", summary.Replayed, summary.Total)
	fmt.Fprintf(rc.stdout, "  skipped: %d, failed: %d\n", summary.Skipped, summary.Failed)
	for _, res := range summary.Results {
		if res.Outcome == replay.OutcomeReplayed {
			continue
		}
		fmt.Fprintf(rc.stdout, "  #%d %s %s: %s\n", res.Index, res.Outcome, res.Target, res.Error)
	}
	if session != nil {
		fmt.Fprintf(rc.stdout, "Manifest: %s\n", session.layout.ManifestPath)
	}
	return finishErr
}
