package cmd

import (
	"fmt"

	"github.com/rekonder/qttester/pkg/capture"
	"github.com/rekonder/qttester/pkg/config"
	"github.com/rekonder/qttester/pkg/runmanifest"
	"github.com/rekonder/qttester/pkg/toolkit"
	"github.com/rekonder/qttester/pkg/widgets"
	"github.com/spf13/cobra"
)

// syntheticText is typed into line edits by the synthetic input source.
const syntheticText = "hello"

func (rc *RootCommand) newRecordCommand() *cobra.Command {
	var mainSpec, input string
	cmd := &cobra.Command{
		Use:   "record <scenario-file>",
		Short: "Run an application and record its user interaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				app.Config.Capture.Input = input
				if err := app.Config.Validate(); err != nil {
					return err
				}
			}
			return rc.runRecord(cmd, app, mainSpec, args[0])
		},
	}
	cmd.Flags().StringVar(&mainSpec, "main", "", "Entry point to run (module or module.function)")
	cmd.Flags().StringVar(&input, "input", config.InputSynthetic, "System input source (synthetic, none)")
	_ = cmd.MarkFlagRequired("main")
	return cmd
}

func (rc *RootCommand) runRecord(cmd *cobra.Command, app *AppContext, mainSpec, scenarioPath string) error {
	cfg := app.Config
	entry, err := resolveEntry(app, mainSpec)
	if err != nil {
		return err
	}
	adapter, err := widgets.NewAdapter(cfg.Toolkit.Version)
	if err != nil {
		return err
	}

	session, err := openSession(app, runmanifest.ModeRecord, mainSpec, scenarioPath)
	if err != nil {
		return err
	}
	control := capture.NewController()
	if observe := session.observer(); observe != nil {
		control.Observe(observe)
	}

	var input toolkit.InputSource
	if cfg.Capture.Input == config.InputSynthetic {
		input = widgets.SyntheticInput{Text: syntheticText, QuitWhenDone: true}
	}

	app.Logger.Info("record command invoked", "scenario", scenarioPath, "entry_point", mainSpec, "toolkit", cfg.Toolkit.Version, "input", cfg.Capture.Input)
	summary, runErr := capture.Run(cmd.Context(), capture.Options{
		Adapter:      adapter,
		Main:         entry.Main,
		EntryPoint:   mainSpec,
		Input:        input,
		Args:         []string{mainSpec},
		Kinds:        cfg.Capture.Kinds,
		Include:      cfg.Capture.Include,
		Exclude:      cfg.Capture.Exclude,
		ScenarioPath: scenarioPath,
		Control:      control,
		Clock:        timeNow,
		Logger:       app.Logger,
	})
	control.Kill(runErr)

	sessionID := ""
	if summary.Scenario != nil {
		sessionID = summary.Scenario.Header.SessionID
	}
	stats := summary.Stats
	line := fmt.Sprintf("recorded %d events (%d filtered, %d degraded, %d unrooted)", stats.Recorded, stats.Filtered, stats.Degraded, stats.Unrooted)
	counts := map[string]int{
		"seen":     stats.Seen,
		"recorded": stats.Recorded,
		"filtered": stats.Filtered,
		"degraded": stats.Degraded,
		"unrooted": stats.Unrooted,
	}
	termination := summary.Termination
	if runErr != nil && termination == "" {
		termination = "error"
	}
	if err := session.finish(sessionID, termination, line, counts, runErr); err != nil {
		return err
	}

	fmt.Fprintf(rc.stdout, "Scenario: %s\n", scenarioPath)
	fmt.Fprintf(rc.stdout, "Session: %s (%s)\n", sessionID, summary.Termination)
	fmt.Fprintf(rc.stdout, "Recorded: %d of %d spontaneous events\n", stats.Recorded, stats.Spontaneous)
	fmt.Fprintf(rc.stdout, "  filtered: %d, degraded: %d, unrooted: %d\n", stats.Filtered, stats.Degraded, stats.Unrooted)
	if session != nil {
		fmt.Fprintf(rc.stdout, "Manifest: %s\n", session.layout.ManifestPath)
	}
	return nil
}
