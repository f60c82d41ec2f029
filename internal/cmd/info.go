package cmd

import (
	"github.com/rekonder/qttester/pkg/eventcodec"
	"github.com/rekonder/qttester/pkg/scenario"
	"github.com/rekonder/qttester/pkg/widgets"
	"github.com/spf13/cobra"
)

func (rc *RootCommand) newInfoCommand() *cobra.Command {
	var (
		redact   bool
		patterns []string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "info <scenario-file>",
		Short: "Describe a recorded scenario without replaying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext(cmd)
			if err != nil {
				return err
			}
			sc, err := scenario.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			opts := scenario.DescribeOptions{Limit: limit}
			if redact {
				exprs := app.Config.Info.RedactPatterns
				if cmd.Flags().Changed("redact-pattern") {
					exprs = patterns
				}
				redactor, err := scenario.NewRedactor(exprs)
				if err != nil {
					return err
				}
				opts.Redactor = redactor
			}

			version := sc.Header.Toolkit
			if version == "" {
				version = app.Config.Toolkit.Version
			}
			if adapter, err := widgets.NewAdapter(version); err == nil {
				if codec, err := eventcodec.New(adapter, app.Logger); err == nil {
					opts.AttrNames = codec.AttrNames
				}
			} else {
				app.Logger.Debug("no adapter for scenario toolkit; arguments stay unlabelled", "toolkit", version, "err", err)
			}
			return scenario.Describe(rc.stdout, sc, opts)
		},
	}
	cmd.Flags().BoolVar(&redact, "redact", false, "Mask sensitive values in object names and text arguments")
	cmd.Flags().StringSliceVar(&patterns, "redact-pattern", nil, "Redaction pattern (named pattern or regular expression)")
	cmd.Flags().IntVar(&limit, "limit", 0, "List at most this many entries (0 lists all)")
	return cmd
}
