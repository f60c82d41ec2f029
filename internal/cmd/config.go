package cmd

import (
	"fmt"

	"github.com/rekonder/qttester/pkg/config"
	"github.com/spf13/cobra"
)

func (rc *RootCommand) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteDefault(path, force)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(rc.stdout, "Wrote %s\n", written)
			return err
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "Destination path (default: ./qttester.yaml)")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
