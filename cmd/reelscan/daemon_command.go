package main

import (
	"github.com/spf13/cobra"

	"reelscan/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the analysis worker in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{SkipPreflight: skipPreflight})
		},
	}
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start even when required tools are missing")
	return cmd
}
