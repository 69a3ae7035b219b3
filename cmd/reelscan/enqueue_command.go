package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelscan/internal/editmap"
	"reelscan/internal/queue"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var job editmap.AnalysisJob

	cmd := &cobra.Command{
		Use:   "enqueue <storage-key>",
		Short: "Submit footage for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job.StorageKey = args[0]
			return ctx.withStore(func(store *queue.Store) error {
				msg, err := store.Enqueue(cmd.Context(), job)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d for edit map %s\n", msg.ID, msg.Job.EditMapID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&job.EditMapID, "edit-map-id", "", "Edit map id that receives status and results (required)")
	cmd.Flags().StringVar(&job.RawFootageID, "raw-footage-id", "", "Raw footage record id")
	cmd.Flags().StringVar(&job.EpisodeID, "episode-id", "", "Episode id")
	_ = cmd.MarkFlagRequired("edit-map-id")
	return cmd
}
