package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelscan/internal/config"
	"reelscan/internal/editmap"
	"reelscan/internal/metadata"
	"reelscan/internal/pipeline"
	"reelscan/internal/workflow"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var job editmap.AnalysisJob
	var localFile string

	cmd := &cobra.Command{
		Use:   "analyze [storage-key...]",
		Short: "Analyze footage in the foreground and print the edit maps",
		Long: "Runs the full pipeline without the queue or the metadata store.\n" +
			"Pass one or more storage keys for the configured object store, or --file for a local video.\n" +
			"Several keys run concurrently on workflow.workers slots; one failing key does not stop the rest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var keys []string
			switch {
			case localFile != "" && len(args) > 0:
				return fmt.Errorf("pass either storage keys or --file, not both")
			case localFile != "":
				abs, err := filepath.Abs(localFile)
				if err != nil {
					return fmt.Errorf("resolve file: %w", err)
				}
				local := *cfg
				local.Storage.Backend = config.StorageFilesystem
				local.Storage.Root = filepath.Dir(abs)
				cfg = &local
				keys = []string{filepath.Base(abs)}
			case len(args) > 0:
				keys = args
			default:
				return fmt.Errorf("a storage key or --file is required")
			}
			if len(keys) > 1 && job.EditMapID != "" {
				return fmt.Errorf("--edit-map-id applies to a single key")
			}
			jobs := make([]editmap.AnalysisJob, len(keys))
			for i, key := range keys {
				jobs[i] = job
				jobs[i].StorageKey = key
				if jobs[i].EditMapID == "" {
					jobs[i].EditMapID = "local-" + filepath.Base(key)
				}
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			analyzer, err := pipeline.FromConfig(cfg, logger, pipeline.Hooks{})
			if err != nil {
				return err
			}
			reporter := &metadata.MemoryReporter{}
			mgr := workflow.NewManager(workflow.Settings{Workers: cfg.Workflow.Workers}, analyzer, reporter, workflow.WithLogger(logger))
			results := mgr.ProcessBatch(cmd.Context(), jobs)
			if len(results) == 1 {
				if results[0].Err != nil {
					return results[0].Err
				}
				return writeJSON(cmd, results[0].EditMap)
			}
			out, failed := buildAnalyzeResults(results)
			if err := writeJSON(cmd, out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&localFile, "file", "", "Analyze a local video file instead of a storage key")
	cmd.Flags().StringVar(&job.EditMapID, "edit-map-id", "", "Edit map id to stamp on the result (single key only)")
	cmd.Flags().StringVar(&job.RawFootageID, "raw-footage-id", "", "Raw footage record id")
	cmd.Flags().StringVar(&job.EpisodeID, "episode-id", "", "Episode id")
	return cmd
}

// analyzeResult is one entry of the multi-key analyze output.
type analyzeResult struct {
	StorageKey string           `json:"storage_key"`
	EditMap    *editmap.EditMap `json:"edit_map,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func buildAnalyzeResults(results []workflow.JobResult) ([]analyzeResult, int) {
	out := make([]analyzeResult, len(results))
	failed := 0
	for i, res := range results {
		out[i] = analyzeResult{StorageKey: res.Job.StorageKey, EditMap: res.EditMap}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			failed++
		}
	}
	return out, failed
}
