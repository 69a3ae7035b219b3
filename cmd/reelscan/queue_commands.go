package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelscan/internal/api"
	"reelscan/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				view := buildQueueStatusView(api.MergeQueueStats(stats))
				if len(view.rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				writeTable(cmd, view)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				messages, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				items := api.SortQueueItemsNewestFirst(api.FromQueueMessages(messages))
				if asJSON {
					return writeJSON(cmd, api.QueueListResponse{Items: items})
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				writeTable(cmd, tableView{
					cols: []column{
						{title: "ID", numeric: true},
						{title: "Edit Map"},
						{title: "Storage Key"},
						{title: "Status"},
						{title: "Attempts", numeric: true},
						{title: "Created"},
						{title: "Error"},
					},
					rows: buildQueueListRows(items),
				})
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [jobID...]",
		Short: "Return failed jobs to pending (all failed jobs when no ids are given)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid job id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withStore(func(store *queue.Store) error {
				updated, err := store.Retry(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed jobs\n", updated)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			var statuses []queue.Status
			label := "queued"
			switch {
			case clearCompleted:
				statuses, label = []queue.Status{queue.StatusCompleted}, "completed"
			case clearFailed:
				statuses, label = []queue.Status{queue.StatusFailed}, "failed"
			}
			return ctx.withStore(func(store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s jobs\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed jobs")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the queue database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				backlog, err := store.Backlog(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Database", health.DBPath},
					{"Exists", yesNo(health.DatabaseExists)},
					{"Readable", yesNo(health.DatabaseReadable)},
					{"Schema version", strconv.Itoa(health.SchemaVersion)},
					{"Jobs table", yesNo(health.TableExists)},
					{"Total jobs", strconv.Itoa(health.TotalJobs)},
					{"Integrity check", yesNo(health.IntegrityCheck)},
					{"Pending jobs", strconv.Itoa(backlog.Pending)},
					{"Oldest pending", formatAge(backlog.OldestPendingAge)},
					{"Expired claims", strconv.Itoa(backlog.ExpiredClaims)},
				}
				if health.Error != "" {
					rows = append(rows, []string{"Error", health.Error})
				}
				writeTable(cmd, tableView{cols: columns("Check", "Result"), rows: rows})
				return nil
			})
		},
	}
}

func parseStatuses(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			return nil, fmt.Errorf("unknown queue status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
