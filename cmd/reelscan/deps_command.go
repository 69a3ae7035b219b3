package main

import (
	"github.com/spf13/cobra"

	"reelscan/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and writable directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := deps.Check(cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				detail := r.Detail
				if detail == "" {
					detail = r.Description
				}
				rows = append(rows, []string{r.Name, r.Command, yesNo(r.Available), r.Version, detail})
			}
			writeTable(cmd, tableView{cols: columns("Dependency", "Command", "Available", "Version", "Detail"), rows: rows})
			return deps.Missing(results)
		},
	}
}
