package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// column is one table column. Numeric columns are right aligned.
type column struct {
	title   string
	numeric bool
}

func columns(titles ...string) []column {
	cols := make([]column, len(titles))
	for i, title := range titles {
		cols[i] = column{title: title}
	}
	return cols
}

// tableView is a rendered command result: a header, rows padded or cut to
// the header width, and an optional footer row.
type tableView struct {
	cols   []column
	rows   [][]string
	footer []string
}

func (v tableView) render() string {
	width := len(v.cols)
	if width == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(v.row(nil, true))
	for _, r := range v.rows {
		tw.AppendRow(v.row(r, false))
	}
	if len(v.footer) > 0 {
		tw.AppendFooter(v.row(v.footer, false))
	}

	configs := make([]table.ColumnConfig, width)
	for i, col := range v.cols {
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func (v tableView) row(values []string, header bool) table.Row {
	out := make(table.Row, len(v.cols))
	for i, col := range v.cols {
		switch {
		case header:
			out[i] = col.title
		case i < len(values):
			out[i] = values[i]
		default:
			out[i] = ""
		}
	}
	return out
}

// writeTable prints v to the command's stdout followed by a newline.
func writeTable(cmd *cobra.Command, v tableView) {
	fmt.Fprintln(cmd.OutOrStdout(), v.render())
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
