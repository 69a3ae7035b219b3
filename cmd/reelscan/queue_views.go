package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelscan/internal/api"
)

var titleCaser = cases.Title(language.English)

// buildQueueStatusView lists counts by status with a total footer.
func buildQueueStatusView(stats map[string]int) tableView {
	view := tableView{cols: []column{{title: "Status"}, {title: "Count", numeric: true}}}
	if len(stats) == 0 {
		return view
	}
	keys := make([]string, 0, len(stats))
	total := 0
	for key, n := range stats {
		keys = append(keys, key)
		total += n
	}
	sort.Strings(keys)

	view.rows = make([][]string, 0, len(keys))
	for _, key := range keys {
		view.rows = append(view.rows, []string{formatStatusLabel(key), strconv.Itoa(stats[key])})
	}
	view.footer = []string{"Total", strconv.Itoa(total)}
	return view
}

// buildQueueListRows renders items in the order given.
func buildQueueListRows(items []api.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			item.EditMapID,
			item.StorageKey,
			formatStatusLabel(item.Status),
			strconv.Itoa(item.Attempts),
			formatDisplayTime(item.CreatedAt),
			truncate(item.ErrorMessage, 48),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(status, "_", " "))
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

// formatAge renders a backlog age rounded to the second, or "-" when there
// is nothing waiting.
func formatAge(age time.Duration) string {
	if age <= 0 {
		return "-"
	}
	return age.Round(time.Second).String()
}
