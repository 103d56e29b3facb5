package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziris-labs/ziris/internal/sensor"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a non-focused Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	// nothing is selectable in CLI output
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	return NewTable(columns, tableRows).View()
}

// RenderThresholdTable lists the per-metric thresholds. When suggested is
// non-nil a second column shows the server's suggestion for each metric.
func RenderThresholdTable(th sensor.Thresholds, suggested map[string]any) string {
	columns := []TableColumn{
		{Title: "Metric", Width: 14},
		{Title: "Key", Width: 6},
		{Title: "Threshold", Width: 12},
	}
	if suggested != nil {
		columns = append(columns, TableColumn{Title: "Suggested", Width: 12})
	}

	rows := make([][]string, 0, len(sensor.Metrics))
	for _, m := range sensor.Metrics {
		row := []string{m.Label(), m.Key(), fmt.Sprintf("%g %s", th.Get(m), m.Unit())}
		if suggested != nil {
			row = append(row, formatSuggestion(suggested[m.Key()]))
		}
		rows = append(rows, row)
	}
	return RenderSimpleTable(columns, rows)
}

func formatSuggestion(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}

// RenderJobTable lists background jobs, newest last as returned.
func RenderJobTable(jobs []sensor.JobSummary) string {
	columns := []TableColumn{
		{Title: "ID", Width: 34},
		{Title: "Type", Width: 8},
		{Title: "Status", Width: 10},
		{Title: "Progress", Width: 9},
		{Title: "Updated", Width: 20},
	}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		updated := "-"
		if !j.UpdatedAt.IsZero() {
			updated = j.UpdatedAt.Local().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{
			j.ID,
			j.Type,
			string(j.Status),
			padRight(fmt.Sprintf("%d%%", j.Progress), 4),
			updated,
		})
	}
	return RenderSimpleTable(columns, rows)
}

// RenderJob renders the full description of one job as aligned lines.
func RenderJob(j sensor.Job) string {
	lines := [][2]string{
		{"ID", j.ID},
		{"Type", j.Type},
		{"Status", JobStatusStyle(j.Status).Render(string(j.Status))},
		{"Progress", fmt.Sprintf("%d%%", j.Progress)},
	}
	if !j.CreatedAt.IsZero() {
		lines = append(lines, [2]string{"Created", j.CreatedAt.Local().Format("2006-01-02 15:04:05")})
	}
	if !j.UpdatedAt.IsZero() {
		lines = append(lines, [2]string{"Updated", j.UpdatedAt.Local().Format("2006-01-02 15:04:05")})
	}
	keys := make([]string, 0, len(j.Params))
	for k := range j.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, [2]string{"Param " + k, fmt.Sprint(j.Params[k])})
	}
	if j.Error != "" {
		lines = append(lines, [2]string{"Error", ErrorStyle.Render(j.Error)})
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(MutedStyle.Render(padRight(l[0], 12)))
		b.WriteString(l[1])
		b.WriteString("\n")
	}
	return b.String()
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
