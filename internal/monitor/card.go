package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ziris-labs/ziris/internal/hover"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// Card layout constants
const (
	cardMinWidth  = 24
	cardBarWidth  = 12
	cardWideWidth = 34
)

// cardDividerStyle creates a subtle divider line with matching background
var cardDividerStyle = lipgloss.NewStyle().
	Foreground(ColorBorder).
	Background(ColorSurfaceBg)

// renderCardDivider creates a subtle thin divider line
func renderCardDivider(width int) string {
	return cardDividerStyle.Render(strings.Repeat("─", width))
}

// truncateWithEllipsis truncates a string to maxLen, adding ellipsis if needed.
func truncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) > maxLen {
		return string(r[:maxLen-3]) + "..."
	}
	return s
}

// renderCardLine renders a text line with proper background fill.
// Applies background to the entire line including content and padding.
func renderCardLine(content string, width int) string {
	contentWidth := lipgloss.Width(content)
	padding := ""
	if width > contentWidth {
		padding = strings.Repeat(" ", width-contentWidth)
	}
	lineStyle := lipgloss.NewStyle().Background(ColorSurfaceBg)
	return lineStyle.Render(content + padding)
}

// activeIndex returns the highlighted data index of a chart, or -1. The
// focused chart follows the local cursor; the others follow the session's
// hover markers.
func (m Model) activeIndex(id hover.ChartID) int {
	if id == m.focus && m.cursor >= 0 {
		return m.cursor
	}
	marker := m.ctrl.HoverMarker(id)
	if marker == nil {
		return -1
	}
	if idx, ok := marker.ActiveIndex(); ok {
		return idx
	}
	return -1
}

// calculateCardWidth determines the zone card width based on terminal width.
func (m Model) calculateCardWidth() int {
	switch {
	case m.width == 0:
		return cardWideWidth
	case m.width >= BreakpointWide:
		return cardWideWidth
	case m.width >= BreakpointCompact:
		return cardMinWidth + 4
	default:
		return m.width - 4
	}
}

// renderZoneCards renders one card per zone, highlighting the hovered one
// and the zone selected as filter.
func (m Model) renderZoneCards() string {
	zones := m.view.Zones()
	if len(zones) == 0 {
		return LabelStyle.Render("No zone data yet")
	}

	width := m.calculateCardWidth()
	active := m.activeIndex(hover.Zone)
	summary := m.view.Snapshot.Summary

	cards := make([]string, 0, len(zones))
	for i, name := range zones {
		cards = append(cards, m.renderZoneCard(name, summary.Zones[name], width, i == active))
	}
	return m.layoutCards(cards, width)
}

// renderZoneCard renders a single zone with its counts and averages.
func (m Model) renderZoneCard(name string, z sensor.ZoneStats, width int, highlighted bool) string {
	style := CardStyle.Width(width)
	if highlighted || name == m.view.Zone {
		style = CardSelectedStyle.Width(width)
	}
	inner := width - 2

	title := ZoneNameStyle.Render(truncateWithEllipsis(name, inner-8))
	if name == m.view.Zone {
		title += " " + lipgloss.NewStyle().Foreground(ColorAccent).Render("●")
	}

	anomalyColor := ColorHealthy
	if z.Anomalies > 0 {
		anomalyColor = ColorCritical
	}
	counts := fmt.Sprintf("%s %s  %s %s",
		LabelStyle.Render("sensors"), ValueStyle.Render(fmt.Sprint(z.Total)),
		LabelStyle.Render("anomalies"), lipgloss.NewStyle().Foreground(anomalyColor).Bold(true).Render(fmt.Sprint(z.Anomalies)))

	lines := []string{
		renderCardLine(title, inner),
		renderCardLine(counts, inner),
		renderCardLine(RenderBar(z.Anomalies, z.Total, cardBarWidth, ColorCritical, highlighted), inner),
		renderCardDivider(inner),
	}

	sample := z.Sample(m.view.LastRefresh)
	for _, metric := range sensor.Metrics {
		v := sample.Value(metric)
		valueStyle := ValueStyle
		if m.view.Thresholds.Exceeds(metric, v) {
			valueStyle = AlertValueStyle
		}
		line := LabelStyle.Render(fmt.Sprintf("%-12s", metric.Label())) +
			valueStyle.Render(fmt.Sprintf("%.1f %s", v, metric.Unit()))
		lines = append(lines, renderCardLine(line, inner))
	}

	return style.Render(strings.Join(lines, "\n"))
}

// layoutCards arranges cards in rows based on terminal width.
func (m Model) layoutCards(cards []string, cardWidth int) string {
	if len(cards) == 0 {
		return ""
	}

	cardsPerRow := 1
	if m.width > 0 {
		// Account for card margins and borders
		effectiveCardWidth := cardWidth + 3
		cardsPerRow = m.width / effectiveCardWidth
		if cardsPerRow < 1 {
			cardsPerRow = 1
		}
	} else {
		cardsPerRow = 3
	}

	var rows []string
	for i := 0; i < len(cards); i += cardsPerRow {
		end := i + cardsPerRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return strings.Join(rows, "\n")
}
