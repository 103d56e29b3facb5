package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/highlight"
	"github.com/ziris-labs/ziris/internal/hover"
	"github.com/ziris-labs/ziris/internal/sensor"
)

const (
	defaultSectionWidth = 100
	minSectionWidth     = 40
	// notificationPreview is how many notifications the dashboard lists;
	// the detail view shows the whole history.
	notificationPreview = 3
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	width := m.sectionWidth()
	parts := []string{m.renderHeader()}

	if status := m.renderStatusLine(); status != "" {
		parts = append(parts, status)
	}

	parts = append(parts,
		m.renderOverview(width),
		m.renderZoneCards(),
		m.renderRealtime(width),
	)
	if !m.compact() {
		parts = append(parts, m.renderModelMetrics(width))
	}
	parts = append(parts,
		m.renderThresholds(width),
		m.renderNotifications(width),
	)

	if m.ShowFooter() {
		parts = append(parts, m.renderFooter())
	}
	return strings.Join(parts, "\n")
}

func (m Model) sectionWidth() int {
	if m.width == 0 {
		return defaultSectionWidth
	}
	if m.width < minSectionWidth {
		return minSectionWidth
	}
	return m.width
}

// compact reports whether the terminal is too narrow for the model panel.
func (m Model) compact() bool {
	return m.width > 0 && m.width < BreakpointCompact
}

// renderHeader renders the title bar with user, filters and live state.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("ziris")

	zone := m.view.Zone
	if zone == "" {
		zone = dashboard.AllZones
	}
	user := m.view.User.Username
	if user == "" {
		user = "anonymous"
	}

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(fmt.Sprintf(" | %s | zone %s | rule %s | %s | ", user, zone, m.view.Rule, formatAgo(m.SecondsSinceRefresh())))

	header := title + stats + PushIndicator(m.view.Push, m.spinnerFrame)
	if m.view.Paused {
		header += " " + PausedBadgeStyle.Render("PAUSED")
	}
	return HeaderStyle.Render(header)
}

// formatAgo renders seconds since the last refresh.
func formatAgo(seconds int) string {
	switch {
	case seconds < 0:
		return "never refreshed"
	case seconds == 0:
		return "just now"
	default:
		return fmt.Sprintf("%ds ago", seconds)
	}
}

// renderStatusLine shows the last failure, the running action or the
// outcome of the last action, in that order of precedence.
func (m Model) renderStatusLine() string {
	var lines []string
	if m.view.Error != "" {
		msg := "✗ " + m.view.Error
		if m.view.ErrorCode != "" {
			msg += " [" + m.view.ErrorCode + "]"
		}
		lines = append(lines, ErrorLineStyle.Render(msg))
	}
	switch {
	case m.busy != "":
		frame := ConnectingSpinnerFrames[m.spinnerFrame%len(ConnectingSpinnerFrames)]
		lines = append(lines, NoticeStyle.Render(frame+" "+m.busy+"..."))
	case m.notice != "":
		lines = append(lines, NoticeStyle.Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

// renderOverview renders the sensor and anomaly totals for the zone filter.
func (m Model) renderOverview(width int) string {
	sensors, anomalies := m.view.Totals()
	active := m.activeIndex(hover.Overview)
	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}

	rate := 0.0
	if sensors > 0 {
		rate = float64(anomalies) / float64(sensors) * 100
	}

	lines := []string{
		LabelStyle.Render(fmt.Sprintf("%-10s %6d ", "sensors", sensors)) +
			RenderBar(sensors, sensors, barWidth, ColorGraph, active == 0),
		LabelStyle.Render(fmt.Sprintf("%-10s %6d ", "anomalies", anomalies)) +
			RenderBar(anomalies, sensors, barWidth, ColorCritical, active == 1),
	}
	return Section("Overview", fmt.Sprintf("%.1f%% anomalous", rate), lines, width)
}

// renderRealtime renders one threshold-highlighted sparkline per metric for
// the streamed zone.
func (m Model) renderRealtime(width int) string {
	n := m.view.Series.Len()
	value := fmt.Sprintf("%d samples", n)
	if m.view.Paused {
		value = "paused"
	}

	if n == 0 {
		hint := "Select a zone to stream live samples"
		if m.view.Zone != "" && m.view.Zone != dashboard.AllZones {
			hint = "Waiting for samples from " + m.view.Zone
		}
		return Section("Real-time", value, []string{LabelStyle.Render(hint)}, width)
	}

	active := m.activeIndex(hover.Realtime)
	var lines []string
	for _, metric := range sensor.Metrics {
		ch := highlight.Resolve(metric, m.view.Series.Channel(metric), m.view.Thresholds.Get(metric))
		idx := len(ch.Points) - 1
		if active >= 0 && active < len(ch.Points) {
			idx = active
		}
		current := ch.Points[idx]
		valueStyle := ValueStyle
		if current.Alert {
			valueStyle = AlertValueStyle
		}

		label := lipgloss.NewStyle().Foreground(highlight.BaseColor(metric)).Render(fmt.Sprintf("%-12s", metric.Label()))
		reading := valueStyle.Render(fmt.Sprintf(" %8.2f %s", current.Value, metric.Unit()))
		alerts := ""
		if c := ch.Alerts(); c > 0 {
			alerts = AlertValueStyle.Render(fmt.Sprintf("  %d over", c))
		}
		lines = append(lines,
			label+RenderChannel(ch, active)+reading+alerts,
			LabelStyle.Render(fmt.Sprintf("%-12s", fmt.Sprintf("> %g", ch.Threshold)))+RenderOverlay(ch),
		)
	}
	if active >= 0 && active < n {
		ts := m.view.Series.Timestamps[active]
		lines = append(lines, LabelStyle.Render("at "+ts.Format("15:04:05")))
	}
	return Section("Real-time", value, lines, width)
}

// renderModelMetrics renders predictive model quality for the active rule.
func (m Model) renderModelMetrics(width int) string {
	if m.view.Snapshot == nil || m.view.Snapshot.Metrics == nil {
		return Section("Model", string(m.view.Rule), []string{LabelStyle.Render("No model metrics")}, width)
	}
	mm := m.view.Snapshot.Metrics
	barWidth := 20

	score := func(label string, v float64) string {
		pct := v * 100
		return LabelStyle.Render(fmt.Sprintf("%-10s", label)) +
			ProgressBar(barWidth, pct) +
			lipgloss.NewStyle().Foreground(ScoreColor(pct)).Render(fmt.Sprintf(" %5.1f%%", pct))
	}

	lines := []string{
		score("accuracy", mm.Accuracy),
		score("precision", mm.Precision),
		score("recall", mm.Recall),
		score("f1", mm.F1),
		LabelStyle.Render(fmt.Sprintf("mse %.4f  tp %d  fp %d  tn %d  fn %d", mm.MSE, mm.TP, mm.FP, mm.TN, mm.FN)),
	}
	if len(mm.Prediction) > 0 {
		graphWidth := width - 20
		lines = append(lines, LabelStyle.Render(fmt.Sprintf("%-10s", "predicted"))+
			RenderMiniSparkline(mm.Prediction, graphWidth, m.activeIndex(hover.Sensor), ColorGraph))
	}
	return Section("Model", string(m.view.Rule), lines, width)
}

// renderThresholds lists the alert thresholds with the edit cursor.
func (m Model) renderThresholds(width int) string {
	lines := make([]string, 0, len(sensor.Metrics))
	for _, metric := range sensor.Metrics {
		marker := "  "
		text := fmt.Sprintf("%-12s %8g %s", metric.Label(), m.view.Thresholds.Get(metric), metric.Unit())
		if metric == m.metric {
			marker = lipgloss.NewStyle().Foreground(ColorAccent).Render("▸ ")
			text = CursorStyle.Render(text)
		} else {
			text = ValueStyle.Render(text)
		}
		lines = append(lines, marker+text)
	}
	return Section("Thresholds", "+/- adjust  s suggest  a apply", lines, width)
}

// renderNotifications renders the newest notifications.
func (m Model) renderNotifications(width int) string {
	items := m.view.Notifications
	value := fmt.Sprintf("%d", len(items))
	if len(items) == 0 {
		return Section("Notifications", value, []string{LabelStyle.Render("No notifications")}, width)
	}
	if len(items) > notificationPreview {
		items = items[:notificationPreview]
	}
	msgWidth := width - 24
	lines := make([]string, 0, len(items))
	for _, n := range items {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			LabelStyle.Render(n.Timestamp.Format("15:04:05")),
			LevelStyle(n.Level).Render(fmt.Sprintf("%-7s", n.Level)),
			ValueStyle.Render(truncateWithEllipsis(n.Message, msgWidth))))
	}
	return Section("Notifications", value, lines, width)
}

// renderFooter renders the short key help.
func (m Model) renderFooter() string {
	return FooterStyle.Render(m.help.View(m.keys))
}
