package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// Detail view styles
var (
	detailContainerStyle = lipgloss.NewStyle().
				Padding(0, 2)

	detailSectionStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(0, 1).
				MarginBottom(1)

	detailTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	reasonStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			PaddingLeft(2)
)

// renderDetailView renders the scrollable recommendations and notification
// history.
func (m Model) renderDetailView() string {
	var b strings.Builder
	b.WriteString(m.renderDetailHeader())
	b.WriteString("\n\n")

	if m.viewportReady {
		b.WriteString(m.detailViewport.View())
	} else {
		b.WriteString(m.detailContent())
	}

	b.WriteString("\n")
	b.WriteString(m.renderDetailFooter())
	return detailContainerStyle.Render(b.String())
}

// updateDetailViewportContent refreshes the viewport with the current view.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady {
		return
	}
	m.detailViewport.SetContent(m.detailContent())
}

func (m Model) renderDetailHeader() string {
	zone := m.view.Zone
	if zone == "" {
		zone = dashboard.AllZones
	}
	title := detailTitleStyle.Render("Recommendations")
	scope := LabelStyle.Render(fmt.Sprintf("zone %s | rule %s", zone, m.view.Rule))
	return fmt.Sprintf("%s  %s", title, scope)
}

// detailContent builds the full detail body at the current width.
func (m Model) detailContent() string {
	width := m.width - 6
	if width < 40 {
		width = 40
	}

	var b strings.Builder
	b.WriteString(m.renderRecommendationSection(width))
	b.WriteString("\n")
	b.WriteString(m.renderNotificationHistory(width))
	return b.String()
}

func (m Model) renderRecommendationSection(width int) string {
	recs := m.recommendations()
	if len(recs) == 0 {
		return detailSectionStyle.Width(width).Render(LabelStyle.Render("No recommendations"))
	}

	var lines []string
	for i, r := range recs {
		if i > 0 {
			lines = append(lines, "")
		}
		head := fmt.Sprintf("%s %s %s",
			PriorityStyle(r.Priority).Render(strings.ToUpper(r.Priority)),
			ZoneNameStyle.Render(r.Zone),
			LabelStyle.Render(r.Timestamp))
		lines = append(lines, head)
		if r.RiskArea != "" {
			lines = append(lines, LabelStyle.Render("risk area: ")+ValueStyle.Render(r.RiskArea))
		}
		lines = append(lines, ValueStyle.Render(r.Recommendation))
		for _, reason := range r.Reasons {
			lines = append(lines, reasonStyle.Render("- "+reason))
		}
	}
	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderNotificationHistory(width int) string {
	if len(m.view.Notifications) == 0 {
		return detailSectionStyle.Width(width).Render(LabelStyle.Render("No notifications"))
	}
	lines := make([]string, 0, len(m.view.Notifications))
	for _, n := range m.view.Notifications {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			LabelStyle.Render(n.Timestamp.Format("15:04:05")),
			LevelStyle(n.Level).Render(fmt.Sprintf("%-7s", n.Level)),
			ValueStyle.Render(n.Message)))
	}
	return detailSectionStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// recommendations returns the snapshot's recommendations filtered to the
// selected zone.
func (m Model) recommendations() []sensor.Recommendation {
	if m.view.Snapshot == nil {
		return nil
	}
	all := m.view.Snapshot.Recommendations
	if m.view.Zone == "" || m.view.Zone == dashboard.AllZones {
		return all
	}
	var out []sensor.Recommendation
	for _, r := range all {
		if r.Zone == m.view.Zone {
			out = append(out, r)
		}
	}
	return out
}

// renderDetailFooter renders navigation hints for the detail view.
func (m Model) renderDetailFooter() string {
	hints := []string{"Esc back", "↑/↓ scroll", "q quit"}
	return FooterStyle.Render(strings.Join(hints, " | "))
}
