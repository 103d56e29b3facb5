package monitor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziris-labs/ziris/internal/api"
	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/hover"
	"github.com/ziris-labs/ziris/internal/push"
	"github.com/ziris-labs/ziris/internal/series"
)

func sized(t *testing.T, m Model, w, h int) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return next.(Model)
}

func TestRenderDashboard(t *testing.T) {
	v := testView()
	v.User = api.Claims{Username: "operator"}
	v.Push = push.StateOpen
	m, _ := newTestModel(v)
	m = sized(t, m, 120, 60)

	out := m.View()

	for _, want := range []string{
		"ziris",
		"operator",
		"zone north",
		"rule k2",
		"3s ago",
		"live",
		"Overview",
		"33.3% anomalous",
		"north",
		"south",
		"Real-time",
		"3 samples",
		"Temperature",
		"1 over",
		"Model",
		"accuracy",
		"Thresholds",
		"Notifications",
		"Critical temperature in north",
		"quit",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "PAUSED")
	assert.NotContains(t, out, "✗")
}

func TestRenderHeader_States(t *testing.T) {
	v := testView()
	v.Paused = true
	v.Push = push.StateConnecting
	v.Zone = ""
	m, _ := newTestModel(v)

	header := m.renderHeader()
	assert.Contains(t, header, "PAUSED")
	assert.Contains(t, header, "connecting")
	assert.Contains(t, header, "zone all")
	assert.Contains(t, header, "anonymous")

	m.view.Push = push.StateClosed
	assert.Contains(t, m.renderHeader(), "polling")
}

func TestFormatAgo(t *testing.T) {
	assert.Equal(t, "never refreshed", formatAgo(-1))
	assert.Equal(t, "just now", formatAgo(0))
	assert.Equal(t, "12s ago", formatAgo(12))
}

func TestRenderStatusLine(t *testing.T) {
	v := testView()
	v.Error = "Request to /recommendations failed"
	v.ErrorCode = "NETWORK"
	m, _ := newTestModel(v)

	line := m.renderStatusLine()
	assert.Contains(t, line, "✗ Request to /recommendations failed [NETWORK]")

	m.busy = "Retrain"
	assert.Contains(t, m.renderStatusLine(), "Retrain...")

	m.busy = ""
	m.notice = "Retrain done"
	assert.Contains(t, m.renderStatusLine(), "Retrain done")

	m.view.Error = ""
	m.notice = ""
	assert.Empty(t, m.renderStatusLine())
}

func TestRenderRealtime_Empty(t *testing.T) {
	v := testView()
	v.Series = series.Contents{}
	v.Zone = dashboard.AllZones
	m, _ := newTestModel(v)

	assert.Contains(t, m.renderRealtime(80), "Select a zone to stream live samples")

	m.view.Zone = "north"
	assert.Contains(t, m.renderRealtime(80), "Waiting for samples from north")

	m.view.Paused = true
	assert.Contains(t, m.renderRealtime(80), "paused")
}

func TestRenderRealtime_HoverShowsTimestamp(t *testing.T) {
	m, ctrl := newTestModel(testView())

	// Another surface hovered the second sample.
	ctrl.markers[hover.Realtime].SetActive(1)
	out := m.renderRealtime(100)
	assert.Contains(t, out, "at 10:00:01")
	assert.Contains(t, out, "85.00 °C")

	// The local cursor wins on the focused chart.
	m.cursor = 0
	out = m.renderRealtime(100)
	assert.Contains(t, out, "at 10:00:00")
	assert.Contains(t, out, "70.00 °C")
}

func TestRenderRealtime_LinesFitWidth(t *testing.T) {
	m, _ := newTestModel(testView())
	for _, line := range strings.Split(m.renderRealtime(100), "\n") {
		assert.Equal(t, 100, lipgloss.Width(line), "line %q", line)
	}
}

func TestRenderModelMetrics_Missing(t *testing.T) {
	v := testView()
	v.Snapshot.Metrics = nil
	m, _ := newTestModel(v)
	assert.Contains(t, m.renderModelMetrics(80), "No model metrics")
}

func TestRenderDashboard_CompactHidesModel(t *testing.T) {
	m, _ := newTestModel(testView())
	m = sized(t, m, 70, 20)

	out := m.View()
	assert.NotContains(t, out, "accuracy")
	assert.NotContains(t, out, "tab focus chart", "footer hidden on short terminals")
}

func TestRenderThresholds_Cursor(t *testing.T) {
	m, _ := newTestModel(testView())
	out := m.renderThresholds(80)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "▸ Temperature")
	assert.Contains(t, lines[1], "80 °C")
	assert.NotContains(t, lines[2], "▸")
}

func TestRenderNotifications(t *testing.T) {
	v := testView()
	v.Notifications = append(v.Notifications, v.Notifications...)
	m, _ := newTestModel(v)

	out := m.renderNotifications(80)
	assert.Contains(t, out, "╭─ Notifications")
	assert.Contains(t, out, " 4 ")
	// only the newest three are listed
	assert.Len(t, strings.Split(out, "\n"), 5)

	m.view.Notifications = nil
	assert.Contains(t, m.renderNotifications(80), "No notifications")
}

func TestRenderZoneCards(t *testing.T) {
	m, _ := newTestModel(testView())
	out := m.renderZoneCards()

	assert.Contains(t, out, "north")
	assert.Contains(t, out, "sensors 6")
	assert.Contains(t, out, "85.0 °C")

	m.view.Snapshot = nil
	assert.Equal(t, "No zone data yet", m.renderZoneCards())
}

func TestRenderDetailView(t *testing.T) {
	m, _ := newTestModel(testView())
	m = sized(t, m, 120, 60)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	out := m.View()
	assert.Contains(t, out, "Recommendations")
	assert.Contains(t, out, "Inspect cooling loop")
	assert.Contains(t, out, "- temp above limit")
	assert.NotContains(t, out, "Routine check", "filtered to the selected zone")
	assert.Contains(t, out, "Model retrained")
	assert.Contains(t, out, "Esc back")
}

func TestRenderDetailView_AllZones(t *testing.T) {
	v := testView()
	v.Zone = dashboard.AllZones
	m, _ := newTestModel(v)
	m.viewMode = ViewDetail

	out := m.View()
	assert.Contains(t, out, "Routine check")
	assert.Contains(t, out, "CRITIQUE")
}

func TestRenderHelpOverlay(t *testing.T) {
	m, _ := newTestModel(testView())
	m.showHelp = true

	out := m.View()
	assert.Contains(t, out, "Keyboard Shortcuts")
	assert.Contains(t, out, "apply all suggestions")
	assert.Contains(t, out, "Press ? to close")
}
