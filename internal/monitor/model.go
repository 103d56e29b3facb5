package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ziris-labs/ziris/internal/dashboard"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/hover"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// Controller is the session surface the dashboard drives.
type Controller interface {
	View() dashboard.View
	Subscribe() (<-chan dashboard.View, func())
	RefreshNow(ctx context.Context) error
	SelectZone(zone string)
	TogglePause()
	SetRule(r sensor.DecisionRule)
	SuggestThreshold(ctx context.Context, m sensor.Metric) error
	ApplySuggestions(ctx context.Context) error
	SetThreshold(ctx context.Context, m sensor.Metric, v float64) error
	Retrain(ctx context.Context) error
	Seed(ctx context.Context, n int) error
	Reconnect(ctx context.Context) error
	DismissNotification(id string)
	SyncHover(index int, origin hover.ChartID)
	ClearHover(origin hover.ChartID)
	HoverMarker(id hover.ChartID) *hover.Marker
}

// Layout breakpoints
const (
	BreakpointCompact = 80
	BreakpointWide    = 140
	HeightMinimal     = 24
)

// actionTimeout bounds every user-triggered API action.
const actionTimeout = 15 * time.Second

// spinnerInterval is the animation frame rate for the push connecting spinner
const spinnerInterval = 150 * time.Millisecond

// thresholdSteps is how far +/- moves each metric's threshold.
var thresholdSteps = map[sensor.Metric]float64{
	sensor.Temp:      1,
	sensor.Pressure:  0.1,
	sensor.Vibration: 0.5,
	sensor.Smoke:     5,
}

// Model is the Bubble Tea model for the sensor dashboard. All view state
// comes from the session; the model only owns presentation state.
type Model struct {
	ctrl   Controller
	views  <-chan dashboard.View
	cancel func()
	view   dashboard.View

	keys     keyMap
	help     help.Model
	showHelp bool
	viewMode ViewMode

	width  int
	height int

	focus  hover.ChartID
	cursor int // hover index on the focused chart, -1 when none
	metric sensor.Metric

	notice   string // outcome of the last action
	busy     string // label of the running action
	seedRows int

	spinnerFrame int
	quitting     bool
	now          func() time.Time

	detailViewport viewport.Model
	viewportReady  bool
}

// viewMsg carries a newly published session view.
type viewMsg dashboard.View

// viewsClosedMsg signals the session was closed.
type viewsClosedMsg struct{}

// actionMsg reports the outcome of a background action.
type actionMsg struct {
	label string
	err   error
}

// spinnerTickMsg signals a spinner animation frame update.
type spinnerTickMsg time.Time

// NewModel creates a dashboard bound to ctrl. seedRows is the number of
// rows the generate action inserts.
func NewModel(ctrl Controller, seedRows int) Model {
	views, cancel := ctrl.Subscribe()
	return Model{
		ctrl:     ctrl,
		views:    views,
		cancel:   cancel,
		view:     ctrl.View(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		focus:    hover.Realtime,
		cursor:   -1,
		metric:   sensor.Temp,
		seedRows: seedRows,
		now:      time.Now,
	}
}

// Init starts listening for views and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForView(), m.spinnerTickCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header and footer
		headerHeight := 3
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, viewportHeight)
			m.detailViewport.YPosition = headerHeight
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = viewportHeight
		}
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}

	case viewMsg:
		m.view = dashboard.View(msg)
		m.clampCursor()
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}
		return m, m.waitForView()

	case viewsClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case actionMsg:
		m.busy = ""
		if msg.err != nil {
			m.notice = msg.label + " failed: " + errors.Message(msg.err)
		} else {
			m.notice = msg.label + " done"
		}

	case spinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % 10000
		return m, m.spinnerTickCmd()
	}

	if m.viewMode == ViewDetail {
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewDetail {
		return m.renderDetailView()
	}
	return m.renderDashboard()
}

// Close stops the view subscription.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// Help toggle takes priority
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key.Matches(msg, m.keys.Back) {
		m.showHelp = false
		return true, nil
	}
	if m.viewMode == ViewDetail {
		if key.Matches(msg, m.keys.Back, m.keys.Detail) {
			m.viewMode = ViewDashboard
			return true, nil
		}
		// scrolling belongs to the viewport
		if key.Matches(msg, m.keys.Up, m.keys.Down) {
			return false, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Close()
		return true, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		return true, m.run("Refresh", m.ctrl.RefreshNow)

	case key.Matches(msg, m.keys.Zone):
		m.ctrl.SelectZone(m.nextZone())
		return true, nil

	case key.Matches(msg, m.keys.Pause):
		m.ctrl.TogglePause()
		return true, nil

	case key.Matches(msg, m.keys.Rule):
		m.ctrl.SetRule(m.view.Rule.Next())
		return true, nil

	case key.Matches(msg, m.keys.Focus):
		m.ctrl.ClearHover(m.focus)
		m.focus = nextFocus(m.focus)
		m.cursor = -1
		return true, nil

	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1)
		return true, nil

	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1)
		return true, nil

	case key.Matches(msg, m.keys.Back):
		if m.cursor >= 0 {
			m.cursor = -1
			m.ctrl.ClearHover(m.focus)
		}
		return true, nil

	case key.Matches(msg, m.keys.Up):
		m.metric = sensor.Metrics[(int(m.metric)+len(sensor.Metrics)-1)%len(sensor.Metrics)]
		return true, nil

	case key.Matches(msg, m.keys.Down):
		m.metric = sensor.Metrics[(int(m.metric)+1)%len(sensor.Metrics)]
		return true, nil

	case key.Matches(msg, m.keys.Raise):
		return true, m.stepThreshold(1)

	case key.Matches(msg, m.keys.Lower):
		return true, m.stepThreshold(-1)

	case key.Matches(msg, m.keys.Suggest):
		metric := m.metric
		return true, m.run("Suggest "+metric.Label(), func(ctx context.Context) error {
			return m.ctrl.SuggestThreshold(ctx, metric)
		})

	case key.Matches(msg, m.keys.ApplyAll):
		return true, m.run("Apply suggestions", m.ctrl.ApplySuggestions)

	case key.Matches(msg, m.keys.Retrain):
		return true, m.run("Retrain", m.ctrl.Retrain)

	case key.Matches(msg, m.keys.Seed):
		n := m.seedRows
		return true, m.run("Generate data", func(ctx context.Context) error {
			return m.ctrl.Seed(ctx, n)
		})

	case key.Matches(msg, m.keys.Reconnect):
		return true, m.run("Reconnect", m.ctrl.Reconnect)

	case key.Matches(msg, m.keys.Dismiss):
		if len(m.view.Notifications) > 0 {
			m.ctrl.DismissNotification(m.view.Notifications[0].ID)
		}
		return true, nil

	case key.Matches(msg, m.keys.Detail):
		m.viewMode = ViewDetail
		m.updateDetailViewportContent()
		return true, nil
	}

	return false, nil
}

// run executes fn off the UI goroutine and reports through actionMsg.
func (m *Model) run(label string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = label
	m.notice = ""
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionMsg{label: label, err: fn(ctx)}
	}
}

func (m *Model) stepThreshold(dir float64) tea.Cmd {
	metric := m.metric
	next := m.view.Thresholds.Get(metric) + dir*thresholdSteps[metric]
	next = math.Round(next*100) / 100
	if next < 0 {
		next = 0
	}
	return m.run(fmt.Sprintf("Set %s to %g", metric.Label(), next), func(ctx context.Context) error {
		return m.ctrl.SetThreshold(ctx, metric, next)
	})
}

// moveCursor moves the hover index on the focused chart and propagates it.
func (m *Model) moveCursor(delta int) {
	n := m.view.ChartLengths()[m.focus]
	if n == 0 {
		return
	}
	switch {
	case m.cursor < 0 && delta < 0:
		m.cursor = n - 1
	case m.cursor < 0:
		m.cursor = 0
	default:
		m.cursor = hover.Clamp(m.cursor+delta, n)
	}
	m.ctrl.SyncHover(m.cursor, m.focus)
}

// clampCursor keeps the local cursor inside the focused chart after its
// data length changed.
func (m *Model) clampCursor() {
	if m.cursor < 0 {
		return
	}
	n := m.view.ChartLengths()[m.focus]
	if n == 0 {
		m.cursor = -1
		return
	}
	m.cursor = hover.Clamp(m.cursor, n)
}

// nextZone cycles all -> each zone -> all.
func (m Model) nextZone() string {
	zones := m.view.Zones()
	if len(zones) == 0 {
		return dashboard.AllZones
	}
	if m.view.Zone == dashboard.AllZones || m.view.Zone == "" {
		return zones[0]
	}
	for i, z := range zones {
		if z == m.view.Zone {
			if i+1 < len(zones) {
				return zones[i+1]
			}
			return dashboard.AllZones
		}
	}
	return zones[0]
}

// waitForView blocks on the subscription for the next view.
func (m Model) waitForView() tea.Cmd {
	views := m.views
	return func() tea.Msg {
		v, ok := <-views
		if !ok {
			return viewsClosedMsg{}
		}
		return viewMsg(v)
	}
}

// spinnerTickCmd returns a command that sends a spinner tick for animation.
func (m Model) spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// SecondsSinceRefresh returns how many seconds have passed since the last
// applied refresh, or -1 before the first one.
func (m Model) SecondsSinceRefresh() int {
	if m.view.LastRefresh.IsZero() {
		return -1
	}
	return int(m.now().Sub(m.view.LastRefresh).Seconds())
}

// ShowFooter returns true if the terminal is tall enough to show the footer.
func (m Model) ShowFooter() bool {
	return m.height == 0 || m.height >= HeightMinimal
}
