package monitor

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/ziris-labs/ziris/internal/hover"
)

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewDashboard ViewMode = iota
	ViewDetail
)

// focusOrder is the order Tab cycles through hoverable charts.
var focusOrder = []hover.ChartID{hover.Realtime, hover.Sensor, hover.Zone, hover.Overview}

// nextFocus cycles to the chart after id.
func nextFocus(id hover.ChartID) hover.ChartID {
	for i, f := range focusOrder {
		if f == id {
			return focusOrder[(i+1)%len(focusOrder)]
		}
	}
	return focusOrder[0]
}

// keyMap holds every dashboard binding. It implements help.KeyMap.
type keyMap struct {
	Quit      key.Binding
	Refresh   key.Binding
	Zone      key.Binding
	Pause     key.Binding
	Rule      key.Binding
	Focus     key.Binding
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	Raise     key.Binding
	Lower     key.Binding
	Suggest   key.Binding
	ApplyAll  key.Binding
	Retrain   key.Binding
	Seed      key.Binding
	Reconnect key.Binding
	Dismiss   key.Binding
	Detail    key.Binding
	Back      key.Binding
	Help      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		Zone: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "cycle zone"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause tracking"),
		),
		Rule: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "decision rule"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus chart"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "hover left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "hover right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous metric"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next metric"),
		),
		Raise: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "raise threshold"),
		),
		Lower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "lower threshold"),
		),
		Suggest: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "suggest threshold"),
		),
		ApplyAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "apply all suggestions"),
		),
		Retrain: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "retrain model"),
		),
		Seed: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate data"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "reconnect push"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss notification"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / clear hover"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.Zone, k.Pause, k.Focus, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Zone, k.Pause, k.Rule, k.Detail, k.Back},
		{k.Focus, k.Left, k.Right, k.Up, k.Down},
		{k.Raise, k.Lower, k.Suggest, k.ApplyAll},
		{k.Retrain, k.Seed, k.Reconnect, k.Dismiss, k.Help, k.Quit},
	}
}
