package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// GradientColors is the spinner color cycle: pink, purple, cyan, green.
var GradientColors = []lipgloss.Color{"#FF2E97", "#BF40FF", "#00FFFF", "#39FF14"}

// Text styles
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorInfo)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
)

// DisableColors switches all rendering to plain text.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// LevelStyle colors a notification level.
func LevelStyle(l notify.Level) lipgloss.Style {
	switch l {
	case notify.Danger:
		return ErrorStyle
	case notify.Warning:
		return WarningStyle
	default:
		return InfoStyle
	}
}

// JobStatusStyle colors a background job status.
func JobStatusStyle(s sensor.JobStatus) lipgloss.Style {
	switch s {
	case sensor.JobCompleted:
		return SuccessStyle
	case sensor.JobFailed:
		return ErrorStyle
	case sensor.JobRunning:
		return InfoStyle
	default:
		return MutedStyle
	}
}

// PrintWarning writes a warning line to w.
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, WarningStyle.Render(SymbolWarning+" "+fmt.Sprintf(format, args...)))
}

// PrintSuccess writes a success line to w.
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SuccessStyle.Render(SymbolSuccess)+" "+fmt.Sprintf(format, args...))
}
