package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ziris-labs/ziris/internal/highlight"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/push"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// Dashboard color palette - Gen Z Electric Synthwave
const (
	// Background colors (glassmorphism-inspired)
	ColorDarkBg    = lipgloss.Color("#0A0A0F") // Deep void
	ColorSurfaceBg = lipgloss.Color("#12121A") // Dark surface
	ColorBorder    = lipgloss.Color("#2A2A4A") // Glass border (purple tint)

	// Semantic colors - neon style
	ColorHealthy  = lipgloss.Color("#39FF14") // Neon green
	ColorWarning  = lipgloss.Color("#FFAA00") // Electric amber
	ColorCritical = highlight.AlertColor

	// Text colors
	ColorTextPrimary   = lipgloss.Color("#FFFFFF") // Pure white
	ColorTextSecondary = lipgloss.Color("#B4B4D0") // Lavender gray
	ColorTextMuted     = lipgloss.Color("#6B6B8D") // Purple-gray

	// Accent colors - neon pink primary, cyan secondary
	ColorAccent    = lipgloss.Color("#FF2E97") // Neon pink
	ColorAccentDim = lipgloss.Color("#BF40FF") // Neon purple

	// Graph colors
	ColorGraph = lipgloss.Color("#00FFFF") // Neon cyan
)

// Score thresholds for model quality percentages
const (
	WarningScore  = 70.0
	CriticalScore = 50.0
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1)

	CardSelectedStyle = CardStyle.
				BorderForeground(ColorAccent)

	ZoneNameStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	AlertValueStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true)

	ErrorLineStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true).
			Padding(0, 1)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorGraph).
			Padding(0, 1)

	PausedBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorDarkBg).
				Background(ColorWarning).
				Bold(true).
				Padding(0, 1)

	CursorStyle = lipgloss.NewStyle().
			Reverse(true)
)

// Push state indicator characters - cyber glyphs
const (
	PushOpen   = "◉" // Filled target - live
	PushClosed = "◌" // Dashed circle
)

// ConnectingSpinnerFrames are the animation frames for the connecting state
// Rotates through half-circle positions for a smooth spin effect
var ConnectingSpinnerFrames = []string{"◐", "◓", "◑", "◒"}

// PushIndicator renders the live-channel glyph and label for a state.
func PushIndicator(s push.State, frame int) string {
	switch s {
	case push.StateOpen:
		return lipgloss.NewStyle().Foreground(ColorHealthy).Render(PushOpen + " live")
	case push.StateConnecting:
		glyph := ConnectingSpinnerFrames[frame%len(ConnectingSpinnerFrames)]
		return lipgloss.NewStyle().Foreground(ColorWarning).Render(glyph + " connecting")
	default:
		return lipgloss.NewStyle().Foreground(ColorTextMuted).Render(PushClosed + " polling")
	}
}

// LevelColor returns the color for a notification level.
func LevelColor(l notify.Level) lipgloss.Color {
	switch l {
	case notify.Danger:
		return ColorCritical
	case notify.Warning:
		return ColorWarning
	default:
		return ColorGraph
	}
}

// LevelStyle returns a bold style in the level's color.
func LevelStyle(l notify.Level) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(LevelColor(l)).Bold(true)
}

// PriorityStyle colors a recommendation priority.
func PriorityStyle(priority string) lipgloss.Style {
	switch priority {
	case sensor.PriorityCritical:
		return lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
	case sensor.PriorityHigh:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		return lipgloss.NewStyle().Foreground(ColorHealthy)
	}
}

// ScoreColor returns the color for a model quality percentage.
// Higher is better: green >= 70%, amber >= 50%, red below.
func ScoreColor(percent float64) lipgloss.Color {
	switch {
	case percent >= WarningScore:
		return ColorHealthy
	case percent >= CriticalScore:
		return ColorWarning
	default:
		return ColorCritical
	}
}

// ProgressBar renders a progress bar with the given width and percentage.
// Uses bracketless Gen Z style with score-based coloring.
func ProgressBar(width int, percent float64) string {
	if width < 1 {
		width = 1
	}

	// Clamp percentage to 0-100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return lipgloss.NewStyle().Foreground(ScoreColor(percent)).Render(bar)
}

// SectionHeader renders a section header with the title on the left and value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	// Left: "╭─ " (3 chars) + title + " " (1 char)
	leftWidth := 3 + lipgloss.Width(title) + 1

	// Right: " " (1 char) + value + " ╮" (2 chars)
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}
	middle := strings.Repeat("─", fillWidth)

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+middle+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
// Format: ╰────────────────────────────────────────────────────╯
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	middle := strings.Repeat("─", width-2)
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + middle + "╯")
}

// SectionContentLine renders a content line with left and right borders, properly padded to width.
// Format: │ content                                              │
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	contentWidth := lipgloss.Width(content)

	// Inner width is total width minus "│ " on the left and " │" on the right
	innerWidth := width - 4
	padding := innerWidth - contentWidth
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}

// Section renders a titled box around lines.
func Section(title, value string, lines []string, width int) string {
	var b strings.Builder
	b.WriteString(SectionHeader(title, value, width))
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(SectionContentLine(line, width))
		b.WriteString("\n")
	}
	b.WriteString(SectionFooter(width))
	return b.String()
}
