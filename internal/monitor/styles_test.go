package monitor

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/push"
	"github.com/ziris-labs/ziris/internal/sensor"
)

func TestScoreColor(t *testing.T) {
	tests := []struct {
		percent float64
		want    lipgloss.Color
	}{
		{percent: 95, want: ColorHealthy},
		{percent: 70, want: ColorHealthy},
		{percent: 69.9, want: ColorWarning},
		{percent: 50, want: ColorWarning},
		{percent: 10, want: ColorCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreColor(tt.percent), "percent %v", tt.percent)
	}
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(10, 50)
	assert.Equal(t, 5, strings.Count(bar, "▰"))
	assert.Equal(t, 5, strings.Count(bar, "▱"))

	assert.Equal(t, 10, strings.Count(ProgressBar(10, 150), "▰"), "clamps above 100")
	assert.Equal(t, 10, strings.Count(ProgressBar(10, -5), "▱"), "clamps below 0")
	assert.Equal(t, 1, lipgloss.Width(ProgressBar(0, 50)))
}

func TestLevelColor(t *testing.T) {
	assert.Equal(t, ColorCritical, LevelColor(notify.Danger))
	assert.Equal(t, ColorWarning, LevelColor(notify.Warning))
	assert.Equal(t, ColorGraph, LevelColor(notify.Info))
}

func TestPriorityStyle(t *testing.T) {
	assert.Equal(t, lipgloss.Color(ColorCritical), PriorityStyle(sensor.PriorityCritical).GetForeground())
	assert.Equal(t, lipgloss.Color(ColorWarning), PriorityStyle(sensor.PriorityHigh).GetForeground())
	assert.Equal(t, lipgloss.Color(ColorHealthy), PriorityStyle(sensor.PriorityNormal).GetForeground())
}

func TestPushIndicator(t *testing.T) {
	assert.Contains(t, PushIndicator(push.StateOpen, 0), "live")
	assert.Contains(t, PushIndicator(push.StateClosed, 0), "polling")

	first := PushIndicator(push.StateConnecting, 0)
	second := PushIndicator(push.StateConnecting, 1)
	assert.Contains(t, first, "connecting")
	assert.NotEqual(t, first, second, "spinner advances")
	assert.Equal(t, first, PushIndicator(push.StateConnecting, len(ConnectingSpinnerFrames)))
}

func TestSection(t *testing.T) {
	out := Section("Overview", "42", []string{"a", "bb"}, 30)
	lines := strings.Split(out, "\n")

	assert.Len(t, lines, 4)
	for _, line := range lines {
		assert.Equal(t, 30, lipgloss.Width(line))
	}
	assert.True(t, strings.HasPrefix(lines[0], "╭─ Overview"))
	assert.True(t, strings.HasSuffix(lines[0], "42 ╮"))
	assert.True(t, strings.HasPrefix(lines[3], "╰"))
}

func TestSectionContentLine_Overflow(t *testing.T) {
	line := SectionContentLine(strings.Repeat("x", 50), 20)
	assert.True(t, strings.HasPrefix(line, "│ "))
	assert.True(t, strings.HasSuffix(line, " │"))
}
