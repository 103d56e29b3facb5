package monitor

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziris-labs/ziris/internal/highlight"
	"github.com/ziris-labs/ziris/internal/sensor"
)

func init() {
	// Plain output so tests can match rendered text
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFindMinMax(t *testing.T) {
	tests := []struct {
		name    string
		data    []float64
		wantMin float64
		wantMax float64
	}{
		{name: "empty data returns unit range", data: nil, wantMin: 0, wantMax: 1},
		{name: "single value", data: []float64{4}, wantMin: 4, wantMax: 4},
		{name: "mixed values", data: []float64{-50, 200, 500}, wantMin: -50, wantMax: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minVal, maxVal := findMinMax(tt.data)
			assert.Equal(t, tt.wantMin, minVal)
			assert.Equal(t, tt.wantMax, maxVal)
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, 0.0, normalizeValue(10, 10, 20))
	assert.Equal(t, 1.0, normalizeValue(20, 10, 20))
	assert.Equal(t, 0.25, normalizeValue(15, 10, 30))
	assert.Equal(t, 0.5, normalizeValue(7, 7, 7), "flat data sits mid-range")
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 0, clampInt(-3, 7))
	assert.Equal(t, 7, clampInt(12, 7))
	assert.Equal(t, 4, clampInt(4, 7))
}

func TestResampleData(t *testing.T) {
	t.Run("downsampling keeps peaks", func(t *testing.T) {
		got := resampleData([]float64{1, 9, 2, 3, 8, 1}, 3)
		assert.Equal(t, []float64{9, 3, 8}, got)
	})

	t.Run("upsampling interpolates", func(t *testing.T) {
		got := resampleData([]float64{0, 10}, 3)
		assert.Equal(t, []float64{0, 5, 10}, got)
	})

	t.Run("single value fills", func(t *testing.T) {
		assert.Equal(t, []float64{3, 3}, resampleData([]float64{3}, 2))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, resampleData(nil, 4))
	})
}

func TestRenderChannel(t *testing.T) {
	ch := highlight.Resolve(sensor.Temp, []float64{70, 85, 75, 60}, 80)

	out := RenderChannel(ch, -1)
	assert.Equal(t, 4, lipgloss.Width(out))
	// the 85 sample is the series maximum
	assert.Equal(t, '█', []rune(out)[1])

	assert.Empty(t, RenderChannel(highlight.Channel{}, 0))
}

func TestRenderChannel_ScaleIncludesThreshold(t *testing.T) {
	// Every sample sits far below the threshold, so none reaches the top.
	ch := highlight.Resolve(sensor.Smoke, []float64{10, 20, 30}, 1000)
	assert.NotContains(t, RenderChannel(ch, -1), "█")
}

func TestRenderOverlay(t *testing.T) {
	ch := highlight.Resolve(sensor.Temp, []float64{70, 85, 75}, 80)
	assert.Equal(t, "─┼─", RenderOverlay(ch))
}

func TestRenderMiniSparkline(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i % 10)
	}

	out := RenderMiniSparkline(data, 20, 50, ColorGraph)
	assert.Equal(t, 20, lipgloss.Width(out))

	short := RenderMiniSparkline([]float64{1, 2, 3}, 20, -1, ColorGraph)
	assert.Equal(t, 3, lipgloss.Width(short), "short data is not stretched")

	assert.Empty(t, RenderMiniSparkline(nil, 20, 0, ColorGraph))
	assert.Empty(t, RenderMiniSparkline(data, 0, 0, ColorGraph))
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name       string
		value      int
		total      int
		width      int
		wantFilled int
	}{
		{name: "half", value: 5, total: 10, width: 10, wantFilled: 5},
		{name: "full", value: 10, total: 10, width: 8, wantFilled: 8},
		{name: "over total clamps", value: 20, total: 10, width: 8, wantFilled: 8},
		{name: "zero total", value: 3, total: 0, width: 6, wantFilled: 0},
		{name: "minimum width", value: 1, total: 1, width: 0, wantFilled: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderBar(tt.value, tt.total, tt.width, ColorGraph, false)
			require.Equal(t, tt.wantFilled, strings.Count(out, "█"))
			width := tt.width
			if width < 1 {
				width = 1
			}
			assert.Equal(t, width, lipgloss.Width(out))
		})
	}
}
