package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ziris-labs/ziris/internal/highlight"
)

// sparklineBlocks are block characters for 8-level vertical resolution (lowest to highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// findMinMax returns the minimum and maximum values in a slice.
func findMinMax(data []float64) (minVal, maxVal float64) {
	if len(data) == 0 {
		return 0, 1
	}
	minVal, maxVal = data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// normalizeValue converts a value to 0-1 range given min/max bounds.
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal > minVal {
		return (val - minVal) / (maxVal - minVal)
	}
	return 0.5
}

// clampInt clamps an integer to a range [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// blockFor maps a normalized value to a sparkline block.
func blockFor(normalized float64) rune {
	idx := clampInt(int(normalized*float64(len(sparklineBlocks)-1)+0.5), len(sparklineBlocks)-1)
	return sparklineBlocks[idx]
}

// RenderChannel renders one resolved series as a single-row sparkline, one
// cell per sample. The scale includes the threshold so the overlay row can
// be read against it. Points above threshold use the alert color and a
// heavier glyph; the sample at active (if >= 0) is shown in reverse video.
func RenderChannel(ch highlight.Channel, active int) string {
	if len(ch.Points) == 0 {
		return ""
	}

	values := make([]float64, 0, len(ch.Points)+1)
	for _, p := range ch.Points {
		values = append(values, p.Value)
	}
	minVal, maxVal := findMinMax(append(values, ch.Threshold))

	var b strings.Builder
	for i, p := range ch.Points {
		glyph := string(blockFor(normalizeValue(p.Value, minVal, maxVal)))
		style := lipgloss.NewStyle().Foreground(p.Color)
		if p.Alert {
			style = style.Bold(true)
		}
		if i == active {
			style = style.Reverse(true)
		}
		b.WriteString(style.Render(glyph))
	}
	return b.String()
}

// RenderOverlay renders the threshold line at the same scale as
// RenderChannel: a dash where the sample is at or under the threshold and a
// cross where it is above.
func RenderOverlay(ch highlight.Channel) string {
	var b strings.Builder
	style := lipgloss.NewStyle().Foreground(ColorTextMuted)
	alert := lipgloss.NewStyle().Foreground(highlight.AlertColor)
	for _, p := range ch.Points {
		if p.Alert {
			b.WriteString(alert.Render("┼"))
		} else {
			b.WriteString(style.Render("─"))
		}
	}
	return b.String()
}

// RenderMiniSparkline renders a single-row sparkline of data resampled to
// width characters. The column holding index active is reversed.
func RenderMiniSparkline(data []float64, width, active int, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	minVal, maxVal := findMinMax(data)
	resampled := data
	if len(data) > width {
		resampled = resampleData(data, width)
	}
	activeCol := -1
	if active >= 0 && active < len(data) {
		activeCol = active * len(resampled) / len(data)
	}

	base := lipgloss.NewStyle().Foreground(color)
	var result strings.Builder
	for i, val := range resampled {
		glyph := string(blockFor(normalizeValue(val, minVal, maxVal)))
		if i == activeCol {
			result.WriteString(base.Reverse(true).Render(glyph))
			continue
		}
		result.WriteString(base.Render(glyph))
	}
	return result.String()
}

// RenderBar renders a horizontal bar of value relative to total. The bar is
// reversed when highlighted.
func RenderBar(value, total, width int, color lipgloss.Color, highlighted bool) string {
	if width < 1 {
		width = 1
	}
	filled := 0
	if total > 0 {
		filled = clampInt(value*width/total, width)
	}
	style := lipgloss.NewStyle().Foreground(color)
	if highlighted {
		style = style.Reverse(true)
	}
	return style.Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(ColorTextMuted).Render(strings.Repeat("░", width-filled))
}

// resampleData resamples data to the target size.
// When downsampling (compressing), uses max-based sampling to preserve peaks/spikes.
// When upsampling (expanding), uses linear interpolation.
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}

	if len(data) == targetSize {
		return data
	}

	result := make([]float64, targetSize)

	if len(data) == 1 {
		for i := range result {
			result[i] = data[0]
		}
		return result
	}

	// Downsampling: use max within each bucket to preserve peaks
	if len(data) > targetSize {
		bucketSize := float64(len(data)) / float64(targetSize)
		for i := 0; i < targetSize; i++ {
			start := int(float64(i) * bucketSize)
			end := int(float64(i+1) * bucketSize)
			if end > len(data) {
				end = len(data)
			}
			if start >= end {
				start = end - 1
			}
			if start < 0 {
				start = 0
			}

			maxVal := data[start]
			for j := start + 1; j < end; j++ {
				if data[j] > maxVal {
					maxVal = data[j]
				}
			}
			result[i] = maxVal
		}
		return result
	}

	// Upsampling: linear interpolation
	scale := float64(len(data)-1) / float64(targetSize-1)
	for i := 0; i < targetSize; i++ {
		pos := float64(i) * scale
		idx := int(pos)
		frac := pos - float64(idx)

		if idx >= len(data)-1 {
			result[i] = data[len(data)-1]
		} else {
			result[i] = data[idx]*(1-frac) + data[idx+1]*frac
		}
	}

	return result
}
