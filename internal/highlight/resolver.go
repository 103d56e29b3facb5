// Package highlight decides how each plotted sample is emphasized relative
// to the alert thresholds.
package highlight

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ziris-labs/ziris/internal/sensor"
	"github.com/ziris-labs/ziris/internal/series"
)

// AlertColor marks points and segments above threshold.
const AlertColor = lipgloss.Color("#ff2d55")

const (
	PointRadius       = 2
	AlertPointRadius  = 4
	SegmentWidth      = 2
	AlertSegmentWidth = 3
)

// BaseColor returns the normal color of a metric's series.
func BaseColor(m sensor.Metric) lipgloss.Color {
	switch m {
	case sensor.Temp:
		return lipgloss.Color("#FF6384")
	case sensor.Pressure:
		return lipgloss.Color("#36A2EB")
	case sensor.Vibration:
		return lipgloss.Color("#FF9F40")
	case sensor.Smoke:
		return lipgloss.Color("#4BC0C0")
	default:
		return lipgloss.Color("#999999")
	}
}

// Point is the render attributes of one sample.
type Point struct {
	Value  float64        `json:"value"`
	Alert  bool           `json:"alert"`
	Color  lipgloss.Color `json:"color"`
	Radius int            `json:"radius"`
}

// Segment joins point From-1 and point To.
type Segment struct {
	To    int            `json:"to"`
	Alert bool           `json:"alert"`
	Color lipgloss.Color `json:"color"`
	Width int            `json:"width"`
}

// Channel is the resolved rendering of one metric.
type Channel struct {
	Metric    string    `json:"metric"`
	Threshold float64   `json:"threshold"`
	Points    []Point   `json:"points"`
	Segments  []Segment `json:"segments"`
	// Overlay is a constant line at the threshold, one value per point.
	Overlay []float64 `json:"overlay"`
}

// Resolve computes point, segment and overlay attributes for one metric.
func Resolve(m sensor.Metric, values []float64, threshold float64) Channel {
	base := BaseColor(m)
	ch := Channel{
		Metric:    m.Key(),
		Threshold: threshold,
		Points:    make([]Point, len(values)),
		Overlay:   make([]float64, len(values)),
	}

	for i, v := range values {
		p := Point{Value: v, Color: base, Radius: PointRadius}
		if v > threshold {
			p.Alert = true
			p.Color = AlertColor
			p.Radius = AlertPointRadius
		}
		ch.Points[i] = p
		ch.Overlay[i] = threshold
	}

	if len(values) > 1 {
		ch.Segments = make([]Segment, 0, len(values)-1)
		for i := 1; i < len(values); i++ {
			s := Segment{To: i, Color: base, Width: SegmentWidth}
			if ch.Points[i-1].Alert || ch.Points[i].Alert {
				s.Alert = true
				s.Color = AlertColor
				s.Width = AlertSegmentWidth
			}
			ch.Segments = append(ch.Segments, s)
		}
	}
	return ch
}

// ResolveAll resolves every metric of the series window.
func ResolveAll(c series.Contents, th sensor.Thresholds) []Channel {
	out := make([]Channel, 0, len(sensor.Metrics))
	for _, m := range sensor.Metrics {
		out = append(out, Resolve(m, c.Channel(m), th.Get(m)))
	}
	return out
}

// Alerts counts points above threshold.
func (c Channel) Alerts() int {
	n := 0
	for _, p := range c.Points {
		if p.Alert {
			n++
		}
	}
	return n
}
