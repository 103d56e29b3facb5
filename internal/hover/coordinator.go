// Package hover keeps the highlighted data index in step across every
// chart on the dashboard.
package hover

import (
	"sort"
	"sync"
)

// ChartID names a chart surface.
type ChartID string

const (
	Overview ChartID = "overview"
	Sensor   ChartID = "sensor"
	Zone     ChartID = "zone"
	Realtime ChartID = "realtime"
)

// ChartIDs is the fixed set of dashboard charts.
var ChartIDs = []ChartID{Overview, Sensor, Zone, Realtime}

// Chart is a rendered surface that can show an active point.
type Chart interface {
	// Len returns the number of data points currently plotted.
	Len() int
	SetActive(index int)
	ClearActive()
}

// Active is the shared hover state.
type Active struct {
	Index  int     `json:"index"`
	Valid  bool    `json:"valid"`
	Origin ChartID `json:"origin"`
}

// Coordinator propagates hover state from the chart under the cursor to
// every other registered chart.
type Coordinator struct {
	mu     sync.Mutex
	charts map[ChartID]Chart
	active Active
}

// NewCoordinator creates an empty registry.
func NewCoordinator() *Coordinator {
	return &Coordinator{charts: make(map[ChartID]Chart)}
}

// Register adds or replaces a chart. Registering nil removes it.
func (c *Coordinator) Register(id ChartID, chart Chart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if chart == nil {
		delete(c.charts, id)
		return
	}
	c.charts[id] = chart
}

// Unregister removes a chart, typically when it is unmounted.
func (c *Coordinator) Unregister(id ChartID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.charts, id)
}

// Registered returns the registered chart IDs, sorted.
func (c *Coordinator) Registered() []ChartID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]ChartID, 0, len(c.charts))
	for id := range c.charts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Sync highlights index on every registered chart except origin. The index
// is clamped into each chart's own range; charts with no data are skipped.
func (c *Coordinator) Sync(index int, origin ChartID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = Active{Index: index, Valid: true, Origin: origin}
	for id, chart := range c.charts {
		if id == origin {
			continue
		}
		n := chart.Len()
		if n <= 0 {
			continue
		}
		chart.SetActive(Clamp(index, n))
	}
}

// Clear removes the highlight from every registered chart except origin.
func (c *Coordinator) Clear(origin ChartID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = Active{Origin: origin}
	for id, chart := range c.charts {
		if id == origin {
			continue
		}
		chart.ClearActive()
	}
}

// Active returns the last synced hover state.
func (c *Coordinator) Active() Active {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Clamp bounds index into [0, n-1]. n must be positive.
func Clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n-1 {
		return n - 1
	}
	return index
}
