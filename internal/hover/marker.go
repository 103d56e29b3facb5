package hover

import "sync"

// Marker is a minimal Chart that only tracks length and active index.
// Surfaces without their own widget state (the HTTP view, headless mode)
// register one per chart.
type Marker struct {
	mu     sync.Mutex
	length int
	active int
	set    bool
}

// NewMarker creates a marker with n data points.
func NewMarker(n int) *Marker {
	return &Marker{length: n}
}

// SetLen updates the data length. An active index beyond the new end is
// pulled back onto the last point.
func (m *Marker) SetLen(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.length = n
	if n <= 0 {
		m.set = false
		return
	}
	if m.set {
		m.active = Clamp(m.active, n)
	}
}

// Len implements Chart.
func (m *Marker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.length
}

// SetActive implements Chart.
func (m *Marker) SetActive(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = index
	m.set = true
}

// ClearActive implements Chart.
func (m *Marker) ClearActive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = false
}

// ActiveIndex returns the highlighted index and whether one is set.
func (m *Marker) ActiveIndex() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.set
}
