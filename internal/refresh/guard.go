package refresh

import "sync"

// Guard decides which completed results may replace the view.
//
// Disabled, it accepts everything, so the most recently completed fan-out
// wins even if it started earlier than the one already applied. Enabled, it
// rejects any result whose sequence number is below the last accepted one.
type Guard struct {
	mu      sync.Mutex
	enabled bool
	last    uint64
}

// NewGuard creates a guard; enabled turns on sequence ordering.
func NewGuard(enabled bool) *Guard {
	return &Guard{enabled: enabled}
}

// Accept reports whether a result with seq may be applied and records it.
func (g *Guard) Accept(seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.enabled && seq < g.last {
		return false
	}
	if seq > g.last {
		g.last = seq
	}
	return true
}

// Stale reports whether seq is older than the last accepted result while
// ordering is enabled. It does not record seq.
func (g *Guard) Stale(seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled && seq < g.last
}

// Last returns the highest sequence number accepted so far.
func (g *Guard) Last() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
