// Package series provides the bounded sliding-window history of sensor
// samples that backs the real-time charts.
package series

import (
	"sync"
	"time"

	"github.com/ziris-labs/ziris/internal/sensor"
)

// DefaultCapacity is the default number of samples retained.
const DefaultCapacity = 20

// Buffer is a fixed-capacity ring of whole samples. Appending one record
// advances every channel together, so the timestamp axis and the four
// channels always have the same length.
type Buffer struct {
	mu    sync.RWMutex
	data  []sensor.Sample
	head  int
	count int
	size  int
}

// Contents is the current window, oldest first. All slices have equal length.
type Contents struct {
	Timestamps []time.Time `json:"timestamps"`
	Temp       []float64   `json:"temp"`
	Pressure   []float64   `json:"press"`
	Vibration  []float64   `json:"vib"`
	Smoke      []float64   `json:"fumee"`
}

// NewBuffer creates a buffer holding at most size samples.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultCapacity
	}
	return &Buffer{
		data: make([]sensor.Sample, size),
		size: size,
	}
}

// Append adds a sample, evicting the oldest one when full.
// Samples are kept in arrival order regardless of their timestamps.
func (b *Buffer) Append(s sensor.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[b.head] = s
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Len returns the number of samples held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.size
}

// Samples returns the held samples in arrival order (oldest first).
func (b *Buffer) Samples() []sensor.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.samplesLocked()
}

// Last returns the most recent sample.
func (b *Buffer) Last() (sensor.Sample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.count == 0 {
		return sensor.Sample{}, false
	}
	return b.data[(b.head-1+b.size)%b.size], true
}

// Contents projects the window into per-channel slices.
func (b *Buffer) Contents() Contents {
	samples := b.Samples()

	c := Contents{
		Timestamps: make([]time.Time, len(samples)),
		Temp:       make([]float64, len(samples)),
		Pressure:   make([]float64, len(samples)),
		Vibration:  make([]float64, len(samples)),
		Smoke:      make([]float64, len(samples)),
	}
	for i, s := range samples {
		c.Timestamps[i] = s.Timestamp
		c.Temp[i] = s.Temp
		c.Pressure[i] = s.Pressure
		c.Vibration[i] = s.Vibration
		c.Smoke[i] = s.Smoke
	}
	return c
}

// Reset drops every sample.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.count = 0
	clear(b.data)
}

// samplesLocked must be called with b.mu held.
func (b *Buffer) samplesLocked() []sensor.Sample {
	if b.count == 0 {
		return nil
	}
	out := make([]sensor.Sample, b.count)
	start := (b.head - b.count + b.size) % b.size
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(start+i)%b.size]
	}
	return out
}

// Len returns the window length.
func (c Contents) Len() int {
	return len(c.Timestamps)
}

// Channel returns the values for one metric.
func (c Contents) Channel(m sensor.Metric) []float64 {
	switch m {
	case sensor.Temp:
		return c.Temp
	case sensor.Pressure:
		return c.Pressure
	case sensor.Vibration:
		return c.Vibration
	case sensor.Smoke:
		return c.Smoke
	default:
		return nil
	}
}
