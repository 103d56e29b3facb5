package series

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziris-labs/ziris/internal/sensor"
)

func sampleAt(i int) sensor.Sample {
	return sensor.Sample{
		Timestamp: time.Unix(int64(1700000000+i), 0),
		Temp:      float64(i),
		Pressure:  float64(i) / 10,
		Vibration: float64(i) * 2,
		Smoke:     float64(i) * 10,
	}
}

func TestNewBuffer(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultCapacity},
		{"negative size", -3, DefaultCapacity},
		{"custom size", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(tt.size)
			assert.Equal(t, tt.expected, b.Cap())
			assert.Equal(t, 0, b.Len())
			assert.Equal(t, 0, b.Contents().Len())
		})
	}
}

func TestBuffer_EvictsOldestFirst(t *testing.T) {
	b := NewBuffer(20)
	for i := 1; i <= 25; i++ {
		b.Append(sampleAt(i))
	}

	require.Equal(t, 20, b.Len())
	c := b.Contents()
	require.Equal(t, 20, c.Len())
	for i := 0; i < 20; i++ {
		assert.Equal(t, float64(i+6), c.Temp[i])
		assert.Equal(t, sampleAt(i+6).Timestamp, c.Timestamps[i])
	}

	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, 25.0, last.Temp)
}

func TestBuffer_ChannelsStayEqualLength(t *testing.T) {
	b := NewBuffer(7)
	for i := 0; i < 30; i++ {
		b.Append(sampleAt(i))
		c := b.Contents()

		n := len(c.Timestamps)
		assert.LessOrEqual(t, n, 7)
		assert.Len(t, c.Temp, n)
		assert.Len(t, c.Pressure, n)
		assert.Len(t, c.Vibration, n)
		assert.Len(t, c.Smoke, n)
	}
}

func TestBuffer_KeepsArrivalOrder(t *testing.T) {
	b := NewBuffer(5)
	// Timestamps deliberately out of order.
	for _, i := range []int{3, 1, 2} {
		b.Append(sampleAt(i))
	}
	assert.Equal(t, []float64{3, 1, 2}, b.Contents().Temp)
}

func TestBuffer_Reset(t *testing.T) {
	b := NewBuffer(3)
	b.Append(sampleAt(1))
	b.Reset()

	assert.Equal(t, 0, b.Len())
	_, ok := b.Last()
	assert.False(t, ok)

	b.Append(sampleAt(9))
	assert.Equal(t, []float64{9}, b.Contents().Temp)
}

func TestContents_Channel(t *testing.T) {
	b := NewBuffer(2)
	b.Append(sampleAt(4))
	c := b.Contents()

	assert.Equal(t, []float64{4}, c.Channel(sensor.Temp))
	assert.Equal(t, []float64{0.4}, c.Channel(sensor.Pressure))
	assert.Equal(t, []float64{8}, c.Channel(sensor.Vibration))
	assert.Equal(t, []float64{40}, c.Channel(sensor.Smoke))
	assert.Nil(t, c.Channel(sensor.Metric(9)))
}

func TestBuffer_ConcurrentAppend(t *testing.T) {
	b := NewBuffer(20)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b.Append(sampleAt(rand.Intn(1000)))
				c := b.Contents()
				assert.Len(t, c.Smoke, len(c.Timestamps))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, b.Len())
}
