package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		seqs    []uint64
		want    []bool
	}{
		{"disabled accepts all", false, []uint64{2, 1, 3}, []bool{true, true, true}},
		{"enabled drops stale", true, []uint64{2, 1, 3}, []bool{true, false, true}},
		{"enabled accepts repeats", true, []uint64{1, 1}, []bool{true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(tt.enabled)
			for i, seq := range tt.seqs {
				assert.Equal(t, tt.want[i], g.Accept(seq), "seq %d", seq)
			}
		})
	}
}

func TestGuard_Stale(t *testing.T) {
	g := NewGuard(true)
	g.Accept(5)
	assert.True(t, g.Stale(4))
	assert.False(t, g.Stale(6))
	assert.Equal(t, uint64(5), g.Last(), "Stale does not record")

	off := NewGuard(false)
	off.Accept(5)
	assert.False(t, off.Stale(1))
}
