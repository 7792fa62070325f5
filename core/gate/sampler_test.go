package gate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplerBounds(t *testing.T) {
	always := NewSampler(1)
	never := NewSampler(0)
	for i := 0; i < 100; i++ {
		assert.True(t, always.Keep())
		assert.False(t, never.Keep())
	}
	assert.False(t, NewSampler(math.NaN()).Keep())
	assert.True(t, NewSampler(1.5).Keep())
	assert.Equal(t, 0.25, NewSampler(0.25).Rate())
}

func TestSamplerRate(t *testing.T) {
	s := NewSampler(0.5)
	const n = 20000
	kept := 0
	for i := 0; i < n; i++ {
		if s.Keep() {
			kept++
		}
	}
	assert.InDelta(t, 0.5, float64(kept)/n, 0.05)
}
