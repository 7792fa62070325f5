package gate

import "gonum.org/v1/gonum/stat/distuv"

// Sampler draws per-event keep/drop decisions at a fixed rate.
type Sampler struct {
	rate float64
	dist distuv.Bernoulli
}

// NewSampler returns a sampler keeping roughly rate of all events. Rates at or
// outside the bounds short-circuit without drawing.
func NewSampler(rate float64) Sampler {
	return Sampler{rate: rate, dist: distuv.Bernoulli{P: clamp(rate)}}
}

// Rate returns the configured keep probability.
func (s Sampler) Rate() float64 { return s.rate }

// Keep reports whether the next event is sampled in.
func (s Sampler) Keep() bool {
	switch {
	case s.rate >= 1:
		return true
	case s.rate <= 0 || s.rate != s.rate:
		return false
	}
	return s.dist.Rand() == 1
}

func clamp(rate float64) float64 {
	switch {
	case rate != rate, rate < 0:
		return 0
	case rate > 1:
		return 1
	}
	return rate
}
