package risk

import "math"

// neutralScore seeds the smoother and is the logistic value at z = 0.
const neutralScore = 50.0

// Logistic maps z onto (0, 100).
func Logistic(z, k float64) float64 {
	return 100.0 / (1.0 + math.Exp(-k*z))
}

// Smoother is an exponential moving average over raw scores.
type Smoother struct {
	alpha float64
	prev  float64
}

// NewSmoother returns an EMA with alpha = 2/(span+1), seeded at 50.
func NewSmoother(span int) *Smoother {
	return &Smoother{alpha: 2.0 / (float64(span) + 1.0), prev: neutralScore}
}

// Next folds raw into the average and returns the new value.
func (s *Smoother) Next(raw float64) float64 {
	s.prev = s.alpha*raw + (1-s.alpha)*s.prev
	return s.prev
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
