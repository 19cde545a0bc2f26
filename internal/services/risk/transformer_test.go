package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogistic(t *testing.T) {
	assert.Equal(t, 50.0, Logistic(0, 1.5))
	for _, z := range []float64{0.3, 1, 2.5, 8} {
		assert.InDelta(t, 100.0, Logistic(z, 1.5)+Logistic(-z, 1.5), 1e-9)
		assert.Greater(t, Logistic(z, 1.5), Logistic(z, 0.5))
	}
	assert.Less(t, Logistic(-40, 1.5), 1e-10)
	assert.LessOrEqual(t, Logistic(40, 1.5), 100.0)
}

func TestSmoother(t *testing.T) {
	s := NewSmoother(7)
	assert.InDelta(t, 0.25*80+0.75*50, s.Next(80), 1e-12)
	assert.InDelta(t, 0.25*20+0.75*57.5, s.Next(20), 1e-12)

	passthrough := NewSmoother(1)
	assert.Equal(t, 91.0, passthrough.Next(91))
	assert.Equal(t, 3.0, passthrough.Next(3))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(0.2, 1, 99))
	assert.Equal(t, 99.0, Clamp(99.7, 1, 99))
	assert.Equal(t, 42.0, Clamp(42, 1, 99))
}
