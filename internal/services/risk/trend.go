package risk

import (
	"math"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
)

// degenerateEps bounds the x variance below which a window cannot be fitted.
const degenerateEps = 1e-12

// Trend is an OLS fit of log-price on log-days.
type Trend struct {
	Intercept float64
	Slope     float64
}

// At evaluates the fitted line at x (log space).
func (t Trend) At(x float64) float64 {
	return t.Intercept + t.Slope*x
}

// FitTrend fits log-price on log-days over rows. ok is false when the window
// has no spread in x (including an empty window).
func FitTrend(rows []models.EvaluationRow) (Trend, bool) {
	n := float64(len(rows))
	if n == 0 {
		return Trend{}, false
	}

	var sumX, sumY float64
	for _, r := range rows {
		sumX += r.LogDays
		sumY += r.LogPrice
	}
	meanX, meanY := sumX/n, sumY/n

	var ssXX, ssXY float64
	for _, r := range rows {
		dx := r.LogDays - meanX
		ssXX += dx * dx
		ssXY += dx * (r.LogPrice - meanY)
	}
	if math.Abs(ssXX) < degenerateEps {
		return Trend{}, false
	}

	slope := ssXY / ssXX
	return Trend{Intercept: meanY - slope*meanX, Slope: slope}, true
}

// windowStart returns the first row index of the regression window ending at i.
func windowStart(p models.AssetProfile, i int) int {
	if !p.Rolling() {
		return 0
	}
	start := i - p.RollingWindowDays + 1
	if start < 0 {
		return 0
	}
	return start
}
