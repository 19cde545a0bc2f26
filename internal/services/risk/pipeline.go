// Package risk scores a daily price series against its long-run power-law
// trend. Each day is regressed in log-log space, the residual is turned into
// a robust z-score, and the z-score is squashed, smoothed and clamped into a
// 1-99 style risk score.
package risk

import (
	"fmt"
	"math"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/service"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/services/features"
)

// Scorer runs the scoring pipeline. It holds no state between calls.
type Scorer struct{}

var _ service.RiskScorer = (*Scorer)(nil)

func NewScorer() *Scorer { return &Scorer{} }

// Score implements service.RiskScorer.
func (s *Scorer) Score(profile models.AssetProfile, series models.PriceSeries) ([]models.ScoreRecord, error) {
	return Score(profile, series)
}

// run holds the cross-day state of one pipeline pass.
type run struct {
	profile   models.AssetProfile
	residuals []float64
	smoother  *Smoother
}

// Score evaluates every day of series in order and returns one record per
// scored day. Days before warm-up and days whose window cannot be fitted are
// skipped without advancing any state.
func Score(profile models.AssetProfile, series models.PriceSeries) ([]models.ScoreRecord, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: empty price series", ErrNoScores, profile.AssetID)
	}

	rows := features.BuildRows(series, profile.GenesisDate)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: no valid rows after genesis", ErrNoScores, profile.AssetID)
	}

	r := &run{
		profile:   profile,
		residuals: make([]float64, 0, len(rows)),
		smoother:  NewSmoother(profile.SmoothSpan),
	}

	records := make([]models.ScoreRecord, 0, len(rows))
	for i := range rows {
		if rec, ok := r.step(rows, i); ok {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: %d valid rows, warm-up is %d days",
			ErrNoScores, profile.AssetID, len(rows), profile.WarmUpDays)
	}
	return records, nil
}

func (r *run) step(rows []models.EvaluationRow, i int) (models.ScoreRecord, bool) {
	p := r.profile
	start := windowStart(p, i)
	if i-start+1 < p.WarmUpDays {
		return models.ScoreRecord{}, false
	}

	trend, ok := FitTrend(rows[start : i+1])
	if !ok {
		return models.ScoreRecord{}, false
	}

	row := rows[i]
	fitted := trend.At(row.LogDays)
	residual := row.LogPrice - fitted
	r.residuals = append(r.residuals, residual)

	z := RobustZ(residual, r.residuals, p.NormWindowDays, p.MADFloor)
	raw := Logistic(z, p.SigmoidK)
	smoothed := r.smoother.Next(raw)

	return models.ScoreRecord{
		Date:          row.Date,
		Price:         row.Price,
		TrendValue:    math.Exp(fitted),
		Residual:      residual,
		ZScore:        z,
		RawScore:      raw,
		SmoothedScore: smoothed,
		RiskScore:     Clamp(smoothed, p.ClampMin, p.ClampMax),
	}, true
}
