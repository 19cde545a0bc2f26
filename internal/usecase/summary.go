package usecase

import (
	"math"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

const statusActive = "active"

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// summarize turns the latest record of a run into the published AssetScore.
func summarize(p models.AssetProfile, records []models.ScoreRecord) models.AssetScore {
	last := records[len(records)-1]
	return models.AssetScore{
		AssetID:    p.AssetID,
		Name:       p.Name,
		Date:       util.FormatDay(last.Date),
		RiskScore:  round(last.RiskScore, 1),
		Price:      round(last.Price, 2),
		TrendValue: round(last.TrendValue, 2),
		Components: models.ScoreComponents{
			Residual:      round(last.Residual, 6),
			ZScore:        round(last.ZScore, 4),
			RawScore:      round(last.RawScore, 2),
			SmoothedScore: round(last.SmoothedScore, 2),
		},
		RegressionMode: p.RegressionMode,
		HistoryDays:    len(records),
		Status:         statusActive,
	}
}
