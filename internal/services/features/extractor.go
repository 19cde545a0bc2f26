package features

import (
	"math"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

// BuildRows derives regression rows from series. Points on or before genesis
// and non-positive prices are dropped; the remaining rows keep series order.
func BuildRows(series models.PriceSeries, genesis time.Time) []models.EvaluationRow {
	rows := make([]models.EvaluationRow, 0, len(series.Points))
	for _, p := range series.Points {
		days := util.DaysBetween(genesis, p.Date)
		if days <= 0 || !(p.Price > 0) || math.IsInf(p.Price, 1) {
			continue
		}
		d := float64(days)
		rows = append(rows, models.EvaluationRow{
			Date:             util.TruncateDay(p.Date),
			Price:            p.Price,
			DaysSinceGenesis: d,
			LogPrice:         math.Log(p.Price),
			LogDays:          math.Log(d),
		})
	}
	return rows
}
