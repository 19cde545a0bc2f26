package risk

import (
	"math"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
)

var testGenesis = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

func testProfile() models.AssetProfile {
	return models.AssetProfile{
		AssetID:        "TST",
		Name:           "Test",
		GenesisDate:    testGenesis,
		RegressionMode: models.ModeExpanding,
		WarmUpDays:     30,
		MADFloor:       0.1,
		SigmoidK:       1.5,
		SmoothSpan:     7,
		ClampMin:       1,
		ClampMax:       99,
	}
}

func rollingProfile(window int) models.AssetProfile {
	p := testProfile()
	p.RegressionMode = models.ModeRolling
	p.RollingWindowDays = window
	p.NormWindowDays = window
	return p
}

// seriesFrom builds n consecutive daily points starting firstDay days after
// genesis, pricing day d with price(d).
func seriesFrom(firstDay, n int, price func(d float64) float64) models.PriceSeries {
	s := models.PriceSeries{AssetID: "TST", Points: make([]models.PricePoint, n)}
	for i := 0; i < n; i++ {
		d := firstDay + i
		s.Points[i] = models.PricePoint{Date: testGenesis.AddDate(0, 0, d), Price: price(float64(d))}
	}
	return s
}

func powerLaw(d float64) float64 { return 1e-3 * math.Pow(d, 2.5) }

// wavy oscillates around a power law so residuals have real spread.
func wavy(d float64) float64 { return powerLaw(d) * math.Exp(0.6*math.Sin(d/23)) }
