package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
)

func TestBuildRowsDropsInvalidPoints(t *testing.T) {
	genesis := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	series := models.PriceSeries{AssetID: "X", Points: []models.PricePoint{
		{Date: genesis.AddDate(0, 0, -1), Price: 5},
		{Date: genesis, Price: 5},
		{Date: genesis.AddDate(0, 0, 1), Price: 0},
		{Date: genesis.AddDate(0, 0, 2), Price: -3},
		{Date: genesis.AddDate(0, 0, 3), Price: math.NaN()},
		{Date: genesis.AddDate(0, 0, 4), Price: 8},
	}}

	rows := BuildRows(series, genesis)

	require.Len(t, rows, 1)
	assert.Equal(t, 4.0, rows[0].DaysSinceGenesis)
	assert.InDelta(t, math.Log(4), rows[0].LogDays, 1e-12)
	assert.InDelta(t, math.Log(8), rows[0].LogPrice, 1e-12)
	assert.Equal(t, genesis.AddDate(0, 0, 4), rows[0].Date)
}

func TestBuildRowsIgnoresTimeOfDay(t *testing.T) {
	genesis := time.Date(2009, 1, 3, 0, 0, 0, 0, time.UTC)
	series := models.PriceSeries{Points: []models.PricePoint{
		{Date: time.Date(2009, 1, 4, 23, 59, 0, 0, time.UTC), Price: 1},
	}}

	rows := BuildRows(series, genesis)

	require.Len(t, rows, 1)
	assert.Equal(t, 1.0, rows[0].DaysSinceGenesis)
	assert.Equal(t, 0.0, rows[0].LogDays)
}
