package models

import "time"

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSeries is an ascending, one-per-day price history for one asset.
type PriceSeries struct {
	AssetID string
	Points  []PricePoint
}

// Len returns the number of points.
func (s PriceSeries) Len() int { return len(s.Points) }

// First returns the earliest point, or false when empty.
func (s PriceSeries) First() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[0], true
}

// Last returns the latest point, or false when empty.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// EvaluationRow is the per-day regression input derived from a PricePoint.
type EvaluationRow struct {
	Date             time.Time
	Price            float64
	DaysSinceGenesis float64
	LogPrice         float64
	LogDays          float64
}
