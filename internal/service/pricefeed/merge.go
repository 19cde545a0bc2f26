package pricefeed

import (
	"sort"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

// Merge joins pre-listing history with live exchange closes. Pre-listing
// points on or after the first live day are dropped, live values win on
// duplicate days, and missing days are filled with the previous close.
func Merge(pre, live []models.PricePoint) []models.PricePoint {
	if len(live) == 0 {
		return fillForward(dedupe(pre))
	}
	live = dedupe(live)
	cutoff := live[0].Date

	combined := make([]models.PricePoint, 0, len(pre)+len(live))
	for _, p := range pre {
		if util.TruncateDay(p.Date).Before(cutoff) {
			combined = append(combined, p)
		}
	}
	combined = append(combined, live...)
	return fillForward(dedupe(combined))
}

// dedupe sorts by day and keeps the last point seen for each day.
func dedupe(points []models.PricePoint) []models.PricePoint {
	if len(points) == 0 {
		return nil
	}
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[util.TruncateDay(p.Date)] = p.Price
	}
	out := make([]models.PricePoint, 0, len(byDay))
	for d, price := range byDay {
		out = append(out, models.PricePoint{Date: d, Price: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// fillForward expects sorted, day-aligned points.
func fillForward(points []models.PricePoint) []models.PricePoint {
	if len(points) == 0 {
		return nil
	}
	last := points[len(points)-1].Date
	out := make([]models.PricePoint, 0, util.DaysBetween(points[0].Date, last)+1)

	next := 0
	price := points[0].Price
	for d := points[0].Date; !d.After(last); d = d.AddDate(0, 0, 1) {
		if next < len(points) && points[next].Date.Equal(d) {
			price = points[next].Price
			next++
		}
		out = append(out, models.PricePoint{Date: d, Price: price})
	}
	return out
}
