package pricefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	drepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

// fallbackStart is used for symbols without a configured exchange start.
var fallbackStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Source builds full price histories from the pre-listing table and an exchange.
type Source struct {
	fetcher drepo.KlineFetcher
	anchors Anchors
	l       *applogger.Logger
}

var _ drepo.PriceSource = (*Source)(nil)

func NewSource(fetcher drepo.KlineFetcher, anchors Anchors, l *applogger.Logger) *Source {
	if l == nil {
		l = applogger.Nop()
	}
	return &Source{fetcher: fetcher, anchors: anchors, l: l}
}

// FetchSeries returns a gap-free daily series for profile.
func (s *Source) FetchSeries(ctx context.Context, profile models.AssetProfile) (models.PriceSeries, error) {
	start := profile.ExchangeStart
	if start.IsZero() {
		start = fallbackStart
	}

	s.l.Info("fetching exchange closes",
		applogger.String("asset", profile.AssetID),
		applogger.String("symbol", profile.Symbol),
		applogger.String("from", util.FormatDay(start)),
	)
	live, err := s.fetcher.FetchDailyCloses(ctx, profile.Symbol, start)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("fetch %s: %w", profile.Symbol, err)
	}

	pre := s.anchors.Daily(profile.AssetID)
	points := Merge(pre, live)

	fields := []applogger.Field{
		applogger.String("asset", profile.AssetID),
		applogger.Int("days", len(points)),
		applogger.Int("exchange_days", len(live)),
	}
	if len(pre) > 0 && len(points) > 0 {
		fields = append(fields,
			applogger.Int("pre_listing_days", util.DaysBetween(points[0].Date, live[0].Date)),
			applogger.String("first", util.FormatDay(points[0].Date)),
		)
	}
	s.l.Info("price series ready", fields...)

	return models.PriceSeries{AssetID: profile.AssetID, Points: points}, nil
}
