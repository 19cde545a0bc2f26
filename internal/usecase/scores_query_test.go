package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
)

type staticSource struct{ report *models.Report }

func (s staticSource) Last() *models.Report { return s.report }

func sampleReport(risk float64) *models.Report {
	return &models.Report{
		UpdatedAt: "2024-01-02T00:30:05Z",
		Assets: map[string]models.AssetScore{
			"BTC": {AssetID: "BTC", RiskScore: risk},
		},
	}
}

func TestLatestReportPrefersCache(t *testing.T) {
	cached := sampleReport(10)
	uc := NewScoresQueryUseCase(staticSource{sampleReport(20)}, &fakeCache{report: cached}, &fakeStore{}, twoAssets(), nil)

	rep, err := uc.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Same(t, cached, rep)
}

func TestLatestReportFallsBackToLastRun(t *testing.T) {
	last := sampleReport(20)
	uc := NewScoresQueryUseCase(staticSource{last}, &fakeCache{err: errBoom}, &fakeStore{}, twoAssets(), nil)

	rep, err := uc.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Same(t, last, rep)
}

func TestLatestReportEmpty(t *testing.T) {
	uc := NewScoresQueryUseCase(staticSource{}, nil, &fakeStore{}, twoAssets(), nil)

	_, err := uc.LatestReport(context.Background())
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestLatestAsset(t *testing.T) {
	uc := NewScoresQueryUseCase(staticSource{sampleReport(33)}, nil, &fakeStore{}, twoAssets(), nil)

	s, err := uc.LatestAsset(context.Background(), " btc ")
	require.NoError(t, err)
	assert.Equal(t, 33.0, s.RiskScore)

	_, err = uc.LatestAsset(context.Background(), "eth")
	assert.ErrorIs(t, err, ErrAssetNotFound)

	_, err = uc.LatestAsset(context.Background(), "DOGE")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestHistoryClampsLimitAndRange(t *testing.T) {
	store := &fakeStore{data: map[string][]models.ScoreRecord{
		"BTC": {record(0, 1, 10), record(1, 2, 20), record(2, 3, 30)},
	}}
	uc := NewScoresQueryUseCase(staticSource{}, nil, store, twoAssets(), nil)
	ctx := context.Background()

	res, err := uc.History(ctx, HistoryParams{AssetID: "btc", From: day(1), To: day(2)})
	require.NoError(t, err)
	assert.Equal(t, "BTC", res.AssetID)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, DefaultHistoryLimit, store.lastArg.limit)

	_, err = uc.History(ctx, HistoryParams{AssetID: "BTC", Limit: 50000})
	require.NoError(t, err)
	assert.Equal(t, MaxHistoryLimit, store.lastArg.limit)
	assert.Equal(t, time.Unix(0, 0).UTC(), store.lastArg.from)

	_, err = uc.History(ctx, HistoryParams{AssetID: "BTC", From: day(3), To: day(1)})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestHistoryEmptyIsNotNil(t *testing.T) {
	uc := NewScoresQueryUseCase(staticSource{}, nil, &fakeStore{}, twoAssets(), nil)

	res, err := uc.History(context.Background(), HistoryParams{AssetID: "ETH"})
	require.NoError(t, err)
	assert.NotNil(t, res.Records)
	assert.Zero(t, res.Count)
}
