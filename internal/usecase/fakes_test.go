package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
)

var errBoom = errors.New("boom")

type fakeSource struct {
	fail map[string]error
}

func (f *fakeSource) FetchSeries(_ context.Context, p models.AssetProfile) (models.PriceSeries, error) {
	if err := f.fail[p.AssetID]; err != nil {
		return models.PriceSeries{}, err
	}
	return models.PriceSeries{AssetID: p.AssetID, Points: []models.PricePoint{{Date: day(0), Price: 1}}}, nil
}

// fakeScorer returns canned records per asset.
type fakeScorer struct {
	records map[string][]models.ScoreRecord
}

func (f *fakeScorer) Score(p models.AssetProfile, _ models.PriceSeries) ([]models.ScoreRecord, error) {
	recs, ok := f.records[p.AssetID]
	if !ok {
		return nil, errBoom
	}
	return recs, nil
}

type fakeWriter struct {
	mu        sync.Mutex
	reportErr error
	report    *models.Report
	histories map[string]int
}

func (f *fakeWriter) WriteReport(r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return f.reportErr
	}
	f.report = r
	return nil
}

func (f *fakeWriter) WriteHistory(id string, recs []models.ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.histories == nil {
		f.histories = map[string]int{}
	}
	f.histories[id] = len(recs)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]models.ScoreRecord
	lastArg struct {
		from, to time.Time
		limit    int
	}
}

func (f *fakeStore) Init(context.Context) error { return nil }

func (f *fakeStore) ReplaceHistory(_ context.Context, id string, recs []models.ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		f.data = map[string][]models.ScoreRecord{}
	}
	f.data[id] = recs
	return nil
}

func (f *fakeStore) Latest(_ context.Context, id string) (*models.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := f.data[id]
	if len(recs) == 0 {
		return nil, nil
	}
	r := recs[len(recs)-1]
	return &r, nil
}

func (f *fakeStore) History(_ context.Context, id string, from, to time.Time, limit int) ([]models.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastArg.from, f.lastArg.to, f.lastArg.limit = from, to, limit
	var out []models.ScoreRecord
	for _, r := range f.data[id] {
		if r.Date.Before(from) || r.Date.After(to) || len(out) == limit {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	scores []models.AssetScore
}

func (f *fakePublisher) Publish(ctx context.Context, s models.AssetScore) error {
	return f.PublishBatch(ctx, []models.AssetScore{s})
}

func (f *fakePublisher) PublishBatch(_ context.Context, s []models.AssetScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = append(f.scores, s...)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeCache struct {
	report *models.Report
	err    error
}

func (f *fakeCache) PutReport(_ context.Context, r *models.Report) error {
	f.report = r
	return nil
}

func (f *fakeCache) GetReport(context.Context) (*models.Report, error) {
	return f.report, f.err
}

func (f *fakeCache) GetAsset(_ context.Context, id string) (*models.AssetScore, error) {
	if f.err != nil || f.report == nil {
		return nil, f.err
	}
	s, ok := f.report.Assets[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeCache) Close() error { return nil }

type fakeLocker struct {
	held     bool
	released bool
}

func (f *fakeLocker) Lock(context.Context, string, time.Duration) (bool, error) {
	return !f.held, nil
}

func (f *fakeLocker) Unlock(context.Context, string) error {
	f.released = true
	return nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	runs   map[string]string
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{runs: map[string]string{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordRun(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[id] = status
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordRiskScore(string, float64) {}
func (m *fakeMetrics) RecordScoredDays(string, int)    {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func record(n int, price, risk float64) models.ScoreRecord {
	return models.ScoreRecord{
		Date:          day(n),
		Price:         price,
		TrendValue:    price * 0.9,
		Residual:      0.1234567,
		ZScore:        0.87654,
		RawScore:      63.456,
		SmoothedScore: risk,
		RiskScore:     risk,
	}
}

func twoAssets() []models.AssetProfile {
	all := models.DefaultProfiles()
	return all[:2]
}
