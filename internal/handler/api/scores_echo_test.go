package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/usecase"
	xlogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
)

type lastReport struct{ rep *models.Report }

func (l lastReport) Last() *models.Report { return l.rep }

type memStore struct {
	recs      []models.ScoreRecord
	healthErr error
	limit     int
}

func (m *memStore) Init(context.Context) error { return nil }
func (m *memStore) ReplaceHistory(context.Context, string, []models.ScoreRecord) error {
	return nil
}
func (m *memStore) Latest(context.Context, string) (*models.ScoreRecord, error) { return nil, nil }
func (m *memStore) History(_ context.Context, _ string, _, _ time.Time, limit int) ([]models.ScoreRecord, error) {
	m.limit = limit
	return m.recs, nil
}
func (m *memStore) Health(context.Context) error { return m.healthErr }
func (m *memStore) Close() error                 { return nil }

type trigger struct {
	busy  bool
	calls int
}

func (t *trigger) Trigger(string) bool {
	if t.busy {
		return false
	}
	t.calls++
	return true
}

func (t *trigger) Running() bool { return t.busy }

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(rep *models.Report, store *memStore, runs *trigger) *echo.Echo {
	uc := usecase.NewScoresQueryUseCase(lastReport{rep}, nil, store, models.DefaultProfiles(), xlogger.Nop())
	e := echo.New()
	NewScoresEchoHandler(xlogger.Nop(), uc, runs).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func sample() *models.Report {
	rep := &models.Report{
		UpdatedAt:     "2024-05-01T00:30:00Z",
		EngineVersion: "2.0",
		Assets: map[string]models.AssetScore{
			"BTC": {AssetID: "BTC", Name: "Bitcoin", RiskScore: 61.2, Price: 60000},
		},
	}
	rep.SetPrimary(rep.Assets["BTC"])
	return rep
}

func TestReport(t *testing.T) {
	e := newTestServer(sample(), &memStore{}, &trigger{})

	rec, env := do(t, e, http.MethodGet, "/api/scores")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.Status)

	var rep models.Report
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, "2.0", rep.EngineVersion)
	require.NotNil(t, rep.RiskScore)
	assert.Equal(t, 61.2, *rep.RiskScore)
	assert.Equal(t, "public, max-age=60", rec.Header().Get(echo.HeaderCacheControl))
}

func TestReportBeforeFirstRun(t *testing.T) {
	e := newTestServer(nil, &memStore{}, &trigger{})

	rec, env := do(t, e, http.MethodGet, "/api/scores")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)
	assert.Equal(t, "300", rec.Header().Get("Retry-After"))
}

func TestAsset(t *testing.T) {
	e := newTestServer(sample(), &memStore{}, &trigger{})

	rec, env := do(t, e, http.MethodGet, "/api/scores/btc")
	require.Equal(t, http.StatusOK, rec.Code)
	var s models.AssetScore
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, "Bitcoin", s.Name)

	rec, _ = do(t, e, http.MethodGet, "/api/scores/sol")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/scores/doge")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	store := &memStore{recs: []models.ScoreRecord{
		{Date: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), RiskScore: 60},
		{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), RiskScore: 61},
	}}
	e := newTestServer(sample(), store, &trigger{})

	rec, env := do(t, e, http.MethodGet, "/api/scores/BTC/history?from=2024-04-01&to=2024-05-01")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []models.ScoreRecord `json:"rows"`
		Total int64                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Rows, 2)
	assert.EqualValues(t, 2, list.Total)
	assert.Equal(t, usecase.DefaultHistoryLimit, store.limit)

	_, _ = do(t, e, http.MethodGet, "/api/scores/BTC/history?limit=99999")
	assert.Equal(t, usecase.MaxHistoryLimit, store.limit)
}

func TestHistoryBadInput(t *testing.T) {
	e := newTestServer(sample(), &memStore{}, &trigger{})

	for _, target := range []string{
		"/api/scores/BTC/history?from=yesterday",
		"/api/scores/BTC/history?to=2024-13-40",
		"/api/scores/BTC/history?from=2024-05-02&to=2024-05-01",
		"/api/scores/BTC/history?limit=-3",
		"/api/scores/BTC/history?limit=abc",
	} {
		rec, _ := do(t, e, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestTriggerRun(t *testing.T) {
	runs := &trigger{}
	e := newTestServer(sample(), &memStore{}, runs)

	rec, _ := do(t, e, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, runs.calls)

	runs.busy = true
	rec, _ = do(t, e, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealth(t *testing.T) {
	store := &memStore{}
	e := newTestServer(sample(), store, &trigger{})

	rec, env := do(t, e, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var h models.HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "2024-05-01T00:30:00Z", h.LastReport)

	store.healthErr = errors.New("connection refused")
	rec, env = do(t, e, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "degraded", h.Status)
}
