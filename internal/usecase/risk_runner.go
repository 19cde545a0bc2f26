package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	domrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/service"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
)

// ErrRunInProgress is returned when another run holds the run lock.
var ErrRunInProgress = errors.New("risk run already in progress")

const (
	runLockKey      = "risk:run-lock"
	updatedAtLayout = "2006-01-02T15:04:05Z"
)

// RunLocker guards against concurrent runs across processes.
type RunLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// RiskRunner scores every configured asset and fans the results out to the
// report files, the score store, the publisher and the snapshot cache.
type RiskRunner struct {
	profiles  []models.AssetProfile
	source    domrepo.PriceSource
	scorer    service.RiskScorer
	writer    domrepo.ReportWriter
	store     domrepo.ScoreStore
	publisher domrepo.ScorePublisher
	cache     domrepo.SnapshotCache
	locker    RunLocker
	metrics   domrepo.Metrics
	l         *applogger.Logger

	workers       int
	primary       string
	engineVersion string
	writeCSV      bool
	lockTTL       time.Duration
	now           func() time.Time

	running sync.Mutex
	mu      sync.RWMutex
	last    *models.Report
}

type RunnerOption func(*RiskRunner)

func WithWorkers(n int) RunnerOption {
	return func(r *RiskRunner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithPrimaryAsset(id string) RunnerOption {
	return func(r *RiskRunner) { r.primary = strings.ToUpper(id) }
}

func WithEngineVersion(v string) RunnerOption {
	return func(r *RiskRunner) { r.engineVersion = v }
}

// WithHistoryCSV toggles the per-asset CSV export.
func WithHistoryCSV(on bool) RunnerOption {
	return func(r *RiskRunner) { r.writeCSV = on }
}

func WithSnapshotCache(c domrepo.SnapshotCache) RunnerOption {
	return func(r *RiskRunner) { r.cache = c }
}

func WithRunLocker(l RunLocker, ttl time.Duration) RunnerOption {
	return func(r *RiskRunner) {
		r.locker = l
		r.lockTTL = ttl
	}
}

func WithRunnerMetrics(m domrepo.Metrics) RunnerOption {
	return func(r *RiskRunner) { r.metrics = m }
}

func WithRunnerLogger(l *applogger.Logger) RunnerOption {
	return func(r *RiskRunner) {
		if l != nil {
			r.l = l
		}
	}
}

func withRunnerClock(now func() time.Time) RunnerOption {
	return func(r *RiskRunner) { r.now = now }
}

func NewRiskRunner(
	profiles []models.AssetProfile,
	source domrepo.PriceSource,
	scorer service.RiskScorer,
	writer domrepo.ReportWriter,
	store domrepo.ScoreStore,
	publisher domrepo.ScorePublisher,
	opts ...RunnerOption,
) *RiskRunner {
	r := &RiskRunner{
		profiles:      profiles,
		source:        source,
		scorer:        scorer,
		writer:        writer,
		store:         store,
		publisher:     publisher,
		l:             applogger.Nop(),
		workers:       4,
		primary:       "BTC",
		engineVersion: "2.0",
		writeCSV:      true,
		lockTTL:       time.Hour,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}
	return r
}

type assetResult struct {
	score   models.AssetScore
	records int
	err     error
}

// RunAll scores every asset and returns the report. Per-asset failures are
// collected in the report; an error means the run was cancelled, could not
// take the run lock, or the report file could not be written.
func (r *RiskRunner) RunAll(ctx context.Context) (*models.Report, error) {
	if !r.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.running.Unlock()

	if r.locker != nil {
		ok, err := r.locker.Lock(ctx, runLockKey, r.lockTTL)
		if err != nil {
			r.l.Warn("run lock unavailable, continuing unlocked", applogger.Error(err))
		} else if !ok {
			return nil, ErrRunInProgress
		} else {
			defer func() {
				if err := r.locker.Unlock(context.Background(), runLockKey); err != nil {
					r.l.Warn("release run lock", applogger.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	runID := uuid.NewString()
	log := r.l.With(applogger.String("run_id", runID))
	log.Info("risk run started",
		applogger.Int("assets", len(r.profiles)),
		applogger.Int("workers", r.workers),
	)

	results := make([]assetResult, len(r.profiles))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

dispatch:
	for i, p := range r.profiles {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, p models.AssetProfile) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.runAsset(ctx, log, p)
		}(i, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		r.metrics.RecordError("cancelled")
		log.Warn("risk run cancelled", applogger.Error(err))
		return nil, fmt.Errorf("risk run: %w", err)
	}

	report := r.buildReport(runID, results)
	if err := r.writer.WriteReport(report); err != nil {
		r.metrics.RecordError("report_write")
		log.Error("write report failed", applogger.Error(err))
		return nil, fmt.Errorf("write report: %w", err)
	}

	r.fanOut(ctx, log, report)

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	elapsed := time.Since(start)
	r.metrics.RecordLatency("run_all", elapsed.Seconds())
	r.logSummary(log, report, elapsed)
	return report, nil
}

// Last returns the report of the most recent successful run, or nil.
func (r *RiskRunner) Last() *models.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Profiles returns the configured asset profiles in run order.
func (r *RiskRunner) Profiles() []models.AssetProfile {
	return r.profiles
}

func (r *RiskRunner) runAsset(ctx context.Context, log *applogger.Logger, p models.AssetProfile) assetResult {
	log = log.With(applogger.String("asset", p.AssetID))
	fail := func(kind string, err error) assetResult {
		r.metrics.RecordRun(p.AssetID, "error")
		r.metrics.RecordError(kind)
		log.Error("asset run failed", applogger.String("stage", kind), applogger.Error(err))
		return assetResult{err: err}
	}

	t0 := time.Now()
	series, err := r.source.FetchSeries(ctx, p)
	r.metrics.RecordLatency("fetch", time.Since(t0).Seconds())
	if err != nil {
		return fail("fetch", err)
	}

	t0 = time.Now()
	records, err := r.scorer.Score(p, series)
	r.metrics.RecordLatency("score", time.Since(t0).Seconds())
	if err != nil {
		return fail("score", err)
	}

	if err := r.store.ReplaceHistory(ctx, p.AssetID, records); err != nil {
		r.metrics.RecordError("store")
		log.Error("store history failed", applogger.Error(err))
	}
	if r.writeCSV {
		if err := r.writer.WriteHistory(p.AssetID, records); err != nil {
			r.metrics.RecordError("history_write")
			log.Error("write history csv failed", applogger.Error(err))
		}
	}

	score := summarize(p, records)
	r.metrics.RecordRun(p.AssetID, "ok")
	r.metrics.RecordRiskScore(p.AssetID, score.RiskScore)
	r.metrics.RecordScoredDays(p.AssetID, len(records))
	return assetResult{score: score, records: len(records)}
}

func (r *RiskRunner) buildReport(runID string, results []assetResult) *models.Report {
	report := &models.Report{
		RunID:         runID,
		UpdatedAt:     r.now().UTC().Format(updatedAtLayout),
		EngineVersion: r.engineVersion,
		Assets:        make(map[string]models.AssetScore, len(results)),
	}
	for i, res := range results {
		id := r.profiles[i].AssetID
		if res.err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", id, res.err))
			continue
		}
		report.Assets[id] = res.score
	}
	if primary, ok := report.Assets[r.primary]; ok {
		report.SetPrimary(primary)
	}
	return report
}

// fanOut pushes the report to the best-effort sinks. Failures are logged only.
func (r *RiskRunner) fanOut(ctx context.Context, log *applogger.Logger, report *models.Report) {
	scores := make([]models.AssetScore, 0, len(report.Assets))
	for _, p := range r.profiles {
		if s, ok := report.Assets[p.AssetID]; ok {
			scores = append(scores, s)
		}
	}

	if err := r.publisher.PublishBatch(ctx, scores); err != nil {
		r.metrics.RecordError("publish")
		log.Error("publish scores failed", applogger.Error(err))
	}
	if r.cache != nil {
		if err := r.cache.PutReport(ctx, report); err != nil {
			r.metrics.RecordError("cache")
			log.Error("cache report failed", applogger.Error(err))
		}
	}
}

func (r *RiskRunner) logSummary(log *applogger.Logger, report *models.Report, elapsed time.Duration) {
	ids := make([]string, 0, len(report.Assets))
	for id := range report.Assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s := report.Assets[id]
		log.Info("asset risk",
			applogger.String("asset", id),
			applogger.String("date", s.Date),
			applogger.Float64("risk", s.RiskScore),
			applogger.Float64("risk_unit", round(s.RiskScore/100, 3)),
			applogger.Float64("price", s.Price),
			applogger.Float64("trend", s.TrendValue),
			applogger.String("mode", string(s.RegressionMode)),
			applogger.Int("history_days", s.HistoryDays),
		)
	}
	log.Info("risk run finished",
		applogger.Int("scored", len(report.Assets)),
		applogger.Int("failed", len(report.Errors)),
		applogger.Duration("duration_ms", elapsed),
	)
}

type noopMetrics struct{}

func (noopMetrics) RecordRun(string, string)        {}
func (noopMetrics) RecordRiskScore(string, float64) {}
func (noopMetrics) RecordScoredDays(string, int)    {}
func (noopMetrics) RecordError(string)              {}
func (noopMetrics) RecordLatency(string, float64)   {}
