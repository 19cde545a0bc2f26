package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	domrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
)

const (
	reportKey      = "risk:report"
	assetKeyPrefix = "risk:asset:"
)

// ReportCache stores the latest report and each asset score as JSON.
// Per-asset keys always mirror the latest report: an asset that failed its
// last run has no key.
type ReportCache struct {
	c      BytesCache
	ttl    time.Duration
	assets []string
}

var _ domrepo.SnapshotCache = (*ReportCache)(nil)

// NewReportCache takes the configured asset ids so their keys can be cleared
// when a run drops them.
func NewReportCache(c BytesCache, ttl time.Duration, assetIDs ...string) *ReportCache {
	ids := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		ids = append(ids, strings.ToUpper(id))
	}
	return &ReportCache{c: c, ttl: ttl, assets: ids}
}

func assetKey(id string) string { return assetKeyPrefix + strings.ToUpper(id) }

func (r *ReportCache) PutReport(ctx context.Context, report *models.Report) error {
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := r.dropStale(ctx, report); err != nil {
		return err
	}
	if err := r.c.SetBytes(ctx, reportKey, b, r.ttl); err != nil {
		return fmt.Errorf("cache report: %w", err)
	}
	for id, score := range report.Assets {
		b, err := json.Marshal(score)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", id, err)
		}
		if err := r.c.SetBytes(ctx, assetKey(id), b, r.ttl); err != nil {
			return fmt.Errorf("cache %s: %w", id, err)
		}
	}
	return nil
}

// dropStale deletes the asset keys of configured or previously cached assets
// that are absent from report.
func (r *ReportCache) dropStale(ctx context.Context, report *models.Report) error {
	known := make(map[string]struct{}, len(r.assets))
	for _, id := range r.assets {
		known[id] = struct{}{}
	}
	prev, err := r.GetReport(ctx)
	if err != nil {
		return err
	}
	if prev != nil {
		for id := range prev.Assets {
			known[strings.ToUpper(id)] = struct{}{}
		}
	}

	var stale []string
	for id := range known {
		if _, ok := report.Assets[id]; !ok {
			stale = append(stale, assetKey(id))
		}
	}
	if err := r.c.Delete(ctx, stale...); err != nil {
		return fmt.Errorf("drop stale assets: %w", err)
	}
	return nil
}

// GetReport returns nil, nil on a miss.
func (r *ReportCache) GetReport(ctx context.Context) (*models.Report, error) {
	var report models.Report
	ok, err := r.get(ctx, reportKey, &report)
	if !ok || err != nil {
		return nil, err
	}
	return &report, nil
}

// GetAsset returns nil, nil on a miss.
func (r *ReportCache) GetAsset(ctx context.Context, assetID string) (*models.AssetScore, error) {
	var score models.AssetScore
	ok, err := r.get(ctx, assetKey(assetID), &score)
	if !ok || err != nil {
		return nil, err
	}
	return &score, nil
}

func (r *ReportCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	b, ok, err := r.c.GetBytes(ctx, key)
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Lock takes the cross-process run lock.
func (r *ReportCache) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.c.TryLock(ctx, key, ttl)
}

func (r *ReportCache) Unlock(ctx context.Context, key string) error {
	return r.c.Unlock(ctx, key)
}

func (r *ReportCache) Close() error { return r.c.Close() }
