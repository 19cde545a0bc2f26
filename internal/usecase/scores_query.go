package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	domrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
)

var (
	ErrNoReport      = errors.New("no risk report available yet")
	ErrUnknownAsset  = errors.New("unknown asset")
	ErrAssetNotFound = errors.New("asset has no score")
	ErrInvalidRange  = errors.New("from must not be after to")
)

const (
	DefaultHistoryLimit = 1000
	MaxHistoryLimit     = 10000
)

// ReportSource exposes the in-memory result of the last run.
type ReportSource interface {
	Last() *models.Report
}

// ScoresQueryUseCase serves reads of the latest report and stored history.
type ScoresQueryUseCase struct {
	source ReportSource
	cache  domrepo.SnapshotCache
	store  domrepo.ScoreStore
	assets map[string]struct{}
	l      *applogger.Logger
}

// NewScoresQueryUseCase builds the read side. cache may be nil.
func NewScoresQueryUseCase(source ReportSource, cache domrepo.SnapshotCache, store domrepo.ScoreStore, profiles []models.AssetProfile, l *applogger.Logger) *ScoresQueryUseCase {
	assets := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		assets[p.AssetID] = struct{}{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ScoresQueryUseCase{source: source, cache: cache, store: store, assets: assets, l: l}
}

// LatestReport prefers the shared cache so every replica serves the same run.
func (uc *ScoresQueryUseCase) LatestReport(ctx context.Context) (*models.Report, error) {
	if uc.cache != nil {
		rep, err := uc.cache.GetReport(ctx)
		if err != nil {
			uc.l.Warn("report cache read failed", applogger.Error(err))
		} else if rep != nil {
			return rep, nil
		}
	}
	if rep := uc.source.Last(); rep != nil {
		return rep, nil
	}
	return nil, ErrNoReport
}

func (uc *ScoresQueryUseCase) LatestAsset(ctx context.Context, assetID string) (*models.AssetScore, error) {
	id, err := uc.normalize(assetID)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		s, err := uc.cache.GetAsset(ctx, id)
		if err != nil {
			uc.l.Warn("asset cache read failed", applogger.String("asset", id), applogger.Error(err))
		} else if s != nil {
			return s, nil
		}
	}
	rep := uc.source.Last()
	if rep == nil {
		return nil, ErrNoReport
	}
	s, ok := rep.Assets[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrAssetNotFound)
	}
	return &s, nil
}

type HistoryParams struct {
	AssetID string
	From    time.Time
	To      time.Time
	Limit   int
}

type HistoryResult struct {
	AssetID string               `json:"asset_id"`
	Records []models.ScoreRecord `json:"records"`
	Count   int                  `json:"count"`
}

// History returns stored daily scores between From and To inclusive.
// Zero bounds mean the epoch and now; Limit is clamped to [1, MaxHistoryLimit].
func (uc *ScoresQueryUseCase) History(ctx context.Context, p HistoryParams) (*HistoryResult, error) {
	id, err := uc.normalize(p.AssetID)
	if err != nil {
		return nil, err
	}
	if p.To.IsZero() {
		p.To = time.Now().UTC()
	}
	if p.From.IsZero() {
		p.From = time.Unix(0, 0).UTC()
	}
	if p.From.After(p.To) {
		return nil, ErrInvalidRange
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultHistoryLimit
	case p.Limit > MaxHistoryLimit:
		p.Limit = MaxHistoryLimit
	}

	recs, err := uc.store.History(ctx, id, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", id, err)
	}
	if recs == nil {
		recs = []models.ScoreRecord{}
	}
	return &HistoryResult{AssetID: id, Records: recs, Count: len(recs)}, nil
}

// Health reports the score store status.
func (uc *ScoresQueryUseCase) Health(ctx context.Context) error {
	return uc.store.Health(ctx)
}

func (uc *ScoresQueryUseCase) normalize(assetID string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(assetID))
	if _, ok := uc.assets[id]; !ok {
		return "", fmt.Errorf("%q: %w", assetID, ErrUnknownAsset)
	}
	return id, nil
}
