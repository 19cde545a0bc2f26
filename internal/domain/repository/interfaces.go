package repository

import (
	"context"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
)

// KlineFetcher pulls daily closes from an exchange, oldest first.
type KlineFetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, from time.Time) ([]models.PricePoint, error)
}

// PriceSource produces the full scoring input for one asset.
type PriceSource interface {
	FetchSeries(ctx context.Context, profile models.AssetProfile) (models.PriceSeries, error)
}

// ScoreStore keeps the per-day score history of each asset.
type ScoreStore interface {
	Init(ctx context.Context) error // ensure tables
	ReplaceHistory(ctx context.Context, assetID string, records []models.ScoreRecord) error
	Latest(ctx context.Context, assetID string) (*models.ScoreRecord, error)
	History(ctx context.Context, assetID string, from, to time.Time, limit int) ([]models.ScoreRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ScorePublisher fans the latest asset scores out to downstream consumers.
type ScorePublisher interface {
	Publish(ctx context.Context, score models.AssetScore) error
	PublishBatch(ctx context.Context, scores []models.AssetScore) error
	Close() error
}

// ReportWriter persists run artifacts for file-based consumers.
type ReportWriter interface {
	WriteReport(report *models.Report) error
	WriteHistory(assetID string, records []models.ScoreRecord) error
}

// SnapshotCache keeps the latest serialized report for the read API.
type SnapshotCache interface {
	PutReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context) (*models.Report, error)
	GetAsset(ctx context.Context, assetID string) (*models.AssetScore, error)
	Close() error
}

type Metrics interface {
	RecordRun(assetID, status string)
	RecordRiskScore(assetID string, score float64)
	RecordScoredDays(assetID string, days int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
