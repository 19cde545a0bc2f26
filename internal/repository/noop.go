package repository

import (
	"context"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	domrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
)

// NoopScoreStore is used when history storage is disabled.
type NoopScoreStore struct{}

var _ domrepo.ScoreStore = NoopScoreStore{}

func (NoopScoreStore) Init(context.Context) error { return nil }
func (NoopScoreStore) ReplaceHistory(context.Context, string, []models.ScoreRecord) error {
	return nil
}
func (NoopScoreStore) Latest(context.Context, string) (*models.ScoreRecord, error) { return nil, nil }
func (NoopScoreStore) History(context.Context, string, time.Time, time.Time, int) ([]models.ScoreRecord, error) {
	return nil, nil
}
func (NoopScoreStore) Health(context.Context) error { return nil }
func (NoopScoreStore) Close() error                 { return nil }

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

var _ domrepo.ScorePublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, models.AssetScore) error        { return nil }
func (NoopPublisher) PublishBatch(context.Context, []models.AssetScore) error { return nil }
func (NoopPublisher) Close() error                                            { return nil }
