package repository

import (
	"context"
	"strings"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	domrepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	pkgkafka "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/kafka"
)

// KafkaScorePublisher emits one JSON message per asset, keyed by asset id so
// a partition always sees an asset's scores in order.
type KafkaScorePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.ScorePublisher = (*KafkaScorePublisher)(nil)

func NewKafkaScorePublisher(producer *pkgkafka.Producer, topic string) *KafkaScorePublisher {
	return &KafkaScorePublisher{producer: producer, topic: topic}
}

func (p *KafkaScorePublisher) Publish(ctx context.Context, score models.AssetScore) error {
	return p.producer.Publish(ctx, p.topic, scoreKey(score), score)
}

func (p *KafkaScorePublisher) PublishBatch(ctx context.Context, scores []models.AssetScore) error {
	if len(scores) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(scores))
	for i, s := range scores {
		msgs[i] = pkgkafka.Message{Key: scoreKey(s), Value: s}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaScorePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func scoreKey(s models.AssetScore) []byte {
	return []byte(strings.ToUpper(s.AssetID))
}
