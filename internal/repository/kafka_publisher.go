package repository

import (
	"context"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	pkgkafka "PriceGate/pkg/kafka"
)

var _ domrepo.PriceSink = (*KafkaPublisher)(nil)

// KafkaPublisher emits one message per refreshed price, keyed by UI symbol so
// a symbol's updates stay on one partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(p *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

func (p *KafkaPublisher) PublishPrices(ctx context.Context, updates []models.PriceUpdate) error {
	msgs := make([]pkgkafka.Message, 0, len(updates))
	for _, u := range updates {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(u.Symbol), Value: u})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
