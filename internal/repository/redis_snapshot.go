package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

var _ domrepo.PriceSink = (*RedisSnapshot)(nil)

// RedisSnapshot mirrors the latest price per symbol into one Redis hash so
// other services can read it without touching the SQL store.
type RedisSnapshot struct {
	client *redis.Client
	key    string
}

func NewRedisSnapshot(client *redis.Client, key string) *RedisSnapshot {
	return &RedisSnapshot{client: client, key: key}
}

func (s *RedisSnapshot) Name() string { return "redis" }

func (s *RedisSnapshot) PublishPrices(ctx context.Context, updates []models.PriceUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	fields, err := snapshotFields(updates)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key, fields).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}

// Close is a no-op; the Redis client is shared.
func (s *RedisSnapshot) Close() error { return nil }

func snapshotFields(updates []models.PriceUpdate) (map[string]any, error) {
	fields := make(map[string]any, len(updates))
	for _, u := range updates {
		b, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot %s: %w", u.Symbol, err)
		}
		fields[u.Symbol] = string(b)
	}
	return fields, nil
}
