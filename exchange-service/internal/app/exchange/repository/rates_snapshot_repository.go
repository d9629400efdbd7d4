package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exchanger/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// ratesSnapshot - формат значения в Redis
type ratesSnapshot struct {
	Rates    map[string]float64 `json:"rates"`
	StoredAt time.Time          `json:"stored_at"`
}

// ratesSnapshotRepository реализует RatesSnapshotRepository для работы с Redis
type ratesSnapshotRepository struct {
	client *redis.Client
}

// NewRatesSnapshotRepository создает новый репозиторий снимков курсов
func NewRatesSnapshotRepository(client *redis.Client) RatesSnapshotRepository {
	return &ratesSnapshotRepository{client: client}
}

// Get получает снимок курсов из Redis
func (r *ratesSnapshotRepository) Get(ctx context.Context, key string) (map[string]float64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, key)
			return nil, ErrSnapshotNotFound
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get rates snapshot from redis: %w", err)
	}

	var snapshot ratesSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rates snapshot: %w", err)
	}

	metrics.RecordCacheHit(serviceName, key)
	return snapshot.Rates, nil
}

// Set сохраняет снимок курсов в Redis с TTL. Нулевой TTL ничего не сохраняет.
func (r *ratesSnapshotRepository) Set(ctx context.Context, key string, rates map[string]float64, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(ratesSnapshot{Rates: rates, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal rates snapshot: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set rates snapshot in redis: %w", err)
	}

	return nil
}
