package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	forecastKeyPrefix    = "forecast:"
)

type RedisAdapter struct {
	client         *redis.Client
	idempotencyTTL time.Duration
}

var _ port.CacheRepository = (*RedisAdapter)(nil)

func NewRedisAdapter(client *redis.Client, idempotencyTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, idempotencyTTL: idempotencyTTL}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

func (r *RedisAdapter) GetForecast(ctx context.Context, key string) (*domain.PriceForecast, error) {
	raw, err := r.client.Get(ctx, forecastKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var forecast domain.PriceForecast
	if err := json.Unmarshal(raw, &forecast); err != nil {
		return nil, fmt.Errorf("decode cached forecast: %w", err)
	}
	return &forecast, nil
}

func (r *RedisAdapter) SetForecast(ctx context.Context, key string, forecast domain.PriceForecast, ttl time.Duration) error {
	raw, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	return r.client.Set(ctx, forecastKeyPrefix+key, raw, ttl).Err()
}
