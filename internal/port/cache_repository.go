package port

import (
	"context"
	"time"

	"github.com/agriflow/marketplace/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency removes the key after a failed attempt so the client can retry
	ReleaseIdempotency(ctx context.Context, key string) error

	GetForecast(ctx context.Context, key string) (*domain.PriceForecast, error)
	SetForecast(ctx context.Context, key string, forecast domain.PriceForecast, ttl time.Duration) error
}
