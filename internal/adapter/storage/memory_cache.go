package storage

import (
	"context"
	"sync"
	"time"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

type cacheEntry struct {
	forecast  domain.PriceForecast
	expiresAt time.Time
}

// MemoryCache is the in-process CacheRepository used when no Redis address is configured.
type MemoryCache struct {
	mu             sync.Mutex
	idempotency    map[string]time.Time
	forecasts      map[string]cacheEntry
	idempotencyTTL time.Duration
	now            func() time.Time
}

var _ port.CacheRepository = (*MemoryCache)(nil)

func NewMemoryCache(idempotencyTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		idempotency:    make(map[string]time.Time),
		forecasts:      make(map[string]cacheEntry),
		idempotencyTTL: idempotencyTTL,
		now:            time.Now,
	}
}

func (c *MemoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expiresAt, ok := c.idempotency[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	c.idempotency[key] = now.Add(c.idempotencyTTL)
	return true, nil
}

func (c *MemoryCache) ReleaseIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.idempotency, key)
	return nil
}

func (c *MemoryCache) GetForecast(ctx context.Context, key string) (*domain.PriceForecast, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.forecasts[key]
	if !ok {
		return nil, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.forecasts, key)
		return nil, nil
	}
	forecast := entry.forecast
	return &forecast, nil
}

func (c *MemoryCache) SetForecast(ctx context.Context, key string, forecast domain.PriceForecast, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.forecasts[key] = cacheEntry{forecast: forecast, expiresAt: c.now().Add(ttl)}
	return nil
}
