package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriflow/marketplace/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisAdapter_IdempotencyClaimAndRelease(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	key := "offer:" + uuid.NewString()

	ok, err := adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, idempotencyKeyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, adapter.ReleaseIdempotency(ctx, key))
	ok, err = adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisAdapter_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	client := getRedisClient(t)
	adapter := NewRedisAdapter(client, time.Minute)
	key := "checkout:" + uuid.NewString()

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(context.Background(), key)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisAdapter_Forecast(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	key := "maize:" + uuid.NewString()

	got, err := adapter.GetForecast(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil without error")

	forecast := domain.PriceForecast{
		CropName:     "Maize",
		CurrentPrice: dec("20.00"),
		History:      []domain.PricePoint{{Date: "2024-02-01", Price: dec("19.50")}},
		Forecast:     []domain.PricePoint{{Date: "2024-04-01", Price: dec("21.25")}},
	}
	require.NoError(t, adapter.SetForecast(ctx, key, forecast, time.Minute))

	got, err = adapter.GetForecast(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Maize", got.CropName)
	require.Len(t, got.Forecast, 1)
	assert.True(t, got.Forecast[0].Price.Equal(dec("21.25")))
}
