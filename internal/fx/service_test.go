package fx

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	rate  float64
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.rate, nil
}

func newCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRateFetchesAndCaches(t *testing.T) {
	fetcher := &fakeFetcher{rate: 1234.5}
	svc := NewService(slog.Default(), fetcher, newCache(t), time.Minute, 1000)
	ctx := context.Background()

	require.Equal(t, 1234.5, svc.Rate(ctx))
	require.Equal(t, 1234.5, svc.Rate(ctx))
	require.Equal(t, 1, fetcher.calls)
}

func TestRateFallsBackWhenUpstreamFails(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	svc := NewService(slog.Default(), fetcher, newCache(t), time.Minute, 1000)

	require.Equal(t, 1000.0, svc.Rate(context.Background()))
}

func TestRateServesStaleFreeCacheFirst(t *testing.T) {
	cache := newCache(t)
	require.NoError(t, cache.Set(context.Background(), "fx:usd_ars", "987.5", time.Minute).Err())

	fetcher := &fakeFetcher{rate: 1500}
	svc := NewService(slog.Default(), fetcher, cache, time.Minute, 1000)

	require.Equal(t, 987.5, svc.Rate(context.Background()))
	require.Zero(t, fetcher.calls)
}

func TestRefreshWritesCache(t *testing.T) {
	cache := newCache(t)
	fetcher := &fakeFetcher{rate: 1100}
	svc := NewService(slog.Default(), fetcher, cache, time.Minute, 1000)
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx))
	cached, err := cache.Get(ctx, "fx:usd_ars").Result()
	require.NoError(t, err)
	require.Equal(t, "1100", cached)
}

func TestRateWorksWithoutCache(t *testing.T) {
	fetcher := &fakeFetcher{rate: 1050}
	svc := NewService(slog.Default(), fetcher, nil, time.Minute, 1000)

	require.Equal(t, 1050.0, svc.Rate(context.Background()))
}
