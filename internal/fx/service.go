package fx

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "fx:usd_ars"

// FetcherPort fetches a fresh quote from the upstream API.
type FetcherPort interface {
	Fetch(ctx context.Context) (float64, error)
}

// Service serves the exchange rate. Lookups hit Redis first; misses go
// upstream behind singleflight so a cache expiry triggers one API call,
// not one per request. Rate never fails: when both cache and upstream
// are down it returns the configured fallback.
type Service struct {
	logger   *slog.Logger
	fetcher  FetcherPort
	cache    *redis.Client
	ttl      time.Duration
	fallback float64
	group    singleflight.Group
}

// NewService builds Service.
func NewService(logger *slog.Logger, fetcher FetcherPort, cache *redis.Client, ttl time.Duration, fallback float64) *Service {
	return &Service{
		logger:   logger,
		fetcher:  fetcher,
		cache:    cache,
		ttl:      ttl,
		fallback: fallback,
	}
}

// Rate returns the current USD/ARS rate.
func (s *Service) Rate(ctx context.Context) float64 {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if rate, err := strconv.ParseFloat(cached, 64); err == nil && rate > 0 {
				return rate
			}
		}
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		s.logger.Warn("fx quote unavailable, using fallback",
			slog.Float64("fallback", s.fallback), slog.Any("error", err))
		return s.fallback
	}
	return v.(float64)
}

// Refresh forces a fetch and cache write. The scheduler calls this so
// most requests are served from cache.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

func (s *Service) refresh(ctx context.Context) (float64, error) {
	rate, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, strconv.FormatFloat(rate, 'f', -1, 64), s.ttl).Err(); err != nil {
			s.logger.Warn("fx cache write failed", slog.Any("error", err))
		}
	}
	return rate, nil
}
