// Package db internal/infrastructure/db/cached_rate_store.go
package db

import (
	"context"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/damon-houk/fxconvert/internal/infrastructure/cache"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/metrics"
)

// CachedRateStore wraps a RateStore and caches successful lookups
type CachedRateStore struct {
	next    repository.RateStore
	cache   *cache.SnapshotCache
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewCachedRateStore creates a caching decorator around next
func NewCachedRateStore(next repository.RateStore, snapshots *cache.SnapshotCache, log logger.Logger, m *metrics.Metrics) *CachedRateStore {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &CachedRateStore{
		next:    next,
		cache:   snapshots,
		logger:  log,
		metrics: m,
	}
}

// MostRecentOnOrBefore serves the lookup from cache when possible.
// Misses are not cached, so a currency imported later is found right away.
func (s *CachedRateStore) MostRecentOnOrBefore(ctx context.Context, currency string, date time.Time) (*entity.RateSnapshot, error) {
	if snap, ok := s.cache.Get(currency, date); ok {
		s.metrics.ObserveCache(true)
		s.logger.Debug("Using cached rate", map[string]interface{}{
			"currency":  currency,
			"date":      date.Format(entity.DateLayout),
			"rate_date": snap.DateString(),
		})
		return &snap, nil
	}
	s.metrics.ObserveCache(false)

	snap, err := s.next.MostRecentOnOrBefore(ctx, currency, date)
	if err != nil {
		return nil, err
	}

	s.cache.Put(currency, date, *snap)
	return snap, nil
}

func (s *CachedRateStore) Exists(ctx context.Context, currency, pivot string, date time.Time) (bool, error) {
	return s.next.Exists(ctx, currency, pivot, date)
}

// InsertMany writes through and drops every cached lookup when anything new was stored
func (s *CachedRateStore) InsertMany(ctx context.Context, snapshots []entity.RateSnapshot) (int, error) {
	inserted, err := s.next.InsertMany(ctx, snapshots)
	if inserted > 0 {
		s.logger.Info("Clearing rate cache after import", map[string]interface{}{
			"inserted":       inserted,
			"cached_entries": s.cache.Size(),
		})
		s.cache.Clear()
	}
	return inserted, err
}

func (s *CachedRateStore) ListKnownCurrencies(ctx context.Context) ([]string, error) {
	return s.next.ListKnownCurrencies(ctx)
}

func (s *CachedRateStore) Provision(ctx context.Context) error {
	return s.next.Provision(ctx)
}
