// internal/infrastructure/db/cached_rate_store_test.go
package db

import (
	"context"
	"testing"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/damon-houk/fxconvert/internal/infrastructure/cache"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/metrics"
	"github.com/damon-houk/fxconvert/internal/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedRateStore(t *testing.T) {
	ctx := context.Background()
	log := logger.NewJSONLogger(nil, logger.ErrorLevel)
	requested := day("2013-02-09")
	gbp := snapshot("GBP", "0.862", "2013-02-08")

	t.Run("Second lookup is served from cache", func(t *testing.T) {
		next := new(mocks.MockRateStore)
		m := metrics.NewMetrics(prometheus.NewRegistry())
		next.On("MostRecentOnOrBefore", mock.Anything, "GBP", requested).Return(&gbp, nil).Once()

		store := NewCachedRateStore(next, cache.NewSnapshotCache(time.Hour), log, m)

		first, err := store.MostRecentOnOrBefore(ctx, "GBP", requested)
		require.NoError(t, err)
		second, err := store.MostRecentOnOrBefore(ctx, "GBP", requested)
		require.NoError(t, err)

		assert.Equal(t, first.DateString(), second.DateString())
		assert.True(t, first.Rate.Equal(second.Rate))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("miss")))
		next.AssertExpectations(t)
	})

	t.Run("Not found is not cached", func(t *testing.T) {
		next := new(mocks.MockRateStore)
		next.On("MostRecentOnOrBefore", mock.Anything, "JPY", requested).
			Return(nil, repository.ErrSnapshotNotFound).Twice()

		store := NewCachedRateStore(next, cache.NewSnapshotCache(time.Hour), log, nil)

		for i := 0; i < 2; i++ {
			_, err := store.MostRecentOnOrBefore(ctx, "JPY", requested)
			assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)
		}
		next.AssertExpectations(t)
	})

	t.Run("Insert clears the cache", func(t *testing.T) {
		next := new(mocks.MockRateStore)
		snapshots := []entity.RateSnapshot{snapshot("GBP", "0.87", "2013-02-09")}
		next.On("MostRecentOnOrBefore", mock.Anything, "GBP", requested).Return(&gbp, nil).Once()
		next.On("InsertMany", mock.Anything, snapshots).Return(1, nil).Once()

		snapshotCache := cache.NewSnapshotCache(time.Hour)
		store := NewCachedRateStore(next, snapshotCache, log, nil)

		_, err := store.MostRecentOnOrBefore(ctx, "GBP", requested)
		require.NoError(t, err)
		assert.Equal(t, 1, snapshotCache.Size())

		inserted, err := store.InsertMany(ctx, snapshots)
		require.NoError(t, err)
		assert.Equal(t, 1, inserted)
		assert.Equal(t, 0, snapshotCache.Size())
		next.AssertExpectations(t)
	})

	t.Run("Other operations pass through", func(t *testing.T) {
		next := new(mocks.MockRateStore)
		next.On("Exists", mock.Anything, "GBP", "EUR", requested).Return(true, nil)
		next.On("ListKnownCurrencies", mock.Anything).Return([]string{"EUR", "GBP"}, nil)
		next.On("Provision", mock.Anything).Return(nil)

		store := NewCachedRateStore(next, cache.NewSnapshotCache(time.Hour), log, nil)

		ok, err := store.Exists(ctx, "GBP", "EUR", requested)
		require.NoError(t, err)
		assert.True(t, ok)

		codes, err := store.ListKnownCurrencies(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"EUR", "GBP"}, codes)

		require.NoError(t, store.Provision(ctx))
		next.AssertExpectations(t)
	})
}
