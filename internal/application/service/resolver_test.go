// internal/application/service/resolver_test.go
package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/damon-houk/fxconvert/internal/apperrors"
	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryStore is a minimal RateStore over a slice, counting lookups
type memoryStore struct {
	mu        sync.Mutex
	snapshots []entity.RateSnapshot
	lookups   int
}

func newMemoryStore(snapshots ...entity.RateSnapshot) *memoryStore {
	return &memoryStore{snapshots: snapshots}
}

func (s *memoryStore) MostRecentOnOrBefore(ctx context.Context, currency string, date time.Time) (*entity.RateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++

	var best *entity.RateSnapshot
	for i := range s.snapshots {
		snap := s.snapshots[i]
		if snap.Currency != currency || snap.Date.After(date) {
			continue
		}
		if best == nil || snap.Date.After(best.Date) {
			best = &snap
		}
	}
	if best == nil {
		return nil, repository.ErrSnapshotNotFound
	}
	return best, nil
}

func (s *memoryStore) Exists(ctx context.Context, currency, pivot string, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range s.snapshots {
		if snap.Currency == currency && snap.Pivot == pivot && snap.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) InsertMany(ctx context.Context, snapshots []entity.RateSnapshot) (int, error) {
	inserted := 0
	for _, snap := range snapshots {
		exists, _ := s.Exists(ctx, snap.Currency, snap.Pivot, snap.Date)
		if exists {
			continue
		}
		s.mu.Lock()
		s.snapshots = append(s.snapshots, snap)
		s.mu.Unlock()
		inserted++
	}
	return inserted, nil
}

func (s *memoryStore) ListKnownCurrencies(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	for _, snap := range s.snapshots {
		seen[snap.Currency] = struct{}{}
		seen[snap.Pivot] = struct{}{}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *memoryStore) Provision(ctx context.Context) error { return nil }

func (s *memoryStore) lookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

func day(value string) time.Time {
	d, err := entity.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

func snapshot(currency, rate, date string) entity.RateSnapshot {
	return entity.RateSnapshot{
		Currency: currency,
		Pivot:    "EUR",
		Rate:     decimal.RequireFromString(rate),
		Date:     day(date),
	}
}

func newTestResolver(store repository.RateStore, lookback int) *Resolver {
	log := logger.NewJSONLogger(nil, logger.ErrorLevel)
	return NewResolver(store, ResolverConfig{PivotCurrency: "EUR", MaxLookbackDays: lookback}, log, nil)
}

func TestResolveAlignedRates(t *testing.T) {
	ctx := context.Background()

	t.Run("Identity needs no storage", func(t *testing.T) {
		store := new(mocks.MockRateStore)
		resolver := newTestResolver(store, 14)

		from, to, err := resolver.ResolveAlignedRates(ctx, "gbp", "GBP", day("2013-02-07"))

		require.NoError(t, err)
		assert.Equal(t, "GBP", from.Currency)
		assert.Equal(t, "GBP", from.Pivot)
		assert.True(t, from.Rate.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, "2013-02-07", from.DateString())
		assert.Equal(t, from, to)
		store.AssertNotCalled(t, "MostRecentOnOrBefore", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("From is the pivot", func(t *testing.T) {
		store := newMemoryStore(snapshot("GBP", "0.8620", "2013-02-06"))
		resolver := newTestResolver(store, 14)

		from, to, err := resolver.ResolveAlignedRates(ctx, "EUR", "GBP", day("2013-02-09"))

		require.NoError(t, err)
		assert.Equal(t, "EUR", from.Currency)
		assert.True(t, from.Rate.Equal(decimal.NewFromInt(1)))
		// The pivot side takes the fetched date, not the requested one
		assert.Equal(t, "2013-02-06", from.DateString())
		assert.Equal(t, "GBP", to.Currency)
		assert.Equal(t, "2013-02-06", to.DateString())
		assert.Equal(t, 1, store.lookupCount())
	})

	t.Run("To is the pivot", func(t *testing.T) {
		store := newMemoryStore(snapshot("USD", "1.3", "2013-02-07"))
		resolver := newTestResolver(store, 14)

		from, to, err := resolver.ResolveAlignedRates(ctx, "USD", "EUR", day("2013-02-07"))

		require.NoError(t, err)
		assert.Equal(t, "USD", from.Currency)
		assert.Equal(t, "EUR", to.Currency)
		assert.True(t, from.SameDate(to))
	})

	t.Run("Cross rates already aligned", func(t *testing.T) {
		store := newMemoryStore(
			snapshot("GBP", "1.16", "2013-02-07"),
			snapshot("USD", "0.78", "2013-02-07"),
		)
		resolver := newTestResolver(store, 14)

		from, to, err := resolver.ResolveAlignedRates(ctx, "GBP", "USD", day("2013-02-07"))

		require.NoError(t, err)
		assert.Equal(t, "2013-02-07", from.DateString())
		assert.Equal(t, "2013-02-07", to.DateString())
		assert.Equal(t, 2, store.lookupCount())
	})

	t.Run("Cross rates step back until dates agree", func(t *testing.T) {
		// GBP has no 02-06 snapshot, USD has no 02-07 snapshot
		store := newMemoryStore(
			snapshot("GBP", "1.15", "2013-02-05"),
			snapshot("GBP", "1.16", "2013-02-07"),
			snapshot("USD", "0.77", "2013-02-05"),
			snapshot("USD", "0.78", "2013-02-06"),
		)
		resolver := newTestResolver(store, 14)

		from, to, err := resolver.ResolveAlignedRates(ctx, "GBP", "USD", day("2013-02-07"))

		require.NoError(t, err)
		assert.Equal(t, "2013-02-05", from.DateString())
		assert.Equal(t, "2013-02-05", to.DateString())
		assert.Equal(t, "1.15", from.Rate.String())
		assert.Equal(t, "0.77", to.Rate.String())
		// candidates 02-07, 02-06 and 02-05, two lookups each
		assert.Equal(t, 6, store.lookupCount())
	})

	t.Run("Bounded search fails with NoAlignedData", func(t *testing.T) {
		store := newMemoryStore(
			snapshot("GBP", "1.16", "2013-02-01"),
			snapshot("GBP", "1.16", "2013-02-03"),
			snapshot("GBP", "1.16", "2013-02-05"),
			snapshot("GBP", "1.16", "2013-02-07"),
			snapshot("USD", "0.78", "2013-02-02"),
			snapshot("USD", "0.78", "2013-02-04"),
			snapshot("USD", "0.78", "2013-02-06"),
		)
		resolver := newTestResolver(store, 3)

		_, _, err := resolver.ResolveAlignedRates(ctx, "GBP", "USD", day("2013-02-07"))

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNoAlignedData)

		var noData *apperrors.NoAlignedDataError
		require.True(t, errors.As(err, &noData))
		assert.Equal(t, "GBP", noData.From)
		assert.Equal(t, "USD", noData.To)
		assert.Equal(t, "2013-02-07", noData.Date.Format(entity.DateLayout))
		assert.Equal(t, 3, noData.LookbackDays)
		assert.Equal(t, 8, store.lookupCount())
	})

	t.Run("Unknown to currency fails without stepping back", func(t *testing.T) {
		store := newMemoryStore(snapshot("GBP", "1.16", "2013-02-07"))
		resolver := newTestResolver(store, 14)

		_, _, err := resolver.ResolveAlignedRates(ctx, "GBP", "ZZZ", day("2013-02-07"))

		var unknown *apperrors.UnknownCurrencyError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, apperrors.SideTo, unknown.Side)
		assert.Equal(t, "ZZZ", unknown.Code)
		assert.NotErrorIs(t, err, apperrors.ErrNoAlignedData)
		assert.LessOrEqual(t, store.lookupCount(), 2)
	})

	t.Run("Unknown currency against the pivot reports its side", func(t *testing.T) {
		store := newMemoryStore()
		resolver := newTestResolver(store, 14)

		_, _, err := resolver.ResolveAlignedRates(ctx, "EUR", "ZZZ", day("2013-02-07"))
		var unknown *apperrors.UnknownCurrencyError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, apperrors.SideTo, unknown.Side)

		_, _, err = resolver.ResolveAlignedRates(ctx, "ZZZ", "EUR", day("2013-02-07"))
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, apperrors.SideFrom, unknown.Side)
		assert.Equal(t, "ZZZ", unknown.Code)
	})

	t.Run("Currency with data only after the date is unknown", func(t *testing.T) {
		store := newMemoryStore(
			snapshot("GBP", "1.16", "2013-02-07"),
			snapshot("USD", "0.78", "2013-03-01"),
		)
		resolver := newTestResolver(store, 14)

		_, _, err := resolver.ResolveAlignedRates(ctx, "GBP", "USD", day("2013-02-07"))
		assert.ErrorIs(t, err, apperrors.ErrUnknownCurrency)
	})

	t.Run("Storage failure is wrapped, not reported as unknown", func(t *testing.T) {
		store := new(mocks.MockRateStore)
		store.On("MostRecentOnOrBefore", mock.Anything, "GBP", day("2013-02-07")).
			Return(nil, errors.New("connection refused")).Once()
		resolver := newTestResolver(store, 14)

		_, _, err := resolver.ResolveAlignedRates(ctx, "GBP", "EUR", day("2013-02-07"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.NotErrorIs(t, err, apperrors.ErrUnknownCurrency)
		store.AssertExpectations(t)
	})

	t.Run("Empty codes are invalid input", func(t *testing.T) {
		resolver := newTestResolver(new(mocks.MockRateStore), 14)

		_, _, err := resolver.ResolveAlignedRates(ctx, "", "USD", day("2013-02-07"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestNewResolverDefaults(t *testing.T) {
	resolver := NewResolver(newMemoryStore(), ResolverConfig{PivotCurrency: "eur", MaxLookbackDays: -1}, nil, nil)

	assert.Equal(t, "EUR", resolver.Pivot())
	assert.Equal(t, DefaultMaxLookbackDays, resolver.maxLookbackDays)
}
