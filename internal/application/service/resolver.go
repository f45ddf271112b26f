// Package service internal/application/service/resolver.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damon-houk/fxconvert/internal/apperrors"
	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxLookbackDays bounds how far back the resolver searches for a shared date
const DefaultMaxLookbackDays = 14

// ResolverConfig holds the process-wide settings of a Resolver
type ResolverConfig struct {
	PivotCurrency   string
	MaxLookbackDays int
}

// Resolver finds a pair of rate snapshots that share the same effective date
type Resolver struct {
	store           repository.RateStore
	pivot           string
	maxLookbackDays int
	logger          logger.Logger
	metrics         *metrics.Metrics
}

// NewResolver creates a new resolver
func NewResolver(store repository.RateStore, cfg ResolverConfig, log logger.Logger, m *metrics.Metrics) *Resolver {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	lookback := cfg.MaxLookbackDays
	if lookback < 0 {
		lookback = DefaultMaxLookbackDays
	}

	return &Resolver{
		store:           store,
		pivot:           entity.NormalizeCode(cfg.PivotCurrency),
		maxLookbackDays: lookback,
		logger:          log,
		metrics:         m,
	}
}

// Pivot returns the pivot currency all stored rates are expressed against
func (r *Resolver) Pivot() string {
	return r.pivot
}

// ResolveAlignedRates returns the from and to snapshots to use for a conversion on date.
// Both returned snapshots always carry the same date.
func (r *Resolver) ResolveAlignedRates(ctx context.Context, from, to string, date time.Time) (entity.RateSnapshot, entity.RateSnapshot, error) {
	from = entity.NormalizeCode(from)
	to = entity.NormalizeCode(to)
	date = entity.NormalizeDate(date)

	if from == "" {
		return entity.RateSnapshot{}, entity.RateSnapshot{}, apperrors.NewInvalidInput("from", from, "currency code is required")
	}
	if to == "" {
		return entity.RateSnapshot{}, entity.RateSnapshot{}, apperrors.NewInvalidInput("to", to, "currency code is required")
	}

	switch {
	case from == to:
		// Same currency - no storage access needed
		return entity.NewIdentitySnapshot(from, date), entity.NewIdentitySnapshot(to, date), nil

	case from == r.pivot:
		toSnap, err := r.lookup(ctx, apperrors.SideTo, to, date)
		if err != nil {
			return entity.RateSnapshot{}, entity.RateSnapshot{}, err
		}
		return r.pivotSnapshot(toSnap.Date), *toSnap, nil

	case to == r.pivot:
		fromSnap, err := r.lookup(ctx, apperrors.SideFrom, from, date)
		if err != nil {
			return entity.RateSnapshot{}, entity.RateSnapshot{}, err
		}
		return *fromSnap, r.pivotSnapshot(fromSnap.Date), nil

	default:
		return r.resolveCross(ctx, from, to, date)
	}
}

// resolveCross walks both currencies back one day at a time until their latest snapshots agree
func (r *Resolver) resolveCross(ctx context.Context, from, to string, date time.Time) (entity.RateSnapshot, entity.RateSnapshot, error) {
	candidate := date

	for step := 0; step <= r.maxLookbackDays; step++ {
		fromSnap, toSnap, err := r.lookupPair(ctx, from, to, candidate)
		if err != nil {
			return entity.RateSnapshot{}, entity.RateSnapshot{}, err
		}

		if fromSnap.SameDate(*toSnap) {
			r.metrics.ObserveAlignment(step)
			if step > 0 {
				r.logger.Debug("Aligned rates after stepping back", map[string]interface{}{
					"from":       from,
					"to":         to,
					"date":       date.Format(entity.DateLayout),
					"rate_date":  fromSnap.DateString(),
					"steps_back": step,
				})
			}
			return *fromSnap, *toSnap, nil
		}

		r.logger.Debug("Rate dates differ, stepping back one day", map[string]interface{}{
			"from":           from,
			"to":             to,
			"candidate_date": candidate.Format(entity.DateLayout),
			"from_date":      fromSnap.DateString(),
			"to_date":        toSnap.DateString(),
		})

		candidate = candidate.AddDate(0, 0, -1)
	}

	r.logger.Warn("No aligned rates within lookback window", map[string]interface{}{
		"from":          from,
		"to":            to,
		"date":          date.Format(entity.DateLayout),
		"lookback_days": r.maxLookbackDays,
	})

	return entity.RateSnapshot{}, entity.RateSnapshot{}, &apperrors.NoAlignedDataError{
		From:         from,
		To:           to,
		Date:         date,
		LookbackDays: r.maxLookbackDays,
	}
}

// lookupPair issues both lookups for one candidate date concurrently
func (r *Resolver) lookupPair(ctx context.Context, from, to string, date time.Time) (*entity.RateSnapshot, *entity.RateSnapshot, error) {
	var (
		fromSnap, toSnap *entity.RateSnapshot
		fromErr, toErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fromSnap, fromErr = r.lookup(gctx, apperrors.SideFrom, from, date)
		return fromErr
	})
	g.Go(func() error {
		toSnap, toErr = r.lookup(gctx, apperrors.SideTo, to, date)
		return toErr
	})
	_ = g.Wait()

	// An unknown currency wins over a lookup cancelled because of it
	for _, err := range []error{fromErr, toErr} {
		if errors.Is(err, apperrors.ErrUnknownCurrency) {
			return nil, nil, err
		}
	}
	for _, err := range []error{fromErr, toErr} {
		if err != nil {
			return nil, nil, err
		}
	}

	return fromSnap, toSnap, nil
}

// lookup fetches the latest snapshot on or before date, mapping "not found" to UnknownCurrency
func (r *Resolver) lookup(ctx context.Context, side apperrors.Side, currency string, date time.Time) (*entity.RateSnapshot, error) {
	snap, err := r.store.MostRecentOnOrBefore(ctx, currency, date)
	if errors.Is(err, repository.ErrSnapshotNotFound) || (err == nil && snap == nil) {
		return nil, &apperrors.UnknownCurrencyError{Side: side, Code: currency, Date: date}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s rate for %s: %w", side, currency, err)
	}
	return snap, nil
}

// pivotSnapshot synthesizes the pivot currency's own snapshot for date
func (r *Resolver) pivotSnapshot(date time.Time) entity.RateSnapshot {
	return entity.NewIdentitySnapshot(r.pivot, date)
}
