// Package repository internal/domain/repository/rate_store.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
)

// ErrSnapshotNotFound is returned when no snapshot matches a lookup
var ErrSnapshotNotFound = errors.New("rate snapshot not found")

// RateStore defines the storage port for rate snapshots
type RateStore interface {
	// MostRecentOnOrBefore returns the latest snapshot for currency dated on or before date,
	// or ErrSnapshotNotFound
	MostRecentOnOrBefore(ctx context.Context, currency string, date time.Time) (*entity.RateSnapshot, error)

	// Exists reports whether a snapshot for the exact (currency, pivot, date) triple is stored
	Exists(ctx context.Context, currency, pivot string, date time.Time) (bool, error)

	// InsertMany stores snapshots, skipping those that already exist, and returns how many were inserted
	InsertMany(ctx context.Context, snapshots []entity.RateSnapshot) (int, error)

	// ListKnownCurrencies returns the sorted union of every currency and pivot code stored
	ListKnownCurrencies(ctx context.Context) ([]string, error)

	// Provision prepares the storage; calling it on provisioned storage is a no-op
	Provision(ctx context.Context) error
}
