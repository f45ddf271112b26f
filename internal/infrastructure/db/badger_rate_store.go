package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/dgraph-io/badger/v3"
)

const (
	ratePrefix = "rate:"
	schemaKey  = "meta:schema"

	schemaVersion = "1"

	// insertBatchSize caps the number of writes per badger transaction
	insertBatchSize = 500
)

// BadgerRateStore implements the rate store interface using BadgerDB.
//
// Snapshots live under rate:<PIVOT>:<CURRENCY>:<YYYY-MM-DD>, so keys of one
// currency sort by date and a reverse seek finds the latest one on or before a date.
type BadgerRateStore struct {
	db    *badger.DB
	pivot string
}

// NewBadgerRateStore creates a new BadgerDB rate store serving lookups against pivot
func NewBadgerRateStore(db *badger.DB, pivot string) *BadgerRateStore {
	return &BadgerRateStore{db: db, pivot: entity.NormalizeCode(pivot)}
}

func rateKey(pivot, currency string, date time.Time) []byte {
	return []byte(ratePrefix + pivot + ":" + currency + ":" + date.Format(entity.DateLayout))
}

func currencyPrefix(pivot, currency string) []byte {
	return []byte(ratePrefix + pivot + ":" + currency + ":")
}

// MostRecentOnOrBefore returns the latest snapshot of currency dated on or before date
func (s *BadgerRateStore) MostRecentOnOrBefore(ctx context.Context, currency string, date time.Time) (*entity.RateSnapshot, error) {
	var snapshot *entity.RateSnapshot

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchSize = 1
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := currencyPrefix(s.pivot, currency)
		// ';' sorts after ':' so the seek lands on the key for date itself when present
		seek := append(rateKey(s.pivot, currency, date), ';')

		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			return repository.ErrSnapshotNotFound
		}

		return it.Item().Value(func(val []byte) error {
			var snap entity.RateSnapshot
			if err := json.Unmarshal(val, &snap); err != nil {
				return err
			}
			snapshot = &snap
			return nil
		})
	})

	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s rate: %w", currency, err)
	}

	return snapshot, nil
}

// Exists reports whether a snapshot for (currency, pivot, date) is stored
func (s *BadgerRateStore) Exists(ctx context.Context, currency, pivot string, date time.Time) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(rateKey(pivot, currency, date))
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s rate: %w", currency, err)
	}

	return true, nil
}

// InsertMany stores the snapshots that are not already present
func (s *BadgerRateStore) InsertMany(ctx context.Context, snapshots []entity.RateSnapshot) (int, error) {
	inserted := 0

	for start := 0; start < len(snapshots); start += insertBatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		end := start + insertBatchSize
		if end > len(snapshots) {
			end = len(snapshots)
		}

		batchInserted := 0
		err := s.db.Update(func(txn *badger.Txn) error {
			batchInserted = 0
			for _, snap := range snapshots[start:end] {
				key := rateKey(snap.Pivot, snap.Currency, snap.Date)

				_, err := txn.Get(key)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}

				data, err := json.Marshal(snap)
				if err != nil {
					return fmt.Errorf("failed to marshal snapshot: %w", err)
				}
				if err := txn.Set(key, data); err != nil {
					return err
				}
				batchInserted++
			}
			return nil
		})
		if err != nil {
			return inserted, fmt.Errorf("failed to store snapshots: %w", err)
		}
		inserted += batchInserted
	}

	return inserted, nil
}

// ListKnownCurrencies returns every currency and pivot code stored, sorted
func (s *BadgerRateStore) ListKnownCurrencies(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(ratePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			parts := strings.Split(strings.TrimPrefix(string(it.Item().Key()), ratePrefix), ":")
			if len(parts) != 3 {
				continue
			}
			seen[parts[0]] = struct{}{}
			seen[parts[1]] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return codes, nil
}

// Provision writes the schema marker; existing data is left untouched
func (s *BadgerRateStore) Provision(ctx context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaKey))
		if err == nil {
			return item.Value(func(val []byte) error {
				if string(val) != schemaVersion {
					return fmt.Errorf("unsupported schema version %q", val)
				}
				return nil
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(schemaKey), []byte(schemaVersion))
	})
	if err != nil {
		return fmt.Errorf("failed to provision badger store: %w", err)
	}
	return nil
}
