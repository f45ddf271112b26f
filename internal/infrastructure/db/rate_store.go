package db

import (
	"fmt"
	"io"
	"os"

	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/damon-houk/fxconvert/internal/infrastructure/config"
	"github.com/dgraph-io/badger/v3"
)

// NewRateStore opens the storage backend selected by cfg.
// The returned closer releases the underlying database.
func NewRateStore(cfg config.StorageConfig, pivot string) (repository.RateStore, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		badgerDB, err := OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return NewBadgerRateStore(badgerDB, pivot), badgerDB, nil

	case config.DriverSQLite:
		conn, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteRateStore(conn, pivot), conn, nil

	default:
		return nil, nil, fmt.Errorf("invalid storage driver %q", cfg.Driver)
	}
}

// OpenBadger opens the badger database at path; an empty path opens an in-memory database
func OpenBadger(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Disable Badger's default logger

	badgerDB, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return badgerDB, nil
}
