package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const createRatesTable = `
CREATE TABLE IF NOT EXISTS currency_rates (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	currency TEXT NOT NULL,
	pivot    TEXT NOT NULL,
	rate     TEXT NOT NULL,
	date     TEXT NOT NULL,
	UNIQUE (currency, pivot, date)
)`

const createRatesIndex = `
CREATE INDEX IF NOT EXISTS idx_currency_rates_lookup ON currency_rates (pivot, currency, date)`

// SQLiteRateStore implements the rate store interface on an SQLite database
type SQLiteRateStore struct {
	conn  *sql.DB
	pivot string
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Every connection to ":memory:" is a separate database
	if dsn == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	return conn, nil
}

// NewSQLiteRateStore creates a new SQLite rate store serving lookups against pivot
func NewSQLiteRateStore(conn *sql.DB, pivot string) *SQLiteRateStore {
	return &SQLiteRateStore{conn: conn, pivot: entity.NormalizeCode(pivot)}
}

// Provision creates the rates table and its index when missing
func (s *SQLiteRateStore) Provision(ctx context.Context) error {
	for _, stmt := range []string{createRatesTable, createRatesIndex} {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to provision sqlite store: %w", err)
		}
	}
	return nil
}

// MostRecentOnOrBefore returns the latest snapshot of currency dated on or before date
func (s *SQLiteRateStore) MostRecentOnOrBefore(ctx context.Context, currency string, date time.Time) (*entity.RateSnapshot, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT currency, pivot, rate, date
		FROM currency_rates
		WHERE pivot = ? AND currency = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1`,
		s.pivot, currency, date.Format(entity.DateLayout),
	)

	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s rate: %w", currency, err)
	}

	return snapshot, nil
}

// Exists reports whether a snapshot for (currency, pivot, date) is stored
func (s *SQLiteRateStore) Exists(ctx context.Context, currency, pivot string, date time.Time) (bool, error) {
	var count int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM currency_rates WHERE currency = ? AND pivot = ? AND date = ?`,
		currency, pivot, date.Format(entity.DateLayout),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check %s rate: %w", currency, err)
	}
	return count > 0, nil
}

// InsertMany stores the snapshots that are not already present in a single transaction
func (s *SQLiteRateStore) InsertMany(ctx context.Context, snapshots []entity.RateSnapshot) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO currency_rates (currency, pivot, rate, date) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, snap := range snapshots {
		result, err := stmt.ExecContext(ctx, snap.Currency, snap.Pivot, snap.Rate.String(), snap.DateString())
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s rate for %s: %w", snap.Currency, snap.DateString(), err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read insert result: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshots: %w", err)
	}

	return inserted, nil
}

// ListKnownCurrencies returns every currency and pivot code stored, sorted
func (s *SQLiteRateStore) ListKnownCurrencies(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT currency AS code FROM currency_rates
		UNION
		SELECT pivot AS code FROM currency_rates
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currencies: %w", err)
	}

	return codes, nil
}

func scanSnapshot(row *sql.Row) (*entity.RateSnapshot, error) {
	var (
		snap       entity.RateSnapshot
		rate, date string
	)
	if err := row.Scan(&snap.Currency, &snap.Pivot, &rate, &date); err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid stored rate %q: %w", rate, err)
	}
	day, err := entity.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}

	snap.Rate = value
	snap.Date = day
	return &snap, nil
}
