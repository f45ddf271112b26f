// Package entity internal/domain/entity/rate_snapshot.go
package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used across storage, feed and API
const DateLayout = "2006-01-02"

// RateSnapshot is one currency's rate against the pivot currency, valid on a single date.
// Rate is the value of 1 unit of Currency expressed in Pivot.
type RateSnapshot struct {
	Currency string          `json:"currency"`
	Pivot    string          `json:"pivot"`
	Rate     decimal.Decimal `json:"rate"`
	Date     time.Time       `json:"date"`
}

// NewIdentitySnapshot synthesizes a snapshot of a currency against itself
func NewIdentitySnapshot(currency string, date time.Time) RateSnapshot {
	return RateSnapshot{
		Currency: currency,
		Pivot:    currency,
		Rate:     decimal.NewFromInt(1),
		Date:     NormalizeDate(date),
	}
}

// Validate checks the snapshot invariants
func (s RateSnapshot) Validate() error {
	if !IsCurrencyCode(s.Currency) {
		return fmt.Errorf("invalid currency code %q", s.Currency)
	}
	if !IsCurrencyCode(s.Pivot) {
		return fmt.Errorf("invalid pivot code %q", s.Pivot)
	}
	if !s.Rate.IsPositive() {
		return fmt.Errorf("rate for %s on %s must be positive, got %s", s.Currency, s.DateString(), s.Rate)
	}
	if s.Currency == s.Pivot && !s.Rate.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("rate of %s against itself must be 1, got %s", s.Currency, s.Rate)
	}
	if s.Date.IsZero() {
		return errors.New("snapshot date is not set")
	}
	return nil
}

// DateString returns the snapshot date in YYYY-MM-DD form
func (s RateSnapshot) DateString() string {
	return s.Date.Format(DateLayout)
}

// SameDate reports whether both snapshots are valid for the same calendar day
func (s RateSnapshot) SameDate(other RateSnapshot) bool {
	return s.DateString() == other.DateString()
}

// NormalizeDate drops the time component, keeping the calendar day in UTC
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// NormalizeCode trims and upper-cases a currency code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrencyCode reports whether code is three upper-case ASCII letters
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
