// Package apperrors holds the failure kinds surfaced by rate resolution and conversion.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput indicates a malformed amount, date or currency code supplied by the caller.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnknownCurrency indicates that no snapshot exists for a currency at or before a date.
var ErrUnknownCurrency = errors.New("unknown currency")

// ErrNoAlignedData indicates that the alignment search ran out of lookback days.
var ErrNoAlignedData = errors.New("no aligned rate data")

// ErrZeroRate indicates a snapshot carrying a zero or negative rate.
var ErrZeroRate = errors.New("zero rate")

// Side identifies which half of a conversion request a failure belongs to
type Side string

const (
	SideFrom Side = "from"
	SideTo   Side = "to"
)

// InvalidInputError describes a rejected request field
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInvalidInput creates an InvalidInputError
func NewInvalidInput(field, value, reason string) error {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}

// UnknownCurrencyError reports the side and code that could not be resolved
type UnknownCurrencyError struct {
	Side Side
	Code string
	Date time.Time
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown %s currency %s: no rate on or before %s", e.Side, e.Code, e.Date.Format("2006-01-02"))
}

func (e *UnknownCurrencyError) Is(target error) bool {
	return target == ErrUnknownCurrency
}

// NoAlignedDataError reports a pair whose snapshots never shared a date inside the lookback window
type NoAlignedDataError struct {
	From         string
	To           string
	Date         time.Time
	LookbackDays int
}

func (e *NoAlignedDataError) Error() string {
	return fmt.Sprintf("no rates for %s and %s share a date within %d days before %s",
		e.From, e.To, e.LookbackDays, e.Date.Format("2006-01-02"))
}

func (e *NoAlignedDataError) Is(target error) bool {
	return target == ErrNoAlignedData
}

// ZeroRateError reports a snapshot whose rate was never populated
type ZeroRateError struct {
	Side     Side
	Currency string
	Date     time.Time
}

func (e *ZeroRateError) Error() string {
	return fmt.Sprintf("the %s rate for %s on %s is zero - have you imported your data?",
		e.Side, e.Currency, e.Date.Format("2006-01-02"))
}

func (e *ZeroRateError) Is(target error) bool {
	return target == ErrZeroRate
}

// ErrMisalignedSnapshots indicates a conversion attempted over snapshots from different dates.
var ErrMisalignedSnapshots = errors.New("from and to snapshots have different dates")
