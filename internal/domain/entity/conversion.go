package entity

import (
	"time"

	"github.com/damon-houk/fxconvert/pkg/numfmt"
	"github.com/shopspring/decimal"
)

// Conversion is the result of converting an amount between two date-aligned snapshots.
// Rate and ReverseRate belong to the snapshot pair; the amounts can be recalculated freely.
type Conversion struct {
	From        RateSnapshot    `json:"from"`
	To          RateSnapshot    `json:"to"`
	Rate        decimal.Decimal `json:"rate"`
	ReverseRate decimal.Decimal `json:"reverse_rate"`
	FromAmount  decimal.Decimal `json:"from_amount"`
	ToAmount    decimal.Decimal `json:"to_amount"`
}

// Date returns the effective date shared by both snapshots
func (c *Conversion) Date() time.Time {
	return c.From.Date
}

// Calculate sets FromAmount and derives ToAmount = FromAmount * Rate
func (c *Conversion) Calculate(fromAmount decimal.Decimal) {
	c.FromAmount = fromAmount
	c.ToAmount = fromAmount.Mul(c.Rate)
}

// CalculateReverse sets ToAmount and derives FromAmount = ToAmount * ReverseRate
func (c *Conversion) CalculateReverse(toAmount decimal.Decimal) {
	c.ToAmount = toAmount
	c.FromAmount = toAmount.Mul(c.ReverseRate)
}

// FromFormatted returns FromAmount for display
func (c *Conversion) FromFormatted() string {
	return numfmt.Format(c.FromAmount)
}

// ToFormatted returns ToAmount for display
func (c *Conversion) ToFormatted() string {
	return numfmt.Format(c.ToAmount)
}

// ConversionRequest is a validated conversion request with codes in upper case
type ConversionRequest struct {
	From   string
	To     string
	Amount decimal.Decimal
	Date   time.Time
}
