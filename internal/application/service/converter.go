package service

import (
	"fmt"

	"github.com/damon-houk/fxconvert/internal/apperrors"
	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RatePrecision is the number of decimal places kept when dividing rates
const RatePrecision int32 = 20

// Converter derives cross rates from an aligned snapshot pair
type Converter struct {
	precision int32
}

// NewConverter creates a converter using RatePrecision
func NewConverter() *Converter {
	return &Converter{precision: RatePrecision}
}

// Convert computes rate = from.Rate / to.Rate, its reciprocal, and converts amount forward
func (c *Converter) Convert(from, to entity.RateSnapshot, amount decimal.Decimal) (*entity.Conversion, error) {
	if !from.SameDate(to) {
		return nil, fmt.Errorf("%w: %s on %s, %s on %s", apperrors.ErrMisalignedSnapshots,
			from.Currency, from.DateString(), to.Currency, to.DateString())
	}

	// A zero rate means the data was never populated
	if !from.Rate.IsPositive() {
		return nil, &apperrors.ZeroRateError{Side: apperrors.SideFrom, Currency: from.Currency, Date: from.Date}
	}
	if !to.Rate.IsPositive() {
		return nil, &apperrors.ZeroRateError{Side: apperrors.SideTo, Currency: to.Currency, Date: to.Date}
	}

	rate := from.Rate.DivRound(to.Rate, c.precision)
	reverseRate := decimal.NewFromInt(1).DivRound(rate, c.precision)

	conversion := &entity.Conversion{
		From:        from,
		To:          to,
		Rate:        rate,
		ReverseRate: reverseRate,
	}
	conversion.Calculate(amount)

	return conversion, nil
}
