package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRateSnapshotValidate(t *testing.T) {
	date := time.Date(2013, 2, 7, 0, 0, 0, 0, time.UTC)

	t.Run("Valid snapshot", func(t *testing.T) {
		s := RateSnapshot{Currency: "GBP", Pivot: "EUR", Rate: decimal.RequireFromString("0.8620"), Date: date}
		assert.NoError(t, s.Validate())
	})

	t.Run("Non-positive rate", func(t *testing.T) {
		s := RateSnapshot{Currency: "GBP", Pivot: "EUR", Rate: decimal.Zero, Date: date}
		assert.Error(t, s.Validate())
	})

	t.Run("Pivot against itself must be one", func(t *testing.T) {
		s := RateSnapshot{Currency: "EUR", Pivot: "EUR", Rate: decimal.RequireFromString("1.2"), Date: date}
		assert.Error(t, s.Validate())

		assert.NoError(t, NewIdentitySnapshot("EUR", date).Validate())
	})

	t.Run("Bad codes and missing date", func(t *testing.T) {
		assert.Error(t, RateSnapshot{Currency: "gbp", Pivot: "EUR", Rate: decimal.NewFromInt(1), Date: date}.Validate())
		assert.Error(t, RateSnapshot{Currency: "GBP", Pivot: "EURO", Rate: decimal.NewFromInt(1), Date: date}.Validate())
		assert.Error(t, RateSnapshot{Currency: "GBP", Pivot: "EUR", Rate: decimal.NewFromInt(1)}.Validate())
	})
}

func TestDateHelpers(t *testing.T) {
	ts := time.Date(2013, 2, 7, 23, 59, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.Date(2013, 2, 7, 0, 0, 0, 0, time.UTC), NormalizeDate(ts))

	d, err := ParseDate(" 2013-02-07 ")
	assert.NoError(t, err)
	assert.Equal(t, "2013-02-07", d.Format(DateLayout))

	_, err = ParseDate("not-a-date")
	assert.Error(t, err)

	assert.Equal(t, "USD", NormalizeCode(" usd "))
	assert.True(t, IsCurrencyCode("USD"))
	assert.False(t, IsCurrencyCode("US"))
	assert.False(t, IsCurrencyCode("U5D"))
}

func TestConversionCalculate(t *testing.T) {
	c := &Conversion{
		Rate:        decimal.RequireFromString("1.16"),
		ReverseRate: decimal.NewFromInt(1).DivRound(decimal.RequireFromString("1.16"), 20),
	}

	c.Calculate(decimal.NewFromInt(22))
	assert.Equal(t, "25.52", c.ToAmount.String())
	assert.Equal(t, "25.52", c.ToFormatted())
	assert.Equal(t, "22.00", c.FromFormatted())

	c.Calculate(decimal.RequireFromString("6.96"))
	assert.Equal(t, "8.0736", c.ToAmount.String())
	assert.Equal(t, "8.07", c.ToFormatted())
	assert.Equal(t, "1.16", c.Rate.String())

	c.CalculateReverse(decimal.RequireFromString("8.0736"))
	assert.True(t, c.FromAmount.Round(10).Equal(decimal.RequireFromString("6.96")))
	assert.Equal(t, "6.96", c.FromFormatted())
}
