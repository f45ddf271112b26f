// Package numfmt formats decimal amounts for display.
package numfmt

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	DefaultDecimals     = 2
	DefaultDecPoint     = "."
	DefaultThousandsSep = ","
)

// Format renders d with two decimals, "." as decimal point and "," between thousands
func Format(d decimal.Decimal) string {
	return Number(d, DefaultDecimals, DefaultDecPoint, DefaultThousandsSep)
}

// Number renders d rounded to decimals places using the given separators.
// The result is for display only and is never parsed back into an amount.
func Number(d decimal.Decimal, decimals int32, decPoint, thousandsSep string) string {
	if decimals < 0 {
		decimals = 0
	}

	fixed := d.StringFixed(decimals)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return d.StringFixed(decimals)
	}

	grouped := humanize.BigComma(whole)
	if thousandsSep != "," {
		grouped = strings.ReplaceAll(grouped, ",", thousandsSep)
	}

	var b strings.Builder
	if negative && strings.Trim(intPart+fracPart, "0") != "" {
		b.WriteByte('-')
	}
	b.WriteString(grouped)
	if fracPart != "" {
		b.WriteString(decPoint)
		b.WriteString(fracPart)
	}
	return b.String()
}
