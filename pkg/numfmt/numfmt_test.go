package numfmt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"10.56":         "10.56",
		"26":            "26.00",
		"357890.994578": "357,890.99",
		"4578.45":       "4,578.45",
		"5247":          "5,247.00",
		"38.6666666666": "38.67",
		"8.0736":        "8.07",
		"-1234567.891":  "-1,234,567.89",
		"-0.001":        "0.00",
		"0":             "0.00",
	}

	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Format(decimal.RequireFromString(in)))
		})
	}
}

func TestNumberWithLocaleSeparators(t *testing.T) {
	d := decimal.RequireFromString("1234567.891")

	assert.Equal(t, "1.234.567,89", Number(d, 2, ",", "."))
	assert.Equal(t, "1 234 567,9", Number(d, 1, ",", " "))
	assert.Equal(t, "1,234,568", Number(d, 0, ".", ","))
	assert.Equal(t, "1,234,568", Number(d, -3, ".", ","))
}
