package handler

import (
	"github.com/damon-houk/fxconvert/internal/domain/entity"
)

// ConversionResponse represents the response for the convert endpoint.
// Decimal values are encoded as strings to keep their precision.
type ConversionResponse struct {
	From             string `json:"from"`
	To               string `json:"to"`
	RateDate         string `json:"rate_date"`
	Amount           string `json:"amount"`
	ConvertedAmount  string `json:"converted_amount"`
	Rate             string `json:"rate"`
	ReverseRate      string `json:"reverse_rate"`
	AmountDisplay    string `json:"amount_display"`
	ConvertedDisplay string `json:"converted_display"`
}

// RateResponse is a single snapshot in an aligned pair
type RateResponse struct {
	Currency string `json:"currency"`
	Pivot    string `json:"pivot"`
	Rate     string `json:"rate"`
	Date     string `json:"date"`
}

// AlignedRatesResponse represents the response for the rates endpoint
type AlignedRatesResponse struct {
	Date string       `json:"date"`
	From RateResponse `json:"from"`
	To   RateResponse `json:"to"`
}

// CurrenciesResponse lists every known currency code
type CurrenciesResponse struct {
	Currencies []string `json:"currencies"`
	Count      int      `json:"count"`
}

// ImportResponse reports the outcome of a feed import
type ImportResponse struct {
	Inserted int `json:"inserted"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status string `json:"status"`
	Pivot  string `json:"pivot"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

func newConversionResponse(c *entity.Conversion) ConversionResponse {
	return ConversionResponse{
		From:             c.From.Currency,
		To:               c.To.Currency,
		RateDate:         c.Date().Format(entity.DateLayout),
		Amount:           c.FromAmount.String(),
		ConvertedAmount:  c.ToAmount.String(),
		Rate:             c.Rate.String(),
		ReverseRate:      c.ReverseRate.String(),
		AmountDisplay:    c.FromFormatted(),
		ConvertedDisplay: c.ToFormatted(),
	}
}

func newRateResponse(s entity.RateSnapshot) RateResponse {
	return RateResponse{
		Currency: s.Currency,
		Pivot:    s.Pivot,
		Rate:     s.Rate.String(),
		Date:     s.DateString(),
	}
}
