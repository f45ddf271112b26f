// Package service internal/application/service/conversion_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/damon-houk/fxconvert/internal/apperrors"
	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/metrics"
	"github.com/damon-houk/fxconvert/internal/infrastructure/middleware"
	"github.com/shopspring/decimal"
)

// ConvertOptions carries the optional, caller-supplied parts of a conversion.
// Empty values mean an amount of 1 and today's date.
type ConvertOptions struct {
	Amount string
	Date   string
}

// ConversionService is the public conversion surface used by the HTTP and CLI wrappers
type ConversionService struct {
	resolver  *Resolver
	converter *Converter
	logger    logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewConversionService creates a new conversion service
func NewConversionService(resolver *Resolver, converter *Converter, log logger.Logger, m *metrics.Metrics) *ConversionService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if converter == nil {
		converter = NewConverter()
	}

	return &ConversionService{
		resolver:  resolver,
		converter: converter,
		logger:    log,
		metrics:   m,
		now:       time.Now,
	}
}

// Convert converts opts.Amount from one currency to another using the rates valid on opts.Date
func (s *ConversionService) Convert(ctx context.Context, from, to string, opts ConvertOptions) (*entity.Conversion, error) {
	requestID := middleware.GetRequestID(ctx)

	req, err := ParseConversionRequest(from, to, opts, s.now())
	if err != nil {
		s.logger.Warn("Rejected conversion request", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"to":         to,
			"error":      err.Error(),
		})
		s.metrics.ObserveConversion(outcome(err))
		return nil, err
	}

	s.logger.Info("Converting currency", map[string]interface{}{
		"request_id": requestID,
		"from":       req.From,
		"to":         req.To,
		"amount":     req.Amount.String(),
		"date":       req.Date.Format(entity.DateLayout),
	})

	fromSnap, toSnap, err := s.resolver.ResolveAlignedRates(ctx, req.From, req.To, req.Date)
	if err != nil {
		s.logger.Error("Failed to resolve aligned rates", map[string]interface{}{
			"request_id": requestID,
			"from":       req.From,
			"to":         req.To,
			"date":       req.Date.Format(entity.DateLayout),
			"error":      err.Error(),
		})
		s.metrics.ObserveConversion(outcome(err))
		return nil, err
	}

	conversion, err := s.converter.Convert(fromSnap, toSnap, req.Amount)
	if err != nil {
		s.logger.Error("Failed to convert amount", map[string]interface{}{
			"request_id": requestID,
			"from":       req.From,
			"to":         req.To,
			"rate_date":  fromSnap.DateString(),
			"error":      err.Error(),
		})
		s.metrics.ObserveConversion(outcome(err))
		return nil, err
	}

	s.logger.Info("Conversion completed", map[string]interface{}{
		"request_id":   requestID,
		"from":         req.From,
		"to":           req.To,
		"rate":         conversion.Rate.String(),
		"reverse_rate": conversion.ReverseRate.String(),
		"from_amount":  conversion.FromAmount.String(),
		"to_amount":    conversion.ToAmount.String(),
		"rate_date":    conversion.Date().Format(entity.DateLayout),
	})
	s.metrics.ObserveConversion(outcome(nil))

	return conversion, nil
}

// ResolveAlignedRates validates the request and returns the aligned snapshot pair for it
func (s *ConversionService) ResolveAlignedRates(ctx context.Context, from, to, date string) (entity.RateSnapshot, entity.RateSnapshot, error) {
	req, err := ParseConversionRequest(from, to, ConvertOptions{Date: date}, s.now())
	if err != nil {
		return entity.RateSnapshot{}, entity.RateSnapshot{}, err
	}
	return s.resolver.ResolveAlignedRates(ctx, req.From, req.To, req.Date)
}

// ParseConversionRequest normalizes and validates caller input before any storage access
func ParseConversionRequest(from, to string, opts ConvertOptions, now time.Time) (*entity.ConversionRequest, error) {
	req := &entity.ConversionRequest{
		From:   entity.NormalizeCode(from),
		To:     entity.NormalizeCode(to),
		Amount: decimal.NewFromInt(1),
		Date:   entity.NormalizeDate(now),
	}

	if !entity.IsCurrencyCode(req.From) {
		return nil, apperrors.NewInvalidInput("from", from, "must be a 3-letter currency code")
	}
	if !entity.IsCurrencyCode(req.To) {
		return nil, apperrors.NewInvalidInput("to", to, "must be a 3-letter currency code")
	}

	if amount := strings.TrimSpace(opts.Amount); amount != "" {
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, apperrors.NewInvalidInput("amount", opts.Amount, "must be a number")
		}
		req.Amount = value
	}

	if date := strings.TrimSpace(opts.Date); date != "" {
		value, err := entity.ParseDate(date)
		if err != nil {
			return nil, apperrors.NewInvalidInput("date", opts.Date, "must be a date in YYYY-MM-DD format")
		}
		req.Date = value
	}

	return req, nil
}

// outcome maps an error onto the conversions_total outcome label
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, apperrors.ErrUnknownCurrency):
		return "unknown_currency"
	case errors.Is(err, apperrors.ErrNoAlignedData):
		return "no_aligned_data"
	case errors.Is(err, apperrors.ErrZeroRate):
		return "zero_rate"
	default:
		return "error"
	}
}
