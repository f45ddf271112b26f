package service

import (
	"context"
	"fmt"

	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
)

// CurrencyService exposes the storage housekeeping operations
type CurrencyService struct {
	store  repository.RateStore
	logger logger.Logger
}

// NewCurrencyService creates a new currency service
func NewCurrencyService(store repository.RateStore, log logger.Logger) *CurrencyService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &CurrencyService{store: store, logger: log}
}

// ListCurrencies returns every currency code known to storage, sorted
func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]string, error) {
	codes, err := s.store.ListKnownCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return codes, nil
}

// Provision prepares storage; it is safe to call repeatedly
func (s *CurrencyService) Provision(ctx context.Context) error {
	if err := s.store.Provision(ctx); err != nil {
		s.logger.Error("Failed to provision storage", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("failed to provision storage: %w", err)
	}
	s.logger.Info("Storage provisioned", nil)
	return nil
}
