package service

import (
	"context"
	"fmt"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/domain/repository"
	domainservice "github.com/damon-houk/fxconvert/internal/domain/service"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/metrics"
)

// ImportService loads snapshots from the upstream feed into storage
type ImportService struct {
	feed    domainservice.RateFeed
	store   repository.RateStore
	pivot   string
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewImportService creates a new import service for the configured pivot currency
func NewImportService(feed domainservice.RateFeed, store repository.RateStore, pivot string, log logger.Logger, m *metrics.Metrics) *ImportService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ImportService{
		feed:    feed,
		store:   store,
		pivot:   entity.NormalizeCode(pivot),
		logger:  log,
		metrics: m,
	}
}

// Import fetches the feed and stores every snapshot not already present.
// It returns the number of snapshots inserted.
func (s *ImportService) Import(ctx context.Context) (int, error) {
	inserted, err := s.runImport(ctx)
	s.metrics.ObserveImport(inserted, err)
	return inserted, err
}

func (s *ImportService) runImport(ctx context.Context) (int, error) {
	start := time.Now()
	s.logger.Info("Starting rate import", map[string]interface{}{
		"pivot": s.pivot,
	})

	snapshots, err := s.feed.FetchSnapshots(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch rate feed", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, fmt.Errorf("failed to fetch rate feed: %w", err)
	}

	valid := make([]entity.RateSnapshot, 0, len(snapshots))
	skipped := 0
	for _, snap := range snapshots {
		if snap.Pivot != s.pivot {
			return 0, fmt.Errorf("feed pivot %s does not match configured pivot %s", snap.Pivot, s.pivot)
		}
		if err := snap.Validate(); err != nil {
			skipped++
			s.logger.Warn("Skipping invalid snapshot", map[string]interface{}{
				"currency": snap.Currency,
				"date":     snap.DateString(),
				"error":    err.Error(),
			})
			continue
		}
		valid = append(valid, snap)
	}

	inserted, err := s.store.InsertMany(ctx, valid)
	if err != nil {
		s.logger.Error("Failed to store snapshots", map[string]interface{}{
			"snapshots": len(valid),
			"error":     err.Error(),
		})
		return 0, fmt.Errorf("failed to store snapshots: %w", err)
	}

	s.logger.Info("Rate import completed", map[string]interface{}{
		"received":    len(snapshots),
		"skipped":     skipped,
		"inserted":    inserted,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return inserted, nil
}
