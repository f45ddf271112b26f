package service

import (
	"context"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
)

// RateFeed defines the interface for the upstream reference rate feed
type RateFeed interface {
	// FetchSnapshots downloads the feed and returns its snapshots in feed order
	FetchSnapshots(ctx context.Context) ([]entity.RateSnapshot, error)
}
