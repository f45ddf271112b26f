package scheduler

import (
	"context"

	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
)

// ExpiredCleaner drops cache entries past their expiration
type ExpiredCleaner interface {
	CleanExpired() int
}

// CacheCleanupJob evicts expired lookups so the cache does not grow with every requested date
type CacheCleanupJob struct {
	cache ExpiredCleaner
	log   logger.Logger
}

// NewCacheCleanupJob creates a cleanup job for cache
func NewCacheCleanupJob(cache ExpiredCleaner, log logger.Logger) *CacheCleanupJob {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &CacheCleanupJob{cache: cache, log: log}
}

func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

func (j *CacheCleanupJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	removed := j.cache.CleanExpired()
	if removed > 0 {
		j.log.Debug("Expired cache entries removed", map[string]interface{}{
			"removed": removed,
		})
	}
	return nil
}
