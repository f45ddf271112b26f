package cache

import (
	"sync"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
)

// DefaultExpiration is used when a cache is created with a non-positive TTL
const DefaultExpiration = time.Hour

// CacheEntry represents a cached snapshot with the time it was stored
type CacheEntry struct {
	Snapshot  entity.RateSnapshot
	Timestamp time.Time
}

// SnapshotCache is a thread-safe in-memory cache of "most recent snapshot on or before" lookups.
// Entries are keyed by currency and the requested date, not the snapshot's own date.
type SnapshotCache struct {
	cache      map[string]CacheEntry
	expiration time.Duration
	mutex      sync.RWMutex
}

// NewSnapshotCache creates a new snapshot cache
func NewSnapshotCache(expiration time.Duration) *SnapshotCache {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &SnapshotCache{
		cache:      make(map[string]CacheEntry),
		expiration: expiration,
	}
}

// generateCacheKey creates a cache key from currency and date
func generateCacheKey(currency string, date time.Time) string {
	return currency + ":" + date.Format(entity.DateLayout)
}

// Get retrieves a snapshot from the cache if available and not expired
func (c *SnapshotCache) Get(currency string, onOrBefore time.Time) (entity.RateSnapshot, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[generateCacheKey(currency, onOrBefore)]
	if !exists || time.Since(entry.Timestamp) > c.expiration {
		return entity.RateSnapshot{}, false
	}

	return entry.Snapshot, true
}

// Put stores the snapshot found for a lookup of currency on or before date
func (c *SnapshotCache) Put(currency string, onOrBefore time.Time, snapshot entity.RateSnapshot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[generateCacheKey(currency, onOrBefore)] = CacheEntry{
		Snapshot:  snapshot,
		Timestamp: time.Now(),
	}
}

// Clear clears all entries from the cache
func (c *SnapshotCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]CacheEntry)
}

// Size returns the number of items in the cache
func (c *SnapshotCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CleanExpired removes expired entries from the cache
func (c *SnapshotCache) CleanExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := 0
	now := time.Now()

	for key, entry := range c.cache {
		if now.Sub(entry.Timestamp) > c.expiration {
			delete(c.cache, key)
			count++
		}
	}

	return count
}
