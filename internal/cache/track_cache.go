// Package cache keeps recently generated track responses in memory so
// repeated requests for the same satellite, day and options skip
// propagation.
//
// Entries expire after a TTL. When the cache is full the oldest entry is
// evicted. A background loop sweeps expired entries.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/spacetrace/internal/metrics"
)

// Config holds cache configuration.
type Config struct {
	MaxEntries int           // default: 128
	TTL        time.Duration // default: 10m
}

// Entry is one cached response body.
type Entry struct {
	Body      []byte
	CreatedAt time.Time
}

// TrackCache is an in-memory TTL cache of encoded track responses.
// Safe for concurrent use by multiple goroutines.
type TrackCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	config Config
	logger *slog.Logger
	now    func() time.Time

	// Counters (lock-free).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewTrackCache creates an empty cache.
func NewTrackCache(config Config, logger *slog.Logger) *TrackCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = 128
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	logger.Info("track cache initialized",
		"max_entries", config.MaxEntries,
		"ttl_seconds", config.TTL.Seconds(),
	)

	return &TrackCache{
		entries: make(map[string]*Entry),
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the body cached under key. Expired entries are misses.
func (c *TrackCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.CreatedAt) < c.config.TTL {
		c.hits.Add(1)
		metrics.IncTrackCacheLookup("hit")
		return entry.Body, true
	}

	c.misses.Add(1)
	metrics.IncTrackCacheLookup("miss")
	return nil, false
}

// Put stores body under key, evicting the oldest entry when full.
func (c *TrackCache) Put(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.config.MaxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = &Entry{Body: body, CreatedAt: c.now()}
}

// evictOldestLocked drops the entry with the earliest CreatedAt. Caller must
// hold mu for writing.
func (c *TrackCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.CreatedAt.Before(oldest) {
			oldestKey, oldest = k, e.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions.Add(1)
		metrics.AddTrackCacheEvictions("capacity", 1)
	}
}

// EvictExpired removes entries older than the TTL and returns how many were
// removed.
func (c *TrackCache) EvictExpired() int {
	cutoff := c.now().Add(-c.config.TTL)
	var removed int

	c.mu.Lock()
	for k, e := range c.entries {
		if !e.CreatedAt.After(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddTrackCacheEvictions("expired", removed)
		c.logger.Debug("track cache eviction", "entries_removed", removed)
	}
	return removed
}

// Start sweeps expired entries every interval until ctx is cancelled.
func (c *TrackCache) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("track cache sweeper stopped")
			return
		case <-ticker.C:
			c.EvictExpired()
		}
	}
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries    int   `json:"entries"`
	MaxEntries int   `json:"max_entries"`
	TTLSeconds int64 `json:"ttl_seconds"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
}

// Stats returns current cache statistics.
func (c *TrackCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Entries:    n,
		MaxEntries: c.config.MaxEntries,
		TTLSeconds: int64(c.config.TTL.Seconds()),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Evictions:  c.evictions.Load(),
	}
}
