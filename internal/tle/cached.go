package tle

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CachedSource fronts an upstream Source with the in-memory Store and the
// disk Cache. Sets fetched for "latest" expire after maxAge; historical sets
// never change upstream and are kept indefinitely.
type CachedSource struct {
	upstream Source
	store    *Store
	disk     *Cache
	maxAge   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewCachedSource wraps upstream. disk may be nil to skip the disk layer.
func NewCachedSource(upstream Source, store *Store, disk *Cache, maxAge time.Duration, logger *slog.Logger) *CachedSource {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &CachedSource{
		upstream: upstream,
		store:    store,
		disk:     disk,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
	}
}

// CacheKey names the element set for (noradID, format, day). Days after
// today share the "latest" key.
func CacheKey(noradID int, format Format, day, now time.Time) string {
	when := "latest"
	if !isFutureDay(day, now) {
		when = truncateDay(day).Format(time.DateOnly)
	}
	return fmt.Sprintf("%d-%s-%s", noradID, format, when)
}

// Elements returns cached elements when fresh, otherwise fetches upstream.
func (s *CachedSource) Elements(ctx context.Context, noradID int, day time.Time, format Format) (Elements, error) {
	now := s.now()
	key := CacheKey(noradID, format, day, now)
	latest := isFutureDay(day, now)

	fresh := func(fetchedAt time.Time) bool {
		return !latest || now.Sub(fetchedAt) < s.maxAge
	}

	if el, fetchedAt, ok := s.store.Get(key); ok && fresh(fetchedAt) {
		s.logger.Debug("elements served from memory", "key", key)
		return el, nil
	}

	if s.disk != nil {
		data, ts, err := s.disk.LoadLatest(key)
		if err == nil && fresh(ts) {
			el, err := ParseElements(data, format)
			if err == nil {
				s.store.Set(key, el, ts)
				s.logger.Debug("elements served from disk cache", "key", key, "cached_at", ts.UTC().Format(time.RFC3339))
				return el, nil
			}
			s.logger.Warn("discarding unreadable cache entry", "key", key, "error", err)
		}
	}

	el, err := s.upstream.Elements(ctx, noradID, day, format)
	if err != nil {
		return Elements{}, err
	}

	s.store.Set(key, el, now)
	if s.disk != nil && len(el.Raw) > 0 {
		if err := s.disk.Write(key, el.Raw, now); err != nil {
			s.logger.Warn("failed to write element cache", "key", key, "error", err)
		}
	}
	s.logger.Info("elements fetched", "key", key, "name", el.Name)
	return el, nil
}
