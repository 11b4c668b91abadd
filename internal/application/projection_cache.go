package application

import (
	"strings"
	"sync"
	"time"
)

// ProjectionCache stores recently computed dashboard views to avoid
// re-running enrichment for identical calendar queries while the booking
// store remains unchanged. Mutating services invalidate it after every
// committed write.
type ProjectionCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]projectionCacheEntry
}

type projectionCacheEntry struct {
	views     []BookingView
	expiresAt time.Time
}

// NewProjectionCache constructs a cache with the given TTL and capacity.
// Non-positive values fall back to 30 seconds and 128 entries.
func NewProjectionCache(ttl time.Duration, maxEntries int, now func() time.Time) *ProjectionCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &ProjectionCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]projectionCacheEntry),
	}
}

// Get returns the cached views for a key when present and unexpired.
func (c *ProjectionCache) Get(key string) ([]BookingView, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneViews(entry.views), true
}

// Store records views under the given key.
func (c *ProjectionCache) Store(key string, views []BookingView) {
	if c == nil {
		return
	}
	cloned := cloneViews(views)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = projectionCacheEntry{views: cloned, expiresAt: expiry}
}

// Invalidate drops every cached view. Called after committed mutations.
func (c *ProjectionCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]projectionCacheEntry)
	c.mu.Unlock()
}

func (c *ProjectionCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *ProjectionCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneViews(views []BookingView) []BookingView {
	if len(views) == 0 {
		return nil
	}
	out := make([]BookingView, len(views))
	copy(out, views)
	return out
}

func buildDashboardCacheKey(rangeStart, rangeEnd time.Time, roomID *string) string {
	builder := strings.Builder{}
	builder.WriteString(rangeStart.UTC().Format(time.RFC3339Nano))
	builder.WriteString("|")
	builder.WriteString(rangeEnd.UTC().Format(time.RFC3339Nano))
	builder.WriteString("|")
	if roomID != nil {
		builder.WriteString(*roomID)
	}
	return builder.String()
}
