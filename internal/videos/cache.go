package videos

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	info    Info
	expires time.Time
}

// CachingProber wraps another Prober with a TTL-based in-memory cache.
type CachingProber struct {
	base Prober
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProber returns a Prober that caches results for the provided TTL.
func NewCachingProber(base Prober, ttl time.Duration) *CachingProber {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProber{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Probe returns cached details when available, otherwise it delegates to the
// underlying prober and stores the result. Failures are not cached.
func (c *CachingProber) Probe(ctx context.Context, url string) (Info, error) {
	if c == nil || c.base == nil {
		return Info{}, ErrProberUnavailable
	}

	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[url]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.info, nil
	}

	info, err := c.base.Probe(ctx, url)
	if err != nil {
		return Info{}, err
	}

	c.mu.Lock()
	c.items[url] = cacheEntry{info: info, expires: now.Add(c.ttl)}
	for key, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()

	return info, nil
}
