package api

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LegendCache holds rendered legend responses per style. Each style entry is
// stamped with the style's UpdatedAt and carries one response per legend
// variant (hidden/collapse flags). A lookup with a newer stamp drops the
// entry, so edits made outside the API are never served stale.
type LegendCache struct {
	mu     sync.Mutex // serializes read-modify-write in Put
	styles *expirable.LRU[string, *styleLegends]
	size   int
	hits   atomic.Int64
	misses atomic.Int64
	stale  atomic.Int64
}

// styleLegends is immutable once stored; Put swaps in a copy.
type styleLegends struct {
	version  time.Time
	variants map[string][]byte
}

// CacheStats contains cache performance statistics. Styles counts cached
// styles, Variants the responses held across them.
type CacheStats struct {
	Styles    int     `json:"styles"`
	Variants  int     `json:"variants"`
	MaxStyles int     `json:"max_styles"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Stale     int64   `json:"stale"`
	HitRate   float64 `json:"hit_rate"`
}

// NewLegendCache creates a cache of up to maxStyles styles whose entries
// expire after ttl. A ttl of zero disables expiry.
func NewLegendCache(maxStyles int, ttl time.Duration) *LegendCache {
	if maxStyles < 1 {
		maxStyles = 1
	}
	return &LegendCache{
		styles: expirable.NewLRU[string, *styleLegends](maxStyles, nil, ttl),
		size:   maxStyles,
	}
}

// Get returns the cached variant of style, or nil when absent, expired or
// older than version.
func (c *LegendCache) Get(style string, version time.Time, variant string) []byte {
	entry, ok := c.styles.Get(style)
	if !ok {
		c.misses.Add(1)
		return nil
	}
	if !entry.version.Equal(version) {
		c.styles.Remove(style)
		c.stale.Add(1)
		c.misses.Add(1)
		return nil
	}
	data, ok := entry.variants[variant]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)
	return data
}

// Put stores a variant of style at version. Variants cached for another
// version of the style are discarded.
func (c *LegendCache) Put(style string, version time.Time, variant string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := &styleLegends{version: version, variants: map[string][]byte{variant: data}}
	if cur, ok := c.styles.Peek(style); ok && cur.version.Equal(version) {
		for k, v := range cur.variants {
			if k != variant {
				next.variants[k] = v
			}
		}
	}
	c.styles.Add(style, next)
}

// Invalidate drops every cached variant of style.
func (c *LegendCache) Invalidate(style string) {
	c.styles.Remove(style)
}

// Stats returns cache performance statistics.
func (c *LegendCache) Stats() CacheStats {
	var variants int
	entries := c.styles.Values()
	for _, e := range entries {
		variants += len(e.variants)
	}

	hits, misses := c.hits.Load(), c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Styles:    len(entries),
		Variants:  variants,
		MaxStyles: c.size,
		Hits:      hits,
		Misses:    misses,
		Stale:     c.stale.Load(),
		HitRate:   hitRate,
	}
}
