package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// cacheKey returns SHA-256 hex of the normalized place for cache lookup.
func cacheKey(place Place) string {
	normalized := fmt.Sprintf("%s|%s",
		strings.ToLower(strings.TrimSpace(place.City)),
		strings.ToLower(strings.TrimSpace(place.Region)),
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// resultCache is an in-process cache of resolutions, including
// non-matches, so repeated cities in a dataset hit the network once.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]Result)}
}

func (c *resultCache) get(key string) *Result {
	c.mu.RLock()
	r, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	keyPrefix := key
	if len(keyPrefix) > 12 {
		keyPrefix = keyPrefix[:12]
	}
	zap.L().Debug("geocode cache hit", zap.String("key", keyPrefix), zap.Bool("matched", r.Matched))
	return &r
}

func (c *resultCache) put(key string, r *Result) {
	c.mu.Lock()
	c.entries[key] = *r
	c.mu.Unlock()
}
