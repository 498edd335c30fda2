package postlabel

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of image hashes kept by NewLRUCache when
// size is not positive.
const DefaultCacheSize = 10_000

// LRUCache is an in-process HashCache. It is safe for concurrent use.
type LRUCache struct {
	hashes *lru.Cache[string, uint64]
}

// NewLRUCache returns a HashCache holding up to size entries.
func NewLRUCache(size int) *LRUCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := lru.New[string, uint64](size) // only fails for size <= 0
	return &LRUCache{hashes: c}
}

// Get returns the hash cached under key.
func (c *LRUCache) Get(_ context.Context, key string) (uint64, bool) {
	return c.hashes.Get(key)
}

// Set caches hash under key, evicting the least recently used entry when full.
func (c *LRUCache) Set(_ context.Context, key string, hash uint64) {
	c.hashes.Add(key, hash)
}
