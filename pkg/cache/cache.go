package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slated-ai/slated/pkg/models"
)

// promptPrefixBytes bounds how much of the prompt feeds the fingerprint, so
// keying stays cheap for very long prompts.
const promptPrefixBytes = 1024

// Cache is an exact-match, in-memory response cache with TTL expiry and a
// bounded entry count. It is process-local and not persisted.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	response  string
	createdAt time.Time
}

// New creates a Cache with the given TTL and maximum entry count.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Fingerprint computes a deterministic cache key from the target, generation
// parameters and a bounded prefix of the prompt.
func Fingerprint(target string, params map[string]any, prompt string) string {
	h := sha256.New()
	h.Write([]byte(target))
	h.Write([]byte{0})
	// json.Marshal sorts map keys, so equal parameter bags hash equally.
	data, _ := json.Marshal(params)
	h.Write(data)
	h.Write([]byte{0})
	if len(prompt) > promptPrefixBytes {
		prompt = prompt[:promptPrefixBytes]
	}
	h.Write([]byte(prompt))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Lookup returns the cached response for key. Expired entries are treated as
// absent; they stay resident until size-triggered eviction removes them.
func (c *Cache) Lookup(key string) (string, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok || time.Since(e.createdAt) >= c.ttl {
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return e.response, true
}

// Store inserts a response, evicting oldest-by-creation entries first if the
// cache is full.
func (c *Cache) Store(key, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry{response: response, createdAt: time.Now()}
}

// evictOldestLocked removes the entry with the earliest creation time.
// Must be called with c.mu held and a non-empty map.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.createdAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.createdAt
			first = false
		}
	}
	delete(c.entries, oldestKey)
}

// Len returns the number of resident entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache performance counters.
func (c *Cache) Stats() models.CacheStats {
	return models.CacheStats{
		Entries: int64(c.Len()),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
