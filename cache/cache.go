// Package cache holds recent scrape results for serve mode.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Maclenn77/ticha/models"
)

// sweepEvery is how often expired entries are cleared out.
const sweepEvery = 5 * time.Minute

// entry holds a cached result set with its creation timestamp.
type entry struct {
	result    *models.ResultSet
	createdAt time.Time
}

// Cache keeps up to maxEntries scrape results in memory, guarded by a
// read-write mutex. Freshness is decided per lookup, so one stored result
// can answer requests with different max_age values.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache. A background goroutine clears entries older than
// ttl on a fixed schedule.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      map[string]*entry{},
		maxEntries: maxEntries,
		ttl:        ttl,
	}

	go c.sweep()
	return c
}

// Key derives the cache key for a page URL scraped by a given engine.
// Results from different engines never answer for each other.
func Key(url, engine string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(engine))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the stored result for key if it is younger than maxAge.
// maxAge <= 0 always misses: the caller asked for a fresh scrape.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.ResultSet, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > maxAge {
		return nil, false
	}
	return e.result, true
}

// Set stores a result under key. If the cache is at capacity, an arbitrary
// entry is evicted to make room (map iteration order is random in Go).
func (c *Cache) Set(key string, res *models.ResultSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		result:    res,
		createdAt: time.Now(),
	}
}

// sweep drops entries older than ttl so abandoned keys do not pin result
// sets forever.
func (c *Cache) sweep() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
