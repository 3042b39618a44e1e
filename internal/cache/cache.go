// Package cache holds the short-lived read cache for the data-access layer.
// Entries are keyed by (operation, user id) so two users' results can never
// collide, and every write path invalidates the owning user's entries.
package cache

import (
	"sync"
	"time"
)

// Operation identifiers for the cached reads.
const (
	OpMatches      = "matches"
	OpOpponents    = "opponents"
	OpCurrentLevel = "current_level"
	OpLevelHistory = "level_history"
)

// ReadOps is every operation a user write can affect.
var ReadOps = []string{OpMatches, OpOpponents, OpCurrentLevel, OpLevelHistory}

// key is a composite of operation and user id. Exact-match equality on the
// struct is what keeps one user's entries invisible to another.
type key struct {
	op     string
	userID string
}

type item struct {
	value     any
	expiresAt time.Time
}

// UserCache is a process-local TTL cache. It is injected into the
// repositories rather than held as a package singleton, and is safe for
// concurrent use from independent user sessions.
type UserCache struct {
	mu      sync.RWMutex
	entries map[key]item
	ttl     time.Duration
}

func New(ttl time.Duration) *UserCache {
	return &UserCache{
		entries: make(map[key]item),
		ttl:     ttl,
	}
}

// Get returns the cached value for (op, userID). Expiry is checked lazily;
// a stale entry is dropped and reported as a miss.
func (c *UserCache) Get(op, userID string) (any, bool) {
	k := key{op: op, userID: userID}

	c.mu.RLock()
	it, exists := c.entries[k]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have refreshed it.
		if cur, ok := c.entries[k]; ok && time.Now().After(cur.expiresAt) {
			delete(c.entries, k)
		}
		c.mu.Unlock()
		return nil, false
	}
	return it.value, true
}

func (c *UserCache) Set(op, userID string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key{op: op, userID: userID}] = item{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops the named operations for one user. Clearing an entry that
// is already gone is a no-op, so concurrent writers can race here safely.
func (c *UserCache) Invalidate(userID string, ops ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, op := range ops {
		delete(c.entries, key{op: op, userID: userID})
	}
}

// InvalidateUser drops every entry owned by the user.
func (c *UserCache) InvalidateUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.userID == userID {
			delete(c.entries, k)
		}
	}
}

// Len reports live (unexpired) entries; mainly useful in tests.
func (c *UserCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, it := range c.entries {
		if now.Before(it.expiresAt) {
			n++
		}
	}
	return n
}
