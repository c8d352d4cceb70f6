package recommend

import (
	"sync"
	"time"
)

// seedCacheTTL is how long a genre's resolved seed artist is reused. The
// top search hit for a genre rarely changes, so this mostly saves repeat
// lookups across rounds.
const seedCacheTTL = time.Hour

type seedEntry struct {
	artistID  string
	fetchedAt time.Time
}

// seedCache remembers the seed artist resolved for each genre. Entries
// are invalidated lazily: a stale genre is simply fetched again on its
// next use.
type seedCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]seedEntry
}

func newSeedCache(ttl time.Duration) *seedCache {
	return &seedCache{
		ttl:     ttl,
		entries: make(map[string]seedEntry),
	}
}

// get returns the cached artist ID for a genre while the entry is fresh.
func (c *seedCache) get(genre string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[genre]
	if !ok {
		return "", false
	}
	if time.Since(entry.fetchedAt) > c.ttl {
		return "", false
	}
	return entry.artistID, true
}

// put stores the artist resolved for a genre.
func (c *seedCache) put(genre, artistID string) {
	c.mu.Lock()
	c.entries[genre] = seedEntry{artistID: artistID, fetchedAt: time.Now()}
	c.mu.Unlock()
}
