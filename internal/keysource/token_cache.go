package keysource

import (
	"sync"
	"time"
)

// tokenCache holds an authentication token in memory for the life of the
// process. Tokens are never persisted to disk.
type tokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func newTokenCache() *tokenCache {
	return &tokenCache{}
}

// Get returns the cached token if present and not expired.
func (c *tokenCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" || time.Now().After(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

// Set stores a token. A small slice of the TTL is given up so the token is
// refreshed before it actually expires.
func (c *tokenCache) Set(token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buffer := 5 * time.Second
	if ttl > buffer {
		ttl -= buffer
	}
	c.token = token
	c.expiresAt = time.Now().Add(ttl)
}

// Clear drops the cached token.
func (c *tokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiresAt = time.Time{}
}
