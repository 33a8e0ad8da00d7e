package atproto

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSessionTTL stays below the lifetime of a PDS access token.
const DefaultSessionTTL = 90 * time.Minute

type cachedSession struct {
	session   *Session
	expiresAt time.Time
}

// SessionCache keeps recently created sessions keyed by PDS host and account
// identifier, so repeated task runs in one process do not hit the
// createSession rate limit.
type SessionCache struct {
	lru *lru.Cache[string, cachedSession]
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
}

// NewSessionCache creates a cache holding at most size sessions for ttl.
func NewSessionCache(size int, ttl time.Duration) (*SessionCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("session cache size must be positive, got %d", size)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session cache TTL must be positive, got %v", ttl)
	}
	cache, err := lru.New[string, cachedSession](size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &SessionCache{lru: cache, ttl: ttl, now: time.Now}, nil
}

func sessionKey(host, identifier string) string {
	return host + "|" + identifier
}

// Get returns a live session, evicting it if expired.
func (c *SessionCache) Get(host, identifier string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := sessionKey(host, identifier)
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return entry.session, true
}

// Put stores s for the configured TTL.
func (c *SessionCache) Put(host, identifier string, s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(sessionKey(host, identifier), cachedSession{session: s, expiresAt: c.now().Add(c.ttl)})
}

// Invalidate drops a cached session, e.g. after the server rejected it.
func (c *SessionCache) Invalidate(host, identifier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(sessionKey(host, identifier))
}

// Len returns the number of cached sessions, including expired ones not yet evicted.
func (c *SessionCache) Len() int {
	return c.lru.Len()
}
