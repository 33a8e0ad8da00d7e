package atproto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCache_Expiry(t *testing.T) {
	cache, err := NewSessionCache(2, time.Minute)
	require.NoError(t, err)

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	s := &Session{DID: "did:plc:me"}
	cache.Put("https://bsky.social", "alice", s)

	got, ok := cache.Get("https://bsky.social", "alice")
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = cache.Get("https://other.pds", "alice")
	assert.False(t, ok, "sessions are keyed by host")

	clock = clock.Add(time.Minute)
	_, ok = cache.Get("https://bsky.social", "alice")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestSessionCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewSessionCache(2, time.Hour)
	require.NoError(t, err)

	cache.Put("h", "a", &Session{DID: "a"})
	cache.Put("h", "b", &Session{DID: "b"})
	_, _ = cache.Get("h", "a")
	cache.Put("h", "c", &Session{DID: "c"})

	_, ok := cache.Get("h", "b")
	assert.False(t, ok)
	_, ok = cache.Get("h", "a")
	assert.True(t, ok)
}

func TestSessionCache_Invalidate(t *testing.T) {
	cache, err := NewSessionCache(2, time.Hour)
	require.NoError(t, err)

	cache.Put("h", "a", &Session{DID: "a"})
	cache.Invalidate("h", "a")
	_, ok := cache.Get("h", "a")
	assert.False(t, ok)
}

func TestNewSessionCache_Validation(t *testing.T) {
	_, err := NewSessionCache(0, time.Hour)
	assert.Error(t, err)
	_, err = NewSessionCache(1, 0)
	assert.Error(t, err)
}
