package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func entry(k string, ttl time.Duration) Entry {
	return Entry{Key: k, Value: []byte(k), CreatedAt: t0, TTL: ttl}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2)
	c.Set(entry("a", time.Hour))
	c.Set(entry("b", time.Hour))
	_, ok := c.Get("a", t0)
	assert.True(t, ok)
	c.Set(entry("c", time.Hour))

	_, ok = c.Get("b", t0)
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a", t0)
	assert.True(t, ok)
	_, ok = c.Get("c", t0)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Evicted())
}

func TestLRUHitCountAndExpiry(t *testing.T) {
	c := NewLRU(4)
	c.Set(entry("a", time.Minute))
	e, ok := c.Get("a", t0)
	assert.True(t, ok)
	assert.Equal(t, int64(1), e.HitCount)
	e, _ = c.Get("a", t0.Add(30*time.Second))
	assert.Equal(t, int64(2), e.HitCount)

	_, ok = c.Get("a", t0.Add(time.Minute))
	assert.True(t, ok, "still valid at created_at + ttl")
	_, ok = c.Get("a", t0.Add(time.Minute+time.Nanosecond))
	assert.False(t, ok, "expired once strictly past created_at + ttl")
	assert.Equal(t, 0, c.Len(), "expired entry removed on read")
}

func TestLRUOverwriteResetsEntry(t *testing.T) {
	c := NewLRU(4)
	c.Set(entry("a", time.Minute))
	c.Get("a", t0)
	c.Set(Entry{Key: "a", Value: []byte("new"), CreatedAt: t0, TTL: time.Hour})
	e, ok := c.Get("a", t0.Add(10*time.Minute))
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), e.Value)
	assert.Equal(t, int64(1), e.HitCount)
}

func TestLRUDeleteExpired(t *testing.T) {
	c := NewLRU(8)
	c.Set(entry("a", time.Minute))
	c.Set(entry("b", time.Hour))
	c.Set(entry("c", time.Second))
	assert.Equal(t, 1, c.DeleteExpired(t0.Add(time.Minute)), "a sits exactly on its expiry and survives")
	assert.Equal(t, 1, c.DeleteExpired(t0.Add(2*time.Minute)))
	assert.Equal(t, 1, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU(4)
	c.Set(entry("a", time.Hour))
	c.Set(entry("b", time.Hour))
	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	_, ok := c.Get("a", t0)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestEntryExpiredBoundary(t *testing.T) {
	e := entry("a", time.Minute)
	assert.False(t, e.Expired(t0.Add(time.Minute)))
	assert.True(t, e.Expired(t0.Add(time.Minute+time.Nanosecond)))
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("北京"), Key("北京"))
	assert.NotEqual(t, Key("北京"), Key("北京市"))
	assert.Len(t, Key("x"), len(KeyPrefix)+64)
}
