package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"region-api/internal/logger"
	"region-api/internal/migrate"
	"region-api/internal/utils"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newSQLTier(t *testing.T) *SQLTier {
	t.Helper()
	db, err := utils.OpenDB(utils.SQLite, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrate.EnsureCacheSchema(context.Background(), db))
	return NewSQLTier(db, utils.SQLite)
}

// brokenTier：所有操作均失败
type brokenTier struct{}

var errBroken = errors.New("tier down")

func (brokenTier) Name() string { return "broken" }
func (brokenTier) Get(context.Context, string, time.Time) (Entry, bool, error) {
	return Entry{}, false, errBroken
}
func (brokenTier) Set(context.Context, Entry) error    { return errBroken }
func (brokenTier) Delete(context.Context, string) error { return errBroken }
func (brokenTier) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errBroken
}
func (brokenTier) Len(context.Context) (int64, error) { return 0, errBroken }
func (brokenTier) Clear(context.Context) error        { return errBroken }

func TestManagerFastThenPersistent(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: t0}
	tier := newSQLTier(t)
	m := NewManager(Config{FastCapacity: 8, FastTTL: time.Hour, PersistTTL: 24 * time.Hour, CleanupInterval: time.Minute},
		tier, WithClock(clk.now), WithLogger(logger.Discard()))

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
	m.Put(ctx, "k", []byte(`{"v":1}`))

	h, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, SourceFast, h.Source)
	assert.Equal(t, int64(1), h.HitCount)

	clk.advance(90 * time.Minute)
	h, ok = m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, SourcePersistent, h.Source)
	assert.Equal(t, int64(1), h.HitCount)
	assert.Equal(t, []byte(`{"v":1}`), h.Value)

	h, ok = m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, SourceFast, h.Source)
	assert.Equal(t, int64(2), h.HitCount)

	clk.advance(24 * time.Hour)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)

	st := m.Stats(ctx)
	assert.Equal(t, int64(2), st.FastHits)
	assert.Equal(t, int64(1), st.PersistHits)
	assert.Equal(t, int64(2), st.Misses)
	assert.Equal(t, "sql", st.PersistTier)
}

func TestManagerPromotionNeverOutlivesPersistentEntry(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: t0}
	m := NewManager(Config{FastCapacity: 8, FastTTL: time.Hour, PersistTTL: 2 * time.Hour},
		newSQLTier(t), WithClock(clk.now), WithLogger(logger.Discard()))
	m.Put(ctx, "k", []byte("v"))

	clk.advance(90 * time.Minute)
	_, ok := m.Get(ctx, "k")
	require.True(t, ok)

	clk.advance(31 * time.Minute)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestManagerCleanupIsRateLimited(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: t0}
	tier := newSQLTier(t)
	m := NewManager(Config{FastCapacity: 8, FastTTL: time.Minute, PersistTTL: time.Minute, CleanupInterval: time.Hour},
		tier, WithClock(clk.now), WithLogger(logger.Discard()))

	m.Put(ctx, "a", []byte("1"))
	m.Put(ctx, "b", []byte("2"))
	first := m.Stats(ctx).LastCleanup
	assert.Equal(t, t0, first, "first access sweeps immediately")

	clk.advance(2 * time.Minute)
	m.Get(ctx, "zzz")
	assert.Equal(t, first, m.Stats(ctx).LastCleanup, "within interval")
	n, err := tier.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "expired rows stay until swept")

	clk.advance(time.Hour)
	m.Get(ctx, "zzz")
	st := m.Stats(ctx)
	assert.Equal(t, clk.t, st.LastCleanup)
	assert.Equal(t, int64(0), st.PersistEntries)
	assert.GreaterOrEqual(t, st.CleanupRemoved, int64(2))
}

func TestManagerToleratesBrokenTier(t *testing.T) {
	ctx := context.Background()
	m := NewManager(DefaultConfig(), brokenTier{}, WithLogger(logger.Discard()))
	m.Put(ctx, "k", []byte("v"))
	h, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, SourceFast, h.Source)
	_, ok = m.Get(ctx, "missing")
	assert.False(t, ok)
	assert.Equal(t, int64(-1), m.Stats(ctx).PersistEntries)
	m.Delete(ctx, "k")
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok, "fast tier dropped even when the persistent delete fails")
	assert.Error(t, m.Clear(ctx))
}

func TestManagerClear(t *testing.T) {
	ctx := context.Background()
	tier := newSQLTier(t)
	m := NewManager(DefaultConfig(), tier, WithLogger(logger.Discard()))
	m.Put(ctx, "k", []byte("v"))
	require.NoError(t, m.Clear(ctx))
	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Stats(ctx).FastEntries)
}

func TestManagerDeleteDropsBothTiers(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: t0}
	tier := newSQLTier(t)
	m := NewManager(Config{FastCapacity: 8, FastTTL: time.Hour, PersistTTL: 24 * time.Hour},
		tier, WithClock(clk.now), WithLogger(logger.Discard()))
	m.Put(ctx, "k", []byte("v"))
	m.Put(ctx, "other", []byte("o"))

	m.Delete(ctx, "k")
	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
	_, ok, err := tier.Get(ctx, "k", clk.t)
	require.NoError(t, err)
	assert.False(t, ok, "persistent row removed too")

	h, ok := m.Get(ctx, "other")
	require.True(t, ok)
	assert.Equal(t, []byte("o"), h.Value)

	m.Delete(ctx, "never-written")
}

func TestManagerEntryValidAtExactExpiry(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: t0}
	m := NewManager(Config{FastCapacity: 8, FastTTL: time.Hour, PersistTTL: 2 * time.Hour},
		newSQLTier(t), WithClock(clk.now), WithLogger(logger.Discard()))
	m.Put(ctx, "k", []byte("v"))

	clk.advance(time.Hour)
	h, ok := m.Get(ctx, "k")
	require.True(t, ok, "fast entry still valid at created_at + ttl")
	assert.Equal(t, SourceFast, h.Source)

	clk.advance(time.Millisecond)
	h, ok = m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, SourcePersistent, h.Source)

	clk.t = t0.Add(2 * time.Hour)
	m.fast.Purge()
	h, ok = m.Get(ctx, "k")
	require.True(t, ok, "persistent entry still valid at created_at + ttl")
	assert.Equal(t, SourcePersistent, h.Source)

	clk.advance(time.Millisecond)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
}
