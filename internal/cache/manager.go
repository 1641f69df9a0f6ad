package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"region-api/internal/logger"
	"region-api/internal/metrics"
)

// Config：两级缓存参数
type Config struct {
	FastCapacity    int
	FastTTL         time.Duration
	PersistTTL      time.Duration
	CleanupInterval time.Duration // <=0 关闭读写路径上的顺带清理
}

func DefaultConfig() Config {
	return Config{
		FastCapacity:    4096,
		FastTTL:         time.Hour,
		PersistTTL:      24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

// Option：Manager 构造选项
type Option func(*Manager)

// WithClock：注入时钟，测试用
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

// 文档注释：两级缓存管理器
// 背景：先查快速层，未命中再查持久层；持久层命中回填快速层。写入同时落两层，各层使用各自 TTL。
// 约束：持久层失败只记日志与指标，调用方视为未命中；过期清理按最小间隔限流，在调用方协程上顺带执行。
type Manager struct {
	cfg     Config
	fast    *LRU
	persist Tier
	now     func() time.Time
	log     *slog.Logger
	sweep   *rate.Limiter

	mu          sync.Mutex
	lastCleanup time.Time

	fastHits, persistHits, misses atomic.Int64
	removed                       atomic.Int64
}

// NewManager：persist 可为 nil，此时仅启用快速层
func NewManager(cfg Config, persist Tier, opts ...Option) *Manager {
	def := DefaultConfig()
	if cfg.FastCapacity <= 0 {
		cfg.FastCapacity = def.FastCapacity
	}
	if cfg.FastTTL <= 0 {
		cfg.FastTTL = def.FastTTL
	}
	if cfg.PersistTTL <= 0 {
		cfg.PersistTTL = def.PersistTTL
	}
	m := &Manager{cfg: cfg, fast: NewLRU(cfg.FastCapacity), persist: persist, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	if m.log == nil {
		m.log = logger.Component("cache")
	}
	if cfg.CleanupInterval > 0 {
		m.sweep = rate.NewLimiter(rate.Every(cfg.CleanupInterval), 1)
	}
	return m
}

// Get：命中返回值、来源层与命中次数
func (m *Manager) Get(ctx context.Context, key string) (Hit, bool) {
	now := m.now()
	m.maybeCleanup(ctx, now)
	if e, ok := m.fast.Get(key, now); ok {
		m.fastHits.Add(1)
		metrics.CacheHitsTotal.WithLabelValues(string(SourceFast)).Inc()
		return Hit{Value: e.Value, Source: SourceFast, HitCount: e.HitCount}, true
	}
	metrics.CacheMissesTotal.WithLabelValues(string(SourceFast)).Inc()
	if m.persist == nil {
		m.misses.Add(1)
		return Hit{}, false
	}
	e, ok, err := m.persist.Get(ctx, key, now)
	if err != nil {
		m.log.Warn("cache_persist_get_fail", "tier", m.persist.Name(), "err", err)
	}
	if !ok {
		m.misses.Add(1)
		metrics.CacheMissesTotal.WithLabelValues(string(SourcePersistent)).Inc()
		return Hit{}, false
	}
	m.persistHits.Add(1)
	metrics.CacheHitsTotal.WithLabelValues(string(SourcePersistent)).Inc()
	ttl := m.cfg.FastTTL
	if rest := e.CreatedAt.Add(e.TTL).Sub(now); rest < ttl {
		ttl = rest
	}
	m.fast.Set(Entry{Key: key, Value: e.Value, CreatedAt: now, TTL: ttl, HitCount: e.HitCount})
	return Hit{Value: e.Value, Source: SourcePersistent, HitCount: e.HitCount}, true
}

// Put：写入两层；同键后写覆盖
func (m *Manager) Put(ctx context.Context, key string, value []byte) {
	now := m.now()
	m.maybeCleanup(ctx, now)
	m.fast.Set(Entry{Key: key, Value: value, CreatedAt: now, TTL: m.cfg.FastTTL})
	if m.persist == nil {
		return
	}
	err := m.persist.Set(ctx, Entry{Key: key, Value: value, CreatedAt: now, TTL: m.cfg.PersistTTL})
	if err != nil {
		m.log.Warn("cache_persist_set_fail", "tier", m.persist.Name(), "err", err)
	}
}

// Delete：从两层删除一个键；持久层失败只记日志，之后的读取仍可能命中旧值直到过期
func (m *Manager) Delete(ctx context.Context, key string) {
	m.fast.Delete(key)
	if m.persist == nil {
		return
	}
	if err := m.persist.Delete(ctx, key); err != nil {
		m.log.Warn("cache_persist_delete_fail", "tier", m.persist.Name(), "err", err)
	}
}

func (m *Manager) maybeCleanup(ctx context.Context, now time.Time) {
	if m.sweep == nil || !m.sweep.AllowN(now, 1) {
		return
	}
	m.Cleanup(ctx)
}

// Cleanup：立即清理两层中的过期条目，返回删除总数
func (m *Manager) Cleanup(ctx context.Context) int64 {
	now := m.now()
	n := int64(m.fast.DeleteExpired(now))
	metrics.CacheCleanupRemovedTotal.WithLabelValues(string(SourceFast)).Add(float64(n))
	total := n
	if m.persist != nil {
		pn, err := m.persist.DeleteExpired(ctx, now)
		if err != nil {
			m.log.Warn("cache_cleanup_fail", "tier", m.persist.Name(), "err", err)
		}
		metrics.CacheCleanupRemovedTotal.WithLabelValues(string(SourcePersistent)).Add(float64(pn))
		total += pn
	}
	m.removed.Add(total)
	m.mu.Lock()
	m.lastCleanup = now
	m.mu.Unlock()
	m.log.Debug("cache_cleanup", "removed", total)
	return total
}

// Clear：清空两层，区划数据重载后使用
func (m *Manager) Clear(ctx context.Context) error {
	m.fast.Purge()
	if m.persist == nil {
		return nil
	}
	return m.persist.Clear(ctx)
}

// Stats：缓存运行统计
type Stats struct {
	FastEntries       int       `json:"fast_entries"`
	FastCapacity      int       `json:"fast_capacity"`
	FastEvictions     int64     `json:"fast_evictions"`
	PersistTier       string    `json:"persist_tier,omitempty"`
	PersistEntries    int64     `json:"persist_entries"` // 持久层不可用或未启用时为 -1
	FastHits          int64     `json:"fast_hits"`
	PersistHits       int64     `json:"persist_hits"`
	Misses            int64     `json:"misses"`
	CleanupRemoved    int64     `json:"cleanup_removed"`
	LastCleanup       time.Time `json:"last_cleanup,omitempty"`
	CleanupIntervalMs int64     `json:"cleanup_interval_ms"`
}

func (m *Manager) Stats(ctx context.Context) Stats {
	st := Stats{
		FastEntries:       m.fast.Len(),
		FastCapacity:      m.fast.Cap(),
		FastEvictions:     m.fast.Evicted(),
		PersistEntries:    -1,
		FastHits:          m.fastHits.Load(),
		PersistHits:       m.persistHits.Load(),
		Misses:            m.misses.Load(),
		CleanupRemoved:    m.removed.Load(),
		CleanupIntervalMs: m.cfg.CleanupInterval.Milliseconds(),
	}
	m.mu.Lock()
	st.LastCleanup = m.lastCleanup
	m.mu.Unlock()
	if m.persist != nil {
		st.PersistTier = m.persist.Name()
		if n, err := m.persist.Len(ctx); err == nil {
			st.PersistEntries = n
		} else {
			m.log.Warn("cache_stats_fail", "tier", m.persist.Name(), "err", err)
		}
	}
	return st
}
