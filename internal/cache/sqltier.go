package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"region-api/internal/metrics"
	"region-api/internal/utils"
)

// 文档注释：基于 region_cache 表的持久层
// 背景：与区划库共用或独立的 PostgreSQL/SQLite 连接；时间以 Unix 毫秒存储，过期由 created_at + ttl_ms 判定。
type SQLTier struct {
	db *sql.DB
	d  utils.Dialect
}

func NewSQLTier(db *sql.DB, d utils.Dialect) *SQLTier { return &SQLTier{db: db, d: d} }

func (t *SQLTier) Name() string { return "sql" }

// Get：命中时原子地累加 hit_count 并返回新值
func (t *SQLTier) Get(ctx context.Context, key string, now time.Time) (Entry, bool, error) {
	q := t.d.Rebind(`UPDATE region_cache SET hit_count = hit_count + 1
        WHERE cache_key = $1 AND created_at + ttl_ms >= $2
        RETURNING value, created_at, ttl_ms, hit_count`)
	var (
		val          string
		created, ttl int64
		e            = Entry{Key: key}
	)
	err := t.db.QueryRowContext(ctx, q, key, now.UnixMilli()).Scan(&val, &created, &ttl, &e.HitCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
		return Entry{}, false, fmt.Errorf("cache sql get: %w", err)
	}
	e.Value = []byte(val)
	e.CreatedAt = time.UnixMilli(created)
	e.TTL = time.Duration(ttl) * time.Millisecond
	return e, true, nil
}

// Set：按键覆盖写入并重置命中次数
func (t *SQLTier) Set(ctx context.Context, e Entry) error {
	q := t.d.Rebind(`INSERT INTO region_cache (cache_key, value, created_at, ttl_ms, hit_count)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (cache_key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at,
            ttl_ms = excluded.ttl_ms, hit_count = excluded.hit_count`)
	_, err := t.db.ExecContext(ctx, q, e.Key, string(e.Value), e.CreatedAt.UnixMilli(), e.TTL.Milliseconds(), e.HitCount)
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("set").Inc()
		return fmt.Errorf("cache sql set: %w", err)
	}
	return nil
}

func (t *SQLTier) Delete(ctx context.Context, key string) error {
	if _, err := t.db.ExecContext(ctx, t.d.Rebind(`DELETE FROM region_cache WHERE cache_key = $1`), key); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("delete").Inc()
		return fmt.Errorf("cache sql delete: %w", err)
	}
	return nil
}

func (t *SQLTier) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := t.db.ExecContext(ctx, t.d.Rebind(`DELETE FROM region_cache WHERE created_at + ttl_ms < $1`), now.UnixMilli())
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("cleanup").Inc()
		return 0, fmt.Errorf("cache sql cleanup: %w", err)
	}
	return res.RowsAffected()
}

func (t *SQLTier) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM region_cache`).Scan(&n); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("len").Inc()
		return 0, fmt.Errorf("cache sql len: %w", err)
	}
	return n, nil
}

func (t *SQLTier) Clear(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM region_cache`); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("clear").Inc()
		return fmt.Errorf("cache sql clear: %w", err)
	}
	return nil
}
