// 包 migrate：首次运行自动创建行政区划表、持久化缓存表与索引
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"region-api/internal/logger"
)

// 约束：语句需同时兼容 PostgreSQL 与 SQLite；使用 IF NOT EXISTS 避免与既有结构冲突
var regionStmts = []string{
	`CREATE TABLE IF NOT EXISTS regions (
            code TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            parent_code TEXT,
            level INTEGER NOT NULL CHECK (level BETWEEN 1 AND 5),
            longitude DOUBLE PRECISION,
            latitude DOUBLE PRECISION,
            pinyin TEXT,
            aliases TEXT NOT NULL DEFAULT '[]'
        )`,
	`CREATE INDEX IF NOT EXISTS idx_regions_name ON regions(name)`,
	`CREATE INDEX IF NOT EXISTS idx_regions_pinyin ON regions(pinyin)`,
	`CREATE INDEX IF NOT EXISTS idx_regions_parent ON regions(parent_code)`,
	`CREATE INDEX IF NOT EXISTS idx_regions_level ON regions(level)`,
	`CREATE INDEX IF NOT EXISTS idx_regions_lonlat ON regions(longitude, latitude)`,
}

// created_at 为 unix 毫秒，ttl_ms 为毫秒；过期判定以读取时为准，索引仅服务于清理
var cacheStmts = []string{
	`CREATE TABLE IF NOT EXISTS region_cache (
            cache_key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            created_at BIGINT NOT NULL,
            ttl_ms BIGINT NOT NULL,
            hit_count BIGINT NOT NULL DEFAULT 0
        )`,
	`CREATE INDEX IF NOT EXISTS idx_region_cache_created ON region_cache(created_at)`,
}

// EnsureSchema：创建 regions 表与推荐索引
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return exec(ctx, db, "regions", regionStmts)
}

// EnsureCacheSchema：创建持久化缓存表；缓存库可与区划库分离
func EnsureCacheSchema(ctx context.Context, db *sql.DB) error {
	return exec(ctx, db, "region_cache", cacheStmts)
}

func exec(ctx context.Context, db *sql.DB, name string, stmts []string) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "table", name, "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate %s stmt %d: %w", name, i, err)
		}
	}
	logger.L().Debug("schema_done", "table", name)
	return nil
}
