// 包 app：按配置组装区划库、索引、缓存、解析器与坐标查询，供各 cmd 共用
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"region-api/internal/amap"
	"region-api/internal/cache"
	"region-api/internal/config"
	"region-api/internal/locate"
	"region-api/internal/logger"
	"region-api/internal/migrate"
	"region-api/internal/region"
	"region-api/internal/resolver"
	"region-api/internal/store"
	"region-api/internal/store/chain"
	"region-api/internal/store/index"
	"region-api/internal/utils"
)

// App：一次进程生命周期内的依赖集合；缓存由此处创建并注入解析器，不使用全局单例
type App struct {
	Config   config.Config
	DB       *sql.DB
	Dialect  utils.Dialect
	Store    *store.Store
	Finder   *chain.Dynamic
	Cache    *cache.Manager
	Resolver *resolver.Resolver
	Locator  *locate.Locator

	ix  atomic.Pointer[index.Index]
	rdb *redis.Client
	log *slog.Logger
}

// 文档注释：打开依赖
// 背景：启动时只连库与建表，查询源先指向数据库；内存索引由调用方按需 ReloadIndex 构建后热切换。
func Open(ctx context.Context, cfg config.Config, db *sql.DB, d utils.Dialect) (*App, error) {
	l := logger.Component("app")
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db, Dialect: d, Store: store.AttachDB(db, d), Finder: &chain.Dynamic{}, log: l}
	a.Finder.Set(a.Store)

	tier, err := a.openTier(ctx)
	if err != nil {
		return nil, err
	}
	a.Cache = cache.NewManager(cfg.Cache, tier)
	a.Resolver = resolver.New(a.Finder, resolver.WithCache(a.Cache))

	var geo locate.Geocoder
	if cfg.AMapKey != "" {
		c := amap.New(cfg.AMapKey, &http.Client{Timeout: cfg.AMapTimeout})
		c.BaseURL = cfg.AMapBaseURL
		geo = c
		l.Info("amap_enabled")
	}
	a.Locator = locate.New(a.Resolver, geo, a)
	return a, nil
}

// OpenFromEnv：按环境变量打开区划库后组装
func OpenFromEnv(ctx context.Context, cfg config.Config) (*App, error) {
	db, d, err := utils.OpenDBFromEnv()
	if err != nil {
		return nil, fmt.Errorf("open region db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping region db: %w", err)
	}
	a, err := Open(ctx, cfg, db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openTier(ctx context.Context) (cache.Tier, error) {
	switch a.Config.CacheBackend {
	case config.CacheNone:
		a.log.Info("cache_persist_disabled")
		return nil, nil
	case config.CacheRedis:
		rdb := utils.OpenRedisFromEnv()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.rdb = rdb
		a.log.Info("cache_persist_ready", "tier", "redis")
		return cache.NewRedisTier(rdb), nil
	default:
		if err := migrate.EnsureCacheSchema(ctx, a.DB); err != nil {
			return nil, err
		}
		a.log.Info("cache_persist_ready", "tier", "sql")
		return cache.NewSQLTier(a.DB, a.Dialect), nil
	}
}

// 文档注释：重建内存索引并热切换
// 背景：索引在前、数据库在后，索引构建之后写入的记录仍可经数据库查到；构建失败时保留当前查询源。
func (a *App) ReloadIndex(ctx context.Context) (int, error) {
	ix, err := index.BuildFromStore(ctx, a.Store)
	if err != nil {
		return 0, fmt.Errorf("build region index: %w", err)
	}
	a.Finder.Set(chain.New(ix, a.Store))
	a.ix.Store(ix)
	a.log.Info("region_index_ready", "regions", ix.Len())
	return ix.Len(), nil
}

// UpdateCoordinates：回写区划库并修补当前索引快照，实现 locate.CoordinateWriter
func (a *App) UpdateCoordinates(ctx context.Context, code string, lon, lat float64) error {
	if err := a.Store.UpdateCoordinates(ctx, code, lon, lat); err != nil {
		return err
	}
	if ix := a.ix.Load(); ix != nil {
		ix.UpdateCoordinates(code, lon, lat)
	}
	return nil
}

// Nearest：按当前索引快照反查最近区划；索引未构建时返回 locate.ErrIndexNotReady
func (a *App) Nearest(_ context.Context, lon, lat float64, level region.Level) (*locate.Nearby, error) {
	var f locate.NearestFinder
	if ix := a.ix.Load(); ix != nil {
		f = ix
	}
	return locate.Nearest(f, lon, lat, level)
}

func (a *App) Close() error {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return a.DB.Close()
}
