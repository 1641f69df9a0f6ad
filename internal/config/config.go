// 包 config：从环境变量读取服务配置；各 cmd 启动时先用 godotenv 加载 .env
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"region-api/internal/cache"
)

// CacheBackend：持久层后端
type CacheBackend string

const (
	CacheSQL   CacheBackend = "sql"
	CacheRedis CacheBackend = "redis"
	CacheNone  CacheBackend = "none"
)

// Config：服务运行参数
type Config struct {
	Addr    string
	APIBase string

	CacheBackend CacheBackend
	Cache        cache.Config

	IndexEnabled bool

	AMapKey     string
	AMapBaseURL string
	AMapTimeout time.Duration

	RateLimitEnabled bool
	RateLimitQPS     int

	AdminToken string
	LogLevel   string // 传给 logger.Configure
	LogFormat  string // text 或 json
}

// LoadDotenv：依次尝试加载 .env 文件，缺失时忽略
func LoadDotenv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// 文档注释：读取环境变量配置
// 约束：数值解析失败即报错，避免误配被默认值掩盖；未设置的键使用默认值。
func FromEnv() (Config, error) {
	c := Config{
		Addr:             envOr("ADDR", ":8080"),
		APIBase:          strings.TrimRight(envOr("API_BASE", "/api"), "/"),
		CacheBackend:     CacheBackend(strings.ToLower(envOr("CACHE_BACKEND", string(CacheSQL)))),
		AMapKey:          os.Getenv("AMAP_SERVER_KEY"),
		AMapBaseURL:      envOr("AMAP_BASE_URL", "https://restapi.amap.com"),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		LogLevel:         strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(envOr("LOG_FORMAT", "text")),
		IndexEnabled:     envOr("REGION_INDEX_ENABLED", "true") == "true",
		RateLimitEnabled: os.Getenv("RATE_LIMIT_ENABLED") == "true",
	}
	switch c.CacheBackend {
	case CacheSQL, CacheRedis, CacheNone:
	default:
		return c, fmt.Errorf("config: CACHE_BACKEND %q: want sql, redis or none", c.CacheBackend)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return c, fmt.Errorf("config: LOG_FORMAT %q: want text or json", c.LogFormat)
	}
	def := cache.DefaultConfig()
	var err error
	if c.Cache.FastCapacity, err = intEnv("CACHE_FAST_CAPACITY", def.FastCapacity); err != nil {
		return c, err
	}
	if c.Cache.FastTTL, err = secondsEnv("CACHE_FAST_TTL_S", def.FastTTL); err != nil {
		return c, err
	}
	if c.Cache.PersistTTL, err = secondsEnv("CACHE_PERSIST_TTL_S", def.PersistTTL); err != nil {
		return c, err
	}
	if c.Cache.CleanupInterval, err = secondsEnv("CACHE_CLEANUP_INTERVAL_S", def.CleanupInterval); err != nil {
		return c, err
	}
	if c.AMapTimeout, err = secondsEnv("AMAP_TIMEOUT_S", 4*time.Second); err != nil {
		return c, err
	}
	if c.RateLimitQPS, err = intEnv("RATE_LIMIT_QPS", 200); err != nil {
		return c, err
	}
	if c.RateLimitQPS <= 0 {
		return c, fmt.Errorf("config: RATE_LIMIT_QPS must be positive, got %d", c.RateLimitQPS)
	}
	return c, nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	return n, nil
}

func secondsEnv(k string, def time.Duration) (time.Duration, error) {
	n, err := intEnv(k, int(def/time.Second))
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
