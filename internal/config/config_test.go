package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_BASE", "CACHE_BACKEND", "CACHE_FAST_CAPACITY", "CACHE_FAST_TTL_S",
		"CACHE_PERSIST_TTL_S", "CACHE_CLEANUP_INTERVAL_S", "RATE_LIMIT_QPS", "REGION_INDEX_ENABLED", "AMAP_TIMEOUT_S", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/api", c.APIBase)
	assert.Equal(t, CacheSQL, c.CacheBackend)
	assert.Equal(t, 4096, c.Cache.FastCapacity)
	assert.Equal(t, time.Hour, c.Cache.FastTTL)
	assert.Equal(t, 24*time.Hour, c.Cache.PersistTTL)
	assert.Equal(t, 5*time.Minute, c.Cache.CleanupInterval)
	assert.True(t, c.IndexEnabled)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE", "/v1/")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("CACHE_FAST_TTL_S", "60")
	t.Setenv("CACHE_CLEANUP_INTERVAL_S", "0")
	t.Setenv("REGION_INDEX_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "Json")
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/v1", c.APIBase)
	assert.Equal(t, CacheRedis, c.CacheBackend)
	assert.Equal(t, time.Minute, c.Cache.FastTTL)
	assert.Equal(t, time.Duration(0), c.Cache.CleanupInterval)
	assert.False(t, c.IndexEnabled)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("CACHE_FAST_CAPACITY", "lots")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("CACHE_FAST_CAPACITY", "")
	t.Setenv("CACHE_BACKEND", "memcached")
	_, err = FromEnv()
	assert.Error(t, err)

	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("LOG_FORMAT", "xml")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestLoadDotenv(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte("REGION_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("REGION_TEST_DOTENV", "")
	os.Unsetenv("REGION_TEST_DOTENV")
	LoadDotenv(p)
	assert.Equal(t, "loaded", os.Getenv("REGION_TEST_DOTENV"))
}
