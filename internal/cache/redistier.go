package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"region-api/internal/metrics"
)

// 文档注释：基于 Redis 哈希的持久层
// 背景：每个键一个哈希（value/created_at/ttl_ms/hit_count），同时设置原生 PEXPIRE；读取时仍按 created_at + ttl_ms 复核。
// 约束：过期由 Redis 自行回收，DeleteExpired 只统计并删除复核失败的残留键。
type RedisTier struct {
	rdb *redis.Client
}

func NewRedisTier(rdb *redis.Client) *RedisTier { return &RedisTier{rdb: rdb} }

func (t *RedisTier) Name() string { return "redis" }

// getScript：过期复核与命中计数在同一脚本内完成，复核通过后不会再被并发的 Set 或过期插入
// 返回值：键不存在或已过期为 nil；字段缺失为 -1；命中为 {value, created_at, ttl_ms, hit_count}
var getScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'value', 'created_at', 'ttl_ms')
if not v[1] and not v[2] and not v[3] then
  return false
end
local created, ttl = tonumber(v[2]), tonumber(v[3])
if not v[1] or not created or not ttl then
  return -1
end
if tonumber(ARGV[1]) > created + ttl then
  return false
end
local n = redis.call('HINCRBY', KEYS[1], 'hit_count', 1)
return {v[1], v[2], v[3], n}
`)

func (t *RedisTier) Get(ctx context.Context, key string, now time.Time) (Entry, bool, error) {
	res, err := getScript.Run(ctx, t.rdb, []string{key}, now.UnixMilli()).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
		return Entry{}, false, fmt.Errorf("cache redis get: %w", err)
	}
	vals, ok := res.([]any)
	if !ok || len(vals) != 4 {
		metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
		return Entry{}, false, errBadHash
	}
	m := make(map[string]string, 4)
	for i, f := range []string{"value", "created_at", "ttl_ms", "hit_count"} {
		switch x := vals[i].(type) {
		case string:
			m[f] = x
		case int64:
			m[f] = strconv.FormatInt(x, 10)
		}
	}
	e, err := entryFromHash(key, m)
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
		return Entry{}, false, err
	}
	return e, true, nil
}

func (t *RedisTier) Set(ctx context.Context, e Entry) error {
	_, err := t.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, e.Key)
		p.HSet(ctx, e.Key,
			"value", string(e.Value),
			"created_at", e.CreatedAt.UnixMilli(),
			"ttl_ms", e.TTL.Milliseconds(),
			"hit_count", e.HitCount,
		)
		p.PExpireAt(ctx, e.Key, e.CreatedAt.Add(e.TTL))
		return nil
	})
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("set").Inc()
		return fmt.Errorf("cache redis set: %w", err)
	}
	return nil
}

func (t *RedisTier) Delete(ctx context.Context, key string) error {
	if err := t.rdb.Del(ctx, key).Err(); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("delete").Inc()
		return fmt.Errorf("cache redis delete: %w", err)
	}
	return nil
}

func (t *RedisTier) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := t.scan(ctx, func(key string) error {
		m, err := t.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		e, err := entryFromHash(key, m)
		if err != nil || e.Expired(now) {
			n, derr := t.rdb.Del(ctx, key).Result()
			if derr != nil {
				return derr
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("cleanup").Inc()
		return removed, fmt.Errorf("cache redis cleanup: %w", err)
	}
	return removed, nil
}

func (t *RedisTier) Len(ctx context.Context) (int64, error) {
	var n int64
	err := t.scan(ctx, func(string) error { n++; return nil })
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("len").Inc()
		return 0, fmt.Errorf("cache redis len: %w", err)
	}
	return n, nil
}

func (t *RedisTier) Clear(ctx context.Context) error {
	err := t.scan(ctx, func(key string) error { return t.rdb.Del(ctx, key).Err() })
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("clear").Inc()
		return fmt.Errorf("cache redis clear: %w", err)
	}
	return nil
}

func (t *RedisTier) scan(ctx context.Context, fn func(key string) error) error {
	it := t.rdb.Scan(ctx, 0, KeyPrefix+"*", 200).Iterator()
	for it.Next(ctx) {
		if err := fn(it.Val()); err != nil {
			return err
		}
	}
	return it.Err()
}

var errBadHash = errors.New("cache redis: malformed entry")

func entryFromHash(key string, m map[string]string) (Entry, error) {
	v, ok := m["value"]
	if !ok {
		return Entry{}, errBadHash
	}
	created, err1 := strconv.ParseInt(m["created_at"], 10, 64)
	ttl, err2 := strconv.ParseInt(m["ttl_ms"], 10, 64)
	hits, _ := strconv.ParseInt(m["hit_count"], 10, 64)
	if err1 != nil || err2 != nil {
		return Entry{}, errBadHash
	}
	return Entry{
		Key:       key,
		Value:     []byte(v),
		CreatedAt: time.UnixMilli(created),
		TTL:       time.Duration(ttl) * time.Millisecond,
		HitCount:  hits,
	}, nil
}
