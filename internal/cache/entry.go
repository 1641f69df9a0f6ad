// 包 cache：解析结果的两级缓存（进程内 LRU 快速层 + 可选持久层）
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// KeyPrefix：缓存键前缀，载荷结构变化时递增版本号
const KeyPrefix = "region:v1:"

// Key：归一化查询文本的稳定摘要
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Source：结果来源层
type Source string

const (
	SourceFast       Source = "fast"
	SourcePersistent Source = "persistent"
	SourceNone       Source = "none" // 未命中缓存，由级联现算
)

// Entry：缓存条目，过期时刻为 CreatedAt + TTL
type Entry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	TTL       time.Duration
	HitCount  int64
}

// Expired：读时过期判定；恰在 CreatedAt + TTL 时刻仍然有效，严格晚于才算过期
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.CreatedAt.Add(e.TTL))
}

// Hit：一次缓存命中
type Hit struct {
	Value    []byte
	Source   Source
	HitCount int64
}

// 文档注释：持久层契约
// 约束：Get 对过期条目视为未命中，命中时命中次数加一并返回自增后的值；Set 为后写覆盖；Delete 对不存在的键不报错。
type Tier interface {
	Name() string
	Get(ctx context.Context, key string, now time.Time) (Entry, bool, error)
	Set(ctx context.Context, e Entry) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Len(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}
