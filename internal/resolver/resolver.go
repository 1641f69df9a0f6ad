// 包 resolver：中文地名到标准行政区划的多策略级联解析
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"region-api/internal/cache"
	"region-api/internal/logger"
	"region-api/internal/metrics"
	"region-api/internal/region"
)

var (
	ErrEmptyQuery = errors.New("resolver: empty query")
	// ErrStoreUnavailable：本次级联中所有已尝试的策略均因区划库故障失败；该结果不写入缓存
	ErrStoreUnavailable = errors.New("resolver: region store unavailable")
)

// Finder：解析所需的区划只读查询能力
type Finder interface {
	FindExact(ctx context.Context, name string) (*region.Region, error)
	FindByPhonetic(ctx context.Context, key string) ([]region.Region, error)
	FindByAliasContains(ctx context.Context, name string) (*region.Region, error)
	FindNameContainedIn(ctx context.Context, query string, limit int) ([]region.Region, error)
	SearchByName(ctx context.Context, fragment string, limit int) ([]region.Region, error)
}

// Cache：结果缓存，键为归一化查询的摘要
type Cache interface {
	Get(ctx context.Context, key string) (cache.Hit, bool)
	Put(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, key string)
}

type Option func(*Resolver)

func WithCache(c Cache) Option { return func(r *Resolver) { r.cache = c } }

func WithTuning(t Tuning) Option { return func(r *Resolver) { r.t = t } }

func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.log = l } }

// 文档注释：级联解析器
// 背景：按 精确 → 别名 → 层级 → 拼音 → 模糊 → 包含 的固定顺序尝试，首个达到阈值的策略即为结果；
// 有缓存时先查缓存，冷查询经 singleflight 合并后只跑一次级联，无论是否命中都写回缓存。
// 约束：各策略互不共享可变状态；单个策略的区划库故障只跳过该策略。
type Resolver struct {
	finder Finder
	cache  Cache
	t      Tuning
	scorer Scorer
	log    *slog.Logger
	group  singleflight.Group
}

func New(f Finder, opts ...Option) *Resolver {
	r := &Resolver{finder: f, t: DefaultTuning()}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = logger.Component("resolver")
	}
	r.scorer = NewScorer(r.t)
	return r
}

// Resolution：一次解析的结果与来源
type Resolution struct {
	Match    *region.MatchResult `json:"match"`
	Source   cache.Source        `json:"source"`
	HitCount int64               `json:"hit_count"`
}

// Resolve：返回最佳匹配；无匹配时返回 nil, nil
func (r *Resolver) Resolve(ctx context.Context, name string) (*region.MatchResult, error) {
	res, err := r.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return res.Match, nil
}

// payload：缓存载荷，未命中以 match=null 表示
type payload struct {
	V     int                 `json:"v"`
	Match *region.MatchResult `json:"match"`
}

const payloadVersion = 1

func (r *Resolver) Lookup(ctx context.Context, name string) (Resolution, error) {
	t0 := time.Now()
	metrics.ResolveRequestsTotal.Inc()
	defer func() { metrics.ResolveDurationMs.Observe(float64(time.Since(t0).Microseconds()) / 1000) }()

	q := Normalize(name)
	if q.Empty() {
		return Resolution{}, ErrEmptyQuery
	}
	key := cache.Key(q.CacheText())
	if r.cache != nil {
		if hit, ok := r.cache.Get(ctx, key); ok {
			var p payload
			if err := json.Unmarshal(hit.Value, &p); err == nil && p.V == payloadVersion {
				return Resolution{Match: p.Match, Source: hit.Source, HitCount: hit.HitCount}, nil
			}
			r.log.Warn("cache_payload_invalid", "key", key)
		}
	}
	// 合并后的级联不随首个调用方取消；各调用方只在自己的 ctx 结束时提前返回
	fctx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		m, degraded, err := r.cascade(fctx, q)
		if err != nil {
			return nil, err
		}
		if r.cache != nil && (m != nil || !degraded) {
			b, _ := json.Marshal(payload{V: payloadVersion, Match: m})
			r.cache.Put(fctx, key, b)
		}
		return m, nil
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	}
	if res.Err != nil {
		return Resolution{}, res.Err
	}
	m := res.Val.(*region.MatchResult)
	if m != nil && res.Shared {
		cp := *m
		m = &cp
	}
	return Resolution{Match: m, Source: cache.SourceNone}, nil
}

// Forget：丢弃 name 对应的缓存结果；区划数据在解析之外被改写后调用
func (r *Resolver) Forget(ctx context.Context, name string) {
	q := Normalize(name)
	if q.Empty() {
		return
	}
	key := cache.Key(q.CacheText())
	r.group.Forget(key)
	if r.cache != nil {
		r.cache.Delete(ctx, key)
	}
}

// 文档注释：执行一次级联
// 约束：degraded 表示有策略因区划库故障被跳过，此时的“无匹配”不写入缓存；全部已尝试策略均失败时返回 ErrStoreUnavailable。
func (r *Resolver) cascade(ctx context.Context, q Query) (m *region.MatchResult, degraded bool, err error) {
	metrics.CascadeRunsTotal.Inc()
	attempted, failed := 0, 0
	for _, st := range r.strategies() {
		if err := ctx.Err(); err != nil {
			return nil, true, err
		}
		c, applicable, err := st.run(ctx, q)
		if !applicable {
			continue
		}
		attempted++
		if err != nil {
			failed++
			metrics.StrategyErrorsTotal.WithLabelValues(string(st.name)).Inc()
			r.log.Warn("strategy_store_fail", "strategy", st.name, "q", q.Folded, "err", err)
			continue
		}
		if c == nil || c.quality < r.t.Threshold(st.name) {
			continue
		}
		metrics.StrategyMatchesTotal.WithLabelValues(string(st.name)).Inc()
		r.log.Debug("resolve_match", "q", q.Folded, "strategy", st.name, "code", c.region.Code, "score", c.score)
		return region.NewMatch(c.region, c.score, st.name), failed > 0, nil
	}
	if attempted > 0 && failed == attempted {
		return nil, true, ErrStoreUnavailable
	}
	metrics.NoMatchTotal.Inc()
	r.log.Debug("resolve_no_match", "q", q.Folded, "degraded", failed > 0)
	return nil, failed > 0, nil
}
