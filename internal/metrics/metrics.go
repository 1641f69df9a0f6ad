// 包 metrics：解析、缓存、区划库与外部地理编码的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ResolveRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "region_resolve_requests_total",
		Help: "Total number of resolve calls",
	})
	ResolveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "region_resolve_duration_ms",
		Help:    "Resolve duration in milliseconds (cache included)",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 200, 500},
	})
	CascadeRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "region_cascade_runs_total",
		Help: "Total number of cold cascade executions",
	})
	StrategyMatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_strategy_matches_total",
		Help: "Accepted matches by strategy",
	}, []string{"strategy"})
	StrategyErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_strategy_errors_total",
		Help: "Strategies skipped because of store errors",
	}, []string{"strategy"})
	NoMatchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "region_no_match_total",
		Help: "Total number of cascades ending without a match",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_cache_hits_total",
		Help: "Cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_cache_misses_total",
		Help: "Cache misses by tier",
	}, []string{"tier"})
	CacheErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_cache_errors_total",
		Help: "Persistent tier failures by operation",
	}, []string{"op"})
	CacheEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "region_cache_evictions_total",
		Help: "Fast tier capacity evictions",
	})
	CacheCleanupRemovedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_cache_cleanup_removed_total",
		Help: "Expired entries removed by sweeps, by tier",
	}, []string{"tier"})
	StoreErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_store_errors_total",
		Help: "Region store query failures by operation",
	}, []string{"op"})
	AMapRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "region_amap_requests_total",
		Help: "Total amap geocode requests",
	})
	AMapFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "region_amap_fail_total",
		Help: "Total amap geocode failures",
	})
	AMapSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "region_amap_success_total",
		Help: "Total amap geocode successes",
	})
	LocateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_locate_total",
		Help: "Coordinate lookups by answering source",
	}, []string{"source"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "region_rate_limited_total",
		Help: "Requests rejected by the token bucket",
	})
	AMapDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "region_amap_duration_ms",
		Help:    "AMap geocode call duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
)

func init() {
	prometheus.MustRegister(
		ResolveRequestsTotal,
		ResolveDurationMs,
		CascadeRunsTotal,
		StrategyMatchesTotal,
		StrategyErrorsTotal,
		NoMatchTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheErrorsTotal,
		CacheEvictionsTotal,
		CacheCleanupRemovedTotal,
		StoreErrorsTotal,
		AMapRequestsTotal,
		AMapFailTotal,
		AMapSuccessTotal,
		AMapDurationMs,
		LocateTotal,
		RateLimitedTotal,
	)
}

// 文档注释：返回 Prometheus 指标监听器，在主入口挂载到 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }
