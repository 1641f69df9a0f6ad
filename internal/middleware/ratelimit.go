// 包 middleware：HTTP 入口的令牌桶限流
package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"region-api/internal/logger"
	"region-api/internal/metrics"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：在流量峰值时对入口限速，避免冷查询级联把区划库与缓存库压垮；桶容量等于每秒速率。
// 约束：不排队，超限直接返回 429；qps<=0 时不限流。
func RateLimit(qps int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if qps <= 0 {
			return next
		}
		lim := rate.NewLimiter(rate.Limit(qps), qps)
		logger.L().Debug("rate_limit_enabled", "qps", qps)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				metrics.RateLimitedTotal.Inc()
				w.Header().Set("retry-after", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
