// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"region-api/internal/cache"
	"region-api/internal/locate"
	"region-api/internal/logger"
	"region-api/internal/region"
	"region-api/internal/resolver"
)

// MaxBatch：批量解析单次上限
const MaxBatch = 100

type Resolver interface {
	Lookup(ctx context.Context, name string) (resolver.Resolution, error)
}

type Locator interface {
	Locate(ctx context.Context, q locate.Query) (*locate.Result, error)
}

type CacheAdmin interface {
	Stats(ctx context.Context) cache.Stats
	Clear(ctx context.Context) error
}

// Deps：路由依赖；Locator、Cache、Reload、Nearest 可为空，对应路由返回 404
type Deps struct {
	Resolver   Resolver
	Locator    Locator
	Cache      CacheAdmin
	Reload     func(ctx context.Context) (int, error) // 重建内存索引，返回区划条数
	Nearest    func(ctx context.Context, lon, lat float64, level region.Level) (*locate.Nearby, error)
	AdminToken string
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusOf：解析错误到 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, resolver.ErrEmptyQuery), errors.Is(err, locate.ErrInvalidCoordinates), errors.Is(err, locate.ErrInvalidLevel):
		return http.StatusBadRequest
	case errors.Is(err, resolver.ErrStoreUnavailable), errors.Is(err, locate.ErrIndexNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, locate.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (d Deps) admin(w http.ResponseWriter, r *http.Request) bool {
	t := r.Header.Get("x-admin-token")
	if d.AdminToken == "" || t != d.AdminToken {
		w.WriteHeader(http.StatusForbidden)
		return false
	}
	return true
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	l := logger.Component("api")

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// 文档注释：单条解析
	// 约束：无匹配返回 404 与 {"match":null}，与“查询失败”区分。
	mux.HandleFunc("GET /resolve", func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Resolver.Lookup(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			l.Debug("resolve_error", "err", err)
			writeError(w, statusOf(err), err.Error())
			return
		}
		code := http.StatusOK
		if res.Match == nil {
			code = http.StatusNotFound
		}
		writeJSON(w, code, res)
	})

	// 文档注释：批量解析
	// 背景：并发执行，单条失败只影响该条；结果顺序与输入一致。
	mux.HandleFunc("POST /resolve/batch", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Names []string `json:"names"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if len(in.Names) == 0 || len(in.Names) > MaxBatch {
			writeError(w, http.StatusBadRequest, "names: want 1..100 entries")
			return
		}
		type item struct {
			Query string `json:"query"`
			resolver.Resolution
			Error string `json:"error,omitempty"`
		}
		out := make([]item, len(in.Names))
		g, ctx := errgroup.WithContext(r.Context())
		g.SetLimit(8)
		for i, name := range in.Names {
			g.Go(func() error {
				res, err := d.Resolver.Lookup(ctx, name)
				out[i] = item{Query: name, Resolution: res}
				if err != nil {
					out[i].Error = err.Error()
				}
				return nil
			})
		}
		_ = g.Wait()
		writeJSON(w, http.StatusOK, map[string]any{"results": out})
	})

	mux.HandleFunc("GET /locate", func(w http.ResponseWriter, r *http.Request) {
		if d.Locator == nil {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		res, err := d.Locator.Locate(r.Context(), locate.Query{Name: q.Get("q"), City: q.Get("city"), Province: q.Get("province")})
		if err != nil {
			if statusOf(err) == http.StatusBadGateway {
				l.Warn("locate_error", "q", q.Get("q"), "err", err)
			}
			writeError(w, statusOf(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	// 文档注释：坐标反查最近区划
	// 约束：lon/lat 必填，level 可选（1..5）；超出半径返回 404。
	mux.HandleFunc("GET /nearest", func(w http.ResponseWriter, r *http.Request) {
		if d.Nearest == nil {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		lon, err1 := strconv.ParseFloat(q.Get("lon"), 64)
		lat, err2 := strconv.ParseFloat(q.Get("lat"), 64)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "lon and lat are required numbers")
			return
		}
		var level int
		if v := q.Get("level"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "level must be an integer")
				return
			}
			level = n
		}
		res, err := d.Nearest(r.Context(), lon, lat, region.Level(level))
		if err != nil {
			writeError(w, statusOf(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("GET /cache/stats", func(w http.ResponseWriter, r *http.Request) {
		if d.Cache == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, d.Cache.Stats(r.Context()))
	})

	mux.HandleFunc("POST /cache/clear", func(w http.ResponseWriter, r *http.Request) {
		if d.Cache == nil {
			http.NotFound(w, r)
			return
		}
		if !d.admin(w, r) {
			return
		}
		if err := d.Cache.Clear(r.Context()); err != nil {
			l.Error("cache_clear_error", "err", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		l.Info("cache_cleared")
		w.WriteHeader(http.StatusNoContent)
	})

	// 文档注释：重建内存索引
	// 背景：区划导入后调用，重建并热切换索引；旧缓存结果可能过期，一并清空。
	mux.HandleFunc("POST /reload-index", func(w http.ResponseWriter, r *http.Request) {
		if d.Reload == nil {
			http.NotFound(w, r)
			return
		}
		if !d.admin(w, r) {
			return
		}
		n, err := d.Reload(r.Context())
		if err != nil {
			l.Error("index_reload_error", "err", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if d.Cache != nil {
			if err := d.Cache.Clear(r.Context()); err != nil {
				l.Warn("cache_clear_error", "err", err)
			}
		}
		l.Info("index_reloaded", "regions", n)
		writeJSON(w, http.StatusOK, map[string]int{"regions": n})
	})

	return mux
}
