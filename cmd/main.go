// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"region-api/internal/api"
	"region-api/internal/app"
	"region-api/internal/config"
	"region-api/internal/logger"
	"region-api/internal/metrics"
	"region-api/internal/middleware"
)

func main() {
	config.LoadDotenv(".env", filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg, err := config.FromEnv()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	l = logger.Configure(cfg.LogFormat, cfg.LogLevel)
	l.Debug("config_api_base", "base", cfg.APIBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.OpenFromEnv(ctx, cfg)
	if err != nil {
		l.Error("app_open_error", "err", err)
		os.Exit(1)
	}
	defer a.Close()
	l.Info("db_open_ok", "dialect", a.Dialect)

	// 背景：索引构建期间查询直接走数据库；构建完成后热切换为“索引 + 数据库”
	if cfg.IndexEnabled {
		go func() {
			for {
				_, err := a.ReloadIndex(ctx)
				if err == nil {
					return
				}
				l.Error("region_index_error", "err", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
		}()
	} else {
		l.Info("region_index_skipped")
	}

	deps := api.Deps{
		Resolver:   a.Resolver,
		Locator:    a.Locator,
		Cache:      a.Cache,
		AdminToken: cfg.AdminToken,
	}
	if cfg.IndexEnabled {
		deps.Reload = a.ReloadIndex
		deps.Nearest = a.Nearest
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, api.BuildRoutes(deps)))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	var handler http.Handler = mux
	if cfg.RateLimitEnabled {
		handler = middleware.RateLimit(cfg.RateLimitQPS)(handler)
	}
	handler = logger.AccessMiddleware(l)(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()
	l.Info("listening", "addr", cfg.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_ok")
}
