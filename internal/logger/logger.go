// 包 logger：统一初始化与获取日志器，避免各模块重复配置；通过环境变量控制日志级别与输出格式
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// ParseLevel：LOG_LEVEL 文本到 slog 级别，未知值按 info 处理
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New：按格式与级别构造日志器，不修改进程默认日志器
func New(w io.Writer, format string, lvl slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup：按 LOG_FORMAT 与 LOG_LEVEL 初始化默认日志器，配置尚未解析前使用
func Setup() *slog.Logger {
	return Configure(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

// Configure：以给定格式与级别替换默认日志器
// 背景：集中化日志配置，各 cmd 解析完配置后以配置值重新初始化
// 约束：输出目标固定为标准错误；不在此处管理文件句柄或外部聚合通道
func Configure(format, level string) *slog.Logger {
	l := New(os.Stderr, format, ParseLevel(level))
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return l
}

// L：获取默认日志器；若未初始化则回退到 Setup
func L() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return Setup()
	}
	return l
}

// Component：带组件名的子日志器
func Component(name string) *slog.Logger { return L().With("component", name) }

// Discard：丢弃全部输出，测试中注入
func Discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
