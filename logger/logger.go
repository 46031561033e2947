// Package logger 提供 png2svg 各个包共用的 slog 日志器
// 默认不输出任何日志，由命令行入口调用 SetLogger 开启
package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler 丢弃所有日志，Enabled 返回 false 使调用方跳过格式化
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(nopHandler{}))
}

// SetLogger 设置全局日志器，传入 nil 恢复静默
// 可在多个 goroutine 中并发调用
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	current.Store(l)
}

// L 返回当前日志器
func L() *slog.Logger {
	return current.Load()
}
