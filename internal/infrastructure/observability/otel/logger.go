package otel

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel/trace"

	"library-desk/internal/infrastructure/config"
)

// Logger 構造化ロガー
//
// slogのハンドラーに出力し、コンテキストに有効なスパンがあればtrace_idとspan_idを付与する。
type Logger struct {
	tracer trace.Tracer
	slog   *slog.Logger
}

// NewLogger slogのデフォルトハンドラーに出力するLoggerを作成
func NewLogger(tracer trace.Tracer) *Logger {
	return NewLoggerWithHandler(tracer, slog.Default().Handler())
}

// NewLoggerWithHandler 指定したハンドラーに出力するLoggerを作成
func NewLoggerWithHandler(tracer trace.Tracer, handler slog.Handler) *Logger {
	return &Logger{
		tracer: tracer,
		slog:   slog.New(handler),
	}
}

// NewHandler ログ設定に応じたハンドラーを作成
//
// text形式は開発用のカラー出力（tint）、それ以外はJSON出力。
func NewHandler(cfg *config.LogConfig, w io.Writer) slog.Handler {
	level := ParseLevel(cfg.Level)
	if cfg.Format == "text" {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// ParseLevel ログレベル文字列をslogのレベルに変換
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogLevel ログレベル
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Log ログを出力
func (l *Logger) Log(ctx context.Context, level LogLevel, message string, fields map[string]interface{}) {
	lv := level.slogLevel()
	if !l.slog.Enabled(ctx, lv) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields)+2)

	// トレースIDとSpanIDを取得
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}

	l.slog.LogAttrs(ctx, lv, message, attrs...)
}

// Debug Debugレベルのログを出力
func (l *Logger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelDebug, message, fields)
}

// Info Infoレベルのログを出力
func (l *Logger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelInfo, message, fields)
}

// Warn Warnレベルのログを出力
func (l *Logger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelWarn, message, fields)
}

// Error Errorレベルのログを出力
func (l *Logger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	l.Log(ctx, LogLevelError, message, merged)
}
