package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// LoggingMiddleware アクセスログミドルウェア
// skipPathsに含まれるパス（/health, /metrics など）は記録しない
func LoggingMiddleware(logger *otelinfra.Logger, skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			start := time.Now()
			logger.Debug(req.Context(), "HTTP request started", map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"remote_addr": req.RemoteAddr,
				"user_agent":  req.UserAgent(),
			})

			err := next(c)

			// ハンドラー内でコンテキストが差し替えられている場合があるため再取得
			ctx := c.Request().Context()
			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"route":       c.Path(),
				"status_code": c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if librarianID, ok := c.Get(ContextKeyLibrarianID).(string); ok {
				fields["librarian_id"] = librarianID
			}
			if viewID := c.Param("view_id"); viewID != "" {
				fields["view_id"] = viewID
			}

			if err != nil {
				logger.Error(ctx, "HTTP request failed", err, fields)
			} else {
				logger.Info(ctx, "HTTP request completed", fields)
			}

			return err
		}
	}
}
