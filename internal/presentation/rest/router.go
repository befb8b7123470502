package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authapp "library-desk/internal/application/auth"
	circulationapp "library-desk/internal/application/circulation"
	deskapp "library-desk/internal/application/desk"
	"library-desk/internal/infrastructure/config"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
	"library-desk/internal/presentation/rest/handler"
	restmiddleware "library-desk/internal/presentation/rest/middleware"
	"library-desk/internal/presentation/web"
)

// Pinger ヘルスチェックで疎通を確認する依存先（*sql.DB など）
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services ルーターが使うアプリケーションサービス
//
// Circulation が nil の場合、内部APIのルートは登録しない。
type Services struct {
	Auth        *authapp.AuthApplicationService
	Desk        *deskapp.DeskApplicationService
	Circulation *circulationapp.CirculationApplicationService
}

// Router REST APIルーター
type Router struct {
	echo               *echo.Echo
	authHandler        *handler.AuthHandler
	deskHandler        *handler.DeskHandler
	circulationHandler *handler.CirculationHandler
	webHandler         *web.Handler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	registry *prometheus.Registry,
	db Pinger,
	services Services,
) (*Router, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	e.Renderer = renderer

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, logger, metrics)

	loc, err := cfg.Desk.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid desk time zone: %w", err)
	}
	display := deskapp.NewDisplayOptions(cfg.Desk.CurrencyLabel, cfg.Desk.DateLayout, loc)

	// ハンドラーの作成
	r := &Router{
		echo:        e,
		authHandler: handler.NewAuthHandler(services.Auth),
		deskHandler: handler.NewDeskHandler(services.Desk, display),
		webHandler:  web.NewHandler(services.Desk, display, cfg.Desk.HomeRoute, logger),
	}
	if services.Circulation != nil {
		r.circulationHandler = handler.NewCirculationHandler(services.Circulation)
	}

	// ルーティングの設定
	r.setupRoutes(cfg, logger, registry, db)

	// Swagger UI
	SetupSwagger(e)

	return r, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			restmiddleware.APIKeyHeader,
		},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// ログミドルウェア（ヘルスチェックとメトリクス取得は除外）
	e.Use(restmiddleware.LoggingMiddleware(logger, "/health", "/metrics"))

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func (r *Router) setupRoutes(cfg *config.Config, logger *otelinfra.Logger, registry *prometheus.Registry, db Pinger) {
	e := r.echo
	apiKey := restmiddleware.APIKeyMiddleware(&cfg.InternalAPI, logger)

	// API v1グループ
	api := e.Group("/api/v1")

	// トークン発行（APIキー認証）
	api.POST("/auth/token", r.authHandler.GenerateToken, apiKey)

	// 返却画面API（JWT認証）
	views := api.Group("/desk/views", restmiddleware.AuthMiddleware(&cfg.JWT, logger))
	views.POST("", r.deskHandler.MountView)
	views.GET("/:view_id", r.deskHandler.GetView)
	views.PUT("/:view_id/member", r.deskHandler.ChangeMember)
	views.POST("/:view_id/refresh", r.deskHandler.Refresh)
	views.POST("/:view_id/select", r.deskHandler.Select)
	views.POST("/:view_id/cancel", r.deskHandler.Cancel)
	views.POST("/:view_id/confirm", r.deskHandler.Confirm)
	views.POST("/:view_id/dismiss", r.deskHandler.Dismiss)

	// 貸出管理の内部API（APIキー認証）
	if r.circulationHandler != nil {
		internal := e.Group("/internal/v1", apiKey)
		internal.GET("/members/:member_id", r.circulationHandler.GetMember)
		internal.GET("/members/:member_id/issued-books", r.circulationHandler.GetIssuedBooks)
		internal.POST("/transactions/:transaction_id/return", r.circulationHandler.ReturnBook)
	}

	// 返却画面（サーバー描画）
	r.webHandler.Register(e)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.Error(ctx, "Health check failed", err, nil)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheusメトリクス
	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
}

// Handler HTTPハンドラーを返す
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// StartServer 設定済みのhttp.Serverでサーバーを起動
func (r *Router) StartServer(s *http.Server) error {
	return r.echo.StartServer(s)
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
