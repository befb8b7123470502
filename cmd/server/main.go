package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	authapp "library-desk/internal/application/auth"
	circulationapp "library-desk/internal/application/circulation"
	deskapp "library-desk/internal/application/desk"
	"library-desk/internal/domain/returnflow"
	"library-desk/internal/domain/service"
	"library-desk/internal/infrastructure/cache"
	"library-desk/internal/infrastructure/config"
	"library-desk/internal/infrastructure/graphql"
	"library-desk/internal/infrastructure/grpcclient"
	"library-desk/internal/infrastructure/messaging/kafka"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
	"library-desk/internal/infrastructure/persistence/rdb"
	grpcserver "library-desk/internal/presentation/grpc"
	"library-desk/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// ログ出力の設定
	slog.SetDefault(slog.New(otelinfra.NewHandler(&cfg.Log, os.Stdout)))

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry, registry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("library-desk")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("library-desk")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx := context.Background()

	// 貸出管理サービス（DB）の初期化
	var (
		db                 *rdb.DB
		circulationService *circulationapp.CirculationApplicationService
	)
	if cfg.Circulation.Enabled {
		db, err = rdb.NewDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		var publisher circulationapp.EventPublisher = kafka.NoopPublisher{}
		if cfg.Kafka.Enabled {
			p := kafka.NewPublisher(&cfg.Kafka, logger)
			defer p.Close()
			publisher = p
		}

		circulationService = circulationapp.NewCirculationApplicationService(
			rdb.NewIssuanceRepository(db),
			rdb.NewMemberRepository(db),
			rdb.NewTransactionManager(db),
			service.NewReturnService(time.Now),
			publisher,
			logger,
			metrics,
		)
	}

	// 返却画面のデータソース
	var source deskapp.DataSource
	switch cfg.DataSource.Kind {
	case config.DataSourceGraphQL:
		source = graphql.NewClient(&cfg.DataSource, nil, logger)
	case config.DataSourceDatabase:
		source = circulationService
	case config.DataSourceGRPC:
		client, err := grpcclient.NewClient(&cfg.DataSource)
		if err != nil {
			log.Fatalf("Failed to create gRPC data source: %v", err)
		}
		defer client.Close()
		source = client
	}
	if cfg.Cache.Enabled {
		source = cache.NewQueryCache(source, &cfg.Cache)
	}

	policy := returnflow.FailureLogOnly
	if cfg.Desk.ShowFailureResult {
		policy = returnflow.FailureShowResult
	}

	deskService := deskapp.NewDeskApplicationService(
		source,
		returnflow.NewMachine(policy, cfg.Desk.HomeRoute),
		deskapp.NewRegistry(cfg.Desk.ViewTTL, cfg.Desk.ViewSweepInterval, metrics),
		logger,
		metrics,
	)

	// REST APIルーターの初期化
	var pinger rest.Pinger
	if db != nil {
		pinger = db
	}
	router, err := rest.NewRouter(cfg, logger, metrics, registry, pinger, rest.Services{
		Auth:        authapp.NewAuthApplicationService(&cfg.JWT, logger),
		Desk:        deskService,
		Circulation: circulationService,
	})
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化（貸出管理サービスがある場合のみ）
	var grpcSrv *grpcserver.Server
	if circulationService != nil {
		grpcSrv, err = grpcserver.NewServer(cfg, logger, metrics, circulationService)
		if err != nil {
			log.Fatalf("Failed to create gRPC server: %v", err)
		}
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		logger.Info(ctx, "HTTP server starting", map[string]interface{}{
			"address":     httpServer.Addr,
			"data_source": cfg.DataSource.Kind,
		})
		if err := router.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "HTTP server error", err, nil)
		}
	}()

	// gRPCサーバーを別ゴルーチンで起動
	if grpcSrv != nil {
		go func() {
			if err := grpcSrv.Start(); err != nil {
				logger.Error(ctx, "gRPC server error", err, nil)
			}
		}()
	}

	// シグナルを待機
	<-quit
	logger.Info(ctx, "Shutting down servers", nil)

	// グレースフルシャットダウン
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down HTTP server", err, nil)
	}

	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			logger.Error(ctx, "Error shutting down gRPC server", err, nil)
		}
	}

	logger.Info(ctx, "Servers stopped", nil)
}
