package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/api"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/api/handler"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/api/router"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/config"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/lock"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/notification"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/provider"
	redisinfra "github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/worker"
)

func main() {
	// .env はローカル開発用。存在しなくてもよい
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(cfg.App.Env)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("サーバー起動エラー", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	m := metrics.Init()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := postgres.RunMigrations(db.DB, cfg.App.MigrationsPath)
	if err != nil {
		return err
	}
	log.Info("マイグレーション適用済み", zap.Uint("version", version))

	// Redis が使えなくてもロックとキャッシュなしで起動する
	var (
		rc          *goredis.Client
		lockManager lock.Manager
		seatCache   application.SeatCache
	)
	rc, err = redisinfra.NewClient(redisinfra.ConfigFrom(&cfg.Redis))
	if err != nil {
		log.Warn("Redisに接続できません。分散ロックとキャッシュなしで起動します", zap.Error(err))
	} else {
		defer rc.Close()
		lockManager = redisinfra.NewLockManager(rc)
		seatCache = redisinfra.NewSeatCache(rc)
	}

	publisher, err := notification.New(&cfg.Notification, log)
	if err != nil {
		log.Warn("通知の送信先を初期化できません。ログ出力に切り替えます",
			zap.String("driver", cfg.Notification.Driver), zap.Error(err))
		publisher = notification.NewLogNotifier(log)
	}
	defer publisher.Close()

	var flightProvider application.FlightProvider
	if cfg.Provider.BaseURL != "" {
		flightProvider = provider.NewClient(&cfg.Provider)
	}

	// リポジトリ・サービス
	txManager := postgres.NewTxManager(db)
	flightRepo := postgres.NewFlightRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	cityRepo := postgres.NewCityRepository(db)
	mealRepo := postgres.NewMealRepository(db)

	seatService := application.NewSeatService(txManager, seatRepo, flightRepo, seatCache)
	flightService := application.NewFlightService(flightRepo, cityRepo, mealRepo, seatService, flightProvider, cfg.Occupancy)
	bookingService := application.NewBookingService(
		txManager, bookingRepo, seatRepo, flightRepo, mealRepo,
		seatService, lockManager, publisher, cfg.Booking,
	)

	checks := map[string]handler.CheckFunc{
		"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}
	if rc != nil {
		checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) }
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))

	router.Register(e, router.Handlers{
		Health:  handler.NewHealthHandler(checks),
		Flight:  handler.NewFlightHandler(flightService),
		Seat:    handler.NewSeatHandler(seatService),
		Booking: handler.NewBookingHandler(bookingService),
	}, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completer := worker.NewBookingCompleter(bookingService, cfg.Worker.CompletionInterval)
	go completer.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Env))
		if err := e.Start(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("サーバーが停止しました: %w", err)
	case <-ctx.Done():
	}

	log.Info("サーバーをシャットダウンしています...")
	completer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}

	log.Info("サーバーが正常にシャットダウンしました")
	return nil
}

