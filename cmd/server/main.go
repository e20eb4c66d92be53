package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/config"
	"github.com/d60-Lab/chirp/internal/api"
	"github.com/d60-Lab/chirp/internal/api/handler"
	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/internal/cache"
	"github.com/d60-Lab/chirp/internal/push"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/internal/service"
	"github.com/d60-Lab/chirp/pkg/database"
	"github.com/d60-Lab/chirp/pkg/jwt"
	"github.com/d60-Lab/chirp/pkg/logger"
	"github.com/d60-Lab/chirp/pkg/storage"
	"github.com/d60-Lab/chirp/pkg/tracing"
)

// @title chirp API
// @version 1.0
// @description 推文、点赞、转推、评论、关注与通知；游标分页 + websocket 推送
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	broker, err := newBroker(cfg.Push, rdb)
	if err != nil {
		return err
	}
	defer broker.Close()

	dispatcher := push.NewDispatcher(broker, cfg.Push.QueueSize)
	stopDispatch := dispatcher.Start(cfg.Push.Workers)

	hub := push.NewHub(cfg.Push.SendBuffer)
	hubDone := make(chan error, 1)
	go func() { hubDone <- hub.Run(ctx, broker) }()

	sentryOn := cfg.Sentry.DSN != ""
	if sentryOn {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	presigner, err := storage.NewS3Presigner(cfg.S3)
	if err != nil {
		return fmt.Errorf("init s3: %w", err)
	}

	profiles := cache.NewProfileCache(repository.NewUserRepository(db), rdb, cfg.Cache.ProfileTTL)
	h := handler.NewHandler(
		service.NewTweetService(db, dispatcher),
		service.NewProfileService(db, profiles, dispatcher),
		service.NewNotificationService(db),
		service.NewUploadService(presigner, cfg.S3.MaxUploadBytes),
		hub,
	)
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	opts := api.RouterOptions{
		Handler: h,
		Auth:    middleware.NewAuth(tokens, service.NewUserService(db, profiles)),
		Limiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Sentry:  sentryOn,
	}
	if cfg.Tracing.Enabled {
		opts.TracingService = cfg.Tracing.ServiceName
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("push", cfg.Push.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
		stop()
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := <-hubDone; err != nil {
		logger.Warn("push hub", zap.Error(err))
	}
	if err := stopDispatch(shutdownCtx); err != nil {
		logger.Warn("drain push queue", zap.Error(err))
	}
	published, dropped, failed := dispatcher.Stats()
	logger.Info("push dispatcher stopped",
		zap.Int64("published", published),
		zap.Int64("dropped", dropped),
		zap.Int64("failed", failed),
	)
	hits, loads := profiles.Counters()
	logger.Info("profile cache", zap.Int64("hits", hits), zap.Int64("bulk_loads", loads))
	return shutdownTracing(shutdownCtx)
}

func newBroker(cfg config.PushConfig, rdb *redis.Client) (push.Broker, error) {
	switch cfg.Driver {
	case "", "redis":
		return push.NewRedisBroker(rdb), nil
	case "nats":
		b, err := push.NewNATSBroker(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown push driver %q", cfg.Driver)
}
