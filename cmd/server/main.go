package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"shoptracker/internal/auth"
	"shoptracker/internal/config"
	"shoptracker/internal/db"
	httpapi "shoptracker/internal/http"
	"shoptracker/internal/inventory"
	"shoptracker/internal/jobs"
	"shoptracker/internal/logger"
	"shoptracker/internal/observability"
	"shoptracker/internal/realtime"
	"shoptracker/internal/repository"
	"shoptracker/internal/service"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	zlog, err := logger.New(logger.Config{
		Level:         cfg.LogLevel,
		Encoding:      cfg.LogEncoding,
		IsDevelopment: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.DefaultPoolOptions())
	if err != nil {
		zlog.Fatal("database error", zap.Error(err))
	}
	defer pool.Close()

	applied, err := db.RunMigrations(ctx, pool)
	if err != nil {
		zlog.Fatal("migration error", zap.Error(err))
	}
	if len(applied) > 0 {
		zlog.Info("migrations applied", zap.Strings("versions", applied))
	}

	repo := repository.New(pool)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zlog.Warn("redis unreachable, change feed will retry", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	feed := realtime.NewFeed(rdb, zlog)

	hub := inventory.NewHub(repo, feed, zlog, cfg.CacheIdleTTL)
	defer hub.Close()
	go hub.Run(ctx)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer jobsClient.Close()

	metrics := observability.NewMetrics()
	metrics.TrackActiveTenants(hub.Active)

	svc := service.New(service.Deps{
		Repo:      repo,
		Publisher: feed,
		Jobs:      jobsClient,
		Snapshots: hub,
		Metrics:   metrics,
		Logger:    zlog,
	}, service.Options{DefaultMinStock: cfg.DefaultMinStock})

	tokens, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		zlog.Fatal("token verifier error", zap.Error(err))
	}
	var admin *auth.AdminAuthenticator
	if cfg.AdminEnabled() {
		admin, err = auth.NewAdminAuthenticator(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AdminTokenTTL, tokens)
		if err != nil {
			zlog.Fatal("admin credentials error", zap.Error(err))
		}
	} else {
		zlog.Warn("admin console disabled: ADMIN_EMAIL and ADMIN_PASSWORD_HASH are not set")
	}

	handler := httpapi.NewHandler(httpapi.HandlerDeps{
		Service: svc,
		Stream:  feed,
		Tokens:  tokens,
		Admin:   admin,
		Logger:  zlog,
	})
	router, err := httpapi.NewRouter(handler, httpapi.RouterConfig{
		Logger:             zlog,
		Metrics:            metrics,
		RequestTimeout:     cfg.RequestTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AdminLoginRate:     cfg.AdminLoginRate,
		SSLRedirect:        !cfg.IsDevelopment(),
	})
	if err != nil {
		zlog.Fatal("router error", zap.Error(err))
	}

	// No WriteTimeout: the change stream holds responses open and clears
	// its own deadline.
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info("shoptracker listening", zap.String("addr", server.Addr), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			zlog.Warn("force close failed", zap.Error(closeErr))
		}
	}
}
