package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"shoptracker/internal/config"
	"shoptracker/internal/db"
	"shoptracker/internal/jobs"
	"shoptracker/internal/logger"
	"shoptracker/internal/repository"

	"github.com/hibiken/asynq"
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

	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		Concurrency: cfg.WorkerConcurrency,
		Logger:      zlog,
		Activity:    repository.New(pool),
	})

	zlog.Info("worker started", zap.Int("concurrency", cfg.WorkerConcurrency), zap.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatal("worker error", zap.Error(err))
	}
	zlog.Info("worker stopped")
}
