package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shoptracker/internal/config"
	"shoptracker/internal/db"
	"shoptracker/internal/excel"
	"shoptracker/internal/logger"
	"shoptracker/internal/realtime"
	"shoptracker/internal/repository"
	"shoptracker/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type options struct {
	tenantID string
	filePath string
	actor    string
	dryRun   bool
	timeout  time.Duration
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: "console", IsDevelopment: true})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	file, err := os.Open(opts.filePath)
	if err != nil {
		zlog.Fatal("open import file", zap.String("path", opts.filePath), zap.Error(err))
	}
	defer file.Close()
	fileName := filepath.Base(opts.filePath)

	if opts.dryRun {
		parsed, err := excel.ParseProductRows(fileName, file, excel.ParseOptions{DefaultMinStock: cfg.DefaultMinStock})
		if err != nil {
			zlog.Fatal("parse import file", zap.Error(err))
		}
		zlog.Info("dry run complete",
			zap.Int("total_rows", parsed.TotalRows),
			zap.Int("valid_rows", len(parsed.Rows)),
			zap.Int("errors", len(parsed.Errors)),
			zap.Strings("ignored_columns", parsed.IgnoredColumns),
		)
		printJSON(parsed.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.DefaultPoolOptions())
	if err != nil {
		zlog.Fatal("database error", zap.Error(err))
	}
	defer pool.Close()

	if _, err := db.RunMigrations(ctx, pool); err != nil {
		zlog.Fatal("migration error", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	repo := repository.New(pool)
	svc := service.New(service.Deps{
		Repo:      repo,
		Publisher: realtime.NewFeed(rdb, zlog),
		Logger:    zlog,
	}, service.Options{DefaultMinStock: cfg.DefaultMinStock})

	if _, err := svc.EnsureTenant(ctx, service.TenantProfile{ID: opts.tenantID}); err != nil {
		zlog.Fatal("ensure tenant", zap.String("tenant_id", opts.tenantID), zap.Error(err))
	}

	result, err := svc.ImportProducts(ctx, opts.tenantID, opts.actor, fileName, file)
	if err != nil {
		zlog.Fatal("import failed", zap.Error(err))
	}
	zlog.Info("import complete",
		zap.String("tenant_id", opts.tenantID),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)
	printJSON(result)
}

func parseFlags() options {
	var opts options
	flag.StringVar(
		&opts.tenantID,
		"tenant",
		"",
		"tenant id that owns the imported products",
	)
	flag.StringVar(
		&opts.filePath,
		"file",
		"",
		"path to an .xlsx or .csv product sheet",
	)
	flag.StringVar(
		&opts.actor,
		"actor",
		"import-cli",
		"name recorded in the activity log",
	)
	flag.BoolVar(
		&opts.dryRun,
		"dry-run",
		false,
		"parse and validate the sheet without writing anything",
	)
	flag.DurationVar(
		&opts.timeout,
		"timeout",
		2*time.Minute,
		"overall time limit for the import",
	)
	flag.Parse()

	opts.tenantID = strings.TrimSpace(opts.tenantID)
	opts.filePath = strings.TrimSpace(opts.filePath)
	if opts.filePath == "" {
		log.Fatalf("missing --file")
	}
	if opts.tenantID == "" && !opts.dryRun {
		log.Fatalf("missing --tenant")
	}
	return opts
}

func printJSON(value any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
	}
}
