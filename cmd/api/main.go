// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Chaptra HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool), Redis, and MinIO.
//  4. Run database migrations (idempotent).
//  5. Wire domain services and HTTP handlers.
//  6. Run the HTTP server, the notification pub/sub bridge, and the
//     assignment expiry sweep under one errgroup with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/chaptra/internal/access/assignment"
	"github.com/taibuivan/chaptra/internal/access/request"
	"github.com/taibuivan/chaptra/internal/access/sweep"
	"github.com/taibuivan/chaptra/internal/activity"
	"github.com/taibuivan/chaptra/internal/api"
	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/notify"
	"github.com/taibuivan/chaptra/internal/platform/config"
	"github.com/taibuivan/chaptra/internal/platform/constants"
	"github.com/taibuivan/chaptra/internal/platform/migration"
	pgstore "github.com/taibuivan/chaptra/internal/platform/postgres"
	redisstore "github.com/taibuivan/chaptra/internal/platform/redis"
	"github.com/taibuivan/chaptra/internal/platform/sec"
	"github.com/taibuivan/chaptra/internal/platform/storage"
	"github.com/taibuivan/chaptra/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "chaptra"))
	slog.SetDefault(log)

	log.Info("[Chaptra] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "chaptra"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Object Storage ─────────────────────────────────────────────────
	blobStore, err := storage.NewMinioStore(
		cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL, log)
	must(log, err, "connect to object storage")

	// ── 6. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 7. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(auth.NewUserRepository(pool), jwtSvc)

	registry := notify.NewRegistry()
	notifyService := notify.NewService(
		notify.NewNotificationRepository(pool), notify.NewRedisPublisher(rdb), registry, log)
	bridge := notify.NewBridge(rdb, registry, log)

	bookService := book.NewService(book.NewBookRepository(pool), blobStore, log)
	requestService := request.NewService(
		request.NewRequestRepository(pool), bookService, notifyService, log)
	assignmentService := assignment.NewService(
		assignment.NewAssignmentRepository(pool), bookService, notifyService, log)
	activityService := activity.NewService(
		activity.NewActivityRepository(pool), bookService, log)

	sweeper := sweep.NewSweeper(
		assignment.NewAssignmentRepository(pool), bookService, authService,
		notifyService, cfg.SweepInterval, log)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Auth:       auth.NewHandler(authService),
		Book:       book.NewHandler(bookService),
		Request:    request.NewHandler(requestService),
		Assignment: assignment.NewHandler(assignmentService),
		Notify:     notify.NewHandler(notifyService, registry),
		Activity:   activity.NewHandler(activityService),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	server := api.NewServer(runCtx, cfg, log, authService, handlers)

	// ── 11. Run ───────────────────────────────────────────────────────────
	// The server, the pub/sub bridge, and the expiry sweep share one
	// errgroup; the first failure or an OS signal stops all three.
	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return bridge.Run(groupCtx)
	})

	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server", slog.Duration("timeout", constants.ShutdownTimeout))
		return server.Shutdown(constants.ShutdownTimeout)
	})

	if err := group.Wait(); err != nil {
		log.Error("service terminated", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
