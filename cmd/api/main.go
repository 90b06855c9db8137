package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/hasher"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logger"
	"docvault/internal/otel"
	"docvault/internal/repository"
	"docvault/internal/repository/cache"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	"docvault/internal/storage"
	"docvault/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, zl)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			zl.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, zl)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, zl, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	store, err := newFileStorage(cfg)
	if err != nil {
		return fmt.Errorf("init file storage: %w", err)
	}

	perms, closeCache, err := newPermissionRepository(ctx, cfg.Cache, db, zl)
	if err != nil {
		return fmt.Errorf("init permission cache: %w", err)
	}
	defer closeCache()

	tokens, err := token.NewJWTService(cfg.JWT.Secret, cfg.JWT.Alg, cfg.JWT.ExpTime)
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	permSvc := service.NewPermissionService(tokens, docRepo, perms, zl)
	docSvc := service.NewDocumentService(tokens, permSvc, docRepo, store, zl)
	userSvc := service.NewUserService(tokens, hasher.NewBcrypt(0), postgres.NewUserPostgres(db), docRepo, store, zl)

	scheduler := cron.New()
	if cfg.Sweep.Schedule != "" {
		sweeper := service.NewOrphanSweeper(docRepo, store, cfg.Sweep.GracePeriod, zl)
		if _, err := sweeper.Schedule(scheduler, cfg.Sweep.Schedule); err != nil {
			return fmt.Errorf("schedule orphan sweep: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.MaxUploadMB << 20,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(zl))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.RegisterRoutes(app, handlers.Deps{
		DB:          db,
		Documents:   docSvc,
		Permissions: permSvc,
		Users:       userSvc,
		AuthLimiter: middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	})

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("port", cfg.Port), zap.String("storage", cfg.Storage.Backend), zap.String("cache", cfg.Cache.Backend))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newFileStorage(cfg *config.AppConfig) (storage.FileStorage, error) {
	if cfg.Storage.Backend == "minio" {
		return storage.NewMinIO(cfg.MinIO, cfg.Storage.DownloadExpiry)
	}
	return storage.NewLocal(cfg.Storage.FilePath, cfg.Storage.DownloadPath)
}

// newPermissionRepository wraps the postgres permission repository in the configured cache.
func newPermissionRepository(ctx context.Context, cfg config.CacheConfig, db *sql.DB, zl *zap.Logger) (repository.PermissionRepository, func(), error) {
	base := postgres.NewPermissionPostgres(db)
	switch cfg.Backend {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisPermissions(base, client, cfg.TTL, zl), func() { _ = client.Close() }, nil
	case "memory":
		return cache.NewMemoryPermissions(base, cfg.Size, cfg.TTL), func() {}, nil
	default:
		return base, func() {}, nil
	}
}
