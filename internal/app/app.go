package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-case-records/internal/blob"
	"go-case-records/internal/config"
	"go-case-records/internal/database"
	"go-case-records/internal/event"
	"go-case-records/internal/handler"
	"go-case-records/internal/logger"
	"go-case-records/internal/middleware"
	"go-case-records/internal/repository"
	"go-case-records/internal/router"
	"go-case-records/internal/service"
	"go-case-records/internal/websocket"
)

type App struct {
	server       *http.Server
	sweeper      *service.SessionSweeper
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel))

	signer := blob.NewSigner(cfg.BlobSigningSecret)
	blobs, err := blob.New(cfg.BlobRoot, cfg.Buckets, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, database.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &App{cleanupFuncs: []func(){db.Close}}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	folderRepo := repository.NewFolderRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	slog.Info("database ready")

	bgCtx, bgCancel := context.WithCancel(context.Background())
	a.cleanupFuncs = append(a.cleanupFuncs, bgCancel)

	bus, err := newBus(bgCtx, cfg.RedisURL)
	if err != nil {
		a.cleanup()
		return nil, err
	}
	hub := websocket.NewHub(bus)
	go hub.Run(bgCtx)

	names := service.NewNameResolver(userRepo, cfg.NameCacheSize, cfg.NameCacheTTL)
	auditService := service.NewAuditService(auditRepo)
	archiveService := service.NewArchiveService(folderRepo, fileRepo, names, auditService, bus)
	tracker := service.NewActivityTracker(fileRepo)
	fileService := service.NewFileService(fileRepo, folderRepo, blobs, tracker, archiveService, names, bus)
	folderService := service.NewFolderService(folderRepo, archiveService, names, bus)
	categoryService := service.NewCategoryService(categoryRepo)
	authService := service.NewAuthService(userRepo, sessionRepo, cfg.SessionSecret, cfg.SessionTTL, cfg.SessionRevalidateInterval)
	userService := service.NewUserService(userRepo, sessionRepo, names, auditService)

	if cfg.BootstrapEmail != "" {
		if err := authService.Bootstrap(context.Background(), cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
			a.cleanup()
			return nil, fmt.Errorf("failed to bootstrap superadmin: %w", err)
		}
	}

	sweeper, err := service.NewSessionSweeper(sessionRepo, cfg.SessionSweepSchedule)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to schedule session sweeper: %w", err)
	}
	a.sweeper = sweeper

	authMiddleware := middleware.NewAuthMiddleware(authService, cfg.SessionCookieSecure)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:     handler.NewAuthHandler(authService, cfg.SessionCookieSecure),
		Folder:   handler.NewFolderHandler(folderService),
		Category: handler.NewCategoryHandler(categoryService),
		File:     handler.NewFileHandler(fileService, cfg.MaxUploadSize),
		Archive:  handler.NewArchiveHandler(archiveService),
		User:     handler.NewUserHandler(userService),
		Audit:    handler.NewAuditHandler(auditService),
		Storage:  handler.NewStorageHandler(blobs),
		Health:   handler.NewHealthHandler(db),
		WS:       handler.NewWSHandler(hub, cfg.CORSOrigins),
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

// newBus returns a Redis-backed bus when url is set, otherwise an
// in-process one.
func newBus(ctx context.Context, url string) (event.Bus, error) {
	if url == "" {
		return event.NewBus(), nil
	}

	client, err := event.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	context.AfterFunc(ctx, func() { closeRedis(client) })

	bus := event.NewRedisBus(client, event.DefaultChannel)
	go bus.Run(ctx)
	slog.Info("event bus using redis", "channel", event.DefaultChannel)
	return bus, nil
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		slog.Warn("redis close failed", "error", err)
	}
}

func (a *App) Run() error {
	a.sweeper.Start()

	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.sweeper.Stop(ctx)
	a.cleanup()

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

// cleanup runs in reverse registration order.
func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
}
