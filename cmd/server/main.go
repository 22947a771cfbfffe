// Command fv-server starts the file storage HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/avelkine/filevault/internal/blob"
	"github.com/avelkine/filevault/internal/config"
	"github.com/avelkine/filevault/internal/migrate"
	"github.com/avelkine/filevault/internal/repository/postgres"
	"github.com/avelkine/filevault/internal/server/httpserver"
	"github.com/avelkine/filevault/internal/service"
	"github.com/avelkine/filevault/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves the HTTP API until
// interrupted.
func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("port", cfg.Port),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	sessions := session.NewRedisStore(rdb)

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	fileRepo := postgres.NewFileRepo(db)

	// Services
	authSvc := service.NewAuthService(userRepo, sessions, cfg.SessionTTL)
	fileSvc := service.NewFileService(fileRepo, blob.NewDiskStore(cfg.FolderPath), logger)
	statsSvc := service.NewStatsService(userRepo, fileRepo)

	api := httpserver.New(authSvc, fileSvc, statsSvc, db, sessions, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
