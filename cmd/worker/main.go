// cmd/worker/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ammerola/lending-be/internal/bootstrap"
	"github.com/ammerola/lending-be/internal/pkg/config"
	"github.com/ammerola/lending-be/internal/pkg/logger"
	"github.com/ammerola/lending-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	if cfg.Storage.Driver == config.DriverMemory {
		slogger.Warn("worker is using in-memory storage; it cannot see the api's items")
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	reports, err := bootstrap.NewReportStorage(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize report storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := workers.NewServer(bootstrap.AsynqRedisOpt(cfg), cfg.Asynq, slogger.Logger)
	mux := workers.NewServeMux(store.Items, store.Movements, reports, slogger.Logger)

	// Handle shutdown gracefully
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}
