// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/lending-be/internal/adapters/queue"
	"github.com/ammerola/lending-be/internal/bootstrap"
	"github.com/ammerola/lending-be/internal/core/ports"
	"github.com/ammerola/lending-be/internal/core/services"
	"github.com/ammerola/lending-be/internal/handlers"
	"github.com/ammerola/lending-be/internal/pkg/config"
	"github.com/ammerola/lending-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting lending ledger api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("lock_backend", cfg.Lock.Backend),
		slog.Bool("redis", cfg.Redis.Enabled),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps, err := initializeDependencies(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handlers.NewRouter(ctx, deps.handlers, slogger, cfg),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	store          *bootstrap.Store
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	handlers       handlers.Handlers
}

func (d *dependencies) cleanup() {
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (deps *dependencies, err error) {
	deps = &dependencies{}
	defer func() {
		if err != nil {
			deps.cleanup()
		}
	}()

	deps.store, err = bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps.redisClient, err = bootstrap.NewRedisClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	locker, err := bootstrap.NewLocker(cfg, deps.redisClient, logger)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithLockTimeout(cfg.Lock.WaitTimeout),
	}
	if cache := bootstrap.NewCache(cfg, deps.redisClient, logger); cache != nil {
		opts = append(opts, services.WithCache(cache, cfg.Cache.TTL))
	}

	// Movements go through the worker when the queue is up and the worker
	// can reach the same store. The memory store is private to this process.
	var scheduler ports.ReportScheduler
	var publisher ports.MovementPublisher = bootstrap.NewDirectPublisher(deps.store.Movements)
	if cfg.Asynq.Enabled {
		logger.Info("initializing Asynq client")

		redisOpt := bootstrap.AsynqRedisOpt(cfg)
		deps.asynqClient = asynq.NewClient(redisOpt)
		deps.asynqInspector = asynq.NewInspector(redisOpt)

		q := queue.NewPublisher(deps.asynqClient, logger)
		scheduler = q
		if cfg.Storage.Driver != config.DriverMemory {
			publisher = q
		}
	}
	opts = append(opts, services.WithPublisher(publisher))

	ledger := services.NewLedgerService(deps.store.Items, deps.store.Movements, locker, logger, opts...)

	healthOpts := []handlers.HealthOption{}
	if deps.store.Postgres != nil {
		healthOpts = append(healthOpts, handlers.WithPostgres(deps.store.Postgres))
	}
	if deps.store.SQLite != nil {
		healthOpts = append(healthOpts, handlers.WithSQLite(deps.store.SQLite))
	}
	if deps.redisClient != nil {
		healthOpts = append(healthOpts, handlers.WithRedis(deps.redisClient))
	}
	if deps.asynqInspector != nil {
		healthOpts = append(healthOpts, handlers.WithAsynq(deps.asynqInspector))
	}

	deps.handlers = handlers.Handlers{
		Items:   handlers.NewItemHandler(ledger, logger),
		Reports: handlers.NewReportHandler(scheduler, logger),
		Health:  handlers.NewHealthHandler(cfg, logger, healthOpts...),
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}
