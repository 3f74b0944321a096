// internal/workers/server.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/lending-be/internal/core/ports"
	"github.com/ammerola/lending-be/internal/pkg/config"
)

// NewServer builds the asynq server that drains the ledger queues
func NewServer(redisOpt asynq.RedisClientOpt, cfg config.AsynqConfig, logger *slog.Logger) *asynq.Server {
	logger = logger.With(slog.String("component", "asynq"))
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:    cfg.Concurrency,
		Queues:         cfg.Queues,
		StrictPriority: cfg.StrictPriority,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logger.ErrorContext(ctx, "task processing failed",
				slog.String("type", task.Type()),
				slog.Int("retried", retried),
				slog.String("error", err.Error()))
		}),
		RetryDelayFunc:  RetryDelay,
		ShutdownTimeout: cfg.ShutdownTimeout,
		HealthCheckFunc: func(err error) {
			if err != nil {
				logger.Error("worker health check failed", slog.String("error", err.Error()))
			}
		},
		HealthCheckInterval: cfg.HealthCheckInterval,
		Logger:              NewAsynqLogger(logger),
	})
}

// NewServeMux routes each task type to its processor
func NewServeMux(items ports.ItemRepository, movements ports.MovementRepository, storage ports.FileStorage, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRecordMovement, NewMovementProcessor(movements, logger).ProcessMovement)
	mux.HandleFunc(TypeStockReport, NewReportProcessor(items, storage, logger).GenerateStockReport)
	return mux
}

// RetryDelay retries movement writes quickly and linearly, since the audit
// log should catch up fast. Reports back off exponentially up to ten minutes.
func RetryDelay(n int, _ error, t *asynq.Task) time.Duration {
	if t != nil && t.Type() == TypeRecordMovement {
		d := time.Duration(n+1) * time.Second
		return min(d, 30*time.Second)
	}
	if n > 10 {
		return 10 * time.Minute
	}
	return min(time.Second<<uint(n), 10*time.Minute)
}

// AsynqLogger routes asynq's internal logging through slog
type AsynqLogger struct {
	logger *slog.Logger
}

func NewAsynqLogger(logger *slog.Logger) *AsynqLogger {
	return &AsynqLogger{logger: logger}
}

func (l *AsynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *AsynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *AsynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *AsynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }

func (l *AsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
