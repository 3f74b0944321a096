// internal/adapters/queue/publisher.go
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
	"github.com/ammerola/lending-be/internal/pkg/logger"
	"github.com/ammerola/lending-be/internal/workers"
)

// Publisher enqueues ledger work on asynq
type Publisher struct {
	client *asynq.Client
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ ports.MovementPublisher = (*Publisher)(nil)
	_ ports.ReportScheduler   = (*Publisher)(nil)
)

// NewPublisher creates a new publisher
func NewPublisher(client *asynq.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(slog.String("component", "queue")),
		now:    time.Now,
	}
}

// PublishMovement enqueues a ledger:movement task. Publishing the same
// movement twice is not an error.
func (p *Publisher) PublishMovement(ctx context.Context, m domain.StockMovement) error {
	task, opts, err := workers.NewMovementTask(m)
	if err != nil {
		return err
	}

	info, err := p.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue movement: %w", err)
	}

	p.logger.DebugContext(ctx, "movement enqueued",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return nil
}

// ScheduleStockReport enqueues a report:stock task and returns its id
func (p *Publisher) ScheduleStockReport(ctx context.Context) (string, error) {
	requestID, _ := ctx.Value(logger.ContextKeyRequestID).(string)

	task, opts, err := workers.NewStockReportTask(workers.StockReportPayload{
		RequestedAt: p.now().UTC(),
		RequestID:   requestID,
	})
	if err != nil {
		return "", err
	}

	info, err := p.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue stock report: %w", err)
	}

	p.logger.InfoContext(ctx, "stock report scheduled",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return info.ID, nil
}

// Close releases the underlying client
func (p *Publisher) Close() error {
	return p.client.Close()
}
