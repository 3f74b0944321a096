// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/lending-be/internal/core/domain"
)

// Task types
const (
	TypeRecordMovement = "ledger:movement"
	TypeStockReport    = "report:stock"
)

// Queue names, matching the ASYNQ_QUEUES priorities
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// StockReportPayload is the body of a report:stock task
type StockReportPayload struct {
	RequestedAt time.Time `json:"requested_at"`
	RequestID   string    `json:"request_id,omitempty"`
}

// NewMovementTask wraps a stock movement. The movement id doubles as the
// task id so a retried publish does not enqueue twice.
func NewMovementTask(m domain.StockMovement) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal movement: %w", err)
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.TaskID("movement:" + m.ID.String()),
		asynq.MaxRetry(10),
		asynq.Retention(24 * time.Hour),
	}
	return asynq.NewTask(TypeRecordMovement, b), opts, nil
}

// NewStockReportTask builds a report:stock task
func NewStockReportTask(p StockReportPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal report payload: %w", err)
	}
	opts := []asynq.Option{
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(5 * time.Minute),
		asynq.Retention(24 * time.Hour),
	}
	return asynq.NewTask(TypeStockReport, b), opts, nil
}
