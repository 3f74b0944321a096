// internal/core/ports/events.go
package ports

import (
	"context"

	"github.com/ammerola/lending-be/internal/core/domain"
)

// MovementPublisher hands committed stock movements to background processing
type MovementPublisher interface {
	PublishMovement(ctx context.Context, movement domain.StockMovement) error
}

// ReportScheduler queues stock report generation
type ReportScheduler interface {
	ScheduleStockReport(ctx context.Context) (taskID string, err error)
}

// FileStorage stores generated files
type FileStorage interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
