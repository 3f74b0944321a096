// internal/workers/movement_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

// MovementProcessor writes published stock movements to the movement log
type MovementProcessor struct {
	repo   ports.MovementRepository
	logger *slog.Logger
}

// NewMovementProcessor creates a new movement processor
func NewMovementProcessor(repo ports.MovementRepository, logger *slog.Logger) *MovementProcessor {
	return &MovementProcessor{
		repo:   repo,
		logger: logger.With(slog.String("processor", "movement")),
	}
}

// ProcessMovement handles ledger:movement tasks
func (p *MovementProcessor) ProcessMovement(ctx context.Context, t *asynq.Task) error {
	var m domain.StockMovement
	if err := json.Unmarshal(t.Payload(), &m); err != nil {
		// A malformed payload will never succeed.
		return fmt.Errorf("failed to unmarshal movement: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.repo.Save(ctx, m); err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}

	p.logger.DebugContext(ctx, "stock movement recorded",
		slog.String("item_id", m.ItemID.String()),
		slog.String("kind", string(m.Kind)),
		slog.Int("delta", m.Delta))

	return nil
}
