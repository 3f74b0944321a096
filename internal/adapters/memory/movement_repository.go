// internal/adapters/memory/movement_repository.go
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

// MovementRepository is an append-only in-process movement log
type MovementRepository struct {
	mu        sync.RWMutex
	seen      map[uuid.UUID]struct{}
	movements []domain.StockMovement
}

var _ ports.MovementRepository = (*MovementRepository)(nil)

func NewMovementRepository() *MovementRepository {
	return &MovementRepository{seen: make(map[uuid.UUID]struct{})}
}

func (r *MovementRepository) Save(_ context.Context, m domain.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[m.ID]; dup {
		return nil
	}
	r.seen[m.ID] = struct{}{}
	r.movements = append(r.movements, m)
	return nil
}

// ListByItem returns the newest movements first
func (r *MovementRepository) ListByItem(_ context.Context, itemID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.StockMovement, 0)
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ItemID != itemID {
			continue
		}
		out = append(out, r.movements[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
