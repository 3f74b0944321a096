// internal/core/domain/movement.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementKind labels a stock movement
type MovementKind string

const (
	MovementCreate MovementKind = "create"
	MovementMerge  MovementKind = "merge"
	MovementBorrow MovementKind = "borrow"
	MovementReturn MovementKind = "return"
	MovementUpdate MovementKind = "update"
	MovementDelete MovementKind = "delete"
)

// StockMovement records one committed change to an item's counters
type StockMovement struct {
	ID            uuid.UUID    `json:"id"`
	ItemID        uuid.UUID    `json:"item_id"`
	ItemName      string       `json:"item_name"`
	Kind          MovementKind `json:"kind"`
	Delta         int          `json:"delta"`
	QuantityAfter int          `json:"quantity_after"`
	BorrowedAfter int          `json:"borrowed_after"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// NewStockMovement snapshots item after a change of the given kind
func NewStockMovement(kind MovementKind, item Item, delta int, at time.Time) StockMovement {
	return StockMovement{
		ID:            uuid.New(),
		ItemID:        item.ID,
		ItemName:      item.Name,
		Kind:          kind,
		Delta:         delta,
		QuantityAfter: item.Quantity,
		BorrowedAfter: item.BorrowedQuantity,
		OccurredAt:    at,
	}
}
