// internal/core/ports/item_repository.go
package ports

import (
	"context"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/google/uuid"
)

// ItemRepository defines the persistence port for ledger items.
// FindByID returns (nil, nil) when the item does not exist.
//
// UpdateCounters writes next's counters and UpdatedAt only while the stored
// counters still equal expected's. It fails with domain.ErrConflict when they
// differ or the item is gone.
type ItemRepository interface {
	FindAll(ctx context.Context) ([]domain.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	Create(ctx context.Context, item domain.NewItem) (*domain.Item, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) error
	UpdateCounters(ctx context.Context, expected, next domain.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params domain.SearchParams) ([]domain.Item, error)
}

// MovementRepository stores the stock movement history
type MovementRepository interface {
	Save(ctx context.Context, movement domain.StockMovement) error
	ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]domain.StockMovement, error)
}
