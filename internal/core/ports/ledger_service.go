// internal/core/ports/ledger_service.go
package ports

import (
	"context"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/google/uuid"
)

// LedgerService defines the application service port for the stock ledger.
// This interface is implemented by the application service.
type LedgerService interface {
	Create(ctx context.Context, item domain.NewItem) (*domain.Item, error)
	Borrow(ctx context.Context, id uuid.UUID, quantity float64) (*domain.Item, error)
	Return(ctx context.Context, id uuid.UUID, quantity float64) (*domain.Item, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) (*domain.Item, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.DeleteResult, error)
	Search(ctx context.Context, params domain.SearchParams) ([]domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	Summary(ctx context.Context) (*domain.LedgerSummary, error)
	Movements(ctx context.Context, id uuid.UUID, limit int) ([]domain.StockMovement, error)
}
