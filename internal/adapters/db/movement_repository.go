// internal/adapters/db/movement_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

// MovementRepository persists stock movements to Postgres
type MovementRepository struct {
	db     ports.Querier
	logger *slog.Logger
}

var _ ports.MovementRepository = (*MovementRepository)(nil)

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db ports.Querier, logger *slog.Logger) *MovementRepository {
	return &MovementRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "stock_movements")),
	}
}

// Save stores a movement. Replays of the same movement id are ignored.
func (r *MovementRepository) Save(ctx context.Context, m domain.StockMovement) error {
	query, args, err := psql().Insert("stock_movements").
		Columns("id", "item_id", "item_name", "kind", "delta", "quantity_after", "borrowed_after", "occurred_at").
		Values(m.ID, m.ItemID, m.ItemName, string(m.Kind), m.Delta, m.QuantityAfter, m.BorrowedAfter, m.OccurredAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save stock movement: %w", err)
	}
	return nil
}

// ListByItem returns the newest movements first
func (r *MovementRepository) ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	qb := psql().Select("id", "item_id", "item_name", "kind", "delta", "quantity_after", "borrowed_after", "occurred_at").
		From("stock_movements").
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("occurred_at DESC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0)
	for rows.Next() {
		var m domain.StockMovement
		var kind string
		if err := rows.Scan(&m.ID, &m.ItemID, &m.ItemName, &kind, &m.Delta,
			&m.QuantityAfter, &m.BorrowedAfter, &m.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		m.Kind = domain.MovementKind(kind)
		movements = append(movements, m)
	}

	return movements, rows.Err()
}
