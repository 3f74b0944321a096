// internal/adapters/sqlite/movement_repository.go
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

// MovementRepository stores stock movements in SQLite
type MovementRepository struct {
	db *sql.DB
}

var _ ports.MovementRepository = (*MovementRepository)(nil)

func NewMovementRepository(db *sql.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) Save(ctx context.Context, m domain.StockMovement) error {
	query, args, err := squirrel.Insert("stock_movements").
		Options("OR IGNORE").
		Columns("id", "item_id", "item_name", "kind", "delta", "quantity_after", "borrowed_after", "occurred_at").
		Values(m.ID.String(), m.ItemID.String(), m.ItemName, string(m.Kind), m.Delta,
			m.QuantityAfter, m.BorrowedAfter, m.OccurredAt.UnixNano()).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving stock movement: %w", err)
	}
	return nil
}

func (r *MovementRepository) ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	qb := squirrel.Select("id", "item_id", "item_name", "kind", "delta", "quantity_after", "borrowed_after", "occurred_at").
		From("stock_movements").
		Where(squirrel.Eq{"item_id": itemID.String()}).
		OrderBy("occurred_at DESC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0)
	for rows.Next() {
		var (
			m              domain.StockMovement
			id, item, kind string
			at             int64
		)
		if err := rows.Scan(&id, &item, &m.ItemName, &kind, &m.Delta,
			&m.QuantityAfter, &m.BorrowedAfter, &at); err != nil {
			return nil, fmt.Errorf("scanning stock movement: %w", err)
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing movement id: %w", err)
		}
		if m.ItemID, err = uuid.Parse(item); err != nil {
			return nil, fmt.Errorf("parsing item id: %w", err)
		}
		m.Kind = domain.MovementKind(kind)
		m.OccurredAt = time.Unix(0, at).UTC()
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
