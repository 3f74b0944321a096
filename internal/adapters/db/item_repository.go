// internal/adapters/db/item_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

var itemColumns = []string{
	"id", "name", "description", "quantity", "borrowed_quantity", "created_at", "updated_at",
}

// ItemRepository implements ports.ItemRepository on Postgres
type ItemRepository struct {
	db     ports.Querier
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new item repository
func NewItemRepository(db ports.Querier, logger *slog.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "items")),
		now:    time.Now,
	}
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// FindAll returns every item ordered by creation time
func (r *ItemRepository) FindAll(ctx context.Context) ([]domain.Item, error) {
	query, args, err := psql().Select(itemColumns...).
		From("items").
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

// FindByID returns nil, nil when the item does not exist
func (r *ItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query, args, err := psql().Select(itemColumns...).
		From("items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return item, nil
}

// Create inserts a new item
func (r *ItemRepository) Create(ctx context.Context, input domain.NewItem) (*domain.Item, error) {
	now := r.now().UTC()
	query, args, err := psql().Insert("items").
		Columns(itemColumns...).
		Values(uuid.New(), input.Name, input.Description, input.Quantity, input.BorrowedQuantity, now, now).
		Suffix("RETURNING " + strings.Join(itemColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert: %w", err)
	}

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateWriteError(err, input.Name, "failed to create item")
	}

	r.logger.DebugContext(ctx, "item created",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	return item, nil
}

// Update applies the non-nil fields of patch
func (r *ItemRepository) Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) error {
	qb := psql().Update("items").
		Set("updated_at", r.now().UTC()).
		Where(squirrel.Eq{"id": id})

	name := ""
	if patch.Name != nil {
		name = *patch.Name
		qb = qb.Set("name", *patch.Name)
	}
	if patch.Description != nil {
		qb = qb.Set("description", *patch.Description)
	}
	if patch.Quantity != nil {
		qb = qb.Set("quantity", *patch.Quantity)
	}
	if patch.BorrowedQuantity != nil {
		qb = qb.Set("borrowed_quantity", *patch.BorrowedQuantity)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return translateWriteError(err, name, "failed to update item")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(id)
	}

	r.logger.DebugContext(ctx, "item updated", slog.String("item_id", id.String()))
	return nil
}

// UpdateCounters is a compare-and-set on the two counters. Zero affected
// rows means another writer got there first or the item is gone.
func (r *ItemRepository) UpdateCounters(ctx context.Context, expected, next domain.Item) error {
	query, args, err := psql().Update("items").
		Set("quantity", next.Quantity).
		Set("borrowed_quantity", next.BorrowedQuantity).
		Set("updated_at", next.UpdatedAt.UTC()).
		Where(squirrel.Eq{
			"id":                expected.ID,
			"quantity":          expected.Quantity,
			"borrowed_quantity": expected.BorrowedQuantity,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build counter update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return translateWriteError(err, "", "failed to update counters")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewConflictError(expected.ID)
	}
	return nil
}

// Delete removes an item
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(id)
	}

	r.logger.InfoContext(ctx, "item deleted", slog.String("item_id", id.String()))
	return nil
}

// Search matches a substring of the name, ignoring case
func (r *ItemRepository) Search(ctx context.Context, params domain.SearchParams) ([]domain.Item, error) {
	direction := "ASC"
	if params.Order == domain.OrderDesc {
		direction = "DESC"
	}

	orderBy := params.SortBy.Column()
	if params.SortBy == domain.SortByName || params.SortBy == domain.SortByDescription {
		orderBy = "lower(" + orderBy + ")"
	}

	query, args, err := psql().Select(itemColumns...).
		From("items").
		Where("name ILIKE ?", "%"+escapeLike(params.Query)+"%").
		OrderBy(orderBy+" "+direction, "id "+direction).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

func (r *ItemRepository) queryItems(ctx context.Context, query string, args ...interface{}) ([]domain.Item, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var item domain.Item
	if err := row.Scan(
		&item.ID, &item.Name, &item.Description,
		&item.Quantity, &item.BorrowedQuantity,
		&item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func translateWriteError(err error, name, msg string) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return domain.NewDuplicateNameError(name)
	case pgCheckViolation:
		return domain.NewInvalidItemError("quantities cannot be negative and name cannot be blank")
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// escapeLike escapes LIKE wildcards so the query is matched literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
