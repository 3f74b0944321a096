// internal/adapters/sqlite/item_repository.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

var itemColumns = []string{
	"id", "name", "description", "quantity", "borrowed_quantity", "created_at", "updated_at",
}

// ItemRepository implements ports.ItemRepository on SQLite.
// Timestamps are stored as unix nanoseconds.
type ItemRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

func NewItemRepository(db *sql.DB, logger *slog.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sqlite_items")),
		now:    time.Now,
	}
}

func (r *ItemRepository) FindAll(ctx context.Context) ([]domain.Item, error) {
	query, args, err := squirrel.Select(itemColumns...).
		From("items").
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return r.queryItems(ctx, query, args...)
}

func (r *ItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query, args, err := squirrel.Select(itemColumns...).
		From("items").
		Where(squirrel.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	item, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding item: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) Create(ctx context.Context, input domain.NewItem) (*domain.Item, error) {
	now := r.now().UTC()
	item := domain.Item{
		ID:               uuid.New(),
		Name:             input.Name,
		Description:      input.Description,
		Quantity:         input.Quantity,
		BorrowedQuantity: input.BorrowedQuantity,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	query, args, err := squirrel.Insert("items").
		Columns("id", "name", "name_key", "description", "quantity", "borrowed_quantity", "created_at", "updated_at").
		Values(item.ID.String(), item.Name, domain.NameKey(item.Name), item.Description, item.Quantity,
			item.BorrowedQuantity, now.UnixNano(), now.UnixNano()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, translateWriteError(err, input.Name, "creating item")
	}

	r.logger.DebugContext(ctx, "item created", slog.String("item_id", item.ID.String()))
	return &item, nil
}

func (r *ItemRepository) Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) error {
	qb := squirrel.Update("items").
		Set("updated_at", r.now().UTC().UnixNano()).
		Where(squirrel.Eq{"id": id.String()})

	name := ""
	if patch.Name != nil {
		name = *patch.Name
		qb = qb.Set("name", *patch.Name).Set("name_key", domain.NameKey(*patch.Name))
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
		return fmt.Errorf("building update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateWriteError(err, name, "updating item")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError(id)
	}
	return nil
}

// UpdateCounters is a compare-and-set on the two counters
func (r *ItemRepository) UpdateCounters(ctx context.Context, expected, next domain.Item) error {
	query, args, err := squirrel.Update("items").
		Set("quantity", next.Quantity).
		Set("borrowed_quantity", next.BorrowedQuantity).
		Set("updated_at", next.UpdatedAt.UTC().UnixNano()).
		Where(squirrel.Eq{
			"id":                expected.ID.String(),
			"quantity":          expected.Quantity,
			"borrowed_quantity": expected.BorrowedQuantity,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building counter update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateWriteError(err, "", "updating counters")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking counter update result: %w", err)
	}
	if n == 0 {
		return domain.NewConflictError(expected.ID)
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError(id)
	}
	return nil
}

func (r *ItemRepository) Search(ctx context.Context, params domain.SearchParams) ([]domain.Item, error) {
	direction := "ASC"
	if params.Order == domain.OrderDesc {
		direction = "DESC"
	}

	// name_key is folded in Go; SQLite's lower() only folds ASCII.
	// Descriptions have no key column, so their order folds ASCII only.
	orderBy := params.SortBy.Column()
	switch params.SortBy {
	case domain.SortByName:
		orderBy = "name_key"
	case domain.SortByDescription:
		orderBy = "lower(description)"
	}

	query, args, err := squirrel.Select(itemColumns...).
		From("items").
		Where(`name_key LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(params.Query))+"%").
		OrderBy(orderBy+" "+direction, "id "+direction).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return r.queryItems(ctx, query, args...)
}

func (r *ItemRepository) queryItems(ctx context.Context, query string, args ...interface{}) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*domain.Item, error) {
	var (
		item             domain.Item
		id               string
		created, updated int64
	)
	if err := row.Scan(&id, &item.Name, &item.Description, &item.Quantity,
		&item.BorrowedQuantity, &created, &updated); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing item id %q: %w", id, err)
	}
	item.ID = parsed
	item.CreatedAt = time.Unix(0, created).UTC()
	item.UpdatedAt = time.Unix(0, updated).UTC()
	return &item, nil
}

func translateWriteError(err error, name, msg string) error {
	switch {
	case isUniqueViolation(err):
		return domain.NewDuplicateNameError(name)
	case isCheckViolation(err):
		return domain.NewInvalidItemError("quantities cannot be negative and name cannot be blank")
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
