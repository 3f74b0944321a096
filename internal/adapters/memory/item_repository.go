// internal/adapters/memory/item_repository.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

// ItemRepository keeps items in a map. It returns copies, so callers never
// share state with the store.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.Item
	names map[string]uuid.UUID
	now   func() time.Time
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

func NewItemRepository() *ItemRepository {
	return &ItemRepository{
		items: make(map[uuid.UUID]domain.Item),
		names: make(map[string]uuid.UUID),
		now:   time.Now,
	}
}

func (r *ItemRepository) FindAll(_ context.Context) ([]domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.Item, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID.String() < items[j].ID.String()
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *ItemRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *ItemRepository) Create(_ context.Context, input domain.NewItem) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.NameKey(input.Name)
	if _, taken := r.names[key]; taken {
		return nil, domain.NewDuplicateNameError(input.Name)
	}

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
	if err := item.Validate(); err != nil {
		return nil, err
	}

	r.items[item.ID] = item
	r.names[key] = item.ID
	return &item, nil
}

func (r *ItemRepository) Update(_ context.Context, id uuid.UUID, patch domain.ItemPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.NewNotFoundError(id)
	}

	next := patch.Apply(current, r.now().UTC())
	if err := next.Validate(); err != nil {
		return err
	}

	oldKey, newKey := current.NameKey(), next.NameKey()
	if newKey != oldKey {
		if owner, taken := r.names[newKey]; taken && owner != id {
			return domain.NewDuplicateNameError(next.Name)
		}
		delete(r.names, oldKey)
		r.names[newKey] = id
	}

	r.items[id] = next
	return nil
}

func (r *ItemRepository) UpdateCounters(_ context.Context, expected, next domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[expected.ID]
	if !ok || !domain.SameCounters(current, expected) {
		return domain.NewConflictError(expected.ID)
	}

	current.Quantity = next.Quantity
	current.BorrowedQuantity = next.BorrowedQuantity
	current.UpdatedAt = next.UpdatedAt
	if err := current.Validate(); err != nil {
		return err
	}
	r.items[expected.ID] = current
	return nil
}

func (r *ItemRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return domain.NewNotFoundError(id)
	}
	delete(r.items, id)
	delete(r.names, item.NameKey())
	return nil
}

func (r *ItemRepository) Search(ctx context.Context, params domain.SearchParams) ([]domain.Item, error) {
	all, _ := r.FindAll(ctx)

	matched := make([]domain.Item, 0, len(all))
	for _, item := range all {
		if params.Matches(item) {
			matched = append(matched, item)
		}
	}
	params.Sort(matched)
	return matched, nil
}
