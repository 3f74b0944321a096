// internal/core/services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

const (
	// DefaultMovementLimit caps a movement listing when the caller sets none
	DefaultMovementLimit = 50
	MaxMovementLimit     = 500

	// maxCounterAttempts bounds re-reads after a conditional counter write
	// finds the stored counters changed
	maxCounterAttempts = 5

	lockPrefixName = "item-name:"
	lockPrefixItem = "item:"

	cacheKeySummary = "summary:ledger"
)

// LedgerService runs the ledger orchestrators. Every change to one item's
// counters happens while holding that item's lock, and creation holds the
// normalized-name lock first, so locks are always taken name before id.
type LedgerService struct {
	items     ports.ItemRepository
	movements ports.MovementRepository
	locker    ports.Locker
	publisher ports.MovementPublisher
	cache     ports.CacheRepository
	cacheTTL  time.Duration
	lockWait  time.Duration
	writes    atomic.Uint64
	logger    *slog.Logger
	now       func() time.Time
}

// Statically assert that *LedgerService implements the LedgerService interface.
var _ ports.LedgerService = (*LedgerService)(nil)

// Option configures optional collaborators
type Option func(*LedgerService)

// WithCache enables read-through caching for Get and Summary
func WithCache(cache ports.CacheRepository, ttl time.Duration) Option {
	return func(s *LedgerService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithPublisher sets where committed movements are sent
func WithPublisher(p ports.MovementPublisher) Option {
	return func(s *LedgerService) {
		s.publisher = p
	}
}

// WithLockTimeout bounds how long an operation waits for an item lock
func WithLockTimeout(d time.Duration) Option {
	return func(s *LedgerService) {
		s.lockWait = d
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	items ports.ItemRepository,
	movements ports.MovementRepository,
	locker ports.Locker,
	logger *slog.Logger,
	opts ...Option,
) *LedgerService {
	s := &LedgerService{
		items:     items,
		movements: movements,
		locker:    locker,
		logger:    logger.With(slog.String("service", "ledger")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a new item, or merges the quantity into an existing item whose
// name matches case-insensitively.
func (s *LedgerService) Create(ctx context.Context, input domain.NewItem) (*domain.Item, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	unlockName, err := s.acquire(ctx, lockPrefixName+domain.NameKey(input.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to lock item name: %w", err)
	}
	defer unlockName()

	existing, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	if match, ok := domain.MergeByName(input.Name, input.Quantity, existing); ok {
		merged, err := s.merge(ctx, match.ID, input.Quantity)
		if !errors.Is(err, domain.ErrNotFound) {
			return merged, err
		}
		// Deleted after the scan. The name lock is still held, so no other
		// create can claim the name before ours.
		s.logger.InfoContext(ctx, "merge target deleted, creating instead",
			slog.String("item_id", match.ID.String()))
	}

	item, err := s.items.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.InfoContext(ctx, "created item",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name),
		slog.Int("quantity", item.Quantity))

	s.record(ctx, domain.MovementCreate, *item, item.Total())
	s.invalidate(ctx, item.ID)
	return item, nil
}

// merge adds quantity to id under the item lock. A NotFound result means the
// item was deleted after the caller's name scan and nothing was written.
func (s *LedgerService) merge(ctx context.Context, id uuid.UUID, quantity int) (*domain.Item, error) {
	unlock, err := s.lockItem(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	_, merged, err := s.swapCounters(ctx, id, func(current domain.Item, now time.Time) (domain.Item, error) {
		return domain.AddQuantity(current, quantity, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "merged item quantity",
		slog.String("item_id", id.String()),
		slog.Int("added", quantity),
		slog.Int("quantity", merged.Quantity))

	s.record(ctx, domain.MovementMerge, *merged, quantity)
	s.invalidate(ctx, id)
	return merged, nil
}

// Borrow lends quantity units of the item
func (s *LedgerService) Borrow(ctx context.Context, id uuid.UUID, quantity float64) (*domain.Item, error) {
	return s.move(ctx, id, quantity, domain.MovementBorrow, domain.Borrow)
}

// Return takes back quantity units of the item
func (s *LedgerService) Return(ctx context.Context, id uuid.UUID, quantity float64) (*domain.Item, error) {
	return s.move(ctx, id, quantity, domain.MovementReturn, domain.Return)
}

type counterRule func(item domain.Item, amount float64, now time.Time) (domain.Item, error)

func (s *LedgerService) move(ctx context.Context, id uuid.UUID, quantity float64, kind domain.MovementKind, rule counterRule) (*domain.Item, error) {
	unlock, err := s.lockItem(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	before, updated, err := s.swapCounters(ctx, id, func(current domain.Item, now time.Time) (domain.Item, error) {
		return rule(current, quantity, now)
	})
	if err != nil {
		return nil, err
	}

	moved := updated.BorrowedQuantity - before.BorrowedQuantity
	if moved < 0 {
		moved = -moved
	}

	s.logger.InfoContext(ctx, "stock moved",
		slog.String("item_id", id.String()),
		slog.String("kind", string(kind)),
		slog.Int("amount", moved),
		slog.Int("quantity", updated.Quantity),
		slog.Int("borrowed_quantity", updated.BorrowedQuantity))

	s.record(ctx, kind, *updated, moved)
	s.invalidate(ctx, id)
	return updated, nil
}

// swapCounters reads the item, applies fn and writes the counters back only
// if they are still what was read. The item lock normally guarantees that;
// the conditional write covers a distributed lock whose lease ran out while
// it was held. A lost race re-reads and re-applies fn, so the rule always
// judges current stock.
func (s *LedgerService) swapCounters(ctx context.Context, id uuid.UUID, fn func(domain.Item, time.Time) (domain.Item, error)) (*domain.Item, *domain.Item, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.find(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		next, err := fn(*current, s.now().UTC())
		if err != nil {
			return nil, nil, err
		}

		err = s.items.UpdateCounters(ctx, *current, next)
		if err == nil {
			return current, &next, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == maxCounterAttempts {
			return nil, nil, fmt.Errorf("failed to update item: %w", err)
		}

		s.logger.WarnContext(ctx, "item counters changed under lock, retrying",
			slog.String("item_id", id.String()),
			slog.Int("attempt", attempt))
	}
}

// Update applies a partial update. A rename also holds the target name's
// lock so it cannot race a create of the same name.
func (s *LedgerService) Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) (*domain.Item, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		unlockName, err := s.acquire(ctx, lockPrefixName+domain.NameKey(*patch.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to lock item name: %w", err)
		}
		defer unlockName()
	}

	unlock, err := s.lockItem(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	patched := patch.Apply(*current, s.now())
	if err := patched.Validate(); err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "updated item", slog.String("item_id", id.String()))

	s.record(ctx, domain.MovementUpdate, *updated, updated.Total()-current.Total())
	s.invalidate(ctx, id)
	return updated, nil
}

// Delete removes the item
func (s *LedgerService) Delete(ctx context.Context, id uuid.UUID) (*domain.DeleteResult, error) {
	unlock, err := s.lockItem(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted item",
		slog.String("item_id", id.String()),
		slog.String("name", current.Name))

	s.record(ctx, domain.MovementDelete, *current, -current.Total())
	s.invalidate(ctx, id)
	return &domain.DeleteResult{ID: id, Deleted: true}, nil
}

// Search returns the items whose name contains the query. An empty result
// is a not-found error.
func (s *LedgerService) Search(ctx context.Context, params domain.SearchParams) ([]domain.Item, error) {
	items, err := s.items.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	return domain.RequireNonEmpty(items, params.Query)
}

// List returns every item
func (s *LedgerService) List(ctx context.Context) ([]domain.Item, error) {
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// Get returns one item, served from cache when possible. A miss reads and
// fills under the item lock, so a write cannot invalidate the key between
// the read and the fill.
func (s *LedgerService) Get(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	key := itemCacheKey(id)

	var cached domain.Item
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}
	if s.cache == nil {
		return s.find(ctx, id)
	}

	unlock, err := s.lockItem(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, item)
	return item, nil
}

// Summary totals the ledger. The result is cached only if no write in this
// process invalidated the cache while it was being computed.
func (s *LedgerService) Summary(ctx context.Context) (*domain.LedgerSummary, error) {
	var cached domain.LedgerSummary
	if s.cacheGet(ctx, cacheKeySummary, &cached) {
		return &cached, nil
	}

	gen := s.writes.Load()
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	summary := domain.Summarize(items)
	if s.writes.Load() == gen {
		s.cacheSet(ctx, cacheKeySummary, summary)
	}
	return &summary, nil
}

// Movements lists the newest stock movements recorded for an item
func (s *LedgerService) Movements(ctx context.Context, id uuid.UUID, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 {
		limit = DefaultMovementLimit
	}
	if limit > MaxMovementLimit {
		limit = MaxMovementLimit
	}

	movements, err := s.movements.ListByItem(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}

func (s *LedgerService) lockItem(ctx context.Context, id uuid.UUID) (func(), error) {
	unlock, err := s.acquire(ctx, lockPrefixItem+id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to lock item %s: %w", id, err)
	}
	return unlock, nil
}

// acquire waits at most lockWait for key. The deadline covers the wait only.
func (s *LedgerService) acquire(ctx context.Context, key string) (func(), error) {
	if s.lockWait <= 0 {
		return s.locker.Lock(ctx, key)
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	return s.locker.Lock(waitCtx, key)
}

func (s *LedgerService) find(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return domain.RequireExisting(item, id)
}

// record publishes a committed movement. The mutation already succeeded, so
// a publish failure is only logged.
func (s *LedgerService) record(ctx context.Context, kind domain.MovementKind, item domain.Item, delta int) {
	if s.publisher == nil {
		return
	}
	m := domain.NewStockMovement(kind, item, delta, s.now().UTC())
	if err := s.publisher.PublishMovement(ctx, m); err != nil {
		s.logger.WarnContext(ctx, "failed to publish stock movement",
			slog.String("item_id", item.ID.String()),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
	}
}

func (s *LedgerService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.writes.Add(1)
	if err := s.cache.Delete(ctx, itemCacheKey(id), cacheKeySummary); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cache",
			slog.String("item_id", id.String()),
			slog.Any("error", err))
	}
}

func (s *LedgerService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.Any("error", err))
	}
	return false
}

func (s *LedgerService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetWithTTL(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

func itemCacheKey(id uuid.UUID) string {
	return "item:" + id.String()
}
