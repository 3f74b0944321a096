package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/lending-be/internal/adapters/memory"
	redis_a "github.com/ammerola/lending-be/internal/adapters/redis_adapter"
	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/services"
	"github.com/ammerola/lending-be/internal/pkg/keylock"
	"github.com/ammerola/lending-be/test/helpers"
)

// hookedItems runs callbacks inside repository reads so tests can land a
// second operation in the middle of the first.
type hookedItems struct {
	*memory.ItemRepository
	findCalls     atomic.Int32
	afterFindByID func(call int32)
	afterFindAll  func()
}

func (h *hookedItems) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := h.ItemRepository.FindByID(ctx, id)
	if h.afterFindByID != nil {
		h.afterFindByID(h.findCalls.Add(1))
	}
	return item, err
}

func (h *hookedItems) FindAll(ctx context.Context) ([]domain.Item, error) {
	items, err := h.ItemRepository.FindAll(ctx)
	if h.afterFindAll != nil {
		h.afterFindAll()
	}
	return items, err
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Errorf("timed out waiting for %s", what)
	}
}

func seedItem(t *testing.T, repo *memory.ItemRepository, quantity, borrowed int) *domain.Item {
	t.Helper()
	item, err := repo.Create(context.Background(), domain.NewItem{
		Name: "Projector", Quantity: quantity, BorrowedQuantity: borrowed,
	})
	require.NoError(t, err)
	return item
}

func TestLedgerService_BorrowSurvivesExpiredLease(t *testing.T) {
	tr := helpers.SetupTestRedis(t)
	const ttl = 100 * time.Millisecond

	repo := &hookedItems{ItemRepository: memory.NewItemRepository()}
	item := seedItem(t, repo.ItemRepository, 10, 2)

	firstRead := make(chan struct{})
	secondRead := make(chan struct{})
	repo.afterFindByID = func(call int32) {
		switch call {
		case 1:
			// The first borrower stalls past its lease while holding a snapshot
			tr.Server.FastForward(2 * ttl)
			close(firstRead)
			waitFor(t, secondRead, "second borrower to read")
		case 2:
			close(secondRead)
		}
	}

	locker := redis_a.NewLocker(tr.Client, ttl, 5*time.Millisecond, helpers.TestLogger())
	svc := services.NewLedgerService(repo, memory.NewMovementRepository(), locker, helpers.TestLogger())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Borrow(context.Background(), item.ID, 3)
	}()
	go func() {
		defer wg.Done()
		waitFor(t, firstRead, "first borrower to read")
		_, errs[1] = svc.Borrow(context.Background(), item.ID, 3)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	final, err := repo.ItemRepository.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, final.Quantity)
	assert.Equal(t, 8, final.BorrowedQuantity)
}

func TestLedgerService_CreateAfterMergeTargetDeleted(t *testing.T) {
	repo := &hookedItems{ItemRepository: memory.NewItemRepository()}
	ctx := context.Background()
	existing, err := repo.ItemRepository.Create(ctx, domain.NewItem{Name: "macbook", Quantity: 5})
	require.NoError(t, err)

	var once sync.Once
	repo.afterFindAll = func() {
		once.Do(func() {
			require.NoError(t, repo.ItemRepository.Delete(ctx, existing.ID))
		})
	}

	svc := services.NewLedgerService(repo, memory.NewMovementRepository(), keylock.New(), helpers.TestLogger())

	created, err := svc.Create(ctx, domain.NewItem{Name: "Macbook", Quantity: 4})
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, created.ID)
	assert.Equal(t, "Macbook", created.Name)
	assert.Equal(t, 4, created.Quantity)

	items, err := repo.ItemRepository.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
}

func TestLedgerService_GetDoesNotCacheStaleRead(t *testing.T) {
	tr := helpers.SetupTestRedis(t)
	repo := &hookedItems{ItemRepository: memory.NewItemRepository()}
	item := seedItem(t, repo.ItemRepository, 10, 0)

	svc := services.NewLedgerService(repo, memory.NewMovementRepository(), keylock.New(), helpers.TestLogger(),
		services.WithCache(redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger()), time.Minute))

	getRead := make(chan struct{})
	release := make(chan struct{})
	repo.afterFindByID = func(call int32) {
		if call == 1 {
			close(getRead)
			waitFor(t, release, "borrow to queue")
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		got, err := svc.Get(context.Background(), item.ID)
		if assert.NoError(t, err) {
			assert.Equal(t, 10, got.Quantity)
		}
	}()
	go func() {
		defer wg.Done()
		waitFor(t, getRead, "get to read")
		_, err := svc.Borrow(context.Background(), item.ID, 3)
		assert.NoError(t, err)
	}()

	waitFor(t, getRead, "get to read")
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	got, err := svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, 3, got.BorrowedQuantity)
}

func TestLedgerService_SummaryNotCachedAcrossWrite(t *testing.T) {
	tr := helpers.SetupTestRedis(t)
	repo := &hookedItems{ItemRepository: memory.NewItemRepository()}
	item := seedItem(t, repo.ItemRepository, 10, 0)
	ctx := context.Background()

	svc := services.NewLedgerService(repo, memory.NewMovementRepository(), keylock.New(), helpers.TestLogger(),
		services.WithCache(redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger()), time.Minute))

	var once sync.Once
	repo.afterFindAll = func() {
		once.Do(func() {
			_, err := svc.Borrow(ctx, item.ID, 1)
			require.NoError(t, err)
		})
	}

	stale, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stale.Borrowed)
	assert.False(t, tr.Server.Exists("summary:ledger"))

	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Borrowed)
	assert.True(t, tr.Server.Exists("summary:ledger"))
}

func TestLedgerService_MergeBeyondMaxQuantity(t *testing.T) {
	svc, _ := newMemoryService()
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.NewItem{Name: "iPad", Quantity: domain.MaxQuantity})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.NewItem{Name: "ipad", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.MaxQuantity, items[0].Quantity)
}
