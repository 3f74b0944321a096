package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/lending-be/internal/adapters/memory"
	"github.com/ammerola/lending-be/internal/bootstrap"
	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
	"github.com/ammerola/lending-be/internal/core/services"
	"github.com/ammerola/lending-be/internal/pkg/keylock"
	"github.com/ammerola/lending-be/test/helpers"
	"github.com/ammerola/lending-be/test/mocks"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	items     *mocks.MockItemRepository
	movements *mocks.MockMovementRepository
	publisher *mocks.MockMovementPublisher
	cache     *mocks.MockCacheRepository
	service   *services.LedgerService
}

func newFixture(t *testing.T, withCache bool) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		items:     mocks.NewMockItemRepository(ctrl),
		movements: mocks.NewMockMovementRepository(ctrl),
		publisher: mocks.NewMockMovementPublisher(ctrl),
		cache:     mocks.NewMockCacheRepository(ctrl),
	}
	opts := []services.Option{
		services.WithPublisher(f.publisher),
		services.WithClock(func() time.Time { return fixedNow }),
	}
	if withCache {
		opts = append(opts, services.WithCache(f.cache, time.Minute))
	}
	f.service = services.NewLedgerService(f.items, f.movements, keylock.New(), helpers.TestLogger(), opts...)
	return f
}

func movementOfKind(kind domain.MovementKind, delta int) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		m, ok := x.(domain.StockMovement)
		return ok && m.Kind == kind && m.Delta == delta
	})
}

func TestLedgerService_Create(t *testing.T) {
	existing := helpers.CreateTestItem(func(i *domain.Item) {
		i.Name = "Macbook Air"
		i.Quantity = 10
		i.BorrowedQuantity = 2
	})

	tests := []struct {
		name       string
		input      domain.NewItem
		setupMocks func(f *fixture)
		wantErr    error
		check      func(t *testing.T, item *domain.Item)
	}{
		{
			name:  "creates_new_item",
			input: domain.NewItem{Name: "  Projector ", Description: "4K resolution", Quantity: 3},
			setupMocks: func(f *fixture) {
				f.items.EXPECT().FindAll(gomock.Any()).Return([]domain.Item{*existing}, nil)
				f.items.EXPECT().
					Create(gomock.Any(), domain.NewItem{Name: "Projector", Description: "4K resolution", Quantity: 3}).
					DoAndReturn(func(_ context.Context, in domain.NewItem) (*domain.Item, error) {
						return helpers.CreateTestItem(func(i *domain.Item) {
							i.Name = in.Name
							i.Description = in.Description
							i.Quantity = in.Quantity
						}), nil
					})
				f.publisher.EXPECT().PublishMovement(gomock.Any(), movementOfKind(domain.MovementCreate, 3)).Return(nil)
			},
			check: func(t *testing.T, item *domain.Item) {
				assert.Equal(t, "Projector", item.Name)
				assert.Equal(t, 3, item.Quantity)
			},
		},
		{
			name:  "merges_case_insensitive_name",
			input: domain.NewItem{Name: "MACBOOK air", Quantity: 5},
			setupMocks: func(f *fixture) {
				f.items.EXPECT().FindAll(gomock.Any()).Return([]domain.Item{*existing}, nil)
				f.items.EXPECT().FindByID(gomock.Any(), existing.ID).Return(existing, nil).Times(1)
				f.items.EXPECT().
					UpdateCounters(gomock.Any(), *existing, gomock.Cond(func(x any) bool {
						next := x.(domain.Item)
						return next.Quantity == 15 && next.BorrowedQuantity == 2 && next.Name == "Macbook Air"
					})).
					Return(nil)
				f.publisher.EXPECT().PublishMovement(gomock.Any(), movementOfKind(domain.MovementMerge, 5)).Return(nil)
			},
			check: func(t *testing.T, item *domain.Item) {
				assert.Equal(t, existing.ID, item.ID)
				assert.Equal(t, "Macbook Air", item.Name)
				assert.Equal(t, 15, item.Quantity)
				assert.Equal(t, 2, item.BorrowedQuantity)
			},
		},
		{
			name:       "rejects_blank_name",
			input:      domain.NewItem{Name: "   ", Quantity: 1},
			setupMocks: func(f *fixture) {},
			wantErr:    domain.ErrInvalidItem,
		},
		{
			name:       "rejects_negative_quantity",
			input:      domain.NewItem{Name: "iPad", Quantity: -1},
			setupMocks: func(f *fixture) {},
			wantErr:    domain.ErrInvalidItem,
		},
		{
			name:  "rejects_merge_beyond_max_quantity",
			input: domain.NewItem{Name: "macbook air", Quantity: domain.MaxQuantity - 11},
			setupMocks: func(f *fixture) {
				f.items.EXPECT().FindAll(gomock.Any()).Return([]domain.Item{*existing}, nil)
				f.items.EXPECT().FindByID(gomock.Any(), existing.ID).Return(existing, nil)
			},
			wantErr: domain.ErrInvalidItem,
		},
		{
			name:  "propagates_repository_error",
			input: domain.NewItem{Name: "iPad", Quantity: 1},
			setupMocks: func(f *fixture) {
				f.items.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("connection refused"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			tt.setupMocks(f)

			item, err := f.service.Create(context.Background(), tt.input)
			if tt.check == nil {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				assert.Nil(t, item)
				return
			}
			require.NoError(t, err)
			tt.check(t, item)
		})
	}
}

func TestLedgerService_Borrow(t *testing.T) {
	id := uuid.New()
	stock := func() *domain.Item {
		return helpers.CreateTestItem(func(i *domain.Item) {
			i.ID = id
			i.Quantity = 10
			i.BorrowedQuantity = 0
		})
	}

	tests := []struct {
		name       string
		quantity   float64
		setupMocks func(f *fixture)
		wantErr    error
		wantMsg    string
	}{
		{
			name:     "moves_units_to_borrowed",
			quantity: 3,
			setupMocks: func(f *fixture) {
				current := stock()
				f.items.EXPECT().FindByID(gomock.Any(), id).Return(current, nil).Times(1)
				f.items.EXPECT().UpdateCounters(gomock.Any(), *current, gomock.Cond(func(x any) bool {
					next := x.(domain.Item)
					return next.Quantity == 7 && next.BorrowedQuantity == 3 && next.UpdatedAt.Equal(fixedNow)
				})).Return(nil)
				f.publisher.EXPECT().PublishMovement(gomock.Any(), movementOfKind(domain.MovementBorrow, 3)).Return(nil)
			},
		},
		{
			name:     "insufficient_stock",
			quantity: 11,
			setupMocks: func(f *fixture) {
				f.items.EXPECT().FindByID(gomock.Any(), id).Return(stock(), nil)
			},
			wantErr: domain.ErrInsufficientStock,
			wantMsg: "Insufficient quantity available",
		},
		{
			name:     "fractional_quantity",
			quantity: 1.5,
			setupMocks: func(f *fixture) {
				f.items.EXPECT().FindByID(gomock.Any(), id).Return(stock(), nil)
			},
			wantErr: domain.ErrInvalidQuantity,
			wantMsg: "Borrow quantity must be a valid positive number",
		},
		{
			name:     "missing_item_wins_over_bad_quantity",
			quantity: -1,
			setupMocks: func(f *fixture) {
				f.items.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)
			},
			wantErr: domain.ErrNotFound,
			wantMsg: "Item with ID " + id.String() + " not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			tt.setupMocks(f)

			item, err := f.service.Borrow(context.Background(), id, tt.quantity)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 7, item.Quantity)
			assert.Equal(t, 3, item.BorrowedQuantity)
		})
	}
}

func TestLedgerService_Return(t *testing.T) {
	id := uuid.New()
	lent := helpers.CreateTestItem(func(i *domain.Item) {
		i.ID = id
		i.Quantity = 4
		i.BorrowedQuantity = 2
	})

	t.Run("returns_units", func(t *testing.T) {
		f := newFixture(t, false)
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(lent, nil).Times(1)
		f.items.EXPECT().UpdateCounters(gomock.Any(), *lent, gomock.Any()).Return(nil)
		f.publisher.EXPECT().PublishMovement(gomock.Any(), movementOfKind(domain.MovementReturn, 2)).Return(nil)

		item, err := f.service.Return(context.Background(), id, 2)
		require.NoError(t, err)
		assert.Equal(t, 6, item.Quantity)
		assert.Equal(t, 0, item.BorrowedQuantity)
	})

	t.Run("exceeds_borrowed", func(t *testing.T) {
		f := newFixture(t, false)
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(lent, nil)

		_, err := f.service.Return(context.Background(), id, 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrExceedsBorrowed)
		assert.Equal(t, "Return quantity exceeds borrowed quantity", err.Error())
	})
}

func TestLedgerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	item := helpers.CreateTestItem(func(i *domain.Item) { i.ID = id })

	f.items.EXPECT().FindByID(gomock.Any(), id).Return(item, nil).Times(1)
	f.items.EXPECT().UpdateCounters(gomock.Any(), *item, gomock.Any()).Return(nil)
	f.publisher.EXPECT().PublishMovement(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	_, err := f.service.Borrow(context.Background(), id, 1)
	assert.NoError(t, err)
}

func TestLedgerService_BorrowRetriesStaleWrite(t *testing.T) {
	id := uuid.New()
	seen := helpers.CreateTestItem(func(i *domain.Item) {
		i.ID = id
		i.Quantity, i.BorrowedQuantity = 10, 2
	})
	moved := *seen
	moved.Quantity, moved.BorrowedQuantity = 7, 5

	t.Run("rereads_and_applies_to_current_stock", func(t *testing.T) {
		f := newFixture(t, false)
		gomock.InOrder(
			f.items.EXPECT().FindByID(gomock.Any(), id).Return(seen, nil),
			f.items.EXPECT().UpdateCounters(gomock.Any(), *seen, gomock.Any()).Return(domain.NewConflictError(id)),
			f.items.EXPECT().FindByID(gomock.Any(), id).Return(&moved, nil),
			f.items.EXPECT().UpdateCounters(gomock.Any(), moved, gomock.Cond(func(x any) bool {
				next := x.(domain.Item)
				return next.Quantity == 4 && next.BorrowedQuantity == 8
			})).Return(nil),
		)
		f.publisher.EXPECT().PublishMovement(gomock.Any(), movementOfKind(domain.MovementBorrow, 3)).Return(nil)

		got, err := f.service.Borrow(context.Background(), id, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Quantity)
		assert.Equal(t, 8, got.BorrowedQuantity)
	})

	t.Run("rule_rejects_after_reread", func(t *testing.T) {
		f := newFixture(t, false)
		drained := *seen
		drained.Quantity, drained.BorrowedQuantity = 1, 11
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(seen, nil)
		f.items.EXPECT().UpdateCounters(gomock.Any(), *seen, gomock.Any()).Return(domain.NewConflictError(id))
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(&drained, nil)

		_, err := f.service.Borrow(context.Background(), id, 3)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	})

	t.Run("gives_up_after_bounded_attempts", func(t *testing.T) {
		f := newFixture(t, false)
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(seen, nil).Times(5)
		f.items.EXPECT().UpdateCounters(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.NewConflictError(id)).Times(5)

		_, err := f.service.Borrow(context.Background(), id, 3)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestLedgerService_Update(t *testing.T) {
	id := uuid.New()
	item := helpers.CreateTestItem(func(i *domain.Item) { i.ID = id })

	t.Run("empty_patch", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.service.Update(context.Background(), id, domain.ItemPatch{})
		assert.ErrorIs(t, err, domain.ErrInvalidItem)
	})

	t.Run("total_beyond_max_quantity", func(t *testing.T) {
		f := newFixture(t, false)
		qty := domain.MaxQuantity
		lent := *item
		lent.BorrowedQuantity = 1
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(&lent, nil)

		_, err := f.service.Update(context.Background(), id, domain.ItemPatch{Quantity: &qty})
		assert.ErrorIs(t, err, domain.ErrInvalidItem)
	})

	t.Run("rename_collision", func(t *testing.T) {
		f := newFixture(t, false)
		name := "Projector"
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
		f.items.EXPECT().Update(gomock.Any(), id, gomock.Any()).Return(domain.NewDuplicateNameError(name))

		_, err := f.service.Update(context.Background(), id, domain.ItemPatch{Name: &name})
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
	})

	t.Run("applies_patch", func(t *testing.T) {
		f := newFixture(t, true)
		qty := 20
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(item, nil).Times(1)
		f.items.EXPECT().Update(gomock.Any(), id, domain.ItemPatch{Quantity: &qty}).Return(nil)
		updated := *item
		updated.Quantity = qty
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(&updated, nil).Times(1)
		f.publisher.EXPECT().PublishMovement(gomock.Any(), movementOfKind(domain.MovementUpdate, qty-item.Quantity)).Return(nil)
		f.cache.EXPECT().Delete(gomock.Any(), "item:"+id.String(), "summary:ledger").Return(nil)

		got, err := f.service.Update(context.Background(), id, domain.ItemPatch{Quantity: &qty})
		require.NoError(t, err)
		assert.Equal(t, qty, got.Quantity)
	})
}

func TestLedgerService_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("deletes", func(t *testing.T) {
		f := newFixture(t, false)
		item := helpers.CreateTestItem(func(i *domain.Item) {
			i.ID = id
			i.Quantity, i.BorrowedQuantity = 4, 1
		})
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
		f.items.EXPECT().Delete(gomock.Any(), id).Return(nil)
		f.publisher.EXPECT().PublishMovement(gomock.Any(), movementOfKind(domain.MovementDelete, -5)).Return(nil)

		res, err := f.service.Delete(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, &domain.DeleteResult{ID: id, Deleted: true}, res)
	})

	t.Run("not_found", func(t *testing.T) {
		f := newFixture(t, false)
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)

		_, err := f.service.Delete(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLedgerService_Search(t *testing.T) {
	params, err := domain.NewSearchParams("tablet", "", "")
	require.NoError(t, err)

	t.Run("no_match_is_not_found", func(t *testing.T) {
		f := newFixture(t, false)
		f.items.EXPECT().Search(gomock.Any(), params).Return([]domain.Item{}, nil)

		_, err := f.service.Search(context.Background(), params)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, "No matching items found for query: tablet", err.Error())
	})

	t.Run("returns_matches", func(t *testing.T) {
		f := newFixture(t, false)
		found := helpers.CreateTestItems(2)
		f.items.EXPECT().Search(gomock.Any(), params).Return(found, nil)

		items, err := f.service.Search(context.Background(), params)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestLedgerService_GetUsesCache(t *testing.T) {
	id := uuid.New()
	item := helpers.CreateTestItem(func(i *domain.Item) { i.ID = id })
	key := "item:" + id.String()

	t.Run("hit", func(t *testing.T) {
		f := newFixture(t, true)
		f.cache.EXPECT().Get(gomock.Any(), key, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, dest interface{}) error {
				*dest.(*domain.Item) = *item
				return nil
			})

		got, err := f.service.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)
	})

	t.Run("miss_populates", func(t *testing.T) {
		f := newFixture(t, true)
		f.cache.EXPECT().Get(gomock.Any(), key, gomock.Any()).Return(ports.ErrCacheMiss)
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
		f.cache.EXPECT().SetWithTTL(gomock.Any(), key, item, time.Minute).Return(nil)

		got, err := f.service.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, item, got)
	})

	t.Run("cache_error_falls_back", func(t *testing.T) {
		f := newFixture(t, true)
		f.cache.EXPECT().Get(gomock.Any(), key, gomock.Any()).Return(errors.New("timeout"))
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
		f.cache.EXPECT().SetWithTTL(gomock.Any(), key, gomock.Any(), gomock.Any()).Return(errors.New("timeout"))

		got, err := f.service.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)
	})

	t.Run("not_found_is_not_cached", func(t *testing.T) {
		f := newFixture(t, true)
		f.cache.EXPECT().Get(gomock.Any(), key, gomock.Any()).Return(ports.ErrCacheMiss)
		f.items.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)

		_, err := f.service.Get(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLedgerService_LockFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockLocker(ctrl)
	items := mocks.NewMockItemRepository(ctrl)
	svc := services.NewLedgerService(items, nil, locker, helpers.TestLogger())

	locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

	_, err := svc.Borrow(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLedgerService_LockWaitTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	items := mocks.NewMockItemRepository(ctrl)
	locks := keylock.New()
	svc := services.NewLedgerService(items, nil, locks, helpers.TestLogger(),
		services.WithLockTimeout(20*time.Millisecond))

	id := uuid.New()
	unlock, err := locks.Lock(context.Background(), "item:"+id.String())
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Borrow(context.Background(), id, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLedgerService_MovementsLimit(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()

	f.movements.EXPECT().ListByItem(gomock.Any(), id, services.DefaultMovementLimit).Return(nil, nil)
	f.movements.EXPECT().ListByItem(gomock.Any(), id, services.MaxMovementLimit).Return(nil, nil)

	_, err := f.service.Movements(context.Background(), id, 0)
	require.NoError(t, err)
	_, err = f.service.Movements(context.Background(), id, 10000)
	require.NoError(t, err)
}

// The remaining tests run against the in-memory adapters.

func newMemoryService() (*services.LedgerService, *memory.MovementRepository) {
	movements := memory.NewMovementRepository()
	svc := services.NewLedgerService(
		memory.NewItemRepository(),
		movements,
		keylock.New(),
		helpers.TestLogger(),
		services.WithPublisher(bootstrap.NewDirectPublisher(movements)),
	)
	return svc, movements
}

func TestLedgerService_ConcurrentBorrows(t *testing.T) {
	tests := []struct {
		stock, amount, workers int
	}{
		{stock: 10, amount: 1, workers: 25},
		{stock: 100, amount: 3, workers: 50},
		{stock: 7, amount: 2, workers: 8},
	}

	for _, tt := range tests {
		svc, _ := newMemoryService()
		ctx := context.Background()
		item, err := svc.Create(ctx, domain.NewItem{Name: "Projector", Quantity: tt.stock})
		require.NoError(t, err)

		var wg sync.WaitGroup
		var ok, insufficient atomic.Int32
		for i := 0; i < tt.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Borrow(ctx, item.ID, float64(tt.amount))
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, domain.ErrInsufficientStock):
					insufficient.Add(1)
				}
			}()
		}
		wg.Wait()

		want := tt.stock / tt.amount
		if want > tt.workers {
			want = tt.workers
		}
		assert.EqualValues(t, want, ok.Load())
		assert.EqualValues(t, tt.workers-want, insufficient.Load())

		final, err := svc.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.stock-want*tt.amount, final.Quantity)
		assert.Equal(t, want*tt.amount, final.BorrowedQuantity)
	}
}

func TestLedgerService_ConcurrentCreatesMerge(t *testing.T) {
	svc, _ := newMemoryService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "iPhone"
			if i%2 == 0 {
				name = "IPHONE "
			}
			_, err := svc.Create(ctx, domain.NewItem{Name: name, Quantity: 1})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Quantity)
}

func TestLedgerService_BorrowReturnRoundTrip(t *testing.T) {
	svc, movements := newMemoryService()
	ctx := context.Background()

	item, err := svc.Create(ctx, domain.NewItem{Name: "iPad", Description: "Gen 8", Quantity: 5})
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, item.ID, 2)
	require.NoError(t, err)
	back, err := svc.Return(ctx, item.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, back.Quantity)
	assert.Equal(t, 0, back.BorrowedQuantity)

	history, err := movements.ListByItem(ctx, item.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.MovementReturn, history[0].Kind)
	assert.Equal(t, domain.MovementBorrow, history[1].Kind)
	assert.Equal(t, domain.MovementCreate, history[2].Kind)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemCount)
	assert.Equal(t, 5, summary.Owned)
	assert.True(t, summary.Utilization.IsZero())
}
