package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/lending-be/internal/adapters/memory"
	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/workers"
	"github.com/ammerola/lending-be/test/helpers"
	"github.com/ammerola/lending-be/test/mocks"
)

func TestMovementProcessor_ProcessMovement(t *testing.T) {
	item := helpers.CreateTestItem()
	movement := domain.NewStockMovement(domain.MovementBorrow, *item, 1, time.Now().UTC().Truncate(time.Second))

	tests := []struct {
		name       string
		task       func(t *testing.T) *asynq.Task
		setupMocks func(*mocks.MockMovementRepository)
		wantErr    bool
		skipRetry  bool
	}{
		{
			name: "stores_movement",
			task: func(t *testing.T) *asynq.Task {
				task, _, err := workers.NewMovementTask(movement)
				require.NoError(t, err)
				return task
			},
			setupMocks: func(m *mocks.MockMovementRepository) {
				m.EXPECT().Save(gomock.Any(), movement).Return(nil)
			},
		},
		{
			name: "malformed_payload_skips_retry",
			task: func(t *testing.T) *asynq.Task {
				return asynq.NewTask(workers.TypeRecordMovement, []byte("{not json"))
			},
			setupMocks: func(m *mocks.MockMovementRepository) {},
			wantErr:    true,
			skipRetry:  true,
		},
		{
			name: "repository_error_is_retried",
			task: func(t *testing.T) *asynq.Task {
				task, _, err := workers.NewMovementTask(movement)
				require.NoError(t, err)
				return task
			},
			setupMocks: func(m *mocks.MockMovementRepository) {
				m.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockMovementRepository(ctrl)
			tt.setupMocks(repo)

			p := workers.NewMovementProcessor(repo, helpers.TestLogger())
			err := p.ProcessMovement(context.Background(), tt.task(t))

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestMovementProcessor_RedeliveryIsIdempotent(t *testing.T) {
	repo := memory.NewMovementRepository()
	p := workers.NewMovementProcessor(repo, helpers.TestLogger())
	item := helpers.CreateTestItem()

	task, _, err := workers.NewMovementTask(domain.NewStockMovement(domain.MovementCreate, *item, 10, time.Now()))
	require.NoError(t, err)

	require.NoError(t, p.ProcessMovement(context.Background(), task))
	require.NoError(t, p.ProcessMovement(context.Background(), task))

	got, err := repo.ListByItem(context.Background(), item.ID, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNewMovementTask_Options(t *testing.T) {
	m := domain.NewStockMovement(domain.MovementReturn, *helpers.CreateTestItem(), 1, time.Now())
	task, opts, err := workers.NewMovementTask(m)
	require.NoError(t, err)

	assert.Equal(t, workers.TypeRecordMovement, task.Type())
	assert.NotEmpty(t, opts)

	var decoded domain.StockMovement
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, m.ID, decoded.ID)
}
