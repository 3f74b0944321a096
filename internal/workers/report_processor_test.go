package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/workers"
	"github.com/ammerola/lending-be/test/helpers"
	"github.com/ammerola/lending-be/test/mocks"
)

func cellValue(t *testing.T, sheet *xlsx.Sheet, row, col int) string {
	t.Helper()
	c, err := sheet.Cell(row, col)
	require.NoError(t, err)
	return c.Value
}

func TestBuildStockReport(t *testing.T) {
	items := []domain.Item{
		*helpers.CreateTestItem(func(i *domain.Item) {
			i.Name = "Projector"
			i.Quantity, i.BorrowedQuantity = 3, 1
		}),
		*helpers.CreateTestItem(func(i *domain.Item) {
			i.Name = "iPad"
			i.Quantity, i.BorrowedQuantity = 2, 2
		}),
	}

	data, err := workers.BuildStockReport(items, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	file, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	sheet, ok := file.Sheet["Stock"]
	require.True(t, ok)
	assert.Equal(t, 4, sheet.MaxRow)

	assert.Equal(t, "Name", cellValue(t, sheet, 0, 1))
	assert.Equal(t, "Borrowed", cellValue(t, sheet, 0, 4))

	assert.Equal(t, "Projector", cellValue(t, sheet, 1, 1))
	assert.Equal(t, "3", cellValue(t, sheet, 1, 3))
	assert.Equal(t, "1", cellValue(t, sheet, 1, 4))
	assert.Equal(t, "4", cellValue(t, sheet, 1, 5))

	assert.Equal(t, "TOTAL", cellValue(t, sheet, 3, 0))
	assert.Equal(t, "5", cellValue(t, sheet, 3, 3))
	assert.Equal(t, "3", cellValue(t, sheet, 3, 4))
	assert.Equal(t, "8", cellValue(t, sheet, 3, 5))
	assert.Equal(t, "utilization 0.3750", cellValue(t, sheet, 3, 2))
}

func TestReportProcessor_GenerateStockReport(t *testing.T) {
	payload, err := json.Marshal(workers.StockReportPayload{RequestedAt: time.Now(), RequestID: "req-1"})
	require.NoError(t, err)
	task := asynq.NewTask(workers.TypeStockReport, payload)

	t.Run("uploads_workbook", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		items := mocks.NewMockItemRepository(ctrl)
		storage := mocks.NewMockFileStorage(ctrl)

		items.EXPECT().FindAll(gomock.Any()).Return(helpers.CreateTestItems(3), nil)
		storage.EXPECT().
			Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, key string, body []byte, contentType string) (string, error) {
				assert.True(t, strings.HasPrefix(key, "reports/stock-"))
				assert.True(t, strings.HasSuffix(key, ".xlsx"))
				assert.Contains(t, contentType, "spreadsheetml")

				f, err := xlsx.OpenBinary(body)
				require.NoError(t, err)
				assert.Equal(t, 5, f.Sheet["Stock"].MaxRow)
				return "file:///tmp/" + key, nil
			})

		p := workers.NewReportProcessor(items, storage, helpers.TestLogger())
		assert.NoError(t, p.GenerateStockReport(context.Background(), task))
	})

	t.Run("storage_error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		items := mocks.NewMockItemRepository(ctrl)
		storage := mocks.NewMockFileStorage(ctrl)

		items.EXPECT().FindAll(gomock.Any()).Return(nil, nil)
		storage.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("bucket missing"))

		p := workers.NewReportProcessor(items, storage, helpers.TestLogger())
		err := p.GenerateStockReport(context.Background(), task)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket missing")
	})

	t.Run("bad_payload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		p := workers.NewReportProcessor(mocks.NewMockItemRepository(ctrl), mocks.NewMockFileStorage(ctrl), helpers.TestLogger())

		err := p.GenerateStockReport(context.Background(), asynq.NewTask(workers.TypeStockReport, []byte("[")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}
