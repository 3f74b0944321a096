package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/lending-be/internal/adapters/memory"
	"github.com/ammerola/lending-be/internal/bootstrap"
	"github.com/ammerola/lending-be/internal/core/services"
	"github.com/ammerola/lending-be/internal/pkg/config"
	"github.com/ammerola/lending-be/internal/pkg/keylock"
	"github.com/ammerola/lending-be/test/helpers"
)

func writeItemsFile(t *testing.T, rows [][]string) string {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Items")
	require.NoError(t, err)

	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}

	path := filepath.Join(t.TempDir(), "items.xlsx")
	require.NoError(t, file.Save(path))
	return path
}

func TestLoadItems(t *testing.T) {
	path := writeItemsFile(t, [][]string{
		{"Name", "Description", "Quantity"},
		{"Tripod", "Carbon", "3"},
		{"", "skipped", "1"},
		{"Cable", "", ""},
	})

	items, err := loadItems(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Tripod", items[0].Name)
	assert.Equal(t, "Carbon", items[0].Description)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 0, items[1].Quantity)
}

func TestLoadItems_BadQuantity(t *testing.T) {
	path := writeItemsFile(t, [][]string{
		{"Name", "Description", "Quantity"},
		{"Tripod", "Carbon", "three"},
	})

	_, err := loadItems(path)
	assert.ErrorContains(t, err, `row 2: quantity "three" is not a whole number`)
}

func TestSeed_ReseedingMerges(t *testing.T) {
	ctx := context.Background()
	movements := memory.NewMovementRepository()
	ledger := services.NewLedgerService(memory.NewItemRepository(), movements, keylock.New(), helpers.TestLogger())

	first := seed(ctx, ledger, defaultItems(), helpers.TestLogger())
	assert.Equal(t, 5, first.Created)
	assert.Zero(t, first.Merged)
	assert.Empty(t, first.Failed)

	second := seed(ctx, ledger, defaultItems(), helpers.TestLogger())
	assert.Zero(t, second.Created)
	assert.Equal(t, 5, second.Merged)

	items, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)
	for _, item := range items {
		if item.Name == "Macbook Air" {
			assert.Equal(t, 10, item.Quantity)
		}
	}
}

func TestNewLedger_SharesAPIBackends(t *testing.T) {
	ctx := context.Background()
	tr := helpers.SetupTestRedis(t)

	cfg := helpers.LoadTestConfig()
	cfg.Lock.Backend = config.LockRedis
	cfg.Lock.WaitTimeout = 50 * time.Millisecond
	cfg.Cache.Enabled = true

	store := &bootstrap.Store{Items: memory.NewItemRepository(), Movements: memory.NewMovementRepository()}

	_, err := newLedger(cfg, store, nil, helpers.TestLogger())
	assert.Error(t, err, "redis locks need a client")

	ledger, err := newLedger(cfg, store, tr.Client, helpers.TestLogger())
	require.NoError(t, err)

	// An API process is in the middle of creating an iPad
	require.NoError(t, tr.Server.Set("lock:item-name:ipad", "api"))
	require.NoError(t, tr.Server.Set("summary:ledger", "{}"))

	result := seed(ctx, ledger, defaultItems(), helpers.TestLogger())
	assert.Equal(t, 4, result.Created)
	assert.Equal(t, []string{"iPad"}, result.Failed)
	assert.False(t, tr.Server.Exists("summary:ledger"))
}
