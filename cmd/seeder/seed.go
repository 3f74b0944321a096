// cmd/seeder/seed.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/lending-be/internal/bootstrap"
	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
	"github.com/ammerola/lending-be/internal/core/services"
	"github.com/ammerola/lending-be/internal/pkg/config"
)

// newLedger wires the seeder's ledger with the same lock and cache backends
// the API uses, so seeding next to a running API serializes with it and
// drops the cached entries it changes.
func newLedger(cfg *config.Config, store *bootstrap.Store, client *redis.Client, logger *slog.Logger) (*services.LedgerService, error) {
	locker, err := bootstrap.NewLocker(cfg, client, logger)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithLockTimeout(cfg.Lock.WaitTimeout),
		services.WithPublisher(bootstrap.NewDirectPublisher(store.Movements)),
	}
	if cache := bootstrap.NewCache(cfg, client, logger); cache != nil {
		opts = append(opts, services.WithCache(cache, cfg.Cache.TTL))
	}
	return services.NewLedgerService(store.Items, store.Movements, locker, logger, opts...), nil
}

// defaultItems are the devices a fresh ledger starts with. The two
// unavailable ones start with no stock on the shelf.
func defaultItems() []domain.NewItem {
	return []domain.NewItem{
		{Name: "Macbook Air", Description: "Chip M1", Quantity: 5},
		{Name: "Projector", Description: "4K resolution", Quantity: 0},
		{Name: "iPhone", Description: "SE2", Quantity: 5},
		{Name: "iPad", Description: "Gen 8", Quantity: 5},
		{Name: "Wireless headphones", Description: "Noise cancelling", Quantity: 0},
	}
}

// loadItems reads the first sheet of an xlsx file. The first row is a header.
func loadItems(path string) ([]domain.NewItem, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open items file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in items file")
	}
	return readItems(file.Sheets[0])
}

func readItems(sheet *xlsx.Sheet) ([]domain.NewItem, error) {
	var items []domain.NewItem

	rowIdx := 0
	err := sheet.ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if rowIdx == 1 {
			return nil
		}

		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			if s, err := c.FormattedValue(); err == nil {
				return strings.TrimSpace(s)
			}
			return strings.TrimSpace(c.String())
		}

		name := get(0)
		if name == "" {
			return nil
		}

		quantity := 0
		if raw := get(2); raw != "" {
			q, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("row %d: quantity %q is not a whole number", rowIdx, raw)
			}
			quantity = q
		}

		items = append(items, domain.NewItem{
			Name:        name,
			Description: get(1),
			Quantity:    quantity,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return items, nil
}

type seedResult struct {
	Created int
	Merged  int
	Failed  []string
}

// seed creates each item through the ledger, so reseeding merges into the
// existing rows instead of duplicating them.
func seed(ctx context.Context, ledger ports.LedgerService, items []domain.NewItem, logger *slog.Logger) seedResult {
	var result seedResult

	existing, err := ledger.List(ctx)
	if err != nil {
		logger.Warn("failed to list existing items", slog.String("error", err.Error()))
	}

	for _, input := range items {
		_, merged := domain.MergeByName(input.Name, input.Quantity, existing)

		item, err := ledger.Create(ctx, input)
		if err != nil {
			logger.Error("failed to seed item",
				slog.String("name", input.Name),
				slog.String("error", err.Error()))
			result.Failed = append(result.Failed, input.Name)
			continue
		}

		if merged {
			result.Merged++
		} else {
			result.Created++
			existing = append(existing, *item)
		}
		logger.Info("seeded item",
			slog.String("id", item.ID.String()),
			slog.String("name", item.Name),
			slog.Int("quantity", item.Quantity),
			slog.Bool("merged", merged))
	}
	return result
}
