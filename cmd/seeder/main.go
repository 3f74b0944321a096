// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ammerola/lending-be/internal/bootstrap"
	"github.com/ammerola/lending-be/internal/pkg/config"
	"github.com/ammerola/lending-be/internal/pkg/logger"
)

func main() {
	var (
		itemsFile = flag.String("file", "", "Excel file with Name, Description, Quantity columns (defaults to the built-in devices)")
		dryRun    = flag.Bool("dry-run", false, "Preview items without writing them")
	)
	flag.Parse()

	slogger := logger.SetupLogger("info", "text")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	items := defaultItems()
	if *itemsFile != "" {
		items, err = loadItems(*itemsFile)
		if err != nil {
			slogger.Error("failed to load items file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if *dryRun {
		for _, item := range items {
			fmt.Printf("%-24s %-20s %d\n", item.Name, item.Description, item.Quantity)
		}
		fmt.Println("\n[DRY RUN] No changes were made")
		return
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	redisClient, err := bootstrap.NewRedisClient(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledger, err := newLedger(cfg, store, redisClient, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize ledger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	result := seed(ctx, ledger, items, slogger.Logger)

	fmt.Println("\n" + strings.Repeat("=", 48))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 48))
	fmt.Printf("Created: %d\n", result.Created)
	fmt.Printf("Merged:  %d\n", result.Merged)
	if len(result.Failed) > 0 {
		fmt.Printf("Failed:  %d\n", len(result.Failed))
		for _, name := range result.Failed {
			fmt.Printf("  - %s\n", name)
		}
		os.Exit(1)
	}
}
