// cmd/seeder/main.go loads a catalog workbook, books received goods from
// PDF packing slips and optionally simulates sales, all through the stock
// ledger so every quantity has its movement history.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/adapters/memory"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// seederState tracks which receipts were booked so reruns do not receive the
// same goods twice.
type seederState struct {
	ProcessedReceipts []string  `json:"processed_receipts"`
	LastUpdate        time.Time `json:"last_update"`
}

// loadState reads the state file. A missing file is a fresh start; an
// unreadable one is an error, since treating it as empty would book every
// receipt again.
func loadState(path string) (seederState, error) {
	var state seederState
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("failed to read state file: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("state file %s is corrupt, fix it or rerun with -force: %w", path, err)
	}
	return state, nil
}

func (s *seederState) processed(id string) bool {
	return slices.Contains(s.ProcessedReceipts, id)
}

func (s *seederState) save(path string) error {
	s.LastUpdate = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func main() {
	var (
		catalogFile = flag.String("catalog", "./catalog.xlsx", "Excel workbook with items and variants")
		receiptsDir = flag.String("receipts", "", "Directory containing PDF packing slips to receive")
		stateFile   = flag.String("state", "./.seed_state.json", "State file for tracking received slips")
		sales       = flag.Int("sales", 0, "Units to sell per variant after seeding")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = flag.Bool("dry-run", false, "Run against an in-memory store instead of the database")
		force       = flag.Bool("force", false, "Receive slips even if already processed")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")
	ctx := context.Background()

	var state seederState
	if !*force {
		var err error
		if state, err = loadState(*stateFile); err != nil {
			slogger.Error("failed to load seed state", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	catalog, ledger, closeStore, err := openStore(ctx, *dryRun, slogger)
	if err != nil {
		slogger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("STOCK LEDGER SEED")
	fmt.Println(strings.Repeat("=", 60))

	if _, err := os.Stat(*catalogFile); err == nil {
		rows, err := loadCatalog(*catalogFile)
		if err != nil {
			slogger.Error("failed to load catalog", slog.String("error", err.Error()))
			os.Exit(1)
		}
		res, err := seedCatalog(ctx, catalog, rows, slogger)
		if err != nil {
			slogger.Error("failed to seed catalog", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("Catalog: %d items created, %d variants created, %d variants already present\n",
			res.ItemsCreated, res.VariantsCreated, res.VariantsSkipped)
	} else {
		slogger.Warn("catalog file not found, skipping", slog.String("file", *catalogFile))
	}

	if *receiptsDir != "" {
		if err := receiveAll(ctx, catalog, ledger, *receiptsDir, &state, slogger); err != nil {
			slogger.Error("failed to receive packing slips", slog.String("error", err.Error()))
		}
		if !*dryRun {
			if err := state.save(*stateFile); err != nil {
				slogger.Warn("failed to save state", slog.String("error", err.Error()))
			}
		}
	}

	if *sales > 0 {
		sold, err := simulateSales(ctx, catalog, ledger, *sales)
		if err != nil {
			slogger.Error("failed to simulate sales", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("Sales: %d units sold\n", sold)
	}

	slogger.Info("seed operation completed", slog.Bool("dry_run", *dryRun))
	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were made to the database")
	}
}

func openStore(ctx context.Context, dryRun bool, logger *slog.Logger) (ports.CatalogService, ports.StockLedger, func(), error) {
	if dryRun {
		store := memory.NewStore(logger)
		return services.NewCatalogService(store, nil, logger), services.NewStockLedger(store, logger), func() {}, nil
	}

	cfg, err := config.Load(logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.UsesMemoryStore() {
		return nil, nil, nil, errors.New("STORE_DRIVER=memory has nothing to seed, use -dry-run")
	}

	if cfg.App.AutoMigrate {
		err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			SourcePath:  cfg.Database.MigrationPath,
		}, logger, 3)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: 4,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	catalog := services.NewCatalogService(db.NewCatalogRepository(database, logger), nil, logger)
	ledger := services.NewStockLedger(db.NewStockStore(database, logger), logger)
	return catalog, ledger, database.Close, nil
}

func receiveAll(ctx context.Context, catalog ports.CatalogService, ledger ports.StockLedger, dir string, state *seederState, logger *slog.Logger) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return fmt.Errorf("failed to find PDF files: %w", err)
	}

	skus, err := skuIndex(ctx, catalog)
	if err != nil {
		return err
	}

	var failed []string
	for i, file := range files {
		receiptID := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		fmt.Printf("PROGRESS: Receiving %d/%d: %s\n", i+1, len(files), receiptID)

		if state.processed(receiptID) {
			logger.Info("skipping already received slip", slog.String("receipt_id", receiptID))
			continue
		}

		text, err := extractTextLines(file, logger)
		if err != nil {
			logger.Error("failed to read packing slip",
				slog.String("receipt_id", receiptID),
				slog.String("error", err.Error()))
			failed = append(failed, receiptID)
			continue
		}

		lines := parseReceipt(text)
		if len(lines) == 0 {
			logger.Warn("no line items found", slog.String("receipt_id", receiptID))
			failed = append(failed, receiptID+" (0 lines)")
			continue
		}

		res, err := applyReceipt(ctx, ledger, skus, lines, logger)
		if err != nil {
			// Lines before the failure are committed; the slip stays
			// unprocessed so it is reported for manual review.
			logger.Error("failed to book packing slip",
				slog.String("receipt_id", receiptID),
				slog.Int("lines_applied", res.Applied),
				slog.String("error", err.Error()))
			failed = append(failed, receiptID)
			continue
		}

		state.ProcessedReceipts = append(state.ProcessedReceipts, receiptID)
		fmt.Printf("SUCCESS: %s - %d lines, %d units\n", receiptID, res.Applied, res.Units)
		if len(res.Unknown) > 0 {
			fmt.Printf("WARNING: %s - unknown SKUs: %s\n", receiptID, strings.Join(res.Unknown, ", "))
		}
	}

	if len(failed) > 0 {
		fmt.Printf("\nFailed/Empty packing slips (%d):\n", len(failed))
		for _, id := range failed {
			fmt.Printf("  - %s\n", id)
		}
	}
	return nil
}

// simulateSales sells up to perVariant units of every variant, one unit per
// call, stopping early on a variant once it runs out.
func simulateSales(ctx context.Context, catalog ports.CatalogService, ledger ports.StockLedger, perVariant int) (int, error) {
	skus, err := skuIndex(ctx, catalog)
	if err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(skus))
	for _, id := range skus {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	sold := 0
	for _, id := range ids {
		for range perVariant {
			_, err := ledger.Sell(ctx, id, 1)
			if errors.Is(err, domain.ErrOutOfStock) {
				break
			}
			if err != nil {
				return sold, err
			}
			sold++
		}
	}
	return sold, nil
}
