package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// catalogRow is one line of the catalog workbook:
// item | description | sku | color | size | price | initial stock
type catalogRow struct {
	ItemName     string
	Description  string
	SKU          string
	Color        string
	Size         string
	Price        decimal.Decimal
	InitialStock int
}

// loadCatalog reads the first sheet of an xlsx workbook. The first row is a
// header. Blank rows are skipped and malformed rows are reported with their
// row number.
func loadCatalog(path string) ([]catalogRow, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, errors.New("no sheets found in catalog file")
	}

	var (
		rows   []catalogRow
		rowIdx int
	)
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if rowIdx == 1 {
			return nil
		}

		cells := make([]string, 7)
		for i := range cells {
			cells[i] = cellText(r.GetCell(i))
		}
		if strings.Join(cells, "") == "" {
			return nil
		}

		row, err := parseCatalogRow(cells)
		if err != nil {
			return fmt.Errorf("row %d: %w", rowIdx, err)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func cellText(c *xlsx.Cell) string {
	if c == nil {
		return ""
	}
	if s, err := c.FormattedValue(); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(c.String())
}

func parseCatalogRow(cells []string) (catalogRow, error) {
	row := catalogRow{
		ItemName:    cells[0],
		Description: cells[1],
		SKU:         strings.ToUpper(cells[2]),
		Color:       cells[3],
		Size:        cells[4],
	}
	if row.ItemName == "" {
		return row, errors.New("item name is empty")
	}
	if row.SKU == "" {
		return row, errors.New("sku is empty")
	}

	price, err := decimal.NewFromString(strings.TrimPrefix(strings.ReplaceAll(cells[5], ",", ""), "$"))
	if err != nil {
		return row, fmt.Errorf("invalid price %q", cells[5])
	}
	row.Price = price

	if cells[6] != "" {
		qty, err := strconv.Atoi(cells[6])
		if err != nil {
			return row, fmt.Errorf("invalid initial stock %q", cells[6])
		}
		row.InitialStock = qty
	}
	return row, nil
}

type catalogResult struct {
	ItemsCreated    int
	VariantsCreated int
	VariantsSkipped int
}

// seedCatalog creates the items and variants described by rows. Variants
// whose SKU already exists are skipped, so re-running over the same workbook
// is harmless.
func seedCatalog(ctx context.Context, catalog ports.CatalogService, rows []catalogRow, logger *slog.Logger) (catalogResult, error) {
	var res catalogResult

	existing, err := existingItems(ctx, catalog)
	if err != nil {
		return res, err
	}

	for _, row := range rows {
		itemID, ok := existing[row.ItemName]
		if !ok {
			item := &domain.Item{Name: row.ItemName, Description: row.Description, Active: true}
			if err := catalog.CreateItem(ctx, item); err != nil {
				return res, fmt.Errorf("failed to create item %q: %w", row.ItemName, err)
			}
			itemID = item.ID
			existing[row.ItemName] = itemID
			res.ItemsCreated++
		}

		variant := &domain.Variant{
			ItemID:        itemID,
			SKU:           row.SKU,
			Color:         row.Color,
			Size:          row.Size,
			Price:         row.Price,
			StockQuantity: row.InitialStock,
		}
		err := catalog.CreateVariant(ctx, variant)
		switch {
		case errors.Is(err, domain.ErrDuplicateSKU):
			logger.Debug("variant exists, skipping", slog.String("sku", row.SKU))
			res.VariantsSkipped++
		case err != nil:
			return res, fmt.Errorf("failed to create variant %s: %w", row.SKU, err)
		default:
			res.VariantsCreated++
		}
	}
	return res, nil
}

const pageSize = 100

func existingItems(ctx context.Context, catalog ports.CatalogService) (map[string]int64, error) {
	byName := make(map[string]int64)
	for offset := 0; ; offset += pageSize {
		items, err := catalog.ListItems(ctx, ports.ItemListParams{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}
		for _, item := range items {
			byName[item.Name] = item.ID
		}
		if len(items) < pageSize {
			return byName, nil
		}
	}
}

// skuIndex maps every known SKU, upper-cased, to its variant ID.
func skuIndex(ctx context.Context, catalog ports.CatalogService) (map[string]int64, error) {
	items, err := existingItems(ctx, catalog)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int64)
	for _, itemID := range items {
		variants, err := catalog.ListVariants(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to list variants of item %d: %w", itemID, err)
		}
		for _, v := range variants {
			index[strings.ToUpper(v.SKU)] = v.ID
		}
	}
	return index, nil
}
