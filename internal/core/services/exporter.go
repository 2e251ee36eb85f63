// internal/core/services/exporter.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var movementHeaders = []string{"Movement ID", "Created At", "Type", "Quantity Change", "Reason"}

// MovementExporter renders a variant's stock history as an Excel workbook
type MovementExporter struct {
	ledger  ports.StockLedger
	catalog ports.CatalogService
	now     func() time.Time
	logger  *slog.Logger
}

// Statically assert that *MovementExporter implements the MovementExporter interface.
var _ ports.MovementExporter = (*MovementExporter)(nil)

// NewMovementExporter creates a new movement exporter
func NewMovementExporter(ledger ports.StockLedger, catalog ports.CatalogService, logger *slog.Logger) *MovementExporter {
	return &MovementExporter{
		ledger:  ledger,
		catalog: catalog,
		now:     time.Now,
		logger:  logger.With(slog.String("service", "movement_exporter")),
	}
}

// ExportMovements writes the filtered history, in history order, to a
// workbook with a "Movements" sheet and a "Summary" sheet. Paging fields of
// the filter are ignored.
func (e *MovementExporter) ExportMovements(ctx context.Context, variantID int64, filter ports.MovementFilter) (*ports.ExportFile, error) {
	variant, err := e.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset = 0, 0
	movements, err := e.ledger.ListMovements(ctx, variantID, filter)
	if err != nil {
		return nil, err
	}

	data, err := e.render(variant, movements)
	if err != nil {
		return nil, fmt.Errorf("failed to render movement export: %w", err)
	}

	file := &ports.ExportFile{
		Filename:    exportFilename(variant, e.now()),
		ContentType: XLSXContentType,
		Data:        data,
	}

	e.logger.InfoContext(ctx, "exported movements",
		slog.Int64("variant_id", variantID),
		slog.Int("rows", len(movements)),
		slog.Int("bytes", len(data)))
	return file, nil
}

func (e *MovementExporter) render(variant *domain.Variant, movements []domain.Movement) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Movements")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range movementHeaders {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	var sold, adjusted int
	for _, m := range movements {
		row := sheet.AddRow()
		row.AddCell().SetInt64(m.ID)
		row.AddCell().SetString(m.CreatedAt.UTC().Format(time.RFC3339Nano))
		row.AddCell().SetString(string(m.Type))
		row.AddCell().SetInt(m.QuantityChange)
		row.AddCell().SetString(m.Reason)

		switch m.Type {
		case domain.MovementOut:
			sold -= m.QuantityChange
		case domain.MovementAdjustment:
			adjusted += m.QuantityChange
		}
	}
	sheet.SetColWidth(1, len(movementHeaders), 20)

	summary, err := file.AddSheet("Summary")
	if err != nil {
		return nil, fmt.Errorf("failed to add summary worksheet: %w", err)
	}
	addSummaryRow(summary, "Variant ID", func(c *xlsx.Cell) { c.SetInt64(variant.ID) })
	addSummaryRow(summary, "SKU", func(c *xlsx.Cell) { c.SetString(variant.SKU) })
	addSummaryRow(summary, "Current Quantity", func(c *xlsx.Cell) { c.SetInt(variant.StockQuantity) })
	addSummaryRow(summary, "Movements", func(c *xlsx.Cell) { c.SetInt(len(movements)) })
	addSummaryRow(summary, "Units Sold", func(c *xlsx.Cell) { c.SetInt(sold) })
	addSummaryRow(summary, "Net Adjustment", func(c *xlsx.Cell) { c.SetInt(adjusted) })
	summary.SetColWidth(1, 2, 20)

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}

func addSummaryRow(sheet *xlsx.Sheet, label string, set func(*xlsx.Cell)) {
	row := sheet.AddRow()
	labelCell := row.AddCell()
	labelCell.Value = label
	labelCell.GetStyle().Font.Bold = true
	set(row.AddCell())
}

func exportFilename(variant *domain.Variant, at time.Time) string {
	sku := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, variant.SKU)
	return fmt.Sprintf("movements-%d-%s-%s.xlsx", variant.ID, sku, at.UTC().Format("20060102T150405Z"))
}
