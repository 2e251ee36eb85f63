// internal/workers/low_stock_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/adapters/queue"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// LowStockProcessor records low-stock alerts raised by the ledger
type LowStockProcessor struct {
	alerts  ports.AlertStore
	catalog ports.CatalogService
	logger  *slog.Logger
}

// NewLowStockProcessor creates a new low-stock processor
func NewLowStockProcessor(alerts ports.AlertStore, catalog ports.CatalogService, logger *slog.Logger) *LowStockProcessor {
	return &LowStockProcessor{
		alerts:  alerts,
		catalog: catalog,
		logger:  logger.With(slog.String("processor", "low_stock")),
	}
}

// ProcessLowStockAlert stores the alert unless the variant is gone or has
// been restocked above the threshold in the meantime.
func (p *LowStockProcessor) ProcessLowStockAlert(ctx context.Context, t *asynq.Task) error {
	alert, err := queue.ParseLowStockAlert(t)
	if err != nil {
		return err
	}

	variant, err := p.catalog.GetVariant(ctx, alert.VariantID)
	if err != nil {
		if errors.Is(err, domain.ErrVariantNotFound) {
			p.logger.InfoContext(ctx, "dropping alert for deleted variant",
				slog.Int64("variant_id", alert.VariantID))
			return nil
		}
		return fmt.Errorf("failed to load variant: %w", err)
	}

	if variant.StockQuantity > alert.Threshold {
		p.logger.DebugContext(ctx, "dropping stale low stock alert",
			slog.Int64("variant_id", alert.VariantID),
			slog.Int("quantity", variant.StockQuantity),
			slog.Int("threshold", alert.Threshold))
		return nil
	}

	alert.Quantity = variant.StockQuantity
	if err := p.alerts.RecordLowStock(ctx, alert); err != nil {
		return fmt.Errorf("failed to record low stock alert: %w", err)
	}

	p.logger.WarnContext(ctx, "variant is low on stock",
		slog.Int64("variant_id", alert.VariantID),
		slog.String("sku", variant.SKU),
		slog.Int("quantity", alert.Quantity),
		slog.Int("threshold", alert.Threshold),
		slog.Int64("movement_id", alert.MovementID))
	return nil
}
