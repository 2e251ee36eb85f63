// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// CleanupProcessor handles periodic cleanup tasks
type CleanupProcessor struct {
	alerts    ports.AlertStore
	catalog   ports.CatalogService
	threshold int
	logger    *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(alerts ports.AlertStore, catalog ports.CatalogService, threshold int, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		alerts:    alerts,
		catalog:   catalog,
		threshold: threshold,
		logger:    logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupStaleAlerts clears alerts of variants that were deleted or
// restocked above the threshold.
func (p *CleanupProcessor) CleanupStaleAlerts(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up stale low stock alerts")

	alerts, err := p.alerts.ListLowStock(ctx)
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}

	var cleared int
	for _, alert := range alerts {
		stale, err := p.isStale(ctx, alert)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to check alert",
				slog.Int64("variant_id", alert.VariantID),
				slog.String("error", err.Error()))
			continue
		}
		if !stale {
			continue
		}
		if err := p.alerts.ClearLowStock(ctx, alert.VariantID); err != nil {
			return fmt.Errorf("failed to clear alert for variant %d: %w", alert.VariantID, err)
		}
		cleared++
	}

	p.logger.InfoContext(ctx, "stale alerts cleaned up",
		slog.Int("checked", len(alerts)),
		slog.Int("cleared", cleared))
	return nil
}

func (p *CleanupProcessor) isStale(ctx context.Context, alert ports.LowStockAlert) (bool, error) {
	v, err := p.catalog.GetVariant(ctx, alert.VariantID)
	if errors.Is(err, domain.ErrVariantNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return v.StockQuantity > p.threshold, nil
}
