package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// StockLedger serializes quantity changes per variant and commits every
// change together with its movement record.
type StockLedger struct {
	store     ports.StockStore
	cache     ports.VariantCache
	tasks     ports.TaskEnqueuer
	threshold int
	now       func() time.Time
	logger    *slog.Logger
}

// Statically assert that *StockLedger implements the StockLedger interface.
var _ ports.StockLedger = (*StockLedger)(nil)

// LedgerOption configures optional collaborators of the ledger.
type LedgerOption func(*StockLedger)

// WithVariantCache drops cached variants after each committed mutation.
func WithVariantCache(cache ports.VariantCache) LedgerOption {
	return func(l *StockLedger) { l.cache = cache }
}

// WithLowStockAlerts enqueues an alert whenever a committed mutation leaves
// the quantity at or below threshold.
func WithLowStockAlerts(tasks ports.TaskEnqueuer, threshold int) LedgerOption {
	return func(l *StockLedger) {
		l.tasks = tasks
		l.threshold = threshold
	}
}

// WithClock overrides the movement timestamp source.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *StockLedger) { l.now = now }
}

// NewStockLedger creates a new stock ledger
func NewStockLedger(store ports.StockStore, logger *slog.Logger, opts ...LedgerOption) *StockLedger {
	l := &StockLedger{
		store:  store,
		now:    time.Now,
		logger: logger.With(slog.String("service", "stock_ledger")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sell removes quantity units from the variant's stock.
func (l *StockLedger) Sell(ctx context.Context, variantID int64, quantity int) (*ports.StockChange, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "must be positive")
	}
	if quantity > domain.MaxStockQuantity {
		return nil, domain.NewValidationError("quantity", fmt.Sprintf("must be at most %d", domain.MaxStockQuantity))
	}

	change, err := l.mutate(ctx, variantID, func(rec *domain.StockRecord, at time.Time) (int, *domain.Movement, error) {
		if rec.Quantity < quantity {
			return 0, nil, &domain.OutOfStockError{
				VariantID: variantID,
				Requested: quantity,
				Available: rec.Quantity,
			}
		}
		return rec.Quantity - quantity, domain.NewSaleMovement(variantID, quantity, at), nil
	})
	if err != nil {
		l.logFailure(ctx, "sell rejected", variantID, quantity, err)
		return nil, err
	}

	l.logger.InfoContext(ctx, "sold stock",
		slog.Int64("variant_id", variantID),
		slog.Int("quantity", quantity),
		slog.Int("remaining", change.Quantity),
		slog.Int64("movement_id", change.Movement.ID))

	return change, nil
}

// AdjustStock applies a signed correction. A zero delta is accepted and
// writes nothing.
func (l *StockLedger) AdjustStock(ctx context.Context, variantID int64, delta int, reason string) (*ports.StockChange, error) {
	if delta < -domain.MaxStockQuantity || delta > domain.MaxStockQuantity {
		return nil, domain.NewValidationError("quantity_change",
			fmt.Sprintf("must be between %d and %d", -domain.MaxStockQuantity, domain.MaxStockQuantity))
	}
	if delta == 0 {
		l.logger.DebugContext(ctx, "ignoring zero stock adjustment",
			slog.Int64("variant_id", variantID))
		return &ports.StockChange{VariantID: variantID}, nil
	}

	reason = strings.TrimSpace(reason)

	change, err := l.mutate(ctx, variantID, func(rec *domain.StockRecord, at time.Time) (int, *domain.Movement, error) {
		// Both operands fit in 32 bits, so the sum cannot wrap in int64.
		sum := int64(rec.Quantity) + int64(delta)
		if sum > domain.MaxStockQuantity {
			return 0, nil, domain.NewValidationError("quantity_change",
				fmt.Sprintf("would raise stock to %d, above the maximum of %d", sum, domain.MaxStockQuantity))
		}
		newQuantity := int(sum)
		if newQuantity < 0 {
			return 0, nil, &domain.OutOfStockError{
				VariantID: variantID,
				Requested: -delta,
				Available: rec.Quantity,
			}
		}
		return newQuantity, domain.NewAdjustmentMovement(variantID, delta, reason, at), nil
	})
	if err != nil {
		l.logFailure(ctx, "stock adjustment rejected", variantID, delta, err)
		return nil, err
	}

	l.logger.InfoContext(ctx, "adjusted stock",
		slog.Int64("variant_id", variantID),
		slog.Int("delta", delta),
		slog.String("reason", reason),
		slog.Int("quantity", change.Quantity),
		slog.Int64("movement_id", change.Movement.ID))

	return change, nil
}

// ListMovements returns the variant's history, newest first. It does not
// wait for in-flight mutations.
func (l *StockLedger) ListMovements(ctx context.Context, variantID int64, filter ports.MovementFilter) ([]domain.Movement, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	movements, err := l.store.ListMovements(ctx, variantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}

type stockRule func(rec *domain.StockRecord, at time.Time) (int, *domain.Movement, error)

// mutate runs the read-check-write sequence inside one locked unit of work.
func (l *StockLedger) mutate(ctx context.Context, variantID int64, rule stockRule) (*ports.StockChange, error) {
	var change *ports.StockChange

	err := l.store.WithStockLock(ctx, variantID, func(ctx context.Context, tx ports.StockTx) error {
		rec, err := tx.GetStockRecord(ctx)
		if err != nil {
			return err
		}

		// Postgres keeps microseconds; truncating keeps both stores ordering alike.
		at := l.now().UTC().Truncate(time.Microsecond)
		newQuantity, movement, err := rule(rec, at)
		if err != nil {
			return err
		}

		if err := tx.CommitQuantityAndMovement(ctx, newQuantity, movement); err != nil {
			return err
		}

		change = &ports.StockChange{
			VariantID:        variantID,
			PreviousQuantity: rec.Quantity,
			Quantity:         newQuantity,
			Movement:         movement,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(ctx, change)
	return change, nil
}

// afterCommit runs side effects that must never undo a committed mutation.
func (l *StockLedger) afterCommit(ctx context.Context, change *ports.StockChange) {
	if l.cache != nil {
		if err := l.cache.InvalidateVariant(ctx, change.VariantID); err != nil {
			l.logger.WarnContext(ctx, "failed to invalidate variant cache",
				slog.Int64("variant_id", change.VariantID),
				slog.String("error", err.Error()))
		}
	}

	if l.tasks == nil || change.Quantity > l.threshold {
		return
	}

	alert := ports.LowStockAlert{
		VariantID:  change.VariantID,
		Quantity:   change.Quantity,
		Threshold:  l.threshold,
		MovementID: change.Movement.ID,
		OccurredAt: change.Movement.CreatedAt,
	}
	if err := l.tasks.EnqueueLowStockAlert(ctx, alert); err != nil {
		l.logger.WarnContext(ctx, "failed to enqueue low stock alert",
			slog.Int64("variant_id", change.VariantID),
			slog.String("error", err.Error()))
	}
}

func (l *StockLedger) logFailure(ctx context.Context, msg string, variantID int64, amount int, err error) {
	level := slog.LevelWarn
	if errors.Is(err, domain.ErrStorage) || !domain.IsDomainError(err) {
		level = slog.LevelError
	}
	l.logger.Log(ctx, level, msg,
		slog.Int64("variant_id", variantID),
		slog.Int("amount", amount),
		slog.String("error", err.Error()))
}
