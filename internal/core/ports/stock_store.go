package ports

import (
	"context"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// StockStore is the persistence port used by the stock ledger.
type StockStore interface {
	// WithStockLock runs fn while holding exclusive access to the stock
	// record of variantID. Everything committed through the StockTx becomes
	// visible only if fn returns nil; any error (or panic) discards it.
	WithStockLock(ctx context.Context, variantID int64, fn func(ctx context.Context, tx StockTx) error) error

	// ListMovements returns the movement history of variantID ordered by
	// created_at descending and id ascending. It takes no lock.
	ListMovements(ctx context.Context, variantID int64, filter MovementFilter) ([]domain.Movement, error)
}

// StockTx is the unit of work handed to WithStockLock callbacks.
type StockTx interface {
	// GetStockRecord reads the locked record. Returns domain.ErrVariantNotFound
	// when the variant does not exist.
	GetStockRecord(ctx context.Context) (*domain.StockRecord, error)

	// CommitQuantityAndMovement writes the new quantity together with its
	// movement. At most one call per unit of work; the movement's ID is set
	// once the unit of work commits.
	CommitQuantityAndMovement(ctx context.Context, newQuantity int, movement *domain.Movement) error
}

// MovementFilter narrows a movement history query. The zero value returns
// the full history.
type MovementFilter struct {
	Type   domain.MovementType
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}

// Validate rejects unknown types, negative paging and inverted time ranges.
func (f MovementFilter) Validate() error {
	if f.Type != "" && !f.Type.Valid() {
		return domain.NewValidationError("type", "is not a known movement type")
	}
	if f.Limit < 0 || f.Offset < 0 {
		return domain.NewValidationError("limit", "and offset cannot be negative")
	}
	if f.Since != nil && f.Until != nil && f.Until.Before(*f.Since) {
		return domain.NewValidationError("until", "must not be before since")
	}
	return nil
}
