package ports

import (
	"context"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// StockLedger is the only path that changes a variant's stock quantity.
type StockLedger interface {
	Sell(ctx context.Context, variantID int64, quantity int) (*StockChange, error)
	AdjustStock(ctx context.Context, variantID int64, delta int, reason string) (*StockChange, error)
	ListMovements(ctx context.Context, variantID int64, filter MovementFilter) ([]domain.Movement, error)
}

// StockChange describes a committed mutation. Movement is nil when nothing
// was written (zero-delta adjustment).
type StockChange struct {
	VariantID        int64            `json:"variant_id"`
	PreviousQuantity int              `json:"previous_quantity"`
	Quantity         int              `json:"quantity"`
	Movement         *domain.Movement `json:"movement,omitempty"`
}

// CatalogService manages items and variants.
type CatalogService interface {
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	ListItems(ctx context.Context, params ItemListParams) ([]domain.Item, error)
	UpdateItem(ctx context.Context, item *domain.Item) error
	DeleteItem(ctx context.Context, id int64) error

	CreateVariant(ctx context.Context, variant *domain.Variant) error
	GetVariant(ctx context.Context, id int64) (*domain.Variant, error)
	ListVariants(ctx context.Context, itemID int64) ([]domain.Variant, error)
	UpdateVariant(ctx context.Context, variant *domain.Variant) error
	DeleteVariant(ctx context.Context, id int64) error
}

// MovementExporter renders a variant's history as a spreadsheet.
type MovementExporter interface {
	ExportMovements(ctx context.Context, variantID int64, filter MovementFilter) (*ExportFile, error)
}

// ExportFile is a rendered export ready to be streamed or uploaded.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
