package ports

import (
	"context"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// CatalogRepository persists items and variants. It never changes a
// variant's stock quantity after creation.
type CatalogRepository interface {
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

// ItemListParams holds parameters for listing items
type ItemListParams struct {
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}
