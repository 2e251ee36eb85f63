// internal/core/ports/cache.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// CacheRepository defines the interface for cache operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Exists(ctx context.Context, keys ...string) (bool, error)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) error
}

// VariantCache is the read-model cache kept in front of the catalog.
// Entries must be dropped after every committed stock mutation.
type VariantCache interface {
	GetVariant(ctx context.Context, id int64) (*domain.Variant, bool, error)
	SetVariant(ctx context.Context, variant *domain.Variant) error
	InvalidateVariant(ctx context.Context, id int64) error
	InvalidateItem(ctx context.Context, itemID int64) error
}

// ExportStatusStore tracks asynchronous exports.
type ExportStatusStore interface {
	SaveExportStatus(ctx context.Context, status *ExportStatus) error
	GetExportStatus(ctx context.Context, exportID string) (*ExportStatus, error)
}

// AlertStore records low-stock alerts raised by the worker. An alert for a
// variant replaces the previous one.
type AlertStore interface {
	RecordLowStock(ctx context.Context, alert LowStockAlert) error
	ListLowStock(ctx context.Context) ([]LowStockAlert, error)
	ClearLowStock(ctx context.Context, variantID int64) error
}
