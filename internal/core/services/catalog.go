// internal/core/services/catalog.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// CatalogService handles item and variant business logic. Stock quantities
// are only set here when a variant is created; every later change goes
// through the StockLedger.
type CatalogService struct {
	repo   ports.CatalogRepository
	cache  ports.VariantCache
	logger *slog.Logger
}

// Statically assert that *CatalogService implements the CatalogService interface.
var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(repo ports.CatalogRepository, cache ports.VariantCache, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("service", "catalog")),
	}
}

// CreateItem validates and stores a new item
func (s *CatalogService) CreateItem(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.InfoContext(ctx, "created item",
		slog.Int64("item_id", item.ID),
		slog.String("name", item.Name))
	return nil
}

// GetItem retrieves an item by ID
func (s *CatalogService) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems lists items a page at a time
func (s *CatalogService) ListItems(ctx context.Context, params ports.ItemListParams) ([]domain.Item, error) {
	if params.Limit < 0 || params.Offset < 0 {
		return nil, domain.NewValidationError("limit", "and offset cannot be negative")
	}
	if params.Limit == 0 {
		params.Limit = defaultPageSize
	}
	params.Limit = min(params.Limit, maxPageSize)

	items, err := s.repo.ListItems(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// UpdateItem updates an item's descriptive fields
func (s *CatalogService) UpdateItem(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.InfoContext(ctx, "updated item", slog.Int64("item_id", item.ID))
	return nil
}

// DeleteItem deletes an item together with its variants and their history
func (s *CatalogService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateItem(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate item cache",
				slog.Int64("item_id", id),
				slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "deleted item", slog.Int64("item_id", id))
	return nil
}

// CreateVariant validates and stores a variant with its opening stock
func (s *CatalogService) CreateVariant(ctx context.Context, variant *domain.Variant) error {
	if err := variant.Validate(); err != nil {
		return err
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return fmt.Errorf("failed to create variant: %w", err)
	}

	s.logger.InfoContext(ctx, "created variant",
		slog.Int64("variant_id", variant.ID),
		slog.Int64("item_id", variant.ItemID),
		slog.String("sku", variant.SKU),
		slog.Int("stock_quantity", variant.StockQuantity))
	return nil
}

// GetVariant reads through the variant cache when one is configured
func (s *CatalogService) GetVariant(ctx context.Context, id int64) (*domain.Variant, error) {
	if s.cache != nil {
		v, found, err := s.cache.GetVariant(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "variant cache read failed",
				slog.Int64("variant_id", id),
				slog.String("error", err.Error()))
		} else if found {
			return v, nil
		}
	}

	v, err := s.repo.GetVariant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetVariant(ctx, v); err != nil {
			s.logger.WarnContext(ctx, "failed to cache variant",
				slog.Int64("variant_id", id),
				slog.String("error", err.Error()))
		}
	}
	return v, nil
}

// ListVariants lists the variants of an item
func (s *CatalogService) ListVariants(ctx context.Context, itemID int64) ([]domain.Variant, error) {
	variants, err := s.repo.ListVariants(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	return variants, nil
}

// UpdateVariant updates SKU, attributes and price. The stock quantity in the
// request is ignored and replaced by the stored one.
func (s *CatalogService) UpdateVariant(ctx context.Context, variant *domain.Variant) error {
	variant.StockQuantity = 0
	if err := variant.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateVariant(ctx, variant); err != nil {
		return fmt.Errorf("failed to update variant: %w", err)
	}
	s.invalidateVariant(ctx, variant.ID)

	s.logger.InfoContext(ctx, "updated variant",
		slog.Int64("variant_id", variant.ID),
		slog.String("sku", variant.SKU))
	return nil
}

// DeleteVariant deletes a variant and its movement history
func (s *CatalogService) DeleteVariant(ctx context.Context, id int64) error {
	if err := s.repo.DeleteVariant(ctx, id); err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	s.invalidateVariant(ctx, id)

	s.logger.InfoContext(ctx, "deleted variant", slog.Int64("variant_id", id))
	return nil
}

func (s *CatalogService) invalidateVariant(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateVariant(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate variant cache",
			slog.Int64("variant_id", id),
			slog.String("error", err.Error()))
	}
}
