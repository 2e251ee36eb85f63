// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// catalogRepository implements ports.CatalogRepository
type catalogRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *Database, logger *slog.Logger) ports.CatalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "catalog")),
	}
}

// CreateItem inserts a new item
func (r *catalogRepository) CreateItem(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (name, description, active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, item.Name, item.Description, item.Active).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return domain.NewStorageError("create item", err)
	}

	r.logger.DebugContext(ctx, "item created", slog.Int64("item_id", item.ID))
	return nil
}

// GetItem retrieves an item by ID
func (r *catalogRepository) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	query := `
		SELECT id, name, description, active, created_at, updated_at
		FROM items
		WHERE id = $1`

	var item domain.Item
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Active, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, domain.NewStorageError("get item", err)
	}
	return &item, nil
}

// ListItems lists items ordered by id
func (r *catalogRepository) ListItems(ctx context.Context, params ports.ItemListParams) ([]domain.Item, error) {
	qb := psql.
		Select("id", "name", "description", "active", "created_at", "updated_at").
		From("items").
		OrderBy("id ASC")

	if params.ActiveOnly {
		qb = qb.Where(squirrel.Eq{"active": true})
	}
	if params.Search != "" {
		qb = qb.Where(squirrel.ILike{"name": "%" + params.Search + "%"})
	}
	if params.Limit > 0 {
		qb = qb.Limit(uint64(params.Limit))
	}
	if params.Offset > 0 {
		qb = qb.Offset(uint64(params.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStorageError("list items", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Item, error) {
		var item domain.Item
		err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Active, &item.CreatedAt, &item.UpdatedAt)
		return item, err
	})
	if err != nil {
		return nil, domain.NewStorageError("scan items", err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// UpdateItem updates name, description and active flag
func (r *catalogRepository) UpdateItem(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE items
		SET name = $2, description = $3, active = $4, updated_at = $5
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, item.ID, item.Name, item.Description, item.Active, time.Now().UTC()).
		Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrItemNotFound
		}
		return domain.NewStorageError("update item", err)
	}
	return nil
}

// DeleteItem deletes an item; variants and movements cascade.
func (r *catalogRepository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return domain.NewStorageError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}

	r.logger.InfoContext(ctx, "item deleted", slog.Int64("item_id", id))
	return nil
}

const variantColumns = `id, item_id, sku, color, size, price, stock_quantity, created_at, updated_at`

// CreateVariant inserts a variant with its initial stock
func (r *catalogRepository) CreateVariant(ctx context.Context, v *domain.Variant) error {
	query := `
		INSERT INTO item_variants (item_id, sku, color, size, price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, v.ItemID, v.SKU, v.Color, v.Size, v.Price, v.StockQuantity).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return mapVariantWriteError("create variant", err)
	}

	r.logger.DebugContext(ctx, "variant created",
		slog.Int64("variant_id", v.ID),
		slog.String("sku", v.SKU))
	return nil
}

// GetVariant retrieves a variant by ID
func (r *catalogRepository) GetVariant(ctx context.Context, id int64) (*domain.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM item_variants WHERE id = $1`

	v, err := scanVariant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, domain.NewStorageError("get variant", err)
	}
	return v, nil
}

// ListVariants lists the variants of an item
func (r *catalogRepository) ListVariants(ctx context.Context, itemID int64) ([]domain.Variant, error) {
	if _, err := r.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	query := `SELECT ` + variantColumns + ` FROM item_variants WHERE item_id = $1 ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, domain.NewStorageError("list variants", err)
	}

	variants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Variant, error) {
		v, err := scanVariant(row)
		if err != nil {
			return domain.Variant{}, err
		}
		return *v, nil
	})
	if err != nil {
		return nil, domain.NewStorageError("scan variants", err)
	}
	if variants == nil {
		variants = []domain.Variant{}
	}
	return variants, nil
}

// UpdateVariant updates catalog fields only; stock_quantity is left alone.
func (r *catalogRepository) UpdateVariant(ctx context.Context, v *domain.Variant) error {
	query := `
		UPDATE item_variants
		SET sku = $2, color = $3, size = $4, price = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + variantColumns

	updated, err := scanVariant(r.db.QueryRow(ctx, query, v.ID, v.SKU, v.Color, v.Size, v.Price, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVariantNotFound
		}
		return mapVariantWriteError("update variant", err)
	}
	*v = *updated
	return nil
}

// DeleteVariant deletes a variant; its movements cascade.
func (r *catalogRepository) DeleteVariant(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM item_variants WHERE id = $1`, id)
	if err != nil {
		return domain.NewStorageError("delete variant", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}

	r.logger.InfoContext(ctx, "variant deleted", slog.Int64("variant_id", id))
	return nil
}

func scanVariant(row pgx.Row) (*domain.Variant, error) {
	var v domain.Variant
	err := row.Scan(&v.ID, &v.ItemID, &v.SKU, &v.Color, &v.Size, &v.Price, &v.StockQuantity, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func mapVariantWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrDuplicateSKU
		case pgForeignKeyViolation:
			return domain.ErrItemNotFound
		}
	}
	return domain.NewStorageError(op, err)
}
