// internal/adapters/db/stock_store.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// StockStore implements ports.StockStore on Postgres. The variant row lock
// taken by SELECT ... FOR UPDATE is the per-variant mutex.
type StockStore struct {
	db     *Database
	logger *slog.Logger
}

// Statically assert that *StockStore implements the StockStore interface.
var _ ports.StockStore = (*StockStore)(nil)

// NewStockStore creates a new Postgres stock store
func NewStockStore(db *Database, logger *slog.Logger) *StockStore {
	return &StockStore{
		db:     db,
		logger: logger.With(slog.String("repository", "stock")),
	}
}

// WithStockLock runs fn inside a transaction. The lock is taken by the first
// GetStockRecord call and released when the transaction ends.
func (s *StockStore) WithStockLock(ctx context.Context, variantID int64, fn func(ctx context.Context, tx ports.StockTx) error) error {
	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &pgStockTx{tx: tx, variantID: variantID, logger: s.logger})
	})
	if err != nil {
		return domain.NewStorageError("stock transaction", err)
	}
	return nil
}

type pgStockTx struct {
	tx        pgx.Tx
	variantID int64
	committed bool
	logger    *slog.Logger
}

const selectStockForUpdate = `
	SELECT id, stock_quantity
	FROM item_variants
	WHERE id = $1
	FOR UPDATE`

func (t *pgStockTx) GetStockRecord(ctx context.Context) (*domain.StockRecord, error) {
	var rec domain.StockRecord
	err := t.tx.QueryRow(ctx, selectStockForUpdate, t.variantID).Scan(&rec.VariantID, &rec.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, domain.NewStorageError("lock stock record", err)
	}
	return &rec, nil
}

const (
	updateStockQuantity = `
		UPDATE item_variants
		SET stock_quantity = $2, updated_at = $3
		WHERE id = $1`

	insertMovement = `
		INSERT INTO stock_movements (variant_id, type, quantity_change, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
)

func (t *pgStockTx) CommitQuantityAndMovement(ctx context.Context, newQuantity int, m *domain.Movement) error {
	if t.committed {
		return domain.NewStorageError("commit stock change", errors.New("unit of work already committed"))
	}

	tag, err := t.tx.Exec(ctx, updateStockQuantity, t.variantID, newQuantity, m.CreatedAt)
	if err != nil {
		return domain.NewStorageError("update stock quantity", err)
	}
	if tag.RowsAffected() != 1 {
		return domain.ErrVariantNotFound
	}

	m.VariantID = t.variantID
	if err := t.tx.QueryRow(ctx, insertMovement,
		m.VariantID, string(m.Type), m.QuantityChange, m.Reason, m.CreatedAt,
	).Scan(&m.ID); err != nil {
		return domain.NewStorageError("insert movement", err)
	}
	t.committed = true

	t.logger.DebugContext(ctx, "stock change written",
		slog.Int64("variant_id", t.variantID),
		slog.Int("quantity", newQuantity),
		slog.Int64("movement_id", m.ID))
	return nil
}

// ListMovements reads the history without locking the variant row.
func (s *StockStore) ListMovements(ctx context.Context, variantID int64, filter ports.MovementFilter) ([]domain.Movement, error) {
	query, args, err := buildMovementQuery(variantID, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build movement query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStorageError("list movements", err)
	}

	movements, err := pgx.CollectRows(rows, scanMovement)
	if err != nil {
		return nil, domain.NewStorageError("scan movements", err)
	}
	if movements == nil {
		movements = []domain.Movement{}
	}

	s.logger.DebugContext(ctx, "listed movements",
		slog.Int64("variant_id", variantID),
		slog.Int("count", len(movements)))
	return movements, nil
}

func buildMovementQuery(variantID int64, filter ports.MovementFilter) squirrel.SelectBuilder {
	qb := psql.
		Select("id", "variant_id", "type", "quantity_change", "reason", "created_at").
		From("stock_movements").
		Where(squirrel.Eq{"variant_id": variantID}).
		OrderBy("created_at DESC", "id ASC")

	if filter.Type != "" {
		qb = qb.Where(squirrel.Eq{"type": string(filter.Type)})
	}
	if filter.Since != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": filter.Since.UTC()})
	}
	if filter.Until != nil {
		qb = qb.Where(squirrel.LtOrEq{"created_at": filter.Until.UTC()})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}
	return qb
}

func scanMovement(row pgx.CollectableRow) (domain.Movement, error) {
	var (
		m         domain.Movement
		kind      string
		createdAt time.Time
	)
	if err := row.Scan(&m.ID, &m.VariantID, &kind, &m.QuantityChange, &m.Reason, &createdAt); err != nil {
		return m, err
	}
	m.Type = domain.MovementType(kind)
	m.CreatedAt = createdAt.UTC()
	return m, nil
}
