// Package memory keeps the catalog and the stock ledger in process memory.
// It backs local runs and tests; state is lost on restart.
package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// Store implements ports.StockStore and ports.CatalogRepository.
type Store struct {
	mu        sync.RWMutex
	items     map[int64]domain.Item
	variants  map[int64]domain.Variant
	skus      map[string]int64
	movements map[int64][]domain.Movement

	nextItemID     int64
	nextVariantID  int64
	nextMovementID int64

	locks  *KeyedMutex
	now    func() time.Time
	logger *slog.Logger
}

var (
	_ ports.StockStore        = (*Store)(nil)
	_ ports.CatalogRepository = (*Store)(nil)
	_ ports.Database          = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		items:     make(map[int64]domain.Item),
		variants:  make(map[int64]domain.Variant),
		skus:      make(map[string]int64),
		movements: make(map[int64][]domain.Movement),
		locks:     NewKeyedMutex(),
		now:       time.Now,
		logger:    logger.With(slog.String("component", "memory_store")),
	}
}

// Ping fails only once ctx is done.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Health reports the store size and how many variants are locked right now.
func (s *Store) Health(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movements := 0
	for _, ms := range s.movements {
		movements += len(ms)
	}
	return map[string]interface{}{
		"status":       "healthy",
		"driver":       "memory",
		"items":        len(s.items),
		"variants":     len(s.variants),
		"movements":    movements,
		"locked_stock": s.locks.Len(),
	}
}

// WithStockLock implements ports.StockStore.
func (s *Store) WithStockLock(ctx context.Context, variantID int64, fn func(ctx context.Context, tx ports.StockTx) error) error {
	unlock, err := s.locks.Lock(ctx, variantID)
	if err != nil {
		return domain.NewStorageError("acquire stock lock", err)
	}
	defer unlock()

	tx := &stockTx{store: s, variantID: variantID}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if tx.movement == nil {
		return nil
	}

	// The lock is still held, so nobody else can have touched the quantity.
	return s.apply(ctx, variantID, tx.newQuantity, tx.movement)
}

func (s *Store) apply(ctx context.Context, variantID int64, newQuantity int, m *domain.Movement) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("commit stock change", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}

	s.nextMovementID++
	m.ID = s.nextMovementID
	m.VariantID = variantID

	v.StockQuantity = newQuantity
	v.UpdatedAt = m.CreatedAt
	s.variants[variantID] = v
	s.movements[variantID] = append(s.movements[variantID], *m)

	s.logger.DebugContext(ctx, "committed stock change",
		slog.Int64("variant_id", variantID),
		slog.Int("quantity", newQuantity),
		slog.Int64("movement_id", m.ID))
	return nil
}

type stockTx struct {
	store       *Store
	variantID   int64
	newQuantity int
	movement    *domain.Movement
}

func (tx *stockTx) GetStockRecord(ctx context.Context) (*domain.StockRecord, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	v, ok := tx.store.variants[tx.variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	rec := v.StockRecord()
	return &rec, nil
}

func (tx *stockTx) CommitQuantityAndMovement(ctx context.Context, newQuantity int, movement *domain.Movement) error {
	if tx.movement != nil {
		return domain.NewStorageError("commit stock change", errors.New("unit of work already committed"))
	}
	if newQuantity < 0 {
		return domain.NewStorageError("commit stock change", fmt.Errorf("negative quantity %d", newQuantity))
	}
	tx.newQuantity = newQuantity
	tx.movement = movement
	return nil
}

// ListMovements implements ports.StockStore.
func (s *Store) ListMovements(ctx context.Context, variantID int64, filter ports.MovementFilter) ([]domain.Movement, error) {
	s.mu.RLock()
	history := slices.Clone(s.movements[variantID])
	s.mu.RUnlock()

	result := history[:0]
	for _, m := range history {
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.Since != nil && m.CreatedAt.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && m.CreatedAt.After(*filter.Until) {
			continue
		}
		result = append(result, m)
	}
	domain.SortMovements(result)

	return paginate(result, filter.Limit, filter.Offset), nil
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

// CreateItem implements ports.CatalogRepository.
func (s *Store) CreateItem(ctx context.Context, item *domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.nextItemID++
	item.ID = s.nextItemID
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = *item
	return nil
}

// GetItem implements ports.CatalogRepository.
func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

// ListItems implements ports.CatalogRepository.
func (s *Store) ListItems(ctx context.Context, params ports.ItemListParams) ([]domain.Item, error) {
	s.mu.RLock()
	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		if params.ActiveOnly && !item.Active {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(params.Search)) {
			continue
		}
		items = append(items, item)
	}
	s.mu.RUnlock()

	slices.SortFunc(items, func(a, b domain.Item) int { return cmp.Compare(a.ID, b.ID) })
	return paginate(items, params.Limit, params.Offset), nil
}

// UpdateItem implements ports.CatalogRepository.
func (s *Store) UpdateItem(ctx context.Context, item *domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok {
		return domain.ErrItemNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.now().UTC()
	s.items[item.ID] = *item
	return nil
}

// DeleteItem removes the item with its variants and their movements.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	for vid, v := range s.variants {
		if v.ItemID == id {
			s.deleteVariantLocked(vid)
		}
	}
	delete(s.items, id)
	return nil
}

// CreateVariant implements ports.CatalogRepository.
func (s *Store) CreateVariant(ctx context.Context, variant *domain.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[variant.ItemID]; !ok {
		return domain.ErrItemNotFound
	}
	if _, taken := s.skus[variant.SKU]; taken {
		return domain.ErrDuplicateSKU
	}

	now := s.now().UTC()
	s.nextVariantID++
	variant.ID = s.nextVariantID
	variant.CreatedAt = now
	variant.UpdatedAt = now
	s.variants[variant.ID] = *variant
	s.skus[variant.SKU] = variant.ID
	return nil
}

// GetVariant implements ports.CatalogRepository.
func (s *Store) GetVariant(ctx context.Context, id int64) (*domain.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.variants[id]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	return &v, nil
}

// ListVariants implements ports.CatalogRepository.
func (s *Store) ListVariants(ctx context.Context, itemID int64) ([]domain.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.items[itemID]; !ok {
		return nil, domain.ErrItemNotFound
	}
	variants := []domain.Variant{}
	for _, v := range s.variants {
		if v.ItemID == itemID {
			variants = append(variants, v)
		}
	}
	slices.SortFunc(variants, func(a, b domain.Variant) int { return cmp.Compare(a.ID, b.ID) })
	return variants, nil
}

// UpdateVariant updates catalog fields. The stored quantity always wins.
func (s *Store) UpdateVariant(ctx context.Context, variant *domain.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.variants[variant.ID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	if owner, taken := s.skus[variant.SKU]; taken && owner != variant.ID {
		return domain.ErrDuplicateSKU
	}

	delete(s.skus, existing.SKU)
	s.skus[variant.SKU] = variant.ID

	variant.ItemID = existing.ItemID
	variant.StockQuantity = existing.StockQuantity
	variant.CreatedAt = existing.CreatedAt
	variant.UpdatedAt = s.now().UTC()
	s.variants[variant.ID] = *variant
	return nil
}

// DeleteVariant removes the variant and its movement history.
func (s *Store) DeleteVariant(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.variants[id]; !ok {
		return domain.ErrVariantNotFound
	}
	s.deleteVariantLocked(id)
	return nil
}

func (s *Store) deleteVariantLocked(id int64) {
	delete(s.skus, s.variants[id].SKU)
	delete(s.variants, id)
	delete(s.movements, id)
}
