// internal/adapters/redis_adapter/manager.go
package redis_a

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const (
	defaultExportStatusTTL = 7 * 24 * time.Hour
	defaultAlertTTL        = 72 * time.Hour

	// defaultFenceTTL must outlast a repository read followed by SetVariant.
	defaultFenceTTL = 5 * time.Second
)

// CacheStats holds cache statistics
type CacheStats struct {
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Sets      int64     `json:"sets"`
	Deletes   int64     `json:"deletes"`
	HitRate   float64   `json:"hit_rate"`
	LastReset time.Time `json:"last_reset"`
}

// CacheManager layers the variant read cache, export status tracking and
// low-stock alert records on top of a CacheRepository.
type CacheManager struct {
	cache     ports.CacheRepository
	exportTTL time.Duration
	alertTTL  time.Duration
	fenceTTL  time.Duration
	logger    *slog.Logger

	hits, misses, sets, deletes atomic.Int64
	lastReset                   atomic.Pointer[time.Time]
}

var (
	_ ports.VariantCache      = (*CacheManager)(nil)
	_ ports.ExportStatusStore = (*CacheManager)(nil)
	_ ports.AlertStore        = (*CacheManager)(nil)
)

// NewCacheManager creates a new cache manager
func NewCacheManager(cache ports.CacheRepository, logger *slog.Logger) *CacheManager {
	m := &CacheManager{
		cache:     cache,
		exportTTL: defaultExportStatusTTL,
		alertTTL:  defaultAlertTTL,
		fenceTTL:  defaultFenceTTL,
		logger:    logger.With(slog.String("component", "cache_manager")),
	}
	now := time.Now()
	m.lastReset.Store(&now)
	return m
}

func variantKey(id int64) string {
	return BuildKey(PrefixVariant, strconv.FormatInt(id, 10))
}

func variantFenceKey(id int64) string {
	return BuildKey(PrefixVariant, strconv.FormatInt(id, 10), "fence")
}

func itemVariantsKey(itemID int64) string {
	return BuildKey(PrefixItem, strconv.FormatInt(itemID, 10), "variants")
}

// GetVariant returns the cached variant and whether it was found.
func (m *CacheManager) GetVariant(ctx context.Context, id int64) (*domain.Variant, bool, error) {
	var v domain.Variant
	if err := m.cache.Get(ctx, variantKey(id), &v); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			m.misses.Add(1)
			return nil, false, nil
		}
		return nil, false, err
	}
	m.hits.Add(1)
	return &v, true, nil
}

// SetVariant caches a variant and records it under its item so the whole
// item can be invalidated at once. A variant invalidated within the fence
// TTL is not cached, since the copy may have been read before the change.
func (m *CacheManager) SetVariant(ctx context.Context, v *domain.Variant) error {
	fenced, err := m.cache.Exists(ctx, variantFenceKey(v.ID))
	if err != nil {
		return err
	}
	if fenced {
		m.logger.DebugContext(ctx, "skipping cache fill of recently changed variant",
			slog.Int64("variant_id", v.ID))
		return nil
	}

	if err := m.cache.Set(ctx, variantKey(v.ID), v); err != nil {
		return err
	}
	m.sets.Add(1)

	// An invalidation may have landed between the check and the write.
	if fenced, err := m.cache.Exists(ctx, variantFenceKey(v.ID)); err != nil || fenced {
		if delErr := m.cache.Delete(ctx, variantKey(v.ID)); delErr != nil {
			return delErr
		}
		m.deletes.Add(1)
		return err
	}

	if err := m.cache.Set(ctx, BuildKey(PrefixItem, strconv.FormatInt(v.ItemID, 10), "variants", strconv.FormatInt(v.ID, 10)), v.ID); err != nil {
		m.logger.WarnContext(ctx, "failed to index cached variant",
			slog.Int64("variant_id", v.ID),
			slog.String("error", err.Error()))
	}
	return nil
}

// InvalidateVariant drops the cached copy of a variant and fences it against
// refills from reads that started before the change.
func (m *CacheManager) InvalidateVariant(ctx context.Context, id int64) error {
	if err := m.cache.SetWithTTL(ctx, variantFenceKey(id), time.Now().UTC(), m.fenceTTL); err != nil {
		return err
	}
	if err := m.cache.Delete(ctx, variantKey(id)); err != nil {
		return err
	}
	m.deletes.Add(1)
	return nil
}

// InvalidateItem drops every cached variant that belongs to itemID.
func (m *CacheManager) InvalidateItem(ctx context.Context, itemID int64) error {
	indexKeys, err := m.cache.Keys(ctx, itemVariantsKey(itemID)+":*")
	if err != nil {
		return err
	}
	if len(indexKeys) == 0 {
		return nil
	}

	keys := make([]string, 0, len(indexKeys)*2)
	for _, indexKey := range indexKeys {
		var variantID int64
		if err := m.cache.Get(ctx, indexKey, &variantID); err == nil {
			keys = append(keys, variantKey(variantID))
		}
		keys = append(keys, indexKey)
	}
	if err := m.cache.Delete(ctx, keys...); err != nil {
		return err
	}
	m.deletes.Add(int64(len(keys)))

	m.logger.DebugContext(ctx, "invalidated item variants",
		slog.Int64("item_id", itemID),
		slog.Int("keys", len(keys)))
	return nil
}

// SaveExportStatus stores the latest status of an export.
func (m *CacheManager) SaveExportStatus(ctx context.Context, status *ports.ExportStatus) error {
	return m.cache.SetWithTTL(ctx, BuildKey(PrefixExport, status.ExportID), status, m.exportTTL)
}

// GetExportStatus returns domain.ErrExportNotFound for unknown or expired ids.
func (m *CacheManager) GetExportStatus(ctx context.Context, exportID string) (*ports.ExportStatus, error) {
	var status ports.ExportStatus
	if err := m.cache.Get(ctx, BuildKey(PrefixExport, exportID), &status); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, domain.ErrExportNotFound
		}
		return nil, err
	}
	return &status, nil
}

// RecordLowStock stores the alert, replacing any earlier one for the variant.
func (m *CacheManager) RecordLowStock(ctx context.Context, alert ports.LowStockAlert) error {
	key := BuildKey(PrefixLowStock, strconv.FormatInt(alert.VariantID, 10))
	return m.cache.SetWithTTL(ctx, key, alert, m.alertTTL)
}

// ListLowStock returns the open alerts ordered by variant id.
func (m *CacheManager) ListLowStock(ctx context.Context) ([]ports.LowStockAlert, error) {
	keys, err := m.cache.Keys(ctx, BuildKey(PrefixLowStock, "*"))
	if err != nil {
		return nil, err
	}

	alerts := make([]ports.LowStockAlert, 0, len(keys))
	for _, key := range keys {
		var alert ports.LowStockAlert
		if err := m.cache.Get(ctx, key, &alert); err != nil {
			if errors.Is(err, ErrCacheMiss) {
				continue
			}
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	slices.SortFunc(alerts, func(a, b ports.LowStockAlert) int {
		return cmp.Compare(a.VariantID, b.VariantID)
	})
	return alerts, nil
}

// ClearLowStock acknowledges the alert for a variant.
func (m *CacheManager) ClearLowStock(ctx context.Context, variantID int64) error {
	return m.cache.Delete(ctx, BuildKey(PrefixLowStock, strconv.FormatInt(variantID, 10)))
}

// GetStats returns cache statistics
func (m *CacheManager) GetStats() CacheStats {
	stats := CacheStats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Sets:      m.sets.Load(),
		Deletes:   m.deletes.Load(),
		LastReset: *m.lastReset.Load(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// ResetStats resets cache statistics
func (m *CacheManager) ResetStats() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.sets.Store(0)
	m.deletes.Store(0)
	now := time.Now()
	m.lastReset.Store(&now)
}
