package domain_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
)

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name      string
		item      *domain.Item
		wantError bool
		errorMsg  string
		wantName  string
	}{
		{
			name:     "valid_item",
			item:     &domain.Item{Name: "Classic Tee", Active: true},
			wantName: "Classic Tee",
		},
		{
			name:     "trims_name",
			item:     &domain.Item{Name: "  Hoodie\t"},
			wantName: "Hoodie",
		},
		{
			name:      "missing_name",
			item:      &domain.Item{Name: "  "},
			wantError: true,
			errorMsg:  "name is required",
		},
		{
			name:      "name_too_long",
			item:      &domain.Item{Name: strings.Repeat("x", 256)},
			wantError: true,
			errorMsg:  "name must be at most 255 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, tt.item.Name)
		})
	}
}

func TestVariant_Validate(t *testing.T) {
	valid := func() *domain.Variant {
		return &domain.Variant{
			ItemID:        1,
			SKU:           "TEE-BLK-M",
			Color:         "black",
			Size:          "M",
			Price:         decimal.NewFromFloat(19.99),
			StockQuantity: 4,
		}
	}

	tests := []struct {
		name      string
		mutate    func(v *domain.Variant)
		wantError bool
		errorMsg  string
	}{
		{name: "valid_variant", mutate: func(v *domain.Variant) {}},
		{name: "zero_stock", mutate: func(v *domain.Variant) { v.StockQuantity = 0 }},
		{name: "free_item", mutate: func(v *domain.Variant) { v.Price = decimal.Zero }},
		{name: "missing_sku", mutate: func(v *domain.Variant) { v.SKU = " " }, wantError: true, errorMsg: "sku is required"},
		{name: "sku_too_long", mutate: func(v *domain.Variant) { v.SKU = strings.Repeat("A", 65) }, wantError: true, errorMsg: "sku must be at most 64 characters"},
		{name: "negative_price", mutate: func(v *domain.Variant) { v.Price = decimal.NewFromInt(-1) }, wantError: true, errorMsg: "price cannot be negative"},
		{name: "negative_stock", mutate: func(v *domain.Variant) { v.StockQuantity = -1 }, wantError: true, errorMsg: "stock_quantity cannot be negative"},
		{name: "max_stock", mutate: func(v *domain.Variant) { v.StockQuantity = domain.MaxStockQuantity }},
		{name: "stock_beyond_max", mutate: func(v *domain.Variant) { v.StockQuantity = math.MaxInt }, wantError: true, errorMsg: "stock_quantity must be at most 2147483647"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := valid()
			tt.mutate(v)
			err := v.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
				assert.Equal(t, tt.errorMsg, err.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVariant_StockRecord(t *testing.T) {
	v := &domain.Variant{ID: 42, StockQuantity: 7}
	assert.Equal(t, domain.StockRecord{VariantID: 42, Quantity: 7}, v.StockRecord())
}

func TestParseMovementType(t *testing.T) {
	tests := []struct {
		input   string
		want    domain.MovementType
		wantErr bool
	}{
		{input: "OUT", want: domain.MovementOut},
		{input: "out", want: domain.MovementOut},
		{input: " adjustment ", want: domain.MovementAdjustment},
		{input: "IN", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("input_%q", tt.input), func(t *testing.T) {
			got, err := domain.ParseMovementType(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMovementConstructors(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sale := domain.NewSaleMovement(3, 2, at)
	assert.Equal(t, domain.MovementOut, sale.Type)
	assert.Equal(t, -2, sale.QuantityChange)
	assert.Equal(t, domain.ReasonSale, sale.Reason)
	assert.Equal(t, at, sale.CreatedAt)

	adj := domain.NewAdjustmentMovement(3, -4, "damaged", at)
	assert.Equal(t, domain.MovementAdjustment, adj.Type)
	assert.Equal(t, -4, adj.QuantityChange)
	assert.Equal(t, "damaged", adj.Reason)
}

func TestSortMovements(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)

	ms := []domain.Movement{
		{ID: 4, CreatedAt: t0},
		{ID: 2, CreatedAt: t1},
		{ID: 1, CreatedAt: t0},
		{ID: 3, CreatedAt: t1},
	}
	domain.SortMovements(ms)

	ids := make([]int64, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	assert.Equal(t, []int64{2, 3, 1, 4}, ids)
}

func TestErrors(t *testing.T) {
	t.Run("out_of_stock_matches_sentinel", func(t *testing.T) {
		err := fmt.Errorf("sell: %w", &domain.OutOfStockError{VariantID: 1, Requested: 3, Available: 2})
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
		assert.False(t, errors.Is(err, domain.ErrVariantNotFound))
		assert.Contains(t, err.Error(), "requested 3, available 2")
	})

	t.Run("validation_matches_invalid_argument", func(t *testing.T) {
		err := domain.NewValidationError("quantity", "must be positive")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Equal(t, "quantity must be positive", err.Error())
	})

	t.Run("storage_error_wraps_cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := domain.NewStorageError("insert movement", cause)
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.ErrorIs(t, err, cause)

		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "insert movement", se.Op)
	})

	t.Run("storage_error_keeps_domain_errors", func(t *testing.T) {
		assert.Nil(t, domain.NewStorageError("noop", nil))
		assert.Same(t, domain.ErrVariantNotFound, domain.NewStorageError("lookup", domain.ErrVariantNotFound))
	})

	t.Run("is_domain_error", func(t *testing.T) {
		assert.True(t, domain.IsDomainError(fmt.Errorf("wrapped: %w", domain.ErrExportNotFound)))
		assert.False(t, domain.IsDomainError(errors.New("plain")))
	})
}
