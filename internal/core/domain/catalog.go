package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength = 255
	maxSKULength  = 64
)

// MaxStockQuantity is the largest quantity a variant can hold. It matches the
// INTEGER stock_quantity column.
const MaxStockQuantity = math.MaxInt32

// Item groups the sellable variants of one product.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate normalizes and checks the item fields.
func (i *Item) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return NewValidationError("name", "is required")
	}
	if len(i.Name) > maxNameLength {
		return NewValidationError("name", "must be at most 255 characters")
	}
	return nil
}

// Variant is a sellable SKU of an item. StockQuantity is owned by the stock
// ledger; catalog updates never write it.
type Variant struct {
	ID            int64           `json:"id"`
	ItemID        int64           `json:"item_id"`
	SKU           string          `json:"sku"`
	Color         string          `json:"color,omitempty"`
	Size          string          `json:"size,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate normalizes and checks the variant fields.
func (v *Variant) Validate() error {
	v.SKU = strings.TrimSpace(v.SKU)
	v.Color = strings.TrimSpace(v.Color)
	v.Size = strings.TrimSpace(v.Size)

	if v.SKU == "" {
		return NewValidationError("sku", "is required")
	}
	if len(v.SKU) > maxSKULength {
		return NewValidationError("sku", "must be at most 64 characters")
	}
	if v.Price.IsNegative() {
		return NewValidationError("price", "cannot be negative")
	}
	if v.StockQuantity < 0 {
		return NewValidationError("stock_quantity", "cannot be negative")
	}
	if v.StockQuantity > MaxStockQuantity {
		return NewValidationError("stock_quantity", fmt.Sprintf("must be at most %d", MaxStockQuantity))
	}
	return nil
}

// StockRecord returns the ledger view of the variant.
func (v *Variant) StockRecord() StockRecord {
	return StockRecord{VariantID: v.ID, Quantity: v.StockQuantity}
}

// StockRecord is the per-variant quantity guarded by the stock ledger.
type StockRecord struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}
