package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// MovementType classifies a stock movement.
type MovementType string

// Movement type constants
const (
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// ReasonSale is the reason recorded on every sale movement.
const ReasonSale = "SALE"

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// ParseMovementType parses a case-insensitive movement type.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("type", fmt.Sprintf("must be one of %s, %s", MovementOut, MovementAdjustment))
	}
	return t, nil
}

// Movement is one immutable entry of a variant's stock history.
type Movement struct {
	ID             int64        `json:"id"`
	VariantID      int64        `json:"variant_id"`
	Type           MovementType `json:"type"`
	QuantityChange int          `json:"quantity_change"`
	Reason         string       `json:"reason"`
	CreatedAt      time.Time    `json:"created_at"`
}

// NewSaleMovement records qty units leaving through a sale.
func NewSaleMovement(variantID int64, qty int, at time.Time) *Movement {
	return &Movement{
		VariantID:      variantID,
		Type:           MovementOut,
		QuantityChange: -qty,
		Reason:         ReasonSale,
		CreatedAt:      at,
	}
}

// NewAdjustmentMovement records a signed manual correction.
func NewAdjustmentMovement(variantID int64, delta int, reason string, at time.Time) *Movement {
	return &Movement{
		VariantID:      variantID,
		Type:           MovementAdjustment,
		QuantityChange: delta,
		Reason:         reason,
		CreatedAt:      at,
	}
}

// CompareMovements orders movements newest first, then by ascending id.
func CompareMovements(a, b Movement) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortMovements sorts ms in history order.
func SortMovements(ms []Movement) {
	slices.SortFunc(ms, CompareMovements)
}
