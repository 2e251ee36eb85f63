package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the ledger, the catalog and the adapters.
var (
	ErrVariantNotFound = errors.New("variant not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfStock      = errors.New("out of stock")
	ErrDuplicateSKU    = errors.New("sku already exists")
	ErrExportNotFound  = errors.New("export not found")
	ErrStorage         = errors.New("storage failure")
)

// OutOfStockError reports a sale or adjustment that would drive a variant's
// quantity below zero. Requested is always a positive magnitude.
type OutOfStockError struct {
	VariantID int64
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("not enough stock for variant %d: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

// Is lets callers match with errors.Is(err, ErrOutOfStock).
func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}

// ValidationError is an argument problem detected before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// StorageError wraps a persistence failure. The surrounding unit of work has
// been rolled back by the time a caller sees it.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err unless it is nil or already a domain error.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// IsDomainError reports whether err carries one of the domain sentinels.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrVariantNotFound,
		ErrItemNotFound,
		ErrInvalidArgument,
		ErrOutOfStock,
		ErrDuplicateSKU,
		ErrExportNotFound,
		ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
