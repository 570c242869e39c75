package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every service error wraps exactly one of these so adapters can
// map failures to a response without parsing messages.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("access denied")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// StockShortfall describes one inventory line that cannot cover a request.
type StockShortfall struct {
	InventoryItemID int    `json:"inventory_item_id"`
	ProductID       int    `json:"product_id"`
	ProductName     string `json:"product_name"`
	SKU             string `json:"sku"`
	Unit            Unit   `json:"unit"`
	Available       int    `json:"available"`
	Requested       int    `json:"requested"`
	Deficit         int    `json:"deficit"`
}

// InsufficientStockError aborts a whole batch and lists every line that fell short.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (%s, %s): available %d, requested %d, short by %d",
			s.ProductName, s.SKU, s.Unit, s.Available, s.Requested, s.Deficit))
	}
	return "insufficient stock for " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
