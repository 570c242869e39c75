package core

import (
	"context"
	"time"
)

// Supplier is a goods supplier. A supplier may be linked to one supplier-role user,
// who can then see and confirm that supplier's purchase orders.
type Supplier struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	UserID        *int      `json:"user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SupplierInput holds the editable supplier fields.
type SupplierInput struct {
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	UserID        *int
}

// SupplierService provides supplier master data operations.
type SupplierService interface {
	// CreateSupplier creates a supplier, optionally linked to a supplier-role user.
	CreateSupplier(ctx context.Context, p Principal, input SupplierInput) (*Supplier, error)

	// UpdateSupplier replaces the editable fields of a supplier.
	UpdateSupplier(ctx context.Context, p Principal, supplierID int, input SupplierInput) (*Supplier, error)

	GetSupplier(ctx context.Context, supplierID int) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)

	// SupplierForUser returns the supplier linked to userID, or ErrNotFound.
	SupplierForUser(ctx context.Context, userID int) (*Supplier, error)
}
