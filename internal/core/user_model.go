package core

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Role is a user's back-office role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleSupplier Role = "supplier"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleStaff, RoleSupplier:
		return r, nil
	}
	return "", validationErrorf("unknown role %q", s)
}

// User represents an authenticated system user.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserInput holds the fields required to create a user.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// UserService provides user lookup and credential operations.
type UserService interface {
	// CreateUser stores a new user with a bcrypt password hash.
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)

	// Authenticate verifies credentials for an active user.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// GetByUsername finds an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)
}

// Action is a permission checked against a Principal before any mutation.
type Action string

const (
	ActionViewBackOffice   Action = "view_back_office"
	ActionManageCatalog    Action = "manage_catalog"
	ActionManageInventory  Action = "manage_inventory"
	ActionManageOrders     Action = "manage_orders"
	ActionManageInvoices   Action = "manage_invoices"
	ActionManageShipments  Action = "manage_shipments"
	ActionManagePurchasing Action = "manage_purchasing"
	ActionConfirmPurchase  Action = "confirm_purchase_order"
	ActionViewPurchasing   Action = "view_purchasing"
	ActionManageSuppliers  Action = "manage_suppliers"
	ActionManageUsers      Action = "manage_users"
)

var backOfficeRoles = []Role{RoleAdmin, RoleManager, RoleStaff}

var permissions = map[Action][]Role{
	ActionViewBackOffice:   backOfficeRoles,
	ActionManageCatalog:    backOfficeRoles,
	ActionManageInventory:  backOfficeRoles,
	ActionManageOrders:     backOfficeRoles,
	ActionManageInvoices:   backOfficeRoles,
	ActionManageShipments:  backOfficeRoles,
	ActionManagePurchasing: {RoleAdmin, RoleStaff},
	ActionConfirmPurchase:  {RoleAdmin, RoleStaff, RoleSupplier},
	ActionViewPurchasing:   {RoleAdmin, RoleManager, RoleStaff, RoleSupplier},
	ActionManageSuppliers:  {RoleAdmin, RoleStaff},
	ActionManageUsers:      {RoleAdmin},
}

// Principal is the authenticated caller of an operation. It is passed
// explicitly to every mutating call.
type Principal struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	// SupplierID is set when Role is supplier and the user is linked to a supplier record.
	SupplierID *int `json:"supplier_id,omitempty"`
}

// Can reports whether the principal's role grants action.
func (p Principal) Can(action Action) bool {
	return slices.Contains(permissions[action], p.Role)
}

// Require returns ErrForbidden unless the principal may perform action.
func (p Principal) Require(action Action) error {
	if !p.Can(action) {
		return fmt.Errorf("%w: role %q may not %s", ErrForbidden, p.Role, action)
	}
	return nil
}

// IsSupplier reports whether the principal acts on behalf of a supplier.
func (p Principal) IsSupplier() bool {
	return p.Role == RoleSupplier
}

// OwnsSupplier reports whether a supplier principal is linked to supplierID.
func (p Principal) OwnsSupplier(supplierID int) bool {
	return p.SupplierID != nil && *p.SupplierID == supplierID
}

// requireSupplierAccess lets staff through and restricts suppliers to their own records.
func (p Principal) requireSupplierAccess(supplierID int) error {
	if p.IsSupplier() && !p.OwnsSupplier(supplierID) {
		return fmt.Errorf("%w: supplier may only access its own purchase orders", ErrForbidden)
	}
	return nil
}
