package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type supplierService struct {
	pool *pgxpool.Pool
}

// NewSupplierService constructs a SupplierService backed by PostgreSQL.
func NewSupplierService(pool *pgxpool.Pool) SupplierService {
	return &supplierService{pool: pool}
}

const supplierColumns = "id, name, contact_person, email, phone, address, user_id, created_at"

func scanSupplier(row pgx.Row, s *Supplier) error {
	return row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.UserID, &s.CreatedAt)
}

func validateSupplierInput(input *SupplierInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.ContactPerson = strings.TrimSpace(input.ContactPerson)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
	if input.Name == "" {
		return validationErrorf("supplier name is required")
	}
	return nil
}

// checkSupplierUser requires a linked user to exist and hold the supplier role.
func checkSupplierUser(ctx context.Context, q pgxQuerier, userID *int) error {
	if userID == nil {
		return nil
	}
	var role Role
	err := q.QueryRow(ctx, "SELECT role FROM users WHERE id = $1", *userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundErrorf("user %d", *userID)
		}
		return fmt.Errorf("check supplier user %d: %w", *userID, err)
	}
	if role != RoleSupplier {
		return validationErrorf("user %d has role %q, only supplier users can be linked", *userID, role)
	}
	return nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, p Principal, input SupplierInput) (*Supplier, error) {
	if err := p.Require(ActionManageSuppliers); err != nil {
		return nil, err
	}
	if err := validateSupplierInput(&input); err != nil {
		return nil, err
	}
	if err := checkSupplierUser(ctx, s.pool, input.UserID); err != nil {
		return nil, err
	}

	var sup Supplier
	err := scanSupplier(s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact_person, email, phone, address, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+supplierColumns,
		input.Name, input.ContactPerson, input.Email, input.Phone, input.Address, input.UserID,
	), &sup)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, conflictErrorf("user %d is already linked to a supplier", *input.UserID)
		}
		return nil, fmt.Errorf("create supplier %q: %w", input.Name, err)
	}
	return &sup, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, p Principal, supplierID int, input SupplierInput) (*Supplier, error) {
	if err := p.Require(ActionManageSuppliers); err != nil {
		return nil, err
	}
	if err := validateSupplierInput(&input); err != nil {
		return nil, err
	}
	if err := checkSupplierUser(ctx, s.pool, input.UserID); err != nil {
		return nil, err
	}

	var sup Supplier
	err := scanSupplier(s.pool.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $1, contact_person = $2, email = $3, phone = $4, address = $5, user_id = $6
		WHERE id = $7
		RETURNING `+supplierColumns,
		input.Name, input.ContactPerson, input.Email, input.Phone, input.Address, input.UserID, supplierID,
	), &sup)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("supplier %d", supplierID)
		}
		if isUniqueViolation(err, "") {
			return nil, conflictErrorf("user %d is already linked to a supplier", *input.UserID)
		}
		return nil, fmt.Errorf("update supplier %d: %w", supplierID, err)
	}
	return &sup, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, supplierID int) (*Supplier, error) {
	return getSupplierQ(ctx, s.pool, supplierID)
}

func getSupplierQ(ctx context.Context, q pgxQuerier, supplierID int) (*Supplier, error) {
	var sup Supplier
	err := scanSupplier(q.QueryRow(ctx, "SELECT "+supplierColumns+" FROM suppliers WHERE id = $1", supplierID), &sup)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("supplier %d", supplierID)
		}
		return nil, fmt.Errorf("get supplier %d: %w", supplierID, err)
	}
	return &sup, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+supplierColumns+" FROM suppliers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var sup Supplier
		if err := scanSupplier(rows, &sup); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (s *supplierService) SupplierForUser(ctx context.Context, userID int) (*Supplier, error) {
	var sup Supplier
	err := scanSupplier(s.pool.QueryRow(ctx, "SELECT "+supplierColumns+" FROM suppliers WHERE user_id = $1", userID), &sup)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("no supplier linked to user %d", userID)
		}
		return nil, fmt.Errorf("get supplier for user %d: %w", userID, err)
	}
	return &sup, nil
}
