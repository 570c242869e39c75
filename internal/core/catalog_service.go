package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogService struct {
	pool *pgxpool.Pool
}

// NewCatalogService constructs a CatalogService backed by PostgreSQL.
func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

const productColumns = `
	p.id, p.name, p.category_id, c.name, p.sku, p.cost_price, p.selling_price,
	p.created_by, p.created_at, p.updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.SKU,
		&p.CostPrice, &p.SellingPrice, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
}

// ── Categories ────────────────────────────────────────────────────────────────

func (s *catalogService) CreateCategory(ctx context.Context, p Principal, name string) (*Category, error) {
	if err := p.Require(ActionManageCatalog); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("category name is required")
	}

	var c Category
	err := s.pool.QueryRow(ctx,
		"INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at", name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, conflictErrorf("category %q already exists", name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ── Products ──────────────────────────────────────────────────────────────────

func validateProductInput(input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if input.Name == "" {
		return validationErrorf("product name is required")
	}
	if input.SKU == "" {
		return validationErrorf("SKU is required")
	}
	if err := checkLength("product name", input.Name, 255); err != nil {
		return err
	}
	if err := checkLength("SKU", input.SKU, 50); err != nil {
		return err
	}
	if input.CostPrice.IsNegative() {
		return validationErrorf("cost price cannot be negative, got %s", input.CostPrice)
	}
	if input.SellingPrice.IsNegative() {
		return validationErrorf("selling price cannot be negative, got %s", input.SellingPrice)
	}
	if err := CheckAmount("cost price", input.CostPrice); err != nil {
		return err
	}
	return CheckAmount("selling price", input.SellingPrice)
}

func (s *catalogService) checkCategory(ctx context.Context, categoryID *int) error {
	if categoryID == nil {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)", *categoryID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("validate category: %w", err)
	}
	if !exists {
		return notFoundErrorf("category %d", *categoryID)
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, p Principal, input ProductInput) (*Product, error) {
	if err := p.Require(ActionManageCatalog); err != nil {
		return nil, err
	}
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, category_id, sku, cost_price, selling_price, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		input.Name, input.CategoryID, input.SKU, input.CostPrice, input.SellingPrice, p.UserID,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, conflictErrorf("SKU %q already exists", input.SKU)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) UpdateProduct(ctx context.Context, p Principal, productID int, input ProductInput) (*Product, error) {
	if err := p.Require(ActionManageCatalog); err != nil {
		return nil, err
	}
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET name = $1, category_id = $2, sku = $3, cost_price = $4, selling_price = $5, updated_at = NOW()
		WHERE id = $6`,
		input.Name, input.CategoryID, input.SKU, input.CostPrice, input.SellingPrice, productID,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, conflictErrorf("SKU %q already exists", input.SKU)
		}
		return nil, fmt.Errorf("update product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFoundErrorf("product %d", productID)
	}
	return s.GetProduct(ctx, productID)
}

func (s *catalogService) GetProduct(ctx context.Context, productID int) (*Product, error) {
	return getProductQ(ctx, s.pool, productID)
}

func getProductQ(ctx context.Context, q pgxQuerier, productID int) (*Product, error) {
	var p Product
	err := scanProduct(q.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, productID), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("product %d", productID)
		}
		return nil, fmt.Errorf("fetch product %d: %w", productID, err)
	}
	return &p, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE 1=1`
	var args []any
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" AND p.category_id = $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.sku ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY p.name, p.id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
