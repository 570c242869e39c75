package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerEntry is the immutable profit record of one sold order line. It lives
// exactly as long as its order item.
type LedgerEntry struct {
	ID           int             `json:"id"`
	ProductID    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	OrderItemID  int             `json:"order_item_id"`
	OrderID      int             `json:"order_id"`
	QuantitySold int             `json:"quantity_sold"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Profit       decimal.Decimal `json:"profit"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProductProfit aggregates ledger entries for one product.
type ProductProfit struct {
	ProductID    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	SKU          string          `json:"sku"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Cost         decimal.Decimal `json:"cost"`
	Profit       decimal.Decimal `json:"profit"`
}

// LedgerFilter narrows ListEntries. Zero values mean no filter.
type LedgerFilter struct {
	ProductID *int
	From      *time.Time
	To        *time.Time
}

// Ledger records and reports per-line profit.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// RecordInTx writes the ledger entry for a saved order item inside the caller's TX,
// so the entry and the item commit together or not at all.
func (l *Ledger) RecordInTx(ctx context.Context, tx pgx.Tx, item OrderItem) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (product_id, order_item_id, quantity_sold, cost_price, selling_price, profit)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ProductID, item.ID, item.Quantity, item.UnitCostPrice, item.UnitSellingPrice, item.TotalProfit)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry for order item %d: %w", item.ID, err)
	}
	return nil
}

// ListEntries returns ledger entries of non-cancelled orders, newest first.
func (l *Ledger) ListEntries(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	query := `
		SELECT le.id, le.product_id, p.name, le.order_item_id, oi.order_id, le.quantity_sold,
		       le.cost_price, le.selling_price, le.profit, le.created_at
		FROM ledger_entries le
		JOIN products p     ON p.id = le.product_id
		JOIN order_items oi ON oi.id = le.order_item_id
		JOIN orders o       ON o.id = oi.order_id
		WHERE o.status <> 'cancelled'`
	var args []any
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		query += fmt.Sprintf(" AND le.product_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND le.created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND le.created_at < $%d", len(args))
	}
	query += " ORDER BY le.created_at DESC, le.id DESC"

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.ProductName, &e.OrderItemID, &e.OrderID,
			&e.QuantitySold, &e.CostPrice, &e.SellingPrice, &e.Profit, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ProductProfit aggregates quantity, revenue, cost and profit per product, most profitable first.
func (l *Ledger) ProductProfit(ctx context.Context) ([]ProductProfit, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT p.id, p.name, p.sku,
		       COALESCE(SUM(le.quantity_sold), 0),
		       COALESCE(SUM(le.quantity_sold * le.selling_price), 0),
		       COALESCE(SUM(le.quantity_sold * le.cost_price), 0),
		       COALESCE(SUM(le.profit), 0)
		FROM ledger_entries le
		JOIN products p     ON p.id = le.product_id
		JOIN order_items oi ON oi.id = le.order_item_id
		JOIN orders o       ON o.id = oi.order_id
		WHERE o.status <> 'cancelled'
		GROUP BY p.id, p.name, p.sku
		ORDER BY SUM(le.profit) DESC, p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query product profit: %w", err)
	}
	defer rows.Close()

	var out []ProductProfit
	for rows.Next() {
		var pp ProductProfit
		if err := rows.Scan(&pp.ProductID, &pp.ProductName, &pp.SKU, &pp.QuantitySold,
			&pp.Revenue, &pp.Cost, &pp.Profit); err != nil {
			return nil, fmt.Errorf("scan product profit: %w", err)
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}
