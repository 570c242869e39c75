package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderService struct {
	pool      *pgxpool.Pool
	inventory InventoryService
	ledger    *Ledger
	clock     Clock
}

func NewOrderService(pool *pgxpool.Pool, inventory InventoryService, ledger *Ledger, clock Clock) OrderService {
	return &orderService{pool: pool, inventory: inventory, ledger: ledger, clock: clock}
}

func validateCustomer(c *CustomerInfo) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	if c.Name == "" {
		return validationErrorf("customer name is required")
	}
	return nil
}

// ── Order Lifecycle ──────────────────────────────────────────────────────────

func (s *orderService) PlaceOrder(ctx context.Context, p Principal, input OrderInput) (*Order, error) {
	if err := p.Require(ActionManageOrders); err != nil {
		return nil, err
	}
	if err := validateCustomer(&input.Customer); err != nil {
		return nil, err
	}
	lines, err := normalizeOrderLines(input.Lines)
	if err != nil {
		return nil, err
	}

	orderDate := dateOnly(s.clock.Now())
	if input.OrderDate != nil {
		orderDate = dateOnly(*input.OrderDate)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (order_date, status, customer_name, customer_email, customer_phone, customer_address, ordered_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		orderDate, OrderPending, input.Customer.Name, input.Customer.Email,
		input.Customer.Phone, input.Customer.Address, p.UserID,
	).Scan(&orderID); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := s.saveItemsTx(ctx, tx, p, orderID, lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) EditOrder(ctx context.Context, p Principal, orderID int, input OrderInput) (*Order, error) {
	if err := p.Require(ActionManageOrders); err != nil {
		return nil, err
	}
	if err := validateCustomer(&input.Customer); err != nil {
		return nil, err
	}
	lines, err := normalizeOrderLines(input.Lines)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !status.Editable() {
		return nil, conflictErrorf("order %d cannot be edited: status is %s", orderID, status)
	}

	var paid bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM invoices WHERE order_id = $1 AND payment_status = 'paid')", orderID,
	).Scan(&paid); err != nil {
		return nil, fmt.Errorf("check invoice for order %d: %w", orderID, err)
	}
	if paid {
		return nil, conflictErrorf("order %d cannot be edited: its invoice is paid", orderID)
	}

	oldItems, err := fetchOrderItemsQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	// Lock old and new lines together so the restore and the re-decrement see
	// one consistent snapshot and locks are taken in a single ascending pass.
	lockIDs := make([]int, 0, len(oldItems)+len(lines))
	for _, it := range oldItems {
		lockIDs = append(lockIDs, it.InventoryItemID)
	}
	for _, l := range lines {
		lockIDs = append(lockIDs, l.InventoryItemID)
	}
	if _, err := s.inventory.LockItemsTx(ctx, tx, lockIDs); err != nil {
		return nil, err
	}

	if len(oldItems) > 0 {
		if err := s.inventory.IncrementTx(ctx, tx, itemChanges(oldItems), MovementRef{
			Type: MovementSaleRestore, OrderID: &orderID, UserID: &p.UserID, Notes: "order edit",
		}); err != nil {
			return nil, err
		}
	}

	// Ledger entries cascade with their items.
	if _, err := tx.Exec(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
		return nil, fmt.Errorf("delete items of order %d: %w", orderID, err)
	}

	update := `
		UPDATE orders
		SET customer_name = $1, customer_email = $2, customer_phone = $3, customer_address = $4, updated_at = NOW()`
	args := []any{input.Customer.Name, input.Customer.Email, input.Customer.Phone, input.Customer.Address}
	if input.OrderDate != nil {
		args = append(args, dateOnly(*input.OrderDate))
		update += fmt.Sprintf(", order_date = $%d", len(args))
	}
	args = append(args, orderID)
	update += fmt.Sprintf(" WHERE id = $%d", len(args))
	if _, err := tx.Exec(ctx, update, args...); err != nil {
		return nil, fmt.Errorf("update order %d: %w", orderID, err)
	}

	if err := s.saveItemsTx(ctx, tx, p, orderID, lines); err != nil {
		return nil, err
	}

	if err := recalculateOpenInvoiceTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order edit: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, p Principal, orderID int, status OrderStatus) (*Order, error) {
	if status == OrderCancelled {
		return s.CancelOrder(ctx, p, orderID)
	}
	if err := p.Require(ActionManageOrders); err != nil {
		return nil, err
	}
	if _, err := ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := transitionOrderTx(ctx, tx, orderID, status); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order status: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) CancelOrder(ctx context.Context, p Principal, orderID int) (*Order, error) {
	if err := p.Require(ActionManageOrders); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !status.CanTransitionTo(OrderCancelled) {
		return nil, conflictErrorf("order %d cannot be cancelled: status is %s", orderID, status)
	}

	items, err := fetchOrderItemsQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := s.inventory.IncrementTx(ctx, tx, itemChanges(items), MovementRef{
			Type: MovementSaleRestore, OrderID: &orderID, UserID: &p.UserID, Notes: "order cancelled",
		}); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2", OrderCancelled, orderID,
	); err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancel order: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

// saveItemsTx validates lines against locked inventory, consumes stock, writes
// items with captured prices and ledger entries, and refreshes the order totals.
func (s *orderService) saveItemsTx(ctx context.Context, tx pgx.Tx, p Principal, orderID int, lines []OrderLineInput) error {
	ids := make([]int, len(lines))
	changes := make([]StockChange, len(lines))
	for i, l := range lines {
		ids[i] = l.InventoryItemID
		changes[i] = StockChange{InventoryItemID: l.InventoryItemID, Quantity: l.Quantity}
	}

	locked, err := s.inventory.LockItemsTx(ctx, tx, ids)
	if err != nil {
		return err
	}
	for i, l := range lines {
		it := locked[l.InventoryItemID]
		if l.ProductID != nil && *l.ProductID != it.ProductID {
			return validationErrorf("line %d: inventory item %d does not belong to product %d", i+1, it.ID, *l.ProductID)
		}
	}

	if err := s.inventory.DecrementTx(ctx, tx, changes, MovementRef{
		Type: MovementSale, OrderID: &orderID, UserID: &p.UserID,
	}); err != nil {
		return err
	}

	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		it := locked[l.InventoryItemID]
		prices := ResolveUnitPrices(l.UnitSellingPrice, *it, it.product())
		total, profit := LineTotals(l.Quantity, prices.Selling, prices.Cost)

		item := OrderItem{
			OrderID:          orderID,
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			SKU:              it.SKU,
			InventoryItemID:  it.ID,
			Unit:             it.Unit,
			Quantity:         l.Quantity,
			UnitSellingPrice: prices.Selling,
			UnitCostPrice:    prices.Cost,
			TotalPrice:       total,
			TotalProfit:      profit,
			PriceSource:      prices.SellingSource,
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, inventory_item_id, unit, quantity,
			                         unit_selling_price, unit_cost_price, total_price, total_profit, price_source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			item.OrderID, item.ProductID, item.InventoryItemID, item.Unit, item.Quantity,
			item.UnitSellingPrice, item.UnitCostPrice, item.TotalPrice, item.TotalProfit, item.PriceSource,
		).Scan(&item.ID); err != nil {
			return fmt.Errorf("insert order item for inventory item %d: %w", it.ID, err)
		}
		if err := s.ledger.RecordInTx(ctx, tx, item); err != nil {
			return err
		}
		items = append(items, item)
	}

	qty, value, profit := SumOrder(items)
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET quantity = $1, total_value = $2, total_profit = $3, updated_at = NOW()
		WHERE id = $4`,
		qty, value, profit, orderID,
	); err != nil {
		return fmt.Errorf("update totals of order %d: %w", orderID, err)
	}
	return nil
}

func itemChanges(items []OrderItem) []StockChange {
	changes := make([]StockChange, len(items))
	for i, it := range items {
		changes[i] = StockChange{InventoryItemID: it.InventoryItemID, Quantity: it.Quantity}
	}
	return changes
}

// lockOrderTx locks the order row and returns its status.
func lockOrderTx(ctx context.Context, tx pgx.Tx, orderID int) (OrderStatus, error) {
	var status OrderStatus
	err := tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", notFoundErrorf("order %d", orderID)
		}
		return "", fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	return status, nil
}

// transitionOrderTx moves a non-cancelling transition under the order row lock.
func transitionOrderTx(ctx context.Context, tx pgx.Tx, orderID int, next OrderStatus) error {
	current, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(next) {
		return conflictErrorf("order %d cannot move from %s to %s", orderID, current, next)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2", next, orderID,
	); err != nil {
		return fmt.Errorf("update status of order %d: %w", orderID, err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

const orderSelect = `
	SELECT id, order_date, status, customer_name, customer_email, customer_phone, customer_address,
	       quantity, total_value, total_profit, legacy_product_id, ordered_by, created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(&o.ID, &o.OrderDate, &o.Status,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.Address,
		&o.Quantity, &o.TotalValue, &o.TotalProfit, &o.LegacyProductID, &o.OrderedBy,
		&o.CreatedAt, &o.UpdatedAt)
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	var o Order
	if err := scanOrder(s.pool.QueryRow(ctx, orderSelect+" WHERE id = $1", orderID), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("order %d", orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	items, err := fetchOrderItemsQ(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	query := orderSelect + " WHERE 1=1"
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (customer_name ILIKE $%d OR customer_email ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func fetchOrderItemsQ(ctx context.Context, q pgxRowQuerier, orderID int) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, p.sku, oi.inventory_item_id, oi.unit, oi.quantity,
		       oi.unit_selling_price, oi.unit_cost_price, oi.total_price, oi.total_profit, oi.price_source
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.SKU,
			&it.InventoryItemID, &it.Unit, &it.Quantity, &it.UnitSellingPrice, &it.UnitCostPrice,
			&it.TotalPrice, &it.TotalProfit, &it.PriceSource); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
