package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

const inventoryItemSelect = `
	SELECT ii.id, ii.product_id, p.name, p.sku, ii.unit, ii.quantity, ii.description, ii.location,
	       ii.unit_cost_price, ii.unit_selling_price, p.cost_price, p.selling_price,
	       ii.added_on, ii.updated_at
	FROM inventory_items ii
	JOIN products p ON p.id = ii.product_id`

func scanInventoryItem(row pgx.Row) (*InventoryItem, error) {
	var it InventoryItem
	if err := row.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.SKU, &it.Unit, &it.Quantity,
		&it.Description, &it.Location, &it.UnitCostPrice, &it.UnitSellingPrice,
		&it.productCost, &it.productSelling, &it.AddedOn, &it.UpdatedAt); err != nil {
		return nil, err
	}
	prices := ResolveUnitPrices(nil, it, it.product())
	it.EffectiveCostPrice = prices.Cost
	it.EffectiveSellingPrice = prices.Selling
	return &it, nil
}

func getInventoryItemQ(ctx context.Context, q pgxQuerier, itemID int) (*InventoryItem, error) {
	it, err := scanInventoryItem(q.QueryRow(ctx, inventoryItemSelect+" WHERE ii.id = $1", itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("inventory item %d", itemID)
		}
		return nil, fmt.Errorf("fetch inventory item %d: %w", itemID, err)
	}
	return it, nil
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *inventoryService) ListItems(ctx context.Context, filter InventoryFilter) ([]InventoryItem, error) {
	query := inventoryItemSelect
	var args []any
	if filter.ProductID != nil {
		query += " WHERE ii.product_id = $1"
		args = append(args, *filter.ProductID)
	}
	query += " ORDER BY p.name, ii.unit"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory items: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *inventoryService) GetItem(ctx context.Context, itemID int) (*InventoryItem, error) {
	return getInventoryItemQ(ctx, s.pool, itemID)
}

func (s *inventoryService) AddItem(ctx context.Context, p Principal, input AddInventoryInput) (*InventoryItem, error) {
	if err := p.Require(ActionManageInventory); err != nil {
		return nil, err
	}
	unit, err := NormalizeUnit(input.Unit)
	if err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, validationErrorf("quantity cannot be negative, got %d", input.Quantity)
	}
	if input.UnitCostPrice != nil && input.UnitCostPrice.IsNegative() {
		return nil, validationErrorf("unit cost price cannot be negative")
	}
	if input.UnitSellingPrice != nil && input.UnitSellingPrice.IsNegative() {
		return nil, validationErrorf("unit selling price cannot be negative")
	}
	if input.UnitCostPrice != nil {
		if err := CheckAmount("unit cost price", *input.UnitCostPrice); err != nil {
			return nil, err
		}
	}
	if input.UnitSellingPrice != nil {
		if err := CheckAmount("unit selling price", *input.UnitSellingPrice); err != nil {
			return nil, err
		}
	}
	if err := checkLength("location", input.Location, 255); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := s.FindOrCreateTx(ctx, tx, InventoryKey{ProductID: input.ProductID, Unit: unit}, input.Quantity,
		LinePrices{Cost: input.UnitCostPrice, Selling: input.UnitSellingPrice}, input.Description,
		MovementRef{Type: MovementAdjustment, UserID: &p.UserID, Notes: "manual stock-in"})
	if err != nil {
		return nil, err
	}

	if input.Location != "" {
		if _, err := tx.Exec(ctx,
			"UPDATE inventory_items SET location = $1, updated_at = NOW() WHERE id = $2",
			input.Location, item.ID,
		); err != nil {
			return nil, fmt.Errorf("update inventory location: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock-in: %w", err)
	}
	return s.GetItem(ctx, item.ID)
}

func (s *inventoryService) AdjustQuantity(ctx context.Context, p Principal, itemID, delta int, notes string) (*InventoryItem, error) {
	if err := p.Require(ActionManageInventory); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, validationErrorf("adjustment must be non-zero")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ref := MovementRef{Type: MovementAdjustment, UserID: &p.UserID, Notes: notes}
	change := []StockChange{{InventoryItemID: itemID, Quantity: abs(delta)}}
	if delta < 0 {
		err = s.DecrementTx(ctx, tx, change, ref)
	} else {
		err = s.IncrementTx(ctx, tx, change, ref)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit adjustment: %w", err)
	}
	return s.GetItem(ctx, itemID)
}

func (s *inventoryService) ListMovements(ctx context.Context, itemID int) ([]InventoryMovement, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, inventory_item_id, movement_type, quantity, order_id, goods_receipt_id, user_id, notes, created_at
		FROM inventory_movements
		WHERE inventory_item_id = $1
		ORDER BY id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query inventory movements: %w", err)
	}
	defer rows.Close()

	var movements []InventoryMovement
	for rows.Next() {
		var m InventoryMovement
		if err := rows.Scan(&m.ID, &m.InventoryItemID, &m.MovementType, &m.Quantity,
			&m.OrderID, &m.GoodsReceiptID, &m.UserID, &m.Notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

func (s *inventoryService) FindOrCreateTx(ctx context.Context, tx pgx.Tx, key InventoryKey, qty int, prices LinePrices, description string, ref MovementRef) (*InventoryItem, error) {
	if qty < 0 {
		return nil, validationErrorf("stock-in quantity cannot be negative, got %d", qty)
	}
	var productExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", key.ProductID,
	).Scan(&productExists); err != nil {
		return nil, fmt.Errorf("validate product: %w", err)
	}
	if !productExists {
		return nil, notFoundErrorf("product %d", key.ProductID)
	}

	// Single statement: the conflict path takes the row lock, so concurrent
	// stock-ins for the same key add up instead of overwriting each other.
	var itemID int
	err := tx.QueryRow(ctx, `
		INSERT INTO inventory_items (product_id, unit, quantity, description, unit_cost_price, unit_selling_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, unit) DO UPDATE SET
			quantity           = inventory_items.quantity + EXCLUDED.quantity,
			unit_cost_price    = COALESCE(EXCLUDED.unit_cost_price, inventory_items.unit_cost_price),
			unit_selling_price = COALESCE(EXCLUDED.unit_selling_price, inventory_items.unit_selling_price),
			description        = CASE WHEN inventory_items.description = '' THEN EXCLUDED.description
			                          ELSE inventory_items.description END,
			updated_at         = NOW()
		RETURNING id
	`, key.ProductID, key.Unit, qty, description, prices.Cost, prices.Selling).Scan(&itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert inventory item: %w", err)
	}

	if qty > 0 {
		if err := insertMovementTx(ctx, tx, itemID, qty, ref); err != nil {
			return nil, err
		}
	}
	return getInventoryItemQ(ctx, tx, itemID)
}

func (s *inventoryService) LockItemsTx(ctx context.Context, tx pgx.Tx, itemIDs []int) (map[int]*InventoryItem, error) {
	ids := uniqueSorted(itemIDs)
	if len(ids) == 0 {
		return map[int]*InventoryItem{}, nil
	}

	// Ascending id order keeps lock acquisition consistent across concurrent batches.
	rows, err := tx.Query(ctx, inventoryItemSelect+`
		WHERE ii.id = ANY($1)
		ORDER BY ii.id
		FOR UPDATE OF ii
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory items: %w", err)
	}
	defer rows.Close()

	locked := make(map[int]*InventoryItem, len(ids))
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locked inventory item: %w", err)
		}
		locked[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked inventory items: %w", err)
	}

	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, notFoundErrorf("inventory item %d", id)
		}
	}
	return locked, nil
}

func (s *inventoryService) DecrementTx(ctx context.Context, tx pgx.Tx, changes []StockChange, ref MovementRef) error {
	totals, ids, err := aggregateChanges(changes)
	if err != nil {
		return err
	}
	locked, err := s.LockItemsTx(ctx, tx, ids)
	if err != nil {
		return err
	}

	var shortfalls []StockShortfall
	for _, id := range ids {
		it := locked[id]
		if it.Quantity < totals[id] {
			shortfalls = append(shortfalls, StockShortfall{
				InventoryItemID: it.ID,
				ProductID:       it.ProductID,
				ProductName:     it.ProductName,
				SKU:             it.SKU,
				Unit:            it.Unit,
				Available:       it.Quantity,
				Requested:       totals[id],
				Deficit:         totals[id] - it.Quantity,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &InsufficientStockError{Shortfalls: shortfalls}
	}

	for _, id := range ids {
		if _, err := tx.Exec(ctx,
			"UPDATE inventory_items SET quantity = quantity - $1, updated_at = NOW() WHERE id = $2",
			totals[id], id,
		); err != nil {
			return fmt.Errorf("failed to decrement inventory item %d: %w", id, err)
		}
		if err := insertMovementTx(ctx, tx, id, -totals[id], ref); err != nil {
			return err
		}
	}
	return nil
}

func (s *inventoryService) IncrementTx(ctx context.Context, tx pgx.Tx, changes []StockChange, ref MovementRef) error {
	totals, ids, err := aggregateChanges(changes)
	if err != nil {
		return err
	}
	if _, err := s.LockItemsTx(ctx, tx, ids); err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := tx.Exec(ctx,
			"UPDATE inventory_items SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2",
			totals[id], id,
		); err != nil {
			return fmt.Errorf("failed to increment inventory item %d: %w", id, err)
		}
		if err := insertMovementTx(ctx, tx, id, totals[id], ref); err != nil {
			return err
		}
	}
	return nil
}

func insertMovementTx(ctx context.Context, tx pgx.Tx, itemID, qty int, ref MovementRef) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements (inventory_item_id, movement_type, quantity, order_id, goods_receipt_id, user_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, itemID, ref.Type, qty, ref.OrderID, ref.GoodsReceiptID, ref.UserID, ref.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert %s movement for inventory item %d: %w", ref.Type, itemID, err)
	}
	return nil
}

// aggregateChanges sums quantities per line and returns the line ids in ascending order.
func aggregateChanges(changes []StockChange) (map[int]int, []int, error) {
	totals := make(map[int]int, len(changes))
	for _, c := range changes {
		if c.Quantity <= 0 {
			return nil, nil, validationErrorf("stock change for inventory item %d must be positive, got %d", c.InventoryItemID, c.Quantity)
		}
		totals[c.InventoryItemID] += c.Quantity
	}
	ids := make([]int, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return totals, ids, nil
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
