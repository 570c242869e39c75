package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type purchaseOrderService struct {
	pool      *pgxpool.Pool
	inventory InventoryService
	policy    OverReceiptPolicy
	clock     Clock
}

// NewPurchaseOrderService constructs a PurchaseOrderService backed by PostgreSQL.
func NewPurchaseOrderService(pool *pgxpool.Pool, inventory InventoryService, policy OverReceiptPolicy, clock Clock) PurchaseOrderService {
	if policy == "" {
		policy = OverReceiptReject
	}
	return &purchaseOrderService{pool: pool, inventory: inventory, policy: policy, clock: clock}
}

type resolvedPOLine struct {
	productID    int
	unit         Unit
	quantity     int
	unitPrice    decimal.Decimal
	sellingPrice *decimal.Decimal
	total        decimal.Decimal
}

func resolvePOLines(lines []POLineInput) ([]resolvedPOLine, decimal.Decimal, error) {
	var total decimal.Decimal
	out := make([]resolvedPOLine, 0, len(lines))
	for i, l := range lines {
		if l.Quantity < 0 {
			return nil, total, validationErrorf("line %d: quantity cannot be negative, got %d", i+1, l.Quantity)
		}
		if l.Quantity == 0 {
			continue
		}
		if l.ProductID <= 0 {
			return nil, total, validationErrorf("line %d: product is required", i+1)
		}
		if !l.UnitPrice.IsPositive() {
			return nil, total, validationErrorf("line %d: unit price must be greater than zero", i+1)
		}
		if l.UnitSellingPrice != nil && l.UnitSellingPrice.IsNegative() {
			return nil, total, validationErrorf("line %d: selling price cannot be negative", i+1)
		}
		if err := CheckAmount(fmt.Sprintf("line %d: unit price", i+1), l.UnitPrice); err != nil {
			return nil, total, err
		}
		if l.UnitSellingPrice != nil {
			if err := CheckAmount(fmt.Sprintf("line %d: selling price", i+1), *l.UnitSellingPrice); err != nil {
				return nil, total, err
			}
		}
		unit, err := NormalizeUnit(l.UnitType)
		if err != nil {
			return nil, total, fmt.Errorf("line %d: %w", i+1, err)
		}
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)
		out = append(out, resolvedPOLine{
			productID:    l.ProductID,
			unit:         unit,
			quantity:     l.Quantity,
			unitPrice:    l.UnitPrice,
			sellingPrice: l.UnitSellingPrice,
			total:        lineTotal,
		})
	}
	if len(out) == 0 {
		return nil, total, validationErrorf("purchase order must have at least one line with a positive quantity")
	}
	return out, total, nil
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

// CreatePO creates a draft purchase order. The PO number is drawn from the
// (PO, year) counter in the same transaction as the insert.
func (s *purchaseOrderService) CreatePO(ctx context.Context, p Principal, input CreatePOInput) (*PurchaseOrder, error) {
	if err := p.Require(ActionManagePurchasing); err != nil {
		return nil, err
	}
	lines, total, err := resolvePOLines(input.Lines)
	if err != nil {
		return nil, err
	}
	input.Notes = strings.TrimSpace(input.Notes)

	year := s.clock.Now().Year()
	poID, err := withDocumentNumberRetry(ctx, s.pool, PrefixPurchaseOrder, year, "purchase_orders_po_number_key",
		func() (int, error) { return s.createPOOnce(ctx, p, input, lines, total, year) })
	if err != nil {
		return nil, err
	}
	return s.GetPO(ctx, p, poID)
}

func (s *purchaseOrderService) createPOOnce(ctx context.Context, p Principal, input CreatePOInput, lines []resolvedPOLine, total decimal.Decimal, year int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := getSupplierQ(ctx, tx, input.SupplierID); err != nil {
		return 0, err
	}
	for i, l := range lines {
		if _, err := getProductQ(ctx, tx, l.productID); err != nil {
			return 0, fmt.Errorf("line %d: %w", i+1, err)
		}
	}

	poNumber, err := NextDocumentNumberTx(ctx, tx, PrefixPurchaseOrder, year)
	if err != nil {
		return 0, err
	}

	var expected any
	if input.ExpectedDeliveryDate != nil {
		expected = dateOnly(*input.ExpectedDeliveryDate)
	}

	var poID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (po_number, supplier_id, created_by, status, expected_delivery_date, notes, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		poNumber, input.SupplierID, p.UserID, PODraft, expected, input.Notes, total,
	).Scan(&poID); err != nil {
		return 0, fmt.Errorf("insert purchase order: %w", err)
	}

	for i, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_items
			            (purchase_order_id, line_number, product_id, unit_type, quantity_ordered,
			             unit_price, unit_selling_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			poID, i+1, l.productID, l.unit, l.quantity, l.unitPrice, l.sellingPrice, l.total,
		); err != nil {
			return 0, fmt.Errorf("insert PO line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit purchase order: %w", err)
	}
	return poID, nil
}

func (s *purchaseOrderService) SendPO(ctx context.Context, p Principal, poID int) (*PurchaseOrder, error) {
	if err := p.Require(ActionManagePurchasing); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, poID, POSent, "sent_at")
}

func (s *purchaseOrderService) ConfirmPO(ctx context.Context, p Principal, poID int) (*PurchaseOrder, error) {
	if err := p.Require(ActionConfirmPurchase); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, poID, POConfirmed, "confirmed_at")
}

func (s *purchaseOrderService) CancelPO(ctx context.Context, p Principal, poID int) (*PurchaseOrder, error) {
	if err := p.Require(ActionManagePurchasing); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, poID, POCancelled, "cancelled_at")
}

// transition moves a PO to next under a row lock and stamps the given timestamp column.
func (s *purchaseOrderService) transition(ctx context.Context, p Principal, poID int, next POStatus, stampColumn string) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	head, err := lockPOTx(ctx, tx, poID)
	if err != nil {
		return nil, err
	}
	if err := p.requireSupplierAccess(head.supplierID); err != nil {
		return nil, err
	}
	if !head.status.CanTransitionTo(next) {
		return nil, conflictErrorf("purchase order %s cannot move from %s to %s", head.poNumber, head.status, next)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE purchase_orders SET status = $1, %s = NOW(), updated_at = NOW() WHERE id = $2`, stampColumn),
		next, poID,
	); err != nil {
		return nil, fmt.Errorf("update purchase order %d status to %s: %w", poID, next, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order %d status: %w", poID, err)
	}
	return s.GetPO(ctx, p, poID)
}

type poHead struct {
	poNumber   string
	supplierID int
	status     POStatus
	total      decimal.Decimal
}

func lockPOTx(ctx context.Context, tx pgx.Tx, poID int) (poHead, error) {
	var h poHead
	err := tx.QueryRow(ctx,
		"SELECT po_number, supplier_id, status, total_amount FROM purchase_orders WHERE id = $1 FOR UPDATE",
		poID,
	).Scan(&h.poNumber, &h.supplierID, &h.status, &h.total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return h, notFoundErrorf("purchase order %d", poID)
		}
		return h, fmt.Errorf("failed to lock purchase order %d: %w", poID, err)
	}
	return h, nil
}

// ── Goods Receipt ────────────────────────────────────────────────────────────

func (s *purchaseOrderService) ReceiveGoods(ctx context.Context, p Principal, poID int, input ReceiveInput) (*GoodsReceipt, *PurchaseOrder, error) {
	if err := p.Require(ActionManagePurchasing); err != nil {
		return nil, nil, err
	}
	requested := make(map[int]int, len(input.Lines))
	order := make([]int, 0, len(input.Lines))
	for i, l := range input.Lines {
		if l.Quantity < 0 {
			return nil, nil, validationErrorf("line %d: received quantity cannot be negative, got %d", i+1, l.Quantity)
		}
		if l.Quantity == 0 {
			continue
		}
		if _, dup := requested[l.POItemID]; dup {
			return nil, nil, validationErrorf("line %d: purchase order item %d listed more than once", i+1, l.POItemID)
		}
		requested[l.POItemID] = l.Quantity
		order = append(order, l.POItemID)
	}
	if len(order) == 0 {
		return nil, nil, validationErrorf("at least one line must have a received quantity greater than zero")
	}
	input.Notes = strings.TrimSpace(input.Notes)

	year := s.clock.Now().Year()
	receiptID, err := withDocumentNumberRetry(ctx, s.pool, PrefixGoodsReceipt, year, "goods_receipts_receipt_number_key",
		func() (int, error) { return s.receiveOnce(ctx, p, poID, order, requested, input.Notes, year) })
	if err != nil {
		return nil, nil, err
	}

	receipt, err := s.GetReceipt(ctx, p, receiptID)
	if err != nil {
		return nil, nil, err
	}
	po, err := s.GetPO(ctx, p, poID)
	if err != nil {
		return nil, nil, err
	}
	return receipt, po, nil
}

func (s *purchaseOrderService) receiveOnce(ctx context.Context, p Principal, poID int, order []int, requested map[int]int, notes string, year int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	head, err := lockPOTx(ctx, tx, poID)
	if err != nil {
		return 0, err
	}
	if !head.status.Receivable() {
		return 0, conflictErrorf("purchase order %s cannot be received: status is %s", head.poNumber, head.status)
	}

	items, err := fetchPOItemsQ(ctx, tx, poID, true)
	if err != nil {
		return 0, err
	}
	byID := make(map[int]int, len(items))
	for i, it := range items {
		byID[it.ID] = i
	}

	type acceptedLine struct {
		index    int
		quantity int
	}
	var accepted []acceptedLine
	for _, itemID := range order {
		idx, ok := byID[itemID]
		if !ok {
			return 0, validationErrorf("item %d does not belong to purchase order %s", itemID, head.poNumber)
		}
		it := items[idx]
		qty, err := s.policy.Accept(it.QuantityOrdered, it.QuantityReceived, requested[itemID])
		if err != nil {
			return 0, fmt.Errorf("line %d (%s): %w", it.LineNumber, it.ProductName, err)
		}
		if qty == 0 {
			continue
		}
		accepted = append(accepted, acceptedLine{index: idx, quantity: qty})
	}
	if len(accepted) == 0 {
		return 0, validationErrorf("nothing is pending on the selected lines of purchase order %s", head.poNumber)
	}

	receiptNumber, err := NextDocumentNumberTx(ctx, tx, PrefixGoodsReceipt, year)
	if err != nil {
		return 0, err
	}
	var receiptID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO goods_receipts (receipt_number, purchase_order_id, received_by, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		receiptNumber, poID, p.UserID, notes,
	).Scan(&receiptID); err != nil {
		return 0, fmt.Errorf("insert goods receipt: %w", err)
	}

	for _, a := range accepted {
		it := &items[a.index]
		if _, err := tx.Exec(ctx,
			"UPDATE purchase_order_items SET quantity_received = quantity_received + $1 WHERE id = $2",
			a.quantity, it.ID,
		); err != nil {
			return 0, fmt.Errorf("update received quantity of PO line %d: %w", it.LineNumber, err)
		}
		it.QuantityReceived += a.quantity

		unitCost := it.UnitPrice
		inv, err := s.inventory.FindOrCreateTx(ctx, tx,
			InventoryKey{ProductID: it.ProductID, Unit: it.UnitType},
			a.quantity,
			LinePrices{Cost: &unitCost, Selling: it.UnitSellingPrice},
			"",
			MovementRef{Type: MovementReceipt, GoodsReceiptID: &receiptID, UserID: &p.UserID, Notes: receiptNumber},
		)
		if err != nil {
			return 0, fmt.Errorf("stock PO line %d: %w", it.LineNumber, err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO goods_receipt_items (goods_receipt_id, purchase_order_item_id, inventory_item_id, quantity_received)
			VALUES ($1, $2, $3, $4)`,
			receiptID, it.ID, inv.ID, a.quantity,
		); err != nil {
			return 0, fmt.Errorf("insert receipt line for PO line %d: %w", it.LineNumber, err)
		}
	}

	status := ReceiptStatus(items)
	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $1,
		    received_at = CASE WHEN $1 = 'received' THEN NOW() ELSE received_at END,
		    updated_at = NOW()
		WHERE id = $2`,
		status, poID,
	); err != nil {
		return 0, fmt.Errorf("update purchase order %d status to %s: %w", poID, status, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit goods receipt: %w", err)
	}
	return receiptID, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

const poSelect = `
	SELECT po.id, po.po_number, po.supplier_id, s.name, po.created_by, po.status,
	       po.expected_delivery_date, po.notes, po.total_amount, po.created_at, po.updated_at,
	       po.sent_at, po.confirmed_at, po.received_at, po.cancelled_at
	FROM purchase_orders po
	JOIN suppliers s ON s.id = po.supplier_id`

func scanPO(row pgx.Row, po *PurchaseOrder) error {
	return row.Scan(&po.ID, &po.PONumber, &po.SupplierID, &po.SupplierName, &po.CreatedBy, &po.Status,
		&po.ExpectedDeliveryDate, &po.Notes, &po.TotalAmount, &po.CreatedAt, &po.UpdatedAt,
		&po.SentAt, &po.ConfirmedAt, &po.ReceivedAt, &po.CancelledAt)
}

func (s *purchaseOrderService) GetPO(ctx context.Context, p Principal, poID int) (*PurchaseOrder, error) {
	if err := p.Require(ActionViewPurchasing); err != nil {
		return nil, err
	}
	var po PurchaseOrder
	if err := scanPO(s.pool.QueryRow(ctx, poSelect+" WHERE po.id = $1", poID), &po); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("purchase order %d", poID)
		}
		return nil, fmt.Errorf("get purchase order %d: %w", poID, err)
	}
	if err := p.requireSupplierAccess(po.SupplierID); err != nil {
		return nil, err
	}

	items, err := fetchPOItemsQ(ctx, s.pool, poID, false)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return &po, nil
}

// scopeSupplier returns the supplier filter to apply for p. Suppliers are pinned
// to their own records; others get requested.
func scopeSupplier(p Principal, requested *int) (*int, error) {
	if !p.IsSupplier() {
		return requested, nil
	}
	if p.SupplierID == nil {
		return nil, fmt.Errorf("%w: supplier account is not linked to a supplier", ErrForbidden)
	}
	return p.SupplierID, nil
}

// requirePurchasingRecords guards receipt and purchase invoice listings: purchasing
// staff see everything, suppliers see their own.
func requirePurchasingRecords(p Principal) error {
	if p.IsSupplier() {
		return p.Require(ActionViewPurchasing)
	}
	return p.Require(ActionManagePurchasing)
}

func (s *purchaseOrderService) ListPOs(ctx context.Context, p Principal, filter POFilter) (*POPage, error) {
	if err := p.Require(ActionViewPurchasing); err != nil {
		return nil, err
	}
	supplierID, err := scopeSupplier(p, filter.SupplierID)
	if err != nil {
		return nil, err
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPOPageSize
	}
	size = min(size, maxPOPageSize)

	where := " WHERE 1=1"
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND po.status = $%d", len(args))
	}
	if supplierID != nil {
		args = append(args, *supplierID)
		where += fmt.Sprintf(" AND po.supplier_id = $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND (po.po_number ILIKE $%d OR s.name ILIKE $%d)", len(args), len(args))
	}

	out := &POPage{Page: page, PageSize: size, Orders: []PurchaseOrder{}}
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM purchase_orders po JOIN suppliers s ON s.id = po.supplier_id"+where, args...,
	).Scan(&out.Total); err != nil {
		return nil, fmt.Errorf("count purchase orders: %w", err)
	}

	args = append(args, size, (page-1)*size)
	query := poSelect + where + fmt.Sprintf(" ORDER BY po.created_at DESC, po.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var po PurchaseOrder
		if err := scanPO(rows, &po); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out.Orders = append(out.Orders, po)
	}
	return out, rows.Err()
}

func fetchPOItemsQ(ctx context.Context, q pgxRowQuerier, poID int, forUpdate bool) ([]PurchaseOrderItem, error) {
	query := `
		SELECT poi.id, poi.purchase_order_id, poi.line_number, poi.product_id, p.name, p.sku, poi.unit_type,
		       poi.quantity_ordered, poi.quantity_received, poi.unit_price, poi.unit_selling_price, poi.total_price
		FROM purchase_order_items poi
		JOIN products p ON p.id = poi.product_id
		WHERE poi.purchase_order_id = $1
		ORDER BY poi.id`
	if forUpdate {
		query += " FOR UPDATE OF poi"
	}
	rows, err := q.Query(ctx, query, poID)
	if err != nil {
		return nil, fmt.Errorf("query items of purchase order %d: %w", poID, err)
	}
	defer rows.Close()

	var items []PurchaseOrderItem
	for rows.Next() {
		var it PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.LineNumber, &it.ProductID, &it.ProductName, &it.SKU,
			&it.UnitType, &it.QuantityOrdered, &it.QuantityReceived, &it.UnitPrice, &it.UnitSellingPrice,
			&it.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const receiptSelect = `
	SELECT gr.id, gr.receipt_number, gr.purchase_order_id, po.po_number, po.supplier_id, s.name,
	       gr.received_by, gr.received_at, gr.notes
	FROM goods_receipts gr
	JOIN purchase_orders po ON po.id = gr.purchase_order_id
	JOIN suppliers s        ON s.id = po.supplier_id`

func scanReceipt(row pgx.Row, r *GoodsReceipt) error {
	return row.Scan(&r.ID, &r.ReceiptNumber, &r.PurchaseOrderID, &r.PONumber, &r.SupplierID, &r.SupplierName,
		&r.ReceivedBy, &r.ReceivedAt, &r.Notes)
}

func (s *purchaseOrderService) GetReceipt(ctx context.Context, p Principal, receiptID int) (*GoodsReceipt, error) {
	if err := p.Require(ActionViewPurchasing); err != nil {
		return nil, err
	}
	var r GoodsReceipt
	if err := scanReceipt(s.pool.QueryRow(ctx, receiptSelect+" WHERE gr.id = $1", receiptID), &r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("goods receipt %d", receiptID)
		}
		return nil, fmt.Errorf("get goods receipt %d: %w", receiptID, err)
	}
	if err := p.requireSupplierAccess(r.SupplierID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT gri.id, gri.goods_receipt_id, gri.purchase_order_item_id, gri.inventory_item_id,
		       poi.product_id, p.name, poi.unit_type, gri.quantity_received
		FROM goods_receipt_items gri
		JOIN purchase_order_items poi ON poi.id = gri.purchase_order_item_id
		JOIN products p               ON p.id = poi.product_id
		WHERE gri.goods_receipt_id = $1
		ORDER BY gri.id
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("query items of goods receipt %d: %w", receiptID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it GoodsReceiptItem
		if err := rows.Scan(&it.ID, &it.GoodsReceiptID, &it.PurchaseOrderItemID, &it.InventoryItemID,
			&it.ProductID, &it.ProductName, &it.Unit, &it.QuantityReceived); err != nil {
			return nil, fmt.Errorf("scan goods receipt item: %w", err)
		}
		r.Items = append(r.Items, it)
	}
	return &r, rows.Err()
}

func (s *purchaseOrderService) ListReceipts(ctx context.Context, p Principal, filter ReceiptFilter) ([]GoodsReceipt, error) {
	if err := requirePurchasingRecords(p); err != nil {
		return nil, err
	}
	supplierID, err := scopeSupplier(p, filter.SupplierID)
	if err != nil {
		return nil, err
	}

	query := receiptSelect + " WHERE 1=1"
	var args []any
	if supplierID != nil {
		args = append(args, *supplierID)
		query += fmt.Sprintf(" AND po.supplier_id = $%d", len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += fmt.Sprintf(" AND gr.received_at >= $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (gr.receipt_number ILIKE $%d OR po.po_number ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY gr.received_at DESC, gr.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goods receipts: %w", err)
	}
	defer rows.Close()

	var receipts []GoodsReceipt
	for rows.Next() {
		var r GoodsReceipt
		if err := scanReceipt(rows, &r); err != nil {
			return nil, fmt.Errorf("scan goods receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

func (s *purchaseOrderService) PurchaseSummary(ctx context.Context, p Principal) (*PurchaseSummary, error) {
	if err := p.Require(ActionViewPurchasing); err != nil {
		return nil, err
	}
	var sum PurchaseSummary

	if p.IsSupplier() {
		supplierID, err := scopeSupplier(p, nil)
		if err != nil {
			return nil, err
		}
		if err := s.pool.QueryRow(ctx, `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE status = 'sent'),
			       COUNT(*) FILTER (WHERE status IN ('confirmed', 'partially_received')),
			       COUNT(*) FILTER (WHERE status = 'received')
			FROM purchase_orders
			WHERE supplier_id = $1
		`, *supplierID).Scan(&sum.Total, &sum.AwaitingConfirmation, &sum.Confirmed, &sum.Completed); err != nil {
			return nil, fmt.Errorf("summarize supplier purchase orders: %w", err)
		}
		return &sum, nil
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('draft', 'sent')),
		       COUNT(*) FILTER (WHERE status = 'confirmed'),
		       (SELECT COUNT(*) FROM purchase_invoices WHERE payment_status <> 'paid')
		FROM purchase_orders
	`).Scan(&sum.Total, &sum.Pending, &sum.AwaitingReceipt, &sum.PendingInvoices); err != nil {
		return nil, fmt.Errorf("summarize purchase orders: %w", err)
	}
	return &sum, nil
}
