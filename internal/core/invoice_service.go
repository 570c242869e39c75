package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type invoiceService struct {
	pool    *pgxpool.Pool
	clock   Clock
	dueDays int
}

// NewInvoiceService constructs an InvoiceService. dueDays sets the default
// payment term for customer invoices.
func NewInvoiceService(pool *pgxpool.Pool, clock Clock, dueDays int) InvoiceService {
	return &invoiceService{pool: pool, clock: clock, dueDays: dueDays}
}

// orderSubtotalTx loads an order's items, or its legacy product line, and sums them.
func orderSubtotalTx(ctx context.Context, q pgxReader, orderID int) (decimal.Decimal, error) {
	items, err := fetchOrderItemsQ(ctx, q, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(items) > 0 {
		return OrderSubtotal(items, nil), nil
	}

	var legacy LegacyLine
	err = q.QueryRow(ctx, `
		SELECT o.quantity, p.selling_price
		FROM orders o
		JOIN products p ON p.id = o.legacy_product_id
		WHERE o.id = $1
	`, orderID).Scan(&legacy.Quantity, &legacy.SellingPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("load legacy line of order %d: %w", orderID, err)
	}
	return OrderSubtotal(nil, &legacy), nil
}

// recalculateOpenInvoiceTx refreshes the amounts of an order's unpaid invoice, if any.
func recalculateOpenInvoiceTx(ctx context.Context, tx pgx.Tx, orderID int) error {
	var invoiceID int
	err := tx.QueryRow(ctx,
		"SELECT id FROM invoices WHERE order_id = $1 AND payment_status <> 'paid' FOR UPDATE", orderID,
	).Scan(&invoiceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock invoice of order %d: %w", orderID, err)
	}

	subtotal, err := orderSubtotalTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	return updateInvoiceAmountsTx(ctx, tx, invoiceID, ComputeInvoice(subtotal), nil)
}

func updateInvoiceAmountsTx(ctx context.Context, tx pgx.Tx, invoiceID int, a InvoiceAmounts, dueDate *time.Time) error {
	var due any
	if dueDate != nil {
		due = dateOnly(*dueDate)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE invoices
		SET subtotal = $1, tax = $2, delivery_fee = $3, amount = $4, due_date = COALESCE($5, due_date)
		WHERE id = $6`,
		a.Subtotal, a.Tax, a.DeliveryFee, a.Amount, due, invoiceID,
	); err != nil {
		return fmt.Errorf("update amounts of invoice %d: %w", invoiceID, err)
	}
	return nil
}

// ── Customer invoices ────────────────────────────────────────────────────────

func (s *invoiceService) CreateInvoice(ctx context.Context, p Principal, input CreateInvoiceInput) (*Invoice, error) {
	if err := p.Require(ActionManageInvoices); err != nil {
		return nil, err
	}

	today := dateOnly(s.clock.Now())
	dueDate := today.AddDate(0, 0, s.dueDays)
	if input.DueDate != nil {
		dueDate = dateOnly(*input.DueDate)
	}
	if dueDate.Before(today) {
		return nil, validationErrorf("due date cannot be before the invoice date")
	}

	if input.InvoiceNumber != nil {
		number := strings.TrimSpace(*input.InvoiceNumber)
		if number == "" {
			return nil, validationErrorf("invoice number cannot be blank")
		}
		if err := checkLength("invoice number", number, 30); err != nil {
			return nil, err
		}
		id, err := s.createInvoiceOnce(ctx, p, input.OrderID, func(pgx.Tx) (string, error) { return number, nil }, today, dueDate)
		if isUniqueViolation(err, "invoices_invoice_number_key") {
			return nil, conflictErrorf("invoice number %q is already in use", number)
		}
		if err != nil {
			return nil, err
		}
		return s.GetInvoice(ctx, id)
	}

	year := today.Year()
	next := func(tx pgx.Tx) (string, error) { return NextDocumentNumberTx(ctx, tx, PrefixInvoice, year) }
	id, err := withDocumentNumberRetry(ctx, s.pool, PrefixInvoice, year, "invoices_invoice_number_key",
		func() (int, error) { return s.createInvoiceOnce(ctx, p, input.OrderID, next, today, dueDate) })
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, id)
}

func (s *invoiceService) createInvoiceOnce(ctx context.Context, p Principal, orderID int, number func(pgx.Tx) (string, error), invoiceDate, dueDate time.Time) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return 0, err
	}
	if status == OrderCancelled {
		return 0, conflictErrorf("order %d is cancelled and cannot be invoiced", orderID)
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM invoices WHERE order_id = $1)", orderID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check invoice of order %d: %w", orderID, err)
	}
	if exists {
		return 0, conflictErrorf("order %d already has an invoice", orderID)
	}

	subtotal, err := orderSubtotalTx(ctx, tx, orderID)
	if err != nil {
		return 0, err
	}
	amounts := ComputeInvoice(subtotal)

	invoiceNumber, err := number(tx)
	if err != nil {
		return 0, err
	}

	var id int
	if err := tx.QueryRow(ctx, `
		INSERT INTO invoices (order_id, invoice_number, invoice_date, due_date, subtotal, tax, delivery_fee, amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		orderID, invoiceNumber, invoiceDate, dueDate,
		amounts.Subtotal, amounts.Tax, amounts.DeliveryFee, amounts.Amount, p.UserID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert invoice for order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit invoice: %w", err)
	}
	return id, nil
}

func (s *invoiceService) RecalculateInvoice(ctx context.Context, p Principal, invoiceID int, dueDate *time.Time) (*Invoice, error) {
	if err := p.Require(ActionManageInvoices); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderID, status, err := lockInvoiceTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if status == PaymentPaid {
		return nil, conflictErrorf("invoice %d is paid and cannot be recalculated", invoiceID)
	}

	subtotal, err := orderSubtotalTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := updateInvoiceAmountsTx(ctx, tx, invoiceID, ComputeInvoice(subtotal), dueDate); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invoice recalculation: %w", err)
	}
	return s.GetInvoice(ctx, invoiceID)
}

func (s *invoiceService) MarkInvoicePaid(ctx context.Context, p Principal, invoiceID int) (*Invoice, error) {
	if err := p.Require(ActionManageInvoices); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, status, err := lockInvoiceTx(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if status == PaymentPaid {
		return nil, conflictErrorf("invoice %d is already paid", invoiceID)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE invoices SET payment_status = $1, paid_at = $2 WHERE id = $3",
		PaymentPaid, s.clock.Now(), invoiceID,
	); err != nil {
		return nil, fmt.Errorf("mark invoice %d paid: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invoice payment: %w", err)
	}
	return s.GetInvoice(ctx, invoiceID)
}

func lockInvoiceTx(ctx context.Context, tx pgx.Tx, invoiceID int) (orderID int, status PaymentStatus, err error) {
	err = tx.QueryRow(ctx,
		"SELECT order_id, payment_status FROM invoices WHERE id = $1 FOR UPDATE", invoiceID,
	).Scan(&orderID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", notFoundErrorf("invoice %d", invoiceID)
		}
		return 0, "", fmt.Errorf("lock invoice %d: %w", invoiceID, err)
	}
	return orderID, status, nil
}

const invoiceSelect = `
	SELECT i.id, i.order_id, o.customer_name, i.invoice_number, i.invoice_date, i.due_date,
	       i.subtotal, i.tax, i.delivery_fee, i.amount, i.payment_status, i.paid_at, i.created_by, i.created_at
	FROM invoices i
	JOIN orders o ON o.id = i.order_id`

func scanInvoice(row pgx.Row, inv *Invoice) error {
	return row.Scan(&inv.ID, &inv.OrderID, &inv.CustomerName, &inv.InvoiceNumber, &inv.InvoiceDate, &inv.DueDate,
		&inv.Subtotal, &inv.Tax, &inv.DeliveryFee, &inv.Amount, &inv.PaymentStatus, &inv.PaidAt,
		&inv.CreatedBy, &inv.CreatedAt)
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID int) (*Invoice, error) {
	var inv Invoice
	if err := scanInvoice(s.pool.QueryRow(ctx, invoiceSelect+" WHERE i.id = $1", invoiceID), &inv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("invoice %d", invoiceID)
		}
		return nil, fmt.Errorf("get invoice %d: %w", invoiceID, err)
	}
	return &inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	query := invoiceSelect
	var args []any
	if filter.PaymentStatus != nil {
		args = append(args, *filter.PaymentStatus)
		query += " WHERE i.payment_status = $1"
	}
	query += " ORDER BY i.invoice_date DESC, i.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// ── Purchase invoices ────────────────────────────────────────────────────────

func (s *invoiceService) CreatePurchaseInvoice(ctx context.Context, p Principal, input CreatePurchaseInvoiceInput) (*PurchaseInvoice, error) {
	if err := p.Require(ActionManagePurchasing); err != nil {
		return nil, err
	}
	input.SupplierInvoiceNumber = strings.TrimSpace(input.SupplierInvoiceNumber)
	input.Notes = strings.TrimSpace(input.Notes)
	if err := checkLength("supplier invoice number", input.SupplierInvoiceNumber, 50); err != nil {
		return nil, err
	}

	invoiceDate := dateOnly(s.clock.Now())
	if input.InvoiceDate != nil {
		invoiceDate = dateOnly(*input.InvoiceDate)
	}
	if input.DueDate.IsZero() {
		return nil, validationErrorf("due date is required")
	}
	dueDate := dateOnly(input.DueDate)
	if dueDate.Before(invoiceDate) {
		return nil, validationErrorf("due date cannot be before the invoice date")
	}

	year := invoiceDate.Year()
	id, err := withDocumentNumberRetry(ctx, s.pool, PrefixPurchaseInvoice, year, "purchase_invoices_invoice_number_key",
		func() (int, error) { return s.createPurchaseInvoiceOnce(ctx, p, input, invoiceDate, dueDate, year) })
	if err != nil {
		return nil, err
	}
	return s.GetPurchaseInvoice(ctx, p, id)
}

func (s *invoiceService) createPurchaseInvoiceOnce(ctx context.Context, p Principal, input CreatePurchaseInvoiceInput, invoiceDate, dueDate time.Time, year int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	head, err := lockPOTx(ctx, tx, input.POID)
	if err != nil {
		return 0, err
	}
	if head.status == PODraft || head.status == POCancelled {
		return 0, conflictErrorf("purchase order %s cannot be invoiced: status is %s", head.poNumber, head.status)
	}

	var paid bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM purchase_invoices WHERE purchase_order_id = $1 AND payment_status = 'paid')",
		input.POID,
	).Scan(&paid); err != nil {
		return 0, fmt.Errorf("check invoices of purchase order %d: %w", input.POID, err)
	}
	if paid {
		return 0, conflictErrorf("purchase order %s already has a paid invoice", head.poNumber)
	}

	number, err := NextDocumentNumberTx(ctx, tx, PrefixPurchaseInvoice, year)
	if err != nil {
		return 0, err
	}
	amounts := ComputeInvoice(head.total)

	var id int
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_invoices (invoice_number, purchase_order_id, supplier_invoice_number, invoice_date, due_date,
		                               subtotal, tax, delivery_fee, amount, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		number, input.POID, input.SupplierInvoiceNumber, invoiceDate, dueDate,
		amounts.Subtotal, amounts.Tax, amounts.DeliveryFee, amounts.Amount, input.Notes, p.UserID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert purchase invoice for %s: %w", head.poNumber, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit purchase invoice: %w", err)
	}
	return id, nil
}

func (s *invoiceService) MarkPurchaseInvoicePaid(ctx context.Context, p Principal, invoiceID int) (*PurchaseInvoice, error) {
	if err := p.Require(ActionManagePurchasing); err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE purchase_invoices SET payment_status = $1, paid_at = $2
		WHERE id = $3 AND payment_status <> 'paid'`,
		PurchaseInvoicePaid, s.clock.Now(), invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark purchase invoice %d paid: %w", invoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		pi, err := s.GetPurchaseInvoice(ctx, p, invoiceID)
		if err != nil {
			return nil, err
		}
		return nil, conflictErrorf("purchase invoice %s is already paid", pi.InvoiceNumber)
	}
	return s.GetPurchaseInvoice(ctx, p, invoiceID)
}

const purchaseInvoiceSelect = `
	SELECT pi.id, pi.invoice_number, pi.purchase_order_id, po.po_number, po.supplier_id, s.name,
	       pi.supplier_invoice_number, pi.invoice_date, pi.due_date,
	       pi.subtotal, pi.tax, pi.delivery_fee, pi.amount, pi.payment_status, pi.notes,
	       pi.paid_at, pi.created_by, pi.created_at
	FROM purchase_invoices pi
	JOIN purchase_orders po ON po.id = pi.purchase_order_id
	JOIN suppliers s        ON s.id = po.supplier_id`

func scanPurchaseInvoice(row pgx.Row, pi *PurchaseInvoice) error {
	return row.Scan(&pi.ID, &pi.InvoiceNumber, &pi.PurchaseOrderID, &pi.PONumber, &pi.SupplierID, &pi.SupplierName,
		&pi.SupplierInvoiceNumber, &pi.InvoiceDate, &pi.DueDate,
		&pi.Subtotal, &pi.Tax, &pi.DeliveryFee, &pi.Amount, &pi.PaymentStatus, &pi.Notes,
		&pi.PaidAt, &pi.CreatedBy, &pi.CreatedAt)
}

func (s *invoiceService) GetPurchaseInvoice(ctx context.Context, p Principal, invoiceID int) (*PurchaseInvoice, error) {
	if err := requirePurchasingRecords(p); err != nil {
		return nil, err
	}
	var pi PurchaseInvoice
	if err := scanPurchaseInvoice(s.pool.QueryRow(ctx, purchaseInvoiceSelect+" WHERE pi.id = $1", invoiceID), &pi); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("purchase invoice %d", invoiceID)
		}
		return nil, fmt.Errorf("get purchase invoice %d: %w", invoiceID, err)
	}
	if err := p.requireSupplierAccess(pi.SupplierID); err != nil {
		return nil, err
	}
	return &pi, nil
}

func (s *invoiceService) ListPurchaseInvoices(ctx context.Context, p Principal, filter PurchaseInvoiceFilter) (*PurchaseInvoiceList, error) {
	if err := requirePurchasingRecords(p); err != nil {
		return nil, err
	}
	supplierID, err := scopeSupplier(p, filter.SupplierID)
	if err != nil {
		return nil, err
	}

	where := " WHERE 1=1"
	var args []any
	if filter.PaymentStatus != nil {
		args = append(args, *filter.PaymentStatus)
		where += fmt.Sprintf(" AND pi.payment_status = $%d", len(args))
	}
	if supplierID != nil {
		args = append(args, *supplierID)
		where += fmt.Sprintf(" AND po.supplier_id = $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND (pi.invoice_number ILIKE $%d OR pi.supplier_invoice_number ILIKE $%d OR po.po_number ILIKE $%d)",
			len(args), len(args), len(args))
	}

	rows, err := s.pool.Query(ctx, purchaseInvoiceSelect+where+" ORDER BY pi.invoice_date DESC, pi.id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("query purchase invoices: %w", err)
	}
	defer rows.Close()

	out := &PurchaseInvoiceList{Invoices: []PurchaseInvoice{}}
	for rows.Next() {
		var pi PurchaseInvoice
		if err := scanPurchaseInvoice(rows, &pi); err != nil {
			return nil, fmt.Errorf("scan purchase invoice: %w", err)
		}
		out.Invoices = append(out.Invoices, pi)
		out.Count++
		out.TotalAmount = out.TotalAmount.Add(pi.Amount)
		switch pi.PaymentStatus {
		case PurchaseInvoicePending, PurchaseInvoicePartiallyPaid:
			out.PendingCount++
		case PurchaseInvoiceOverdue:
			out.OverdueCount++
		}
	}
	return out, rows.Err()
}

// ── Housekeeping ─────────────────────────────────────────────────────────────

func (s *invoiceService) MarkOverdue(ctx context.Context, now time.Time) (*OverdueResult, error) {
	today := dateOnly(now)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var res OverdueResult
	tag, err := tx.Exec(ctx,
		"UPDATE invoices SET payment_status = 'overdue' WHERE payment_status = 'unpaid' AND due_date < $1", today)
	if err != nil {
		return nil, fmt.Errorf("mark invoices overdue: %w", err)
	}
	res.Invoices = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
		UPDATE purchase_invoices SET payment_status = 'overdue'
		WHERE payment_status IN ('pending', 'partially_paid') AND due_date < $1`, today)
	if err != nil {
		return nil, fmt.Errorf("mark purchase invoices overdue: %w", err)
	}
	res.PurchaseInvoices = int(tag.RowsAffected())

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit overdue update: %w", err)
	}
	return &res, nil
}
