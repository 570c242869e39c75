package core_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"backoffice/internal/core"
)

func TestInvoice_CreateFromOrder(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	order := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 4}) // 4 × 50 = 200

	inv, err := f.invoices.CreateInvoice(f.ctx, f.staff, core.CreateInvoiceInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if inv.InvoiceNumber != "INV-2026-0001" {
		t.Errorf("invoice number = %s, want INV-2026-0001", inv.InvoiceNumber)
	}
	if !inv.Subtotal.Equal(dec("200")) || !inv.Tax.Equal(dec("10")) || !inv.Amount.Equal(dec("310")) {
		t.Errorf("amounts = %+v, want 200 + 10 + 100 = 310", inv.InvoiceAmounts)
	}
	if want := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC); !inv.DueDate.Equal(want) {
		t.Errorf("due date = %v, want %v", inv.DueDate, want)
	}
	if inv.PaymentStatus != core.PaymentUnpaid {
		t.Errorf("payment status = %s, want unpaid", inv.PaymentStatus)
	}

	if _, err := f.invoices.CreateInvoice(f.ctx, f.staff, core.CreateInvoiceInput{OrderID: order.ID}); !errors.Is(err, core.ErrConflict) {
		t.Errorf("second invoice err = %v, want ErrConflict", err)
	}
}

func TestInvoice_FollowsOrderEditUntilPaid(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	order := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 4})
	inv, err := f.invoices.CreateInvoice(f.ctx, f.staff, core.CreateInvoiceInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	if _, err := f.orders.EditOrder(f.ctx, f.staff, order.ID, core.OrderInput{
		Customer: core.CustomerInfo{Name: "Jane Doe"},
		Lines:    []core.OrderLineInput{{InventoryItemID: widget.ID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("EditOrder failed: %v", err)
	}
	inv, err = f.invoices.GetInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if !inv.Amount.Equal(dec("205")) {
		t.Errorf("amount after edit = %s, want 100 + 5 + 100 = 205", inv.Amount)
	}

	if _, err := f.invoices.MarkInvoicePaid(f.ctx, f.staff, inv.ID); err != nil {
		t.Fatalf("MarkInvoicePaid failed: %v", err)
	}
	if _, err := f.invoices.RecalculateInvoice(f.ctx, f.staff, inv.ID, nil); !errors.Is(err, core.ErrConflict) {
		t.Errorf("recalculate paid err = %v, want ErrConflict", err)
	}
	if _, err := f.orders.EditOrder(f.ctx, f.staff, order.ID, core.OrderInput{
		Customer: core.CustomerInfo{Name: "Jane Doe"},
		Lines:    []core.OrderLineInput{{InventoryItemID: widget.ID, Quantity: 1}},
	}); !errors.Is(err, core.ErrConflict) {
		t.Errorf("edit of paid order err = %v, want ErrConflict", err)
	}
}

func TestInvoice_CancelledOrderCannotBeInvoiced(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	order := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 1})
	if _, err := f.orders.CancelOrder(f.ctx, f.staff, order.ID); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
	if _, err := f.invoices.CreateInvoice(f.ctx, f.staff, core.CreateInvoiceInput{OrderID: order.ID}); !errors.Is(err, core.ErrConflict) {
		t.Errorf("invoice of cancelled order err = %v, want ErrConflict", err)
	}
}

func TestInvoice_MarkOverdue(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	order := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 1})
	inv, err := f.invoices.CreateInvoice(f.ctx, f.staff, core.CreateInvoiceInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	res, err := f.invoices.MarkOverdue(f.ctx, testNow)
	if err != nil {
		t.Fatalf("MarkOverdue failed: %v", err)
	}
	if res.Invoices != 0 {
		t.Errorf("overdue before due date = %d, want 0", res.Invoices)
	}

	res, err = f.invoices.MarkOverdue(f.ctx, testNow.AddDate(0, 2, 0))
	if err != nil {
		t.Fatalf("MarkOverdue failed: %v", err)
	}
	if res.Invoices != 1 {
		t.Errorf("overdue after due date = %d, want 1", res.Invoices)
	}
	inv, err = f.invoices.GetInvoice(f.ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if inv.PaymentStatus != core.PaymentOverdue {
		t.Errorf("status = %s, want overdue", inv.PaymentStatus)
	}
}

func TestShipment_Lifecycle(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	order := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 1})

	input := core.CreateShipmentInput{OrderID: order.ID, TrackingNumber: "TRK-1", Carrier: "DHL"}
	if _, err := f.shipments.CreateShipment(f.ctx, f.staff, input); !errors.Is(err, core.ErrConflict) {
		t.Errorf("ship pending order err = %v, want ErrConflict", err)
	}
	if _, err := f.orders.UpdateOrderStatus(f.ctx, f.staff, order.ID, core.OrderApproved); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	sh, err := f.shipments.CreateShipment(f.ctx, f.staff, input)
	if err != nil {
		t.Fatalf("CreateShipment failed: %v", err)
	}
	if sh.Status != core.ShipmentDispatched {
		t.Errorf("shipment status = %s, want dispatched", sh.Status)
	}
	if got, _ := f.orders.GetOrder(f.ctx, order.ID); got.Status != core.OrderShipped {
		t.Errorf("order status = %s, want shipped", got.Status)
	}

	back := core.ShipmentDispatched
	inTransit := core.ShipmentInTransit
	if _, err := f.shipments.UpdateShipment(f.ctx, f.staff, sh.ID, core.UpdateShipmentInput{Status: &inTransit}); err != nil {
		t.Fatalf("UpdateShipment(in_transit) failed: %v", err)
	}
	if _, err := f.shipments.UpdateShipment(f.ctx, f.staff, sh.ID, core.UpdateShipmentInput{Status: &back}); !errors.Is(err, core.ErrConflict) {
		t.Errorf("move back err = %v, want ErrConflict", err)
	}

	delivered := core.ShipmentDelivered
	sh, err = f.shipments.UpdateShipment(f.ctx, f.staff, sh.ID, core.UpdateShipmentInput{Status: &delivered})
	if err != nil {
		t.Fatalf("UpdateShipment(delivered) failed: %v", err)
	}
	if sh.DeliveryDate == nil || !sh.DeliveryDate.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("delivery date = %v, want today", sh.DeliveryDate)
	}
	if got, _ := f.orders.GetOrder(f.ctx, order.ID); got.Status != core.OrderDelivered {
		t.Errorf("order status = %s, want delivered", got.Status)
	}
}

func TestInvoice_NumbersLongerThanColumnsRejected(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	order := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 1})

	long := strings.Repeat("9", 31)
	if _, err := f.invoices.CreateInvoice(f.ctx, f.staff, core.CreateInvoiceInput{
		OrderID: order.ID, InvoiceNumber: &long,
	}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("31-character invoice number err = %v, want ErrValidation", err)
	}
	fits := strings.Repeat("9", 30)
	if _, err := f.invoices.CreateInvoice(f.ctx, f.staff, core.CreateInvoiceInput{
		OrderID: order.ID, InvoiceNumber: &fits,
	}); err != nil {
		t.Errorf("30-character invoice number failed: %v", err)
	}

	po := f.confirmedPO(t, core.POLineInput{ProductID: 1, Quantity: 1, UnitPrice: dec("50"), UnitType: "piece"})
	if _, err := f.invoices.CreatePurchaseInvoice(f.ctx, f.staff, core.CreatePurchaseInvoiceInput{
		POID: po.ID, SupplierInvoiceNumber: strings.Repeat("A", 51), DueDate: testNow.AddDate(0, 0, 14),
	}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("51-character supplier invoice number err = %v, want ErrValidation", err)
	}
}
