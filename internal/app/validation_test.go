package app

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"backoffice/internal/core"

	"github.com/shopspring/decimal"
)

func TestValidateRequest_Decimals(t *testing.T) {
	tests := []struct {
		name    string
		req     POLineRequest
		wantErr string
	}{
		{"valid", POLineRequest{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("9.99"), UnitType: "box"}, ""},
		{"negative price", POLineRequest{ProductID: 1, UnitPrice: decimal.NewFromInt(-1), UnitType: "box"}, "unit_price must be at least 0"},
		{"missing unit", POLineRequest{ProductID: 1, UnitPrice: decimal.NewFromInt(1)}, "unit_type is required"},
		{"sub-cent price", POLineRequest{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("10.005"), UnitType: "box"}, "unit_price must have at most 2 decimal places"},
		{"sub-cent selling price", POLineRequest{ProductID: 1, Quantity: 3, UnitPrice: decimal.NewFromInt(10), UnitType: "box", UnitSellingPrice: decimalPtr("12.125")}, "unit_selling_price must have at most 2 decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, core.ErrValidation) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want ErrValidation mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRequest_MoneyOnOrderOverride(t *testing.T) {
	req := OrderRequest{
		Customer: CustomerRequest{Name: "Jane"},
		Lines:    []OrderLineRequest{{InventoryItemID: 1, Quantity: 3, UnitSellingPrice: decimalPtr("10.005")}},
	}
	err := validateRequest(req)
	if !errors.Is(err, core.ErrValidation) || !strings.Contains(err.Error(), "lines[0].unit_selling_price must have at most 2 decimal places") {
		t.Errorf("err = %v, want a decimal places error", err)
	}

	req.Lines[0].UnitSellingPrice = decimalPtr("10.01")
	if err := validateRequest(req); err != nil {
		t.Errorf("two-decimal override rejected: %v", err)
	}
}

func TestValidateRequest_ColumnLengths(t *testing.T) {
	tests := []struct {
		name string
		req  any
		want string
	}{
		{"sku", ProductRequest{Name: "Widget", SKU: strings.Repeat("S", 60)}, "sku must be at most 50"},
		{"invoice number", CreateInvoiceRequest{OrderID: 1, InvoiceNumber: stringPtr(strings.Repeat("9", 40))}, "invoice_number must be at most 30"},
		{"supplier invoice number", PurchaseInvoiceRequest{SupplierInvoiceNumber: strings.Repeat("A", 80), DueDate: "2026-04-01"}, "supplier_invoice_number must be at most 50"},
		{"location", AddInventoryRequest{ProductID: 1, Unit: "piece", Location: strings.Repeat("L", 256)}, "location must be at most 255"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.req)
			if !errors.Is(err, core.ErrValidation) || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want ErrValidation mentioning %q", err, tt.want)
			}
		})
	}

	fits := []any{
		ProductRequest{Name: "Widget", SKU: strings.Repeat("S", 50)},
		CreateInvoiceRequest{OrderID: 1, InvoiceNumber: stringPtr(strings.Repeat("9", 30))},
		PurchaseInvoiceRequest{SupplierInvoiceNumber: strings.Repeat("A", 50), DueDate: "2026-04-01"},
	}
	for _, req := range fits {
		if err := validateRequest(req); err != nil {
			t.Errorf("%T at the column limit rejected: %v", req, err)
		}
	}
}

func stringPtr(s string) *string { return &s }

func TestValidateRequest_ReportsEveryField(t *testing.T) {
	err := validateRequest(CreateUserRequest{Username: "", Password: "short", Role: "owner"})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	for _, want := range []string{"username is required", "password must have at least 8", "role must be one of"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("err = %q, missing %q", err, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("due_date", "")
	if d != nil || err != nil {
		t.Errorf("empty = %v, %v; want nil, nil", d, err)
	}
	d, err = parseDate("due_date", "2026-04-09")
	if err != nil || d.Year() != 2026 || d.Month() != 4 || d.Day() != 9 {
		t.Errorf("parsed = %v, %v", d, err)
	}
	if _, err := parseDate("due_date", "tomorrow"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("bad date err = %v, want ErrValidation", err)
	}
}

func TestRequestSchema(t *testing.T) {
	for _, name := range SchemaNames() {
		raw, err := RequestSchema(name)
		if err != nil {
			t.Fatalf("RequestSchema(%s) failed: %v", name, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("schema %s is not JSON: %v", name, err)
		}
		if doc["title"] != name {
			t.Errorf("schema %s title = %v", name, doc["title"])
		}
	}

	raw, err := RequestSchema("purchase-order")
	if err != nil {
		t.Fatalf("RequestSchema failed: %v", err)
	}
	if !strings.Contains(string(raw), `"supplier_id"`) || !strings.Contains(string(raw), `"unit_price"`) {
		t.Errorf("purchase-order schema lacks expected fields: %s", raw)
	}

	if _, err := RequestSchema("nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown schema err = %v, want ErrNotFound", err)
	}
}
