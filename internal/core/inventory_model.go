package core

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Unit is the packaging unit an inventory line and a purchase line are counted in.
type Unit string

const (
	UnitPiece  Unit = "piece"
	UnitBox    Unit = "box"
	UnitCase   Unit = "case"
	UnitPallet Unit = "pallet"
	UnitKg     Unit = "kg"
	UnitGram   Unit = "gram"
	UnitLiter  Unit = "liter"
	UnitMl     Unit = "ml"
	UnitMeter  Unit = "meter"
	UnitCm     Unit = "cm"
	UnitPack   Unit = "pack"
	UnitSet    Unit = "set"
	UnitUnit   Unit = "unit"
	UnitDozen  Unit = "dozen"
)

// Units lists every accepted unit in display order.
var Units = []Unit{
	UnitPiece, UnitBox, UnitCase, UnitPallet, UnitKg, UnitGram, UnitLiter,
	UnitMl, UnitMeter, UnitCm, UnitPack, UnitSet, UnitUnit, UnitDozen,
}

var unitAliases = map[string]Unit{
	"pcs": UnitPiece,
	"pc":  UnitPiece,
	"ltr": UnitLiter,
	"l":   UnitLiter,
}

// NormalizeUnit lowercases s, maps legacy aliases (pcs, ltr) and rejects unknown units.
func NormalizeUnit(s string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if u, ok := unitAliases[key]; ok {
		return u, nil
	}
	for _, u := range Units {
		if string(u) == key {
			return u, nil
		}
	}
	return "", validationErrorf("unknown unit %q", s)
}

// InventoryItem is the on-hand quantity of one product in one unit.
type InventoryItem struct {
	ID          int    `json:"id"`
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"` // joined from products
	SKU         string `json:"sku"`          // joined from products
	Unit        Unit   `json:"unit"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
	Location    string `json:"location"`
	// Unit-specific prices; nil falls back to the product defaults.
	UnitCostPrice    *decimal.Decimal `json:"unit_cost_price,omitempty"`
	UnitSellingPrice *decimal.Decimal `json:"unit_selling_price,omitempty"`
	// Effective prices after layered resolution against the product.
	EffectiveCostPrice    decimal.Decimal `json:"effective_cost_price"`
	EffectiveSellingPrice decimal.Decimal `json:"effective_selling_price"`
	AddedOn               time.Time       `json:"added_on"`
	UpdatedAt             time.Time       `json:"updated_at"`

	productCost    decimal.Decimal
	productSelling decimal.Decimal
}

// product returns the catalog defaults joined onto the item.
func (i InventoryItem) product() Product {
	return Product{ID: i.ProductID, Name: i.ProductName, SKU: i.SKU, CostPrice: i.productCost, SellingPrice: i.productSelling}
}

// InventoryKey is the natural key of an inventory line.
type InventoryKey struct {
	ProductID int
	Unit      Unit
}

// LinePrices optionally overwrite an inventory line's unit prices.
type LinePrices struct {
	Cost    *decimal.Decimal
	Selling *decimal.Decimal
}

// MovementType classifies an inventory quantity change.
type MovementType string

const (
	MovementReceipt     MovementType = "RECEIPT"
	MovementSale        MovementType = "SALE"
	MovementSaleRestore MovementType = "SALE_RESTORE"
	MovementAdjustment  MovementType = "ADJUSTMENT"
)

// InventoryMovement is one append-only audit record of a quantity change.
type InventoryMovement struct {
	ID              int          `json:"id"`
	InventoryItemID int          `json:"inventory_item_id"`
	MovementType    MovementType `json:"movement_type"`
	Quantity        int          `json:"quantity"` // signed
	OrderID         *int         `json:"order_id,omitempty"`
	GoodsReceiptID  *int         `json:"goods_receipt_id,omitempty"`
	UserID          *int         `json:"user_id,omitempty"`
	Notes           string       `json:"notes"`
	CreatedAt       time.Time    `json:"created_at"`
}

// MovementRef links a quantity change to its cause.
type MovementRef struct {
	Type           MovementType
	OrderID        *int
	GoodsReceiptID *int
	UserID         *int
	Notes          string
}

// StockChange is a requested quantity change against one inventory line.
type StockChange struct {
	InventoryItemID int
	Quantity        int
}

// AddInventoryInput is a manual stock-in against a (product, unit) line.
type AddInventoryInput struct {
	ProductID        int
	Unit             string
	Quantity         int
	Description      string
	Location         string
	UnitCostPrice    *decimal.Decimal
	UnitSellingPrice *decimal.Decimal
}

// InventoryFilter narrows ListItems.
type InventoryFilter struct {
	ProductID *int
}

// InventoryService manages per-(product, unit) stock lines and their movements.
type InventoryService interface {
	// Standalone operations (manage their own transactions).
	ListItems(ctx context.Context, filter InventoryFilter) ([]InventoryItem, error)
	GetItem(ctx context.Context, itemID int) (*InventoryItem, error)
	// AddItem stocks in against (product, unit), creating the line if absent.
	AddItem(ctx context.Context, p Principal, input AddInventoryInput) (*InventoryItem, error)
	// AdjustQuantity applies a signed delta under a row lock. The result may not go negative.
	AdjustQuantity(ctx context.Context, p Principal, itemID, delta int, notes string) (*InventoryItem, error)
	ListMovements(ctx context.Context, itemID int) ([]InventoryMovement, error)

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by OrderService and PurchaseOrderService to keep stock changes atomic
	// with the business record that caused them.

	// FindOrCreateTx adds qty to the (product, unit) line in one atomic upsert, creating
	// it when absent. Non-nil prices overwrite the line's unit prices.
	FindOrCreateTx(ctx context.Context, tx pgx.Tx, key InventoryKey, qty int, prices LinePrices, description string, ref MovementRef) (*InventoryItem, error)
	// LockItemsTx locks the given lines FOR UPDATE in ascending id order.
	LockItemsTx(ctx context.Context, tx pgx.Tx, itemIDs []int) (map[int]*InventoryItem, error)
	// DecrementTx locks, re-checks and decrements every line. If any line is short the
	// whole batch fails with *InsufficientStockError and nothing is changed.
	DecrementTx(ctx context.Context, tx pgx.Tx, changes []StockChange, ref MovementRef) error
	// IncrementTx returns quantities to their lines.
	IncrementTx(ctx context.Context, tx pgx.Tx, changes []StockChange, ref MovementRef) error
}
