package app

import (
	"backoffice/internal/core"

	"github.com/shopspring/decimal"
)

// UserSession is returned by AuthenticateUser.
type UserSession struct {
	UserID     int       `json:"user_id"`
	Username   string    `json:"username"`
	Role       core.Role `json:"role"`
	SupplierID *int      `json:"supplier_id,omitempty"`
}

// Principal converts the session into the caller identity passed to core.
func (s UserSession) Principal() core.Principal {
	return core.Principal{UserID: s.UserID, Username: s.Username, Role: s.Role, SupplierID: s.SupplierID}
}

// ProductResult is a product with its derived margins.
type ProductResult struct {
	core.Product
	ProfitMargin     decimal.Decimal `json:"profit_margin"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
}

func newProductResult(p core.Product) ProductResult {
	return ProductResult{Product: p, ProfitMargin: p.ProfitMargin(), ProfitPercentage: p.ProfitPercentage()}
}

// OrderTotals are the aggregate figures shown after an order mutation.
type OrderTotals struct {
	Quantity    int             `json:"quantity"`
	TotalValue  decimal.Decimal `json:"total_value"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// OrderResult is returned by order operations.
type OrderResult struct {
	Order  *core.Order `json:"order"`
	Totals OrderTotals `json:"totals"`
}

func newOrderResult(o *core.Order) *OrderResult {
	return &OrderResult{
		Order:  o,
		Totals: OrderTotals{Quantity: o.Quantity, TotalValue: o.TotalValue, TotalProfit: o.TotalProfit},
	}
}

// ReceiptResult is returned by ReceiveGoods: the receipt with accepted quantities
// and the purchase order after the receipt.
type ReceiptResult struct {
	Receipt       *core.GoodsReceipt  `json:"receipt"`
	PurchaseOrder *core.PurchaseOrder `json:"purchase_order"`
}

// StockRow is one inventory line flattened for display.
type StockRow struct {
	ItemID       int             `json:"item_id"`
	SKU          string          `json:"sku"`
	ProductName  string          `json:"product_name"`
	Unit         core.Unit       `json:"unit"`
	Quantity     int             `json:"quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	StockValue   decimal.Decimal `json:"stock_value"` // quantity × effective cost
}

// StockResult is returned by GetStock.
type StockResult struct {
	Rows       []StockRow      `json:"rows"`
	TotalValue decimal.Decimal `json:"total_value"`
}

func newStockResult(items []core.InventoryItem) *StockResult {
	res := &StockResult{Rows: make([]StockRow, 0, len(items))}
	for _, it := range items {
		value := it.EffectiveCostPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		res.Rows = append(res.Rows, StockRow{
			ItemID:       it.ID,
			SKU:          it.SKU,
			ProductName:  it.ProductName,
			Unit:         it.Unit,
			Quantity:     it.Quantity,
			CostPrice:    it.EffectiveCostPrice,
			SellingPrice: it.EffectiveSellingPrice,
			StockValue:   value,
		})
		res.TotalValue = res.TotalValue.Add(value)
	}
	return res
}
