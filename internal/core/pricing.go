package core

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places prices are stored with.
const MoneyScale = 2

// CheckAmount rejects an amount with more than MoneyScale decimal places.
func CheckAmount(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(MoneyScale)) {
		return validationErrorf("%s must have at most %d decimal places, got %s", field, MoneyScale, d)
	}
	return nil
}

// PriceSource names the layer a resolved price came from.
type PriceSource string

const (
	PriceSourceOverride  PriceSource = "override"
	PriceSourceInventory PriceSource = "inventory"
	PriceSourceProduct   PriceSource = "product"
	PriceSourceNone      PriceSource = "none"
)

// PriceLayer is one candidate in a precedence chain. A nil Price means the layer is unset.
type PriceLayer struct {
	Source PriceSource
	Price  *decimal.Decimal
}

// ResolvePrice returns the first set layer. With no set layer it returns zero and PriceSourceNone.
func ResolvePrice(layers ...PriceLayer) (decimal.Decimal, PriceSource) {
	for _, l := range layers {
		if l.Price != nil {
			return *l.Price, l.Source
		}
	}
	return decimal.Zero, PriceSourceNone
}

// ResolvedPrices holds the unit prices captured on an order line.
type ResolvedPrices struct {
	Cost          decimal.Decimal
	Selling       decimal.Decimal
	CostSource    PriceSource
	SellingSource PriceSource
}

// ResolveUnitPrices applies line override, then inventory line price, then product default.
// Only the selling price can be overridden per order line.
func ResolveUnitPrices(sellingOverride *decimal.Decimal, item InventoryItem, product Product) ResolvedPrices {
	var r ResolvedPrices
	r.Selling, r.SellingSource = ResolvePrice(
		PriceLayer{Source: PriceSourceOverride, Price: sellingOverride},
		PriceLayer{Source: PriceSourceInventory, Price: item.UnitSellingPrice},
		PriceLayer{Source: PriceSourceProduct, Price: &product.SellingPrice},
	)
	r.Cost, r.CostSource = ResolvePrice(
		PriceLayer{Source: PriceSourceInventory, Price: item.UnitCostPrice},
		PriceLayer{Source: PriceSourceProduct, Price: &product.CostPrice},
	)
	return r
}
