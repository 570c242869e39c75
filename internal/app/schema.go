package app

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"backoffice/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// requestTypes maps a published schema name to the request body it describes.
var requestTypes = map[string]any{
	"login":            LoginRequest{},
	"user":             CreateUserRequest{},
	"category":         CategoryRequest{},
	"product":          ProductRequest{},
	"inventory":        AddInventoryRequest{},
	"inventory-adjust": AdjustInventoryRequest{},
	"order":            OrderRequest{},
	"order-status":     OrderStatusRequest{},
	"supplier":         SupplierRequest{},
	"purchase-order":   CreatePORequest{},
	"goods-receipt":    ReceiveGoodsRequest{},
	"invoice":          CreateInvoiceRequest{},
	"purchase-invoice": PurchaseInvoiceRequest{},
	"shipment":         CreateShipmentRequest{},
	"shipment-update":  UpdateShipmentRequest{},
}

// SchemaNames lists the published request schemas in sorted order.
func SchemaNames() []string {
	names := make([]string, 0, len(requestTypes))
	for n := range requestTypes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// RequestSchema returns the JSON schema of the named request body.
func RequestSchema(name string) (json.RawMessage, error) {
	proto, ok := requestTypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: no schema named %q", core.ErrNotFound, name)
	}
	r := &jsonschema.Reflector{
		DoNotReference: true,
		// Amounts travel as decimal strings or numbers with at most two decimal places.
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == decimalType {
				return &jsonschema.Schema{
					OneOf: []*jsonschema.Schema{
						{Type: "string", Pattern: `^-?\d+(\.\d{1,2})?$`},
						{Type: "number"},
					},
				}
			}
			return nil
		},
	}
	schema := r.Reflect(proto)
	schema.Title = name
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", name, err)
	}
	return out, nil
}
