// Package web exposes the back-office JSON API over chi.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/app"
	"backoffice/internal/core"

	"github.com/go-chi/chi/v5"
)

// Options configures the HTTP adapter.
type Options struct {
	AllowedOrigins   string
	JWTSecret        string
	TokenTTL         time.Duration
	RequestBodyLimit int64
	SecureCookies    bool
}

// Handler holds the application service and serves all HTTP routes.
type Handler struct {
	svc  app.ApplicationService
	opts Options
}

// NewHandler constructs a Handler and returns the root http.Handler for the server.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.RequestBodyLimit <= 0 {
		opts.RequestBodyLimit = 1 << 20
	}
	h := &Handler{svc: svc, opts: opts}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(opts.AllowedOrigins))

	r.Get("/api/health", h.health)
	r.Get("/api/schemas/{name}", h.schema)
	r.With(RequestBodyLimit(opts.RequestBodyLimit)).Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(opts.RequestBodyLimit))

		r.Get("/api/auth/me", h.me)
		r.Post("/api/users", h.createUser)

		r.Get("/api/categories", h.listCategories)
		r.Post("/api/categories", h.createCategory)
		r.Get("/api/products", h.listProducts)
		r.Post("/api/products", h.createProduct)
		r.Get("/api/products/{id}", h.getProduct)
		r.Put("/api/products/{id}", h.updateProduct)

		r.Get("/api/inventory", h.listInventory)
		r.Post("/api/inventory", h.addInventory)
		r.Get("/api/inventory/stock", h.stock)
		r.Get("/api/inventory/{id}", h.getInventoryItem)
		r.Post("/api/inventory/{id}/adjust", h.adjustInventory)
		r.Get("/api/inventory/{id}/movements", h.listMovements)

		r.Get("/api/orders", h.listOrders)
		r.Post("/api/orders", h.placeOrder)
		r.Get("/api/orders/{id}", h.getOrder)
		r.Put("/api/orders/{id}", h.editOrder)
		r.Post("/api/orders/{id}/status", h.updateOrderStatus)
		r.Post("/api/orders/{id}/cancel", h.cancelOrder)

		r.Get("/api/ledger", h.listLedger)
		r.Get("/api/ledger/profit", h.productProfit)

		r.Get("/api/suppliers", h.listSuppliers)
		r.Post("/api/suppliers", h.createSupplier)
		r.Get("/api/suppliers/{id}", h.getSupplier)
		r.Put("/api/suppliers/{id}", h.updateSupplier)

		r.Get("/api/purchase-orders", h.listPurchaseOrders)
		r.Post("/api/purchase-orders", h.createPurchaseOrder)
		r.Get("/api/purchase-orders/summary", h.purchaseSummary)
		r.Get("/api/purchase-orders/{id}", h.getPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/send", h.poTransition(svc.SendPurchaseOrder))
		r.Post("/api/purchase-orders/{id}/confirm", h.poTransition(svc.ConfirmPurchaseOrder))
		r.Post("/api/purchase-orders/{id}/cancel", h.poTransition(svc.CancelPurchaseOrder))
		r.Post("/api/purchase-orders/{id}/receive", h.receiveGoods)
		r.Post("/api/purchase-orders/{id}/invoices", h.createPurchaseInvoice)
		r.Get("/api/goods-receipts", h.listReceipts)
		r.Get("/api/goods-receipts/{id}", h.getReceipt)

		r.Get("/api/invoices", h.listInvoices)
		r.Post("/api/invoices", h.createInvoice)
		r.Get("/api/invoices/{id}", h.getInvoice)
		r.Post("/api/invoices/{id}/recalculate", h.recalculateInvoice)
		r.Post("/api/invoices/{id}/pay", h.payInvoice)
		r.Get("/api/purchase-invoices", h.listPurchaseInvoices)
		r.Post("/api/purchase-invoices/{id}/pay", h.payPurchaseInvoice)

		r.Get("/api/shipments", h.listShipments)
		r.Post("/api/shipments", h.createShipment)
		r.Get("/api/shipments/{id}", h.getShipment)
		r.Put("/api/shipments/{id}", h.updateShipment)
	})

	return r
}

// health handles GET /api/health.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// schema handles GET /api/schemas/{name}.
func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	raw, err := app.RequestSchema(chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	_, _ = w.Write(raw)
}

// createUser handles POST /api/users.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req app.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.svc.CreateUser(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, user)
}

// principal returns the caller injected by RequireAuth. Routes that reach it
// without the middleware get a zero principal, which every action check rejects.
func principal(r *http.Request) core.Principal {
	p, _ := principalFromContext(r.Context())
	return p
}

// decodeJSON decodes the request body into v. Returns false and writes an error
// response if decoding fails; oversized bodies get 413.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid request body", "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. Writes 400 and returns false when it is
// not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryIntPtr parses an optional integer query parameter.
func queryIntPtr(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	return &n, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, ok := queryIntPtr(w, r, name)
	if !ok || n == nil {
		return 0, ok
	}
	return *n, true
}
