package web

import (
	"net/http"

	"backoffice/internal/app"
)

// listOrders handles GET /api/orders?status=&search=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.svc.ListOrders(r.Context(), principal(r), app.OrderListRequest{
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

// placeOrder handles POST /api/orders. A stock shortfall answers 409 with the
// per-line shortfalls.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req app.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.PlaceOrder(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetOrder(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.EditOrder(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.OrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateOrderStatus(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.CancelOrder(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
