package web

import (
	"net/http"

	"backoffice/internal/app"
)

// listInventory handles GET /api/inventory?product_id=.
func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	productID, ok := queryIntPtr(w, r, "product_id")
	if !ok {
		return
	}
	items, err := h.svc.ListInventory(r.Context(), principal(r), productID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// stock handles GET /api/inventory/stock: the valued stock table.
func (h *Handler) stock(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetStock(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) addInventory(w http.ResponseWriter, r *http.Request) {
	var req app.AddInventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.AddInventory(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, item)
}

func (h *Handler) getInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.svc.GetInventoryItem(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

func (h *Handler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.AdjustInventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.AdjustInventory(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	moves, err := h.svc.ListMovements(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, moves)
}

// listLedger handles GET /api/ledger?product_id=&from=&to=.
func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	productID, ok := queryIntPtr(w, r, "product_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	entries, err := h.svc.ListLedger(r.Context(), principal(r), app.LedgerListRequest{
		ProductID: productID,
		From:      q.Get("from"),
		To:        q.Get("to"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

func (h *Handler) productProfit(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ProductProfit(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rows)
}
