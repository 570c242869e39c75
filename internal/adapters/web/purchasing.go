package web

import (
	"context"
	"net/http"

	"backoffice/internal/app"
	"backoffice/internal/core"
)

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.ListSuppliers(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, suppliers)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req app.SupplierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.svc.CreateSupplier(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, s)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.svc.GetSupplier(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.SupplierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.svc.UpdateSupplier(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, s)
}

// listPurchaseOrders handles GET /api/purchase-orders?status=&supplier_id=&search=&page=&page_size=.
// Supplier users only ever see their own purchase orders.
func (h *Handler) listPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := queryIntPtr(w, r, "supplier_id")
	if !ok {
		return
	}
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	pageSize, ok := queryInt(w, r, "page_size")
	if !ok {
		return
	}
	q := r.URL.Query()
	res, err := h.svc.ListPurchaseOrders(r.Context(), principal(r), app.POListRequest{
		Status:     q.Get("status"),
		SupplierID: supplierID,
		Search:     q.Get("search"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) createPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePORequest
	if !decodeJSON(w, r, &req) {
		return
	}
	po, err := h.svc.CreatePurchaseOrder(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, po)
}

func (h *Handler) purchaseSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.PurchaseSummary(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sum)
}

func (h *Handler) getPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	po, err := h.svc.GetPurchaseOrder(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, po)
}

// poTransition adapts a bodyless purchase order state change to a handler.
func (h *Handler) poTransition(
	do func(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		po, err := do(r.Context(), principal(r), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, po)
	}
}

// receiveGoods handles POST /api/purchase-orders/{id}/receive.
func (h *Handler) receiveGoods(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.ReceiveGoodsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.ReceiveGoods(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) createPurchaseInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.PurchaseInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.CreatePurchaseInvoice(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, inv)
}

// listReceipts handles GET /api/goods-receipts?supplier_id=&since=&search=.
func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := queryIntPtr(w, r, "supplier_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	receipts, err := h.svc.ListReceipts(r.Context(), principal(r), app.ReceiptListRequest{
		SupplierID: supplierID,
		Since:      q.Get("since"),
		Search:     q.Get("search"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, receipts)
}

func (h *Handler) getReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	gr, err := h.svc.GetReceipt(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, gr)
}
