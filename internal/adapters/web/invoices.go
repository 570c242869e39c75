package web

import (
	"net/http"

	"backoffice/internal/app"
)

// listInvoices handles GET /api/invoices?payment_status=.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoices(r.Context(), principal(r), app.InvoiceListRequest{
		PaymentStatus: r.URL.Query().Get("payment_status"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoices)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.CreateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.CreateInvoice(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.GetInvoice(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

// recalculateInvoice handles POST /api/invoices/{id}/recalculate. The body is
// optional; an empty one keeps the due date.
func (h *Handler) recalculateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.RecalculateInvoiceRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.RecalculateInvoice(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

func (h *Handler) payInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.PayInvoice(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

// listPurchaseInvoices handles GET /api/purchase-invoices?payment_status=&supplier_id=&search=.
func (h *Handler) listPurchaseInvoices(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := queryIntPtr(w, r, "supplier_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	res, err := h.svc.ListPurchaseInvoices(r.Context(), principal(r), app.PurchaseInvoiceListRequest{
		PaymentStatus: q.Get("payment_status"),
		SupplierID:    supplierID,
		Search:        q.Get("search"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) payPurchaseInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.PayPurchaseInvoice(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}
