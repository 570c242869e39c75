package web

import (
	"net/http"

	"backoffice/internal/app"
)

func (h *Handler) listShipments(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.svc.ListShipments(r.Context(), principal(r), app.ShipmentListRequest{
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, shipments)
}

// createShipment handles POST /api/shipments. Only approved orders can ship.
func (h *Handler) createShipment(w http.ResponseWriter, r *http.Request) {
	var req app.CreateShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.svc.CreateShipment(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, s)
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.svc.GetShipment(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) updateShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.UpdateShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.svc.UpdateShipment(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, s)
}
