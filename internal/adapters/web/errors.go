package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"backoffice/internal/core"
	"backoffice/internal/logger"
)

type errorResponse struct {
	Error      string                `json:"error"`
	Code       string                `json:"code"`
	RequestID  string                `json:"request_id,omitempty"`
	Shortfalls []core.StockShortfall `json:"shortfalls,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, status, errorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps a service error to its HTTP status. Unclassified errors
// are logged and reported without their message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *core.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeErrorResponse(w, r, http.StatusConflict, errorResponse{
			Error:      err.Error(),
			Code:       "INSUFFICIENT_STOCK",
			Shortfalls: stockErr.Shortfalls,
		})
	case errors.Is(err, core.ErrValidation):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrForbidden):
		writeError(w, r, err.Error(), "FORBIDDEN", http.StatusForbidden)
	case errors.Is(err, core.ErrConflict):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	default:
		logger.Log.Error().Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus writes a JSON response with the given status.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
