package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"courtparser-engine/internal/config"
)

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Error struct {
		Code      string   `json:"code"`
		Message   string   `json:"message"`
		RequestID string   `json:"request_id,omitempty"`
		Details   []string `json:"details,omitempty"`
		Warnings  []string `json:"warnings,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, newAPIError(r, code, message))
}

// WriteValidation answers a rejected config with every problem found, so the
// UI can point at the region or decision rule at fault.
func WriteValidation(w http.ResponseWriter, r *http.Request, vr config.Validation) {
	e := newAPIError(r, "invalid_config", "config rejected: fix the listed fields and retry")
	e.Error.Details = vr.Errors
	e.Error.Warnings = vr.Warnings
	WriteJSON(w, http.StatusBadRequest, e)
}

// writeDBError hides driver text from clients; the log keeps it.
func writeDBError(w http.ResponseWriter, r *http.Request, op string, err error) {
	reqID := RequestIDFrom(r.Context())
	log.Printf("[http] %s request_id=%s: %v", op, reqID, err)
	WriteError(w, r, http.StatusInternalServerError, "db_error", op+" failed")
}

func newAPIError(r *http.Request, code, message string) APIError {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	return e
}
