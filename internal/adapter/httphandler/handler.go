package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/niksmo/storefront/internal/core/service"
)

const SessionHeader = "X-Session-ID"

func sessionID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, err error, log *slog.Logger) {
	switch {
	case errors.Is(err, service.ErrNoSession):
		http.Error(w, "session id header is required", http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidQuantity):
		http.Error(w, "quantity must be at least 1", http.StatusBadRequest)
	case errors.Is(err, service.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case errors.Is(err, service.ErrVariantNotResolved):
		http.Error(w, "variant is not resolved", http.StatusUnprocessableEntity)
	case errors.Is(err, service.ErrNothingSelected):
		http.Error(w, "no items selected", http.StatusConflict)
	default:
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		log.Error("request failed", "err", err)
		return
	}
	log.Warn("request rejected", "err", err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, log *slog.Logger) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return false
	}
	return true
}
