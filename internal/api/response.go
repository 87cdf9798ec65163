package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mklavora/fieldstock/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps store sentinel errors onto HTTP statuses. Anything
// unrecognized is logged and reported as an internal error so callers never
// see raw database failures.
func storeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		jsonError(w, http.StatusConflict, "name already exists")
	case errors.Is(err, store.ErrInsufficientStock):
		jsonError(w, http.StatusConflict, "insufficient stock")
	case errors.Is(err, store.ErrInsufficientPersonalStock):
		jsonError(w, http.StatusConflict, "insufficient personal stock")
	case errors.Is(err, store.ErrInvalidTransition):
		jsonError(w, http.StatusConflict, "request is not in a state that allows this action")
	default:
		slog.Error("store operation failed", "op", op, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
