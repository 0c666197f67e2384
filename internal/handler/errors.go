package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// writeJSON serializes v as the response body with the given status.
// Encoding failures after the header is written can only be logged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

// writeFailure sends a success=false payload with an error string.
// This is the shape the web client expects for every recoverable failure.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

// writeStorageError sends the generic 500 payload. The underlying error is
// logged, never surfaced — persistence detail is not the client's business.
func writeStorageError(w http.ResponseWriter, err error) {
	slog.Error("storage error", "error", err)
	writeFailure(w, http.StatusInternalServerError, "something went wrong")
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel
// error, e.g. "service.FavoriteService.Toggle: validation error: atco code
// is required" becomes "atco code is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// decodeBody parses the request body into dst, returning false (and writing
// the failure response) when the body is absent or malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
