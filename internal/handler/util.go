// Package handler implements the HTTP surface of the persona platform.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/personalab/persona-platform/internal/index"
	"github.com/personalab/persona-platform/internal/llm"
	"github.com/personalab/persona-platform/internal/store"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusForError maps service and backend failures to HTTP status codes.
// Distinct backend failure classes stay distinct on the wire.
func statusForError(err error) int {
	var backendErr *llm.BackendError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, index.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &backendErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageForError is the client-facing error text. Internal failures are not
// echoed back verbatim.
func messageForError(err error) string {
	status := statusForError(err)
	switch status {
	case http.StatusNotFound:
		return "persona not found"
	case http.StatusConflict:
		return "persona already exists"
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return err.Error()
	}
}

// writeServiceError maps a service failure onto the response.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), messageForError(err))
}
