// Package handler contains the HTTP handlers: thin translation layers
// between requests/responses and the service layer. Handlers never touch
// the database directly and services never see HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/comicshelf/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API
// endpoints: a machine-readable type plus a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"` // manifest path for validation errors, e.g. "pages[2].alt"
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status code and sends the
// standard error body. The mapping lives here so the service layer stays
// protocol-free:
//
//	ErrClient          → 400
//	ErrUnauthenticated → 401
//	ErrNotFound        → 404
//	ErrValidation      → 422
//	ErrUpstream        → 502
//
// Anything else is an unclassified internal error; its details stay out of
// the response.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrClient):
			status = http.StatusBadRequest
			errorType = "bad_request"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusUnprocessableEntity
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusBadGateway
			errorType = "upstream_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// HandleNotFound is the router's fallback for unmatched routes, keeping
// the JSON error shape consistent across the API surface.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperror.NotFound("route", r.URL.Path))
}
