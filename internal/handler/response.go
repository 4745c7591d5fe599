package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error": "forbidden", "message": "you do not own this snippet"}
//
// Validation failures additionally carry the per-field problem list:
//
//	{"error": "validation_error", "message": "...",
//	 "fields": [{"field": "style", "message": "\"bogus\" is not a supported style"}]}
//
// This is the single place where domain errors become HTTP status codes.
// The service layer returns apperror sentinels; different adapters (a gRPC
// server, a CLI) would translate them differently, so the mapping lives at
// this boundary and nowhere else.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rashed/snippetbin/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string                `json:"error"`            // machine-readable type (e.g. "not_found")
	Message string                `json:"message"`          // human-readable description
	Fields  []apperror.FieldError `json:"fields,omitempty"` // per-field problems (validation only)
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body — w.Write locks them in.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already sent — all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeHTML sends a rendered HTML payload (the highlight endpoint's output).
func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write HTML response", slog.String("error", err.Error()))
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
//	ErrValidation      → 400   ErrUnauthenticated → 401
//	ErrForbidden       → 403   ErrNotFound        → 404
//	ErrUnsupported     → 500 (internal consistency fault: the renderer
//	                     rejected values that passed boundary validation)
//
// errors.Is walks the wrapped chain, so the mapping works no matter how many
// fmt.Errorf("...: %w", err) layers the service added.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUnsupported):
			// Unreachable downstream of validated input; surface as an
			// internal fault, not a user error.
			status = http.StatusInternalServerError
			errorType = "internal_error"
		}

		resp := ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		}
		if errorType == "validation_error" {
			resp.Fields = appErr.Fields
		}
		writeJSON(w, status, resp)
		return
	}

	// Unknown error — never leak internals (SQL text, file paths) to clients.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
