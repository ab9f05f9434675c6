// Package handler turns HTTP requests into service calls and service
// results into JSON responses.
package handler

// RESPONSE HELPERS:
// Every response goes through writeJSON, every failure through writeError,
// so the API has one error shape:
//
//	{"error": "validation_error", "message": "identity is required", "field": "identity"}
//
// The frontend can rely on those keys regardless of the status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/cryptpass/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "unauthorized"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending request field, if any
}

// writeJSON sends a JSON response with the given status code. Headers
// must be set before WriteHeader; anything after is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// ERROR MAPPING:
// The service layer speaks in apperror sentinels and never in status
// codes. errors.Is walks the whole wrap chain, so a login failure wrapped
// as "service/auth: login: <auth sentinel>: <AppError>" still maps to 401.
//
// Errors that are not an *apperror.AppError become a generic 500. Raw
// messages can contain SQL or file paths and never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}
