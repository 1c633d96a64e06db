// Package response provides helpers for writing consistent JSON HTTP
// responses, and for turning validator errors into readable sentences.
//
// The sandbox handlers use WriteJSON / GeneralError / ValidationError to
// answer the console. The console uses ValidationMessage to explain why it
// refused to send an action before any network call happened.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
//	{ "status": "error", "message": "request R7 is already APPROVED" }
//
// Success responses may return any JSON shape (a request, a list…).
// The medication backend puts its human-readable text under "message";
// the API client reads that field first.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status:  StatusError,
		Message: err.Error(),
	}
}

// ValidationError converts validator errors into a single Response.
func ValidationError(errs validator.ValidationErrors) Response {
	return Response{
		Status:  StatusError,
		Message: ValidationMessage(errs),
	}
}

// ValidationMessage joins one sentence per failing field with ", ".
//
//	field medicationName is required, field quantity must be 0 or more
func ValidationMessage(errs validator.ValidationErrors) string {
	var msgs []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", e.Field()))
		case "notfuture":
			msgs = append(msgs, fmt.Sprintf("field %s cannot be in the future", e.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("field %s must be %s or more", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return strings.Join(msgs, ", ")
}

// Describe renders err for a user. Validator errors become sentences;
// anything else falls back to err.Error().
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return ValidationMessage(verrs)
	}
	return err.Error()
}
