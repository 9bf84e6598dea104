// Package httputil centralizes JSON encoding and domain error translation so
// every handler returns the same envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "patrimonio/pkg/domain-errors"
)

// errorEnvelope is the wire shape for all error responses. Internal errors
// omit the description so infrastructure details never leak to clients.
type errorEnvelope struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description,omitempty"`
	MissingFields    []string `json:"missing_fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into the standard error envelope.
// Validation errors include the missing-field list; authorization errors stay
// generic by construction (the domain layer never attaches fields to them).
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	env := errorEnvelope{Error: string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		env.ErrorDescription = de.Message
		env.MissingFields = de.Fields
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), env)
}

// DecodeJSON decodes the request body into T, replying 400 on malformed
// input. The bool result tells the handler whether to continue.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.DebugContext(r.Context(), "malformed request body", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed JSON body"))
		return req, false
	}
	return req, true
}
