// Package domainerrors defines the coded errors domain services return.
//
// Services construct these at the point of rejection; transport translates
// them into HTTP responses via pkg/platform/httputil. Stores do not use this
// package — they return sentinel errors (pkg/platform/sentinel) that services
// wrap into coded errors with domain context.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code identifies the class of a domain error. Codes are part of the API
// surface: they appear verbatim in JSON error envelopes.
type Code string

const (
	CodeInvalidInput      Code = "invalid_input"
	CodeMissingFields     Code = "missing_fields"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeInvalidTransition Code = "invalid_transition"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeInternal          Code = "internal_error"
)

// Error is a coded domain error. Fields is populated only for
// CodeMissingFields; authorization failures deliberately carry no field
// detail so they cannot disclose what a sensitive record would have required.
type Error struct {
	Code    Code
	Message string
	Fields  []string
	wrapped error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs a coded error preserving the cause for errors.Is/As chains.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, wrapped: cause}
}

// NewMissingFields constructs the validation error for an incomplete record.
// The field list is surfaced to the actor so the failure is actionable.
func NewMissingFields(fields ...string) *Error {
	return &Error{
		Code:    CodeMissingFields,
		Message: "required fields are missing",
		Fields:  fields,
	}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in the domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf extracts the missing-field list from err, if any.
func FieldsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeMissingFields:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
