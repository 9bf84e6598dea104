package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "patrimonio/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("validation error includes missing fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.NewMissingFields("name", "region"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body struct {
			Error         string   `json:"error"`
			MissingFields []string `json:"missing_fields"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Error != "missing_fields" {
			t.Fatalf("expected error code missing_fields, got %q", body.Error)
		}
		if len(body.MissingFields) != 2 || body.MissingFields[0] != "name" {
			t.Fatalf("expected missing field list, got %v", body.MissingFields)
		}
	})

	t.Run("forbidden stays generic through wrapping", func(t *testing.T) {
		w := httptest.NewRecorder()
		wrapped := fmt.Errorf("publish report: %w", dErrors.New(dErrors.CodeForbidden, "insufficient role"))
		WriteError(w, wrapped)

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "forbidden" {
			t.Fatalf("expected error code forbidden, got %v", body["error"])
		}
		if _, ok := body["missing_fields"]; ok {
			t.Fatalf("forbidden response must not carry field detail")
		}
	})

	t.Run("non-domain error maps to internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("dial tcp: connection refused"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}
