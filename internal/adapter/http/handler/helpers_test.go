package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobudget/internal/adapter/http/dto"
	"github.com/iho/gobudget/internal/domain"
)

const testUser = "user-1"

// withUser returns r carrying the acting user.
func withUser(r *http.Request) *http.Request {
	return r.WithContext(domain.WithUserID(r.Context(), testUser))
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation failed", &domain.ValidationError{Errors: []string{"x"}}, http.StatusUnprocessableEntity},
		{"period closed", &domain.PeriodClosedError{Period: "2025-10"}, http.StatusLocked},
		{"invariant violation", &domain.InvariantViolationError{Op: "close", Reason: "already closed"}, http.StatusConflict},
		{"category not found", domain.ErrCategoryNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrLedgerNotFound), http.StatusNotFound},
		{"bad period", domain.ErrInvalidPeriodFormat, http.StatusBadRequest},
		{"invalid currency", domain.ErrInvalidCurrency, http.StatusBadRequest},
		{"invalid import", domain.ErrInvalidImport, http.StatusBadRequest},
		{"missing user", domain.ErrMissingUser, http.StatusUnauthorized},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}

func TestWriteDomainError_ValidationBody(t *testing.T) {
	rr := httptest.NewRecorder()

	err := fmt.Errorf("create: %w", &domain.ValidationError{
		Errors:   []string{"category limit exceeded"},
		Warnings: []string{"budget at 90%"},
	})
	writeDomainError(rr, "failed", err)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	var resp dto.ValidationErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Errors) != 1 || len(resp.Warnings) != 1 {
		t.Fatalf("expected errors and warnings to be returned, got %+v", resp)
	}
}

func TestWriteDomainError_PeriodClosedBody(t *testing.T) {
	rr := httptest.NewRecorder()

	writeDomainError(rr, "failed", &domain.PeriodClosedError{UserID: testUser, Period: "2025-09"})

	if rr.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rr.Code)
	}

	var resp dto.PeriodClosedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Period != "2025-09" {
		t.Fatalf("expected period in body, got %+v", resp)
	}
}

func TestRequireUser(t *testing.T) {
	rr := httptest.NewRecorder()
	if _, ok := requireUser(rr, httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("expected no user")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	userID, ok := requireUser(httptest.NewRecorder(), withUser(httptest.NewRequest(http.MethodGet, "/", nil)))
	if !ok || userID != testUser {
		t.Fatalf("expected %s, got %q", testUser, userID)
	}
}

func TestPeriodQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/transactions?period=2025-10", nil)
	if got := periodQuery(req); got != "2025-10" {
		t.Fatalf("expected 2025-10, got %s", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/transactions", nil)
	if _, err := domain.ParsePeriod(periodQuery(req)); err != nil {
		t.Fatalf("expected current month by default, got %v", err)
	}
}
