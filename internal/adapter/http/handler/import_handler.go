package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobudget/internal/adapter/http/dto"
	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

// ImportService defines the behavior needed by ImportHandler.
type ImportService interface {
	Stage(ctx context.Context, userID string, rows []usecase.ImportRowInput) (*domain.ImportBatch, error)
	Get(ctx context.Context, userID, importID string) (*domain.ImportBatch, error)
	Commit(ctx context.Context, userID, importID string) (*domain.ImportResult, error)
	Discard(ctx context.Context, userID, importID string) error
}

// ImportHandler handles batch import HTTP requests.
type ImportHandler struct {
	importUC ImportService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importUC ImportService) *ImportHandler {
	return &ImportHandler{importUC: importUC}
}

// Stage validates a batch and keeps it for commit.
func (h *ImportHandler) Stage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	batch, err := h.importUC.Stage(r.Context(), userID, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to stage import", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ImportBatchFromDomain(batch))
}

// Get returns a staged batch.
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	batch, err := h.importUC.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get import", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportBatchFromDomain(batch))
}

// Commit records the valid rows of a staged batch.
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.importUC.Commit(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to commit import", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Discard drops a staged batch.
func (h *ImportHandler) Discard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.importUC.Discard(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to discard import", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
