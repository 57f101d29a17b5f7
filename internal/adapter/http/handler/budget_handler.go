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

// BudgetService defines the behavior needed by BudgetHandler.
type BudgetService interface {
	SetMonthlyBudget(ctx context.Context, input usecase.SetBudgetInput) (*domain.MonthlyBudget, error)
	DeleteMonthlyBudget(ctx context.Context, userID, period string) error
	GetBudgetStatus(ctx context.Context, userID, period string) (*usecase.BudgetStatus, error)
}

// BudgetHandler handles monthly budget HTTP requests.
type BudgetHandler struct {
	budgetUC BudgetService
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetUC BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetUC: budgetUC}
}

// Get returns the budget of a month with its utilisation.
func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.budgetUC.GetBudgetStatus(r.Context(), userID, chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "failed to get budget", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetFromUseCase(status))
}

// Set creates or replaces the budget of a month.
func (h *BudgetHandler) Set(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.SetBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	period := chi.URLParam(r, "period")
	input, err := req.ToUseCaseInput(userID, period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if _, err := h.budgetUC.SetMonthlyBudget(r.Context(), input); err != nil {
		writeDomainError(w, "failed to set budget", err)
		return
	}

	status, err := h.budgetUC.GetBudgetStatus(r.Context(), userID, period)
	if err != nil {
		writeDomainError(w, "failed to get budget", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetFromUseCase(status))
}

// Delete removes the budget of a month.
func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.budgetUC.DeleteMonthlyBudget(r.Context(), userID, chi.URLParam(r, "period")); err != nil {
		writeDomainError(w, "failed to delete budget", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
