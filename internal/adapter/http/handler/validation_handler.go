package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/adapter/http/dto"
	"github.com/iho/gobudget/internal/usecase"
)

// ValidationService defines the behavior needed by ValidationHandler.
type ValidationService interface {
	ValidateExpenseOrIncome(ctx context.Context, rc usecase.RuleContext) (usecase.ValidationResult, error)
	EvaluateCategoryStatus(ctx context.Context, userID, categoryID, period string, proposed decimal.Decimal) (*usecase.CategoryStatus, error)
}

// ValidationHandler exposes the rule pipeline without persisting anything.
type ValidationHandler struct {
	validationUC ValidationService
}

// NewValidationHandler creates a new ValidationHandler.
func NewValidationHandler(validationUC ValidationService) *ValidationHandler {
	return &ValidationHandler{validationUC: validationUC}
}

// Validate dry-runs a proposal. An invalid proposal is still a 200.
func (h *ValidationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	rc, err := req.ToRuleContext(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := h.validationUC.ValidateExpenseOrIncome(r.Context(), rc)
	if err != nil {
		writeDomainError(w, "failed to validate", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ValidationFromResult(result))
}

// CategoryStatus evaluates a category limit. The optional proposed query
// parameter is the amount of one additional expense.
func (h *ValidationHandler) CategoryStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	proposed := decimal.Zero
	if raw := r.URL.Query().Get("proposed"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil || p.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid proposed amount", raw)
			return
		}
		proposed = p
	}

	status, err := h.validationUC.EvaluateCategoryStatus(r.Context(), userID, chi.URLParam(r, "id"), periodQuery(r), proposed)
	if err != nil {
		writeDomainError(w, "failed to evaluate category", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoryStatusFromUseCase(status))
}
