package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobudget/internal/adapter/http/dto"
	"github.com/iho/gobudget/internal/domain"
)

// PeriodService defines the behavior needed by PeriodHandler.
type PeriodService interface {
	IsPeriodClosed(ctx context.Context, userID, period string) (bool, error)
	CloseMonth(ctx context.Context, userID, period string) (*domain.PeriodLedger, error)
	ReopenMonth(ctx context.Context, userID, period, reason string) (*domain.PeriodLedger, error)
	CloseAgain(ctx context.Context, userID, period string) (*domain.PeriodLedger, error)
	GetLedger(ctx context.Context, userID, period string) (*domain.PeriodLedger, error)
	ListLedgers(ctx context.Context, userID string) ([]*domain.PeriodLedger, error)
	LedgerHistory(ctx context.Context, userID, period string) ([]*domain.AuditLog, error)
}

// PeriodHandler handles month closing HTTP requests.
type PeriodHandler struct {
	closingUC PeriodService
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(closingUC PeriodService) *PeriodHandler {
	return &PeriodHandler{closingUC: closingUC}
}

// List lists the ledgers of the user.
func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledgers, err := h.closingUC.ListLedgers(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "failed to list periods", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgersFromDomain(ledgers))
}

// Get reports whether a month is closed, with its ledger when one exists.
func (h *PeriodHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	period := chi.URLParam(r, "period")

	closed, err := h.closingUC.IsPeriodClosed(r.Context(), userID, period)
	if err != nil {
		writeDomainError(w, "failed to get period", err)
		return
	}

	resp := dto.PeriodStatusResponse{Period: period, Closed: closed}

	ledger, err := h.closingUC.GetLedger(r.Context(), userID, period)
	switch {
	case err == nil:
		l := dto.LedgerFromDomain(ledger)
		resp.Ledger = &l
	case !errors.Is(err, domain.ErrLedgerNotFound):
		writeDomainError(w, "failed to get period", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// History lists the audited transitions of a month.
func (h *PeriodHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	logs, err := h.closingUC.LedgerHistory(r.Context(), userID, chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "failed to get period history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditLogsFromDomain(logs))
}

// Close closes a month and returns its ledger.
func (h *PeriodHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledger, err := h.closingUC.CloseMonth(r.Context(), userID, chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "failed to close period", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LedgerFromDomain(ledger))
}

// Reopen reopens a closed month. The body is optional.
func (h *PeriodHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.ReopenPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ledger, err := h.closingUC.ReopenMonth(r.Context(), userID, chi.URLParam(r, "period"), req.Reason)
	if err != nil {
		writeDomainError(w, "failed to reopen period", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromDomain(ledger))
}

// CloseAgain re-locks a reopened month.
func (h *PeriodHandler) CloseAgain(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledger, err := h.closingUC.CloseAgain(r.Context(), userID, chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "failed to close period again", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromDomain(ledger))
}
