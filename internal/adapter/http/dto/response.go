package dto

import (
	"time"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

// LedgerResponse represents a period ledger in API responses.
type LedgerResponse struct {
	ID           string    `json:"id"`
	Period       string    `json:"period"`
	Status       string    `json:"status"`
	TotalIncome  string    `json:"total_income"`
	TotalExpense string    `json:"total_expense"`
	FinalBalance string    `json:"final_balance"`
	ClosedAt     time.Time `json:"closed_at"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LedgerFromDomain converts a domain period ledger to a response.
func LedgerFromDomain(l *domain.PeriodLedger) LedgerResponse {
	return LedgerResponse{
		ID:           l.ID,
		Period:       l.Period.String(),
		Status:       string(l.Status),
		TotalIncome:  l.TotalIncome.StringFixed(domain.MoneyScale),
		TotalExpense: l.TotalExpense.StringFixed(domain.MoneyScale),
		FinalBalance: l.FinalBalance.StringFixed(domain.MoneyScale),
		ClosedAt:     l.ClosedAt,
		Notes:        l.Notes,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// LedgersFromDomain converts a slice of period ledgers.
func LedgersFromDomain(ledgers []*domain.PeriodLedger) []LedgerResponse {
	result := make([]LedgerResponse, len(ledgers))
	for i, l := range ledgers {
		result[i] = LedgerFromDomain(l)
	}
	return result
}

// PeriodStatusResponse reports whether a month is closed, with its ledger when one exists.
type PeriodStatusResponse struct {
	Period string          `json:"period"`
	Closed bool            `json:"closed"`
	Ledger *LedgerResponse `json:"ledger,omitempty"`
}

// AuditLogResponse represents one audited transition.
type AuditLogResponse struct {
	ID          string      `json:"id"`
	Action      string      `json:"action"`
	Period      string      `json:"period"`
	BeforeState domain.JSON `json:"before_state,omitempty"`
	AfterState  domain.JSON `json:"after_state,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AuditLogsFromDomain converts a slice of audit logs.
func AuditLogsFromDomain(logs []*domain.AuditLog) []AuditLogResponse {
	result := make([]AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = AuditLogResponse{
			ID:          l.ID,
			Action:      l.Action,
			Period:      l.Period,
			BeforeState: l.BeforeState,
			AfterState:  l.AfterState,
			CreatedAt:   l.CreatedAt,
		}
	}
	return result
}

// ValidationResponse is the outcome of a pipeline run.
type ValidationResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidationFromResult converts a pipeline result, never emitting null lists.
func ValidationFromResult(r usecase.ValidationResult) ValidationResponse {
	return ValidationResponse{
		Valid:    r.Valid,
		Errors:   nonNil(r.Errors),
		Warnings: nonNil(r.Warnings),
	}
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Limit     *string   `json:"limit,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryFromDomain converts a domain category to a response.
func CategoryFromDomain(c *domain.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Priority:  string(c.Priority),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Limit != nil {
		limit := c.Limit.Amount().StringFixed(domain.MoneyScale)
		resp.Limit = &limit
		resp.Currency = c.Limit.Currency()
	}
	return resp
}

// CategoriesFromDomain converts a slice of categories.
func CategoriesFromDomain(categories []*domain.Category) []CategoryResponse {
	result := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		result[i] = CategoryFromDomain(c)
	}
	return result
}

// CategoryStatusResponse reports the utilisation of a category limit.
type CategoryStatusResponse struct {
	CategoryID string  `json:"category_id"`
	Period     string  `json:"period"`
	Status     string  `json:"status"`
	Limit      *string `json:"limit,omitempty"`
	Spend      string  `json:"spend"`
	Proposed   string  `json:"proposed"`
	Percentage string  `json:"percentage"`
	Remaining  string  `json:"remaining"`
	CanAfford  bool    `json:"can_afford"`
}

// CategoryStatusFromUseCase converts a category status.
func CategoryStatusFromUseCase(s *usecase.CategoryStatus) CategoryStatusResponse {
	resp := CategoryStatusResponse{
		CategoryID: s.Category.ID,
		Period:     s.Period.String(),
		Status:     string(s.Evaluation.Status),
		Spend:      s.Evaluation.Spend.StringFixed(domain.MoneyScale),
		Proposed:   s.Proposed.StringFixed(domain.MoneyScale),
		Percentage: s.Evaluation.Percentage.StringFixed(domain.MoneyScale),
		Remaining:  s.Evaluation.Remaining().StringFixed(domain.MoneyScale),
		CanAfford:  s.CanAfford,
	}
	if s.Evaluation.Limit != nil {
		limit := s.Evaluation.Limit.Amount().StringFixed(domain.MoneyScale)
		resp.Limit = &limit
	}
	return resp
}

// BudgetResponse represents a monthly budget with its utilisation.
type BudgetResponse struct {
	ID         string    `json:"id"`
	Period     string    `json:"period"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Spend      string    `json:"spend"`
	Percentage string    `json:"percentage"`
	Remaining  string    `json:"remaining"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BudgetFromUseCase converts a budget status.
func BudgetFromUseCase(s *usecase.BudgetStatus) BudgetResponse {
	return BudgetResponse{
		ID:         s.Budget.ID,
		Period:     s.Budget.Period.String(),
		Amount:     s.Budget.Amount.Amount().StringFixed(domain.MoneyScale),
		Currency:   s.Budget.Amount.Currency(),
		Spend:      s.Evaluation.Spend.StringFixed(domain.MoneyScale),
		Percentage: s.Evaluation.Percentage.StringFixed(domain.MoneyScale),
		Remaining:  s.Evaluation.Remaining.StringFixed(domain.MoneyScale),
		Status:     string(s.Evaluation.Status),
		Message:    s.Evaluation.Message,
		UpdatedAt:  s.Budget.UpdatedAt,
	}
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	CategoryID  *string   `json:"category_id,omitempty"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Date        string    `json:"date"`
	Description string    `json:"description,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		CategoryID:  t.CategoryID,
		Amount:      t.Amount.Amount().StringFixed(domain.MoneyScale),
		Currency:    t.Amount.Currency(),
		Date:        t.Date.Format(time.DateOnly),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// TransactionFromResult converts a recorded transaction with its warnings.
func TransactionFromResult(r *usecase.TransactionResult) TransactionResponse {
	resp := TransactionFromDomain(r.Transaction)
	resp.Warnings = r.Warnings
	return resp
}

// TransactionsFromDomain converts a slice of transactions.
func TransactionsFromDomain(transactions []*domain.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ImportRowResponse represents one staged row.
type ImportRowResponse struct {
	Line         int      `json:"line"`
	Type         string   `json:"type"`
	CategoryID   *string  `json:"category_id,omitempty"`
	Amount       string   `json:"amount"`
	Currency     string   `json:"currency"`
	Date         string   `json:"date,omitempty"`
	Description  string   `json:"description,omitempty"`
	Valid        bool     `json:"valid"`
	PeriodClosed bool     `json:"period_closed"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// ImportBatchResponse represents a staged import batch.
type ImportBatchResponse struct {
	ID        string              `json:"id"`
	ValidRows int                 `json:"valid_rows"`
	Rows      []ImportRowResponse `json:"rows"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// ImportBatchFromDomain converts a staged batch to a response.
func ImportBatchFromDomain(b *domain.ImportBatch) ImportBatchResponse {
	rows := make([]ImportRowResponse, len(b.Rows))
	for i, r := range b.Rows {
		rows[i] = ImportRowResponse{
			Line:         r.Line,
			Type:         string(r.Type),
			CategoryID:   r.CategoryID,
			Amount:       r.Amount.StringFixed(domain.MoneyScale),
			Currency:     r.Currency,
			Description:  r.Description,
			Valid:        r.IsValid(),
			PeriodClosed: r.PeriodClosed,
			Errors:       r.Errors,
			Warnings:     r.Warnings,
		}
		if !r.Date.IsZero() {
			rows[i].Date = r.Date.Format(time.DateOnly)
		}
	}

	return ImportBatchResponse{
		ID:        b.ID,
		ValidRows: b.ValidRows(),
		Rows:      rows,
		CreatedAt: b.CreatedAt,
		ExpiresAt: b.ExpiresAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ValidationErrorResponse is returned when the rule pipeline blocks a mutation.
type ValidationErrorResponse struct {
	Error    string   `json:"error"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidationErrorFromDomain converts a blocked pipeline run.
func ValidationErrorFromDomain(err *domain.ValidationError) ValidationErrorResponse {
	return ValidationErrorResponse{
		Error:    "validation failed",
		Errors:   nonNil(err.Errors),
		Warnings: nonNil(err.Warnings),
	}
}

// PeriodClosedResponse is returned when a mutation targets a closed month.
type PeriodClosedResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Period  string `json:"period"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
