package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

// ReopenPeriodRequest represents a request to reopen a closed month.
type ReopenPeriodRequest struct {
	Reason string `json:"reason"`
}

// ValidateRequest represents a dry-run of a proposed income or expense.
type ValidateRequest struct {
	Type       string  `json:"type"`
	CategoryID *string `json:"category_id,omitempty"`
	Amount     string  `json:"amount"`
	Currency   string  `json:"currency"`
	Date       string  `json:"date"`
}

// ToRuleContext converts the request to a rule pipeline context.
func (r *ValidateRequest) ToRuleContext(userID string) (usecase.RuleContext, error) {
	txType, err := domain.ParseTransactionType(strings.ToLower(r.Type))
	if err != nil {
		return usecase.RuleContext{}, err
	}

	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.RuleContext{}, err
	}

	money, err := domain.NewMoney(amount, r.Currency)
	if err != nil {
		return usecase.RuleContext{}, err
	}

	date, err := parseDate(r.Date)
	if err != nil {
		return usecase.RuleContext{}, err
	}

	return usecase.RuleContext{
		UserID:     userID,
		Type:       txType,
		CategoryID: r.CategoryID,
		Amount:     money,
		Date:       date,
	}, nil
}

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Limit    *string `json:"limit,omitempty"`
	Currency string  `json:"currency"`
	Priority string  `json:"priority"`
}

// ToUseCaseInput converts the request to use case input.
func (r *CreateCategoryRequest) ToUseCaseInput(userID string) (usecase.CreateCategoryInput, error) {
	limit, err := parseOptionalAmount(r.Limit)
	if err != nil {
		return usecase.CreateCategoryInput{}, err
	}

	return usecase.CreateCategoryInput{
		UserID:   userID,
		Name:     r.Name,
		Type:     domain.TransactionType(strings.ToLower(r.Type)),
		Limit:    limit,
		Currency: r.Currency,
		Priority: domain.Priority(strings.ToLower(r.Priority)),
	}, nil
}

// UpdateCategoryRequest represents a partial category update.
type UpdateCategoryRequest struct {
	Name       *string `json:"name,omitempty"`
	Limit      *string `json:"limit,omitempty"`
	Currency   string  `json:"currency,omitempty"`
	ClearLimit bool    `json:"clear_limit,omitempty"`
	Priority   *string `json:"priority,omitempty"`
}

// ToUseCaseInput converts the request to use case input.
func (r *UpdateCategoryRequest) ToUseCaseInput(userID, id string) (usecase.UpdateCategoryInput, error) {
	limit, err := parseOptionalAmount(r.Limit)
	if err != nil {
		return usecase.UpdateCategoryInput{}, err
	}

	input := usecase.UpdateCategoryInput{
		ID:         id,
		UserID:     userID,
		Name:       r.Name,
		Limit:      limit,
		Currency:   r.Currency,
		ClearLimit: r.ClearLimit,
	}
	if r.Priority != nil {
		p := domain.Priority(strings.ToLower(*r.Priority))
		input.Priority = &p
	}

	return input, nil
}

// SetBudgetRequest represents a request to set the budget of a month.
type SetBudgetRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts the request to use case input.
func (r *SetBudgetRequest) ToUseCaseInput(userID, period string) (usecase.SetBudgetInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.SetBudgetInput{}, err
	}

	return usecase.SetBudgetInput{
		UserID:   userID,
		Period:   period,
		Amount:   amount,
		Currency: r.Currency,
	}, nil
}

// TransactionRequest represents a request to record or replace a transaction.
type TransactionRequest struct {
	Type        string  `json:"type"`
	CategoryID  *string `json:"category_id,omitempty"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// ToUseCaseInput converts the request to use case input.
func (r *TransactionRequest) ToUseCaseInput(userID string) (usecase.CreateTransactionInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.CreateTransactionInput{}, err
	}

	date, err := parseDate(r.Date)
	if err != nil {
		return usecase.CreateTransactionInput{}, err
	}

	return usecase.CreateTransactionInput{
		UserID:      userID,
		Type:        domain.TransactionType(strings.ToLower(r.Type)),
		CategoryID:  r.CategoryID,
		Amount:      amount,
		Currency:    r.Currency,
		Date:        date,
		Description: r.Description,
	}, nil
}

// ImportRequest represents a batch of rows to stage.
type ImportRequest struct {
	Rows []ImportRowRequest `json:"rows"`
}

// ImportRowRequest is one row of an import batch. Values are kept as text
// so a malformed row is reported instead of rejecting the whole batch.
type ImportRowRequest struct {
	Type        string  `json:"type"`
	CategoryID  *string `json:"category_id,omitempty"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
}

// ToUseCaseInput converts the request to use case input.
func (r *ImportRequest) ToUseCaseInput() []usecase.ImportRowInput {
	rows := make([]usecase.ImportRowInput, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = usecase.ImportRowInput(row)
	}
	return rows
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a decimal", domain.ErrInvalidAmount, s)
	}
	return amount, nil
}

func parseOptionalAmount(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	amount, err := parseAmount(*s)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return date, nil
}
