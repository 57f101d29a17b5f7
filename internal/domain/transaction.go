package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// ParseTransactionType validates a raw type string.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionTypeIncome, TransactionTypeExpense:
		return t, nil
	default:
		return "", ErrInvalidTransactionType
	}
}

// Transaction is a single income or expense record of a user.
type Transaction struct {
	ID          string
	UserID      string
	Type        TransactionType
	CategoryID  *string
	Amount      Money
	Date        time.Time
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Period returns the month the transaction is booked in.
func (t *Transaction) Period() Period {
	return PeriodFromDate(t.Date)
}

// IsExpense reports whether the transaction is an expense.
func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// InCategory reports whether the transaction is booked against categoryID.
func (t *Transaction) InCategory(categoryID string) bool {
	return t.CategoryID != nil && *t.CategoryID == categoryID
}

// Validate checks structural invariants before persistence.
func (t *Transaction) Validate() error {
	if t.UserID == "" {
		return ErrMissingUser
	}
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}
	if t.Amount.Amount().LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
