package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name        string
		tx          Transaction
		expectError error
	}{
		{
			name: "valid expense",
			tx: Transaction{
				UserID: "user-1",
				Type:   TransactionTypeExpense,
				Amount: MustMoney("10", "BRL"),
			},
		},
		{
			name: "missing user",
			tx: Transaction{
				Type:   TransactionTypeIncome,
				Amount: MustMoney("10", "BRL"),
			},
			expectError: ErrMissingUser,
		},
		{
			name: "unknown type",
			tx: Transaction{
				UserID: "user-1",
				Type:   "transfer",
				Amount: MustMoney("10", "BRL"),
			},
			expectError: ErrInvalidTransactionType,
		},
		{
			name: "zero amount",
			tx: Transaction{
				UserID: "user-1",
				Type:   TransactionTypeExpense,
				Amount: MustMoney("0", "BRL"),
			},
			expectError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestTransaction_Period(t *testing.T) {
	tx := Transaction{Date: time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)}

	if tx.Period().String() != "2025-10" {
		t.Errorf("expected 2025-10, got %s", tx.Period())
	}
}

func TestTransaction_InCategory(t *testing.T) {
	cat := "cat-1"
	tx := Transaction{CategoryID: &cat}

	if !tx.InCategory("cat-1") {
		t.Error("expected transaction to be in cat-1")
	}
	if (&Transaction{}).InCategory("cat-1") {
		t.Error("uncategorised transaction must not match")
	}
}

func TestErrorTypes(t *testing.T) {
	if !errors.Is(&PeriodClosedError{Period: "2025-10"}, ErrPeriodClosed) {
		t.Error("PeriodClosedError must match ErrPeriodClosed")
	}
	if errors.Is(&PeriodClosedError{}, ErrInvariantViolation) {
		t.Error("PeriodClosedError must stay distinct from invariant violations")
	}
	if !errors.Is(ErrLedgerNotFound, ErrNotFound) || !errors.Is(ErrCategoryNotFound, ErrNotFound) {
		t.Error("not found errors must wrap ErrNotFound")
	}
	if !errors.Is(&ValidationError{Errors: []string{"x"}}, ErrValidationFailed) {
		t.Error("ValidationError must match ErrValidationFailed")
	}
}
