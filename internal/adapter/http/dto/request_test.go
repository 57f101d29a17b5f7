package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

func strPtr(s string) *string { return &s }

func TestTransactionRequest_ToUseCaseInput(t *testing.T) {
	tests := []struct {
		name        string
		request     *TransactionRequest
		want        usecase.CreateTransactionInput
		expectError bool
	}{
		{
			name: "valid",
			request: &TransactionRequest{
				Type:        "Expense",
				CategoryID:  strPtr("food"),
				Amount:      "12.34",
				Currency:    "BRL",
				Date:        "2025-10-15",
				Description: "market",
			},
			want: usecase.CreateTransactionInput{
				UserID:      "user-1",
				Type:        domain.TransactionTypeExpense,
				Amount:      decimal.RequireFromString("12.34"),
				Currency:    "BRL",
				Date:        time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
				Description: "market",
			},
		},
		{
			name:        "invalid amount",
			request:     &TransactionRequest{Type: "expense", Amount: "abc", Date: "2025-10-15"},
			expectError: true,
		},
		{
			name:        "invalid date",
			request:     &TransactionRequest{Type: "expense", Amount: "1", Date: "15/10/2025"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToUseCaseInput("user-1")
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.UserID != tt.want.UserID || got.Type != tt.want.Type || got.Currency != tt.want.Currency {
				t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, tt.want)
			}
			if !got.Amount.Equal(tt.want.Amount) {
				t.Fatalf("expected amount %s, got %s", tt.want.Amount, got.Amount)
			}
			if !got.Date.Equal(tt.want.Date) {
				t.Fatalf("expected date %s, got %s", tt.want.Date, got.Date)
			}
			if got.CategoryID == nil || *got.CategoryID != "food" {
				t.Fatalf("expected category food, got %v", got.CategoryID)
			}
		})
	}
}

func TestParseAmount_WrapsInvalidAmount(t *testing.T) {
	_, err := parseAmount("1,50")
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestValidateRequest_ToRuleContext(t *testing.T) {
	req := &ValidateRequest{Type: "income", Amount: "2500", Currency: "brl", Date: "2025-10-01"}

	rc, err := req.ToRuleContext("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.Type != domain.TransactionTypeIncome || rc.Amount.String() != "BRL 2500.00" {
		t.Fatalf("unexpected rule context: %+v", rc)
	}

	req.Currency = "XYZ"
	if _, err := req.ToRuleContext("user-1"); !errors.Is(err, domain.ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}

	req.Currency = "BRL"
	req.Type = "loan"
	if _, err := req.ToRuleContext("user-1"); !errors.Is(err, domain.ErrInvalidTransactionType) {
		t.Fatalf("expected ErrInvalidTransactionType, got %v", err)
	}
}

func TestCategoryRequests_ToUseCaseInput(t *testing.T) {
	create := &CreateCategoryRequest{Name: "Housing", Type: "expense", Limit: strPtr("1200"), Currency: "BRL", Priority: "Essential"}
	in, err := create.ToUseCaseInput("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Limit == nil || !in.Limit.Equal(decimal.NewFromInt(1200)) || in.Priority != domain.PriorityEssential {
		t.Fatalf("unexpected input: %+v", in)
	}

	update := &UpdateCategoryRequest{Priority: strPtr("discretionary"), ClearLimit: true}
	upd, err := update.ToUseCaseInput("user-1", "cat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd.ID != "cat-1" || upd.Priority == nil || *upd.Priority != domain.PriorityDiscretionary || !upd.ClearLimit || upd.Limit != nil {
		t.Fatalf("unexpected input: %+v", upd)
	}

	update.Limit = strPtr("x")
	if _, err := update.ToUseCaseInput("user-1", "cat-1"); err == nil {
		t.Fatal("expected error for a malformed limit")
	}
}

func TestImportRequest_ToUseCaseInput(t *testing.T) {
	req := &ImportRequest{Rows: []ImportRowRequest{
		{Type: "expense", CategoryID: strPtr("food"), Amount: "10", Date: "2025-10-01"},
		{Type: "income", Amount: "oops", Date: "2025-10-02"},
	}}

	rows := req.ToUseCaseInput()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Amount != "oops" {
		t.Fatalf("malformed values must be passed through, got %+v", rows[1])
	}
}
