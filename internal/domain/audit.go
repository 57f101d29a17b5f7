package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records a state transition of a period ledger or budget.
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       string // period.close, period.reopen, ...
	ResourceType string // period_ledger, monthly_budget
	ResourceID   string
	Period       string
	BeforeState  JSON
	AfterState   JSON
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionPeriodClose      AuditAction = "period.close"
	AuditActionPeriodReopen     AuditAction = "period.reopen"
	AuditActionPeriodCloseAgain AuditAction = "period.close_again"

	AuditActionBudgetSet    AuditAction = "budget.set"
	AuditActionBudgetDelete AuditAction = "budget.delete"
)

// Resource types
const (
	ResourceTypePeriodLedger  = "period_ledger"
	ResourceTypeMonthlyBudget = "monthly_budget"
)

// LedgerState is the audited snapshot of a period ledger.
func LedgerState(l *PeriodLedger) JSON {
	if l == nil {
		return nil
	}

	return JSON{
		"status":        string(l.Status),
		"total_income":  l.TotalIncome.StringFixed(MoneyScale),
		"total_expense": l.TotalExpense.StringFixed(MoneyScale),
		"final_balance": l.FinalBalance.StringFixed(MoneyScale),
		"closed_at":     l.ClosedAt.Format(time.RFC3339),
	}
}

// BudgetState is the audited snapshot of a monthly budget.
func BudgetState(b *MonthlyBudget) JSON {
	if b == nil {
		return nil
	}

	return JSON{
		"amount":   b.Amount.Amount().StringFixed(MoneyScale),
		"currency": b.Amount.Currency(),
	}
}

// Marshal encodes the state for storage.
func (j JSON) Marshal() ([]byte, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
