package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyBudget is a user's ceiling on total expenses for one period.
type MonthlyBudget struct {
	ID        string
	UserID    string
	Period    Period
	Amount    Money
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BudgetStatus is the utilisation status of the overall monthly budget.
// The breakpoints differ from the category limit policy on purpose.
type BudgetStatus string

const (
	BudgetStatusWithinBudget BudgetStatus = "within_budget"
	BudgetStatusCaution      BudgetStatus = "caution"
	BudgetStatusAlert        BudgetStatus = "alert"
	BudgetStatusExceeded     BudgetStatus = "exceeded"
)

// Monthly budget policy breakpoints, in percent. Upper bounds are inclusive.
var (
	BudgetControlledThreshold = decimal.NewFromInt(50)
	BudgetWithinThreshold     = decimal.NewFromInt(80)
	BudgetCautionThreshold    = decimal.NewFromInt(95)
	BudgetAlertThreshold      = decimal.NewFromInt(100)
)

// BudgetEvaluation is the result of evaluating spend against a monthly budget.
type BudgetEvaluation struct {
	Budget     decimal.Decimal
	Spend      decimal.Decimal
	Percentage decimal.Decimal
	Status     BudgetStatus
	Message    string
	Remaining  decimal.Decimal
}

// EvaluateBudget computes utilisation of budget by spend.
func EvaluateBudget(budget, spend decimal.Decimal) BudgetEvaluation {
	pct := decimal.Zero
	if budget.IsPositive() {
		pct = percentOf(spend, budget)
	}

	remaining := budget.Sub(spend)
	eval := BudgetEvaluation{
		Budget:     budget,
		Spend:      spend,
		Percentage: pct,
		Remaining:  remaining,
	}

	switch {
	case pct.LessThanOrEqual(BudgetWithinThreshold):
		eval.Status = BudgetStatusWithinBudget
	case pct.LessThanOrEqual(BudgetCautionThreshold):
		eval.Status = BudgetStatusCaution
	case pct.LessThanOrEqual(BudgetAlertThreshold):
		eval.Status = BudgetStatusAlert
	default:
		eval.Status = BudgetStatusExceeded
	}

	eval.Message = budgetMessage(pct, remaining)

	return eval
}

func budgetMessage(pct, remaining decimal.Decimal) string {
	switch {
	case pct.LessThanOrEqual(BudgetControlledThreshold):
		return "Spending is well controlled"
	case pct.LessThanOrEqual(BudgetWithinThreshold):
		return "Spending is within budget"
	case pct.LessThanOrEqual(BudgetCautionThreshold):
		return "Caution: approaching the budget limit"
	case pct.LessThanOrEqual(BudgetAlertThreshold):
		return "Alert: budget almost exhausted"
	default:
		return fmt.Sprintf("Budget exceeded by %s", remaining.Neg().StringFixed(MoneyScale))
	}
}
