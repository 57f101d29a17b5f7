package domain

import "github.com/shopspring/decimal"

// LimitStatus is the utilisation status of a single category limit.
type LimitStatus string

const (
	LimitStatusNoLimit  LimitStatus = "no_limit"
	LimitStatusNormal   LimitStatus = "normal"
	LimitStatusAlert    LimitStatus = "alert"
	LimitStatusExceeded LimitStatus = "exceeded"
)

// Category limit policy breakpoints, in percent. Both are inclusive.
var (
	CategoryAlertThreshold    = decimal.NewFromInt(80)
	CategoryExceededThreshold = decimal.NewFromInt(100)
)

// IsStressed reports whether the status is Alert or Exceeded.
func (s LimitStatus) IsStressed() bool {
	return s == LimitStatusAlert || s == LimitStatusExceeded
}

// LimitEvaluation is the result of evaluating spend against a category limit.
type LimitEvaluation struct {
	Limit      *Money
	Spend      decimal.Decimal
	Percentage decimal.Decimal
	Status     LimitStatus
}

// Remaining returns limit - spend, or zero when the category is unlimited.
func (e LimitEvaluation) Remaining() decimal.Decimal {
	if e.Limit == nil {
		return decimal.Zero
	}
	return e.Limit.Amount().Sub(e.Spend)
}

// EvaluateLimit computes utilisation of limit by spend.
func EvaluateLimit(limit *Money, spend decimal.Decimal) LimitEvaluation {
	eval := LimitEvaluation{
		Limit:      limit,
		Spend:      spend,
		Percentage: decimal.Zero,
		Status:     LimitStatusNoLimit,
	}
	if limit == nil {
		return eval
	}

	switch {
	case limit.Amount().IsPositive():
		eval.Percentage = percentOf(spend, limit.Amount())
	case spend.IsPositive():
		// a zero limit is exhausted by any spend
		eval.Status = LimitStatusExceeded
		return eval
	}

	switch {
	case eval.Percentage.GreaterThanOrEqual(CategoryExceededThreshold):
		eval.Status = LimitStatusExceeded
	case eval.Percentage.GreaterThanOrEqual(CategoryAlertThreshold):
		eval.Status = LimitStatusAlert
	default:
		eval.Status = LimitStatusNormal
	}

	return eval
}

// CanAfford reports whether currentSpend + newExpense stays within limit.
func CanAfford(limit *Money, newExpense, currentSpend decimal.Decimal) bool {
	if limit == nil {
		return true
	}
	return currentSpend.Add(newExpense).LessThanOrEqual(limit.Amount())
}
