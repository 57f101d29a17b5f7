package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
)

// ValidationUseCase exposes the rule pipeline and the two evaluators.
type ValidationUseCase struct {
	pipeline        *RulePipeline
	categoryRepo    CategoryRepository
	transactionRepo TransactionRepository
	budgetRepo      MonthlyBudgetRepository
}

// NewValidationUseCase creates a new ValidationUseCase.
func NewValidationUseCase(
	pipeline *RulePipeline,
	categoryRepo CategoryRepository,
	transactionRepo TransactionRepository,
	budgetRepo MonthlyBudgetRepository,
) *ValidationUseCase {
	return &ValidationUseCase{
		pipeline:        pipeline,
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
	}
}

// CategoryStatus reports the utilisation of one category for a period.
type CategoryStatus struct {
	Category   *domain.Category
	Period     domain.Period
	Proposed   decimal.Decimal
	Evaluation domain.LimitEvaluation
	CanAfford  bool
}

// BudgetStatus reports the utilisation of the monthly budget for a period.
type BudgetStatus struct {
	Budget     *domain.MonthlyBudget
	Evaluation domain.BudgetEvaluation
}

// ValidateExpenseOrIncome runs the rule pipeline against a proposal without persisting anything.
func (uc *ValidationUseCase) ValidateExpenseOrIncome(ctx context.Context, rc RuleContext) (ValidationResult, error) {
	result, err := uc.pipeline.Validate(ctx, rc)
	if err != nil {
		return ValidationResult{}, err
	}

	if !result.Valid {
		zerolog.Ctx(ctx).Debug().
			Str("user_id", rc.UserID).
			Str("type", string(rc.Type)).
			Strs("errors", result.Errors).
			Msg("proposal rejected by rule pipeline")
	}

	return result, nil
}

// EvaluateCategoryStatus reports category utilisation for period, optionally
// with proposed added on top of the month's spend. proposed is the amount
// of one more expense, not a cumulative total.
func (uc *ValidationUseCase) EvaluateCategoryStatus(
	ctx context.Context,
	userID, categoryID, period string,
	proposed decimal.Decimal,
) (*CategoryStatus, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	if proposed.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	category, err := lookupCategory(ctx, uc.categoryRepo, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}

	spent, err := uc.transactionRepo.SumByCategoryAndPeriod(ctx, category.ID, p)
	if err != nil {
		return nil, err
	}

	return &CategoryStatus{
		Category:   category,
		Period:     p,
		Proposed:   proposed,
		Evaluation: domain.EvaluateLimit(category.Limit, spent.Add(proposed)),
		CanAfford:  domain.CanAfford(category.Limit, proposed, spent),
	}, nil
}

// EvaluateBudgetStatus reports the monthly budget utilisation for period.
func (uc *ValidationUseCase) EvaluateBudgetStatus(ctx context.Context, userID, period string) (*BudgetStatus, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	budget, err := uc.budgetRepo.GetByUserAndPeriod(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	spent, err := uc.transactionRepo.SumByTypeAndPeriod(ctx, userID, domain.TransactionTypeExpense, p)
	if err != nil {
		return nil, err
	}

	return &BudgetStatus{
		Budget:     budget,
		Evaluation: domain.EvaluateBudget(budget.Amount.Amount(), spent),
	}, nil
}
