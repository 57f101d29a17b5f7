package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/gobudget/internal/domain"
)

// RuleContext describes a proposed transaction submitted to the rule pipeline.
type RuleContext struct {
	UserID     string
	Type       domain.TransactionType
	CategoryID *string
	Amount     domain.Money
	Date       time.Time
	// Replacing is the stored version of a transaction being updated.
	// Its amount is taken out of every projection.
	Replacing *domain.Transaction
}

// Period returns the month the proposed transaction falls into.
func (rc RuleContext) Period() domain.Period {
	return domain.PeriodFromDate(rc.Date)
}

// replacedAmount returns the part of the current spend that the proposal supersedes,
// restricted to expenses in the same period and, when categoryID is set, the same category.
func (rc RuleContext) replacedAmount(categoryID string) decimal.Decimal {
	old := rc.Replacing
	if old == nil || !old.IsExpense() || old.Period() != rc.Period() {
		return decimal.Zero
	}
	if categoryID != "" && !old.InCategory(categoryID) {
		return decimal.Zero
	}
	return old.Amount.Amount()
}

// RuleResult is the outcome of a single rule.
type RuleResult struct {
	Errors   []string
	Warnings []string
}

// Errorf appends a blocking message.
func (r *RuleResult) Errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Warnf appends an advisory message.
func (r *RuleResult) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Rule is one business check of the pipeline. Rules must not mutate state.
// A returned error means a collaborator failed, not that the proposal is invalid.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, rc RuleContext) (RuleResult, error)
}

type ruleFunc struct {
	name string
	fn   func(ctx context.Context, rc RuleContext) (RuleResult, error)
}

// RuleFunc adapts a plain function to the Rule interface.
func RuleFunc(name string, fn func(ctx context.Context, rc RuleContext) (RuleResult, error)) Rule {
	return ruleFunc{name: name, fn: fn}
}

func (r ruleFunc) Name() string { return r.name }

func (r ruleFunc) Evaluate(ctx context.Context, rc RuleContext) (RuleResult, error) {
	return r.fn(ctx, rc)
}

// ValidationResult aggregates every rule of one pipeline run.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Err returns a *domain.ValidationError when the result is invalid.
func (v ValidationResult) Err() error {
	if v.Valid {
		return nil
	}
	return &domain.ValidationError{Errors: v.Errors, Warnings: v.Warnings}
}

// RulePipeline evaluates an ordered set of rules without short-circuiting.
type RulePipeline struct {
	rules   []Rule
	metrics MetricsRecorder
}

// NewRulePipeline creates a pipeline evaluating rules in the given order.
func NewRulePipeline(metrics MetricsRecorder, rules ...Rule) *RulePipeline {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &RulePipeline{rules: rules, metrics: metrics}
}

// NewDefaultRulePipeline wires the standard rule set.
func NewDefaultRulePipeline(
	clock Clock,
	categoryRepo CategoryRepository,
	transactionRepo TransactionRepository,
	budgetRepo MonthlyBudgetRepository,
	metrics MetricsRecorder,
) *RulePipeline {
	return NewRulePipeline(metrics,
		NewTemporalRule(clock),
		NewAmountRule(),
		NewCategoryRequirementRule(),
		NewCategoryLimitRule(categoryRepo, transactionRepo),
		NewMonthlyBudgetRule(budgetRepo, transactionRepo),
		NewPriorityCascadeRule(categoryRepo, transactionRepo),
	)
}

// Rules returns the registered rules in evaluation order.
func (p *RulePipeline) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Validate runs every rule and merges their messages in registration order.
// Rules run concurrently; any collaborator error aborts the run.
func (p *RulePipeline) Validate(ctx context.Context, rc RuleContext) (ValidationResult, error) {
	results := make([]RuleResult, len(p.rules))

	g, gctx := errgroup.WithContext(ctx)
	for i, rule := range p.rules {
		g.Go(func() error {
			res, err := rule.Evaluate(gctx, rc)
			if err != nil {
				return fmt.Errorf("rule %s: %w", rule.Name(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ValidationResult{}, err
	}

	out := ValidationResult{Errors: []string{}, Warnings: []string{}}
	for i, res := range results {
		if len(res.Errors) > 0 {
			p.metrics.RuleFailed(p.rules[i].Name())
		}
		out.Errors = append(out.Errors, res.Errors...)
		out.Warnings = append(out.Warnings, res.Warnings...)
	}
	out.Valid = len(out.Errors) == 0
	p.metrics.ValidationCompleted(out.Valid)

	return out, nil
}

// TemporalRule rejects transactions dated after today.
type TemporalRule struct {
	clock Clock
}

// NewTemporalRule creates a TemporalRule.
func NewTemporalRule(clock Clock) *TemporalRule {
	return &TemporalRule{clock: clock}
}

func (r *TemporalRule) Name() string { return "temporal" }

func (r *TemporalRule) Evaluate(_ context.Context, rc RuleContext) (RuleResult, error) {
	var res RuleResult

	today := domain.DateOnly(r.clock.Now())
	if domain.DateOnly(rc.Date).After(today) {
		res.Errorf("transaction date %s is in the future", rc.Date.Format(time.DateOnly))
	}

	return res, nil
}

// AmountRule bounds the transaction amount.
type AmountRule struct{}

// NewAmountRule creates an AmountRule.
func NewAmountRule() *AmountRule { return &AmountRule{} }

func (r *AmountRule) Name() string { return "amount" }

func (r *AmountRule) Evaluate(_ context.Context, rc RuleContext) (RuleResult, error) {
	var res RuleResult

	if err := domain.ValidateAmount(rc.Amount.Amount()); err != nil {
		res.Errorf("amount %s is not allowed: %v", rc.Amount, err)
	}

	return res, nil
}

// CategoryRequirementRule requires a category on expenses and discourages one on income.
type CategoryRequirementRule struct{}

// NewCategoryRequirementRule creates a CategoryRequirementRule.
func NewCategoryRequirementRule() *CategoryRequirementRule { return &CategoryRequirementRule{} }

func (r *CategoryRequirementRule) Name() string { return "category_requirement" }

func (r *CategoryRequirementRule) Evaluate(_ context.Context, rc RuleContext) (RuleResult, error) {
	var res RuleResult

	hasCategory := rc.CategoryID != nil && *rc.CategoryID != ""
	switch rc.Type {
	case domain.TransactionTypeExpense:
		if !hasCategory {
			res.Errorf("expenses must have a category")
		}
	case domain.TransactionTypeIncome:
		if hasCategory {
			res.Warnf("income does not use categories; the category will be ignored")
		}
	default:
		res.Errorf("unknown transaction type %q", rc.Type)
	}

	return res, nil
}

// CategoryLimitRule checks projected category spend against the category limit.
type CategoryLimitRule struct {
	categoryRepo    CategoryRepository
	transactionRepo TransactionRepository
}

// NewCategoryLimitRule creates a CategoryLimitRule.
func NewCategoryLimitRule(categoryRepo CategoryRepository, transactionRepo TransactionRepository) *CategoryLimitRule {
	return &CategoryLimitRule{categoryRepo: categoryRepo, transactionRepo: transactionRepo}
}

func (r *CategoryLimitRule) Name() string { return "category_limit" }

func (r *CategoryLimitRule) Evaluate(ctx context.Context, rc RuleContext) (RuleResult, error) {
	var res RuleResult

	if rc.Type != domain.TransactionTypeExpense || rc.CategoryID == nil || *rc.CategoryID == "" {
		return res, nil
	}

	category, err := lookupCategory(ctx, r.categoryRepo, rc.UserID, *rc.CategoryID)
	if err != nil {
		return res, err
	}
	if category == nil {
		res.Errorf("category %s not found", *rc.CategoryID)
		return res, nil
	}
	if category.Type != domain.TransactionTypeExpense {
		res.Errorf("category %q is not an expense category", category.Name)
		return res, nil
	}
	if category.Limit == nil {
		return res, nil
	}
	if category.Limit.Currency() != rc.Amount.Currency() {
		res.Errorf("category %q is limited in %s, got %s", category.Name, category.Limit.Currency(), rc.Amount.Currency())
		return res, nil
	}

	spent, err := r.transactionRepo.SumByCategoryAndPeriod(ctx, category.ID, rc.Period())
	if err != nil {
		return res, err
	}

	projected := spent.Sub(rc.replacedAmount(category.ID)).Add(rc.Amount.Amount())
	eval := domain.EvaluateLimit(category.Limit, projected)

	switch eval.Status {
	case domain.LimitStatusExceeded:
		res.Errorf("category %q limit of %s exceeded: projected spend %s (%s%%)",
			category.Name, category.Limit, projected.StringFixed(domain.MoneyScale), eval.Percentage.StringFixed(2))
	case domain.LimitStatusAlert:
		res.Warnf("category %q is at %s%% of its limit of %s",
			category.Name, eval.Percentage.StringFixed(2), category.Limit)
	}

	return res, nil
}

// MonthlyBudgetRule checks projected monthly expenses against the user's budget.
type MonthlyBudgetRule struct {
	budgetRepo      MonthlyBudgetRepository
	transactionRepo TransactionRepository
}

// NewMonthlyBudgetRule creates a MonthlyBudgetRule.
func NewMonthlyBudgetRule(budgetRepo MonthlyBudgetRepository, transactionRepo TransactionRepository) *MonthlyBudgetRule {
	return &MonthlyBudgetRule{budgetRepo: budgetRepo, transactionRepo: transactionRepo}
}

func (r *MonthlyBudgetRule) Name() string { return "monthly_budget" }

func (r *MonthlyBudgetRule) Evaluate(ctx context.Context, rc RuleContext) (RuleResult, error) {
	var res RuleResult

	if rc.Type != domain.TransactionTypeExpense {
		return res, nil
	}

	period := rc.Period()
	budget, err := r.budgetRepo.GetByUserAndPeriod(ctx, rc.UserID, period)
	if errors.Is(err, domain.ErrBudgetNotFound) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	if budget.Amount.Currency() != rc.Amount.Currency() {
		res.Errorf("monthly budget for %s is set in %s, got %s", period, budget.Amount.Currency(), rc.Amount.Currency())
		return res, nil
	}

	spent, err := r.transactionRepo.SumByTypeAndPeriod(ctx, rc.UserID, domain.TransactionTypeExpense, period)
	if err != nil {
		return res, err
	}

	projected := spent.Sub(rc.replacedAmount("")).Add(rc.Amount.Amount())
	limit := budget.Amount.Amount()

	if projected.GreaterThan(limit) {
		res.Errorf("monthly budget of %s for %s exceeded: projected expenses %s",
			budget.Amount, period, projected.StringFixed(domain.MoneyScale))
		return res, nil
	}

	eval := domain.EvaluateBudget(limit, projected)
	if eval.Percentage.GreaterThanOrEqual(domain.BudgetWithinThreshold) {
		res.Warnf("monthly budget for %s is at %s%% (%s remaining)",
			period, eval.Percentage.StringFixed(2), eval.Remaining.StringFixed(domain.MoneyScale))
	}

	return res, nil
}

// lookupCategory returns the user's category, or nil when it does not exist
// or belongs to somebody else.
func lookupCategory(ctx context.Context, repo CategoryRepository, userID, id string) (*domain.Category, error) {
	category, err := repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if category.UserID != userID {
		return nil, nil
	}
	return category, nil
}
