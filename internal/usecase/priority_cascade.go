package usecase

import (
	"context"
	"sort"

	"github.com/iho/gobudget/internal/domain"
)

// PriorityCascadeRule blocks discretionary expenses while any essential
// category of the same user is in Alert or Exceeded for the month.
// Essential expenses are never blocked by this rule.
type PriorityCascadeRule struct {
	categoryRepo    CategoryRepository
	transactionRepo TransactionRepository
}

// NewPriorityCascadeRule creates a PriorityCascadeRule.
func NewPriorityCascadeRule(categoryRepo CategoryRepository, transactionRepo TransactionRepository) *PriorityCascadeRule {
	return &PriorityCascadeRule{categoryRepo: categoryRepo, transactionRepo: transactionRepo}
}

func (r *PriorityCascadeRule) Name() string { return "priority_cascade" }

func (r *PriorityCascadeRule) Evaluate(ctx context.Context, rc RuleContext) (RuleResult, error) {
	var res RuleResult

	if rc.Type != domain.TransactionTypeExpense || rc.CategoryID == nil || *rc.CategoryID == "" {
		return res, nil
	}

	target, err := lookupCategory(ctx, r.categoryRepo, rc.UserID, *rc.CategoryID)
	if err != nil {
		return res, err
	}
	// unknown categories are reported by the limit rule
	if target == nil || target.IsEssential() {
		return res, nil
	}

	stressed, err := r.stressedEssentials(ctx, rc)
	if err != nil {
		return res, err
	}

	for _, s := range stressed {
		res.Errorf("discretionary expense blocked: essential category %q is at %s%% of its limit (%s)",
			s.category.Name, s.eval.Percentage.StringFixed(2), s.eval.Status)
	}

	return res, nil
}

type stressedCategory struct {
	category *domain.Category
	eval     domain.LimitEvaluation
}

// stressedEssentials evaluates every limited essential category with the
// replaced transaction taken out of its spend.
func (r *PriorityCascadeRule) stressedEssentials(ctx context.Context, rc RuleContext) ([]stressedCategory, error) {
	categories, err := r.categoryRepo.GetAllByUser(ctx, rc.UserID)
	if err != nil {
		return nil, err
	}

	var out []stressedCategory
	for _, c := range categories {
		if !c.IsEssential() || c.Limit == nil {
			continue
		}

		spent, err := r.transactionRepo.SumByCategoryAndPeriod(ctx, c.ID, rc.Period())
		if err != nil {
			return nil, err
		}

		eval := domain.EvaluateLimit(c.Limit, spent.Sub(rc.replacedAmount(c.ID)))
		if eval.Status.IsStressed() {
			out = append(out, stressedCategory{category: c, eval: eval})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].category.Name < out[j].category.Name
	})

	return out, nil
}
