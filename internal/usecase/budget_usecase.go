package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
)

// BudgetUseCase manages monthly budgets.
type BudgetUseCase struct {
	uow        unitOfWork
	closing    *ClosingUseCase
	validation *ValidationUseCase
	budgetRepo MonthlyBudgetRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	clock      Clock
}

// NewBudgetUseCase creates a new BudgetUseCase.
func NewBudgetUseCase(
	txManager TransactionManager,
	locker PeriodLocker,
	retrier Retrier,
	closing *ClosingUseCase,
	validation *ValidationUseCase,
	budgetRepo MonthlyBudgetRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
) *BudgetUseCase {
	return &BudgetUseCase{
		uow:        unitOfWork{txManager: txManager, locker: locker, retrier: retrier},
		closing:    closing,
		validation: validation,
		budgetRepo: budgetRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		clock:      clock,
	}
}

// SetBudgetInput represents input for creating or replacing a monthly budget.
type SetBudgetInput struct {
	UserID   string
	Period   string
	Amount   decimal.Decimal
	Currency string
}

// SetMonthlyBudget creates the budget of a period or replaces its amount.
func (uc *BudgetUseCase) SetMonthlyBudget(ctx context.Context, input SetBudgetInput) (*domain.MonthlyBudget, error) {
	p, err := domain.ParsePeriod(input.Period)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	amount, err := domain.NewMoney(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}

	var budget *domain.MonthlyBudget
	err = uc.uow.run(ctx, input.UserID, []domain.Period{p}, func(ctx context.Context, tx Transaction) error {
		if err := uc.closing.EnsurePeriodsOpen(ctx, input.UserID, p); err != nil {
			return err
		}

		now := uc.clock.Now()
		existing, err := uc.budgetRepo.GetByUserAndPeriod(ctx, input.UserID, p)
		switch {
		case err == nil:
			before := domain.BudgetState(existing)
			existing.Amount = amount
			existing.UpdatedAt = now
			budget = existing
			if err := uc.budgetRepo.Save(ctx, tx, budget); err != nil {
				return err
			}
			return uc.audit(ctx, tx, budget, domain.AuditActionBudgetSet, before, domain.BudgetState(budget))
		case !errors.Is(err, domain.ErrBudgetNotFound):
			return err
		}

		budget = &domain.MonthlyBudget{
			ID:        uc.idGen.Generate(),
			UserID:    input.UserID,
			Period:    p,
			Amount:    amount,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.budgetRepo.Save(ctx, tx, budget); err != nil {
			return err
		}
		return uc.audit(ctx, tx, budget, domain.AuditActionBudgetSet, nil, domain.BudgetState(budget))
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", input.UserID).
		Str("period", p.String()).
		Str("amount", budget.Amount.String()).
		Msg("monthly budget set")

	return budget, nil
}

// DeleteMonthlyBudget removes the budget of an open period.
func (uc *BudgetUseCase) DeleteMonthlyBudget(ctx context.Context, userID, period string) error {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return err
	}

	return uc.uow.run(ctx, userID, []domain.Period{p}, func(ctx context.Context, tx Transaction) error {
		if err := uc.closing.EnsurePeriodsOpen(ctx, userID, p); err != nil {
			return err
		}

		existing, err := uc.budgetRepo.GetByUserAndPeriod(ctx, userID, p)
		if err != nil {
			return err
		}
		if err := uc.budgetRepo.Delete(ctx, tx, userID, p); err != nil {
			return err
		}
		return uc.audit(ctx, tx, existing, domain.AuditActionBudgetDelete, domain.BudgetState(existing), nil)
	})
}

// GetMonthlyBudget returns the budget of period.
func (uc *BudgetUseCase) GetMonthlyBudget(ctx context.Context, userID, period string) (*domain.MonthlyBudget, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return uc.budgetRepo.GetByUserAndPeriod(ctx, userID, p)
}

// GetBudgetStatus evaluates the period's expenses against its budget.
func (uc *BudgetUseCase) GetBudgetStatus(ctx context.Context, userID, period string) (*BudgetStatus, error) {
	return uc.validation.EvaluateBudgetStatus(ctx, userID, period)
}

func (uc *BudgetUseCase) audit(
	ctx context.Context,
	tx Transaction,
	budget *domain.MonthlyBudget,
	action domain.AuditAction,
	before, after domain.JSON,
) error {
	return uc.auditRepo.Create(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       budget.UserID,
		Action:       string(action),
		ResourceType: domain.ResourceTypeMonthlyBudget,
		ResourceID:   budget.ID,
		Period:       budget.Period.String(),
		BeforeState:  before,
		AfterState:   after,
		CreatedAt:    uc.clock.Now(),
	})
}
