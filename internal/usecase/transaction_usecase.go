package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
)

// TransactionUseCase records income and expenses through gate, pipeline and persistence.
type TransactionUseCase struct {
	uow             unitOfWork
	closing         *ClosingUseCase
	pipeline        *RulePipeline
	transactionRepo TransactionRepository
	idGen           IDGenerator
	clock           Clock
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	locker PeriodLocker,
	retrier Retrier,
	closing *ClosingUseCase,
	pipeline *RulePipeline,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	clock Clock,
) *TransactionUseCase {
	return &TransactionUseCase{
		uow:             unitOfWork{txManager: txManager, locker: locker, retrier: retrier},
		closing:         closing,
		pipeline:        pipeline,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		clock:           clock,
	}
}

// CreateTransactionInput represents input for recording a transaction.
type CreateTransactionInput struct {
	UserID      string
	Type        domain.TransactionType
	CategoryID  *string
	Amount      decimal.Decimal
	Currency    string
	Date        time.Time
	Description string
}

// UpdateTransactionInput represents input for replacing a stored transaction.
type UpdateTransactionInput struct {
	ID string
	CreateTransactionInput
}

// TransactionResult is a persisted transaction plus the advisory warnings of its validation.
type TransactionResult struct {
	Transaction *domain.Transaction
	Warnings    []string
}

// CreateTransaction validates and records a new transaction.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*TransactionResult, error) {
	now := uc.clock.Now()
	t, err := buildTransaction(input, now)
	if err != nil {
		return nil, err
	}

	var warnings []string
	err = uc.uow.run(ctx, t.UserID, []domain.Period{t.Period()}, func(ctx context.Context, tx Transaction) error {
		if err := uc.closing.EnsurePeriodsOpen(ctx, t.UserID, t.Period()); err != nil {
			return err
		}

		w, err := uc.validate(ctx, t, nil)
		if err != nil {
			return err
		}
		warnings = w

		t.ID = uc.idGen.Generate()
		return uc.transactionRepo.Create(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("user_id", t.UserID).
		Str("transaction_id", t.ID).
		Str("period", t.Period().String()).
		Msg("transaction recorded")

	return &TransactionResult{Transaction: t, Warnings: warnings}, nil
}

// UpdateTransaction replaces a stored transaction. Both its current and its new
// period must be open.
func (uc *TransactionUseCase) UpdateTransaction(ctx context.Context, input UpdateTransactionInput) (*TransactionResult, error) {
	current, err := uc.GetTransaction(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	t, err := buildTransaction(input.CreateTransactionInput, now)
	if err != nil {
		return nil, err
	}
	t.ID = current.ID

	periods := []domain.Period{current.Period(), t.Period()}

	var warnings []string
	err = uc.uow.run(ctx, t.UserID, periods, func(ctx context.Context, tx Transaction) error {
		// the version read before locking may have been replaced meanwhile
		stored, err := uc.GetTransaction(ctx, t.UserID, t.ID)
		if err != nil {
			return err
		}
		if stored.Period() != current.Period() {
			return &domain.InvariantViolationError{
				Op:     "update",
				Reason: fmt.Sprintf("transaction %s moved from %s to %s concurrently", t.ID, current.Period(), stored.Period()),
			}
		}
		t.CreatedAt = stored.CreatedAt

		if err := uc.closing.EnsurePeriodsOpen(ctx, t.UserID, periods...); err != nil {
			return err
		}

		w, err := uc.validate(ctx, t, stored)
		if err != nil {
			return err
		}
		warnings = w

		return uc.transactionRepo.Update(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	return &TransactionResult{Transaction: t, Warnings: warnings}, nil
}

// DeleteTransaction removes a transaction from an open period.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, userID, id string) error {
	current, err := uc.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}

	return uc.uow.run(ctx, userID, []domain.Period{current.Period()}, func(ctx context.Context, tx Transaction) error {
		if err := uc.closing.EnsurePeriodsOpen(ctx, userID, current.Period()); err != nil {
			return err
		}
		return uc.transactionRepo.Delete(ctx, tx, current.ID)
	})
}

// GetTransaction returns one transaction of the user.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	t, err := uc.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return t, nil
}

// ListTransactions returns the user's transactions dated inside period.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, userID, period string) ([]*domain.Transaction, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return uc.transactionRepo.ListByUserAndPeriod(ctx, userID, p)
}

// validate runs the pipeline and applies its advice: income loses its category.
func (uc *TransactionUseCase) validate(ctx context.Context, t *domain.Transaction, replacing *domain.Transaction) ([]string, error) {
	result, err := uc.pipeline.Validate(ctx, RuleContext{
		UserID:     t.UserID,
		Type:       t.Type,
		CategoryID: t.CategoryID,
		Amount:     t.Amount,
		Date:       t.Date,
		Replacing:  replacing,
	})
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		zerolog.Ctx(ctx).Info().
			Str("user_id", t.UserID).
			Strs("errors", result.Errors).
			Msg("transaction rejected")
		return nil, err
	}

	if t.Type == domain.TransactionTypeIncome {
		t.CategoryID = nil
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return result.Warnings, nil
}

func buildTransaction(input CreateTransactionInput, now time.Time) (*domain.Transaction, error) {
	txType, err := domain.ParseTransactionType(string(input.Type))
	if err != nil {
		return nil, err
	}

	amount, err := domain.NewMoney(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	categoryID := input.CategoryID
	if categoryID != nil && *categoryID == "" {
		categoryID = nil
	}

	date := input.Date
	if date.IsZero() {
		date = now
	}

	if input.UserID == "" {
		return nil, domain.ErrMissingUser
	}

	return &domain.Transaction{
		UserID:      input.UserID,
		Type:        txType,
		CategoryID:  categoryID,
		Amount:      amount,
		Date:        domain.DateOnly(date),
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
