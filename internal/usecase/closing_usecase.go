package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
)

// ClosingUseCase owns the period ledger state machine and the closing gate.
type ClosingUseCase struct {
	uow             unitOfWork
	ledgerRepo      PeriodLedgerRepository
	transactionRepo TransactionRepository
	auditRepo       AuditRepository
	idGen           IDGenerator
	clock           Clock
	metrics         MetricsRecorder
}

// NewClosingUseCase creates a new ClosingUseCase.
func NewClosingUseCase(
	txManager TransactionManager,
	locker PeriodLocker,
	retrier Retrier,
	ledgerRepo PeriodLedgerRepository,
	transactionRepo TransactionRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
	metrics MetricsRecorder,
) *ClosingUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ClosingUseCase{
		uow:             unitOfWork{txManager: txManager, locker: locker, retrier: retrier},
		ledgerRepo:      ledgerRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		idGen:           idGen,
		clock:           clock,
		metrics:         metrics,
	}
}

// IsPeriodClosed reports whether the user has a Closed ledger for period.
func (uc *ClosingUseCase) IsPeriodClosed(ctx context.Context, userID, period string) (bool, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return false, err
	}
	return uc.isClosed(ctx, userID, p)
}

// EnsurePeriodsOpen returns a *domain.PeriodClosedError for the first closed period.
func (uc *ClosingUseCase) EnsurePeriodsOpen(ctx context.Context, userID string, periods ...domain.Period) error {
	for _, p := range uniquePeriods(periods) {
		closed, err := uc.isClosed(ctx, userID, p)
		if err != nil {
			return err
		}
		if closed {
			uc.metrics.PeriodClosedRejected()
			return &domain.PeriodClosedError{UserID: userID, Period: p.String()}
		}
	}
	return nil
}

func (uc *ClosingUseCase) isClosed(ctx context.Context, userID string, p domain.Period) (bool, error) {
	ledger, err := uc.ledgerRepo.GetByUserAndPeriod(ctx, userID, p)
	if errors.Is(err, domain.ErrLedgerNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ledger.IsClosed(), nil
}

// CloseMonth freezes period with its income and expense totals.
// A month that was reopened is closed again with its original totals.
func (uc *ClosingUseCase) CloseMonth(ctx context.Context, userID, period string) (*domain.PeriodLedger, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	var (
		ledger *domain.PeriodLedger
		action domain.AuditAction
	)

	err = uc.uow.run(ctx, userID, []domain.Period{p}, func(ctx context.Context, tx Transaction) error {
		existing, err := uc.ledgerRepo.GetByUserAndPeriod(ctx, userID, p)
		switch {
		case err == nil:
			if existing.IsClosed() {
				return &domain.InvariantViolationError{Op: "close", Reason: fmt.Sprintf("month %s already closed", p)}
			}
			before := domain.LedgerState(existing)
			if err := existing.CloseAgain(uc.clock.Now()); err != nil {
				return err
			}
			ledger, action = existing, domain.AuditActionPeriodCloseAgain
			return uc.persist(ctx, tx, ledger, action, before)
		case !errors.Is(err, domain.ErrLedgerNotFound):
			return err
		}

		income, expense, err := uc.totals(ctx, userID, p)
		if err != nil {
			return err
		}

		ledger = domain.NewClosedLedger(uc.idGen.Generate(), userID, p, income, expense, uc.clock.Now())
		action = domain.AuditActionPeriodClose
		return uc.persist(ctx, tx, ledger, action, nil)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.PeriodTransition(action)
	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("period", p.String()).
		Str("action", string(action)).
		Str("final_balance", ledger.FinalBalance.StringFixed(domain.MoneyScale)).
		Msg("period closed")

	return ledger, nil
}

// ReopenMonth moves a Closed period back to Open, recording reason in the notes.
func (uc *ClosingUseCase) ReopenMonth(ctx context.Context, userID, period, reason string) (*domain.PeriodLedger, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	var ledger *domain.PeriodLedger
	err = uc.uow.run(ctx, userID, []domain.Period{p}, func(ctx context.Context, tx Transaction) error {
		existing, err := uc.ledgerRepo.GetByUserAndPeriod(ctx, userID, p)
		if errors.Is(err, domain.ErrLedgerNotFound) {
			return fmt.Errorf("nothing to reopen for %s: %w", p, domain.ErrLedgerNotFound)
		}
		if err != nil {
			return err
		}

		before := domain.LedgerState(existing)
		if err := existing.Reopen(reason, uc.clock.Now()); err != nil {
			return err
		}
		ledger = existing
		return uc.persist(ctx, tx, ledger, domain.AuditActionPeriodReopen, before)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.PeriodTransition(domain.AuditActionPeriodReopen)
	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("period", p.String()).
		Str("reason", reason).
		Msg("period reopened")

	return ledger, nil
}

// CloseAgain re-closes a reopened period without recomputing its totals.
func (uc *ClosingUseCase) CloseAgain(ctx context.Context, userID, period string) (*domain.PeriodLedger, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	var ledger *domain.PeriodLedger
	err = uc.uow.run(ctx, userID, []domain.Period{p}, func(ctx context.Context, tx Transaction) error {
		existing, err := uc.ledgerRepo.GetByUserAndPeriod(ctx, userID, p)
		if errors.Is(err, domain.ErrLedgerNotFound) {
			return fmt.Errorf("nothing to close again for %s: %w", p, domain.ErrLedgerNotFound)
		}
		if err != nil {
			return err
		}

		before := domain.LedgerState(existing)
		if err := existing.CloseAgain(uc.clock.Now()); err != nil {
			return err
		}
		ledger = existing
		return uc.persist(ctx, tx, ledger, domain.AuditActionPeriodCloseAgain, before)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.PeriodTransition(domain.AuditActionPeriodCloseAgain)
	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("period", p.String()).
		Msg("period closed again")

	return ledger, nil
}

// GetLedger returns the ledger of period.
func (uc *ClosingUseCase) GetLedger(ctx context.Context, userID, period string) (*domain.PeriodLedger, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return uc.ledgerRepo.GetByUserAndPeriod(ctx, userID, p)
}

// ListLedgers returns every ledger of the user, most recent period first.
func (uc *ClosingUseCase) ListLedgers(ctx context.Context, userID string) ([]*domain.PeriodLedger, error) {
	return uc.ledgerRepo.ListByUser(ctx, userID)
}

// LedgerHistory returns the audited transitions of the ledger of period.
func (uc *ClosingUseCase) LedgerHistory(ctx context.Context, userID, period string) ([]*domain.AuditLog, error) {
	ledger, err := uc.GetLedger(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	return uc.auditRepo.GetByResourceID(ctx, domain.ResourceTypePeriodLedger, ledger.ID)
}

// totals sums the month. A month booked in more than one currency cannot be
// frozen into a single balance.
func (uc *ClosingUseCase) totals(ctx context.Context, userID string, p domain.Period) (income, expense decimal.Decimal, err error) {
	currencies, err := uc.transactionRepo.CurrenciesByPeriod(ctx, userID, p)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if len(currencies) > 1 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("close %s: %w: %s", p, domain.ErrCurrencyMismatch, strings.Join(currencies, ", "))
	}

	income, err = uc.transactionRepo.SumByTypeAndPeriod(ctx, userID, domain.TransactionTypeIncome, p)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	expense, err = uc.transactionRepo.SumByTypeAndPeriod(ctx, userID, domain.TransactionTypeExpense, p)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return income, expense, nil
}

func (uc *ClosingUseCase) persist(
	ctx context.Context,
	tx Transaction,
	ledger *domain.PeriodLedger,
	action domain.AuditAction,
	before domain.JSON,
) error {
	if err := uc.ledgerRepo.Save(ctx, tx, ledger); err != nil {
		return err
	}

	return uc.auditRepo.Create(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       ledger.UserID,
		Action:       string(action),
		ResourceType: domain.ResourceTypePeriodLedger,
		ResourceID:   ledger.ID,
		Period:       ledger.Period.String(),
		BeforeState:  before,
		AfterState:   domain.LedgerState(ledger),
		CreatedAt:    uc.clock.Now(),
	})
}
