package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
	"github.com/iho/gobudget/internal/usecase/mocks"
)

func TestClosingUseCase_CloseMonth(t *testing.T) {
	e := newTestEnv(t)
	e.addTransaction(domain.TransactionTypeIncome, "", "5000", day(2025, 10, 1))
	e.addTransaction(domain.TransactionTypeExpense, "rent", "2000", day(2025, 10, 5))
	e.addTransaction(domain.TransactionTypeExpense, "food", "1500", day(2025, 10, 31))
	// neighbouring months are excluded
	e.addTransaction(domain.TransactionTypeExpense, "food", "700", day(2025, 11, 1))

	ledger, err := e.closing.CloseMonth(context.Background(), testUser, "2025-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ledger.TotalIncome.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("expected income 5000, got %s", ledger.TotalIncome)
	}
	if !ledger.TotalExpense.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("expected expense 3500, got %s", ledger.TotalExpense)
	}
	if !ledger.FinalBalance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected balance 1500, got %s", ledger.FinalBalance)
	}
	if !ledger.IsClosed() || !ledger.ClosedAt.Equal(testNow) {
		t.Errorf("expected closed ledger at %s, got %s at %s", testNow, ledger.Status, ledger.ClosedAt)
	}

	closed, err := e.closing.IsPeriodClosed(context.Background(), testUser, "2025-10")
	if err != nil || !closed {
		t.Errorf("expected period to be closed, got %v (%v)", closed, err)
	}
	if e.txManager.commits() != 1 {
		t.Errorf("expected one commit, got %d", e.txManager.commits())
	}
	if len(e.locker.locks) != 1 || e.locker.locks[0] != testUser+":2025-10" {
		t.Errorf("expected period lock, got %v", e.locker.locks)
	}
	if len(e.auditRepo.logs) != 1 || e.auditRepo.logs[0].Action != string(domain.AuditActionPeriodClose) {
		t.Errorf("expected one close audit log, got %+v", e.auditRepo.logs)
	}
}

func TestClosingUseCase_CloseMixedCurrenciesFails(t *testing.T) {
	e := newTestEnv(t)
	e.addTransaction(domain.TransactionTypeIncome, "", "100", day(2025, 10, 1))
	_ = e.txRepo.Create(context.Background(), nil, &domain.Transaction{
		ID:     "usd-income",
		UserID: testUser,
		Type:   domain.TransactionTypeIncome,
		Amount: domain.MustMoney("100", "USD"),
		Date:   day(2025, 10, 2),
	})

	_, err := e.closing.CloseMonth(context.Background(), testUser, "2025-10")
	if !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}

	closed, err := e.closing.IsPeriodClosed(context.Background(), testUser, "2025-10")
	if err != nil || closed {
		t.Errorf("expected period to stay open, got %v (%v)", closed, err)
	}
	if len(e.auditRepo.logs) != 0 {
		t.Errorf("expected no audit logs, got %d", len(e.auditRepo.logs))
	}
}

func TestClosingUseCase_DoubleCloseFails(t *testing.T) {
	e := newTestEnv(t)

	if _, err := e.closing.CloseMonth(context.Background(), testUser, "2025-10"); err != nil {
		t.Fatalf("first close failed: %v", err)
	}

	_, err := e.closing.CloseMonth(context.Background(), testUser, "2025-10")
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if !strings.Contains(err.Error(), "already closed") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if e.ledgerRepo.count() != 1 || e.ledgerRepo.saves != 1 {
		t.Errorf("expected a single ledger saved once, got %d ledgers / %d saves", e.ledgerRepo.count(), e.ledgerRepo.saves)
	}
}

func TestClosingUseCase_ReopenAndCloseAgain(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addTransaction(domain.TransactionTypeIncome, "", "100", day(2025, 10, 1))

	if _, err := e.closing.CloseMonth(ctx, testUser, "2025-10"); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	ledger, err := e.closing.ReopenMonth(ctx, testUser, "2025-10", "forgot the rent")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if ledger.IsClosed() {
		t.Fatal("expected ledger to be open")
	}
	if ledger.Notes == nil || !strings.Contains(*ledger.Notes, "forgot the rent") {
		t.Errorf("expected reason in notes, got %v", ledger.Notes)
	}

	closed, _ := e.closing.IsPeriodClosed(ctx, testUser, "2025-10")
	if closed {
		t.Error("expected period to be open after reopen")
	}

	// totals are frozen: new income after reopen is not picked up by close again
	e.addTransaction(domain.TransactionTypeIncome, "", "50", day(2025, 10, 2))

	ledger, err = e.closing.CloseAgain(ctx, testUser, "2025-10")
	if err != nil {
		t.Fatalf("close again failed: %v", err)
	}
	if !ledger.IsClosed() || !ledger.TotalIncome.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected closed ledger with income 100, got %s / %s", ledger.Status, ledger.TotalIncome)
	}

	history, err := e.closing.LedgerHistory(ctx, testUser, "2025-10")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("expected 3 audit entries, got %d", len(history))
	}
}

func TestClosingUseCase_CloseOnReopenedMonthClosesAgain(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	first, _ := e.closing.CloseMonth(ctx, testUser, "2025-10")
	if _, err := e.closing.ReopenMonth(ctx, testUser, "2025-10", ""); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	ledger, err := e.closing.CloseMonth(ctx, testUser, "2025-10")
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if ledger.ID != first.ID {
		t.Errorf("expected existing ledger to be reused")
	}
	if e.ledgerRepo.count() != 1 {
		t.Errorf("expected one ledger, got %d", e.ledgerRepo.count())
	}
}

func TestClosingUseCase_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(e *testEnv)
		run     func(e *testEnv) error
		wantErr error
	}{
		{
			name: "reopen without ledger",
			run: func(e *testEnv) error {
				_, err := e.closing.ReopenMonth(context.Background(), testUser, "2025-10", "")
				return err
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "reopen an open month",
			setup: func(e *testEnv) {
				_, _ = e.closing.CloseMonth(context.Background(), testUser, "2025-10")
				_, _ = e.closing.ReopenMonth(context.Background(), testUser, "2025-10", "")
			},
			run: func(e *testEnv) error {
				_, err := e.closing.ReopenMonth(context.Background(), testUser, "2025-10", "")
				return err
			},
			wantErr: domain.ErrInvariantViolation,
		},
		{
			name: "close again a closed month",
			setup: func(e *testEnv) {
				_, _ = e.closing.CloseMonth(context.Background(), testUser, "2025-10")
			},
			run: func(e *testEnv) error {
				_, err := e.closing.CloseAgain(context.Background(), testUser, "2025-10")
				return err
			},
			wantErr: domain.ErrInvariantViolation,
		},
		{
			name: "close again without ledger",
			run: func(e *testEnv) error {
				_, err := e.closing.CloseAgain(context.Background(), testUser, "2025-10")
				return err
			},
			wantErr: domain.ErrLedgerNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(e)
			}

			err := tt.run(e)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClosingUseCase_IsPeriodClosedWithoutLedger(t *testing.T) {
	e := newTestEnv(t)

	closed, err := e.closing.IsPeriodClosed(context.Background(), testUser, "2025-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed {
		t.Error("expected open period")
	}
}

func TestClosingUseCase_MalformedPeriodSkipsStorage(t *testing.T) {
	ctrl := gomock.NewController(t)

	// no expectations: any repository call fails the test
	ledgerRepo := mocks.NewMockPeriodLedgerRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	txManager := mocks.NewMockTransactionManager(ctrl)

	uc := usecase.NewClosingUseCase(txManager, mocks.NewMockPeriodLocker(ctrl), passRetrier{},
		ledgerRepo, txRepo, mocks.NewMockAuditRepository(ctrl), mocks.NewMockIDGenerator(ctrl), &fixedClock{now: testNow}, nil)

	for _, token := range []string{"2025-13", "2025-1", "oct-2025", ""} {
		if _, err := uc.IsPeriodClosed(context.Background(), testUser, token); !errors.Is(err, domain.ErrInvalidPeriodFormat) {
			t.Errorf("IsPeriodClosed(%q): expected ErrInvalidPeriodFormat, got %v", token, err)
		}
		if _, err := uc.CloseMonth(context.Background(), testUser, token); !errors.Is(err, domain.ErrInvalidPeriodFormat) {
			t.Errorf("CloseMonth(%q): expected ErrInvalidPeriodFormat, got %v", token, err)
		}
		if _, err := uc.ReopenMonth(context.Background(), testUser, token, ""); !errors.Is(err, domain.ErrInvalidPeriodFormat) {
			t.Errorf("ReopenMonth(%q): expected ErrInvalidPeriodFormat, got %v", token, err)
		}
	}
}

func TestClosingUseCase_SaveFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)

	period := domain.MustParsePeriod("2025-10")
	tx := mocks.NewMockTransaction(ctrl)
	txManager := mocks.NewMockTransactionManager(ctrl)
	locker := mocks.NewMockPeriodLocker(ctrl)
	ledgerRepo := mocks.NewMockPeriodLedgerRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)
	metrics := mocks.NewMockMetricsRecorder(ctrl)

	txManager.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	locker.EXPECT().LockPeriod(gomock.Any(), tx, testUser, period).Return(nil)
	ledgerRepo.EXPECT().GetByUserAndPeriod(gomock.Any(), testUser, period).Return(nil, domain.ErrLedgerNotFound)
	txRepo.EXPECT().CurrenciesByPeriod(gomock.Any(), testUser, period).Return([]string{"BRL"}, nil)
	txRepo.EXPECT().SumByTypeAndPeriod(gomock.Any(), testUser, domain.TransactionTypeIncome, period).Return(decimal.NewFromInt(10), nil)
	txRepo.EXPECT().SumByTypeAndPeriod(gomock.Any(), testUser, domain.TransactionTypeExpense, period).Return(decimal.NewFromInt(4), nil)
	idGen.EXPECT().Generate().Return("ledger-1")
	ledgerRepo.EXPECT().Save(gomock.Any(), tx, gomock.Any()).Return(errors.New("disk full"))
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	// no Commit and no PeriodTransition expected

	uc := usecase.NewClosingUseCase(txManager, locker, passRetrier{}, ledgerRepo, txRepo,
		mocks.NewMockAuditRepository(ctrl), idGen, &fixedClock{now: testNow}, metrics)

	if _, err := uc.CloseMonth(context.Background(), testUser, "2025-10"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClosingUseCase_EnsurePeriodsOpen(t *testing.T) {
	e := newTestEnv(t)
	_, _ = e.closing.CloseMonth(context.Background(), testUser, "2025-09")

	err := e.closing.EnsurePeriodsOpen(context.Background(), testUser,
		domain.MustParsePeriod("2025-10"), domain.MustParsePeriod("2025-09"))

	var closedErr *domain.PeriodClosedError
	if !errors.As(err, &closedErr) {
		t.Fatalf("expected PeriodClosedError, got %v", err)
	}
	if closedErr.Period != "2025-09" {
		t.Errorf("expected 2025-09, got %s", closedErr.Period)
	}

	if err := e.closing.EnsurePeriodsOpen(context.Background(), "user-2", domain.MustParsePeriod("2025-09")); err != nil {
		t.Errorf("other users are not affected, got %v", err)
	}
}

func TestClosingUseCase_ListLedgers(t *testing.T) {
	e := newTestEnv(t)
	for _, p := range []string{"2025-08", "2025-10", "2025-09"} {
		if _, err := e.closing.CloseMonth(context.Background(), testUser, p); err != nil {
			t.Fatalf("close %s failed: %v", p, err)
		}
	}

	ledgers, err := e.closing.ListLedgers(context.Background(), testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledgers) != 3 || ledgers[0].Period.String() != "2025-10" {
		t.Errorf("expected 3 ledgers newest first, got %d", len(ledgers))
	}
}
