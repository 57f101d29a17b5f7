package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

// PeriodLocker implements usecase.PeriodLocker with transaction-scoped
// advisory locks. The lock is released when the transaction ends.
type PeriodLocker struct{}

// NewPeriodLocker creates a new PeriodLocker.
func NewPeriodLocker() *PeriodLocker {
	return &PeriodLocker{}
}

// LockPeriod blocks until tx holds the lock for (userID, period).
func (l *PeriodLocker) LockPeriod(ctx context.Context, tx usecase.Transaction, userID string, period domain.Period) error {
	if tx == nil {
		return errors.New("lock period: transaction required")
	}
	_, err := conn(nil, tx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		periodLockKey(userID, period),
	)
	if err != nil {
		return fmt.Errorf("lock period %s: %w", period, err)
	}
	return nil
}

func periodLockKey(userID string, period domain.Period) string {
	return "period:" + userID + ":" + period.String()
}
