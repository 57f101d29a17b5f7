package usecase

import (
	"context"
	"sort"

	"github.com/iho/gobudget/internal/domain"
)

// unitOfWork runs a mutation inside one database transaction holding the
// period locks of the user, retrying the whole attempt on transient failures.
type unitOfWork struct {
	txManager TransactionManager
	locker    PeriodLocker
	retrier   Retrier
}

func (u unitOfWork) run(
	ctx context.Context,
	userID string,
	periods []domain.Period,
	fn func(ctx context.Context, tx Transaction) error,
) error {
	// Locks are taken in a stable order so two updates moving transactions
	// between the same months cannot deadlock.
	locks := uniquePeriods(periods)

	return u.retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := u.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer tx.Rollback(txCtx)

		for _, p := range locks {
			if err := u.locker.LockPeriod(txCtx, tx, userID, p); err != nil {
				return err
			}
		}

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
}

func uniquePeriods(periods []domain.Period) []domain.Period {
	seen := make(map[domain.Period]struct{}, len(periods))
	out := make([]domain.Period, 0, len(periods))
	for _, p := range periods {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Start().Before(out[j].Start())
	})

	return out
}
