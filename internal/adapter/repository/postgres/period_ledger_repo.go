package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

const selectLedger = `
	SELECT id, user_id, period, status, total_income::text, total_expense::text,
	       final_balance::text, closed_at, notes, created_at, updated_at
	FROM period_ledgers`

// PeriodLedgerRepository implements usecase.PeriodLedgerRepository.
type PeriodLedgerRepository struct {
	db DBTX
}

// NewPeriodLedgerRepository creates a new PeriodLedgerRepository.
func NewPeriodLedgerRepository(pool *pgxpool.Pool) *PeriodLedgerRepository {
	return newPeriodLedgerRepository(pool)
}

func newPeriodLedgerRepository(db DBTX) *PeriodLedgerRepository {
	return &PeriodLedgerRepository{db: db}
}

// GetByUserAndPeriod retrieves the ledger of one month.
func (r *PeriodLedgerRepository) GetByUserAndPeriod(ctx context.Context, userID string, period domain.Period) (*domain.PeriodLedger, error) {
	l, err := scanLedger(r.db.QueryRow(ctx,
		selectLedger+` WHERE user_id = $1 AND period = $2`,
		userID, period.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerNotFound
		}
		return nil, err
	}
	return l, nil
}

// Save upserts the ledger of (user, period). The id and created_at of an
// existing row are kept.
func (r *PeriodLedgerRepository) Save(ctx context.Context, tx usecase.Transaction, l *domain.PeriodLedger) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO period_ledgers (
			id, user_id, period, status, total_income, total_expense,
			final_balance, closed_at, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, period) DO UPDATE
		SET status = EXCLUDED.status,
		    total_income = EXCLUDED.total_income,
		    total_expense = EXCLUDED.total_expense,
		    final_balance = EXCLUDED.final_balance,
		    closed_at = EXCLUDED.closed_at,
		    notes = EXCLUDED.notes,
		    updated_at = EXCLUDED.updated_at`,
		l.ID, l.UserID, l.Period.String(), string(l.Status),
		numeric(l.TotalIncome), numeric(l.TotalExpense), numeric(l.FinalBalance),
		l.ClosedAt, l.Notes, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

// ListByUser lists every ledger of the user, newest period first.
func (r *PeriodLedgerRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PeriodLedger, error) {
	rows, err := r.db.Query(ctx, selectLedger+` WHERE user_id = $1 ORDER BY period DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PeriodLedger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}

	return out, rows.Err()
}

func scanLedger(row pgx.Row) (*domain.PeriodLedger, error) {
	var (
		l                        domain.PeriodLedger
		token, status            string
		income, expense, balance string
	)

	if err := row.Scan(&l.ID, &l.UserID, &token, &status, &income, &expense,
		&balance, &l.ClosedAt, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if l.Period, err = parsePeriod(token); err != nil {
		return nil, err
	}
	if l.TotalIncome, err = parseDecimal(income); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", l.ID, err)
	}
	if l.TotalExpense, err = parseDecimal(expense); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", l.ID, err)
	}
	if l.FinalBalance, err = parseDecimal(balance); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", l.ID, err)
	}

	l.Status = domain.LedgerStatus(status)
	return &l, nil
}
