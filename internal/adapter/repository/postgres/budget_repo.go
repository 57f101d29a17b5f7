package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

// MonthlyBudgetRepository implements usecase.MonthlyBudgetRepository.
type MonthlyBudgetRepository struct {
	db DBTX
}

// NewMonthlyBudgetRepository creates a new MonthlyBudgetRepository.
func NewMonthlyBudgetRepository(pool *pgxpool.Pool) *MonthlyBudgetRepository {
	return newMonthlyBudgetRepository(pool)
}

func newMonthlyBudgetRepository(db DBTX) *MonthlyBudgetRepository {
	return &MonthlyBudgetRepository{db: db}
}

// GetByUserAndPeriod retrieves the budget of one month.
func (r *MonthlyBudgetRepository) GetByUserAndPeriod(ctx context.Context, userID string, period domain.Period) (*domain.MonthlyBudget, error) {
	var (
		b                       domain.MonthlyBudget
		token, amount, currency string
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, period, amount::text, currency, created_at, updated_at
		FROM monthly_budgets
		WHERE user_id = $1 AND period = $2`,
		userID, period.String(),
	).Scan(&b.ID, &b.UserID, &token, &amount, &currency, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}

	if b.Period, err = parsePeriod(token); err != nil {
		return nil, err
	}
	if b.Amount, err = parseMoney(amount, currency); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save upserts the budget of (user, period).
func (r *MonthlyBudgetRepository) Save(ctx context.Context, tx usecase.Transaction, b *domain.MonthlyBudget) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO monthly_budgets (id, user_id, period, amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, period) DO UPDATE
		SET amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency,
		    updated_at = EXCLUDED.updated_at`,
		b.ID, b.UserID, b.Period.String(), numeric(b.Amount.Amount()), b.Amount.Currency(), b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// Delete removes the budget of (user, period).
func (r *MonthlyBudgetRepository) Delete(ctx context.Context, tx usecase.Transaction, userID string, period domain.Period) error {
	tag, err := conn(r.db, tx).Exec(ctx,
		`DELETE FROM monthly_budgets WHERE user_id = $1 AND period = $2`,
		userID, period.String(),
	)
	if err != nil {
		return err
	}
	return expectAffected(tag, domain.ErrBudgetNotFound)
}
