package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

var transactionColumns = []string{
	"id", "user_id", "type", "category_id", "amount::text", "currency",
	"date", "description", "created_at", "updated_at",
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db DBTX
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	query, args, err := psql.
		Insert("transactions").
		Columns("id", "user_id", "type", "category_id", "amount", "currency", "date", "description", "created_at", "updated_at").
		Values(t.ID, t.UserID, string(t.Type), t.CategoryID, numeric(t.Amount.Amount()), t.Amount.Currency(),
			t.Date, t.Description, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert transaction: %w", err)
	}

	_, err = conn(r.db, tx).Exec(ctx, query, args...)
	return err
}

// Update overwrites the mutable fields of a transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	query, args, err := psql.
		Update("transactions").
		Set("type", string(t.Type)).
		Set("category_id", t.CategoryID).
		Set("amount", numeric(t.Amount.Amount())).
		Set("currency", t.Amount.Currency()).
		Set("date", t.Date).
		Set("description", t.Description).
		Set("updated_at", t.UpdatedAt).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update transaction: %w", err)
	}

	tag, err := conn(r.db, tx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectAffected(tag, domain.ErrTransactionNotFound)
}

// Delete removes a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(tag, domain.ErrTransactionNotFound)
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query, args, err := psql.
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select transaction: %w", err)
	}

	t, err := scanTransaction(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListByUserAndPeriod lists the user's transactions dated inside period, oldest first.
func (r *TransactionRepository) ListByUserAndPeriod(ctx context.Context, userID string, period domain.Period) ([]*domain.Transaction, error) {
	query, args, err := psql.
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		Where(inPeriod(period)).
		OrderBy("date", "created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list transactions: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

// SumByTypeAndPeriod totals the user's transactions of one type inside period.
func (r *TransactionRepository) SumByTypeAndPeriod(ctx context.Context, userID string, t domain.TransactionType, period domain.Period) (decimal.Decimal, error) {
	return r.sum(ctx, squirrel.And{
		squirrel.Eq{"user_id": userID},
		squirrel.Eq{"type": string(t)},
		inPeriod(period),
	})
}

// SumByCategoryAndPeriod totals the transactions booked against categoryID inside period.
func (r *TransactionRepository) SumByCategoryAndPeriod(ctx context.Context, categoryID string, period domain.Period) (decimal.Decimal, error) {
	return r.sum(ctx, squirrel.And{
		squirrel.Eq{"category_id": categoryID},
		inPeriod(period),
	})
}

// CurrenciesByPeriod lists the distinct currencies the user booked inside period.
func (r *TransactionRepository) CurrenciesByPeriod(ctx context.Context, userID string, period domain.Period) ([]string, error) {
	query, args, err := psql.
		Select("DISTINCT currency").
		From("transactions").
		Where(squirrel.And{squirrel.Eq{"user_id": userID}, inPeriod(period)}).
		OrderBy("currency").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list currencies: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *TransactionRepository) sum(ctx context.Context, where squirrel.Sqlizer) (decimal.Decimal, error) {
	query, args, err := psql.
		Select("COALESCE(SUM(amount), 0)::text").
		From("transactions").
		Where(where).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build sum transactions: %w", err)
	}

	var total string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return parseDecimal(total)
}

func inPeriod(period domain.Period) squirrel.And {
	return squirrel.And{
		squirrel.GtOrEq{"date": period.Start()},
		squirrel.Lt{"date": period.EndExclusive()},
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t        domain.Transaction
		typ      string
		amount   string
		currency string
		date     time.Time
	)

	if err := row.Scan(&t.ID, &t.UserID, &typ, &t.CategoryID, &amount, &currency,
		&date, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	money, err := parseMoney(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
	}

	t.Type = domain.TransactionType(typ)
	t.Amount = money
	t.Date = domain.DateOnly(date)
	return &t, nil
}
