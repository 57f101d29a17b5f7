package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// conn returns the transaction's connection when tx is set, db otherwise.
func conn(db DBTX, tx usecase.Transaction) DBTX {
	if tx == nil {
		return db
	}
	return tx.(*Tx).PgxTx()
}

// Numeric columns are read back as text so that no precision is lost.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func numeric(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyScale)
}

func parseMoney(amount, currency string) (domain.Money, error) {
	d, err := parseDecimal(amount)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.NewMoney(d, currency)
}

func parsePeriod(token string) (domain.Period, error) {
	p, err := domain.ParsePeriod(token)
	if err != nil {
		return domain.Period{}, fmt.Errorf("stored period %q: %w", token, err)
	}
	return p, nil
}

// expectAffected turns a zero-row write into notFound.
func expectAffected(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
