package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobudget/internal/domain"
)

var categoryColumns = []string{
	"id", "user_id", "name", "type", "limit_amount::text", "limit_currency",
	"priority", "created_at", "updated_at",
}

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return newCategoryRepository(pool)
}

func newCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	amount, currency := limitColumns(c.Limit)

	query, args, err := psql.
		Insert("categories").
		Columns("id", "user_id", "name", "type", "limit_amount", "limit_currency", "priority", "created_at", "updated_at").
		Values(c.ID, c.UserID, c.Name, string(c.Type), amount, currency, string(c.Priority), c.CreatedAt, c.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert category: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// Update overwrites name, limit and priority of a category.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	amount, currency := limitColumns(c.Limit)

	query, args, err := psql.
		Update("categories").
		Set("name", c.Name).
		Set("limit_amount", amount).
		Set("limit_currency", currency).
		Set("priority", string(c.Priority)).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update category: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectAffected(tag, domain.ErrCategoryNotFound)
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query, args, err := psql.
		Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select category: %w", err)
	}

	c, err := scanCategory(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetAllByUser lists the user's categories by name.
func (r *CategoryRepository) GetAllByUser(ctx context.Context, userID string) ([]*domain.Category, error) {
	query, args, err := psql.
		Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list categories: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func limitColumns(limit *domain.Money) (*string, *string) {
	if limit == nil {
		return nil, nil
	}
	amount := numeric(limit.Amount())
	currency := limit.Currency()
	return &amount, &currency
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c             domain.Category
		typ, priority string
		limitAmount   *string
		limitCurrency *string
	)

	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &typ, &limitAmount, &limitCurrency,
		&priority, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	if limitAmount != nil && limitCurrency != nil {
		limit, err := parseMoney(*limitAmount, *limitCurrency)
		if err != nil {
			return nil, fmt.Errorf("category %s limit: %w", c.ID, err)
		}
		c.Limit = &limit
	}

	c.Type = domain.TransactionType(typ)
	c.Priority = domain.Priority(priority)
	return &c, nil
}
