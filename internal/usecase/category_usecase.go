package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
)

// CategoryUseCase handles category business logic.
type CategoryUseCase struct {
	categoryRepo CategoryRepository
	idGen        IDGenerator
	clock        Clock
}

// NewCategoryUseCase creates a new CategoryUseCase.
func NewCategoryUseCase(categoryRepo CategoryRepository, idGen IDGenerator, clock Clock) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		idGen:        idGen,
		clock:        clock,
	}
}

// CreateCategoryInput represents input for creating a category.
type CreateCategoryInput struct {
	UserID   string
	Name     string
	Type     domain.TransactionType
	Limit    *decimal.Decimal
	Currency string
	Priority domain.Priority
}

// UpdateCategoryInput represents a partial category update. Nil fields are kept.
type UpdateCategoryInput struct {
	ID         string
	UserID     string
	Name       *string
	Limit      *decimal.Decimal
	Currency   string
	ClearLimit bool
	Priority   *domain.Priority
}

// CreateCategory creates a new category. Priority defaults to discretionary.
func (uc *CategoryUseCase) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	if input.UserID == "" {
		return nil, domain.ErrMissingUser
	}

	name := strings.TrimSpace(input.Name)
	if err := domain.ValidateCategoryName(name); err != nil {
		return nil, err
	}

	txType, err := domain.ParseTransactionType(string(input.Type))
	if err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityDiscretionary
	}
	if !priority.IsValid() {
		return nil, domain.ErrInvalidPriority
	}

	limit, err := buildLimit(input.Limit, input.Currency)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	category := &domain.Category{
		ID:        uc.idGen.Generate(),
		UserID:    input.UserID,
		Name:      name,
		Type:      txType,
		Limit:     limit,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// UpdateCategory changes the name, limit or priority of a category.
func (uc *CategoryUseCase) UpdateCategory(ctx context.Context, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := uc.GetCategory(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := domain.ValidateCategoryName(name); err != nil {
			return nil, err
		}
		category.Name = name
	}

	switch {
	case input.ClearLimit:
		category.Limit = nil
	case input.Limit != nil:
		currency := input.Currency
		if currency == "" && category.Limit != nil {
			currency = category.Limit.Currency()
		}
		limit, err := buildLimit(input.Limit, currency)
		if err != nil {
			return nil, err
		}
		category.Limit = limit
	}

	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, domain.ErrInvalidPriority
		}
		category.Priority = *input.Priority
	}

	category.UpdatedAt = uc.clock.Now()
	if err := uc.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// GetCategory returns a category owned by the user.
func (uc *CategoryUseCase) GetCategory(ctx context.Context, userID, id string) (*domain.Category, error) {
	category, err := lookupCategory(ctx, uc.categoryRepo, userID, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

// ListCategories returns every category of the user.
func (uc *CategoryUseCase) ListCategories(ctx context.Context, userID string) ([]*domain.Category, error) {
	return uc.categoryRepo.GetAllByUser(ctx, userID)
}

func buildLimit(amount *decimal.Decimal, currency string) (*domain.Money, error) {
	if amount == nil {
		return nil, nil
	}
	if amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	m, err := domain.NewMoney(*amount, currency)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
