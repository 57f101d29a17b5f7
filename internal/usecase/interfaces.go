package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobudget/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// TransactionRepository defines data access for income and expense records.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	Update(ctx context.Context, tx Transaction, t *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, id string) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByUserAndPeriod(ctx context.Context, userID string, period domain.Period) ([]*domain.Transaction, error)
	// SumByTypeAndPeriod returns the total of the user's transactions of type t
	// dated inside period. Zero when there are none.
	SumByTypeAndPeriod(ctx context.Context, userID string, t domain.TransactionType, period domain.Period) (decimal.Decimal, error)
	// SumByCategoryAndPeriod returns the total booked against categoryID inside period.
	SumByCategoryAndPeriod(ctx context.Context, categoryID string, period domain.Period) (decimal.Decimal, error)
	// CurrenciesByPeriod returns the distinct currencies of the user's
	// transactions dated inside period, sorted.
	CurrenciesByPeriod(ctx context.Context, userID string, period domain.Period) ([]string, error)
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetAllByUser(ctx context.Context, userID string) ([]*domain.Category, error)
}

// MonthlyBudgetRepository defines data access for monthly budgets.
type MonthlyBudgetRepository interface {
	GetByUserAndPeriod(ctx context.Context, userID string, period domain.Period) (*domain.MonthlyBudget, error)
	Save(ctx context.Context, tx Transaction, b *domain.MonthlyBudget) error
	Delete(ctx context.Context, tx Transaction, userID string, period domain.Period) error
}

// PeriodLedgerRepository defines data access for period ledgers.
// Ledgers are unique per (user, period) and never deleted.
type PeriodLedgerRepository interface {
	GetByUserAndPeriod(ctx context.Context, userID string, period domain.Period) (*domain.PeriodLedger, error)
	Save(ctx context.Context, tx Transaction, l *domain.PeriodLedger) error
	ListByUser(ctx context.Context, userID string) ([]*domain.PeriodLedger, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// PeriodLocker serializes mutations of one user's period for the lifetime of tx.
type PeriodLocker interface {
	LockPeriod(ctx context.Context, tx Transaction, userID string, period domain.Period) error
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so a failed request can be retried with the same key.
	Release(ctx context.Context, key string) error
}

// ImportStagingStore keeps staged import batches until commit, discard or expiry.
type ImportStagingStore interface {
	Save(ctx context.Context, batch *domain.ImportBatch, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.ImportBatch, error)
	// Take removes and returns the batch in one step. Only one caller can
	// take a given batch; the others get domain.ErrImportNotFound.
	Take(ctx context.Context, id string) (*domain.ImportBatch, error)
	Delete(ctx context.Context, id string) error
}

// MetricsRecorder receives engine outcome counters.
type MetricsRecorder interface {
	ValidationCompleted(valid bool)
	RuleFailed(rule string)
	PeriodTransition(action domain.AuditAction)
	PeriodClosedRejected()
}

// SystemClock is a Clock backed by time.Now in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) ValidationCompleted(bool)            {}
func (NopMetrics) RuleFailed(string)                   {}
func (NopMetrics) PeriodTransition(domain.AuditAction) {}
func (NopMetrics) PeriodClosedRejected()               {}
