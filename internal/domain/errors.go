package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is wrapped by every "does not exist" error.
	ErrNotFound = errors.New("not found")

	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrBudgetNotFound      = fmt.Errorf("monthly budget %w", ErrNotFound)
	ErrLedgerNotFound      = fmt.Errorf("period ledger %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrImportNotFound      = fmt.Errorf("import batch %w", ErrNotFound)

	// Money errors
	ErrCurrencyMismatch = errors.New("cannot combine amounts in different currencies")
	ErrInvalidAmount    = errors.New("amount must be positive")

	// Period errors
	ErrInvalidPeriodFormat = errors.New("invalid period format, expected YYYY-MM")

	// State errors
	ErrPeriodClosed       = errors.New("period is closed")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrValidationFailed   = errors.New("validation failed")

	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrMissingUser            = errors.New("user id is required")
	ErrInvalidImport          = errors.New("invalid import batch")
)

// PeriodClosedError is returned when a mutation targets a closed period.
type PeriodClosedError struct {
	UserID string
	Period string
}

func (e *PeriodClosedError) Error() string {
	return fmt.Sprintf("period %s is closed and cannot be modified", e.Period)
}

// Is reports whether target is ErrPeriodClosed.
func (e *PeriodClosedError) Is(target error) bool {
	return target == ErrPeriodClosed
}

// InvariantViolationError is returned on illegal period ledger transitions.
type InvariantViolationError struct {
	Op     string
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is reports whether target is ErrInvariantViolation.
func (e *InvariantViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// ValidationError carries every blocking message produced by the rule pipeline,
// together with the advisory warnings gathered in the same run.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
