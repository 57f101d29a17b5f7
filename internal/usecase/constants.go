package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds every unit of work.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long a replayable response is kept.
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultImportTTL is how long a staged batch survives without commit.
	DefaultImportTTL = 30 * time.Minute

	// MaxImportRows caps one staged batch.
	MaxImportRows = 1000

	importValidationWorkers = 4
)
