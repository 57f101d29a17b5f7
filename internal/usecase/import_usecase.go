package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/gobudget/internal/domain"
)

// ImportUseCase stages pre-tokenized rows, previews their validation and
// commits them through the transaction orchestrator.
type ImportUseCase struct {
	staging         ImportStagingStore
	closing         *ClosingUseCase
	validation      *ValidationUseCase
	transactions    *TransactionUseCase
	idGen           IDGenerator
	clock           Clock
	ttl             time.Duration
	defaultCurrency string
}

// NewImportUseCase creates a new ImportUseCase.
func NewImportUseCase(
	staging ImportStagingStore,
	closing *ClosingUseCase,
	validation *ValidationUseCase,
	transactions *TransactionUseCase,
	idGen IDGenerator,
	clock Clock,
	ttl time.Duration,
	defaultCurrency string,
) *ImportUseCase {
	if ttl <= 0 {
		ttl = DefaultImportTTL
	}
	return &ImportUseCase{
		staging:         staging,
		closing:         closing,
		validation:      validation,
		transactions:    transactions,
		idGen:           idGen,
		clock:           clock,
		ttl:             ttl,
		defaultCurrency: defaultCurrency,
	}
}

// ImportRowInput is one already tokenized row.
type ImportRowInput struct {
	Type        string
	CategoryID  *string
	Amount      string
	Currency    string
	Date        string // YYYY-MM-DD
	Description string
}

// Stage validates rows and keeps them for later commit.
func (uc *ImportUseCase) Stage(ctx context.Context, userID string, rows []ImportRowInput) (*domain.ImportBatch, error) {
	if userID == "" {
		return nil, domain.ErrMissingUser
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", domain.ErrInvalidImport)
	}
	if len(rows) > MaxImportRows {
		return nil, fmt.Errorf("%w: %d rows exceeds the limit of %d", domain.ErrInvalidImport, len(rows), MaxImportRows)
	}

	staged := make([]domain.ImportRow, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importValidationWorkers)
	for i, in := range rows {
		g.Go(func() error {
			row, err := uc.stageRow(gctx, userID, i+1, in)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			staged[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	batch := &domain.ImportBatch{
		ID:        uc.idGen.Generate(),
		UserID:    userID,
		Rows:      staged,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}

	if err := uc.staging.Save(ctx, batch, uc.ttl); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("import_id", batch.ID).
		Int("rows", len(batch.Rows)).
		Int("valid_rows", batch.ValidRows()).
		Msg("import staged")

	return batch, nil
}

func (uc *ImportUseCase) stageRow(ctx context.Context, userID string, line int, in ImportRowInput) (domain.ImportRow, error) {
	row := domain.ImportRow{
		Line:        line,
		Type:        domain.TransactionType(strings.ToLower(strings.TrimSpace(in.Type))),
		CategoryID:  in.CategoryID,
		Currency:    strings.ToUpper(strings.TrimSpace(in.Currency)),
		Description: strings.TrimSpace(in.Description),
	}
	if row.Currency == "" {
		row.Currency = uc.defaultCurrency
	}

	if _, err := domain.ParseTransactionType(string(row.Type)); err != nil {
		row.Errors = append(row.Errors, fmt.Sprintf("invalid type %q", in.Type))
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		row.Errors = append(row.Errors, fmt.Sprintf("invalid amount %q", in.Amount))
	}
	money, err := domain.NewMoney(amount, row.Currency)
	if err != nil {
		row.Errors = append(row.Errors, err.Error())
	}
	row.Amount = money.Amount()

	date, err := time.Parse(time.DateOnly, strings.TrimSpace(in.Date))
	if err != nil {
		row.Errors = append(row.Errors, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", in.Date))
	}
	row.Date = date

	if err := domain.ValidateDescription(row.Description); err != nil {
		row.Errors = append(row.Errors, err.Error())
	}

	if len(row.Errors) > 0 {
		return row, nil
	}

	closed, err := uc.closing.isClosed(ctx, userID, domain.PeriodFromDate(date))
	if err != nil {
		return row, err
	}
	if closed {
		row.PeriodClosed = true
		return row, nil
	}

	result, err := uc.validation.ValidateExpenseOrIncome(ctx, RuleContext{
		UserID:     userID,
		Type:       row.Type,
		CategoryID: row.CategoryID,
		Amount:     money,
		Date:       date,
	})
	if err != nil {
		return row, err
	}
	row.Errors = append(row.Errors, result.Errors...)
	row.Warnings = append(row.Warnings, result.Warnings...)

	return row, nil
}

// Get returns a staged batch of the user.
func (uc *ImportUseCase) Get(ctx context.Context, userID, importID string) (*domain.ImportBatch, error) {
	batch, err := uc.staging.Get(ctx, importID)
	if err != nil {
		return nil, err
	}
	if batch.UserID != userID {
		return nil, domain.ErrImportNotFound
	}
	return batch, nil
}

// Commit records every row of a staged batch. Rows failing validation are
// reported individually without aborting the rest of the batch.
//
// The batch is claimed before any row is written, so a second commit of the
// same batch finds nothing. When storage fails mid-batch, the rows not yet
// recorded are staged again under the same id and a retry resumes from there.
func (uc *ImportUseCase) Commit(ctx context.Context, userID, importID string) (*domain.ImportResult, error) {
	if _, err := uc.Get(ctx, userID, importID); err != nil {
		return nil, err
	}
	batch, err := uc.staging.Take(ctx, importID)
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{
		ImportID: batch.ID,
		Rows:     make([]domain.ImportRowOutcome, 0, len(batch.Rows)),
	}

	for i, row := range batch.Rows {
		outcome, err := uc.commitRow(ctx, userID, row)
		if err != nil {
			err = fmt.Errorf("line %d: %w", row.Line, err)
			if restageErr := uc.restage(ctx, batch, i); restageErr != nil {
				return nil, errors.Join(err, restageErr)
			}
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("import_id", batch.ID).
				Int("imported", result.Imported).
				Int("remaining", len(batch.Rows)-i).
				Msg("import commit interrupted")
			return nil, err
		}
		if outcome.TransactionID != "" {
			result.Imported++
		} else {
			result.Failed++
		}
		result.Rows = append(result.Rows, outcome)
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("import_id", batch.ID).
		Int("imported", result.Imported).
		Int("failed", result.Failed).
		Msg("import committed")

	return result, nil
}

// restage puts back the rows of batch from index from onwards with the
// batch's remaining lifetime.
func (uc *ImportUseCase) restage(ctx context.Context, batch *domain.ImportBatch, from int) error {
	ttl := uc.ttl
	if !batch.ExpiresAt.IsZero() {
		if left := batch.ExpiresAt.Sub(uc.clock.Now()); left > 0 {
			ttl = left
		}
	}

	rest := *batch
	rest.Rows = batch.Rows[from:]
	if err := uc.staging.Save(ctx, &rest, ttl); err != nil {
		return fmt.Errorf("restage import %s: %w", batch.ID, err)
	}
	return nil
}

func (uc *ImportUseCase) commitRow(ctx context.Context, userID string, row domain.ImportRow) (domain.ImportRowOutcome, error) {
	outcome := domain.ImportRowOutcome{Line: row.Line}

	if row.PeriodClosed {
		outcome.Errors = []string{fmt.Sprintf("period %s is closed", domain.PeriodFromDate(row.Date))}
		return outcome, nil
	}
	if len(row.Errors) > 0 {
		outcome.Errors = row.Errors
		return outcome, nil
	}

	res, err := uc.transactions.CreateTransaction(ctx, CreateTransactionInput{
		UserID:      userID,
		Type:        row.Type,
		CategoryID:  row.CategoryID,
		Amount:      row.Amount,
		Currency:    row.Currency,
		Date:        row.Date,
		Description: row.Description,
	})

	var validationErr *domain.ValidationError
	switch {
	case err == nil:
		outcome.TransactionID = res.Transaction.ID
		outcome.Warnings = res.Warnings
		return outcome, nil
	case errors.As(err, &validationErr):
		outcome.Errors = validationErr.Errors
		outcome.Warnings = validationErr.Warnings
		return outcome, nil
	case errors.Is(err, domain.ErrPeriodClosed):
		outcome.Errors = []string{err.Error()}
		return outcome, nil
	default:
		return outcome, err
	}
}

// Discard drops a staged batch without recording anything.
func (uc *ImportUseCase) Discard(ctx context.Context, userID, importID string) error {
	batch, err := uc.Get(ctx, userID, importID)
	if err != nil {
		return err
	}
	return uc.staging.Delete(ctx, batch.ID)
}
