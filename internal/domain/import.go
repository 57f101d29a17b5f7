package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportRow is one pre-tokenized row of a batch import.
type ImportRow struct {
	Line         int             `json:"line"`
	Type         TransactionType `json:"type"`
	CategoryID   *string         `json:"category_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	PeriodClosed bool            `json:"period_closed"`
	Errors       []string        `json:"errors,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// IsValid reports whether the row passed staging validation.
func (r ImportRow) IsValid() bool {
	return !r.PeriodClosed && len(r.Errors) == 0
}

// ImportBatch is a staged set of rows awaiting commit.
type ImportBatch struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Rows      []ImportRow `json:"rows"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// ValidRows counts rows that passed staging validation.
func (b *ImportBatch) ValidRows() int {
	n := 0
	for _, r := range b.Rows {
		if r.IsValid() {
			n++
		}
	}
	return n
}

// ImportRowOutcome is the commit result of one row.
type ImportRowOutcome struct {
	Line          int      `json:"line"`
	TransactionID string   `json:"transaction_id,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ImportResult summarises a committed batch.
type ImportResult struct {
	ImportID string             `json:"import_id"`
	Imported int                `json:"imported"`
	Failed   int                `json:"failed"`
	Rows     []ImportRowOutcome `json:"rows"`
}
