package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStatus is the closing state of a period ledger.
type LedgerStatus string

const (
	LedgerStatusOpen   LedgerStatus = "open"
	LedgerStatusClosed LedgerStatus = "closed"
)

// PeriodLedger is the closing record of one (user, period) pair.
// It exists only after the period has been closed at least once.
type PeriodLedger struct {
	ID           string
	UserID       string
	Period       Period
	Status       LedgerStatus
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	FinalBalance decimal.Decimal
	ClosedAt     time.Time
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewClosedLedger creates the ledger produced by closing a period.
func NewClosedLedger(id, userID string, period Period, totalIncome, totalExpense decimal.Decimal, now time.Time) *PeriodLedger {
	income := totalIncome.Round(MoneyScale)
	expense := totalExpense.Round(MoneyScale)

	return &PeriodLedger{
		ID:           id,
		UserID:       userID,
		Period:       period,
		Status:       LedgerStatusClosed,
		TotalIncome:  income,
		TotalExpense: expense,
		FinalBalance: income.Sub(expense),
		ClosedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsClosed reports whether the ledger currently locks its period.
func (l *PeriodLedger) IsClosed() bool {
	return l.Status == LedgerStatusClosed
}

// Reopen unlocks a closed period and records why.
func (l *PeriodLedger) Reopen(reason string, now time.Time) error {
	if l.Status != LedgerStatusClosed {
		return &InvariantViolationError{Op: "reopen", Reason: "only a closed month can be reopened"}
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason given"
	}
	l.appendNote(fmt.Sprintf("[%s] Reopened: %s", now.Format(time.RFC3339), reason))

	l.Status = LedgerStatusOpen
	l.UpdatedAt = now

	return nil
}

// CloseAgain re-locks a previously reopened period. Totals are kept as recorded
// at the original closing.
func (l *PeriodLedger) CloseAgain(now time.Time) error {
	if l.Status != LedgerStatusOpen {
		return &InvariantViolationError{Op: "close again", Reason: "only a reopened month can be closed again"}
	}

	l.Status = LedgerStatusClosed
	l.ClosedAt = now
	l.UpdatedAt = now

	return nil
}

func (l *PeriodLedger) appendNote(note string) {
	if l.Notes == nil || *l.Notes == "" {
		l.Notes = &note
		return
	}
	joined := *l.Notes + "\n" + note
	l.Notes = &joined
}
