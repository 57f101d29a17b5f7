package domain

import (
	"fmt"
	"regexp"
	"time"
)

// PeriodLayout is the token layout of a calendar month.
const PeriodLayout = "2006-01"

var periodRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Period is one calendar month. Start is the first day, End the last day.
type Period struct {
	start time.Time
	end   time.Time
}

// ParsePeriod parses a "YYYY-MM" token.
func ParsePeriod(token string) (Period, error) {
	if !periodRegex.MatchString(token) {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriodFormat, token)
	}

	t, err := time.Parse(PeriodLayout, token)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriodFormat, token)
	}

	return PeriodFromDate(t), nil
}

// MustParsePeriod is like ParsePeriod but panics on a malformed token.
func MustParsePeriod(token string) Period {
	p, err := ParsePeriod(token)
	if err != nil {
		panic(err)
	}
	return p
}

// PeriodFromDate returns the month containing t.
func PeriodFromDate(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		start: start,
		end:   start.AddDate(0, 1, -1),
	}
}

// Start returns the first day of the month.
func (p Period) Start() time.Time { return p.start }

// End returns the last day of the month.
func (p Period) End() time.Time { return p.end }

// EndExclusive returns the first day of the following month.
func (p Period) EndExclusive() time.Time { return p.start.AddDate(0, 1, 0) }

// Contains reports whether the calendar date of t falls inside the month.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.start.Year() && t.Month() == p.start.Month()
}

// Next returns the following month.
func (p Period) Next() Period { return PeriodFromDate(p.start.AddDate(0, 1, 0)) }

// Previous returns the preceding month.
func (p Period) Previous() Period { return PeriodFromDate(p.start.AddDate(0, -1, 0)) }

// IsZero reports whether p was never initialised.
func (p Period) IsZero() bool { return p.start.IsZero() }

// String returns the "YYYY-MM" token.
func (p Period) String() string {
	return p.start.Format(PeriodLayout)
}
