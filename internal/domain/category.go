package domain

import "time"

// Priority tags how a category competes for money.
type Priority string

const (
	PriorityEssential     Priority = "essential"
	PriorityDiscretionary Priority = "discretionary"
)

// IsValid checks if the priority is known.
func (p Priority) IsValid() bool {
	return p == PriorityEssential || p == PriorityDiscretionary
}

// Category groups transactions of one user. Limit is optional; nil means unconstrained.
type Category struct {
	ID        string
	UserID    string
	Name      string
	Type      TransactionType
	Limit     *Money
	Priority  Priority
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEssential reports whether the category is tagged essential.
func (c *Category) IsEssential() bool {
	return c.Priority == PriorityEssential
}

// EvaluateLimit evaluates projected monthly spend against the category limit.
func (c *Category) EvaluateLimit(spend Money) LimitEvaluation {
	return EvaluateLimit(c.Limit, spend.Amount())
}
