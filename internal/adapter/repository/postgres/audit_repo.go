package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobudget/internal/domain"
	"github.com/iho/gobudget/internal/usecase"
)

// AuditRepository implements audit log persistence.
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return newAuditRepository(pool)
}

func newAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry inside tx.
func (r *AuditRepository) Create(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	before, err := log.BeforeState.Marshal()
	if err != nil {
		return fmt.Errorf("marshal before state: %w", err)
	}
	after, err := log.AfterState.Marshal()
	if err != nil {
		return fmt.Errorf("marshal after state: %w", err)
	}

	_, err = conn(r.db, tx).Exec(ctx, `
		INSERT INTO audit_logs (
			id, user_id, action, resource_type, resource_id, period,
			before_state, after_state, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.Period,
		before,
		after,
		log.CreatedAt,
	)

	return err
}

// GetByResourceID retrieves all audit logs for a specific resource, oldest first.
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, resource_type, resource_id, period,
		       before_state, after_state, created_at
		FROM audit_logs
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at, id`,
		resourceType, resourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log           domain.AuditLog
			before, after []byte
		)

		if err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&log.Period,
			&before,
			&after,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}

		if before != nil {
			if err := json.Unmarshal(before, &log.BeforeState); err != nil {
				return nil, fmt.Errorf("audit log %s before state: %w", log.ID, err)
			}
		}
		if after != nil {
			if err := json.Unmarshal(after, &log.AfterState); err != nil {
				return nil, fmt.Errorf("audit log %s after state: %w", log.ID, err)
			}
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
