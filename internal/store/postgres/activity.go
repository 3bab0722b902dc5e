package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Record(ctx context.Context, entry *domain.ActivityEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("activityRepo.Record: marshal details: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO activity_log (id, tenant_id, audit_id, actor_id, action, resource, resource_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.TenantID, entry.AuditID, entry.ActorID,
		entry.Action, entry.Resource, entry.ResourceID,
		details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("activityRepo.Record: %w", err)
	}

	return nil
}

func (r *ActivityRepo) ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID, limit, offset int) ([]*domain.ActivityEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, audit_id, actor_id, action, resource, resource_id, details, created_at
		 FROM activity_log WHERE tenant_id = $1 AND audit_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		tenantID, auditID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("activityRepo.ListByAudit: %w", err)
	}
	defer rows.Close()

	return scanActivity(rows, "activityRepo.ListByAudit")
}

func scanActivity(rows pgx.Rows, caller string) ([]*domain.ActivityEntry, error) {
	entries := make([]*domain.ActivityEntry, 0)
	for rows.Next() {
		var e domain.ActivityEntry
		var details []byte

		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.AuditID, &e.ActorID, &e.Action,
			&e.Resource, &e.ResourceID, &details, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("%s: unmarshal details: %w", caller, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}
