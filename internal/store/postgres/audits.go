package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

const auditColumns = `id, tenant_id, title, description, scope, lead_auditor, status,
	start_date, end_date, created_by, created_at, updated_at`

func (r *AuditRepo) Create(ctx context.Context, a *domain.Audit) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audits (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.TenantID, a.Title, a.Description, a.Scope, a.LeadAuditor, a.Status,
		a.StartDate, a.EndDate, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("auditRepo.Create", err)
	}

	return nil
}

func (r *AuditRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Audit, error) {
	var a domain.Audit

	err := r.pool.QueryRow(ctx,
		`SELECT `+auditColumns+` FROM audits WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&a.ID, &a.TenantID, &a.Title, &a.Description, &a.Scope, &a.LeadAuditor, &a.Status,
		&a.StartDate, &a.EndDate, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("auditRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("auditRepo.GetByID: %w", err)
	}

	return &a, nil
}

func (r *AuditRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Audit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audits WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1000`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	audits := make([]*domain.Audit, 0)
	for rows.Next() {
		var a domain.Audit
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.Title, &a.Description, &a.Scope, &a.LeadAuditor, &a.Status,
			&a.StartDate, &a.EndDate, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("auditRepo.List: scan: %w", err)
		}
		audits = append(audits, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditRepo.List: rows: %w", err)
	}

	return audits, nil
}

func (r *AuditRepo) Update(ctx context.Context, a *domain.Audit) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE audits SET title = $1, description = $2, scope = $3, lead_auditor = $4,
		        start_date = $5, end_date = $6, updated_at = now()
		 WHERE tenant_id = $7 AND id = $8`,
		a.Title, a.Description, a.Scope, a.LeadAuditor, a.StartDate, a.EndDate,
		a.TenantID, a.ID,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("auditRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *AuditRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.AuditStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE audits SET status = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3 AND status = $4`,
		to, tenantID, id, from,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, tenantID, id); err != nil {
			return fmt.Errorf("auditRepo.UpdateStatus: %w", err)
		}
		return fmt.Errorf("auditRepo.UpdateStatus: status is no longer %s: %w", from, domain.ErrInvalidState)
	}

	return nil
}

// Delete relies on ON DELETE CASCADE for everything the audit owns.
func (r *AuditRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM audits WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("auditRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *AuditRepo) LinkStandard(ctx context.Context, tenantID, auditID, standardID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO audit_standards (audit_id, standard_id)
		 SELECT a.id, s.id FROM audits a, standards s
		 WHERE a.tenant_id = $1 AND a.id = $2 AND s.tenant_id = $1 AND s.id = $3
		 ON CONFLICT DO NOTHING`,
		tenantID, auditID, standardID,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.LinkStandard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either already linked or one side is missing.
		var exists bool
		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM audit_standards WHERE audit_id = $1 AND standard_id = $2)`,
			auditID, standardID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("auditRepo.LinkStandard: %w", err)
		}
		if !exists {
			return fmt.Errorf("auditRepo.LinkStandard: %w", domain.ErrNotFound)
		}
	}

	return nil
}

func (r *AuditRepo) ListStandards(ctx context.Context, tenantID, auditID uuid.UUID) ([]*domain.Standard, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.tenant_id, s.code, s.name, s.version, s.description, s.created_at
		 FROM standards s
		 JOIN audit_standards l ON l.standard_id = s.id
		 WHERE s.tenant_id = $1 AND l.audit_id = $2
		 ORDER BY s.code`,
		tenantID, auditID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListStandards: %w", err)
	}
	defer rows.Close()

	return scanStandards(rows, "auditRepo.ListStandards")
}
