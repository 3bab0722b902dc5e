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

type ResponseRepo struct {
	pool *pgxpool.Pool
}

func NewResponseRepo(pool *pgxpool.Pool) *ResponseRepo {
	return &ResponseRepo{pool: pool}
}

const responseColumns = `id, tenant_id, audit_id, session_item_id, response_option_id,
	justification, strengths, weaknesses, observations, attachment_ids,
	responded_by, responded_at, created_at, updated_at`

// Upsert writes r unless the stored row has a newer responded_at. In both
// cases the row that ends up stored is returned.
func (r *ResponseRepo) Upsert(ctx context.Context, resp *domain.Response) (*domain.Response, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO responses (`+responseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (session_item_id) DO UPDATE SET
		     response_option_id = EXCLUDED.response_option_id,
		     justification      = EXCLUDED.justification,
		     strengths          = EXCLUDED.strengths,
		     weaknesses         = EXCLUDED.weaknesses,
		     observations       = EXCLUDED.observations,
		     attachment_ids     = EXCLUDED.attachment_ids,
		     responded_by       = EXCLUDED.responded_by,
		     responded_at       = EXCLUDED.responded_at,
		     updated_at         = EXCLUDED.updated_at
		 WHERE responses.responded_at <= EXCLUDED.responded_at
		 RETURNING `+responseColumns,
		resp.ID, resp.TenantID, resp.AuditID, resp.SessionItemID, resp.OptionID,
		resp.Justification, resp.Strengths, resp.Weaknesses, resp.Observations, resp.AttachmentIDs,
		resp.RespondedBy, resp.RespondedAt, resp.CreatedAt, resp.UpdatedAt,
	)

	saved, err := scanResponse(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// The WHERE clause kept a newer row.
		return r.GetBySessionItem(ctx, resp.TenantID, resp.SessionItemID)
	}
	if err != nil {
		return nil, wrapWriteErr("responseRepo.Upsert", err)
	}

	return saved, nil
}

func (r *ResponseRepo) GetBySessionItem(ctx context.Context, tenantID, sessionItemID uuid.UUID) (*domain.Response, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE tenant_id = $1 AND session_item_id = $2`,
		tenantID, sessionItemID,
	)

	resp, err := scanResponse(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("responseRepo.GetBySessionItem: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("responseRepo.GetBySessionItem: %w", err)
	}

	return resp, nil
}

func (r *ResponseRepo) ListBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]*domain.Response, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+responseColumns+` FROM responses
		 WHERE tenant_id = $1
		   AND session_item_id IN (SELECT id FROM session_items WHERE session_id = $2)
		 ORDER BY responded_at`,
		tenantID, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("responseRepo.ListBySession: %w", err)
	}
	defer rows.Close()

	return scanResponses(rows, "responseRepo.ListBySession")
}

func (r *ResponseRepo) ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID) ([]*domain.Response, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+responseColumns+` FROM responses
		 WHERE tenant_id = $1 AND audit_id = $2
		 ORDER BY responded_at`,
		tenantID, auditID,
	)
	if err != nil {
		return nil, fmt.Errorf("responseRepo.ListByAudit: %w", err)
	}
	defer rows.Close()

	return scanResponses(rows, "responseRepo.ListByAudit")
}

func scanResponse(row pgx.Row) (*domain.Response, error) {
	var resp domain.Response
	err := row.Scan(
		&resp.ID, &resp.TenantID, &resp.AuditID, &resp.SessionItemID, &resp.OptionID,
		&resp.Justification, &resp.Strengths, &resp.Weaknesses, &resp.Observations, &resp.AttachmentIDs,
		&resp.RespondedBy, &resp.RespondedAt, &resp.CreatedAt, &resp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if resp.AttachmentIDs == nil {
		resp.AttachmentIDs = []string{}
	}
	return &resp, nil
}

func scanResponses(rows pgx.Rows, caller string) ([]*domain.Response, error) {
	responses := make([]*domain.Response, 0)
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return responses, nil
}
