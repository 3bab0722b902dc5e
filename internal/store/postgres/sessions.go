package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, tenant_id, audit_id, name, description, display_order, status,
	scheduled_at, created_at, updated_at`

func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.TenantID, s.AuditID, s.Name, s.Description, s.DisplayOrder, s.Status,
		s.ScheduledAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("sessionRepo.Create", err)
	}

	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Session, error) {
	var s domain.Session

	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM audit_sessions WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&s.ID, &s.TenantID, &s.AuditID, &s.Name, &s.Description, &s.DisplayOrder, &s.Status,
		&s.ScheduledAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sessionRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.GetByID: %w", err)
	}

	return &s, nil
}

func (r *SessionRepo) ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID) ([]*domain.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM audit_sessions
		 WHERE tenant_id = $1 AND audit_id = $2
		 ORDER BY display_order`,
		tenantID, auditID,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListByAudit: %w", err)
	}
	defer rows.Close()

	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.AuditID, &s.Name, &s.Description, &s.DisplayOrder, &s.Status,
			&s.ScheduledAt, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sessionRepo.ListByAudit: scan: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessionRepo.ListByAudit: rows: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.SessionStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE audit_sessions SET status = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3 AND status = $4`,
		to, tenantID, id, from,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, tenantID, id); err != nil {
			return fmt.Errorf("sessionRepo.UpdateStatus: %w", err)
		}
		return fmt.Errorf("sessionRepo.UpdateStatus: status is no longer %s: %w", from, domain.ErrInvalidState)
	}

	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM audit_sessions WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sessionRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

type SessionItemRepo struct {
	pool *pgxpool.Pool
}

func NewSessionItemRepo(pool *pgxpool.Pool) *SessionItemRepo {
	return &SessionItemRepo{pool: pool}
}

const sessionItemColumns = `i.id, i.tenant_id, i.audit_id, i.session_id, i.standard_item_id,
	i.item_snapshot, i.display_order, i.created_at`

// CreateBatch copies rows with pgx.CopyFrom inside a transaction so a failed
// batch leaves nothing behind.
func (r *SessionItemRepo) CreateBatch(ctx context.Context, items []*domain.SessionItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(items))
	for _, it := range items {
		snapshot, err := json.Marshal(it.Snapshot)
		if err != nil {
			return fmt.Errorf("sessionItemRepo.CreateBatch: marshal snapshot: %w", err)
		}
		rows = append(rows, []any{
			it.ID, it.TenantID, it.AuditID, it.SessionID, it.StandardItemID,
			snapshot, it.DisplayOrder, it.CreatedAt,
		})
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("sessionItemRepo.CreateBatch: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"session_items"},
		[]string{"id", "tenant_id", "audit_id", "session_id", "standard_item_id", "item_snapshot", "display_order", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return wrapWriteErr("sessionItemRepo.CreateBatch", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("sessionItemRepo.CreateBatch: commit: %w", err)
	}

	return nil
}

func (r *SessionItemRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.SessionItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionItemColumns+` FROM session_items i WHERE i.tenant_id = $1 AND i.id = $2`,
		tenantID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionItemRepo.GetByID: %w", err)
	}
	defer rows.Close()

	items, err := scanSessionItems(rows, "sessionItemRepo.GetByID")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("sessionItemRepo.GetByID: %w", domain.ErrNotFound)
	}

	return items[0], nil
}

func (r *SessionItemRepo) ListBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]*domain.SessionItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionItemColumns+` FROM session_items i
		 WHERE i.tenant_id = $1 AND i.session_id = $2
		 ORDER BY i.display_order`,
		tenantID, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionItemRepo.ListBySession: %w", err)
	}
	defer rows.Close()

	return scanSessionItems(rows, "sessionItemRepo.ListBySession")
}

func (r *SessionItemRepo) ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID) ([]*domain.SessionItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionItemColumns+` FROM session_items i
		 JOIN audit_sessions s ON s.id = i.session_id
		 WHERE i.tenant_id = $1 AND i.audit_id = $2
		 ORDER BY s.display_order, i.display_order`,
		tenantID, auditID,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionItemRepo.ListByAudit: %w", err)
	}
	defer rows.Close()

	return scanSessionItems(rows, "sessionItemRepo.ListByAudit")
}

func scanSessionItems(rows pgx.Rows, caller string) ([]*domain.SessionItem, error) {
	items := make([]*domain.SessionItem, 0)
	for rows.Next() {
		var it domain.SessionItem
		var snapshot []byte

		if err := rows.Scan(
			&it.ID, &it.TenantID, &it.AuditID, &it.SessionID, &it.StandardItemID,
			&snapshot, &it.DisplayOrder, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if err := json.Unmarshal(snapshot, &it.Snapshot); err != nil {
			return nil, fmt.Errorf("%s: unmarshal snapshot: %w", caller, err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return items, nil
}
