package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type OccurrenceRepo struct {
	pool *pgxpool.Pool
}

func NewOccurrenceRepo(pool *pgxpool.Pool) *OccurrenceRepo {
	return &OccurrenceRepo{pool: pool}
}

const occurrenceColumns = `id, tenant_id, audit_id, session_id, session_item_id, response_id,
	occurrence_number, occurrence_type, title, description, status, priority,
	responsible, due_date, root_cause, corrective_action, closed_at, closed_by,
	created_by, created_at, updated_at`

// Create bumps the audit's sequence row and inserts the occurrence in the same
// transaction. The row lock on the sequence serialises concurrent creates for
// one audit; numbers are never handed out twice, even after deletes.
func (r *OccurrenceRepo) Create(ctx context.Context, o *domain.Occurrence) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("occurrenceRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var number int
	err = tx.QueryRow(ctx,
		`INSERT INTO occurrence_sequences (audit_id, last_number)
		 SELECT id, 1 FROM audits WHERE tenant_id = $1 AND id = $2
		 ON CONFLICT (audit_id) DO UPDATE SET last_number = occurrence_sequences.last_number + 1
		 RETURNING last_number`,
		o.TenantID, o.AuditID,
	).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("occurrenceRepo.Create: audit: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("occurrenceRepo.Create: next number: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO occurrences (`+occurrenceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		o.ID, o.TenantID, o.AuditID, o.SessionID, o.SessionItemID, o.ResponseID,
		number, o.Type, o.Title, o.Description, o.Status, o.Priority,
		o.Responsible, o.DueDate, o.RootCause, o.CorrectiveAction, o.ClosedAt, o.ClosedBy,
		o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("occurrenceRepo.Create", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("occurrenceRepo.Create: commit: %w", err)
	}

	o.Number = number
	return nil
}

func (r *OccurrenceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Occurrence, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrences WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	o, err := scanOccurrence(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("occurrenceRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("occurrenceRepo.GetByID: %w", err)
	}

	return o, nil
}

func (r *OccurrenceRepo) ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrences
		 WHERE tenant_id = $1 AND audit_id = $2
		   AND ($3 = '' OR status = $3)
		   AND ($4 = '' OR occurrence_type = $4)
		 ORDER BY occurrence_number`,
		tenantID, auditID, string(filter.Status), string(filter.Type),
	)
	if err != nil {
		return nil, fmt.Errorf("occurrenceRepo.ListByAudit: %w", err)
	}
	defer rows.Close()

	return scanOccurrences(rows, "occurrenceRepo.ListByAudit")
}

func (r *OccurrenceRepo) ListByResponse(ctx context.Context, tenantID, responseID uuid.UUID) ([]*domain.Occurrence, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrences
		 WHERE tenant_id = $1 AND response_id = $2
		 ORDER BY occurrence_number`,
		tenantID, responseID,
	)
	if err != nil {
		return nil, fmt.Errorf("occurrenceRepo.ListByResponse: %w", err)
	}
	defer rows.Close()

	return scanOccurrences(rows, "occurrenceRepo.ListByResponse")
}

// Update only touches non-terminal rows. When nothing matched it tells a
// missing row apart from a terminal one.
func (r *OccurrenceRepo) Update(ctx context.Context, o *domain.Occurrence) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE occurrences SET occurrence_type = $1, title = $2, description = $3, status = $4,
		        priority = $5, responsible = $6, due_date = $7, root_cause = $8,
		        corrective_action = $9, updated_at = $10
		 WHERE tenant_id = $11 AND id = $12 AND status NOT IN ('Closed', 'Cancelled')`,
		o.Type, o.Title, o.Description, o.Status,
		o.Priority, o.Responsible, o.DueDate, o.RootCause,
		o.CorrectiveAction, o.UpdatedAt,
		o.TenantID, o.ID,
	)
	if err != nil {
		return fmt.Errorf("occurrenceRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, o.TenantID, o.ID); err != nil {
			return fmt.Errorf("occurrenceRepo.Update: %w", err)
		}
		return fmt.Errorf("occurrenceRepo.Update: %w", domain.ErrInvalidState)
	}

	return nil
}

func (r *OccurrenceRepo) Close(ctx context.Context, tenantID, id uuid.UUID, closedBy string, closedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE occurrences SET status = 'Closed', closed_at = $1, closed_by = $2, updated_at = $1
		 WHERE tenant_id = $3 AND id = $4 AND status NOT IN ('Closed', 'Cancelled')`,
		closedAt, closedBy, tenantID, id,
	)
	if err != nil {
		return false, fmt.Errorf("occurrenceRepo.Close: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, tenantID, id); err != nil {
			return false, fmt.Errorf("occurrenceRepo.Close: %w", err)
		}
		return false, nil
	}

	return true, nil
}

func (r *OccurrenceRepo) Reopen(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE occurrences SET status = 'Open', closed_at = NULL, closed_by = NULL, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2 AND status = 'Closed'`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("occurrenceRepo.Reopen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, tenantID, id); err != nil {
			return fmt.Errorf("occurrenceRepo.Reopen: %w", err)
		}
		return fmt.Errorf("occurrenceRepo.Reopen: %w", domain.ErrInvalidState)
	}

	return nil
}

func (r *OccurrenceRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM occurrences WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("occurrenceRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("occurrenceRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanOccurrence(row pgx.Row) (*domain.Occurrence, error) {
	var o domain.Occurrence
	err := row.Scan(
		&o.ID, &o.TenantID, &o.AuditID, &o.SessionID, &o.SessionItemID, &o.ResponseID,
		&o.Number, &o.Type, &o.Title, &o.Description, &o.Status, &o.Priority,
		&o.Responsible, &o.DueDate, &o.RootCause, &o.CorrectiveAction, &o.ClosedAt, &o.ClosedBy,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOccurrences(rows pgx.Rows, caller string) ([]*domain.Occurrence, error) {
	occurrences := make([]*domain.Occurrence, 0)
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		occurrences = append(occurrences, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return occurrences, nil
}
