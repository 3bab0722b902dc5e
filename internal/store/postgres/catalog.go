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

type StandardRepo struct {
	pool *pgxpool.Pool
}

func NewStandardRepo(pool *pgxpool.Pool) *StandardRepo {
	return &StandardRepo{pool: pool}
}

func (r *StandardRepo) Create(ctx context.Context, s *domain.Standard) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO standards (id, tenant_id, code, name, version, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.TenantID, s.Code, s.Name, s.Version, s.Description, s.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("standardRepo.Create", err)
	}

	return nil
}

func (r *StandardRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Standard, error) {
	var s domain.Standard

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, code, name, version, description, created_at
		 FROM standards WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.Version, &s.Description, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("standardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("standardRepo.GetByID: %w", err)
	}

	return &s, nil
}

func (r *StandardRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Standard, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, code, name, version, description, created_at
		 FROM standards WHERE tenant_id = $1
		 ORDER BY code`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("standardRepo.List: %w", err)
	}
	defer rows.Close()

	return scanStandards(rows, "standardRepo.List")
}

const standardItemColumns = `id, tenant_id, standard_id, title, description, guidance, weight,
	response_type_id, display_order, created_at`

func (r *StandardRepo) CreateItem(ctx context.Context, item *domain.StandardItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO standard_items (`+standardItemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.TenantID, item.StandardID, item.Title, item.Description, item.Guidance,
		item.Weight, item.ResponseTypeID, item.DisplayOrder, item.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("standardRepo.CreateItem", err)
	}

	return nil
}

func (r *StandardRepo) ListItems(ctx context.Context, tenantID, standardID uuid.UUID) ([]*domain.StandardItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+standardItemColumns+` FROM standard_items
		 WHERE tenant_id = $1 AND standard_id = $2
		 ORDER BY display_order`,
		tenantID, standardID,
	)
	if err != nil {
		return nil, fmt.Errorf("standardRepo.ListItems: %w", err)
	}
	defer rows.Close()

	return scanStandardItems(rows, "standardRepo.ListItems")
}

func (r *StandardRepo) GetItems(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*domain.StandardItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+standardItemColumns+` FROM standard_items
		 WHERE tenant_id = $1 AND id = ANY($2)
		 ORDER BY display_order`,
		tenantID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("standardRepo.GetItems: %w", err)
	}
	defer rows.Close()

	return scanStandardItems(rows, "standardRepo.GetItems")
}

func scanStandards(rows pgx.Rows, caller string) ([]*domain.Standard, error) {
	standards := make([]*domain.Standard, 0)
	for rows.Next() {
		var s domain.Standard
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.Version, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		standards = append(standards, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return standards, nil
}

func scanStandardItems(rows pgx.Rows, caller string) ([]*domain.StandardItem, error) {
	items := make([]*domain.StandardItem, 0)
	for rows.Next() {
		var it domain.StandardItem
		if err := rows.Scan(
			&it.ID, &it.TenantID, &it.StandardID, &it.Title, &it.Description, &it.Guidance,
			&it.Weight, &it.ResponseTypeID, &it.DisplayOrder, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return items, nil
}

type ResponseTypeRepo struct {
	pool *pgxpool.Pool
}

func NewResponseTypeRepo(pool *pgxpool.Pool) *ResponseTypeRepo {
	return &ResponseTypeRepo{pool: pool}
}

// Create inserts the type and its options in one transaction.
func (r *ResponseTypeRepo) Create(ctx context.Context, rt *domain.ResponseType) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("responseTypeRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx,
		`INSERT INTO response_types (id, tenant_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		rt.ID, rt.TenantID, rt.Name, rt.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("responseTypeRepo.Create", err)
	}

	batch := &pgx.Batch{}
	for _, o := range rt.Options {
		batch.Queue(
			`INSERT INTO response_options (id, response_type_id, label, weight, conformity,
			        triggers_occurrence, occurrence_type, display_order)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, rt.ID, o.Label, o.Weight, o.Conformity,
			o.TriggersOccurrence, o.OccurrenceType, o.DisplayOrder,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapWriteErr("responseTypeRepo.Create: options", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("responseTypeRepo.Create: commit: %w", err)
	}

	return nil
}

func (r *ResponseTypeRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.ResponseType, error) {
	types, err := r.query(ctx, "responseTypeRepo.GetByID",
		`WHERE t.tenant_id = $1 AND t.id = $2`, tenantID, id)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("responseTypeRepo.GetByID: %w", domain.ErrNotFound)
	}

	return types[0], nil
}

func (r *ResponseTypeRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.ResponseType, error) {
	return r.query(ctx, "responseTypeRepo.List", `WHERE t.tenant_id = $1`, tenantID)
}

func (r *ResponseTypeRepo) ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*domain.ResponseType, error) {
	return r.query(ctx, "responseTypeRepo.ListByIDs", `WHERE t.tenant_id = $1 AND t.id = ANY($2)`, tenantID, ids)
}

// query loads types with their options through a left join, folding option
// rows into their parent type.
func (r *ResponseTypeRepo) query(ctx context.Context, caller, where string, args ...any) ([]*domain.ResponseType, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.tenant_id, t.name, t.created_at,
		        o.id, o.label, o.weight, o.conformity, o.triggers_occurrence, o.occurrence_type, o.display_order
		 FROM response_types t
		 LEFT JOIN response_options o ON o.response_type_id = t.id
		 `+where+`
		 ORDER BY t.name, t.id, o.display_order`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	defer rows.Close()

	types := make([]*domain.ResponseType, 0)
	var cur *domain.ResponseType
	for rows.Next() {
		var (
			rt         domain.ResponseType
			optID      *uuid.UUID
			label      *string
			weight     *float64
			conformity *string
			triggers   *bool
			occType    *string
			order      *int
		)
		if err := rows.Scan(
			&rt.ID, &rt.TenantID, &rt.Name, &rt.CreatedAt,
			&optID, &label, &weight, &conformity, &triggers, &occType, &order,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if cur == nil || cur.ID != rt.ID {
			rt.Options = make([]*domain.ResponseOption, 0)
			cur = &rt
			types = append(types, cur)
		}
		if optID == nil {
			continue
		}
		cur.Options = append(cur.Options, &domain.ResponseOption{
			ID:                 *optID,
			ResponseTypeID:     cur.ID,
			Label:              *label,
			Weight:             *weight,
			Conformity:         domain.Conformity(*conformity),
			TriggersOccurrence: *triggers,
			OccurrenceType:     domain.OccurrenceType(*occType),
			DisplayOrder:       *order,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return types, nil
}
