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

type ScoringRepo struct {
	pool *pgxpool.Pool
}

func NewScoringRepo(pool *pgxpool.Pool) *ScoringRepo {
	return &ScoringRepo{pool: pool}
}

func (r *ScoringRepo) GetConfig(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringConfig, error) {
	var cfg domain.ScoringConfig
	var bands []byte

	err := r.pool.QueryRow(ctx,
		`SELECT audit_id, scoring_method, nc_major_penalty, nc_minor_penalty, observation_penalty,
		        opportunity_bonus, include_na_in_total, max_score, passing_score, conditional_margin,
		        grade_bands, updated_at
		 FROM scoring_configs WHERE tenant_id = $1 AND audit_id = $2`,
		tenantID, auditID,
	).Scan(
		&cfg.AuditID, &cfg.Method, &cfg.NCMajorPenalty, &cfg.NCMinorPenalty, &cfg.ObservationPenalty,
		&cfg.OpportunityBonus, &cfg.IncludeNAInTotal, &cfg.MaxScore, &cfg.PassingScore, &cfg.ConditionalMargin,
		&bands, &cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scoringRepo.GetConfig: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scoringRepo.GetConfig: %w", err)
	}
	if err := json.Unmarshal(bands, &cfg.GradeBands); err != nil {
		return nil, fmt.Errorf("scoringRepo.GetConfig: unmarshal grade bands: %w", err)
	}

	return &cfg, nil
}

func (r *ScoringRepo) SaveConfig(ctx context.Context, tenantID uuid.UUID, cfg *domain.ScoringConfig) error {
	bands, err := json.Marshal(cfg.GradeBands)
	if err != nil {
		return fmt.Errorf("scoringRepo.SaveConfig: marshal grade bands: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO scoring_configs (audit_id, tenant_id, scoring_method, nc_major_penalty, nc_minor_penalty,
		        observation_penalty, opportunity_bonus, include_na_in_total, max_score, passing_score,
		        conditional_margin, grade_bands, updated_at)
		 SELECT id, tenant_id, $3::text, $4::float8, $5::float8, $6::float8, $7::float8, $8::boolean,
		        $9::float8, $10::float8, $11::float8, $12::jsonb, $13::timestamptz
		 FROM audits WHERE tenant_id = $1 AND id = $2
		 ON CONFLICT (audit_id) DO UPDATE SET
		     scoring_method      = EXCLUDED.scoring_method,
		     nc_major_penalty    = EXCLUDED.nc_major_penalty,
		     nc_minor_penalty    = EXCLUDED.nc_minor_penalty,
		     observation_penalty = EXCLUDED.observation_penalty,
		     opportunity_bonus   = EXCLUDED.opportunity_bonus,
		     include_na_in_total = EXCLUDED.include_na_in_total,
		     max_score           = EXCLUDED.max_score,
		     passing_score       = EXCLUDED.passing_score,
		     conditional_margin  = EXCLUDED.conditional_margin,
		     grade_bands         = EXCLUDED.grade_bands,
		     updated_at          = EXCLUDED.updated_at`,
		tenantID, cfg.AuditID, cfg.Method, cfg.NCMajorPenalty, cfg.NCMinorPenalty,
		cfg.ObservationPenalty, cfg.OpportunityBonus, cfg.IncludeNAInTotal, cfg.MaxScore, cfg.PassingScore,
		cfg.ConditionalMargin, bands, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("scoringRepo.SaveConfig: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scoringRepo.SaveConfig: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ScoringRepo) GetResult(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringResult, error) {
	var raw []byte

	err := r.pool.QueryRow(ctx,
		`SELECT result FROM scoring_results WHERE tenant_id = $1 AND audit_id = $2`,
		tenantID, auditID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scoringRepo.GetResult: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scoringRepo.GetResult: %w", err)
	}

	var res domain.ScoringResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("scoringRepo.GetResult: unmarshal: %w", err)
	}

	return &res, nil
}

// SaveResult replaces the audit's result as a whole.
func (r *ScoringRepo) SaveResult(ctx context.Context, tenantID uuid.UUID, res *domain.ScoringResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("scoringRepo.SaveResult: marshal: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO scoring_results (audit_id, tenant_id, result, calculated_at)
		 SELECT id, tenant_id, $3::jsonb, $4::timestamptz FROM audits WHERE tenant_id = $1 AND id = $2
		 ON CONFLICT (audit_id) DO UPDATE SET
		     result        = EXCLUDED.result,
		     calculated_at = EXCLUDED.calculated_at`,
		tenantID, res.AuditID, raw, res.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("scoringRepo.SaveResult: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scoringRepo.SaveResult: %w", domain.ErrNotFound)
	}

	return nil
}
