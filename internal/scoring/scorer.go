package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/events"
)

// Scorer runs the engine against stored data on explicit request and
// replaces the audit's stored result.
type Scorer struct {
	engine        *Engine
	audits        domain.AuditRepository
	items         domain.SessionItemRepository
	responses     domain.ResponseRepository
	responseTypes domain.ResponseTypeRepository
	occurrences   domain.OccurrenceRepository
	scores        domain.ScoringRepository
	journal       *events.Journal
	defaults      domain.ScoringConfig
}

func NewScorer(
	engine *Engine,
	audits domain.AuditRepository,
	items domain.SessionItemRepository,
	responses domain.ResponseRepository,
	responseTypes domain.ResponseTypeRepository,
	occurrences domain.OccurrenceRepository,
	scores domain.ScoringRepository,
	journal *events.Journal,
	defaults domain.ScoringConfig,
) *Scorer {
	return &Scorer{
		engine:        engine,
		audits:        audits,
		items:         items,
		responses:     responses,
		responseTypes: responseTypes,
		occurrences:   occurrences,
		scores:        scores,
		journal:       journal,
		defaults:      defaults,
	}
}

// Config returns the audit's stored configuration, or the defaults when none
// was saved.
func (s *Scorer) Config(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringConfig, error) {
	if _, err := s.audits.GetByID(ctx, tenantID, auditID); err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Config: get audit: %w", err)
	}
	return s.configFor(ctx, tenantID, auditID)
}

func (s *Scorer) configFor(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringConfig, error) {
	cfg, err := s.scores.GetConfig(ctx, tenantID, auditID)
	if errors.Is(err, domain.ErrNotFound) {
		def := s.defaults
		def.AuditID = auditID
		def.GradeBands = append([]domain.GradeBand(nil), s.defaults.GradeBands...)
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Config: %w", err)
	}
	return cfg, nil
}

// SaveConfig validates and stores cfg. An empty band list falls back to the
// default bands.
func (s *Scorer) SaveConfig(ctx context.Context, tenantID uuid.UUID, cfg *domain.ScoringConfig, actorID string) error {
	audit, err := s.audits.GetByID(ctx, tenantID, cfg.AuditID)
	if err != nil {
		return fmt.Errorf("scoring.Scorer.SaveConfig: get audit: %w", err)
	}
	if audit.Status == domain.AuditStatusCancelled {
		return fmt.Errorf("scoring.Scorer.SaveConfig: audit is cancelled: %w", domain.ErrInvalidState)
	}

	if len(cfg.GradeBands) == 0 {
		cfg.GradeBands = append([]domain.GradeBand(nil), s.defaults.GradeBands...)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("scoring.Scorer.SaveConfig: %w", err)
	}
	cfg.UpdatedAt = time.Now()

	if err := s.scores.SaveConfig(ctx, tenantID, cfg); err != nil {
		return fmt.Errorf("scoring.Scorer.SaveConfig: %w", err)
	}

	s.journal.Emit(ctx, events.Event{
		Type:       events.ScoringConfigSaved,
		TenantID:   tenantID,
		AuditID:    cfg.AuditID,
		Resource:   "scoring_config",
		ResourceID: cfg.AuditID,
		ActorID:    actorID,
		Details:    map[string]any{"scoring_method": cfg.Method},
	})

	return nil
}

// Recalculate loads the audit's checklist state, scores it, and replaces the
// stored result.
func (s *Scorer) Recalculate(ctx context.Context, tenantID, auditID uuid.UUID, actorID string) (*domain.ScoringResult, error) {
	if _, err := s.audits.GetByID(ctx, tenantID, auditID); err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Recalculate: get audit: %w", err)
	}

	cfg, err := s.configFor(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Recalculate: %w", err)
	}

	items, err := s.items.ListByAudit(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Recalculate: list items: %w", err)
	}

	responses, err := s.responses.ListByAudit(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Recalculate: list responses: %w", err)
	}

	types, err := s.responseTypes.ListByIDs(ctx, tenantID, responseTypeIDs(items))
	if err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Recalculate: list response types: %w", err)
	}

	occurrences, err := s.occurrences.ListByAudit(ctx, tenantID, auditID, domain.OccurrenceFilter{})
	if err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Recalculate: list occurrences: %w", err)
	}

	res, err := s.engine.Calculate(Input{
		AuditID:       auditID,
		Items:         items,
		Responses:     responses,
		ResponseTypes: types,
		Occurrences:   occurrences,
		Config:        *cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Recalculate: %w", err)
	}

	if err := s.scores.SaveResult(ctx, tenantID, res); err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Recalculate: save result: %w", err)
	}

	log.Info().
		Str("audit_id", auditID.String()).
		Float64("percentage", res.Percentage).
		Str("status", string(res.Status)).
		Int("responded_items", res.RespondedItems).
		Int("total_items", res.TotalItems).
		Msg("score recalculated")

	s.journal.Emit(ctx, events.Event{
		Type:       events.ScoreRecalculated,
		TenantID:   tenantID,
		AuditID:    auditID,
		Resource:   "score",
		ResourceID: auditID,
		ActorID:    actorID,
		Details: map[string]any{
			"percentage": res.Percentage,
			"status":     res.Status,
		},
	})

	return res, nil
}

// Latest returns the stored result without recomputing it.
func (s *Scorer) Latest(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringResult, error) {
	res, err := s.scores.GetResult(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("scoring.Scorer.Latest: %w", err)
	}
	return res, nil
}

func responseTypeIDs(items []*domain.SessionItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, it := range items {
		id := it.Snapshot.ResponseTypeID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
