package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type ScoringRepo struct {
	s *Store
}

func (r *ScoringRepo) GetConfig(_ context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.ownsAudit(tenantID, auditID) {
		return nil, fmt.Errorf("scoringRepo.GetConfig: %w", domain.ErrNotFound)
	}
	cfg, ok := r.s.configs[auditID]
	if !ok {
		return nil, fmt.Errorf("scoringRepo.GetConfig: %w", domain.ErrNotFound)
	}
	return cloneConfig(cfg), nil
}

func (r *ScoringRepo) SaveConfig(_ context.Context, tenantID uuid.UUID, cfg *domain.ScoringConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.ownsAudit(tenantID, cfg.AuditID) {
		return fmt.Errorf("scoringRepo.SaveConfig: %w", domain.ErrNotFound)
	}
	r.s.configs[cfg.AuditID] = cloneConfig(cfg)
	return nil
}

func (r *ScoringRepo) GetResult(_ context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.ownsAudit(tenantID, auditID) {
		return nil, fmt.Errorf("scoringRepo.GetResult: %w", domain.ErrNotFound)
	}
	res, ok := r.s.results[auditID]
	if !ok {
		return nil, fmt.Errorf("scoringRepo.GetResult: %w", domain.ErrNotFound)
	}
	return cloneResult(res), nil
}

func (r *ScoringRepo) SaveResult(_ context.Context, tenantID uuid.UUID, res *domain.ScoringResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.ownsAudit(tenantID, res.AuditID) {
		return fmt.Errorf("scoringRepo.SaveResult: %w", domain.ErrNotFound)
	}
	r.s.results[res.AuditID] = cloneResult(res)
	return nil
}

func (r *ScoringRepo) ownsAudit(tenantID, auditID uuid.UUID) bool {
	a, ok := r.s.audits[auditID]
	return ok && a.TenantID == tenantID
}

type ActivityRepo struct {
	s *Store
}

func (r *ActivityRepo) Record(_ context.Context, e *domain.ActivityEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.activity = append(r.s.activity, cloneActivity(e))
	return nil
}

// ListByAudit returns entries newest first.
func (r *ActivityRepo) ListByAudit(_ context.Context, tenantID, auditID uuid.UUID, limit, offset int) ([]*domain.ActivityEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Walk backwards so entries sharing a timestamp keep newest first.
	out := make([]*domain.ActivityEntry, 0)
	for i := len(r.s.activity) - 1; i >= 0; i-- {
		if e := r.s.activity[i]; e.TenantID == tenantID && e.AuditID == auditID {
			out = append(out, cloneActivity(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if offset >= len(out) {
		return []*domain.ActivityEntry{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
