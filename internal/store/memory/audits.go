package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type AuditRepo struct {
	s *Store
}

func (r *AuditRepo) Create(_ context.Context, a *domain.Audit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.audits[a.ID]; ok {
		return fmt.Errorf("auditRepo.Create: %w", domain.ErrConflict)
	}
	r.s.audits[a.ID] = cloneAudit(a)
	return nil
}

func (r *AuditRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Audit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.audits[id]
	if !ok || a.TenantID != tenantID {
		return nil, fmt.Errorf("auditRepo.GetByID: %w", domain.ErrNotFound)
	}
	return cloneAudit(a), nil
}

func (r *AuditRepo) List(_ context.Context, tenantID uuid.UUID) ([]*domain.Audit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Audit, 0)
	for _, a := range r.s.audits {
		if a.TenantID == tenantID {
			out = append(out, cloneAudit(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *AuditRepo) Update(_ context.Context, a *domain.Audit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.audits[a.ID]
	if !ok || cur.TenantID != a.TenantID {
		return fmt.Errorf("auditRepo.Update: %w", domain.ErrNotFound)
	}
	next := cloneAudit(a)
	next.Status = cur.Status
	next.CreatedAt = cur.CreatedAt
	next.CreatedBy = cur.CreatedBy
	next.UpdatedAt = nowUTC()
	r.s.audits[a.ID] = next
	return nil
}

func (r *AuditRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, from, to domain.AuditStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.audits[id]
	if !ok || a.TenantID != tenantID {
		return fmt.Errorf("auditRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	if a.Status != from {
		return fmt.Errorf("auditRepo.UpdateStatus: status is no longer %s: %w", from, domain.ErrInvalidState)
	}
	a.Status = to
	a.UpdatedAt = nowUTC()
	return nil
}

// Delete cascades to everything the audit owns, including its occurrence
// sequence.
func (r *AuditRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.audits[id]
	if !ok || a.TenantID != tenantID {
		return fmt.Errorf("auditRepo.Delete: %w", domain.ErrNotFound)
	}

	for sid, sess := range r.s.sessions {
		if sess.AuditID == id {
			r.s.deleteSessionLocked(sid)
		}
	}
	for oid, o := range r.s.occurrences {
		if o.AuditID == id {
			delete(r.s.occurrences, oid)
		}
	}
	kept := r.s.activity[:0]
	for _, e := range r.s.activity {
		if e.AuditID != id {
			kept = append(kept, e)
		}
	}
	r.s.activity = kept

	delete(r.s.occurrenceSeq, id)
	delete(r.s.configs, id)
	delete(r.s.results, id)
	delete(r.s.auditStandards, id)
	delete(r.s.audits, id)
	return nil
}

func (r *AuditRepo) LinkStandard(_ context.Context, tenantID, auditID, standardID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.audits[auditID]
	if !ok || a.TenantID != tenantID {
		return fmt.Errorf("auditRepo.LinkStandard: %w", domain.ErrNotFound)
	}
	st, ok := r.s.standards[standardID]
	if !ok || st.TenantID != tenantID {
		return fmt.Errorf("auditRepo.LinkStandard: %w", domain.ErrNotFound)
	}

	links, ok := r.s.auditStandards[auditID]
	if !ok {
		links = make(map[uuid.UUID]struct{})
		r.s.auditStandards[auditID] = links
	}
	links[standardID] = struct{}{}
	return nil
}

func (r *AuditRepo) ListStandards(_ context.Context, tenantID, auditID uuid.UUID) ([]*domain.Standard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Standard, 0)
	for sid := range r.s.auditStandards[auditID] {
		st, ok := r.s.standards[sid]
		if !ok || st.TenantID != tenantID {
			continue
		}
		c := *st
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
