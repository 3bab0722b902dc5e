package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type SessionRepo struct {
	s *Store
}

// Create rejects a display order already taken within the audit.
func (r *SessionRepo) Create(_ context.Context, sess *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.audits[sess.AuditID]
	if !ok || a.TenantID != sess.TenantID {
		return fmt.Errorf("sessionRepo.Create: audit: %w", domain.ErrNotFound)
	}
	for _, cur := range r.s.sessions {
		if cur.AuditID == sess.AuditID && cur.DisplayOrder == sess.DisplayOrder {
			return fmt.Errorf("sessionRepo.Create: display_order %d: %w", sess.DisplayOrder, domain.ErrConflict)
		}
	}
	r.s.sessions[sess.ID] = cloneSession(sess)
	return nil
}

func (r *SessionRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok || sess.TenantID != tenantID {
		return nil, fmt.Errorf("sessionRepo.GetByID: %w", domain.ErrNotFound)
	}
	return cloneSession(sess), nil
}

func (r *SessionRepo) ListByAudit(_ context.Context, tenantID, auditID uuid.UUID) ([]*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Session, 0)
	for _, sess := range r.s.sessions {
		if sess.TenantID == tenantID && sess.AuditID == auditID {
			out = append(out, cloneSession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *SessionRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, from, to domain.SessionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok || sess.TenantID != tenantID {
		return fmt.Errorf("sessionRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	if sess.Status != from {
		return fmt.Errorf("sessionRepo.UpdateStatus: status is no longer %s: %w", from, domain.ErrInvalidState)
	}
	sess.Status = to
	sess.UpdatedAt = nowUTC()
	return nil
}

func (r *SessionRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok || sess.TenantID != tenantID {
		return fmt.Errorf("sessionRepo.Delete: %w", domain.ErrNotFound)
	}
	r.s.deleteSessionLocked(id)
	return nil
}

type SessionItemRepo struct {
	s *Store
}

// CreateBatch inserts all items or none. A standard item may appear only once
// per session.
func (r *SessionItemRepo) CreateBatch(_ context.Context, items []*domain.SessionItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type key struct{ session, source uuid.UUID }
	taken := make(map[key]struct{})
	for _, it := range r.s.items {
		taken[key{it.SessionID, it.StandardItemID}] = struct{}{}
	}

	for _, it := range items {
		sess, ok := r.s.sessions[it.SessionID]
		if !ok || sess.TenantID != it.TenantID {
			return fmt.Errorf("sessionItemRepo.CreateBatch: session: %w", domain.ErrNotFound)
		}
		k := key{it.SessionID, it.StandardItemID}
		if _, dup := taken[k]; dup {
			return fmt.Errorf("sessionItemRepo.CreateBatch: %w", domain.ErrConflict)
		}
		taken[k] = struct{}{}
	}

	for _, it := range items {
		c := *it
		r.s.items[it.ID] = &c
	}
	return nil
}

func (r *SessionItemRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.SessionItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items[id]
	if !ok || it.TenantID != tenantID {
		return nil, fmt.Errorf("sessionItemRepo.GetByID: %w", domain.ErrNotFound)
	}
	c := *it
	return &c, nil
}

func (r *SessionItemRepo) ListBySession(_ context.Context, tenantID, sessionID uuid.UUID) ([]*domain.SessionItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.SessionItem, 0)
	for _, it := range r.s.items {
		if it.TenantID == tenantID && it.SessionID == sessionID {
			c := *it
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

// ListByAudit orders items by session display order, then item display order.
func (r *SessionItemRepo) ListByAudit(_ context.Context, tenantID, auditID uuid.UUID) ([]*domain.SessionItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.SessionItem, 0)
	for _, it := range r.s.items {
		if it.TenantID == tenantID && it.AuditID == auditID {
			c := *it
			out = append(out, &c)
		}
	}
	sessionOrder := func(id uuid.UUID) int {
		if sess, ok := r.s.sessions[id]; ok {
			return sess.DisplayOrder
		}
		return 0
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := sessionOrder(out[i].SessionID), sessionOrder(out[j].SessionID)
		if si != sj {
			return si < sj
		}
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out, nil
}
