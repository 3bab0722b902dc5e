package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type ResponseRepo struct {
	s *Store
}

// Upsert keeps one row per session item. The row's ID and CreatedAt survive
// overwrites; a row with a newer RespondedAt is never replaced by an older one.
func (r *ResponseRepo) Upsert(_ context.Context, resp *domain.Response) (*domain.Response, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items[resp.SessionItemID]
	if !ok || it.TenantID != resp.TenantID {
		return nil, fmt.Errorf("responseRepo.Upsert: session item: %w", domain.ErrNotFound)
	}

	cur, exists := r.s.responses[resp.SessionItemID]
	if exists && cur.RespondedAt.After(resp.RespondedAt) {
		return cloneResponse(cur), nil
	}

	next := cloneResponse(resp)
	if exists {
		next.ID = cur.ID
		next.CreatedAt = cur.CreatedAt
	}
	r.s.responses[resp.SessionItemID] = next
	return cloneResponse(next), nil
}

func (r *ResponseRepo) GetBySessionItem(_ context.Context, tenantID, sessionItemID uuid.UUID) (*domain.Response, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	resp, ok := r.s.responses[sessionItemID]
	if !ok || resp.TenantID != tenantID {
		return nil, fmt.Errorf("responseRepo.GetBySessionItem: %w", domain.ErrNotFound)
	}
	return cloneResponse(resp), nil
}

func (r *ResponseRepo) ListBySession(_ context.Context, tenantID, sessionID uuid.UUID) ([]*domain.Response, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(it *domain.SessionItem) bool {
		return it.TenantID == tenantID && it.SessionID == sessionID
	}), nil
}

func (r *ResponseRepo) ListByAudit(_ context.Context, tenantID, auditID uuid.UUID) ([]*domain.Response, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(it *domain.SessionItem) bool {
		return it.TenantID == tenantID && it.AuditID == auditID
	}), nil
}

func (r *ResponseRepo) collect(match func(*domain.SessionItem) bool) []*domain.Response {
	out := make([]*domain.Response, 0)
	for itemID, resp := range r.s.responses {
		it, ok := r.s.items[itemID]
		if ok && match(it) {
			out = append(out, cloneResponse(resp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RespondedAt.Before(out[j].RespondedAt) })
	return out
}
