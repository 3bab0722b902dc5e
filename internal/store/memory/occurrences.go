package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type OccurrenceRepo struct {
	s *Store
}

// Create takes the next number of the audit's sequence. Numbers of deleted
// occurrences are not handed out again.
func (r *OccurrenceRepo) Create(_ context.Context, o *domain.Occurrence) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.audits[o.AuditID]
	if !ok || a.TenantID != o.TenantID {
		return fmt.Errorf("occurrenceRepo.Create: audit: %w", domain.ErrNotFound)
	}

	r.s.occurrenceSeq[o.AuditID]++
	o.Number = r.s.occurrenceSeq[o.AuditID]
	r.s.occurrences[o.ID] = cloneOccurrence(o)
	return nil
}

func (r *OccurrenceRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Occurrence, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.occurrences[id]
	if !ok || o.TenantID != tenantID {
		return nil, fmt.Errorf("occurrenceRepo.GetByID: %w", domain.ErrNotFound)
	}
	return cloneOccurrence(o), nil
}

func (r *OccurrenceRepo) ListByAudit(_ context.Context, tenantID, auditID uuid.UUID, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(o *domain.Occurrence) bool {
		if o.TenantID != tenantID || o.AuditID != auditID {
			return false
		}
		if filter.Status != "" && o.Status != filter.Status {
			return false
		}
		return filter.Type == "" || o.Type == filter.Type
	}), nil
}

func (r *OccurrenceRepo) ListByResponse(_ context.Context, tenantID, responseID uuid.UUID) ([]*domain.Occurrence, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(o *domain.Occurrence) bool {
		return o.TenantID == tenantID && uuidPtrEq(o.ResponseID, responseID)
	}), nil
}

func (r *OccurrenceRepo) collect(match func(*domain.Occurrence) bool) []*domain.Occurrence {
	out := make([]*domain.Occurrence, 0)
	for _, o := range r.s.occurrences {
		if match(o) {
			out = append(out, cloneOccurrence(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r *OccurrenceRepo) Update(_ context.Context, o *domain.Occurrence) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.occurrences[o.ID]
	if !ok || cur.TenantID != o.TenantID {
		return fmt.Errorf("occurrenceRepo.Update: %w", domain.ErrNotFound)
	}
	if cur.Status.IsTerminal() {
		return fmt.Errorf("occurrenceRepo.Update: occurrence is %s: %w", cur.Status, domain.ErrInvalidState)
	}

	next := cloneOccurrence(o)
	next.Number = cur.Number
	next.AuditID = cur.AuditID
	next.CreatedAt = cur.CreatedAt
	next.CreatedBy = cur.CreatedBy
	next.ClosedAt = cur.ClosedAt
	next.ClosedBy = cur.ClosedBy
	r.s.occurrences[o.ID] = next
	return nil
}

func (r *OccurrenceRepo) Close(_ context.Context, tenantID, id uuid.UUID, closedBy string, closedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.occurrences[id]
	if !ok || o.TenantID != tenantID {
		return false, fmt.Errorf("occurrenceRepo.Close: %w", domain.ErrNotFound)
	}
	if o.Status.IsTerminal() {
		return false, nil
	}

	by := closedBy
	at := closedAt
	o.Status = domain.OccurrenceStatusClosed
	o.ClosedAt = &at
	o.ClosedBy = &by
	o.UpdatedAt = closedAt
	return true, nil
}

func (r *OccurrenceRepo) Reopen(_ context.Context, tenantID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.occurrences[id]
	if !ok || o.TenantID != tenantID {
		return fmt.Errorf("occurrenceRepo.Reopen: %w", domain.ErrNotFound)
	}
	if o.Status != domain.OccurrenceStatusClosed {
		return fmt.Errorf("occurrenceRepo.Reopen: occurrence is %s: %w", o.Status, domain.ErrInvalidState)
	}

	o.Status = domain.OccurrenceStatusOpen
	o.ClosedAt = nil
	o.ClosedBy = nil
	o.UpdatedAt = nowUTC()
	return nil
}

func (r *OccurrenceRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.occurrences[id]
	if !ok || o.TenantID != tenantID {
		return fmt.Errorf("occurrenceRepo.Delete: %w", domain.ErrNotFound)
	}
	delete(r.s.occurrences, id)
	return nil
}
