package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

// Values cross the store boundary as copies so callers cannot mutate stored
// rows without going through a repository.

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneAudit(a *domain.Audit) *domain.Audit {
	c := *a
	c.StartDate = clonePtr(a.StartDate)
	c.EndDate = clonePtr(a.EndDate)
	return &c
}

func cloneResponseType(rt *domain.ResponseType) *domain.ResponseType {
	c := *rt
	c.Options = make([]*domain.ResponseOption, len(rt.Options))
	for i, o := range rt.Options {
		c.Options[i] = clonePtr(o)
	}
	return &c
}

func cloneSession(s *domain.Session) *domain.Session {
	c := *s
	c.ScheduledAt = clonePtr(s.ScheduledAt)
	return &c
}

func cloneResponse(r *domain.Response) *domain.Response {
	c := *r
	c.OptionID = clonePtr(r.OptionID)
	c.AttachmentIDs = append([]string{}, r.AttachmentIDs...)
	return &c
}

func cloneOccurrence(o *domain.Occurrence) *domain.Occurrence {
	c := *o
	c.SessionID = clonePtr(o.SessionID)
	c.SessionItemID = clonePtr(o.SessionItemID)
	c.ResponseID = clonePtr(o.ResponseID)
	c.DueDate = clonePtr(o.DueDate)
	c.ClosedAt = clonePtr(o.ClosedAt)
	c.ClosedBy = clonePtr(o.ClosedBy)
	return &c
}

func cloneConfig(cfg *domain.ScoringConfig) *domain.ScoringConfig {
	c := *cfg
	c.GradeBands = append([]domain.GradeBand{}, cfg.GradeBands...)
	return &c
}

func cloneResult(r *domain.ScoringResult) *domain.ScoringResult {
	c := *r
	c.Grade = clonePtr(r.Grade)
	return &c
}

func cloneActivity(e *domain.ActivityEntry) *domain.ActivityEntry {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

func uuidPtrEq(p *uuid.UUID, id uuid.UUID) bool {
	return p != nil && *p == id
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
