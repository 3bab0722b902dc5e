// Package report assembles the read-only audit snapshot consumed by export
// renderers.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

// Recalculator refreshes the stored scoring result.
type Recalculator interface {
	Recalculate(ctx context.Context, tenantID, auditID uuid.UUID, actorID string) (*domain.ScoringResult, error)
}

type Options struct {
	// Fresh recalculates the score before the snapshot is taken.
	Fresh   bool
	ActorID string
}

type Aggregator struct {
	audits      domain.AuditRepository
	sessions    domain.SessionRepository
	items       domain.SessionItemRepository
	responses   domain.ResponseRepository
	occurrences domain.OccurrenceRepository
	scores      domain.ScoringRepository
	scorer      Recalculator
	now         func() time.Time
}

func NewAggregator(
	audits domain.AuditRepository,
	sessions domain.SessionRepository,
	items domain.SessionItemRepository,
	responses domain.ResponseRepository,
	occurrences domain.OccurrenceRepository,
	scores domain.ScoringRepository,
	scorer Recalculator,
) *Aggregator {
	return &Aggregator{
		audits:      audits,
		sessions:    sessions,
		items:       items,
		responses:   responses,
		occurrences: occurrences,
		scores:      scores,
		scorer:      scorer,
		now:         time.Now,
	}
}

// Build composes the report. Without Fresh it reads the stored result as is
// and flags it stale when the checklist, the occurrences or the scoring
// config changed after it was calculated.
func (a *Aggregator) Build(ctx context.Context, tenantID, auditID uuid.UUID, opts Options) (*domain.AuditReport, error) {
	audit, err := a.audits.GetByID(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("report.Build: %w", err)
	}

	if opts.Fresh {
		if _, err := a.scorer.Recalculate(ctx, tenantID, auditID, opts.ActorID); err != nil {
			return nil, fmt.Errorf("report.Build: recalculate: %w", err)
		}
	}

	var (
		standards   []*domain.Standard
		sessions    []*domain.Session
		items       []*domain.SessionItem
		responses   []*domain.Response
		occurrences []*domain.Occurrence
		result      *domain.ScoringResult
		cfg         *domain.ScoringConfig
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		standards, err = a.audits.ListStandards(gctx, tenantID, auditID)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = a.sessions.ListByAudit(gctx, tenantID, auditID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = a.items.ListByAudit(gctx, tenantID, auditID)
		return err
	})
	g.Go(func() error {
		var err error
		responses, err = a.responses.ListByAudit(gctx, tenantID, auditID)
		return err
	})
	g.Go(func() error {
		var err error
		occurrences, err = a.occurrences.ListByAudit(gctx, tenantID, auditID, domain.OccurrenceFilter{})
		return err
	})
	g.Go(func() error {
		res, err := a.scores.GetResult(gctx, tenantID, auditID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		result = res
		return err
	})
	g.Go(func() error {
		c, err := a.scores.GetConfig(gctx, tenantID, auditID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		cfg = c
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("report.Build: %w", err)
	}

	return &domain.AuditReport{
		AuditID:     auditID,
		Audit:       audit,
		Standards:   standards,
		Sessions:    progress(sessions, items, responses),
		Scoring:     result,
		ScoreStale:  stale(result, cfg, items, responses, occurrences),
		Occurrences: occurrences,
		GeneratedAt: a.now(),
	}, nil
}

// progress computes responded/total per session. Only responses carrying an
// option count as answered.
func progress(sessions []*domain.Session, items []*domain.SessionItem, responses []*domain.Response) []*domain.SessionProgress {
	answered := make(map[uuid.UUID]bool, len(responses))
	for _, r := range responses {
		if r.OptionID != nil {
			answered[r.SessionItemID] = true
		}
	}

	totals := make(map[uuid.UUID]int, len(sessions))
	done := make(map[uuid.UUID]int, len(sessions))
	for _, it := range items {
		totals[it.SessionID]++
		if answered[it.ID] {
			done[it.SessionID]++
		}
	}

	out := make([]*domain.SessionProgress, 0, len(sessions))
	for _, s := range sessions {
		sp := &domain.SessionProgress{
			Session:        s,
			TotalItems:     totals[s.ID],
			RespondedItems: done[s.ID],
		}
		if sp.TotalItems > 0 {
			sp.Progress = math.Round(float64(sp.RespondedItems)/float64(sp.TotalItems)*10000) / 100
		}
		out = append(out, sp)
	}
	return out
}

// stale reports whether result no longer describes the audit. Timestamps
// catch edits; deletions leave no timestamp behind, so the stored counts are
// compared against what is loaded now.
func stale(result *domain.ScoringResult, cfg *domain.ScoringConfig, items []*domain.SessionItem, responses []*domain.Response, occurrences []*domain.Occurrence) bool {
	if result == nil {
		return true
	}
	at := result.CalculatedAt
	if cfg != nil && cfg.UpdatedAt.After(at) {
		return true
	}
	if result.TotalItems != len(items) {
		return true
	}
	for _, it := range items {
		if it.CreatedAt.After(at) {
			return true
		}
	}
	for _, r := range responses {
		if r.UpdatedAt.After(at) {
			return true
		}
	}

	var major, minor, observations, opportunities int
	for _, o := range occurrences {
		if o.UpdatedAt.After(at) {
			return true
		}
		if o.Status == domain.OccurrenceStatusCancelled {
			continue
		}
		switch o.Type {
		case domain.OccurrenceNCMajor:
			major++
		case domain.OccurrenceNCMinor:
			minor++
		case domain.OccurrenceObservation:
			observations++
		case domain.OccurrenceOpportunity:
			opportunities++
		}
	}
	return major != result.NCMajorCount ||
		minor != result.NCMinorCount ||
		observations != result.ObservationCount ||
		opportunities != result.OpportunityCount
}
