// Package planning owns the audit plan: audits, their sessions, the session
// items copied from standards, and the checklist catalogs they are built from.
package planning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/events"
)

// Planner provides audit, session and catalog operations.
type Planner struct {
	audits        domain.AuditRepository
	sessions      domain.SessionRepository
	items         domain.SessionItemRepository
	standards     domain.StandardRepository
	responseTypes domain.ResponseTypeRepository
	journal       *events.Journal
	now           func() time.Time
}

func NewPlanner(
	audits domain.AuditRepository,
	sessions domain.SessionRepository,
	items domain.SessionItemRepository,
	standards domain.StandardRepository,
	responseTypes domain.ResponseTypeRepository,
	journal *events.Journal,
) *Planner {
	return &Planner{
		audits:        audits,
		sessions:      sessions,
		items:         items,
		standards:     standards,
		responseTypes: responseTypes,
		journal:       journal,
		now:           time.Now,
	}
}

type AuditInput struct {
	Title       string
	Description string
	Scope       string
	LeadAuditor string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (in *AuditInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.Invalid("title", "is required")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return domain.Invalid("end_date", "must not be before start_date")
	}
	return nil
}

// CreateAudit stores a new audit in the planned state.
func (p *Planner) CreateAudit(ctx context.Context, tenantID uuid.UUID, in AuditInput, actorID string) (*domain.Audit, error) {
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("planning.CreateAudit: %w", err)
	}

	now := p.now()
	a := &domain.Audit{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Title:       in.Title,
		Description: in.Description,
		Scope:       in.Scope,
		LeadAuditor: in.LeadAuditor,
		Status:      domain.AuditStatusPlanned,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.audits.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("planning.CreateAudit: %w", err)
	}

	log.Info().Str("audit_id", a.ID.String()).Str("title", a.Title).Msg("audit created")
	p.emit(ctx, events.AuditCreated, a.TenantID, a.ID, "audit", a.ID, actorID, nil)

	return a, nil
}

func (p *Planner) GetAudit(ctx context.Context, tenantID, id uuid.UUID) (*domain.Audit, error) {
	a, err := p.audits.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("planning.GetAudit: %w", err)
	}
	return a, nil
}

func (p *Planner) ListAudits(ctx context.Context, tenantID uuid.UUID) ([]*domain.Audit, error) {
	list, err := p.audits.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("planning.ListAudits: %w", err)
	}
	return list, nil
}

// UpdateAudit rewrites the descriptive fields of a non-terminal audit.
func (p *Planner) UpdateAudit(ctx context.Context, tenantID, id uuid.UUID, in AuditInput) (*domain.Audit, error) {
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("planning.UpdateAudit: %w", err)
	}

	a, err := p.audits.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("planning.UpdateAudit: %w", err)
	}
	if a.Status.IsTerminal() {
		return nil, fmt.Errorf("planning.UpdateAudit: audit is %s: %w", a.Status, domain.ErrInvalidState)
	}

	a.Title = in.Title
	a.Description = in.Description
	a.Scope = in.Scope
	a.LeadAuditor = in.LeadAuditor
	a.StartDate = in.StartDate
	a.EndDate = in.EndDate
	a.UpdatedAt = p.now()

	if err := p.audits.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("planning.UpdateAudit: %w", err)
	}
	return a, nil
}

// TransitionAudit moves the audit along planned -> in_progress -> completed,
// or to cancelled from any non-terminal state.
func (p *Planner) TransitionAudit(ctx context.Context, tenantID, id uuid.UUID, to domain.AuditStatus, actorID string) (*domain.Audit, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("planning.TransitionAudit: %w", domain.Invalid("status", "unknown status %q", to))
	}

	a, err := p.audits.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("planning.TransitionAudit: %w", err)
	}
	if !a.Status.ValidTransition(to) {
		return nil, fmt.Errorf("planning.TransitionAudit: %s -> %s: %w", a.Status, to, domain.ErrInvalidState)
	}

	if err := p.audits.UpdateStatus(ctx, tenantID, id, a.Status, to); err != nil {
		return nil, fmt.Errorf("planning.TransitionAudit: %w", err)
	}

	from := a.Status
	a.Status = to
	a.UpdatedAt = p.now()

	log.Info().
		Str("audit_id", a.ID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("audit status changed")
	p.emit(ctx, events.AuditStatusChanged, tenantID, a.ID, "audit", a.ID, actorID, map[string]any{
		"from": from,
		"to":   to,
	})

	return a, nil
}

// DeleteAudit removes the audit together with everything it owns.
func (p *Planner) DeleteAudit(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := p.audits.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("planning.DeleteAudit: %w", err)
	}
	log.Info().Str("audit_id", id.String()).Msg("audit deleted")
	return nil
}

// LinkStandard makes the standard's items assignable to the audit's sessions.
// Linking twice is a no-op.
func (p *Planner) LinkStandard(ctx context.Context, tenantID, auditID, standardID uuid.UUID) error {
	a, err := p.audits.GetByID(ctx, tenantID, auditID)
	if err != nil {
		return fmt.Errorf("planning.LinkStandard: %w", err)
	}
	if a.Status.IsTerminal() {
		return fmt.Errorf("planning.LinkStandard: audit is %s: %w", a.Status, domain.ErrInvalidState)
	}
	if _, err := p.standards.GetByID(ctx, tenantID, standardID); err != nil {
		return fmt.Errorf("planning.LinkStandard: %w", err)
	}
	if err := p.audits.LinkStandard(ctx, tenantID, auditID, standardID); err != nil {
		return fmt.Errorf("planning.LinkStandard: %w", err)
	}
	return nil
}

func (p *Planner) ListAuditStandards(ctx context.Context, tenantID, auditID uuid.UUID) ([]*domain.Standard, error) {
	if _, err := p.audits.GetByID(ctx, tenantID, auditID); err != nil {
		return nil, fmt.Errorf("planning.ListAuditStandards: %w", err)
	}
	list, err := p.audits.ListStandards(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("planning.ListAuditStandards: %w", err)
	}
	return list, nil
}

func (p *Planner) emit(ctx context.Context, typ string, tenantID, auditID uuid.UUID, resource string, resourceID uuid.UUID, actorID string, details map[string]any) {
	p.journal.Emit(ctx, events.Event{
		Type:       typ,
		TenantID:   tenantID,
		AuditID:    auditID,
		Resource:   resource,
		ResourceID: resourceID,
		ActorID:    actorID,
		Details:    details,
	})
}
