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

type SessionInput struct {
	AuditID      uuid.UUID
	Name         string
	Description  string
	DisplayOrder int // 0 appends after the last session
	ScheduledAt  *time.Time
}

// CreateSession adds a pending session to a non-terminal audit. Display
// orders are unique within the audit.
func (p *Planner) CreateSession(ctx context.Context, tenantID uuid.UUID, in SessionInput, actorID string) (*domain.Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("planning.CreateSession: %w", domain.Invalid("name", "is required"))
	}
	if in.DisplayOrder < 0 {
		return nil, fmt.Errorf("planning.CreateSession: %w", domain.Invalid("display_order", "must not be negative"))
	}

	a, err := p.audits.GetByID(ctx, tenantID, in.AuditID)
	if err != nil {
		return nil, fmt.Errorf("planning.CreateSession: %w", err)
	}
	if a.Status.IsTerminal() {
		return nil, fmt.Errorf("planning.CreateSession: audit is %s: %w", a.Status, domain.ErrInvalidState)
	}

	order := in.DisplayOrder
	if order == 0 {
		existing, err := p.sessions.ListByAudit(ctx, tenantID, in.AuditID)
		if err != nil {
			return nil, fmt.Errorf("planning.CreateSession: %w", err)
		}
		for _, s := range existing {
			if s.DisplayOrder > order {
				order = s.DisplayOrder
			}
		}
		order++
	}

	now := p.now()
	s := &domain.Session{
		ID:           uuid.New(),
		TenantID:     tenantID,
		AuditID:      in.AuditID,
		Name:         in.Name,
		Description:  in.Description,
		DisplayOrder: order,
		Status:       domain.SessionStatusPending,
		ScheduledAt:  in.ScheduledAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("planning.CreateSession: %w", err)
	}

	p.emit(ctx, events.SessionCreated, tenantID, s.AuditID, "session", s.ID, actorID, map[string]any{
		"display_order": s.DisplayOrder,
	})

	return s, nil
}

func (p *Planner) GetSession(ctx context.Context, tenantID, auditID, sessionID uuid.UUID) (*domain.Session, error) {
	s, err := p.sessions.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("planning.GetSession: %w", err)
	}
	if s.AuditID != auditID {
		return nil, fmt.Errorf("planning.GetSession: %w", domain.ErrNotFound)
	}
	return s, nil
}

func (p *Planner) ListSessions(ctx context.Context, tenantID, auditID uuid.UUID) ([]*domain.Session, error) {
	if _, err := p.audits.GetByID(ctx, tenantID, auditID); err != nil {
		return nil, fmt.Errorf("planning.ListSessions: %w", err)
	}
	list, err := p.sessions.ListByAudit(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("planning.ListSessions: %w", err)
	}
	return list, nil
}

// TransitionSession moves a session forward. The owning audit must not be
// terminal.
func (p *Planner) TransitionSession(ctx context.Context, tenantID, auditID, sessionID uuid.UUID, to domain.SessionStatus, actorID string) (*domain.Session, error) {
	s, err := p.GetSession(ctx, tenantID, auditID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("planning.TransitionSession: %w", err)
	}
	if !s.Status.ValidTransition(to) {
		return nil, fmt.Errorf("planning.TransitionSession: %s -> %s: %w", s.Status, to, domain.ErrInvalidState)
	}

	a, err := p.audits.GetByID(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("planning.TransitionSession: %w", err)
	}
	if a.Status.IsTerminal() {
		return nil, fmt.Errorf("planning.TransitionSession: audit is %s: %w", a.Status, domain.ErrInvalidState)
	}

	if err := p.sessions.UpdateStatus(ctx, tenantID, sessionID, s.Status, to); err != nil {
		return nil, fmt.Errorf("planning.TransitionSession: %w", err)
	}

	from := s.Status
	s.Status = to
	s.UpdatedAt = p.now()

	p.emit(ctx, events.SessionStatusChanged, tenantID, auditID, "session", s.ID, actorID, map[string]any{
		"from": from,
		"to":   to,
	})

	return s, nil
}

// DeleteSession removes the session with its items and responses.
// Occurrences that pointed at them lose the link but remain.
func (p *Planner) DeleteSession(ctx context.Context, tenantID, auditID, sessionID uuid.UUID) error {
	if _, err := p.GetSession(ctx, tenantID, auditID, sessionID); err != nil {
		return fmt.Errorf("planning.DeleteSession: %w", err)
	}
	if err := p.sessions.Delete(ctx, tenantID, sessionID); err != nil {
		return fmt.Errorf("planning.DeleteSession: %w", err)
	}
	return nil
}

// AssignItems copies the given standard items into the session. The copy is a
// snapshot: later edits to the standard item do not reach it. Every standard
// item must come from a standard linked to the audit, and none may already be
// assigned to the session.
func (p *Planner) AssignItems(ctx context.Context, tenantID, auditID, sessionID uuid.UUID, standardItemIDs []uuid.UUID, actorID string) ([]*domain.SessionItem, error) {
	if len(standardItemIDs) == 0 {
		return nil, fmt.Errorf("planning.AssignItems: %w", domain.Invalid("standard_item_ids", "at least one item is required"))
	}

	s, err := p.GetSession(ctx, tenantID, auditID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("planning.AssignItems: %w", err)
	}
	if s.Status == domain.SessionStatusCompleted {
		return nil, fmt.Errorf("planning.AssignItems: session is completed: %w", domain.ErrInvalidState)
	}

	a, err := p.audits.GetByID(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("planning.AssignItems: %w", err)
	}
	if a.Status.IsTerminal() {
		return nil, fmt.Errorf("planning.AssignItems: audit is %s: %w", a.Status, domain.ErrInvalidState)
	}

	requested := make(map[uuid.UUID]struct{}, len(standardItemIDs))
	for _, id := range standardItemIDs {
		if _, dup := requested[id]; dup {
			return nil, fmt.Errorf("planning.AssignItems: %w", domain.Invalid("standard_item_ids", "item %s listed twice", id))
		}
		requested[id] = struct{}{}
	}

	source, err := p.standards.GetItems(ctx, tenantID, standardItemIDs)
	if err != nil {
		return nil, fmt.Errorf("planning.AssignItems: %w", err)
	}
	if len(source) != len(standardItemIDs) {
		return nil, fmt.Errorf("planning.AssignItems: standard item: %w", domain.ErrNotFound)
	}
	bySourceID := make(map[uuid.UUID]*domain.StandardItem, len(source))
	for _, it := range source {
		bySourceID[it.ID] = it
	}

	linked, err := p.audits.ListStandards(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("planning.AssignItems: %w", err)
	}
	linkedIDs := make(map[uuid.UUID]struct{}, len(linked))
	for _, st := range linked {
		linkedIDs[st.ID] = struct{}{}
	}

	existing, err := p.items.ListBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("planning.AssignItems: %w", err)
	}
	order := 0
	for _, it := range existing {
		if _, dup := requested[it.StandardItemID]; dup {
			return nil, fmt.Errorf("planning.AssignItems: item %s already assigned: %w", it.StandardItemID, domain.ErrConflict)
		}
		if it.DisplayOrder > order {
			order = it.DisplayOrder
		}
	}

	now := p.now()
	created := make([]*domain.SessionItem, 0, len(standardItemIDs))
	for _, id := range standardItemIDs {
		src := bySourceID[id]
		if _, ok := linkedIDs[src.StandardID]; !ok {
			return nil, fmt.Errorf("planning.AssignItems: %w",
				domain.Invalid("standard_item_ids", "item %s belongs to a standard not linked to the audit", id))
		}
		order++
		created = append(created, &domain.SessionItem{
			ID:             uuid.New(),
			TenantID:       tenantID,
			AuditID:        auditID,
			SessionID:      sessionID,
			StandardItemID: src.ID,
			Snapshot:       domain.SnapshotOf(src),
			DisplayOrder:   order,
			CreatedAt:      now,
		})
	}

	if err := p.items.CreateBatch(ctx, created); err != nil {
		return nil, fmt.Errorf("planning.AssignItems: %w", err)
	}

	log.Info().
		Str("audit_id", auditID.String()).
		Str("session_id", sessionID.String()).
		Int("count", len(created)).
		Msg("session items assigned")
	p.emit(ctx, events.ItemsAssigned, tenantID, auditID, "session", sessionID, actorID, map[string]any{
		"count": len(created),
	})

	return created, nil
}

func (p *Planner) ListItems(ctx context.Context, tenantID, auditID, sessionID uuid.UUID) ([]*domain.SessionItem, error) {
	if _, err := p.GetSession(ctx, tenantID, auditID, sessionID); err != nil {
		return nil, fmt.Errorf("planning.ListItems: %w", err)
	}
	list, err := p.items.ListBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("planning.ListItems: %w", err)
	}
	return list, nil
}

// GetItem returns a session item after checking it belongs to the session.
func (p *Planner) GetItem(ctx context.Context, tenantID, auditID, sessionID, itemID uuid.UUID) (*domain.SessionItem, error) {
	it, err := p.items.GetByID(ctx, tenantID, itemID)
	if err != nil {
		return nil, fmt.Errorf("planning.GetItem: %w", err)
	}
	if it.AuditID != auditID || it.SessionID != sessionID {
		return nil, fmt.Errorf("planning.GetItem: %w", domain.ErrNotFound)
	}
	return it, nil
}
