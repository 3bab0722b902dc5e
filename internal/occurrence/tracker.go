// Package occurrence manages nonconformities, observations and improvement
// opportunities raised while an audit runs.
package occurrence

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

type CreateInput struct {
	AuditID       uuid.UUID
	Type          domain.OccurrenceType
	Title         string
	Description   string
	Priority      domain.Priority // defaults to medium
	SessionID     *uuid.UUID
	SessionItemID *uuid.UUID
	ResponseID    *uuid.UUID
	Responsible   string
	DueDate       *time.Time
}

// Patch holds the fields an update may change. Nil fields are left alone.
type Patch struct {
	Title            *string
	Description      *string
	Type             *domain.OccurrenceType
	Priority         *domain.Priority
	Status           *domain.OccurrenceStatus
	Responsible      *string
	DueDate          *time.Time
	RootCause        *string
	CorrectiveAction *string
}

// Tracker owns the occurrence state machine:
// Open <-> In_Treatment <-> Awaiting_Verification -> Closed, any of the
// first three -> Cancelled.
type Tracker struct {
	audits      domain.AuditRepository
	sessions    domain.SessionRepository
	items       domain.SessionItemRepository
	responses   domain.ResponseRepository
	occurrences domain.OccurrenceRepository
	journal     *events.Journal
	now         func() time.Time
}

func NewTracker(
	audits domain.AuditRepository,
	sessions domain.SessionRepository,
	items domain.SessionItemRepository,
	responses domain.ResponseRepository,
	occurrences domain.OccurrenceRepository,
	journal *events.Journal,
) *Tracker {
	return &Tracker{
		audits:      audits,
		sessions:    sessions,
		items:       items,
		responses:   responses,
		occurrences: occurrences,
		journal:     journal,
		now:         time.Now,
	}
}

// Create validates in and stores a new Open occurrence. The store assigns
// the per-audit number.
func (t *Tracker) Create(ctx context.Context, tenantID uuid.UUID, in CreateInput, actorID string) (*domain.Occurrence, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return nil, fmt.Errorf("occurrence.Tracker.Create: %w", domain.Invalid("title", "is required"))
	}
	if in.Description == "" {
		return nil, fmt.Errorf("occurrence.Tracker.Create: %w", domain.Invalid("description", "is required"))
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("occurrence.Tracker.Create: %w", domain.Invalid("occurrence_type", "unknown type %q", in.Type))
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("occurrence.Tracker.Create: %w", domain.Invalid("priority", "unknown priority %q", in.Priority))
	}

	audit, err := t.audits.GetByID(ctx, tenantID, in.AuditID)
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Create: get audit: %w", err)
	}
	if audit.Status == domain.AuditStatusCancelled {
		return nil, fmt.Errorf("occurrence.Tracker.Create: audit is cancelled: %w", domain.ErrInvalidState)
	}

	if err := t.resolveLinks(ctx, tenantID, &in); err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Create: %w", err)
	}

	now := t.now()
	o := &domain.Occurrence{
		ID:            uuid.New(),
		TenantID:      tenantID,
		AuditID:       in.AuditID,
		SessionID:     in.SessionID,
		SessionItemID: in.SessionItemID,
		ResponseID:    in.ResponseID,
		Type:          in.Type,
		Title:         in.Title,
		Description:   in.Description,
		Status:        domain.OccurrenceStatusOpen,
		Priority:      in.Priority,
		Responsible:   in.Responsible,
		DueDate:       in.DueDate,
		CreatedBy:     actorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := t.occurrences.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Create: %w", err)
	}

	log.Info().
		Str("audit_id", o.AuditID.String()).
		Str("occurrence_id", o.ID.String()).
		Int("number", o.Number).
		Str("type", string(o.Type)).
		Msg("occurrence created")

	t.emit(ctx, events.OccurrenceCreated, o, actorID, map[string]any{
		"occurrence_number": o.Number,
		"occurrence_type":   o.Type,
	})

	return o, nil
}

// resolveLinks checks that every link points inside the audit and fills the
// session from the item when only the item is given.
func (t *Tracker) resolveLinks(ctx context.Context, tenantID uuid.UUID, in *CreateInput) error {
	if in.SessionItemID != nil {
		item, err := t.items.GetByID(ctx, tenantID, *in.SessionItemID)
		if err != nil {
			return fmt.Errorf("get session item: %w", err)
		}
		if item.AuditID != in.AuditID {
			return domain.Invalid("session_item_id", "item belongs to another audit")
		}
		if in.SessionID == nil {
			sid := item.SessionID
			in.SessionID = &sid
		} else if *in.SessionID != item.SessionID {
			return domain.Invalid("session_item_id", "item belongs to another session")
		}
	}

	if in.SessionID != nil {
		session, err := t.sessions.GetByID(ctx, tenantID, *in.SessionID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if session.AuditID != in.AuditID {
			return domain.Invalid("session_id", "session belongs to another audit")
		}
	}

	if in.ResponseID != nil {
		if in.SessionItemID == nil {
			return domain.Invalid("response_id", "requires session_item_id")
		}
		r, err := t.responses.GetBySessionItem(ctx, tenantID, *in.SessionItemID)
		if err != nil {
			return fmt.Errorf("get response: %w", err)
		}
		if r.ID != *in.ResponseID {
			return domain.Invalid("response_id", "is not the current response of the item")
		}
	}

	return nil
}

func (t *Tracker) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Occurrence, error) {
	o, err := t.occurrences.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Get: %w", err)
	}
	return o, nil
}

func (t *Tracker) List(ctx context.Context, tenantID, auditID uuid.UUID, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("occurrence.Tracker.List: %w", domain.Invalid("status", "unknown status %q", filter.Status))
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("occurrence.Tracker.List: %w", domain.Invalid("occurrence_type", "unknown type %q", filter.Type))
	}
	if _, err := t.audits.GetByID(ctx, tenantID, auditID); err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.List: get audit: %w", err)
	}
	list, err := t.occurrences.ListByAudit(ctx, tenantID, auditID, filter)
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.List: %w", err)
	}
	return list, nil
}

// Update applies p to a non-terminal occurrence. Closing goes through Close.
func (t *Tracker) Update(ctx context.Context, tenantID, id uuid.UUID, p Patch, actorID string) (*domain.Occurrence, error) {
	o, err := t.occurrences.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Update: %w", err)
	}
	if o.Status.IsTerminal() {
		return nil, fmt.Errorf("occurrence.Tracker.Update: occurrence is %s: %w", o.Status, domain.ErrInvalidState)
	}

	if err := apply(o, p); err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Update: %w", err)
	}
	o.UpdatedAt = t.now()

	if err := t.occurrences.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Update: %w", err)
	}

	t.emit(ctx, events.OccurrenceUpdated, o, actorID, map[string]any{"status": o.Status})

	return o, nil
}

func apply(o *domain.Occurrence, p Patch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return domain.Invalid("title", "is required")
		}
		o.Title = title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if desc == "" {
			return domain.Invalid("description", "is required")
		}
		o.Description = desc
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return domain.Invalid("occurrence_type", "unknown type %q", *p.Type)
		}
		o.Type = *p.Type
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return domain.Invalid("priority", "unknown priority %q", *p.Priority)
		}
		o.Priority = *p.Priority
	}
	if p.Status != nil && *p.Status != o.Status {
		switch {
		case *p.Status == domain.OccurrenceStatusClosed:
			return fmt.Errorf("status %s is only reachable by closing: %w", *p.Status, domain.ErrInvalidState)
		case !o.Status.ValidTransition(*p.Status):
			return domain.Invalid("status", "cannot move from %s to %s", o.Status, *p.Status)
		}
		o.Status = *p.Status
	}
	if p.Responsible != nil {
		o.Responsible = *p.Responsible
	}
	if p.DueDate != nil {
		due := *p.DueDate
		o.DueDate = &due
	}
	if p.RootCause != nil {
		o.RootCause = *p.RootCause
	}
	if p.CorrectiveAction != nil {
		o.CorrectiveAction = *p.CorrectiveAction
	}
	return nil
}

// Close stamps ClosedAt/ClosedBy. Closing an already Closed or Cancelled
// occurrence returns it unchanged without error.
func (t *Tracker) Close(ctx context.Context, tenantID, id uuid.UUID, closedBy string) (*domain.Occurrence, error) {
	o, err := t.occurrences.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Close: %w", err)
	}
	if o.Status.IsTerminal() {
		return o, nil
	}

	changed, err := t.occurrences.Close(ctx, tenantID, id, closedBy, t.now())
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Close: %w", err)
	}

	o, err = t.occurrences.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Close: reload: %w", err)
	}

	if changed {
		log.Info().
			Str("audit_id", o.AuditID.String()).
			Str("occurrence_id", o.ID.String()).
			Str("closed_by", closedBy).
			Msg("occurrence closed")
		t.emit(ctx, events.OccurrenceClosed, o, closedBy, nil)
	}

	return o, nil
}

// Reopen moves a Closed occurrence back to Open and clears the close stamp.
// Cancelled occurrences stay cancelled.
func (t *Tracker) Reopen(ctx context.Context, tenantID, id uuid.UUID, actorID string) (*domain.Occurrence, error) {
	o, err := t.occurrences.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Reopen: %w", err)
	}
	if o.Status != domain.OccurrenceStatusClosed {
		return nil, fmt.Errorf("occurrence.Tracker.Reopen: occurrence is %s: %w", o.Status, domain.ErrInvalidState)
	}

	if err := t.occurrences.Reopen(ctx, tenantID, id); err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Reopen: %w", err)
	}

	o, err = t.occurrences.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("occurrence.Tracker.Reopen: reload: %w", err)
	}

	t.emit(ctx, events.OccurrenceReopened, o, actorID, nil)

	return o, nil
}

// Delete removes the occurrence in any state. Its number is not reused.
func (t *Tracker) Delete(ctx context.Context, tenantID, id uuid.UUID, actorID string) error {
	o, err := t.occurrences.GetByID(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("occurrence.Tracker.Delete: %w", err)
	}

	if err := t.occurrences.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("occurrence.Tracker.Delete: %w", err)
	}

	t.emit(ctx, events.OccurrenceDeleted, o, actorID, map[string]any{"occurrence_number": o.Number})

	return nil
}

func (t *Tracker) emit(ctx context.Context, typ string, o *domain.Occurrence, actorID string, details map[string]any) {
	t.journal.Emit(ctx, events.Event{
		Type:       typ,
		TenantID:   o.TenantID,
		AuditID:    o.AuditID,
		Resource:   "occurrence",
		ResourceID: o.ID,
		ActorID:    actorID,
		Details:    details,
	})
}
