// Package response records auditor answers to session items.
package response

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/events"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/occurrence"
)

// OccurrenceCreator opens the occurrence implied by a triggering option.
type OccurrenceCreator interface {
	Create(ctx context.Context, tenantID uuid.UUID, in occurrence.CreateInput, actorID string) (*domain.Occurrence, error)
}

type SaveInput struct {
	SessionItemID uuid.UUID
	OptionID      *uuid.UUID
	Justification string
	Strengths     string
	Weaknesses    string
	Observations  string
	AttachmentIDs []string
}

// Result is the stored response plus the occurrence its option raised, if any.
type Result struct {
	Response   *domain.Response   `json:"response"`
	Occurrence *domain.Occurrence `json:"occurrence,omitempty"`
}

type Recorder struct {
	audits        domain.AuditRepository
	items         domain.SessionItemRepository
	responseTypes domain.ResponseTypeRepository
	responses     domain.ResponseRepository
	occurrences   domain.OccurrenceRepository
	tracker       OccurrenceCreator
	journal       *events.Journal
	now           func() time.Time
}

func NewRecorder(
	audits domain.AuditRepository,
	items domain.SessionItemRepository,
	responseTypes domain.ResponseTypeRepository,
	responses domain.ResponseRepository,
	occurrences domain.OccurrenceRepository,
	tracker OccurrenceCreator,
	journal *events.Journal,
) *Recorder {
	return &Recorder{
		audits:        audits,
		items:         items,
		responseTypes: responseTypes,
		responses:     responses,
		occurrences:   occurrences,
		tracker:       tracker,
		journal:       journal,
		now:           time.Now,
	}
}

// Save creates or overwrites the single response of a session item. The
// score is not recomputed here.
func (r *Recorder) Save(ctx context.Context, tenantID uuid.UUID, in SaveInput, actorID string) (*Result, error) {
	item, err := r.items.GetByID(ctx, tenantID, in.SessionItemID)
	if err != nil {
		return nil, fmt.Errorf("response.Recorder.Save: get item: %w", err)
	}

	audit, err := r.audits.GetByID(ctx, tenantID, item.AuditID)
	if err != nil {
		return nil, fmt.Errorf("response.Recorder.Save: get audit: %w", err)
	}
	if audit.Status == domain.AuditStatusCancelled {
		return nil, fmt.Errorf("response.Recorder.Save: audit is cancelled: %w", domain.ErrInvalidState)
	}

	var opt *domain.ResponseOption
	if in.OptionID != nil {
		rt, err := r.responseTypes.GetByID(ctx, tenantID, item.Snapshot.ResponseTypeID)
		if err != nil {
			return nil, fmt.Errorf("response.Recorder.Save: get response type: %w", err)
		}
		o, ok := rt.Option(*in.OptionID)
		if !ok {
			return nil, fmt.Errorf("response.Recorder.Save: %w",
				domain.Invalid("response_option_id", "option does not belong to response type %q", rt.Name))
		}
		opt = o
	}

	now := r.now()
	resp := &domain.Response{
		ID:            uuid.New(),
		TenantID:      tenantID,
		AuditID:       item.AuditID,
		SessionItemID: item.ID,
		OptionID:      in.OptionID,
		Justification: in.Justification,
		Strengths:     in.Strengths,
		Weaknesses:    in.Weaknesses,
		Observations:  in.Observations,
		AttachmentIDs: attachments(in.AttachmentIDs),
		RespondedBy:   actorID,
		RespondedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	saved, err := r.responses.Upsert(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("response.Recorder.Save: %w", err)
	}

	res := &Result{Response: saved}

	// A newer concurrent save won when the stored row is after ours; that
	// call handles its own trigger.
	if opt != nil && opt.TriggersOccurrence && !saved.RespondedAt.After(now) {
		occ, err := r.raiseOccurrence(ctx, tenantID, item, saved, opt, actorID)
		if err != nil {
			return nil, fmt.Errorf("response.Recorder.Save: %w", err)
		}
		res.Occurrence = occ
	}

	log.Debug().
		Str("audit_id", saved.AuditID.String()).
		Str("session_item_id", saved.SessionItemID.String()).
		Bool("occurrence_raised", res.Occurrence != nil).
		Msg("response saved")

	details := map[string]any{"session_item_id": saved.SessionItemID}
	if saved.OptionID != nil {
		details["response_option_id"] = *saved.OptionID
	}
	r.journal.Emit(ctx, events.Event{
		Type:       events.ResponseSaved,
		TenantID:   tenantID,
		AuditID:    saved.AuditID,
		Resource:   "response",
		ResourceID: saved.ID,
		ActorID:    actorID,
		Details:    details,
	})

	return res, nil
}

// raiseOccurrence opens an occurrence for the response unless a live one is
// already linked to it.
func (r *Recorder) raiseOccurrence(
	ctx context.Context,
	tenantID uuid.UUID,
	item *domain.SessionItem,
	resp *domain.Response,
	opt *domain.ResponseOption,
	actorID string,
) (*domain.Occurrence, error) {
	linked, err := r.occurrences.ListByResponse(ctx, tenantID, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("list linked occurrences: %w", err)
	}
	for _, o := range linked {
		if o.Status != domain.OccurrenceStatusCancelled {
			return nil, nil
		}
	}

	typ := opt.OccurrenceType
	if typ == "" {
		typ = domain.OccurrenceNCMinor
	}
	desc := strings.TrimSpace(resp.Justification)
	if desc == "" {
		desc = strings.TrimSpace(item.Snapshot.Description)
	}
	if desc == "" {
		desc = fmt.Sprintf("Answered %q", opt.Label)
	}

	itemID, respID, sessionID := item.ID, resp.ID, item.SessionID
	occ, err := r.tracker.Create(ctx, tenantID, occurrence.CreateInput{
		AuditID:       item.AuditID,
		Type:          typ,
		Title:         item.Snapshot.Title,
		Description:   desc,
		SessionID:     &sessionID,
		SessionItemID: &itemID,
		ResponseID:    &respID,
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("raise occurrence: %w", err)
	}
	return occ, nil
}

// Get returns the current response of a session item.
func (r *Recorder) Get(ctx context.Context, tenantID, sessionItemID uuid.UUID) (*domain.Response, error) {
	resp, err := r.responses.GetBySessionItem(ctx, tenantID, sessionItemID)
	if err != nil {
		return nil, fmt.Errorf("response.Recorder.Get: %w", err)
	}
	return resp, nil
}

func (r *Recorder) ListBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]*domain.Response, error) {
	list, err := r.responses.ListBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("response.Recorder.ListBySession: %w", err)
	}
	return list, nil
}

func attachments(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
