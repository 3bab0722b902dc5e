// Package events carries audit change notifications to the activity log and
// to live subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

// Event types published on an audit channel.
const (
	AuditCreated         = "audit.created"
	AuditStatusChanged   = "audit.status_changed"
	SessionCreated       = "session.created"
	SessionStatusChanged = "session.status_changed"
	ItemsAssigned        = "session.items_assigned"
	ResponseSaved        = "response.saved"
	OccurrenceCreated    = "occurrence.created"
	OccurrenceUpdated    = "occurrence.updated"
	OccurrenceClosed     = "occurrence.closed"
	OccurrenceReopened   = "occurrence.reopened"
	OccurrenceDeleted    = "occurrence.deleted"
	ScoringConfigSaved   = "scoring.config_saved"
	ScoreRecalculated    = "score.recalculated"
)

type Event struct {
	Type       string         `json:"type"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	AuditID    uuid.UUID      `json:"audit_id"`
	Resource   string         `json:"resource"`
	ResourceID uuid.UUID      `json:"resource_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// ChannelPublisher abstracts the Redis pub/sub publish operation.
type ChannelPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ChannelPublisherAdapter encodes events as JSON and publishes them on the
// channel returned by Channel.
type ChannelPublisherAdapter struct {
	pubsub  ChannelPublisher
	channel func(tenantID, auditID uuid.UUID) string
}

func NewChannelPublisher(pubsub ChannelPublisher, channel func(tenantID, auditID uuid.UUID) string) *ChannelPublisherAdapter {
	return &ChannelPublisherAdapter{pubsub: pubsub, channel: channel}
}

func (p *ChannelPublisherAdapter) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events.Publish: marshal: %w", err)
	}
	if err := p.pubsub.Publish(ctx, p.channel(e.TenantID, e.AuditID), payload); err != nil {
		return fmt.Errorf("events.Publish: %w", err)
	}
	return nil
}

// Journal records each event in the activity log and publishes it.
// Both steps are best-effort: failures are logged and never reach the
// caller, so a broken broker cannot fail an audit operation.
type Journal struct {
	activity  domain.ActivityRepository
	publisher Publisher
	now       func() time.Time
}

// NewJournal creates a Journal. Either dependency may be nil.
func NewJournal(activity domain.ActivityRepository, publisher Publisher) *Journal {
	return &Journal{activity: activity, publisher: publisher, now: time.Now}
}

func (j *Journal) Emit(ctx context.Context, e Event) {
	if j == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = j.now()
	}

	if j.activity != nil {
		entry := &domain.ActivityEntry{
			ID:         uuid.New(),
			TenantID:   e.TenantID,
			AuditID:    e.AuditID,
			ActorID:    e.ActorID,
			Action:     e.Type,
			Resource:   e.Resource,
			ResourceID: e.ResourceID,
			Details:    e.Details,
			CreatedAt:  e.OccurredAt,
		}
		if err := j.activity.Record(ctx, entry); err != nil {
			log.Warn().Err(err).Str("event", e.Type).Str("audit_id", e.AuditID.String()).Msg("events: failed to record activity")
		}
	}

	if j.publisher != nil {
		if err := j.publisher.Publish(ctx, e); err != nil {
			log.Warn().Err(err).Str("event", e.Type).Str("audit_id", e.AuditID.String()).Msg("events: failed to publish")
		}
	}
}
