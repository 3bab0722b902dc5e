package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

// ValidTransition checks if a session state transition is allowed.
// Sessions only move forward: pending->in_progress->completed.
func (s SessionStatus) ValidTransition(to SessionStatus) bool {
	switch s {
	case SessionStatusPending:
		return to == SessionStatusInProgress
	case SessionStatusInProgress:
		return to == SessionStatusCompleted
	default:
		return false
	}
}

type Session struct {
	ID           uuid.UUID     `json:"id"`
	TenantID     uuid.UUID     `json:"tenant_id"`
	AuditID      uuid.UUID     `json:"audit_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	DisplayOrder int           `json:"display_order"`
	Status       SessionStatus `json:"status"`
	ScheduledAt  *time.Time    `json:"scheduled_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ItemSnapshot is the copy of a standard item taken when it was assigned.
type ItemSnapshot struct {
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Guidance       string    `json:"guidance,omitempty"`
	Weight         float64   `json:"weight"`
	ResponseTypeID uuid.UUID `json:"response_type_id"`
}

type SessionItem struct {
	ID             uuid.UUID    `json:"id"`
	TenantID       uuid.UUID    `json:"tenant_id"`
	AuditID        uuid.UUID    `json:"audit_id"`
	SessionID      uuid.UUID    `json:"session_id"`
	StandardItemID uuid.UUID    `json:"standard_item_id"`
	Snapshot       ItemSnapshot `json:"item_snapshot"`
	DisplayOrder   int          `json:"display_order"`
	CreatedAt      time.Time    `json:"created_at"`
}

// SnapshotOf copies the fields of a standard item that a session item freezes.
func SnapshotOf(item *StandardItem) ItemSnapshot {
	return ItemSnapshot{
		Title:          item.Title,
		Description:    item.Description,
		Guidance:       item.Guidance,
		Weight:         item.Weight,
		ResponseTypeID: item.ResponseTypeID,
	}
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Session, error)
	ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID) ([]*Session, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to SessionStatus) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type SessionItemRepository interface {
	// CreateBatch inserts all items or none.
	CreateBatch(ctx context.Context, items []*SessionItem) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*SessionItem, error)
	ListBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]*SessionItem, error)
	ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID) ([]*SessionItem, error)
}
