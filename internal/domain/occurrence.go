package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OccurrenceType string

const (
	OccurrenceNCMajor     OccurrenceType = "NC_major"
	OccurrenceNCMinor     OccurrenceType = "NC_minor"
	OccurrenceOpportunity OccurrenceType = "Improvement_Opportunity"
	OccurrenceObservation OccurrenceType = "Observation"
)

func (t OccurrenceType) Valid() bool {
	switch t {
	case OccurrenceNCMajor, OccurrenceNCMinor, OccurrenceOpportunity, OccurrenceObservation:
		return true
	default:
		return false
	}
}

type OccurrenceStatus string

const (
	OccurrenceStatusOpen                 OccurrenceStatus = "Open"
	OccurrenceStatusInTreatment          OccurrenceStatus = "In_Treatment"
	OccurrenceStatusAwaitingVerification OccurrenceStatus = "Awaiting_Verification"
	OccurrenceStatusClosed               OccurrenceStatus = "Closed"
	OccurrenceStatusCancelled            OccurrenceStatus = "Cancelled"
)

func (s OccurrenceStatus) Valid() bool {
	switch s {
	case OccurrenceStatusOpen, OccurrenceStatusInTreatment, OccurrenceStatusAwaitingVerification,
		OccurrenceStatusClosed, OccurrenceStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether edits are rejected in this state.
func (s OccurrenceStatus) IsTerminal() bool {
	return s == OccurrenceStatusClosed || s == OccurrenceStatusCancelled
}

// ValidTransition checks a status change requested through an update.
// Open, In_Treatment and Awaiting_Verification move freely between each
// other and may be cancelled. Closed is only reachable through Close.
func (s OccurrenceStatus) ValidTransition(to OccurrenceStatus) bool {
	if s.IsTerminal() || !to.Valid() || to == OccurrenceStatusClosed {
		return false
	}
	return s != to
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

type Occurrence struct {
	ID               uuid.UUID        `json:"id"`
	TenantID         uuid.UUID        `json:"tenant_id"`
	AuditID          uuid.UUID        `json:"audit_id"`
	SessionID        *uuid.UUID       `json:"session_id,omitempty"`
	SessionItemID    *uuid.UUID       `json:"session_item_id,omitempty"`
	ResponseID       *uuid.UUID       `json:"response_id,omitempty"`
	Number           int              `json:"occurrence_number"`
	Type             OccurrenceType   `json:"occurrence_type"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Status           OccurrenceStatus `json:"status"`
	Priority         Priority         `json:"priority"`
	Responsible      string           `json:"responsible,omitempty"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
	RootCause        string           `json:"root_cause,omitempty"`
	CorrectiveAction string           `json:"corrective_action,omitempty"`
	ClosedAt         *time.Time       `json:"closed_at,omitempty"`
	ClosedBy         *string          `json:"closed_by,omitempty"`
	CreatedBy        string           `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// OccurrenceFilter narrows ListByAudit. Zero values match everything.
type OccurrenceFilter struct {
	Status OccurrenceStatus
	Type   OccurrenceType
}

type OccurrenceRepository interface {
	// Create assigns o.Number from the audit's sequence and inserts o.
	Create(ctx context.Context, o *Occurrence) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Occurrence, error)
	ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID, filter OccurrenceFilter) ([]*Occurrence, error)
	ListByResponse(ctx context.Context, tenantID, responseID uuid.UUID) ([]*Occurrence, error)
	// Update rewrites the mutable fields; it fails with ErrInvalidState when
	// the stored row is already terminal.
	Update(ctx context.Context, o *Occurrence) error
	// Close stamps a non-terminal occurrence. It reports false when the row
	// was already terminal.
	Close(ctx context.Context, tenantID, id uuid.UUID, closedBy string, closedAt time.Time) (bool, error)
	// Reopen moves a Closed occurrence back to Open.
	Reopen(ctx context.Context, tenantID, id uuid.UUID) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
