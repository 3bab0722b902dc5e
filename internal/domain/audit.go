package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditStatus string

const (
	AuditStatusPlanned    AuditStatus = "planned"
	AuditStatusInProgress AuditStatus = "in_progress"
	AuditStatusCompleted  AuditStatus = "completed"
	AuditStatusCancelled  AuditStatus = "cancelled"
)

// ValidTransition checks if an audit state transition is allowed.
// Allowed: planned->in_progress, in_progress->completed, and cancellation
// from any non-terminal state.
func (s AuditStatus) ValidTransition(to AuditStatus) bool {
	switch s {
	case AuditStatusPlanned:
		return to == AuditStatusInProgress || to == AuditStatusCancelled
	case AuditStatusInProgress:
		return to == AuditStatusCompleted || to == AuditStatusCancelled
	default:
		return false
	}
}

func (s AuditStatus) IsTerminal() bool {
	return s == AuditStatusCompleted || s == AuditStatusCancelled
}

func (s AuditStatus) Valid() bool {
	switch s {
	case AuditStatusPlanned, AuditStatusInProgress, AuditStatusCompleted, AuditStatusCancelled:
		return true
	default:
		return false
	}
}

// Audit is the aggregate root: sessions, items, responses, occurrences,
// scoring config and scoring result all belong to exactly one audit.
type Audit struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Scope       string      `json:"scope,omitempty"`
	LeadAuditor string      `json:"lead_auditor,omitempty"`
	Status      AuditStatus `json:"status"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type AuditRepository interface {
	Create(ctx context.Context, a *Audit) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Audit, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Audit, error)
	Update(ctx context.Context, a *Audit) error
	// UpdateStatus moves the audit from one status to another. It fails with
	// ErrInvalidState when the stored status is no longer from.
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to AuditStatus) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	LinkStandard(ctx context.Context, tenantID, auditID, standardID uuid.UUID) error
	ListStandards(ctx context.Context, tenantID, auditID uuid.UUID) ([]*Standard, error)
}
