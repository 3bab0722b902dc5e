package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Response is the auditor's current answer to one session item. There is at
// most one per item; saving again overwrites it in place.
type Response struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	AuditID       uuid.UUID  `json:"audit_id"`
	SessionItemID uuid.UUID  `json:"session_item_id"`
	OptionID      *uuid.UUID `json:"response_option_id,omitempty"`
	Justification string     `json:"justification,omitempty"`
	Strengths     string     `json:"strengths,omitempty"`
	Weaknesses    string     `json:"weaknesses,omitempty"`
	Observations  string     `json:"observations,omitempty"`
	AttachmentIDs []string   `json:"attachment_ids"`
	RespondedBy   string     `json:"responded_by"`
	RespondedAt   time.Time  `json:"responded_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ResponseRepository interface {
	// Upsert stores r keyed by SessionItemID. When a row with a newer
	// RespondedAt already exists it is kept and returned instead.
	Upsert(ctx context.Context, r *Response) (*Response, error)
	GetBySessionItem(ctx context.Context, tenantID, sessionItemID uuid.UUID) (*Response, error)
	ListBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]*Response, error)
	ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID) ([]*Response, error)
}
