package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityEntry records who changed what inside an audit.
type ActivityEntry struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	AuditID    uuid.UUID      `json:"audit_id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`   // "response.saved", "occurrence.closed", ...
	Resource   string         `json:"resource"` // "response", "occurrence", "score", ...
	ResourceID uuid.UUID      `json:"resource_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type ActivityRepository interface {
	Record(ctx context.Context, entry *ActivityEntry) error
	ListByAudit(ctx context.Context, tenantID, auditID uuid.UUID, limit, offset int) ([]*ActivityEntry, error)
}
