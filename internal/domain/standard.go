package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Standard is a master checklist (e.g. ISO 14001) that sessions copy items from.
type Standard struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Version     string    `json:"version,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StandardItem is one master checklist question. Edits here never reach
// session items that were already assigned.
type StandardItem struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	StandardID     uuid.UUID `json:"standard_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Guidance       string    `json:"guidance,omitempty"`
	Weight         float64   `json:"weight"`
	ResponseTypeID uuid.UUID `json:"response_type_id"`
	DisplayOrder   int       `json:"display_order"`
	CreatedAt      time.Time `json:"created_at"`
}

type StandardRepository interface {
	Create(ctx context.Context, s *Standard) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Standard, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Standard, error)
	CreateItem(ctx context.Context, item *StandardItem) error
	ListItems(ctx context.Context, tenantID, standardID uuid.UUID) ([]*StandardItem, error)
	GetItems(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*StandardItem, error)
}

// Conformity is the classification of a response for scoring.
type Conformity string

const (
	ConformityConforming    Conformity = "conforming"
	ConformityNonConforming Conformity = "non_conforming"
	ConformityPartial       Conformity = "partial"
	ConformityNA            Conformity = "na"
)

func (c Conformity) Valid() bool {
	switch c {
	case ConformityConforming, ConformityNonConforming, ConformityPartial, ConformityNA:
		return true
	default:
		return false
	}
}

// ResponseOption is one selectable answer of a response type.
// Conformity is optional; when empty the scoring engine derives it from Weight.
type ResponseOption struct {
	ID                 uuid.UUID      `json:"id"`
	ResponseTypeID     uuid.UUID      `json:"response_type_id"`
	Label              string         `json:"label"`
	Weight             float64        `json:"weight"`
	Conformity         Conformity     `json:"conformity,omitempty"`
	TriggersOccurrence bool           `json:"triggers_occurrence"`
	OccurrenceType     OccurrenceType `json:"occurrence_type,omitempty"`
	DisplayOrder       int            `json:"display_order"`
}

// ResponseType is a reusable catalog of options shared across audits.
type ResponseType struct {
	ID        uuid.UUID         `json:"id"`
	TenantID  uuid.UUID         `json:"tenant_id"`
	Name      string            `json:"name"`
	Options   []*ResponseOption `json:"options"`
	CreatedAt time.Time         `json:"created_at"`
}

// BestWeight returns the highest option weight, the reference for a fully
// conforming answer.
func (rt *ResponseType) BestWeight() float64 {
	best := 0.0
	for _, o := range rt.Options {
		if o.Weight > best {
			best = o.Weight
		}
	}
	return best
}

// Option returns the option with the given id.
func (rt *ResponseType) Option(id uuid.UUID) (*ResponseOption, bool) {
	for _, o := range rt.Options {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

type ResponseTypeRepository interface {
	Create(ctx context.Context, rt *ResponseType) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ResponseType, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*ResponseType, error)
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*ResponseType, error)
}
