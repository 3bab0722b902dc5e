package v1

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/occurrence"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/planning"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/report"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/response"
)

// Planner abstracts audit planning and the checklist catalog for handler
// testing. *planning.Planner satisfies this interface.
type Planner interface {
	CreateAudit(ctx context.Context, tenantID uuid.UUID, in planning.AuditInput, actorID string) (*domain.Audit, error)
	GetAudit(ctx context.Context, tenantID, id uuid.UUID) (*domain.Audit, error)
	ListAudits(ctx context.Context, tenantID uuid.UUID) ([]*domain.Audit, error)
	UpdateAudit(ctx context.Context, tenantID, id uuid.UUID, in planning.AuditInput) (*domain.Audit, error)
	TransitionAudit(ctx context.Context, tenantID, id uuid.UUID, to domain.AuditStatus, actorID string) (*domain.Audit, error)
	DeleteAudit(ctx context.Context, tenantID, id uuid.UUID) error
	LinkStandard(ctx context.Context, tenantID, auditID, standardID uuid.UUID) error
	ListAuditStandards(ctx context.Context, tenantID, auditID uuid.UUID) ([]*domain.Standard, error)

	CreateSession(ctx context.Context, tenantID uuid.UUID, in planning.SessionInput, actorID string) (*domain.Session, error)
	GetSession(ctx context.Context, tenantID, auditID, sessionID uuid.UUID) (*domain.Session, error)
	ListSessions(ctx context.Context, tenantID, auditID uuid.UUID) ([]*domain.Session, error)
	TransitionSession(ctx context.Context, tenantID, auditID, sessionID uuid.UUID, to domain.SessionStatus, actorID string) (*domain.Session, error)
	DeleteSession(ctx context.Context, tenantID, auditID, sessionID uuid.UUID) error
	AssignItems(ctx context.Context, tenantID, auditID, sessionID uuid.UUID, standardItemIDs []uuid.UUID, actorID string) ([]*domain.SessionItem, error)
	ListItems(ctx context.Context, tenantID, auditID, sessionID uuid.UUID) ([]*domain.SessionItem, error)
	GetItem(ctx context.Context, tenantID, auditID, sessionID, itemID uuid.UUID) (*domain.SessionItem, error)

	CreateStandard(ctx context.Context, tenantID uuid.UUID, in planning.StandardInput) (*domain.Standard, error)
	GetStandard(ctx context.Context, tenantID, id uuid.UUID) (*domain.Standard, error)
	ListStandards(ctx context.Context, tenantID uuid.UUID) ([]*domain.Standard, error)
	AddStandardItem(ctx context.Context, tenantID, standardID uuid.UUID, in planning.StandardItemInput) (*domain.StandardItem, error)
	ListStandardItems(ctx context.Context, tenantID, standardID uuid.UUID) ([]*domain.StandardItem, error)
	CreateResponseType(ctx context.Context, tenantID uuid.UUID, name string, options []planning.OptionInput) (*domain.ResponseType, error)
	GetResponseType(ctx context.Context, tenantID, id uuid.UUID) (*domain.ResponseType, error)
	ListResponseTypes(ctx context.Context, tenantID uuid.UUID) ([]*domain.ResponseType, error)
}

// Recorder abstracts response capture. *response.Recorder satisfies this interface.
type Recorder interface {
	Save(ctx context.Context, tenantID uuid.UUID, in response.SaveInput, actorID string) (*response.Result, error)
	Get(ctx context.Context, tenantID, sessionItemID uuid.UUID) (*domain.Response, error)
	ListBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]*domain.Response, error)
}

// Tracker abstracts the occurrence lifecycle. *occurrence.Tracker satisfies
// this interface.
type Tracker interface {
	Create(ctx context.Context, tenantID uuid.UUID, in occurrence.CreateInput, actorID string) (*domain.Occurrence, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Occurrence, error)
	List(ctx context.Context, tenantID, auditID uuid.UUID, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, p occurrence.Patch, actorID string) (*domain.Occurrence, error)
	Close(ctx context.Context, tenantID, id uuid.UUID, closedBy string) (*domain.Occurrence, error)
	Reopen(ctx context.Context, tenantID, id uuid.UUID, actorID string) (*domain.Occurrence, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID, actorID string) error
}

// Scorer abstracts scoring configuration and recalculation. *scoring.Scorer
// satisfies this interface.
type Scorer interface {
	Config(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringConfig, error)
	SaveConfig(ctx context.Context, tenantID uuid.UUID, cfg *domain.ScoringConfig, actorID string) error
	Recalculate(ctx context.Context, tenantID, auditID uuid.UUID, actorID string) (*domain.ScoringResult, error)
	Latest(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.ScoringResult, error)
}

// Reporter builds audit reports. *report.Aggregator satisfies this interface.
type Reporter interface {
	Build(ctx context.Context, tenantID, auditID uuid.UUID, opts report.Options) (*domain.AuditReport, error)
}

// Services bundles the handlers' dependencies.
type Services struct {
	Planner  Planner
	Recorder Recorder
	Tracker  Tracker
	Scorer   Scorer
	Reporter Reporter
	Activity domain.ActivityRepository
}

// Register mounts every v1 operation on api.
func Register(api huma.API, svc Services) {
	RegisterCatalogRoutes(api, svc.Planner)
	RegisterAuditRoutes(api, svc.Planner, svc.Activity)
	RegisterSessionRoutes(api, svc.Planner)
	RegisterResponseRoutes(api, svc.Planner, svc.Recorder)
	RegisterOccurrenceRoutes(api, svc.Tracker)
	RegisterScoringRoutes(api, svc.Scorer, svc.Reporter)
}
