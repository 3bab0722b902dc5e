package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/planning"
)

type AuditBody struct {
	Title       string     `json:"title" minLength:"1" maxLength:"255" doc:"Audit title"`
	Description string     `json:"description,omitempty" doc:"Free text description"`
	Scope       string     `json:"scope,omitempty" doc:"Sites, processes or departments covered"`
	LeadAuditor string     `json:"lead_auditor,omitempty" doc:"Lead auditor identifier"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

func (b *AuditBody) input() planning.AuditInput {
	return planning.AuditInput{
		Title:       b.Title,
		Description: b.Description,
		Scope:       b.Scope,
		LeadAuditor: b.LeadAuditor,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
	}
}

type CreateAuditInput struct {
	Body AuditBody
}

type AuditOutput struct {
	Body *domain.Audit
}

type ListAuditsOutput struct {
	Body []*domain.Audit
}

type AuditIDInput struct {
	ID uuid.UUID `path:"id" doc:"Audit ID"`
}

type UpdateAuditInput struct {
	ID   uuid.UUID `path:"id" doc:"Audit ID"`
	Body AuditBody
}

type TransitionAuditInput struct {
	ID   uuid.UUID `path:"id" doc:"Audit ID"`
	Body struct {
		Status domain.AuditStatus `json:"status" enum:"planned,in_progress,completed,cancelled" doc:"Target status"`
	}
}

type LinkStandardInput struct {
	ID         uuid.UUID `path:"id" doc:"Audit ID"`
	StandardID uuid.UUID `path:"standardID" doc:"Standard ID"`
}

type ListActivityInput struct {
	ID     uuid.UUID `path:"id" doc:"Audit ID"`
	Limit  int       `query:"limit" default:"50" minimum:"1" maximum:"500"`
	Offset int       `query:"offset" default:"0" minimum:"0"`
}

type ListActivityOutput struct {
	Body []*domain.ActivityEntry
}

func RegisterAuditRoutes(api huma.API, planner Planner, activity domain.ActivityRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "create-audit",
		Method:      http.MethodPost,
		Path:        "/audits",
		Summary:     "Plan a new audit",
		Tags:        []string{"Audits"},
	}, func(ctx context.Context, input *CreateAuditInput) (*AuditOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		a, err := planner.CreateAudit(ctx, c.TenantID, input.Body.input(), c.ActorID)
		if err != nil {
			return nil, apiError("failed to create audit", err)
		}

		return &AuditOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audits",
		Method:      http.MethodGet,
		Path:        "/audits",
		Summary:     "List audits in current tenant",
		Tags:        []string{"Audits"},
	}, func(ctx context.Context, _ *struct{}) (*ListAuditsOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		list, err := planner.ListAudits(ctx, c.TenantID)
		if err != nil {
			return nil, apiError("failed to list audits", err)
		}

		return &ListAuditsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit",
		Method:      http.MethodGet,
		Path:        "/audits/{id}",
		Summary:     "Get an audit by ID",
		Tags:        []string{"Audits"},
	}, func(ctx context.Context, input *AuditIDInput) (*AuditOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		a, err := planner.GetAudit(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("audit not found", err)
		}

		return &AuditOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-audit",
		Method:      http.MethodPatch,
		Path:        "/audits/{id}",
		Summary:     "Update audit details",
		Tags:        []string{"Audits"},
	}, func(ctx context.Context, input *UpdateAuditInput) (*AuditOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		a, err := planner.UpdateAudit(ctx, c.TenantID, input.ID, input.Body.input())
		if err != nil {
			return nil, apiError("failed to update audit", err)
		}

		return &AuditOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-audit",
		Method:        http.MethodDelete,
		Path:          "/audits/{id}",
		Summary:       "Delete an audit and everything it owns",
		Tags:          []string{"Audits"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *AuditIDInput) (*struct{}, error) {
		c, err := adminFrom(ctx)
		if err != nil {
			return nil, err
		}

		if err := planner.DeleteAudit(ctx, c.TenantID, input.ID); err != nil {
			return nil, apiError("failed to delete audit", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-audit",
		Method:      http.MethodPatch,
		Path:        "/audits/{id}/status",
		Summary:     "Move an audit to a new status",
		Tags:        []string{"Audits"},
	}, func(ctx context.Context, input *TransitionAuditInput) (*AuditOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		a, err := planner.TransitionAudit(ctx, c.TenantID, input.ID, input.Body.Status, c.ActorID)
		if err != nil {
			return nil, apiError("failed to transition audit", err)
		}

		return &AuditOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "link-audit-standard",
		Method:        http.MethodPut,
		Path:          "/audits/{id}/standards/{standardID}",
		Summary:       "Link a standard to an audit",
		Tags:          []string{"Audits"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *LinkStandardInput) (*struct{}, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if err := planner.LinkStandard(ctx, c.TenantID, input.ID, input.StandardID); err != nil {
			return nil, apiError("failed to link standard", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-standards",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/standards",
		Summary:     "List the standards linked to an audit",
		Tags:        []string{"Audits"},
	}, func(ctx context.Context, input *AuditIDInput) (*ListStandardsOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		list, err := planner.ListAuditStandards(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("failed to list audit standards", err)
		}

		return &ListStandardsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-activity",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/activity",
		Summary:     "List recent changes to an audit, newest first",
		Tags:        []string{"Audits"},
	}, func(ctx context.Context, input *ListActivityInput) (*ListActivityOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := planner.GetAudit(ctx, c.TenantID, input.ID); err != nil {
			return nil, apiError("audit not found", err)
		}

		entries, err := activity.ListByAudit(ctx, c.TenantID, input.ID, input.Limit, input.Offset)
		if err != nil {
			return nil, apiError("failed to list activity", err)
		}

		return &ListActivityOutput{Body: entries}, nil
	})
}
