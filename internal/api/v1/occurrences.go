package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/occurrence"
)

type CreateOccurrenceInput struct {
	ID   uuid.UUID `path:"id" doc:"Audit ID"`
	Body struct {
		Type          domain.OccurrenceType `json:"occurrence_type" enum:"NC_major,NC_minor,Improvement_Opportunity,Observation"`
		Title         string                `json:"title" minLength:"1" maxLength:"255"`
		Description   string                `json:"description,omitempty"`
		Priority      domain.Priority       `json:"priority,omitempty" enum:"low,medium,high,critical" doc:"Defaults to medium"`
		SessionID     *uuid.UUID            `json:"session_id,omitempty"`
		SessionItemID *uuid.UUID            `json:"session_item_id,omitempty"`
		ResponseID    *uuid.UUID            `json:"response_id,omitempty"`
		Responsible   string                `json:"responsible,omitempty"`
		DueDate       *time.Time            `json:"due_date,omitempty"`
	}
}

type OccurrenceOutput struct {
	Body *domain.Occurrence
}

type ListOccurrencesInput struct {
	ID     uuid.UUID `path:"id" doc:"Audit ID"`
	Status string    `query:"status" enum:"Open,In_Treatment,Awaiting_Verification,Closed,Cancelled" doc:"Filter by status"`
	Type   string    `query:"type" enum:"NC_major,NC_minor,Improvement_Opportunity,Observation" doc:"Filter by type"`
}

type ListOccurrencesOutput struct {
	Body []*domain.Occurrence
}

type OccurrenceIDInput struct {
	ID uuid.UUID `path:"id" doc:"Occurrence ID"`
}

type UpdateOccurrenceInput struct {
	ID   uuid.UUID `path:"id" doc:"Occurrence ID"`
	Body struct {
		Title            *string                  `json:"title,omitempty" minLength:"1" maxLength:"255"`
		Description      *string                  `json:"description,omitempty"`
		Type             *domain.OccurrenceType   `json:"occurrence_type,omitempty" enum:"NC_major,NC_minor,Improvement_Opportunity,Observation"`
		Priority         *domain.Priority         `json:"priority,omitempty" enum:"low,medium,high,critical"`
		Status           *domain.OccurrenceStatus `json:"status,omitempty" enum:"Open,In_Treatment,Awaiting_Verification,Cancelled" doc:"Use the close operation to close"`
		Responsible      *string                  `json:"responsible,omitempty"`
		DueDate          *time.Time               `json:"due_date,omitempty"`
		RootCause        *string                  `json:"root_cause,omitempty"`
		CorrectiveAction *string                  `json:"corrective_action,omitempty"`
	}
}

func RegisterOccurrenceRoutes(api huma.API, tracker Tracker) {
	huma.Register(api, huma.Operation{
		OperationID: "create-occurrence",
		Method:      http.MethodPost,
		Path:        "/audits/{id}/occurrences",
		Summary:     "Open an occurrence in an audit",
		Tags:        []string{"Occurrences"},
	}, func(ctx context.Context, input *CreateOccurrenceInput) (*OccurrenceOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		o, err := tracker.Create(ctx, c.TenantID, occurrence.CreateInput{
			AuditID:       input.ID,
			Type:          input.Body.Type,
			Title:         input.Body.Title,
			Description:   input.Body.Description,
			Priority:      input.Body.Priority,
			SessionID:     input.Body.SessionID,
			SessionItemID: input.Body.SessionItemID,
			ResponseID:    input.Body.ResponseID,
			Responsible:   input.Body.Responsible,
			DueDate:       input.Body.DueDate,
		}, c.ActorID)
		if err != nil {
			return nil, apiError("failed to create occurrence", err)
		}

		return &OccurrenceOutput{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-occurrences",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/occurrences",
		Summary:     "List the occurrences of an audit",
		Tags:        []string{"Occurrences"},
	}, func(ctx context.Context, input *ListOccurrencesInput) (*ListOccurrencesOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		list, err := tracker.List(ctx, c.TenantID, input.ID, domain.OccurrenceFilter{
			Status: domain.OccurrenceStatus(input.Status),
			Type:   domain.OccurrenceType(input.Type),
		})
		if err != nil {
			return nil, apiError("failed to list occurrences", err)
		}

		return &ListOccurrencesOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-occurrence",
		Method:      http.MethodGet,
		Path:        "/occurrences/{id}",
		Summary:     "Get an occurrence",
		Tags:        []string{"Occurrences"},
	}, func(ctx context.Context, input *OccurrenceIDInput) (*OccurrenceOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		o, err := tracker.Get(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("occurrence not found", err)
		}

		return &OccurrenceOutput{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-occurrence",
		Method:      http.MethodPatch,
		Path:        "/occurrences/{id}",
		Summary:     "Update an open occurrence",
		Tags:        []string{"Occurrences"},
	}, func(ctx context.Context, input *UpdateOccurrenceInput) (*OccurrenceOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		o, err := tracker.Update(ctx, c.TenantID, input.ID, occurrence.Patch{
			Title:            input.Body.Title,
			Description:      input.Body.Description,
			Type:             input.Body.Type,
			Priority:         input.Body.Priority,
			Status:           input.Body.Status,
			Responsible:      input.Body.Responsible,
			DueDate:          input.Body.DueDate,
			RootCause:        input.Body.RootCause,
			CorrectiveAction: input.Body.CorrectiveAction,
		}, c.ActorID)
		if err != nil {
			return nil, apiError("failed to update occurrence", err)
		}

		return &OccurrenceOutput{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-occurrence",
		Method:        http.MethodDelete,
		Path:          "/occurrences/{id}",
		Summary:       "Delete an occurrence",
		Tags:          []string{"Occurrences"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *OccurrenceIDInput) (*struct{}, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if err := tracker.Delete(ctx, c.TenantID, input.ID, c.ActorID); err != nil {
			return nil, apiError("failed to delete occurrence", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-occurrence",
		Method:      http.MethodPatch,
		Path:        "/occurrences/{id}/close",
		Summary:     "Close an occurrence; closing it again changes nothing",
		Tags:        []string{"Occurrences"},
	}, func(ctx context.Context, input *OccurrenceIDInput) (*OccurrenceOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		o, err := tracker.Close(ctx, c.TenantID, input.ID, c.ActorID)
		if err != nil {
			return nil, apiError("failed to close occurrence", err)
		}

		return &OccurrenceOutput{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reopen-occurrence",
		Method:      http.MethodPost,
		Path:        "/occurrences/{id}/reopen",
		Summary:     "Reopen a closed occurrence (admin)",
		Tags:        []string{"Occurrences"},
	}, func(ctx context.Context, input *OccurrenceIDInput) (*OccurrenceOutput, error) {
		c, err := adminFrom(ctx)
		if err != nil {
			return nil, err
		}

		o, err := tracker.Reopen(ctx, c.TenantID, input.ID, c.ActorID)
		if err != nil {
			return nil, apiError("failed to reopen occurrence", err)
		}

		return &OccurrenceOutput{Body: o}, nil
	})
}
