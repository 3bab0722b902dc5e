package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/response"
)

type SaveResponseInput struct {
	ID        uuid.UUID `path:"id" doc:"Audit ID"`
	SessionID uuid.UUID `path:"sid" doc:"Session ID"`
	ItemID    uuid.UUID `path:"iid" doc:"Session item ID"`
	Body      struct {
		OptionID      *uuid.UUID `json:"response_option_id,omitempty" doc:"Selected option; omit to save notes only"`
		Justification string     `json:"justification,omitempty"`
		Strengths     string     `json:"strengths,omitempty"`
		Weaknesses    string     `json:"weaknesses,omitempty"`
		Observations  string     `json:"observations,omitempty"`
		AttachmentIDs []string   `json:"attachment_ids,omitempty" doc:"Opaque references to stored evidence"`
	}
}

type SaveResponseOutput struct {
	Body *response.Result
}

type ResponseOutput struct {
	Body *domain.Response
}

type ListResponsesOutput struct {
	Body []*domain.Response
}

// RegisterResponseRoutes mounts response capture. Item routes check that the
// item belongs to the session and audit in the path before touching it.
func RegisterResponseRoutes(api huma.API, planner Planner, recorder Recorder) {
	huma.Register(api, huma.Operation{
		OperationID: "save-response",
		Method:      http.MethodPost,
		Path:        "/audits/{id}/sessions/{sid}/items/{iid}/response",
		Summary:     "Create or overwrite the response of a session item",
		Tags:        []string{"Responses"},
	}, func(ctx context.Context, input *SaveResponseInput) (*SaveResponseOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := planner.GetItem(ctx, c.TenantID, input.ID, input.SessionID, input.ItemID); err != nil {
			return nil, apiError("session item not found", err)
		}

		res, err := recorder.Save(ctx, c.TenantID, response.SaveInput{
			SessionItemID: input.ItemID,
			OptionID:      input.Body.OptionID,
			Justification: input.Body.Justification,
			Strengths:     input.Body.Strengths,
			Weaknesses:    input.Body.Weaknesses,
			Observations:  input.Body.Observations,
			AttachmentIDs: input.Body.AttachmentIDs,
		}, c.ActorID)
		if err != nil {
			return nil, apiError("failed to save response", err)
		}

		return &SaveResponseOutput{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-response",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/sessions/{sid}/items/{iid}/response",
		Summary:     "Get the response of a session item",
		Tags:        []string{"Responses"},
	}, func(ctx context.Context, input *SessionItemPathInput) (*ResponseOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := planner.GetItem(ctx, c.TenantID, input.ID, input.SessionID, input.ItemID); err != nil {
			return nil, apiError("session item not found", err)
		}

		resp, err := recorder.Get(ctx, c.TenantID, input.ItemID)
		if err != nil {
			return nil, apiError("response not found", err)
		}

		return &ResponseOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-session-responses",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/sessions/{sid}/responses",
		Summary:     "List the responses recorded in a session",
		Tags:        []string{"Responses"},
	}, func(ctx context.Context, input *SessionPathInput) (*ListResponsesOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := planner.GetSession(ctx, c.TenantID, input.ID, input.SessionID); err != nil {
			return nil, apiError("session not found", err)
		}

		list, err := recorder.ListBySession(ctx, c.TenantID, input.SessionID)
		if err != nil {
			return nil, apiError("failed to list responses", err)
		}

		return &ListResponsesOutput{Body: list}, nil
	})
}
