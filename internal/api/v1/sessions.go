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

type CreateSessionInput struct {
	ID   uuid.UUID `path:"id" doc:"Audit ID"`
	Body struct {
		Name         string     `json:"name" minLength:"1" maxLength:"255" doc:"Session name"`
		Description  string     `json:"description,omitempty"`
		DisplayOrder int        `json:"display_order,omitempty" minimum:"0" doc:"Position; 0 appends"`
		ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	}
}

type SessionOutput struct {
	Body *domain.Session
}

type ListSessionsOutput struct {
	Body []*domain.Session
}

type SessionPathInput struct {
	ID        uuid.UUID `path:"id" doc:"Audit ID"`
	SessionID uuid.UUID `path:"sid" doc:"Session ID"`
}

type TransitionSessionInput struct {
	ID        uuid.UUID `path:"id" doc:"Audit ID"`
	SessionID uuid.UUID `path:"sid" doc:"Session ID"`
	Body      struct {
		Status domain.SessionStatus `json:"status" enum:"pending,in_progress,completed" doc:"Target status"`
	}
}

type AssignItemsInput struct {
	ID        uuid.UUID `path:"id" doc:"Audit ID"`
	SessionID uuid.UUID `path:"sid" doc:"Session ID"`
	Body      struct {
		StandardItemIDs []uuid.UUID `json:"standard_item_ids" minItems:"1" doc:"Standard items to snapshot into the session"`
	}
}

type ListSessionItemsOutput struct {
	Body []*domain.SessionItem
}

type SessionItemPathInput struct {
	ID        uuid.UUID `path:"id" doc:"Audit ID"`
	SessionID uuid.UUID `path:"sid" doc:"Session ID"`
	ItemID    uuid.UUID `path:"iid" doc:"Session item ID"`
}

type SessionItemOutput struct {
	Body *domain.SessionItem
}

func RegisterSessionRoutes(api huma.API, planner Planner) {
	huma.Register(api, huma.Operation{
		OperationID: "create-session",
		Method:      http.MethodPost,
		Path:        "/audits/{id}/sessions",
		Summary:     "Add a session to an audit",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		s, err := planner.CreateSession(ctx, c.TenantID, planning.SessionInput{
			AuditID:      input.ID,
			Name:         input.Body.Name,
			Description:  input.Body.Description,
			DisplayOrder: input.Body.DisplayOrder,
			ScheduledAt:  input.Body.ScheduledAt,
		}, c.ActorID)
		if err != nil {
			return nil, apiError("failed to create session", err)
		}

		return &SessionOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/sessions",
		Summary:     "List the sessions of an audit",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *AuditIDInput) (*ListSessionsOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		list, err := planner.ListSessions(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("failed to list sessions", err)
		}

		return &ListSessionsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/sessions/{sid}",
		Summary:     "Get a session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *SessionPathInput) (*SessionOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		s, err := planner.GetSession(ctx, c.TenantID, input.ID, input.SessionID)
		if err != nil {
			return nil, apiError("session not found", err)
		}

		return &SessionOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-session",
		Method:        http.MethodDelete,
		Path:          "/audits/{id}/sessions/{sid}",
		Summary:       "Delete a session with its items and responses",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *SessionPathInput) (*struct{}, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		if err := planner.DeleteSession(ctx, c.TenantID, input.ID, input.SessionID); err != nil {
			return nil, apiError("failed to delete session", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-session",
		Method:      http.MethodPatch,
		Path:        "/audits/{id}/sessions/{sid}/status",
		Summary:     "Move a session to a new status",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *TransitionSessionInput) (*SessionOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		s, err := planner.TransitionSession(ctx, c.TenantID, input.ID, input.SessionID, input.Body.Status, c.ActorID)
		if err != nil {
			return nil, apiError("failed to transition session", err)
		}

		return &SessionOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-session-items",
		Method:      http.MethodPost,
		Path:        "/audits/{id}/sessions/{sid}/items",
		Summary:     "Snapshot standard items into a session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *AssignItemsInput) (*ListSessionItemsOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		items, err := planner.AssignItems(ctx, c.TenantID, input.ID, input.SessionID, input.Body.StandardItemIDs, c.ActorID)
		if err != nil {
			return nil, apiError("failed to assign items", err)
		}

		return &ListSessionItemsOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-session-items",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/sessions/{sid}/items",
		Summary:     "List the items of a session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *SessionPathInput) (*ListSessionItemsOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		items, err := planner.ListItems(ctx, c.TenantID, input.ID, input.SessionID)
		if err != nil {
			return nil, apiError("failed to list session items", err)
		}

		return &ListSessionItemsOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session-item",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/sessions/{sid}/items/{iid}",
		Summary:     "Get a session item",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *SessionItemPathInput) (*SessionItemOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		item, err := planner.GetItem(ctx, c.TenantID, input.ID, input.SessionID, input.ItemID)
		if err != nil {
			return nil, apiError("session item not found", err)
		}

		return &SessionItemOutput{Body: item}, nil
	})
}
