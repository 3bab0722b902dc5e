package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/planning"
)

type CreateStandardInput struct {
	Body struct {
		Code        string `json:"code" minLength:"1" maxLength:"64" doc:"Short code, unique per tenant (e.g. ISO14001)"`
		Name        string `json:"name" minLength:"1" maxLength:"255" doc:"Standard name"`
		Version     string `json:"version,omitempty" maxLength:"64" doc:"Edition or revision"`
		Description string `json:"description,omitempty" doc:"Free text description"`
	}
}

type StandardOutput struct {
	Body *domain.Standard
}

type ListStandardsOutput struct {
	Body []*domain.Standard
}

type StandardIDInput struct {
	ID uuid.UUID `path:"id" doc:"Standard ID"`
}

type AddStandardItemInput struct {
	ID   uuid.UUID `path:"id" doc:"Standard ID"`
	Body struct {
		Title          string    `json:"title" minLength:"1" doc:"Checklist question"`
		Description    string    `json:"description,omitempty"`
		Guidance       string    `json:"guidance,omitempty" doc:"Hint shown to the auditor"`
		Weight         float64   `json:"weight" minimum:"0" doc:"Relative weight for weighted scoring"`
		ResponseTypeID uuid.UUID `json:"response_type_id" doc:"Response type offered for this item"`
		DisplayOrder   int       `json:"display_order,omitempty" minimum:"0" doc:"Position; 0 appends"`
	}
}

type StandardItemOutput struct {
	Body *domain.StandardItem
}

type ListStandardItemsOutput struct {
	Body []*domain.StandardItem
}

type ResponseOptionBody struct {
	Label              string                `json:"label" minLength:"1"`
	Weight             float64               `json:"weight" doc:"Points awarded when selected"`
	Conformity         domain.Conformity     `json:"conformity,omitempty" enum:"conforming,non_conforming,partial,na" doc:"Explicit classification; derived from weight when empty"`
	TriggersOccurrence bool                  `json:"triggers_occurrence,omitempty" doc:"Selecting this option opens an occurrence"`
	OccurrenceType     domain.OccurrenceType `json:"occurrence_type,omitempty" enum:"NC_major,NC_minor,Improvement_Opportunity,Observation"`
}

type CreateResponseTypeInput struct {
	Body struct {
		Name    string               `json:"name" minLength:"1" maxLength:"255"`
		Options []ResponseOptionBody `json:"options" minItems:"1"`
	}
}

type ResponseTypeOutput struct {
	Body *domain.ResponseType
}

type ListResponseTypesOutput struct {
	Body []*domain.ResponseType
}

type ResponseTypeIDInput struct {
	ID uuid.UUID `path:"id" doc:"Response type ID"`
}

// RegisterCatalogRoutes mounts the standards and response type catalog.
// Catalog writes are reserved for admins.
func RegisterCatalogRoutes(api huma.API, planner Planner) {
	huma.Register(api, huma.Operation{
		OperationID: "create-standard",
		Method:      http.MethodPost,
		Path:        "/standards",
		Summary:     "Create a standard",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *CreateStandardInput) (*StandardOutput, error) {
		c, err := adminFrom(ctx)
		if err != nil {
			return nil, err
		}

		s, err := planner.CreateStandard(ctx, c.TenantID, planning.StandardInput{
			Code:        input.Body.Code,
			Name:        input.Body.Name,
			Version:     input.Body.Version,
			Description: input.Body.Description,
		})
		if err != nil {
			return nil, apiError("failed to create standard", err)
		}

		return &StandardOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-standards",
		Method:      http.MethodGet,
		Path:        "/standards",
		Summary:     "List standards",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListStandardsOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		list, err := planner.ListStandards(ctx, c.TenantID)
		if err != nil {
			return nil, apiError("failed to list standards", err)
		}

		return &ListStandardsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-standard",
		Method:      http.MethodGet,
		Path:        "/standards/{id}",
		Summary:     "Get a standard",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *StandardIDInput) (*StandardOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		s, err := planner.GetStandard(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("standard not found", err)
		}

		return &StandardOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-standard-item",
		Method:      http.MethodPost,
		Path:        "/standards/{id}/items",
		Summary:     "Add a checklist item to a standard",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *AddStandardItemInput) (*StandardItemOutput, error) {
		c, err := adminFrom(ctx)
		if err != nil {
			return nil, err
		}

		item, err := planner.AddStandardItem(ctx, c.TenantID, input.ID, planning.StandardItemInput{
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			Guidance:       input.Body.Guidance,
			Weight:         input.Body.Weight,
			ResponseTypeID: input.Body.ResponseTypeID,
			DisplayOrder:   input.Body.DisplayOrder,
		})
		if err != nil {
			return nil, apiError("failed to add standard item", err)
		}

		return &StandardItemOutput{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-standard-items",
		Method:      http.MethodGet,
		Path:        "/standards/{id}/items",
		Summary:     "List the checklist items of a standard",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *StandardIDInput) (*ListStandardItemsOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		items, err := planner.ListStandardItems(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("failed to list standard items", err)
		}

		return &ListStandardItemsOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-response-type",
		Method:      http.MethodPost,
		Path:        "/response-types",
		Summary:     "Create a response type",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *CreateResponseTypeInput) (*ResponseTypeOutput, error) {
		c, err := adminFrom(ctx)
		if err != nil {
			return nil, err
		}

		options := make([]planning.OptionInput, 0, len(input.Body.Options))
		for _, o := range input.Body.Options {
			options = append(options, planning.OptionInput{
				Label:              o.Label,
				Weight:             o.Weight,
				Conformity:         o.Conformity,
				TriggersOccurrence: o.TriggersOccurrence,
				OccurrenceType:     o.OccurrenceType,
			})
		}

		rt, err := planner.CreateResponseType(ctx, c.TenantID, input.Body.Name, options)
		if err != nil {
			return nil, apiError("failed to create response type", err)
		}

		return &ResponseTypeOutput{Body: rt}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-response-types",
		Method:      http.MethodGet,
		Path:        "/response-types",
		Summary:     "List response types",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListResponseTypesOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		list, err := planner.ListResponseTypes(ctx, c.TenantID)
		if err != nil {
			return nil, apiError("failed to list response types", err)
		}

		return &ListResponseTypesOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-response-type",
		Method:      http.MethodGet,
		Path:        "/response-types/{id}",
		Summary:     "Get a response type",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *ResponseTypeIDInput) (*ResponseTypeOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		rt, err := planner.GetResponseType(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("response type not found", err)
		}

		return &ResponseTypeOutput{Body: rt}, nil
	})
}
