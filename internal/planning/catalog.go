package planning

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type StandardInput struct {
	Code        string
	Name        string
	Version     string
	Description string
}

func (p *Planner) CreateStandard(ctx context.Context, tenantID uuid.UUID, in StandardInput) (*domain.Standard, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" {
		return nil, fmt.Errorf("planning.CreateStandard: %w", domain.Invalid("code", "is required"))
	}
	if in.Name == "" {
		return nil, fmt.Errorf("planning.CreateStandard: %w", domain.Invalid("name", "is required"))
	}

	s := &domain.Standard{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Code:        in.Code,
		Name:        in.Name,
		Version:     in.Version,
		Description: in.Description,
		CreatedAt:   p.now(),
	}
	if err := p.standards.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("planning.CreateStandard: %w", err)
	}
	return s, nil
}

func (p *Planner) GetStandard(ctx context.Context, tenantID, id uuid.UUID) (*domain.Standard, error) {
	s, err := p.standards.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("planning.GetStandard: %w", err)
	}
	return s, nil
}

func (p *Planner) ListStandards(ctx context.Context, tenantID uuid.UUID) ([]*domain.Standard, error) {
	list, err := p.standards.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("planning.ListStandards: %w", err)
	}
	return list, nil
}

type StandardItemInput struct {
	Title          string
	Description    string
	Guidance       string
	Weight         float64
	ResponseTypeID uuid.UUID
	DisplayOrder   int // 0 appends after the last item
}

func (p *Planner) AddStandardItem(ctx context.Context, tenantID, standardID uuid.UUID, in StandardItemInput) (*domain.StandardItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("planning.AddStandardItem: %w", domain.Invalid("title", "is required"))
	}
	if math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) || in.Weight <= 0 {
		return nil, fmt.Errorf("planning.AddStandardItem: %w", domain.Invalid("weight", "must be greater than 0, got %v", in.Weight))
	}
	if in.DisplayOrder < 0 {
		return nil, fmt.Errorf("planning.AddStandardItem: %w", domain.Invalid("display_order", "must not be negative"))
	}

	if _, err := p.standards.GetByID(ctx, tenantID, standardID); err != nil {
		return nil, fmt.Errorf("planning.AddStandardItem: %w", err)
	}
	if _, err := p.responseTypes.GetByID(ctx, tenantID, in.ResponseTypeID); err != nil {
		return nil, fmt.Errorf("planning.AddStandardItem: response type: %w", err)
	}

	order := in.DisplayOrder
	if order == 0 {
		existing, err := p.standards.ListItems(ctx, tenantID, standardID)
		if err != nil {
			return nil, fmt.Errorf("planning.AddStandardItem: %w", err)
		}
		for _, it := range existing {
			if it.DisplayOrder > order {
				order = it.DisplayOrder
			}
		}
		order++
	}

	item := &domain.StandardItem{
		ID:             uuid.New(),
		TenantID:       tenantID,
		StandardID:     standardID,
		Title:          in.Title,
		Description:    in.Description,
		Guidance:       in.Guidance,
		Weight:         in.Weight,
		ResponseTypeID: in.ResponseTypeID,
		DisplayOrder:   order,
		CreatedAt:      p.now(),
	}
	if err := p.standards.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("planning.AddStandardItem: %w", err)
	}
	return item, nil
}

func (p *Planner) ListStandardItems(ctx context.Context, tenantID, standardID uuid.UUID) ([]*domain.StandardItem, error) {
	if _, err := p.standards.GetByID(ctx, tenantID, standardID); err != nil {
		return nil, fmt.Errorf("planning.ListStandardItems: %w", err)
	}
	list, err := p.standards.ListItems(ctx, tenantID, standardID)
	if err != nil {
		return nil, fmt.Errorf("planning.ListStandardItems: %w", err)
	}
	return list, nil
}

type OptionInput struct {
	Label              string
	Weight             float64
	Conformity         domain.Conformity
	TriggersOccurrence bool
	OccurrenceType     domain.OccurrenceType
}

// CreateResponseType stores a catalog of answer options. Options keep the
// order they were given in.
func (p *Planner) CreateResponseType(ctx context.Context, tenantID uuid.UUID, name string, options []OptionInput) (*domain.ResponseType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("planning.CreateResponseType: %w", domain.Invalid("name", "is required"))
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("planning.CreateResponseType: %w", domain.Invalid("options", "at least one option is required"))
	}

	rt := &domain.ResponseType{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Options:   make([]*domain.ResponseOption, 0, len(options)),
		CreatedAt: p.now(),
	}
	for i, in := range options {
		opt, err := newOption(rt.ID, i+1, in)
		if err != nil {
			return nil, fmt.Errorf("planning.CreateResponseType: %w", err)
		}
		rt.Options = append(rt.Options, opt)
	}

	if err := p.responseTypes.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("planning.CreateResponseType: %w", err)
	}
	return rt, nil
}

func newOption(typeID uuid.UUID, order int, in OptionInput) (*domain.ResponseOption, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, domain.Invalid("options", "option %d: label is required", order)
	}
	if math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) || in.Weight < 0 {
		return nil, domain.Invalid("options", "option %q: weight must be a non-negative number", label)
	}
	if in.Conformity != "" && !in.Conformity.Valid() {
		return nil, domain.Invalid("options", "option %q: unknown conformity %q", label, in.Conformity)
	}
	if in.OccurrenceType != "" && !in.OccurrenceType.Valid() {
		return nil, domain.Invalid("options", "option %q: unknown occurrence type %q", label, in.OccurrenceType)
	}

	typ := in.OccurrenceType
	if in.TriggersOccurrence && typ == "" {
		typ = domain.OccurrenceNCMinor
	}

	return &domain.ResponseOption{
		ID:                 uuid.New(),
		ResponseTypeID:     typeID,
		Label:              label,
		Weight:             in.Weight,
		Conformity:         in.Conformity,
		TriggersOccurrence: in.TriggersOccurrence,
		OccurrenceType:     typ,
		DisplayOrder:       order,
	}, nil
}

func (p *Planner) GetResponseType(ctx context.Context, tenantID, id uuid.UUID) (*domain.ResponseType, error) {
	rt, err := p.responseTypes.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("planning.GetResponseType: %w", err)
	}
	return rt, nil
}

func (p *Planner) ListResponseTypes(ctx context.Context, tenantID uuid.UUID) ([]*domain.ResponseType, error) {
	list, err := p.responseTypes.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("planning.ListResponseTypes: %w", err)
	}
	return list, nil
}
