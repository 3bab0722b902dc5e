package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type StandardRepo struct {
	s *Store
}

func (r *StandardRepo) Create(_ context.Context, st *domain.Standard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, cur := range r.s.standards {
		if cur.TenantID == st.TenantID && cur.Code == st.Code {
			return fmt.Errorf("standardRepo.Create: code %q: %w", st.Code, domain.ErrConflict)
		}
	}
	c := *st
	r.s.standards[st.ID] = &c
	return nil
}

func (r *StandardRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Standard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.standards[id]
	if !ok || st.TenantID != tenantID {
		return nil, fmt.Errorf("standardRepo.GetByID: %w", domain.ErrNotFound)
	}
	c := *st
	return &c, nil
}

func (r *StandardRepo) List(_ context.Context, tenantID uuid.UUID) ([]*domain.Standard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Standard, 0)
	for _, st := range r.s.standards {
		if st.TenantID == tenantID {
			c := *st
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *StandardRepo) CreateItem(_ context.Context, item *domain.StandardItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.standards[item.StandardID]
	if !ok || st.TenantID != item.TenantID {
		return fmt.Errorf("standardRepo.CreateItem: %w", domain.ErrNotFound)
	}
	c := *item
	r.s.standardItems[item.ID] = &c
	return nil
}

func (r *StandardRepo) ListItems(_ context.Context, tenantID, standardID uuid.UUID) ([]*domain.StandardItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.StandardItem, 0)
	for _, it := range r.s.standardItems {
		if it.TenantID == tenantID && it.StandardID == standardID {
			c := *it
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

// GetItems returns the items that exist among ids; missing ids are skipped.
func (r *StandardRepo) GetItems(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*domain.StandardItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.StandardItem, 0, len(ids))
	for _, id := range ids {
		it, ok := r.s.standardItems[id]
		if !ok || it.TenantID != tenantID {
			continue
		}
		c := *it
		out = append(out, &c)
	}
	return out, nil
}

type ResponseTypeRepo struct {
	s *Store
}

func (r *ResponseTypeRepo) Create(_ context.Context, rt *domain.ResponseType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.responseTypes[rt.ID]; ok {
		return fmt.Errorf("responseTypeRepo.Create: %w", domain.ErrConflict)
	}
	r.s.responseTypes[rt.ID] = cloneResponseType(rt)
	return nil
}

func (r *ResponseTypeRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.ResponseType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rt, ok := r.s.responseTypes[id]
	if !ok || rt.TenantID != tenantID {
		return nil, fmt.Errorf("responseTypeRepo.GetByID: %w", domain.ErrNotFound)
	}
	return cloneResponseType(rt), nil
}

func (r *ResponseTypeRepo) List(_ context.Context, tenantID uuid.UUID) ([]*domain.ResponseType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.ResponseType, 0)
	for _, rt := range r.s.responseTypes {
		if rt.TenantID == tenantID {
			out = append(out, cloneResponseType(rt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ResponseTypeRepo) ListByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*domain.ResponseType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.ResponseType, 0, len(ids))
	for _, id := range ids {
		rt, ok := r.s.responseTypes[id]
		if ok && rt.TenantID == tenantID {
			out = append(out, cloneResponseType(rt))
		}
	}
	return out, nil
}
