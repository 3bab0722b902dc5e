package v1_test

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/events"
)

// ---------------------------------------------------------------------------
// TestCreateAudit
// ---------------------------------------------------------------------------

func TestCreateAudit(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t)
		tenantID := uuid.New()

		resp := api.PostCtx(auditorCtx(tenantID), "/audits", map[string]any{
			"title":        "Supplier audit",
			"scope":        "Warehouse",
			"lead_auditor": "j.silva",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		body := decode[domain.Audit](t, resp)
		assert.NotEqual(t, uuid.Nil, body.ID)
		assert.Equal(t, tenantID, body.TenantID)
		assert.Equal(t, domain.AuditStatusPlanned, body.Status)
		assert.Equal(t, "Warehouse", body.Scope)

		list := api.GetCtx(viewerCtx(tenantID), "/audits")
		require.Equal(t, http.StatusOK, list.Code)
		assert.Len(t, decode[[]*domain.Audit](t, list), 1)
	})

	t.Run("dates_out_of_order", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t)

		resp := api.PostCtx(auditorCtx(uuid.New()), "/audits", map[string]any{
			"title":      "Supplier audit",
			"start_date": "2026-05-10T00:00:00Z",
			"end_date":   "2026-05-01T00:00:00Z",
		})
		require.Equal(t, http.StatusBadRequest, resp.Code)

		body := decode[huma.ErrorModel](t, resp)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "end_date", body.Errors[0].Location)
	})

	t.Run("missing_title", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t)

		resp := api.PostCtx(auditorCtx(uuid.New()), "/audits", map[string]any{
			"scope": "Warehouse",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("viewer_forbidden", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t)

		resp := api.PostCtx(viewerCtx(uuid.New()), "/audits", map[string]any{"title": "Supplier audit"})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("missing_tenant", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t)

		resp := api.Post("/audits", map[string]any{"title": "Supplier audit"})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestGetAudit
// ---------------------------------------------------------------------------

func TestGetAudit(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		api, svc := newTestAPI(t)
		f := seedAudit(t, svc)

		resp := api.GetCtx(viewerCtx(f.tenantID), f.auditPath(""))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "Plant audit", decode[domain.Audit](t, resp).Title)
	})

	t.Run("other_tenant", func(t *testing.T) {
		t.Parallel()

		api, svc := newTestAPI(t)
		f := seedAudit(t, svc)

		resp := api.GetCtx(adminCtx(uuid.New()), f.auditPath(""))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestUpdateAudit
// ---------------------------------------------------------------------------

func TestUpdateAudit(t *testing.T) {
	t.Parallel()

	api, svc := newTestAPI(t)
	f := seedAudit(t, svc)

	resp := api.PatchCtx(auditorCtx(f.tenantID), f.auditPath(""), map[string]any{
		"title": "Plant audit 2026",
		"scope": "Boiler house",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[domain.Audit](t, resp)
	assert.Equal(t, "Plant audit 2026", body.Title)
	assert.Equal(t, "Boiler house", body.Scope)
}

// ---------------------------------------------------------------------------
// TestTransitionAudit
// ---------------------------------------------------------------------------

func TestTransitionAudit(t *testing.T) {
	t.Parallel()

	t.Run("start", func(t *testing.T) {
		t.Parallel()

		api, svc := newTestAPI(t)
		f := seedAudit(t, svc)

		resp := api.PatchCtx(auditorCtx(f.tenantID), f.auditPath("/status"), map[string]any{"status": "in_progress"})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, domain.AuditStatusInProgress, decode[domain.Audit](t, resp).Status)
	})

	t.Run("skipping_a_step", func(t *testing.T) {
		t.Parallel()

		api, svc := newTestAPI(t)
		f := seedAudit(t, svc)

		resp := api.PatchCtx(auditorCtx(f.tenantID), f.auditPath("/status"), map[string]any{"status": "completed"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("unknown_audit", func(t *testing.T) {
		t.Parallel()

		api, _ := newTestAPI(t)

		resp := api.PatchCtx(auditorCtx(uuid.New()), "/audits/"+uuid.NewString()+"/status", map[string]any{"status": "cancelled"})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestDeleteAudit
// ---------------------------------------------------------------------------

func TestDeleteAudit(t *testing.T) {
	t.Parallel()

	t.Run("admin", func(t *testing.T) {
		t.Parallel()

		api, svc := newTestAPI(t)
		f := seedAudit(t, svc)

		resp := api.DeleteCtx(adminCtx(f.tenantID), f.auditPath(""))
		require.Equal(t, http.StatusNoContent, resp.Code)

		get := api.GetCtx(adminCtx(f.tenantID), f.auditPath(""))
		assert.Equal(t, http.StatusNotFound, get.Code)
	})

	t.Run("auditor_forbidden", func(t *testing.T) {
		t.Parallel()

		api, svc := newTestAPI(t)
		f := seedAudit(t, svc)

		resp := api.DeleteCtx(auditorCtx(f.tenantID), f.auditPath(""))
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestAuditStandards
// ---------------------------------------------------------------------------

func TestAuditStandards(t *testing.T) {
	t.Parallel()

	api, svc := newTestAPI(t)
	f := seedAudit(t, svc)

	// Linking again is a no-op.
	resp := api.PutCtx(auditorCtx(f.tenantID), f.auditPath("/standards/"+f.standard.ID.String()))
	require.Equal(t, http.StatusNoContent, resp.Code)

	list := api.GetCtx(viewerCtx(f.tenantID), f.auditPath("/standards"))
	require.Equal(t, http.StatusOK, list.Code)

	body := decode[[]*domain.Standard](t, list)
	require.Len(t, body, 1)
	assert.Equal(t, "ISO-14001", body[0].Code)

	missing := api.PutCtx(auditorCtx(f.tenantID), f.auditPath("/standards/"+uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

// ---------------------------------------------------------------------------
// TestListAuditActivity
// ---------------------------------------------------------------------------

func TestListAuditActivity(t *testing.T) {
	t.Parallel()

	api, svc := newTestAPI(t)
	f := seedAudit(t, svc)

	resp := api.PatchCtx(auditorCtx(f.tenantID), f.auditPath("/status"), map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.Code)

	list := api.GetCtx(viewerCtx(f.tenantID), f.auditPath("/activity?limit=1"))
	require.Equal(t, http.StatusOK, list.Code)

	body := decode[[]*domain.ActivityEntry](t, list)
	require.Len(t, body, 1)
	assert.Equal(t, events.AuditStatusChanged, body[0].Action)
	assert.Equal(t, "auditor-user", body[0].ActorID)
}
