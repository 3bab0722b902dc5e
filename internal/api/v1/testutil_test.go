package v1_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	v1 "github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/api/v1"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/events"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/occurrence"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/planning"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/report"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/response"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/scoring"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/server/middleware"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/store/memory"
)

func roleCtx(tenantID uuid.UUID, role string) context.Context {
	ctx := context.WithValue(context.Background(), middleware.ContextKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyActorID, role+"-user")
	return context.WithValue(ctx, middleware.ContextKeyUserRole, role)
}

func adminCtx(tenantID uuid.UUID) context.Context {
	return roleCtx(tenantID, middleware.RoleAdmin)
}

func auditorCtx(tenantID uuid.UUID) context.Context {
	return roleCtx(tenantID, middleware.RoleAuditor)
}

func viewerCtx(tenantID uuid.UUID) context.Context {
	return roleCtx(tenantID, middleware.RoleViewer)
}

// services wires the real services over an in-memory store.
type services struct {
	store   *memory.Store
	planner *planning.Planner
	v1      v1.Services
}

func newServices() *services {
	store := memory.New()
	journal := events.NewJournal(store.Activity(), nil)

	planner := planning.NewPlanner(store.Audits(), store.Sessions(), store.SessionItems(),
		store.Standards(), store.ResponseTypes(), journal)
	tracker := occurrence.NewTracker(store.Audits(), store.Sessions(), store.SessionItems(),
		store.Responses(), store.Occurrences(), journal)
	recorder := response.NewRecorder(store.Audits(), store.SessionItems(), store.ResponseTypes(),
		store.Responses(), store.Occurrences(), tracker, journal)
	scorer := scoring.NewScorer(scoring.NewEngine(),
		store.Audits(), store.SessionItems(), store.Responses(), store.ResponseTypes(),
		store.Occurrences(), store.Scoring(), journal, domain.DefaultScoringConfig())
	aggregator := report.NewAggregator(store.Audits(), store.Sessions(), store.SessionItems(),
		store.Responses(), store.Occurrences(), store.Scoring(), scorer)

	return &services{
		store:   store,
		planner: planner,
		v1: v1.Services{
			Planner:  planner,
			Recorder: recorder,
			Tracker:  tracker,
			Scorer:   scorer,
			Reporter: aggregator,
			Activity: store.Activity(),
		},
	}
}

func newTestAPI(t *testing.T) (humatest.TestAPI, *services) {
	t.Helper()

	_, api := humatest.New(t)
	svc := newServices()
	v1.Register(api, svc.v1)
	return api, svc
}

// fixture is one planned audit with a single session holding two items.
// The "Major finding" option raises an NC_major occurrence.
type fixture struct {
	tenantID uuid.UUID
	audit    *domain.Audit
	standard *domain.Standard
	session  *domain.Session
	items    []*domain.SessionItem
	conforms uuid.UUID
	major    uuid.UUID
}

func seedAudit(t *testing.T, svc *services) *fixture {
	t.Helper()

	ctx := context.Background()
	f := &fixture{tenantID: uuid.New()}

	rt, err := svc.planner.CreateResponseType(ctx, f.tenantID, "Conformity", []planning.OptionInput{
		{Label: "Conforms", Weight: 1},
		{Label: "Major finding", Weight: 0, TriggersOccurrence: true, OccurrenceType: domain.OccurrenceNCMajor},
	})
	require.NoError(t, err)
	f.conforms, f.major = rt.Options[0].ID, rt.Options[1].ID

	f.standard, err = svc.planner.CreateStandard(ctx, f.tenantID, planning.StandardInput{Code: "ISO-14001", Name: "EMS"})
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, title := range []string{"Environmental policy", "Waste segregation"} {
		src, err := svc.planner.AddStandardItem(ctx, f.tenantID, f.standard.ID, planning.StandardItemInput{
			Title: title, Description: title + " evidence", Weight: 1, ResponseTypeID: rt.ID,
		})
		require.NoError(t, err)
		ids = append(ids, src.ID)
	}

	f.audit, err = svc.planner.CreateAudit(ctx, f.tenantID, planning.AuditInput{Title: "Plant audit"}, "seed")
	require.NoError(t, err)
	require.NoError(t, svc.planner.LinkStandard(ctx, f.tenantID, f.audit.ID, f.standard.ID))

	f.session, err = svc.planner.CreateSession(ctx, f.tenantID, planning.SessionInput{AuditID: f.audit.ID, Name: "Opening"}, "seed")
	require.NoError(t, err)
	f.items, err = svc.planner.AssignItems(ctx, f.tenantID, f.audit.ID, f.session.ID, ids, "seed")
	require.NoError(t, err)

	return f
}

func (f *fixture) auditPath(suffix string) string {
	return "/audits/" + f.audit.ID.String() + suffix
}

func (f *fixture) itemPath(i int, suffix string) string {
	return f.auditPath("/sessions/" + f.session.ID.String() + "/items/" + f.items[i].ID.String() + suffix)
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// mockReporter lets handler tests control report building.
type mockReporter struct {
	buildFunc func(ctx context.Context, tenantID, auditID uuid.UUID, opts report.Options) (*domain.AuditReport, error)
}

func (m *mockReporter) Build(ctx context.Context, tenantID, auditID uuid.UUID, opts report.Options) (*domain.AuditReport, error) {
	return m.buildFunc(ctx, tenantID, auditID, opts)
}
