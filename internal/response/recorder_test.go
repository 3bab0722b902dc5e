package response_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/events"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/occurrence"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/planning"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/response"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/store/memory"
)

const actor = "auditor-1"

type env struct {
	store    *memory.Store
	planner  *planning.Planner
	tracker  *occurrence.Tracker
	recorder *response.Recorder
	tenantID uuid.UUID
	audit    *domain.Audit
	session  *domain.Session
	items    []*domain.SessionItem
	yes      *domain.ResponseOption
	major    *domain.ResponseOption
}

func newEnv(t *testing.T, ctx context.Context) *env {
	t.Helper()

	store := memory.New()
	journal := events.NewJournal(store.Activity(), nil)
	e := &env{store: store, tenantID: uuid.New()}
	e.planner = planning.NewPlanner(store.Audits(), store.Sessions(), store.SessionItems(),
		store.Standards(), store.ResponseTypes(), journal)
	e.tracker = occurrence.NewTracker(store.Audits(), store.Sessions(), store.SessionItems(),
		store.Responses(), store.Occurrences(), journal)
	e.recorder = response.NewRecorder(store.Audits(), store.SessionItems(), store.ResponseTypes(),
		store.Responses(), store.Occurrences(), e.tracker, journal)

	rt, err := e.planner.CreateResponseType(ctx, e.tenantID, "Conformity", []planning.OptionInput{
		{Label: "Conforms", Weight: 1},
		{Label: "Major finding", Weight: 0, TriggersOccurrence: true, OccurrenceType: domain.OccurrenceNCMajor},
	})
	require.NoError(t, err)
	e.yes, e.major = rt.Options[0], rt.Options[1]

	st, err := e.planner.CreateStandard(ctx, e.tenantID, planning.StandardInput{Code: "ISO-14001", Name: "EMS"})
	require.NoError(t, err)

	var sourceIDs []uuid.UUID
	for _, title := range []string{"Environmental policy", "Waste segregation"} {
		src, err := e.planner.AddStandardItem(ctx, e.tenantID, st.ID, planning.StandardItemInput{
			Title: title, Description: title + " evidence", Weight: 1, ResponseTypeID: rt.ID,
		})
		require.NoError(t, err)
		sourceIDs = append(sourceIDs, src.ID)
	}

	e.audit, err = e.planner.CreateAudit(ctx, e.tenantID, planning.AuditInput{Title: "Plant audit"}, actor)
	require.NoError(t, err)
	require.NoError(t, e.planner.LinkStandard(ctx, e.tenantID, e.audit.ID, st.ID))

	e.session, err = e.planner.CreateSession(ctx, e.tenantID, planning.SessionInput{AuditID: e.audit.ID, Name: "Opening"}, actor)
	require.NoError(t, err)
	e.items, err = e.planner.AssignItems(ctx, e.tenantID, e.audit.ID, e.session.ID, sourceIDs, actor)
	require.NoError(t, err)

	return e
}

func (e *env) save(t *testing.T, ctx context.Context, itemID uuid.UUID, opt *domain.ResponseOption, justification string) *response.Result {
	t.Helper()

	in := response.SaveInput{SessionItemID: itemID, Justification: justification}
	if opt != nil {
		in.OptionID = &opt.ID
	}
	res, err := e.recorder.Save(ctx, e.tenantID, in, actor)
	require.NoError(t, err)
	return res
}

func TestSave_CreatesResponse(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	res, err := e.recorder.Save(ctx, e.tenantID, response.SaveInput{
		SessionItemID: e.items[0].ID,
		OptionID:      &e.yes.ID,
		Strengths:     "Policy signed by the board",
		AttachmentIDs: []string{"doc-1", "  ", "doc-2"},
	}, actor)
	require.NoError(t, err)
	require.NotNil(t, res.Response)
	assert.Nil(t, res.Occurrence)
	assert.Equal(t, e.audit.ID, res.Response.AuditID)
	assert.Equal(t, actor, res.Response.RespondedBy)
	assert.Equal(t, []string{"doc-1", "doc-2"}, res.Response.AttachmentIDs)

	got, err := e.recorder.Get(ctx, e.tenantID, e.items[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.OptionID)
	assert.Equal(t, e.yes.ID, *got.OptionID)
}

func TestSave_OverwritesInPlace(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	first := e.save(t, ctx, e.items[0].ID, e.yes, "first pass")
	second := e.save(t, ctx, e.items[0].ID, e.yes, "second pass")

	assert.Equal(t, first.Response.ID, second.Response.ID)
	assert.True(t, first.Response.CreatedAt.Equal(second.Response.CreatedAt))

	list, err := e.recorder.ListBySession(ctx, e.tenantID, e.session.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second pass", list[0].Justification)
}

func TestSave_WithoutOption(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	res := e.save(t, ctx, e.items[0].ID, nil, "to be checked on site")
	assert.Nil(t, res.Response.OptionID)
	assert.Nil(t, res.Occurrence)
}

func TestSave_TriggeringOptionRaisesOccurrence(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	res := e.save(t, ctx, e.items[1].ID, e.major, "Mixed waste in the yard")
	require.NotNil(t, res.Occurrence)

	o := res.Occurrence
	assert.Equal(t, domain.OccurrenceNCMajor, o.Type)
	assert.Equal(t, domain.OccurrenceStatusOpen, o.Status)
	assert.Equal(t, "Waste segregation", o.Title)
	assert.Equal(t, "Mixed waste in the yard", o.Description)
	require.NotNil(t, o.ResponseID)
	assert.Equal(t, res.Response.ID, *o.ResponseID)
	require.NotNil(t, o.SessionItemID)
	assert.Equal(t, e.items[1].ID, *o.SessionItemID)
	require.NotNil(t, o.SessionID)
	assert.Equal(t, e.session.ID, *o.SessionID)
}

func TestSave_DescriptionFallsBackToItem(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	res := e.save(t, ctx, e.items[1].ID, e.major, "")
	require.NotNil(t, res.Occurrence)
	assert.Equal(t, "Waste segregation evidence", res.Occurrence.Description)
}

func TestSave_NoDuplicateOccurrence(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	first := e.save(t, ctx, e.items[1].ID, e.major, "Mixed waste")
	require.NotNil(t, first.Occurrence)

	again := e.save(t, ctx, e.items[1].ID, e.major, "Still mixed")
	assert.Nil(t, again.Occurrence)

	list, err := e.tracker.List(ctx, e.tenantID, e.audit.ID, domain.OccurrenceFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSave_CancelledOccurrenceIsRaisedAgain(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	first := e.save(t, ctx, e.items[1].ID, e.major, "Mixed waste")
	require.NotNil(t, first.Occurrence)

	cancelled := domain.OccurrenceStatusCancelled
	_, err := e.tracker.Update(ctx, e.tenantID, first.Occurrence.ID, occurrence.Patch{Status: &cancelled}, actor)
	require.NoError(t, err)

	again := e.save(t, ctx, e.items[1].ID, e.major, "Mixed waste again")
	require.NotNil(t, again.Occurrence)
	assert.Equal(t, 2, again.Occurrence.Number)
}

func TestSave_Rejections(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	foreign := uuid.New()
	_, err := e.recorder.Save(ctx, e.tenantID, response.SaveInput{SessionItemID: e.items[0].ID, OptionID: &foreign}, actor)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "response_option_id", ve.Field)

	_, err = e.recorder.Save(ctx, e.tenantID, response.SaveInput{SessionItemID: uuid.New()}, actor)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.recorder.Save(ctx, uuid.New(), response.SaveInput{SessionItemID: e.items[0].ID}, actor)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSave_CancelledAudit(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	_, err := e.planner.TransitionAudit(ctx, e.tenantID, e.audit.ID, domain.AuditStatusCancelled, actor)
	require.NoError(t, err)

	_, err = e.recorder.Save(ctx, e.tenantID, response.SaveInput{SessionItemID: e.items[0].ID, OptionID: &e.yes.ID}, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSave_RecordsActivity(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	res := e.save(t, ctx, e.items[0].ID, e.yes, "")

	entries, err := e.store.Activity().ListByAudit(ctx, e.tenantID, e.audit.ID, 0, 0)
	require.NoError(t, err)

	var saved []*domain.ActivityEntry
	for _, en := range entries {
		if en.Action == events.ResponseSaved {
			saved = append(saved, en)
		}
	}
	require.Len(t, saved, 1)
	assert.Equal(t, res.Response.ID, saved[0].ResourceID)
	assert.Equal(t, actor, saved[0].ActorID)
}
