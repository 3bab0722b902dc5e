package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/events"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/planning"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/report"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/scoring"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/store/memory"
)

const actor = "auditor-1"

type env struct {
	store      *memory.Store
	scorer     *scoring.Scorer
	aggregator *report.Aggregator
	tenantID   uuid.UUID
	audit      *domain.Audit
	sessions   []*domain.Session
	items      []*domain.SessionItem // all items of the first session
	yes        uuid.UUID
}

// newEnv plans an audit with two sessions: the first holds three items, the
// second none.
func newEnv(t *testing.T, ctx context.Context) *env {
	t.Helper()

	store := memory.New()
	journal := events.NewJournal(store.Activity(), nil)
	planner := planning.NewPlanner(store.Audits(), store.Sessions(), store.SessionItems(),
		store.Standards(), store.ResponseTypes(), journal)

	e := &env{store: store, tenantID: uuid.New()}
	e.scorer = scoring.NewScorer(scoring.NewEngine(),
		store.Audits(), store.SessionItems(), store.Responses(), store.ResponseTypes(),
		store.Occurrences(), store.Scoring(), journal, domain.DefaultScoringConfig())
	e.aggregator = report.NewAggregator(store.Audits(), store.Sessions(), store.SessionItems(),
		store.Responses(), store.Occurrences(), store.Scoring(), e.scorer)

	rt, err := planner.CreateResponseType(ctx, e.tenantID, "Yes/No", []planning.OptionInput{
		{Label: "Yes", Weight: 1},
		{Label: "No", Weight: 0},
	})
	require.NoError(t, err)
	e.yes = rt.Options[0].ID

	st, err := planner.CreateStandard(ctx, e.tenantID, planning.StandardInput{Code: "ISO-14001", Name: "EMS"})
	require.NoError(t, err)
	var ids []uuid.UUID
	for range 3 {
		src, err := planner.AddStandardItem(ctx, e.tenantID, st.ID, planning.StandardItemInput{
			Title: "Requirement", Weight: 1, ResponseTypeID: rt.ID,
		})
		require.NoError(t, err)
		ids = append(ids, src.ID)
	}

	e.audit, err = planner.CreateAudit(ctx, e.tenantID, planning.AuditInput{Title: "Plant audit"}, actor)
	require.NoError(t, err)
	require.NoError(t, planner.LinkStandard(ctx, e.tenantID, e.audit.ID, st.ID))

	for _, name := range []string{"Opening", "Closing"} {
		s, err := planner.CreateSession(ctx, e.tenantID, planning.SessionInput{AuditID: e.audit.ID, Name: name}, actor)
		require.NoError(t, err)
		e.sessions = append(e.sessions, s)
	}
	e.items, err = planner.AssignItems(ctx, e.tenantID, e.audit.ID, e.sessions[0].ID, ids, actor)
	require.NoError(t, err)

	return e
}

func (e *env) answer(t *testing.T, ctx context.Context, item *domain.SessionItem, at time.Time) {
	t.Helper()

	opt := e.yes
	_, err := e.store.Responses().Upsert(ctx, &domain.Response{
		ID:            uuid.New(),
		TenantID:      e.tenantID,
		AuditID:       e.audit.ID,
		SessionItemID: item.ID,
		OptionID:      &opt,
		RespondedAt:   at,
		CreatedAt:     at,
		UpdatedAt:     at,
	})
	require.NoError(t, err)
}

func TestBuild_Progress(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	past := time.Now().Add(-time.Minute)
	e.answer(t, ctx, e.items[0], past)
	e.answer(t, ctx, e.items[1], past)

	rep, err := e.aggregator.Build(ctx, e.tenantID, e.audit.ID, report.Options{})
	require.NoError(t, err)

	assert.Equal(t, e.audit.ID, rep.AuditID)
	assert.Equal(t, "Plant audit", rep.Audit.Title)
	require.Len(t, rep.Standards, 1)
	require.Len(t, rep.Sessions, 2)

	opening := rep.Sessions[0]
	assert.Equal(t, "Opening", opening.Session.Name)
	assert.Equal(t, 3, opening.TotalItems)
	assert.Equal(t, 2, opening.RespondedItems)
	assert.InDelta(t, 66.67, opening.Progress, 1e-9)

	closing := rep.Sessions[1]
	assert.Zero(t, closing.TotalItems)
	assert.Zero(t, closing.Progress)

	assert.Nil(t, rep.Scoring)
	assert.True(t, rep.ScoreStale, "never calculated")
	assert.False(t, rep.GeneratedAt.IsZero())
}

func TestBuild_StaleAfterChange(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	e.answer(t, ctx, e.items[0], time.Now().Add(-time.Minute))
	_, err := e.scorer.Recalculate(ctx, e.tenantID, e.audit.ID, actor)
	require.NoError(t, err)

	rep, err := e.aggregator.Build(ctx, e.tenantID, e.audit.ID, report.Options{})
	require.NoError(t, err)
	require.NotNil(t, rep.Scoring)
	assert.False(t, rep.ScoreStale)

	// A response saved after the calculation makes the stored score stale.
	e.answer(t, ctx, e.items[1], time.Now().Add(time.Minute))

	rep, err = e.aggregator.Build(ctx, e.tenantID, e.audit.ID, report.Options{})
	require.NoError(t, err)
	assert.True(t, rep.ScoreStale)
	assert.Equal(t, 1, rep.Scoring.RespondedItems, "stored result is not recomputed")
}

func TestBuild_StaleAfterRemoval(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name   string
		change func(t *testing.T, ctx context.Context, e *env, occurrenceID uuid.UUID)
	}{
		{
			name: "occurrence_deleted",
			change: func(t *testing.T, ctx context.Context, e *env, occurrenceID uuid.UUID) {
				require.NoError(t, e.store.Occurrences().Delete(ctx, e.tenantID, occurrenceID))
			},
		},
		{
			name: "session_deleted",
			change: func(t *testing.T, ctx context.Context, e *env, _ uuid.UUID) {
				require.NoError(t, e.store.Sessions().Delete(ctx, e.tenantID, e.sessions[0].ID))
			},
		},
		{
			name: "config_saved",
			change: func(t *testing.T, ctx context.Context, e *env, _ uuid.UUID) {
				cfg := domain.DefaultScoringConfig()
				cfg.AuditID = e.audit.ID
				cfg.Method = domain.ScoringSimple
				cfg.PassingScore = 100
				require.NoError(t, e.scorer.SaveConfig(ctx, e.tenantID, &cfg, actor))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := t.Context()
			e := newEnv(t, ctx)

			e.answer(t, ctx, e.items[0], past)
			o := &domain.Occurrence{
				ID:        uuid.New(),
				TenantID:  e.tenantID,
				AuditID:   e.audit.ID,
				Type:      domain.OccurrenceNCMajor,
				Status:    domain.OccurrenceStatusOpen,
				Title:     "No spill kit",
				CreatedAt: past,
				UpdatedAt: past,
			}
			require.NoError(t, e.store.Occurrences().Create(ctx, o))

			res, err := e.scorer.Recalculate(ctx, e.tenantID, e.audit.ID, actor)
			require.NoError(t, err)
			require.Equal(t, 1, res.NCMajorCount)

			rep, err := e.aggregator.Build(ctx, e.tenantID, e.audit.ID, report.Options{})
			require.NoError(t, err)
			require.False(t, rep.ScoreStale)

			tt.change(t, ctx, e, o.ID)

			rep, err = e.aggregator.Build(ctx, e.tenantID, e.audit.ID, report.Options{})
			require.NoError(t, err)
			require.NotNil(t, rep.Scoring)
			assert.True(t, rep.ScoreStale)
		})
	}
}

func TestBuild_Fresh(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	past := time.Now().Add(-time.Minute)
	for _, it := range e.items {
		e.answer(t, ctx, it, past)
	}

	rep, err := e.aggregator.Build(ctx, e.tenantID, e.audit.ID, report.Options{Fresh: true, ActorID: actor})
	require.NoError(t, err)
	require.NotNil(t, rep.Scoring)
	assert.False(t, rep.ScoreStale)
	assert.InDelta(t, 100.0, rep.Scoring.Percentage, 1e-9)
	assert.Equal(t, domain.ScorePassed, rep.Scoring.Status)
}

func TestBuild_IncludesOccurrences(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	require.NoError(t, e.store.Occurrences().Create(ctx, &domain.Occurrence{
		ID:        uuid.New(),
		TenantID:  e.tenantID,
		AuditID:   e.audit.ID,
		Type:      domain.OccurrenceObservation,
		Status:    domain.OccurrenceStatusOpen,
		Title:     "Housekeeping",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}))

	rep, err := e.aggregator.Build(ctx, e.tenantID, e.audit.ID, report.Options{})
	require.NoError(t, err)
	require.Len(t, rep.Occurrences, 1)
	assert.Equal(t, 1, rep.Occurrences[0].Number)
}

func TestBuild_UnknownAudit(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	_, err := e.aggregator.Build(ctx, uuid.New(), e.audit.ID, report.Options{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// failingScorer lets the fresh path fail without touching the store.
type failingScorer struct{}

func (failingScorer) Recalculate(context.Context, uuid.UUID, uuid.UUID, string) (*domain.ScoringResult, error) {
	return nil, errors.New("scorer unavailable")
}

func TestBuild_FreshPropagatesScorerError(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	e := newEnv(t, ctx)

	agg := report.NewAggregator(e.store.Audits(), e.store.Sessions(), e.store.SessionItems(),
		e.store.Responses(), e.store.Occurrences(), e.store.Scoring(), failingScorer{})

	_, err := agg.Build(ctx, e.tenantID, e.audit.ID, report.Options{Fresh: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scorer unavailable")
}
