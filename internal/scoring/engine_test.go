package scoring_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/scoring"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// checklist builds scoring input over a Yes/Partially/No/N-A response type.
type checklist struct {
	rt      *domain.ResponseType
	yes     *domain.ResponseOption
	partial *domain.ResponseOption
	no      *domain.ResponseOption
	na      *domain.ResponseOption
	in      scoring.Input
	at      time.Time
}

func newChecklist() *checklist {
	rtID := uuid.New()
	c := &checklist{
		yes:     &domain.ResponseOption{ID: uuid.New(), ResponseTypeID: rtID, Label: "Yes", Weight: 1},
		partial: &domain.ResponseOption{ID: uuid.New(), ResponseTypeID: rtID, Label: "Partially", Weight: 0.5},
		no:      &domain.ResponseOption{ID: uuid.New(), ResponseTypeID: rtID, Label: "No", Weight: 0},
		na:      &domain.ResponseOption{ID: uuid.New(), ResponseTypeID: rtID, Label: "N/A", Weight: 0, Conformity: domain.ConformityNA},
		at:      fixedNow.Add(-time.Hour),
	}
	c.rt = &domain.ResponseType{ID: rtID, Name: "Yes/No", Options: []*domain.ResponseOption{c.yes, c.partial, c.no, c.na}}
	c.in = scoring.Input{
		AuditID:       uuid.New(),
		ResponseTypes: []*domain.ResponseType{c.rt},
		Config:        domain.DefaultScoringConfig(),
	}
	return c
}

// item adds a session item; a nil option leaves it unanswered.
func (c *checklist) item(weight float64, opt *domain.ResponseOption) *domain.SessionItem {
	it := &domain.SessionItem{
		ID:       uuid.New(),
		AuditID:  c.in.AuditID,
		Snapshot: domain.ItemSnapshot{Title: "item", Weight: weight, ResponseTypeID: c.rt.ID},
	}
	c.in.Items = append(c.in.Items, it)
	if opt != nil {
		c.at = c.at.Add(time.Second)
		id := opt.ID
		c.in.Responses = append(c.in.Responses, &domain.Response{
			ID:            uuid.New(),
			AuditID:       c.in.AuditID,
			SessionItemID: it.ID,
			OptionID:      &id,
			RespondedAt:   c.at,
		})
	}
	return it
}

func (c *checklist) items(n int, opt *domain.ResponseOption) {
	for range n {
		c.item(1, opt)
	}
}

func (c *checklist) occurrence(typ domain.OccurrenceType, status domain.OccurrenceStatus) {
	c.in.Occurrences = append(c.in.Occurrences, &domain.Occurrence{
		ID:      uuid.New(),
		AuditID: c.in.AuditID,
		Type:    typ,
		Status:  status,
	})
}

func calculate(t *testing.T, in scoring.Input) *domain.ScoringResult {
	t.Helper()

	res, err := scoring.NewEngineWithClock(func() time.Time { return fixedNow }).Calculate(in)
	require.NoError(t, err)
	return res
}

// ---------------------------------------------------------------------------
// Simple method
// ---------------------------------------------------------------------------

// tenItems is 7 conforming, 2 non-conforming and 1 N/A.
func tenItems() *checklist {
	c := newChecklist()
	c.in.Config.Method = domain.ScoringSimple
	c.in.Config.PassingScore = 70
	c.items(7, c.yes)
	c.items(2, c.no)
	c.items(1, c.na)
	return c
}

func TestCalculate_Simple_ExcludesNA(t *testing.T) {
	t.Parallel()

	c := tenItems()
	res := calculate(t, c.in)

	assert.Equal(t, 10, res.TotalItems)
	assert.Equal(t, 10, res.RespondedItems)
	assert.Equal(t, 7, res.ConformingItems)
	assert.Equal(t, 2, res.NonConformingItems)
	assert.Equal(t, 1, res.NAItems)
	assert.InDelta(t, 7.0, res.TotalScore, 1e-9)
	assert.InDelta(t, 9.0, res.MaxPossibleScore, 1e-9)
	assert.InDelta(t, 77.78, res.BasePercentage, 1e-9)
	assert.InDelta(t, 77.78, res.Percentage, 1e-9)
	assert.Equal(t, domain.ScorePassed, res.Status)
	require.NotNil(t, res.Grade)
	assert.Equal(t, "C", res.Grade.Label)
	assert.Equal(t, fixedNow, res.CalculatedAt)
	assert.Equal(t, c.in.AuditID, res.AuditID)
}

func TestCalculate_Simple_IncludesNA(t *testing.T) {
	t.Parallel()

	c := tenItems()
	c.in.Config.IncludeNAInTotal = true
	res := calculate(t, c.in)

	assert.InDelta(t, 10.0, res.MaxPossibleScore, 1e-9)
	assert.InDelta(t, 70.0, res.Percentage, 1e-9)
	assert.Equal(t, domain.ScorePassed, res.Status)
}

func TestCalculate_MajorNonConformity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		margin float64
		want   domain.ScoreStatus
	}{
		{"within conditional margin", 10, domain.ScoreConditional},
		{"no conditional margin", 0, domain.ScoreFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := tenItems()
			c.in.Config.NCMajorPenalty = 10
			c.in.Config.ConditionalMargin = tt.margin
			c.occurrence(domain.OccurrenceNCMajor, domain.OccurrenceStatusOpen)

			res := calculate(t, c.in)

			assert.Equal(t, 1, res.NCMajorCount)
			assert.InDelta(t, 10.0, res.PenaltyPoints, 1e-9)
			assert.InDelta(t, 77.78, res.BasePercentage, 1e-9)
			assert.InDelta(t, 67.78, res.Percentage, 1e-9)
			assert.Equal(t, tt.want, res.Status)
			require.NotNil(t, res.Grade)
			assert.Equal(t, "D", res.Grade.Label)
		})
	}
}

// ---------------------------------------------------------------------------
// Weighted and percentage methods
// ---------------------------------------------------------------------------

func TestCalculate_Weighted(t *testing.T) {
	t.Parallel()

	c := newChecklist()
	c.item(2, c.yes)
	c.item(1, c.partial)
	c.item(1, c.no)

	res := calculate(t, c.in)

	assert.Equal(t, domain.ScoringWeighted, res.Method)
	assert.InDelta(t, 2.5, res.TotalScore, 1e-9)
	assert.InDelta(t, 4.0, res.MaxPossibleScore, 1e-9)
	assert.InDelta(t, 62.5, res.Percentage, 1e-9)
	assert.Equal(t, 1, res.ConformingItems)
	assert.Equal(t, 1, res.PartialItems)
	assert.Equal(t, 1, res.NonConformingItems)
	assert.Equal(t, domain.ScoreConditional, res.Status)
}

func TestCalculate_Weighted_NAHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		includeNA bool
		wantMax   float64
		wantPct   float64
	}{
		{"N/A counted against the score", false, 3, 66.67},
		{"N/A removed from the denominator", true, 2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newChecklist()
			c.in.Config.IncludeNAInTotal = tt.includeNA
			c.item(2, c.yes)
			c.item(1, c.na)

			res := calculate(t, c.in)

			assert.Equal(t, 1, res.NAItems)
			assert.InDelta(t, 2.0, res.TotalScore, 1e-9)
			assert.InDelta(t, tt.wantMax, res.MaxPossibleScore, 1e-9)
			assert.InDelta(t, tt.wantPct, res.Percentage, 1e-9)
		})
	}
}

func TestCalculate_Percentage(t *testing.T) {
	t.Parallel()

	c := newChecklist()
	c.in.Config.Method = domain.ScoringPercentage
	c.items(3, c.yes)
	c.items(1, c.no)

	res := calculate(t, c.in)

	assert.InDelta(t, 75.0, res.TotalScore, 1e-9)
	assert.InDelta(t, 100.0, res.MaxPossibleScore, 1e-9)
	assert.InDelta(t, 75.0, res.Percentage, 1e-9)
	assert.Equal(t, domain.ScorePassed, res.Status)
}

// ---------------------------------------------------------------------------
// Occurrences, clamping and edge cases
// ---------------------------------------------------------------------------

func TestCalculate_NoResponses(t *testing.T) {
	t.Parallel()

	c := newChecklist()
	c.items(4, nil)
	c.in.Config.OpportunityBonus = 5
	c.occurrence(domain.OccurrenceOpportunity, domain.OccurrenceStatusOpen)

	res := calculate(t, c.in)

	assert.Equal(t, 4, res.TotalItems)
	assert.Zero(t, res.RespondedItems)
	assert.Zero(t, res.Percentage)
	assert.Nil(t, res.Grade)
	assert.Equal(t, domain.ScoreFailed, res.Status)
}

func TestCalculate_EmptyAudit(t *testing.T) {
	t.Parallel()

	res := calculate(t, newChecklist().in)

	assert.Zero(t, res.TotalItems)
	assert.Zero(t, res.Percentage)
	assert.Nil(t, res.Grade)
	assert.Equal(t, domain.ScoreFailed, res.Status)
}

func TestCalculate_Clamping(t *testing.T) {
	t.Parallel()

	t.Run("penalties floor at zero", func(t *testing.T) {
		t.Parallel()

		c := newChecklist()
		c.items(1, c.yes)
		c.items(1, c.no)
		c.in.Config.NCMajorPenalty = 40
		c.occurrence(domain.OccurrenceNCMajor, domain.OccurrenceStatusOpen)
		c.occurrence(domain.OccurrenceNCMajor, domain.OccurrenceStatusInTreatment)

		res := calculate(t, c.in)
		assert.InDelta(t, 80.0, res.PenaltyPoints, 1e-9)
		assert.Zero(t, res.Percentage)
		assert.Equal(t, domain.ScoreFailed, res.Status)
		assert.Nil(t, res.Grade)
	})

	t.Run("bonus caps at 100", func(t *testing.T) {
		t.Parallel()

		c := newChecklist()
		c.items(2, c.yes)
		c.in.Config.OpportunityBonus = 15
		c.occurrence(domain.OccurrenceOpportunity, domain.OccurrenceStatusOpen)

		res := calculate(t, c.in)
		assert.InDelta(t, 15.0, res.BonusPoints, 1e-9)
		assert.InDelta(t, 100.0, res.Percentage, 1e-9)
		require.NotNil(t, res.Grade)
		assert.Equal(t, "A", res.Grade.Label)
	})
}

func TestCalculate_CancelledOccurrencesIgnored(t *testing.T) {
	t.Parallel()

	c := newChecklist()
	c.items(4, c.yes)
	c.in.Config.NCMajorPenalty = 10
	c.in.Config.NCMinorPenalty = 5
	c.occurrence(domain.OccurrenceNCMajor, domain.OccurrenceStatusCancelled)
	c.occurrence(domain.OccurrenceNCMinor, domain.OccurrenceStatusClosed)

	res := calculate(t, c.in)

	assert.Zero(t, res.NCMajorCount)
	assert.Equal(t, 1, res.NCMinorCount)
	assert.InDelta(t, 95.0, res.Percentage, 1e-9)
}

func TestCalculate_PenaltyScaledToMaxScore(t *testing.T) {
	t.Parallel()

	c := newChecklist()
	c.items(4, c.yes)
	c.in.Config.MaxScore = 10
	c.in.Config.PassingScore = 7
	c.in.Config.NCMinorPenalty = 1
	c.occurrence(domain.OccurrenceNCMinor, domain.OccurrenceStatusOpen)

	res := calculate(t, c.in)

	assert.InDelta(t, 10.0, res.PenaltyPoints, 1e-9)
	assert.InDelta(t, 90.0, res.Percentage, 1e-9)
	assert.Equal(t, domain.ScorePassed, res.Status)
}

func TestCalculate_IgnoresUnknownAndEmptyOptions(t *testing.T) {
	t.Parallel()

	c := newChecklist()
	c.items(1, c.yes)

	stray := c.item(1, nil)
	unknown := uuid.New()
	c.in.Responses = append(c.in.Responses,
		&domain.Response{SessionItemID: stray.ID, OptionID: &unknown, RespondedAt: fixedNow},
	)
	blank := c.item(1, nil)
	c.in.Responses = append(c.in.Responses,
		&domain.Response{SessionItemID: blank.ID, RespondedAt: fixedNow},
	)

	res := calculate(t, c.in)

	assert.Equal(t, 3, res.TotalItems)
	assert.Equal(t, 1, res.RespondedItems)
	assert.InDelta(t, 100.0, res.Percentage, 1e-9)
}

func TestCalculate_UsesNewestResponsePerItem(t *testing.T) {
	t.Parallel()

	c := newChecklist()
	it := c.item(1, c.no)

	yes := c.yes.ID
	c.in.Responses = append(c.in.Responses, &domain.Response{
		SessionItemID: it.ID,
		OptionID:      &yes,
		RespondedAt:   c.at.Add(time.Minute),
	})

	res := calculate(t, c.in)
	assert.Equal(t, 1, res.ConformingItems)
	assert.InDelta(t, 100.0, res.Percentage, 1e-9)
}

func TestCalculate_Deterministic(t *testing.T) {
	t.Parallel()

	c := tenItems()
	c.in.Config.NCMinorPenalty = 3
	c.occurrence(domain.OccurrenceNCMinor, domain.OccurrenceStatusOpen)

	first := calculate(t, c.in)
	second := calculate(t, c.in)
	assert.Equal(t, first, second)
}

func TestCalculate_InvalidConfig(t *testing.T) {
	t.Parallel()

	c := newChecklist()
	c.in.Config.MaxScore = 0

	_, err := scoring.NewEngine().Calculate(c.in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---------------------------------------------------------------------------
// Classification, grades and status thresholds
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  domain.ResponseOption
		best float64
		want domain.Conformity
	}{
		{"best weight", domain.ResponseOption{Weight: 1}, 1, domain.ConformityConforming},
		{"zero weight", domain.ResponseOption{Weight: 0}, 1, domain.ConformityNonConforming},
		{"between", domain.ResponseOption{Weight: 0.4}, 1, domain.ConformityPartial},
		{"all zero type", domain.ResponseOption{Weight: 0}, 0, domain.ConformityNonConforming},
		{"explicit tag wins", domain.ResponseOption{Weight: 1, Conformity: domain.ConformityPartial}, 1, domain.ConformityPartial},
		{"explicit N/A", domain.ResponseOption{Weight: 0, Conformity: domain.ConformityNA}, 1, domain.ConformityNA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, scoring.Classify(&tt.opt, tt.best))
		})
	}
}

func TestGradeFor(t *testing.T) {
	t.Parallel()

	// Deliberately unsorted.
	bands := []domain.GradeBand{
		{MinPercentage: 60, Label: "D"},
		{MinPercentage: 90, Label: "A"},
		{MinPercentage: 75, Label: "B"},
	}

	tests := []struct {
		pct  float64
		want string
	}{
		{100, "A"},
		{90, "A"},
		{89.99, "B"},
		{75, "B"},
		{60, "D"},
		{59.99, ""},
	}

	for _, tt := range tests {
		got := scoring.GradeFor(bands, tt.pct)
		if tt.want == "" {
			assert.Nil(t, got, "pct %v", tt.pct)
			continue
		}
		require.NotNil(t, got, "pct %v", tt.pct)
		assert.Equal(t, tt.want, got.Label, "pct %v", tt.pct)
	}

	assert.Nil(t, scoring.GradeFor(nil, 100))
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	cfg := domain.DefaultScoringConfig()
	cfg.PassingScore = 70
	cfg.ConditionalMargin = 10

	assert.Equal(t, domain.ScorePassed, scoring.StatusFor(&cfg, 70))
	assert.Equal(t, domain.ScoreConditional, scoring.StatusFor(&cfg, 69.99))
	assert.Equal(t, domain.ScoreConditional, scoring.StatusFor(&cfg, 60))
	assert.Equal(t, domain.ScoreFailed, scoring.StatusFor(&cfg, 59.99))

	cfg.ConditionalMargin = 0
	assert.Equal(t, domain.ScoreFailed, scoring.StatusFor(&cfg, 69.99))
}
