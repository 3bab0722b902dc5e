// Package scoring turns checklist responses and occurrences into a
// ScoringResult and persists it on explicit recalculation.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

// Input is everything a calculation reads. The engine never loads data on
// its own.
type Input struct {
	AuditID       uuid.UUID
	Items         []*domain.SessionItem
	Responses     []*domain.Response
	ResponseTypes []*domain.ResponseType
	Occurrences   []*domain.Occurrence
	Config        domain.ScoringConfig
}

// Engine is a pure calculator. Only CalculatedAt depends on the clock.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates an Engine that stamps results with now().
func NewEngineWithClock(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Calculate scores in. It fails only on an invalid configuration; empty
// input yields a zeroed, failed result.
func (e *Engine) Calculate(in Input) (*domain.ScoringResult, error) {
	cfg := in.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring.Calculate: %w", err)
	}

	res := &domain.ScoringResult{
		AuditID:    in.AuditID,
		Method:     cfg.Method,
		TotalItems: len(in.Items),
	}

	types := make(map[uuid.UUID]*domain.ResponseType, len(in.ResponseTypes))
	for _, rt := range in.ResponseTypes {
		types[rt.ID] = rt
	}
	byItem := latestResponses(in.Responses)

	var earned, possible float64
	for _, item := range in.Items {
		r, ok := byItem[item.ID]
		if !ok || r.OptionID == nil {
			continue
		}
		rt, ok := types[item.Snapshot.ResponseTypeID]
		if !ok {
			continue
		}
		opt, ok := rt.Option(*r.OptionID)
		if !ok {
			continue
		}

		best := rt.BestWeight()
		weight := item.Snapshot.Weight
		res.RespondedItems++

		switch Classify(opt, best) {
		case domain.ConformityConforming:
			res.ConformingItems++
		case domain.ConformityNonConforming:
			res.NonConformingItems++
		case domain.ConformityPartial:
			res.PartialItems++
		case domain.ConformityNA:
			res.NAItems++
			if !cfg.IncludeNAInTotal {
				possible += weight * best
			}
			continue
		}

		earned += weight * opt.Weight
		possible += weight * best
	}

	eligible := res.TotalItems
	if !cfg.IncludeNAInTotal {
		eligible -= res.NAItems
	}

	var base float64
	switch cfg.Method {
	case domain.ScoringWeighted:
		base = ratio(earned, possible)
		res.TotalScore = round2(earned)
		res.MaxPossibleScore = round2(possible)
	case domain.ScoringSimple:
		base = ratio(float64(res.ConformingItems), float64(eligible))
		res.TotalScore = float64(res.ConformingItems)
		res.MaxPossibleScore = float64(eligible)
	case domain.ScoringPercentage:
		base = ratio(float64(res.ConformingItems), float64(eligible))
		res.TotalScore = round2(base)
		res.MaxPossibleScore = 100
	}

	for _, o := range in.Occurrences {
		if o.Status == domain.OccurrenceStatusCancelled {
			continue
		}
		switch o.Type {
		case domain.OccurrenceNCMajor:
			res.NCMajorCount++
		case domain.OccurrenceNCMinor:
			res.NCMinorCount++
		case domain.OccurrenceObservation:
			res.ObservationCount++
		case domain.OccurrenceOpportunity:
			res.OpportunityCount++
		}
	}

	// Penalty and bonus are authored on the MaxScore scale.
	scale := 100 / cfg.MaxScore
	penalty := (float64(res.NCMajorCount)*cfg.NCMajorPenalty +
		float64(res.NCMinorCount)*cfg.NCMinorPenalty +
		float64(res.ObservationCount)*cfg.ObservationPenalty) * scale
	bonus := float64(res.OpportunityCount) * cfg.OpportunityBonus * scale

	res.BasePercentage = round2(clamp(base, 0, 100))
	res.PenaltyPoints = round2(penalty)
	res.BonusPoints = round2(bonus)
	res.CalculatedAt = e.now()

	if res.RespondedItems == 0 {
		res.Percentage = 0
		res.Grade = nil
		res.Status = domain.ScoreFailed
		return res, nil
	}

	res.Percentage = round2(clamp(base-penalty+bonus, 0, 100))
	res.Grade = GradeFor(cfg.GradeBands, res.Percentage)
	res.Status = StatusFor(&cfg, res.Percentage)

	return res, nil
}

// Classify maps an option to a conformity class. An explicit tag wins;
// otherwise the weight is compared against the best weight of its type.
func Classify(opt *domain.ResponseOption, best float64) domain.Conformity {
	if opt.Conformity.Valid() {
		return opt.Conformity
	}
	switch {
	case best > 0 && opt.Weight >= best:
		return domain.ConformityConforming
	case opt.Weight <= 0:
		return domain.ConformityNonConforming
	default:
		return domain.ConformityPartial
	}
}

// GradeFor picks the highest band whose minimum is at or below pct.
func GradeFor(bands []domain.GradeBand, pct float64) *domain.GradeBand {
	sorted := make([]domain.GradeBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinPercentage > sorted[j].MinPercentage
	})
	for _, b := range sorted {
		if b.MinPercentage <= pct {
			band := b
			return &band
		}
	}
	return nil
}

// StatusFor applies the pass/conditional/fail thresholds to pct.
func StatusFor(cfg *domain.ScoringConfig, pct float64) domain.ScoreStatus {
	passing := cfg.PassingPercentage()
	switch {
	case pct >= passing:
		return domain.ScorePassed
	case pct >= passing-cfg.ConditionalMargin:
		return domain.ScoreConditional
	default:
		return domain.ScoreFailed
	}
}

// latestResponses indexes responses by item, keeping the newest when the
// caller passes more than one for the same item.
func latestResponses(responses []*domain.Response) map[uuid.UUID]*domain.Response {
	out := make(map[uuid.UUID]*domain.Response, len(responses))
	for _, r := range responses {
		if cur, ok := out[r.SessionItemID]; ok && cur.RespondedAt.After(r.RespondedAt) {
			continue
		}
		out[r.SessionItemID] = r
	}
	return out
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
