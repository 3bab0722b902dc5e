package domain

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

type ScoringMethod string

const (
	ScoringWeighted   ScoringMethod = "weighted"
	ScoringSimple     ScoringMethod = "simple"
	ScoringPercentage ScoringMethod = "percentage"
)

func (m ScoringMethod) Valid() bool {
	switch m {
	case ScoringWeighted, ScoringSimple, ScoringPercentage:
		return true
	default:
		return false
	}
}

type ScoreStatus string

const (
	ScorePassed      ScoreStatus = "passed"
	ScoreConditional ScoreStatus = "conditional"
	ScoreFailed      ScoreStatus = "failed"
)

// GradeBand maps a minimum percentage to a qualitative label.
type GradeBand struct {
	MinPercentage float64 `json:"min_percentage"`
	Label         string  `json:"label"`
	Color         string  `json:"color,omitempty"`
}

// ScoringConfig is the per-audit scoring policy. Penalties and the bonus are
// authored on the MaxScore scale; ConditionalMargin is in percentage points
// below the passing percentage.
type ScoringConfig struct {
	AuditID            uuid.UUID     `json:"audit_id"`
	Method             ScoringMethod `json:"scoring_method"`
	NCMajorPenalty     float64       `json:"nc_major_penalty"`
	NCMinorPenalty     float64       `json:"nc_minor_penalty"`
	ObservationPenalty float64       `json:"observation_penalty"`
	OpportunityBonus   float64       `json:"opportunity_bonus"`
	IncludeNAInTotal   bool          `json:"include_na_in_total"`
	MaxScore           float64       `json:"max_score"`
	PassingScore       float64       `json:"passing_score"`
	ConditionalMargin  float64       `json:"conditional_margin"`
	GradeBands         []GradeBand   `json:"grade_bands"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// DefaultGradeBands returns the bands used when an audit configures none.
func DefaultGradeBands() []GradeBand {
	return []GradeBand{
		{MinPercentage: 90, Label: "A", Color: "#16a34a"},
		{MinPercentage: 80, Label: "B", Color: "#65a30d"},
		{MinPercentage: 70, Label: "C", Color: "#ca8a04"},
		{MinPercentage: 60, Label: "D", Color: "#ea580c"},
	}
}

// DefaultScoringConfig returns the built-in policy for audits that have no
// stored configuration.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Method:             ScoringWeighted,
		NCMajorPenalty:     10,
		NCMinorPenalty:     5,
		ObservationPenalty: 0,
		OpportunityBonus:   0,
		IncludeNAInTotal:   false,
		MaxScore:           100,
		PassingScore:       70,
		ConditionalMargin:  10,
		GradeBands:         DefaultGradeBands(),
	}
}

// Validate range-checks every field. It returns a *ValidationError naming the
// first offending field.
func (c *ScoringConfig) Validate() error {
	if !c.Method.Valid() {
		return Invalid("scoring_method", "unknown method %q", c.Method)
	}
	if !finite(c.MaxScore) || c.MaxScore <= 0 {
		return Invalid("max_score", "must be greater than 0, got %v", c.MaxScore)
	}
	if !finite(c.PassingScore) || c.PassingScore < 0 || c.PassingScore > c.MaxScore {
		return Invalid("passing_score", "must be within [0, %v], got %v", c.MaxScore, c.PassingScore)
	}
	for _, p := range []struct {
		field string
		v     float64
	}{
		{"nc_major_penalty", c.NCMajorPenalty},
		{"nc_minor_penalty", c.NCMinorPenalty},
		{"observation_penalty", c.ObservationPenalty},
		{"opportunity_bonus", c.OpportunityBonus},
	} {
		if !finite(p.v) || p.v < 0 {
			return Invalid(p.field, "must be a non-negative number, got %v", p.v)
		}
	}
	if !finite(c.ConditionalMargin) || c.ConditionalMargin < 0 || c.ConditionalMargin > 100 {
		return Invalid("conditional_margin", "must be within [0, 100], got %v", c.ConditionalMargin)
	}
	seen := make(map[float64]struct{}, len(c.GradeBands))
	for _, b := range c.GradeBands {
		if b.Label == "" {
			return Invalid("grade_bands", "label is required")
		}
		if !finite(b.MinPercentage) || b.MinPercentage < 0 || b.MinPercentage > 100 {
			return Invalid("grade_bands", "min_percentage of %q must be within [0, 100]", b.Label)
		}
		if _, dup := seen[b.MinPercentage]; dup {
			return Invalid("grade_bands", "duplicate min_percentage %v", b.MinPercentage)
		}
		seen[b.MinPercentage] = struct{}{}
	}
	return nil
}

// PassingPercentage expresses PassingScore on the 0-100 scale.
func (c *ScoringConfig) PassingPercentage() float64 {
	return c.PassingScore / c.MaxScore * 100
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ScoringResult is a derived snapshot. It is replaced as a whole on every
// recalculation and never edited by users.
type ScoringResult struct {
	AuditID            uuid.UUID     `json:"audit_id"`
	Method             ScoringMethod `json:"scoring_method"`
	TotalScore         float64       `json:"total_score"`
	MaxPossibleScore   float64       `json:"max_possible_score"`
	BasePercentage     float64       `json:"base_percentage"`
	PenaltyPoints      float64       `json:"penalty_points"`
	BonusPoints        float64       `json:"bonus_points"`
	Percentage         float64       `json:"percentage"`
	ConformingItems    int           `json:"conforming_items"`
	NonConformingItems int           `json:"non_conforming_items"`
	PartialItems       int           `json:"partial_items"`
	NAItems            int           `json:"na_items"`
	RespondedItems     int           `json:"responded_items"`
	TotalItems         int           `json:"total_items"`
	NCMajorCount       int           `json:"nc_major_count"`
	NCMinorCount       int           `json:"nc_minor_count"`
	ObservationCount   int           `json:"observation_count"`
	OpportunityCount   int           `json:"opportunity_count"`
	Grade              *GradeBand    `json:"grade"`
	Status             ScoreStatus   `json:"status"`
	CalculatedAt       time.Time     `json:"calculated_at"`
}

type ScoringRepository interface {
	GetConfig(ctx context.Context, tenantID, auditID uuid.UUID) (*ScoringConfig, error)
	SaveConfig(ctx context.Context, tenantID uuid.UUID, cfg *ScoringConfig) error
	GetResult(ctx context.Context, tenantID, auditID uuid.UUID) (*ScoringResult, error)
	// SaveResult replaces the stored result for the audit.
	SaveResult(ctx context.Context, tenantID uuid.UUID, res *ScoringResult) error
}
