package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/report"
)

type ScoringConfigOutput struct {
	Body *domain.ScoringConfig
}

// PutScoringConfigInput replaces the audit's policy. Omitted fields keep
// their current value, or the service default when none was stored.
type PutScoringConfigInput struct {
	ID   uuid.UUID `path:"id" doc:"Audit ID"`
	Body struct {
		Method             *domain.ScoringMethod `json:"scoring_method,omitempty" enum:"weighted,simple,percentage"`
		NCMajorPenalty     *float64              `json:"nc_major_penalty,omitempty" minimum:"0"`
		NCMinorPenalty     *float64              `json:"nc_minor_penalty,omitempty" minimum:"0"`
		ObservationPenalty *float64              `json:"observation_penalty,omitempty" minimum:"0"`
		OpportunityBonus   *float64              `json:"opportunity_bonus,omitempty" minimum:"0"`
		IncludeNAInTotal   *bool                 `json:"include_na_in_total,omitempty"`
		MaxScore           *float64              `json:"max_score,omitempty" exclusiveMinimum:"0"`
		PassingScore       *float64              `json:"passing_score,omitempty" minimum:"0"`
		ConditionalMargin  *float64              `json:"conditional_margin,omitempty" minimum:"0" maximum:"100" doc:"Percentage points below passing still graded conditional"`
		GradeBands         []domain.GradeBand    `json:"grade_bands,omitempty"`
	}
}

type ScoringResultOutput struct {
	Body *domain.ScoringResult
}

type GetReportInput struct {
	ID    uuid.UUID `path:"id" doc:"Audit ID"`
	Fresh bool      `query:"fresh" doc:"Recalculate the score before building the report"`
}

type ReportOutput struct {
	Body *domain.AuditReport
}

func RegisterScoringRoutes(api huma.API, scorer Scorer, reporter Reporter) {
	huma.Register(api, huma.Operation{
		OperationID: "get-scoring-config",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/scoring-config",
		Summary:     "Get the scoring policy of an audit",
		Tags:        []string{"Scoring"},
	}, func(ctx context.Context, input *AuditIDInput) (*ScoringConfigOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		cfg, err := scorer.Config(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("failed to load scoring config", err)
		}

		return &ScoringConfigOutput{Body: cfg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-scoring-config",
		Method:      http.MethodPut,
		Path:        "/audits/{id}/scoring-config",
		Summary:     "Replace the scoring policy of an audit",
		Tags:        []string{"Scoring"},
	}, func(ctx context.Context, input *PutScoringConfigInput) (*ScoringConfigOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		cfg, err := scorer.Config(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("failed to load scoring config", err)
		}

		b := input.Body
		cfg.AuditID = input.ID
		set(&cfg.Method, b.Method)
		set(&cfg.NCMajorPenalty, b.NCMajorPenalty)
		set(&cfg.NCMinorPenalty, b.NCMinorPenalty)
		set(&cfg.ObservationPenalty, b.ObservationPenalty)
		set(&cfg.OpportunityBonus, b.OpportunityBonus)
		set(&cfg.IncludeNAInTotal, b.IncludeNAInTotal)
		set(&cfg.MaxScore, b.MaxScore)
		set(&cfg.PassingScore, b.PassingScore)
		set(&cfg.ConditionalMargin, b.ConditionalMargin)
		if b.GradeBands != nil {
			cfg.GradeBands = b.GradeBands
		}

		if err := scorer.SaveConfig(ctx, c.TenantID, cfg, c.ActorID); err != nil {
			return nil, apiError("failed to save scoring config", err)
		}

		return &ScoringConfigOutput{Body: cfg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "recalculate-score",
		Method:      http.MethodPost,
		Path:        "/audits/{id}/score/recalculate",
		Summary:     "Recalculate and store the audit score",
		Tags:        []string{"Scoring"},
	}, func(ctx context.Context, input *AuditIDInput) (*ScoringResultOutput, error) {
		c, err := writerFrom(ctx)
		if err != nil {
			return nil, err
		}

		res, err := scorer.Recalculate(ctx, c.TenantID, input.ID, c.ActorID)
		if err != nil {
			return nil, apiError("failed to recalculate score", err)
		}

		return &ScoringResultOutput{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-score",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/score",
		Summary:     "Get the last calculated score",
		Tags:        []string{"Scoring"},
	}, func(ctx context.Context, input *AuditIDInput) (*ScoringResultOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}

		res, err := scorer.Latest(ctx, c.TenantID, input.ID)
		if err != nil {
			return nil, apiError("score not calculated", err)
		}

		return &ScoringResultOutput{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-report",
		Method:      http.MethodGet,
		Path:        "/audits/{id}/report",
		Summary:     "Build the audit report snapshot",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *GetReportInput) (*ReportOutput, error) {
		c, err := callerFrom(ctx)
		if err != nil {
			return nil, err
		}
		if input.Fresh && !writerRole(ctx) {
			return nil, huma.Error403Forbidden("insufficient permissions to recalculate")
		}

		rep, err := reporter.Build(ctx, c.TenantID, input.ID, report.Options{Fresh: input.Fresh, ActorID: c.ActorID})
		if err != nil {
			return nil, apiError("failed to build report", err)
		}

		return &ReportOutput{Body: rep}, nil
	})
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
