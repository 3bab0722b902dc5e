package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionProgress is one session with its completion ratio.
type SessionProgress struct {
	Session        *Session `json:"session"`
	TotalItems     int      `json:"total_items"`
	RespondedItems int      `json:"responded_items"`
	Progress       float64  `json:"progress"`
}

// AuditReport is the read-only snapshot consumed by export renderers.
type AuditReport struct {
	AuditID     uuid.UUID          `json:"audit_id"`
	Audit       *Audit             `json:"audit"`
	Standards   []*Standard        `json:"standards"`
	Sessions    []*SessionProgress `json:"sessions"`
	Scoring     *ScoringResult     `json:"scoring"`
	ScoreStale  bool               `json:"score_stale"`
	Occurrences []*Occurrence      `json:"occurrences"`
	GeneratedAt time.Time          `json:"generated_at"`
}
