// internal/workers/scoring/score-deal/models.go
package scoredeal

import "dealflow-workers/internal/models"

type Input struct {
	DealID string `json:"dealId"`
	Scope  string `json:"scope,omitempty"`

	// Deal inlines the record so callers can score without a prior persist.
	// When set, no database fetch happens.
	Deal *models.DealRecord `json:"deal,omitempty"`

	// Components bypasses extraction entirely when the caller already has
	// normalized factor scores.
	Components models.ComponentScores `json:"components,omitempty"`
}

type Output struct {
	DealID      string                 `json:"dealId,omitempty"`
	Tier        string                 `json:"tier"`
	Score       float64                `json:"score"`
	Confidence  float64                `json:"confidence"`
	Breakdown   map[string]float64     `json:"breakdown"`
	Components  models.ComponentScores `json:"components"`
	WeightSetID string                 `json:"weightSetId"`
}
