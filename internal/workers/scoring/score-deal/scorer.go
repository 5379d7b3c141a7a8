// internal/workers/scoring/score-deal/scorer.go
package scoredeal

import (
	"math"

	"dealflow-workers/internal/models"
)

// Tier thresholds are fixed; the same A/B/C vocabulary is used by the
// upstream triage step, so these must not drift.
const (
	tierAThreshold = 70.0
	tierBThreshold = 40.0
)

// ScoreResult is the scorer's immutable output.
type ScoreResult struct {
	Tier       string
	Score      float64
	Confidence float64
	Breakdown  map[string]float64
	Components models.ComponentScores
}

// Score combines component scores with a weight set into a 0-100 score and
// tier. Missing components count as 0 for the arithmetic; the division by
// total weight tolerates weight sets that are not perfectly normalized.
func Score(components models.ComponentScores, ws models.WeightSet) *ScoreResult {
	totalWeight := ws.TotalWeight()

	var weightedSum float64
	contributions := make(map[string]float64, len(models.Factors))
	nonZero := 0

	for _, factor := range models.Factors {
		c := components[factor]
		if c != 0 {
			nonZero++
		}
		contribution := c * ws.Weights[factor]
		contributions[factor] = contribution
		weightedSum += contribution
	}

	var score float64
	if totalWeight > 0 {
		score = weightedSum / totalWeight * 100
	}

	breakdown := make(map[string]float64, len(models.Factors))
	for factor, contribution := range contributions {
		if weightedSum > 0 {
			breakdown[factor] = contribution / weightedSum * 100
		} else {
			breakdown[factor] = 0
		}
	}

	return &ScoreResult{
		Tier:       tierFor(score),
		Score:      score,
		Confidence: math.Round(float64(nonZero)/float64(len(models.Factors))*100) / 100,
		Breakdown:  breakdown,
		Components: components,
	}
}

func tierFor(score float64) string {
	switch {
	case score >= tierAThreshold:
		return models.TierA
	case score >= tierBThreshold:
		return models.TierB
	default:
		return models.TierC
	}
}
