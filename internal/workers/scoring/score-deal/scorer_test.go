// internal/workers/scoring/score-deal/scorer_test.go
package scoredeal

import (
	"testing"

	"dealflow-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// singleFactorWeights puts all weight on one factor so the raw score is
// exactly component x 100.
func singleFactorWeights(factor string) models.WeightSet {
	weights := map[string]float64{}
	for _, f := range models.Factors {
		weights[f] = 0
	}
	weights[factor] = 1
	return models.WeightSet{ID: "test", Scope: "global", Weights: weights, IsActive: true}
}

func TestScore_TierBoundaries(t *testing.T) {
	ws := singleFactorWeights(models.FactorFinancialQuality)

	tests := []struct {
		component float64
		wantScore float64
		wantTier  string
	}{
		{0.70, 70.0, "A"},
		{0.69999, 69.999, "B"},
		{0.40, 40.0, "B"},
		{0.39999, 39.999, "C"},
		{1.0, 100.0, "A"},
		{0.0, 0.0, "C"},
	}

	for _, tt := range tests {
		result := Score(models.ComponentScores{models.FactorFinancialQuality: tt.component}, ws)
		assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
		assert.Equal(t, tt.wantTier, result.Tier, "component %v", tt.component)
	}
}

func TestScore_MonotonicInEachComponent(t *testing.T) {
	ws := models.WeightSet{Weights: models.DefaultWeights()}
	base := models.ComponentScores{
		models.FactorFinancialQuality:      0.5,
		models.FactorRevenueStability:      0.6,
		models.FactorCustomerConcentration: 0.8,
		models.FactorOwnerDependence:       0.4,
		models.FactorIndustryFit:           0.7,
		models.FactorGeographyFit:          0.7,
		models.FactorSBAEligibility:        1.0,
		models.FactorValuationReasonable:   0.6,
	}
	baseScore := Score(base, ws).Score

	for _, factor := range models.Factors {
		bumped := models.ComponentScores{}
		for k, v := range base {
			bumped[k] = v
		}
		bumped[factor] = base[factor] + 0.1

		assert.GreaterOrEqual(t, Score(bumped, ws).Score, baseScore,
			"raising %s must not lower the score", factor)
	}
}

func TestScore_MissingComponentsCountAsZero(t *testing.T) {
	ws := models.WeightSet{Weights: models.DefaultWeights()}

	// Only one factor known; the other seven contribute nothing
	result := Score(models.ComponentScores{models.FactorSBAEligibility: 1.0}, ws)

	expected := 1.0 * models.DefaultWeights()[models.FactorSBAEligibility] * 100
	assert.InDelta(t, expected, result.Score, 1e-9)
	assert.Equal(t, "C", result.Tier)
}

func TestScore_ConfidenceIsNonZeroFraction(t *testing.T) {
	ws := models.WeightSet{Weights: models.DefaultWeights()}

	result := Score(models.ComponentScores{
		models.FactorFinancialQuality: 0.5,
		models.FactorIndustryFit:      0.7,
		models.FactorGeographyFit:     0.7,
		models.FactorSBAEligibility:   1.0,
	}, ws)
	assert.Equal(t, 0.5, result.Confidence)

	// A measured zero does not count toward confidence
	result = Score(models.ComponentScores{
		models.FactorSBAEligibility: 0.0,
		models.FactorIndustryFit:    0.7,
	}, ws)
	assert.Equal(t, 0.13, result.Confidence) // round(1/8, 2)
}

func TestScore_UnnormalizedWeightsGiveSameScore(t *testing.T) {
	components := models.ComponentScores{
		models.FactorFinancialQuality: 0.8,
		models.FactorIndustryFit:      0.7,
	}

	normalized := models.WeightSet{Weights: models.DefaultWeights()}

	doubled := map[string]float64{}
	for k, v := range models.DefaultWeights() {
		doubled[k] = v * 2
	}
	unnormalized := models.WeightSet{Weights: doubled}

	assert.InDelta(t, Score(components, normalized).Score, Score(components, unnormalized).Score, 1e-9)
}

func TestScore_ZeroTotalWeight(t *testing.T) {
	ws := models.WeightSet{Weights: map[string]float64{}}
	result := Score(models.ComponentScores{models.FactorFinancialQuality: 1.0}, ws)

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, "C", result.Tier)
	for _, pct := range result.Breakdown {
		assert.Equal(t, 0.0, pct)
	}
}

func TestScore_BreakdownSumsToHundred(t *testing.T) {
	ws := models.WeightSet{Weights: models.DefaultWeights()}
	result := Score(models.ComponentScores{
		models.FactorFinancialQuality:      0.9,
		models.FactorRevenueStability:      0.6,
		models.FactorCustomerConcentration: 0.8,
		models.FactorIndustryFit:           0.7,
	}, ws)

	var total float64
	for _, pct := range result.Breakdown {
		total += pct
	}
	assert.InDelta(t, 100.0, total, 1e-6)
}

func BenchmarkScore(b *testing.B) {
	ws := models.WeightSet{Weights: models.DefaultWeights()}
	components := models.ComponentScores{
		models.FactorFinancialQuality:      0.5,
		models.FactorRevenueStability:      0.6,
		models.FactorCustomerConcentration: 0.8,
		models.FactorOwnerDependence:       0.4,
		models.FactorIndustryFit:           0.7,
		models.FactorGeographyFit:          0.7,
		models.FactorSBAEligibility:        1.0,
		models.FactorValuationReasonable:   0.6,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Score(components, ws)
	}
}
