// internal/workers/scoring/recalibrate-weights/learner.go
package recalibrateweights

import (
	"fmt"

	"dealflow-workers/internal/models"
)

// Adjustment multipliers are deliberately asymmetric: factors that correlate
// with closed deals get rewarded harder than negatively-correlated factors
// get penalized. Changing these changes convergence behavior.
const (
	positiveAdjustment = 0.5
	negativeAdjustment = 0.3
)

// LearnResult carries either a new candidate weight set or the reason the run
// was skipped. A skip is an expected outcome, not an error.
type LearnResult struct {
	Skipped    bool
	SkipReason string

	WeightSet models.WeightSet
}

// Recalibrate derives a new weight set from outcome-labeled deals by blending
// the baseline weights toward factors that separate closed deals from
// passed/lost ones. The result is always renormalized to sum to 1.
func Recalibrate(deals []models.OutcomeLabeledDeal, baseline map[string]float64, minSamples int) LearnResult {
	outcomeCounts := map[string]int{}
	var closed, negative []models.OutcomeLabeledDeal
	for _, d := range deals {
		outcomeCounts[d.Outcome]++
		switch d.Outcome {
		case models.OutcomeClosed:
			closed = append(closed, d)
		case models.OutcomePassed, models.OutcomeLost:
			negative = append(negative, d)
		}
	}

	if len(deals) < minSamples {
		return LearnResult{
			Skipped:    true,
			SkipReason: fmt.Sprintf("insufficient samples: %d < %d", len(deals), minSamples),
		}
	}
	if len(closed) == 0 || len(negative) == 0 {
		return LearnResult{
			Skipped: true,
			SkipReason: fmt.Sprintf("outcome diversity unmet: %d closed, %d passed/lost",
				len(closed), len(negative)),
		}
	}

	weights := make(map[string]float64, len(models.Factors))
	for _, factor := range models.Factors {
		diff := factorMean(closed, factor) - factorMean(negative, factor)
		if diff > 0 {
			weights[factor] = baseline[factor] * (1 + diff*positiveAdjustment)
		} else {
			weights[factor] = baseline[factor] * (1 + diff*negativeAdjustment)
		}
	}

	ws := models.WeightSet{
		Weights:       weights,
		SampleSize:    len(deals),
		OutcomeCounts: outcomeCounts,
	}
	ws.Normalize()

	return LearnResult{WeightSet: ws}
}

// factorMean averages one factor across a group; deals missing the factor
// contribute 0, matching the scorer's zero-fill semantics.
func factorMean(deals []models.OutcomeLabeledDeal, factor string) float64 {
	if len(deals) == 0 {
		return 0
	}
	var sum float64
	for _, d := range deals {
		sum += d.Components[factor]
	}
	return sum / float64(len(deals))
}
