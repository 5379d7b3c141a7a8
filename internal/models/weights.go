// internal/models/weights.go
package models

import "time"

// ScopeGlobal is the weight-set scope used when no workspace override exists.
const ScopeGlobal = "global"

// WeightSet is a versioned row in weight_sets. Weights are non-negative and
// sum to 1 for every persisted set; at most one row per scope is active.
type WeightSet struct {
	ID            string             `json:"id"`
	Scope         string             `json:"scope"`
	Weights       map[string]float64 `json:"weights"`
	IsActive      bool               `json:"isActive"`
	CreatedAt     time.Time          `json:"createdAt"`
	SampleSize    int                `json:"sampleSize"`
	OutcomeCounts map[string]int     `json:"outcomeCounts,omitempty"`
}

// TotalWeight returns the sum over all factor keys.
func (w WeightSet) TotalWeight() float64 {
	var total float64
	for _, f := range Factors {
		total += w.Weights[f]
	}
	return total
}

// Normalize rescales the weights in place so they sum to exactly 1. A
// degenerate all-zero set is replaced by the defaults rather than divided.
func (w *WeightSet) Normalize() {
	total := w.TotalWeight()
	if total <= 0 {
		w.Weights = DefaultWeights()
		return
	}
	for _, f := range Factors {
		w.Weights[f] = w.Weights[f] / total
	}
}

// DefaultWeights returns a fresh copy of the compiled-in baseline. Callers
// may mutate the result; the baseline itself is never shared.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		FactorFinancialQuality:      0.20,
		FactorRevenueStability:      0.15,
		FactorCustomerConcentration: 0.15,
		FactorOwnerDependence:       0.10,
		FactorIndustryFit:           0.10,
		FactorGeographyFit:          0.05,
		FactorSBAEligibility:        0.10,
		FactorValuationReasonable:   0.15,
	}
}

// DefaultWeightSet wraps DefaultWeights in a synthetic active set for the
// fallback path when no row exists for a scope.
func DefaultWeightSet(scope string) WeightSet {
	return WeightSet{
		ID:       "default",
		Scope:    scope,
		Weights:  DefaultWeights(),
		IsActive: true,
	}
}
