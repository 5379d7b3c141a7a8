// internal/models/deal.go
package models

// Factor keys for the 8 scored deal attributes. These are the JSONB keys
// stored on deals.components and weight_sets.weights, so renaming one is a
// data migration.
const (
	FactorFinancialQuality      = "financialQuality"
	FactorRevenueStability      = "revenueStability"
	FactorCustomerConcentration = "customerConcentration"
	FactorOwnerDependence       = "ownerDependence"
	FactorIndustryFit           = "industryFit"
	FactorGeographyFit          = "geographyFit"
	FactorSBAEligibility        = "sbaEligibility"
	FactorValuationReasonable   = "valuationReasonable"
)

// Factors lists every factor key in canonical order.
var Factors = []string{
	FactorFinancialQuality,
	FactorRevenueStability,
	FactorCustomerConcentration,
	FactorOwnerDependence,
	FactorIndustryFit,
	FactorGeographyFit,
	FactorSBAEligibility,
	FactorValuationReasonable,
}

// ComponentScores maps factor keys to normalized [0,1] scores. A missing key
// means "unknown", which is distinct from a measured 0.
type ComponentScores map[string]float64

// Deal outcome labels written by the pipeline once a deal resolves.
const (
	OutcomeClosed = "closed"
	OutcomePassed = "passed"
	OutcomeLost   = "lost"
)

// Quality tiers shared with the upstream AI triage step.
const (
	TierA = "A"
	TierB = "B"
	TierC = "C"
)

// DealFinancials holds the extracted trailing financials. Pointers
// distinguish "not extracted" from a true zero.
type DealFinancials struct {
	Revenue *float64 `json:"revenue,omitempty"`
	EBITDA  *float64 `json:"ebitda,omitempty"`
}

// DealSignals holds the qualitative attributes the extraction pipeline
// attaches to a deal.
type DealSignals struct {
	ConfidenceLabel string   `json:"confidenceLabel,omitempty"` // A/B/C extraction confidence
	TierHint        string   `json:"tierHint,omitempty"`        // tier assigned by upstream triage
	RedFlags        []string `json:"redFlags,omitempty"`
	SBAEligible     *bool    `json:"sbaEligible,omitempty"`
}

// DealRecord is the engine's read view of a row in the deals table. The
// record is owned upstream; scoring only writes back tier/score/components.
type DealRecord struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspaceId,omitempty"`
	Financials  DealFinancials  `json:"financials"`
	Signals     DealSignals     `json:"signals"`
	Outcome     string          `json:"outcome,omitempty"`
	Tier        string          `json:"tier,omitempty"`
	Score       float64         `json:"score,omitempty"`
	Components  ComponentScores `json:"components,omitempty"`
}

// OutcomeLabeledDeal is the learner's training row: the components a deal was
// scored with plus how the deal resolved.
type OutcomeLabeledDeal struct {
	DealID     string          `json:"dealId"`
	Components ComponentScores `json:"components"`
	Outcome    string          `json:"outcome"`
}
