// internal/workers/scoring/score-deal/components.go
package scoredeal

import (
	"strings"

	"dealflow-workers/internal/models"
)

// Extraction constants. Industry and geography fit are flat placeholders
// until searcher-preference matching lands; the keyword probes are a coarse
// proxy for structured risk fields the pipeline does not capture yet.
const (
	perfectMargin = 0.30 // EBITDA margin treated as a perfect financial score

	placeholderFitScore = 0.7

	concentrationFlaggedScore = 0.3
	ownerFlaggedScore         = 0.4
	noFlagScore               = 0.8
)

var concentrationKeywords = []string{"customer concentration"}
var ownerKeywords = []string{"owner", "founder"}

// ExtractComponents maps a deal record to normalized [0,1] factor scores.
// Factors that cannot be measured are omitted rather than zeroed, so the
// scorer's confidence reflects what was actually known.
func ExtractComponents(deal models.DealRecord) models.ComponentScores {
	components := models.ComponentScores{}

	if deal.Financials.Revenue != nil && deal.Financials.EBITDA != nil && *deal.Financials.Revenue > 0 {
		margin := *deal.Financials.EBITDA / *deal.Financials.Revenue
		components[models.FactorFinancialQuality] = clamp01(margin / perfectMargin)
	}

	if score, ok := labelScore(deal.Signals.ConfidenceLabel); ok {
		components[models.FactorRevenueStability] = score
	}

	components[models.FactorCustomerConcentration] = flagScore(deal.Signals.RedFlags, concentrationKeywords, concentrationFlaggedScore)
	components[models.FactorOwnerDependence] = flagScore(deal.Signals.RedFlags, ownerKeywords, ownerFlaggedScore)

	components[models.FactorIndustryFit] = placeholderFitScore
	components[models.FactorGeographyFit] = placeholderFitScore

	if deal.Signals.SBAEligible != nil {
		if *deal.Signals.SBAEligible {
			components[models.FactorSBAEligibility] = 1.0
		} else {
			components[models.FactorSBAEligibility] = 0.0
		}
	}

	if deal.Signals.TierHint != "" {
		switch deal.Signals.TierHint {
		case models.TierA:
			components[models.FactorValuationReasonable] = 0.9
		case models.TierB:
			components[models.FactorValuationReasonable] = 0.6
		default:
			components[models.FactorValuationReasonable] = 0.3
		}
	}

	return components
}

// labelScore maps an A/B/C extraction-confidence label to a stability score.
func labelScore(label string) (float64, bool) {
	switch label {
	case models.TierA:
		return 0.9, true
	case models.TierB:
		return 0.6, true
	case models.TierC:
		return 0.3, true
	default:
		return 0, false
	}
}

// flagScore scans free-text red flags for any of the keywords. A match means
// the risk was called out; no flags at all reads as low risk, which conflates
// "not mentioned" with "not present".
func flagScore(redFlags, keywords []string, flaggedScore float64) float64 {
	for _, flag := range redFlags {
		lower := strings.ToLower(flag)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return flaggedScore
			}
		}
	}
	return noFlagScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
