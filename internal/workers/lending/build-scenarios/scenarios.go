// internal/workers/lending/build-scenarios/scenarios.go
package buildscenarios

import (
	"fmt"
	"time"

	loan "dealflow-workers/internal/workers/lending/calculate-loan-structure"
)

// Viability classifications, keyed off each scenario's DSCR.
const (
	ViabilityViable   = "viable"
	ViabilityMarginal = "marginal"
	ViabilityUnviable = "unviable"

	viableMinDSCR   = 1.25
	marginalMinDSCR = 1.15

	upsideRevenueMultiplier   = 1.20
	downsideRevenueMultiplier = 0.80
	marginShiftPoints         = 0.05

	breakevenTargetDSCR = 1.25
)

// BuildScenarios runs the base assumptions plus three perturbed cases
// through the loan calculator and derives the breakeven EBITDA. Pure and
// deterministic like the calculator it wraps.
func BuildScenarios(inputs loan.LoanInputs, topCustomerPercent float64, asOf, waiverExpiry time.Time) *ScenarioSet {
	baseMargin := 0.0
	if inputs.Revenue > 0 {
		baseMargin = inputs.EBITDA / inputs.Revenue
	}

	set := &ScenarioSet{}

	set.BaseCase = buildScenario(inputs, Scenario{
		Name:              "Base",
		Description:       "Current financials as presented",
		RevenueMultiplier: 1.0,
	}, inputs.Revenue, inputs.EBITDA, asOf, waiverExpiry)

	upRevenue := inputs.Revenue * upsideRevenueMultiplier
	set.Upside = buildScenario(inputs, Scenario{
		Name:              "Upside",
		Description:       "Revenue +20%, margin +5 points",
		RevenueMultiplier: upsideRevenueMultiplier,
		MarginDeltaPoints: marginShiftPoints,
	}, upRevenue, adjustedEBITDA(upRevenue, baseMargin+marginShiftPoints, inputs), asOf, waiverExpiry)

	downRevenue := inputs.Revenue * downsideRevenueMultiplier
	set.Downside = buildScenario(inputs, Scenario{
		Name:              "Downside",
		Description:       "Revenue -20%, margin held",
		RevenueMultiplier: downsideRevenueMultiplier,
	}, downRevenue, adjustedEBITDA(downRevenue, baseMargin, inputs), asOf, waiverExpiry)

	worstRevenue := inputs.Revenue * (1 - topCustomerPercent/100)
	if worstRevenue < 0 {
		worstRevenue = 0
	}
	set.WorstCase = buildScenario(inputs, Scenario{
		Name:                "Worst-Case",
		Description:         fmt.Sprintf("Top customer lost (-%.0f%% revenue), margin -5 points", topCustomerPercent),
		RevenueMultiplier:   1 - topCustomerPercent/100,
		MarginDeltaPoints:   -marginShiftPoints,
		CustomerLossPercent: topCustomerPercent,
	}, worstRevenue, adjustedEBITDA(worstRevenue, baseMargin-marginShiftPoints, inputs), asOf, waiverExpiry)

	set.Breakeven = breakeven(set.BaseCase.Loan.AnnualDebtService, inputs.EBITDA)
	return set
}

// adjustedEBITDA rebuilds EBITDA from a shifted margin, flooring the margin
// at 0. Without revenue there is no margin to shift, so EBITDA passes
// through unchanged.
func adjustedEBITDA(revenue, margin float64, inputs loan.LoanInputs) float64 {
	if inputs.Revenue <= 0 {
		return inputs.EBITDA
	}
	if margin < 0 {
		margin = 0
	}
	return revenue * margin
}

func buildScenario(inputs loan.LoanInputs, scenario Scenario, revenue, ebitda float64, asOf, waiverExpiry time.Time) Scenario {
	adjusted := inputs
	adjusted.Revenue = revenue
	adjusted.EBITDA = ebitda

	outputs := loan.Calculate(adjusted, asOf, waiverExpiry)

	scenario.AdjustedRevenue = revenue
	scenario.AdjustedEBITDA = ebitda
	scenario.Loan = *outputs
	scenario.Viability = classify(outputs.DSCR)
	scenario.RiskFactors = riskFactors(outputs)
	return scenario
}

func classify(dscr float64) string {
	switch {
	case dscr >= viableMinDSCR:
		return ViabilityViable
	case dscr >= marginalMinDSCR:
		return ViabilityMarginal
	default:
		return ViabilityUnviable
	}
}

func riskFactors(outputs *loan.LoanOutputs) []string {
	factors := []string{}
	switch {
	case outputs.DSCR < marginalMinDSCR:
		factors = append(factors, fmt.Sprintf("DSCR %.2fx falls below the 1.15 lending floor", outputs.DSCR))
	case outputs.DSCR < viableMinDSCR:
		factors = append(factors, fmt.Sprintf("DSCR %.2fx is below the 1.25 target cushion", outputs.DSCR))
	}
	if outputs.YearOneCashFlow < 0 {
		factors = append(factors, fmt.Sprintf("Negative cash flow of $%.0f after debt service", -outputs.YearOneCashFlow))
	}
	factors = append(factors, outputs.SBAEligibilityIssues...)
	return factors
}

func breakeven(annualDebtService, actualEBITDA float64) Breakeven {
	required := annualDebtService * breakevenTargetDSCR
	safety := 0.0
	if actualEBITDA != 0 {
		safety = (actualEBITDA - required) / actualEBITDA * 100
	}
	return Breakeven{
		EBITDARequired: required,
		MarginOfSafety: safety,
	}
}
