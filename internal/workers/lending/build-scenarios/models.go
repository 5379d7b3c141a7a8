// internal/workers/lending/build-scenarios/models.go
package buildscenarios

import (
	loan "dealflow-workers/internal/workers/lending/calculate-loan-structure"
)

type Input struct {
	DealID string `json:"dealId,omitempty"`
	// TopCustomerPercent is the revenue share of the largest customer,
	// used by the worst-case scenario to simulate losing them.
	TopCustomerPercent float64 `json:"topCustomerConcentrationPercent,omitempty"`

	loan.LoanInputs
}

// Scenario is one stress-tested financing case: the assumption deltas, the
// adjusted financials, and a full loan run on them.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RevenueMultiplier   float64 `json:"revenueMultiplier"`
	MarginDeltaPoints   float64 `json:"marginDeltaPoints"`
	CustomerLossPercent float64 `json:"customerLossPercent,omitempty"`

	AdjustedRevenue float64 `json:"adjustedRevenue"`
	AdjustedEBITDA  float64 `json:"adjustedEbitda"`

	Loan loan.LoanOutputs `json:"loan"`

	Viability   string   `json:"viability"`
	RiskFactors []string `json:"riskFactors"`
}

type Breakeven struct {
	// EBITDARequired is the minimum EBITDA that clears a 1.25x DSCR on the
	// base debt service.
	EBITDARequired float64 `json:"ebitdaRequired"`
	// MarginOfSafety is the percentage cushion between actual and required
	// EBITDA; 0 when actual EBITDA is 0.
	MarginOfSafety float64 `json:"marginOfSafety"`
}

type ScenarioSet struct {
	BaseCase  Scenario  `json:"baseCase"`
	Upside    Scenario  `json:"upside"`
	Downside  Scenario  `json:"downside"`
	WorstCase Scenario  `json:"worstCase"`
	Breakeven Breakeven `json:"breakeven"`
}

type Output struct {
	DealID string `json:"dealId,omitempty"`
	ScenarioSet
}
