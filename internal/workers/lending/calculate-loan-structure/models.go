// internal/workers/lending/calculate-loan-structure/models.go
package calculateloanstructure

// LoanInputs are the deal financing assumptions. Rates are percentages
// (9 means 9%), the standby period is in months.
type LoanInputs struct {
	PurchasePrice  float64 `json:"purchasePrice"`
	WorkingCapital float64 `json:"workingCapital"`
	ClosingCosts   float64 `json:"closingCosts"`
	PackagingFee   float64 `json:"packagingFee"`

	SellerNoteAmount        float64 `json:"sellerNoteAmount"`
	SellerNoteRate          float64 `json:"sellerNoteRate"`
	SellerNoteTermYears     int     `json:"sellerNoteTermYears"`
	SellerNoteStandbyMonths int     `json:"sellerNoteStandbyPeriod"`

	EarnoutAmount float64 `json:"earnoutAmount"`

	InterestRate  float64 `json:"interestRate"`
	LoanTermYears int     `json:"loanTermYears"`
	// LoanPercent is the SBA-financed share of the non-seller-financed
	// project cost. Zero means the 80% convention.
	LoanPercent float64 `json:"loanPercent,omitempty"`

	EBITDA  float64 `json:"ebitda"`
	Revenue float64 `json:"revenue"`

	NAICSCode string `json:"naicsCode,omitempty"`
	// Nil reads as true; the soft warning fires only on an explicit false.
	AllInvestorsUSPersons *bool `json:"allInvestorsUSPersons,omitempty"`
}

// LoanOutputs is always fully populated, even when hard stops make the deal
// ineligible. Degenerate ratios come back as 0, never NaN or Inf, so the
// struct stays JSON-safe as job variables.
type LoanOutputs struct {
	TotalProjectCost      float64 `json:"totalProjectCost"`
	LoanBase              float64 `json:"loanBase"`
	SBALoanAmount         float64 `json:"sbaLoanAmount"`
	SBAGuaranteeFeeAmount float64 `json:"sbaGuaranteeFeeAmount"`
	GuaranteeFeeWaived    bool    `json:"guaranteeFeeWaived"`
	GuaranteeFeeSavings   float64 `json:"guaranteeFeeSavings,omitempty"`
	MaxLoanCap            float64 `json:"maxLoanCap"`

	EquityInjectionRequired float64 `json:"equityInjectionRequired"`
	EquityInjectionPercent  float64 `json:"equityInjectionPercent"`

	MonthlySBAPayment        float64 `json:"monthlySbaPayment"`
	MonthlySellerNotePayment float64 `json:"monthlySellerNotePayment"`
	MonthlyDebtService       float64 `json:"monthlyDebtService"`
	AnnualDebtService        float64 `json:"annualDebtService"`

	DSCR               float64 `json:"dscr"`
	CashOnCash         float64 `json:"cashOnCash"`
	YearOneCashFlow    float64 `json:"yearOneCashFlow"`
	PaybackPeriodYears float64 `json:"paybackPeriodYears"`

	SBAEligible            bool     `json:"sbaEligible"`
	SBAEligibilityIssues   []string `json:"sbaEligibilityIssues"`
	SBAEligibilityWarnings []string `json:"sbaEligibilityWarnings"`
	Notices                []string `json:"notices,omitempty"`
}

type Input struct {
	DealID string `json:"dealId,omitempty"`
	LoanInputs
}

type Output struct {
	DealID string `json:"dealId,omitempty"`
	LoanOutputs
}
