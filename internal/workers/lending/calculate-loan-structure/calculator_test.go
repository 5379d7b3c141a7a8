// internal/workers/lending/calculate-loan-structure/calculator_test.go
package calculateloanstructure

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	asOf         = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	waiverExpiry = time.Date(2027, 9, 30, 0, 0, 0, 0, time.UTC)
)

func usPersons(v bool) *bool { return &v }

// ==========================
// Guarantee Fee Schedule
// ==========================

func TestGuaranteeFee_Tiers(t *testing.T) {
	tests := []struct {
		base float64
		fee  float64
	}{
		{100_000, 0},
		{150_000, 0},
		{150_001, 3_000.02},
		{500_000, 10_000},
		{700_000, 14_000},
		{1_000_000, 24_500}, // 700k x 2% + 300k x 3.5%
		{2_400_000, 73_500}, // 700k x 2% + 1.7M x 3.5%
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.fee, guaranteeFee(tt.base), 0.01, "base %v", tt.base)
	}
}

func TestManufacturingWaiver(t *testing.T) {
	// Purchase price chosen so the 80% loan base lands on $900,000
	base := LoanInputs{
		PurchasePrice: 1_125_000,
		InterestRate:  9,
		LoanTermYears: 10,
		EBITDA:        400_000,
		NAICSCode:     "321113",
	}

	out := Calculate(base, asOf, waiverExpiry)
	require.InDelta(t, 900_000, out.LoanBase, 0.01)

	standardFee := 700_000*0.02 + 200_000*0.035 // $21,000
	assert.True(t, out.GuaranteeFeeWaived)
	assert.Equal(t, 0.0, out.SBAGuaranteeFeeAmount)
	assert.InDelta(t, standardFee, out.GuaranteeFeeSavings, 0.01)
	assert.Equal(t, out.LoanBase, out.SBALoanAmount)
	require.Len(t, out.Notices, 1)
	assert.Contains(t, out.Notices[0], "waiver")
	assert.Empty(t, out.SBAEligibilityIssues, "the waiver notice is informational, not a finding")
}

func TestManufacturingWaiver_NotApplied(t *testing.T) {
	base := LoanInputs{
		PurchasePrice: 1_125_000,
		InterestRate:  9,
		LoanTermYears: 10,
		EBITDA:        400_000,
		NAICSCode:     "321113",
	}

	t.Run("after expiry", func(t *testing.T) {
		out := Calculate(base, waiverExpiry.AddDate(0, 0, 1), waiverExpiry)
		assert.False(t, out.GuaranteeFeeWaived)
		assert.InDelta(t, 21_000, out.SBAGuaranteeFeeAmount, 0.01)
	})

	t.Run("non-manufacturing naics", func(t *testing.T) {
		in := base
		in.NAICSCode = "541511"
		out := Calculate(in, asOf, waiverExpiry)
		assert.False(t, out.GuaranteeFeeWaived)
	})

	t.Run("base above waiver cap", func(t *testing.T) {
		in := base
		in.PurchasePrice = 1_500_000 // 80% base = $1.2M > $950k
		out := Calculate(in, asOf, waiverExpiry)
		assert.False(t, out.GuaranteeFeeWaived)
	})

	t.Run("no naics", func(t *testing.T) {
		in := base
		in.NAICSCode = ""
		out := Calculate(in, asOf, waiverExpiry)
		assert.False(t, out.GuaranteeFeeWaived)
	})
}

// ==========================
// Amortization
// ==========================

func TestMonthlyPayment(t *testing.T) {
	// $2.4M at 9% over 10 years
	assert.InDelta(t, 30_402, monthlyPayment(2_400_000, 9, 10), 5)

	// Zero rate degrades to straight-line principal
	assert.InDelta(t, 1_000, monthlyPayment(120_000, 0, 10), 0.001)

	// Degenerate inputs return 0, never NaN
	assert.Equal(t, 0.0, monthlyPayment(0, 9, 10))
	assert.Equal(t, 0.0, monthlyPayment(100_000, 9, 0))
	assert.Equal(t, 0.0, monthlyPayment(-5, 9, 10))
}

// ==========================
// Worked Example
// ==========================

func TestCalculate_WorkedExample(t *testing.T) {
	// $3M purchase, 80% financed, 9%/10y, $600k EBITDA. The guarantee fee
	// ($73,500 on the $2.4M base) is financed into the loan, so debt
	// service runs on $2,473,500.
	out := Calculate(LoanInputs{
		PurchasePrice: 3_000_000,
		LoanPercent:   80,
		InterestRate:  9,
		LoanTermYears: 10,
		EBITDA:        600_000,
		Revenue:       3_500_000,
	}, asOf, waiverExpiry)

	assert.InDelta(t, 3_000_000, out.TotalProjectCost, 0.01)
	assert.InDelta(t, 2_400_000, out.LoanBase, 0.01)
	assert.InDelta(t, 73_500, out.SBAGuaranteeFeeAmount, 0.01)
	assert.InDelta(t, 2_473_500, out.SBALoanAmount, 0.01)

	assert.InDelta(t, 31_333, out.MonthlySBAPayment, 20)
	assert.InDelta(t, 376_000, out.AnnualDebtService, 250)
	assert.InDelta(t, 1.58, out.DSCR, 0.02)

	assert.InDelta(t, 600_000, out.EquityInjectionRequired, 0.01)
	assert.InDelta(t, 20.0, out.EquityInjectionPercent, 0.001)
	assert.True(t, out.SBAEligible)
}

// ==========================
// Equity and Seller Note
// ==========================

func TestCalculate_EquityExcludesFinancedFee(t *testing.T) {
	out := Calculate(LoanInputs{
		PurchasePrice:           1_000_000,
		WorkingCapital:          50_000,
		ClosingCosts:            25_000,
		PackagingFee:            10_000,
		SellerNoteAmount:        100_000,
		SellerNoteRate:          6,
		SellerNoteTermYears:     5,
		SellerNoteStandbyMonths: 24,
		EarnoutAmount:           50_000,
		LoanPercent:             80,
		InterestRate:            9,
		LoanTermYears:           10,
		EBITDA:                  300_000,
	}, asOf, waiverExpiry)

	// TPC 1,085,000; financeable 935,000; base 748,000; fee 15,680
	assert.InDelta(t, 1_085_000, out.TotalProjectCost, 0.01)
	assert.InDelta(t, 748_000, out.LoanBase, 0.01)
	assert.InDelta(t, 15_680, out.SBAGuaranteeFeeAmount, 0.01)
	assert.InDelta(t, 763_680, out.SBALoanAmount, 0.01)

	// Equity is measured against the fee-exclusive base
	assert.InDelta(t, 187_000, out.EquityInjectionRequired, 0.01)
	assert.InDelta(t, 17.235, out.EquityInjectionPercent, 0.01)

	// Seller note amortizes independently and adds into debt service
	assert.InDelta(t, 1_933.28, out.MonthlySellerNotePayment, 0.5)
	assert.InDelta(t, out.MonthlySBAPayment+out.MonthlySellerNotePayment, out.MonthlyDebtService, 1e-9)
	assert.InDelta(t, out.MonthlyDebtService*12, out.AnnualDebtService, 1e-9)
}

// ==========================
// Eligibility Findings
// ==========================

func TestCalculate_DSCRHardStopStillComputesEverything(t *testing.T) {
	out := Calculate(LoanInputs{
		PurchasePrice: 3_000_000,
		LoanPercent:   80,
		InterestRate:  9,
		LoanTermYears: 10,
		EBITDA:        400_000, // DSCR ~ 1.06
	}, asOf, waiverExpiry)

	assert.False(t, out.SBAEligible)
	assert.True(t, containsSubstring(out.SBAEligibilityIssues, "DSCR"))

	// No early return: downstream metrics still land
	assert.Greater(t, out.CashOnCash, 0.0)
	assert.Greater(t, out.PaybackPeriodYears, 0.0)
	assert.Greater(t, out.YearOneCashFlow, 0.0)
}

func TestCalculate_LoanCapHardStop(t *testing.T) {
	out := Calculate(LoanInputs{
		PurchasePrice: 8_000_000,
		LoanPercent:   80,
		InterestRate:  9,
		LoanTermYears: 10,
		EBITDA:        2_000_000,
	}, asOf, waiverExpiry)

	assert.False(t, out.SBAEligible)
	assert.True(t, containsSubstring(out.SBAEligibilityIssues, "maximum"))
}

func TestCalculate_SoftWarnings(t *testing.T) {
	out := Calculate(LoanInputs{
		PurchasePrice:           3_000_000,
		SellerNoteAmount:        200_000,
		SellerNoteRate:          6,
		SellerNoteTermYears:     5,
		SellerNoteStandbyMonths: 12,
		LoanPercent:             80,
		InterestRate:            9,
		LoanTermYears:           10,
		EBITDA:                  470_000, // DSCR lands between 1.15 and 1.25
		AllInvestorsUSPersons:   usPersons(false),
	}, asOf, waiverExpiry)

	assert.True(t, out.SBAEligible, "warnings alone must not block eligibility")
	assert.True(t, containsSubstring(out.SBAEligibilityWarnings, "US persons"))
	assert.True(t, containsSubstring(out.SBAEligibilityWarnings, "standby"))
	assert.True(t, containsSubstring(out.SBAEligibilityWarnings, "DSCR"))
}

func TestCalculate_ThinEquityWarningOnLargeDeals(t *testing.T) {
	// 88% financed above $1M: equity 12% passes the 10% hard stop but
	// trips the 15% soft warning
	out := Calculate(LoanInputs{
		PurchasePrice: 2_000_000,
		LoanPercent:   88,
		InterestRate:  9,
		LoanTermYears: 10,
		EBITDA:        600_000,
	}, asOf, waiverExpiry)

	assert.True(t, out.SBAEligible)
	assert.True(t, containsSubstring(out.SBAEligibilityWarnings, "Equity"))
}

// ==========================
// Degenerate Inputs
// ==========================

func TestCalculate_ZeroInputsProduceFiniteOutputs(t *testing.T) {
	out := Calculate(LoanInputs{}, asOf, waiverExpiry)

	for name, v := range map[string]float64{
		"dscr":       out.DSCR,
		"cashOnCash": out.CashOnCash,
		"payback":    out.PaybackPeriodYears,
		"monthly":    out.MonthlyDebtService,
		"annual":     out.AnnualDebtService,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s must be finite", name)
		assert.Equal(t, 0.0, v, "%s defaults to the zero sentinel", name)
	}
}

func containsSubstring(findings []string, substr string) bool {
	for _, f := range findings {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}
