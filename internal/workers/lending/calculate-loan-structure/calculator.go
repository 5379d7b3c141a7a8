// internal/workers/lending/calculate-loan-structure/calculator.go
package calculateloanstructure

import (
	"fmt"
	"math"
	"time"
)

// SBA 7(a) program constants.
const (
	feeExemptBase    = 150_000.0
	feeLowTierCap    = 700_000.0
	feeLowTierRate   = 0.02
	feeHighTierRate  = 0.035
	mfgWaiverMaxBase = 950_000.0

	maxLoanCap = 5_000_000.0

	defaultLoanPercent = 80.0

	hardStopMinEquityPercent = 10.0
	hardStopMinDSCR          = 1.15

	warnMinDSCR          = 1.25
	warnMinEquityPercent = 15.0
	warnEquityPriceFloor = 1_000_000.0
	warnMinStandbyMonths = 24
)

// Calculate computes the full SBA loan structure for a deal. Pure and
// deterministic: the as-of date and waiver expiry come in as arguments so the
// fee schedule never depends on the wall clock.
func Calculate(inputs LoanInputs, asOf, waiverExpiry time.Time) *LoanOutputs {
	out := &LoanOutputs{
		MaxLoanCap:             maxLoanCap,
		SBAEligibilityIssues:   []string{},
		SBAEligibilityWarnings: []string{},
	}

	loanPercent := inputs.LoanPercent
	if loanPercent <= 0 {
		loanPercent = defaultLoanPercent
	}

	out.TotalProjectCost = inputs.PurchasePrice + inputs.WorkingCapital +
		inputs.ClosingCosts + inputs.PackagingFee

	// The SBA loan covers a percentage of the portion not financed by the
	// seller note or earnout.
	financeable := out.TotalProjectCost - inputs.SellerNoteAmount - inputs.EarnoutAmount
	if financeable < 0 {
		financeable = 0
	}
	out.LoanBase = financeable * loanPercent / 100

	fee := guaranteeFee(out.LoanBase)
	if waived, standard := manufacturingWaiver(inputs.NAICSCode, out.LoanBase, fee, asOf, waiverExpiry); waived {
		out.GuaranteeFeeWaived = true
		out.GuaranteeFeeSavings = standard
		out.SBAGuaranteeFeeAmount = 0
		out.Notices = append(out.Notices, fmt.Sprintf(
			"Manufacturing NAICS %s qualifies for the guarantee fee waiver: $%.2f saved", inputs.NAICSCode, standard))
	} else {
		out.SBAGuaranteeFeeAmount = fee
	}

	// The fee is financed into the loan
	out.SBALoanAmount = out.LoanBase + out.SBAGuaranteeFeeAmount

	// Equity covers the gap against the fee-exclusive base; the fee rides
	// inside the loan and never raises the equity requirement.
	out.EquityInjectionRequired = out.TotalProjectCost - out.LoanBase -
		inputs.SellerNoteAmount - inputs.EarnoutAmount
	if out.EquityInjectionRequired < 0 {
		out.EquityInjectionRequired = 0
	}
	if out.TotalProjectCost > 0 {
		out.EquityInjectionPercent = out.EquityInjectionRequired / out.TotalProjectCost * 100
	}

	out.MonthlySBAPayment = monthlyPayment(out.SBALoanAmount, inputs.InterestRate, inputs.LoanTermYears)
	out.MonthlySellerNotePayment = monthlyPayment(inputs.SellerNoteAmount, inputs.SellerNoteRate, inputs.SellerNoteTermYears)
	out.MonthlyDebtService = out.MonthlySBAPayment + out.MonthlySellerNotePayment
	out.AnnualDebtService = out.MonthlyDebtService * 12

	if out.AnnualDebtService > 0 {
		out.DSCR = inputs.EBITDA / out.AnnualDebtService
	}
	out.YearOneCashFlow = inputs.EBITDA - out.AnnualDebtService
	if out.EquityInjectionRequired > 0 {
		out.CashOnCash = out.YearOneCashFlow / out.EquityInjectionRequired * 100
	}
	if out.YearOneCashFlow > 0 {
		out.PaybackPeriodYears = out.EquityInjectionRequired / out.YearOneCashFlow
	}

	applyEligibilityFindings(inputs, out)
	return out
}

// guaranteeFee implements the tiered SBA 7(a) schedule on the loan base.
func guaranteeFee(base float64) float64 {
	switch {
	case base <= feeExemptBase:
		return 0
	case base <= feeLowTierCap:
		return base * feeLowTierRate
	default:
		return feeLowTierCap*feeLowTierRate + (base-feeLowTierCap)*feeHighTierRate
	}
}

// manufacturingWaiver reports whether the fee is waived and what the
// standard fee would have been. NAICS sectors 31-33 are manufacturing.
func manufacturingWaiver(naics string, base, standardFee float64, asOf, expiry time.Time) (bool, float64) {
	if standardFee <= 0 || expiry.IsZero() || asOf.After(expiry) {
		return false, 0
	}
	if base > mfgWaiverMaxBase {
		return false, 0
	}
	if len(naics) < 2 {
		return false, 0
	}
	prefix := naics[:2]
	if prefix != "31" && prefix != "32" && prefix != "33" {
		return false, 0
	}
	return true, standardFee
}

// monthlyPayment is the standard fixed-rate amortization formula. annualRate
// is a percentage. Zero principal or term returns 0; a zero rate degrades to
// straight-line principal.
func monthlyPayment(principal, annualRate float64, termYears int) float64 {
	if principal <= 0 || termYears <= 0 {
		return 0
	}
	n := float64(termYears * 12)
	monthlyRate := annualRate / 100 / 12
	if monthlyRate == 0 {
		return principal / n
	}
	return principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -n))
}

// applyEligibilityFindings populates hard stops and soft warnings. Hard stops
// flip SBAEligible to false but never short-circuit: every output field is
// computed regardless.
func applyEligibilityFindings(inputs LoanInputs, out *LoanOutputs) {
	if out.LoanBase > maxLoanCap {
		out.SBAEligibilityIssues = append(out.SBAEligibilityIssues, fmt.Sprintf(
			"Loan amount $%.0f exceeds the SBA 7(a) maximum of $%.0f", out.LoanBase, maxLoanCap))
	}
	if out.EquityInjectionPercent < hardStopMinEquityPercent {
		out.SBAEligibilityIssues = append(out.SBAEligibilityIssues, fmt.Sprintf(
			"Equity injection %.1f%% is below the required %.0f%% minimum",
			out.EquityInjectionPercent, hardStopMinEquityPercent))
	}
	if out.AnnualDebtService > 0 && out.DSCR < hardStopMinDSCR {
		out.SBAEligibilityIssues = append(out.SBAEligibilityIssues, fmt.Sprintf(
			"DSCR %.2fx is below the %.2fx lending floor", out.DSCR, hardStopMinDSCR))
	}

	if inputs.AllInvestorsUSPersons != nil && !*inputs.AllInvestorsUSPersons {
		out.SBAEligibilityWarnings = append(out.SBAEligibilityWarnings,
			"Not all investors are US persons; SBA requires US-person ownership")
	}
	if out.AnnualDebtService > 0 && out.DSCR >= hardStopMinDSCR && out.DSCR < warnMinDSCR {
		out.SBAEligibilityWarnings = append(out.SBAEligibilityWarnings, fmt.Sprintf(
			"DSCR %.2fx is below the preferred %.2fx cushion", out.DSCR, warnMinDSCR))
	}
	if inputs.PurchasePrice > warnEquityPriceFloor && out.EquityInjectionPercent < warnMinEquityPercent {
		out.SBAEligibilityWarnings = append(out.SBAEligibilityWarnings, fmt.Sprintf(
			"Equity injection %.1f%% is thin for a deal above $%.0f",
			out.EquityInjectionPercent, warnEquityPriceFloor))
	}
	if inputs.SellerNoteAmount > 0 && inputs.SellerNoteStandbyMonths < warnMinStandbyMonths {
		out.SBAEligibilityWarnings = append(out.SBAEligibilityWarnings, fmt.Sprintf(
			"Seller note standby of %d months is below the %d-month expectation",
			inputs.SellerNoteStandbyMonths, warnMinStandbyMonths))
	}

	out.SBAEligible = len(out.SBAEligibilityIssues) == 0
}
