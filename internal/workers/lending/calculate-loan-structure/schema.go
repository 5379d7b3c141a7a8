// internal/workers/lending/calculate-loan-structure/schema.go
package calculateloanstructure

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// loanRequestSchema rejects malformed requests before any arithmetic runs.
// Structural only: business thresholds live in the eligibility findings.
const loanRequestSchema = `{
	"type": "object",
	"required": ["purchasePrice", "interestRate", "loanTermYears", "ebitda"],
	"properties": {
		"dealId":                  {"type": "string"},
		"purchasePrice":           {"type": "number", "minimum": 0},
		"workingCapital":          {"type": "number", "minimum": 0},
		"closingCosts":            {"type": "number", "minimum": 0},
		"packagingFee":            {"type": "number", "minimum": 0},
		"sellerNoteAmount":        {"type": "number", "minimum": 0},
		"sellerNoteRate":          {"type": "number", "minimum": 0},
		"sellerNoteTermYears":     {"type": "integer", "minimum": 0},
		"sellerNoteStandbyPeriod": {"type": "integer", "minimum": 0},
		"earnoutAmount":           {"type": "number", "minimum": 0},
		"interestRate":            {"type": "number", "minimum": 0},
		"loanTermYears":           {"type": "integer", "minimum": 1},
		"loanPercent":             {"type": "number", "minimum": 0, "maximum": 100},
		"ebitda":                  {"type": "number"},
		"revenue":                 {"type": "number", "minimum": 0},
		"naicsCode":               {"type": "string"},
		"allInvestorsUSPersons":   {"type": "boolean"}
	}
}`

func validateLoanRequest(variables string) error {
	schemaLoader := gojsonschema.NewStringLoader(loanRequestSchema)
	documentLoader := gojsonschema.NewStringLoader(variables)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("loan request validation failed: %v", errs)
	}

	return nil
}
