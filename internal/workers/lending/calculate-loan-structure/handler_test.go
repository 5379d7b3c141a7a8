// internal/workers/lending/calculate-loan-structure/handler_test.go
package calculateloanstructure

import (
	"testing"

	"dealflow-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLoanRequest(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{
			name:      "valid minimal request",
			variables: `{"purchasePrice": 3000000, "interestRate": 9, "loanTermYears": 10, "ebitda": 600000}`,
			wantErr:   false,
		},
		{
			name:      "extra process variables are tolerated",
			variables: `{"purchasePrice": 3000000, "interestRate": 9, "loanTermYears": 10, "ebitda": 600000, "processStage": "underwriting"}`,
			wantErr:   false,
		},
		{
			name:      "missing purchase price",
			variables: `{"interestRate": 9, "loanTermYears": 10, "ebitda": 600000}`,
			wantErr:   true,
		},
		{
			name:      "negative purchase price",
			variables: `{"purchasePrice": -1, "interestRate": 9, "loanTermYears": 10, "ebitda": 600000}`,
			wantErr:   true,
		},
		{
			name:      "zero loan term",
			variables: `{"purchasePrice": 3000000, "interestRate": 9, "loanTermYears": 0, "ebitda": 600000}`,
			wantErr:   true,
		},
		{
			name:      "loan percent above 100",
			variables: `{"purchasePrice": 3000000, "interestRate": 9, "loanTermYears": 10, "ebitda": 600000, "loanPercent": 120}`,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLoanRequest(tt.variables)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExecute_ReturnsCompleteOutput(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewNoOpLogger())

	output := handler.Execute(&Input{
		DealID: "deal-9",
		LoanInputs: LoanInputs{
			PurchasePrice: 3_000_000,
			LoanPercent:   80,
			InterestRate:  9,
			LoanTermYears: 10,
			EBITDA:        600_000,
		},
	})

	require.NotNil(t, output)
	assert.Equal(t, "deal-9", output.DealID)
	assert.True(t, output.SBAEligible)
	assert.InDelta(t, 1.58, output.DSCR, 0.02)
	assert.NotNil(t, output.SBAEligibilityIssues, "issue list is always present, even when empty")
	assert.NotNil(t, output.SBAEligibilityWarnings)
}

func BenchmarkCalculate(b *testing.B) {
	inputs := LoanInputs{
		PurchasePrice:       3_000_000,
		SellerNoteAmount:    300_000,
		SellerNoteRate:      6,
		SellerNoteTermYears: 5,
		LoanPercent:         80,
		InterestRate:        9,
		LoanTermYears:       10,
		EBITDA:              600_000,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Calculate(inputs, asOf, waiverExpiry)
	}
}
