// internal/workers/scoring/score-deal/handler_test.go
package scoredeal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/weightstore"
	"dealflow-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Setup Helpers
// ==========================

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewNoOpLogger()
	store := weightstore.New(db, rdb, log, 10*time.Minute)
	return NewHandler(LoadConfig(), db, rdb, store, log), mock
}

var weightColumns = []string{"id", "scope", "weights", "is_active", "created_at", "sample_size"}

func defaultWeightRows(t *testing.T) *sqlmock.Rows {
	weightsJSON, err := json.Marshal(models.DefaultWeights())
	require.NoError(t, err)
	return sqlmock.NewRows(weightColumns).
		AddRow("ws-1", "global", weightsJSON, true, time.Now().UTC(), 100)
}

var dealColumns = []string{"id", "workspace_id", "revenue", "ebitda", "confidence_label", "tier_hint", "red_flags", "sba_eligible"}

// ==========================
// Execute
// ==========================

func TestExecute_WithInlineComponents(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, scope, weights").
		WillReturnRows(defaultWeightRows(t))

	output, err := handler.Execute(context.Background(), &Input{
		Components: models.ComponentScores{
			models.FactorFinancialQuality:      1.0,
			models.FactorRevenueStability:      0.9,
			models.FactorCustomerConcentration: 0.8,
			models.FactorOwnerDependence:       0.8,
			models.FactorIndustryFit:           0.7,
			models.FactorGeographyFit:          0.7,
			models.FactorSBAEligibility:        1.0,
			models.FactorValuationReasonable:   0.9,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "A", output.Tier)
	assert.InDelta(t, 87.5, output.Score, 1e-9)
	assert.Equal(t, 1.0, output.Confidence)
	assert.Equal(t, "ws-1", output.WeightSetID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_FetchesDealScoresAndPersists(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, workspace_id, revenue, ebitda").
		WithArgs("deal-1").
		WillReturnRows(sqlmock.NewRows(dealColumns).
			AddRow("deal-1", nil, 1_000_000.0, 300_000.0, "A", "A", []byte(`[]`), true))

	mock.ExpectQuery("SELECT id, scope, weights").
		WillReturnRows(defaultWeightRows(t))

	mock.ExpectExec("UPDATE deals SET tier").
		WithArgs("A", sqlmock.AnyArg(), sqlmock.AnyArg(), "deal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), &Input{DealID: "deal-1"})
	require.NoError(t, err)

	// fq 1.0, rs 0.9, cc 0.8, od 0.8, fits 0.7, sba 1.0, vr 0.9 under defaults
	assert.Equal(t, "A", output.Tier)
	assert.InDelta(t, 87.5, output.Score, 1e-9)
	assert.Equal(t, "deal-1", output.DealID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_DealNotFound(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, workspace_id, revenue, ebitda").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(dealColumns))

	_, err := handler.Execute(context.Background(), &Input{DealID: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEAL_NOT_FOUND")
}

func TestExecute_NoInputIsValidationError(t *testing.T) {
	handler, _ := setupHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_FAILED")
}

func TestExecute_SecondCallServedFromCache(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, workspace_id, revenue, ebitda").
		WithArgs("deal-2").
		WillReturnRows(sqlmock.NewRows(dealColumns).
			AddRow("deal-2", nil, 500_000.0, 100_000.0, "B", "B", []byte(`["Owner runs sales"]`), false))
	mock.ExpectQuery("SELECT id, scope, weights").
		WillReturnRows(defaultWeightRows(t))
	mock.ExpectExec("UPDATE deals SET tier").
		WillReturnResult(sqlmock.NewResult(0, 1))

	first, err := handler.Execute(context.Background(), &Input{DealID: "deal-2"})
	require.NoError(t, err)

	// Deal cache was invalidated by the persist, so the record is re-read;
	// the weight set stays cached.
	mock.ExpectQuery("SELECT id, workspace_id, revenue, ebitda").
		WithArgs("deal-2").
		WillReturnRows(sqlmock.NewRows(dealColumns).
			AddRow("deal-2", nil, 500_000.0, 100_000.0, "B", "B", []byte(`["Owner runs sales"]`), false))
	mock.ExpectExec("UPDATE deals SET tier").
		WillReturnResult(sqlmock.NewResult(0, 1))

	second, err := handler.Execute(context.Background(), &Input{DealID: "deal-2"})
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Tier, second.Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_PersistFailureSurfaces(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, workspace_id, revenue, ebitda").
		WithArgs("deal-3").
		WillReturnRows(sqlmock.NewRows(dealColumns).
			AddRow("deal-3", nil, 1_000_000.0, 200_000.0, "A", "B", []byte(`[]`), true))
	mock.ExpectQuery("SELECT id, scope, weights").
		WillReturnRows(defaultWeightRows(t))
	mock.ExpectExec("UPDATE deals SET tier").
		WillReturnError(assert.AnError)

	_, err := handler.Execute(context.Background(), &Input{DealID: "deal-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_UPDATE_FAILED")
}
