// internal/workers/scoring/recalibrate-weights/handler_test.go
package recalibrateweights

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
	return NewHandler(LoadConfig(), db, store, log), mock
}

var trainingColumns = []string{"id", "components", "outcome"}

func trainingRows(t *testing.T, closed, passed int) *sqlmock.Rows {
	rows := sqlmock.NewRows(trainingColumns)

	closedComponents := models.ComponentScores{}
	passedComponents := models.ComponentScores{}
	for _, f := range models.Factors {
		closedComponents[f] = 0.8
		passedComponents[f] = 0.4
	}
	closedJSON, err := json.Marshal(closedComponents)
	require.NoError(t, err)
	passedJSON, err := json.Marshal(passedComponents)
	require.NoError(t, err)

	for i := 0; i < closed; i++ {
		rows.AddRow("closed-deal", closedJSON, models.OutcomeClosed)
	}
	for i := 0; i < passed; i++ {
		rows.AddRow("passed-deal", passedJSON, models.OutcomePassed)
	}
	return rows
}

// ==========================
// Execute
// ==========================

func TestExecute_SkipsBelowSampleFloor(t *testing.T) {
	handler, mock := setupHandler(t)

	// 10 labeled deals < 50: no weight set may be written
	mock.ExpectQuery("SELECT id, components, outcome").
		WillReturnRows(trainingRows(t, 5, 5))

	output, err := handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.False(t, output.Recalibrated)
	assert.Contains(t, output.SkipReason, "insufficient samples")
	assert.Equal(t, 10, output.SampleSize)
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert or update may happen on a skip")
}

func TestExecute_SkipsWithoutOutcomeDiversity(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, components, outcome").
		WillReturnRows(trainingRows(t, 60, 0))

	output, err := handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.False(t, output.Recalibrated)
	assert.Contains(t, output.SkipReason, "diversity")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RecalibratesAndActivatesAtomically(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, components, outcome").
		WillReturnRows(trainingRows(t, 25, 35))

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("global").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE weight_sets SET is_active = false").
		WithArgs("global").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO weight_sets").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	output, err := handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.True(t, output.Recalibrated)
	assert.NotEmpty(t, output.WeightSetID)
	assert.Equal(t, "global", output.Scope)
	assert.Equal(t, 60, output.SampleSize)

	var total float64
	for _, f := range models.Factors {
		total += output.Weights[f]
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_WorkspaceScopeFiltersQuery(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, components, outcome").
		WithArgs("workspace-7").
		WillReturnRows(trainingRows(t, 2, 3))

	output, err := handler.Execute(context.Background(), &Input{Scope: "workspace-7"})
	require.NoError(t, err)

	assert.False(t, output.Recalibrated)
	assert.Equal(t, "workspace-7", output.Scope)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_SaveFailureIsRecalibrationError(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, components, outcome").
		WillReturnRows(trainingRows(t, 25, 35))
	mock.ExpectBegin().WillReturnError(assert.AnError)

	_, err := handler.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECALIBRATION_FAILED")
}
