// internal/workers/scoring/recalibrate-weights/handler.go
package recalibrateweights

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	cerrors "dealflow-workers/internal/common/errors"
	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"
	"dealflow-workers/internal/common/weightstore"
	"dealflow-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// TaskType is the BPMN service-task type; the job is typically fired by a
// timer event rather than a user-facing flow.
const TaskType = "recalibrate-weights"

type Handler struct {
	config     *Config
	db         *sql.DB
	weights    *weightstore.Store
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, weights *weightstore.Store, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		weights:    weights,
		logger:     l,
		errHandler: cerrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(cerrors.ErrCodeParseError)).Inc()
		h.errHandler.HandleJobError(context.Background(), client, job, cerrors.NewParseError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errorCode(err))).Inc()
		metrics.WeightRecalibrations.WithLabelValues("failed").Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	scope := input.Scope
	if scope == "" {
		scope = models.ScopeGlobal
	}

	minSamples := h.config.MinTrainingSamples
	if input.MinSamples > 0 {
		minSamples = input.MinSamples
	}

	deals, err := h.fetchTrainingDeals(ctx, scope)
	if err != nil {
		return nil, err
	}

	result := Recalibrate(deals, models.DefaultWeights(), minSamples)
	if result.Skipped {
		// Not an error: the active weight set stays untouched
		metrics.WeightRecalibrations.WithLabelValues("skipped").Inc()
		h.logger.Info("recalibration skipped", map[string]interface{}{
			"scope":      scope,
			"sampleSize": len(deals),
			"reason":     result.SkipReason,
		})
		return &Output{
			Recalibrated: false,
			SkipReason:   result.SkipReason,
			Scope:        scope,
			SampleSize:   len(deals),
		}, nil
	}

	ws := result.WeightSet
	ws.Scope = scope
	saved, err := h.weights.SaveActive(ctx, ws)
	if err != nil {
		return nil, cerrors.NewRecalibrationFailedError(err)
	}

	metrics.WeightRecalibrations.WithLabelValues("activated").Inc()
	h.logger.Info("weight set recalibrated", map[string]interface{}{
		"scope":         scope,
		"weightSetId":   saved.ID,
		"sampleSize":    saved.SampleSize,
		"outcomeCounts": saved.OutcomeCounts,
	})

	return &Output{
		Recalibrated:  true,
		WeightSetID:   saved.ID,
		Scope:         scope,
		SampleSize:    saved.SampleSize,
		OutcomeCounts: saved.OutcomeCounts,
		Weights:       saved.Weights,
	}, nil
}

// fetchTrainingDeals loads resolved deals with stored component scores. The
// global scope trains on everything; a workspace scope trains on its own
// deals only.
func (h *Handler) fetchTrainingDeals(ctx context.Context, scope string) ([]models.OutcomeLabeledDeal, error) {
	query := `
		SELECT id, components, outcome
		FROM deals
		WHERE outcome IN ('closed', 'passed', 'lost') AND components IS NOT NULL`
	args := []interface{}{}
	if scope != models.ScopeGlobal {
		query += ` AND workspace_id = $1`
		args = append(args, scope)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("fetch-training-deals", err)
	}
	defer rows.Close()

	var deals []models.OutcomeLabeledDeal
	for rows.Next() {
		var d models.OutcomeLabeledDeal
		var componentsJSON []byte
		if err := rows.Scan(&d.DealID, &componentsJSON, &d.Outcome); err != nil {
			return nil, cerrors.NewQueryExecutionFailedError("scan-training-deal", err)
		}
		if err := json.Unmarshal(componentsJSON, &d.Components); err != nil {
			// Corrupt component blobs are skipped, not fatal
			h.logger.Warn("skipping deal with unreadable components", map[string]interface{}{
				"dealId": d.DealID,
				"error":  err.Error(),
			})
			continue
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("iterate-training-deals", err)
	}

	return deals, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func errorCode(err error) cerrors.ErrorCode {
	if stdErr, ok := err.(*cerrors.StandardError); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// Execute exposes the recalibration path for tests and internal callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
