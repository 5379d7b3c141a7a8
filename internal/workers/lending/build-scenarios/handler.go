// internal/workers/lending/build-scenarios/handler.go
package buildscenarios

import (
	"context"
	"encoding/json"
	"time"

	cerrors "dealflow-workers/internal/common/errors"
	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "build-scenarios"

type Handler struct {
	config     *Config
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
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

	if input.TopCustomerPercent < 0 || input.TopCustomerPercent > 100 {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(cerrors.ErrCodeValidationFailed)).Inc()
		h.errHandler.HandleJobError(context.Background(), client, job,
			cerrors.NewValidationFailedError("topCustomerConcentrationPercent must be between 0 and 100"))
		return
	}

	output := h.execute(&input)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(input *Input) *Output {
	set := BuildScenarios(input.LoanInputs, input.TopCustomerPercent, time.Now().UTC(), h.config.WaiverExpiry)

	h.logger.Info("scenarios built", map[string]interface{}{
		"dealId":             input.DealID,
		"baseViability":      set.BaseCase.Viability,
		"downsideViability":  set.Downside.Viability,
		"worstCaseViability": set.WorstCase.Viability,
		"breakevenEbitda":    set.Breakeven.EBITDARequired,
	})

	return &Output{DealID: input.DealID, ScenarioSet: *set}
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

// Execute exposes the scenario path for tests and internal callers.
func (h *Handler) Execute(input *Input) *Output {
	return h.execute(input)
}
