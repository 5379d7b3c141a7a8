// internal/workers/lending/calculate-loan-structure/handler.go
package calculateloanstructure

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	cerrors "dealflow-workers/internal/common/errors"
	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "calculate-loan-structure"

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

	if err := validateLoanRequest(job.Variables); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(cerrors.ErrCodeValidationFailed)).Inc()
		h.errHandler.HandleJobError(context.Background(), client, job, cerrors.NewValidationFailedError(err.Error()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(cerrors.ErrCodeParseError)).Inc()
		h.errHandler.HandleJobError(context.Background(), client, job, cerrors.NewParseError(err.Error()))
		return
	}

	output := h.execute(&input)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

// execute never fails: the calculator reports problems as eligibility
// findings, not errors.
func (h *Handler) execute(input *Input) *Output {
	outputs := Calculate(input.LoanInputs, time.Now().UTC(), h.config.WaiverExpiry)

	metrics.LoanCalculations.WithLabelValues(strconv.FormatBool(outputs.SBAEligible)).Inc()
	h.logger.Info("loan structure calculated", map[string]interface{}{
		"dealId":      input.DealID,
		"loanAmount":  outputs.SBALoanAmount,
		"dscr":        outputs.DSCR,
		"sbaEligible": outputs.SBAEligible,
		"issues":      len(outputs.SBAEligibilityIssues),
		"warnings":    len(outputs.SBAEligibilityWarnings),
	})

	return &Output{DealID: input.DealID, LoanOutputs: *outputs}
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

// Execute exposes the calculation path for tests and internal callers.
func (h *Handler) Execute(input *Input) *Output {
	return h.execute(input)
}
