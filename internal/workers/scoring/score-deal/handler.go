// internal/workers/scoring/score-deal/handler.go
package scoredeal

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
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "score-deal"

	dealCacheKeyPrefix = "deal:record:"
)

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	weights    *weightstore.Store
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, weights *weightstore.Store, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redisClient,
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
		h.recordFailure(cerrors.ErrCodeParseError)
		h.errHandler.HandleJobError(context.Background(), client, job, cerrors.NewParseError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.recordFailure(errorCode(err))
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	deal := input.Deal
	if deal == nil && input.DealID != "" {
		fetched, err := h.getDeal(ctx, input.DealID)
		if err != nil {
			return nil, err
		}
		deal = fetched
	}

	components := input.Components
	if len(components) == 0 {
		if deal == nil {
			return nil, cerrors.NewValidationFailedError("either dealId, deal, or components must be provided")
		}
		components = ExtractComponents(*deal)
	}

	scope := input.Scope
	if scope == "" && deal != nil {
		scope = deal.WorkspaceID
	}

	ws, err := h.weights.Active(ctx, scope)
	if err != nil {
		return nil, cerrors.NewWeightsFetchFailedError(scope, err)
	}

	result := Score(components, ws)

	if deal != nil && deal.ID != "" {
		if err := h.persistScore(ctx, deal.ID, result); err != nil {
			return nil, err
		}
	}

	metrics.DealsScored.WithLabelValues(result.Tier).Inc()
	h.logger.Info("deal scored", map[string]interface{}{
		"dealId":      input.DealID,
		"scope":       scope,
		"tier":        result.Tier,
		"score":       result.Score,
		"confidence":  result.Confidence,
		"weightSetId": ws.ID,
	})

	return &Output{
		DealID:      input.DealID,
		Tier:        result.Tier,
		Score:       result.Score,
		Confidence:  result.Confidence,
		Breakdown:   result.Breakdown,
		Components:  result.Components,
		WeightSetID: ws.ID,
	}, nil
}

func (h *Handler) getDeal(ctx context.Context, dealID string) (*models.DealRecord, error) {
	cacheKey := dealCacheKeyPrefix + dealID
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var deal models.DealRecord
			if err := json.Unmarshal([]byte(val), &deal); err == nil {
				return &deal, nil
			}
		}
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, revenue, ebitda, confidence_label, tier_hint, red_flags, sba_eligible
		FROM deals WHERE id = $1`, dealID)

	var deal models.DealRecord
	var workspaceID, confidenceLabel, tierHint sql.NullString
	var revenue, ebitda sql.NullFloat64
	var sbaEligible sql.NullBool
	var redFlags []byte

	err := row.Scan(&deal.ID, &workspaceID, &revenue, &ebitda, &confidenceLabel, &tierHint, &redFlags, &sbaEligible)
	if err == sql.ErrNoRows {
		return nil, cerrors.NewDealNotFoundError(dealID)
	}
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("fetch-deal", err)
	}

	deal.WorkspaceID = workspaceID.String
	deal.Signals.ConfidenceLabel = confidenceLabel.String
	deal.Signals.TierHint = tierHint.String
	if revenue.Valid {
		deal.Financials.Revenue = &revenue.Float64
	}
	if ebitda.Valid {
		deal.Financials.EBITDA = &ebitda.Float64
	}
	if sbaEligible.Valid {
		deal.Signals.SBAEligible = &sbaEligible.Bool
	}
	if len(redFlags) > 0 {
		if err := json.Unmarshal(redFlags, &deal.Signals.RedFlags); err != nil {
			deal.Signals.RedFlags = nil
		}
	}

	if h.redis != nil {
		if data, err := json.Marshal(deal); err == nil {
			h.redis.Set(ctx, cacheKey, data, h.config.DealCacheTTL)
		}
	}

	return &deal, nil
}

func (h *Handler) persistScore(ctx context.Context, dealID string, result *ScoreResult) error {
	componentsJSON, err := json.Marshal(result.Components)
	if err != nil {
		return cerrors.NewDatabaseUpdateFailedError(err)
	}

	res, err := h.db.ExecContext(ctx, `
		UPDATE deals SET tier = $1, score = $2, components = $3, updated_at = NOW()
		WHERE id = $4`,
		result.Tier, result.Score, componentsJSON, dealID)
	if err != nil {
		return cerrors.NewDatabaseUpdateFailedError(err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return cerrors.NewDealNotFoundError(dealID)
	}

	// The cached record is stale once tier/score change
	if h.redis != nil {
		h.redis.Del(ctx, dealCacheKeyPrefix+dealID)
	}
	return nil
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

func (h *Handler) recordFailure(code cerrors.ErrorCode) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
}

func errorCode(err error) cerrors.ErrorCode {
	if stdErr, ok := err.(*cerrors.StandardError); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// Execute exposes the core scoring path for tests and internal callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
