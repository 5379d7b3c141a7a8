// Package weightstore manages versioned scoring weight sets in Postgres with
// a Redis read-through cache. At most one weight set per scope is active;
// activation happens in a single transaction so readers never observe zero or
// two active rows for a scope.
package weightstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const activeCacheKeyPrefix = "weights:active:"

// Store provides access to the weight_sets table.
type Store struct {
	db       *sql.DB
	redis    *redis.Client
	logger   logger.Logger
	cacheTTL time.Duration
}

// New creates a Store. redisClient may be nil, in which case caching is
// skipped entirely.
func New(db *sql.DB, redisClient *redis.Client, log logger.Logger, cacheTTL time.Duration) *Store {
	return &Store{
		db:       db,
		redis:    redisClient,
		logger:   log,
		cacheTTL: cacheTTL,
	}
}

// Active returns the active weight set for the scope. Lookup order is Redis,
// then Postgres, then the global scope for workspace scopes, then the
// compiled-in defaults when no row exists anywhere. If legacy
// data left two active rows for a scope, the newest by created_at wins and the
// anomaly is logged.
func (s *Store) Active(ctx context.Context, scope string) (models.WeightSet, error) {
	if scope == "" {
		scope = models.ScopeGlobal
	}

	cacheKey := activeCacheKeyPrefix + scope
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var ws models.WeightSet
			if err := json.Unmarshal([]byte(cached), &ws); err == nil {
				return ws, nil
			}
			// Corrupted cache entry; fall through to the database
			s.redis.Del(ctx, cacheKey)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope, weights, is_active, created_at, sample_size
		FROM weight_sets
		WHERE scope = $1 AND is_active = true
		ORDER BY created_at DESC`, scope)
	if err != nil {
		return models.WeightSet{}, fmt.Errorf("query active weight set: %w", err)
	}
	defer rows.Close()

	var sets []models.WeightSet
	for rows.Next() {
		var ws models.WeightSet
		var weightsJSON []byte
		if err := rows.Scan(&ws.ID, &ws.Scope, &weightsJSON, &ws.IsActive, &ws.CreatedAt, &ws.SampleSize); err != nil {
			return models.WeightSet{}, fmt.Errorf("scan weight set: %w", err)
		}
		if err := json.Unmarshal(weightsJSON, &ws.Weights); err != nil {
			return models.WeightSet{}, fmt.Errorf("decode weights for set %s: %w", ws.ID, err)
		}
		sets = append(sets, ws)
	}
	if err := rows.Err(); err != nil {
		return models.WeightSet{}, fmt.Errorf("iterate weight sets: %w", err)
	}

	var active models.WeightSet
	switch len(sets) {
	case 0:
		if scope != models.ScopeGlobal {
			// Workspace without an override falls back to the global set
			return s.Active(ctx, models.ScopeGlobal)
		}
		s.logger.Info("No active weight set for scope, using defaults", map[string]interface{}{
			"scope": scope,
		})
		active = models.DefaultWeightSet(scope)
	case 1:
		active = sets[0]
	default:
		// Rows are ordered created_at DESC, so index 0 is the newest.
		active = sets[0]
		s.logger.Warn("Multiple active weight sets for scope, using newest", map[string]interface{}{
			"scope":       scope,
			"activeCount": len(sets),
			"chosenId":    active.ID,
		})
	}

	s.cacheActive(ctx, cacheKey, active)
	return active, nil
}

// SaveActive persists the weight set as the new active version for its scope.
// The insert and the deactivation of prior versions run in one transaction
// guarded by a per-scope advisory lock, so concurrent saves serialize and a
// reader sees either the old active row or the new one, never both.
func (s *Store) SaveActive(ctx context.Context, ws models.WeightSet) (models.WeightSet, error) {
	if ws.Scope == "" {
		ws.Scope = models.ScopeGlobal
	}
	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = time.Now().UTC()
	}
	ws.IsActive = true

	weightsJSON, err := json.Marshal(ws.Weights)
	if err != nil {
		return models.WeightSet{}, fmt.Errorf("encode weights: %w", err)
	}
	outcomeJSON, err := json.Marshal(ws.OutcomeCounts)
	if err != nil {
		return models.WeightSet{}, fmt.Errorf("encode outcome counts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.WeightSet{}, fmt.Errorf("begin weight activation tx: %w", err)
	}
	defer tx.Rollback()

	// Serialize activations per scope. The lock releases at commit/rollback.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ws.Scope); err != nil {
		return models.WeightSet{}, fmt.Errorf("acquire scope lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE weight_sets SET is_active = false
		WHERE scope = $1 AND is_active = true`, ws.Scope); err != nil {
		return models.WeightSet{}, fmt.Errorf("deactivate prior weight sets: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO weight_sets (id, scope, weights, is_active, created_at, sample_size, outcome_counts)
		VALUES ($1, $2, $3, true, $4, $5, $6)`,
		ws.ID, ws.Scope, weightsJSON, ws.CreatedAt, ws.SampleSize, outcomeJSON); err != nil {
		return models.WeightSet{}, fmt.Errorf("insert weight set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.WeightSet{}, fmt.Errorf("commit weight activation: %w", err)
	}

	s.invalidate(ctx, ws.Scope)
	return ws, nil
}

func (s *Store) cacheActive(ctx context.Context, key string, ws models.WeightSet) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(ws)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("Failed to cache active weight set", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *Store) invalidate(ctx context.Context, scope string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, activeCacheKeyPrefix+scope).Err(); err != nil {
		s.logger.Debug("Failed to invalidate weight cache", map[string]interface{}{
			"scope": scope,
			"error": err.Error(),
		})
	}
}
