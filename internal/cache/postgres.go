package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"pagewatch.dev/core/common/id"
	"pagewatch.dev/core/core/db"
	"pagewatch.dev/core/core/db/sqlc"
	"pagewatch.dev/core/internal/model"
)

// PostgresCache is the durable backend: plans live in execution_plans,
// cache accounting (hit count, expiry) lives in the separate plan_cache
// lookaside table per §4.5.
type PostgresCache struct {
	db *db.DB
}

// NewPostgresCache wraps an already-connected DB.
func NewPostgresCache(database *db.DB) *PostgresCache {
	return &PostgresCache{db: database}
}

func (c *PostgresCache) Get(ctx context.Context, taskSignature string) (*model.Plan, error) {
	q := c.db.Queries()

	row, err := q.GetActiveExecutionPlanBySignature(ctx, taskSignature)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		slog.ErrorContext(ctx, "plan cache get failed", "error", err)
		return nil, nil
	}

	cacheKey := model.CacheKey(taskSignature)
	entry, err := q.GetPlanCacheByKey(ctx, cacheKey)
	if err != nil {
		if err != pgx.ErrNoRows {
			slog.ErrorContext(ctx, "plan cache entry lookup failed", "error", err)
		}
		// No cache entry — missing, invalidated, or swept by
		// CleanupExpired — is a miss, same as an expired one.
		return nil, nil
	}
	if !entry.ExpiresAt.After(time.Now()) {
		return nil, nil
	}

	plan, err := decodePlan(row)
	if err != nil {
		slog.ErrorContext(ctx, "plan cache decode failed", "error", err)
		return nil, nil
	}

	if tErr := q.TouchPlanCacheHit(ctx, cacheKey); tErr != nil {
		slog.WarnContext(ctx, "plan cache hit-count update failed", "error", tErr)
	}

	return plan, nil
}

func (c *PostgresCache) GetByID(ctx context.Context, planID int64) (*model.Plan, error) {
	row, err := c.db.Queries().GetExecutionPlanByID(ctx, planID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		slog.ErrorContext(ctx, "plan cache getById failed", "error", err)
		return nil, nil
	}
	plan, err := decodePlan(row)
	if err != nil {
		slog.ErrorContext(ctx, "plan cache decode failed", "error", err)
		return nil, nil
	}
	return plan, nil
}

func (c *PostgresCache) Put(ctx context.Context, plan *model.Plan, ttl time.Duration) error {
	return c.put(ctx, plan, ttl, false)
}

func (c *PostgresCache) Refresh(ctx context.Context, taskSignature string, plan *model.Plan) error {
	plan.TaskSignature = taskSignature
	return c.put(ctx, plan, ttlOrDefault(0), true)
}

func (c *PostgresCache) put(ctx context.Context, plan *model.Plan, ttl time.Duration, surfaceErrors bool) error {
	encoded, err := json.Marshal(plan)
	if err != nil {
		if surfaceErrors {
			return model.NewCacheBackendError("failed to encode plan", err)
		}
		slog.ErrorContext(ctx, "plan cache encode failed", "error", err)
		return nil
	}

	q := c.db.Queries()
	// A fresh id is generated on every call; on the ON CONFLICT update path
	// it is discarded in favor of the existing row's id.
	row, err := q.UpsertExecutionPlan(ctx, sqlc.UpsertExecutionPlanParams{
		ID:            id.New(),
		TaskSignature: plan.TaskSignature,
		Instruction:   plan.Instruction,
		Url:           plan.URL,
		Plan:          encoded,
	})
	if err != nil {
		if surfaceErrors {
			return model.NewCacheBackendError("failed to upsert plan", err)
		}
		slog.ErrorContext(ctx, "plan cache upsert failed", "error", err)
		return nil
	}

	expiresAt := time.Now().Add(ttlOrDefault(ttl))
	_, err = q.UpsertPlanCache(ctx, sqlc.UpsertPlanCacheParams{
		ID:        id.New(),
		CacheKey:  model.CacheKey(plan.TaskSignature),
		PlanID:    row.ID,
		ExpiresAt: pgtype.Timestamptz{Time: expiresAt, Valid: true},
	})
	if err != nil {
		if surfaceErrors {
			return model.NewCacheBackendError("failed to upsert cache entry", err)
		}
		slog.ErrorContext(ctx, "plan cache entry upsert failed", "error", err)
	}
	return nil
}

func (c *PostgresCache) Invalidate(ctx context.Context, taskSignature string) error {
	// Invalidation deletes the cache entry but keeps the plan row, so a
	// future regeneration still has the prior plan's history available.
	cacheKey := model.CacheKey(taskSignature)
	if _, err := c.db.Queries().DeletePlanCacheByKey(ctx, cacheKey); err != nil {
		slog.ErrorContext(ctx, "plan cache invalidate failed", "error", err)
	}
	return nil
}

func (c *PostgresCache) CleanupExpired(ctx context.Context) (int, error) {
	n, err := c.db.Queries().DeleteExpiredPlanCache(ctx)
	if err != nil {
		return 0, model.NewCacheBackendError("failed to clean up expired cache entries", err)
	}
	return int(n), nil
}

func (c *PostgresCache) Stats(ctx context.Context) (Stats, error) {
	total, err := c.db.Queries().CountPlanCache(ctx)
	if err != nil {
		return Stats{}, model.NewCacheBackendError("failed to count cache entries", err)
	}
	return Stats{Total: int(total)}, nil
}

func decodePlan(row sqlc.ExecutionPlan) (*model.Plan, error) {
	var plan model.Plan
	if err := json.Unmarshal(row.Plan, &plan); err != nil {
		return nil, err
	}
	plan.ID = row.ID
	plan.TaskSignature = row.TaskSignature
	plan.Instruction = row.Instruction
	plan.URL = row.Url
	return &plan, nil
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Duration(model.DefaultCacheTTLDays) * 24 * time.Hour
	}
	return ttl
}
