// Package cache stores and retrieves generated Plans keyed by task
// signature, behind one interface shared by a durable Postgres-backed
// implementation and an in-memory fallback. The orchestrator never knows
// which backend is active.
package cache

import (
	"context"
	"time"

	"pagewatch.dev/core/internal/model"
)

// Stats summarizes the cache's current contents for observability.
type Stats struct {
	Total   int
	Expired int
	HitRate float64
	Top     []TopEntry
}

// TopEntry is one row of the cache's most-hit plans.
type TopEntry struct {
	CacheKey string
	HitCount int64
}

// Cache is the contract every backend implements. All reads return
// (nil, nil) on a miss; a backend error is logged once by the
// implementation and also collapses to (nil, nil), per §4.5's "all reads
// return null on backend error" failure semantics. Writes may swallow
// errors, except Refresh, which must surface them to the caller.
type Cache interface {
	Get(ctx context.Context, taskSignature string) (*model.Plan, error)
	GetByID(ctx context.Context, planID int64) (*model.Plan, error)
	Put(ctx context.Context, plan *model.Plan, ttl time.Duration) error
	Invalidate(ctx context.Context, taskSignature string) error
	CleanupExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Refresh(ctx context.Context, taskSignature string, plan *model.Plan) error
}

// New selects the durable backend when persistentCacheEnabled is true,
// otherwise the in-memory fallback. Callers typically pass
// config.Config.UsePersistentCache() for persistentCacheEnabled.
func New(persistentCacheEnabled bool, postgres *PostgresCache) Cache {
	if persistentCacheEnabled && postgres != nil {
		return postgres
	}
	return NewMemoryCache()
}
