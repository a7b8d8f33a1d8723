package cache

import (
	"context"
	"sync"
	"time"

	"pagewatch.dev/core/internal/model"
)

// MemoryCache is the in-memory fallback used when no persistent store is
// configured. It implements the same Cache interface as PostgresCache but
// applies no default TTL: an entry put with a zero TTL (as Refresh does)
// persists until Invalidate or process restart, while a nonzero TTL sets an
// expiry that Get, CleanupExpired and Stats honor.
type MemoryCache struct {
	mu      sync.Mutex
	byID    map[int64]*model.Plan
	bySig   map[string]int64
	entries map[string]*entry
	nextID  int64
}

type entry struct {
	planID     int64
	hitCount   int64
	lastUsedAt time.Time
	expiresAt  time.Time
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		byID:    make(map[int64]*model.Plan),
		bySig:   make(map[string]int64),
		entries: make(map[string]*entry),
	}
}

func (c *MemoryCache) Get(_ context.Context, taskSignature string) (*model.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cacheKey := model.CacheKey(taskSignature)
	e, ok := c.entries[cacheKey]
	if !ok {
		return nil, nil
	}
	// MemoryCache applies no default TTL (§4.5), but honors the expiry
	// set by an explicit nonzero TTL passed to Put.
	if !e.expiresAt.IsZero() && e.expiresAt.Before(time.Now()) {
		return nil, nil
	}

	planID, ok := c.bySig[taskSignature]
	if !ok {
		return nil, nil
	}
	plan, ok := c.byID[planID]
	if !ok {
		return nil, nil
	}

	e.hitCount++
	e.lastUsedAt = time.Now()
	return clonePlan(plan), nil
}

func (c *MemoryCache) GetByID(_ context.Context, planID int64) (*model.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan, ok := c.byID[planID]
	if !ok {
		return nil, nil
	}
	return clonePlan(plan), nil
}

func (c *MemoryCache) Put(_ context.Context, plan *model.Plan, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(plan, ttl)
	return nil
}

func (c *MemoryCache) Refresh(_ context.Context, taskSignature string, plan *model.Plan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan.TaskSignature = taskSignature
	c.put(plan, 0)
	return nil
}

func (c *MemoryCache) put(plan *model.Plan, ttl time.Duration) {
	if plan.ID == 0 {
		c.nextID++
		plan.ID = c.nextID
	}
	c.byID[plan.ID] = clonePlan(plan)
	c.bySig[plan.TaskSignature] = plan.ID

	cacheKey := model.CacheKey(plan.TaskSignature)
	var expiresAt time.Time
	if ttl != 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.entries[cacheKey] = &entry{planID: plan.ID, lastUsedAt: time.Now(), expiresAt: expiresAt}
}

func (c *MemoryCache) Invalidate(_ context.Context, taskSignature string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, model.CacheKey(taskSignature))
	delete(c.bySig, taskSignature)
	return nil
}

func (c *MemoryCache) CleanupExpired(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && e.expiresAt.Before(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (c *MemoryCache) Stats(_ context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	stats := Stats{Total: len(c.entries)}
	var totalHits int64
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && e.expiresAt.Before(now) {
			stats.Expired++
		}
		totalHits += e.hitCount
		stats.Top = append(stats.Top, TopEntry{CacheKey: key, HitCount: e.hitCount})
	}
	if stats.Total > 0 {
		stats.HitRate = float64(totalHits) / float64(stats.Total)
	}
	return stats, nil
}

func clonePlan(plan *model.Plan) *model.Plan {
	cp := *plan
	cp.Steps = append([]model.Step(nil), plan.Steps...)
	return &cp
}
