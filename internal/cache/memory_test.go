package cache

import (
	"context"
	"testing"
	"time"

	"pagewatch.dev/core/internal/model"
)

func samplePlan(taskSignature string) *model.Plan {
	return &model.Plan{
		TaskSignature: taskSignature,
		Instruction:   "check price",
		URL:           "https://example.com",
		Steps: []model.Step{
			{ID: "1", Type: model.StepNavigate, Description: "go", URL: "https://example.com"},
		},
	}
}

func TestMemoryCachePutThenGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	plan := samplePlan("sig-1")

	if err := c.Put(ctx, plan, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := c.Get(ctx, "sig-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if got.Instruction != "check price" {
		t.Errorf("Instruction = %q, want %q", got.Instruction, "check price")
	}
}

func TestMemoryCacheMissReturnsNilNil(t *testing.T) {
	c := NewMemoryCache()
	got, err := c.Get(context.Background(), "missing")
	if err != nil || got != nil {
		t.Errorf("Get(missing) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestMemoryCacheInvalidateDeletesEntryKeepsPlanByID(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	plan := samplePlan("sig-2")
	_ = c.Put(ctx, plan, time.Hour)

	if err := c.Invalidate(ctx, "sig-2"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	got, _ := c.Get(ctx, "sig-2")
	if got != nil {
		t.Error("expected cache miss after invalidate")
	}

	byID, err := c.GetByID(ctx, plan.ID)
	if err != nil || byID == nil {
		t.Errorf("expected plan row to survive invalidate, got (%v, %v)", byID, err)
	}
}

func TestMemoryCacheExpiredEntryMisses(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	plan := samplePlan("sig-3")
	_ = c.Put(ctx, plan, -time.Hour)

	got, err := c.Get(ctx, "sig-3")
	if err != nil || got != nil {
		t.Errorf("expected expired entry to miss, got (%v, %v)", got, err)
	}
}

func TestMemoryCacheHitIncrementsStats(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	plan := samplePlan("sig-4")
	_ = c.Put(ctx, plan, time.Hour)
	_, _ = c.Get(ctx, "sig-4")
	_, _ = c.Get(ctx, "sig-4")

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("Total = %d, want 1", stats.Total)
	}
	if len(stats.Top) != 1 || stats.Top[0].HitCount != 2 {
		t.Errorf("expected one entry with 2 hits, got %+v", stats.Top)
	}
}

func TestMemoryCacheCleanupExpired(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	_ = c.Put(ctx, samplePlan("sig-5"), -time.Hour)
	_ = c.Put(ctx, samplePlan("sig-6"), time.Hour)

	removed, err := c.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}

func TestMemoryCacheGetReturnsCloneNotSharedSlice(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	plan := samplePlan("sig-7")
	_ = c.Put(ctx, plan, time.Hour)

	got, _ := c.Get(ctx, "sig-7")
	got.Steps[0].Description = "mutated"

	got2, _ := c.Get(ctx, "sig-7")
	if got2.Steps[0].Description == "mutated" {
		t.Error("Get should return an independent copy of the cached plan")
	}
}
