package model

import "time"

// ErrorHandling configures retry/fallback behavior for an entire Plan.
type ErrorHandling struct {
	RetryCount    int    `json:"retryCount"`
	TimeoutMs     int    `json:"timeoutMs"`
	FallbackSteps []Step `json:"fallbackSteps,omitempty"`
}

// Validation holds the boolean page-context expressions that decide
// whether a replay succeeded.
type Validation struct {
	SuccessCriteria []string `json:"successCriteria"`
	FailureCriteria []string `json:"failureCriteria"`
}

// PlanMetadata records provenance and the planner's own confidence.
type PlanMetadata struct {
	CreatedAt          time.Time `json:"createdAt"`
	ModelID            string    `json:"modelId"`
	Confidence         float64   `json:"confidence"`
	EstimatedDurationMs int      `json:"estimatedDurationMs"`
}

// Plan is a reusable, cacheable recipe of Steps for a given task signature.
type Plan struct {
	ID              int64         `json:"id"`
	TaskSignature   string        `json:"taskSignature"`
	Instruction     string        `json:"instruction"`
	URL             string        `json:"url"`
	Steps           []Step        `json:"steps"`
	ExpectedResults []string      `json:"expectedResults"`
	ErrorHandling   ErrorHandling `json:"errorHandling"`
	Validation      Validation    `json:"validation"`
	Metadata        PlanMetadata  `json:"metadata"`
}

// Validate enforces invariant (i): Plan.steps is non-empty, and that every
// step itself validates.
func (p Plan) Validate() error {
	if len(p.Steps) == 0 {
		return NewPlanGenerationError("plan has no steps", nil)
	}
	for _, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return NewPlanGenerationError("invalid step in generated plan", err)
		}
	}
	return nil
}

// CacheEntry is the lookaside index row over a Plan: one per task
// signature, tracking hit accounting and expiry independent of plan
// content.
type CacheEntry struct {
	CacheKey   string    `json:"cacheKey"`
	PlanID     int64     `json:"planId"`
	HitCount   int64     `json:"hitCount"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the entry is no longer valid for a hit,
// enforcing invariant (iv): CacheEntry.expiresAt > now for a hit.
func (c CacheEntry) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// DefaultCacheTTLDays is used when CACHE_TTL_DAYS is unset.
const DefaultCacheTTLDays = 7
