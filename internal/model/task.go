// Package model holds the core domain types shared across the planner,
// browser, cache, agent, orchestrator, and change-detection packages.
package model

// ExecutionMode selects how a TaskInput is carried out.
type ExecutionMode string

const (
	ExecutionModePlan        ExecutionMode = "plan"
	ExecutionModeInteractive ExecutionMode = "interactive"
	ExecutionModeAuto        ExecutionMode = "auto"
)

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int `json:"w"`
	Height int `json:"h"`
}

// TaskOptions enumerates every option a TaskInput may carry.
type TaskOptions struct {
	ExecutionMode     ExecutionMode     `json:"executionMode,omitempty"`
	PlanOnly          bool              `json:"planOnly,omitempty"`
	ExecutionOnly     bool              `json:"executionOnly,omitempty"`
	PlanID            *int64            `json:"planId,omitempty"`
	ForceNewPlan      bool              `json:"forceNewPlan,omitempty"`
	TimeoutMs         int               `json:"timeoutMs,omitempty"`
	ScreenshotEnabled bool              `json:"screenshotEnabled,omitempty"`
	Viewport          *Viewport         `json:"viewport,omitempty"`
	UserAgent         string            `json:"userAgent,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"`
}

// TaskInput is the single structure the core consumes, whether invoked
// directly or unwrapped from an API-gateway-style envelope.
type TaskInput struct {
	Instruction string       `json:"instruction"`
	URL         string       `json:"url"`
	TaskID      *int64       `json:"taskId,omitempty"`
	Options     *TaskOptions `json:"options,omitempty"`
}

// Mode returns the effective execution mode, defaulting to interactive.
func (t TaskInput) Mode() ExecutionMode {
	if t.Options == nil || t.Options.ExecutionMode == "" {
		return ExecutionModeInteractive
	}
	return t.Options.ExecutionMode
}
