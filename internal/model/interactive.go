package model

import "time"

// BrowserState is a snapshot of the page at a point in time, passed to the
// LLM so it can decide the next interactive step. A failed capture still
// produces a BrowserState, with CaptureError set and the rest left
// zero-valued, so the loop can proceed on a partial state rather than
// abort.
type BrowserState struct {
	URL          string    `json:"url"`
	DOM          string    `json:"dom"`
	Screenshot   string    `json:"screenshot,omitempty"`
	Viewport     Viewport  `json:"viewport"`
	CapturedAt   time.Time `json:"capturedAt"`
	CaptureError string    `json:"captureError,omitempty"`
}

// StepOutcome is the result of attempting one interactive action.
type StepOutcome struct {
	Success    bool           `json:"success"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int            `json:"durationMs"`
}

// InteractiveStep records one iteration of the InteractiveAgent's
// capture/prompt/execute/record loop.
type InteractiveStep struct {
	StepNumber      int          `json:"stepNumber"`
	BrowserState    BrowserState `json:"browserState"`
	Action          Step         `json:"action"`
	ExecutionResult StepOutcome  `json:"executionResult"`
	ProgressScore   float64      `json:"progressScore"`
	IsComplete      bool         `json:"isComplete"`
	Reasoning       string       `json:"reasoning"`
}

// Valid enforces the InteractiveAgent invariants: 0 ≤ progressScore ≤ 1.
func (s InteractiveStep) Valid() bool {
	return s.ProgressScore >= 0 && s.ProgressScore <= 1
}
