package orchestrator

import (
	"context"
	"testing"

	"pagewatch.dev/core/internal/cache"
	"pagewatch.dev/core/internal/model"
)

func TestHandleRejectsPlanOnlyAndExecutionOnly(t *testing.T) {
	o := New(Deps{})
	out := o.Handle(context.Background(), model.TaskInput{
		Instruction: "check price",
		URL:         "https://example.com",
		Options:     &model.TaskOptions{PlanOnly: true, ExecutionOnly: true},
	})

	if out.Error == "" {
		t.Error("expected an error rejecting planOnly+executionOnly")
	}
	if out.Status != model.ExecutionStatusError {
		t.Errorf("status = %v, want error", out.Status)
	}
}

func TestHandleExecutionOnlyWithoutCachedPlanReportsNoCachedPlan(t *testing.T) {
	o := New(Deps{Cache: cache.NewMemoryCache()})
	out := o.Handle(context.Background(), model.TaskInput{
		Instruction: "check price",
		URL:         "https://example.com",
		Options:     &model.TaskOptions{ExecutionOnly: true},
	})

	if out.Error != "NO_CACHED_PLAN" {
		t.Errorf("error = %q, want NO_CACHED_PLAN", out.Error)
	}
}

func TestShouldRegenerateMatchesKnownTriggerSubstring(t *testing.T) {
	result := model.ExecutionResult{
		Status: model.ExecutionStatusFailed,
		Error:  &model.ExecutionError{Message: "waitForSelector timed out after 10s"},
	}
	if !shouldRegenerate(result) {
		t.Error("expected regeneration trigger on a message containing 'waitforselector'")
	}
}

func TestShouldRegenerateMatchesSelectorSubstring(t *testing.T) {
	result := model.ExecutionResult{
		Status: model.ExecutionStatusFailed,
		Error:  &model.ExecutionError{Message: "could not find selector .price-old on page"},
	}
	if !shouldRegenerate(result) {
		t.Error("expected regeneration trigger on 'selector' substring")
	}
}

func TestShouldRegenerateFalseOnUnrelatedFailure(t *testing.T) {
	result := model.ExecutionResult{
		Status: model.ExecutionStatusFailed,
		Error:  &model.ExecutionError{Message: "validation criteria not met"},
	}
	if shouldRegenerate(result) {
		t.Error("did not expect regeneration trigger on unrelated failure message")
	}
}

func TestShouldRegenerateFalseOnSuccess(t *testing.T) {
	result := model.ExecutionResult{Status: model.ExecutionStatusSuccess}
	if shouldRegenerate(result) {
		t.Error("did not expect regeneration trigger on a successful result")
	}
}

func TestShouldRegenerateChecksLogsToo(t *testing.T) {
	result := model.ExecutionResult{
		Status: model.ExecutionStatusFailed,
		Error:  &model.ExecutionError{Message: "step failed"},
		Logs:   []string{"navigated ok", "element not found after retry"},
	}
	if !shouldRegenerate(result) {
		t.Error("expected regeneration trigger from logs, not just the error message")
	}
}

func TestToPlanDetailsProjectsStepSummaries(t *testing.T) {
	plan := &model.Plan{
		Steps: []model.Step{
			{ID: "step-1", Type: model.StepNavigate, Description: "go to page", URL: "https://example.com"},
			{ID: "step-2", Type: model.StepExtract, Description: "read price", Selector: ".price"},
		},
		Metadata: model.PlanMetadata{Confidence: 0.8, EstimatedDurationMs: 3200},
	}

	details := toPlanDetails(plan)

	if len(details.Steps) != 2 {
		t.Fatalf("details.Steps = %d, want 2", len(details.Steps))
	}
	if details.Steps[1].Selector != ".price" {
		t.Errorf("step 2 selector = %q, want .price", details.Steps[1].Selector)
	}
	if details.Confidence != 0.8 || details.EstimatedDurationMs != 3200 {
		t.Errorf("details = %+v, want confidence 0.8 / duration 3200", details)
	}
}
