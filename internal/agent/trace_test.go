package agent

import (
	"testing"

	"pagewatch.dev/core/internal/model"
)

func TestPromoteTraceMapsActionsAndAssignsSequentialIDs(t *testing.T) {
	steps := []model.InteractiveStep{
		{
			Action:          model.Step{Type: model.StepNavigate, URL: "https://example.com"},
			ExecutionResult: model.StepOutcome{DurationMs: 100},
			ProgressScore:   0.2,
		},
		{
			Action:          model.Step{Type: model.StepExtract, Selector: ".price"},
			ExecutionResult: model.StepOutcome{DurationMs: 50},
			ProgressScore:   0.9,
		},
	}

	plan := promoteTrace(model.TaskInput{Instruction: "check price", URL: "https://example.com"}, steps)

	if plan == nil {
		t.Fatal("expected a promoted plan")
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("plan.Steps = %d, want 2", len(plan.Steps))
	}
	if plan.Steps[0].ID != "step-1" || plan.Steps[1].ID != "step-2" {
		t.Errorf("step ids = %q, %q, want step-1, step-2", plan.Steps[0].ID, plan.Steps[1].ID)
	}
	if plan.Metadata.Confidence != 0.9 {
		t.Errorf("confidence = %v, want last step's progress score 0.9", plan.Metadata.Confidence)
	}
	if plan.Metadata.EstimatedDurationMs != 150 {
		t.Errorf("estimatedDurationMs = %d, want 150", plan.Metadata.EstimatedDurationMs)
	}
	if len(plan.Validation.SuccessCriteria) != 1 || len(plan.Validation.FailureCriteria) != 1 {
		t.Errorf("validation = %+v, want one fixed criterion each", plan.Validation)
	}
	if plan.TaskSignature == "" {
		t.Error("expected a non-empty task signature")
	}
}

func TestPromoteTraceNilForEmptyHistory(t *testing.T) {
	if plan := promoteTrace(model.TaskInput{}, nil); plan != nil {
		t.Errorf("expected nil plan for empty history, got %+v", plan)
	}
}
