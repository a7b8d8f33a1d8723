package agent

import (
	"log/slog"
	"strconv"
	"time"

	"pagewatch.dev/core/internal/model"
)

// promoteTrace maps a successful interactive run into a reusable Plan, so
// future tasks with the same signature can replay it instead of calling
// the LLM step by step again.
func promoteTrace(in model.TaskInput, steps []model.InteractiveStep) *model.Plan {
	if len(steps) == 0 {
		return nil
	}

	planSteps := make([]model.Step, 0, len(steps))
	var totalDurationMs int
	for i, step := range steps {
		planSteps = append(planSteps, model.Step{
			ID:       stepID(i + 1),
			Type:     step.Action.Type,
			Selector: step.Action.Selector,
			Value:    step.Action.Value,
			WaitMs:   step.Action.WaitMs,
		})
		totalDurationMs += step.ExecutionResult.DurationMs
	}

	signature, err := model.TaskSignature(in.Instruction, in.URL)
	if err != nil {
		slog.Warn("trace promotion: failed to compute task signature", "error", err)
	}

	last := steps[len(steps)-1]

	return &model.Plan{
		TaskSignature: signature,
		Instruction:   in.Instruction,
		URL:           in.URL,
		Steps:         planSteps,
		Validation: model.Validation{
			SuccessCriteria: []string{"All steps executed successfully"},
			FailureCriteria: []string{"Any step failed with error"},
		},
		Metadata: model.PlanMetadata{
			CreatedAt:           time.Now(),
			Confidence:          last.ProgressScore,
			EstimatedDurationMs: totalDurationMs,
		},
	}
}

func stepID(n int) string {
	return "step-" + strconv.Itoa(n)
}
