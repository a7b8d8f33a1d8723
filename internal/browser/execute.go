package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	"pagewatch.dev/core/internal/model"
)

// ExecuteOptions tunes a single Execute call.
type ExecuteOptions struct {
	SkipCleanup       bool
	ScreenshotEnabled bool
}

// Execute replays every step of a Plan in order, honoring per-step retry,
// optional-vs-mandatory failure handling, conditional skipping, and
// post-execution success/failure criteria validation.
func (s *Session) Execute(ctx context.Context, plan model.Plan, opts ExecuteOptions) model.ExecutionResult {
	start := time.Now()
	result := model.ExecutionResult{
		PlanID: plan.ID,
		Logs:   []string{},
		Metrics: model.ExecutionMetrics{
			StepsTotal: len(plan.Steps),
		},
	}

	for _, step := range plan.Steps {
		if step.Condition != "" && !s.evalConditionTruthy(ctx, step.Condition) {
			result.Logs = append(result.Logs, "skipped step "+step.ID+": condition false")
			continue
		}

		outcome, retries := s.executeWithRetry(ctx, step, plan.ErrorHandling)
		result.Metrics.RetryCount += retries

		if outcome.Success {
			result.Metrics.StepsCompleted++
			if step.Type == model.StepScreenshot && opts.ScreenshotEnabled {
				if shot, ok := outcome.Result["screenshot"].(string); ok {
					result.Screenshots = append(result.Screenshots, shot)
				}
			}
			mergeExtracted(&result, step, outcome)
			continue
		}

		if step.Optional {
			result.Logs = append(result.Logs, "optional step "+step.ID+" failed after retries: "+outcome.Error)
			continue
		}

		result.Status = model.ExecutionStatusFailed
		result.Error = &model.ExecutionError{
			Message: outcome.Error,
			Step:    step.ID,
		}
		result.Metrics.ExecutionTimeMs = int(time.Since(start).Milliseconds())
		return result
	}

	if err := s.validate(ctx, plan.Validation); err != nil {
		result.Status = model.ExecutionStatusFailed
		result.Error = &model.ExecutionError{Message: err.Error()}
		result.Metrics.ExecutionTimeMs = int(time.Since(start).Milliseconds())
		return result
	}

	result.Status = model.ExecutionStatusSuccess
	result.Metrics.ExecutionTimeMs = int(time.Since(start).Milliseconds())
	return result
}

// executeWithRetry retries a failing step with a 1000×attempt ms backoff,
// up to the step's own retry budget or the plan-wide default, whichever
// applies.
func (s *Session) executeWithRetry(ctx context.Context, step model.Step, errHandling model.ErrorHandling) (model.StepOutcome, int) {
	maxAttempts := step.EffectiveRetries()
	if errHandling.RetryCount > maxAttempts {
		maxAttempts = errHandling.RetryCount
	}

	var outcome model.StepOutcome
	retries := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		outcome, _ = s.ExecuteStep(ctx, step)
		if outcome.Success {
			return outcome, retries
		}
		retries++
		if attempt < maxAttempts {
			time.Sleep(backoff(attempt))
		}
	}
	return outcome, retries
}

func backoff(attempt int) time.Duration {
	return time.Duration(1000*attempt) * time.Millisecond
}

// evalConditionTruthy evaluates a step's condition expression in page
// context; evaluation errors are treated as falsy (the step is skipped,
// not failed).
func (s *Session) evalConditionTruthy(ctx context.Context, condition string) bool {
	var truthy bool
	if err := chromedp.Run(s.withTimeout(ctx), chromedp.Evaluate("Boolean("+condition+")", &truthy)); err != nil {
		return false
	}
	return truthy
}

// validate checks every successCriteria evaluates truthy and every
// failureCriteria evaluates falsy. Failure-criterion evaluation errors are
// ignored (treated as falsy), matching the "only block on affirmative
// failure" rule.
func (s *Session) validate(ctx context.Context, v model.Validation) error {
	for _, criterion := range v.SuccessCriteria {
		var truthy bool
		if err := chromedp.Run(s.withTimeout(ctx), chromedp.Evaluate("Boolean("+criterion+")", &truthy)); err != nil || !truthy {
			return model.NewBrowserExecutionError("validation failed: "+criterion, "", err)
		}
	}
	for _, criterion := range v.FailureCriteria {
		var truthy bool
		if err := chromedp.Run(s.withTimeout(ctx), chromedp.Evaluate("Boolean("+criterion+")", &truthy)); err == nil && truthy {
			return model.NewBrowserExecutionError("validation failed: "+criterion, "", nil)
		}
	}
	return nil
}

func mergeExtracted(result *model.ExecutionResult, step model.Step, outcome model.StepOutcome) {
	if step.Type != model.StepExtract || outcome.Result == nil {
		return
	}
	if result.ExtractedData == nil {
		result.ExtractedData = make(map[string]any)
	}
	key := step.ID
	if step.Description != "" {
		key = step.Description
	}
	result.ExtractedData[key] = outcome.Result["value"]
}
