// Package agent implements the InteractiveAgent: the closed
// capture/prompt/execute/record loop that drives a browser session
// step-by-step when no cached plan exists yet.
package agent

import (
	"context"
	"fmt"
	"time"

	"pagewatch.dev/core/common/llm"
	"pagewatch.dev/core/internal/browser"
	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/prompt"
)

// Config holds the loop's tunable defaults.
type Config struct {
	MaxSteps           int
	ProgressThreshold  float64
	StagnationLimit    int
	ScreenshotsEnabled bool
	Browser            browser.Config
}

// DefaultConfig returns §4.6's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxSteps:           10,
		ProgressThreshold:  0.10,
		StagnationLimit:    3,
		ScreenshotsEnabled: true,
	}
}

// Metadata summarizes how the loop ended.
type Metadata struct {
	MaxStepsReached      bool
	StagnationDetected   bool
	AverageProgressScore float64
}

// Output is executeInteractively's full result.
type Output struct {
	Success             bool
	Steps               []model.InteractiveStep
	GeneratedPlan        *model.Plan
	EscalatedToHuman     bool
	EscalationReason     string
	ProgressImprovement *float64
	TotalDurationMs      int
	ExtractedData        map[string]any
	Usage                *llm.Usage
	Metadata              Metadata
}

// Agent drives the interactive loop against one LLMClient and PromptStore.
type Agent struct {
	client llm.Client
	prompt *prompt.Store
	cfg    Config
}

// New returns an Agent bound to the given LLMClient, PromptStore, and
// loop configuration.
func New(client llm.Client, store *prompt.Store, cfg Config) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultConfig().MaxSteps
	}
	if cfg.ProgressThreshold <= 0 {
		cfg.ProgressThreshold = DefaultConfig().ProgressThreshold
	}
	if cfg.StagnationLimit <= 0 {
		cfg.StagnationLimit = DefaultConfig().StagnationLimit
	}
	return &Agent{client: client, prompt: store, cfg: cfg}
}

// ExecuteInteractively runs the capture/prompt/execute/record loop
// described by §4.6 against a fresh BrowserSession owned for the
// duration of this call.
func (a *Agent) ExecuteInteractively(ctx context.Context, in model.TaskInput) Output {
	start := time.Now()

	session := browser.NewSession()
	if err := session.Start(ctx, a.cfg.Browser); err != nil {
		return Output{
			EscalatedToHuman: true,
			EscalationReason: "unhandled exception: " + err.Error(),
			TotalDurationMs:  int(time.Since(start).Milliseconds()),
		}
	}
	defer session.Stop()

	out := a.runLoop(ctx, session, in)
	out.TotalDurationMs = int(time.Since(start).Milliseconds())
	return out
}

func (a *Agent) runLoop(ctx context.Context, session *browser.Session, in model.TaskInput) (out Output) {
	defer func() {
		if r := recover(); r != nil {
			out.EscalatedToHuman = true
			out.EscalationReason = fmt.Sprintf("unhandled exception: %v", r)
		}
	}()

	var steps []model.InteractiveStep
	var scores []float64

	for stepNumber := 1; stepNumber <= a.cfg.MaxSteps; stepNumber++ {
		state, captureErr := session.CaptureState(ctx, a.cfg.ScreenshotsEnabled)
		if captureErr != nil {
			state.CaptureError = captureErr.Error()
		}

		decision, usage := a.decideNextStep(ctx, in, state, steps)
		if out.Usage == nil {
			out.Usage = &llm.Usage{}
		}
		accumulateUsage(out.Usage, usage)

		outcome, _ := session.ExecuteStep(ctx, decision.Action)

		step := model.InteractiveStep{
			StepNumber:      stepNumber,
			BrowserState:    state,
			Action:          decision.Action,
			ExecutionResult: outcome,
			ProgressScore:   decision.ProgressScore,
			IsComplete:      decision.IsComplete,
			Reasoning:       decision.Reasoning,
		}
		steps = append(steps, step)
		scores = append(scores, decision.ProgressScore)

		mergeParsedData(&out, in.Instruction, step)

		if decision.IsComplete {
			out.Success = true
			out.Steps = steps
			out.GeneratedPlan = promoteTrace(in, steps)
			out.Metadata.AverageProgressScore = average(scores)
			out.ProgressImprovement = progressImprovement(scores)
			return out
		}

		if stagnated, recent := detectStagnation(scores, a.cfg.StagnationLimit, a.cfg.ProgressThreshold); stagnated {
			out.Steps = steps
			out.EscalatedToHuman = true
			out.EscalationReason = fmt.Sprintf("stagnation detected: recent scores %v did not improve by more than %.2f", recent, a.cfg.ProgressThreshold)
			out.Metadata.StagnationDetected = true
			out.Metadata.AverageProgressScore = average(scores)
			return out
		}
	}

	out.Steps = steps
	out.EscalatedToHuman = true
	out.EscalationReason = fmt.Sprintf("max steps reached: %d", a.cfg.MaxSteps)
	out.Metadata.MaxStepsReached = true
	out.Metadata.AverageProgressScore = average(scores)
	return out
}

func average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func progressImprovement(scores []float64) *float64 {
	if len(scores) == 0 {
		return nil
	}
	delta := scores[len(scores)-1] - scores[0]
	return &delta
}

// detectStagnation implements §4.6's rule: if the last stagnationLimit
// progress scores have max-min < progressThreshold, the run has
// stagnated. Fewer than stagnationLimit scores so far never trips it.
func detectStagnation(scores []float64, limit int, threshold float64) (bool, []float64) {
	if len(scores) < limit {
		return false, nil
	}
	recent := scores[len(scores)-limit:]
	min, max := recent[0], recent[0]
	for _, s := range recent {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return max-min < threshold, recent
}

func accumulateUsage(total *llm.Usage, u *llm.Usage) {
	if u == nil {
		return
	}
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}
