// Package orchestrator implements the single entry point every task
// invocation goes through: mode routing, cache lookups, interactive
// fallback, failure-driven plan regeneration, and post-execution
// persistence ordering.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"pagewatch.dev/core/internal/agent"
	"pagewatch.dev/core/internal/browser"
	"pagewatch.dev/core/internal/cache"
	"pagewatch.dev/core/internal/change"
	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/planner"
	"pagewatch.dev/core/internal/store"
)

// regenerationTriggers are matched case-insensitively against a failed
// replay's error message, step id, and logs. A single hit is enough to
// trigger one regeneration pass.
var regenerationTriggers = []string{
	"timeout", "selector", "element not found", "not visible",
	"waitforselector", "waitforelement", "locator", "exceeded",
}

// Deps are the collaborators Orchestrator needs. Every field is an
// interface or a value type the orchestrator only ever depends on through
// its contract, never its backend.
type Deps struct {
	Cache         cache.Cache
	Planner       *planner.Generator
	FallbackLLM   *planner.Generator
	Agent         *agent.Agent
	Change        *change.Store
	Results       *store.ExecutionResultStore
	BrowserConfig browser.Config
}

// Orchestrator is the mode-routing entry point described by §4.7.
type Orchestrator struct {
	deps Deps
}

// New returns an Orchestrator bound to the given collaborators.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Escalation reports whether the interactive loop gave up on a task
// without a usable result.
type Escalation struct {
	Escalated bool
	Reason    string
}

// StepSummary is the plan_only response's per-step projection.
type StepSummary struct {
	ID          string
	Type        string
	Description string
	Selector    string
}

// PlanDetails is the plan_only response body's planDetails field.
type PlanDetails struct {
	Steps               []StepSummary
	EstimatedDurationMs int
	Confidence          float64
	Reasoning           string
}

// Metrics is the response-level metrics block; CacheHit/PlanGenerated are
// response concerns, not persisted alongside ExecutionMetrics.
type Metrics struct {
	ExecutionTimeMs      int
	TotalTimeMs          int
	StepsCompleted       int
	StepsTotal           int
	RetryCount           int
	CacheHit             bool
	PlanGenerated        bool
	AverageProgressScore float64
	MaxStepsReached      bool
	StagnationDetected   bool
}

// Output is Handle's full result, shaped closely after §6's three
// response-body variants; callers project only the fields relevant to
// the mode that produced it.
type Output struct {
	Success          bool
	Mode             model.ExecutionMode
	PlanID           int64
	TaskSignature    string
	Status           model.ExecutionStatus
	ExecutionID      int64
	ExtractedData    map[string]any
	InteractiveSteps []model.InteractiveStep
	Screenshots      []string
	Logs             []string
	Metrics          Metrics
	Escalation       *Escalation
	PlanDetails      *PlanDetails
	Error            string
	ErrorKind        model.ErrorKind
	Message          string
}

// Handle routes in per §4.7's mode-routing order, persists an
// ExecutionResult row on every path that executes, and — on a successful
// extraction tied to a task — records a MonitoringSample and invokes the
// ChangeDetector.
func (o *Orchestrator) Handle(ctx context.Context, in model.TaskInput) Output {
	start := time.Now()

	opts := in.Options
	if opts != nil && opts.PlanOnly && opts.ExecutionOnly {
		return Output{
			Error: "cannot set both planOnly and executionOnly", ErrorKind: model.ErrorKindValidation,
			Status: model.ExecutionStatusError,
		}
	}

	signature, err := model.TaskSignature(in.Instruction, in.URL)
	if err != nil {
		return Output{Error: err.Error(), ErrorKind: errorKind(err), Status: model.ExecutionStatusError}
	}

	if opts != nil && opts.PlanOnly {
		return o.handlePlanOnly(ctx, in, signature, start)
	}
	if opts != nil && opts.ExecutionOnly {
		return o.handleExecutionOnly(ctx, in, signature, start)
	}

	mode := in.Mode()

	if mode == model.ExecutionModeInteractive || mode == model.ExecutionModeAuto {
		if cached, _ := o.deps.Cache.Get(ctx, signature); cached != nil {
			out := o.replayAndFinalize(ctx, in, cached, true, start)
			out.Mode = mode
			return out
		}

		agentOut := o.deps.Agent.ExecuteInteractively(ctx, in)
		if agentOut.Success && !agentOut.EscalatedToHuman {
			if agentOut.GeneratedPlan != nil {
				_ = o.deps.Cache.Put(ctx, agentOut.GeneratedPlan, 0)
			}
			return o.finalizeInteractive(ctx, in, agentOut, start)
		}
		if mode == model.ExecutionModeInteractive {
			return o.finalizeEscalated(in, agentOut, start)
		}
		// auto mode falls through to plan mode below
	}

	return o.handlePlanMode(ctx, in, signature, start)
}

// generatePlan routes through GeneratePlanWithFallback when a fallback
// generator is configured, otherwise calls the primary generator alone.
func (o *Orchestrator) generatePlan(ctx context.Context, in planner.Input) (planner.Output, error) {
	if o.deps.FallbackLLM != nil {
		return planner.GeneratePlanWithFallback(ctx, o.deps.Planner, o.deps.FallbackLLM, in)
	}
	return o.deps.Planner.GeneratePlan(ctx, in)
}

func (o *Orchestrator) handlePlanOnly(ctx context.Context, in model.TaskInput, signature string, start time.Time) Output {
	out, err := o.generatePlan(ctx, planner.Input{Instruction: in.Instruction, URL: in.URL})
	if err != nil || out.Plan == nil {
		return Output{
			Mode: model.ExecutionModePlan, Error: errOrString(err, out.Error),
			ErrorKind: model.ErrorKindPlanGeneration, Status: model.ExecutionStatusError,
		}
	}
	if err := o.deps.Cache.Put(ctx, out.Plan, 0); err != nil {
		// plan-only caching is best-effort; a failed cache write does not
		// fail the response, it just means the next invocation regenerates.
		_ = err
	}
	return Output{
		Success:       true,
		Mode:          model.ExecutionModePlan,
		PlanID:        out.Plan.ID,
		TaskSignature: signature,
		PlanDetails:   toPlanDetails(out.Plan),
		Metrics:       Metrics{TotalTimeMs: int(time.Since(start).Milliseconds())},
		Message:       "plan generated",
	}
}

func (o *Orchestrator) handleExecutionOnly(ctx context.Context, in model.TaskInput, signature string, start time.Time) Output {
	var plan *model.Plan
	var err error

	if in.Options != nil && in.Options.PlanID != nil {
		plan, err = o.deps.Cache.GetByID(ctx, *in.Options.PlanID)
	} else {
		plan, err = o.deps.Cache.Get(ctx, signature)
	}
	if err != nil || plan == nil {
		return Output{Error: "NO_CACHED_PLAN", ErrorKind: model.ErrorKindNotFound, Status: model.ExecutionStatusError}
	}

	out := o.replayAndFinalize(ctx, in, plan, true, start)
	out.Mode = model.ExecutionModePlan
	return out
}

func (o *Orchestrator) handlePlanMode(ctx context.Context, in model.TaskInput, signature string, start time.Time) Output {
	forceNew := in.Options != nil && in.Options.ForceNewPlan

	var plan *model.Plan
	cacheHit := false
	if !forceNew {
		plan, _ = o.deps.Cache.Get(ctx, signature)
		cacheHit = plan != nil
	}

	planGenerated := false
	if plan == nil {
		genOut, err := o.generatePlan(ctx, planner.Input{Instruction: in.Instruction, URL: in.URL})
		if err != nil || genOut.Plan == nil {
			return Output{
				Mode:      model.ExecutionModePlan,
				Error:     errOrString(err, genOut.Error),
				ErrorKind: model.ErrorKindPlanGeneration,
				Status:    model.ExecutionStatusError,
			}
		}
		plan = genOut.Plan
		planGenerated = true
		_ = o.deps.Cache.Put(ctx, plan, 0)
	}

	out := o.replayAndFinalize(ctx, in, plan, cacheHit, start)
	out.Mode = model.ExecutionModePlan
	out.Metrics.PlanGenerated = planGenerated
	return out
}

// replayAndFinalize executes plan via a fresh BrowserSession, applies the
// failure-driven regeneration heuristic, persists the ExecutionResult,
// and — on a successful task-scoped extraction — records the
// MonitoringSample/ChangeRecord pair.
func (o *Orchestrator) replayAndFinalize(ctx context.Context, in model.TaskInput, plan *model.Plan, cacheHit bool, start time.Time) Output {
	result := o.replay(ctx, plan)

	regenerated := false
	if shouldRegenerate(result) {
		if newPlan, newResult, ok := o.regenerate(ctx, in); ok {
			plan = newPlan
			result = newResult
			cacheHit = false
			regenerated = true
		}
	}

	result.PlanID = plan.ID
	result.TaskID = in.TaskID
	executionID := o.persist(ctx, in, result)

	out := Output{
		Success:       result.Status == model.ExecutionStatusSuccess,
		PlanID:        plan.ID,
		TaskSignature: plan.TaskSignature,
		ExecutionID:   executionID,
		Status:        result.Status,
		ExtractedData: result.ExtractedData,
		Screenshots:   result.Screenshots,
		Logs:          result.Logs,
		Metrics: Metrics{
			ExecutionTimeMs: result.Metrics.ExecutionTimeMs,
			TotalTimeMs:     int(time.Since(start).Milliseconds()),
			StepsCompleted:  result.Metrics.StepsCompleted,
			StepsTotal:      result.Metrics.StepsTotal,
			RetryCount:      result.Metrics.RetryCount,
			CacheHit:        cacheHit,
			PlanGenerated:   regenerated,
		},
	}
	if result.Error != nil {
		out.Error = result.Error.Message
		if result.Status == model.ExecutionStatusTimeout {
			out.ErrorKind = model.ErrorKindNavigationTimeout
		} else {
			out.ErrorKind = model.ErrorKindBrowserExecution
		}
	}
	return out
}

func (o *Orchestrator) replay(ctx context.Context, plan *model.Plan) model.ExecutionResult {
	session := browser.NewSession()
	if err := session.Start(ctx, o.deps.BrowserConfig); err != nil {
		return model.ExecutionResult{
			Status: model.ExecutionStatusError,
			Error:  &model.ExecutionError{Message: err.Error()},
		}
	}
	defer session.Stop()

	return session.Execute(ctx, *plan, browser.ExecuteOptions{ScreenshotEnabled: true})
}

// regenerate implements §4.7's single-pass failure-driven regeneration:
// capture pageText, call PlanGenerator with that context, replay the new
// plan, and report success only if the new replay itself succeeded.
func (o *Orchestrator) regenerate(ctx context.Context, in model.TaskInput) (*model.Plan, model.ExecutionResult, bool) {
	session := browser.NewSession()
	if err := session.Start(ctx, o.deps.BrowserConfig); err != nil {
		return nil, model.ExecutionResult{}, false
	}
	pageText, _ := session.PageText(ctx)
	session.Stop()

	genOut, err := o.generatePlan(ctx, planner.Input{
		Instruction: in.Instruction,
		URL:         in.URL,
		PageText:    pageText,
	})
	if err != nil || genOut.Plan == nil {
		return nil, model.ExecutionResult{}, false
	}

	result := o.replay(ctx, genOut.Plan)
	if result.Status != model.ExecutionStatusSuccess {
		return nil, model.ExecutionResult{}, false
	}

	_ = o.deps.Cache.Refresh(ctx, genOut.Plan.TaskSignature, genOut.Plan)
	return genOut.Plan, result, true
}

// shouldRegenerate reports whether a failed/error replay's error message,
// failing step id, or logs contain any of regenerationTriggers,
// case-insensitively.
func shouldRegenerate(result model.ExecutionResult) bool {
	if result.Status != model.ExecutionStatusFailed && result.Status != model.ExecutionStatusError {
		return false
	}
	haystacks := make([]string, 0, len(result.Logs)+2)
	if result.Error != nil {
		haystacks = append(haystacks, result.Error.Message, result.Error.Stack, result.Error.Step)
	}
	haystacks = append(haystacks, result.Logs...)

	for _, h := range haystacks {
		lower := strings.ToLower(h)
		for _, trigger := range regenerationTriggers {
			if strings.Contains(lower, trigger) {
				return true
			}
		}
	}
	return false
}

// persist writes the ExecutionResult row unconditionally, then — only
// when the run succeeded, produced non-empty extractedData, and is tied
// to a taskId — records a MonitoringSample and runs the ChangeDetector.
// Returns the persisted row's id, or 0 if no Results store is configured
// or the write failed.
func (o *Orchestrator) persist(ctx context.Context, in model.TaskInput, result model.ExecutionResult) int64 {
	if o.deps.Results == nil {
		return 0
	}
	saved, err := o.deps.Results.Create(ctx, result)
	if err != nil {
		return 0
	}

	if o.deps.Change == nil {
		return saved.ID
	}
	if result.Status != model.ExecutionStatusSuccess || len(result.ExtractedData) == 0 || in.TaskID == nil {
		return saved.ID
	}
	_, _ = o.deps.Change.DetectAndRecord(ctx, *in.TaskID, saved.ID, in.URL, result.ExtractedData)
	return saved.ID
}

func (o *Orchestrator) finalizeInteractive(ctx context.Context, in model.TaskInput, agentOut agent.Output, start time.Time) Output {
	var planID int64
	if agentOut.GeneratedPlan != nil {
		planID = agentOut.GeneratedPlan.ID
	}

	status := model.ExecutionStatusSuccess
	result := model.ExecutionResult{
		Status:        status,
		ExtractedData: agentOut.ExtractedData,
		TaskID:        in.TaskID,
		PlanID:        planID,
		Metrics: model.ExecutionMetrics{
			ExecutionTimeMs: agentOut.TotalDurationMs,
			StepsCompleted:  len(agentOut.Steps),
			StepsTotal:      len(agentOut.Steps),
		},
	}
	executionID := o.persist(ctx, in, result)

	var signature string
	if agentOut.GeneratedPlan != nil {
		signature = agentOut.GeneratedPlan.TaskSignature
	}

	return Output{
		Success:          true,
		Mode:             model.ExecutionModeInteractive,
		PlanID:           planID,
		TaskSignature:    signature,
		ExecutionID:      executionID,
		Status:           status,
		ExtractedData:    agentOut.ExtractedData,
		InteractiveSteps: agentOut.Steps,
		Metrics: Metrics{
			ExecutionTimeMs:      agentOut.TotalDurationMs,
			TotalTimeMs:          int(time.Since(start).Milliseconds()),
			AverageProgressScore: agentOut.Metadata.AverageProgressScore,
			MaxStepsReached:      agentOut.Metadata.MaxStepsReached,
			StagnationDetected:   agentOut.Metadata.StagnationDetected,
		},
		Escalation: &Escalation{Escalated: false},
	}
}

func (o *Orchestrator) finalizeEscalated(in model.TaskInput, agentOut agent.Output, start time.Time) Output {
	return Output{
		Mode:             model.ExecutionModeInteractive,
		Status:           model.ExecutionStatusFailed,
		InteractiveSteps: agentOut.Steps,
		Metrics: Metrics{
			ExecutionTimeMs:      agentOut.TotalDurationMs,
			TotalTimeMs:          int(time.Since(start).Milliseconds()),
			AverageProgressScore: agentOut.Metadata.AverageProgressScore,
			MaxStepsReached:      agentOut.Metadata.MaxStepsReached,
			StagnationDetected:   agentOut.Metadata.StagnationDetected,
		},
		Escalation: &Escalation{Escalated: true, Reason: agentOut.EscalationReason},
		Error:      agentOut.EscalationReason,
	}
}

func toPlanDetails(plan *model.Plan) *PlanDetails {
	steps := make([]StepSummary, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		steps = append(steps, StepSummary{ID: s.ID, Type: string(s.Type), Description: s.Description, Selector: s.Selector})
	}
	return &PlanDetails{
		Steps:               steps,
		EstimatedDurationMs: plan.Metadata.EstimatedDurationMs,
		Confidence:          plan.Metadata.Confidence,
		Reasoning:           "",
	}
}

func errOrString(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}

// errorKind extracts the DomainError kind behind err, defaulting to
// ErrorKindValidation since the only caller is the request-shape checks
// that run before anything touches a browser or an LLM.
func errorKind(err error) model.ErrorKind {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return model.ErrorKindValidation
}
