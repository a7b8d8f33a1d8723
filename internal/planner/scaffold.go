package planner

import (
	"fmt"
	"time"

	"pagewatch.dev/core/internal/model"
)

// planScaffold mirrors the JSON shape requested of the LLM: looser than
// model.Plan (fields are pointers/omittable) so validation can report
// exactly which rule a malformed response broke.
type planScaffold struct {
	Steps           []stepScaffold  `json:"steps"`
	ExpectedResults []string        `json:"expectedResults"`
	ErrorHandling   *errHandlingSc  `json:"errorHandling"`
	Validation      *validationSc   `json:"validation"`
	Confidence      float64         `json:"confidence"`
	Reasoning       string          `json:"reasoning"`
}

type errHandlingSc struct {
	RetryCount    int             `json:"retryCount"`
	TimeoutMs     int             `json:"timeoutMs"`
	FallbackSteps []stepScaffold  `json:"fallbackSteps"`
}

type validationSc struct {
	SuccessCriteria []string `json:"successCriteria"`
	FailureCriteria []string `json:"failureCriteria"`
}

type stepScaffold struct {
	ID              string                        `json:"id"`
	Type            string                        `json:"type"`
	Description     string                        `json:"description"`
	Optional        bool                          `json:"optional"`
	Retries         int                           `json:"retries"`
	Condition       string                        `json:"condition"`
	WaitAfterMs     int                           `json:"waitAfterMs"`
	URL             string                        `json:"url"`
	Selector        string                        `json:"selector"`
	Value           string                        `json:"value"`
	Key             string                        `json:"key"`
	Scroll          *model.ScrollTarget           `json:"scroll"`
	WaitMs          int                           `json:"waitMs"`
	WaitTime        int                           `json:"waitTime"`
	WaitForSelector *model.WaitForSelectorOptions `json:"waitForSelectorOptions"`
	Extract         *model.ExtractOptions         `json:"extractOptions"`
	Script          string                        `json:"script"`
	FullPage        bool                          `json:"fullPage"`
}

// toPlan validates the scaffold against §4.4's rules and, if it passes,
// materializes a model.Plan with estimatedDurationMs computed. url is the
// task's target URL, inherited by any navigate step with no embedded URL.
func (sc planScaffold) toPlan(url string) (*model.Plan, string, float64, error) {
	confidence := clamp01(sc.Confidence)

	if len(sc.Steps) == 0 {
		return nil, sc.Reasoning, confidence, fmt.Errorf("planner: plan has no steps")
	}

	steps := make([]model.Step, 0, len(sc.Steps))
	totalDurationMs := 0
	for _, s := range sc.Steps {
		step, err := s.toStep(url)
		if err != nil {
			return nil, sc.Reasoning, confidence, err
		}
		steps = append(steps, step)
		totalDurationMs += estimateStepDurationMs(step)
	}

	errHandling := model.ErrorHandling{}
	if sc.ErrorHandling != nil {
		errHandling.RetryCount = sc.ErrorHandling.RetryCount
		errHandling.TimeoutMs = sc.ErrorHandling.TimeoutMs
		for _, fb := range sc.ErrorHandling.FallbackSteps {
			fbStep, err := fb.toStep(url)
			if err != nil {
				return nil, sc.Reasoning, confidence, err
			}
			errHandling.FallbackSteps = append(errHandling.FallbackSteps, fbStep)
		}
	}

	validation := model.Validation{}
	if sc.Validation != nil {
		validation.SuccessCriteria = sc.Validation.SuccessCriteria
		validation.FailureCriteria = sc.Validation.FailureCriteria
	}

	plan := &model.Plan{
		URL:             url,
		Steps:           steps,
		ExpectedResults: sc.ExpectedResults,
		ErrorHandling:   errHandling,
		Validation:      validation,
		Metadata: model.PlanMetadata{
			CreatedAt:           time.Now(),
			Confidence:          confidence,
			EstimatedDurationMs: totalDurationMs,
		},
	}

	if err := plan.Validate(); err != nil {
		return nil, sc.Reasoning, confidence, err
	}
	return plan, sc.Reasoning, confidence, nil
}

// toStep enforces every step field rule: id/type/description required,
// navigate inherits plan.url when missing one, click/hover/type/select/
// extract/waitForSelector require their selectors (and type/select also
// require value), and waitForSelector/wait fill in their documented
// defaults. Selector plausibility is deliberately not checked here: §4.4
// treats it as a warning, not a rejection.
func (s stepScaffold) toStep(planURL string) (model.Step, error) {
	if s.ID == "" || s.Type == "" || s.Description == "" {
		return model.Step{}, fmt.Errorf("planner: step missing id, type, or description")
	}

	stepType := model.StepType(s.Type)
	step := model.Step{
		ID:          s.ID,
		Type:        stepType,
		Description: s.Description,
		Optional:    s.Optional,
		Retries:     s.Retries,
		Condition:   s.Condition,
		WaitAfterMs: s.WaitAfterMs,
		URL:         s.URL,
		Selector:    s.Selector,
		Value:       s.Value,
		Key:         s.Key,
		Scroll:      s.Scroll,
		Script:      s.Script,
		FullPage:    s.FullPage,
	}

	switch stepType {
	case model.StepNavigate:
		if step.URL == "" {
			step.URL = planURL
		}
	case model.StepClick, model.StepHover:
		if step.Selector == "" {
			return model.Step{}, fmt.Errorf("planner: step %s: %s requires selector", s.ID, s.Type)
		}
	case model.StepTyping, model.StepSelect:
		if step.Selector == "" || step.Value == "" {
			return model.Step{}, fmt.Errorf("planner: step %s: %s requires selector and value", s.ID, s.Type)
		}
	case model.StepExtract:
		if step.Selector == "" {
			return model.Step{}, fmt.Errorf("planner: step %s: extract requires selector", s.ID)
		}
		step.Extract = s.Extract
	case model.StepWaitForSelector:
		if step.Selector == "" {
			return model.Step{}, fmt.Errorf("planner: step %s: waitForSelector requires selector", s.ID)
		}
		waitTime := s.WaitTime
		if waitTime == 0 {
			waitTime = 10000
		}
		step.WaitForSelector = s.WaitForSelector
		if step.WaitForSelector == nil {
			step.WaitForSelector = &model.WaitForSelectorOptions{}
		}
		if step.WaitForSelector.TimeoutMs == 0 {
			step.WaitForSelector.TimeoutMs = waitTime
		}
	case model.StepWait:
		step.WaitMs = s.WaitMs
		if step.WaitMs == 0 {
			step.WaitMs = 1000
		}
	}

	if err := step.Validate(); err != nil {
		return model.Step{}, fmt.Errorf("planner: %w", err)
	}
	return step, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// estimateStepDurationMs sums the per-type constants §4.4 names.
func estimateStepDurationMs(step model.Step) int {
	switch step.Type {
	case model.StepNavigate:
		return 3000
	case model.StepWait:
		return step.WaitMs
	case model.StepWaitForSelector:
		timeout := 10000
		if step.WaitForSelector != nil && step.WaitForSelector.TimeoutMs > 0 {
			timeout = step.WaitForSelector.TimeoutMs
		}
		if timeout < 10000 {
			return timeout
		}
		return 10000
	case model.StepClick, model.StepTyping, model.StepSelect, model.StepHover, model.StepKeyPress:
		return 500
	case model.StepExtract, model.StepEvaluate:
		return 200
	case model.StepScroll, model.StepReload, model.StepGoBack, model.StepGoForward:
		return 1000
	case model.StepScreenshot:
		return 1000
	default:
		return 0
	}
}
