package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pagewatch.dev/core/common/llm"
	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/prompt"
)

// decision is the LLM's answer for one interactive step: the action to
// take next, and its own assessment of progress toward completion.
type decision struct {
	Action        model.Step
	ProgressScore float64
	IsComplete    bool
	Reasoning     string
}

// rawDecision mirrors the JSON shape asked for by the interactive-step
// template: an action plus a nested progress evaluation.
type rawDecision struct {
	Action             model.Step `json:"action"`
	ProgressEvaluation *struct {
		Score      float64 `json:"score"`
		IsComplete bool    `json:"isComplete"`
		Reasoning  string  `json:"reasoning"`
	} `json:"progressEvaluation"`
}

// fallbackDecision is synthesized whenever the LLM call transport-errors
// or returns a response missing either required field: a neutral wait
// that lets the loop continue rather than abort.
func fallbackDecision() decision {
	return decision{
		Action: model.Step{
			ID:     "fallback-wait",
			Type:   model.StepWait,
			WaitMs: 1000,
		},
		ProgressScore: 0,
		IsComplete:    false,
		Reasoning:     "fallback: no usable LLM response",
	}
}

// decideNextStep renders the interactive-step prompt from the current
// state and step history, calls the LLMClient in JSON mode, and parses
// its response into a decision. Any transport error or malformed
// response degrades to fallbackDecision rather than propagating an
// error, per the loop's SUSPEND semantics.
func (a *Agent) decideNextStep(ctx context.Context, in model.TaskInput, state model.BrowserState, history []model.InteractiveStep) (decision, *llm.Usage) {
	data := map[string]any{
		"instruction":   in.Instruction,
		"currentUrl":    state.URL,
		"stepNumber":    len(history) + 1,
		"maxSteps":      a.cfg.MaxSteps,
		"previousAction": summarizeHistory(history),
		"domSnapshot":   state.DOM,
	}

	system, err := a.prompt.Render(prompt.System, map[string]any{
		"url":         in.URL,
		"instruction": in.Instruction,
		"pageText":    "",
	})
	if err != nil {
		return fallbackDecision(), nil
	}

	user, err := a.prompt.Render(prompt.InteractiveStep, data)
	if err != nil {
		return fallbackDecision(), nil
	}

	result, err := a.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}, llm.CompleteOptions{
		JSONMode:    true,
		SchemaName:  "interactive_step_decision",
		Schema:      llm.GenerateSchema[rawDecision](),
		Temperature: llm.Temp(0.2),
	})
	if err != nil {
		return fallbackDecision(), nil
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(extractJSONObject(result.Content)), &raw); err != nil {
		return fallbackDecision(), &result.Usage
	}
	if raw.Action.Type == "" || raw.ProgressEvaluation == nil {
		return fallbackDecision(), &result.Usage
	}

	if raw.Action.ID == "" {
		raw.Action.ID = fmt.Sprintf("step-%d", len(history)+1)
	}

	return decision{
		Action:        raw.Action,
		ProgressScore: clampScore(raw.ProgressEvaluation.Score),
		IsComplete:    raw.ProgressEvaluation.IsComplete,
		Reasoning:     raw.ProgressEvaluation.Reasoning,
	}, &result.Usage
}

// summarizeHistory renders the previous steps as the
// "Step N: type selector – Progress: score – reasoning" lines the
// interactive-step prompt expects, most recent last.
func summarizeHistory(history []model.InteractiveStep) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, step := range history {
		lines = append(lines, fmt.Sprintf("Step %d: %s %s – Progress: %.2f – %s",
			step.StepNumber, step.Action.Type, step.Action.Selector, step.ProgressScore, step.Reasoning))
	}
	return strings.Join(lines, "\n")
}

// extractJSONObject trims any text surrounding the first {...} block, for
// LLM backends that occasionally wrap JSON in commentary despite being
// asked not to.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
