// Package planner turns a browsing instruction into a validated,
// reusable Plan by prompting an LLMClient in JSON mode and scaffolding
// the response against the step-shape rules every Plan must satisfy.
package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"pagewatch.dev/core/common/llm"
	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/prompt"
)

// Input is what generatePlan needs to render its prompts.
type Input struct {
	Instruction string
	URL         string
	PageText    string
}

// Output is generatePlan's full result, including the fields a caller
// needs even when plan generation failed outright.
type Output struct {
	Plan       *model.Plan
	Confidence float64
	Reasoning  string
	Error      string
	Usage      *llm.Usage
}

// Generator renders prompts via a Store and calls an LLMClient in JSON
// mode at a fixed low temperature, then validates the parsed scaffold.
type Generator struct {
	client llm.Client
	prompt *prompt.Store
}

// New returns a Generator bound to the given LLMClient and PromptStore.
func New(client llm.Client, store *prompt.Store) *Generator {
	return &Generator{client: client, prompt: store}
}

// GeneratePlan renders the system/user-plan templates, asks the LLM for a
// JSON plan object, and validates the result. A validation failure is
// reported in Output.Error rather than as a Go error: the caller (the
// orchestrator) treats "no usable plan" as a normal outcome, not a fault.
func (g *Generator) GeneratePlan(ctx context.Context, in Input) (Output, error) {
	data := map[string]any{
		"instruction": in.Instruction,
		"url":         in.URL,
		"pageText":    in.PageText,
	}

	system, err := g.prompt.Render(prompt.System, data)
	if err != nil {
		return Output{}, fmt.Errorf("planner: render system prompt: %w", err)
	}
	user, err := g.prompt.Render(prompt.UserPlan, data)
	if err != nil {
		return Output{}, fmt.Errorf("planner: render user prompt: %w", err)
	}

	result, err := g.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}, llm.CompleteOptions{
		JSONMode:    true,
		SchemaName:  "execution_plan",
		Schema:      llm.GenerateSchema[planScaffold](),
		Temperature: llm.Temp(llm.PlanningTemperature),
	})
	if err != nil {
		return Output{Error: err.Error()}, nil
	}

	var scaffold planScaffold
	if jsonErr := json.Unmarshal([]byte(result.Content), &scaffold); jsonErr != nil {
		return Output{Error: "validation", Usage: &result.Usage}, nil
	}

	plan, reasoning, confidence, validationErr := scaffold.toPlan(in.URL)
	out := Output{
		Confidence: confidence,
		Reasoning:  reasoning,
		Usage:      &result.Usage,
	}
	if validationErr != nil {
		out.Error = "validation"
		return out, nil
	}
	out.Plan = plan
	return out, nil
}

// GeneratePlanWithFallback tries the primary client's GeneratePlan, then
// retries with a fallback client when the primary returns no plan or a
// confidence below 0.5, keeping whichever result scores higher.
func GeneratePlanWithFallback(ctx context.Context, primary, fallback *Generator, in Input) (Output, error) {
	out, err := primary.GeneratePlan(ctx, in)
	if err != nil {
		return out, err
	}
	if out.Plan != nil && out.Confidence >= 0.5 {
		return out, nil
	}

	fallbackOut, err := fallback.GeneratePlan(ctx, in)
	if err != nil {
		return out, nil
	}
	if fallbackOut.Plan != nil && (out.Plan == nil || fallbackOut.Confidence > out.Confidence) {
		return fallbackOut, nil
	}
	return out, nil
}
