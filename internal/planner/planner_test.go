package planner

import (
	"context"
	"testing"

	"pagewatch.dev/core/common/llm"
	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/prompt"
)

type fakeClient struct {
	content string
	err     error
}

func (f *fakeClient) Complete(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions) (*llm.CompleteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompleteResult{Content: f.content, Usage: llm.Usage{TotalTokens: 10}}, nil
}

func (f *fakeClient) CompleteStream(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions) (func(yield func(llm.StreamChunk) bool), error) {
	return nil, nil
}

func (f *fakeClient) EstimateCost(promptTokens, completionTokens int) float64 { return 0 }
func (f *fakeClient) TestConnection(ctx context.Context) bool                { return true }
func (f *fakeClient) Model() string                                          { return "fake-model" }

func newGenerator(content string) *Generator {
	return New(&fakeClient{content: content}, prompt.NewStore())
}

const validPlanJSON = `{
	"steps": [
		{"id": "1", "type": "navigate", "description": "go to page"},
		{"id": "2", "type": "extract", "description": "read price", "selector": ".price"}
	],
	"validation": {"successCriteria": ["document.querySelector('.price') != null"], "failureCriteria": []},
	"confidence": 0.9,
	"reasoning": "straightforward"
}`

func TestGeneratePlanValidScaffold(t *testing.T) {
	g := newGenerator(validPlanJSON)
	out, err := g.GeneratePlan(context.Background(), Input{Instruction: "check price", URL: "https://example.com"})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if out.Plan == nil {
		t.Fatalf("expected a plan, got error %q", out.Error)
	}
	if out.Plan.Steps[0].URL != "https://example.com" {
		t.Errorf("expected navigate step to inherit plan url, got %q", out.Plan.Steps[0].URL)
	}
	if out.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", out.Confidence)
	}
}

func TestGeneratePlanMalformedJSONReturnsValidationError(t *testing.T) {
	g := newGenerator("not json")
	out, err := g.GeneratePlan(context.Background(), Input{Instruction: "x", URL: "https://example.com"})
	if err != nil {
		t.Fatalf("GeneratePlan should not return a Go error for malformed JSON: %v", err)
	}
	if out.Plan != nil || out.Error != "validation" {
		t.Errorf("expected {plan:nil, error:validation}, got %+v", out)
	}
}

func TestGeneratePlanRejectsMissingRequiredFields(t *testing.T) {
	g := newGenerator(`{"steps":[{"id":"1","type":"click","description":"click buy"}],"confidence":0.8}`)
	out, err := g.GeneratePlan(context.Background(), Input{Instruction: "buy", URL: "https://example.com"})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if out.Plan != nil {
		t.Errorf("expected click without selector to fail validation")
	}
}

func TestToStepWaitDefaultsTo1000ms(t *testing.T) {
	sc := stepScaffold{ID: "1", Type: "wait", Description: "pause"}
	step, err := sc.toStep("https://example.com")
	if err != nil {
		t.Fatalf("toStep: %v", err)
	}
	if step.WaitMs != 1000 {
		t.Errorf("wait step default = %d, want 1000", step.WaitMs)
	}
}

func TestToStepWaitForSelectorDefaultsTo10000ms(t *testing.T) {
	sc := stepScaffold{ID: "1", Type: "waitForSelector", Description: "wait", Selector: ".loaded"}
	step, err := sc.toStep("https://example.com")
	if err != nil {
		t.Fatalf("toStep: %v", err)
	}
	if step.WaitForSelector.TimeoutMs != 10000 {
		t.Errorf("waitForSelector default timeout = %d, want 10000", step.WaitForSelector.TimeoutMs)
	}
}

func TestEstimateStepDurationMsConstants(t *testing.T) {
	cases := []struct {
		step model.Step
		want int
	}{
		{model.Step{Type: model.StepNavigate}, 3000},
		{model.Step{Type: model.StepWait, WaitMs: 2500}, 2500},
		{model.Step{Type: model.StepWaitForSelector, WaitForSelector: &model.WaitForSelectorOptions{TimeoutMs: 20000}}, 10000},
		{model.Step{Type: model.StepClick}, 500},
		{model.Step{Type: model.StepExtract}, 200},
		{model.Step{Type: model.StepScroll}, 1000},
		{model.Step{Type: model.StepScreenshot}, 1000},
	}
	for _, tt := range cases {
		if got := estimateStepDurationMs(tt.step); got != tt.want {
			t.Errorf("estimateStepDurationMs(%v) = %d, want %d", tt.step.Type, got, tt.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-0.5: 0, 0.5: 0.5, 1.5: 1}
	for in, want := range cases {
		if got := clamp01(in); got != want {
			t.Errorf("clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestGeneratePlanWithFallbackUsesFallbackWhenPrimaryLowConfidence(t *testing.T) {
	lowConfidence := `{"steps":[{"id":"1","type":"navigate","description":"go"}],"confidence":0.2}`
	highConfidence := `{"steps":[{"id":"1","type":"navigate","description":"go"}],"confidence":0.95}`

	primary := newGenerator(lowConfidence)
	fallback := newGenerator(highConfidence)

	out, err := GeneratePlanWithFallback(context.Background(), primary, fallback, Input{
		Instruction: "check price", URL: "https://example.com",
	})
	if err != nil {
		t.Fatalf("GeneratePlanWithFallback: %v", err)
	}
	if out.Confidence != 0.95 {
		t.Errorf("expected fallback's higher-confidence result, got confidence %v", out.Confidence)
	}
}

func TestGeneratePlanWithFallbackKeepsPrimaryWhenGoodEnough(t *testing.T) {
	primary := newGenerator(validPlanJSON)
	fallback := newGenerator(`{"steps":[{"id":"1","type":"navigate","description":"go"}],"confidence":0.99}`)

	out, err := GeneratePlanWithFallback(context.Background(), primary, fallback, Input{
		Instruction: "check price", URL: "https://example.com",
	})
	if err != nil {
		t.Fatalf("GeneratePlanWithFallback: %v", err)
	}
	if out.Confidence != 0.9 {
		t.Errorf("expected primary's own result kept (confidence 0.9), got %v", out.Confidence)
	}
}
