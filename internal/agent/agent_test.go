package agent

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
	return &llm.CompleteResult{Content: f.content, Usage: llm.Usage{TotalTokens: 5}}, nil
}

func (f *fakeClient) CompleteStream(ctx context.Context, messages []llm.Message, opts llm.CompleteOptions) (func(yield func(llm.StreamChunk) bool), error) {
	return nil, nil
}

func (f *fakeClient) EstimateCost(promptTokens, completionTokens int) float64 { return 0 }
func (f *fakeClient) TestConnection(ctx context.Context) bool                { return true }
func (f *fakeClient) Model() string                                          { return "fake-model" }

func newAgent(content string, err error) *Agent {
	return New(&fakeClient{content: content, err: err}, prompt.NewStore(), DefaultConfig())
}

const validDecisionJSON = `{
	"action": {"id": "s1", "type": "click", "selector": ".accept-cookies"},
	"progressEvaluation": {"score": 0.4, "isComplete": false, "reasoning": "dismissed banner"}
}`

func TestDecideNextStepParsesValidResponse(t *testing.T) {
	a := newAgent(validDecisionJSON, nil)
	d, usage := a.decideNextStep(context.Background(), model.TaskInput{Instruction: "check price", URL: "https://example.com"}, model.BrowserState{URL: "https://example.com"}, nil)

	if d.Action.Type != model.StepClick || d.Action.Selector != ".accept-cookies" {
		t.Errorf("action = %+v, want click .accept-cookies", d.Action)
	}
	if d.ProgressScore != 0.4 || d.IsComplete {
		t.Errorf("progress = %v/%v, want 0.4/false", d.ProgressScore, d.IsComplete)
	}
	if usage == nil || usage.TotalTokens != 5 {
		t.Errorf("usage = %+v, want TotalTokens=5", usage)
	}
}

func TestDecideNextStepFallsBackOnTransportError(t *testing.T) {
	a := newAgent("", context.DeadlineExceeded)
	d, usage := a.decideNextStep(context.Background(), model.TaskInput{Instruction: "x", URL: "https://example.com"}, model.BrowserState{}, nil)

	if d.Action.Type != model.StepWait || d.Action.WaitMs != 1000 {
		t.Errorf("expected fallback wait(1000), got %+v", d.Action)
	}
	if usage != nil {
		t.Errorf("expected nil usage on transport error, got %+v", usage)
	}
}

func TestDecideNextStepFallsBackOnMalformedResponse(t *testing.T) {
	a := newAgent(`{"not":"the expected shape"}`, nil)
	d, _ := a.decideNextStep(context.Background(), model.TaskInput{Instruction: "x", URL: "https://example.com"}, model.BrowserState{}, nil)

	if d.Action.Type != model.StepWait {
		t.Errorf("expected fallback wait, got %+v", d.Action)
	}
}

func TestDecideNextStepFallsBackOnMissingProgressEvaluation(t *testing.T) {
	a := newAgent(`{"action": {"id": "s1", "type": "click", "selector": ".x"}}`, nil)
	d, _ := a.decideNextStep(context.Background(), model.TaskInput{Instruction: "x", URL: "https://example.com"}, model.BrowserState{}, nil)

	if d.Action.Type != model.StepWait {
		t.Errorf("expected fallback wait when progressEvaluation missing, got %+v", d.Action)
	}
}

func TestDetectStagnationRequiresFullWindow(t *testing.T) {
	stagnated, _ := detectStagnation([]float64{0.1, 0.2}, 3, 0.10)
	if stagnated {
		t.Error("expected no stagnation verdict before stagnationLimit scores exist")
	}
}

func TestDetectStagnationTripsOnFlatScores(t *testing.T) {
	stagnated, recent := detectStagnation([]float64{0.5, 0.52, 0.48}, 3, 0.10)
	if !stagnated {
		t.Error("expected stagnation when recent scores barely move")
	}
	if len(recent) != 3 {
		t.Errorf("recent = %v, want 3 scores", recent)
	}
}

func TestDetectStagnationFalseOnImprovingScores(t *testing.T) {
	stagnated, _ := detectStagnation([]float64{0.1, 0.4, 0.8}, 3, 0.10)
	if stagnated {
		t.Error("did not expect stagnation on clearly improving scores")
	}
}

func TestSummarizeHistoryFormatsEachStep(t *testing.T) {
	history := []model.InteractiveStep{
		{StepNumber: 1, Action: model.Step{Type: model.StepClick, Selector: ".btn"}, ProgressScore: 0.3, Reasoning: "clicked button"},
	}
	summary := summarizeHistory(history)
	want := "Step 1: click .btn – Progress: 0.30 – clicked button"
	if summary != want {
		t.Errorf("summarizeHistory = %q, want %q", summary, want)
	}
}

func TestSummarizeHistoryEmptyForNoSteps(t *testing.T) {
	if got := summarizeHistory(nil); got != "" {
		t.Errorf("summarizeHistory(nil) = %q, want empty", got)
	}
}

func TestExtractJSONObjectStripsSurroundingText(t *testing.T) {
	got := extractJSONObject("here is the plan: {\"a\":1} thanks")
	if got != `{"a":1}` {
		t.Errorf("extractJSONObject = %q", got)
	}
}

func TestClampScoreBounds(t *testing.T) {
	if clampScore(-1) != 0 {
		t.Error("expected negative score clamped to 0")
	}
	if clampScore(5) != 1 {
		t.Error("expected score > 1 clamped to 1")
	}
}

func TestAverageEmpty(t *testing.T) {
	if average(nil) != 0 {
		t.Error("expected average of no scores to be 0")
	}
}

func TestProgressImprovementDelta(t *testing.T) {
	got := progressImprovement([]float64{0.1, 0.5})
	if got == nil || *got != 0.4 {
		t.Errorf("progressImprovement = %v, want 0.4", got)
	}
}
