package llm

import "testing"

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name             string
		model            string
		promptTokens     int
		completionTokens int
	}{
		{"known openai model", "gpt-4o-mini", 1000, 500},
		{"known anthropic model", "claude-3-5-sonnet-20241022", 1000, 500},
		{"unknown model falls back to default pricing", "some-future-model", 1000, 500},
		{"zero tokens", "gpt-4o-mini", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimateCost(tt.model, tt.promptTokens, tt.completionTokens)
			if got < 0 {
				t.Errorf("estimateCost(%q, %d, %d) = %v, want >= 0", tt.model, tt.promptTokens, tt.completionTokens, got)
			}
		})
	}
}

func TestSupportsJSONMode(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4-turbo", true},
		{"gpt-3.5-turbo", true},
		{"gpt-4o", true},
		{"gpt-4o-mini", true},
		{"o1-preview", true},
		{"gpt-4", false},
		{"claude-3-5-sonnet-20241022", false},
	}

	for _, tt := range tests {
		if got := supportsJSONMode(tt.model); got != tt.want {
			t.Errorf("supportsJSONMode(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestConcatenateSystemMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "first"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "second"},
	}

	system, rest := concatenateSystemMessages(messages)
	if system != "first\n\nsecond" {
		t.Errorf("system = %q, want %q", system, "first\n\nsecond")
	}
	if len(rest) != 1 || rest[0].Content != "hi" {
		t.Errorf("rest = %+v, want single user message", rest)
	}
}
