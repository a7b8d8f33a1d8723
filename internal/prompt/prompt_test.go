package prompt

import (
	"strings"
	"testing"
)

func TestRenderSystemWithAndWithoutPageText(t *testing.T) {
	s := NewStore()

	withText, err := s.Render(System, map[string]any{
		"url":         "https://example.com",
		"instruction": "check the price",
		"pageText":    "Price: $12",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(withText, "Price: $12") {
		t.Errorf("expected pageText branch to include page text, got %q", withText)
	}
	if strings.Contains(withText, "No page text is available") {
		t.Errorf("did not expect the else branch when pageText is set: %q", withText)
	}

	withoutText, err := s.Render(System, map[string]any{
		"url":         "https://example.com",
		"instruction": "check the price",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(withoutText, "No page text is available") {
		t.Errorf("expected else branch when pageText is absent, got %q", withoutText)
	}
}

func TestRenderInteractiveStepTruncatesDOM(t *testing.T) {
	s := NewStore()
	longDOM := strings.Repeat("Z", DOMTruncateLimit+500)

	out, err := s.Render(InteractiveStep, map[string]any{
		"instruction": "click buy",
		"currentUrl":  "https://example.com",
		"stepNumber":  1,
		"maxSteps":    10,
		"domSnapshot": longDOM,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Count(out, "Z") != DOMTruncateLimit {
		t.Errorf("expected dom snapshot truncated to %d chars, got %d", DOMTruncateLimit, strings.Count(out, "Z"))
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	s := NewStore()
	if _, err := s.Render(Name("bogus"), nil); err == nil {
		t.Error("expected error for unknown template name")
	}
}

func TestRenderFallsBackToBuiltinWhenEmbedMissing(t *testing.T) {
	s := &Store{templates: map[Name]string{System: builtin[System]}}
	out, err := s.Render(System, map[string]any{"url": "https://example.com", "instruction": "x"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "https://example.com") {
		t.Errorf("expected builtin template to still substitute vars, got %q", out)
	}
}

func TestLookupNestedObjectField(t *testing.T) {
	data := map[string]any{"plan": map[string]any{"confidence": 0.8}}
	if got := lookupString(data, "plan.confidence"); got != "0.8" {
		t.Errorf("lookupString(plan.confidence) = %q, want 0.8", got)
	}
}
