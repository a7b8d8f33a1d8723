package browser

import (
	"strings"
	"testing"
	"time"

	"pagewatch.dev/core/internal/model"
)

func TestBackoffIsLinearInAttempt(t *testing.T) {
	if got := backoff(1); got != time.Second {
		t.Errorf("backoff(1) = %v, want 1s", got)
	}
	if got := backoff(3); got != 3*time.Second {
		t.Errorf("backoff(3) = %v, want 3s", got)
	}
}

func TestIsTitleSelector(t *testing.T) {
	cases := map[string]bool{
		"title":         true,
		"h1.page-title": true,
		".Title-bar":    true,
		".product-name": false,
		"":              false,
	}
	for selector, want := range cases {
		if got := isTitleSelector(selector); got != want {
			t.Errorf("isTitleSelector(%q) = %v, want %v", selector, got, want)
		}
	}
}

func TestTruncateBytesNoopUnderLimit(t *testing.T) {
	if got := truncateBytes("short", 100); got != "short" {
		t.Errorf("truncateBytes should be a no-op under the limit, got %q", got)
	}
}

func TestTruncateBytesCutsAtLimit(t *testing.T) {
	s := strings.Repeat("a", 200)
	got := truncateBytes(s, 100)
	if len(got) != 100 {
		t.Errorf("truncateBytes length = %d, want 100", len(got))
	}
}

func TestSanitizeTextStripsScriptsAndStyles(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style></head>
<body><script>alert(1)</script><p>Roasted on 2026-01-02</p></body></html>`
	got := sanitizeText(html)
	if strings.Contains(got, "alert(1)") {
		t.Errorf("expected script content stripped, got %q", got)
	}
	if strings.Contains(got, "color:red") {
		t.Errorf("expected style content stripped, got %q", got)
	}
	if !strings.Contains(got, "Roasted on 2026-01-02") {
		t.Errorf("expected visible text preserved, got %q", got)
	}
}

func TestSanitizeTextBoundedToPageTextByteLimit(t *testing.T) {
	html := "<html><body><p>" + strings.Repeat("word ", 2000) + "</p></body></html>"
	got := sanitizeText(html)
	if len(got) > PageTextByteLimit {
		t.Errorf("sanitizeText returned %d bytes, want <= %d", len(got), PageTextByteLimit)
	}
}

func TestScrollByScript(t *testing.T) {
	got := scrollByScript(10, -20)
	if got != "window.scrollBy(10, -20)" {
		t.Errorf("scrollByScript(10, -20) = %q", got)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 5: "5", -5: "-5", 123: "123"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestMergeExtractedKeyedByDescription(t *testing.T) {
	result := &model.ExecutionResult{}
	step := model.Step{ID: "s1", Type: model.StepExtract, Description: "price"}
	outcome := model.StepOutcome{Success: true, Result: map[string]any{"value": "$12.00"}}

	mergeExtracted(result, step, outcome)

	if result.ExtractedData["price"] != "$12.00" {
		t.Errorf("expected extracted data keyed by description, got %v", result.ExtractedData)
	}
}
