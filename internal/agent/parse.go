package agent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pagewatch.dev/core/internal/model"
)

var (
	roastingDateRe = regexp.MustCompile(`Rostningsdatum\s+(\d{4}-\d{2}-\d{2})`)
	anyDateRe      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	priceSEKRe     = regexp.MustCompile(`(\d+)\s*kr`)
	priceUSDRe     = regexp.MustCompile(`\$(\d+\.?\d*)`)
	titleTagRe     = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	h1TagRe        = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
)

// mergeParsedData applies the instruction-aware data parsing described by
// §4.6 to one successful extract-kind step, merging whatever it finds
// into out.ExtractedData. Steps that did not extract anything, or that
// failed, contribute nothing.
func mergeParsedData(out *Output, instruction string, step model.InteractiveStep) {
	if step.Action.Type != model.StepExtract || !step.ExecutionResult.Success {
		return
	}
	text := resultText(step.ExecutionResult.Result)
	if text == "" {
		return
	}

	lowerInstruction := strings.ToLower(instruction)
	fields := map[string]any{}

	if strings.Contains(lowerInstruction, "roast") || strings.Contains(lowerInstruction, "date") {
		parseRoastingDate(text, fields)
	}
	if strings.Contains(lowerInstruction, "price") || strings.Contains(lowerInstruction, "cost") {
		parsePrice(text, fields)
	}
	if strings.Contains(lowerInstruction, "title") || strings.Contains(lowerInstruction, "name") {
		parseTitle(text, fields)
	}

	if len(fields) == 0 {
		return
	}
	if out.ExtractedData == nil {
		out.ExtractedData = map[string]any{}
	}
	for k, v := range fields {
		out.ExtractedData[k] = v
	}
}

func parseRoastingDate(text string, fields map[string]any) {
	if m := roastingDateRe.FindStringSubmatch(text); m != nil {
		fields["roastingDate"] = m[1]
		fields["allDatesFound"] = []string{m[1]}
		return
	}
	dates := anyDateRe.FindAllString(text, -1)
	if len(dates) == 0 {
		return
	}
	sorted := append([]string(nil), dates...)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))
	fields["roastingDate"] = sorted[0]
	fields["allDatesFound"] = sorted
}

func parsePrice(text string, fields map[string]any) {
	if m := priceSEKRe.FindStringSubmatch(text); m != nil {
		fields["price"] = m[1]
		fields["currency"] = "SEK"
		return
	}
	if m := priceUSDRe.FindStringSubmatch(text); m != nil {
		fields["price"] = m[1]
		fields["currency"] = "USD"
	}
}

func parseTitle(text string, fields map[string]any) {
	if m := titleTagRe.FindStringSubmatch(text); m != nil {
		fields["title"] = strings.TrimSpace(m[1])
		return
	}
	if m := h1TagRe.FindStringSubmatch(text); m != nil {
		fields["title"] = strings.TrimSpace(m[1])
	}
}

// resultText pulls whatever text an extract step produced out of its
// StepOutcome.Result map, regardless of whether it came back as a single
// string value or a list of matched elements.
func resultText(result map[string]any) string {
	if result == nil {
		return ""
	}
	if v, ok := result["value"]; ok {
		switch t := v.(type) {
		case string:
			return t
		case []string:
			return strings.Join(t, "\n")
		case []any:
			parts := make([]string, 0, len(t))
			for _, item := range t {
				parts = append(parts, toStringValue(item))
			}
			return strings.Join(parts, "\n")
		}
	}
	return ""
}

func toStringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
