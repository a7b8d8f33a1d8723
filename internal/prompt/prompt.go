// Package prompt renders the templates that drive plan generation and the
// interactive agent's step-by-step loop.
package prompt

import (
	"embed"
	"fmt"
	"strings"

	"pagewatch.dev/core/internal/model"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Name identifies one of the three templates the store serves.
type Name string

const (
	System          Name = "system"
	UserPlan        Name = "user-plan"
	InteractiveStep Name = "interactive-step"
)

// DOMTruncateLimit bounds the dom snapshot fed into the interactive-step
// template.
const DOMTruncateLimit = 4000

var filenames = map[Name]string{
	System:          "templates/system.tmpl",
	UserPlan:        "templates/user-plan.tmpl",
	InteractiveStep: "templates/interactive-step.tmpl",
}

// builtin holds a minimal fallback for each template, used when the
// embedded file is missing or unreadable at startup.
var builtin = map[Name]string{
	System:          "You operate on {{url}} and must satisfy: {{instruction}}\nRespond with JSON only.",
	UserPlan:        "Instruction: {{instruction}}\nURL: {{url}}\nRespond with a JSON plan object.",
	InteractiveStep: "Instruction: {{instruction}}\nCurrent URL: {{currentUrl}}\nDOM:\n{{domSnapshot}}\nRespond with one JSON step.",
}

// Store loads and renders the system, user-plan, and interactive-step
// templates used to prompt the configured LLMClient.
type Store struct {
	templates map[Name]string
}

// NewStore reads every template out of the embedded filesystem, falling
// back to the built-in default for any template that can't be read.
func NewStore() *Store {
	s := &Store{templates: make(map[Name]string, len(filenames))}
	for name, path := range filenames {
		b, err := embedded.ReadFile(path)
		if err != nil {
			s.templates[name] = builtin[name]
			continue
		}
		s.templates[name] = string(b)
	}
	return s
}

// Render substitutes data into the named template. It supports {{var}} and
// {{object.field}} interpolation plus a single level of {{#if var}}...
// {{else}}...{{/if}} conditionals; nested conditionals are not supported.
// Values are looked up first as top-level data keys, then as fields inside
// a nested map[string]any for the "object.field" form.
func (s *Store) Render(name Name, data map[string]any) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt: unknown template %q", name)
	}
	if name == InteractiveStep {
		if dom, ok := data["domSnapshot"].(string); ok {
			data = cloneWith(data, "domSnapshot", truncate(dom, DOMTruncateLimit))
		}
	}
	out, err := renderConditionals(tmpl, data)
	if err != nil {
		return "", err
	}
	return substituteVars(out, data), nil
}

func cloneWith(data map[string]any, key string, value any) map[string]any {
	clone := make(map[string]any, len(data))
	for k, v := range data {
		clone[k] = v
	}
	clone[key] = value
	return clone
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// renderConditionals resolves every {{#if key}}truthy{{else}}falsy{{/if}}
// block. Blocks do not nest: the first {{/if}} found after a {{#if}}
// closes it.
func renderConditionals(tmpl string, data map[string]any) (string, error) {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{#if ")
		if start == -1 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:start])
		rest = rest[start:]

		headEnd := strings.Index(rest, "}}")
		if headEnd == -1 {
			return "", fmt.Errorf("prompt: unterminated {{#if}} tag")
		}
		key := strings.TrimSpace(rest[len("{{#if ") : headEnd])
		rest = rest[headEnd+2:]

		closeIdx := strings.Index(rest, "{{/if}}")
		if closeIdx == -1 {
			return "", fmt.Errorf("prompt: {{#if %s}} missing matching {{/if}}", key)
		}
		body := rest[:closeIdx]
		rest = rest[closeIdx+len("{{/if}}"):]

		truthy, falsy := body, ""
		if elseIdx := strings.Index(body, "{{else}}"); elseIdx != -1 {
			truthy = body[:elseIdx]
			falsy = body[elseIdx+len("{{else}}"):]
		}

		if isTruthy(lookup(data, key)) {
			b.WriteString(truthy)
		} else {
			b.WriteString(falsy)
		}
	}
}

func substituteVars(tmpl string, data map[string]any) string {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}}")
		if end == -1 {
			b.WriteString("{{")
			b.WriteString(rest)
			return b.String()
		}
		key := strings.TrimSpace(rest[:end])
		rest = rest[end+2:]

		fmt.Fprint(&b, lookupString(data, key))
	}
}

func lookup(data map[string]any, key string) any {
	if v, ok := data[key]; ok {
		return v
	}
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return nil
	}
	obj, ok := data[parts[0]].(map[string]any)
	if !ok {
		return nil
	}
	return obj[parts[1]]
}

func lookupString(data map[string]any, key string) string {
	v := lookup(data, key)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		return true
	}
}

// ValidateTaskInput rejects an empty instruction, a non-http(s) URL, or an
// over-budget instruction before any prompt is rendered from it.
func ValidateTaskInput(in model.TaskInput) error {
	return in.Validate()
}
