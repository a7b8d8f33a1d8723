// Package llm provides a provider-agnostic chat-completion client used by
// the planner and the interactive agent. Two backends are supported behind
// one Client interface: family-A (OpenAI-like, strict JSON-schema mode) and
// family-B (Anthropic-like, JSON enforced by instruction + defensive parse).
package llm

import (
	"context"
	"strings"

	"github.com/invopop/jsonschema"
)

// Role identifies the speaker of a Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a chat-completion conversation.
type Message struct {
	Role    string
	Content string
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompleteOptions configures a single completion call. Temperature is a
// pointer because nil means "use the client default" rather than 0.0.
type CompleteOptions struct {
	JSONMode bool
	// SchemaName and Schema upgrade JSONMode from a loose "respond with
	// JSON" hint to a strict provider-enforced schema when the backend
	// supports it (family-A only; family-B ignores them and falls back to
	// instruction-enforced JSON). Build Schema with GenerateSchema.
	SchemaName  string
	Schema      any
	Temperature *float64
	MaxTokens   int
	TimeoutMs   int
}

// GenerateSchema reflects a strict JSON schema from T's struct tags, for
// use as CompleteOptions.Schema.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// CompleteResult is the outcome of a non-streaming completion.
type CompleteResult struct {
	Content      string
	Usage        Usage
	Model        string
	FinishReason string
}

// StreamChunk is one increment of a streaming completion. CumulativeContent
// always holds the full text assembled so far, so callers that only want
// the final text can simply keep the last chunk.
type StreamChunk struct {
	ChunkContent      string
	CumulativeContent string
	Usage             *Usage
	IsComplete        bool
}

// Client is the provider-agnostic contract every backend implements.
type Client interface {
	// Complete issues a single request/response completion.
	Complete(ctx context.Context, messages []Message, opts CompleteOptions) (*CompleteResult, error)

	// CompleteStream returns a lazy sequence of StreamChunk. The sequence is
	// restartable only by calling CompleteStream again with the same
	// arguments; it does not buffer or replay.
	CompleteStream(ctx context.Context, messages []Message, opts CompleteOptions) (func(yield func(StreamChunk) bool), error)

	// EstimateCost returns the estimated dollar cost of a completion with
	// the given token counts, using the client's configured model pricing.
	EstimateCost(promptTokens, completionTokens int) float64

	// TestConnection performs a minimal round trip to verify credentials
	// and connectivity. It never returns an error; failures collapse to
	// false so callers can treat it as a health check.
	TestConnection(ctx context.Context) bool

	// Model returns the model identifier this client was configured with.
	Model() string
}

// Config holds provider credentials and defaults, shared by both backends.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     int // milliseconds
}

// Temp returns a pointer suitable for CompleteOptions.Temperature.
func Temp(t float64) *float64 {
	return &t
}

// PlanningTemperature is the fixed temperature used for plan generation,
// where determinism matters more than creativity.
const PlanningTemperature = 0.1

// DefaultTemperature is used for all other completions unless overridden.
const DefaultTemperature = 0.7

// concatenateSystemMessages joins every system-role message into one
// string, in order, for backends that require a single promoted system
// field (family-B) rather than inline system turns.
func concatenateSystemMessages(messages []Message) (system string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

// supportsJSONMode reports whether the given OpenAI-like model name
// supports strict JSON-schema output mode. Only specific model families do:
// those with "turbo" in the name, an "o"-suffixed reasoning model name, or
// a "3.5" generation marker.
func supportsJSONMode(model string) bool {
	return strings.Contains(model, "turbo") || strings.Contains(model, "3.5") || hasOSuffix(model)
}

// hasOSuffix matches model names like "gpt-4o", "gpt-4o-mini", "o1", "o3" —
// an "o" immediately preceded or followed by a digit.
func hasOSuffix(model string) bool {
	for i := 0; i < len(model); i++ {
		if model[i] == 'o' && ((i+1 < len(model) && model[i+1] >= '0' && model[i+1] <= '9') ||
			(i > 0 && model[i-1] >= '0' && model[i-1] <= '9')) {
			return true
		}
	}
	return false
}
