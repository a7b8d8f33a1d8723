package llm

import "fmt"

// Provider names a supported backend family, matching LLM_PROVIDER.
type Provider string

const (
	ProviderOpenAILike    Provider = "openai-like"
	ProviderAnthropicLike Provider = "anthropic-like"
)

// New constructs a Client for the given provider. This is the single
// selection point a factory reads LLM_PROVIDER through; callers never
// branch on provider elsewhere.
func New(provider Provider, cfg Config) (Client, error) {
	switch provider {
	case ProviderAnthropicLike:
		return NewAnthropicClient(cfg)
	case ProviderOpenAILike, "":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}
