package llm

import "strings"

// pricePerMillion holds USD cost per million tokens, {prompt, completion},
// keyed by a model-name prefix match. Unrecognized models fall back to a
// conservative default so EstimateCost never panics on an unlisted model.
var pricePerMillion = []struct {
	prefix     string
	prompt     float64
	completion float64
}{
	{"gpt-4o-mini", 0.15, 0.60},
	{"gpt-4o", 2.50, 10.00},
	{"gpt-4-turbo", 10.00, 30.00},
	{"gpt-3.5", 0.50, 1.50},
	{"claude-3-5-sonnet", 3.00, 15.00},
	{"claude-3-5-haiku", 0.80, 4.00},
	{"claude-3-opus", 15.00, 75.00},
	{"claude-sonnet-4", 3.00, 15.00},
}

const defaultPromptPricePerMillion = 1.00
const defaultCompletionPricePerMillion = 3.00

// estimateCost computes the dollar cost of a completion for the given
// model, looking up the closest known pricing entry by prefix match.
func estimateCost(model string, promptTokens, completionTokens int) float64 {
	promptPrice, completionPrice := defaultPromptPricePerMillion, defaultCompletionPricePerMillion
	for _, entry := range pricePerMillion {
		if strings.HasPrefix(model, entry.prefix) {
			promptPrice, completionPrice = entry.prompt, entry.completion
			break
		}
	}
	return float64(promptTokens)/1_000_000*promptPrice + float64(completionTokens)/1_000_000*completionPrice
}
