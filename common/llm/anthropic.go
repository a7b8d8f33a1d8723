package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// jsonOnlyInstruction is appended to the system prompt when JSON mode is
// requested, since family-B has no structured-output mode of its own.
const jsonOnlyInstruction = "Respond with JSON only. Do not include any text before or after the JSON object."

type anthropicClient struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewAnthropicClient builds a Client backed by the Anthropic-like Messages
// API (family-B).
func NewAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	return &anthropicClient{
		client:      anthropic.NewClient(opts...),
		model:       model,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (c *anthropicClient) buildParams(messages []Message, opts CompleteOptions) anthropic.MessageNewParams {
	system, rest := concatenateSystemMessages(messages)
	if opts.JSONMode {
		if system != "" {
			system += "\n\n"
		}
		system += jsonOnlyInstruction
	}

	msgs := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		msgs = append(msgs, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: system}}
	}

	temp := c.temperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	params.Temperature = anthropic.Float(temp)

	return params
}

func (c *anthropicClient) Complete(ctx context.Context, messages []Message, opts CompleteOptions) (*CompleteResult, error) {
	params := c.buildParams(messages, opts)

	if opts.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, c.mapError(ctx, err)
	}

	slog.DebugContext(ctx, "llm complete",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds())

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &CompleteResult{
		Content:      content,
		Model:        c.model,
		FinishReason: c.mapStopReason(resp.StopReason),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

func (c *anthropicClient) CompleteStream(ctx context.Context, messages []Message, opts CompleteOptions) (func(yield func(StreamChunk) bool), error) {
	params := c.buildParams(messages, opts)

	return func(yield func(StreamChunk) bool) {
		stream := c.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		var cumulative string
		for stream.Next() {
			event := stream.Current()
			ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			textDelta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
			if !ok || textDelta.Text == "" {
				continue
			}
			cumulative += textDelta.Text
			if !yield(StreamChunk{ChunkContent: textDelta.Text, CumulativeContent: cumulative}) {
				return
			}
		}

		yield(StreamChunk{CumulativeContent: cumulative, IsComplete: true})
	}, nil
}

func (c *anthropicClient) EstimateCost(promptTokens, completionTokens int) float64 {
	return estimateCost(c.model, promptTokens, completionTokens)
}

func (c *anthropicClient) TestConnection(ctx context.Context) bool {
	_, err := c.Complete(ctx, []Message{{Role: RoleUser, Content: "ping"}}, CompleteOptions{MaxTokens: 1})
	return err == nil
}

func (c *anthropicClient) Model() string {
	return c.model
}

func (c *anthropicClient) mapStopReason(reason anthropic.StopReason) string {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return "stop"
	case anthropic.StopReasonMaxTokens:
		return "length"
	default:
		return string(reason)
	}
}

func (c *anthropicClient) mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransportTimeout{Err: err}
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 {
			return &RateLimited{}
		}
		return &APIError{Status: apiErr.StatusCode, Err: err}
	}

	slog.WarnContext(ctx, "llm network error", "error", err)
	return &TransportTimeout{Err: err}
}
