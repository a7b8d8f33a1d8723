package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAIClient builds a Client backed by the OpenAI-like Chat
// Completions API (family-A).
func NewOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	return &openAIClient{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (c *openAIClient) buildParams(messages []Message, opts CompleteOptions) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2048
	}

	params := openai.ChatCompletionNewParams{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: openai.Int(int64(maxTokens)),
	}

	temp := c.temperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	params.Temperature = openai.Float(temp)

	if opts.JSONMode && supportsJSONMode(c.model) {
		if opts.Schema != nil {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
					JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:        opts.SchemaName,
						Description: openai.String("Structured response schema"),
						Schema:      opts.Schema,
						Strict:      openai.Bool(true),
					},
				},
			}
		} else {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
			}
		}
	}

	return params
}

func (c *openAIClient) Complete(ctx context.Context, messages []Message, opts CompleteOptions) (*CompleteResult, error) {
	params := c.buildParams(messages, opts)

	if opts.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.mapError(ctx, err)
	}

	slog.DebugContext(ctx, "llm complete",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds())

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: no choices in response")
	}

	choice := resp.Choices[0]
	return &CompleteResult{
		Content:      choice.Message.Content,
		Model:        c.model,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (c *openAIClient) CompleteStream(ctx context.Context, messages []Message, opts CompleteOptions) (func(yield func(StreamChunk) bool), error) {
	params := c.buildParams(messages, opts)

	return func(yield func(StreamChunk) bool) {
		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		var cumulative string
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			cumulative += delta
			if !yield(StreamChunk{ChunkContent: delta, CumulativeContent: cumulative}) {
				return
			}
		}

		yield(StreamChunk{CumulativeContent: cumulative, IsComplete: true})
	}, nil
}

func (c *openAIClient) EstimateCost(promptTokens, completionTokens int) float64 {
	return estimateCost(c.model, promptTokens, completionTokens)
}

func (c *openAIClient) TestConnection(ctx context.Context) bool {
	_, err := c.Complete(ctx, []Message{{Role: RoleUser, Content: "ping"}}, CompleteOptions{MaxTokens: 1})
	return err == nil
}

func (c *openAIClient) Model() string {
	return c.model
}

func (c *openAIClient) mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransportTimeout{Err: err}
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 {
			return &RateLimited{}
		}
		return &APIError{Status: apiErr.StatusCode, Code: string(apiErr.Code), Err: err}
	}

	slog.WarnContext(ctx, "llm network error", "error", err)
	return &TransportTimeout{Err: err}
}
