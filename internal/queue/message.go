// Package queue carries scheduled and on-demand task invocations from the
// API and cron trigger into the worker pool over a Redis stream, the same
// XAdd/XReadGroup/XAck/XClaim shape the rest of this codebase's ancestry
// uses for event fan-out.
package queue

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"pagewatch.dev/core/internal/model"
)

// TaskMessage is one queued invocation: an instruction/URL pair plus the
// execution options that decide plan-only vs interactive vs replay.
type TaskMessage struct {
	ID          string
	TaskID      *int64
	Instruction string
	URL         string
	Options     *model.TaskOptions
	DedupeToken string
	TraceID     string
	Attempt     int
	Raw         redis.XMessage
}

// TaskInput projects the message back into the shape the orchestrator
// accepts.
func (m TaskMessage) TaskInput() model.TaskInput {
	return model.TaskInput{Instruction: m.Instruction, URL: m.URL, TaskID: m.TaskID, Options: m.Options}
}

func messageValues(msg TaskMessage, attempt int) (map[string]any, error) {
	values := map[string]any{
		"instruction": msg.Instruction,
		"url":         msg.URL,
		"attempt":     attempt,
	}
	if msg.TaskID != nil {
		values["task_id"] = *msg.TaskID
	}
	if msg.DedupeToken != "" {
		values["dedupe_token"] = msg.DedupeToken
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	if msg.Options != nil {
		optionsJSON, err := json.Marshal(msg.Options)
		if err != nil {
			return nil, fmt.Errorf("encoding task options: %w", err)
		}
		values["options_json"] = string(optionsJSON)
	}
	return values, nil
}

// ParseMessage decodes a raw stream entry back into a TaskMessage.
func ParseMessage(raw redis.XMessage) (TaskMessage, error) {
	instruction, err := requireString(raw.Values, "instruction")
	if err != nil {
		return TaskMessage{}, err
	}
	url, err := requireString(raw.Values, "url")
	if err != nil {
		return TaskMessage{}, err
	}

	attempt, err := optionalInt(raw.Values, "attempt")
	if err != nil {
		return TaskMessage{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	taskID, err := optionalInt64(raw.Values, "task_id")
	if err != nil {
		return TaskMessage{}, err
	}

	var options *model.TaskOptions
	if optionsRaw, ok := raw.Values["options_json"]; ok {
		options = &model.TaskOptions{}
		if err := json.Unmarshal([]byte(fmt.Sprint(optionsRaw)), options); err != nil {
			return TaskMessage{}, fmt.Errorf("decoding task options: %w", err)
		}
	}

	return TaskMessage{
		ID:          raw.ID,
		TaskID:      taskID,
		Instruction: instruction,
		URL:         url,
		Options:     options,
		DedupeToken: optionalString(raw.Values, "dedupe_token"),
		TraceID:     optionalString(raw.Values, "trace_id"),
		Attempt:     attempt,
		Raw:         raw,
	}, nil
}

func requireString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func optionalString(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}

func optionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func optionalInt64(values map[string]any, key string) (*int64, error) {
	raw, ok := values[key]
	if !ok {
		return nil, nil
	}
	n, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return &n, nil
}
