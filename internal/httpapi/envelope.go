// Package httpapi is the Gin transport adapting §6's invocation/return
// contract onto HTTP: a single POST /invoke accepting either a raw
// TaskInput document or one wrapped in an API-gateway-style envelope, and
// a POST /tasks/{id}/run convenience route.
package httpapi

import (
	"encoding/json"
	"fmt"

	"pagewatch.dev/core/internal/model"
)

// gatewayEnvelope is the API-gateway-style wrapper the core unwraps before
// looking for a TaskInput. Headers/HTTPMethod/RequestContext are accepted
// but otherwise unused — the body is the only field this transport reads.
type gatewayEnvelope struct {
	Body           string            `json:"body"`
	Headers        map[string]string `json:"headers"`
	HTTPMethod     string            `json:"httpMethod"`
	RequestContext map[string]any    `json:"requestContext"`
}

// parseTaskInput accepts either a raw TaskInput JSON document or one
// wrapped in a gatewayEnvelope, and decodes whichever is present.
func parseTaskInput(raw []byte) (model.TaskInput, error) {
	var env gatewayEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Body != "" {
		raw = []byte(env.Body)
	}

	var in model.TaskInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.TaskInput{}, fmt.Errorf("decoding task input: %w", err)
	}
	if in.Instruction == "" || in.URL == "" {
		return model.TaskInput{}, fmt.Errorf("instruction and url are required")
	}
	return in, nil
}
