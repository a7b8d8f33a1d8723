package httpapi

import (
	"encoding/json"
	"net/http"

	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/orchestrator"
)

// LambdaResponse is the {statusCode, headers, body} shape every invocation
// returns, whether served directly over HTTP or adapted to an API-gateway
// integration.
type LambdaResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func newResponse(statusCode int, payload any) LambdaResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		return LambdaResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    jsonHeaders(),
			Body:       `{"success":false,"error":"failed to encode response"}`,
		}
	}
	return LambdaResponse{StatusCode: statusCode, Headers: jsonHeaders(), Body: string(body)}
}

func errorResponse(statusCode int, message string) LambdaResponse {
	return newResponse(statusCode, map[string]any{"success": false, "error": message})
}

// statusCodeFor maps an orchestrator result onto one of §6's six status
// codes. A non-error status is always 200, including a loop escalation —
// escalation is a recoverable outcome the caller inspects via the
// escalation field, not a transport failure.
func statusCodeFor(out orchestrator.Output) int {
	if out.Status != model.ExecutionStatusError {
		return http.StatusOK
	}
	switch out.ErrorKind {
	case model.ErrorKindValidation:
		return http.StatusBadRequest
	case model.ErrorKindNotFound:
		return http.StatusNotFound
	case model.ErrorKindNavigationTimeout, model.ErrorKindTransportTimeout:
		return http.StatusRequestTimeout
	case model.ErrorKindPlanGeneration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type interactiveStepView struct {
	StepNumber    int        `json:"stepNumber"`
	Action        model.Step `json:"action"`
	ProgressScore float64    `json:"progressScore"`
	IsComplete    bool       `json:"isComplete"`
	Reasoning     string     `json:"reasoning"`
}

type interactiveMetricsView struct {
	ExecutionTimeMs      int     `json:"executionTimeMs"`
	TotalTimeMs          int     `json:"totalTimeMs"`
	AverageProgressScore float64 `json:"averageProgressScore"`
	MaxStepsReached      bool    `json:"maxStepsReached"`
	StagnationDetected   bool    `json:"stagnationDetected"`
}

type escalationView struct {
	Escalated bool   `json:"escalated"`
	Reason    string `json:"reason,omitempty"`
}

type interactiveResponseBody struct {
	Success          bool                   `json:"success"`
	Mode             string                 `json:"mode"`
	PlanID           int64                  `json:"planId,omitempty"`
	Status           model.ExecutionStatus  `json:"status"`
	ExtractedData    map[string]any         `json:"extractedData,omitempty"`
	InteractiveSteps []interactiveStepView  `json:"interactiveSteps"`
	Metrics          interactiveMetricsView `json:"metrics"`
	Escalation       *escalationView        `json:"escalation,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

func interactiveBody(out orchestrator.Output) interactiveResponseBody {
	steps := make([]interactiveStepView, 0, len(out.InteractiveSteps))
	for _, s := range out.InteractiveSteps {
		steps = append(steps, interactiveStepView{
			StepNumber: s.StepNumber, Action: s.Action, ProgressScore: s.ProgressScore,
			IsComplete: s.IsComplete, Reasoning: s.Reasoning,
		})
	}

	var escalation *escalationView
	if out.Escalation != nil {
		escalation = &escalationView{Escalated: out.Escalation.Escalated, Reason: out.Escalation.Reason}
	}

	return interactiveResponseBody{
		Success: out.Success, Mode: "interactive", PlanID: out.PlanID, Status: out.Status,
		ExtractedData: out.ExtractedData, InteractiveSteps: steps,
		Metrics: interactiveMetricsView{
			ExecutionTimeMs: out.Metrics.ExecutionTimeMs, TotalTimeMs: out.Metrics.TotalTimeMs,
			AverageProgressScore: out.Metrics.AverageProgressScore,
			MaxStepsReached:      out.Metrics.MaxStepsReached,
			StagnationDetected:   out.Metrics.StagnationDetected,
		},
		Escalation: escalation, Error: out.Error,
	}
}

type planStepView struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Selector    string `json:"selector,omitempty"`
}

type planDetailsView struct {
	Steps               []planStepView `json:"steps"`
	EstimatedDurationMs int            `json:"estimatedDuration"`
	Confidence          float64        `json:"confidence"`
	Reasoning           string         `json:"reasoning,omitempty"`
}

type planOnlyResponseBody struct {
	Success         bool             `json:"success"`
	Mode            string           `json:"mode"`
	PlanID          int64            `json:"planId,omitempty"`
	TaskSignature   string           `json:"taskSignature"`
	PlanDetails     *planDetailsView `json:"planDetails,omitempty"`
	ExecutionTimeMs int              `json:"executionTime"`
	Message         string           `json:"message,omitempty"`
	Error           string           `json:"error,omitempty"`
}

func planOnlyBody(out orchestrator.Output) planOnlyResponseBody {
	var details *planDetailsView
	if out.PlanDetails != nil {
		steps := make([]planStepView, 0, len(out.PlanDetails.Steps))
		for _, s := range out.PlanDetails.Steps {
			steps = append(steps, planStepView{ID: s.ID, Type: s.Type, Description: s.Description, Selector: s.Selector})
		}
		details = &planDetailsView{
			Steps: steps, EstimatedDurationMs: out.PlanDetails.EstimatedDurationMs,
			Confidence: out.PlanDetails.Confidence, Reasoning: out.PlanDetails.Reasoning,
		}
	}

	return planOnlyResponseBody{
		Success: out.Success, Mode: "plan_only", PlanID: out.PlanID, TaskSignature: out.TaskSignature,
		PlanDetails: details, ExecutionTimeMs: out.Metrics.TotalTimeMs, Message: out.Message, Error: out.Error,
	}
}

type traditionalMetricsView struct {
	ExecutionTimeMs int  `json:"executionTimeMs"`
	TotalTimeMs     int  `json:"totalTimeMs"`
	PlanGenerated   bool `json:"planGenerated"`
	CacheHit        bool `json:"cacheHit"`
}

type traditionalResponseBody struct {
	Success       bool                  `json:"success"`
	PlanID        int64                 `json:"planId,omitempty"`
	ExecutionID   int64                 `json:"executionId,omitempty"`
	Status        model.ExecutionStatus `json:"status,omitempty"`
	ExtractedData map[string]any        `json:"extractedData,omitempty"`
	Screenshots   int                   `json:"screenshots"`
	Metrics       traditionalMetricsView `json:"metrics"`
	Logs          []string              `json:"logs,omitempty"`
	Error         string                `json:"error,omitempty"`
}

func traditionalBody(out orchestrator.Output) traditionalResponseBody {
	return traditionalResponseBody{
		Success: out.Success, PlanID: out.PlanID, ExecutionID: out.ExecutionID, Status: out.Status,
		ExtractedData: out.ExtractedData, Screenshots: len(out.Screenshots),
		Metrics: traditionalMetricsView{
			ExecutionTimeMs: out.Metrics.ExecutionTimeMs, TotalTimeMs: out.Metrics.TotalTimeMs,
			PlanGenerated: out.Metrics.PlanGenerated, CacheHit: out.Metrics.CacheHit,
		},
		Logs: out.Logs, Error: out.Error,
	}
}

// buildResponse picks one of §6's three response-body variants: plan_only
// when the request asked for one explicitly, interactive when the
// orchestrator ran the agent loop, and the traditional shape otherwise
// (plan mode, execution-only replay).
func buildResponse(in model.TaskInput, out orchestrator.Output) LambdaResponse {
	statusCode := statusCodeFor(out)

	switch {
	case in.Options != nil && in.Options.PlanOnly:
		return newResponse(statusCode, planOnlyBody(out))
	case out.Mode == model.ExecutionModeInteractive:
		return newResponse(statusCode, interactiveBody(out))
	default:
		return newResponse(statusCode, traditionalBody(out))
	}
}
