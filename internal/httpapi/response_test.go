package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/orchestrator"
)

func TestStatusCodeForMapsErrorKinds(t *testing.T) {
	cases := []struct {
		kind model.ErrorKind
		want int
	}{
		{model.ErrorKindValidation, http.StatusBadRequest},
		{model.ErrorKindNotFound, http.StatusNotFound},
		{model.ErrorKindNavigationTimeout, http.StatusRequestTimeout},
		{model.ErrorKindTransportTimeout, http.StatusRequestTimeout},
		{model.ErrorKindPlanGeneration, http.StatusUnprocessableEntity},
		{model.ErrorKindBrowserExecution, http.StatusInternalServerError},
		{model.ErrorKindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		out := orchestrator.Output{Status: model.ExecutionStatusError, ErrorKind: tc.kind}
		if got := statusCodeFor(out); got != tc.want {
			t.Errorf("kind %s: got %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestStatusCodeForSuccessIsOK(t *testing.T) {
	out := orchestrator.Output{Status: model.ExecutionStatusSuccess}
	if got := statusCodeFor(out); got != http.StatusOK {
		t.Fatalf("got %d, want 200", got)
	}
}

func TestBuildResponsePlanOnly(t *testing.T) {
	in := model.TaskInput{Options: &model.TaskOptions{PlanOnly: true}}
	out := orchestrator.Output{
		Success: true, Mode: model.ExecutionModePlan, PlanID: 7, TaskSignature: "sig",
		PlanDetails: &orchestrator.PlanDetails{Steps: []orchestrator.StepSummary{{ID: "s1", Type: "click"}}},
	}
	resp := buildResponse(in, out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var body planOnlyResponseBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Mode != "plan_only" || body.PlanID != 7 || body.PlanDetails == nil {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestBuildResponseInteractive(t *testing.T) {
	in := model.TaskInput{}
	out := orchestrator.Output{
		Success: true, Mode: model.ExecutionModeInteractive, Status: model.ExecutionStatusSuccess,
		InteractiveSteps: []model.InteractiveStep{{StepNumber: 1, ProgressScore: 0.5}},
	}
	resp := buildResponse(in, out)
	var body interactiveResponseBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Mode != "interactive" || len(body.InteractiveSteps) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestBuildResponseTraditional(t *testing.T) {
	in := model.TaskInput{}
	out := orchestrator.Output{
		Success: true, Mode: model.ExecutionModePlan, Status: model.ExecutionStatusSuccess,
		PlanID: 3, ExecutionID: 42, Screenshots: []string{"a.png", "b.png"},
	}
	resp := buildResponse(in, out)
	var body traditionalResponseBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.ExecutionID != 42 || body.Screenshots != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestNewResponseHeadersAreJSON(t *testing.T) {
	resp := errorResponse(http.StatusBadRequest, "bad input")
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("headers: %+v", resp.Headers)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}
