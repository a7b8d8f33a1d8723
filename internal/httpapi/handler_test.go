package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/orchestrator"
)

type fakeProcessor struct {
	out orchestrator.Output
	got model.TaskInput
}

func (f *fakeProcessor) Handle(ctx context.Context, in model.TaskInput) orchestrator.Output {
	f.got = in
	return f.out
}

func newTestRouter(processor TaskProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewInvokeHandler(processor, nil)
	router.POST("/invoke", handler.Invoke)
	return router
}

func TestInvokeHandlesRawTaskInput(t *testing.T) {
	proc := &fakeProcessor{out: orchestrator.Output{Success: true, Status: model.ExecutionStatusSuccess}}
	router := newTestRouter(proc)

	body := strings.NewReader(`{"instruction":"extract price","url":"https://example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/invoke", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	if proc.got.Instruction != "extract price" {
		t.Fatalf("processor did not receive decoded input: %+v", proc.got)
	}
}

func TestInvokeRejectsMalformedBody(t *testing.T) {
	proc := &fakeProcessor{}
	router := newTestRouter(proc)

	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestInvokeMapsErrorKindToStatusCode(t *testing.T) {
	proc := &fakeProcessor{out: orchestrator.Output{
		Status: model.ExecutionStatusError, ErrorKind: model.ErrorKindNotFound, Error: "NO_CACHED_PLAN",
	}}
	router := newTestRouter(proc)

	body := strings.NewReader(`{"instruction":"extract price","url":"https://example.com","options":{"executionOnly":true}}`)
	req := httptest.NewRequest(http.MethodPost, "/invoke", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
}

func TestRunTaskRejectsInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewInvokeHandler(&fakeProcessor{}, nil)
	router.POST("/tasks/:id/run", handler.RunTask)

	req := httptest.NewRequest(http.MethodPost, "/tasks/not-a-number/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
}
