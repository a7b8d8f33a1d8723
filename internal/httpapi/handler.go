package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/orchestrator"
	"pagewatch.dev/core/internal/store"
)

// TaskProcessor abstracts the orchestrator for testability. Implemented by
// *orchestrator.Orchestrator.
type TaskProcessor interface {
	Handle(ctx context.Context, in model.TaskInput) orchestrator.Output
}

// InvokeHandler serves both the envelope-aware /invoke route and the
// task-lookup convenience route.
type InvokeHandler struct {
	processor TaskProcessor
	tasks     *store.TaskStore
}

func NewInvokeHandler(processor TaskProcessor, tasks *store.TaskStore) *InvokeHandler {
	return &InvokeHandler{processor: processor, tasks: tasks}
}

// Invoke handles POST /invoke: unwrap the body, run it, and mirror
// whatever status code and body variant the orchestrator result implies.
func (h *InvokeHandler) Invoke(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeLambdaResponse(c, errorResponse(http.StatusBadRequest, "failed to read request body"))
		return
	}

	in, err := parseTaskInput(raw)
	if err != nil {
		writeLambdaResponse(c, errorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	out := h.processor.Handle(c.Request.Context(), in)
	writeLambdaResponse(c, buildResponse(in, out))
}

// RunTask handles POST /tasks/:id/run: load the task row and build its
// TaskInput directly, skipping the envelope.
func (h *InvokeHandler) RunTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeLambdaResponse(c, errorResponse(http.StatusBadRequest, "invalid task id"))
		return
	}

	ctx := c.Request.Context()
	task, err := h.tasks.Get(ctx, id)
	if err != nil {
		statusCode := http.StatusInternalServerError
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) && domainErr.Kind == model.ErrorKindNotFound {
			statusCode = http.StatusNotFound
		}
		writeLambdaResponse(c, errorResponse(statusCode, err.Error()))
		return
	}

	in := model.TaskInput{Instruction: task.Instruction, URL: task.URL, TaskID: &task.ID}
	out := h.processor.Handle(ctx, in)
	writeLambdaResponse(c, buildResponse(in, out))
}

func writeLambdaResponse(c *gin.Context, resp LambdaResponse) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, "application/json", []byte(resp.Body))
}
