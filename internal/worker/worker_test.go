package worker

import (
	"context"
	"errors"
	"testing"

	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/orchestrator"
	"pagewatch.dev/core/internal/queue"
)

type fakeConsumer struct {
	acked     []string
	requeued  []string
	dlqd      []string
	requeueFn func(msg queue.TaskMessage, reason string) error
}

func (f *fakeConsumer) Read(ctx context.Context) ([]queue.TaskMessage, error) { return nil, nil }
func (f *fakeConsumer) Ack(ctx context.Context, msg queue.TaskMessage) error {
	f.acked = append(f.acked, msg.ID)
	return nil
}
func (f *fakeConsumer) Requeue(ctx context.Context, msg queue.TaskMessage, reason string) error {
	f.requeued = append(f.requeued, msg.ID)
	return nil
}
func (f *fakeConsumer) SendDLQ(ctx context.Context, msg queue.TaskMessage, reason string) error {
	f.dlqd = append(f.dlqd, msg.ID)
	return nil
}

type fakeProcessor struct {
	out   orchestrator.Output
	panic bool
}

func (f *fakeProcessor) Handle(ctx context.Context, in model.TaskInput) orchestrator.Output {
	if f.panic {
		panic("boom")
	}
	return f.out
}

func TestProcessMessageReturnsErrorOnOrchestratorError(t *testing.T) {
	w := New(&fakeConsumer{}, &fakeProcessor{out: orchestrator.Output{Status: model.ExecutionStatusError, Error: "transport failed"}}, Config{MaxAttempts: 3})
	err := w.ProcessMessage(context.Background(), queue.TaskMessage{ID: "1-0", Instruction: "check price", URL: "https://example.com"})
	if err == nil {
		t.Fatal("expected an error for orchestrator error status")
	}
}

func TestProcessMessageSucceedsOnTerminalStatus(t *testing.T) {
	for _, status := range []model.ExecutionStatus{model.ExecutionStatusSuccess, model.ExecutionStatusFailed, model.ExecutionStatusTimeout} {
		w := New(&fakeConsumer{}, &fakeProcessor{out: orchestrator.Output{Status: status}}, Config{MaxAttempts: 3})
		if err := w.ProcessMessage(context.Background(), queue.TaskMessage{ID: "1-0"}); err != nil {
			t.Errorf("status %v: unexpected error %v", status, err)
		}
	}
}

func TestProcessMessageSafeRecoversPanic(t *testing.T) {
	w := New(&fakeConsumer{}, &fakeProcessor{panic: true}, Config{MaxAttempts: 3})
	err := w.processMessageSafe(context.Background(), queue.TaskMessage{ID: "1-0"})
	if err == nil {
		t.Fatal("expected a recovered panic to surface as an error")
	}
}

func TestHandleFailedMessageRequeuesBelowMaxAttempts(t *testing.T) {
	consumer := &fakeConsumer{}
	w := New(consumer, &fakeProcessor{}, Config{MaxAttempts: 3})
	w.handleFailedMessage(context.Background(), queue.TaskMessage{ID: "1-0", Attempt: 1}, errors.New("boom"))

	if len(consumer.requeued) != 1 || len(consumer.dlqd) != 0 {
		t.Errorf("consumer = %+v, want one requeue and no dlq", consumer)
	}
}

func TestHandleFailedMessageSendsDLQAtMaxAttempts(t *testing.T) {
	consumer := &fakeConsumer{}
	w := New(consumer, &fakeProcessor{}, Config{MaxAttempts: 3})
	w.handleFailedMessage(context.Background(), queue.TaskMessage{ID: "1-0", Attempt: 3}, errors.New("boom"))

	if len(consumer.dlqd) != 1 || len(consumer.requeued) != 0 {
		t.Errorf("consumer = %+v, want one dlq send and no requeue", consumer)
	}
}
