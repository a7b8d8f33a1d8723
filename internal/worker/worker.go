// Package worker drains queued task invocations and runs them through the
// orchestrator, retrying transient failures and routing exhausted ones to
// a dead-letter stream.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"pagewatch.dev/core/common/logger"
	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/orchestrator"
	"pagewatch.dev/core/internal/queue"
)

// Consumer abstracts the queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.TaskMessage, error)
	Ack(ctx context.Context, msg queue.TaskMessage) error
	Requeue(ctx context.Context, msg queue.TaskMessage, reason string) error
	SendDLQ(ctx context.Context, msg queue.TaskMessage, reason string) error
}

// TaskProcessor abstracts the orchestrator for testability. Implemented by
// *orchestrator.Orchestrator.
type TaskProcessor interface {
	Handle(ctx context.Context, in model.TaskInput) orchestrator.Output
}

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer  Consumer
	processor TaskProcessor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, processor TaskProcessor, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run polls for batches until the context is cancelled or Stop is called.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "watch worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "watch worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "task processing failed", "error", err, "message_id", msg.ID, "task_id", msg.TaskID)
			w.handleFailedMessage(ctx, msg, err)
			continue
		}
		if err := w.consumer.Ack(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to ack message", "error", err, "message_id", msg.ID)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.TaskMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in task processing",
				"panic", r, "stack", string(debug.Stack()), "message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage is exported so the reclaimer can reuse it for messages
// claimed from a crashed worker's pending entries.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.TaskMessage) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TaskID: msg.TaskID, MessageID: logger.Ptr(msg.ID), Component: "pagewatch.worker",
	})

	slog.InfoContext(ctx, "processing task", "url", msg.URL, "attempt", msg.Attempt)

	result := w.processor.Handle(ctx, msg.TaskInput())
	if result.Status == model.ExecutionStatusError {
		return fmt.Errorf("%s", orDefault(result.Error, "unknown orchestrator error"))
	}

	slog.InfoContext(ctx, "task processed", "status", result.Status)
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.TaskMessage, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ", "message_id", msg.ID, "attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed task", "message_id", msg.ID, "attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue task", "error", requeueErr)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
