package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pagewatch.dev/core/common/logger"
)

// Producer enqueues task invocations onto the stream a worker pool drains.
type Producer interface {
	Enqueue(ctx context.Context, msg TaskMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
}

// NewRedisProducer wraps an already-connected client for one stream.
func NewRedisProducer(client *redis.Client, stream string) Producer {
	return &redisProducer{client: client, stream: stream}
}

// Enqueue assigns a dedupe token when the caller didn't set one and writes
// the message to the stream. The token lets a worker recognize and drop a
// duplicate delivery caused by a requeue racing a reclaim.
func (p *redisProducer) Enqueue(ctx context.Context, msg TaskMessage) error {
	if msg.DedupeToken == "" {
		msg.DedupeToken = uuid.NewString()
	}
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: msg.TaskID, Component: "pagewatch.queue.producer"})

	values, err := messageValues(msg, attempt)
	if err != nil {
		return err
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("enqueue task (stream=%s): %w", p.stream, err)
	}

	slog.InfoContext(ctx, "enqueued task", "url", msg.URL, "dedupe_token", msg.DedupeToken, "attempt", attempt, "stream", p.stream)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
