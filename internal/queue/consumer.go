package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pagewatch.dev/core/common/logger"
)

// ConsumerConfig shapes one worker's view of a stream/group.
type ConsumerConfig struct {
	Stream       string
	Group        string
	Consumer     string
	DLQStream    string
	BatchSize    int64
	Block        time.Duration
	MaxAttempts  int
	RequeueDelay time.Duration
}

// MessageProcessor handles one dequeued task.
type MessageProcessor func(ctx context.Context, msg TaskMessage) error

// RedisConsumer reads from a consumer group, tracking delivery with
// XACK so a crashed worker's pending entries are visible to a reclaimer.
type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

// NewRedisConsumer creates the consumer group if it doesn't already exist.
func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	c := &RedisConsumer{client: client, cfg: cfg}
	if err := c.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}
	return c, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Start from "0" rather than "$" so a recreated group still sees
	// whatever is already on the stream instead of only new arrivals.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil &&
		err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Read pulls up to BatchSize new messages, blocking for up to Block.
// A message that fails to parse is acknowledged immediately rather than
// retried, since no amount of requeuing fixes a malformed payload.
func (c *RedisConsumer) Read(ctx context.Context) ([]TaskMessage, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "pagewatch.queue.consumer"})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []TaskMessage
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			parsed, parseErr := ParseMessage(raw)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to parse task message", "error", parseErr, "raw_message_id", raw.ID, "stream", c.cfg.Stream)
				_ = c.Ack(ctx, TaskMessage{ID: raw.ID, Raw: raw})
				continue
			}
			messages = append(messages, parsed)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read task messages", "count", len(messages), "stream", c.cfg.Stream, "consumer", c.cfg.Consumer)
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg TaskMessage) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}
	return nil
}

// Requeue acks the current delivery and re-adds the message with an
// incremented attempt count, after an optional fixed delay.
func (c *RedisConsumer) Requeue(ctx context.Context, msg TaskMessage, reason string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for requeue: %w", err)
	}

	attempt := msg.Attempt + 1
	values, err := messageValues(msg, attempt)
	if err != nil {
		return err
	}
	if reason != "" {
		values["last_error"] = reason
	}

	if c.cfg.RequeueDelay > 0 {
		time.Sleep(c.cfg.RequeueDelay)
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.Stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("xadd requeue: %w", err)
	}

	slog.InfoContext(ctx, "task requeued for retry", "next_attempt", attempt, "reason", reason)
	return nil
}

// SendDLQ acks the current delivery and writes it to the dead-letter
// stream once MaxAttempts is exhausted.
func (c *RedisConsumer) SendDLQ(ctx context.Context, msg TaskMessage, reason string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for dlq: %w", err)
	}

	values, err := messageValues(msg, msg.Attempt)
	if err != nil {
		return err
	}
	values["error"] = reason

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.DLQStream, Values: values}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "task sent to DLQ", "final_error", reason, "dlq_stream", c.cfg.DLQStream)
	return nil
}
