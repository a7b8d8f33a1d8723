package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pagewatch.dev/core/common/logger"
	"pagewatch.dev/core/internal/queue"
)

type ReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// Reclaimer periodically claims pending entries idle longer than MinIdle,
// covering a worker that died after XREADGROUP but before XACK.
type Reclaimer struct {
	client    *redis.Client
	cfg       ReclaimerConfig
	consumer  *queue.RedisConsumer
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(client *redis.Client, cfg ReclaimerConfig, consumer *queue.RedisConsumer, processor queue.MessageProcessor) *Reclaimer {
	return &Reclaimer{
		client: client, cfg: cfg, consumer: consumer, processor: processor,
		stopCh: make(chan struct{}), stoppedCh: make(chan struct{}),
	}
}

func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "pagewatch.worker.reclaimer"})
	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started", "interval", r.cfg.Interval, "min_idle", r.cfg.MinIdle, "stream", r.cfg.Stream)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if err := r.reclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			}
		}
	}
}

func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

func (r *Reclaimer) reclaimOnce(ctx context.Context) error {
	pending, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.cfg.Stream, Group: r.cfg.Group, Idle: r.cfg.MinIdle, Start: "-", End: "+", Count: r.cfg.BatchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("xpending: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "found stale pending tasks", "count", len(pending))
	for _, p := range pending {
		if err := r.reclaimMessage(ctx, p); err != nil {
			slog.ErrorContext(ctx, "failed to reclaim task", "error", err, "message_id", p.ID, "original_consumer", p.Consumer)
		}
	}
	return nil
}

func (r *Reclaimer) reclaimMessage(ctx context.Context, pending redis.XPendingExt) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(pending.ID)})

	claimed, err := r.client.XClaim(ctx, &redis.XClaimArgs{
		Stream: r.cfg.Stream, Group: r.cfg.Group, Consumer: r.cfg.Consumer, MinIdle: r.cfg.MinIdle, Messages: []string{pending.ID},
	}).Result()
	if err != nil {
		return fmt.Errorf("xclaim: %w", err)
	}
	if len(claimed) == 0 {
		slog.DebugContext(ctx, "task already reclaimed by another worker")
		return nil
	}

	raw := claimed[0]
	msg, err := queue.ParseMessage(raw)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse reclaimed task, acknowledging to prevent loop", "error", err)
		_ = r.consumer.Ack(ctx, queue.TaskMessage{ID: raw.ID, Raw: raw})
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: msg.TaskID})
	start := time.Now()
	if err := r.processor(ctx, msg); err != nil {
		return fmt.Errorf("processing reclaimed task: %w", err)
	}

	slog.InfoContext(ctx, "reclaimed task processed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
