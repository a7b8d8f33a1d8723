package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pagewatch.dev/core/common/id"
	"pagewatch.dev/core/common/llm"
	"pagewatch.dev/core/common/logger"
	"pagewatch.dev/core/common/otel"
	"pagewatch.dev/core/core/config"
	"pagewatch.dev/core/core/db"
	"pagewatch.dev/core/internal/agent"
	"pagewatch.dev/core/internal/browser"
	"pagewatch.dev/core/internal/cache"
	"pagewatch.dev/core/internal/change"
	"pagewatch.dev/core/internal/orchestrator"
	"pagewatch.dev/core/internal/planner"
	"pagewatch.dev/core/internal/prompt"
	"pagewatch.dev/core/internal/queue"
	"pagewatch.dev/core/internal/store"
	"pagewatch.dev/core/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg := config.Load()

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "pagewatch worker starting",
		"env", cfg.Env, "consumer_group", cfg.Redis.Group, "consumer_name", cfg.Redis.Consumer)

	if !cfg.UsePersistentCache() {
		slog.ErrorContext(ctx, "DATABASE_URL is required for the worker")
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.Stream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Redis.Stream,
		Group:        cfg.Redis.Group,
		Consumer:     cfg.Redis.Consumer,
		DLQStream:    cfg.Redis.DLQStream,
		BatchSize:    1,
		Block:        5 * time.Second,
		MaxAttempts:  3,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	primaryLLM, err := llm.New(llm.Provider(cfg.LLM.Provider), llm.Config{
		APIKey: cfg.LLM.APIKey(), BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model(),
		Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens,
		Timeout: int(cfg.LLM.Timeout.Milliseconds()),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	promptStore := prompt.NewStore()
	planGenerator := planner.New(primaryLLM, promptStore)

	browserCfg := browser.Config{DefaultTimeoutMs: int(cfg.Browser.StepTimeout.Milliseconds())}
	agentCfg := agent.DefaultConfig()
	agentCfg.Browser = browserCfg
	interactiveAgent := agent.New(primaryLLM, promptStore, agentCfg)

	resultStore := store.NewExecutionResultStore(database)
	changeStore := change.NewStore(database)
	postgresCache := cache.NewPostgresCache(database)

	orch := orchestrator.New(orchestrator.Deps{
		Cache:         postgresCache,
		Planner:       planGenerator,
		Agent:         interactiveAgent,
		Change:        changeStore,
		Results:       resultStore,
		BrowserConfig: browserCfg,
	})

	w := worker.New(consumer, orch, worker.Config{MaxAttempts: 3})

	reclaimer := worker.NewReclaimer(redisClient, worker.ReclaimerConfig{
		Stream:    cfg.Redis.Stream,
		Group:     cfg.Redis.Group,
		Consumer:  cfg.Redis.Consumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, w.ProcessMessage)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go reclaimer.Run(ctx)
	go func() {
		defer wg.Done()
		if err := w.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "worker run loop exited", "error", err)
		}
	}()

	slog.InfoContext(ctx, "worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown...")
	cancel()

	shutdownComplete := make(chan struct{})
	go func() {
		reclaimer.Stop()
		w.Stop()
		wg.Wait()
		close(shutdownComplete)
	}()

	shutdownTimeout := 30 * time.Second
	select {
	case <-shutdownComplete:
		slog.InfoContext(ctx, "graceful shutdown completed")
	case <-time.After(shutdownTimeout):
		slog.WarnContext(ctx, "shutdown timeout exceeded, forcing exit", "timeout", shutdownTimeout)
	}

	slog.InfoContext(ctx, "closing database connection")
	database.Close()

	slog.InfoContext(ctx, "closing redis connection")
	if err := redisClient.Close(); err != nil {
		slog.ErrorContext(ctx, "redis close error", "error", err)
	}

	if telemetry != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "shutdown complete")
}

const banner = `
██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
 ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
