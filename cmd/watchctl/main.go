// Package main implements watchctl, a one-shot local CLI for running a
// page-watch task directly (bypassing the queue) or enqueueing it onto
// the worker's Redis stream. It replaces the teacher's cmd/explore
// developer-debug tool with the same role: a local, non-production entry
// point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"pagewatch.dev/core/common/id"
	"pagewatch.dev/core/common/llm"
	"pagewatch.dev/core/core/config"
	"pagewatch.dev/core/core/db"
	"pagewatch.dev/core/internal/agent"
	"pagewatch.dev/core/internal/browser"
	"pagewatch.dev/core/internal/cache"
	"pagewatch.dev/core/internal/change"
	"pagewatch.dev/core/internal/model"
	"pagewatch.dev/core/internal/orchestrator"
	"pagewatch.dev/core/internal/planner"
	"pagewatch.dev/core/internal/prompt"
	"pagewatch.dev/core/internal/queue"
	"pagewatch.dev/core/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "watchctl",
		Short: "Local invocation CLI for the page-watch execution engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return id.Init(3)
		},
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newEnqueueCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var instruction, url string
	var planOnly, executionOnly, forceNewPlan bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a task synchronously against the orchestrator, bypassing the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if instruction == "" || url == "" {
				return fmt.Errorf("--instruction and --url are required")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg := config.Load()
			orch, cleanup, err := buildOrchestrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			in := model.TaskInput{
				Instruction: instruction,
				URL:         url,
				Options: &model.TaskOptions{
					PlanOnly:      planOnly,
					ExecutionOnly: executionOnly,
					ForceNewPlan:  forceNewPlan,
				},
			}
			out := orch.Handle(ctx, in)
			return printJSON(out)
		},
	}

	cmd.Flags().StringVar(&instruction, "instruction", "", "natural-language extraction instruction (required)")
	cmd.Flags().StringVar(&url, "url", "", "page URL to watch (required)")
	cmd.Flags().BoolVar(&planOnly, "plan-only", false, "generate a plan without executing it")
	cmd.Flags().BoolVar(&executionOnly, "execution-only", false, "replay the cached plan without regenerating")
	cmd.Flags().BoolVar(&forceNewPlan, "force-new-plan", false, "discard any cached plan and regenerate")
	return cmd
}

func newEnqueueCmd() *cobra.Command {
	var instruction, url string

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Push a task onto the worker's Redis stream instead of running it locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if instruction == "" || url == "" {
				return fmt.Errorf("--instruction and --url are required")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg := config.Load()
			redisOpts, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				return fmt.Errorf("parsing redis url: %w", err)
			}
			redisClient := redis.NewClient(redisOpts)
			defer redisClient.Close()

			producer := queue.NewRedisProducer(redisClient, cfg.Redis.Stream)
			defer producer.Close()

			err = producer.Enqueue(ctx, queue.TaskMessage{Instruction: instruction, URL: url})
			if err != nil {
				return err
			}
			fmt.Println("enqueued")
			return nil
		},
	}

	cmd.Flags().StringVar(&instruction, "instruction", "", "natural-language extraction instruction (required)")
	cmd.Flags().StringVar(&url, "url", "", "page URL to watch (required)")
	return cmd
}

// buildOrchestrator assembles the same dependency graph cmd/server and
// cmd/worker use, falling back to the in-memory cache and no persistence
// when DATABASE_URL is unset.
func buildOrchestrator(ctx context.Context, cfg config.Config) (*orchestrator.Orchestrator, func(), error) {
	var database *db.DB
	var resultStore *store.ExecutionResultStore
	var changeStore *change.Store
	var postgresCache *cache.PostgresCache
	cleanup := func() {}

	if cfg.UsePersistentCache() {
		var err error
		database, err = db.New(ctx, cfg.DB)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to database: %w", err)
		}
		cleanup = func() { database.Close() }
		resultStore = store.NewExecutionResultStore(database)
		changeStore = change.NewStore(database)
		postgresCache = cache.NewPostgresCache(database)
	}

	planCache := cache.New(cfg.UsePersistentCache(), postgresCache)

	primaryLLM, err := llm.New(llm.Provider(cfg.LLM.Provider), llm.Config{
		APIKey: cfg.LLM.APIKey(), BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model(),
		Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens,
		Timeout: int(cfg.LLM.Timeout.Milliseconds()),
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("constructing llm client: %w", err)
	}

	promptStore := prompt.NewStore()
	planGenerator := planner.New(primaryLLM, promptStore)

	browserCfg := browser.Config{DefaultTimeoutMs: int(cfg.Browser.StepTimeout.Milliseconds())}
	agentCfg := agent.DefaultConfig()
	agentCfg.Browser = browserCfg
	interactiveAgent := agent.New(primaryLLM, promptStore, agentCfg)

	orch := orchestrator.New(orchestrator.Deps{
		Cache:         planCache,
		Planner:       planGenerator,
		Agent:         interactiveAgent,
		Change:        changeStore,
		Results:       resultStore,
		BrowserConfig: browserCfg,
	})
	return orch, cleanup, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
