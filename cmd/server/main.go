package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

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
	"pagewatch.dev/core/internal/httpapi"
	"pagewatch.dev/core/internal/orchestrator"
	"pagewatch.dev/core/internal/planner"
	"pagewatch.dev/core/internal/prompt"
	"pagewatch.dev/core/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg := config.Load()

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "pagewatch starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	var database *db.DB
	var taskStore *store.TaskStore
	var resultStore *store.ExecutionResultStore
	var changeStore *change.Store
	var postgresCache *cache.PostgresCache

	if cfg.UsePersistentCache() {
		database, err = db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		slog.InfoContext(ctx, "database connected")

		taskStore = store.NewTaskStore(database)
		resultStore = store.NewExecutionResultStore(database)
		changeStore = change.NewStore(database)
		postgresCache = cache.NewPostgresCache(database)
	} else {
		slog.InfoContext(ctx, "no DATABASE_URL set, running with in-memory plan cache and no persistence")
	}

	planCache := cache.New(cfg.UsePersistentCache(), postgresCache)

	primaryLLM, err := llm.New(llm.Provider(cfg.LLM.Provider), llm.Config{
		APIKey: cfg.LLM.APIKey(), BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model(),
		Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens,
		Timeout: int(cfg.LLM.Timeout.Milliseconds()),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to construct llm client", "error", err)
		os.Exit(1)
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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, orch, taskStore)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, orch *orchestrator.Orchestrator, tasks *store.TaskStore) *gin.Engine {
	router := gin.New()

	httpapi.SetupRoutes(router, orch, tasks, httpapi.RouterConfig{
		OTelEnabled: cfg.OTel.Enabled(),
		ServiceName: cfg.OTel.ServiceName,
	})

	return router
}

const banner = `
██████╗  █████╗  ██████╗ ███████╗██╗    ██╗ █████╗ ████████╗ ██████╗██╗  ██╗
██╔══██╗██╔══██╗██╔════╝ ██╔════╝██║    ██║██╔══██╗╚══██╔══╝██╔════╝██║  ██║
██████╔╝███████║██║  ███╗█████╗  ██║ █╗ ██║███████║   ██║   ██║     ███████║
██╔═══╝ ██╔══██║██║   ██║██╔══╝  ██║███╗██║██╔══██║   ██║   ██║     ██╔══██║
██║     ██║  ██║╚██████╔╝███████╗╚███╔███╔╝██║  ██║   ██║   ╚██████╗██║  ██║
╚═╝     ╚═╝  ╚═╝ ╚═════╝ ╚══════╝ ╚══╝╚══╝ ╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝
`
