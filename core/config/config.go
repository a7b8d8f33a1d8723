package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"pagewatch.dev/core/core/db"
)

// Config holds all application configuration, assembled from environment
// variables with sensible development defaults.
type Config struct {
	// Env is the environment name (development, staging, production).
	Env string

	// Port is the HTTP server port for cmd/server.
	Port string

	// DB holds database configuration. DSN is empty when DATABASE_URL is
	// unset, which callers use to decide whether to fall back to an
	// in-memory cache instead of the Postgres-backed one.
	DB db.Config

	// OTel holds telemetry exporter configuration.
	OTel OTelConfig

	// LLM holds model-provider configuration shared by the planner and
	// interactive agent.
	LLM LLMConfig

	// Browser holds default timeouts for browser automation steps.
	Browser BrowserConfig

	// Cache holds plan-cache expiry defaults.
	Cache CacheConfig

	// Redis holds queue wiring for cmd/worker.
	Redis RedisConfig
}

// OTelConfig configures the OTLP trace/log exporters.
type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// Enabled reports whether an OTLP endpoint has been configured. Absence
// disables telemetry export without error.
func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// LLMProvider identifies which model family a Client talks to.
type LLMProvider string

const (
	LLMProviderOpenAILike    LLMProvider = "openai-like"
	LLMProviderAnthropicLike LLMProvider = "anthropic-like"
)

// LLMConfig configures the language-model client used by the planner and
// interactive agent.
type LLMConfig struct {
	Provider       LLMProvider
	OpenAIKey      string
	AnthropicKey   string
	OpenAIModel    string
	AnthropicModel string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
	BaseURL        string
}

// Model returns the model identifier for the configured provider.
func (c LLMConfig) Model() string {
	if c.Provider == LLMProviderAnthropicLike {
		return c.AnthropicModel
	}
	return c.OpenAIModel
}

// APIKey returns the credential for the configured provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == LLMProviderAnthropicLike {
		return c.AnthropicKey
	}
	return c.OpenAIKey
}

// BrowserConfig configures default browser-automation timeouts.
type BrowserConfig struct {
	// StepTimeout bounds an individual navigation or step action.
	StepTimeout time.Duration
}

// CacheConfig configures plan-cache expiry.
type CacheConfig struct {
	TTLDays int
}

// RedisConfig configures the Redis Streams queue used by cmd/worker.
type RedisConfig struct {
	URL       string
	Stream    string
	Group     string
	Consumer  string
	DLQStream string
}

// Load loads configuration from environment variables, applying the
// defaults documented for development use. A .env file in the working
// directory is loaded first, if present; its absence is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("PAGEWATCH_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "pagewatch"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		LLM: LLMConfig{
			Provider:       LLMProvider(getEnv("LLM_PROVIDER", string(LLMProviderOpenAILike))),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			Temperature:    getEnvFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 4096),
			Timeout:        time.Duration(getEnvInt("LLM_TIMEOUT", 30000)) * time.Millisecond,
			BaseURL:        getEnv("LLM_BASE_URL", ""),
		},
		Browser: BrowserConfig{
			StepTimeout: time.Duration(getEnvInt("BROWSER_TIMEOUT", 30000)) * time.Millisecond,
		},
		Cache: CacheConfig{
			TTLDays: getEnvInt("CACHE_TTL_DAYS", 7),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Stream:    getEnv("REDIS_STREAM", "pagewatch:tasks"),
			Group:     getEnv("REDIS_GROUP", "pagewatch-workers"),
			Consumer:  getEnv("REDIS_CONSUMER", hostnameOrDefault()),
			DLQStream: getEnv("REDIS_DLQ_STREAM", "pagewatch:tasks:dlq"),
		},
	}
}

// IsProduction returns true if running in production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if running in development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsePersistentCache reports whether a durable Postgres-backed plan cache
// should be used in place of the in-memory fallback.
func (c Config) UsePersistentCache() bool {
	return c.DB.DSN != ""
}

func hostnameOrDefault() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "pagewatch-worker-1"
	}
	return h
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
