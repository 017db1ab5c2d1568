package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	OTel       OTelConfig
	DraftLLM   LLMConfig
	ResolveLLM LLMConfig
	SummaryLLM LLMConfig
	Pipeline   PipelineConfig
	History    HistoryConfig
	NodeID     int64
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type LLMConfig struct {
	Provider string // "openai" or "anthropic"
	APIKey   string
	BaseURL  string // Optional: for custom endpoints
	Model    string
}

type PipelineConfig struct {
	// MaxThreadWorkers bounds how many threads are processed in parallel.
	MaxThreadWorkers int
	// MaxOracleCalls bounds concurrent in-flight oracle calls within a
	// thread. The oracle is a rate- and cost-limited resource.
	MaxOracleCalls int64
	// OracleTimeout is the per-call deadline for oracle invocations.
	OracleTimeout time.Duration
	// BestEffort converts oracle transport failures during adjudication
	// into status=unknown instead of failing the thread.
	BestEffort bool
}

type HistoryConfig struct {
	// Path to the sqlite run-history database. Empty disables history.
	Path string
}

// Load loads configuration from environment variables.
// In development it also reads a local .env file if present.
func Load() Config {
	if getEnv("TRIAGE_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	// Three-model split: a cheap model drafts and adjudicates, a stronger
	// one writes the executive summary. OPENAI_API_KEY is the shared
	// fallback credential for all three.
	sharedKey := getEnv("OPENAI_API_KEY", "")

	return Config{
		Env:    getEnv("TRIAGE_ENV", "development"),
		NodeID: getEnvInt64("TRIAGE_NODE_ID", 1),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "triage"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		DraftLLM: LLMConfig{
			Provider: getEnv("DRAFT_LLM_PROVIDER", "openai"),
			APIKey:   getEnv("DRAFT_LLM_API_KEY", sharedKey),
			BaseURL:  getEnv("DRAFT_LLM_BASE_URL", ""),
			Model:    getEnv("DRAFT_LLM_MODEL", "gpt-4o-mini"),
		},
		ResolveLLM: LLMConfig{
			Provider: getEnv("RESOLVE_LLM_PROVIDER", "openai"),
			APIKey:   getEnv("RESOLVE_LLM_API_KEY", sharedKey),
			BaseURL:  getEnv("RESOLVE_LLM_BASE_URL", ""),
			Model:    getEnv("RESOLVE_LLM_MODEL", "gpt-4o-mini"),
		},
		SummaryLLM: LLMConfig{
			Provider: getEnv("SUMMARY_LLM_PROVIDER", "openai"),
			APIKey:   getEnv("SUMMARY_LLM_API_KEY", sharedKey),
			BaseURL:  getEnv("SUMMARY_LLM_BASE_URL", ""),
			Model:    getEnv("SUMMARY_LLM_MODEL", "gpt-5-mini"),
		},
		Pipeline: PipelineConfig{
			MaxThreadWorkers: getEnvInt("TRIAGE_MAX_THREAD_WORKERS", 4),
			MaxOracleCalls:   getEnvInt64("TRIAGE_MAX_ORACLE_CALLS", 4),
			OracleTimeout:    getEnvDuration("TRIAGE_ORACLE_TIMEOUT", 90*time.Second),
			BestEffort:       getEnvBool("TRIAGE_BEST_EFFORT", false),
		},
		History: HistoryConfig{
			Path: getEnv("TRIAGE_HISTORY_DB", ""),
		},
	}
}

// Validate checks that every configured oracle has a usable credential.
func (c Config) Validate() error {
	oracles := []struct {
		name string
		llm  LLMConfig
	}{
		{"draft", c.DraftLLM},
		{"resolve", c.ResolveLLM},
		{"summary", c.SummaryLLM},
	}
	for _, o := range oracles {
		if !o.llm.Enabled() {
			return fmt.Errorf("%s oracle is not configured: set OPENAI_API_KEY or %s_LLM_API_KEY", o.name, envPrefix(o.name))
		}
	}
	return nil
}

func envPrefix(name string) string {
	switch name {
	case "draft":
		return "DRAFT"
	case "resolve":
		return "RESOLVE"
	default:
		return "SUMMARY"
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && (c.Provider == "openai" || c.Provider == "anthropic")
}

func (c HistoryConfig) Enabled() bool {
	return c.Path != ""
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

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
