package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/batpad/ll-html/internal/budget"
)

// Config is built once and passed by value. Nothing in it is mutated after Load.
type Config struct {
	Limits    Limits
	Features  Features
	Model     ModelConfig
	Retry     RetryConfig
	Search    SearchConfig
	Catalog   CatalogConfig
	Store     StoreConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// Limits are the per-Session ceilings and thresholds.
type Limits struct {
	MaxIterations             int
	MaxModelCalls             int
	ToolTimeout               time.Duration
	MaxToolTime               time.Duration
	MaxOutputTokensReasoning  int
	MaxOutputTokensGeneration int
	MaxOutputTokensRepair     int
	MaxOutputTokensTotal      int
	MinSuccessfulToolCalls    int
	MaxRepairRounds           int
	RepairTolerance           int
}

// Ceilings converts the limits into budget ceilings.
func (l Limits) Ceilings() budget.Ceilings {
	return budget.Ceilings{
		MaxIterations:   l.MaxIterations,
		MaxModelCalls:   l.MaxModelCalls,
		MaxToolTime:     l.MaxToolTime,
		MaxOutputTokens: l.MaxOutputTokensTotal,
	}
}

type Features struct {
	WebSearch     bool
	APIValidation bool
	Planning      bool
}

type ModelConfig struct {
	Provider string
	Name     string
	APIKey   string
	BaseURL  string
	RPS      float64
	Burst    int
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

type SearchConfig struct {
	Provider  string
	TavilyKey string
}

type CatalogConfig struct {
	SourcesFile string
}

type StoreConfig struct {
	Kind        string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	DatabaseURL string
	Dir         string
}

type LogConfig struct {
	Level  string
	Format string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// Load reads an optional dotenv file and then the process environment.
// An empty envFile loads ".env" when present.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv-style lookup.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env{get: getenv}
	genTokens := e.getInt("AGENT_MAX_TOKENS_FINAL_GENERATION", 6000)
	provider := strings.ToLower(e.getStr("LLM_PROVIDER", "gemini"))

	cfg := Config{
		Limits: Limits{
			MaxIterations:             e.getInt("AGENT_MAX_ITERATIONS", 8),
			MaxModelCalls:             e.getInt(firstSet(getenv, "AGENT_MAX_MODEL_CALLS", "AGENT_MAX_LLM_CALLS"), 15),
			ToolTimeout:               e.getSeconds("AGENT_TOOL_TIMEOUT", 10*time.Second),
			MaxToolTime:               e.getSeconds("AGENT_MAX_TOOL_SECONDS", 120*time.Second),
			MaxOutputTokensReasoning:  e.getInt("AGENT_MAX_TOKENS_REASONING", 2000),
			MaxOutputTokensGeneration: genTokens,
			MaxOutputTokensRepair:     e.getInt("AGENT_MAX_TOKENS_REPAIR", genTokens),
			MaxOutputTokensTotal:      e.getInt("AGENT_MAX_OUTPUT_TOKENS_TOTAL", 0),
			MinSuccessfulToolCalls:    e.getInt("AGENT_MIN_SUCCESSFUL_TOOL_CALLS", 2),
			MaxRepairRounds:           e.getInt("VALIDATION_MAX_REPAIR_ROUNDS", 3),
			RepairTolerance:           e.getInt("VALIDATION_TOLERANCE", 2),
		},
		Features: Features{
			WebSearch:     e.getBool("AGENT_ENABLE_WEB_SEARCH", true),
			APIValidation: e.getBool("AGENT_ENABLE_API_VALIDATION", true),
			Planning:      e.getBool("AGENT_ENABLE_PLANNING", true),
		},
		Model: ModelConfig{
			Provider: provider,
			Name:     e.getStr("LLM_MODEL", defaultModel(provider)),
			APIKey:   firstNonEmpty(e.getStr("LLM_API_KEY", ""), e.getStr(providerKeyVar(provider), "")),
			BaseURL:  e.getStr("LLM_BASE_URL", ""),
			RPS:      e.getFloat("LLM_RPS", 0),
			Burst:    e.getInt("LLM_BURST", 1),
		},
		Retry: RetryConfig{
			MaxAttempts: e.getInt("LLM_RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   e.getDuration("LLM_RETRY_BASE_DELAY", 500*time.Millisecond),
			Multiplier:  e.getFloat("LLM_RETRY_MULTIPLIER", 2),
			MaxDelay:    e.getDuration("LLM_RETRY_MAX_DELAY", 8*time.Second),
		},
		Search: SearchConfig{
			Provider:  strings.ToLower(e.getStr("SEARCH_PROVIDER", "duckduckgo")),
			TavilyKey: e.getStr("TAVILY_API_KEY", ""),
		},
		Catalog: CatalogConfig{
			SourcesFile: e.getStr("CATALOG_SOURCES_FILE", "configs/sources.yaml"),
		},
		Store: StoreConfig{
			Kind:        strings.ToLower(e.getStr("STORE_KIND", "memory")),
			S3Endpoint:  e.getStr("S3_ENDPOINT", ""),
			S3Region:    e.getStr("S3_REGION", "us-east-1"),
			S3AccessKey: firstNonEmpty(e.getStr("S3_ACCESS_KEY", ""), e.getStr("MINIO_ROOT_USER", "")),
			S3SecretKey: firstNonEmpty(e.getStr("S3_SECRET_KEY", ""), e.getStr("MINIO_ROOT_PASSWORD", "")),
			S3Bucket:    e.getStr("S3_BUCKET", "llhtml-artifacts"),
			S3UseSSL:    e.getBool("S3_USE_SSL", true),
			DatabaseURL: e.getStr("DATABASE_URL", ""),
			Dir:         e.getStr("STORE_DIR", "artifacts"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(e.getStr("LOG_LEVEL", "info")),
			Format: strings.ToLower(e.getStr("LOG_FORMAT", "console")),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: e.getStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  e.getStr("OTEL_SERVICE_NAME", "llhtml"),
		},
	}
	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ceilings and thresholds.
func (c Config) Validate() error {
	l := c.Limits
	var errs []error
	if err := l.Ceilings().Validate(); err != nil {
		errs = append(errs, err)
	}
	if l.ToolTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: tool timeout must be positive"))
	}
	if l.MaxOutputTokensReasoning <= 0 || l.MaxOutputTokensGeneration <= 0 || l.MaxOutputTokensRepair <= 0 {
		errs = append(errs, fmt.Errorf("config: per-phase output token limits must be positive"))
	}
	if l.MinSuccessfulToolCalls < 0 {
		errs = append(errs, fmt.Errorf("config: min successful tool calls must not be negative"))
	}
	if l.MaxRepairRounds < 1 {
		errs = append(errs, fmt.Errorf("config: max repair rounds must be at least 1"))
	}
	if l.RepairTolerance < 0 {
		errs = append(errs, fmt.Errorf("config: repair tolerance must not be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("config: retry max attempts must be at least 1"))
	}
	switch c.Store.Kind {
	case "memory", "file", "s3", "postgres", "none":
	default:
		errs = append(errs, fmt.Errorf("config: unknown store kind %q", c.Store.Kind))
	}
	return errors.Join(errs...)
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "groq":
		return "llama-3.3-70b-versatile"
	case "fake":
		return "fake"
	default:
		return "gemini-2.5-flash"
	}
}

func providerKeyVar(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

type env struct {
	get  func(string) string
	errs []error
}

func (e *env) getStr(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *env) getInt(key string, def int) int {
	raw := strings.TrimSpace(e.get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return n
}

func (e *env) getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(e.get(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return f
}

func (e *env) getBool(key string, def bool) bool {
	raw := strings.TrimSpace(e.get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return v
}

// getSeconds accepts a bare number of seconds or a Go duration.
func (e *env) getSeconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(e.get(key))
	if raw == "" {
		return def
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(n * float64(time.Second))
	}
	return e.getDuration(key, def)
}

func (e *env) getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(e.get(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return d
}

func firstSet(getenv func(string) string, keys ...string) string {
	for _, k := range keys {
		if strings.TrimSpace(getenv(k)) != "" {
			return k
		}
	}
	return keys[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
