package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"graham/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	AI            AIConfig
	DataSources   DataSourcesConfig
	Agent         AgentConfig
	Batch         BatchConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"graham"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"graham"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"graham"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	// CacheTTL bounds how long tool responses are reused. Filings are
	// immutable once published so a long TTL is safe.
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"24h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AIConfig struct {
	AnthropicKey    string  `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIKey       string  `envconfig:"OPENAI_API_KEY"`
	DefaultProvider string  `envconfig:"DEFAULT_AI_PROVIDER" default:"anthropic"`
	Model           string  `envconfig:"AI_MODEL"`
	RequestsPerMin  float64 `envconfig:"AI_REQUESTS_PER_MINUTE" default:"50"`
}

type DataSourcesConfig struct {
	FinancialDataAPIKey  string `envconfig:"FINANCIAL_DATA_API_KEY"`
	FinancialDataBaseURL string `envconfig:"FINANCIAL_DATA_BASE_URL" default:"https://financialmodelingprep.com/api/v3"`
	FilingsBaseURL       string `envconfig:"FILINGS_BASE_URL" default:"https://data.sec.gov"`
	// SEC requires a descriptive User-Agent with contact info.
	FilingsUserAgent string `envconfig:"FILINGS_USER_AGENT" default:"graham research agent admin@example.com"`
	SearchAPIKey     string `envconfig:"SEARCH_API_KEY"`
	SearchBaseURL    string `envconfig:"SEARCH_BASE_URL" default:"https://api.tavily.com"`
	RequestsPerMin   int    `envconfig:"DATA_REQUESTS_PER_MINUTE" default:"30"`
}

type AgentConfig struct {
	MaxIterationsQuick    int           `envconfig:"AGENT_MAX_ITERATIONS_QUICK" default:"15"`
	MaxIterationsDeep     int           `envconfig:"AGENT_MAX_ITERATIONS_DEEP" default:"30"`
	MaxOutputTokens       int           `envconfig:"AGENT_MAX_OUTPUT_TOKENS" default:"8192"`
	ThinkingBudget        int           `envconfig:"AGENT_THINKING_BUDGET" default:"4096"`
	YearsToAnalyze        int           `envconfig:"AGENT_YEARS_TO_ANALYZE" default:"5"`
	SummaryThresholdChars int           `envconfig:"AGENT_SUMMARY_THRESHOLD_CHARS" default:"60000"`
	IncludeProxyStatement bool          `envconfig:"AGENT_INCLUDE_PROXY" default:"true"`
	ToolTimeout           time.Duration `envconfig:"AGENT_TOOL_TIMEOUT" default:"60s"`
}

type BatchConfig struct {
	DefaultProtocol string `envconfig:"BATCH_DEFAULT_PROTOCOL" default:"value_funnel"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"false"`
	Port    int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	// .env is optional; ignore if missing
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}

	if cfg.Agent.YearsToAnalyze < 1 || cfg.Agent.YearsToAnalyze > 10 {
		return nil, errors.NewValidationError("AGENT_YEARS_TO_ANALYZE", "must be between 1 and 10", cfg.Agent.YearsToAnalyze)
	}

	return &cfg, nil
}
