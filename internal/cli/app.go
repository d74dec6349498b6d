package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"graham/internal/adapters/ai"
	"graham/internal/adapters/config"
	"graham/internal/adapters/errors/noop"
	"graham/internal/adapters/errors/sentry"
	"graham/internal/adapters/redis"
	"graham/internal/agents"
	"graham/internal/domain/analysis"
	"graham/internal/repository/postgres"
	"graham/internal/tools"
	"graham/internal/tools/calculator"
	"graham/internal/tools/filings"
	"graham/internal/tools/fundata"
	"graham/internal/tools/shared"
	"graham/internal/tools/websearch"
	"graham/pkg/errors"
	"graham/pkg/logger"
)

// app holds the wired dependency graph for one command invocation.
type app struct {
	cfg      *config.Config
	db       *sqlx.DB
	cache    *redis.Client
	repo     *postgres.AnalysisRepository
	provider ai.ChatProvider
	model    ai.ModelInfo
	tools    *tools.Registry
	engine   *agents.Engine
	deepDive *agents.DeepDiveController
	fundata  *fundata.Client
	metrics  *http.Server
	log      *logger.Logger
}

// newApp wires the full stack: storage, cache, AI providers, tools and the
// reasoning engine. Postgres is required; Redis is a cache and degrades to
// uncached tools when unavailable.
func newApp(cfg *config.Config) (*app, error) {
	log := logger.Get()

	db, err := postgres.Connect(cfg.Postgres)
	if err != nil {
		return nil, err
	}

	cache, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Warnw("Redis unavailable; tool responses will not be cached", "error", err)
		cache = nil
	}

	registry := ai.NewRegistry()
	if cfg.AI.AnthropicKey != "" {
		limiter := ai.NewRateLimiter("anthropic", cfg.AI.RequestsPerMin)
		if err := registry.Register(ai.ProviderNameAnthropic, ai.NewClaudeProvider(cfg.AI.AnthropicKey, limiter)); err != nil {
			return nil, err
		}
	}
	if cfg.AI.OpenAIKey != "" {
		limiter := ai.NewRateLimiter("openai", cfg.AI.RequestsPerMin)
		if err := registry.Register(ai.ProviderNameOpenAI, ai.NewOpenAIProvider(cfg.AI.OpenAIKey, limiter)); err != nil {
			return nil, err
		}
	}
	if len(registry.Names()) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no AI provider API key configured")
	}
	if err := registry.SetDefault(ai.ProviderName(cfg.AI.DefaultProvider)); err != nil {
		log.Warnw("Default provider not configured; using first registered",
			"requested", cfg.AI.DefaultProvider)
	}

	provider, err := registry.Default()
	if err != nil {
		return nil, err
	}

	model := provider.DefaultModel()
	if cfg.AI.Model != "" {
		model, err = provider.GetModel(cfg.AI.Model)
		if err != nil {
			return nil, err
		}
	}

	deps := shared.Deps{Log: log, Cache: cache, CacheTTL: cfg.Redis.CacheTTL}
	fundataClient := fundata.NewClient(cfg.DataSources, deps)
	filingsClient := filings.NewClient(cfg.DataSources, deps)

	toolRegistry := tools.NewRegistry()
	toolRegistry.Register(calculator.New())
	toolRegistry.Register(fundata.NewTool(fundataClient))
	toolRegistry.Register(filings.NewTool(filingsClient))
	toolRegistry.Register(websearch.New(cfg.DataSources, deps))

	engine := agents.NewEngine(provider, toolRegistry, cfg.Agent.ToolTimeout)
	deepDive := agents.NewDeepDiveController(engine, filingsClient, cfg.Agent, model, toolRegistry.Definitions())

	a := &app{
		cfg:      cfg,
		db:       db,
		cache:    cache,
		repo:     postgres.NewAnalysisRepository(db),
		provider: provider,
		model:    model,
		tools:    toolRegistry,
		engine:   engine,
		deepDive: deepDive,
		fundata:  fundataClient,
		log:      log,
	}

	if cfg.Metrics.Enabled {
		a.metrics = startMetricsServer(cfg.Metrics.Port, log)
	}

	log.Infow("Initialized",
		"provider", provider.Name(),
		"model", model.Name,
		"tools", toolRegistry.List(),
		"cache", cache != nil,
	)
	return a, nil
}

// analyzer builds an analyzer bound to the given repository. Pass nil when
// the caller persists results itself, as the batch runner does.
func (a *app) analyzer(repo analysis.Repository) *agents.Analyzer {
	return agents.NewAnalyzer(a.engine, a.deepDive, a.fundata, a.tools, repo, a.cfg.Agent, a.model)
}

func (a *app) close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.metrics.Shutdown(ctx)
		cancel()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func startMetricsServer(port int, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		log.Infow("Metrics endpoint listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("Metrics server failed", "error", err)
		}
	}()
	return srv
}

// initErrorTracker initializes error tracking (Sentry or no-op).
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}
