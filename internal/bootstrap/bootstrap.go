// Package bootstrap assembles the extraction pipeline and its optional stores from
// configuration. Both the HTTP API and the command line tool start from here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/notefhir/internal/adapters/cache"
	"github.com/zatekoja/notefhir/internal/adapters/database"
	"github.com/zatekoja/notefhir/internal/adapters/events"
	"github.com/zatekoja/notefhir/internal/adapters/ontology"
	"github.com/zatekoja/notefhir/internal/adapters/search"
	"github.com/zatekoja/notefhir/internal/application/services"
	"github.com/zatekoja/notefhir/internal/application/services/tooldefs"
	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/internal/domain/repositories"
	"github.com/zatekoja/notefhir/internal/infrastructure/clients/anthropic"
	"github.com/zatekoja/notefhir/internal/infrastructure/clients/fhirserver"
	"github.com/zatekoja/notefhir/internal/infrastructure/clients/ols"
	"github.com/zatekoja/notefhir/internal/infrastructure/clients/openai"
	"github.com/zatekoja/notefhir/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/notefhir/internal/infrastructure/clients/redis"
	"github.com/zatekoja/notefhir/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	"github.com/zatekoja/notefhir/pkg/config"
)

const cachePrefix = "notefhir:"

// Options controls which parts of the pipeline are required.
type Options struct {
	// RequireChat fails assembly when no chat provider can be built. Tool-only front ends
	// such as the MCP server leave it unset.
	RequireChat bool

	// Metrics is attached to every component that records metrics. May be nil.
	Metrics *observability.Metrics

	// Annotator replaces the ontology client. Used by tests.
	Annotator providers.OntologyAnnotator
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// App is the assembled pipeline.
type App struct {
	Config *config.Config

	Chat       providers.ChatProvider
	Annotator  providers.OntologyAnnotator
	Results    *services.ResultAccumulator
	Registry   *services.ToolRegistry
	Extraction *services.ExtractionService
	Export     *services.ResourceExportService
	Resources  *services.ResourceService
	EventBus   providers.EventBus

	// Checks holds readiness probes for every connected store.
	Checks map[string]HealthCheck

	closers []func() error
}

// New builds the pipeline. Postgres is required once enabled; Redis, Typesense and the
// FHIR server degrade to warnings so that extraction keeps working without them.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := observability.LoggerFromContext(ctx)
	app := &App{
		Config:  cfg,
		Results: services.NewResultAccumulator(),
		Checks:  make(map[string]HealthCheck),
	}

	chat, err := newChatProvider(cfg)
	switch {
	case err == nil:
		app.Chat = chat
	case opts.RequireChat:
		return nil, err
	default:
		logger.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("chat provider disabled")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("redis unavailable, falling back to in-process cache and events")
		} else {
			app.closers = append(app.closers, redisClient.Close)
			app.Checks["redis"] = redisClient.Ping
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("redis client initialized")
		}
	}

	annotator, err := newAnnotator(cfg, redisClient, opts)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Annotator = annotator

	descriptors, err := loadTools(cfg.Extraction.ToolsFile)
	if err != nil {
		app.Close()
		return nil, err
	}
	builder := services.NewResourceBuilder(annotator, app.Results, cfg.Extraction.SubjectReference)
	app.Registry, err = services.NewToolRegistry(builder, descriptors)
	if err != nil {
		app.Close()
		return nil, err
	}

	var repo repositories.ResourceRepository
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		app.closers = append(app.closers, pgClient.Close)
		app.Checks["postgres"] = pgClient.Ping

		adapter := database.NewResourceAdapter(pgClient)
		adapter.SetMetrics(opts.Metrics)
		if err := adapter.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("ensure resource schema: %w", err)
		}
		repo = adapter
	}

	var searchRepo repositories.ResourceSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Str("url", cfg.Typesense.URL).Msg("typesense unavailable, search disabled")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to init typesense schema, search disabled")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	if redisClient != nil {
		app.EventBus = events.NewRedisEventBus(redisClient)
	} else {
		app.EventBus = events.NewMemoryEventBus()
	}
	// Registered after redis so the bus is closed first.
	app.closers = append(app.closers, app.EventBus.Close)

	var writer providers.ResourceWriter
	if cfg.FHIR.Enabled {
		fhirClient, err := fhirserver.NewClient(&cfg.FHIR)
		if err != nil {
			logger.Warn().Err(err).Msg("fhir server export disabled")
		} else {
			writer = fhirClient
		}
	}

	app.Export = services.NewResourceExportService(repo, searchRepo, app.EventBus, writer)
	app.Resources = services.NewResourceService(app.Results, repo, searchRepo, app.Export)

	if app.Chat != nil {
		prompt := cfg.Extraction.SystemPrompt
		if prompt == "" {
			prompt = openai.DefaultSystemPrompt
		}
		app.Extraction = services.NewExtractionService(app.Chat, app.Registry, prompt, "")
		app.Extraction.SetExporter(app.Export)
		app.Extraction.SetMetrics(opts.Metrics)
	}

	logger.Info().
		Bool("chat", app.Chat != nil).
		Bool("postgres", repo != nil).
		Bool("typesense", searchRepo != nil).
		Bool("fhir_server", writer != nil).
		Int("tools", len(descriptors)).
		Msg("pipeline assembled")
	return app, nil
}

// Close releases every connection in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newChatProvider(cfg *config.Config) (providers.ChatProvider, error) {
	switch cfg.LLM.Provider {
	case "anthropic":
		return anthropic.NewClient(&cfg.Anthropic)
	case "openai", "":
		return openai.NewClient(&cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

func newAnnotator(cfg *config.Config, redisClient *redis.Client, opts Options) (providers.OntologyAnnotator, error) {
	next := opts.Annotator
	if next == nil {
		next = ols.NewClient(&cfg.Ontology)
	}

	var store providers.CacheProvider
	if redisClient != nil {
		store = cache.NewRedisAdapter(redisClient, cachePrefix)
	} else {
		lru, err := cache.NewLRUAdapter(cfg.Ontology.LocalCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create ontology cache: %w", err)
		}
		store = lru
	}

	namespace := cfg.Ontology.Ontology
	if namespace == "" {
		namespace = "snomed"
	}
	cached := ontology.NewCachedAnnotator(next, store, namespace, time.Duration(cfg.Ontology.CacheTTLSeconds)*time.Second)
	cached.SetMetrics(opts.Metrics)
	return cached, nil
}

func loadTools(path string) ([]entities.ToolDescriptor, error) {
	if path == "" {
		return tooldefs.Default()
	}
	return tooldefs.Load(path)
}

// SetupTelemetry starts the OpenTelemetry pipeline when enabled and returns a shutdown
// function that is always safe to call.
func SetupTelemetry(ctx context.Context, cfg *config.Config) func() {
	noop := func() {}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint == "" {
		return noop
	}

	logger := observability.LoggerFromContext(ctx)
	shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		return noop
	}
	observability.EnableOTelLogs()
	logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			observability.GetLogger().Error().Err(err).Msg("error shutting down OpenTelemetry")
		}
	}
}
