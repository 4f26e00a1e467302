package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/notefhir/internal/api/handlers"
	"github.com/zatekoja/notefhir/internal/api/routes"
	"github.com/zatekoja/notefhir/internal/bootstrap"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	"github.com/zatekoja/notefhir/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry := bootstrap.SetupTelemetry(ctx, cfg)
	defer shutdownTelemetry()

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{RequireChat: true, Metrics: metrics})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to assemble extraction pipeline")
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing connections")
		}
	}()

	healthHandler := handlers.NewHealthHandler()
	for name, check := range app.Checks {
		healthHandler.Register(name, handlers.HealthCheck(check))
	}

	router := routes.NewRouter(
		handlers.NewExtractionHandler(app.Extraction),
		handlers.NewResourceHandler(app.Resources),
		handlers.NewToolHandler(app.Registry, app.Export),
		healthHandler,
		handlers.NewSSEHandler(app.EventBus),
		metrics,
	)

	server := &http.Server{
		Addr:        cfg.Server.Address(),
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// Extraction requests wait on the model and the stream endpoint stays open.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("llm", app.Chat.Name()).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
