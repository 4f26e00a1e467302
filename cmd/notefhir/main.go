package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/zatekoja/notefhir/internal/bootstrap"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
	"github.com/zatekoja/notefhir/pkg/config"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "notefhir",
		Short:        "Extract coded FHIR resources from clinical notes",
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(extractCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(serveMCPCmd())
	root.AddCommand(evaluateCmd())
	root.AddCommand(reindexCmd())
	return root
}

// setup loads configuration, configures logging and assembles the pipeline. The returned
// cleanup closes connections and flushes telemetry.
func setup(ctx context.Context, opts bootstrap.Options) (*bootstrap.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env)

	shutdownTelemetry := bootstrap.SetupTelemetry(ctx, cfg)
	if cfg.OTEL.Enabled {
		metrics, err := observability.InitMetrics()
		if err != nil {
			observability.GetLogger().Warn().Err(err).Msg("metrics disabled")
		}
		opts.Metrics = metrics
	}

	app, err := bootstrap.New(ctx, cfg, opts)
	if err != nil {
		shutdownTelemetry()
		return nil, nil, err
	}
	return app, func() {
		if err := app.Close(); err != nil {
			observability.GetLogger().Error().Err(err).Msg("error closing connections")
		}
		shutdownTelemetry()
	}, nil
}
