package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zatekoja/notefhir/internal/application/services"
	"github.com/zatekoja/notefhir/internal/bootstrap"
	"github.com/zatekoja/notefhir/internal/mcpserver"
)

func serveMCPCmd() *cobra.Command {
	var export bool

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the extraction tools over MCP on standard input and output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, cleanup, err := setup(ctx, bootstrap.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			var exporter services.ResourceExporter
			if export {
				exporter = app.Export
			}
			return mcpserver.New(app.Registry, app.Resources, exporter, version).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&export, "export", true, "send built resources to the configured stores")
	return cmd
}
