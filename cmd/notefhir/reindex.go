package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zatekoja/notefhir/internal/bootstrap"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
)

func reindexCmd() *cobra.Command {
	var (
		batch    int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Copy persisted resources from Postgres into the Typesense index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, cleanup, err := setup(ctx, bootstrap.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			logger := observability.GetLogger()
			for {
				if _, err := app.Resources.Reindex(ctx, batch); err != nil {
					if interval <= 0 {
						return err
					}
					logger.Error().Err(err).Msg("reindex failed")
				}
				if interval <= 0 {
					return nil
				}

				logger.Info().Dur("interval", interval).Msg("next reindex scheduled")
				select {
				case <-ctx.Done():
					logger.Info().Msg("reindexer shutting down")
					return nil
				case <-time.After(interval):
				}
			}
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 500, "rows read from Postgres per page")
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat the reindex on this interval (e.g. 30m)")
	return cmd
}
