package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/notefhir/internal/bootstrap"
	"github.com/zatekoja/notefhir/internal/evaluation"
)

func evaluateCmd() *cobra.Command {
	var minF1 float64

	cmd := &cobra.Command{
		Use:   "evaluate <golden.json>",
		Short: "Score extraction quality against a labeled set of notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := evaluation.LoadGoldenNotes(args[0])
			if err != nil {
				return err
			}
			if err := evaluation.ValidateGoldenNotes(notes); err != nil {
				return err
			}

			app, cleanup, err := setup(cmd.Context(), bootstrap.Options{RequireChat: true})
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := evaluation.NewRunner(app.Extraction).Run(cmd.Context(), notes)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return err
			}
			if summary.AvgF1 < minF1 {
				return fmt.Errorf("average F1 %.3f is below the required %.3f", summary.AvgF1, minF1)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&minF1, "min-f1", 0, "fail when the average F1 score is below this value")
	return cmd
}
