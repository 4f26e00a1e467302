package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/notefhir/internal/bootstrap"
)

func extractCmd() *cobra.Command {
	var bundle bool

	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Run one clinical note through the model and print the extracted resources",
		Long: "Reads a clinical note from the given file, or from standard input when the " +
			"argument is omitted or \"-\", and prints the extraction result as JSON.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, err := readNote(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			app, cleanup, err := setup(cmd.Context(), bootstrap.Options{RequireChat: true})
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := app.Extraction.Extract(cmd.Context(), note)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if bundle {
				b, err := app.Resources.Bundle("")
				if err != nil {
					return err
				}
				return enc.Encode(b)
			}
			return enc.Encode(result)
		},
	}

	cmd.Flags().BoolVar(&bundle, "bundle", false, "print a FHIR collection Bundle instead of the extraction report")
	return cmd
}

func readNote(stdin io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read note: %w", err)
	}

	note := strings.TrimSpace(string(data))
	if note == "" {
		return "", fmt.Errorf("note is empty")
	}
	return note, nil
}
