package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zatekoja/notefhir/internal/application/services/tooldefs"
	"github.com/zatekoja/notefhir/internal/domain/entities"
)

func toolsCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the extraction tools offered to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				descriptors []entities.ToolDescriptor
				err         error
			)
			if file != "" {
				descriptors, err = tooldefs.Load(file)
			} else {
				descriptors, err = tooldefs.Default()
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(descriptors)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, d := range descriptors {
				fmt.Fprintf(w, "%s\t%s\n", d.Name(), d.Function.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML tool definitions to load instead of the built-in set")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full descriptors as JSON")
	return cmd
}
