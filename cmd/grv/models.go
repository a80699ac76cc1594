package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/grooves/internal"
	"github.com/spf13/cobra"
)

func NewModelsCmd(fetchUC *internal.FetchUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known model checkpoints",
		RunE:  runListModels,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "fetch <model>",
		Short: "Download a checkpoint into the local cache",
		Args:  cobra.ExactArgs(1),
		RunE:  makeFetchRunner(fetchUC),
	})

	return cmd
}

func runListModels(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	specs := internal.Models()

	if asJSON {
		out := make([]map[string]any, 0, len(specs))
		for _, spec := range specs {
			out = append(out, map[string]any{
				"name":        spec.Name,
				"description": spec.Description,
				"bars":        spec.BarsPerSample,
				"z_size":      spec.ZSize,
				"groove":      spec.Groove,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, spec := range specs {
		fmt.Fprintf(cmd.OutOrStdout(), "%-28s %d bars, z=%d  %s\n", spec.Name, spec.BarsPerSample, spec.ZSize, spec.Description)
	}
	return nil
}

func makeFetchRunner(uc *internal.FetchUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		out, err := uc.Execute(cmd.Context(), internal.FetchInput{Model: args[0]})
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out.Path)
		return nil
	}
}
