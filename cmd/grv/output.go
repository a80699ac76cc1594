package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/grooves/internal"
	"github.com/spf13/cobra"
)

func printStageOutput(cmd *cobra.Command, out *internal.StageOutput, asJSON bool) error {
	if asJSON {
		return outputStageJSON(cmd, out)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out.RunDir)
	for _, file := range out.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", file.MIDIPath)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", file.PlotPath)
	}
	return nil
}

func outputStageJSON(cmd *cobra.Command, out *internal.StageOutput) error {
	files := make([]map[string]string, 0, len(out.Files))
	for _, file := range out.Files {
		files = append(files, map[string]string{
			"midi": file.MIDIPath,
			"plot": file.PlotPath,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"model":   out.Model,
		"run_dir": out.RunDir,
		"files":   files,
	})
}
