package main

import (
	"fmt"

	"github.com/4thel00z/grooves/internal"
	"github.com/spf13/cobra"
)

func NewGrooveCmd(uc *internal.GrooveUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groove <input.mid>",
		Short: "Humanize a quantized drum sequence",
		Long:  `Re-decode a quantized drum sequence through a groove checkpoint, adding human timing and velocity.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeGrooveRunner(uc),
	}

	cmd.Flags().StringP("model", "m", "", "Groove checkpoint to decode with")
	cmd.Flags().Float64P("temperature", "t", 0, "Sampling temperature")
	return cmd
}

func makeGrooveRunner(uc *internal.GrooveUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		temperature, _ := cmd.Flags().GetFloat64("temperature")
		asJSON, _ := cmd.Flags().GetBool("json")

		seq, err := internal.ReadSequenceFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		out, err := uc.Execute(cmd.Context(), internal.GrooveInput{
			Model:       model,
			Sequence:    seq,
			Temperature: temperature,
		})
		if err != nil {
			return fmt.Errorf("groove: %w", err)
		}

		return printStageOutput(cmd, out, asJSON)
	}
}
