package main

import (
	"fmt"

	"github.com/4thel00z/grooves/internal"
	"github.com/spf13/cobra"
)

func NewSampleCmd(uc *internal.SampleUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate new drum sequences",
		Long:  `Draw new drum sequences from the model prior and write one MIDI file and one plot per sequence.`,
		RunE:  makeSampleRunner(uc),
	}

	cmd.Flags().StringP("model", "m", "", "Model checkpoint to sample from")
	cmd.Flags().IntP("outputs", "n", 0, "Number of sequences to generate")
	cmd.Flags().Float64P("temperature", "t", 0, "Sampling temperature")
	return cmd
}

func makeSampleRunner(uc *internal.SampleUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		model, _ := cmd.Flags().GetString("model")
		outputs, _ := cmd.Flags().GetInt("outputs")
		temperature, _ := cmd.Flags().GetFloat64("temperature")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := uc.Execute(cmd.Context(), internal.SampleInput{
			Model:       model,
			Outputs:     outputs,
			Temperature: temperature,
		})
		if err != nil {
			return fmt.Errorf("sample: %w", err)
		}

		return printStageOutput(cmd, out, asJSON)
	}
}
