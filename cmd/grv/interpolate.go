package main

import (
	"fmt"

	"github.com/4thel00z/grooves/internal"
	"github.com/spf13/cobra"
)

func NewInterpolateCmd(uc *internal.InterpolateUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interpolate <start.mid> <end.mid>",
		Short: "Morph between two drum sequences",
		Long:  `Interpolate between two drum sequences in latent space and write every step plus the stitched timeline.`,
		Args:  cobra.ExactArgs(2),
		RunE:  makeInterpolateRunner(uc),
	}

	cmd.Flags().StringP("model", "m", "", "Model checkpoint to interpolate with")
	cmd.Flags().IntP("outputs", "n", 0, "Number of interpolation steps, endpoints included")
	cmd.Flags().Float64P("temperature", "t", 0, "Sampling temperature")
	return cmd
}

func makeInterpolateRunner(uc *internal.InterpolateUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		outputs, _ := cmd.Flags().GetInt("outputs")
		temperature, _ := cmd.Flags().GetFloat64("temperature")
		asJSON, _ := cmd.Flags().GetBool("json")

		seqs := make([]internal.Sequence, 0, len(args))
		for _, path := range args {
			seq, err := internal.ReadSequenceFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			seqs = append(seqs, seq)
		}

		out, err := uc.Execute(cmd.Context(), internal.InterpolateInput{
			Model:       model,
			Sequences:   seqs,
			Outputs:     outputs,
			Temperature: temperature,
		})
		if err != nil {
			return fmt.Errorf("interpolate: %w", err)
		}

		return printStageOutput(cmd, out, asJSON)
	}
}
