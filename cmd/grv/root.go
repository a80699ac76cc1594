package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "grv",
		Short:         "Drum sequence generation with pretrained groove models",
		Long:          `Sample, interpolate and humanize drum sequences with pretrained checkpoints, writing MIDI and piano-roll plots per run.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewSampleCmd(a.sampleUC),
		NewInterpolateCmd(a.interpolateUC),
		NewGrooveCmd(a.grooveUC),
		NewModelsCmd(a.fetchUC),
		NewWatchCmd(a.grooveUC),
	)
}
