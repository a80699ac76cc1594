package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/4thel00z/grooves/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(grooveUC *internal.GrooveUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <input.mid>",
		Short: "Re-humanize a sequence whenever its file changes",
		Long:  `Watch a MIDI file and re-run the groove stage on every change.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeWatchRunner(grooveUC),
	}

	cmd.Flags().StringP("model", "m", "", "Groove checkpoint to decode with")
	cmd.Flags().Float64P("temperature", "t", 0, "Sampling temperature")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	return cmd
}

func makeWatchRunner(grooveUC *internal.GrooveUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		target, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("stat %s: %w", args[0], err)
		}

		model, _ := cmd.Flags().GetString("model")
		temperature, _ := cmd.Flags().GetFloat64("temperature")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		// editors replace files on save, so watch the directory
		if err := watcher.Add(filepath.Dir(target)); err != nil {
			return fmt.Errorf("add watch dir: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", target)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event, target) {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				pending = false
				if err := regroove(cmd, grooveUC, target, model, temperature); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "groove: %v\n", err)
				}
			}
		}
	}
}

func regroove(cmd *cobra.Command, uc *internal.GrooveUseCase, target, model string, temperature float64) error {
	seq, err := internal.ReadSequenceFile(target)
	if err != nil {
		return err
	}

	out, err := uc.Execute(cmd.Context(), internal.GrooveInput{
		Model:       model,
		Sequence:    seq,
		Temperature: temperature,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", time.Now().Format("15:04:05"), out.RunDir)
	return nil
}

func shouldIgnoreEvent(event fsnotify.Event, target string) bool {
	if event.Name != target {
		return true
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return true
	}

	return false
}
