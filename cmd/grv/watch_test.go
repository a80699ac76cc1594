package main

import (
	"bytes"
	"testing"

	"github.com/4thel00z/grooves/internal"
	"github.com/fsnotify/fsnotify"
)

func TestWatchCmdMissingFile(t *testing.T) {
	uc := internal.NewGrooveUseCase(stubFactory(newStubModel(t, "groovae_2bar_humanize")), t.TempDir())

	cmd := NewWatchCmd(uc)
	cmd.SetArgs([]string{"missing.mid"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for missing watch target")
	}
}

func TestShouldIgnoreEvent(t *testing.T) {
	target := "/tmp/loop.mid"

	cases := []struct {
		name   string
		event  fsnotify.Event
		ignore bool
	}{
		{"write to target", fsnotify.Event{Name: target, Op: fsnotify.Write}, false},
		{"create of target", fsnotify.Event{Name: target, Op: fsnotify.Create}, false},
		{"rename of target", fsnotify.Event{Name: target, Op: fsnotify.Rename}, false},
		{"chmod of target", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, true},
		{"write to sibling", fsnotify.Event{Name: "/tmp/other.mid", Op: fsnotify.Write}, true},
	}

	for _, tc := range cases {
		if got := shouldIgnoreEvent(tc.event, target); got != tc.ignore {
			t.Errorf("%s: ignore = %v, want %v", tc.name, got, tc.ignore)
		}
	}
}
