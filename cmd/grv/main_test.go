package main

import (
	"context"
	"testing"

	"github.com/4thel00z/grooves/internal"
)

// stubModel satisfies internal.Model with canned two-bar beats so cmd tests
// never touch onnxruntime or the network.
type stubModel struct {
	spec internal.ModelSpec
}

func newStubModel(t *testing.T, name string) *stubModel {
	t.Helper()
	spec, err := internal.LookupModel(name)
	if err != nil {
		t.Fatalf("lookup model %s: %v", name, err)
	}
	return &stubModel{spec: spec}
}

func (s *stubModel) Config() internal.ModelSpec { return s.spec }

func (s *stubModel) Sample(_ context.Context, n, _ int, _ float64) ([]internal.Sequence, error) {
	return beatSequences(n), nil
}

func (s *stubModel) Interpolate(_ context.Context, _, _ internal.Sequence, steps, _ int, _ float64) ([]internal.Sequence, error) {
	return beatSequences(steps), nil
}

func (s *stubModel) Encode(_ context.Context, seqs []internal.Sequence) ([]internal.Encoding, error) {
	encodings := make([]internal.Encoding, len(seqs))
	for i := range encodings {
		encodings[i] = internal.Encoding{
			Z:  make([]float32, s.spec.ZSize),
			Mu: make([]float32, s.spec.ZSize),
		}
	}
	return encodings, nil
}

func (s *stubModel) Decode(_ context.Context, encodings []internal.Encoding, _ int, _ float64) ([]internal.Sequence, error) {
	return beatSequences(len(encodings)), nil
}

func (s *stubModel) Close() error { return nil }

func stubFactory(model internal.Model) internal.ModelFactory {
	return func(ctx context.Context, name string) (internal.Model, error) {
		return model, nil
	}
}

// beatSequences builds n four-on-the-floor two-bar patterns at 120 QPM.
func beatSequences(n int) []internal.Sequence {
	seqs := make([]internal.Sequence, n)
	for i := range seqs {
		seqs[i] = beatSequence(4.0)
	}
	return seqs
}

// beatSequence builds a kick pattern covering exactly seconds of timeline.
func beatSequence(seconds float64) internal.Sequence {
	seq := internal.NewSequence(120)
	for start := 0.0; start < seconds; start += 0.5 {
		seq.Notes = append(seq.Notes, internal.Note{
			Pitch:    36,
			Velocity: 100,
			Start:    start,
			End:      start + 0.5,
		})
	}
	seq.TotalTime = seconds
	return seq.Quantize(4)
}

func writeBeatFile(t *testing.T, path string, seconds float64) {
	t.Helper()
	if err := internal.WriteSequenceFile(path, beatSequence(seconds)); err != nil {
		t.Fatalf("write beat file: %v", err)
	}
}
