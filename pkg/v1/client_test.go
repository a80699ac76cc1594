package v1

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/4thel00z/grooves/internal"
)

type stubModel struct {
	spec internal.ModelSpec
}

func (s *stubModel) Config() internal.ModelSpec { return s.spec }

func (s *stubModel) Sample(_ context.Context, n, _ int, _ float64) ([]internal.Sequence, error) {
	return beats(n), nil
}

func (s *stubModel) Interpolate(_ context.Context, _, _ internal.Sequence, steps, _ int, _ float64) ([]internal.Sequence, error) {
	return beats(steps), nil
}

func (s *stubModel) Encode(_ context.Context, seqs []internal.Sequence) ([]internal.Encoding, error) {
	encodings := make([]internal.Encoding, len(seqs))
	for i := range encodings {
		encodings[i] = internal.Encoding{Z: make([]float32, s.spec.ZSize)}
	}
	return encodings, nil
}

func (s *stubModel) Decode(_ context.Context, encodings []internal.Encoding, _ int, _ float64) ([]internal.Sequence, error) {
	return beats(len(encodings)), nil
}

func (s *stubModel) Close() error { return nil }

func beats(n int) []internal.Sequence {
	seqs := make([]internal.Sequence, n)
	for i := range seqs {
		seq := internal.NewSequence(120)
		for beat := 0; beat < 8; beat++ {
			start := float64(beat) * 0.5
			seq.Notes = append(seq.Notes, internal.Note{Pitch: 36, Velocity: 100, Start: start, End: start + 0.5})
		}
		seq.TotalTime = 4.0
		seqs[i] = seq.Quantize(4)
	}
	return seqs
}

func stubClient(t *testing.T, modelName, outputDir string) *Client {
	t.Helper()
	spec, err := internal.LookupModel(modelName)
	if err != nil {
		t.Fatalf("lookup model: %v", err)
	}

	factory := func(ctx context.Context, name string) (internal.Model, error) {
		return &stubModel{spec: spec}, nil
	}

	return &Client{
		sample:      internal.NewSampleUseCase(factory, outputDir),
		interpolate: internal.NewInterpolateUseCase(factory, outputDir),
		groove:      internal.NewGrooveUseCase(factory, outputDir),
	}
}

func TestClientSample(t *testing.T) {
	client := stubClient(t, "cat-drums_2bar_small.lokl", t.TempDir())

	res, err := client.Sample(context.Background(), SampleRequest{Outputs: 2})
	if err != nil {
		t.Fatalf("sample: %v", err)
	}

	if len(res.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(res.Files))
	}
	if res.RunDir == "" {
		t.Error("expected run dir to be set")
	}
}

func TestClientInterpolate(t *testing.T) {
	dir := t.TempDir()
	start := filepath.Join(dir, "start.mid")
	end := filepath.Join(dir, "end.mid")
	for _, path := range []string{start, end} {
		if err := internal.WriteSequenceFile(path, beats(1)[0]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	client := stubClient(t, "cat-drums_2bar_small.hikl", t.TempDir())

	res, err := client.Interpolate(context.Background(), InterpolateRequest{
		StartPath: start,
		EndPath:   end,
		Outputs:   4,
	})
	if err != nil {
		t.Fatalf("interpolate: %v", err)
	}

	// four steps plus the stitched timeline
	if len(res.Files) != 5 {
		t.Errorf("expected 5 files, got %d", len(res.Files))
	}
}

func TestClientHumanize(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "robot.mid")

	seq := internal.NewSequence(120)
	for i := 0; i < 16; i++ {
		start := float64(i) * 0.5
		seq.Notes = append(seq.Notes, internal.Note{Pitch: 36, Velocity: 100, Start: start, End: start + 0.5})
	}
	seq.TotalTime = 8.0
	if err := internal.WriteSequenceFile(input, seq); err != nil {
		t.Fatalf("write input: %v", err)
	}

	client := stubClient(t, "groovae_2bar_humanize", t.TempDir())

	res, err := client.Humanize(context.Background(), HumanizeRequest{Path: input})
	if err != nil {
		t.Fatalf("humanize: %v", err)
	}

	if len(res.Files) != 1 {
		t.Errorf("expected 1 stitched file, got %d", len(res.Files))
	}
}

func TestClientInterpolateMissingFile(t *testing.T) {
	client := stubClient(t, "cat-drums_2bar_small.hikl", t.TempDir())

	_, err := client.Interpolate(context.Background(), InterpolateRequest{
		StartPath: "missing-a.mid",
		EndPath:   "missing-b.mid",
	})
	if err == nil {
		t.Error("expected error for missing input files")
	}
}
