package internal

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel satisfies Model without touching onnxruntime. It answers every
// call with well-formed two-bar sequences and records batch sizes.
type fakeModel struct {
	spec        ModelSpec
	encodeCalls [][]Sequence
	decodeCalls []int
	err         error
}

func newFakeModel(name string) *fakeModel {
	spec, _ := LookupModel(name)
	return &fakeModel{spec: spec}
}

func (f *fakeModel) Config() ModelSpec { return f.spec }

func (f *fakeModel) Sample(ctx context.Context, n, length int, temperature float64) ([]Sequence, error) {
	if f.err != nil {
		return nil, f.err
	}
	return makeTwoBarSequences(n), nil
}

func (f *fakeModel) Interpolate(ctx context.Context, start, end Sequence, steps, length int, temperature float64) ([]Sequence, error) {
	if f.err != nil {
		return nil, f.err
	}
	return makeTwoBarSequences(steps), nil
}

func (f *fakeModel) Encode(ctx context.Context, seqs []Sequence) ([]Encoding, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.encodeCalls = append(f.encodeCalls, seqs)
	encodings := make([]Encoding, len(seqs))
	for i := range encodings {
		encodings[i] = Encoding{
			Z:     make([]float32, f.spec.ZSize),
			Mu:    make([]float32, f.spec.ZSize),
			Sigma: make([]float32, f.spec.ZSize),
			QPM:   seqs[i].qpm(),
		}
	}
	return encodings, nil
}

func (f *fakeModel) Decode(ctx context.Context, encodings []Encoding, length int, temperature float64) ([]Sequence, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.decodeCalls = append(f.decodeCalls, len(encodings))
	seqs := make([]Sequence, len(encodings))
	for i, enc := range encodings {
		qpm := enc.QPM
		if qpm <= 0 {
			qpm = 120
		}
		seqs[i] = makeTwoBarSequence(qpm)
	}
	return seqs, nil
}

func (f *fakeModel) Close() error { return nil }

// makeTwoBarSequence builds one quantized two-bar drum pattern, a kick on
// every beat, at the given tempo.
func makeTwoBarSequence(qpm float64) Sequence {
	seq := NewSequence(qpm)
	beat := 60.0 / qpm
	for i := 0; i < 8; i++ {
		start := float64(i) * beat
		seq.Notes = append(seq.Notes, Note{Pitch: 36, Velocity: 100, Start: start, End: start + beat/4})
	}
	seq.TotalTime = 8 * beat
	return seq.Quantize(4)
}

func makeTwoBarSequences(n int) []Sequence {
	seqs := make([]Sequence, n)
	for i := range seqs {
		seqs[i] = makeTwoBarSequence(120)
	}
	return seqs
}

func fakeFactory(model Model) ModelFactory {
	return func(ctx context.Context, name string) (Model, error) {
		return model, nil
	}
}

func failingFactory(err error) ModelFactory {
	return func(ctx context.Context, name string) (Model, error) {
		return nil, err
	}
}

func TestSampleWritesFilesPerSequence(t *testing.T) {
	outputDir := t.TempDir()
	model := newFakeModel("cat-drums_2bar_small.lokl")
	uc := NewSampleUseCase(fakeFactory(model), outputDir)

	out, err := uc.Execute(context.Background(), SampleInput{})
	require.NoError(t, err)

	assert.Len(t, out.Sequences, 2)
	require.Len(t, out.Files, 2)
	assert.Contains(t, out.RunDir, "sample")
	assert.Contains(t, out.RunDir, "cat-drums_2bar_small.lokl")

	for _, file := range out.Files {
		for _, path := range []string{file.MIDIPath, file.PlotPath} {
			info, err := os.Stat(path)
			require.NoError(t, err, path)
			assert.Greater(t, info.Size(), int64(0))
		}
	}
}

func TestSampleUnknownModel(t *testing.T) {
	uc := NewSampleUseCase(fakeFactory(newFakeModel("cat-drums_2bar_small.lokl")), t.TempDir())

	_, err := uc.Execute(context.Background(), SampleInput{Model: "no-such-model"})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestSampleModelLoadFailure(t *testing.T) {
	uc := NewSampleUseCase(failingFactory(fmt.Errorf("checkpoint gone")), t.TempDir())

	_, err := uc.Execute(context.Background(), SampleInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint gone")
}

func TestInterpolateRejectsWrongCardinality(t *testing.T) {
	uc := NewInterpolateUseCase(fakeFactory(newFakeModel("cat-drums_2bar_small.hikl")), t.TempDir())

	for _, n := range []int{0, 1, 3} {
		_, err := uc.Execute(context.Background(), InterpolateInput{Sequences: makeTwoBarSequences(n)})
		assert.ErrorIs(t, err, ErrBadCardinality, "cardinality %d", n)
	}
}

func TestInterpolateRejectsEmptyInput(t *testing.T) {
	uc := NewInterpolateUseCase(fakeFactory(newFakeModel("cat-drums_2bar_small.hikl")), t.TempDir())

	seqs := makeTwoBarSequences(2)
	seqs[1].Notes = nil

	_, err := uc.Execute(context.Background(), InterpolateInput{Sequences: seqs})
	require.ErrorIs(t, err, ErrEmptySequence)
	assert.Contains(t, err.Error(), "input 2")
}

func TestInterpolateStitchesOutputs(t *testing.T) {
	outputDir := t.TempDir()
	uc := NewInterpolateUseCase(fakeFactory(newFakeModel("cat-drums_2bar_small.hikl")), outputDir)

	out, err := uc.Execute(context.Background(), InterpolateInput{
		Sequences: makeTwoBarSequences(2),
		Outputs:   6,
	})
	require.NoError(t, err)

	// six interpolation steps plus the stitched timeline
	require.Len(t, out.Files, 7)
	require.Len(t, out.Sequences, 7)

	stitched := out.Sequences[6]
	assert.InDelta(t, 24.0, stitched.TotalTime, 1e-6)
	assert.Len(t, stitched.Notes, 6*8)
}

func TestGrooveRejectsEmptySequence(t *testing.T) {
	uc := NewGrooveUseCase(fakeFactory(newFakeModel("groovae_2bar_humanize")), t.TempDir())

	_, err := uc.Execute(context.Background(), GrooveInput{Sequence: NewSequence(120)})
	assert.ErrorIs(t, err, ErrEmptySequence)
}

func TestGrooveRejectsMismatchedLength(t *testing.T) {
	uc := NewGrooveUseCase(fakeFactory(newFakeModel("groovae_2bar_humanize")), t.TempDir())

	seq := NewSequence(120)
	seq.Notes = []Note{{Pitch: 36, Velocity: 100, Start: 0, End: 0.125}}
	seq.TotalTime = 22.0 // 11 bars: not divisible by the 2-bar context

	_, err := uc.Execute(context.Background(), GrooveInput{Sequence: seq})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a multiple")
}

func TestGrooveEncodesAllChunksInOneBatch(t *testing.T) {
	outputDir := t.TempDir()
	model := newFakeModel("groovae_2bar_humanize")
	uc := NewGrooveUseCase(fakeFactory(model), outputDir)

	seq := NewSequence(120)
	for i := 0; i < 24; i++ {
		start := float64(i)
		seq.Notes = append(seq.Notes, Note{Pitch: 36, Velocity: 100, Start: start, End: start + 0.125})
	}
	seq.TotalTime = 24.0 // 12 bars = 6 two-bar chunks

	out, err := uc.Execute(context.Background(), GrooveInput{Sequence: seq})
	require.NoError(t, err)

	require.Len(t, model.encodeCalls, 1)
	assert.Len(t, model.encodeCalls[0], 6)
	require.Len(t, model.decodeCalls, 1)
	assert.Equal(t, 6, model.decodeCalls[0])

	require.Len(t, out.Files, 1)
	assert.Contains(t, out.Files[0].MIDIPath, "groove_all")
	assert.InDelta(t, 24.0, out.Sequences[0].TotalTime, 1e-6)
}

func TestGroovePreservesInputTempo(t *testing.T) {
	model := newFakeModel("groovae_2bar_humanize")
	uc := NewGrooveUseCase(fakeFactory(model), t.TempDir())

	// 90 QPM: one two-bar chunk spans 16/3 s, three chunks make 16 s
	seq := NewSequence(90)
	beat := 60.0 / 90.0
	for i := 0; i < 24; i++ {
		start := float64(i) * beat
		seq.Notes = append(seq.Notes, Note{Pitch: 36, Velocity: 100, Start: start, End: start + beat/4})
	}
	seq.TotalTime = 24 * beat

	out, err := uc.Execute(context.Background(), GrooveInput{Sequence: seq})
	require.NoError(t, err)

	stitched := out.Sequences[0]
	assert.InDelta(t, 90.0, stitched.QPM, 1e-9)
	assert.InDelta(t, 16.0, stitched.TotalTime, 1e-6)
	require.Len(t, stitched.Notes, 24)

	// each decoded chunk starts exactly one model context after the last
	chunkSeconds := model.spec.ChunkSeconds(90)
	assert.InDelta(t, chunkSeconds, stitched.Notes[8].Start, 1e-6)
	assert.InDelta(t, 2*chunkSeconds, stitched.Notes[16].Start, 1e-6)
}

func TestFetchUnknownModel(t *testing.T) {
	uc := NewFetchUseCase(NewDownloader(t.TempDir(), "http://127.0.0.1:0"))

	_, err := uc.Execute(context.Background(), FetchInput{Model: "no-such-model"})
	assert.ErrorIs(t, err, ErrUnknownModel)
}
