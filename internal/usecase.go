package internal

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Use case input/output DTOs

type SampleInput struct {
	Model       string
	Outputs     int
	Temperature float64
}

type InterpolateInput struct {
	Model       string
	Sequences   []Sequence
	Outputs     int
	Temperature float64
}

type GrooveInput struct {
	Model       string
	Sequence    Sequence
	Temperature float64
}

type FetchInput struct {
	Model      string
	OnProgress func(written, total int64)
}

type StageFile struct {
	MIDIPath string
	PlotPath string
}

type StageOutput struct {
	Model     string
	RunDir    string
	Files     []StageFile
	Sequences []Sequence
}

type FetchOutput struct {
	Model string
	Path  string
}

// Use cases. Each stage is a stateless step from inputs to an output
// sequence plus side-effect files; nothing here retries or recovers.

type SampleUseCase struct {
	models    ModelFactory
	outputDir string
}

func NewSampleUseCase(models ModelFactory, outputDir string) *SampleUseCase {
	return &SampleUseCase{models: models, outputDir: outputDir}
}

func (uc *SampleUseCase) Execute(ctx context.Context, input SampleInput) (*StageOutput, error) {
	defaults := DefaultConfig().Sample
	name := orDefault(input.Model, defaults.Model)
	outputs := input.Outputs
	if outputs <= 0 {
		outputs = defaults.Outputs
	}
	temperature := input.Temperature
	if temperature <= 0 {
		temperature = defaults.Temperature
	}

	spec, err := LookupModel(name)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}

	model, err := uc.models(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	seqs, err := model.Sample(ctx, outputs, spec.SampleSteps(), temperature)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}

	return writeStage(uc.outputDir, "sample", name, seqs, nil)
}

type InterpolateUseCase struct {
	models    ModelFactory
	outputDir string
}

func NewInterpolateUseCase(models ModelFactory, outputDir string) *InterpolateUseCase {
	return &InterpolateUseCase{models: models, outputDir: outputDir}
}

func (uc *InterpolateUseCase) Execute(ctx context.Context, input InterpolateInput) (*StageOutput, error) {
	if len(input.Sequences) != 2 {
		return nil, fmt.Errorf("%w, got %d", ErrBadCardinality, len(input.Sequences))
	}
	for i, seq := range input.Sequences {
		if len(seq.Notes) == 0 {
			return nil, fmt.Errorf("input %d: %w", i+1, ErrEmptySequence)
		}
	}

	defaults := DefaultConfig().Interpolate
	name := orDefault(input.Model, defaults.Model)
	outputs := input.Outputs
	if outputs <= 0 {
		outputs = defaults.Outputs
	}
	temperature := input.Temperature
	if temperature <= 0 {
		temperature = defaults.Temperature
	}

	spec, err := LookupModel(name)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}

	model, err := uc.models(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	start := input.Sequences[0].Quantize(spec.StepsPerQuarter)
	end := input.Sequences[1].Quantize(spec.StepsPerQuarter)

	seqs, err := model.Interpolate(ctx, start, end, outputs, spec.SampleSteps(), temperature)
	if err != nil {
		return nil, fmt.Errorf("interpolate: %w", err)
	}

	// stitch all steps onto one timeline, one model context per segment
	durations := make([]float64, len(seqs))
	for i := range durations {
		durations[i] = spec.ChunkSeconds(DefaultQPM)
	}
	stitched, err := Concatenate(seqs, durations)
	if err != nil {
		return nil, fmt.Errorf("concatenate: %w", err)
	}

	return writeStage(uc.outputDir, "interpolate", name, seqs, &stitched)
}

type GrooveUseCase struct {
	models    ModelFactory
	outputDir string
}

func NewGrooveUseCase(models ModelFactory, outputDir string) *GrooveUseCase {
	return &GrooveUseCase{models: models, outputDir: outputDir}
}

func (uc *GrooveUseCase) Execute(ctx context.Context, input GrooveInput) (*StageOutput, error) {
	if len(input.Sequence.Notes) == 0 {
		return nil, ErrEmptySequence
	}

	defaults := DefaultConfig().Groove
	name := orDefault(input.Model, defaults.Model)
	temperature := input.Temperature
	if temperature <= 0 {
		temperature = defaults.Temperature
	}

	spec, err := LookupModel(name)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}

	seq := input.Sequence
	chunkSeconds := spec.ChunkSeconds(seq.QPM)

	// the input must cover a whole number of model contexts
	expected := int(math.Round(seq.TotalTime / chunkSeconds))
	if expected < 1 || math.Abs(seq.TotalTime-float64(expected)*chunkSeconds) > 1e-6 {
		return nil, fmt.Errorf("sequence length %.2fs is not a multiple of the model context %.2fs", seq.TotalTime, chunkSeconds)
	}

	chunks, err := seq.Split(chunkSeconds)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	if len(chunks) != expected {
		return nil, fmt.Errorf("split produced %d chunks, expected %d", len(chunks), expected)
	}

	for i := range chunks {
		chunks[i] = chunks[i].Quantize(spec.StepsPerQuarter)
	}

	model, err := uc.models(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	encodings, err := model.Encode(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	decoded, err := model.Decode(ctx, encodings, spec.SampleSteps(), temperature)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(decoded) != expected {
		return nil, fmt.Errorf("decoded %d chunks, expected %d", len(decoded), expected)
	}

	durations := make([]float64, len(decoded))
	for i := range durations {
		durations[i] = chunkSeconds
	}
	stitched, err := Concatenate(decoded, durations)
	if err != nil {
		return nil, fmt.Errorf("concatenate: %w", err)
	}

	return writeStage(uc.outputDir, "groove", name, nil, &stitched)
}

type FetchUseCase struct {
	downloader *Downloader
}

func NewFetchUseCase(downloader *Downloader) *FetchUseCase {
	return &FetchUseCase{downloader: downloader}
}

func (uc *FetchUseCase) Execute(ctx context.Context, input FetchInput) (*FetchOutput, error) {
	spec, err := LookupModel(input.Model)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", input.Model, err)
	}

	path, err := uc.downloader.EnsureCheckpoint(ctx, spec, input.OnProgress)
	if err != nil {
		return nil, fmt.Errorf("ensure checkpoint: %w", err)
	}

	return &FetchOutput{Model: spec.Name, Path: path}, nil
}

// writeStage creates the per-run output directory and writes one MIDI and one
// plot file per sequence. stitched, when given, lands next to them as the
// combined timeline.
func writeStage(outputDir, stage, model string, seqs []Sequence, stitched *Sequence) (*StageOutput, error) {
	runDir := filepath.Join(outputDir, stage, fmt.Sprintf("%s_%s", model, time.Now().Format("20060102_150405")))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	out := &StageOutput{Model: model, RunDir: runDir, Sequences: seqs}

	for i, seq := range seqs {
		file, err := writeSequence(runDir, fmt.Sprintf("%s_%03d", stage, i+1), seq)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, file)
	}

	if stitched != nil {
		file, err := writeSequence(runDir, stage+"_all", *stitched)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, file)
		out.Sequences = append(out.Sequences, *stitched)
	}

	return out, nil
}

func writeSequence(runDir, name string, seq Sequence) (StageFile, error) {
	file := StageFile{
		MIDIPath: filepath.Join(runDir, name+".mid"),
		PlotPath: filepath.Join(runDir, name+".html"),
	}

	if err := WriteSequenceFile(file.MIDIPath, seq); err != nil {
		return StageFile{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := WritePlotFile(file.PlotPath, name, seq); err != nil {
		return StageFile{}, fmt.Errorf("plot %s: %w", name, err)
	}

	return file, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
