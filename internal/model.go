package internal

import (
	"context"
	"sort"
)

// Encoding is the latent summary of one sequence. Z is the sampled latent,
// Mu and Sigma the posterior mean and standard deviation. QPM carries the
// source sequence's tempo so decoding lands back on the same timeline; it is
// zero for prior draws, which decode at the default tempo. Encodings live for
// a single request and are never persisted.
type Encoding struct {
	Z     []float32
	Mu    []float32
	Sigma []float32
	QPM   float64
}

// Model is the consumed surface of a pretrained sequence VAE.
type Model interface {
	Config() ModelSpec
	Sample(ctx context.Context, n, length int, temperature float64) ([]Sequence, error)
	Interpolate(ctx context.Context, start, end Sequence, steps, length int, temperature float64) ([]Sequence, error)
	Encode(ctx context.Context, seqs []Sequence) ([]Encoding, error)
	Decode(ctx context.Context, encodings []Encoding, length int, temperature float64) ([]Sequence, error)
	Close() error
}

// ModelFactory loads a model by name, fetching its checkpoint if needed.
type ModelFactory func(ctx context.Context, name string) (Model, error)

// ModelSpec carries the fixed constants a pretrained checkpoint was trained
// with. These are properties of the published artifacts, not tunables.
type ModelSpec struct {
	Name            string
	Checkpoint      string
	Description     string
	BarsPerSample   int
	StepsPerQuarter int
	ZSize           int
	Features        int
	Groove          bool
}

func (m ModelSpec) StepsPerBar() int {
	return m.StepsPerQuarter * 4
}

// SampleSteps is the model's trained context length in grid steps.
func (m ModelSpec) SampleSteps() int {
	return m.BarsPerSample * m.StepsPerBar()
}

// ChunkSeconds is the wall-clock length of one model context at the given
// tempo. At 120 QPM a 2-bar model yields 4-second chunks.
func (m ModelSpec) ChunkSeconds(qpm float64) float64 {
	if qpm <= 0 {
		qpm = DefaultQPM
	}
	return float64(m.BarsPerSample) * BarSeconds(qpm)
}

var modelSpecs = map[string]ModelSpec{
	"cat-drums_2bar_small.lokl": {
		Name:            "cat-drums_2bar_small.lokl",
		Checkpoint:      "cat-drums_2bar_small.lokl.tar",
		Description:     "2-bar drum VAE, low KL weight, best for sampling",
		BarsPerSample:   2,
		StepsPerQuarter: 4,
		ZSize:           256,
		Features:        numDrumClasses,
	},
	"cat-drums_2bar_small.hikl": {
		Name:            "cat-drums_2bar_small.hikl",
		Checkpoint:      "cat-drums_2bar_small.hikl.tar",
		Description:     "2-bar drum VAE, high KL weight, best for interpolation",
		BarsPerSample:   2,
		StepsPerQuarter: 4,
		ZSize:           256,
		Features:        numDrumClasses,
	},
	"groovae_2bar_humanize": {
		Name:            "groovae_2bar_humanize",
		Checkpoint:      "groovae_2bar_humanize.tar",
		Description:     "2-bar groove VAE, decodes with humanized timing and velocity",
		BarsPerSample:   2,
		StepsPerQuarter: 4,
		ZSize:           256,
		Features:        3 * numDrumClasses,
		Groove:          true,
	},
}

func LookupModel(name string) (ModelSpec, error) {
	spec, ok := modelSpecs[name]
	if !ok {
		return ModelSpec{}, ErrUnknownModel
	}
	return spec, nil
}

func Models() []ModelSpec {
	specs := make([]ModelSpec, 0, len(modelSpecs))
	for _, spec := range modelSpecs {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}
