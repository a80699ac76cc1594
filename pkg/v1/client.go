package v1

import (
	"context"
	"fmt"

	"github.com/4thel00z/grooves/internal"
)

// Client provides programmatic access to the generation pipeline.
type Client struct {
	models      *internal.ModelCache
	sample      *internal.SampleUseCase
	interpolate *internal.InterpolateUseCase
	groove      *internal.GrooveUseCase
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		outputDir: "output",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.cacheDir == "" {
		dir, err := internal.DefaultCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
		cfg.cacheDir = dir
	}

	downloader := internal.NewDownloader(cfg.cacheDir, cfg.baseURL)
	models := internal.NewModelCache(downloader, cfg.onProgress)

	return &Client{
		models:      models,
		sample:      internal.NewSampleUseCase(models.Get, cfg.outputDir),
		interpolate: internal.NewInterpolateUseCase(models.Get, cfg.outputDir),
		groove:      internal.NewGrooveUseCase(models.Get, cfg.outputDir),
	}, nil
}

// Sample generates new drum sequences and writes a MIDI file and a plot per
// sequence.
func (c *Client) Sample(ctx context.Context, req SampleRequest) (*Result, error) {
	out, err := c.sample.Execute(ctx, internal.SampleInput{
		Model:       req.Model,
		Outputs:     req.Outputs,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	return toResult(out), nil
}

// Interpolate morphs between two MIDI files and writes each step plus the
// stitched timeline.
func (c *Client) Interpolate(ctx context.Context, req InterpolateRequest) (*Result, error) {
	seqs := make([]internal.Sequence, 0, 2)
	for _, path := range []string{req.StartPath, req.EndPath} {
		seq, err := internal.ReadSequenceFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		seqs = append(seqs, seq)
	}

	out, err := c.interpolate.Execute(ctx, internal.InterpolateInput{
		Model:       req.Model,
		Sequences:   seqs,
		Outputs:     req.Outputs,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("interpolate: %w", err)
	}
	return toResult(out), nil
}

// Humanize re-decodes a quantized MIDI file through a groove checkpoint.
func (c *Client) Humanize(ctx context.Context, req HumanizeRequest) (*Result, error) {
	seq, err := internal.ReadSequenceFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Path, err)
	}

	out, err := c.groove.Execute(ctx, internal.GrooveInput{
		Model:       req.Model,
		Sequence:    seq,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("humanize: %w", err)
	}
	return toResult(out), nil
}

// Close releases every model the client loaded.
func (c *Client) Close() error {
	return c.models.Close()
}

func toResult(out *internal.StageOutput) *Result {
	res := &Result{
		Model:  out.Model,
		RunDir: out.RunDir,
		Files:  make([]GeneratedFile, 0, len(out.Files)),
	}
	for _, file := range out.Files {
		res.Files = append(res.Files, GeneratedFile{MIDI: file.MIDIPath, Plot: file.PlotPath})
	}
	return res
}
