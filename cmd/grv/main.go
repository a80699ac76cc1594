package main

import (
	"context"
	"fmt"
	"os"

	"github.com/4thel00z/grooves/internal"
	"github.com/charmbracelet/fang"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "grv: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg           *internal.Config
	models        *internal.ModelCache
	sampleUC      *internal.SampleUseCase
	interpolateUC *internal.InterpolateUseCase
	grooveUC      *internal.GrooveUseCase
	fetchUC       *internal.FetchUseCase
}

func newApp() (*app, error) {
	cfgPath, err := internal.DefaultConfigPath()
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}

	cfg, err := internal.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir, err = internal.DefaultCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
	}

	downloader := internal.NewDownloader(cacheDir, cfg.CheckpointBaseURL)
	models := internal.NewModelCache(downloader, printProgress)

	return &app{
		cfg:           cfg,
		models:        models,
		sampleUC:      internal.NewSampleUseCase(models.Get, cfg.OutputDir),
		interpolateUC: internal.NewInterpolateUseCase(models.Get, cfg.OutputDir),
		grooveUC:      internal.NewGrooveUseCase(models.Get, cfg.OutputDir),
		fetchUC:       internal.NewFetchUseCase(downloader),
	}, nil
}

func (a *app) Close() {
	if a.models != nil {
		_ = a.models.Close()
	}
}

func printProgress(written, total int64) {
	if total <= 0 {
		fmt.Fprintf(os.Stderr, "\rdownloading checkpoint... %d MiB", written/(1<<20))
		return
	}
	fmt.Fprintf(os.Stderr, "\rdownloading checkpoint... %d%%", written*100/total)
	if written >= total {
		fmt.Fprintln(os.Stderr)
	}
}
