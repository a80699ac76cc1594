package internal

import (
	"context"
	"fmt"
	"sync"
)

// ModelCache loads models on first use and keeps them open for the lifetime
// of the process. Checkpoints are fetched through the downloader as needed.
type ModelCache struct {
	mu         sync.Mutex
	downloader *Downloader
	onProgress func(written, total int64)
	models     map[string]Model
}

func NewModelCache(downloader *Downloader, onProgress func(written, total int64)) *ModelCache {
	return &ModelCache{
		downloader: downloader,
		onProgress: onProgress,
		models:     make(map[string]Model),
	}
}

func (c *ModelCache) Get(ctx context.Context, name string) (Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if model, ok := c.models[name]; ok {
		return model, nil
	}

	spec, err := LookupModel(name)
	if err != nil {
		return nil, err
	}

	dir, err := c.downloader.EnsureCheckpoint(ctx, spec, c.onProgress)
	if err != nil {
		return nil, fmt.Errorf("ensure checkpoint: %w", err)
	}

	model, err := LoadVAE(dir, spec)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", spec.Name, err)
	}

	c.models[name] = model
	return model, nil
}

func (c *ModelCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for name, model := range c.models {
		if err := model.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
		delete(c.models, name)
	}

	return firstErr
}
