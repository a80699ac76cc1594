package v1

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	cacheDir   string
	outputDir  string
	baseURL    string
	onProgress func(written, total int64)
}

// WithCacheDir sets the checkpoint cache directory.
func WithCacheDir(dir string) Option {
	return func(c *clientConfig) {
		c.cacheDir = dir
	}
}

// WithOutputDir sets the directory run outputs are written under.
func WithOutputDir(dir string) Option {
	return func(c *clientConfig) {
		c.outputDir = dir
	}
}

// WithCheckpointBaseURL overrides where checkpoint archives are fetched from.
func WithCheckpointBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithProgress installs a download progress callback.
func WithProgress(fn func(written, total int64)) Option {
	return func(c *clientConfig) {
		c.onProgress = fn
	}
}
