package internal

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const DefaultCheckpointBaseURL = "https://huggingface.co/4thel00z/grooves-checkpoints/resolve/main"

type ProgressWriter struct {
	Total      int64
	Written    int64
	OnProgress func(written, total int64)
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.Written += int64(n)
	if pw.OnProgress != nil {
		pw.OnProgress(pw.Written, pw.Total)
	}
	return n, nil
}

// Downloader caches checkpoint archives on local disk. A checkpoint that is
// already extracted is never fetched again.
type Downloader struct {
	cacheDir string
	baseURL  string
	client   *http.Client
}

func NewDownloader(cacheDir, baseURL string) *Downloader {
	if baseURL == "" {
		baseURL = DefaultCheckpointBaseURL
	}
	return &Downloader{
		cacheDir: cacheDir,
		baseURL:  baseURL,
		client:   http.DefaultClient,
	}
}

// EnsureCheckpoint makes the named checkpoint available locally and returns
// the directory its files were extracted to. Idempotent: when the extracted
// directory exists no network call is made.
func (d *Downloader) EnsureCheckpoint(ctx context.Context, spec ModelSpec, onProgress func(written, total int64)) (string, error) {
	dir := filepath.Join(d.cacheDir, spec.Name)
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}

	if err := os.MkdirAll(d.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	archive := filepath.Join(d.cacheDir, spec.Checkpoint)
	if _, err := os.Stat(archive); os.IsNotExist(err) {
		url := d.baseURL + "/" + spec.Checkpoint
		if err := d.download(ctx, url, archive, onProgress); err != nil {
			return "", err
		}
	}

	if err := extractTar(archive, dir); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("extract checkpoint: %w", err)
	}

	return dir, nil
}

func (d *Downloader) download(ctx context.Context, url, dest string, onProgress func(written, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	tmpFile := dest + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	pw := &ProgressWriter{
		Total:      resp.ContentLength,
		OnProgress: onProgress,
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	closeErr := f.Close()

	if err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("write file: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("close file: %w", closeErr)
	}

	if err := os.Rename(tmpFile, dest); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("rename file: %w", err)
	}

	return nil
}

func extractTar(archive, dir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.Clean(hdr.Name)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			continue
		}

		dest := filepath.Join(dir, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return err
			}
			out, err := os.Create(dest)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "grooves", "checkpoints"), nil
}
