package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// DefaultTimeout bounds a single image request.
const DefaultTimeout = 10 * time.Second

// ErrBadStatus is returned when the image server answers with a non-2xx
// status.
var ErrBadStatus = errors.New("unexpected HTTP status")

// Fetcher downloads product images into a local directory.
type Fetcher struct {
	HTTPClient *http.Client
	OutputDir  string
}

// NewFetcher creates a fetcher that writes into outputDir with the given
// per-request timeout. A zero timeout uses DefaultTimeout.
func NewFetcher(outputDir string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		OutputDir: outputDir,
	}
}

// PathFor returns the local path used for key. Repeated fetches with the
// same key overwrite the same file.
func (f *Fetcher) PathFor(key string) string {
	return filepath.Join(f.OutputDir, fmt.Sprintf("image_%s.png", sanitizeKey(key)))
}

// Fetch downloads url and stores the raw bytes at PathFor(key). Failures
// are returned to the caller and never retried.
func (f *Fetcher) Fetch(ctx context.Context, url, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: image URL returned status %d", ErrBadStatus, resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	outputPath := f.PathFor(key)
	if err := os.WriteFile(outputPath, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	slog.Debug("Downloaded image", "key", key, "path", outputPath, "bytes", len(imageData))
	return outputPath, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeKey keeps keys from escaping the output directory.
func sanitizeKey(key string) string {
	key = unsafeKeyChars.ReplaceAllString(key, "_")
	if key == "" || key == "." || key == ".." {
		return "_"
	}
	return key
}
