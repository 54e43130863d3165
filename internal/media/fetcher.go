// Package media downloads photo and voice attachments to local disk.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/Veraticus/kopiyka/internal/service"
)

// Config holds the download settings.
type Config struct {
	Dir      string
	Timeout  time.Duration
	MaxBytes int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Dir:      "~/.local/share/kopiyka/media",
		Timeout:  60 * time.Second,
		MaxBytes: 20 << 20,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.New("media directory is required")
	}
	if c.MaxBytes <= 0 {
		return errors.New("max download size must be positive")
	}
	return nil
}

// Fetcher implements service.MediaFetcher.
type Fetcher struct {
	files      service.FileResolver
	httpClient *http.Client
	logger     *slog.Logger
	config     Config
}

// NewFetcher creates a fetcher that resolves file ids through files.
func NewFetcher(config Config, files service.FileResolver, logger *slog.Logger) (*Fetcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		files:      files,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
		config:     config,
	}, nil
}

// Fetch downloads the attachment carried by content and returns the local
// path, <dir>/<kind>/<remote file name>. Only photos and voice notes have
// attachments.
func (f *Fetcher) Fetch(ctx context.Context, content model.Content) (string, error) {
	var (
		ref  model.FileRef
		kind model.MediaKind
	)

	switch c := content.(type) {
	case model.PhotoContent:
		largest, ok := c.Largest()
		if !ok {
			return "", fmt.Errorf("%w: photo without sizes", common.ErrUnsupportedMedia)
		}
		ref, kind = largest, model.MediaPhoto
	case model.VoiceContent:
		ref, kind = c.Voice, model.MediaVoice
	default:
		return "", fmt.Errorf("%w: %T", common.ErrUnsupportedMedia, content)
	}

	remote, err := f.files.ResolveFile(ctx, ref.FileID)
	if err != nil {
		return "", err
	}

	name := path.Base(remote.Path)
	if name == "." || name == "/" {
		name = ref.FileID
	}
	dest := filepath.Join(f.config.Dir, string(kind), name)

	size, err := f.download(ctx, remote.URL, dest)
	if err != nil {
		return "", err
	}

	f.logger.Debug("downloaded media", "kind", kind, "path", dest, "bytes", size)
	return dest, nil
}

func (f *Fetcher) download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return 0, fmt.Errorf("failed to create media directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	size, err := io.Copy(tmp, io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to save download: %w", err)
	}

	switch {
	case size == 0:
		return 0, common.ErrEmptyDownload
	case size > f.config.MaxBytes:
		return 0, fmt.Errorf("download exceeds %d bytes", f.config.MaxBytes)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("failed to save download: %w", err)
	}
	return size, nil
}
