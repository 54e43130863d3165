// Package ocr recognizes receipt text in photos with Tesseract.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Config holds the recognizer settings.
type Config struct {
	Language     string
	MinHeight    int // images shorter than this are upscaled before recognition
	TargetHeight int
}

// DefaultConfig returns settings tuned for Ukrainian receipts.
func DefaultConfig() Config {
	return Config{
		Language:     "ukr",
		MinHeight:    800,
		TargetHeight: 1200,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Language == "" {
		return errors.New("OCR language is required")
	}
	if c.MinHeight < 0 || c.TargetHeight < c.MinHeight {
		return fmt.Errorf("target height %d must be at least min height %d", c.TargetHeight, c.MinHeight)
	}
	return nil
}

// Engine implements service.OCR.
type Engine struct {
	logger *slog.Logger
	config Config
}

// NewEngine creates a Tesseract-backed recognizer.
func NewEngine(config Config, logger *slog.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{config: config, logger: logger}, nil
}

// Recognize returns the text found in the image at imagePath.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prepared, err := preprocess(imagePath, e.config.MinHeight, e.config.TargetHeight)
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(prepared) }()

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(e.config.Language); err != nil {
		return "", fmt.Errorf("failed to set OCR language %q: %w", e.config.Language, err)
	}
	if err := client.SetImage(prepared); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	text = strings.TrimSpace(text)
	e.logger.Debug("recognized image text", "path", imagePath, "chars", len(text))
	return text, nil
}

// preprocess converts the image to grayscale and upscales short images. The
// result is written to a temporary PNG that the caller must remove.
func preprocess(path string, minHeight, targetHeight int) (string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minHeight {
		gray = imaging.Resize(gray, 0, targetHeight, imaging.Lanczos)
	}

	tmp, err := os.CreateTemp("", "kopiyka-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()

	if err := imaging.Save(gray, name); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to save preprocessed image: %w", err)
	}
	return name, nil
}
