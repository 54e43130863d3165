// Package extract turns an inbound message payload into the plain text the
// classifier reads.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/Veraticus/kopiyka/internal/service"
)

// Extractor implements service.ContentExtractor.
type Extractor struct {
	fetcher     service.MediaFetcher
	ocr         service.OCR
	transcriber service.Transcriber
	logger      *slog.Logger
}

// NewExtractor wires the media pipeline together.
func NewExtractor(fetcher service.MediaFetcher, ocr service.OCR, transcriber service.Transcriber, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		fetcher:     fetcher,
		ocr:         ocr,
		transcriber: transcriber,
		logger:      logger,
	}
}

// Extract returns the text of the message. Messages with nothing to analyze,
// including those whose media yields blank text, fail with common.ErrNoContent.
func (e *Extractor) Extract(ctx context.Context, content model.Content) (string, error) {
	var (
		text string
		err  error
	)

	switch c := content.(type) {
	case model.TextContent:
		text = c.Text
	case model.PhotoContent:
		text, err = e.photo(ctx, c)
	case model.VoiceContent:
		text, err = e.voice(ctx, c)
	case model.UnsupportedContent, nil:
		return "", common.ErrNoContent
	default:
		return "", fmt.Errorf("%w: %T", common.ErrUnsupportedMedia, content)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.ErrNoContent
	}
	return text, nil
}

func (e *Extractor) photo(ctx context.Context, c model.PhotoContent) (string, error) {
	path, err := e.fetcher.Fetch(ctx, c)
	if err != nil {
		return "", fmt.Errorf("fetch photo: %w", err)
	}

	text, err := e.ocr.Recognize(ctx, path)
	if err != nil {
		return "", fmt.Errorf("recognize photo: %w", err)
	}
	e.logger.Debug("photo recognized", "path", path, "chars", len(text))

	if caption := strings.TrimSpace(c.Caption); caption != "" {
		text = strings.TrimSpace(text + "\n" + caption)
	}
	return text, nil
}

func (e *Extractor) voice(ctx context.Context, c model.VoiceContent) (string, error) {
	path, err := e.fetcher.Fetch(ctx, c)
	if err != nil {
		return "", fmt.Errorf("fetch voice: %w", err)
	}

	text, err := e.transcriber.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("transcribe voice: %w", err)
	}
	e.logger.Debug("voice transcribed", "path", path, "chars", len(text))
	return text, nil
}
