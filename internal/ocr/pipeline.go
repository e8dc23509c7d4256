package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Pipeline loads an image from disk, preprocesses it and runs the engine.
type Pipeline struct {
	engine Engine
}

// NewPipeline returns a pipeline backed by engine.
func NewPipeline(engine Engine) *Pipeline {
	return &Pipeline{engine: engine}
}

// Engine returns the underlying engine.
func (p *Pipeline) Engine() Engine {
	return p.engine
}

// ExtractText runs a single OCR pass over the image at path. Decode and
// engine failures are returned wrapped in ErrNoText.
func (p *Pipeline) ExtractText(ctx context.Context, path string, enhance bool) (string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open image %s: %v", ErrNoText, path, err)
	}

	text, err := p.engine.Recognize(ctx, Preprocess(img, enhance))
	if err != nil {
		return "", fmt.Errorf("%w: %s failed on %s: %v", ErrNoText, p.engine.Name(), path, err)
	}
	return text, nil
}

// Extract tries a plain pass first and escalates to the enhanced pass only
// when the plain pass fails or returns blank text. The result of the
// enhanced pass is returned as is, even if it is blank.
func (p *Pipeline) Extract(ctx context.Context, path string) (string, error) {
	text, err := p.ExtractText(ctx, path, false)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		slog.Debug("Plain OCR pass failed, retrying with enhancement", "path", path, "err", err)
	} else {
		slog.Debug("Plain OCR pass was blank, retrying with enhancement", "path", path)
	}

	return p.ExtractText(ctx, path, true)
}
