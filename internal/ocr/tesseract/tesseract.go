// Package tesseract provides the default OCR engine, backed by the
// Tesseract library through gosseract. It requires cgo and the Tesseract
// development headers at build time.
package tesseract

import (
	"context"
	"fmt"
	"image"

	"github.com/lehigh-university-libraries/measurer/internal/ocr"
	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text with Tesseract. A new client is created per call
// because gosseract clients are not safe for concurrent use.
type Engine struct {
	Language       string
	TessdataPrefix string
	PageSegMode    gosseract.PageSegMode
}

// New returns an engine for language. The page segmentation mode treats the
// image as a single uniform block of text.
func New(language, tessdataPrefix string) *Engine {
	if language == "" {
		language = "eng"
	}
	return &Engine{
		Language:       language,
		TessdataPrefix: tessdataPrefix,
		PageSegMode:    gosseract.PSM_SINGLE_BLOCK,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs Tesseract on img.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := ocr.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(e.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(e.PageSegMode); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
