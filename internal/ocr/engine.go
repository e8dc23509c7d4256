// Package ocr turns downloaded product images into text.
//
// Images are converted to grayscale before recognition. When the plain pass
// yields nothing, the image is enhanced (contrast, sharpness, unsharp mask)
// and recognized again. Recognition itself is delegated to an Engine; the
// concrete engines live in sub-packages so this package builds without cgo.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrNoText is returned when recognition produced no usable text.
var ErrNoText = errors.New("no text recognized")

// Engine recognizes text in a preprocessed raster image. Engines that
// report per-region results return them joined into one string.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// EncodePNG encodes img for engines that take encoded bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Prompt instructs vision language models to transcribe, not describe.
const Prompt = `You are performing OCR (Optical Character Recognition) on a product image.

Extract ALL visible text exactly as it appears, preserving:
- Numbers, decimal points and units of measure
- Line breaks
- Punctuation

Do not add any interpretation, commentary, or explanations.
If text is partially obscured, transcribe what you can see.

Provide ONLY the extracted text. Do not include phrases like "Here is the text:".
If the image contains no text, respond with nothing.`
