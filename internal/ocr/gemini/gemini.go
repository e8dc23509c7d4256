// Package gemini recognizes text with Google Gemini vision models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/measurer/internal/ocr"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY not set")

// Engine sends images to Gemini.
type Engine struct {
	APIKey string
	Model  string
}

// New returns a Gemini engine.
func New(apiKey, model string) *Engine {
	if model == "" {
		model = DefaultModel
	}
	return &Engine{APIKey: apiKey, Model: model}
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if e.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	data, err := ocr.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(e.Model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.ImageData("png", data), genai.Text(ocr.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return responseText(resp)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			parts = append(parts, string(txt))
		}
	}
	return strings.Join(parts, "\n"), nil
}
