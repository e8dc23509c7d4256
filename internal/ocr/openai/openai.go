// Package openai recognizes text with OpenAI vision models.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/measurer/internal/ocr"
)

const (
	DefaultURL   = "https://api.openai.com/v1/chat/completions"
	DefaultModel = "gpt-4o"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set")

// Engine calls the chat completions API with the image inlined as a data URL.
type Engine struct {
	APIKey     string
	Model      string
	URL        string
	HTTPClient *http.Client
}

// New returns an OpenAI engine.
func New(apiKey, model string) *Engine {
	if model == "" {
		model = DefaultModel
	}
	return &Engine{APIKey: apiKey, Model: model, URL: DefaultURL, HTTPClient: &http.Client{}}
}

func (e *Engine) Name() string { return "openai" }

func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if e.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	data, err := ocr.EncodePNG(img)
	if err != nil {
		return "", err
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": e.Model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": ocr.Prompt,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
						},
					},
				},
			},
		},
		"max_tokens":  1000,
		"temperature": 0.0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API for OCR: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openAI OCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode OpenAI OCR response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no OCR response from OpenAI")
	}

	text := response.Choices[0].Message.Content
	slog.Debug("Extracted OCR text", "engine", "openai", "model", e.Model, "length", len(text))
	return text, nil
}
