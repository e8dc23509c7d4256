// Package ollama recognizes text with a vision model served by Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/measurer/internal/ocr"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "mistral-small3.2:24b"
)

// Engine calls the Ollama generate API.
type Engine struct {
	URL        string
	Model      string
	HTTPClient *http.Client
}

// New returns an Ollama engine. Empty arguments fall back to defaults.
func New(url, model string) *Engine {
	if url == "" {
		url = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Engine{URL: url, Model: model, HTTPClient: &http.Client{}}
}

func (e *Engine) Name() string { return "ollama" }

func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := ocr.EncodePNG(img)
	if err != nil {
		return "", err
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  e.Model,
		"prompt": ocr.Prompt,
		"images": []string{base64.StdEncoding.EncodeToString(data)},
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.0,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Ollama API for OCR: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama OCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode Ollama OCR response: %w", err)
	}

	slog.Debug("Extracted OCR text", "engine", "ollama", "model", e.Model, "length", len(response.Response))
	return response.Response, nil
}
