// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Engine names accepted in OCR_ENGINE.
const (
	EngineTesseract = "tesseract"
	EngineGemini    = "gemini"
	EngineOllama    = "ollama"
	EngineOpenAI    = "openai"
)

type Config struct {
	// Pipeline
	Workers      int
	DownloadDir  string
	FetchTimeout time.Duration
	CatalogPath  string

	// OCR
	Engine            string
	TesseractLanguage string
	TessdataPrefix    string
	GeminiAPIKey      string
	GeminiModel       string
	OllamaURL         string
	OllamaModel       string
	OpenAIAPIKey      string
	OpenAIModel       string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the configuration. Malformed numbers and durations are errors
// rather than silently replaced by defaults.
func Load() (*Config, error) {
	workers, err := getEnvInt("MEASURER_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("MEASURER_FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Workers:           workers,
		DownloadDir:       getEnv("MEASURER_DOWNLOAD_DIR", "downloaded_images"),
		FetchTimeout:      timeout,
		CatalogPath:       getEnv("MEASURER_CATALOG", ""),
		Engine:            strings.ToLower(getEnv("OCR_ENGINE", EngineTesseract)),
		TesseractLanguage: getEnv("TESSERACT_LANGUAGE", "eng"),
		TessdataPrefix:    getEnv("TESSDATA_PREFIX", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OllamaURL:         getEnv("OLLAMA_URL", getEnv("OLLAMA_HOST", "http://localhost:11434")),
		OllamaModel:       getEnv("OLLAMA_MODEL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks values that flags may have overridden since Load.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	switch c.Engine {
	case EngineTesseract, EngineGemini, EngineOllama, EngineOpenAI:
	default:
		return fmt.Errorf("unsupported OCR engine %q (supported: tesseract, gemini, ollama, openai)", c.Engine)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q (supported: text, json)", c.LogFormat)
	}
	return nil
}

// NewLogger returns a slog logger writing to w in the configured format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
