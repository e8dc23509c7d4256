// Package evalcmd holds the bodies of the measurer commands and the cobra
// constructors that bind their flags.
package evalcmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lehigh-university-libraries/measurer/internal/config"
	"github.com/lehigh-university-libraries/measurer/internal/images"
	"github.com/lehigh-university-libraries/measurer/internal/ocr"
	"github.com/lehigh-university-libraries/measurer/internal/ocr/gemini"
	"github.com/lehigh-university-libraries/measurer/internal/ocr/ollama"
	"github.com/lehigh-university-libraries/measurer/internal/ocr/openai"
	"github.com/lehigh-university-libraries/measurer/internal/ocr/tesseract"
	"github.com/lehigh-university-libraries/measurer/internal/pipeline"
	"github.com/lehigh-university-libraries/measurer/internal/units"
	"github.com/spf13/cobra"
)

// Settings are the flags shared by every command that runs the pipeline.
// Flags only override the environment when set explicitly.
type Settings struct {
	Workers     int
	DownloadDir string
	Timeout     time.Duration
	CatalogPath string
	Engine      string
	Mode        string
	Quiet       bool
}

// AddFlags registers the shared flags on cmd.
func (s *Settings) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&s.Workers, "workers", "w", 4, "Number of concurrent workers (env MEASURER_WORKERS)")
	cmd.Flags().StringVar(&s.DownloadDir, "download-dir", "downloaded_images", "Directory for downloaded images (env MEASURER_DOWNLOAD_DIR)")
	cmd.Flags().DurationVar(&s.Timeout, "timeout", images.DefaultTimeout, "Per-image download timeout (env MEASURER_FETCH_TIMEOUT)")
	cmd.Flags().StringVar(&s.CatalogPath, "catalog", "", "YAML unit catalog replacing the built-in one (env MEASURER_CATALOG)")
	cmd.Flags().StringVar(&s.Engine, "engine", config.EngineTesseract, "OCR engine: tesseract, gemini, ollama or openai (env OCR_ENGINE)")
	cmd.Flags().StringVar(&s.Mode, "mode", units.ModeCatalog.String(), "Unit matching mode: catalog or entity")
	cmd.Flags().BoolVarP(&s.Quiet, "quiet", "q", false, "Hide the progress bar")
}

// LoadConfig reads the environment, applies explicitly set flags and
// installs the default logger.
func LoadConfig(cmd *cobra.Command, s *Settings) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if s != nil {
		flags := cmd.Flags()
		if flags.Changed("workers") {
			cfg.Workers = s.Workers
		}
		if flags.Changed("download-dir") {
			cfg.DownloadDir = s.DownloadDir
		}
		if flags.Changed("timeout") {
			cfg.FetchTimeout = s.Timeout
		}
		if flags.Changed("catalog") {
			cfg.CatalogPath = s.CatalogPath
		}
		if flags.Changed("engine") {
			cfg.Engine = s.Engine
		}
	}
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.SetDefault(cfg.NewLogger(cmd.ErrOrStderr()))
	return cfg, nil
}

// LoadCatalog returns the configured catalog or the built-in one.
func LoadCatalog(cfg *config.Config) (*units.Catalog, error) {
	if cfg.CatalogPath == "" {
		return units.Default(), nil
	}
	catalog, err := units.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit catalog: %w", err)
	}
	slog.Info("Loaded unit catalog", "path", cfg.CatalogPath, "entities", len(catalog.Entities()))
	return catalog, nil
}

// NewEngine builds the configured OCR engine.
func NewEngine(cfg *config.Config) (ocr.Engine, error) {
	switch cfg.Engine {
	case config.EngineTesseract:
		slog.Debug("Using Tesseract", "version", tesseract.Version(), "language", cfg.TesseractLanguage)
		return tesseract.New(cfg.TesseractLanguage, cfg.TessdataPrefix), nil
	case config.EngineGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, gemini.ErrMissingAPIKey
		}
		return gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case config.EngineOllama:
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel), nil
	case config.EngineOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, openai.ErrMissingAPIKey
		}
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", cfg.Engine)
	}
}

// engineModel reports the model behind engine, if any, for reports.
func engineModel(engine ocr.Engine) string {
	switch e := engine.(type) {
	case *gemini.Engine:
		return e.Model
	case *ollama.Engine:
		return e.Model
	case *openai.Engine:
		return e.Model
	case *tesseract.Engine:
		return e.Language
	}
	return ""
}

// Components is everything a command needs to predict rows.
type Components struct {
	Catalog   *units.Catalog
	Extractor *units.Extractor
	Engine    ocr.Engine
	Fetcher   *images.Fetcher
	OCR       *ocr.Pipeline
	Predictor *pipeline.Predictor
}

// Build loads the catalog, compiles the extractor for mode and wires the
// per-row predictor. Catalog failures are fatal and happen before any row
// is touched.
func Build(cfg *config.Config, mode string) (*Components, error) {
	m, err := units.ParseMode(mode)
	if err != nil {
		return nil, err
	}

	catalog, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := units.NewExtractor(catalog, m)
	if err != nil {
		return nil, fmt.Errorf("failed to compile unit patterns: %w", err)
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	fetcher := images.NewFetcher(cfg.DownloadDir, cfg.FetchTimeout)
	text := ocr.NewPipeline(engine)

	return &Components{
		Catalog:   catalog,
		Extractor: extractor,
		Engine:    engine,
		Fetcher:   fetcher,
		OCR:       text,
		Predictor: pipeline.NewPredictor(fetcher, text, extractor),
	}, nil
}

// WithDownloadDir returns a copy of c whose predictor downloads into dir,
// so its image files cannot overwrite those of a batch run.
func (c *Components) WithDownloadDir(dir string, timeout time.Duration) (*Components, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	clone := *c
	clone.Fetcher = images.NewFetcher(dir, timeout)
	clone.Predictor = pipeline.NewPredictor(clone.Fetcher, c.OCR, c.Extractor)
	return &clone, nil
}
