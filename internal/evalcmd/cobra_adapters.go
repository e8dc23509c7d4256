package evalcmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/measurer/internal/units"
	"github.com/spf13/cobra"
)

// NewPredictCmd creates the predict command
func NewPredictCmd() *cobra.Command {
	var settings Settings
	var params runParams

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict measurements for every row of a dataset",
		Long: `Download each row's product image, recognize its text and pick the
largest measurement whose unit fits the row's entity.

The input table needs image_link and entity_name columns and may carry
index and group_id. CSV, JSON Lines and Parquet are supported for both
input and output, chosen by file extension.`,
		Example: `  # Predict with the default tesseract engine
  measurer predict --input sample_test.csv --output test_out.csv

  # Try the first 20 rows with 8 workers and a vision model
  measurer predict --input test.parquet --sample 20 --workers 8 --engine ollama

  # Keep the group id in the output
  measurer predict --input sample_test.csv --output out.parquet --grouped`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd, &settings)
			if err != nil {
				return err
			}
			params.Mode = settings.Mode
			params.Quiet = settings.Quiet
			return executePredict(cmd.Context(), cfg, params, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	settings.AddFlags(cmd)
	cmd.Flags().StringVarP(&params.InputPath, "input", "i", "sample_test.csv", "Input table (.csv, .jsonl or .parquet)")
	cmd.Flags().StringVarP(&params.OutputPath, "output", "o", "test_out.csv", "Output table (.csv, .jsonl or .parquet)")
	cmd.Flags().IntVar(&params.Sample, "sample", 0, "Only process the first N rows (0 for all)")
	cmd.Flags().BoolVar(&params.Grouped, "grouped", false, "Include group_id in the output")

	return cmd
}

// NewEvaluateCmd creates the evaluate command
func NewEvaluateCmd() *cobra.Command {
	var settings Settings
	var params runParams
	var evalsDir string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Predict a labelled dataset and report the weighted F1 score",
		Long: `Run the prediction pipeline on a table with entity_value ground truth,
then score exact string matches with a support-weighted F1.

Only rows with both a prediction and a ground truth value are scored.
Per-row results are written to --output and a YAML report to --evals-dir.`,
		Example: `  measurer evaluate --input sample_test.csv
  measurer evaluate --input train.parquet --sample 500 --evals-dir evals`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd, &settings)
			if err != nil {
				return err
			}
			params.Mode = settings.Mode
			params.Quiet = settings.Quiet
			params.Grouped = true
			return executeEvaluate(cmd.Context(), cfg, params, evalsDir, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	settings.AddFlags(cmd)
	cmd.Flags().StringVarP(&params.InputPath, "input", "i", "sample_test.csv", "Labelled input table (.csv, .jsonl or .parquet)")
	cmd.Flags().StringVarP(&params.OutputPath, "output", "o", "results_with_f1_score.csv", "Per-row results table")
	cmd.Flags().IntVar(&params.Sample, "sample", 0, "Only process the first N rows (0 for all)")
	cmd.Flags().StringVar(&evalsDir, "evals-dir", "evals", "Directory for the YAML report (empty to skip)")

	return cmd
}

// NewExtractCmd creates the extract command
func NewExtractCmd() *cobra.Command {
	var entity string
	var catalogPath string
	var mode string
	var showMatches bool

	cmd := &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract a measurement from text without OCR",
		Long: `Run the unit matcher and highest-value selector on the given text.
Reads standard input when no text argument is given.`,
		Example: `  measurer extract --entity item_weight "net wt 2.5kg, gross 10 lb"
  echo "220-240V 50Hz" | measurer extract --entity voltage --matches`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd, nil)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogPath = catalogPath
			}

			catalog, err := LoadCatalog(cfg)
			if err != nil {
				return err
			}
			m, err := units.ParseMode(mode)
			if err != nil {
				return err
			}
			extractor, err := units.NewExtractor(catalog, m)
			if err != nil {
				return err
			}

			text, err := textArg(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return executeExtract(cmd.OutOrStdout(), extractor, entity, text, showMatches)
		},
	}

	cmd.Flags().StringVarP(&entity, "entity", "e", "", "Entity name, e.g. width or item_weight (required)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML unit catalog replacing the built-in one")
	cmd.Flags().StringVar(&mode, "mode", units.ModeCatalog.String(), "Unit matching mode: catalog or entity")
	cmd.Flags().BoolVar(&showMatches, "matches", false, "List every raw match before the prediction")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

// NewCatalogCmd creates the catalog command
func NewCatalogCmd() *cobra.Command {
	var catalogPath string
	var validate bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print or validate the unit catalog",
		Long: `Print the effective unit catalog as YAML. The output can be edited and
passed back with --catalog or MEASURER_CATALOG.`,
		Example: `  measurer catalog > units.yaml
  measurer catalog --catalog units.yaml --validate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd, nil)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogPath = catalogPath
			}
			catalog, err := LoadCatalog(cfg)
			if err != nil {
				return err
			}
			return executeCatalog(cmd.OutOrStdout(), catalog, validate)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML unit catalog to load instead of the built-in one")
	cmd.Flags().BoolVar(&validate, "validate", false, "Only check the catalog and print a summary")

	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var settings Settings
	var params inspectParams

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect dataset rows (useful for examining OCR text)",
		Long: `Print rows of an input table. With --ocr each image is downloaded and
recognized, and the raw matches and the resulting prediction are shown.`,
		Example: `  # Look at the first 5 rows
  measurer inspect --input sample_test.csv --limit 5

  # Step through OCR output one row at a time
  measurer inspect --input sample_test.csv --ocr --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd, &settings)
			if err != nil {
				return err
			}

			if !params.ShowOCR {
				catalog, err := LoadCatalog(cfg)
				if err != nil {
					return err
				}
				return executeInspect(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), catalog, nil, params)
			}

			components, err := Build(cfg, settings.Mode)
			if err != nil {
				return err
			}
			return executeInspect(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), components.Catalog, components, params)
		},
	}

	settings.AddFlags(cmd)
	cmd.Flags().StringVarP(&params.InputPath, "input", "i", "", "Input table (.csv, .jsonl or .parquet) (required)")
	cmd.Flags().IntVar(&params.Limit, "limit", 10, "Number of rows to inspect (0 for all)")
	cmd.Flags().BoolVar(&params.Interactive, "interactive", false, "Pause after each row (press Enter to continue)")
	cmd.Flags().BoolVar(&params.ShowOCR, "ocr", false, "Download and OCR each image")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <evals/report.yaml>",
		Short: "Print a saved evaluation report",
		Args:  cobra.ExactArgs(1),
		Example: `  measurer report evals/tesseract-2024-01-02_15-04-05.yaml
  measurer report evals/ollama-2024-01-02_15-04-05.yaml --format csv > mismatches.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := LoadConfig(cmd, nil); err != nil {
				return err
			}
			return executeReport(cmd.OutOrStdout(), args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or csv")

	return cmd
}

// NewDownloadImagesCmd creates the download-images command
func NewDownloadImagesCmd() *cobra.Command {
	var settings Settings
	var inputPath string
	var sample int
	var force bool

	cmd := &cobra.Command{
		Use:   "download-images",
		Short: "Download the images of a dataset without running OCR",
		Long: `Fetch every row's image into the download directory using the same
file names as predict, so later runs can be inspected offline.`,
		Example: `  measurer download-images --input sample_test.csv --sample 100
  measurer download-images --input test.parquet --download-dir images --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd, &settings)
			if err != nil {
				return err
			}
			return executeDownloadImages(cmd.Context(), cfg, inputPath, sample, force, cmd.OutOrStdout())
		},
	}

	settings.AddFlags(cmd)
	cmd.Flags().StringVarP(&inputPath, "input", "i", "sample_test.csv", "Input table (.csv, .jsonl or .parquet)")
	cmd.Flags().IntVar(&sample, "sample", 0, "Only download the first N rows (0 for all)")
	cmd.Flags().BoolVar(&force, "force", false, "Download again even when the image exists")

	return cmd
}

// textArg returns the single positional argument or all of in.
func textArg(args []string, in io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read text from stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no text given")
	}
	return text, nil
}
