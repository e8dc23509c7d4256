package evalcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/measurer/internal/config"
	"github.com/lehigh-university-libraries/measurer/internal/dataset"
	"github.com/lehigh-university-libraries/measurer/internal/evaluation"
	"github.com/lehigh-university-libraries/measurer/internal/pipeline"
)

// runParams describe one batch run.
type runParams struct {
	InputPath  string
	OutputPath string
	Sample     int
	Grouped    bool
	Mode       string
	Quiet      bool
}

// batch is a completed batch run.
type batch struct {
	Rows        []dataset.Row
	Predictions []dataset.Prediction
	Components  *Components
}

// runBatch loads the input table and predicts every row. Only setup and
// loading errors are returned; per-row failures become absent predictions.
func runBatch(ctx context.Context, cfg *config.Config, p runParams, progress io.Writer) (*batch, error) {
	components, err := Build(cfg, p.Mode)
	if err != nil {
		return nil, err
	}

	rows, err := dataset.LoadSample(p.InputPath, p.Sample)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Dataset loaded", "path", p.InputPath, "rows", len(rows))

	var opts []pipeline.Option
	if !p.Quiet {
		opts = append(opts, pipeline.WithProgress(progress))
	}
	runner := pipeline.NewRunner(components.Predictor, cfg.Workers, opts...)

	predictions, err := runner.Run(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("run interrupted: %w", err)
	}

	return &batch{Rows: rows, Predictions: predictions, Components: components}, nil
}

func executePredict(ctx context.Context, cfg *config.Config, p runParams, stdout, stderr io.Writer) error {
	slog.Info("Starting prediction run", "input", p.InputPath, "engine", cfg.Engine, "mode", p.Mode, "workers", cfg.Workers)

	b, err := runBatch(ctx, cfg, p, stderr)
	if err != nil {
		return err
	}

	if err := dataset.Write(p.OutputPath, b.Predictions, p.Grouped); err != nil {
		return fmt.Errorf("failed to write predictions: %w", err)
	}

	fmt.Fprintf(stdout, "Wrote %d predictions to %s\n", len(b.Predictions), p.OutputPath)
	return nil
}

func executeEvaluate(ctx context.Context, cfg *config.Config, p runParams, evalsDir string, stdout, stderr io.Writer) error {
	slog.Info("Starting evaluation run", "input", p.InputPath, "engine", cfg.Engine, "mode", p.Mode, "workers", cfg.Workers)

	b, err := runBatch(ctx, cfg, p, stderr)
	if err != nil {
		return err
	}

	// Labelled runs always carry the group id.
	if err := dataset.Write(p.OutputPath, b.Predictions, true); err != nil {
		return fmt.Errorf("failed to write predictions: %w", err)
	}
	slog.Info("Predictions saved", "path", p.OutputPath)

	summary, pairs, err := evaluation.Evaluate(b.Rows, b.Predictions)
	if errors.Is(err, evaluation.ErrNoOverlap) {
		slog.Warn("Nothing to score", "rows", summary.Rows, "predicted", summary.Predicted)
		return err
	}
	if err != nil {
		return err
	}

	printSummary(stdout, summary)

	report := evaluation.NewReport(evaluation.ReportConfig{
		Engine:      b.Components.Engine.Name(),
		Model:       engineModel(b.Components.Engine),
		Mode:        b.Components.Extractor.Mode().String(),
		DatasetPath: p.InputPath,
		SampleSize:  len(b.Rows),
		Workers:     cfg.Workers,
	}, summary, pairs)

	if evalsDir != "" {
		path, err := report.Save(evalsDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Evaluation report saved to: %s\n", path)
	}
	return nil
}

func printSummary(w io.Writer, summary evaluation.Summary) {
	fmt.Fprintf(w, "Rows:       %d\n", summary.Rows)
	fmt.Fprintf(w, "Clusters:   %d\n", summary.Clusters)
	fmt.Fprintf(w, "Predicted:  %d\n", summary.Predicted)
	fmt.Fprintf(w, "Evaluated:  %d\n", summary.Evaluated)
	fmt.Fprintf(w, "Correct:    %d\n", summary.Correct)
	fmt.Fprintf(w, "F1 Score: %.2f\n", summary.F1)
}
