// Package pipeline turns input rows into predictions: download the image,
// recognize its text and pick the measurement for the row's entity.
package pipeline

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/lehigh-university-libraries/measurer/internal/dataset"
	"github.com/lehigh-university-libraries/measurer/internal/units"
)

// Fetcher stores the image at url locally under key.
type Fetcher interface {
	Fetch(ctx context.Context, url, key string) (string, error)
}

// TextExtractor recognizes the text of a local image.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Predictor processes a single row. It is safe for concurrent use as long as
// its collaborators are.
type Predictor struct {
	fetcher   Fetcher
	ocr       TextExtractor
	extractor *units.Extractor
}

// NewPredictor wires the per-row steps together.
func NewPredictor(fetcher Fetcher, ocr TextExtractor, extractor *units.Extractor) *Predictor {
	return &Predictor{
		fetcher:   fetcher,
		ocr:       ocr,
		extractor: extractor,
	}
}

// Predict never fails: any problem leaves the prediction absent and is
// recorded on the returned record.
func (p *Predictor) Predict(ctx context.Context, row dataset.Row) dataset.Prediction {
	result := dataset.Prediction{
		Index:      row.Index,
		GroupID:    row.GroupID,
		EntityName: row.EntityName,
	}

	// Group ids repeat across rows, so only the row index is a safe file key.
	path, err := p.fetcher.Fetch(ctx, row.ImageLink, strconv.FormatInt(row.Index, 10))
	if err != nil {
		slog.Warn("Failed to download image", "index", row.Index, "url", row.ImageLink, "err", err)
		result.Error = err.Error()
		return result
	}

	text, err := p.ocr.Extract(ctx, path)
	if err != nil {
		slog.Warn("Failed to extract text", "index", row.Index, "path", path, "err", err)
		result.Error = err.Error()
		return result
	}

	m, err := p.extractor.Extract(row.EntityName, text)
	if err != nil {
		slog.Debug("No measurement found", "index", row.Index, "entity", row.EntityName, "err", err)
		result.Error = err.Error()
		return result
	}

	value := m.String()
	result.Prediction = &value
	slog.Debug("Predicted measurement", "index", row.Index, "entity", row.EntityName, "prediction", value)
	return result
}
