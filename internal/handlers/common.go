// Package handlers serves measurement extraction over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/lehigh-university-libraries/measurer/internal/dataset"
	"github.com/lehigh-university-libraries/measurer/internal/units"
)

// maxUploadSize bounds uploaded images.
const maxUploadSize = 10 * 1024 * 1024

// RowPredictor predicts a single row.
type RowPredictor interface {
	Predict(ctx context.Context, row dataset.Row) dataset.Prediction
}

// TextExtractor recognizes the text of a local image.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

type Handler struct {
	predictor RowPredictor
	ocr       TextExtractor
	extractor *units.Extractor
	uploadDir string

	// requests numbers incoming images so concurrent requests never share
	// a download or upload file.
	requests atomic.Int64
}

// PredictionResponse is returned by every extraction endpoint. Prediction
// is null when nothing could be extracted.
type PredictionResponse struct {
	EntityName string  `json:"entity_name"`
	Prediction *string `json:"prediction"`
	Text       string  `json:"text,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func New(predictor RowPredictor, ocr TextExtractor, extractor *units.Extractor, uploadDir string) *Handler {
	return &Handler{
		predictor: predictor,
		ocr:       ocr,
		extractor: extractor,
		uploadDir: uploadDir,
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/predict", h.HandlePredict)
	mux.HandleFunc("/api/extract", h.HandleExtract)
	mux.HandleFunc("/api/entities", h.HandleEntities)
	mux.HandleFunc("/healthcheck", h.HandleHealthcheck)
	return mux
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) ensureUploadDir() error {
	return os.MkdirAll(h.uploadDir, 0755)
}
