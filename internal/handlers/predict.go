package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/measurer/internal/dataset"
)

// HandlePredict measures one image. JSON bodies name an image_link to
// download; multipart bodies upload the image as "file".
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		h.handleURLPredict(w, r)
		return
	}
	h.handleFilePredict(w, r)
}

func (h *Handler) handleURLPredict(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageLink  string `json:"image_link"`
		EntityName string `json:"entity_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.ImageLink == "" || request.EntityName == "" {
		h.writeError(w, "image_link and entity_name are required", http.StatusBadRequest)
		return
	}

	p := h.predictor.Predict(r.Context(), dataset.Row{
		Index:      h.requests.Add(1),
		ImageLink:  request.ImageLink,
		EntityName: request.EntityName,
	})

	h.writeJSON(w, PredictionResponse{
		EntityName: p.EntityName,
		Prediction: p.Prediction,
		Error:      p.Error,
	})
}

func (h *Handler) handleFilePredict(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	entity := r.FormValue("entity_name")
	if entity == "" {
		h.writeError(w, "entity_name is required", http.StatusBadRequest)
		return
	}

	fileData, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(fileData) > maxUploadSize {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}

	if err := h.ensureUploadDir(); err != nil {
		h.writeError(w, "Failed to create upload directory: "+err.Error(), http.StatusInternalServerError)
		return
	}
	path := filepath.Join(h.uploadDir, fmt.Sprintf("upload_%d%s", h.requests.Add(1), filepath.Ext(header.Filename)))
	if err := os.WriteFile(path, fileData, 0644); err != nil {
		h.writeError(w, "Failed to save image: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer os.Remove(path)

	response := PredictionResponse{EntityName: entity}
	text, err := h.ocr.Extract(r.Context(), path)
	if err != nil {
		response.Error = err.Error()
		h.writeJSON(w, response)
		return
	}

	response.Text = text
	response.Prediction, response.Error = h.extract(entity, text)
	h.writeJSON(w, response)
}

// HandleExtract measures text posted as JSON, skipping download and OCR.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Text       string `json:"text"`
		EntityName string `json:"entity_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.EntityName == "" {
		h.writeError(w, "entity_name is required", http.StatusBadRequest)
		return
	}

	response := PredictionResponse{EntityName: request.EntityName}
	response.Prediction, response.Error = h.extract(request.EntityName, request.Text)
	h.writeJSON(w, response)
}

// HandleEntities lists the entities and their units.
func (h *Handler) HandleEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.extractor.Catalog().Spec().Entities)
}

func (h *Handler) extract(entity, text string) (*string, string) {
	m, err := h.extractor.Extract(entity, text)
	if err != nil {
		return nil, err.Error()
	}
	value := m.String()
	return &value, ""
}
