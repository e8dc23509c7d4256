package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/measurer/internal/dataset"
	"github.com/lehigh-university-libraries/measurer/internal/units"
)

type fakePredictor struct {
	rows []dataset.Row
}

func (f *fakePredictor) Predict(ctx context.Context, row dataset.Row) dataset.Prediction {
	f.rows = append(f.rows, row)
	value := "10 pound"
	return dataset.Prediction{Index: row.Index, EntityName: row.EntityName, Prediction: &value}
}

type fakeOCR struct {
	text string
	seen []byte
}

func (f *fakeOCR) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	f.seen = data
	return f.text, nil
}

func newTestHandler(t *testing.T, ocr *fakeOCR) (*Handler, *fakePredictor) {
	t.Helper()
	extractor, err := units.NewExtractor(units.Default(), units.ModeCatalog)
	if err != nil {
		t.Fatalf("failed to build extractor: %v", err)
	}
	predictor := &fakePredictor{}
	return New(predictor, ocr, extractor, t.TempDir()), predictor
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) PredictionResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PredictionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleExtract(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOCR{})

	tests := []struct {
		name      string
		body      string
		wantValue string
		wantNull  bool
	}{
		{
			name:      "highest value",
			body:      `{"text": "net wt 2.5kg, gross 10 lb", "entity_name": "item_weight"}`,
			wantValue: "10 pound",
		},
		{
			name:     "nothing found",
			body:     `{"text": "no readable measurement", "entity_name": "height"}`,
			wantNull: true,
		},
		{
			name:     "unknown entity",
			body:     `{"text": "5 cm", "entity_name": "colour"}`,
			wantNull: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			resp := decodeResponse(t, rec)
			if tt.wantNull {
				if resp.Prediction != nil {
					t.Errorf("Expected null prediction, got %q", *resp.Prediction)
				}
				if resp.Error == "" {
					t.Error("Expected an error message")
				}
				return
			}
			if resp.Prediction == nil || *resp.Prediction != tt.wantValue {
				t.Errorf("Expected %q, got %v", tt.wantValue, resp.Prediction)
			}
		})
	}
}

func TestHandlePredictURL(t *testing.T) {
	h, predictor := newTestHandler(t, &fakeOCR{})

	for i := 0; i < 2; i++ {
		body := `{"image_link": "https://example.com/a.jpg", "entity_name": "item_weight"}`
		req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.HandlePredict(rec, req)

		resp := decodeResponse(t, rec)
		if resp.Prediction == nil || *resp.Prediction != "10 pound" {
			t.Errorf("Unexpected prediction %v", resp.Prediction)
		}
	}

	if len(predictor.rows) != 2 {
		t.Fatalf("Expected 2 predictions, got %d", len(predictor.rows))
	}
	if predictor.rows[0].Index == predictor.rows[1].Index {
		t.Error("Expected a distinct key per request")
	}
}

func TestHandlePredictUpload(t *testing.T) {
	ocr := &fakeOCR{text: "220-240 V"}
	h, _ := newTestHandler(t, ocr)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "label.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	_, _ = part.Write([]byte("fake image bytes"))
	_ = mw.WriteField("entity_name", "voltage")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.HandlePredict(rec, req)

	resp := decodeResponse(t, rec)
	if resp.Prediction == nil || *resp.Prediction != "240 volt" {
		t.Errorf("Expected 240 volt, got %v (%s)", resp.Prediction, resp.Error)
	}
	if string(ocr.seen) != "fake image bytes" {
		t.Errorf("OCR did not receive the uploaded file")
	}
}

func TestHandlePredictUploadSizeLimit(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{name: "at limit", size: maxUploadSize, want: http.StatusOK},
		{name: "over limit", size: maxUploadSize + 1, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, &fakeOCR{text: "12 V"})

			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			part, err := mw.CreateFormFile("file", "label.png")
			if err != nil {
				t.Fatalf("failed to create form file: %v", err)
			}
			_, _ = part.Write(bytes.Repeat([]byte{'x'}, tt.size))
			_ = mw.WriteField("entity_name", "voltage")
			_ = mw.Close()

			req := httptest.NewRequest(http.MethodPost, "/api/predict", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			rec := httptest.NewRecorder()
			h.HandlePredict(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandlePredictBadRequests(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOCR{})

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{name: "wrong method", method: http.MethodGet, want: http.StatusMethodNotAllowed},
		{name: "invalid json", method: http.MethodPost, body: "{", want: http.StatusBadRequest},
		{name: "missing entity", method: http.MethodPost, body: `{"image_link": "http://a"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/predict", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.HandlePredict(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHealthcheckAndEntities(t *testing.T) {
	h, _ := newTestHandler(t, &fakeOCR{})
	mux := h.Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Body.String() != "OK" {
		t.Errorf("Expected OK, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entities", nil))
	var entities map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&entities); err != nil {
		t.Fatalf("failed to decode entities: %v", err)
	}
	if _, ok := entities["item_weight"]; !ok {
		t.Errorf("Expected item_weight in %v", entities)
	}
}
