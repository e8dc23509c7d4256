package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func strPtr(s string) *string { return &s }

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "test.csv", "index,image_link,group_id,entity_name,entity_value\n"+
		"10,https://example.com/a.jpg,101,width,10.0 centimetre\n"+
		"11,https://example.com/b.jpg,102,item_weight,\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	want := Row{Index: 10, ImageLink: "https://example.com/a.jpg", EntityName: "width", GroupID: "101", EntityValue: "10.0 centimetre"}
	if rows[0] != want {
		t.Errorf("Expected %+v, got %+v", want, rows[0])
	}
	if rows[1].Index != 11 || rows[1].EntityValue != "" {
		t.Errorf("Unexpected second row %+v", rows[1])
	}
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{
			name:    "missing image_link",
			content: "index,entity_name\n1,width\n",
			target:  ErrMissingColumn,
		},
		{
			name:    "empty file",
			content: "",
			target:  ErrMissingColumn,
		},
		{
			name:    "bad index",
			content: "index,image_link,entity_name\nabc,http://x,width\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "test.csv", tt.content))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestLoadSample(t *testing.T) {
	path := writeFile(t, "test.csv", "image_link,entity_name\n"+
		"http://a,width\nhttp://b,height\nhttp://c,depth\n")

	rows, err := LoadSample(path, 2)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	// Without an index column the position is used.
	if rows[0].Index != 0 || rows[1].Index != 1 {
		t.Errorf("Expected positional indexes, got %d and %d", rows[0].Index, rows[1].Index)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "test.jsonl",
		`{"index": 7, "image_link": "http://a", "entity_name": "voltage", "group_id": 3}`+"\n"+
			"\n"+
			`{"index": 8, "image_link": "http://b", "entity_name": "wattage", "entity_value": null}`+"\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Index != 7 || rows[0].GroupID != "3" || rows[0].EntityName != "voltage" {
		t.Errorf("Unexpected first row %+v", rows[0])
	}
	if rows[1].EntityValue != "" {
		t.Errorf("Expected null entity_value to be empty, got %q", rows[1].EntityValue)
	}

	_, err = Load(writeFile(t, "bad.jsonl", `{"index": 1, "entity_name": "width"}`+"\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Expected ErrMissingColumn, got %v", err)
	}
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.parquet")
	input := []Row{
		{Index: 1, ImageLink: "http://a", EntityName: "width", GroupID: "5"},
		{Index: 2, ImageLink: "http://b", EntityName: "height"},
		{Index: 3, ImageLink: "http://c", EntityName: "depth"},
	}
	if err := parquet.WriteFile(path, input); err != nil {
		t.Fatalf("failed to write parquet: %v", err)
	}

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rows) != len(input) {
		t.Fatalf("Expected %d rows, got %d", len(input), len(rows))
	}
	for i := range input {
		if rows[i] != input[i] {
			t.Errorf("Row %d: expected %+v, got %+v", i, input[i], rows[i])
		}
	}

	sample, err := LoadSample(path, 1)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(sample) != 1 {
		t.Errorf("Expected 1 row, got %d", len(sample))
	}
}

func TestLoadParquetWithoutIndex(t *testing.T) {
	type linkRow struct {
		ImageLink  string `parquet:"image_link"`
		EntityName string `parquet:"entity_name"`
	}

	path := filepath.Join(t.TempDir(), "links.parquet")
	input := []linkRow{
		{ImageLink: "http://a", EntityName: "width"},
		{ImageLink: "http://b", EntityName: "height"},
		{ImageLink: "http://c", EntityName: "depth"},
	}
	if err := parquet.WriteFile(path, input); err != nil {
		t.Fatalf("failed to write parquet: %v", err)
	}

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rows) != len(input) {
		t.Fatalf("Expected %d rows, got %d", len(input), len(rows))
	}
	for i, row := range rows {
		if row.Index != int64(i) {
			t.Errorf("Row %d: expected index %d, got %d", i, i, row.Index)
		}
		if row.ImageLink != input[i].ImageLink || row.EntityName != input[i].EntityName {
			t.Errorf("Row %d: unexpected %+v", i, row)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := Load("data.xlsx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if err := Write("out.txt", nil, false); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

var predictions = []Prediction{
	{Index: 2, GroupID: "20", EntityName: "height", Error: "no text"},
	{Index: 1, GroupID: "10", EntityName: "width", Prediction: strPtr("10 centimetre")},
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		grouped bool
		want    string
	}{
		{
			name: "base",
			want: "index,prediction\n1,10 centimetre\n2,\n",
		},
		{
			name:    "grouped",
			grouped: true,
			want:    "index,group_id,prediction\n1,10,10 centimetre\n2,20,\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "test_out.csv")
			if err := Write(path, predictions, tt.grouped); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read output: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Expected:\n%s\ngot:\n%s", tt.want, data)
			}
		})
	}
}

func TestWriteJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_out.jsonl")
	if err := Write(path, predictions, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		`{"index":1,"prediction":"10 centimetre"}`,
		`{"index":2,"prediction":null}`,
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %s, got %s", i, want[i], lines[i])
		}
	}
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_out.parquet")
	if err := Write(path, predictions, true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows, err := parquet.ReadFile[groupedPredictionRow](path)
	if err != nil {
		t.Fatalf("failed to read parquet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Index != 1 || rows[0].Prediction == nil || *rows[0].Prediction != "10 centimetre" {
		t.Errorf("Unexpected first row %+v", rows[0])
	}
	if rows[1].Index != 2 || rows[1].Prediction != nil {
		t.Errorf("Expected absent prediction for row 2, got %+v", rows[1])
	}
	if rows[1].GroupID != "20" {
		t.Errorf("Expected group 20, got %q", rows[1].GroupID)
	}
}

func TestPredictionValue(t *testing.T) {
	if _, ok := (Prediction{}).Value(); ok {
		t.Error("Expected no value for empty prediction")
	}
	if v, ok := predictions[1].Value(); !ok || v != "10 centimetre" {
		t.Errorf("Unexpected value %q %v", v, ok)
	}
}
