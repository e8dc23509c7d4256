package dataset

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// Write stores predictions at path, ordered by row index. Grouped output
// adds the group_id column. Absent predictions are written as empty CSV
// cells, JSON null and Parquet null.
func Write(path string, predictions []Prediction, grouped bool) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	sorted := slices.Clone(predictions)
	slices.SortStableFunc(sorted, func(a, b Prediction) int {
		return cmp.Compare(a.Index, b.Index)
	})

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatCSV:
		err = writeCSV(file, sorted, grouped)
	case FormatJSONL:
		err = writeJSONL(file, sorted, grouped)
	case FormatParquet:
		if grouped {
			err = writeParquet(file, toGroupedRows(sorted))
		} else {
			err = writeParquet(file, toRows(sorted))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	slog.Debug("Wrote predictions", "path", path, "format", format, "rows", len(sorted))
	return file.Close()
}

func writeCSV(file *os.File, predictions []Prediction, grouped bool) error {
	w := csv.NewWriter(file)

	header := []string{ColumnIndex, "prediction"}
	if grouped {
		header = []string{ColumnIndex, ColumnGroupID, "prediction"}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range predictions {
		value, _ := p.Value()
		record := []string{strconv.FormatInt(p.Index, 10), value}
		if grouped {
			record = []string{strconv.FormatInt(p.Index, 10), p.GroupID, value}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeJSONL(file *os.File, predictions []Prediction, grouped bool) error {
	encoder := json.NewEncoder(file)
	for _, p := range predictions {
		var record any = predictionRow{Index: p.Index, Prediction: p.Prediction}
		if grouped {
			record = groupedPredictionRow{Index: p.Index, GroupID: p.GroupID, Prediction: p.Prediction}
		}
		if err := encoder.Encode(record); err != nil {
			return err
		}
	}
	return nil
}

func writeParquet[T any](file *os.File, rows []T) error {
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		return err
	}
	return writer.Close()
}

func toRows(predictions []Prediction) []predictionRow {
	rows := make([]predictionRow, len(predictions))
	for i, p := range predictions {
		rows[i] = predictionRow{Index: p.Index, Prediction: p.Prediction}
	}
	return rows
}

func toGroupedRows(predictions []Prediction) []groupedPredictionRow {
	rows := make([]groupedPredictionRow, len(predictions))
	for i, p := range predictions {
		rows[i] = groupedPredictionRow{Index: p.Index, GroupID: p.GroupID, Prediction: p.Prediction}
	}
	return rows
}
