// Package dataset reads input tables and writes prediction tables in CSV,
// JSON Lines or Parquet, selected by file extension.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Column names of the input table.
const (
	ColumnIndex       = "index"
	ColumnImageLink   = "image_link"
	ColumnEntityName  = "entity_name"
	ColumnGroupID     = "group_id"
	ColumnEntityValue = "entity_value"
)

// Format is a table encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// FormatOf picks the table format from the file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".jsonl", ".json":
		return FormatJSONL, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: .csv, .jsonl, .parquet)", ErrUnsupportedFormat, ext)
	}
}

// Load reads every row of the table at path.
func Load(path string) ([]Row, error) {
	return LoadSample(path, 0)
}

// LoadSample reads at most limit rows. A limit of zero or less reads all rows.
func LoadSample(path string, limit int) ([]Row, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var rows []Row
	switch format {
	case FormatCSV:
		rows, err = readCSV(file, limit)
	case FormatJSONL:
		rows, err = readJSONL(file, limit)
	case FormatParquet:
		rows, err = readParquet(file, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	slog.Debug("Loaded dataset", "path", path, "format", format, "rows", len(rows))
	return rows, nil
}

func readCSV(r io.Reader, limit int) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{ColumnImageLink, ColumnEntityName} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var rows []Row
	for position := 0; limit <= 0 || len(rows) < limit; position++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", position+1, err)
		}

		fields := make(map[string]string, len(columns))
		for name, i := range columns {
			if i < len(record) {
				fields[name] = record[i]
			}
		}
		row, err := rowFromFields(fields, position)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", position+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readJSONL(r io.Reader, limit int) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	const maxCapacity = 10 * 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	var rows []Row
	lineNum := 0
	for scanner.Scan() && (limit <= 0 || len(rows) < limit) {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		decoder := json.NewDecoder(bytes.NewReader(line))
		decoder.UseNumber()
		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		fields := make(map[string]string, len(raw))
		for name, v := range raw {
			if v == nil {
				continue
			}
			fields[name] = fmt.Sprint(v)
		}
		for _, required := range []string{ColumnImageLink, ColumnEntityName} {
			if _, ok := fields[required]; !ok {
				return nil, fmt.Errorf("line %d: %w: %s", lineNum, ErrMissingColumn, required)
			}
		}

		row, err := rowFromFields(fields, len(rows))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	return rows, nil
}

func readParquet(file *os.File, limit int) ([]Row, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	for _, required := range []string{ColumnImageLink, ColumnEntityName} {
		if _, ok := pf.Schema().Lookup(required); !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var rows []Row
	batch := make([]Row, 128)
	for limit <= 0 || len(rows) < limit {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	// Without an index column the zero-based position is used, as for CSV
	// and JSONL.
	if _, ok := pf.Schema().Lookup(ColumnIndex); !ok {
		for i := range rows {
			rows[i].Index = int64(i)
		}
	}
	return rows, nil
}

// rowFromFields builds a Row from named string fields. Without an index
// column the zero-based position is used.
func rowFromFields(fields map[string]string, position int) (Row, error) {
	row := Row{
		Index:       int64(position),
		ImageLink:   strings.TrimSpace(fields[ColumnImageLink]),
		EntityName:  strings.TrimSpace(fields[ColumnEntityName]),
		GroupID:     strings.TrimSpace(fields[ColumnGroupID]),
		EntityValue: strings.TrimSpace(fields[ColumnEntityValue]),
	}

	if raw, ok := fields[ColumnIndex]; ok && strings.TrimSpace(raw) != "" {
		index, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Row{}, fmt.Errorf("invalid index %q: %w", raw, err)
		}
		row.Index = index
	}
	return row, nil
}
