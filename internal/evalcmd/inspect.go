package evalcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/measurer/internal/dataset"
	"github.com/lehigh-university-libraries/measurer/internal/units"
)

type inspectParams struct {
	InputPath   string
	Limit       int
	Interactive bool
	ShowOCR     bool
}

// executeInspect prints input rows with the units their entity accepts.
// With OCR enabled each image is downloaded and recognized, and the matches
// and prediction are shown.
func executeInspect(ctx context.Context, w io.Writer, in io.Reader, catalog *units.Catalog, components *Components, p inspectParams) error {
	rows, err := dataset.LoadSample(p.InputPath, p.Limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(w, "Loaded %d rows from %s\n", len(rows), p.InputPath)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	reader := bufio.NewReader(in)

	for i, row := range rows {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(w, "ROW %d/%d\n", i+1, len(rows))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		fmt.Fprintf(w, "Index:          %d\n", row.Index)
		fmt.Fprintf(w, "Image:          %s\n", row.ImageLink)
		fmt.Fprintf(w, "Entity:         %s\n", row.EntityName)
		if allowed, err := catalog.UnitsFor(row.EntityName); err != nil {
			fmt.Fprintln(w, "Units:          (unknown entity)")
		} else {
			fmt.Fprintf(w, "Units:          %s\n", strings.Join(allowed, ", "))
		}
		if row.GroupID != "" {
			fmt.Fprintf(w, "Group:          %s\n", row.GroupID)
		}
		if row.EntityValue != "" {
			fmt.Fprintf(w, "Expected:       %s\n", row.EntityValue)
		}

		if p.ShowOCR && components != nil {
			inspectOCR(ctx, w, components, row)
		}
		fmt.Fprintln(w)

		if p.Interactive && i < len(rows)-1 {
			fmt.Fprint(w, "Press Enter to continue (or q to quit)... ")
			line, err := reader.ReadString('\n')
			if err != nil || strings.TrimSpace(strings.ToLower(line)) == "q" {
				return nil
			}
		}
	}
	return nil
}

func inspectOCR(ctx context.Context, w io.Writer, components *Components, row dataset.Row) {
	path, err := components.Fetcher.Fetch(ctx, row.ImageLink, strconv.FormatInt(row.Index, 10))
	if err != nil {
		fmt.Fprintf(w, "Download failed: %v\n", err)
		return
	}

	text, err := components.OCR.Extract(ctx, path)
	if err != nil {
		fmt.Fprintf(w, "OCR failed:     %v\n", err)
		return
	}

	fmt.Fprintf(w, "OCR Engine:      %s\n", components.OCR.Engine().Name())
	fmt.Fprintf(w, "OCR Text Length: %d characters\n", len(text))
	fmt.Fprintln(w, truncate(strings.TrimSpace(text), 500))
	fmt.Fprintln(w)
	if err := executeExtract(w, components.Extractor, row.EntityName, text, true); err != nil {
		fmt.Fprintf(w, "Extraction failed: %v\n", err)
	}
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
