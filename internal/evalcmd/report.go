package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/lehigh-university-libraries/measurer/internal/evaluation"
)

func executeReport(w io.Writer, reportPath, format string) error {
	report, err := evaluation.LoadReport(reportPath)
	if err != nil {
		return err
	}

	switch format {
	case "text":
		return printTextReport(w, report)
	case "json":
		return printJSONReport(w, report)
	case "csv":
		return printCSVReport(w, report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, report *evaluation.Report) error {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Measurement Extraction Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Engine:    %s\n", report.Config.Engine)
	if report.Config.Model != "" {
		fmt.Fprintf(w, "Model:     %s\n", report.Config.Model)
	}
	fmt.Fprintf(w, "Mode:      %s\n", report.Config.Mode)
	fmt.Fprintf(w, "Dataset:   %s\n", report.Config.DatasetPath)
	fmt.Fprintf(w, "Timestamp: %s\n", report.Config.Timestamp)
	fmt.Fprintln(w)

	printSummary(w, report.Summary)

	mismatches := 0
	for _, r := range report.Results {
		if r.Match {
			continue
		}
		if mismatches == 0 {
			fmt.Fprintln(w, "\nMismatches:")
			fmt.Fprintln(w, "========================================")
		}
		mismatches++
		fmt.Fprintf(w, "[%d] %s\n", r.Index, r.EntityName)
		fmt.Fprintf(w, "  Expected:   %s\n", truncate(r.Expected, 80))
		fmt.Fprintf(w, "  Predicted:  %s\n", truncate(r.Prediction, 80))
	}
	return nil
}

func printJSONReport(w io.Writer, report *evaluation.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func printCSVReport(w io.Writer, report *evaluation.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"index", "group_id", "entity_name", "expected", "prediction", "match"}); err != nil {
		return err
	}
	for _, r := range report.Results {
		row := []string{
			strconv.FormatInt(r.Index, 10),
			r.GroupID,
			r.EntityName,
			r.Expected,
			r.Prediction,
			strconv.FormatBool(r.Match),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
