package evaluation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ReportConfig records how a run was produced.
type ReportConfig struct {
	Engine      string `yaml:"engine"`
	Model       string `yaml:"model,omitempty"`
	Mode        string `yaml:"mode"`
	DatasetPath string `yaml:"datasetpath"`
	SampleSize  int    `yaml:"samplesize"`
	Workers     int    `yaml:"workers"`
	Timestamp   string `yaml:"timestamp"`
}

// ReportResult is one scored row.
type ReportResult struct {
	Index      int64  `yaml:"index"`
	GroupID    string `yaml:"groupid,omitempty"`
	EntityName string `yaml:"entityname"`
	Expected   string `yaml:"expected"`
	Prediction string `yaml:"prediction"`
	Match      bool   `yaml:"match"`
}

// Report is the YAML document written after an evaluation run.
type Report struct {
	Config  ReportConfig   `yaml:"config"`
	Summary Summary        `yaml:"summary"`
	Results []ReportResult `yaml:"results"`
}

// NewReport builds a report from a summary and its aligned pairs.
func NewReport(config ReportConfig, summary Summary, pairs []Pair) *Report {
	if config.Timestamp == "" {
		config.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}
	report := &Report{
		Config:  config,
		Summary: summary,
		Results: make([]ReportResult, 0, len(pairs)),
	}
	for _, p := range pairs {
		report.Results = append(report.Results, ReportResult{
			Index:      p.Index,
			GroupID:    p.GroupID,
			EntityName: p.EntityName,
			Expected:   p.Expected,
			Prediction: p.Predicted,
			Match:      p.Match(),
		})
	}
	return report
}

// Save writes the report to dir as <engine>-<timestamp>.yaml and returns
// the file path.
func (r *Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", r.Config.Engine, r.Config.Timestamp))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return filename, nil
}

// LoadReport reads a report written by Save.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &report, nil
}
