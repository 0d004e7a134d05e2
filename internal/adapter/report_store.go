package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

// ReportStore persists run summaries.
type ReportStore interface {
	SaveReport(path m.Path, summary m.Summary) error
	LoadReport(path m.Path) (RunReport, error)
}

// RunReport is the on-disk shape of a run summary.
type RunReport struct {
	RunID        string       `yaml:"run_id"`
	DryRun       bool         `yaml:"dry_run"`
	FilesScanned int          `yaml:"files_scanned"`
	FilesChanged int          `yaml:"files_changed"`
	FilesRenamed int          `yaml:"files_renamed"`
	FilesFailed  int          `yaml:"files_failed"`
	JobsRun      int          `yaml:"jobs_run"`
	JobsFailed   int          `yaml:"jobs_failed"`
	Files        []FileReport `yaml:"files,omitempty"`
	Failures     []string     `yaml:"failures,omitempty"`
}

// FileReport is the on-disk shape of a single file result.
type FileReport struct {
	Path       string `yaml:"path"`
	State      string `yaml:"state"`
	RenamedTo  string `yaml:"renamed_to,omitempty"`
	JobsRun    int    `yaml:"jobs_run,omitempty"`
	JobsFailed int    `yaml:"jobs_failed,omitempty"`
	Error      string `yaml:"error,omitempty"`
}

type reportStore struct{}

// NewReportStore creates a YAML-backed ReportStore.
func NewReportStore() ReportStore {
	return &reportStore{}
}

// NewRunReport converts a summary into its serializable form.
func NewRunReport(summary m.Summary) RunReport {
	report := RunReport{
		RunID:        summary.RunID,
		DryRun:       summary.DryRun,
		FilesScanned: summary.FilesScanned,
		FilesChanged: summary.FilesChanged,
		FilesRenamed: summary.FilesRenamed,
		FilesFailed:  summary.FilesFailed,
		JobsRun:      summary.JobsRun,
		JobsFailed:   summary.JobsFailed,
	}

	for _, file := range summary.Files {
		entry := FileReport{
			Path:       string(file.Path),
			State:      file.State.String(),
			RenamedTo:  string(file.RenamedTo),
			JobsRun:    file.JobsRun,
			JobsFailed: file.JobsFailed,
		}
		if file.Err != nil {
			entry.Error = file.Err.Error()
		}

		report.Files = append(report.Files, entry)
	}

	for _, failure := range summary.Failures {
		report.Failures = append(report.Failures, failure.Error())
	}

	return report
}

func (rs *reportStore) SaveReport(path m.Path, summary m.Summary) error {
	data, err := yaml.Marshal(NewRunReport(summary))
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if dir := filepath.Dir(string(path)); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func (rs *reportStore) LoadReport(path m.Path) (RunReport, error) {
	var report RunReport

	data, err := os.ReadFile(string(path))
	if err != nil {
		return report, fmt.Errorf("read report: %w", err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("unmarshal report: %w", err)
	}

	return report, nil
}
