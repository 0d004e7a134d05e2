package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

const logPrefix = "[auxmark]"

var (
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dryRunStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// SimpleUI implements UI using cobra Command's output stream. Verbose mode
// reports every decision and job; otherwise only failures, dry-run previews
// and the final summary are printed.
type SimpleUI struct {
	cmd *cobra.Command

	mu  sync.Mutex
	cfg StartConfig
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = newStartConfig(options...)
	s.mu.Unlock()

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// DisplayRunInfo prints the run parameters in verbose mode.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	if ctx.Err() != nil || !s.verbose() {
		return
	}

	s.printf("%s Git root: %s\n", logPrefix, info.Root)
	s.printf("%s Active modules: %s\n", logPrefix, strings.Join(info.Detectors, ", "))
	s.printf("%s Found %d tracked files\n", logPrefix, info.Files)
	s.printf("%s Workers: %d, minimum delay between jobs: %s\n", logPrefix, info.MaxWorkers, info.Delay)

	if info.DryRun {
		s.printf("%s %s\n", logPrefix, dryRunStyle.Render("DRY-RUN: no files will be modified"))
	}
}

// DisplayDecision traces a non-ignore decision in verbose mode.
func (s *SimpleUI) DisplayDecision(ctx context.Context, decision m.Decision) {
	if ctx.Err() != nil || !s.verbose() {
		return
	}

	s.printf("%s   %s:%d [%s] %s\n", logPrefix, decision.Path, decision.LineNo+1, decision.Detector, decision.Action)
}

// DisplayJobsQueued reports newly queued jobs in verbose mode.
func (s *SimpleUI) DisplayJobsQueued(ctx context.Context, count int) {
	if ctx.Err() != nil || !s.verbose() {
		return
	}

	s.printf("%s Queued %d preprocessing job(s)\n", logPrefix, count)
}

// DisplayJobStarted reports a job start in verbose mode.
func (s *SimpleUI) DisplayJobStarted(ctx context.Context, job *m.Job) {
	if ctx.Err() != nil || !s.verbose() {
		return
	}

	s.printf("%s   started %s\n", logPrefix, job)
}

// DisplayJobSettled prints failures always and successes in verbose mode.
func (s *SimpleUI) DisplayJobSettled(ctx context.Context, outcome m.JobOutcome) {
	if ctx.Err() != nil {
		return
	}

	if outcome.Failed() {
		s.printf("%s   %s %v\n", logPrefix, failureStyle.Render("FAILED"), outcome.Err)
		return
	}

	if s.verbose() {
		s.printf("%s   %s %s\n", logPrefix, successStyle.Render("ok"), outcome.Job)
	}
}

// DisplayFileResult prints failures, dry-run previews, and (verbose) writes.
func (s *SimpleUI) DisplayFileResult(ctx context.Context, result m.FileResult) {
	if ctx.Err() != nil {
		return
	}

	cfg := s.config()

	switch result.State {
	case m.FileFailed:
		s.printf("%s %s %v\n", logPrefix, failureStyle.Render("ERROR"), result.Err)
	case m.FileRequeued, m.FileRenamed:
		switch {
		case cfg.dryRun:
			s.printf("%s %s %s -> %s\n", logPrefix, dryRunStyle.Render("[DRY-RUN] Would expand:"), result.Path, result.RenamedTo)
		case cfg.verbose:
			s.printf("%s Expanded %s -> %s\n", logPrefix, result.Path, result.RenamedTo)
		}
	case m.FileWritten:
		switch {
		case cfg.dryRun:
			s.printf("%s %s %s\n", logPrefix, dryRunStyle.Render("[DRY-RUN] Would rewrite:"), result.Path)

			if result.Diff != "" {
				s.printf("%s", result.Diff)
			}
		case cfg.verbose:
			s.printf("%s Rewrote %s\n", logPrefix, result.Path)
		}
	case m.FileScanned, m.FileProbed, m.FilePreprocessing, m.FilePostprocessing, m.FileUnchanged:
		if cfg.verbose && result.State == m.FileUnchanged && result.JobsRun > 0 {
			s.printf("%s Unchanged %s (%d job(s), %d failed)\n", logPrefix, result.Path, result.JobsRun, result.JobsFailed)
		}
	}
}

// DisplaySummary prints the final counts table.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summary m.Summary) {
	if ctx.Err() != nil {
		return
	}

	s.printf("\n%s", RenderSummaryTable(summary))
}

// RenderSummaryTable renders the run counts as a table.
func RenderSummaryTable(summary m.Summary) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Files scanned", "Files changed", "Files renamed", "Files failed", "Jobs run", "Jobs failed"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.Append([]string{
		fmt.Sprintf("%d", summary.FilesScanned),
		fmt.Sprintf("%d", summary.FilesChanged),
		fmt.Sprintf("%d", summary.FilesRenamed),
		fmt.Sprintf("%d", summary.FilesFailed),
		fmt.Sprintf("%d", summary.JobsRun),
		fmt.Sprintf("%d", summary.JobsFailed),
	})

	if summary.DryRun {
		table.SetCaption(true, "dry-run: no files were modified")
	}

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) verbose() bool {
	return s.config().verbose
}

func (s *SimpleUI) config() StartConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cfg
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
