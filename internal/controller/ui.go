// Package controller provides output adapters for reporting auxmark runs.
package controller

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	verbose bool
	dryRun  bool
}

// WithVerbose enables per-decision tracing.
func WithVerbose(verbose bool) StartOption {
	return func(c *StartConfig) {
		c.verbose = verbose
	}
}

// WithDryRun marks the run as a preview.
func WithDryRun(dryRun bool) StartOption {
	return func(c *StartConfig) {
		c.dryRun = dryRun
	}
}

func newStartConfig(options ...StartOption) StartConfig {
	var cfg StartConfig
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// RunInfo describes the run about to start.
type RunInfo struct {
	Root       m.Path
	Files      int
	Detectors  []string
	MaxWorkers int
	Delay      time.Duration
	DryRun     bool
}

// UI reports pipeline progress. Job callbacks arrive from worker goroutines,
// so implementations must be safe for concurrent use.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayRunInfo(ctx context.Context, info RunInfo)
	DisplayDecision(ctx context.Context, decision m.Decision)
	DisplayJobsQueued(ctx context.Context, count int)
	DisplayJobStarted(ctx context.Context, job *m.Job)
	DisplayJobSettled(ctx context.Context, outcome m.JobOutcome)
	DisplayFileResult(ctx context.Context, result m.FileResult)
	DisplaySummary(ctx context.Context, summary m.Summary)
}

// NewUI picks the interactive TUI for terminals and SimpleUI otherwise.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
