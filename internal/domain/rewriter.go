package domain

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"

	"auxmark.dev/pkg/auxmark/internal/adapter"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// ErrModifiedSinceRead is returned when a file changed on disk between the
// scan and its rewrite.
var ErrModifiedSinceRead = errors.New("file modified since it was read")

// Rewriter regenerates tagged files once their jobs have settled.
type Rewriter interface {
	Rewrite(plan ProbePlan, outcomes []m.JobOutcome, dryRun bool) m.FileResult
}

type rewriter struct {
	registry *Registry
	adapter.SourceFSAdapter
}

// NewRewriter creates a Rewriter writing through fs.
func NewRewriter(registry *Registry, fs adapter.SourceFSAdapter) Rewriter {
	return &rewriter{registry: registry, SourceFSAdapter: fs}
}

func (r *rewriter) Rewrite(plan ProbePlan, outcomes []m.JobOutcome, dryRun bool) m.FileResult {
	result := m.FileResult{Path: plan.File.Path, JobsRun: len(outcomes), State: m.FileUnchanged}

	failedLines := make(map[int]bool)

	for _, outcome := range outcomes {
		if outcome.Failed() {
			result.JobsFailed++
			failedLines[outcome.Job.LineNo] = true
		}
	}

	if !plan.NeedsRewrite() {
		return result
	}

	original := m.JoinLines(plan.File.Lines)
	rewritten := r.render(plan, failedLines)

	if rewritten == original {
		slog.Debug("Rewrite produced identical content", "path", plan.File.Path)
		return result
	}

	result.Diff = unifiedDiff(string(plan.File.Path), original, rewritten)
	result.State = m.FileWritten

	if dryRun {
		slog.Info("Dry-run: would rewrite file", "path", plan.File.Path)
		return result
	}

	if err := r.verifyUnchanged(plan.File.Path, original); err != nil {
		slog.Warn("Skipping rewrite of file changed during the run", "path", plan.File.Path, "error", err)

		result.State = m.FileFailed
		result.Err = &WriteError{Path: plan.File.Path, Err: err}

		return result
	}

	if err := r.WriteFileAtomic(plan.File.Path, []byte(rewritten)); err != nil {
		slog.Error("Failed to write file", "path", plan.File.Path, "error", err)

		result.State = m.FileFailed
		result.Err = &WriteError{Path: plan.File.Path, Err: err}

		return result
	}

	slog.Info("Rewrote file", "path", plan.File.Path)

	return result
}

// render applies each line's postprocess decisions in registration order.
// Lines with a failed job and untagged lines are copied verbatim.
func (r *rewriter) render(plan ProbePlan, failedLines map[int]bool) string {
	byLine := plan.PostprocessDecisions()
	lines := make([]m.Line, len(plan.File.Lines))

	for lineNo, line := range plan.File.Lines {
		lines[lineNo] = line

		decisions, tagged := byLine[lineNo]
		if !tagged {
			continue
		}

		if failedLines[lineNo] {
			slog.Debug("Leaving line unmodified after failed job", "path", plan.File.Path, "line", lineNo+1)
			continue
		}

		text, ok := r.postprocessLine(line.Text, decisions)
		if ok {
			lines[lineNo].Text = text
		}
	}

	return m.JoinLines(lines)
}

func (r *rewriter) postprocessLine(text string, decisions []m.Decision) (out string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Postprocess panicked, leaving line unmodified", "error", fmt.Sprint(rec))

			ok = false
		}
	}()

	for _, decision := range decisions {
		detector, found := r.registry.Get(decision.Detector)
		if !found {
			continue
		}

		text = detector.Postprocess(text, decision.Metadata)
	}

	return text, true
}

// verifyUnchanged compares the on-disk fingerprint with the content the plan
// was probed from.
func (r *rewriter) verifyUnchanged(path m.Path, original string) error {
	current, err := r.HashFile(path)
	if err != nil {
		return err
	}

	if current != fmt.Sprintf("%x", sha256.Sum256([]byte(original))) {
		return ErrModifiedSinceRead
	}

	return nil
}

func unifiedDiff(path, before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  1,
	})
	if err != nil {
		return ""
	}

	return diff
}
