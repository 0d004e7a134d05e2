package domain_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auxmark.dev/pkg/auxmark/internal/domain"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

func newUpperRegistry(t *testing.T) *domain.Registry {
	t.Helper()

	upper := &fakeDetector{
		name:        "upper",
		probe:       tagWhen("tag", m.ActionTagPreprocessAndPostprocess),
		postprocess: func(line string, _ m.Metadata) string { return strings.ToUpper(line) },
	}
	suffix := &fakeDetector{
		name:        "suffix",
		probe:       tagWhen("tag", m.ActionTag),
		postprocess: func(line string, _ m.Metadata) string { return line + "!" },
	}

	registry, err := domain.NewRegistry(upper, suffix)
	require.NoError(t, err)

	return registry
}

func rewrite(t *testing.T, fs *countingFS, registry *domain.Registry, path, content string, failLines []int, dryRun bool) m.FileResult {
	t.Helper()

	writeFile(t, path, content)
	plan := domain.NewProber(registry).Probe(trackedFile(t, path, content), dryRun)

	failed := make(map[int]bool)
	for _, lineNo := range failLines {
		failed[lineNo] = true
	}

	var outcomes []m.JobOutcome

	for _, job := range plan.Jobs {
		outcome := m.JobOutcome{Job: job, Status: m.JobSucceeded}
		if failed[job.LineNo] {
			outcome = m.JobOutcome{Job: job, Status: m.JobFailed, Err: errors.New("failed")}
		}

		outcomes = append(outcomes, outcome)
	}

	return domain.NewRewriter(registry, fs).Rewrite(plan, outcomes, dryRun)
}

func TestRewriter_AppliesPostprocessInRegistrationOrder(t *testing.T) {
	fs := newCountingFS()
	path := filepath.Join(t.TempDir(), "index.md")

	result := rewrite(t, fs, newUpperRegistry(t), path, "keep\r\ntag me\nkeep too", nil, false)

	assert.Equal(t, m.FileWritten, result.State)
	assert.Equal(t, 1, result.JobsRun)
	// Untouched lines keep their exact bytes, including CRLF and the missing final newline.
	assert.Equal(t, "keep\r\nTAG ME!\nkeep too", readFile(t, path))
	assert.Equal(t, 1, fs.writeCount())
	assert.Contains(t, result.Diff, "-tag me")
	assert.Contains(t, result.Diff, "+TAG ME!")
}

func TestRewriter_FailedJobLeavesLineUntouched(t *testing.T) {
	fs := newCountingFS()
	path := filepath.Join(t.TempDir(), "index.md")

	result := rewrite(t, fs, newUpperRegistry(t), path, "tag one\ntag two\n", []int{0}, false)

	assert.Equal(t, m.FileWritten, result.State)
	assert.Equal(t, 2, result.JobsRun)
	assert.Equal(t, 1, result.JobsFailed)
	assert.Equal(t, "tag one\nTAG TWO!\n", readFile(t, path))
}

func TestRewriter_SuppressesNoOpWrites(t *testing.T) {
	fs := newCountingFS()
	path := filepath.Join(t.TempDir(), "index.md")

	t.Run("nothing tagged", func(t *testing.T) {
		result := rewrite(t, fs, newUpperRegistry(t), path, "plain\n", nil, false)
		assert.Equal(t, m.FileUnchanged, result.State)
	})

	t.Run("postprocess is identity", func(t *testing.T) {
		identity := &fakeDetector{name: "identity", probe: tagWhen("tag", m.ActionTag)}
		registry, err := domain.NewRegistry(identity)
		require.NoError(t, err)

		result := rewrite(t, fs, registry, path, "tag\n", nil, false)
		assert.Equal(t, m.FileUnchanged, result.State)
		assert.Empty(t, result.Diff)
	})

	t.Run("every tagged line failed", func(t *testing.T) {
		result := rewrite(t, fs, newUpperRegistry(t), path, "tag\n", []int{0}, false)
		assert.Equal(t, m.FileUnchanged, result.State)
		assert.Equal(t, 1, result.JobsFailed)
	})

	assert.Zero(t, fs.writeCount())
}

func TestRewriter_DryRunDoesNotWrite(t *testing.T) {
	fs := newCountingFS()
	path := filepath.Join(t.TempDir(), "index.md")

	result := rewrite(t, fs, newUpperRegistry(t), path, "tag\n", nil, true)

	assert.Equal(t, m.FileWritten, result.State)
	assert.NotEmpty(t, result.Diff)
	assert.Zero(t, fs.writeCount())
	assert.Equal(t, "tag\n", readFile(t, path))
}

func TestRewriter_WriteFailure(t *testing.T) {
	fs := newCountingFS()
	fs.fail = errors.New("disk full")
	path := filepath.Join(t.TempDir(), "index.md")

	result := rewrite(t, fs, newUpperRegistry(t), path, "tag\n", nil, false)

	assert.Equal(t, m.FileFailed, result.State)

	var writeErr *domain.WriteError
	require.ErrorAs(t, result.Err, &writeErr)
	assert.Equal(t, "tag\n", readFile(t, path))
}

func TestRewriter_PostprocessPanicLeavesLine(t *testing.T) {
	panicky := &fakeDetector{
		name:        "panicky",
		probe:       tagWhen("tag", m.ActionTag),
		postprocess: func(string, m.Metadata) string { panic("bad") },
	}

	registry, err := domain.NewRegistry(panicky)
	require.NoError(t, err)

	fs := newCountingFS()
	path := filepath.Join(t.TempDir(), "index.md")

	result := rewrite(t, fs, registry, path, "tag\n", nil, false)
	assert.Equal(t, m.FileUnchanged, result.State)
}

func TestRewriter_FileChangedDuringRun(t *testing.T) {
	registry := newUpperRegistry(t)
	fs := newCountingFS()
	path := filepath.Join(t.TempDir(), "index.md")

	writeFile(t, path, "tag\n")
	plan := domain.NewProber(registry).Probe(trackedFile(t, path, "tag\n"), false)

	writeFile(t, path, "tag\nedited meanwhile\n")

	result := domain.NewRewriter(registry, fs).Rewrite(plan, nil, false)

	assert.Equal(t, m.FileFailed, result.State)
	assert.ErrorIs(t, result.Err, domain.ErrModifiedSinceRead)
	assert.Zero(t, fs.writeCount())
	assert.Equal(t, "tag\nedited meanwhile\n", readFile(t, path))
}
