package domain_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"auxmark.dev/pkg/auxmark/internal/adapter"
	"auxmark.dev/pkg/auxmark/internal/controller"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// fakeDetector is a configurable domain.Detector.
type fakeDetector struct {
	name        string
	aliases     []string
	pattern     *regexp.Regexp
	probe       func(path m.Path, lineNo int, line string) (m.Action, m.Metadata)
	preprocess  func(ctx context.Context, job *m.Job) (bool, error)
	postprocess func(line string, metadata m.Metadata) string

	mu     sync.Mutex
	probed []string
}

func (f *fakeDetector) Name() string { return f.name }

func (f *fakeDetector) Probe(path m.Path, lineNo int, line string) (m.Action, m.Metadata) {
	f.mu.Lock()
	f.probed = append(f.probed, line)
	f.mu.Unlock()

	if f.probe == nil {
		return m.ActionIgnore, nil
	}

	return f.probe(path, lineNo, line)
}

func (f *fakeDetector) Preprocess(ctx context.Context, job *m.Job) (bool, error) {
	if f.preprocess == nil {
		return true, nil
	}

	return f.preprocess(ctx, job)
}

func (f *fakeDetector) Postprocess(line string, metadata m.Metadata) string {
	if f.postprocess == nil {
		return line
	}

	return f.postprocess(line, metadata)
}

func (f *fakeDetector) probedLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.probed...)
}

// filteredDetector adds a line prefilter to fakeDetector.
type filteredDetector struct {
	*fakeDetector
}

func (f filteredDetector) Pattern() *regexp.Regexp { return f.pattern }

// aliasedDetector adds short names to fakeDetector.
type aliasedDetector struct {
	*fakeDetector
}

func (a aliasedDetector) Aliases() []string { return a.aliases }

// countingFS records atomic writes on top of the local filesystem.
type countingFS struct {
	*adapter.LocalSourceFSAdapter

	mu     sync.Mutex
	writes []m.Path
	fail   error
}

func newCountingFS() *countingFS {
	return &countingFS{LocalSourceFSAdapter: adapter.NewLocalSourceFSAdapter()}
}

func (c *countingFS) WriteFileAtomic(path m.Path, content []byte) error {
	c.mu.Lock()
	c.writes = append(c.writes, path)
	fail := c.fail
	c.mu.Unlock()

	if fail != nil {
		return fail
	}

	return c.LocalSourceFSAdapter.WriteFileAtomic(path, content)
}

func (c *countingFS) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.writes)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func newTestUI() (controller.UI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return controller.NewSimpleUI(cmd), &buf
}

func trackedFile(t *testing.T, path, content string) m.TrackedFile {
	t.Helper()

	return m.TrackedFile{Path: m.Path(path), Lines: m.SplitLines(content)}
}
