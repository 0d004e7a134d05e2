package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auxmark.dev/pkg/auxmark/internal/domain"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

func initGitRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
		{"add", "."},
		{"commit", "-q", "-m", "initial"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	return dir
}

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--rate-limit-delay", "0"}, args...))

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "auxmark", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)

	for _, name := range []string{dryRunFlagName, moduleFlagName, parallelFlagName, rateLimitFlagName, reportFlagName} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup(verboseFlagName))
	assert.Equal(t, "n", cmd.Flags().Lookup(dryRunFlagName).Shorthand)
	assert.Equal(t, "m", cmd.Flags().Lookup(moduleFlagName).Shorthand)
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd := newRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, output.String(), "--dry-run")
	assert.Contains(t, output.String(), "--module")
}

func TestRootCmd_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	chdir(t, t.TempDir())

	_, _, err := executeRoot(t)
	require.Error(t, err)

	var fatal *domain.FatalScanError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorIs(t, err, domain.ErrNotAVersionControlRepository)
}

func TestRootCmd_UsesFreshTweetCache(t *testing.T) {
	const post = "# Post\n{{< x user=\"jane\" id=\"42\" >}}\n"

	dir := initGitRepo(t, map[string]string{
		"content/post.md":       post,
		"data/x_embeds/42.json": "{}",
	})
	chdir(t, dir)

	stdout, _, err := executeRoot(t, "-m", "tweet")
	require.NoError(t, err)
	assert.Contains(t, stdout, "JOBS RUN")

	data, err := os.ReadFile(filepath.Join(dir, "content", "post.md"))
	require.NoError(t, err)
	assert.Equal(t, post, string(data))
}

func TestRootCmd_DryRunLeavesTreeUntouched(t *testing.T) {
	const post = "![cat](https://img.invalid/cat.png)\n"

	dir := initGitRepo(t, map[string]string{"content/post.md": post})
	chdir(t, dir)

	reportPath := filepath.Join(t.TempDir(), "report.yaml")

	stdout, _, err := executeRoot(t, "-n", "-m", "image", "--report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Would expand")

	data, err := os.ReadFile(filepath.Join(dir, "content", "post.md"))
	require.NoError(t, err)
	assert.Equal(t, post, string(data))
	assert.NoDirExists(t, filepath.Join(dir, "content", "post"))

	report, err := reportStore.LoadReport(m.Path(reportPath))
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.FilesRenamed)
}

func TestRootCmd_UnknownModules(t *testing.T) {
	dir := initGitRepo(t, map[string]string{"a.md": "hello\n"})
	chdir(t, dir)

	_, stderr, err := executeRoot(t, "-m", "bogus")
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown module(s) bogus")
	assert.Contains(t, err.Error(), "no valid modules selected")

	_, stderr, err = executeRoot(t, "-m", "bogus,image")
	require.NoError(t, err)
	assert.Contains(t, stderr, "unknown module(s) bogus")
}
