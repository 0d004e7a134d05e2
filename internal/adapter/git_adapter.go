package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

// ErrNotARepository is returned when no git metadata is discoverable.
var ErrNotARepository = errors.New("not a git repository")

// GitAdapter abstracts the version-control primitives the pipeline needs.
type GitAdapter interface {
	// Root returns the top-level directory of the repository containing dir.
	Root(ctx context.Context, dir m.Path) (m.Path, error)

	// ListTracked returns the tracked files under root whose name ends in ext,
	// as absolute paths.
	ListTracked(ctx context.Context, root m.Path, ext string) ([]m.Path, error)

	// Move renames a tracked file so history follows it (git mv).
	Move(ctx context.Context, root, from, to m.Path) error
}

// LocalGitAdapter runs the git CLI.
type LocalGitAdapter struct {
	gitPath string
}

// NewLocalGitAdapter constructs a LocalGitAdapter using git from PATH.
func NewLocalGitAdapter() *LocalGitAdapter {
	return &LocalGitAdapter{gitPath: "git"}
}

// Root runs `git rev-parse --show-toplevel` in dir.
func (a *LocalGitAdapter) Root(ctx context.Context, dir m.Path) (m.Path, error) {
	out, err := a.run(ctx, string(dir), "rev-parse", "--show-toplevel")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("git not available: %w", err)
		}

		return "", fmt.Errorf("%w: %s: %w", ErrNotARepository, dir, err)
	}

	root := strings.TrimSpace(out)
	if root == "" {
		return "", fmt.Errorf("%w: %s", ErrNotARepository, dir)
	}

	return m.Path(filepath.Clean(root)), nil
}

// ListTracked runs `git ls-files -z` and filters by extension.
func (a *LocalGitAdapter) ListTracked(ctx context.Context, root m.Path, ext string) ([]m.Path, error) {
	out, err := a.run(ctx, string(root), "ls-files", "-z", "--cached", "--", "*"+ext)
	if err != nil {
		return nil, fmt.Errorf("git ls-files in %s: %w", root, err)
	}

	var paths []m.Path

	for _, entry := range strings.Split(out, "\x00") {
		if entry == "" || filepath.Ext(entry) != ext {
			continue
		}

		paths = append(paths, m.Path(filepath.Join(string(root), filepath.FromSlash(entry))))
	}

	return paths, nil
}

// Move runs `git mv` so the rename is recorded as a move.
func (a *LocalGitAdapter) Move(ctx context.Context, root, from, to m.Path) error {
	if _, err := a.run(ctx, string(root), "mv", "--", string(from), string(to)); err != nil {
		return fmt.Errorf("git mv %s %s: %w", from, to, err)
	}

	return nil
}

func (a *LocalGitAdapter) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, a.gitPath, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}

		return "", err
	}

	return stdout.String(), nil
}
