package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"auxmark.dev/pkg/auxmark/internal/adapter"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// ErrAlreadyBundle is reported when an EXPAND targets a bundle index file.
var ErrAlreadyBundle = errors.New("file is already a bundle index")

// ErrDestinationExists is reported when the bundle path is taken.
var ErrDestinationExists = errors.New("destination already exists")

const bundleIndexName = "index"

// Transformer moves flat files into bundle form (name.md -> name/index.md)
// with a history-preserving rename.
type Transformer interface {
	// BundlePath returns the canonical bundle location for path.
	BundlePath(path m.Path) (m.Path, error)
	// Expand renames path to its bundle location and returns the new path.
	// In dry-run mode nothing is moved.
	Expand(ctx context.Context, root, path m.Path, dryRun bool) (m.Path, error)
}

type transformer struct {
	adapter.GitAdapter
	adapter.SourceFSAdapter
}

// NewTransformer creates a Transformer.
func NewTransformer(git adapter.GitAdapter, fs adapter.SourceFSAdapter) Transformer {
	return &transformer{GitAdapter: git, SourceFSAdapter: fs}
}

func (t *transformer) BundlePath(path m.Path) (m.Path, error) {
	name := filepath.Base(string(path))
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if stem == bundleIndexName {
		return "", ErrAlreadyBundle
	}

	if stem == "" {
		return "", fmt.Errorf("cannot derive bundle name from %q", name)
	}

	return t.JoinPath(filepath.Dir(string(path)), stem, bundleIndexName+ext), nil
}

func (t *transformer) Expand(ctx context.Context, root, path m.Path, dryRun bool) (m.Path, error) {
	target, err := t.BundlePath(path)
	if err != nil {
		return "", &RenameError{From: path, Err: err}
	}

	exists, err := t.Exists(target)
	if err != nil {
		return "", &RenameError{From: path, To: target, Err: err}
	}

	if exists {
		return "", &RenameError{From: path, To: target, Err: ErrDestinationExists}
	}

	if dryRun {
		slog.Info("Dry-run: would expand file", "from", path, "to", target)
		return target, nil
	}

	bundleDir := m.Path(filepath.Dir(string(target)))

	dirExisted, err := t.Exists(bundleDir)
	if err != nil {
		return "", &RenameError{From: path, To: target, Err: err}
	}

	if err := t.MkdirAll(bundleDir); err != nil {
		return "", &RenameError{From: path, To: target, Err: err}
	}

	if err := t.Move(ctx, root, path, target); err != nil {
		if !dirExisted {
			if rmErr := t.Remove(bundleDir); rmErr != nil {
				slog.Warn("Failed to remove bundle directory after failed move", "dir", bundleDir, "error", rmErr)
			}
		}

		return "", &RenameError{From: path, To: target, Err: err}
	}

	slog.Info("Expanded file", "from", path, "to", target)

	return target, nil
}
