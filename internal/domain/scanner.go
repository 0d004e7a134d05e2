package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"auxmark.dev/pkg/auxmark/internal/adapter"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// DefaultExtension is the file extension the scanner targets.
const DefaultExtension = ".md"

const scanStatLimit = 8

// Scanner enumerates tracked text files.
type Scanner interface {
	// Root resolves the repository root for dir.
	Root(ctx context.Context, dir m.Path) (m.Path, error)
	// Scan returns the tracked files under root in lexicographic order.
	Scan(ctx context.Context, root m.Path) ([]m.Path, error)
}

type scanner struct {
	adapter.GitAdapter
	adapter.SourceFSAdapter
	ext string
}

// NewScanner creates a Scanner for files ending in ext.
func NewScanner(git adapter.GitAdapter, fs adapter.SourceFSAdapter, ext string) Scanner {
	if ext == "" {
		ext = DefaultExtension
	}

	return &scanner{GitAdapter: git, SourceFSAdapter: fs, ext: ext}
}

func (s *scanner) Root(ctx context.Context, dir m.Path) (m.Path, error) {
	root, err := s.GitAdapter.Root(ctx, dir)
	if err != nil {
		if errors.Is(err, adapter.ErrNotARepository) {
			return "", &FatalScanError{Root: dir, Err: fmt.Errorf("%w: %w", ErrNotAVersionControlRepository, err)}
		}

		return "", &FatalScanError{Root: dir, Err: err}
	}

	return root, nil
}

func (s *scanner) Scan(ctx context.Context, root m.Path) ([]m.Path, error) {
	tracked, err := s.ListTracked(ctx, root, s.ext)
	if err != nil {
		return nil, &FatalScanError{Root: root, Err: err}
	}

	// The index may list files deleted from the work tree; keep only the
	// ones that are still present.
	present := make([]bool, len(tracked))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(scanStatLimit)

	for i, path := range tracked {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			ok, err := s.Exists(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			present[i] = ok

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, &FatalScanError{Root: root, Err: err}
	}

	files := make([]m.Path, 0, len(tracked))

	for i, path := range tracked {
		if present[i] {
			files = append(files, path)
		} else {
			slog.Debug("Skipping tracked file missing from work tree", "path", path)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	slog.Debug("Scanned tracked files", "root", root, "count", len(files))

	return files, nil
}
