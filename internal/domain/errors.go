package domain

import (
	"errors"
	"fmt"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

// ErrNotAVersionControlRepository is wrapped by FatalScanError when the root
// has no discoverable git metadata.
var ErrNotAVersionControlRepository = errors.New("not a version control repository")

// FatalScanError aborts the run before any file is modified.
type FatalScanError struct {
	Root m.Path
	Err  error
}

func (e *FatalScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *FatalScanError) Unwrap() error { return e.Err }

// ReadError isolates a file that could not be read.
type ReadError struct {
	Path m.Path
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// RenameError isolates a file whose bundle rename failed.
type RenameError struct {
	From m.Path
	To   m.Path
	Err  error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("rename %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *RenameError) Unwrap() error { return e.Err }

// WriteError isolates a file whose rewrite could not be written.
type WriteError struct {
	Path m.Path
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// JobFailure describes a preprocessing job that did not succeed.
type JobFailure struct {
	Job *m.Job
	Err error
}

func (e *JobFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("job %s failed", e.Job)
	}

	return fmt.Sprintf("job %s failed: %v", e.Job, e.Err)
}

func (e *JobFailure) Unwrap() error { return e.Err }

// CountWriteFailures returns how many files of the summary could not be
// written or renamed. Job failures and unreadable files are not counted.
func CountWriteFailures(summary m.Summary) int {
	count := 0

	for _, err := range summary.Failures {
		var writeErr *WriteError

		var renameErr *RenameError

		if errors.As(err, &writeErr) || errors.As(err, &renameErr) {
			count++
		}
	}

	return count
}
