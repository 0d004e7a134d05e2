package model

// FileState is the processing state of a tracked file.
type FileState int

const (
	// FileScanned means the file was enumerated but not yet probed.
	FileScanned FileState = iota
	// FileProbed means every line was probed.
	FileProbed
	// FilePreprocessing means the file has outstanding jobs.
	FilePreprocessing
	// FilePostprocessing means all jobs settled and the rewrite is running.
	FilePostprocessing
	// FileWritten means new content was written (or would be, in dry-run).
	FileWritten
	// FileUnchanged means no write was needed.
	FileUnchanged
	// FileRenamed means the file was moved to its bundle path.
	FileRenamed
	// FileRequeued means the bundle path was queued for a fresh scan.
	FileRequeued
	// FileFailed means a read, rename or write error isolated this file.
	FileFailed
)

func (s FileState) String() string {
	switch s {
	case FileScanned:
		return "scanned"
	case FileProbed:
		return "probed"
	case FilePreprocessing:
		return "preprocessing"
	case FilePostprocessing:
		return "postprocessing"
	case FileWritten:
		return "written"
	case FileUnchanged:
		return "unchanged"
	case FileRenamed:
		return "renamed"
	case FileRequeued:
		return "requeued"
	case FileFailed:
		return "failed"
	}

	return "unknown"
}

// FileResult is the terminal outcome for one file identity.
type FileResult struct {
	Path       Path
	State      FileState
	RenamedTo  Path
	JobsRun    int
	JobsFailed int
	// Diff is a unified diff of the rewrite, filled in dry-run mode.
	Diff string
	Err  error
}

// Summary aggregates the outcome of a run.
type Summary struct {
	RunID        string
	DryRun       bool
	FilesScanned int
	FilesChanged int
	FilesRenamed int
	FilesFailed  int
	JobsRun      int
	JobsFailed   int
	Files        []FileResult
	Failures     []error
}

// Add folds a file result into the summary.
func (s *Summary) Add(result FileResult) {
	s.Files = append(s.Files, result)
	s.JobsRun += result.JobsRun
	s.JobsFailed += result.JobsFailed

	switch result.State {
	case FileWritten:
		s.FilesChanged++
	case FileRenamed, FileRequeued:
		s.FilesRenamed++
	case FileFailed:
		s.FilesFailed++
	case FileScanned, FileProbed, FilePreprocessing, FilePostprocessing, FileUnchanged:
	}

	if result.Err != nil {
		s.Failures = append(s.Failures, result.Err)
	}
}
