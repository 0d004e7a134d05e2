package model

import "fmt"

// Job is the unit of asynchronous preprocessing work.
type Job struct {
	Path     Path
	LineNo   int
	Line     string
	Detector string
	Metadata Metadata
	// DryRun tells the detector not to perform writes of its own.
	DryRun bool
}

// Key identifies a job within a file independently of the file's path.
func (j *Job) Key() JobKey {
	return JobKey{Detector: j.Detector, LineNo: j.LineNo}
}

func (j *Job) String() string {
	return fmt.Sprintf("%s:%d [%s]", j.Path, j.LineNo+1, j.Detector)
}

// JobKey identifies a job by owning detector and line.
type JobKey struct {
	Detector string
	LineNo   int
}

// JobStatus is the settled state of a job.
type JobStatus int

const (
	// JobSucceeded means preprocess returned true.
	JobSucceeded JobStatus = iota
	// JobFailed means preprocess returned false, panicked, or never started.
	JobFailed
)

func (s JobStatus) String() string {
	if s == JobSucceeded {
		return "succeeded"
	}

	return "failed"
}

// JobOutcome is the settled result of a job.
type JobOutcome struct {
	Job    *Job
	Status JobStatus
	Err    error
}

// Failed reports whether the job failed.
func (o JobOutcome) Failed() bool {
	return o.Status == JobFailed
}
