package model

// Action is the decision a detector takes for a single line.
type Action int

const (
	// ActionIgnore means the detector is not interested in the line.
	ActionIgnore Action = iota
	// ActionTag marks the line for rewriting without asynchronous work.
	ActionTag
	// ActionTagPreprocessOnly schedules asynchronous work and never rewrites.
	ActionTagPreprocessOnly
	// ActionTagPreprocessAndPostprocess schedules asynchronous work and then
	// rewrites the line.
	ActionTagPreprocessAndPostprocess
	// ActionExpand converts a flat file into a bundle (name.md -> name/index.md).
	ActionExpand
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionTag:
		return "tag"
	case ActionTagPreprocessOnly:
		return "tag-preprocess-only"
	case ActionTagPreprocessAndPostprocess:
		return "tag-preprocess-and-postprocess"
	case ActionExpand:
		return "expand"
	}

	return "unknown"
}

// NeedsPreprocess reports whether the action creates a job.
func (a Action) NeedsPreprocess() bool {
	return a == ActionTagPreprocessOnly || a == ActionTagPreprocessAndPostprocess
}

// NeedsPostprocess reports whether the action feeds the rewriter.
func (a Action) NeedsPostprocess() bool {
	return a == ActionTag || a == ActionTagPreprocessAndPostprocess
}

// Metadata is a detector-scoped opaque payload carried unchanged from probe
// through preprocess and postprocess. Detectors that fill in data during
// preprocess should use a pointer type.
type Metadata any

// Decision is one detector's verdict for one line.
type Decision struct {
	Path     Path
	LineNo   int
	Detector string
	Action   Action
	Metadata Metadata
}
