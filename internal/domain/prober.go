package domain

import (
	"log/slog"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

// ProbePlan is the outcome of probing one file.
type ProbePlan struct {
	File m.TrackedFile
	// Decisions holds every non-ignore decision in line order, and within a
	// line in registration order.
	Decisions []m.Decision
	// Jobs holds one job per preprocess decision.
	Jobs []*m.Job
	// Expand is set when a detector asked for a bundle rename. Probing stops
	// at that line.
	Expand *m.Decision
}

// PostprocessDecisions groups the rewrite decisions by line.
func (p ProbePlan) PostprocessDecisions() map[int][]m.Decision {
	byLine := make(map[int][]m.Decision)

	for _, d := range p.Decisions {
		if d.Action.NeedsPostprocess() {
			byLine[d.LineNo] = append(byLine[d.LineNo], d)
		}
	}

	return byLine
}

// NeedsRewrite reports whether any line was tagged for postprocessing.
func (p ProbePlan) NeedsRewrite() bool {
	for _, d := range p.Decisions {
		if d.Action.NeedsPostprocess() {
			return true
		}
	}

	return false
}

// Prober asks every registered detector about every line of a file.
type Prober interface {
	Probe(file m.TrackedFile, dryRun bool) ProbePlan
}

type prober struct {
	registry *Registry
}

// NewProber creates a Prober over the registry.
func NewProber(registry *Registry) Prober {
	return &prober{registry: registry}
}

func (p *prober) Probe(file m.TrackedFile, dryRun bool) ProbePlan {
	plan := ProbePlan{File: file}
	detectors := p.registry.Detectors()

	for lineNo, line := range file.Lines {
		for _, detector := range detectors {
			if filter, ok := detector.(LineFilter); ok {
				if re := filter.Pattern(); re != nil && !re.MatchString(line.Text) {
					continue
				}
			}

			action, metadata := detector.Probe(file.Path, lineNo, line.Text)
			if action == m.ActionIgnore {
				continue
			}

			decision := m.Decision{
				Path:     file.Path,
				LineNo:   lineNo,
				Detector: detector.Name(),
				Action:   action,
				Metadata: metadata,
			}

			slog.Debug("Line tagged", "path", file.Path, "line", lineNo+1, "detector", decision.Detector, "action", action)

			if action == m.ActionExpand {
				plan.Expand = &decision
				plan.Decisions = append(plan.Decisions, decision)

				return plan
			}

			plan.Decisions = append(plan.Decisions, decision)

			if action.NeedsPreprocess() {
				plan.Jobs = append(plan.Jobs, &m.Job{
					Path:     file.Path,
					LineNo:   lineNo,
					Line:     line.Text,
					Detector: decision.Detector,
					Metadata: metadata,
					DryRun:   dryRun,
				})
			}
		}
	}

	return plan
}
