// Package domain contains the auxmark content-maintenance pipeline.
package domain

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

// Detector is a pluggable unit that inspects lines, optionally performs
// asynchronous work for them, and optionally rewrites them.
type Detector interface {
	// Name is the unique registry key (e.g. "image_localizer").
	Name() string
	// Probe decides what to do with a line. It must not block.
	Probe(path m.Path, lineNo int, line string) (m.Action, m.Metadata)
	// Preprocess performs the side-effecting work for a job. A false return,
	// a returned error or a panic are all treated as failure.
	Preprocess(ctx context.Context, job *m.Job) (bool, error)
	// Postprocess rewrites a line. It must be pure.
	Postprocess(line string, metadata m.Metadata) string
}

// LineFilter is implemented by detectors that only care about lines matching
// a pattern. Lines that do not match are never probed by that detector.
type LineFilter interface {
	Pattern() *regexp.Regexp
}

// Aliased is implemented by detectors that accept short names on the command line.
type Aliased interface {
	Aliases() []string
}

// Registry is the ordered set of detectors active for a run. The
// registration order is the tie-break for all per-line iteration.
type Registry struct {
	detectors []Detector
	byName    map[string]Detector
}

// NewRegistry builds a registry from detectors in the given order.
func NewRegistry(detectors ...Detector) (*Registry, error) {
	r := &Registry{byName: make(map[string]Detector, len(detectors))}

	for _, d := range detectors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register appends a detector. Names must be unique.
func (r *Registry) Register(d Detector) error {
	if d == nil {
		return fmt.Errorf("register: nil detector")
	}

	name := d.Name()
	if name == "" {
		return fmt.Errorf("register: detector has empty name")
	}

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("detector %q is already registered", name)
	}

	r.detectors = append(r.detectors, d)
	r.byName[name] = d

	return nil
}

// Get returns the detector registered under name.
func (r *Registry) Get(name string) (Detector, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Detectors returns the detectors in registration order.
func (r *Registry) Detectors() []Detector {
	out := make([]Detector, len(r.detectors))
	copy(out, r.detectors)

	return out
}

// Names returns detector names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.detectors))
	for _, d := range r.detectors {
		names = append(names, d.Name())
	}

	return names
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	return len(r.detectors)
}

// Select returns a new registry restricted to the requested names or
// aliases, preserving registration order. Unknown names are returned so the
// caller can warn about them. An empty request selects everything.
func (r *Registry) Select(requested []string) (*Registry, []string, error) {
	if len(requested) == 0 {
		selected, err := NewRegistry(r.detectors...)
		return selected, nil, err
	}

	aliases := r.aliasIndex()
	wanted := make(map[string]bool)

	var unknown []string

	for _, raw := range requested {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			resolved, ok := aliases[name]
			if !ok {
				unknown = append(unknown, name)
				continue
			}

			wanted[resolved] = true
		}
	}

	if len(wanted) == 0 {
		return nil, unknown, fmt.Errorf("no valid modules selected (available: %s)", strings.Join(r.Names(), ", "))
	}

	var picked []Detector

	for _, d := range r.detectors {
		if wanted[d.Name()] {
			picked = append(picked, d)
		}
	}

	selected, err := NewRegistry(picked...)

	return selected, unknown, err
}

// AliasesOf returns the sorted short names of a detector.
func AliasesOf(d Detector) []string {
	a, ok := d.(Aliased)
	if !ok {
		return nil
	}

	aliases := append([]string(nil), a.Aliases()...)
	sort.Strings(aliases)

	return aliases
}

func (r *Registry) aliasIndex() map[string]string {
	index := make(map[string]string, len(r.detectors))

	for _, d := range r.detectors {
		index[d.Name()] = d.Name()
		for _, alias := range AliasesOf(d) {
			index[alias] = d.Name()
		}
	}

	return index
}
