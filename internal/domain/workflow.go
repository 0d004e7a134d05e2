package domain

import (
	"context"
	"log/slog"
	"time"

	"auxmark.dev/pkg/auxmark/internal/adapter"
	"auxmark.dev/pkg/auxmark/internal/controller"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// RunArgs contains the arguments for one pipeline run.
type RunArgs struct {
	Root           m.Path
	RunID          string
	DryRun         bool
	Verbose        bool
	MaxWorkers     int
	RateLimitDelay time.Duration
}

// Workflow drives Scanner -> Prober -> Scheduler -> Rewriter/Transformer.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) (m.Summary, error)
}

type workflow struct {
	Scanner
	Transformer
	adapter.SourceFSAdapter
	controller.UI

	registry *Registry
	prober   Prober
	rewriter Rewriter
}

// NewWorkflow creates a Workflow over the provided dependencies.
func NewWorkflow(
	scanner Scanner,
	transformer Transformer,
	fsAdapter adapter.SourceFSAdapter,
	ui controller.UI,
	registry *Registry,
) Workflow {
	return &workflow{
		Scanner:         scanner,
		Transformer:     transformer,
		SourceFSAdapter: fsAdapter,
		UI:              ui,
		registry:        registry,
		prober:          NewProber(registry),
		rewriter:        NewRewriter(registry, fsAdapter),
	}
}

// Run executes one pass. Only scan failures are returned as errors; per-file
// and per-job problems are reported in the summary.
func (w *workflow) Run(ctx context.Context, args RunArgs) (m.Summary, error) {
	summary := m.Summary{RunID: args.RunID, DryRun: args.DryRun}

	root, err := w.Root(ctx, args.Root)
	if err != nil {
		slog.Error("Failed to resolve repository root", "root", args.Root, "error", err)
		return summary, err
	}

	files, err := w.Scan(ctx, root)
	if err != nil {
		slog.Error("Failed to scan tracked files", "root", root, "error", err)
		return summary, err
	}

	if err := w.Start(ctx, controller.WithVerbose(args.Verbose), controller.WithDryRun(args.DryRun)); err != nil {
		return summary, err
	}

	defer w.Close(ctx)

	w.DisplayRunInfo(ctx, controller.RunInfo{
		Root:       root,
		Files:      len(files),
		Detectors:  w.registry.Names(),
		MaxWorkers: args.MaxWorkers,
		Delay:      args.RateLimitDelay,
		DryRun:     args.DryRun,
	})

	scheduler := NewScheduler(w.registry, SchedulerOptions{
		MaxWorkers:    args.MaxWorkers,
		MinStartDelay: args.RateLimitDelay,
		Observer:      &uiObserver{ctx: ctx, ui: w.UI},
	})
	scheduler.Start(ctx)

	plans := w.probeAll(ctx, root, files, scheduler, args.DryRun, &summary)

	for _, plan := range plans {
		outcomes, err := scheduler.Wait(ctx, plan.File.Path)
		if err != nil {
			w.record(ctx, &summary, m.FileResult{Path: plan.File.Path, State: m.FileFailed, Err: err})
			continue
		}

		w.record(ctx, &summary, w.rewriter.Rewrite(plan, outcomes, args.DryRun))
	}

	scheduler.Close()

	slog.Info("Run complete",
		"filesScanned", summary.FilesScanned,
		"filesChanged", summary.FilesChanged,
		"jobsRun", summary.JobsRun,
		"jobsFailed", summary.JobsFailed,
		"peakConcurrency", scheduler.PeakConcurrency(),
	)

	w.DisplaySummary(ctx, summary)

	return summary, nil
}

// probeAll drains the scan queue. Expanded files are retired and their bundle
// path is appended to the queue; jobs probed before the EXPAND line are
// carried over to the new path.
func (w *workflow) probeAll(
	ctx context.Context,
	root m.Path,
	files []m.Path,
	scheduler Scheduler,
	dryRun bool,
	summary *m.Summary,
) []ProbePlan {
	queue := make([]m.TrackedFile, 0, len(files))
	for _, path := range files {
		queue = append(queue, m.TrackedFile{Path: path})
	}

	retired := make(map[m.Path]bool)
	probed := make(map[m.Path]bool)
	carried := make(map[m.Path][]*m.Job)

	var plans []ProbePlan

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]

		if retired[file.Path] || probed[file.Path] {
			slog.Debug("Skipping already processed path", "path", file.Path)
			continue
		}

		probed[file.Path] = true

		lines, err := w.ReadLines(file.ContentSource())
		if err != nil {
			w.record(ctx, summary, m.FileResult{Path: file.Path, State: m.FileFailed, Err: &ReadError{Path: file.Path, Err: err}})
			continue
		}

		file.Lines = lines
		summary.FilesScanned++

		plan := w.prober.Probe(file, dryRun)
		for _, decision := range plan.Decisions {
			w.DisplayDecision(ctx, decision)
		}

		if plan.Expand != nil {
			target, err := w.Expand(ctx, root, file.Path, dryRun)
			if err != nil {
				w.record(ctx, summary, m.FileResult{Path: file.Path, State: m.FileFailed, Err: err})
				continue
			}

			retired[file.Path] = true
			carried[target] = append(carried[target], rekeyJobs(append(carried[file.Path], plan.Jobs...), target)...)
			delete(carried, file.Path)

			next := m.TrackedFile{Path: target}
			if dryRun {
				next.Source = file.ContentSource()
			}

			queue = append(queue, next)

			w.record(ctx, summary, m.FileResult{Path: file.Path, State: m.FileRequeued, RenamedTo: target})

			continue
		}

		plan.Jobs = mergeCarriedJobs(plan.Jobs, carried[file.Path])
		delete(carried, file.Path)

		if len(plan.Jobs) > 0 {
			scheduler.Submit(plan.Jobs...)
			w.DisplayJobsQueued(ctx, len(plan.Jobs))
		}

		plans = append(plans, plan)
	}

	return plans
}

func (w *workflow) record(ctx context.Context, summary *m.Summary, result m.FileResult) {
	summary.Add(result)
	w.DisplayFileResult(ctx, result)
}

func rekeyJobs(jobs []*m.Job, path m.Path) []*m.Job {
	for _, job := range jobs {
		job.Path = path
	}

	return jobs
}

// mergeCarriedJobs keeps fresh jobs and adds carried ones the fresh probe
// did not reproduce.
func mergeCarriedJobs(fresh, carried []*m.Job) []*m.Job {
	if len(carried) == 0 {
		return fresh
	}

	seen := make(map[m.JobKey]bool, len(fresh))
	for _, job := range fresh {
		seen[job.Key()] = true
	}

	for _, job := range carried {
		if !seen[job.Key()] {
			fresh = append(fresh, job)
		}
	}

	return fresh
}

type uiObserver struct {
	ctx context.Context
	ui  controller.UI
}

func (o *uiObserver) JobStarted(job *m.Job) {
	o.ui.DisplayJobStarted(o.ctx, job)
}

func (o *uiObserver) JobSettled(outcome m.JobOutcome) {
	o.ui.DisplayJobSettled(o.ctx, outcome)
}
