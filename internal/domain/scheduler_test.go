package domain_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"auxmark.dev/pkg/auxmark/internal/domain"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

func newJobs(path m.Path, detector string, n int) []*m.Job {
	jobs := make([]*m.Job, n)
	for i := range jobs {
		jobs[i] = &m.Job{Path: path, LineNo: i, Detector: detector}
	}

	return jobs
}

func TestScheduler_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	var running, peak atomic.Int32

	worker := &fakeDetector{name: "worker", preprocess: func(context.Context, *m.Job) (bool, error) {
		current := running.Add(1)
		for {
			p := peak.Load()
			if current <= p || peak.CompareAndSwap(p, current) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		running.Add(-1)

		return true, nil
	}}

	registry, err := domain.NewRegistry(worker)
	require.NoError(t, err)

	scheduler := domain.NewScheduler(registry, domain.SchedulerOptions{MaxWorkers: 2})
	scheduler.Start(context.Background())
	scheduler.Submit(newJobs("/repo/a.md", "worker", 10)...)

	outcomes, err := scheduler.Wait(context.Background(), "/repo/a.md")
	require.NoError(t, err)
	assert.Len(t, outcomes, 10)

	all := scheduler.Close()
	assert.Len(t, all, 10)

	for _, outcome := range all {
		assert.False(t, outcome.Failed())
	}

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.LessOrEqual(t, scheduler.PeakConcurrency(), 2)
	assert.Equal(t, 2, scheduler.PeakConcurrency())
}

func TestScheduler_PacesJobStarts(t *testing.T) {
	defer goleak.VerifyNone(t)

	const delay = 40 * time.Millisecond

	var (
		mu     sync.Mutex
		starts []time.Time
	)

	worker := &fakeDetector{name: "worker", preprocess: func(context.Context, *m.Job) (bool, error) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()

		return true, nil
	}}

	registry, err := domain.NewRegistry(worker)
	require.NoError(t, err)

	scheduler := domain.NewScheduler(registry, domain.SchedulerOptions{MaxWorkers: 4, MinStartDelay: delay})
	scheduler.Start(context.Background())
	scheduler.Submit(newJobs("/repo/a.md", "worker", 4)...)
	scheduler.Close()

	require.Len(t, starts, 4)

	for i := 1; i < len(starts); i++ {
		// Allow a little timer slack.
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), delay-10*time.Millisecond, "start %d", i)
	}
}

func TestScheduler_FailuresAreContained(t *testing.T) {
	defer goleak.VerifyNone(t)

	worker := &fakeDetector{name: "worker", preprocess: func(_ context.Context, job *m.Job) (bool, error) {
		switch job.LineNo {
		case 0:
			panic("boom")
		case 1:
			return false, nil
		case 2:
			return false, errors.New("network down")
		default:
			return true, nil
		}
	}}

	registry, err := domain.NewRegistry(worker)
	require.NoError(t, err)

	scheduler := domain.NewScheduler(registry, domain.SchedulerOptions{MaxWorkers: 2})
	scheduler.Start(context.Background())

	jobs := newJobs("/repo/a.md", "worker", 4)
	jobs = append(jobs, &m.Job{Path: "/repo/a.md", LineNo: 9, Detector: "missing"})
	scheduler.Submit(jobs...)

	outcomes, err := scheduler.Wait(context.Background(), "/repo/a.md")
	require.NoError(t, err)
	require.Len(t, outcomes, 5)

	byLine := make(map[int]m.JobOutcome)
	for _, outcome := range outcomes {
		byLine[outcome.Job.LineNo] = outcome
	}

	assert.True(t, byLine[0].Failed())
	assert.Contains(t, byLine[0].Err.Error(), "panic")
	assert.True(t, byLine[1].Failed())
	assert.True(t, byLine[2].Failed())
	assert.Contains(t, byLine[2].Err.Error(), "network down")
	assert.False(t, byLine[3].Failed())
	assert.True(t, byLine[9].Failed())

	var failure *domain.JobFailure
	require.ErrorAs(t, byLine[2].Err, &failure)
	assert.Equal(t, 2, failure.Job.LineNo)

	scheduler.Close()
}

func TestScheduler_WaitIsPerFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})

	worker := &fakeDetector{name: "worker", preprocess: func(_ context.Context, job *m.Job) (bool, error) {
		if job.Path == "/repo/slow.md" {
			<-release
		}

		return true, nil
	}}

	registry, err := domain.NewRegistry(worker)
	require.NoError(t, err)

	scheduler := domain.NewScheduler(registry, domain.SchedulerOptions{MaxWorkers: 4})
	scheduler.Start(context.Background())
	scheduler.Submit(newJobs("/repo/slow.md", "worker", 1)...)
	scheduler.Submit(newJobs("/repo/fast.md", "worker", 3)...)

	outcomes, err := scheduler.Wait(context.Background(), "/repo/fast.md")
	require.NoError(t, err)
	assert.Len(t, outcomes, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = scheduler.Wait(ctx, "/repo/slow.md")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)

	outcomes, err = scheduler.Wait(context.Background(), "/repo/slow.md")
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)

	// A path with no jobs never blocks.
	outcomes, err = scheduler.Wait(context.Background(), "/repo/none.md")
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	scheduler.Close()
}

func TestScheduler_SubmitAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	registry, err := domain.NewRegistry(&fakeDetector{name: "worker"})
	require.NoError(t, err)

	scheduler := domain.NewScheduler(registry, domain.SchedulerOptions{})
	scheduler.Close()

	scheduler.Submit(newJobs("/repo/a.md", "worker", 1)...)
	settled := scheduler.Close()

	require.Len(t, settled, 1)
	assert.ErrorIs(t, settled[0].Err, domain.ErrSchedulerClosed)
}

type recordingObserver struct {
	mu      sync.Mutex
	started int
	settled int
}

func (o *recordingObserver) JobStarted(*m.Job) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *recordingObserver) JobSettled(m.JobOutcome) {
	o.mu.Lock()
	o.settled++
	o.mu.Unlock()
}

func TestScheduler_NotifiesObserver(t *testing.T) {
	defer goleak.VerifyNone(t)

	registry, err := domain.NewRegistry(&fakeDetector{name: "worker"})
	require.NoError(t, err)

	observer := &recordingObserver{}
	scheduler := domain.NewScheduler(registry, domain.SchedulerOptions{Observer: observer})
	scheduler.Start(context.Background())

	for i := 0; i < 3; i++ {
		scheduler.Submit(newJobs(m.Path(fmt.Sprintf("/repo/%d.md", i)), "worker", 2)...)
	}

	scheduler.Close()

	observer.mu.Lock()
	defer observer.mu.Unlock()

	assert.Equal(t, 6, observer.started)
	assert.Equal(t, 6, observer.settled)
}
