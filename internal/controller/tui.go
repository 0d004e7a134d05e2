package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "auxmark.dev/pkg/auxmark/internal/model"
)

const maxRecentFailures = 5

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

type (
	runInfoMsg    RunInfo
	jobsQueuedMsg int
	jobStartedMsg struct{}
	jobSettledMsg m.JobOutcome
	fileResultMsg m.FileResult
	summaryMsg    m.Summary
)

// TUI implements UI using Bubble Tea: a spinner, a progress bar over
// settled jobs and the most recent failures. The summary table is printed
// after the program exits.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	summary *m.Summary
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options...)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program != nil {
		return nil
	}

	model := newProgressModel(cfg)

	// Initial terminal width; later resizes arrive as WindowSizeMsg.
	if f, ok := p.output.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			model.resize(width)
		}
	}

	program := tea.NewProgram(model,
		tea.WithOutput(p.output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	p.program, p.done = program, done

	go func() {
		defer close(done)

		_, _ = program.Run()
	}()

	return nil
}

// Close stops the program and prints the summary.
func (p *TUI) Close(_ context.Context) {
	p.mu.Lock()
	program, done := p.program, p.done
	p.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	<-done

	p.mu.Lock()
	summary := p.summary
	p.program = nil
	p.mu.Unlock()

	if summary != nil {
		_, _ = fmt.Fprintf(p.output, "\n%s", RenderSummaryTable(*summary))
	}
}

// DisplayRunInfo forwards the run parameters to the model.
func (p *TUI) DisplayRunInfo(_ context.Context, info RunInfo) {
	p.send(runInfoMsg(info))
}

// DisplayDecision is a no-op; the TUI only tracks aggregate progress.
func (p *TUI) DisplayDecision(_ context.Context, _ m.Decision) {}

// DisplayJobsQueued grows the progress total.
func (p *TUI) DisplayJobsQueued(_ context.Context, count int) {
	p.send(jobsQueuedMsg(count))
}

// DisplayJobStarted counts running jobs.
func (p *TUI) DisplayJobStarted(_ context.Context, _ *m.Job) {
	p.send(jobStartedMsg{})
}

// DisplayJobSettled advances the progress bar.
func (p *TUI) DisplayJobSettled(_ context.Context, outcome m.JobOutcome) {
	p.send(jobSettledMsg(outcome))
}

// DisplayFileResult counts finished files.
func (p *TUI) DisplayFileResult(_ context.Context, result m.FileResult) {
	p.send(fileResultMsg(result))
}

// DisplaySummary stores the summary for printing on Close.
func (p *TUI) DisplaySummary(_ context.Context, summary m.Summary) {
	p.mu.Lock()
	p.summary = &summary
	p.mu.Unlock()

	p.send(summaryMsg(summary))
}

func (p *TUI) send(msg tea.Msg) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// progressModel is the Bubble Tea model rendering run progress.
type progressModel struct {
	cfg      StartConfig
	info     RunInfo
	spinner  spinner.Model
	bar      progress.Model
	queued   int
	running  int
	settled  int
	failed   int
	files    int
	failures []string
	finished bool
}

func newProgressModel(cfg StartConfig) progressModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return progressModel{
		cfg:     cfg,
		spinner: spin,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (pm *progressModel) resize(width int) {
	pm.bar.Width = max(min(width-20, 60), 10)
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

//nolint:cyclop // one case per message type
func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runInfoMsg:
		pm.info = RunInfo(msg)
	case jobsQueuedMsg:
		pm.queued += int(msg)
	case jobStartedMsg:
		pm.running++
	case jobSettledMsg:
		pm.settled++
		if pm.running > 0 {
			pm.running--
		}

		if outcome := m.JobOutcome(msg); outcome.Failed() {
			pm.failed++
			pm.pushFailure(fmt.Sprintf("%v", outcome.Err))
		}
	case fileResultMsg:
		pm.files++
		if result := m.FileResult(msg); result.State == m.FileFailed {
			pm.pushFailure(fmt.Sprintf("%v", result.Err))
		}
	case summaryMsg:
		pm.finished = true
		return pm, tea.Quit
	case tea.WindowSizeMsg:
		pm.resize(msg.Width)
	case spinner.TickMsg:
		var cmd tea.Cmd
		pm.spinner, cmd = pm.spinner.Update(msg)

		return pm, cmd
	}

	return pm, nil
}

func (pm *progressModel) pushFailure(line string) {
	pm.failures = append(pm.failures, line)
	if len(pm.failures) > maxRecentFailures {
		pm.failures = pm.failures[len(pm.failures)-maxRecentFailures:]
	}
}

func (pm progressModel) percent() float64 {
	if pm.queued == 0 {
		return 0
	}

	return float64(pm.settled) / float64(pm.queued)
}

func (pm progressModel) View() string {
	var b strings.Builder

	title := "auxmark"
	if pm.cfg.dryRun {
		title += " (dry-run)"
	}

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if !pm.finished {
		b.WriteString(pm.spinner.View())
		b.WriteString(" ")
	}

	fmt.Fprintf(&b, "%s %d/%d jobs", pm.bar.ViewAs(pm.percent()), pm.settled, pm.queued)

	if pm.running > 0 {
		fmt.Fprintf(&b, " (%d running)", pm.running)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", faintStyle.Render(fmt.Sprintf("files done: %d/%d  failed jobs: %d", pm.files, pm.info.Files, pm.failed)))

	for _, failure := range pm.failures {
		fmt.Fprintf(&b, "%s %s\n", failureStyle.Render("✗"), failure)
	}

	return b.String()
}
