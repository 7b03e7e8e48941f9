package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/ui/styles"
	"github.com/fenilsonani/fileflow/pkg/utils"
)

// eventMsg carries one progress event into the model
type eventMsg struct {
	event *progress.Event
}

// doneMsg is sent when the tracked operation returns
type doneMsg struct {
	err error
}

// ProgressModel shows a spinner, the current phase and a progress bar for
// the events of one operation
type ProgressModel struct {
	title       string
	events      <-chan *progress.Event
	spinner     spinner.Model
	bar         bar.Model
	event       *progress.Event
	width       int
	startTime   time.Time
	done        bool
	err         error
	interrupted bool
}

// NewProgressModel creates a model reading from events
func NewProgressModel(title string, events <-chan *progress.Event, width int) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	if width <= 0 {
		width = DefaultWidth
	}
	b := bar.New(bar.WithDefaultGradient(), bar.WithWidth(barWidth(width)))

	return ProgressModel{
		title:     title,
		events:    events,
		spinner:   s,
		bar:       b,
		width:     width,
		startTime: time.Now(),
	}
}

func barWidth(termWidth int) int {
	w := termWidth - 10
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	return w
}

// waitForEvent blocks on the subscription until the next event
func waitForEvent(events <-chan *progress.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{event: e}
	}
}

// Init starts the spinner and the event listener
func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update handles messages
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.event = msg.event
		return m, waitForEvent(m.events)

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the progress display. It is empty once the operation is
// done so the final report starts on a clean line.
func (m ProgressModel) View() string {
	if m.done || m.interrupted {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.TitleStyle.Render(m.title))

	elapsed := progress.FormatDuration(time.Since(m.startTime))
	e := m.event
	if e == nil {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  starting... (%s)", elapsed)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("  ")
	b.WriteString(styles.PhaseStyle.Render(string(e.Phase)))
	counts := fmt.Sprintf("  %d", e.Done)
	if e.Total > 0 {
		counts += fmt.Sprintf("/%d", e.Total)
	}
	if e.Bytes > 0 {
		counts += "  " + utils.FormatBytes(e.Bytes)
	}
	if e.Failed > 0 {
		counts += "  " + styles.ErrorStyle.Render(fmt.Sprintf("%d failed", e.Failed))
	}
	b.WriteString(counts)
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  (%s)", elapsed)))
	b.WriteString("\n")

	if e.Total > 0 {
		b.WriteString(m.bar.ViewAs(e.Percent()))
		b.WriteString("\n")
	}
	if e.Current != "" {
		b.WriteString(styles.FilePathStyle.Render(TruncatePath(e.Current, m.width-2)))
		b.WriteString("\n")
	}
	b.WriteString(styles.HelpStyle.Render("ctrl+c to stop"))
	b.WriteString("\n")
	return b.String()
}

// Run executes fn while rendering live progress from reporter on out.
// When out is not a terminal fn simply runs. Quitting the display cancels
// the context passed to fn; Run still waits for fn to return.
func Run(ctx context.Context, reporter *progress.Reporter, out *os.File, title string, fn func(ctx context.Context) error) error {
	if reporter == nil || !IsTerminal(out) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := reporter.Subscribe()
	defer reporter.Unsubscribe(events)

	p := tea.NewProgram(NewProgressModel(title, events, TerminalWidth(out)), tea.WithOutput(out))

	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx)
		errCh <- err
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if m, ok := final.(ProgressModel); ok && m.interrupted {
		cancel()
	}
	if err != nil {
		// the display failed; let the operation finish without it
		fmt.Fprintf(os.Stderr, "progress display unavailable: %v\n", err)
	}
	return <-errCh
}
