package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/agentlab/internal/experiment"
)

type progressMsg experiment.Progress

type progressDoneMsg struct{ err error }

type progressTickMsg time.Time

type progressModel struct {
	name    string
	current experiment.Progress
	frame   int
	done    bool
	err     error
}

func progressTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

func (m progressModel) Init() tea.Cmd { return progressTick() }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.current = experiment.Progress(msg)
		return m, nil
	case progressDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case progressTickMsg:
		m.frame++
		return m, progressTick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	b.WriteString("\n  " + Title.Render(m.name) + Subtle.Render("  experiment") + "\n\n")

	pct := 0.0
	if m.current.Total > 0 {
		pct = float64(m.current.Completed) / float64(m.current.Total)
	}
	status := StatusRunning.Render(AnimatedSpinner(m.frame))
	if m.done {
		status = StatusRunning.Render("done")
		if m.err != nil {
			status = StatusFailed.Render("failed")
		}
	}

	b.WriteString("  " + ProgressBar(pct, 40))
	b.WriteString(fmt.Sprintf("  %s %d/%d  %s\n",
		MetricLabel.Render("runs"), m.current.Completed, m.current.Total, status))
	b.WriteString(fmt.Sprintf("  %s %s  %s %s\n",
		MetricLabel.Render("elapsed"), MetricValue.Render(m.current.Elapsed.Round(time.Millisecond).String()),
		MetricLabel.Render("remaining"), MetricValue.Render(m.current.Remaining.Round(time.Millisecond).String())))
	b.WriteString("\n  " + KeyHint.Render("ctrl+c to detach") + "\n")
	return b.String()
}

// RunWithProgress executes the experiment sequentially behind a live
// progress display and returns its combined output.
func RunWithProgress(e *experiment.Experiment) (*experiment.Output, error) {
	m := progressModel{
		name:    e.Name(),
		current: experiment.Progress{Total: e.Runs()},
	}
	p := tea.NewProgram(m)

	var out *experiment.Output
	var runErr error
	go func() {
		e.OnProgress = func(pr experiment.Progress) { p.Send(progressMsg(pr)) }
		out, runErr = e.Run(nil, false)
		p.Send(progressDoneMsg{err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		return nil, err
	}
	return out, runErr
}
