package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
)

const refreshInterval = 500 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg refreshes the elapsed time.
type tickMsg time.Time

// treeProgressMsg reports candidates processed in one tree.
type treeProgressMsg struct {
	tree  int
	done  int64
	total int64
}

// runDoneMsg ends the display.
type runDoneMsg struct {
	err error
}

type treeBar struct {
	name  string
	done  int64
	total int64
}

// progressModel is the bubbletea model for a reweighting run.
type progressModel struct {
	trees    []treeBar
	progress progress.Model
	theme    Theme
	cancel   context.CancelFunc
	started  time.Time
	now      time.Time
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a model with one bar per tree. cancel is called
// when the user interrupts the run.
func newProgressModel(names []string, cancel context.CancelFunc) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	trees := make([]treeBar, len(names))
	for i, name := range names {
		trees[i].name = name
	}

	now := time.Now()
	return progressModel{
		trees:    trees,
		progress: prog,
		theme:    defaultTheme,
		cancel:   cancel,
		started:  now,
		now:      now,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Wait for the workers to stop so the output file is closed cleanly.
			if !m.quitting && m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, nil
		}

	case tickMsg:
		m.now = time.Time(msg)
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case treeProgressMsg:
		if msg.tree >= 0 && msg.tree < len(m.trees) {
			m.trees[msg.tree].done = msg.done
			m.trees[msg.tree].total = msg.total
		}
		return m, nil

	case runDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	width := 0
	for _, t := range m.trees {
		width = max(width, len(t.name))
	}

	var b strings.Builder
	for _, t := range m.trees {
		var pct float64
		if t.total > 0 {
			pct = float64(t.done) / float64(t.total)
		}
		name := m.theme.statusStyle().Render(fmt.Sprintf("%-*s", width, t.name))
		fmt.Fprintf(&b, "%s %s %d/%d candidates\n", name, m.progress.ViewAs(pct), t.done, t.total)
	}

	elapsed := m.now.Sub(m.started).Round(time.Second)
	if m.quitting {
		b.WriteString(m.theme.hintStyle().Render(fmt.Sprintf("Stopping after %s...", elapsed)))
	} else {
		b.WriteString(m.theme.hintStyle().Render(fmt.Sprintf("Elapsed %s. Press Ctrl+C to stop", elapsed)))
	}
	b.WriteString("\n")
	return b.String()
}

func (m progressModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render("Run interrupted.\n")
	}
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("✗ Run failed: %s\n", m.err))
	}
	return m.theme.completedStyle().Render("✓ Completed\n")
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// progressFunc reports the progress of tree i.
type progressFunc func(tree int, done, total int64)

// runWithProgress runs work while rendering one progress bar per tree.
// Console logging is muted while the display is up. Interrupting the
// display cancels the run through cancel.
func runWithProgress(names []string, cancel context.CancelFunc, work func(report progressFunc) error) error {
	if logging != nil {
		restore := logging.MuteConsole()
		defer restore()
	}

	p := tea.NewProgram(newProgressModel(names, cancel))

	errc := make(chan error, 1)
	go func() {
		err := work(func(tree int, done, total int64) {
			p.Send(treeProgressMsg{tree: tree, done: done, total: total})
		})
		errc <- err
		p.Send(runDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return fmt.Errorf("progress UI error: %w", err)
	}
	return <-errc
}
