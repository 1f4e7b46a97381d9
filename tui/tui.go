// Package tui renders a presentation surface for the timer. A surface owns
// nothing but a read-only copy of the most recently observed snapshot: it
// issues commands to the engine and re-renders wholesale from whichever
// snapshot arrives next, whether from its own engine or from another
// surface via the relay.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abstudio/pomo/internal/models"
	"github.com/abstudio/pomo/relay"
	"github.com/abstudio/pomo/timer"
)

const (
	padding  = 2
	maxWidth = 60
)

type keymap struct {
	toggle key.Binding
	reset  key.Binding
	skip   key.Binding
	mode   key.Binding
	quit   key.Binding
}

func (k keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.skip, k.reset, k.mode, k.quit}
}

func (k keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeymap = keymap{
	toggle: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space", "start/pause"),
	),
	reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	skip: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "skip"),
	),
	mode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "switch mode"),
	),
	quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	workStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B0DB43")).
			Bold(true)

	breakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#12EAEA")).
			Bold(true)

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Bold(true)

	faintStyle = lipgloss.NewStyle().Faint(true)
)

// snapshotMsg carries state published by this surface's own engine;
// foreignSnapshotMsg carries state another process wrote to disk.
type (
	snapshotMsg        models.Snapshot
	foreignSnapshotMsg models.Snapshot
)

// Model is a bubbletea surface over one timer engine. Mini surfaces render
// a single compact line, for a detached corner terminal.
type Model struct {
	engine    *timer.Timer
	snap      models.Snapshot
	progress  progress.Model
	help      help.Model
	keymap    keymap
	hubCh     <-chan models.Snapshot
	cancelSub func()
	watcher   *relay.Watcher
	mini      bool
}

// New mounts a surface on the engine, subscribing to both halves of the
// cross-surface channel.
func New(engine *timer.Timer, watcher *relay.Watcher, mini bool) *Model {
	hubCh, cancel := engine.Hub().Subscribe()

	return &Model{
		engine:    engine,
		snap:      engine.Snapshot(),
		progress:  progress.New(progress.WithDefaultGradient()),
		help:      help.New(),
		keymap:    defaultKeymap,
		hubCh:     hubCh,
		cancelSub: cancel,
		watcher:   watcher,
		mini:      mini,
	}
}

func waitForSnapshot(ch <-chan models.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}

		return snapshotMsg(snap)
	}
}

func waitForForeign(ch <-chan models.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}

		return foreignSnapshotMsg(snap)
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSnapshot(m.hubCh)}

	if m.watcher != nil {
		cmds = append(cmds, waitForForeign(m.watcher.Events()))
	}

	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		// published by this surface's own engine; render as-is
		m.snap = models.Snapshot(msg)

		return m, waitForSnapshot(m.hubCh)

	case foreignSnapshotMsg:
		// written by another process; the engine arbitrates staleness
		if m.engine.Apply(models.Snapshot(msg)) {
			m.snap = m.engine.Snapshot()
		}

		return m, waitForForeign(m.watcher.Events())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.toggle):
			if m.snap.Running {
				m.engine.Pause()
			} else {
				m.engine.Start()
			}

		case key.Matches(msg, m.keymap.reset):
			m.engine.Reset()

		case key.Matches(msg, m.keymap.skip):
			m.engine.Skip()

		case key.Matches(msg, m.keymap.mode):
			m.engine.SetMode(m.snap.Mode.Toggle())

		case key.Matches(msg, m.keymap.quit):
			m.cancelSub()
			return m, tea.Quit
		}

		m.snap = m.engine.Snapshot()

		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}

		return m, nil
	}

	return m, nil
}

func modeTitle(m models.Mode) string {
	if m == models.Work {
		return workStyle.Render("Work")
	}

	return breakStyle.Render("Break")
}

func formatRemaining(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (m *Model) percentDone() float64 {
	total := m.snap.Duration(m.snap.Mode)
	if total == 0 {
		return 0
	}

	return 1 - float64(m.snap.Remaining)/float64(total)
}

func (m *Model) statusLine() string {
	if m.snap.Running {
		return ""
	}

	return faintStyle.Render("paused")
}

// View renders the full surface, or one line in mini mode.
func (m *Model) View() string {
	if m.mini {
		return fmt.Sprintf(
			"%s %s %d/%d %s",
			modeTitle(m.snap.Mode),
			clockStyle.Render(formatRemaining(m.snap.Remaining)),
			m.snap.Cycle,
			models.CycleLength,
			m.statusLine(),
		)
	}

	var b strings.Builder

	pad := strings.Repeat(" ", padding)

	fmt.Fprintf(
		&b,
		"\n%s%s %s  %s\n\n",
		pad,
		modeTitle(m.snap.Mode),
		faintStyle.Render(
			fmt.Sprintf("cycle %d/%d", m.snap.Cycle, models.CycleLength),
		),
		m.statusLine(),
	)

	fmt.Fprintf(
		&b,
		"%s%s\n\n",
		pad,
		clockStyle.Render(formatRemaining(m.snap.Remaining)),
	)

	fmt.Fprintf(&b, "%s%s\n", pad, m.progress.ViewAs(m.percentDone()))

	if m.snap.TaskTitle != "" {
		fmt.Fprintf(
			&b,
			"\n%s%s\n",
			pad,
			faintStyle.Render("task: "+m.snap.TaskTitle),
		)
	}

	fmt.Fprintf(&b, "\n%s%s\n", pad, m.help.View(m.keymap))

	return b.String()
}
