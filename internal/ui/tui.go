// Package ui provides the optional terminal viewer.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nullus/nullus/internal/store"
	"github.com/nullus/nullus/internal/task"
)

// Run starts the read-only task viewer. It reloads the store on a timer
// so edits from other invocations show up while the viewer is open.
func Run(ctx context.Context, st *store.Store) error {
	if !isTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newViewerModel(st)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type viewerModel struct {
	st           *store.Store
	tasks        task.List
	loadErr      error
	showHidden   bool
	showHelp     bool
	tickInterval time.Duration
}

type tickMsg time.Time

func newViewerModel(st *store.Store) *viewerModel {
	return &viewerModel{
		st:           st,
		tickInterval: time.Second,
	}
}

func (m *viewerModel) Init() tea.Cmd {
	m.refresh()
	return tickCmd(m.tickInterval)
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "f5":
			m.refresh()
			return m, nil
		case "h":
			m.showHidden = !m.showHidden
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		}
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	}
	return m, nil
}

func (m *viewerModel) View() string {
	var b strings.Builder

	b.WriteString("nullus")
	if m.showHidden {
		b.WriteString(" (all rows)")
	}
	b.WriteString("\n\n")

	if m.showHelp {
		b.WriteString("  q  quit\n")
		b.WriteString("  r  refresh\n")
		b.WriteString("  h  toggle hidden rows\n")
		b.WriteString("  ?  toggle this help\n")
		return b.String()
	}

	if m.loadErr != nil {
		fmt.Fprintf(&b, "  load error: %v\n", m.loadErr)
		return b.String()
	}

	tasks := m.tasks.Visible()
	if m.showHidden {
		tasks = m.tasks.Dump()
	}
	if len(tasks) == 0 {
		b.WriteString("  no tasks\n")
	}
	for _, t := range tasks {
		pin := " "
		if t.Pinned {
			pin = "*"
		}
		marker := " "
		if !t.Visible {
			marker = "~"
		}
		fmt.Fprintf(&b, " %s%s %3d  %-4s  %s", marker, pin, t.ID, t.Status, t.Desc)
		if !t.Scheduled.IsZero() {
			fmt.Fprintf(&b, "  s:%s", t.Scheduled)
		}
		if !t.Deadline.IsZero() {
			fmt.Fprintf(&b, "  d:%s", t.Deadline)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n  q quit · r refresh · h hidden · ? help\n")
	return b.String()
}

func (m *viewerModel) refresh() {
	tasks, err := m.st.Load()
	m.tasks = tasks
	m.loadErr = err
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, _ := f.Stat()
	return (info.Mode() & os.ModeCharDevice) != 0
}
