package tui

import (
	"context"
	"fmt"

	"bigfiles/internal/query"

	tea "github.com/charmbracelet/bubbletea"
)

type welcomeModel struct {
	status query.Status
	err    error
	ready  bool // true once the check has completed
}

// checkIndexMsg is sent after checking the catalog status.
type checkIndexMsg struct {
	status query.Status
	err    error
}

func checkIndex(ctx context.Context, e *query.Engine) tea.Cmd {
	return func() tea.Msg {
		status, err := e.Status(ctx)
		return checkIndexMsg{status: status, err: err}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.status = msg.status
		m.err = msg.err
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ bigfiles") + "\n"
	s += subtitleStyle.Render("  Duplicates and large files from a local catalog") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking catalog...") + "\n"
		return s
	}

	switch {
	case m.err != nil:
		s += errorStyle.Render(fmt.Sprintf("  ✗ %v", m.err)) + "\n"
	case m.status.Files == 0:
		s += warnStyle.Render("  ✗ Catalog is empty") + "\n"
	default:
		s += successStyle.Render(fmt.Sprintf("  ✓ %d files cataloged", m.status.Files)) + "\n"
		if m.status.LastRoot != "" {
			s += dimStyle.Render(fmt.Sprintf("    last indexed %s at %s", m.status.LastRoot, m.status.LastIndexed)) + "\n"
		}
	}

	s += "\n"
	s += helpStyle.Render("  i index current directory • d duplicates • l largest files • r report • q quit") + "\n"
	return s
}
