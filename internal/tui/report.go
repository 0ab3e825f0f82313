package tui

import (
	"context"
	"strings"

	"bigfiles/internal/query"
	"bigfiles/internal/report"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type reportModel struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	markdown string
	loaded   bool
	err      error
	width    int
}

// reportMsg is sent when the catalog report has been built.
type reportMsg struct {
	markdown string
	err      error
}

func newReportModel(width, height int) reportModel {
	var m reportModel
	m.resize(width, height)
	return m
}

func (m *reportModel) resize(width, height int) {
	m.width = width

	// Layout: viewport + status bar (1 line).
	vpHeight := height - 1
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)

	// Create glamour renderer matched to current width.
	wrap := width - 2
	if wrap < 20 {
		wrap = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.renderer = r
	}
	m.viewport.SetContent(m.rendered())
}

func loadReport(ctx context.Context, e *query.Engine) tea.Cmd {
	return func() tea.Msg {
		md, err := report.Build(ctx, e, report.DefaultOptions)
		return reportMsg{markdown: md, err: err}
	}
}

func (m reportModel) Update(msg tea.Msg) (reportModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case reportMsg:
		m.loaded = true
		m.markdown = msg.markdown
		m.err = msg.err
		m.viewport.SetContent(m.rendered())
		m.viewport.GotoTop()
		return m, nil
	}

	// Update viewport (scrolling).
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m reportModel) rendered() string {
	switch {
	case !m.loaded:
		return dimStyle.Render("Building report...")
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	case m.renderer == nil:
		return m.markdown
	}
	out, err := m.renderer.Render(m.markdown)
	if err != nil {
		return m.markdown
	}
	return strings.TrimRight(out, "\n")
}

func (m reportModel) View(width, height int) string {
	statusBar := statusBarStyle.
		Width(m.width).
		Render(" bigfiles report • ↑/↓ scroll • esc back • q quit")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
	)
}
