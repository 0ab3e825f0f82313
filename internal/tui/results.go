package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bigfiles/internal/query"
	"bigfiles/internal/render"
	"bigfiles/internal/store"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type resultsKind int

const (
	resultsDuplicates resultsKind = iota
	resultsLargest
)

// pathsPaneHeight is the number of lines reserved under the duplicates
// table for the selected group's paths.
const pathsPaneHeight = 8

type resultsModel struct {
	kind    resultsKind
	table   table.Model
	groups  []store.DuplicateGroup
	files   []store.FileRecord
	paths   []string
	pathsOf int // index of the group whose paths are shown, -1 if none
	loaded  bool
	err     error
}

// resultsMsg carries the rows of a duplicates or largest-files query.
type resultsMsg struct {
	groups []store.DuplicateGroup
	files  []store.FileRecord
	err    error
}

// pathsMsg carries the paths of one duplicate group.
type pathsMsg struct {
	group int
	paths []string
	err   error
}

func newResultsModel(kind resultsKind, width, height int) resultsModel {
	var cols []table.Column
	switch kind {
	case resultsDuplicates:
		cols = []table.Column{
			{Title: "Name", Width: 40},
			{Title: "Size", Width: 12},
			{Title: "Copies", Width: 8},
		}
	case resultsLargest:
		cols = []table.Column{
			{Title: "Size", Width: 12},
			{Title: "Path", Width: 80},
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = selectedStyle
	t.SetStyles(styles)

	m := resultsModel{kind: kind, table: t, pathsOf: -1}
	return m.resize(width, height)
}

func (m resultsModel) resize(width, height int) resultsModel {
	// Title, blank line, help line and the table header.
	h := height - 5
	if m.kind == resultsDuplicates {
		h -= pathsPaneHeight
	}
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	if width > 0 {
		m.table.SetWidth(width - 2)
		if m.kind == resultsLargest {
			cols := m.table.Columns()
			if w := width - cols[0].Width - 6; w > 20 {
				cols[1].Width = w
				m.table.SetColumns(cols)
			}
		}
	}
	return m
}

func loadResults(ctx context.Context, e *query.Engine, kind resultsKind, limit int) tea.Cmd {
	return func() tea.Msg {
		switch kind {
		case resultsDuplicates:
			groups, err := e.FindDuplicates(ctx)
			return resultsMsg{groups: groups, err: err}
		default:
			files, err := e.FindLargest(ctx, limit)
			return resultsMsg{files: files, err: err}
		}
	}
}

func loadPaths(ctx context.Context, e *query.Engine, group int, g store.DuplicateGroup) tea.Cmd {
	return func() tea.Msg {
		paths, err := e.DuplicatePaths(ctx, g)
		return pathsMsg{group: group, paths: paths, err: err}
	}
}

func (m resultsModel) Update(ctx context.Context, e *query.Engine, msg tea.Msg) (resultsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case resultsMsg:
		m.loaded = true
		m.err = msg.err
		m.groups = msg.groups
		m.files = msg.files
		m.table.SetRows(m.rows())
		return m, nil

	case pathsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.pathsOf = msg.group
		m.paths = msg.paths
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && m.kind == resultsDuplicates && len(m.groups) > 0 {
			i := m.table.Cursor()
			if i >= 0 && i < len(m.groups) {
				return m, loadPaths(ctx, e, i, m.groups[i])
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m resultsModel) rows() []table.Row {
	switch m.kind {
	case resultsDuplicates:
		rows := make([]table.Row, 0, len(m.groups))
		for _, g := range m.groups {
			rows = append(rows, table.Row{g.Name, render.Size(g.Size), strconv.Itoa(g.Count)})
		}
		return rows
	default:
		rows := make([]table.Row, 0, len(m.files))
		for _, f := range m.files {
			rows = append(rows, table.Row{render.Size(f.Size), f.Path})
		}
		return rows
	}
}

func (m resultsModel) View(width, height int) string {
	title := "Duplicates"
	help := "↑/↓ move • enter show paths • esc back • q quit"
	if m.kind == resultsLargest {
		title = "Largest files"
		help = "↑/↓ move • esc back • q quit"
	}

	s := "\n" + titleStyle.Render("  "+title) + "\n\n"
	switch {
	case !m.loaded:
		return s + dimStyle.Render("  Loading...") + "\n"
	case m.err != nil:
		return s + errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	case m.kind == resultsDuplicates && len(m.groups) == 0:
		return s + dimStyle.Render("  "+render.NoDuplicates) + "\n\n" + helpStyle.Render("  esc back • q quit") + "\n"
	case m.kind == resultsLargest && len(m.files) == 0:
		return s + dimStyle.Render("  "+render.NoFiles) + "\n\n" + helpStyle.Render("  esc back • q quit") + "\n"
	}

	s += m.table.View() + "\n"
	if m.kind == resultsDuplicates {
		s += m.pathsView()
	}
	s += helpStyle.Render("  "+help) + "\n"
	return s
}

func (m resultsModel) pathsView() string {
	if m.pathsOf < 0 || m.pathsOf >= len(m.groups) {
		return "\n"
	}
	g := m.groups[m.pathsOf]

	var sb strings.Builder
	sb.WriteString(subtitleStyle.Render(fmt.Sprintf("  %s (%s)", g.Name, render.Size(g.Size))) + "\n")
	for i, p := range m.paths {
		if i == pathsPaneHeight-2 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("    ... and %d more", len(m.paths)-i)) + "\n")
			break
		}
		sb.WriteString(listItemStyle.Render("    "+p) + "\n")
	}
	return sb.String()
}
