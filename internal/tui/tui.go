package tui

import (
	"context"

	"bigfiles/internal/index"
	"bigfiles/internal/query"
	"bigfiles/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewIndexing
	ViewResults
	ViewReport
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

// Config holds configuration passed from the CLI layer.
type Config struct {
	// Root is the directory indexed by the "i" key.
	Root    string
	Limit   int
	Exclude []string
	Prune   index.PrunePolicy

	// program is set internally so background goroutines can send messages.
	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	ctx    context.Context
	state  ViewState
	config Config
	st     store.Store
	engine *query.Engine
	width  int
	height int

	welcome  welcomeModel
	indexing indexingModel
	results  resultsModel
	report   reportModel
	quitting bool
}

// New creates a new TUI model over an open catalog.
func New(ctx context.Context, st store.Store, cfg Config) Model {
	if cfg.Limit <= 0 {
		cfg.Limit = query.DefaultLimit
	}
	return Model{
		ctx:    ctx,
		state:  ViewWelcome,
		config: cfg,
		st:     st,
		engine: query.New(st),
	}
}

func (m Model) Init() tea.Cmd {
	return checkIndex(m.ctx, m.engine)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		switch m.state {
		case ViewResults:
			m.results = m.results.resize(msg.Width, msg.Height)
		case ViewReport:
			var c tea.Cmd
			m.report, c = m.report.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == ViewIndexing && !m.indexing.done {
				// Quit once the indexer has flushed and returned.
				m.indexing.stop()
				m.quitting = true
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			if m.state == ViewResults || m.state == ViewReport || (m.state == ViewIndexing && m.indexing.done) {
				return m.home()
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && m.welcome.ready {
			switch keyMsg.String() {
			case "i":
				m.state = ViewIndexing
				ctx, cancel := context.WithCancel(m.ctx)
				m.indexing = newIndexingModel(m.config.Root, m.width, cancel)
				return m, tea.Batch(m.indexing.spinner.Tick, runIndex(ctx, m.st, m.config))
			case "d":
				return m.showResults(resultsDuplicates)
			case "l":
				return m.showResults(resultsLargest)
			case "r":
				m.state = ViewReport
				m.report = newReportModel(m.width, m.height)
				return m, loadReport(m.ctx, m.engine)
			}
		}

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if m.quitting && m.indexing.done {
			return m, tea.Quit
		}
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.done {
			return m.home()
		}

	case ViewResults:
		m.results, cmd = m.results.Update(m.ctx, m.engine, msg)
		return m, cmd

	case ViewReport:
		m.report, cmd = m.report.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) home() (tea.Model, tea.Cmd) {
	m.state = ViewWelcome
	m.welcome = welcomeModel{}
	return m, checkIndex(m.ctx, m.engine)
}

func (m Model) showResults(kind resultsKind) (tea.Model, tea.Cmd) {
	m.state = ViewResults
	m.results = newResultsModel(kind, m.width, m.height)
	return m, loadResults(m.ctx, m.engine, kind, m.config.Limit)
}

func (m Model) View() string {
	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewResults:
		return m.results.View(m.width, m.height)
	case ViewReport:
		return m.report.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program. The store stays owned by the caller.
func Run(ctx context.Context, st store.Store, cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(ctx, st, cfg)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	ref.p = p
	_, err := p.Run()
	return err
}
