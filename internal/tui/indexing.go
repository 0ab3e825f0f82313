package tui

import (
	"context"
	"fmt"

	"bigfiles/internal/index"
	"bigfiles/internal/store"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type indexingModel struct {
	spinner      spinner.Model
	progress     progress.Model
	cancel       context.CancelFunc
	root         string
	filesIndexed int
	filesTotal   int
	stopping     bool
	done         bool
	stats        *index.Stats
	err          error
}

func newIndexingModel(root string, width int, cancel context.CancelFunc) indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	barWidth := width - 6
	if barWidth <= 0 || barWidth > 60 {
		barWidth = 60
	}
	return indexingModel{
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		cancel:   cancel,
		root:     root,
	}
}

func (m *indexingModel) stop() {
	m.stopping = true
	if m.cancel != nil {
		m.cancel()
	}
}

// indexDoneMsg is sent when indexing completes.
type indexDoneMsg struct {
	stats *index.Stats
	err   error
}

// indexProgressMsg is sent after every flushed batch.
type indexProgressMsg struct {
	filesIndexed int
	filesTotal   int
}

func runIndex(ctx context.Context, st store.Store, cfg Config) tea.Cmd {
	return func() tea.Msg {
		idx := index.New(st, index.Config{
			Exclude:    cfg.Exclude,
			Prune:      cfg.Prune,
			CountFirst: true,
			OnProgress: func(indexed, total int) {
				if cfg.program != nil && cfg.program.p != nil {
					cfg.program.p.Send(indexProgressMsg{
						filesIndexed: indexed,
						filesTotal:   total,
					})
				}
			},
		})

		stats, err := idx.Index(ctx, cfg.Root)
		return indexDoneMsg{stats: stats, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.done = true
		m.stats = msg.stats
		m.err = msg.err
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case indexProgressMsg:
		m.filesIndexed = msg.filesIndexed
		m.filesTotal = msg.filesTotal
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Indexing") + " " + dimStyle.Render(m.root) + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press Enter to go back, or q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Indexing complete!") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Files: %d seen, %d indexed, %d skipped\n",
				m.stats.FilesTotal, m.stats.FilesIndexed, m.stats.FilesSkipped)
			if m.stats.Pruned > 0 {
				s += fmt.Sprintf("  Pruned: %d stale records\n", m.stats.Pruned)
			}
			if n := len(m.stats.Warnings); n > 0 {
				s += warnStyle.Render(fmt.Sprintf("  ⚠ %d entries could not be read", n)) + "\n"
				for i, w := range m.stats.Warnings {
					if i == 5 {
						s += dimStyle.Render(fmt.Sprintf("    ... and %d more", n-i)) + "\n"
						break
					}
					s += dimStyle.Render("    "+w.String()) + "\n"
				}
			}
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to continue") + "\n"
		return s
	}

	label := "Indexing files..."
	if m.stopping {
		label = "Stopping..."
	}
	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), label)
	if m.filesTotal > 0 {
		pct := float64(m.filesIndexed) / float64(m.filesTotal)
		if pct > 1 {
			pct = 1
		}
		s += "  " + m.progress.ViewAs(pct) + "\n"
		s += fmt.Sprintf("  %d / %d files indexed\n", m.filesIndexed, m.filesTotal)
	}
	s += "\n"
	s += dimStyle.Render("  This may take a while for large trees...") + "\n"
	return s
}
