// Package render prints query results as terminal tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"bigfiles/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

// NoDuplicates is printed when the catalog has no duplicate groups.
const NoDuplicates = "No duplicates found."

// NoFiles is printed when a largest-files query returns nothing, either
// because the catalog is empty or the limit is not positive.
const NoFiles = "No files to list."

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Size formats a byte count as "1.2 MiB".
func Size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func newTable(numeric map[int]bool, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric[col]:
				return numberStyle
			default:
				return cellStyle
			}
		}).
		Headers(headers...)
}

// Duplicates writes duplicate groups. When paths is non-nil, paths[i] lists
// the members of groups[i] in an extra column.
func Duplicates(w io.Writer, groups []store.DuplicateGroup, paths [][]string) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, NoDuplicates)
		return err
	}

	headers := []string{"Filename", "Size", "Bytes", "Count"}
	if paths != nil {
		headers = append(headers, "Paths")
	}
	t := newTable(map[int]bool{1: true, 2: true, 3: true}, headers...)
	for i, g := range groups {
		row := []string{g.Name, Size(g.Size), strconv.FormatInt(g.Size, 10), strconv.Itoa(g.Count)}
		if paths != nil && i < len(paths) {
			row = append(row, strings.Join(paths[i], "\n"))
		}
		t.Row(row...)
	}

	if _, err := fmt.Fprintf(w, "Found %d duplicate groups:\n", len(groups)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Largest writes the largest-files listing.
func Largest(w io.Writer, files []store.FileRecord) error {
	if len(files) == 0 {
		_, err := fmt.Fprintln(w, NoFiles)
		return err
	}
	t := newTable(map[int]bool{2: true, 3: true}, "Path", "Filename", "Size", "Bytes")
	for _, f := range files {
		t.Row(f.Path, f.Name, Size(f.Size), strconv.FormatInt(f.Size, 10))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Summary writes catalog totals followed by the top extensions.
func Summary(w io.Writer, sum store.Summary) error {
	if _, err := fmt.Fprintf(w, "Files: %d  Total size: %s (%d bytes)\n", sum.Files, Size(sum.Bytes), sum.Bytes); err != nil {
		return err
	}
	if len(sum.ByCount) == 0 {
		return nil
	}

	t := newTable(map[int]bool{1: true, 2: true}, "Extension", "Files", "Size")
	for _, e := range sum.ByCount {
		t.Row(extLabel(e.Extension), strconv.FormatInt(e.Files, 10), Size(e.Bytes))
	}
	if _, err := fmt.Fprintf(w, "\nTop extensions by count:\n%s\n", t.Render()); err != nil {
		return err
	}

	t = newTable(map[int]bool{1: true, 2: true}, "Extension", "Files", "Size")
	for _, e := range sum.ByBytes {
		t.Row(extLabel(e.Extension), strconv.FormatInt(e.Files, 10), Size(e.Bytes))
	}
	_, err := fmt.Fprintf(w, "\nTop extensions by size:\n%s\n", t.Render())
	return err
}

func extLabel(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return "." + ext
}
