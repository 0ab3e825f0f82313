// Package report builds a Markdown overview of the catalog.
package report

import (
	"context"
	"fmt"
	"strings"

	"bigfiles/internal/query"
	"bigfiles/internal/render"
)

// Options bounds the size of a report.
type Options struct {
	// Largest is how many of the largest files to list.
	Largest int
	// Groups is how many duplicate groups to list with their paths.
	Groups int
}

// DefaultOptions lists 20 largest files and 20 duplicate groups.
var DefaultOptions = Options{Largest: 20, Groups: 20}

// Build renders summary, duplicate groups and largest files as Markdown.
func Build(ctx context.Context, e *query.Engine, opts Options) (string, error) {
	status, err := e.Status(ctx)
	if err != nil {
		return "", err
	}
	sum, err := e.Summary(ctx, query.DefaultTopExtensions)
	if err != nil {
		return "", err
	}
	groups, err := e.FindDuplicates(ctx)
	if err != nil {
		return "", err
	}
	largest, err := e.FindLargest(ctx, opts.Largest)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# File catalog report\n\n")
	if status.LastRoot != "" {
		fmt.Fprintf(&b, "Last indexed `%s` at %s.\n\n", status.LastRoot, status.LastIndexed)
	}
	fmt.Fprintf(&b, "**%d** files, **%s** total.\n\n", sum.Files, render.Size(sum.Bytes))

	if len(sum.ByBytes) > 0 {
		b.WriteString("## Extensions by size\n\n")
		b.WriteString("| Extension | Files | Size |\n|---|---:|---:|\n")
		for _, x := range sum.ByBytes {
			ext := "(none)"
			if x.Extension != "" {
				ext = "." + x.Extension
			}
			fmt.Fprintf(&b, "| %s | %d | %s |\n", ext, x.Files, render.Size(x.Bytes))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Duplicates\n\n")
	if len(groups) == 0 {
		b.WriteString(render.NoDuplicates + "\n\n")
	} else {
		var wasted int64
		for _, g := range groups {
			wasted += g.Size * int64(g.Count-1)
		}
		fmt.Fprintf(&b, "%d groups share a name and size; up to %s could be reclaimed.\n\n",
			len(groups), render.Size(wasted))

		shown := groups
		if opts.Groups >= 0 && len(shown) > opts.Groups {
			shown = shown[:opts.Groups]
		}
		for _, g := range shown {
			paths, err := e.DuplicatePaths(ctx, g)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "### %s (%s, %d copies)\n\n", mdEscape(g.Name), render.Size(g.Size), g.Count)
			for _, p := range paths {
				fmt.Fprintf(&b, "- `%s`\n", p)
			}
			b.WriteString("\n")
		}
		if len(shown) < len(groups) {
			fmt.Fprintf(&b, "_%d more groups not shown._\n\n", len(groups)-len(shown))
		}
	}

	b.WriteString("## Largest files\n\n")
	if len(largest) == 0 {
		b.WriteString(render.NoFiles + "\n")
	} else {
		b.WriteString("| # | Size | Path |\n|---:|---:|---|\n")
		for i, f := range largest {
			fmt.Fprintf(&b, "| %d | %s | `%s` |\n", i+1, render.Size(f.Size), f.Path)
		}
	}

	return b.String(), nil
}

var mdReplacer = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`)

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
