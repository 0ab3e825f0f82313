// Package query answers the catalog's analytical questions: which files are
// likely duplicates and which files are the largest.
//
// Duplicates are detected by name and size only. File contents are never
// read, so two files with the same name and size but different bytes are
// reported together, and identical files under different names are not.
package query

import (
	"context"
	"fmt"

	"bigfiles/internal/store"
)

// DefaultLimit is the number of largest files returned when no limit is given.
const DefaultLimit = 50

// MaxLimit caps a single FindLargest call.
const MaxLimit = 10000

// DefaultTopExtensions is the number of extensions listed in a summary.
const DefaultTopExtensions = 10

// Engine runs read-only queries against a store. It holds no state between
// calls and is safe for concurrent use if the store is.
type Engine struct {
	st store.Reader
}

// New creates an Engine reading from st.
func New(st store.Reader) *Engine {
	return &Engine{st: st}
}

// FindDuplicates returns every (name, size) group with two or more records,
// largest size first. No duplicates yields an empty, non-nil slice.
// Paths are not loaded; use DuplicatePaths per group.
func (e *Engine) FindDuplicates(ctx context.Context) ([]store.DuplicateGroup, error) {
	groups, err := e.st.FindDuplicates(ctx)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	if groups == nil {
		groups = []store.DuplicateGroup{}
	}
	return groups, nil
}

// DuplicatePaths returns the paths making up group g.
func (e *Engine) DuplicatePaths(ctx context.Context, g store.DuplicateGroup) ([]string, error) {
	paths, err := e.st.DuplicatePaths(ctx, g.Name, g.Size)
	if err != nil {
		return nil, fmt.Errorf("duplicate paths for %s (%d bytes): %w", g.Name, g.Size, err)
	}
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

// FindLargest returns up to limit records ordered by size descending.
// Order among equal sizes is unspecified. limit <= 0 returns an empty slice
// without querying the store.
func (e *Engine) FindLargest(ctx context.Context, limit int) ([]store.FileRecord, error) {
	if limit <= 0 {
		return []store.FileRecord{}, nil
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	files, err := e.st.FindLargest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("find largest: %w", err)
	}
	if files == nil {
		files = []store.FileRecord{}
	}
	return files, nil
}

// Summary returns catalog totals and the top extensions.
func (e *Engine) Summary(ctx context.Context, top int) (store.Summary, error) {
	if top <= 0 {
		top = DefaultTopExtensions
	}
	sum, err := e.st.Summary(ctx, top)
	if err != nil {
		return store.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return sum, nil
}

// Status describes the catalog as a whole.
type Status struct {
	Files       int64  `json:"files"`
	LastRoot    string `json:"last_root,omitempty"`
	LastIndexed string `json:"last_indexed_at,omitempty"`
}

// Status reports how many records exist and when the last run finished.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	var s Status
	var err error
	if s.Files, err = e.st.Count(ctx); err != nil {
		return Status{}, fmt.Errorf("count: %w", err)
	}
	if s.LastRoot, err = e.st.GetMeta(ctx, store.MetaLastRoot); err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	if s.LastIndexed, err = e.st.GetMeta(ctx, store.MetaLastIndexed); err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	return s, nil
}
