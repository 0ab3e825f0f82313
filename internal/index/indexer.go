package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bigfiles/internal/store"
	"bigfiles/internal/walker"

	"github.com/mordilloSan/go-logger/logger"
)

// Error kinds for an unusable root. Test with errors.Is.
var (
	ErrPathNotFound     = walker.ErrPathNotFound
	ErrPermissionDenied = walker.ErrPermissionDenied
)

// PrunePolicy decides what happens to records under the indexed root whose
// files were not seen by the current run.
type PrunePolicy string

const (
	// PruneKeep leaves stale records in place.
	PruneKeep PrunePolicy = "keep"
	// PruneSweep deletes records under the root not written by this run.
	PruneSweep PrunePolicy = "sweep"
)

// ParsePrunePolicy accepts "keep" or "sweep"; "" means keep.
func ParsePrunePolicy(s string) (PrunePolicy, error) {
	switch p := PrunePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PruneKeep:
		return PruneKeep, nil
	case PruneSweep:
		return PruneSweep, nil
	default:
		return "", fmt.Errorf("unknown prune policy %q (want keep or sweep)", s)
	}
}

// ProgressFunc receives the number of committed records and the expected
// total, which is 0 when no pre-count ran.
type ProgressFunc func(indexed, total int)

// Config holds the indexer configuration.
type Config struct {
	Exclude    []string
	Prune      PrunePolicy
	BatchSize  int
	CountFirst bool
	OnProgress ProgressFunc
}

// Indexer catalogs directory trees into a store. The store handle is owned
// by the caller.
type Indexer struct {
	store  store.Store
	config Config
}

// New creates a new Indexer writing to st.
func New(st store.Store, cfg Config) *Indexer {
	if cfg.Prune == "" {
		cfg.Prune = PruneKeep
	}
	return &Indexer{store: st, config: cfg}
}

// Index walks root and upserts a record for every regular file under it.
// Per-entry problems are returned in Stats.Warnings. A missing or unreadable
// root, a store write failure, or cancellation returns an error; Stats is
// still returned with the count committed before the failure.
func (idx *Indexer) Index(ctx context.Context, root string) (*Stats, error) {
	absRoot, err := walker.Root(root)
	if err != nil {
		return nil, err
	}
	opts := walker.Options{Exclude: idx.config.Exclude}

	total := 0
	if idx.config.CountFirst {
		if total, err = walker.Count(ctx, absRoot, opts); err != nil {
			return nil, fmt.Errorf("count files: %w", err)
		}
	}

	run, err := idx.store.BeginRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	logger.InfoKV("indexing started", "root", absRoot, "run", run, "prune", string(idx.config.Prune))

	stats, err := runPipeline(ctx, absRoot, idx.store, run, opts, idx.config.BatchSize, total, idx.config.OnProgress)
	if err != nil {
		return stats, err
	}

	if idx.config.Prune == PruneSweep {
		n, err := idx.store.PruneStale(ctx, absRoot, run)
		if err != nil {
			return stats, fmt.Errorf("prune: %w", err)
		}
		stats.Pruned = n
	}

	if err := idx.store.SetMeta(ctx, store.MetaLastRoot, absRoot); err != nil {
		return stats, fmt.Errorf("set meta: %w", err)
	}
	if err := idx.store.SetMeta(ctx, store.MetaLastIndexed, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return stats, fmt.Errorf("set meta: %w", err)
	}

	logger.InfoKV("indexing finished",
		"root", absRoot,
		"indexed", stats.FilesIndexed,
		"skipped", stats.FilesSkipped,
		"warnings", len(stats.Warnings),
		"pruned", stats.Pruned,
	)
	return stats, nil
}
