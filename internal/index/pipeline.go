package index

import (
	"context"
	"errors"
	"fmt"

	"bigfiles/internal/store"
	"bigfiles/internal/walker"

	"github.com/mordilloSan/go-logger/logger"
)

const defaultBatchSize = 256

// Warning is a path the walk could not index. It never aborts a run.
type Warning struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// Stats reports indexing results.
type Stats struct {
	Root         string
	Run          int64
	FilesTotal   int
	FilesIndexed int
	FilesSkipped int
	Pruned       int64
	Warnings     []Warning
}

// batchWriter turns walk entries into store batches. It is the only writer.
// Records are counted as indexed only once their batch commits.
type batchWriter struct {
	s          store.Store
	run        int64
	size       int
	total      int
	onProgress ProgressFunc
	stats      *Stats
	batch      []store.FileRecord
}

func newBatchWriter(s store.Store, run int64, size, total int, onProgress ProgressFunc, stats *Stats) *batchWriter {
	if size <= 0 {
		size = defaultBatchSize
	}
	return &batchWriter{
		s:          s,
		run:        run,
		size:       size,
		total:      total,
		onProgress: onProgress,
		stats:      stats,
		batch:      make([]store.FileRecord, 0, size),
	}
}

func (w *batchWriter) flush(ctx context.Context) error {
	if len(w.batch) == 0 {
		return nil
	}
	if err := w.s.UpsertFiles(ctx, w.run, w.batch); err != nil {
		return err
	}
	w.stats.FilesIndexed += len(w.batch)
	w.batch = w.batch[:0]
	if w.onProgress != nil {
		w.onProgress(w.stats.FilesIndexed, w.total)
	}
	return nil
}

// consume reads entries until the channel closes. Unreadable entries become
// warnings. After the first store error it calls cancel and keeps draining
// so the producer can exit, then returns that error. The final partial batch
// is left for the caller to flush.
func (w *batchWriter) consume(ctx context.Context, entries <-chan walker.Entry, cancel context.CancelFunc) error {
	var storeErr error
	for e := range entries {
		if storeErr != nil {
			continue // drain so the walker can exit
		}
		if e.Err != nil {
			if errors.Is(e.Err, walker.ErrNotRegular) {
				logger.DebugKV("skipping non-regular entry", "path", e.Path)
				w.stats.FilesSkipped++
				continue
			}
			logger.WarnKV("skipping unreadable entry", "path", e.Path, "error", e.Err)
			w.stats.Warnings = append(w.stats.Warnings, Warning{Path: e.Path, Err: e.Err})
			continue
		}

		w.stats.FilesTotal++
		w.batch = append(w.batch, store.FileRecord{
			Path:      e.Path,
			Name:      e.Name,
			Size:      e.Size,
			Extension: store.Extension(e.Name),
		})
		if len(w.batch) >= w.size {
			if err := w.flush(ctx); err != nil {
				storeErr = err
				cancel()
			}
		}
	}
	return storeErr
}

// runPipeline walks root in one goroutine and upserts batches of records
// from the calling goroutine.
func runPipeline(
	ctx context.Context,
	root string,
	s store.Store,
	run int64,
	opts walker.Options,
	batchSize int,
	total int,
	onProgress ProgressFunc,
) (*Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats := &Stats{Root: root, Run: run}
	w := newBatchWriter(s, run, batchSize, total, onProgress, stats)

	entries, walkErrCh := walker.Walk(ctx, root, opts)
	storeErr := w.consume(ctx, entries, cancel)
	walkErr := <-walkErrCh

	if storeErr != nil {
		return stats, fmt.Errorf("storage failed: %w", storeErr)
	}
	if walkErr != nil {
		// Keep what was already walked, even when the run was cancelled.
		if err := w.flush(context.WithoutCancel(ctx)); err != nil {
			logger.Errorf("flush after walk error: %v", err)
		}
		return stats, fmt.Errorf("walk error: %w", walkErr)
	}
	if err := w.flush(ctx); err != nil {
		return stats, fmt.Errorf("storage failed: %w", err)
	}
	return stats, nil
}
