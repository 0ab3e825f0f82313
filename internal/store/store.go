package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite" // cgo-free driver, registered as "sqlite"
)

// Driver names accepted by Open.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// DefaultPath is the well-known catalog file, relative to the working directory.
const DefaultPath = "bigfiles.db"

var (
	// ErrUnavailable means the store could not be opened or created.
	ErrUnavailable = errors.New("store unavailable")
	// ErrWriteFailed means an upsert or delete did not commit.
	ErrWriteFailed = errors.New("store write failed")
	// ErrQueryFailed means a read query could not be executed.
	ErrQueryFailed = errors.New("store query failed")
)

// Reader is the read-only half of the store used by queries.
type Reader interface {
	// Count returns the number of records.
	Count(ctx context.Context) (int64, error)
	// FindDuplicates groups records by (name, size) and returns groups
	// with at least two members, largest size first.
	FindDuplicates(ctx context.Context) ([]DuplicateGroup, error)
	// DuplicatePaths returns the paths of every record with the given name and size.
	DuplicatePaths(ctx context.Context, name string, size int64) ([]string, error)
	// FindLargest returns up to limit records, largest first.
	FindLargest(ctx context.Context, limit int) ([]FileRecord, error)
	// Summary returns totals and the top extensions by count and by bytes.
	Summary(ctx context.Context, top int) (Summary, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(ctx context.Context, key string) (string, error)
}

// Store provides persistence for the file catalog.
type Store interface {
	Reader
	// BeginRun allocates a new run number used to mark records written
	// by one indexing run.
	BeginRun(ctx context.Context) (int64, error)
	// UpsertFiles inserts or fully replaces the given records in one
	// transaction, stamping them with run.
	UpsertFiles(ctx context.Context, run int64, files []FileRecord) error
	// PruneStale deletes records at or under root that were not written by run.
	PruneStale(ctx context.Context, root string, run int64) (int64, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(ctx context.Context, key, value string) error
	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db     *sql.DB
	driver string
	path   string
}

// Open creates or opens a SQLite database at the given path with the named
// driver and initializes the schema. An empty driver selects DriverCGO.
func Open(driver, dbPath string) (*SQLiteStore, error) {
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("%w: unknown driver %q", ErrUnavailable, driver)
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrUnavailable, err)
	}
	// Pragmas are per connection; one connection keeps them in effect.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping db: %w", ErrUnavailable, err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", ErrUnavailable, err)
	}
	return &SQLiteStore{db: db, driver: driver, path: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Driver returns the database/sql driver name in use.
func (s *SQLiteStore) Driver() string { return s.driver }

func (s *SQLiteStore) BeginRun(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer tx.Rollback()

	var last int64
	var value string
	err = tx.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'run'").Scan(&value)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return 0, fmt.Errorf("%w: read run: %w", ErrWriteFailed, err)
	default:
		if last, err = strconv.ParseInt(value, 10, 64); err != nil {
			return 0, fmt.Errorf("%w: bad run value %q", ErrWriteFailed, value)
		}
	}

	run := last + 1
	_, err = tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES ('run', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		strconv.FormatInt(run, 10),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: write run: %w", ErrWriteFailed, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return run, nil
}

func (s *SQLiteStore) UpsertFiles(ctx context.Context, run int64, files []FileRecord) error {
	if len(files) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (path, name, size, extension, seen_run, indexed_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			size = excluded.size,
			extension = excluded.extension,
			seen_run = excluded.seen_run,
			indexed_at = excluded.indexed_at
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, f.Path, f.Name, f.Size, f.Extension, run); err != nil {
			return fmt.Errorf("%w: upsert %s: %w", ErrWriteFailed, f.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

func (s *SQLiteStore) PruneStale(ctx context.Context, root string, run int64) (int64, error) {
	prefix := root
	if prefix != string(filepath.Separator) {
		prefix += string(filepath.Separator)
	}
	// substr counts characters, not bytes.
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM files WHERE seen_run <> ? AND (path = ? OR substr(path, 1, ?) = ?)",
		run, root, utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: prune %s: %w", ErrWriteFailed, root, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return n, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return n, nil
}

func (s *SQLiteStore) FindDuplicates(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, size, COUNT(*)
		FROM files
		GROUP BY name, size
		HAVING COUNT(*) > 1
		ORDER BY size DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	groups := []DuplicateGroup{}
	for rows.Next() {
		var g DuplicateGroup
		if err := rows.Scan(&g.Name, &g.Size, &g.Count); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return groups, nil
}

func (s *SQLiteStore) DuplicatePaths(ctx context.Context, name string, size int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path FROM files WHERE name = ? AND size = ? ORDER BY path", name, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return paths, nil
}

func (s *SQLiteStore) FindLargest(ctx context.Context, limit int) ([]FileRecord, error) {
	if limit <= 0 {
		return []FileRecord{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, name, size, extension FROM files ORDER BY size DESC, path LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	files := make([]FileRecord, 0, limit)
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Path, &f.Name, &f.Size, &f.Extension); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return files, nil
}

func (s *SQLiteStore) Summary(ctx context.Context, top int) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files").Scan(&sum.Files, &sum.Bytes)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	if top <= 0 {
		return sum, nil
	}

	if sum.ByCount, err = s.extensionStats(ctx, "files DESC, bytes DESC", top); err != nil {
		return Summary{}, err
	}
	if sum.ByBytes, err = s.extensionStats(ctx, "bytes DESC, files DESC", top); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// extensionStats runs the per-extension aggregate with the given ORDER BY
// clause. order is never user input.
func (s *SQLiteStore) extensionStats(ctx context.Context, order string, top int) ([]ExtensionStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT extension, COUNT(*) AS files, COALESCE(SUM(size), 0) AS bytes
		FROM files
		GROUP BY extension
		ORDER BY `+order+`, extension
		LIMIT ?`, top)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	stats := []ExtensionStat{}
	for rows.Next() {
		var e ExtensionStat
		if err := rows.Scan(&e.Extension, &e.Files, &e.Bytes); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		stats = append(stats, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return stats, nil
}

func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
