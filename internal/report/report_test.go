package report

import (
	"context"
	"path/filepath"
	"testing"

	"bigfiles/internal/query"
	"bigfiles/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engine(t *testing.T, recs ...store.FileRecord) *query.Engine {
	t.Helper()
	st, err := store.Open(store.DriverCGO, filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.UpsertFiles(context.Background(), 1, recs))
	return query.New(st)
}

func rec(path string, size int64) store.FileRecord {
	name := filepath.Base(path)
	return store.FileRecord{Path: path, Name: name, Size: size, Extension: store.Extension(name)}
}

func TestBuild(t *testing.T) {
	e := engine(t,
		rec("/p/one/my_file.iso", 4096),
		rec("/p/two/my_file.iso", 4096),
		rec("/p/three/my_file.iso", 4096),
		rec("/p/notes.txt", 10),
	)

	md, err := Build(context.Background(), e, Options{Largest: 2, Groups: 5})
	require.NoError(t, err)

	assert.Contains(t, md, "# File catalog report")
	assert.Contains(t, md, "**4** files")
	assert.Contains(t, md, `my\_file.iso (4.0 KiB, 3 copies)`)
	assert.Contains(t, md, "- `/p/two/my_file.iso`")
	assert.Contains(t, md, "8.0 KiB could be reclaimed")
	assert.Contains(t, md, "| 2 | 4.0 KiB |")
	assert.NotContains(t, md, "| 3 | 4.0 KiB |")
}

func TestBuildEmpty(t *testing.T) {
	md, err := Build(context.Background(), engine(t), DefaultOptions)
	require.NoError(t, err)
	assert.Contains(t, md, "No duplicates found.")
	assert.Contains(t, md, "No files to list.")
}

func TestBuildTruncatesGroups(t *testing.T) {
	e := engine(t,
		rec("/a/x", 1), rec("/b/x", 1),
		rec("/a/y", 2), rec("/b/y", 2),
	)
	md, err := Build(context.Background(), e, Options{Largest: 1, Groups: 1})
	require.NoError(t, err)
	assert.Contains(t, md, "_1 more groups not shown._")
}
