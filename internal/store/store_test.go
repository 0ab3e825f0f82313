package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, driver string) *SQLiteStore {
	t.Helper()
	st, err := Open(driver, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func rec(path string, size int64) FileRecord {
	name := filepath.Base(path)
	return FileRecord{Path: path, Name: name, Size: size, Extension: Extension(name)}
}

func forEachDriver(t *testing.T, fn func(t *testing.T, st *SQLiteStore)) {
	for _, driver := range []string{DriverCGO, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			fn(t, openTestStore(t, driver))
		})
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"archive.tar.gz": "gz",
		"README":         "",
		"Photo.JPG":      "jpg",
		".bashrc":        "bashrc",
		"trailing.":      "",
	}
	for name, want := range cases {
		assert.Equal(t, want, Extension(name), name)
	}
}

func TestOpen(t *testing.T) {
	t.Run("unknown_driver", func(t *testing.T) {
		_, err := Open("postgres", filepath.Join(t.TempDir(), "x.db"))
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("missing_directory", func(t *testing.T) {
		_, err := Open(DriverCGO, filepath.Join(t.TempDir(), "nope", "x.db"))
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("schema_is_idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.db")
		st, err := Open(DriverCGO, path)
		require.NoError(t, err)
		require.NoError(t, st.UpsertFiles(context.Background(), 1, []FileRecord{rec("/a/x.txt", 1)}))
		require.NoError(t, st.Close())

		st, err = Open(DriverCGO, path)
		require.NoError(t, err)
		defer st.Close()
		n, err := st.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestUpsertFiles(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st *SQLiteStore) {
		ctx := context.Background()

		require.NoError(t, st.UpsertFiles(ctx, 1, []FileRecord{rec("/r/a.txt", 10), rec("/r/b.txt", 20)}))
		require.NoError(t, st.UpsertFiles(ctx, 2, []FileRecord{rec("/r/a.txt", 99)}))

		n, err := st.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n, "re-upserting a path must not add a row")

		largest, err := st.FindLargest(ctx, 10)
		require.NoError(t, err)
		require.Len(t, largest, 2)
		assert.Equal(t, "/r/a.txt", largest[0].Path)
		assert.Equal(t, int64(99), largest[0].Size)
		assert.Equal(t, "txt", largest[0].Extension)
	})
}

func TestFindDuplicates(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st *SQLiteStore) {
		ctx := context.Background()

		groups, err := st.FindDuplicates(ctx)
		require.NoError(t, err)
		assert.NotNil(t, groups)
		assert.Empty(t, groups)

		require.NoError(t, st.UpsertFiles(ctx, 1, []FileRecord{
			rec("/x/a.txt", 100),
			rec("/y/a.txt", 100),
			rec("/z/b.txt", 100),
			rec("/x/big.iso", 5000),
			rec("/y/big.iso", 5000),
			rec("/z/big.iso", 5000),
			rec("/z/a.txt", 101),
		}))

		groups, err = st.FindDuplicates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []DuplicateGroup{
			{Name: "big.iso", Size: 5000, Count: 3},
			{Name: "a.txt", Size: 100, Count: 2},
		}, groups)

		paths, err := st.DuplicatePaths(ctx, "a.txt", 100)
		require.NoError(t, err)
		assert.Equal(t, []string{"/x/a.txt", "/y/a.txt"}, paths)
	})
}

func TestFindLargest(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st *SQLiteStore) {
		ctx := context.Background()
		require.NoError(t, st.UpsertFiles(ctx, 1, []FileRecord{
			rec("/s/one", 10),
			rec("/s/two", 500),
			rec("/s/three", 3),
			rec("/s/four", 500),
			rec("/s/five", 1),
		}))

		top, err := st.FindLargest(ctx, 3)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.ElementsMatch(t, []string{"/s/two", "/s/four"}, []string{top[0].Path, top[1].Path})
		assert.Equal(t, "/s/one", top[2].Path)

		all, err := st.FindLargest(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		none, err := st.FindLargest(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestPruneStale(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st *SQLiteStore) {
		ctx := context.Background()
		require.NoError(t, st.UpsertFiles(ctx, 1, []FileRecord{
			rec("/root/keep.txt", 1),
			rec("/root/gone.txt", 1),
			rec("/root/sub/gone.txt", 1),
			rec("/rootless/other.txt", 1),
			rec("/elsewhere/x.txt", 1),
		}))
		require.NoError(t, st.UpsertFiles(ctx, 2, []FileRecord{rec("/root/keep.txt", 1)}))

		n, err := st.PruneStale(ctx, "/root", 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		left, err := st.FindLargest(ctx, 10)
		require.NoError(t, err)
		var paths []string
		for _, f := range left {
			paths = append(paths, f.Path)
		}
		assert.ElementsMatch(t, []string{"/root/keep.txt", "/rootless/other.txt", "/elsewhere/x.txt"}, paths)
	})
}

func TestBeginRun(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st *SQLiteStore) {
		ctx := context.Background()
		first, err := st.BeginRun(ctx)
		require.NoError(t, err)
		second, err := st.BeginRun(ctx)
		require.NoError(t, err)
		assert.Equal(t, first+1, second)
	})
}

func TestSummary(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st *SQLiteStore) {
		ctx := context.Background()
		require.NoError(t, st.UpsertFiles(ctx, 1, []FileRecord{
			rec("/m/a.go", 10),
			rec("/m/b.go", 10),
			rec("/m/c.go", 10),
			rec("/m/movie.mkv", 1000),
			rec("/m/README", 5),
		}))

		sum, err := st.Summary(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), sum.Files)
		assert.Equal(t, int64(1035), sum.Bytes)
		require.Len(t, sum.ByCount, 2)
		assert.Equal(t, ExtensionStat{Extension: "go", Files: 3, Bytes: 30}, sum.ByCount[0])
		require.Len(t, sum.ByBytes, 2)
		assert.Equal(t, "mkv", sum.ByBytes[0].Extension)
	})
}

func TestMetaAndDeleteAll(t *testing.T) {
	st := openTestStore(t, DriverCGO)
	ctx := context.Background()

	v, err := st.GetMeta(ctx, "last_root")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, st.SetMeta(ctx, "last_root", "/a"))
	require.NoError(t, st.SetMeta(ctx, "last_root", "/b"))
	v, err = st.GetMeta(ctx, "last_root")
	require.NoError(t, err)
	assert.Equal(t, "/b", v)

	require.NoError(t, st.UpsertFiles(ctx, 1, []FileRecord{rec("/a/x", 1)}))
	require.NoError(t, st.DeleteAll(ctx))
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClosedStoreErrors(t *testing.T) {
	st, err := Open(DriverCGO, filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = st.FindDuplicates(context.Background())
	assert.True(t, errors.Is(err, ErrQueryFailed))

	err = st.UpsertFiles(context.Background(), 1, []FileRecord{rec("/a/x", 1)})
	assert.True(t, errors.Is(err, ErrWriteFailed))
}
