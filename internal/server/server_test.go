package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bigfiles/internal/query"
	"bigfiles/internal/store"

	"github.com/mordilloSan/go-logger/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(logger.Config{Levels: []logger.Level{logger.ErrorLevel}})
	os.Exit(m.Run())
}

func rec(path string, size int64) store.FileRecord {
	name := filepath.Base(path)
	return store.FileRecord{Path: path, Name: name, Size: size, Extension: store.Extension(name)}
}

func newTestServer(t *testing.T, recs ...store.FileRecord) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()
	st, err := store.Open(store.DriverCGO, filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.UpsertFiles(context.Background(), 1, recs))

	ts := httptest.NewServer(New(query.New(st), Config{Limit: 2, URL: "http://192.0.2.1:3030/"}).Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestIndexPage(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))

	resp, err = http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDuplicatesEndpoint(t *testing.T) {
	t.Run("empty_is_array", func(t *testing.T) {
		ts, _ := newTestServer(t, rec("/a/x", 1))
		var groups []store.DuplicateGroup
		resp := getJSON(t, ts.URL+"/duplicates", &groups)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotNil(t, groups)
		assert.Empty(t, groups)
	})

	t.Run("groups_and_paths", func(t *testing.T) {
		ts, _ := newTestServer(t, rec("/a/x.bin", 9), rec("/b/x.bin", 9), rec("/c/y.bin", 9))

		var groups []store.DuplicateGroup
		getJSON(t, ts.URL+"/duplicates", &groups)
		require.Len(t, groups, 1)
		assert.Equal(t, store.DuplicateGroup{Name: "x.bin", Size: 9, Count: 2}, groups[0])

		var paths pathsResponse
		resp := getJSON(t, ts.URL+"/duplicates/paths?name=x.bin&size=9", &paths)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"/a/x.bin", "/b/x.bin"}, paths.Paths)
	})

	t.Run("paths_bad_request", func(t *testing.T) {
		ts, _ := newTestServer(t)
		var body map[string]string
		resp := getJSON(t, ts.URL+"/duplicates/paths?name=x&size=big", &body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NotEmpty(t, body["error"])

		resp = getJSON(t, ts.URL+"/duplicates/paths?size=1", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLargestEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, rec("/s/a", 10), rec("/s/b", 500), rec("/s/c", 3))

	var files []store.FileRecord
	getJSON(t, ts.URL+"/largefiles", &files)
	require.Len(t, files, 2, "default limit from config")
	assert.Equal(t, "/s/b", files[0].Path)

	files = nil
	getJSON(t, ts.URL+"/largefiles?limit=10", &files)
	assert.Len(t, files, 3)

	files = nil
	getJSON(t, ts.URL+"/largefiles?limit=0", &files)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	resp := getJSON(t, ts.URL+"/largefiles?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsAndReport(t *testing.T) {
	ts, _ := newTestServer(t, rec("/s/a.go", 10), rec("/s/b.go", 20))

	var stats statsResponse
	getJSON(t, ts.URL+"/stats", &stats)
	assert.Equal(t, int64(2), stats.Files)
	assert.Equal(t, int64(30), stats.Summary.Bytes)

	resp, err := http.Get(ts.URL + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/markdown"))
}

func TestQREndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/qr.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestQueryFailureIs500(t *testing.T) {
	ts, st := newTestServer(t)
	require.NoError(t, st.Close())

	var body map[string]string
	resp := getJSON(t, ts.URL+"/duplicates", &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "query failed", body["error"])
}

func TestDiscoveryHelpers(t *testing.T) {
	assert.Equal(t, "http://192.0.2.7:3030/", AdvertisedURL("192.0.2.7", 3030))
	assert.True(t, strings.HasPrefix(AdvertisedURL("", 8080), "http://"))

	qr, err := TerminalQR("http://192.0.2.7:3030/")
	require.NoError(t, err)
	assert.NotEmpty(t, qr)

	png, err := PNGQR("http://192.0.2.7:3030/", 128)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
