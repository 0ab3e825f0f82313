package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"bigfiles/internal/query"
	"bigfiles/internal/render"
	"bigfiles/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, recs ...store.FileRecord) *query.Engine {
	t.Helper()
	st, err := store.Open(store.DriverPureGo, filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.UpsertFiles(context.Background(), 1, recs))
	return query.New(st)
}

func file(path string, size int64) store.FileRecord {
	name := filepath.Base(path)
	return store.FileRecord{Path: path, Name: name, Size: size, Extension: store.Extension(name)}
}

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestFormatDuplicates(t *testing.T) {
	assert.Equal(t, render.NoDuplicates, formatDuplicates(nil, 10))

	groups := []store.DuplicateGroup{
		{Name: "a.iso", Size: 2048, Count: 2},
		{Name: "b.iso", Size: 1024, Count: 3},
	}
	out := formatDuplicates(groups, 1)
	assert.Contains(t, out, "a.iso")
	assert.NotContains(t, out, "b.iso")
	assert.Contains(t, out, "1 more groups not shown")
}

func TestFormatLargest(t *testing.T) {
	assert.Equal(t, render.NoFiles, formatLargest(nil))
	out := formatLargest([]store.FileRecord{file("/x/big.bin", 5000)})
	assert.Contains(t, out, "1. `/x/big.bin`")
	assert.Contains(t, out, "5000 bytes")
}

func TestDuplicateTools(t *testing.T) {
	e := testEngine(t, file("/1/song.mp3", 300), file("/2/song.mp3", 300), file("/1/other.mp3", 300))

	out, isErr := callTool(t, makeDuplicatesHandler(e), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "song.mp3")
	assert.NotContains(t, out, "other.mp3")

	out, isErr = callTool(t, makeDuplicatePathsHandler(e), map[string]any{"name": "song.mp3", "size": 300})
	assert.False(t, isErr)
	assert.Contains(t, out, "/1/song.mp3")
	assert.Contains(t, out, "/2/song.mp3")

	_, isErr = callTool(t, makeDuplicatePathsHandler(e), map[string]any{"size": 300})
	assert.True(t, isErr)
}

func TestDuplicatePathsExactLargeSize(t *testing.T) {
	const huge = int64(1)<<53 + 1
	e := testEngine(t, file("/1/disk.img", huge), file("/2/disk.img", huge))

	out, isErr := callTool(t, makeDuplicatePathsHandler(e), map[string]any{"name": "disk.img", "size": "9007199254740993"})
	assert.False(t, isErr)
	assert.Contains(t, out, "/1/disk.img")
	assert.Contains(t, out, "/2/disk.img")

	_, isErr = callTool(t, makeDuplicatePathsHandler(e), map[string]any{"name": "disk.img", "size": float64(huge)})
	assert.True(t, isErr)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      any
		want    int64
		wantErr bool
	}{
		{in: "300", want: 300},
		{in: " 9223372036854775807 ", want: 9223372036854775807},
		{in: float64(4096), want: 4096},
		{in: 12, want: 12},
		{in: nil, wantErr: true},
		{in: "12.5", wantErr: true},
		{in: "-1", wantErr: true},
		{in: float64(1.5), wantErr: true},
		{in: float64(1 << 60), wantErr: true},
		{in: true, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %v", tt.in)
			continue
		}
		require.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLargestTool(t *testing.T) {
	e := testEngine(t, file("/a", 1), file("/b", 2), file("/c", 3))

	out, isErr := callTool(t, makeLargestHandler(e), map[string]any{"limit": 2})
	assert.False(t, isErr)
	assert.Contains(t, out, "`/c`")
	assert.Contains(t, out, "`/b`")
	assert.NotContains(t, out, "`/a`")

	// A populated catalog with a zero limit lists nothing without claiming
	// the catalog is empty.
	out, _ = callTool(t, makeLargestHandler(e), map[string]any{"limit": 0})
	assert.Equal(t, render.NoFiles, out)
	assert.NotContains(t, out, "indexed")
}

func TestSummaryTool(t *testing.T) {
	e := testEngine(t, file("/a/x.log", 10))
	out, isErr := callTool(t, makeSummaryHandler(e), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "x.log")
}
