package store

import "strings"

// FileRecord is one indexed file's metadata snapshot. Path is the unique key.
type FileRecord struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
}

// DuplicateGroup is a set of records sharing the same name and size.
type DuplicateGroup struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Count int    `json:"count"`
}

// ExtensionStat aggregates records by extension.
type ExtensionStat struct {
	Extension string `json:"extension"`
	Files     int64  `json:"files"`
	Bytes     int64  `json:"bytes"`
}

// Summary describes the whole catalog.
type Summary struct {
	Files   int64           `json:"files"`
	Bytes   int64           `json:"bytes"`
	ByCount []ExtensionStat `json:"top_by_count"`
	ByBytes []ExtensionStat `json:"top_by_bytes"`
}

// Meta keys written after each successful indexing run.
const (
	MetaLastRoot    = "last_root"
	MetaLastIndexed = "last_indexed_at"
)

// Extension returns the lowercase text after the last dot in name,
// or "" when name has no dot.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
