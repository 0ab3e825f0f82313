package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathNotFound means the walk root does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrPermissionDenied means the walk root cannot be read.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotRegular marks entries that are neither directories nor regular
	// files (symlinks, sockets, devices, pipes).
	ErrNotRegular = errors.New("not a regular file")
)

// Entry is a regular file discovered by Walk. When Err is set the entry
// describes a path that was skipped instead.
type Entry struct {
	Path string
	Name string
	Size int64
	Err  error
}

// Options controls a walk.
type Options struct {
	// Exclude holds directory names, relative path prefixes or globs whose
	// subtrees are not descended into.
	Exclude []string
}

// Root resolves root to an absolute, symlink-free path. A missing root fails
// with ErrPathNotFound.
func Root(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", classify(abs, err)
	}
	return resolved, nil
}

func classify(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	}
	return err
}

// Walk traverses the tree rooted at root depth-first and sends every regular
// file, and every skipped path, on the returned channel. The second channel
// carries at most one fatal error: an unusable root or a cancelled context.
//
// Pending directories live on an explicit stack, so nesting depth does not
// grow the goroutine stack. Symlinks are never followed.
func Walk(ctx context.Context, root string, opts Options) (<-chan Entry, <-chan error) {
	entries := make(chan Entry, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(entries)
		defer close(errs)

		absRoot, err := Root(root)
		if err != nil {
			errs <- err
			return
		}

		send := func(e Entry) bool {
			select {
			case entries <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}

		info, err := os.Stat(absRoot)
		if err != nil {
			errs <- classify(absRoot, err)
			return
		}
		if info.Mode().IsRegular() {
			send(Entry{Path: absRoot, Name: info.Name(), Size: info.Size()})
			return
		}
		if !info.IsDir() {
			errs <- fmt.Errorf("%w: %s", ErrNotRegular, absRoot)
			return
		}

		stack := []string{absRoot}
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				errs <- err
				return
			}

			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			list, err := os.ReadDir(dir)
			if err != nil {
				if dir == absRoot {
					errs <- classify(dir, err)
					return
				}
				if !send(Entry{Path: dir, Name: filepath.Base(dir), Err: err}) {
					errs <- ctx.Err()
					return
				}
				continue
			}

			var subdirs []string
			for _, d := range list {
				path := filepath.Join(dir, d.Name())
				e, descend := inspect(absRoot, path, d, opts.Exclude)
				if descend {
					subdirs = append(subdirs, path)
					continue
				}
				if e == nil {
					continue
				}
				if !send(*e) {
					errs <- ctx.Err()
					return
				}
			}

			// Push in reverse so siblings are visited in enumeration order.
			for i := len(subdirs) - 1; i >= 0; i-- {
				stack = append(stack, subdirs[i])
			}
		}
	}()

	return entries, errs
}

// inspect classifies one directory entry. It returns descend=true for
// directories to walk, or the entry to emit (nil for excluded directories).
func inspect(root, path string, d fs.DirEntry, exclude []string) (*Entry, bool) {
	name := d.Name()
	switch {
	case d.IsDir():
		if len(exclude) > 0 {
			rel, _ := filepath.Rel(root, path)
			if matchesIgnore(name, filepath.ToSlash(rel), exclude) {
				return nil, false
			}
		}
		return nil, true
	case d.Type().IsRegular():
		info, err := d.Info()
		if err != nil {
			return &Entry{Path: path, Name: name, Err: err}, false
		}
		return &Entry{Path: path, Name: name, Size: info.Size()}, false
	default:
		return &Entry{Path: path, Name: name, Err: ErrNotRegular}, false
	}
}

// Count walks the tree with the same rules as Walk and returns the number of
// regular files. Unreadable subdirectories are skipped.
func Count(ctx context.Context, root string, opts Options) (int, error) {
	entries, errs := Walk(ctx, root, opts)
	n := 0
	for e := range entries {
		if e.Err == nil {
			n++
		}
	}
	if err := <-errs; err != nil {
		return n, err
	}
	return n, nil
}

// matchesIgnore checks if a directory name or relative path matches any pattern.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimSuffix(filepath.ToSlash(p), "/")
		if p == "" {
			continue
		}
		// Exact directory name match (e.g. "node_modules", ".git").
		if name == p {
			return true
		}
		// Path prefix match on whole segments (e.g. "third_party/vendor").
		if relPath == p || strings.HasPrefix(relPath, p+"/") {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
