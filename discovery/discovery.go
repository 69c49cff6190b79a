// Package discovery locates test files and loads their contents.
package discovery

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// File pairs a discovered path with its raw contents.
type File struct {
	Path     string
	Contents []byte
}

// Discover expands the glob pattern against the filesystem and returns the
// matching paths in a stable sorted order. A literal path to an existing
// file matches itself. Supports "**" (the default pattern is
// "**/*.marco.md"), which the stdlib glob does not.
func Discover(pattern string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
	}

	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// Load reads all files concurrently. Results keep the order of paths so
// downstream parsing stays deterministic regardless of read completion
// order. A single unreadable file fails the whole load; discovery raced
// against file deletion is a runtime problem, not a test failure.
func Load(ctx context.Context, paths []string) ([]File, error) {
	files := make([]File, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			contents, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read test file %s: %w", path, err)
			}
			files[i] = File{Path: path, Contents: contents}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
