package walk

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/tjbck/rgrep/internal/ignore"
)

func mkTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, contents := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func collectPaths(t *testing.T, root string, opts Options) []string {
	t.Helper()
	var got []string
	err := NewWalker(root, opts).Visit(func(d *DirEntry) WalkState {
		if d.Err() != nil {
			t.Fatalf("unexpected entry error at %q: %v", d.Path(), d.Err())
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, d.Path())
			got = append(got, filepath.ToSlash(rel))
		}
		return Continue
	})
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	sort.Strings(got)
	return got
}

// 1. A plain walk visits every file, skipping nothing by default.
func TestWalkerVisitsAllFiles(t *testing.T) {
	root := mkTree(t, map[string]string{
		"main.go":     "package main",
		"sub/lib.go":  "package sub",
		"sub/x/y.txt": "hi",
	})
	opts := Options{IgnoreOptions: ignore.Options{}}
	got := collectPaths(t, root, opts)
	want := []string{"main.go", "sub/lib.go", "sub/x/y.txt"}
	assertEqual(t, got, want)
}

// 2. A .gitignore excludes matching files from the walk entirely.
func TestWalkerHonorsGitignore(t *testing.T) {
	root := mkTree(t, map[string]string{
		".gitignore": "*.log\n",
		"main.go":    "package main",
		"debug.log":  "noise",
	})
	opts := Options{IgnoreOptions: func() ignore.Options {
		o := ignore.DefaultOptions()
		o.RequireGit = false
		return o
	}()}
	got := collectPaths(t, root, opts)
	want := []string{"main.go"}
	assertEqual(t, got, want)
}

// 3. MaxDepth bounds how far the walk descends.
func TestWalkerMaxDepth(t *testing.T) {
	root := mkTree(t, map[string]string{
		"a.txt":       "1",
		"sub/b.txt":   "2",
		"sub/x/c.txt": "3",
	})
	opts := Options{MaxDepth: 1}
	got := collectPaths(t, root, opts)
	want := []string{"a.txt"}
	assertEqual(t, got, want)
}

// 4. Quit stops the walk early; entries after the quitting one are
// never visited.
func TestWalkerQuitStopsEarly(t *testing.T) {
	root := mkTree(t, map[string]string{
		"a.txt": "1",
		"b.txt": "2",
		"c.txt": "3",
	})
	var visited int
	err := NewWalker(root, Options{}).Visit(func(d *DirEntry) WalkState {
		if !d.IsDir() {
			visited++
			if visited == 1 {
				return Quit
			}
		}
		return Continue
	})
	if err != nil {
		t.Fatal(err)
	}
	if visited != 1 {
		t.Errorf("visited = %d, want 1 (walk should stop after Quit)", visited)
	}
}

// 5. A hidden file is excluded when Hidden is enabled, unless an
// ignore rule already whitelisted it.
func TestWalkerHiddenFiles(t *testing.T) {
	root := mkTree(t, map[string]string{
		".secret": "shh",
		"visible": "ok",
	})
	opts := Options{IgnoreOptions: ignore.Options{Hidden: true}}
	got := collectPaths(t, root, opts)
	want := []string{"visible"}
	assertEqual(t, got, want)
}

func assertEqual(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
