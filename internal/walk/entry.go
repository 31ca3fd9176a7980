// Package walk implements the parallel, ignore-aware directory walker
// that sits between the ignore engine (internal/ignore) and whatever
// consumes file paths (internal/search). It mirrors the work-stealing
// design of _examples/original_source/crates/ignore/src/walk.rs: a
// single mutex-guarded stack of pending directories, shared by a fixed
// pool of worker goroutines, visited depth-first to keep peak memory
// (live ignore matchers, open directory handles) low.
package walk

import (
	"io/fs"
	"os"
)

// WalkState is returned by a Visitor to control how the walk proceeds
// past the current entry.
type WalkState int

const (
	// Continue walks normally: directories are descended into.
	Continue WalkState = iota
	// Skip declines to descend into the current entry if it's a
	// directory; it has no effect on a file entry.
	Skip
	// Quit stops the entire walk as soon as possible. Every worker
	// observes this on its next work-fetch (propagated via a Quit
	// message domino, per spec.md §4.4).
	Quit
)

func (s WalkState) isQuit() bool     { return s == Quit }
func (s WalkState) isContinue() bool { return s == Continue }

// DirEntry is one path visited by the walk: a real filesystem entry, or
// the synthetic entry representing standard input.
type DirEntry struct {
	path    string
	depth   int
	info    fs.FileInfo
	err     error
	isStdin bool
}

func newStdinEntry() *DirEntry {
	return &DirEntry{path: "-", isStdin: true}
}

func newEntry(path string, depth int, info fs.FileInfo, err error) *DirEntry {
	return &DirEntry{path: path, depth: depth, info: info, err: err}
}

func newErrEntry(path string, depth int, err error) *DirEntry {
	return &DirEntry{path: path, depth: depth, err: err}
}

// Path returns the entry's path. Both walkers make each root absolute
// before descending, so discovered entries carry absolute paths; an
// error entry for a root that could not be opened carries the root as
// given, and the stdin entry's path is "-".
func (d *DirEntry) Path() string { return d.path }

// Depth is 0 for a walk root and increases by one per descent.
func (d *DirEntry) Depth() int { return d.depth }

// IsDir reports whether the entry is a directory. A symlink to a
// directory is not itself considered a directory unless follow-links
// resolved it (spec.md §4.4 "symlinks").
func (d *DirEntry) IsDir() bool {
	return d.info != nil && d.info.Mode().IsDir() && !d.isStdin
}

// IsSymlink reports whether the entry, as discovered (before any
// follow-links resolution), was a symbolic link.
func (d *DirEntry) IsSymlink() bool {
	return d.info != nil && d.info.Mode()&fs.ModeSymlink != 0
}

// IsStdin reports whether this entry represents "-", standard input.
func (d *DirEntry) IsStdin() bool { return d.isStdin }

// Info returns the cached fs.FileInfo for this entry, or nil for stdin
// or an entry that failed to stat.
func (d *DirEntry) Info() fs.FileInfo { return d.info }

// Err returns the error associated with this entry, if visiting it
// failed (e.g. a permission error reading a directory).
func (d *DirEntry) Err() error { return d.err }

// Size returns the entry's file size, or 0 for stdin or an entry that
// failed to stat.
func (d *DirEntry) Size() int64 {
	if d.info == nil {
		return 0
	}
	return d.info.Size()
}

// prunedByPipeline applies spec.md §4.3's per-entry pipeline steps 4-6
// (skip-stdout handle, max_filesize, caller predicate) to dent,
// reporting whether it should be pruned before delivery to the
// visitor. Stdin is never pruned.
func prunedByPipeline(dent *DirEntry, opts Options) bool {
	if dent.isStdin {
		return false
	}
	if opts.StdoutInfo != nil && dent.info != nil && os.SameFile(dent.info, opts.StdoutInfo) {
		return true
	}
	if !dent.IsDir() && opts.MaxFilesize > 0 && dent.info != nil && dent.info.Size() > opts.MaxFilesize {
		return true
	}
	if opts.Predicate != nil && !opts.Predicate(dent) {
		return true
	}
	return false
}
