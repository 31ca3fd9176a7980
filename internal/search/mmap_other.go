//go:build !darwin && !linux

package search

import (
	"errors"
	"os"
)

// errMmapUnsupported lets SearchFile fall back to a normal buffered
// read on platforms go-git's own mmap package doesn't support either
// (see its scan_unsupported.go); it's never surfaced to callers, only
// used internally to trigger the fallback.
var errMmapUnsupported = errors.New("search: mmap unsupported on this platform")

func mmapFile(f *os.File, size int64) ([]byte, func() error, error) {
	return nil, nil, errMmapUnsupported
}
