//go:build darwin || linux

package search

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile maps f's first size bytes read-only, grounded on go-git's
// storage/filesystem/mmap.mmapFile (same unix.Mmap/unix.Munmap pair,
// same PROT_READ/MAP_SHARED flags): a file opened for mmap access by a
// search only ever reads it, never writes back.
func mmapFile(f *os.File, size int64) ([]byte, func() error, error) {
	if size == 0 {
		// unix.Mmap rejects a zero-length mapping outright; an empty
		// file has nothing to search either way.
		return []byte{}, func() error { return nil }, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
