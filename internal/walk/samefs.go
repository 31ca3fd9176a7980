package walk

import (
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// deviceNum returns the filesystem device number hosting path, used by
// Options.SameFileSystem to stop a descent from crossing onto a
// different mounted filesystem (spec.md §4.4 "one filesystem").
func deviceNum(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return deviceNumFromInfo(info)
}

func deviceNumFromInfo(info fs.FileInfo) (uint64, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("walk: cannot determine device number for %q", info.Name())
	}
	return uint64(stat.Dev), nil
}

// isSameFileSystem reports whether path is on the same device as
// rootDevice.
func isSameFileSystem(rootDevice uint64, path string) (bool, error) {
	dev, err := deviceNum(path)
	if err != nil {
		return false, err
	}
	return dev == rootDevice, nil
}

// checkSymlinkLoop reports whether following a symlink to target would
// re-enter a directory already on the path from the walk root down to
// the symlink (spec.md §4.4 "symlink loop detection"). ancestors holds
// the fs.FileInfo of every real directory already descended into, in
// root-to-leaf order; os.SameFile compares device+inode, which survives
// path aliasing that a string comparison would miss.
func checkSymlinkLoop(ancestors []fs.FileInfo, target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	for _, a := range ancestors {
		if os.SameFile(a, info) {
			return fmt.Errorf("walk: symlink loop detected at %q", target)
		}
	}
	return nil
}
