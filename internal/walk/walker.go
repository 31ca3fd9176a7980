package walk

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tjbck/rgrep/internal/ignore"
)

// Walker is the sequential counterpart to WalkParallel: a plain recursive
// descent with no worker pool. Spec.md §4.4 calls for parallel search
// to be an optional mode, not the only one (single-root, single-thread
// searches don't benefit from the coordination overhead); this is that
// mode, sharing entry/ignore plumbing with WalkParallel.
type Walker struct {
	root string
	opts Options
}

func NewWalker(root string, opts Options) *Walker {
	return &Walker{root: root, opts: opts}
}

// Visit walks w.root depth-first, calling visit for every entry.
func (w *Walker) Visit(visit Visitor) error {
	if w.root == "-" {
		visit(newStdinEntry())
		return nil
	}

	absRoot, err := filepath.Abs(w.root)
	if err != nil {
		absRoot = w.root
	}
	var rootDevice uint64
	hasRootDevice := false
	if w.opts.SameFileSystem {
		dev, err := deviceNum(absRoot)
		if err != nil {
			visit(newErrEntry(w.root, 0, err))
			return nil
		}
		rootDevice, hasRootDevice = dev, true
	}
	info, err := os.Lstat(absRoot)
	if err != nil {
		visit(newErrEntry(w.root, 0, err))
		return nil
	}
	node := ignore.NewRoot(absRoot, w.opts.IgnoreOptions, w.opts.Overrides, w.opts.Types,
		w.opts.CustomIgnoreNames, w.opts.ExplicitIgnoreFiles)

	w.visitOne(visit, newEntry(absRoot, 0, info, nil), node, rootDevice, hasRootDevice, nil)
	return nil
}

func (w *Walker) visitOne(visit Visitor, dent *DirEntry, node *ignore.Node, rootDevice uint64, hasRootDevice bool, ancestors []fs.FileInfo) WalkState {
	if dent.IsSymlink() || !dent.IsDir() {
		if prunedByPipeline(dent, w.opts) {
			return Continue
		}
		return visit(dent)
	}
	if prunedByPipeline(dent, w.opts) {
		return Skip
	}

	descend := true
	if hasRootDevice {
		same, err := isSameFileSystem(rootDevice, dent.Path())
		if err != nil {
			if st := visit(newErrEntry(dent.Path(), dent.Depth(), err)); st.isQuit() {
				return st
			}
			descend = false
		} else {
			descend = same
		}
	}

	entries, readErr := os.ReadDir(dent.Path())
	if readErr == nil {
		entries = sortEntries(dent.Path(), entries, w.opts.SortBy)
	}
	var childNode *ignore.Node
	if node != nil {
		childNode = node.AddChild(dent.Path())
	}

	state := visit(dent)
	if !state.isContinue() {
		return state
	}
	if !descend {
		return Skip
	}
	if readErr != nil {
		return visit(newErrEntry(dent.Path(), dent.Depth(), readErr))
	}
	if w.opts.MaxDepth > 0 && dent.Depth() >= w.opts.MaxDepth {
		return Skip
	}

	if info, err := os.Lstat(dent.Path()); err == nil {
		ancestors = append(append([]fs.FileInfo{}, ancestors...), info)
	}

	for _, e := range entries {
		childPath := filepath.Join(dent.Path(), e.Name())
		info, err := e.Info()
		if err != nil {
			if st := visit(newErrEntry(childPath, dent.Depth()+1, err)); st.isQuit() {
				return st
			}
			continue
		}
		if w.opts.FollowLinks && info.Mode()&fs.ModeSymlink != 0 {
			resolved, statErr := os.Stat(childPath)
			if statErr != nil {
				if st := visit(newErrEntry(childPath, dent.Depth()+1, statErr)); st.isQuit() {
					return st
				}
				continue
			}
			if resolved.IsDir() {
				if err := checkSymlinkLoop(ancestors, childPath); err != nil {
					if st := visit(newErrEntry(childPath, dent.Depth()+1, err)); st.isQuit() {
						return st
					}
					continue
				}
			}
			info = resolved
		}

		if childNode != nil {
			hidden := len(e.Name()) > 0 && e.Name()[0] == '.'
			if childNode.MatchedDirEntry(e.Name(), info.IsDir(), hidden).IsIgnore() {
				continue
			}
		}

		child := newEntry(childPath, dent.Depth()+1, info, nil)
		if st := w.visitOne(visit, child, childNode, rootDevice, hasRootDevice, ancestors); st.isQuit() {
			return st
		}
	}
	return Continue
}
