package walk

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tjbck/rgrep/internal/ignore"
)

// maxDefaultThreads bounds the default worker count spec.md §4.3 calls
// for (min(12, available_parallelism)): beyond a dozen or so workers,
// the shared LIFO stack's mutex becomes the bottleneck before more
// goroutines help.
const maxDefaultThreads = 12

// Options configures a walk. The ignore-engine knobs are passed through
// verbatim to ignore.NewRoot for every root path.
type Options struct {
	Threads             int
	MaxDepth            int // 0 means unlimited
	FollowLinks         bool
	SameFileSystem      bool
	IgnoreOptions       ignore.Options
	Overrides           *ignore.Override
	Types               *ignore.Types
	CustomIgnoreNames   []string
	ExplicitIgnoreFiles []string

	// MaxFilesize prunes a file entry before delivery when its size
	// exceeds the limit (spec.md §4.3 pipeline step 5). 0 means no
	// limit. Directories are never pruned by this.
	MaxFilesize int64
	// StdoutInfo, when set, causes any entry identifying the same file
	// (device+inode via os.SameFile) to be pruned before delivery
	// (spec.md §4.3 pipeline step 4) — the "skip-stdout-file handle",
	// so a recursive search writing to a redirected file doesn't search
	// its own output.
	StdoutInfo os.FileInfo
	// Predicate, when set, is consulted last in the pipeline (spec.md
	// §4.3 step 6); returning false prunes the entry before delivery.
	Predicate func(*DirEntry) bool
	// SortBy orders each directory's children before they're staged as
	// work. Both Walker and WalkParallel apply it to siblings, but only
	// Walker's single-threaded delivery yields the overall comparator
	// order spec.md §4.3 guarantees; callers that need that guarantee
	// must also force sequential walking when SortBy != SortNone
	// ("sequential if a sort is requested").
	SortBy SortBy
}

// threads resolves the configured worker count, defaulting to
// min(maxDefaultThreads, runtime.NumCPU()) per spec.md §4.3 when the
// caller didn't ask for a specific number.
func (o Options) threads() int {
	if o.Threads > 0 {
		return o.Threads
	}
	if n := runtime.NumCPU(); n < maxDefaultThreads {
		return n
	}
	return maxDefaultThreads
}

// Visitor is called once per entry discovered by the walk. Its return
// value controls whether the walk descends into a directory, skips it,
// or stops the whole walk.
type Visitor func(*DirEntry) WalkState

// message is one instruction a worker goroutine pulls off the shared
// stack: either a directory to process, or an order to quit.
type message struct {
	work   *work
	isQuit bool
}

// work is one unit of work: a directory entry plus the ignore state
// and ancestor chain needed to process it.
type work struct {
	dent          *DirEntry
	ignoreNode    *ignore.Node
	rootDevice    uint64
	hasRootDevice bool
	ancestors     []fs.FileInfo
}

// WalkParallel walks one or more root paths across a pool of worker
// goroutines, feeding a single shared LIFO stack so the traversal stays
// depth-first (spec.md §4.4) even though work is produced and consumed
// concurrently.
type WalkParallel struct {
	roots []string
	opts  Options
}

func NewWalkParallel(roots []string, opts Options) *WalkParallel {
	return &WalkParallel{roots: roots, opts: opts}
}

// Visit runs the walk, calling visit for every entry found. It blocks
// until every worker has exited, which happens either when all work is
// exhausted or when some call to visit returns Quit.
func (w *WalkParallel) Visit(visit Visitor) error {
	stack := &stack{}

	for _, root := range w.roots {
		if root == "-" {
			stack.push(message{work: &work{dent: newStdinEntry()}})
			continue
		}
		var rootDevice uint64
		hasRootDevice := false
		if w.opts.SameFileSystem {
			dev, err := deviceNum(root)
			if err != nil {
				if visit(newErrEntry(root, 0, err)).isQuit() {
					return nil
				}
				continue
			}
			rootDevice, hasRootDevice = dev, true
		}
		info, err := os.Lstat(root)
		if err != nil {
			if visit(newErrEntry(root, 0, err)).isQuit() {
				return nil
			}
			continue
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			absRoot = root
		}
		node := ignore.NewRoot(absRoot, w.opts.IgnoreOptions, w.opts.Overrides, w.opts.Types,
			w.opts.CustomIgnoreNames, w.opts.ExplicitIgnoreFiles)
		stack.push(message{work: &work{
			dent:          newEntry(absRoot, 0, info, nil),
			ignoreNode:    node,
			rootDevice:    rootDevice,
			hasRootDevice: hasRootDevice,
		}})
	}

	if stack.isEmpty() {
		return nil
	}

	quitNow := new(atomic.Bool)
	numPending := new(atomic.Int64)
	numPending.Store(int64(stack.len()))

	g := new(errgroup.Group)
	for i := 0; i < w.opts.threads(); i++ {
		wk := &worker{
			visit:      visit,
			stack:      stack,
			quitNow:    quitNow,
			numPending: numPending,
			opts:       w.opts,
		}
		g.Go(func() error {
			wk.run()
			return nil
		})
	}
	return g.Wait()
}

// stack is the mutex-guarded LIFO work queue every worker shares.
// Using a stack (rather than a FIFO channel) keeps the traversal
// depth-first, which bounds the number of live ignore.Node chains and
// open directory handles at any one time (spec.md §4.4).
type stack struct {
	mu    sync.Mutex
	items []message
}

func (s *stack) push(m message) {
	s.mu.Lock()
	s.items = append(s.items, m)
	s.mu.Unlock()
}

func (s *stack) pop() (message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	if n == 0 {
		return message{}, false
	}
	m := s.items[n-1]
	s.items = s.items[:n-1]
	return m, true
}

func (s *stack) isEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

func (s *stack) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// worker pulls work off the shared stack, visits it, and pushes new
// work for any directory entries it discovers. Every worker is both a
// producer and a consumer.
type worker struct {
	visit      Visitor
	stack      *stack
	quitNow    *atomic.Bool
	numPending *atomic.Int64
	opts       Options
}

func (wk *worker) run() {
	for {
		wrk, ok := wk.getWork()
		if !ok {
			return
		}
		if wk.runOne(wrk).isQuit() {
			wk.quitNow.Store(true)
		}
		wk.numPending.Add(-1)
	}
}

func (wk *worker) runOne(wrk *work) WalkState {
	if wrk.dent.IsStdin() || wrk.dent.IsSymlink() || !wrk.dent.IsDir() {
		if prunedByPipeline(wrk.dent, wk.opts) {
			return Continue
		}
		return wk.visit(wrk.dent)
	}
	if prunedByPipeline(wrk.dent, wk.opts) {
		return Skip
	}

	descend := true
	if wrk.hasRootDevice {
		same, err := isSameFileSystem(wrk.rootDevice, wrk.dent.Path())
		if err != nil {
			if st := wk.visit(newErrEntry(wrk.dent.Path(), wrk.dent.Depth(), err)); st.isQuit() {
				return st
			}
			descend = false
		} else {
			descend = same
		}
	}

	entries, readErr := os.ReadDir(wrk.dent.Path())
	if readErr == nil {
		entries = sortEntries(wrk.dent.Path(), entries, wk.opts.SortBy)
	}
	var childNode *ignore.Node
	if wrk.ignoreNode != nil {
		childNode = wrk.ignoreNode.AddChild(wrk.dent.Path())
	}

	state := wk.visit(wrk.dent)
	if !state.isContinue() {
		return state
	}
	if !descend {
		return Skip
	}
	if readErr != nil {
		return wk.visit(newErrEntry(wrk.dent.Path(), wrk.dent.Depth(), readErr))
	}
	if wk.opts.MaxDepth > 0 && wrk.dent.Depth() >= wk.opts.MaxDepth {
		return Skip
	}

	ancestors := wrk.ancestors
	if info, err := os.Lstat(wrk.dent.Path()); err == nil {
		ancestors = append(append([]fs.FileInfo{}, ancestors...), info)
	}

	for _, e := range entries {
		if st := wk.generateWork(childNode, wrk.dent.Depth()+1, wrk.rootDevice, wrk.hasRootDevice, ancestors, e); st.isQuit() {
			return st
		}
	}
	return Continue
}

func (wk *worker) generateWork(ignoreNode *ignore.Node, depth int, rootDevice uint64, hasRootDevice bool, ancestors []fs.FileInfo, e os.DirEntry) WalkState {
	childPath := filepath.Join(currentDirOf(ignoreNode), e.Name())
	info, err := e.Info()
	if err != nil {
		return wk.visit(newErrEntry(childPath, depth, err))
	}
	if wk.opts.FollowLinks && info.Mode()&fs.ModeSymlink != 0 {
		resolved, statErr := os.Stat(childPath)
		if statErr != nil {
			return wk.visit(newErrEntry(childPath, depth, statErr))
		}
		if resolved.IsDir() {
			if err := checkSymlinkLoop(ancestors, childPath); err != nil {
				return wk.visit(newErrEntry(childPath, depth, err))
			}
		}
		info = resolved
	}

	dent := newEntry(childPath, depth, info, nil)
	if ignoreNode != nil {
		rel := e.Name()
		hidden := len(rel) > 0 && rel[0] == '.'
		m := ignoreNode.MatchedDirEntry(rel, info.IsDir(), hidden)
		if m.IsIgnore() {
			return Continue
		}
	}

	wk.send(&work{
		dent:          dent,
		ignoreNode:    ignoreNode,
		rootDevice:    rootDevice,
		hasRootDevice: hasRootDevice,
		ancestors:     ancestors,
	})
	return Continue
}

func currentDirOf(n *ignore.Node) string {
	if n == nil {
		return ""
	}
	return n.Dir()
}

func (wk *worker) send(wrk *work) {
	wk.numPending.Add(1)
	wk.stack.push(message{work: wrk})
}

func (wk *worker) sendQuit() {
	wk.stack.push(message{isQuit: true})
}

// getWork pops the next unit of work, blocking (via a short sleep loop,
// since the stack isn't itself blocking) until either work appears or
// every worker can prove there will never be more.
func (wk *worker) getWork() (*work, bool) {
	for {
		if wk.quitNow.Load() {
			wk.sendQuit()
			return nil, false
		}
		m, ok := wk.stack.pop()
		if ok {
			if m.isQuit {
				// Propagate the quit message so every sleeping worker
				// eventually wakes up and exits too (domino effect).
				wk.sendQuit()
				return nil, false
			}
			return m.work, true
		}
		if wk.numPending.Load() == 0 {
			wk.sendQuit()
			return nil, false
		}
		time.Sleep(time.Millisecond)
	}
}
