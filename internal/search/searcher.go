package search

import (
	"bytes"
	"io"
	"os"
)

// mmapThreshold is the file size above which MmapAuto considers mmap
// worth the mapping syscall overhead (spec.md §4.4's strategy table:
// "mmap enabled and heuristically beneficial"). Below it, reading the
// file directly is cheap enough that mmap's page-table setup cost
// isn't worth paying.
const mmapThreshold = 256 * 1024

// Searcher runs one Config/Matcher pair against any number of files or
// readers, choosing between the line-by-line and multiline strategies
// the way grepSingleFile dispatches on p.multiline
// (grep.go), generalized here to also force multiline whenever the
// pattern can itself match a newline regardless of what Config asked
// for, since a streaming line-by-line search could never find such a
// match.
type Searcher struct {
	matcher *RegexMatcher
	cfg     Config
}

func NewSearcher(matcher *RegexMatcher, cfg Config) *Searcher {
	return &Searcher{matcher: matcher, cfg: cfg}
}

func (s *Searcher) useMultiline() bool {
	return s.cfg.Multiline || s.matcher.MatchesNewline()
}

// SearchReader searches r (already opened, already positioned at its
// start) and reports results to sink under displayPath, which is only
// used for Begin/Finish bookkeeping on the Sink side.
func (s *Searcher) SearchReader(displayPath string, r io.Reader, sink Sink) error {
	if err := sink.Begin(displayPath); err != nil {
		return err
	}

	var stats Stats
	var searchErr error
	if s.useMultiline() {
		stats, searchErr = searchMultiline(r, s.matcher, s.cfg, sink)
	} else {
		stats, searchErr = searchLines(r, s.matcher, s.cfg, sink)
	}

	if finErr := sink.Finish(displayPath, stats); finErr != nil && searchErr == nil {
		searchErr = finErr
	}
	return searchErr
}

// SearchFile opens path, runs binary sniffing and encoding detection
// the way grepSingleFile does (512-byte header peek,
// seek back to 0), then searches it, choosing between a plain buffered
// read and an mmap'd slice per Config.Mmap (spec.md §4.4's strategy
// table). A BOM-bearing file always goes through the buffered/streaming
// path, since the decoding readers in transcode.go work against an
// io.Reader, not an mmap'd slice. With BinaryQuit, a file whose header
// holds a NUL byte is skipped before Sink.Begin, and Sink.BinaryData is
// not called for it.
func (s *Searcher) SearchFile(path string, sink Sink) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, statErr := f.Stat()
	if statErr != nil {
		return statErr
	}

	if s.cfg.MaxFilesize > 0 && info.Size() > s.cfg.MaxFilesize {
		return nil
	}

	header := make([]byte, binaryHeaderSize)
	n, _ := f.Read(header)
	header = header[:n]

	if s.cfg.BinaryDetection == BinaryQuit && looksBinary(header) {
		return nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if err := sink.Begin(path); err != nil {
		return err
	}

	transcodable := looksLikeTranscodable(header)

	var stats Stats
	var searchErr error
	switch {
	case !transcodable && s.wantsMmap(info.Size()):
		stats, searchErr = s.searchMmapped(f, info.Size(), sink)
	case transcodable:
		if _, err := f.Seek(int64(len(header)), io.SeekStart); err != nil {
			return err
		}
		tr, terr := transcodingReader(f, header)
		if terr != nil {
			return terr
		}
		stats, searchErr = s.searchReaderStrategy(tr, sink)
	default:
		stats, searchErr = s.searchReaderStrategy(f, sink)
	}

	if finErr := sink.Finish(path, stats); finErr != nil && searchErr == nil {
		searchErr = finErr
	}
	return searchErr
}

// wantsMmap decides, per Config.Mmap, whether a file of the given size
// should be sourced via mmap.
func (s *Searcher) wantsMmap(size int64) bool {
	switch s.cfg.Mmap {
	case MmapNever:
		return false
	case MmapAlways:
		return true
	default:
		return size >= mmapThreshold
	}
}

// searchMmapped maps f and runs the chosen strategy directly against
// the mapped slice, skipping the buffered read entirely. If the
// mapping itself fails (unsupported platform, or the syscall errors),
// it falls back to the normal buffered path rather than failing the
// search outright — mmap is an optimization, not a correctness
// requirement (spec.md §5 "memory-map safety": callers that can't
// accept mmap's truncation-fault risk disable it via Config.Mmap,
// everyone else gets the same result either way).
func (s *Searcher) searchMmapped(f *os.File, size int64, sink Sink) (Stats, error) {
	data, cleanup, err := mmapFile(f, size)
	if err != nil {
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return Stats{}, seekErr
		}
		return s.searchReaderStrategy(f, sink)
	}
	defer cleanup()

	if s.useMultiline() {
		return searchMultilineBytes(data, s.matcher, s.cfg, sink)
	}
	return searchLines(bytes.NewReader(data), s.matcher, s.cfg, sink)
}

func (s *Searcher) searchReaderStrategy(r io.Reader, sink Sink) (Stats, error) {
	if s.useMultiline() {
		return searchMultiline(r, s.matcher, s.cfg, sink)
	}
	return searchLines(r, s.matcher, s.cfg, sink)
}

// SearchBytes runs the search directly against an in-memory buffer,
// useful for tests and for callers (like stdin mode) that already have
// the full content resident.
func (s *Searcher) SearchBytes(displayPath string, data []byte, sink Sink) error {
	if err := sink.Begin(displayPath); err != nil {
		return err
	}
	var stats Stats
	var err error
	if s.useMultiline() {
		stats, err = searchMultilineBytes(data, s.matcher, s.cfg, sink)
	} else {
		stats, err = searchLines(bytes.NewReader(data), s.matcher, s.cfg, sink)
	}
	if finErr := sink.Finish(displayPath, stats); finErr != nil && err == nil {
		err = finErr
	}
	return err
}

func looksLikeTranscodable(header []byte) bool {
	return bytes.HasPrefix(header, bomUTF16LE) || bytes.HasPrefix(header, bomUTF16BE) || bytes.HasPrefix(header, bomUTF8)
}
