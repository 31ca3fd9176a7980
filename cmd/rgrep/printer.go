package main

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/tjbck/rgrep/internal/search"
)

// printerMode selects which of rgrep's output formats to render,
// mirroring the output_mode switch buildFileResult uses
// (grep.go: "content", "files_with_matches", "count").
type printerMode struct {
	lineNumber        bool
	count             bool
	filesWithMatches  bool
	filesWithoutMatch bool
}

// printer renders Sink events to an io.Writer, serialized behind a
// mutex since SearchFile may be called concurrently across files by
// the parallel walker.
type printer struct {
	mode printerMode
	mu   sync.Mutex
	w    *bufio.Writer
}

func newPrinter(mode printerMode, w io.Writer) *printer {
	return &printer{mode: mode, w: bufio.NewWriter(w)}
}

// fileSink returns a Sink scoped to one file's search, sharing the
// printer's writer/lock.
func (p *printer) fileSink(path string) *fileSink {
	return &fileSink{p: p, path: path}
}

// fileSink implements search.Sink for one file, accumulating enough
// state (match count, whether anything matched) to render the
// count/files-with(out)-matches summary modes at Finish time.
type fileSink struct {
	search.NopSink
	p        *printer
	path     string
	matches  int
	anyMatch bool
}

func (s *fileSink) matched() bool { return s.anyMatch }

func (s *fileSink) Matched(m search.SinkMatch) (bool, error) {
	s.matches++
	s.anyMatch = true

	if s.p.mode.count || s.p.mode.filesWithMatches || s.p.mode.filesWithoutMatch {
		// Deferred to Finish; content isn't streamed per-line in these
		// modes, matching buildFileResult, which only
		// emits per-line content in "content" mode.
		if s.p.mode.filesWithMatches {
			return false, nil // one match is enough to know the answer
		}
		return true, nil
	}

	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.mode.lineNumber {
		fmt.Fprintf(s.p.w, "%s:%d:%s", s.path, m.LineNumber, trimTrailingNewline(m.Bytes))
	} else {
		fmt.Fprintf(s.p.w, "%s:%s", s.path, trimTrailingNewline(m.Bytes))
	}
	s.p.w.WriteByte('\n')
	return true, nil
}

func (s *fileSink) Context(c search.SinkContext) (bool, error) {
	if s.p.mode.count || s.p.mode.filesWithMatches || s.p.mode.filesWithoutMatch {
		return true, nil
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.mode.lineNumber {
		fmt.Fprintf(s.p.w, "%s-%d-%s", s.path, c.LineNumber, trimTrailingNewline(c.Bytes))
	} else {
		fmt.Fprintf(s.p.w, "%s-%s", s.path, trimTrailingNewline(c.Bytes))
	}
	s.p.w.WriteByte('\n')
	return true, nil
}

func (s *fileSink) ContextBreak() (bool, error) {
	if s.p.mode.count || s.p.mode.filesWithMatches || s.p.mode.filesWithoutMatch {
		return true, nil
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.w.WriteString("--\n")
	return true, nil
}

func (s *fileSink) Finish(path string, stats search.Stats) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	switch {
	case s.p.mode.filesWithMatches:
		if s.anyMatch || stats.Matches > 0 {
			fmt.Fprintf(s.p.w, "%s\n", path)
		}
	case s.p.mode.filesWithoutMatch:
		if !s.anyMatch && stats.Matches == 0 {
			fmt.Fprintf(s.p.w, "%s\n", path)
		}
	case s.p.mode.count:
		if stats.Matches > 0 {
			fmt.Fprintf(s.p.w, "%s:%d\n", path, stats.Matches)
		}
	}
	return s.p.w.Flush()
}

func trimTrailingNewline(b []byte) string {
	n := len(b)
	for n > 0 && (b[n-1] == '\n' || b[n-1] == '\r') {
		n--
	}
	return string(b[:n])
}
