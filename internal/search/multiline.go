package search

import (
	"io"
)

// ErrHeapLimitExceeded is returned when a whole-buffer (multiline) read
// would exceed Config.HeapLimit, the multiline strategy's half of
// spec.md §3's `heap_limit` field (lines.go / linebuffer.go bound the
// line-by-line strategy's per-line allocation the same way).
type errHeapLimitExceeded struct{}

func (errHeapLimitExceeded) Error() string { return "search: heap limit exceeded reading file" }

var ErrHeapLimitExceeded error = errHeapLimitExceeded{}

// searchMultiline runs the whole-buffer search strategy (grounded on
// grepFileMultiline/byteOffsetToLine): read the entire
// input, find every match with the pattern allowed to span line
// terminators, then map each match's byte range back onto the lines it
// covers. Used whenever Config.Multiline is set or the pattern itself
// can match a newline (Searcher decides which).
//
// The read is bounded by Config.HeapLimit (0 meaning unlimited): rather
// than buffering the whole reader and checking its size afterward, a
// LimitReader caps how much is ever read into memory, so a pathological
// multi-gigabyte input fails fast instead of first being fully
// materialized.
func searchMultiline(r io.Reader, m Matcher, cfg Config, sink Sink) (Stats, error) {
	var data []byte
	var err error
	if cfg.HeapLimit > 0 {
		// Capped one byte past the limit purely so the buffer's final
		// size tells us whether the real input exceeded it, without
		// reading any further than necessary to know that.
		data, err = io.ReadAll(io.LimitReader(r, cfg.HeapLimit+1))
	} else {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return Stats{}, err
	}
	return searchMultilineBytes(data, m, cfg, sink)
}

// searchMultilineBytes is searchMultiline's core, operating on an
// already-resident buffer. Factored out so a caller that already has
// the whole file in memory without a read of its own — SearchBytes, or
// the mmap strategy in searcher.go — can reuse it without a redundant
// copy. The HeapLimit check lives here rather than only in
// searchMultiline's read loop, so it applies uniformly no matter how
// the buffer was obtained.
func searchMultilineBytes(data []byte, m Matcher, cfg Config, sink Sink) (Stats, error) {
	if cfg.HeapLimit > 0 && int64(len(data)) > cfg.HeapLimit {
		return Stats{}, ErrHeapLimitExceeded
	}

	var stats Stats
	stats.BytesSearched = int64(len(data))

	if cfg.BinaryDetection != BinaryNone {
		if idx := indexNUL(data); idx >= 0 {
			if cfg.BinaryDetection == BinaryQuit {
				cont, serr := sink.BinaryData(int64(idx))
				if serr != nil || !cont {
					return stats, serr
				}
				return stats, nil
			}
			convertBinary(data, cfg.LineTerminator.Byte())
		}
	}

	term := cfg.LineTerminator.Byte()
	lineStarts := computeLineStarts(data, term)

	var matchedLines map[int]bool
	if cfg.InvertMatch {
		matchedLines = invertedMatchLines(data, m, lineStarts)
	} else {
		matchedLines = make(map[int]bool)
		start := 0
		for start <= len(data) {
			begin, end, ok := m.FindMatch(data, start)
			if !ok {
				break
			}
			startLine := lineOf(lineStarts, begin)
			endPos := end - 1
			if endPos < begin {
				endPos = begin
			}
			endLine := lineOf(lineStarts, endPos)
			if end > begin && end <= len(data) && data[end-1] == term && endLine > startLine {
				endLine--
			}
			for l := startLine; l <= endLine; l++ {
				matchedLines[l] = true
			}
			if end == begin {
				start = end + 1
			} else {
				start = end
			}
		}
	}

	return emitMultilineMatches(data, lineStarts, matchedLines, cfg, sink, stats)
}

func computeLineStarts(data []byte, term byte) []int {
	starts := []int{0}
	for i, c := range data {
		if c == term && i+1 < len(data) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineOf(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func lineBounds(data []byte, starts []int, lineIdx int) (int, int) {
	start := starts[lineIdx-1]
	end := len(data)
	if lineIdx < len(starts) {
		end = starts[lineIdx]
	}
	return start, end
}

func invertedMatchLines(data []byte, m Matcher, starts []int) map[int]bool {
	result := make(map[int]bool)
	for i := range starts {
		lineIdx := i + 1
		s, e := lineBounds(data, starts, lineIdx)
		if !m.IsMatch(data[s:e]) {
			result[lineIdx] = true
		}
	}
	return result
}

// emitMultilineMatches walks every line in order, grouping contiguous
// runs of matchedLines into a single SinkMatch (spec.md §6: a
// multi-line match is reported as one block, not one event per line,
// the same way ripgrep's PrinterStats counts a multiline match once)
// and interleaving before/after context the same way searchLines does.
// In passthru mode every non-matched line is reported as
// SinkContext(ContextOther) instead, and before/after context is
// skipped entirely: the passthru branch takes every non-matched line
// before any context bookkeeping (searchLines instead zeroes the
// context counts).
func emitMultilineMatches(data []byte, starts []int, matchedLines map[int]bool, cfg Config, sink Sink, stats Stats) (Stats, error) {
	if len(matchedLines) == 0 {
		return stats, nil
	}

	before := make([]int, 0, cfg.BeforeContext)
	afterRemaining := 0
	lastLine := 0
	sawMatch := false
	numLines := len(starts)

	for i := 0; i < numLines; {
		lineIdx := i + 1
		if !matchedLines[lineIdx] {
			s, e := lineBounds(data, starts, lineIdx)
			lineBytes := data[s:e]
			offset := int64(s)

			if cfg.Passthru {
				cont, err := sink.Context(SinkContext{Bytes: lineBytes, LineNumber: lineIdx, AbsoluteByteOffset: offset, Kind: ContextOther})
				if err != nil || !cont {
					return stats, err
				}
				i++
				continue
			}
			if cfg.StopOnNonmatch && sawMatch && afterRemaining == 0 {
				break
			}
			if afterRemaining > 0 {
				cont, err := sink.Context(SinkContext{Bytes: lineBytes, LineNumber: lineIdx, AbsoluteByteOffset: offset, Kind: ContextAfter})
				if err != nil || !cont {
					return stats, err
				}
				afterRemaining--
				lastLine = lineIdx
			} else if cfg.BeforeContext > 0 {
				before = append(before, lineIdx)
				if len(before) > cfg.BeforeContext {
					before = before[len(before)-cfg.BeforeContext:]
				}
			}
			i++
			continue
		}

		runEnd := lineIdx
		for runEnd < numLines && matchedLines[runEnd+1] {
			runEnd++
		}

		first := lineIdx
		if len(before) > 0 {
			first = before[0]
		}
		if lastLine > 0 && first > lastLine+1 && !cfg.Passthru && (cfg.BeforeContext > 0 || cfg.AfterContext > 0) {
			cont, err := sink.ContextBreak()
			if err != nil || !cont {
				return stats, err
			}
		}
		for _, bl := range before {
			bs, be := lineBounds(data, starts, bl)
			cont, err := sink.Context(SinkContext{Bytes: data[bs:be], LineNumber: bl, AbsoluteByteOffset: int64(bs), Kind: ContextBefore})
			if err != nil || !cont {
				return stats, err
			}
		}
		before = before[:0]

		blockStart, _ := lineBounds(data, starts, lineIdx)
		_, blockEnd := lineBounds(data, starts, runEnd)

		stats.Matches++
		sawMatch = true
		cont, err := sink.Matched(SinkMatch{
			Bytes:              data[blockStart:blockEnd],
			LineNumber:         lineIdx,
			AbsoluteByteOffset: int64(blockStart),
		})
		if err != nil || !cont {
			return stats, err
		}
		afterRemaining = cfg.AfterContext
		lastLine = runEnd
		i = runEnd
	}

	return stats, nil
}
