package search

import (
	"errors"
	"io"
)

// contextLine is one line held in the before-context ring buffer,
// waiting to find out whether a match follows closely enough to make
// it worth reporting.
type contextLine struct {
	bytes   []byte
	lineNum int
	offset  int64
}

// searchLines runs the line-by-line search strategy (grounded on
// grepFileLineByLine): read one line at a time, test it
// against m, and report matches plus any configured before/after
// context to sink. This is the default strategy; it's used whenever
// the pattern can't itself match a newline and Config.Multiline isn't
// forced on, since it never needs more than BeforeContext+1 lines
// resident at once.
func searchLines(r io.Reader, m Matcher, cfg Config, sink Sink) (Stats, error) {
	if cfg.Passthru {
		cfg.BeforeContext = 0
		cfg.AfterContext = 0
	}

	lb := newLineBuffer(r, cfg.LineTerminator.Byte(), cfg.MaxLineLength)

	var stats Stats
	var before []contextLine
	afterRemaining := 0
	lastLine := 0
	sawMatch := false

	flushContext := func(kind ContextKind, lines []contextLine) (bool, error) {
		for _, cl := range lines {
			cont, err := sink.Context(SinkContext{
				Bytes:              cl.bytes,
				LineNumber:         cl.lineNum,
				AbsoluteByteOffset: cl.offset,
				Kind:               kind,
			})
			if err != nil || !cont {
				return cont, err
			}
		}
		return true, nil
	}

	for {
		line, lineNum, offset, err := lb.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrLineTooLong) {
			if cfg.BinaryDetection == BinaryQuit {
				cont, serr := sink.BinaryData(offset)
				if serr != nil || !cont {
					return stats, serr
				}
			}
			break
		}
		if err != nil {
			return stats, err
		}

		stats.BytesSearched += int64(len(line))

		if cfg.BinaryDetection != BinaryNone {
			if idx := indexNUL(line); idx >= 0 {
				if cfg.BinaryDetection == BinaryQuit {
					cont, serr := sink.BinaryData(offset + int64(idx))
					if serr != nil || !cont {
						return stats, serr
					}
					break
				}
				convertBinary(line, cfg.LineTerminator.Byte())
			}
		}

		isMatch := m.IsMatch(line)
		if cfg.InvertMatch {
			isMatch = !isMatch
		}

		if !isMatch {
			if cfg.Passthru {
				cont, serr := sink.Context(SinkContext{Bytes: line, LineNumber: lineNum, AbsoluteByteOffset: offset, Kind: ContextOther})
				if serr != nil || !cont {
					return stats, serr
				}
				continue
			}
			if cfg.StopOnNonmatch && sawMatch && afterRemaining == 0 {
				break
			}
			if afterRemaining > 0 {
				cont, serr := sink.Context(SinkContext{Bytes: line, LineNumber: lineNum, AbsoluteByteOffset: offset, Kind: ContextAfter})
				if serr != nil || !cont {
					return stats, serr
				}
				afterRemaining--
				lastLine = lineNum
			} else if cfg.BeforeContext > 0 {
				before = append(before, contextLine{bytes: append([]byte(nil), line...), lineNum: lineNum, offset: offset})
				if len(before) > cfg.BeforeContext {
					before = before[len(before)-cfg.BeforeContext:]
				}
			}
			continue
		}

		first := lineNum
		if len(before) > 0 {
			first = before[0].lineNum
		}
		if lastLine > 0 && first > lastLine+1 && (cfg.BeforeContext > 0 || cfg.AfterContext > 0) {
			cont, serr := sink.ContextBreak()
			if serr != nil || !cont {
				return stats, serr
			}
		}

		if len(before) > 0 {
			cont, serr := flushContext(ContextBefore, before)
			if serr != nil || !cont {
				return stats, serr
			}
			before = before[:0]
		}

		stats.Matches++
		sawMatch = true
		cont, serr := sink.Matched(SinkMatch{Bytes: line, LineNumber: lineNum, AbsoluteByteOffset: offset})
		if serr != nil || !cont {
			return stats, serr
		}
		afterRemaining = cfg.AfterContext
		lastLine = lineNum
	}

	return stats, nil
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
