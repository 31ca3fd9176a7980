package search

import (
	"regexp"
	"regexp/syntax"
)

// Matcher is the capability interface a Searcher needs from a pattern
// (spec.md §6). Keeping it an interface, rather than hard-coding
// *regexp.Regexp everywhere, is grounded on grep.go
// passing a *regexp.Regexp through every search function by parameter
// rather than a concrete global — the searcher is built to take
// whatever satisfies the needed shape.
type Matcher interface {
	// FindMatch returns the byte range of the leftmost match in b at or
	// after byte offset start, or ok=false if there's none.
	FindMatch(b []byte, start int) (begin, end int, ok bool)
	// IsMatch reports whether b contains any match.
	IsMatch(b []byte) bool
}

// RegexMatcher adapts a compiled regexp.Regexp to Matcher. This is the
// only Matcher implementation rgrep ships: grep.go compiles every
// pattern with the stdlib regexp package (compileGrepRegex),
// and spec.md's pattern language is the RE2 syntax regexp already
// implements, so there's no ecosystem regex engine this needs beyond
// what grep.go already reaches for.
type RegexMatcher struct {
	re *regexp.Regexp
}

// NewRegexMatcher compiles pattern, honoring caseInsensitive the way
// grep.go's compileGrepRegex does: by prefixing the expression
// with the "(?i)" inline flag rather than post-processing the
// compiled program.
func NewRegexMatcher(pattern string, caseInsensitive bool) (*RegexMatcher, error) {
	expr := pattern
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RegexMatcher{re: re}, nil
}

func (m *RegexMatcher) FindMatch(b []byte, start int) (int, int, bool) {
	if start > len(b) {
		return 0, 0, false
	}
	loc := m.re.FindIndex(b[start:])
	if loc == nil {
		return 0, 0, false
	}
	return start + loc[0], start + loc[1], true
}

func (m *RegexMatcher) IsMatch(b []byte) bool {
	return m.re.Match(b)
}

// MatchesNewline reports whether the compiled pattern can itself match
// a newline byte, the condition under which Searcher must force
// multiline mode regardless of Config.Multiline (spec.md §6 "multiline
// is required whenever the pattern can span a line terminator").
func (m *RegexMatcher) MatchesNewline() bool {
	if parsed, err := syntax.Parse(m.re.String(), syntax.Perl); err == nil {
		if prog, err := syntax.Compile(parsed.Simplify()); err == nil {
			for _, inst := range prog.Inst {
				if inst.Op == syntax.InstRune1 && inst.Rune[0] == '\n' {
					return true
				}
			}
		}
	}
	if m.re.MatchString("\n") {
		return true
	}
	if loc := m.re.FindIndex([]byte("a\nb")); loc != nil && loc[1]-loc[0] > 1 {
		return true
	}
	return false
}
