// Package glob compiles shell-style glob patterns into byte-oriented
// matchers. A single Glob is a parsed pattern; a GlobSet (see globset.go)
// composes many of them into a multi-pattern matcher that picks the
// cheapest strategy for each one.
package glob

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrorKind identifies the class of a glob syntax error.
type ErrorKind int

const (
	ErrUnclosedClass ErrorKind = iota
	ErrInvalidRange
	ErrUnopenedAlternates
	ErrUnclosedAlternates
	ErrNestedAlternates
	ErrDanglingEscape
	ErrRegexCompile
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnclosedClass:
		return "unclosed character class"
	case ErrInvalidRange:
		return "invalid character range"
	case ErrUnopenedAlternates:
		return "unopened alternate group"
	case ErrUnclosedAlternates:
		return "unclosed alternate group"
	case ErrNestedAlternates:
		return "nested alternate groups"
	case ErrDanglingEscape:
		return "dangling escape"
	case ErrRegexCompile:
		return "regex compile failure"
	default:
		return "unknown glob error"
	}
}

// Error is a glob syntax error. It is fatal: it surfaces at build time,
// never at match time (spec.md §7).
type Error struct {
	Glob string
	Kind ErrorKind
}

func (e *Error) Error() string {
	if e.Glob == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("glob %q: %s", e.Glob, e.Kind)
}

// Options controls the matching semantics of a single Glob. Unlike Glob
// itself, Options has no state derived from a pattern string so it's
// cheap to share across many Builder calls.
type Options struct {
	// CaseInsensitive makes the pattern match without regard to case.
	CaseInsensitive bool
	// LiteralSeparator requires a literal '/' in the path to match a
	// literal '/' in the pattern: '*' and '?' no longer match it.
	LiteralSeparator bool
	// BackslashEscape makes '\' escape the following metacharacter
	// instead of acting as a path separator or literal character.
	BackslashEscape bool
	// EmptyAlternates allows an alternation branch to be empty, e.g.
	// "foo{,.txt}" matching both "foo" and "foo.txt".
	EmptyAlternates bool
}

// DefaultOptions returns the options used when a caller doesn't need
// non-default semantics: case-sensitive, `*`/`?` cross `/`, and `\`
// escapes the following character (this package always normalizes path
// separators to `/` before building, so treating `\` as a path separator
// the way the Rust source does on Windows doesn't apply here).
func DefaultOptions() Options {
	return Options{BackslashEscape: true}
}

// tokenKind enumerates the parsed pieces of a glob pattern.
type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokAny
	tokZeroOrMore
	tokRecursivePrefix
	tokRecursiveSuffix
	tokRecursiveZeroOrMore
	tokClass
	tokAlternates
)

type classRange struct{ lo, hi rune }

type token struct {
	kind      tokenKind
	lit       rune
	negated   bool
	ranges    []classRange
	alternates [][]token
}

// Glob is a parsed shell glob. It is immutable after construction and
// cheap to copy: the only heap-backed fields are the token slice and the
// two strings.
type Glob struct {
	pattern string
	regex   string
	re      *regexp.Regexp
	opts    Options
	tokens  []token
}

// New parses pat with DefaultOptions.
func New(pat string) (*Glob, error) {
	return NewBuilder(pat).Build()
}

// String returns the original pattern text.
func (g *Glob) String() string { return g.pattern }

// Regex returns the compiled regex string equivalent to this glob. The
// regex is byte-anchored (`^...$`) and, per spec.md §3, matches exactly
// the same byte strings the token stream denotes.
func (g *Glob) Regex() string { return g.regex }

// IsMatch reports whether path matches this glob. Building a GlobSet is
// far cheaper than calling IsMatch glob-by-glob for many patterns; this
// exists mainly for tests and one-off matches.
func (g *Glob) IsMatch(path string) bool {
	return g.re.Match([]byte(normalizePath(path)))
}

// Builder configures and compiles a Glob.
type Builder struct {
	pattern string
	opts    Options
}

// NewBuilder creates a Builder for pat using DefaultOptions.
func NewBuilder(pat string) *Builder {
	return &Builder{pattern: pat, opts: DefaultOptions()}
}

func (b *Builder) CaseInsensitive(yes bool) *Builder   { b.opts.CaseInsensitive = yes; return b }
func (b *Builder) LiteralSeparator(yes bool) *Builder  { b.opts.LiteralSeparator = yes; return b }
func (b *Builder) BackslashEscape(yes bool) *Builder   { b.opts.BackslashEscape = yes; return b }
func (b *Builder) EmptyAlternates(yes bool) *Builder   { b.opts.EmptyAlternates = yes; return b }

// Build parses and compiles the pattern.
func (b *Builder) Build() (*Glob, error) {
	p := &parser{glob: b.pattern, opts: &b.opts}
	tokens, err := p.parse()
	if err != nil {
		return nil, err
	}
	re := tokensToRegex(tokens, &b.opts)
	compiled, err := regexp.Compile(re)
	if err != nil {
		return nil, &Error{Glob: b.pattern, Kind: ErrRegexCompile}
	}
	return &Glob{
		pattern: b.pattern,
		regex:   re,
		re:      compiled,
		opts:    b.opts,
		tokens:  tokens,
	}, nil
}

// normalizePath rewrites a platform path to the forward-slash form globs
// are matched against (spec.md §6 "Path syntax").
func normalizePath(path string) string {
	if strings.IndexByte(path, '\\') == -1 {
		return path
	}
	return strings.ReplaceAll(path, "\\", "/")
}
