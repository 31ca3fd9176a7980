package glob

import (
	"regexp"
	"strings"
)

// parser turns a glob pattern string into a token stream. It is a direct
// port of the ripgrep globset crate's recursive-descent parser
// (_examples/original_source/crates/globset/src/glob.rs), generalized
// only where Go's lack of `char` iteration requires a small adaptation.
type parser struct {
	glob string
	opts *Options

	runes []rune
	pos   int
	prev  rune
	have  bool // whether prev is valid

	stack [][]token
}

func (p *parser) errorf(kind ErrorKind) error {
	return &Error{Glob: p.glob, Kind: kind}
}

func (p *parser) parse() ([]token, error) {
	p.runes = []rune(p.glob)
	p.stack = [][]token{{}}

	for {
		c, ok := p.bump()
		if !ok {
			break
		}
		var err error
		switch c {
		case '?':
			err = p.pushToken(token{kind: tokAny})
		case '*':
			err = p.parseStar()
		case '[':
			err = p.parseClass()
		case '{':
			err = p.pushAlternate()
		case '}':
			err = p.popAlternate()
		case ',':
			err = p.parseComma()
		case '\\':
			err = p.parseBackslash()
		default:
			err = p.pushToken(token{kind: tokLiteral, lit: c})
		}
		if err != nil {
			return nil, err
		}
	}

	if len(p.stack) == 0 {
		return nil, p.errorf(ErrUnopenedAlternates)
	}
	if len(p.stack) > 1 {
		return nil, p.errorf(ErrUnclosedAlternates)
	}
	return p.stack[0], nil
}

func (p *parser) bump() (rune, bool) {
	p.have = true
	if p.pos >= len(p.runes) {
		p.prev = 0
		p.have = false
		return 0, false
	}
	c := p.runes[p.pos]
	p.pos++
	p.prev = c
	return c, true
}

func (p *parser) peek() (rune, bool) {
	if p.pos >= len(p.runes) {
		return 0, false
	}
	return p.runes[p.pos], true
}

func isSeparator(c rune) bool { return c == '/' }

func (p *parser) pushAlternate() error {
	if len(p.stack) > 1 {
		return p.errorf(ErrNestedAlternates)
	}
	p.stack = append(p.stack, []token{})
	return nil
}

func (p *parser) popAlternate() error {
	var alts [][]token
	for len(p.stack) >= 2 {
		top := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]
		alts = append(alts, top)
	}
	return p.pushToken(token{kind: tokAlternates, alternates: alts})
}

func (p *parser) pushToken(t token) error {
	if len(p.stack) == 0 {
		return p.errorf(ErrUnopenedAlternates)
	}
	top := len(p.stack) - 1
	p.stack[top] = append(p.stack[top], t)
	return nil
}

func (p *parser) popToken() (token, error) {
	if len(p.stack) == 0 {
		return token{}, p.errorf(ErrUnopenedAlternates)
	}
	top := len(p.stack) - 1
	n := len(p.stack[top])
	if n == 0 {
		return token{}, p.errorf(ErrUnopenedAlternates)
	}
	t := p.stack[top][n-1]
	p.stack[top] = p.stack[top][:n-1]
	return t, nil
}

func (p *parser) haveTokens() (bool, error) {
	if len(p.stack) == 0 {
		return false, p.errorf(ErrUnopenedAlternates)
	}
	return len(p.stack[len(p.stack)-1]) > 0, nil
}

func (p *parser) parseComma() error {
	// Outside a {...} group, a comma is just a literal character.
	if len(p.stack) <= 1 {
		return p.pushToken(token{kind: tokLiteral, lit: ','})
	}
	p.stack = append(p.stack, []token{})
	return nil
}

func (p *parser) parseBackslash() error {
	if p.opts.BackslashEscape {
		c, ok := p.bump()
		if !ok {
			return p.errorf(ErrDanglingEscape)
		}
		return p.pushToken(token{kind: tokLiteral, lit: c})
	}
	return p.pushToken(token{kind: tokLiteral, lit: '\\'})
}

// parseStar implements the `*`/`**` disambiguation exactly as the
// ripgrep source does: a bare `*` is ZeroOrMore; a `**` is only special
// when it stands alone as a whole path component (bounded by `/`, the
// start, the end, or a `{`/`,`/`}` alternate boundary).
func (p *parser) parseStar() error {
	var prev rune
	havePrev := p.pos >= 2
	if havePrev {
		prev = p.runes[p.pos-2]
	}

	next, hasNext := p.peek()
	if !hasNext || next != '*' {
		return p.pushToken(token{kind: tokZeroOrMore})
	}
	// consume the second '*'
	p.bump()

	have, err := p.haveTokens()
	if err != nil {
		return err
	}
	if !have {
		following, hasFollowing := p.peek()
		if hasFollowing && !isSeparator(following) {
			if err := p.pushToken(token{kind: tokZeroOrMore}); err != nil {
				return err
			}
			return p.pushToken(token{kind: tokZeroOrMore})
		}
		if hasFollowing {
			p.bump() // consume the separator
		}
		return p.pushToken(token{kind: tokRecursivePrefix})
	}

	prevIsSep := havePrev && isSeparator(prev)
	if !prevIsSep {
		atTop := len(p.stack) <= 1
		prevIsAltBoundary := prev == ',' || prev == '{'
		if atTop || !prevIsAltBoundary {
			if err := p.pushToken(token{kind: tokZeroOrMore}); err != nil {
				return err
			}
			return p.pushToken(token{kind: tokZeroOrMore})
		}
	}

	var isSuffix bool
	following, hasFollowing := p.peek()
	switch {
	case !hasFollowing:
		isSuffix = true
	case (following == ',' || following == '}') && len(p.stack) >= 2:
		isSuffix = true
	case isSeparator(following):
		p.bump() // consume the separator
		isSuffix = false
	default:
		if err := p.pushToken(token{kind: tokZeroOrMore}); err != nil {
			return err
		}
		return p.pushToken(token{kind: tokZeroOrMore})
	}

	last, err := p.popToken()
	if err != nil {
		return err
	}
	switch last.kind {
	case tokRecursivePrefix:
		return p.pushToken(token{kind: tokRecursivePrefix})
	case tokRecursiveSuffix:
		return p.pushToken(token{kind: tokRecursiveSuffix})
	default:
		if isSuffix {
			return p.pushToken(token{kind: tokRecursiveSuffix})
		}
		return p.pushToken(token{kind: tokRecursiveZeroOrMore})
	}
}

func (p *parser) parseClass() error {
	var ranges []classRange
	negated := false
	if n, ok := p.peek(); ok && (n == '!' || n == '^') {
		p.bump()
		negated = true
	}

	first := true
	inRange := false
	for {
		c, ok := p.bump()
		if !ok {
			return p.errorf(ErrUnclosedClass)
		}
		switch c {
		case ']':
			if first {
				ranges = append(ranges, classRange{']', ']'})
			} else {
				goto closed
			}
		case '-':
			switch {
			case first:
				ranges = append(ranges, classRange{'-', '-'})
			case inRange:
				ranges[len(ranges)-1].hi = '-'
				if err := checkRange(p.glob, ranges[len(ranges)-1]); err != nil {
					return err
				}
				inRange = false
			default:
				inRange = true
			}
		default:
			if inRange {
				ranges[len(ranges)-1].hi = c
				if err := checkRange(p.glob, ranges[len(ranges)-1]); err != nil {
					return err
				}
			} else {
				ranges = append(ranges, classRange{c, c})
			}
			inRange = false
		}
		first = false
	}
closed:
	if inRange {
		ranges = append(ranges, classRange{'-', '-'})
	}
	return p.pushToken(token{kind: tokClass, negated: negated, ranges: ranges})
}

func checkRange(glob string, r classRange) error {
	if r.hi < r.lo {
		return &Error{Glob: glob, Kind: ErrInvalidRange}
	}
	return nil
}

// tokensToRegex converts a token stream into a byte-anchored regex,
// matching the ripgrep source's Tokens::to_regex_with exactly (including
// the whole-pattern "**" special case).
func tokensToRegex(tokens []token, opts *Options) string {
	// The Rust source prefixes with "(?-u)" to switch its regex engine into
	// byte-oriented (non-Unicode) matching. Go's regexp package has no such
	// mode — it always matches UTF-8 strings — so there's nothing to
	// translate; paths are matched as strings throughout this package.
	var b strings.Builder
	if opts.CaseInsensitive {
		b.WriteString("(?i)")
	}
	b.WriteByte('^')
	if len(tokens) == 1 && tokens[0].kind == tokRecursivePrefix {
		b.WriteString(".*$")
		return b.String()
	}
	writeTokens(&b, tokens, opts)
	b.WriteByte('$')
	return b.String()
}

func writeTokens(b *strings.Builder, tokens []token, opts *Options) {
	for _, t := range tokens {
		switch t.kind {
		case tokLiteral:
			b.WriteString(escapeLiteral(t.lit))
		case tokAny:
			if opts.LiteralSeparator {
				b.WriteString("[^/]")
			} else {
				b.WriteString(".")
			}
		case tokZeroOrMore:
			if opts.LiteralSeparator {
				b.WriteString("[^/]*")
			} else {
				b.WriteString(".*")
			}
		case tokRecursivePrefix:
			b.WriteString("(?:/?|.*/)")
		case tokRecursiveSuffix:
			b.WriteString("/.*")
		case tokRecursiveZeroOrMore:
			b.WriteString("(?:/|/.*/)")
		case tokClass:
			b.WriteByte('[')
			if t.negated {
				b.WriteByte('^')
			}
			for _, r := range t.ranges {
				if r.lo == r.hi {
					b.WriteString(escapeLiteral(r.lo))
				} else {
					b.WriteString(escapeLiteral(r.lo))
					b.WriteByte('-')
					b.WriteString(escapeLiteral(r.hi))
				}
			}
			b.WriteByte(']')
		case tokAlternates:
			var parts []string
			for _, alt := range t.alternates {
				var sub strings.Builder
				writeTokens(&sub, alt, opts)
				if sub.Len() > 0 || opts.EmptyAlternates {
					parts = append(parts, sub.String())
				}
			}
			if len(parts) > 0 {
				b.WriteString("(?:")
				b.WriteString(strings.Join(parts, "|"))
				b.WriteByte(')')
			}
		}
	}
}

// escapeLiteral renders a rune as an escaped regex literal. Unlike the
// Rust source, Go's regexp operates on UTF-8 strings rather than
// arbitrary bytes, so regexp.QuoteMeta on the rune's UTF-8 encoding is
// sufficient; there's no need for the source's \xNN byte-escape fallback.
func escapeLiteral(r rune) string {
	return regexp.QuoteMeta(string(r))
}
