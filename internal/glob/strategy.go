package glob

import "strings"

// strategyKind is the classification a Glob is reduced to at GlobSet
// build time (spec.md §3 "MatchStrategy"). The set and priority order
// mirror the ripgrep globset crate's MatchStrategy::new exactly.
type strategyKind int

const (
	stLiteral strategyKind = iota
	stBasenameLiteral
	stExtension
	stPrefix
	stSuffix
	stRequiredExtension
	stRegex
)

type matchStrategy struct {
	kind      strategyKind
	lit       string // Literal, BasenameLiteral, Extension, RequiredExtension
	prefix    string
	suffix    string
	component bool // Suffix: must begin a path component
}

// classify inspects g's token stream in the fixed priority order spec.md
// §4.1 describes and returns the cheapest strategy that never
// over-matches g (spec.md §3 invariant).
func classify(g *Glob) matchStrategy {
	if lit, ok := basenameLiteral(g); ok {
		return matchStrategy{kind: stBasenameLiteral, lit: lit}
	}
	if lit, ok := literal(g); ok {
		return matchStrategy{kind: stLiteral, lit: lit}
	}
	if ext, ok := extension(g); ok {
		return matchStrategy{kind: stExtension, lit: ext}
	}
	if pre, ok := prefix(g); ok {
		return matchStrategy{kind: stPrefix, prefix: pre}
	}
	if suf, component, ok := suffix(g); ok {
		return matchStrategy{kind: stSuffix, suffix: suf, component: component}
	}
	if ext, ok := requiredExtension(g); ok {
		return matchStrategy{kind: stRequiredExtension, lit: ext}
	}
	return matchStrategy{kind: stRegex}
}

// literal returns the whole pattern as a literal string, valid only when
// every token is a literal rune and the glob is case-sensitive.
func literal(g *Glob) (string, bool) {
	if g.opts.CaseInsensitive {
		return "", false
	}
	var b strings.Builder
	for _, t := range g.tokens {
		if t.kind != tokLiteral {
			return "", false
		}
		b.WriteRune(t.lit)
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// extension recognizes "*.ext" (or "**/*.ext") patterns where the
// leading "*" is free to match anything up to the literal dot, because
// without LiteralSeparator "*" already matches "/".
func extension(g *Glob) (string, bool) {
	if g.opts.CaseInsensitive {
		return "", false
	}
	start := 0
	if len(g.tokens) > 0 && g.tokens[0].kind == tokRecursivePrefix {
		start = 1
	}
	if start >= len(g.tokens) || g.tokens[start].kind != tokZeroOrMore {
		return "", false
	}
	if start == 0 && g.opts.LiteralSeparator {
		return "", false
	}
	if start+1 >= len(g.tokens) || g.tokens[start+1].kind != tokLiteral || g.tokens[start+1].lit != '.' {
		return "", false
	}
	var b strings.Builder
	b.WriteByte('.')
	for _, t := range g.tokens[start+2:] {
		if t.kind != tokLiteral || t.lit == '.' || t.lit == '/' {
			return "", false
		}
		b.WriteRune(t.lit)
	}
	if b.Len() == 1 {
		return "", false
	}
	return b.String(), true
}

// requiredExtension is like extension but doesn't require the rest of
// the pattern to be a trivial "*" prefix: it only requires the pattern
// to literally end in ".ext", which is necessary-but-not-sufficient.
func requiredExtension(g *Glob) (string, bool) {
	if g.opts.CaseInsensitive {
		return "", false
	}
	var rev []rune
	for i := len(g.tokens) - 1; i >= 0; i-- {
		t := g.tokens[i]
		if t.kind != tokLiteral || t.lit == '/' {
			if t.kind == tokLiteral && t.lit == '/' {
				return "", false
			}
			return "", false
		}
		rev = append(rev, t.lit)
		if t.lit == '.' {
			break
		}
	}
	if len(rev) == 0 || rev[len(rev)-1] != '.' {
		return "", false
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return string(rev), true
}

// prefix returns a literal prefix that the whole pattern reduces to,
// valid only when the remainder of the pattern (after the prefix) can't
// change whether the prefix matched implies the whole pattern matched.
func prefix(g *Glob) (string, bool) {
	if g.opts.CaseInsensitive {
		return "", false
	}
	n := len(g.tokens)
	end := n
	needSep := false
	if n > 0 {
		last := g.tokens[n-1]
		switch last.kind {
		case tokZeroOrMore:
			if g.opts.LiteralSeparator {
				return "", false
			}
			end = n - 1
		case tokRecursiveSuffix:
			end = n - 1
			needSep = true
		}
	}
	var b strings.Builder
	for _, t := range g.tokens[:end] {
		if t.kind != tokLiteral {
			return "", false
		}
		b.WriteRune(t.lit)
	}
	if needSep {
		b.WriteByte('/')
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// suffix returns a literal suffix the whole pattern reduces to. When
// component is true the suffix must either equal the whole path (minus
// its leading '/') or be preceded by '/' — it can't just happen to be a
// substring suffix of some longer final component.
func suffix(g *Glob) (string, bool, bool) {
	if g.opts.CaseInsensitive {
		return "", false, false
	}
	var b strings.Builder
	start := 0
	entire := false
	if len(g.tokens) > 0 && g.tokens[0].kind == tokRecursivePrefix {
		if len(g.tokens) > 1 && g.tokens[1].kind == tokLiteral {
			b.WriteByte('/')
			start, entire = 1, true
		} else {
			start = 1
		}
	}
	if start < len(g.tokens) && g.tokens[start].kind == tokZeroOrMore {
		if g.opts.LiteralSeparator {
			return "", false, false
		}
		start++
	}
	for _, t := range g.tokens[start:] {
		if t.kind != tokLiteral {
			return "", false, false
		}
		b.WriteRune(t.lit)
	}
	lit := b.String()
	if lit == "" || lit == "/" {
		return "", false, false
	}
	return lit, entire, true
}

// basenameTokens returns the token slice if the pattern only ever needs
// to examine a path's basename — i.e. it starts with "**/" (or has no
// path-spanning token at all) and contains no further '/' or recursive
// tokens.
func basenameTokens(g *Glob) ([]token, bool) {
	if g.opts.CaseInsensitive {
		return nil, false
	}
	if len(g.tokens) == 0 || g.tokens[0].kind != tokRecursivePrefix {
		return nil, false
	}
	rest := g.tokens[1:]
	if len(rest) == 0 {
		return nil, false
	}
	for _, t := range rest {
		switch t.kind {
		case tokLiteral:
			if t.lit == '/' {
				return nil, false
			}
		case tokAny, tokZeroOrMore:
			if !g.opts.LiteralSeparator {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return rest, true
}

func basenameLiteral(g *Glob) (string, bool) {
	toks, ok := basenameTokens(g)
	if !ok {
		return "", false
	}
	var b strings.Builder
	for _, t := range toks {
		if t.kind != tokLiteral {
			return "", false
		}
		b.WriteRune(t.lit)
	}
	return b.String(), true
}
