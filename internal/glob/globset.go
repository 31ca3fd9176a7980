package glob

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// maxLiteralLen bounds how much of a Candidate's path we keep around for
// prefix/suffix strategy matching. The globset crate only ever tests the
// end/start of a path against patterns whose literal run is short
// (the longest literal any realistic glob produces), so there's no need
// to retain or compare the whole path string for this purpose — it just
// costs more to scan. 256 bytes comfortably covers normal glob patterns;
// a prefix/suffix longer than that degrades to the regex-set fallback
// instead of being dropped.
const maxLiteralLen = 256

// Candidate is a precomputed view of a path, built once and tested
// against every Glob in a GlobSet. Constructing it is O(len(path));
// every other GlobSet operation on it is then O(1+hits) (spec.md §3).
type Candidate struct {
	path     string
	basename string
	ext      string
	prefix   string // path, truncated to maxLiteralLen
	suffix   string // path, truncated to maxLiteralLen from the end
}

// NewCandidate builds a Candidate from a slash-normalized path.
func NewCandidate(p string) *Candidate {
	p = normalizePath(p)
	base := path.Base(p)
	ext := ""
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		ext = base[i:]
	}
	c := &Candidate{path: p, basename: base, ext: ext}
	if len(p) <= maxLiteralLen {
		c.prefix, c.suffix = p, p
	} else {
		c.prefix = p[:maxLiteralLen]
		c.suffix = p[len(p)-maxLiteralLen:]
	}
	return c
}

func (c *Candidate) Path() string { return c.path }

// globEntry pairs a compiled Glob with its index in the set and the
// strategy it was classified under, so GlobSet.Matches can report which
// original patterns matched (spec.md §4.1 "match indices").
type globEntry struct {
	idx      int
	glob     *Glob
	strategy matchStrategy
}

// GlobSet is an immutable collection of compiled Globs, indexed by
// MatchStrategy so that Matches(path) never evaluates a pattern whose
// strategy table rules it out (spec.md §3, §4.1).
type GlobSet struct {
	entries []globEntry

	literal         map[string][]int
	basenameLiteral map[string][]int
	extension       map[string][]int
	prefixes        []globEntry
	suffixes        []globEntry
	requiredExt     map[string][]globEntry
	regexSet        []globEntry // regex + required-extension entries, tested by Regex()

	// stats are cumulative classification counts, exposed via Stats for
	// diagnostics and tests — not consulted during matching.
	stats Stats
}

// Stats summarizes how a GlobSet's patterns were classified. It exists
// purely for introspection (tests, `--debug` style tooling) and plays no
// part in matching itself.
type Stats struct {
	Literal         int
	BasenameLiteral int
	Extension       int
	Prefix          int
	Suffix          int
	RequiredExt     int
	Regex           int
}

// Stats reports how gs's patterns were classified at build time.
func (gs *GlobSet) Stats() Stats { return gs.stats }

// Len reports the number of patterns in the set.
func (gs *GlobSet) Len() int { return len(gs.entries) }

// IsEmpty reports whether the set has no patterns; an empty GlobSet
// never matches anything.
func (gs *GlobSet) IsEmpty() bool { return len(gs.entries) == 0 }

// IsMatch reports whether path matches any pattern in the set.
func (gs *GlobSet) IsMatch(path string) bool {
	return gs.IsMatchCandidate(NewCandidate(path))
}

// IsMatchCandidate is IsMatch for a precomputed Candidate, avoiding
// recomputation when the same path is tested against multiple sets
// (spec.md §4.1, used heavily by the ignore engine's per-directory
// GlobSets).
func (gs *GlobSet) IsMatchCandidate(c *Candidate) bool {
	if _, ok := gs.literal[c.path]; ok {
		return true
	}
	if _, ok := gs.basenameLiteral[c.basename]; ok {
		return true
	}
	if _, ok := gs.extension[strings.TrimPrefix(c.ext, ".")]; ok {
		return true
	}
	for _, e := range gs.prefixes {
		if strings.HasPrefix(c.prefix, e.strategy.prefix) {
			return true
		}
	}
	for _, e := range gs.suffixes {
		if matchesSuffix(c, e.strategy) {
			return true
		}
	}
	for _, e := range gs.regexSet {
		if e.strategy.kind == stRequiredExtension {
			ext := strings.TrimPrefix(c.ext, ".")
			if ext != strings.TrimPrefix(e.strategy.lit, ".") {
				continue
			}
		}
		if e.glob.re.MatchString(c.path) {
			return true
		}
	}
	return false
}

func matchesSuffix(c *Candidate, s matchStrategy) bool {
	if strings.HasSuffix(c.suffix, s.suffix) {
		return true
	}
	return s.component && c.path == s.suffix[1:]
}

// Matches returns the indices (in build order) of every pattern that
// matches path. Used where callers need to know *which* rule matched,
// e.g. override reporting (spec.md §4.1).
func (gs *GlobSet) Matches(path string) []int {
	return gs.MatchesCandidate(NewCandidate(path))
}

// MatchesCandidate is Matches for a precomputed Candidate.
func (gs *GlobSet) MatchesCandidate(c *Candidate) []int {
	var out []int
	seen := make(map[int]bool)
	add := func(idxs []int) {
		for _, i := range idxs {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	add(gs.literal[c.path])
	add(gs.basenameLiteral[c.basename])
	add(gs.extension[strings.TrimPrefix(c.ext, ".")])
	for _, e := range gs.prefixes {
		if strings.HasPrefix(c.prefix, e.strategy.prefix) && !seen[e.idx] {
			seen[e.idx] = true
			out = append(out, e.idx)
		}
	}
	for _, e := range gs.suffixes {
		if matchesSuffix(c, e.strategy) && !seen[e.idx] {
			seen[e.idx] = true
			out = append(out, e.idx)
		}
	}
	for _, e := range gs.regexSet {
		if seen[e.idx] {
			continue
		}
		if e.strategy.kind == stRequiredExtension {
			ext := strings.TrimPrefix(c.ext, ".")
			if ext != strings.TrimPrefix(e.strategy.lit, ".") {
				continue
			}
		}
		if e.glob.re.MatchString(c.path) {
			seen[e.idx] = true
			out = append(out, e.idx)
		}
	}
	sort.Ints(out)
	return out
}

// GlobSetBuilder accumulates patterns and compiles them into a GlobSet.
type GlobSetBuilder struct {
	globs []*Glob
	err   error
}

// NewGlobSetBuilder creates an empty builder.
func NewGlobSetBuilder() *GlobSetBuilder { return &GlobSetBuilder{} }

// Add compiles pat with opts and appends it to the builder. Errors are
// sticky: the first one is returned from Build, so callers can chain
// Add calls without checking each one (mirrors globset::GlobSetBuilder).
func (b *GlobSetBuilder) Add(pat string, opts Options) *GlobSetBuilder {
	if b.err != nil {
		return b
	}
	g, err := (&Builder{pattern: pat, opts: opts}).Build()
	if err != nil {
		b.err = err
		return b
	}
	b.globs = append(b.globs, g)
	return b
}

// AddGlob appends an already-compiled Glob.
func (b *GlobSetBuilder) AddGlob(g *Glob) *GlobSetBuilder {
	b.globs = append(b.globs, g)
	return b
}

// Build classifies every accumulated Glob and partitions it into the
// strategy tables GlobSet.Matches dispatches through.
func (b *GlobSetBuilder) Build() (*GlobSet, error) {
	if b.err != nil {
		return nil, b.err
	}
	gs := &GlobSet{
		literal:         map[string][]int{},
		basenameLiteral: map[string][]int{},
		extension:       map[string][]int{},
		requiredExt:     map[string][]globEntry{},
	}
	for i, g := range b.globs {
		s := classify(g)
		if (s.kind == stPrefix && len(s.prefix) > maxLiteralLen) || (s.kind == stSuffix && len(s.suffix) > maxLiteralLen) {
			s = matchStrategy{kind: stRegex}
		}
		e := globEntry{idx: i, glob: g, strategy: s}
		gs.entries = append(gs.entries, e)
		switch s.kind {
		case stLiteral:
			gs.literal[s.lit] = append(gs.literal[s.lit], i)
			gs.stats.Literal++
		case stBasenameLiteral:
			gs.basenameLiteral[s.lit] = append(gs.basenameLiteral[s.lit], i)
			gs.stats.BasenameLiteral++
		case stExtension:
			ext := strings.TrimPrefix(s.lit, ".")
			gs.extension[ext] = append(gs.extension[ext], i)
			gs.stats.Extension++
		case stPrefix:
			gs.prefixes = append(gs.prefixes, e)
			gs.stats.Prefix++
		case stSuffix:
			gs.suffixes = append(gs.suffixes, e)
			gs.stats.Suffix++
		case stRequiredExtension:
			gs.requiredExt[s.lit] = append(gs.requiredExt[s.lit], e)
			gs.regexSet = append(gs.regexSet, e)
			gs.stats.RequiredExt++
		default:
			gs.regexSet = append(gs.regexSet, e)
			gs.stats.Regex++
		}
	}
	return gs, nil
}

// compileAlternation folds many literal patterns into a single anchored
// regexp.Regexp, quoting each one, for cases where a plain alternation
// is enough rather than a full GlobSet.
func compileAlternation(lits []string) (*regexp.Regexp, error) {
	parts := make([]string, len(lits))
	for i, l := range lits {
		parts[i] = regexp.QuoteMeta(l)
	}
	return regexp.Compile("^(?:" + strings.Join(parts, "|") + ")$")
}
