package ignore

import "github.com/tjbck/rgrep/internal/glob"

// Override is the highest-precedence rule source (spec.md §4.2):
// user-supplied `-g`/`--glob` patterns that bypass every ignore file.
// A leading '!' whitelists rather than excludes, matching the
// command-line convention the rest of this package's gitignore-format
// parsing already uses.
type Override struct {
	ignore    *glob.GlobSet
	whitelist *glob.GlobSet
}

// OverrideBuilder accumulates `-g` patterns.
type OverrideBuilder struct {
	ignoreB    *glob.GlobSetBuilder
	whitelistB *glob.GlobSetBuilder
	n          int
}

func NewOverrideBuilder() *OverrideBuilder {
	return &OverrideBuilder{
		ignoreB:    glob.NewGlobSetBuilder(),
		whitelistB: glob.NewGlobSetBuilder(),
	}
}

// Add compiles one `-g` pattern. A pattern beginning with '!' is a
// whitelist entry; otherwise it's an ignore entry. Patterns are matched
// case-insensitively only if the caller built them that way via
// AddCaseInsensitive.
func (b *OverrideBuilder) Add(pattern string) *OverrideBuilder {
	return b.add(pattern, glob.DefaultOptions())
}

func (b *OverrideBuilder) AddCaseInsensitive(pattern string) *OverrideBuilder {
	opts := glob.DefaultOptions()
	opts.CaseInsensitive = true
	return b.add(pattern, opts)
}

func (b *OverrideBuilder) add(pattern string, opts glob.Options) *OverrideBuilder {
	whitelist := false
	if len(pattern) > 0 && pattern[0] == '!' {
		whitelist = true
		pattern = pattern[1:]
	}
	b.n++
	if whitelist {
		b.whitelistB.Add(pattern, opts)
	} else {
		b.ignoreB.Add(pattern, opts)
	}
	return b
}

// Build compiles the accumulated patterns into an Override.
func (b *OverrideBuilder) Build() (*Override, error) {
	ig, err := b.ignoreB.Build()
	if err != nil {
		return nil, err
	}
	wl, err := b.whitelistB.Build()
	if err != nil {
		return nil, err
	}
	return &Override{ignore: ig, whitelist: wl}, nil
}

// IsEmpty reports whether no `-g` patterns were ever added.
func (o *Override) IsEmpty() bool { return o == nil || (o.ignore.IsEmpty() && o.whitelist.IsEmpty()) }

// Matched tests relPath (relative to the search root, since overrides
// aren't scoped to a single directory) against the compiled patterns.
// Whitelist patterns are checked first: spec.md §4.2 gives the most
// recently added matching override priority, and in practice a
// whitelist is only ever used to re-include something an ignore
// pattern in the same set would otherwise exclude.
func (o *Override) Matched(relPath string, isDir bool) Match {
	if o == nil {
		return None
	}
	if o.whitelist.IsMatch(relPath) {
		return Match{Kind: KindWhitelist, Source: SourceOverride}
	}
	if o.ignore.IsMatch(relPath) {
		return Match{Kind: KindIgnore, Source: SourceOverride}
	}
	return None
}
