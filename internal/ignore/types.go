package ignore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// typeGlobs maps a file-type name to the glob patterns that identify
// it, grounded on _examples/mjkoo-boris/internal/tools/grep.go's
// typeGlobs table and extended with a selection of the language
// definitions ripgrep itself ships, for the type-filter component of
// spec.md §4.3.
var typeGlobs = map[string][]string{
	"c":          {"*.c", "*.h"},
	"cpp":        {"*.cpp", "*.cc", "*.cxx", "*.hpp", "*.hh", "*.hxx", "*.h", "*.inl"},
	"css":        {"*.css", "*.scss", "*.sass", "*.less"},
	"go":         {"*.go"},
	"html":       {"*.html", "*.htm"},
	"java":       {"*.java"},
	"js":         {"*.js", "*.mjs", "*.cjs", "*.jsx"},
	"json":       {"*.json"},
	"markdown":   {"*.md", "*.markdown", "*.mdx"},
	"py":         {"*.py", "*.pyi"},
	"rust":       {"*.rs"},
	"ts":         {"*.ts", "*.tsx", "*.mts", "*.cts"},
	"yaml":       {"*.yml", "*.yaml"},
	"toml":       {"*.toml"},
	"sh":         {"*.sh", "*.bash", "*.zsh"},
	"make":       {"Makefile", "makefile", "GNUmakefile", "*.mk"},
	"lock":       {"*.lock", "Cargo.lock", "package-lock.json", "go.sum"},
	"proto":      {"*.proto"},
	"sql":        {"*.sql"},
	"vim":        {"*.vim", "vimrc", ".vimrc"},
	"xml":        {"*.xml"},
}

// typeAliases maps an alternate spelling to its canonical type name,
// grounded on the same source.
var typeAliases = map[string]string{
	"python":     "py",
	"typescript": "ts",
	"md":         "markdown",
	"golang":     "go",
	"js2":        "js",
}

// ValidTypeNames returns every type name and alias this filter knows,
// sorted, for error messages and `--type-list`-style output.
func ValidTypeNames() []string {
	seen := map[string]bool{}
	for k := range typeGlobs {
		seen[k] = true
	}
	for k := range typeAliases {
		seen[k] = true
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// resolveTypeName resolves an alias to its canonical type name and
// looks up its glob patterns.
func resolveTypeName(name string) ([]string, error) {
	if alias, ok := typeAliases[name]; ok {
		name = alias
	}
	globs, ok := typeGlobs[name]
	if !ok {
		return nil, fmt.Errorf("unrecognized file type %q; valid types: %s", name, strings.Join(ValidTypeNames(), ", "))
	}
	return globs, nil
}

// Types is the `--type`/`--type-not` filter (spec.md §4.3): a path is
// whitelisted if it matches any selected type and ignored if it
// matches any deselected type, with deselection taking priority.
type Types struct {
	selected   []string
	deselected []string
}

// TypesBuilder accumulates --type/--type-not selections.
type TypesBuilder struct {
	selected   []string
	deselected []string
	err        error
}

func NewTypesBuilder() *TypesBuilder { return &TypesBuilder{} }

// Select adds name's glob patterns to the whitelist.
func (b *TypesBuilder) Select(name string) *TypesBuilder {
	globs, err := resolveTypeName(name)
	if err != nil {
		b.err = err
		return b
	}
	b.selected = append(b.selected, globs...)
	return b
}

// Negate adds name's glob patterns to the denylist.
func (b *TypesBuilder) Negate(name string) *TypesBuilder {
	globs, err := resolveTypeName(name)
	if err != nil {
		b.err = err
		return b
	}
	b.deselected = append(b.deselected, globs...)
	return b
}

func (b *TypesBuilder) Build() (*Types, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Types{selected: b.selected, deselected: b.deselected}, nil
}

// IsEmpty reports whether no type selections were made at all.
func (t *Types) IsEmpty() bool { return t == nil || (len(t.selected) == 0 && len(t.deselected) == 0) }

// Matched tests a basename against the selected/deselected glob lists.
func (t *Types) Matched(basename string, isDir bool) Match {
	if t == nil || isDir {
		return None
	}
	if matchesAny(t.deselected, basename) {
		return Match{Kind: KindIgnore, Source: SourceTypes}
	}
	if len(t.selected) > 0 {
		if matchesAny(t.selected, basename) {
			return Match{Kind: KindWhitelist, Source: SourceTypes}
		}
		return Match{Kind: KindIgnore, Source: SourceTypes}
	}
	return None
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
