// Package ignore implements the hierarchical gitignore-style ignore
// engine that sits between the glob matcher and the directory walker:
// for each candidate path it decides whether the path should be
// skipped, forced back in, or left to later filters.
package ignore

import "fmt"

// Kind is the outcome of testing a path against one rule source.
type Kind int

const (
	// KindNone means the source expressed no opinion about the path.
	KindNone Kind = iota
	// KindIgnore means the path should be excluded from results.
	KindIgnore
	// KindWhitelist means a higher-priority negation (`!pattern`) or
	// override re-included a path an earlier, lower-priority source
	// had already marked ignored.
	KindWhitelist
)

// Source identifies which rule family produced a Match, for
// diagnostics and `--debug`-style reporting.
type Source int

const (
	SourceNone Source = iota
	SourceOverride
	SourceCustomIgnore
	SourceIgnoreFile
	SourceGitignore
	SourceGitExclude
	SourceGitGlobal
	SourceExplicit
	SourceTypes
	SourceHidden
)

func (s Source) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceCustomIgnore:
		return "custom-ignore"
	case SourceIgnoreFile:
		return ".ignore"
	case SourceGitignore:
		return ".gitignore"
	case SourceGitExclude:
		return ".git/info/exclude"
	case SourceGitGlobal:
		return "core.excludesFile"
	case SourceExplicit:
		return "explicit"
	case SourceTypes:
		return "type-filter"
	case SourceHidden:
		return "hidden"
	default:
		return "none"
	}
}

// Match is the tri-valued result of testing a path against a rule
// source: ignore, whitelist (an explicit override of a previous
// ignore), or no opinion at all.
type Match struct {
	Kind    Kind
	Source  Source
	Pattern string // the literal rule text that produced this match, if any
}

// None is the zero-opinion Match.
var None = Match{Kind: KindNone}

func (m Match) IsNone() bool      { return m.Kind == KindNone }
func (m Match) IsIgnore() bool    { return m.Kind == KindIgnore }
func (m Match) IsWhitelist() bool { return m.Kind == KindWhitelist }

// Or returns m if it has an opinion, otherwise other. This mirrors the
// short-circuiting precedence chain the original ignore engine builds
// from multiple rule sources (custom ignore > .ignore > .gitignore >
// git exclude > global gitignore > explicit).
func (m Match) Or(other Match) Match {
	if !m.IsNone() {
		return m
	}
	return other
}

func (m Match) String() string {
	switch m.Kind {
	case KindIgnore:
		return fmt.Sprintf("ignore(%s: %q)", m.Source, m.Pattern)
	case KindWhitelist:
		return fmt.Sprintf("whitelist(%s: %q)", m.Source, m.Pattern)
	default:
		return "none"
	}
}
