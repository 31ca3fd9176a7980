package ignore

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// shared holds the parts of an ignore tree that every Node in it has in
// common: the options that were in effect when the tree was built, the
// override/type filters (which aren't directory-scoped), and the
// explicit/global-gitignore rule sets. Grounded on the Arc<IgnoreInner>
// split in _examples/original_source/crates/ignore/src/dir.rs, without
// the reference counting Go doesn't need.
type shared struct {
	opts              Options
	overrides         *Override
	types             *Types
	customIgnoreNames []string
	explicitIgnores   []*Gitignore
	gitGlobal         *Gitignore
}

func (sh *shared) hasAnyIgnoreRules() bool {
	return sh.opts.Ignore || sh.opts.GitGlobal || sh.opts.GitIgnore ||
		sh.opts.GitExclude || len(sh.customIgnoreNames) > 0 || len(sh.explicitIgnores) > 0
}

// Node is one directory's worth of compiled ignore rules, linked to its
// parent directory's Node. A search root's Node chain is built two
// ways: AddChild extends it downward as the walker descends into
// subdirectories, and NewRoot optionally extends it upward once, above
// the search root, when Options.Parents is set — mirroring the
// take_while(non-absolute)/skip_while(absolute) split in dir.rs's
// matched_ignore, simplified here since every Node keeps its own
// absolute directory and can compute a path relative to itself on
// demand instead of threading relative-path arithmetic through the walk.
type Node struct {
	sh     *shared
	parent *Node
	dir    string

	hasGit       bool
	customIgnore *Gitignore
	ignoreFile   *Gitignore
	gitIgnore    *Gitignore
	gitExclude   *Gitignore
}

// NewRoot builds the ignore tree for a search rooted at dir.
// explicitIgnoreFiles are absolute paths to additional gitignore-format
// files supplied via `--ignore-file` (spec.md §4.2); they apply
// globally, not per-directory, matching dir.rs's explicit_ignores.
func NewRoot(dir string, opts Options, overrides *Override, types *Types, customIgnoreNames []string, explicitIgnoreFiles []string) *Node {
	sh := &shared{opts: opts, overrides: overrides, types: types, customIgnoreNames: customIgnoreNames}
	for _, f := range explicitIgnoreFiles {
		if data, err := os.ReadFile(f); err == nil {
			if gi, err := ParseGitignore(filepath.Dir(f), data, SourceExplicit); err == nil {
				sh.explicitIgnores = append(sh.explicitIgnores, gi)
			}
		}
	}
	if opts.GitGlobal {
		if p, ok := globalGitignorePath(); ok {
			if data, err := os.ReadFile(p); err == nil {
				if gi, err := ParseGitignore(filepath.Dir(p), data, SourceGitGlobal); err == nil {
					sh.gitGlobal = gi
				}
			}
		}
	}

	root := buildNode(sh, dir)
	if opts.Parents {
		cur, d := root, dir
		for {
			up := filepath.Dir(d)
			if up == d {
				break
			}
			parent := buildNode(sh, up)
			cur.parent = parent
			cur, d = parent, up
		}
	}
	return root
}

// AddChild builds childDir's Node, linked to n as its parent. The
// walker calls this once per directory as it descends (spec.md §4.4).
func (n *Node) AddChild(childDir string) *Node {
	child := buildNode(n.sh, childDir)
	child.parent = n
	return child
}

func buildNode(sh *shared, dir string) *Node {
	n := &Node{sh: sh, dir: dir, hasGit: hasGit(dir)}
	if sh.opts.GitIgnore {
		n.gitIgnore = readRuleFile(dir, ".gitignore", SourceGitignore)
	}
	if sh.opts.Ignore {
		n.ignoreFile = readRuleFile(dir, ".ignore", SourceIgnoreFile)
	}
	if sh.opts.GitExclude {
		if ep, ok := gitExcludePath(dir); ok {
			if data, err := os.ReadFile(ep); err == nil {
				if gi, err := ParseGitignore(dir, data, SourceGitExclude); err == nil {
					n.gitExclude = gi
				}
			}
		}
	}
	if len(sh.customIgnoreNames) > 0 {
		n.customIgnore = loadCustomIgnore(dir, sh.customIgnoreNames)
	}
	return n
}

func readRuleFile(dir, name string, source Source) *Gitignore {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil
	}
	gi, err := ParseGitignore(dir, data, source)
	if err != nil {
		return nil
	}
	return gi
}

// loadCustomIgnore merges every name in names (read from dir, in
// order) into a single rule list, so later files' patterns override
// earlier ones exactly as lines later in one file would.
func loadCustomIgnore(dir string, names []string) *Gitignore {
	var merged *Gitignore
	for _, name := range names {
		gi := readRuleFile(dir, name, SourceCustomIgnore)
		if gi == nil {
			continue
		}
		if merged == nil {
			merged = gi
		} else {
			merged.rules = append(merged.rules, gi.rules...)
		}
	}
	return merged
}

// Matched tests path (relative to n's own directory, slash-separated)
// against n's entire rule chain: overrides first (highest priority),
// then ignore-file rules (custom > .ignore > .gitignore > git exclude >
// global > explicit, innermost directory first), then the type filter.
// A whitelist from ignore rules or the type filter is only returned if
// nothing afterwards produces a more specific opinion.
func (n *Node) Matched(relPath string, isDir bool) Match {
	relPath = strings.TrimPrefix(relPath, "./")

	if n.sh.overrides != nil && !n.sh.overrides.IsEmpty() {
		if m := n.sh.overrides.Matched(relPath, isDir); !m.IsNone() {
			return m
		}
	}

	whitelisted := None
	if n.sh.hasAnyIgnoreRules() {
		m := n.matchedIgnore(relPath, isDir)
		if m.IsIgnore() {
			return m
		}
		if m.IsWhitelist() {
			whitelisted = m
		}
	}
	if n.sh.types != nil && !n.sh.types.IsEmpty() {
		m := n.sh.types.Matched(path.Base(relPath), isDir)
		if m.IsIgnore() {
			return m
		}
		if m.IsWhitelist() {
			whitelisted = m
		}
	}
	return whitelisted
}

// MatchedDirEntry is Matched plus the final hidden-file fallback: a
// dotfile not otherwise matched is ignored whenever Options.Hidden is
// set (spec.md §4.2 "hidden files").
func (n *Node) MatchedDirEntry(relPath string, isDir, hidden bool) Match {
	m := n.Matched(relPath, isDir)
	if m.IsNone() && n.sh.opts.Hidden && hidden {
		return Match{Kind: KindIgnore, Source: SourceHidden}
	}
	return m
}

// matchedIgnore walks n and its ancestors, collecting the first
// (innermost-directory) opinion from each ignore-file family and
// resolving them in the fixed precedence order spec.md §4.2 documents:
// custom ignore files, then .ignore, then .gitignore, then
// .git/info/exclude, then the global gitignore, then --ignore-file
// rules. Git-backed sources stop being consulted once the walk climbs
// past the first repository root it finds, matching git's own
// worktree-scoping rules.
func (n *Node) matchedIgnore(relPath string, isDir bool) Match {
	anyGit := !n.sh.opts.RequireGit
	if !anyGit {
		for cur := n; cur != nil; cur = cur.parent {
			if cur.hasGit {
				anyGit = true
				break
			}
		}
	}

	var mCustom, mIgnoreFile, mGitIgnore, mGitExclude Match
	sawGit := false
	for cur := n; cur != nil; cur = cur.parent {
		rel := relativeTo(cur.dir, filepath.Join(n.dir, relPath))
		if mCustom.IsNone() && cur.customIgnore != nil {
			mCustom = cur.customIgnore.Matched(rel, isDir)
		}
		if mIgnoreFile.IsNone() && cur.ignoreFile != nil {
			mIgnoreFile = cur.ignoreFile.Matched(rel, isDir)
		}
		if anyGit && !sawGit && mGitIgnore.IsNone() && cur.gitIgnore != nil {
			mGitIgnore = cur.gitIgnore.Matched(rel, isDir)
		}
		if anyGit && !sawGit && mGitExclude.IsNone() && cur.gitExclude != nil {
			mGitExclude = cur.gitExclude.Matched(rel, isDir)
		}
		if cur.hasGit {
			sawGit = true
		}
	}

	var mGlobal Match
	if anyGit && n.sh.gitGlobal != nil {
		mGlobal = n.sh.gitGlobal.Matched(filepath.Join(n.dir, relPath), isDir)
	}

	var mExplicit Match
	for i := len(n.sh.explicitIgnores) - 1; i >= 0; i-- {
		mExplicit = n.sh.explicitIgnores[i].Matched(filepath.Join(n.dir, relPath), isDir)
		if !mExplicit.IsNone() {
			break
		}
	}

	return mCustom.Or(mIgnoreFile).Or(mGitIgnore).Or(mGitExclude).Or(mGlobal).Or(mExplicit)
}

// Dir returns the absolute directory this node represents.
func (n *Node) Dir() string { return n.dir }
