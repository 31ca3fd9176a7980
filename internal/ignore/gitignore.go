package ignore

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/tjbck/rgrep/internal/glob"
)

// rule is one compiled line of a gitignore-format file. Unlike a
// GlobSet, rules keep their file order: gitignore semantics require
// that the *last* matching line in a file wins, so a later negation
// can re-include a path an earlier pattern excluded (grounded on
// _examples/mjkoo-boris/internal/tools/grep.go's gitignorePattern,
// generalized to compile each line through the glob package instead of
// doublestar so strategy-dispatch/negation ordering both hold).
type rule struct {
	raw     string
	g       *glob.Glob
	negate  bool
	dirOnly bool
}

// Gitignore is a compiled gitignore-format file (.gitignore, .ignore,
// .git/info/exclude, or the global excludesFile all share this format).
type Gitignore struct {
	dir    string
	source Source
	rules  []rule
}

// ParseGitignore compiles the gitignore-format contents of data, rooted
// at dir (the directory the file lives in; patterns without a leading
// or internal '/' match at any depth below it).
func ParseGitignore(dir string, data []byte, source Source) (*Gitignore, error) {
	gi := &Gitignore{dir: dir, source: source}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		r, ok, err := compileLine(line)
		if err != nil {
			// A malformed line is skipped, not fatal: ripgrep's own
			// gitignore parser is similarly permissive, since a typo in
			// one line shouldn't disable the rest of the file.
			continue
		}
		if ok {
			gi.rules = append(gi.rules, r)
		}
	}
	return gi, nil
}

// compileLine parses and compiles a single gitignore line. ok is false
// for blank lines and comments.
func compileLine(line string) (rule, bool, error) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" {
		return rule{}, false, nil
	}
	if strings.HasPrefix(line, "#") {
		return rule{}, false, nil
	}
	raw := line

	negate := false
	if strings.HasPrefix(line, "!") {
		negate = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\!`) || strings.HasPrefix(line, `\#`) {
		line = line[1:]
	}

	dirOnly := false
	if strings.HasSuffix(line, "/") && !strings.HasSuffix(line, `\/`) {
		dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if line == "" {
		return rule{}, false, nil
	}

	anchored := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")
	if !anchored && strings.Contains(line, "/") {
		anchored = true
	}

	pattern := line
	if !anchored {
		pattern = "**/" + line
	}
	g, err := glob.NewBuilder(pattern).LiteralSeparator(true).Build()
	if err != nil {
		return rule{}, false, err
	}
	return rule{raw: raw, g: g, negate: negate, dirOnly: dirOnly}, true, nil
}

// Matched tests relPath (slash-separated, relative to gi.dir) against
// every rule in file order and returns the *last* match, per gitignore
// precedence within a single file.
func (gi *Gitignore) Matched(relPath string, isDir bool) Match {
	for i := len(gi.rules) - 1; i >= 0; i-- {
		r := gi.rules[i]
		if r.dirOnly && !isDir {
			continue
		}
		if r.g.IsMatch(relPath) {
			if r.negate {
				return Match{Kind: KindWhitelist, Source: gi.source, Pattern: r.raw}
			}
			return Match{Kind: KindIgnore, Source: gi.source, Pattern: r.raw}
		}
	}
	return None
}

// IsEmpty reports whether the file produced no usable rules, letting
// callers skip it entirely rather than walk a rule slice of length 0.
func (gi *Gitignore) IsEmpty() bool { return gi == nil || len(gi.rules) == 0 }

// Dir returns the directory patterns without a leading "/" are rooted
// at (spec.md §5 "ignore-file anchoring").
func (gi *Gitignore) Dir() string { return gi.dir }

// relativeTo converts an absolute or root-relative path into the
// slash-separated path relative to dir, for use as Matched's relPath
// argument.
func relativeTo(dir, p string) string {
	p = filepath2Slash(p)
	dir = filepath2Slash(dir)
	if dir == "" || dir == "." {
		return strings.TrimPrefix(p, "/")
	}
	rel := strings.TrimPrefix(p, dir)
	rel = strings.TrimPrefix(rel, "/")
	return rel
}

func filepath2Slash(p string) string {
	if strings.IndexByte(p, '\\') == -1 {
		return p
	}
	return strings.ReplaceAll(p, "\\", "/")
}
