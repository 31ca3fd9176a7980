package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tjbck/rgrep/internal/glob"
)

// dirScope restricts the walk to an allow-list of directories and
// removes anything matching a deny pattern, folding the --allow-dir/
// --deny-dir flags into the same glob.GlobSet engine the ignore layer
// uses (internal/ignore/overrides.go) rather than a separate
// doublestar-based matcher: deny patterns are gitignore-style globs,
// exactly what GlobSet already compiles and matches.
type dirScope struct {
	allowDirs []string
	deny      *glob.GlobSet
}

// newDirScope canonicalizes allowDirs at construction time and compiles
// denyPatterns into a GlobSet. An empty allowDirs allows every path.
func newDirScope(allowDirs []string, denyPatterns []string) (*dirScope, error) {
	canonical := make([]string, 0, len(allowDirs))
	for _, d := range allowDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("allow dir %q: %w", d, err)
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("allow dir %q: %w", d, err)
		}
		canonical = append(canonical, resolved)
	}

	builder := glob.NewGlobSetBuilder()
	for _, pat := range denyPatterns {
		builder.Add(pat, glob.DefaultOptions())
	}
	deny, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("deny pattern: %w", err)
	}

	return &dirScope{allowDirs: canonical, deny: deny}, nil
}

// resolve canonicalizes path (relative to baseCwd if needed) and checks
// it against the allow/deny lists, deny taking precedence.
func (s *dirScope) resolve(baseCwd, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseCwd, path)
	}

	resolved, err := resolveSymlinksPartial(path)
	if err != nil {
		return "", err
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", err
	}

	if len(s.allowDirs) > 0 {
		allowed := false
		for _, dir := range s.allowDirs {
			if resolved == dir || strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fmt.Errorf("access denied: path %q is outside allowed directories", resolved)
		}
	}

	if pattern, matched := s.matchesDeny(resolved); matched {
		return "", fmt.Errorf("access denied: path %q matches a deny pattern at %q", resolved, pattern)
	}

	return resolved, nil
}

// matchesDeny checks resolved and every ancestor directory against the
// deny GlobSet, so a pattern like "**/.git" also denies files living
// underneath a matched directory.
func (s *dirScope) matchesDeny(resolved string) (string, bool) {
	if s.deny.IsEmpty() {
		return "", false
	}
	if s.deny.IsMatch(resolved) {
		return resolved, true
	}
	dir := resolved
	for {
		dir = filepath.Dir(dir)
		if dir == "/" || dir == "." {
			break
		}
		if s.deny.IsMatch(dir) {
			return dir, true
		}
	}
	return "", false
}

// resolveSymlinksPartial resolves symlinks for paths that may not fully
// exist yet, walking up to the nearest existing ancestor.
func resolveSymlinksPartial(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	parent := filepath.Dir(path)
	base := filepath.Base(path)
	if parent == path {
		return path, nil
	}

	resolvedParent, err := resolveSymlinksPartial(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, base), nil
}
