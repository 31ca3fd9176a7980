package ignore

import (
	"os"
	"path/filepath"
	"strings"
)

// gitDir resolves dir's ".git" entry to the actual git directory that
// holds "info/exclude" and "HEAD". For an ordinary repository dir/.git
// is itself the directory. For a worktree checkout, dir/.git is a file
// containing "gitdir: <path>", and the real exclude file lives under
// that target's "commondir" file (spec.md §4.2 "worktree-aware
// .git/info/exclude resolution"). Any failure along this chain
// degrades gracefully: callers get ("", false) and simply skip
// git-specific rule sources for this directory, rather than erroring
// the whole walk.
func gitDir(dir string) (string, bool) {
	p := filepath.Join(dir, ".git")
	fi, err := os.Lstat(p)
	if err != nil {
		return "", false
	}
	if fi.IsDir() {
		return p, true
	}
	if !fi.Mode().IsRegular() {
		return "", false
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir:"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	target := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	target = filepath.Clean(target)

	common, err := os.ReadFile(filepath.Join(target, "commondir"))
	if err != nil {
		// A gitdir with no commondir file of its own IS the common dir (e.g. a submodule's .git file that just points
		// straight at the real repo).
		if st, statErr := os.Stat(target); statErr == nil && st.IsDir() {
			return target, true
		}
		return "", false
	}
	commonPath := strings.TrimSpace(string(common))
	if !filepath.IsAbs(commonPath) {
		commonPath = filepath.Join(target, commonPath)
	}
	return filepath.Clean(commonPath), true
}

// hasGit reports whether dir itself holds a .git entry that gitDir
// resolves (directly or via the linked-worktree indirection); the
// ancestors of dir are not checked.
func hasGit(dir string) bool {
	_, ok := gitDir(dir)
	return ok
}

// gitExcludePath returns dir's "info/exclude" path, if dir is a git
// directory with one.
func gitExcludePath(dir string) (string, bool) {
	gd, ok := gitDir(dir)
	if !ok {
		return "", false
	}
	p := filepath.Join(gd, "info", "exclude")
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// globalGitignorePath resolves git's core.excludesFile: the path set
// in "$HOME/.gitconfig" under [core] excludesfile, falling back to
// "$XDG_CONFIG_HOME/git/ignore" (or "$HOME/.config/git/ignore") per
// git's own documented default. Any failure (no config, unset key,
// unreadable file) degrades to ("", false).
func globalGitignorePath() (string, bool) {
	if home, err := os.UserHomeDir(); err == nil {
		if p := excludesFileFromGitconfig(filepath.Join(home, ".gitconfig")); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome == "" {
		return "", false
	}
	p := filepath.Join(configHome, "git", "ignore")
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// excludesFileFromGitconfig does a minimal, single-purpose parse of a
// gitconfig file looking for "excludesfile" under an "[core]" section.
// It isn't a general INI parser: git's full config grammar (includes,
// conditional includes, quoting) is out of scope for a path the rest
// of this engine treats as best-effort.
func excludesFileFromGitconfig(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	inCore := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			inCore = strings.EqualFold(strings.Trim(line, "[]"), "core")
			continue
		}
		if !inCore {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "excludesfile") {
			if i := strings.IndexByte(line, '='); i >= 0 {
				v := strings.TrimSpace(line[i+1:])
				v = expandHome(v)
				return v
			}
		}
	}
	return ""
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
