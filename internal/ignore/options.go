package ignore

// Options controls which rule sources a Node consults, mirroring the
// original ignore engine's per-walk toggles (_examples/original_source
// /crates/ignore/src/dir.rs's IgnoreOptions).
type Options struct {
	// Hidden, when true, excludes hidden files (dotfiles) unless an
	// earlier, higher-priority source already decided the path.
	Hidden bool
	// Ignore reads .ignore files (ripgrep/silver-searcher convention,
	// same format as .gitignore but independent of git).
	Ignore bool
	// Parents climbs parent directories above the search root for
	// ignore files, not just directories under it.
	Parents bool
	// GitGlobal reads the user's global gitignore
	// (core.excludesFile, falling back to
	// $XDG_CONFIG_HOME/git/ignore).
	GitGlobal bool
	// GitIgnore reads .gitignore files.
	GitIgnore bool
	// GitExclude reads .git/info/exclude.
	GitExclude bool
	// IgnoreCaseInsensitive is carried on Options, but ignore-file
	// parsing does not read it: ignore-file patterns always match
	// case-sensitively.
	IgnoreCaseInsensitive bool
	// RequireGit disables all git-related sources (GitIgnore,
	// GitExclude, GitGlobal) unless the directory tree is actually
	// inside a git worktree.
	RequireGit bool
}

// DefaultOptions matches ripgrep's default: every source enabled except
// explicit case-insensitivity.
func DefaultOptions() Options {
	return Options{
		Hidden:     true,
		Ignore:     true,
		Parents:    true,
		GitGlobal:  true,
		GitIgnore:  true,
		GitExclude: true,
		RequireGit: true,
	}
}
