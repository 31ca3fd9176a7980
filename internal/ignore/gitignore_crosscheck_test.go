package ignore

import (
	"testing"

	sabhiram "github.com/sabhiram/go-gitignore"
)

// TestGitignoreCrossCheck cross-validates this package's gitignore-line
// compiler against github.com/sabhiram/go-gitignore, an independent
// implementation of the same format. It exists purely as an oracle for
// tests: production matching always goes through ParseGitignore so
// that a directory's rules compile into the same glob.GlobSet-backed
// representation the rest of the engine's strategy dispatch relies on.
func TestGitignoreCrossCheck(t *testing.T) {
	lines := []string{
		"*.log",
		"!keep.log",
		"/only-root.txt",
		"build/",
		"docs/*.tmp",
	}
	oracle := sabhiram.CompileIgnoreLines(lines...)
	ours := mustGitignore(t, "", lines[0]+"\n"+lines[1]+"\n"+lines[2]+"\n"+lines[3]+"\n"+lines[4]+"\n")

	paths := []string{
		"debug.log",
		"keep.log",
		"only-root.txt",
		"sub/only-root.txt",
		"docs/scratch.tmp",
		"docs/keep.txt",
		"main.go",
	}
	for _, p := range paths {
		want := oracle.MatchesPath(p)
		got := ours.Matched(p, false).IsIgnore()
		if got != want {
			t.Errorf("path %q: ours=%v oracle=%v", p, got, want)
		}
	}
}
