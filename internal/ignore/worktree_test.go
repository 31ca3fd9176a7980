package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGitDirOrdinaryRepo(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	gd, ok := gitDir(root)
	if !ok {
		t.Fatal("expected gitDir to resolve")
	}
	if gd != filepath.Join(root, ".git") {
		t.Errorf("gitDir = %q, want %q", gd, filepath.Join(root, ".git"))
	}
}

// A linked worktree's ".git" is a file pointing at a gitdir under the
// main repository's ".git/worktrees/<name>", which itself carries a
// "commondir" file naming the shared repository directory.
func TestGitDirLinkedWorktree(t *testing.T) {
	main := t.TempDir()
	mainGit := filepath.Join(main, ".git")
	if err := os.MkdirAll(mainGit, 0o755); err != nil {
		t.Fatal(err)
	}

	worktreeGitDir := filepath.Join(mainGit, "worktrees", "feature")
	if err := os.MkdirAll(worktreeGitDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(worktreeGitDir, "commondir"), []byte("../..\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	worktree := t.TempDir()
	if err := os.WriteFile(filepath.Join(worktree, ".git"), []byte("gitdir: "+worktreeGitDir+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	gd, ok := gitDir(worktree)
	if !ok {
		t.Fatal("expected gitDir to resolve through the worktree indirection")
	}
	want, _ := filepath.Abs(mainGit)
	got, _ := filepath.Abs(gd)
	if got != want {
		t.Errorf("gitDir = %q, want %q", got, want)
	}
}

func TestGitDirDegradesGracefully(t *testing.T) {
	dir := t.TempDir()
	if _, ok := gitDir(dir); ok {
		t.Error("expected gitDir to report false for a directory with no .git")
	}
	if hasGit(dir) {
		t.Error("expected hasGit false")
	}
}

func TestGitDirMalformedGitFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte("not a gitdir line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := gitDir(dir); ok {
		t.Error("expected gitDir to degrade gracefully on a malformed .git file")
	}
}
