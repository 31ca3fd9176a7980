package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"10MB", 10 * 1024 * 1024},
		{"10mb", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"512KB", 512 * 1024},
		{"100B", 100},
		{"4096", 4096},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSize(tt.input)
			if err != nil {
				t.Fatalf("parseSize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestPatternToRegex(t *testing.T) {
	if got := patternToRegex("foo.bar", false); got != "foo.bar" {
		t.Errorf("regex mode should pass the pattern through unchanged, got %q", got)
	}
	if got := patternToRegex("foo.bar", true); got != `foo\.bar` {
		t.Errorf("fixed-strings mode should escape regex metacharacters, got %q", got)
	}
}

func withStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// 1. A basic search over a directory tree finds matches and reports
// exit status 0, respecting .gitignore along the way.
func TestRunFindsMatchesAndHonorsIgnore(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(dir, "a.go"), "package a\nfunc Foo() {}\n")
	mustWrite(t, filepath.Join(dir, "b.go"), "package b\n")
	mustWrite(t, filepath.Join(dir, ".gitignore"), "ignored.go\n")
	mustWrite(t, filepath.Join(dir, "ignored.go"), "func Foo() {}\n")

	cli := &CLI{
		Pattern:    "Foo",
		Paths:      []string{dir},
		LineNumber: true,
	}

	var code int
	out := withStdout(t, func() {
		code = run(cli)
	})

	if code != 0 {
		t.Fatalf("run() = %d, want 0 (a match was found)", code)
	}
	if !bytes.Contains([]byte(out), []byte("a.go")) {
		t.Fatalf("expected a.go in output, got %q", out)
	}
	if bytes.Contains([]byte(out), []byte("ignored.go")) {
		t.Fatalf("ignored.go should have been skipped by .gitignore, got %q", out)
	}
}

// 2. A pattern that matches nothing produces exit status 1 and no
// output.
func TestRunNoMatchesExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "hello world\n")

	cli := &CLI{Pattern: "zzzznotfound", Paths: []string{dir}, LineNumber: true}
	var code int
	out := withStdout(t, func() {
		code = run(cli)
	})
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}

// 3. --files-with-matches lists only file names, not matching lines.
func TestRunFilesWithMatches(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "needle here\n")
	mustWrite(t, filepath.Join(dir, "b.txt"), "nothing here\n")

	cli := &CLI{Pattern: "needle", Paths: []string{dir}, FilesWithMatches: true}
	var code int
	out := withStdout(t, func() {
		code = run(cli)
	})
	if code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	if !bytes.Contains([]byte(out), []byte("a.txt")) {
		t.Fatalf("expected a.txt listed, got %q", out)
	}
	if bytes.Contains([]byte(out), []byte("needle here")) {
		t.Fatalf("files-with-matches mode should not print line content, got %q", out)
	}
}

func mustWrite(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
