package glob

import "testing"

func TestGlobIsMatch(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		// 1. literal patterns
		{"foo", "foo", true},
		{"foo", "bar", false},

		// 2. single-component wildcards
		{"*.go", "main.go", true},
		{"*.go", "sub/main.go", true}, // '*' crosses '/' without LiteralSeparator
		{"?oo", "foo", true},
		{"?oo", "fooo", false},

		// 3. recursive patterns
		{"**/*.go", "a/b/c.go", true},
		{"**/*.go", "c.go", true},
		{"src/**", "src/a/b", true},
		{"src/**/x", "src/a/b/x", true},

		// 4. character classes
		{"[a-c]at", "bat", true},
		{"[a-c]at", "dat", false},
		{"[!a-c]at", "dat", true},

		// 5. alternation
		{"*.{go,rs}", "main.go", true},
		{"*.{go,rs}", "main.rs", true},
		{"*.{go,rs}", "main.py", false},
	}
	for _, c := range cases {
		g, err := New(c.pattern)
		if err != nil {
			t.Fatalf("New(%q): %v", c.pattern, err)
		}
		if got := g.IsMatch(c.path); got != c.want {
			t.Errorf("Glob(%q).IsMatch(%q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestGlobLiteralSeparator(t *testing.T) {
	g, err := NewBuilder("*.go").LiteralSeparator(true).Build()
	if err != nil {
		t.Fatal(err)
	}
	if g.IsMatch("sub/main.go") {
		t.Error("expected '*' not to cross '/' when LiteralSeparator is set")
	}
	if !g.IsMatch("main.go") {
		t.Error("expected same-directory match to still succeed")
	}
}

func TestGlobCaseInsensitive(t *testing.T) {
	g, err := NewBuilder("*.GO").CaseInsensitive(true).Build()
	if err != nil {
		t.Fatal(err)
	}
	if !g.IsMatch("main.go") {
		t.Error("expected case-insensitive match")
	}
}

func TestGlobErrors(t *testing.T) {
	cases := []string{
		"[a-", // unclosed class
		"{a,b", // unclosed alternates
	}
	for _, pat := range cases {
		if _, err := New(pat); err == nil {
			t.Errorf("New(%q): expected error, got none", pat)
		}
	}
}

func TestGlobNestedAlternatesRejected(t *testing.T) {
	if _, err := New("{a,{b,c}}"); err == nil {
		t.Error("expected nested alternates to be rejected")
	}
}
