package glob

import (
	"reflect"
	"testing"
)

func buildSet(t *testing.T, pats ...string) *GlobSet {
	t.Helper()
	b := NewGlobSetBuilder()
	for _, p := range pats {
		b.Add(p, DefaultOptions())
	}
	gs, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return gs
}

func TestGlobSetStrategyClassification(t *testing.T) {
	gs := buildSet(t,
		"Makefile",     // literal
		"**/README.md", // basename literal
		"*.go",         // extension
		"src/**",       // prefix
		"**/a/vendor",  // suffix (component)
		"*_test.go",    // suffix (whole pattern reduces to a literal suffix)
		"[a-c]*.rs",    // required-extension (".rs" literal tail, non-literal head)
	)
	stats := gs.Stats()
	if stats.Literal != 1 {
		t.Errorf("Literal = %d, want 1", stats.Literal)
	}
	if stats.BasenameLiteral != 1 {
		t.Errorf("BasenameLiteral = %d, want 1", stats.BasenameLiteral)
	}
	if stats.Extension != 1 {
		t.Errorf("Extension = %d, want 1", stats.Extension)
	}
	if stats.Prefix != 1 {
		t.Errorf("Prefix = %d, want 1", stats.Prefix)
	}
	if stats.Suffix != 2 {
		t.Errorf("Suffix = %d, want 2", stats.Suffix)
	}
	if stats.RequiredExt != 1 {
		t.Errorf("RequiredExt = %d, want 1", stats.RequiredExt)
	}
	total := stats.Literal + stats.BasenameLiteral + stats.Extension +
		stats.Prefix + stats.Suffix + stats.RequiredExt + stats.Regex
	if total != gs.Len() {
		t.Errorf("classified %d patterns, built %d", total, gs.Len())
	}
}

func TestGlobSetMatches(t *testing.T) {
	gs := buildSet(t, "*.go", "**/README.md", "src/**")

	cases := []struct {
		path string
		want bool
	}{
		{"main.go", true},
		{"sub/README.md", true},
		{"README.md", true},
		{"src/a/b.txt", true},
		{"other/a.txt", false},
	}
	for _, c := range cases {
		if got := gs.IsMatch(c.path); got != c.want {
			t.Errorf("IsMatch(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestGlobSetMatchesIndices(t *testing.T) {
	gs := buildSet(t, "*.go", "*.go", "*.rs")
	got := gs.Matches("main.go")
	want := []int{0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Matches(main.go) = %v, want %v", got, want)
	}
}

func TestGlobSetEmpty(t *testing.T) {
	gs := buildSet(t)
	if !gs.IsEmpty() {
		t.Error("expected empty set")
	}
	if gs.IsMatch("anything") {
		t.Error("empty set should never match")
	}
}

func TestCandidateReusedAcrossSets(t *testing.T) {
	gsA := buildSet(t, "*.go")
	gsB := buildSet(t, "*.rs")
	c := NewCandidate("main.go")
	if !gsA.IsMatchCandidate(c) {
		t.Error("expected gsA to match main.go")
	}
	if gsB.IsMatchCandidate(c) {
		t.Error("expected gsB not to match main.go")
	}
}

func TestGlobSetSuffixComponentBoundary(t *testing.T) {
	gs := buildSet(t, "**/vendor")
	if !gs.IsMatch("a/b/vendor") {
		t.Error("expected a/b/vendor to match **/vendor")
	}
	if gs.IsMatch("a/b/myvendor") {
		t.Error("myvendor should not match **/vendor (component boundary)")
	}
}
