package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// collectSink gathers every match/context line reported, for
// assertions, the way a real printer would but without any formatting.
type collectSink struct {
	NopSink
	matches  []SinkMatch
	contexts []SinkContext
	breaks   int
	binary   []int64
	finished bool
	stats    Stats
}

func (c *collectSink) Matched(m SinkMatch) (bool, error) {
	c.matches = append(c.matches, m)
	return true, nil
}

func (c *collectSink) Context(ctx SinkContext) (bool, error) {
	c.contexts = append(c.contexts, ctx)
	return true, nil
}

func (c *collectSink) ContextBreak() (bool, error) {
	c.breaks++
	return true, nil
}

func (c *collectSink) BinaryData(off int64) (bool, error) {
	c.binary = append(c.binary, off)
	return false, nil
}

func (c *collectSink) Finish(path string, stats Stats) error {
	c.finished = true
	c.stats = stats
	return nil
}

func linesOf(sink *collectSink) []string {
	var out []string
	for _, m := range sink.matches {
		out = append(out, strings.TrimRight(string(m.Bytes), "\n"))
	}
	return out
}

// 1. A plain line-by-line search finds every matching line and reports
// correct 1-indexed line numbers.
func TestSearcherLineByLine(t *testing.T) {
	m, err := NewRegexMatcher("foo", false)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSearcher(m, DefaultConfig())
	sink := &collectSink{}
	data := "one\nfoo bar\nbaz\nfoobar\n"
	if err := s.SearchBytes("t", []byte(data), sink); err != nil {
		t.Fatal(err)
	}
	if got := linesOf(sink); len(got) != 2 || got[0] != "foo bar" || got[1] != "foobar" {
		t.Fatalf("got %v", got)
	}
	if sink.matches[0].LineNumber != 2 || sink.matches[1].LineNumber != 4 {
		t.Fatalf("line numbers = %d, %d", sink.matches[0].LineNumber, sink.matches[1].LineNumber)
	}
	if !sink.finished {
		t.Fatal("Finish was never called")
	}
	if sink.stats.Matches != 2 {
		t.Fatalf("stats.Matches = %d, want 2", sink.stats.Matches)
	}
}

// 2. Case-insensitive matching works the way compileGrepRegex's "(?i)"
// prefix does.
func TestSearcherCaseInsensitive(t *testing.T) {
	m, err := NewRegexMatcher("FOO", true)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSearcher(m, DefaultConfig())
	sink := &collectSink{}
	if err := s.SearchBytes("t", []byte("a foo b\n"), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(sink.matches))
	}
}

// 9. SearchFile transcodes a UTF-16LE file (BOM-sniffed from its
// header) before matching, so a pattern written in plain ASCII still
// finds text that's only encoded as UTF-16 on disk.
func TestSearcherFileTranscodesUTF16LE(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "utf16.txt")
	// BOM (FF FE) + "foo\n" encoded UTF-16LE.
	data := []byte{0xFF, 0xFE, 'f', 0x00, 'o', 0x00, 'o', 0x00, '\n', 0x00}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewRegexMatcher("foo", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Mmap = MmapNever // transcoding always takes the reader path regardless
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	if err := s.SearchFile(path, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(sink.matches))
	}
	if got := strings.TrimRight(string(sink.matches[0].Bytes), "\n"); got != "foo" {
		t.Fatalf("matched text = %q, want %q", got, "foo")
	}
}

// 10. Passthru emits every non-matching line as SinkContext(ContextOther)
// while matching lines still go to Sink.Matched.
func TestSearcherPassthru(t *testing.T) {
	m, err := NewRegexMatcher("Sherlock", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Passthru = true
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	data := "Watson\nSherlock Holmes\nMoriarty\n"
	if err := s.SearchBytes("t", []byte(data), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(sink.matches))
	}
	if len(sink.contexts) != 2 {
		t.Fatalf("got %d context lines, want 2 (every non-match)", len(sink.contexts))
	}
	for _, c := range sink.contexts {
		if c.Kind != ContextOther {
			t.Fatalf("context kind = %v, want ContextOther", c.Kind)
		}
	}
}

// 11. Passthru combined with InvertMatch: lines matching the pattern
// become "other" context, lines that don't match become reported
// matches (spec.md §8 scenario 2, "Passthru inversion").
func TestSearcherPassthruInvertMatch(t *testing.T) {
	m, err := NewRegexMatcher("Sherlock", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Passthru = true
	cfg.InvertMatch = true
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	data := "Watson\nSherlock Holmes\nMoriarty\n"
	if err := s.SearchBytes("t", []byte(data), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 2 {
		t.Fatalf("got %d matches, want 2 (the non-Sherlock lines)", len(sink.matches))
	}
	if len(sink.contexts) != 1 || sink.contexts[0].Kind != ContextOther {
		t.Fatalf("got %+v, want exactly one ContextOther line", sink.contexts)
	}
}

// 12. StopOnNonmatch ends the search as soon as a non-matching line
// follows a match, without reading the rest of the file.
func TestSearcherStopOnNonmatch(t *testing.T) {
	m, err := NewRegexMatcher("ok", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.StopOnNonmatch = true
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	data := "ok one\nok two\nnope\nok three\n"
	if err := s.SearchBytes("t", []byte(data), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 2 {
		t.Fatalf("got %d matches, want 2 (stopped before the later match)", len(sink.matches))
	}
}

// 13. A CRLF-terminated line keeps its trailing '\r' attached to the
// matched bytes (spec.md §8 scenario 6).
func TestSearcherCRLFLineTerminator(t *testing.T) {
	m, err := NewRegexMatcher("test", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.LineTerminator = CRLFLineTerminator
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	if err := s.SearchBytes("t", []byte("test\r\n"), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(sink.matches))
	}
	if got := string(sink.matches[0].Bytes); got != "test\r\n" {
		t.Fatalf("matched bytes = %q, want %q", got, "test\r\n")
	}
}

// 14. A multiline search whose input exceeds Config.HeapLimit fails
// instead of buffering the whole oversized file.
func TestSearcherMultilineHeapLimitExceeded(t *testing.T) {
	m, err := NewRegexMatcher(`a\nb`, false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.HeapLimit = 8
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	err = s.SearchBytes("t", []byte(strings.Repeat("a\nb\n", 100)), sink)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

// 15. MmapAlways sources a small file's bytes from a real mmap mapping
// rather than a buffered read, and still finds matches.
func TestSearcherFileMmapAlways(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mmap.txt")
	content := "one\nfoo bar\nbaz\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewRegexMatcher("foo", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Mmap = MmapAlways
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	if err := s.SearchFile(path, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(sink.matches))
	}
}

// 3. InvertMatch reports only non-matching lines.
func TestSearcherInvertMatch(t *testing.T) {
	m, err := NewRegexMatcher("skip", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.InvertMatch = true
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	if err := s.SearchBytes("t", []byte("keep1\nskip this\nkeep2\n"), sink); err != nil {
		t.Fatal(err)
	}
	if got := linesOf(sink); len(got) != 2 || got[0] != "keep1" || got[1] != "keep2" {
		t.Fatalf("got %v", got)
	}
}

// 4. Before/after context lines are reported around a match, with a
// ContextBreak when two context windows don't touch.
func TestSearcherContextLines(t *testing.T) {
	m, err := NewRegexMatcher("MATCH", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.BeforeContext = 1
	cfg.AfterContext = 1
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	data := "a\nb\nMATCH1\nc\nd\ne\nMATCH2\nf\n"
	if err := s.SearchBytes("t", []byte(data), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(sink.matches))
	}
	if len(sink.contexts) != 4 {
		t.Fatalf("got %d context lines, want 4: %+v", len(sink.contexts), sink.contexts)
	}
	if sink.breaks != 1 {
		t.Fatalf("got %d context breaks, want 1", sink.breaks)
	}
}

// 5. A pattern containing a literal newline forces multiline search
// even when Config.Multiline wasn't set, and a match can span lines.
func TestSearcherForcesMultilineForNewlinePattern(t *testing.T) {
	m, err := NewRegexMatcher(`foo\nbar`, false)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSearcher(m, DefaultConfig())
	if !s.useMultiline() {
		t.Fatal("expected useMultiline() to be true for a newline-spanning pattern")
	}
	sink := &collectSink{}
	if err := s.SearchBytes("t", []byte("x\nfoo\nbar\ny\n"), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("got %d matches, want 1 (one block spanning both lines)", len(sink.matches))
	}
	if got := strings.TrimRight(string(sink.matches[0].Bytes), "\n"); got != "foo\nbar" {
		t.Fatalf("matched block = %q, want %q", got, "foo\nbar")
	}
}

// 6. Explicit Config.Multiline lets a match span lines even for a
// pattern that doesn't itself contain a newline token.
func TestSearcherExplicitMultiline(t *testing.T) {
	m, err := NewRegexMatcher(`(?s)start.*end`, false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Multiline = true
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	if err := s.SearchBytes("t", []byte("start\nmiddle\nend\n"), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("got %d matches, want 1 block spanning all 3 lines", len(sink.matches))
	}
	if sink.matches[0].LineNumber != 1 {
		t.Fatalf("block LineNumber = %d, want 1", sink.matches[0].LineNumber)
	}
}

// 7. BinaryDetection=Quit stops the search and reports BinaryData
// instead of matching through NUL bytes.
func TestSearcherBinaryQuit(t *testing.T) {
	m, err := NewRegexMatcher("x", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.BinaryDetection = BinaryQuit
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	data := []byte("hello x\x00world x\n")
	if err := s.SearchBytes("t", data, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.binary) != 1 {
		t.Fatalf("got %d binary reports, want 1", len(sink.binary))
	}
	if len(sink.matches) != 0 {
		t.Fatalf("expected no matches after binary data, got %d", len(sink.matches))
	}
}

// 8. BinaryDetection=Convert treats NUL bytes as line terminators so
// matching continues past them.
func TestSearcherBinaryConvert(t *testing.T) {
	m, err := NewRegexMatcher("world", false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.BinaryDetection = BinaryConvert
	s := NewSearcher(m, cfg)
	sink := &collectSink{}
	data := []byte("hello\x00world\n")
	if err := s.SearchBytes("t", data, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(sink.matches))
	}
}
