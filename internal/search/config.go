package search

// LineTerminator identifies how a search splits its input into lines.
// The split byte is always '\n': even in CRLF mode, ripgrep's own line
// buffer never treats '\r' as a delimiter, it just guarantees a CRLF
// line's trailing '\r' stays attached to the line it ends (spec.md §6
// "when line_terminator is CRLF the searcher still uses \n as the
// primary boundary"). CRLF only changes how the terminator is reported
// to callers that ask, not where a line actually splits.
type LineTerminator struct {
	byte byte
	crlf bool
}

// NewLineTerminator builds a plain, non-CRLF terminator around b.
func NewLineTerminator(b byte) LineTerminator { return LineTerminator{byte: b} }

// DefaultLineTerminator is '\n', the only byte spec.md §6 requires as
// the actual split point.
var DefaultLineTerminator = NewLineTerminator('\n')

// CRLFLineTerminator is the CRLF variant of spec.md §3's
// `line_terminator (byte or CRLF)` field: the searcher still splits on
// '\n', but a line ending in "\r\n" keeps its '\r' as part of the
// returned line bytes rather than having it stripped.
var CRLFLineTerminator = LineTerminator{byte: '\n', crlf: true}

// Byte returns the byte the line buffer and multiline scanner actually
// split on.
func (t LineTerminator) Byte() byte { return t.byte }

// IsCRLF reports whether this terminator is the CRLF variant.
func (t LineTerminator) IsCRLF() bool { return t.crlf }

// BinaryDetection controls what happens when a NUL byte turns up while
// searching a file (spec.md §6 "binary detection").
type BinaryDetection int

const (
	// BinaryNone disables detection entirely; NUL bytes are searched
	// like any other byte.
	BinaryNone BinaryDetection = iota
	// BinaryQuit stops searching the file as soon as a NUL byte is
	// seen and reports it to the Sink via BinaryData.
	BinaryQuit
	// BinaryConvert replaces each NUL byte with the line terminator
	// before matching, so a match can still span the rest of the file.
	BinaryConvert
)

// MmapChoice controls whether Searcher.SearchFile sources a file's
// bytes from a memory-mapped slice instead of a buffered read
// (spec.md §4.4's strategy-selection table, "mmap slice" row).
type MmapChoice int

const (
	// MmapAuto uses mmap only when it's heuristically beneficial
	// (wantsMmap: files of at least mmapThreshold bytes), the default.
	MmapAuto MmapChoice = iota
	// MmapAlways forces mmap for every regular file, falling back to a
	// normal read only if the platform or the open itself can't
	// support it.
	MmapAlways
	// MmapNever disables mmap entirely; every file is read through a
	// normal *os.File reader.
	MmapNever
)

// Config bundles every knob Searcher needs. In the zero value the
// LineTerminator byte is 0, so lines split on NUL bytes rather than
// '\n'; DefaultConfig sets '\n' and the searcher's other defaults.
type Config struct {
	LineTerminator  LineTerminator
	BinaryDetection BinaryDetection

	// Multiline makes the searcher read the whole file into memory and
	// match across line boundaries, instead of streaming it a line at a
	// time (spec.md §6 "multiline mode"). This is required whenever the
	// pattern itself can match a newline.
	Multiline bool

	InvertMatch bool

	// Passthru emits every line, matching or not: matches still go to
	// Sink.Matched, but every non-matching line is reported as
	// SinkContext(ContextOther) instead of being dropped or held in the
	// before/after context ring buffers (spec.md §6 "passthru mode").
	// Before/after context counts are ignored while Passthru is set,
	// since passthru already surfaces every line.
	Passthru bool

	BeforeContext int
	AfterContext  int

	// StopOnNonmatch stops searching a file as soon as a non-matching
	// line follows a match, useful for sorted input where every match
	// is expected on adjacent lines (spec.md §6 "stop_on_nonmatch";
	// grounded on searcher/mod.rs's SearcherBuilder.stop_on_nonmatch).
	StopOnNonmatch bool

	// MaxFilesize skips files larger than this many bytes, 0 meaning no
	// limit. SearchFile checks it against the file's size before either
	// strategy runs; SearchReader and SearchBytes do not apply it.
	MaxFilesize int64

	// MaxLineLength caps how large a single line's buffer is allowed to
	// grow before the searcher gives up on it and treats the line as
	// (likely) binary data, to bound memory use on pathological input
	// such as a minified file with no newlines. This is the line-by-line
	// strategy's half of spec.md §3's `heap_limit` field.
	MaxLineLength int

	// HeapLimit caps how much memory the whole-buffer multiline strategy
	// is allowed to allocate reading one file, 0 meaning no limit. This
	// is the multiline strategy's half of spec.md §3's `heap_limit`
	// field: line-by-line mode bounds a single line (MaxLineLength),
	// multiline mode bounds the entire resident buffer (HeapLimit).
	HeapLimit int64

	// Mmap chooses whether Searcher.SearchFile sources file bytes from
	// an mmap'd slice (spec.md §4.4, §5 "memory-map safety").
	Mmap MmapChoice
}

func DefaultConfig() Config {
	return Config{
		LineTerminator:  DefaultLineTerminator,
		BinaryDetection: BinaryQuit,
		MaxLineLength:   1 << 20,   // 1 MiB
		HeapLimit:       1 << 30,   // 1 GiB
		Mmap:            MmapAuto,
	}
}
