package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/tjbck/rgrep/internal/ignore"
	"github.com/tjbck/rgrep/internal/search"
	"github.com/tjbck/rgrep/internal/walk"
)

var version = "dev" // overridden by -ldflags "-X main.version=..."

func versionInfo() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	var revision string
	var modified bool
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			revision = kv.Value
		case "vcs.modified":
			modified = kv.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	v := "dev-" + revision[:min(12, len(revision))]
	if modified {
		v += "-dirty"
	}
	return v
}

// VersionFlag implements kong's BeforeApply hook to print version and exit.
type VersionFlag bool

func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

// CLI defines the command-line interface via kong struct tags, the
// same struct-tag-driven style as cmd/boris's CLI.
type CLI struct {
	Version VersionFlag `help:"Print version and exit." short:"V"`

	Pattern string   `arg:"" help:"Pattern to search for."`
	Paths   []string `arg:"" optional:"" help:"Files or directories to search (default: current directory)."`

	IgnoreCase        bool `help:"Case-insensitive search." short:"i"`
	Multiline         bool `help:"Allow patterns to match across line boundaries." short:"U"`
	InvertMatch       bool `help:"Select non-matching lines." short:"v"`
	FixedStrings      bool `help:"Treat the pattern as a literal string, not a regex." short:"F"`
	LineNumber        bool `help:"Show line numbers." default:"true" negatable:""`
	Count             bool `help:"Show only a count of matching lines per file." short:"c"`
	FilesWithoutMatch bool `help:"Show only names of files with no match."`
	FilesWithMatches  bool `help:"Show only names of files with a match." short:"l"`

	Context       int `help:"Show N lines of context before and after each match." short:"C"`
	BeforeContext int `help:"Show N lines of context before each match." short:"B"`
	AfterContext  int `help:"Show N lines of context after each match." short:"A"`

	Passthru       bool   `help:"Print every line, matching or not, instead of only matches and requested context." short:"p"`
	StopOnNonmatch bool   `help:"Stop searching a file as soon as a non-matching line follows a match."`
	CRLF           bool   `help:"Treat input as CRLF-terminated, keeping the trailing '\\r' on matched/context lines."`
	Mmap           string `help:"Memory-map policy for regular files: auto, always, or never." default:"auto" enum:"auto,always,never"`
	HeapLimit      string `help:"Cap memory used buffering one file in multiline mode (e.g. 512MB, 0 = unlimited)."`

	Glob      []string `help:"Exclude files matching glob (repeatable, prefix '!' to re-include)." short:"g"`
	Type      []string `help:"Only search files of this type (repeatable)." short:"t"`
	TypeNot   []string `help:"Skip files of this type (repeatable)." short:"T"`

	Hidden        bool `help:"Search hidden files and directories."`
	NoIgnore      bool `help:"Don't respect .gitignore/.ignore files."`
	NoIgnoreVCS   bool `help:"Don't respect .gitignore/.git/info/exclude."`
	NoIgnoreGlobal bool `help:"Don't respect the global gitignore."`
	NoIgnoreParent bool `help:"Don't climb parent directories for ignore files."`
	FollowLinks   bool `help:"Follow symbolic links." short:"L"`
	OneFileSystem bool `help:"Don't descend into directories on other filesystems."`
	MaxDepth      int  `help:"Descend at most N directory levels."`
	Threads       int  `help:"Number of worker threads for the directory walk (0 = auto)." short:"j"`
	Sort          string `help:"Sort directory entries before searching: none, path, modified, accessed, created." default:"none" enum:"none,path,modified,accessed,created"`

	MaxFilesize string `help:"Skip files larger than this (e.g. 10MB)."`

	BinaryMode string `help:"How to handle binary files: quit, convert, or search." default:"quit" enum:"quit,convert,search"`

	AllowDir []string `help:"Restrict search roots to these directories (repeatable)." env:"RGREP_ALLOW_DIRS"`
	DenyDir  []string `help:"Exclude paths matching these patterns (repeatable)." env:"RGREP_DENY_DIRS"`
}

func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	upper := strings.ToUpper(strings.TrimSpace(s))
	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "B"):
		upper = strings.TrimSuffix(upper, "B")
	}
	var val int64
	if _, err := fmt.Sscanf(upper, "%d", &val); err != nil {
		return 0, fmt.Errorf("cannot parse %q as size", s)
	}
	return val * multiplier, nil
}

func buildIgnoreOptions(cli *CLI) ignore.Options {
	o := ignore.DefaultOptions()
	o.Hidden = !cli.Hidden
	if cli.NoIgnore {
		o.Ignore = false
		o.GitIgnore = false
		o.GitExclude = false
		o.GitGlobal = false
		o.Parents = false
	}
	if cli.NoIgnoreVCS {
		o.GitIgnore = false
		o.GitExclude = false
	}
	if cli.NoIgnoreGlobal {
		o.GitGlobal = false
	}
	if cli.NoIgnoreParent {
		o.Parents = false
	}
	return o
}

func buildOverrides(patterns []string) (*ignore.Override, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	b := ignore.NewOverrideBuilder()
	for _, p := range patterns {
		b.Add(p)
	}
	return b.Build()
}

func buildTypes(sel, negate []string) (*ignore.Types, error) {
	if len(sel) == 0 && len(negate) == 0 {
		return nil, nil
	}
	b := ignore.NewTypesBuilder()
	for _, t := range sel {
		b.Select(t)
	}
	for _, t := range negate {
		b.Negate(t)
	}
	return b.Build()
}

func patternToRegex(pattern string, fixedStrings bool) string {
	if !fixedStrings {
		return pattern
	}
	return regexp.QuoteMeta(pattern)
}

func binaryDetection(mode string) search.BinaryDetection {
	switch mode {
	case "convert":
		return search.BinaryConvert
	case "search":
		return search.BinaryNone
	default:
		return search.BinaryQuit
	}
}

func mmapChoice(mode string) search.MmapChoice {
	switch mode {
	case "always":
		return search.MmapAlways
	case "never":
		return search.MmapNever
	default:
		return search.MmapAuto
	}
}

func sortBy(mode string) walk.SortBy {
	switch mode {
	case "path":
		return walk.SortPath
	case "modified":
		return walk.SortModified
	case "accessed":
		return walk.SortAccessed
	case "created":
		return walk.SortCreated
	default:
		return walk.SortNone
	}
}

// stdoutFileInfo reports os.Stdout's fs.FileInfo when it's a regular
// file (e.g. output redirected into a file under a searched directory),
// so the walker's skip-stdout-file handle (spec.md §4.3 pipeline step
// 4) can prune it from the walk. A terminal or pipe isn't a regular
// file, so there's nothing to skip.
func stdoutFileInfo() os.FileInfo {
	info, err := os.Stdout.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	return info
}

func run(cli *CLI) int {
	maxFilesize, err := parseSize(cli.MaxFilesize)
	if err != nil {
		log.Printf("rgrep: %v", err)
		return 2
	}

	overrides, err := buildOverrides(cli.Glob)
	if err != nil {
		log.Printf("rgrep: invalid --glob pattern: %v", err)
		return 2
	}
	types, err := buildTypes(cli.Type, cli.TypeNot)
	if err != nil {
		log.Printf("rgrep: %v", err)
		return 2
	}

	scope, err := newDirScope(cli.AllowDir, cli.DenyDir)
	if err != nil {
		log.Printf("rgrep: invalid path scoping config: %v", err)
		return 2
	}

	pattern := patternToRegex(cli.Pattern, cli.FixedStrings)
	matcher, err := search.NewRegexMatcher(pattern, cli.IgnoreCase)
	if err != nil {
		log.Printf("rgrep: invalid pattern: %v", err)
		return 2
	}

	before, after := cli.BeforeContext, cli.AfterContext
	if cli.Context > 0 {
		before, after = cli.Context, cli.Context
	}

	cfg := search.DefaultConfig()
	cfg.Multiline = cli.Multiline
	cfg.InvertMatch = cli.InvertMatch
	cfg.BeforeContext = before
	cfg.AfterContext = after
	cfg.MaxFilesize = maxFilesize
	cfg.BinaryDetection = binaryDetection(cli.BinaryMode)
	cfg.Passthru = cli.Passthru
	cfg.StopOnNonmatch = cli.StopOnNonmatch
	cfg.Mmap = mmapChoice(cli.Mmap)
	if cli.CRLF {
		cfg.LineTerminator = search.CRLFLineTerminator
	}
	if cli.HeapLimit != "" {
		heapLimit, err := parseSize(cli.HeapLimit)
		if err != nil {
			log.Printf("rgrep: %v", err)
			return 2
		}
		cfg.HeapLimit = heapLimit
	}

	searcher := search.NewSearcher(matcher, cfg)

	printer := newPrinter(printerMode{
		lineNumber:        cli.LineNumber,
		count:             cli.Count,
		filesWithMatches:  cli.FilesWithMatches,
		filesWithoutMatch: cli.FilesWithoutMatch,
	}, os.Stdout)

	paths := cli.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	cwd, _ := os.Getwd()

	walkOpts := walk.Options{
		Threads:        cli.Threads,
		MaxDepth:       cli.MaxDepth,
		FollowLinks:    cli.FollowLinks,
		SameFileSystem: cli.OneFileSystem,
		IgnoreOptions:  buildIgnoreOptions(cli),
		Overrides:      overrides,
		Types:          types,
		MaxFilesize:    maxFilesize,
		StdoutInfo:     stdoutFileInfo(),
		SortBy:         sortBy(cli.Sort),
	}

	// anyMatch is written from visit, which WalkParallel (the default
	// walking mode) calls concurrently from multiple worker goroutines.
	var anyMatch atomic.Bool
	visit := func(d *walk.DirEntry) walk.WalkState {
		if d.Err() != nil {
			fmt.Fprintf(os.Stderr, "rgrep: %v\n", d.Err())
			return walk.Continue
		}
		if d.IsDir() || d.IsSymlink() {
			return walk.Continue
		}
		resolved, err := scope.resolve(cwd, d.Path())
		if err != nil {
			return walk.Continue
		}
		sink := printer.fileSink(resolved)
		if err := searcher.SearchFile(resolved, sink); err != nil {
			fmt.Fprintf(os.Stderr, "rgrep: %s: %v\n", resolved, err)
		}
		if sink.matched() {
			anyMatch.Store(true)
		}
		return walk.Continue
	}

	for _, root := range paths {
		abs, err := filepath.Abs(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rgrep: %v\n", err)
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rgrep: %v\n", err)
			continue
		}
		if !info.IsDir() {
			resolved, err := scope.resolve(cwd, abs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "rgrep: %v\n", err)
				continue
			}
			sink := printer.fileSink(resolved)
			if err := searcher.SearchFile(resolved, sink); err != nil {
				fmt.Fprintf(os.Stderr, "rgrep: %s: %v\n", resolved, err)
			}
			if sink.matched() {
				anyMatch.Store(true)
			}
			continue
		}
		// Parallel walking is the ordinary mode (spec.md §4.3): an
		// explicit "-j 1", or a requested sort order (a shared work
		// stack across workers can't preserve comparator order), opts
		// into the sequential Walker instead.
		if cli.Threads == 1 || walkOpts.SortBy != walk.SortNone {
			if err := walk.NewWalker(abs, walkOpts).Visit(visit); err != nil {
				fmt.Fprintf(os.Stderr, "rgrep: %v\n", err)
			}
		} else {
			if err := walk.NewWalkParallel([]string{abs}, walkOpts).Visit(visit); err != nil {
				fmt.Fprintf(os.Stderr, "rgrep: %v\n", err)
			}
		}
	}

	if anyMatch.Load() {
		return 0
	}
	return 1
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("rgrep"),
		kong.Description("Recursively search files for a pattern, respecting gitignore rules."),
		kong.Vars{"version": versionInfo()},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
	}()

	os.Exit(run(&cli))
}
