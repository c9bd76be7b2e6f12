package component

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sourcegraph/conc/pool"

	"github.com/archbase/archbase-cli/pkg/parser"
	"github.com/archbase/archbase-cli/pkg/util"
)

// DefaultPattern selects the files AnalyzeDirectory looks at.
const DefaultPattern = "**/*.{ts,tsx}"

// Options configures an Analyzer. Nil Parser and Cache are created (and
// closed) by the Analyzer itself.
type Options struct {
	Parser  *parser.SourceParser
	Cache   util.SourceCache
	Workers int
	Logger  *slog.Logger
}

// Analyzer turns component source files into ComponentAnalysis records.
// Safe for concurrent use.
type Analyzer struct {
	parser  *parser.SourceParser
	cache   util.SourceCache
	workers int
	logger  *slog.Logger

	ownsParser bool
	ownsCache  bool
}

// NewAnalyzer creates an Analyzer. Call Close when done.
func NewAnalyzer(opts Options) *Analyzer {
	logger := util.OrDefault(opts.Logger)
	a := &Analyzer{
		parser:  opts.Parser,
		cache:   opts.Cache,
		workers: util.GetOptimalPoolSizeWithOverride(opts.Workers),
		logger:  logger,
	}
	if a.parser == nil {
		cfg := parser.DefaultConfig()
		cfg.Logger = logger
		a.parser = parser.New(cfg)
		a.ownsParser = true
	}
	if a.cache == nil {
		cfg := util.DefaultSourceCacheConfig()
		cfg.Logger = logger
		a.cache = util.NewSourceCache(cfg)
		a.ownsCache = true
	}
	return a
}

// AnalyzeSource analyzes in-memory source. path selects the grammar and is
// recorded as FilePath.
//
// A source that does not parse yields (nil, nil) and a warning. Only an
// unsupported file type is an error.
func (a *Analyzer) AnalyzeSource(path string, source []byte) (*ComponentAnalysis, error) {
	tree, err := a.parser.ParseFile(source, path)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedLanguage) {
			return nil, &util.AnalyzerError{Op: "parse", Path: path, Err: err}
		}
		a.logger.Warn("failed to analyze component", "file", path, "error", err)
		return nil, nil
	}
	defer tree.Close()

	analysis := newAnalysis(path)
	extractFacts(tree.RootNode(), source, analysis)
	classify(analysis)
	return analysis, nil
}

// AnalyzeFile reads path and analyzes it. Read failures are returned.
func (a *Analyzer) AnalyzeFile(path string) (*ComponentAnalysis, error) {
	source, err := a.cache.Read(path)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "read", Path: path, Err: err}
	}
	return a.AnalyzeSource(path, source)
}

// AnalyzeDirectory analyzes every file under dir matching pattern and
// returns the analyses that found a component, sorted by path. Per-file
// failures are logged and skipped.
func (a *Analyzer) AnalyzeDirectory(ctx context.Context, dir, pattern string) ([]*ComponentAnalysis, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, &util.AnalyzerError{Op: "glob", Path: dir, Err: fmt.Errorf("invalid pattern %q", pattern)}
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "resolve", Path: dir, Err: err}
	}
	matches, err := doublestar.Glob(os.DirFS(absDir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, &util.AnalyzerError{Op: "glob", Path: dir, Err: err}
	}

	var (
		mu       sync.Mutex
		analyses []*ComponentAnalysis
	)
	p := pool.New().WithMaxGoroutines(a.workers).WithContext(ctx)
	for _, rel := range matches {
		path := filepath.Join(absDir, filepath.FromSlash(rel))
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			analysis, err := a.AnalyzeFile(path)
			if err != nil {
				a.logger.Warn("skipping file", "file", path, "error", err)
				return nil
			}
			if analysis == nil || analysis.Name == "" {
				return nil
			}
			mu.Lock()
			analyses = append(analyses, analysis)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(analyses, func(i, j int) bool { return analyses[i].FilePath < analyses[j].FilePath })
	a.logger.Debug("analyzed directory", "dir", absDir, "files", len(matches), "components", len(analyses))
	return analyses, nil
}

// Close releases the parser and cache if the Analyzer created them.
func (a *Analyzer) Close() error {
	var errs []error
	if a.ownsParser {
		errs = append(errs, a.parser.Close())
	}
	if a.ownsCache {
		errs = append(errs, a.cache.Close())
	}
	return errors.Join(errs...)
}
