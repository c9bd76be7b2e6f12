package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/archbase/archbase-cli/pkg/parser"
	"github.com/archbase/archbase-cli/pkg/parser/queries"
	"github.com/archbase/archbase-cli/pkg/scanner"
	"github.com/archbase/archbase-cli/pkg/util"
)

// Files looked at by Analyze. Tests, specs and declaration files never
// carry user-facing patterns.
var (
	DefaultInclude = []string{"**/*.{tsx,ts,jsx,js}"}
	DefaultExclude = []string{
		"node_modules/**",
		"dist/**",
		"build/**",
		"**/*.test.*",
		"**/*.spec.*",
		"**/*.d.ts",
	}
)

// Options configures a ProjectPatternAnalyzer. Nil Parser, Queries and
// Cache are created (and closed) by the analyzer.
type Options struct {
	Parser  *parser.SourceParser
	Queries *queries.QueryManager
	Cache   util.SourceCache
	Workers int
	Logger  *slog.Logger
}

// ProjectPatternAnalyzer extracts recurring patterns from a project.
type ProjectPatternAnalyzer struct {
	parser  *parser.SourceParser
	queries *queries.QueryManager
	cache   util.SourceCache
	workers int
	logger  *slog.Logger

	ownsParser  bool
	ownsQueries bool
	ownsCache   bool
}

// NewProjectPatternAnalyzer creates an analyzer. Call Close when done.
func NewProjectPatternAnalyzer(opts Options) *ProjectPatternAnalyzer {
	logger := util.OrDefault(opts.Logger)
	a := &ProjectPatternAnalyzer{
		parser:  opts.Parser,
		queries: opts.Queries,
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
	if a.queries == nil {
		a.queries = queries.NewQueryManager(logger)
		a.ownsQueries = true
	}
	if a.cache == nil {
		cfg := util.DefaultSourceCacheConfig()
		cfg.Logger = logger
		a.cache = util.NewSourceCache(cfg)
		a.ownsCache = true
	}
	return a
}

type fileOutcome struct {
	path     string
	findings *fileFindings
	err      error
}

// Analyze walks projectPath and aggregates the patterns of every matching
// file. Files that cannot be read or parsed are logged and counted in
// FilesFailed.
func (a *ProjectPatternAnalyzer) Analyze(ctx context.Context, projectPath string) (*PatternAnalysis, error) {
	start := time.Now()

	root, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "patterns", Path: projectPath, Err: err}
	}
	files, err := scanner.DiscoverFiles(root, DefaultInclude, DefaultExclude)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "discover", Path: root, Err: err}
	}
	a.logger.Info("analyzing patterns", "root", root, "files", len(files))

	p := pool.NewWithResults[fileOutcome]().WithContext(ctx).WithMaxGoroutines(a.workers)
	for _, path := range files {
		p.Go(func(ctx context.Context) (fileOutcome, error) {
			if err := ctx.Err(); err != nil {
				return fileOutcome{}, err
			}
			findings, err := a.analyzeFile(root, path)
			return fileOutcome{path: path, findings: findings, err: err}, nil
		})
	}
	outcomes, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].path < outcomes[j].path })

	analysis := newAnalysis()
	for _, o := range outcomes {
		if o.err != nil {
			a.logger.Warn("could not analyze file", "file", o.path, "error", o.err)
			analysis.FilesFailed++
			continue
		}
		analysis.FilesAnalyzed++
		analysis.merge(o.findings)
	}
	analysis.finish()

	a.logger.Info("pattern analysis complete",
		"files_analyzed", analysis.FilesAnalyzed,
		"files_failed", analysis.FilesFailed,
		"patterns", len(analysis.Patterns),
		"duration_ms", time.Since(start).Milliseconds())
	return analysis, nil
}

// AnalyzeSource runs the analysis over a single in-memory file. file is
// used for grammar selection and path contexts.
func (a *ProjectPatternAnalyzer) AnalyzeSource(file string, source []byte) (*PatternAnalysis, error) {
	findings, err := a.analyzeContent(filepath.ToSlash(file), file, source)
	if err != nil {
		return nil, err
	}
	analysis := newAnalysis()
	analysis.FilesAnalyzed = 1
	analysis.merge(findings)
	analysis.finish()
	return analysis, nil
}

func (a *ProjectPatternAnalyzer) analyzeFile(root, path string) (*fileFindings, error) {
	source, err := a.cache.Read(path)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "read", Path: path, Err: err}
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return a.analyzeContent(filepath.ToSlash(rel), path, source)
}

func (a *ProjectPatternAnalyzer) analyzeContent(rel, path string, source []byte) (*fileFindings, error) {
	lang := parser.DetectLanguage(path)
	tree, isTSX, err := a.parser.ParseFileGrammar(source, path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	run := func(kind queries.Kind) ([]queries.QueryMatch, error) {
		return a.queries.Run(tree, lang, isTSX, kind, source)
	}
	fc := &fileContext{
		file:    rel,
		source:  source,
		content: string(source),
		root:    tree.RootNode(),
	}
	a.collectTags(fc, run)
	a.collectCalls(fc, run)
	return a.findings(fc), nil
}

// Export writes analysis as indented JSON to path.
func Export(analysis *PatternAnalysis, path string) error {
	return util.WriteJSONFile(path, analysis)
}

// Close releases the resources the analyzer created itself.
func (a *ProjectPatternAnalyzer) Close() error {
	var firstErr error
	if a.ownsQueries {
		if err := a.queries.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.ownsParser {
		if err := a.parser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.ownsCache {
		if err := a.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
