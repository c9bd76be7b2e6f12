package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/archbase/archbase-cli/pkg/parser"
	"github.com/archbase/archbase-cli/pkg/util"
)

// Options configures a ProjectScanner. Nil Parser and Cache are created
// (and closed) by the scanner.
type Options struct {
	Parser *parser.SourceParser
	Cache  util.SourceCache
	Logger *slog.Logger
}

// ProjectScanner finds Archbase component usages in a project tree.
// Safe for concurrent use.
type ProjectScanner struct {
	parser *parser.SourceParser
	cache  util.SourceCache
	logger *slog.Logger

	ownsParser bool
	ownsCache  bool
}

// NewProjectScanner creates a ProjectScanner. Call Close when done.
func NewProjectScanner(opts Options) *ProjectScanner {
	logger := util.OrDefault(opts.Logger)
	s := &ProjectScanner{
		parser: opts.Parser,
		cache:  opts.Cache,
		logger: logger,
	}
	if s.parser == nil {
		cfg := parser.DefaultConfig()
		cfg.Logger = logger
		s.parser = parser.New(cfg)
		s.ownsParser = true
	}
	if s.cache == nil {
		cfg := util.DefaultSourceCacheConfig()
		cfg.Logger = logger
		s.cache = util.NewSourceCache(cfg)
		s.ownsCache = true
	}
	return s
}

// Scan discovers files under opts.ProjectPath and analyzes them in parallel
// while package.json is read. Files that fail are listed in the result's
// Errors and never abort the scan. Scan only fails on a bad project path,
// a bad glob or a cancelled ctx.
func (s *ProjectScanner) Scan(ctx context.Context, opts ScanOptions) (*ProjectScanResult, error) {
	start := time.Now()

	root, err := filepath.Abs(opts.ProjectPath)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "scan", Path: opts.ProjectPath, Err: err}
	}
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	exclude := opts.Exclude
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}

	files, err := DiscoverFiles(root, include, exclude)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "discover", Path: root, Err: err}
	}
	s.logger.Info("scanning project", "root", root, "files", len(files))

	result := &ProjectScanResult{Errors: []ScanError{}}
	var scanned int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Dependencies = analyzeDependencies(root, s.logger)
		return nil
	})
	g.Go(func() error {
		usages, errs, err := s.processFiles(gctx, root, files, opts)
		if err != nil {
			return err
		}
		result.Components = usages
		result.Errors = errs
		scanned = len(files) - len(errs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.rebuild(scanned)

	s.logger.Info("scan complete",
		"files_scanned", result.Statistics.FilesScanned,
		"files_failed", result.Statistics.FilesFailed,
		"components", result.Statistics.ArchbaseComponents,
		"issues", result.Statistics.IssuesFound,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// processFiles runs the worker pool over files. The collector starts before
// any path is submitted so a full outcome channel cannot block submission.
func (s *ProjectScanner) processFiles(ctx context.Context, root string, files []string, opts ScanOptions) ([]ComponentUsage, []ScanError, error) {
	usages := []ComponentUsage{}
	errs := []ScanError{}
	total := len(files)
	if total == 0 {
		return usages, errs, nil
	}

	analyze := func(path string, content []byte) ([]ComponentUsage, error) {
		return s.analyzeContent(root, path, content)
	}
	pool := NewWorkerPool(ctx, opts.Workers, s.cache, analyze, s.logger)
	pool.Start()
	defer pool.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for processed := 0; processed < total; {
			select {
			case <-ctx.Done():
				return
			case out := <-pool.Outcomes():
				processed++
				if out.Err != nil {
					rel := relSlash(root, out.Path)
					errs = append(errs, ScanError{File: rel, Error: out.Err.Error()})
					s.logger.Warn("could not analyze file", "file", rel, "error", out.Err)
				} else {
					usages = append(usages, out.Usages...)
				}
				if opts.Progress != nil {
					opts.Progress(processed, total, out.Path)
				}
			}
		}
	}()

	for _, file := range files {
		if err := pool.Submit(file); err != nil {
			break
		}
	}
	pool.CloseInput()
	<-done

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].File < errs[j].File })
	return usages, errs, nil
}

// AnalyzeFile returns the usages in one file. path may be absolute or
// relative to projectPath. The file is read fresh, bypassing cached
// contents.
func (s *ProjectScanner) AnalyzeFile(projectPath, path string) ([]ComponentUsage, error) {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "scan", Path: projectPath, Err: err}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	s.cache.Invalidate(path)
	content, err := s.cache.Read(path)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "read", Path: path, Err: err}
	}
	return s.analyzeContent(root, path, content)
}

// AnalyzeSource returns the usages in in-memory source. file is recorded as
// is and selects the grammar.
func (s *ProjectScanner) AnalyzeSource(file string, source []byte) ([]ComponentUsage, error) {
	tree, err := s.parser.ParseFile(source, file)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return extractUsages(tree.RootNode(), source, filepath.ToSlash(file)), nil
}

func (s *ProjectScanner) analyzeContent(root, path string, content []byte) ([]ComponentUsage, error) {
	tree, err := s.parser.ParseFile(content, path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()
	return extractUsages(tree.RootNode(), content, relSlash(root, path)), nil
}

// Invalidate drops cached contents for path.
func (s *ProjectScanner) Invalidate(path string) {
	s.cache.Invalidate(path)
}

// Close releases the parser and cache if the scanner created them.
func (s *ProjectScanner) Close() error {
	var err error
	if s.ownsCache {
		err = s.cache.Close()
	}
	if s.ownsParser {
		if perr := s.parser.Close(); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}
