package docs

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/archbase/archbase-cli/pkg/scanner"
	"github.com/archbase/archbase-cli/pkg/util"
)

var (
	DefaultInclude = []string{"**/*.md"}
	DefaultExclude = []string{"node_modules/**", "**/node_modules/**"}
)

// Options configures an Analyzer. A nil Cache is created (and closed) by
// the Analyzer.
type Options struct {
	Cache   util.SourceCache
	Workers int
	Logger  *slog.Logger
}

// Analyzer mines markdown documentation. Safe for concurrent use.
type Analyzer struct {
	cache   util.SourceCache
	workers int
	logger  *slog.Logger

	ownsCache bool
}

func NewAnalyzer(opts Options) *Analyzer {
	logger := util.OrDefault(opts.Logger)
	a := &Analyzer{
		cache:   opts.Cache,
		workers: util.GetOptimalPoolSizeWithOverride(opts.Workers),
		logger:  logger,
	}
	if a.cache == nil {
		cfg := util.DefaultSourceCacheConfig()
		cfg.Logger = logger
		a.cache = util.NewSourceCache(cfg)
		a.ownsCache = true
	}
	return a
}

type docOutcome struct {
	rel      string
	findings *Analysis
	err      error
}

// Analyze reads every markdown file under docsPath. Unreadable files are
// logged and counted in FilesFailed.
func (a *Analyzer) Analyze(ctx context.Context, docsPath string) (*Analysis, error) {
	start := time.Now()

	root, err := filepath.Abs(docsPath)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "docs", Path: docsPath, Err: err}
	}
	files, err := scanner.DiscoverFiles(root, DefaultInclude, DefaultExclude)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "discover", Path: root, Err: err}
	}
	a.logger.Info("analyzing documentation", "root", root, "files", len(files))

	p := pool.NewWithResults[docOutcome]().WithContext(ctx).WithMaxGoroutines(a.workers)
	for _, path := range files {
		p.Go(func(ctx context.Context) (docOutcome, error) {
			if err := ctx.Err(); err != nil {
				return docOutcome{}, err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)
			content, err := a.cache.Read(path)
			if err != nil {
				return docOutcome{rel: rel, err: err}, nil
			}
			findings := newAnalysis()
			doc := &document{file: rel, content: string(content)}
			doc.analyze(findings)
			return docOutcome{rel: rel, findings: findings}, nil
		})
	}
	outcomes, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].rel < outcomes[j].rel })

	analysis := newAnalysis()
	for _, o := range outcomes {
		if o.err != nil {
			a.logger.Warn("could not analyze document", "file", o.rel, "error", o.err)
			analysis.FilesFailed++
			continue
		}
		analysis.FilesAnalyzed++
		analysis.merge(o.findings)
	}
	analysis.finish()

	a.logger.Info("documentation analysis complete",
		"files_analyzed", analysis.FilesAnalyzed,
		"files_failed", analysis.FilesFailed,
		"code_examples", len(analysis.CodeExamples),
		"api_methods", len(analysis.APIReference),
		"duration_ms", time.Since(start).Milliseconds())
	return analysis, nil
}

// AnalyzeContent analyzes one in-memory document. file names it in the
// findings and drives path-based categories.
func (a *Analyzer) AnalyzeContent(file, content string) *Analysis {
	analysis := newAnalysis()
	doc := &document{file: filepath.ToSlash(file), content: content}
	doc.analyze(analysis)
	analysis.FilesAnalyzed = 1
	analysis.finish()
	return analysis
}

// Export writes analysis as indented JSON to path.
func Export(analysis *Analysis, path string) error {
	return util.WriteJSONFile(path, analysis)
}

func (a *Analyzer) Close() error {
	if a.ownsCache {
		return a.cache.Close()
	}
	return nil
}

func (a *Analysis) merge(f *Analysis) {
	ds, fd := &a.DataSourceV2, f.DataSourceV2
	ds.NewFeatures = append(ds.NewFeatures, fd.NewFeatures...)
	ds.NewMethods = append(ds.NewMethods, fd.NewMethods...)
	ds.PerformanceImprovements = append(ds.PerformanceImprovements, fd.PerformanceImprovements...)
	ds.BreakingChanges = append(ds.BreakingChanges, fd.BreakingChanges...)

	a.ComponentPatterns = append(a.ComponentPatterns, f.ComponentPatterns...)
	a.CodeExamples = append(a.CodeExamples, f.CodeExamples...)
	a.APIReference = append(a.APIReference, f.APIReference...)
	a.BestPractices = append(a.BestPractices, f.BestPractices...)
	a.MigrationGuides = append(a.MigrationGuides, f.MigrationGuides...)
}

// finish dedupes and orders the findings, then derives recommendations.
func (a *Analysis) finish() {
	ds := &a.DataSourceV2
	ds.NewFeatures = dedupe(ds.NewFeatures)
	ds.NewMethods = dedupe(ds.NewMethods)

	sort.SliceStable(a.CodeExamples, func(i, j int) bool {
		return len(a.CodeExamples[i].DataSourceFeatures) > len(a.CodeExamples[j].DataSourceFeatures)
	})
	sort.SliceStable(a.APIReference, func(i, j int) bool {
		return a.APIReference[i].Method < a.APIReference[j].Method
	})

	ds.UsageExamples = []string{}
	for _, ex := range a.CodeExamples {
		if len(ex.DataSourceFeatures) > 0 {
			ds.UsageExamples = append(ds.UsageExamples, ex.Title)
		}
	}
	ds.UsageExamples = dedupe(ds.UsageExamples)
	ds.MigrationPatterns = []string{}
	for _, g := range a.MigrationGuides {
		ds.MigrationPatterns = append(ds.MigrationPatterns, g.Description)
	}
	ds.MigrationPatterns = dedupe(ds.MigrationPatterns)

	a.Recommendations = recommendations(a)
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func recommendations(a *Analysis) []Recommendation {
	recs := []Recommendation{}
	if len(a.DataSourceV2.NewFeatures) > 0 {
		recs = append(recs, Recommendation{
			Type:               "parameter",
			Title:              "Add a --datasource-version parameter",
			Description:        "Let code generation choose between DataSource V1 and V2",
			Implementation:     "Add --datasource-version=v1|v2 to every generator",
			Priority:           "high",
			AffectedGenerators: []string{"form", "view", "component"},
		})
	}
	if slices.ContainsFunc(a.DataSourceV2.NewMethods, func(m string) bool { return strings.Contains(m, "Array") }) {
		recs = append(recs, Recommendation{
			Type:               "template",
			Title:              "Array field management template",
			Description:        "Create a template for components that manage arrays of data",
			Implementation:     "Template built on appendToFieldArray, removeFromFieldArray and moveInFieldArray",
			Priority:           "medium",
			AffectedGenerators: []string{"form", "component"},
		})
	}
	if len(a.MigrationGuides) > 0 {
		recs = append(recs, Recommendation{
			Type:               "generator",
			Title:              "DataSource V1 to V2 migration generator",
			Description:        "Add a command that migrates existing DataSource V1 code to V2",
			Implementation:     "archbase migrate datasource --from=v1 --to=v2",
			Priority:           "medium",
			AffectedGenerators: []string{"migrate"},
		})
	}
	if len(a.ComponentPatterns) > 0 {
		recs = append(recs, Recommendation{
			Type:               "knowledge",
			Title:              "Update the knowledge base",
			Description:        "Add the patterns extracted from the documentation to the knowledge base",
			Implementation:     "Import the extracted patterns and examples into the CLI",
			Priority:           "high",
			AffectedGenerators: []string{"knowledge"},
		})
	}
	return recs
}
