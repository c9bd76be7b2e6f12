package validator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sourcegraph/conc/pool"
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/archbase/archbase-cli/pkg/parser"
	"github.com/archbase/archbase-cli/pkg/util"
)

// DefaultFileName is used when ValidateCode gets no name.
const DefaultFileName = "generated.tsx"

// Options configures a Validator. A nil Parser is replaced by a lenient
// one owned by the Validator; a strict parser still works but reports
// syntax errors without a position.
type Options struct {
	Parser  *parser.SourceParser
	Cache   util.SourceCache
	Workers int
	Logger  *slog.Logger
}

// Validator checks generated code. Safe for concurrent use.
type Validator struct {
	parser  *parser.SourceParser
	cache   util.SourceCache
	workers int
	logger  *slog.Logger
	rules   []rule

	ownsParser bool
	ownsCache  bool
}

// rule appends its findings to result.
type rule struct {
	name  string
	check func(f *facts, code string, result *ValidationResult)
}

// NewValidator creates a Validator. Call Close when done.
func NewValidator(opts Options) *Validator {
	logger := util.OrDefault(opts.Logger)
	v := &Validator{
		parser:  opts.Parser,
		cache:   opts.Cache,
		workers: util.GetOptimalPoolSizeWithOverride(opts.Workers),
		logger:  logger,
		rules:   defaultRules(),
	}
	if v.parser == nil {
		cfg := parser.DefaultConfig()
		cfg.StrictParse = false
		// Broken trees are reported as results, not log lines.
		cfg.Logger = slog.New(slog.DiscardHandler)
		v.parser = parser.New(cfg)
		v.ownsParser = true
	}
	if v.cache == nil {
		cfg := util.DefaultSourceCacheConfig()
		cfg.Logger = logger
		v.cache = util.NewSourceCache(cfg)
		v.ownsCache = true
	}
	return v
}

// ValidateCode validates in-memory source. fileName selects the grammar;
// names without a known extension are parsed as TSX.
func (v *Validator) ValidateCode(code, fileName string) *ValidationResult {
	if fileName == "" {
		fileName = DefaultFileName
	}
	result := newResult(fileName)
	source := []byte(code)

	lang := parser.DetectLanguage(fileName)
	var (
		tree *ts.Tree
		err  error
	)
	if lang == parser.LanguageUnknown {
		tree, err = v.parser.Parse(source, parser.LanguageTypeScript, true)
	} else {
		tree, _, err = v.parser.ParseFileGrammar(source, fileName)
	}
	if err != nil {
		result.addError(ErrorSyntax, "Parse error: "+err.Error())
		return result.finish()
	}
	defer tree.Close()

	root := tree.RootNode()
	if bad := firstSyntaxError(root); bad != nil {
		pos := bad.StartPosition()
		result.Errors = append(result.Errors, ValidationError{
			Type:     ErrorSyntax,
			Message:  "Parse error: " + describeSyntaxError(bad, source),
			Line:     int(pos.Row) + 1,
			Column:   int(pos.Column) + 1,
			Severity: SeverityError,
		})
		return result.finish()
	}

	f := collectFacts(root, source)
	result.Metrics = metricsFor(code, fileName, f)
	for _, r := range v.rules {
		r.check(f, code, result)
	}
	return result.finish()
}

func describeSyntaxError(node *ts.Node, source []byte) string {
	if node.IsMissing() {
		return fmt.Sprintf("missing %q", node.Kind())
	}
	text := strings.TrimSpace(node.Utf8Text(source))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return fmt.Sprintf("unexpected %q", text)
}

func metricsFor(code, fileName string, f *facts) CodeMetrics {
	base := filepath.Base(fileName)
	return CodeMetrics{
		LinesOfCode:    strings.Count(code, "\n") + 1,
		Complexity:     f.complexity,
		ComponentCount: f.componentCount,
		HookCount:      f.hookCount,
		ImportCount:    len(f.imports),
		HasTests:       strings.Contains(base, ".test.") || strings.Contains(base, ".spec."),
		HasTypeScript: strings.Contains(code, "interface ") ||
			strings.Contains(code, ": ") ||
			strings.Contains(code, "type "),
	}
}

// ValidateFile reads and validates path. A read failure is reported as a
// syntax error in the result.
func (v *Validator) ValidateFile(path string) *ValidationResult {
	source, err := v.cache.Read(path)
	if err != nil {
		result := newResult(path)
		result.addError(ErrorSyntax, "Failed to read file: "+err.Error())
		return result.finish()
	}
	result := v.ValidateCode(string(source), path)
	result.FilePath = path
	return result
}

// ValidateFiles validates paths concurrently and returns results in input
// order.
func (v *Validator) ValidateFiles(ctx context.Context, paths []string) ([]*ValidationResult, error) {
	results := make([]*ValidationResult, len(paths))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(v.workers)
	for i, path := range paths {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = v.ValidateFile(path)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SourcePattern selects the files ValidateProject checks under src/.
const SourcePattern = "src/**/*.{ts,tsx}"

// ValidateProject checks projectPath/package.json, tsconfig.json and every
// TypeScript source under src/.
func (v *Validator) ValidateProject(ctx context.Context, projectPath string) (*ValidationResult, error) {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, &util.AnalyzerError{Op: "validate", Path: projectPath, Err: err}
	}
	result := newResult(root)

	validatePackageJSON(filepath.Join(root, "package.json"), result)

	if _, err := os.Stat(filepath.Join(root, "tsconfig.json")); err != nil {
		result.addWarning("Missing tsconfig.json - TypeScript configuration recommended",
			"Add tsconfig.json for better type checking")
	}

	matches, err := doublestar.Glob(os.DirFS(root), SourcePattern, doublestar.WithFilesOnly())
	if err != nil {
		result.addError(ErrorStructure, "Project validation failed: "+err.Error())
		return result.finish(), nil
	}
	sort.Strings(matches)

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	files, err := v.ValidateFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	for i, fr := range files {
		fr.FilePath = matches[i]
		result.merge(fr)
	}

	v.logger.Debug("project validated", "path", root, "files", result.Files,
		"errors", len(result.Errors), "warnings", len(result.Warnings))
	return result.finish(), nil
}

// Close releases the parser and cache if the Validator created them.
func (v *Validator) Close() error {
	var err error
	if v.ownsCache {
		err = v.cache.Close()
	}
	if v.ownsParser {
		if perr := v.parser.Close(); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// Rules lists the checks run on every parsed file, in order.
func (v *Validator) Rules() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.name
	}
	return names
}

// GeneratedDirs are the directories GeneratedFiles looks in, relative to the
// project root.
var GeneratedDirs = []string{"src", "components", "pages", "forms", "views"}

// GeneratedFiles returns up to limit TypeScript files directly inside
// GeneratedDirs under root, newest first.
func GeneratedFiles(root string, limit int) ([]string, error) {
	pattern := "{" + strings.Join(GeneratedDirs, ",") + "}/*.{ts,tsx}"
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, &util.AnalyzerError{Op: "glob", Path: root, Err: err}
	}

	type entry struct {
		path string
		mod  int64
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(root, filepath.FromSlash(m))
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		entries = append(entries, entry{path: path, mod: info.ModTime().UnixNano()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].mod != entries[j].mod {
			return entries[i].mod > entries[j].mod
		}
		return entries[i].path < entries[j].path
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	files := make([]string, len(entries))
	for i, e := range entries {
		files[i] = e.path
	}
	return files, nil
}
