package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/archbase/archbase-cli/pkg/util"
)

// ErrSyntax is returned in strict mode when the parse tree contains errors.
var ErrSyntax = errors.New("syntax error")

// poolKey identifies a grammar: language plus the TSX variant.
type poolKey struct {
	lang  Language
	isTSX bool
}

func (k poolKey) String() string {
	if k.isTSX {
		return "tsx"
	}
	return k.lang.String()
}

// Config controls a SourceParser.
type Config struct {
	// StrictParse rejects trees containing ERROR or MISSING nodes with ErrSyntax.
	StrictParse bool

	// PoolSize caps parsers per grammar. 0 means util.GetOptimalPoolSize().
	PoolSize int

	Logger *slog.Logger
}

// DefaultConfig returns a strict configuration with CPU-sized pools.
func DefaultConfig() Config {
	return Config{StrictParse: true}
}

// SourceParser parses TypeScript, TSX and JavaScript sources with pooled
// tree-sitter parsers. Pools are created lazily per grammar.
//
// Callers own the returned trees and must Close them. The SourceParser itself
// must be closed when no longer needed.
//
// Safe for concurrent use.
type SourceParser struct {
	pools  map[poolKey]*parserPool
	mutex  sync.RWMutex
	cfg    Config
	logger *slog.Logger

	stats struct {
		parsesCalled int
		syntaxErrors int
	}
}

// New creates a SourceParser.
func New(cfg Config) *SourceParser {
	return &SourceParser{
		pools:  make(map[poolKey]*parserPool),
		cfg:    cfg,
		logger: util.OrDefault(cfg.Logger),
	}
}

// Strict reports whether trees with syntax errors are rejected.
func (sp *SourceParser) Strict() bool {
	return sp.cfg.StrictParse
}

// Parse parses source with the given grammar. isTSX only matters for TypeScript.
func (sp *SourceParser) Parse(source []byte, lang Language, isTSX bool) (*ts.Tree, error) {
	tree, _, err := sp.parse(source, lang, isTSX, false)
	return tree, err
}

// ParseFile picks the grammar from filePath's extension. Errors carry the path.
// A .ts source that only parses with the TSX grammar (JSX in a .ts file) is
// parsed with that grammar.
func (sp *SourceParser) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	tree, _, err := sp.ParseFileGrammar(source, filePath)
	return tree, err
}

// ParseFileGrammar is ParseFile that also reports whether the tree came from
// the TSX grammar. Queries run on the tree must be compiled for that grammar.
func (sp *SourceParser) ParseFileGrammar(source []byte, filePath string) (*ts.Tree, bool, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, false, fmt.Errorf("%s: %w", filePath, ErrUnsupportedLanguage)
	}
	tree, isTSX, err := sp.parse(source, lang, IsTSXFile(filePath), lang == LanguageTypeScript)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", filePath, err)
	}
	return tree, isTSX, nil
}

func (sp *SourceParser) parse(source []byte, lang Language, isTSX, tsxFallback bool) (*ts.Tree, bool, error) {
	if lang == LanguageUnknown {
		return nil, false, ErrUnsupportedLanguage
	}
	if lang != LanguageTypeScript {
		isTSX = false
	}

	sp.mutex.Lock()
	sp.stats.parsesCalled++
	sp.mutex.Unlock()

	key := poolKey{lang: lang, isTSX: isTSX}
	tree, err := sp.parseWith(source, key)
	if err != nil {
		return nil, false, err
	}

	if tree.RootNode().HasError() && tsxFallback && !isTSX {
		tsxKey := poolKey{lang: lang, isTSX: true}
		if alt, err := sp.parseWith(source, tsxKey); err == nil {
			if alt.RootNode().HasError() {
				alt.Close()
			} else {
				tree.Close()
				tree, key, isTSX = alt, tsxKey, true
			}
		}
	}

	if tree.RootNode().HasError() {
		sp.mutex.Lock()
		sp.stats.syntaxErrors++
		sp.mutex.Unlock()

		if sp.cfg.StrictParse {
			tree.Close()
			return nil, false, ErrSyntax
		}
		sp.logger.Warn("parse tree contains errors", "grammar", key.String())
	}
	return tree, isTSX, nil
}

func (sp *SourceParser) parseWith(source []byte, key poolKey) (*ts.Tree, error) {
	pool, err := sp.getOrCreatePool(key)
	if err != nil {
		return nil, err
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("acquire parser: %w", err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree for %s source", key)
	}
	return tree, nil
}

// Close releases all parser pools. The SourceParser cannot be used afterwards.
func (sp *SourceParser) Close() error {
	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	closed := 0
	for _, pool := range sp.pools {
		closed += pool.close()
	}
	sp.pools = make(map[poolKey]*parserPool)

	sp.logger.Debug("source parser closed",
		"parsers_closed", closed,
		"parses_called", sp.stats.parsesCalled,
		"syntax_errors", sp.stats.syntaxErrors)
	return nil
}

func (sp *SourceParser) getOrCreatePool(key poolKey) (*parserPool, error) {
	sp.mutex.RLock()
	pool, ok := sp.pools[key]
	sp.mutex.RUnlock()
	if ok {
		return pool, nil
	}

	sp.mutex.Lock()
	defer sp.mutex.Unlock()
	if pool, ok = sp.pools[key]; ok {
		return pool, nil
	}

	language, err := GrammarFor(key.lang, key.isTSX)
	if err != nil {
		return nil, err
	}
	size := util.GetOptimalPoolSizeWithOverride(sp.cfg.PoolSize)
	pool = newParserPool(key, language, size, sp.logger)
	sp.pools[key] = pool

	sp.logger.Debug("created parser pool", "grammar", key.String(), "max_size", size)
	return pool, nil
}

// GrammarFor returns the tree-sitter language for lang. Queries must be
// compiled against the same grammar the tree was parsed with.
func GrammarFor(lang Language, isTSX bool) (*ts.Language, error) {
	switch lang {
	case LanguageTypeScript:
		if isTSX {
			return ts.NewLanguage(ts_typescript.LanguageTSX()), nil
		}
		return ts.NewLanguage(ts_typescript.LanguageTypescript()), nil
	case LanguageJavaScript:
		return ts.NewLanguage(ts_javascript.Language()), nil
	default:
		return nil, fmt.Errorf("%s: %w", lang, ErrUnsupportedLanguage)
	}
}

// Stats returns cumulative parser counters.
func (sp *SourceParser) Stats() Stats {
	sp.mutex.RLock()
	defer sp.mutex.RUnlock()

	created := 0
	for _, pool := range sp.pools {
		created += pool.createdCount()
	}
	return Stats{
		ParsersCreated: created,
		ParsesCalled:   sp.stats.parsesCalled,
		SyntaxErrors:   sp.stats.syntaxErrors,
		Pools:          len(sp.pools),
	}
}

// Stats are SourceParser usage counters.
type Stats struct {
	ParsersCreated int `json:"parsersCreated"`
	ParsesCalled   int `json:"parsesCalled"`
	SyntaxErrors   int `json:"syntaxErrors"`
	Pools          int `json:"pools"`
}
