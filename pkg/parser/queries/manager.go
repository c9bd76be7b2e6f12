// Package queries compiles, caches and runs tree-sitter queries over
// SourceParser trees.
package queries

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/archbase/archbase-cli/pkg/parser"
	"github.com/archbase/archbase-cli/pkg/util"
)

// ErrKindUnsupported is returned when a query kind has no meaning for a
// grammar, such as JSX tags on plain TypeScript.
var ErrKindUnsupported = errors.New("query kind not supported by grammar")

// Kind names a built-in query.
type Kind int

const (
	// KindHookCalls captures identifier callees: @hook.name, @hook.args, @hook.call.
	KindHookCalls Kind = iota
	// KindMemberCalls captures member callees: @member.object, @member.property, @member.args, @member.call.
	KindMemberCalls
	// KindImports captures @import.source and @import.statement.
	KindImports
	// KindJSXTags captures @jsx.name and @jsx.element.
	KindJSXTags
)

func (k Kind) String() string {
	switch k {
	case KindHookCalls:
		return "hook_calls"
	case KindMemberCalls:
		return "member_calls"
	case KindImports:
		return "imports"
	case KindJSXTags:
		return "jsx_tags"
	default:
		return "unknown"
	}
}

// queryKey identifies a compiled query. Queries are bound to the grammar
// they were compiled for, so the TSX flag is part of the key.
type queryKey struct {
	lang  parser.Language
	isTSX bool
	kind  Kind
}

// QueryManager lazily compiles queries and caches them per grammar.
// Safe for concurrent use. Must be closed after use.
type QueryManager struct {
	cache  map[queryKey]*ts.Query
	mutex  sync.RWMutex
	logger *slog.Logger
}

// NewQueryManager creates a QueryManager. A nil logger uses slog.Default().
func NewQueryManager(logger *slog.Logger) *QueryManager {
	return &QueryManager{
		cache:  make(map[queryKey]*ts.Query),
		logger: util.OrDefault(logger),
	}
}

// GetQuery returns the compiled query for kind on the given grammar.
func (qm *QueryManager) GetQuery(lang parser.Language, isTSX bool, kind Kind) (*ts.Query, error) {
	if lang != parser.LanguageTypeScript {
		isTSX = false
	}
	key := queryKey{lang: lang, isTSX: isTSX, kind: kind}

	qm.mutex.RLock()
	query, ok := qm.cache[key]
	qm.mutex.RUnlock()
	if ok {
		return query, nil
	}

	qm.mutex.Lock()
	defer qm.mutex.Unlock()
	if query, ok = qm.cache[key]; ok {
		return query, nil
	}

	source, err := querySource(key)
	if err != nil {
		return nil, err
	}
	language, err := parser.GrammarFor(lang, isTSX)
	if err != nil {
		return nil, err
	}
	query, qerr := ts.NewQuery(language, source)
	if qerr != nil {
		return nil, fmt.Errorf("compile %s query for %s: %s", kind, lang, qerr.Message)
	}
	qm.cache[key] = query

	qm.logger.Debug("compiled query", "language", lang.String(), "tsx", isTSX, "kind", kind.String())
	return query, nil
}

func querySource(key queryKey) (string, error) {
	switch key.kind {
	case KindHookCalls:
		return hookCallsQuery, nil
	case KindMemberCalls:
		return memberCallsQuery, nil
	case KindImports:
		return importsQuery, nil
	case KindJSXTags:
		if key.lang == parser.LanguageTypeScript && !key.isTSX {
			return "", fmt.Errorf("%s on typescript: %w", key.kind, ErrKindUnsupported)
		}
		return jsxTagsQuery, nil
	default:
		return "", fmt.Errorf("unknown query kind %d", key.kind)
	}
}

// Run compiles (or reuses) the query for kind and executes it on tree.
func (qm *QueryManager) Run(tree *ts.Tree, lang parser.Language, isTSX bool, kind Kind, source []byte) ([]QueryMatch, error) {
	query, err := qm.GetQuery(lang, isTSX, kind)
	if err != nil {
		return nil, err
	}
	return qm.ExecuteQuery(tree, query, source)
}

// ExecuteQuery runs a compiled query on tree. Captured nodes are only valid
// while tree is open.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(query, tree.RootNode(), source)
	captureNames := query.CaptureNames()

	var matches []QueryMatch
	for {
		match := iter.Next()
		if match == nil {
			break
		}

		captures := make([]QueryCapture, 0, len(match.Captures))
		for _, capture := range match.Captures {
			var name string
			if int(capture.Index) < len(captureNames) {
				name = captureNames[capture.Index]
			}
			category, field := parseCaptureName(name)
			node := capture.Node
			captures = append(captures, QueryCapture{
				Name:     name,
				Category: category,
				Field:    field,
				Node:     &node,
				Text:     node.Utf8Text(source),
				Location: nodeLocation(&node),
			})
		}

		matches = append(matches, QueryMatch{
			PatternIndex: uint32(match.PatternIndex),
			Captures:     captures,
		})
	}
	return matches, nil
}

// Close releases all compiled queries.
func (qm *QueryManager) Close() error {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	qm.logger.Debug("closing query manager", "queries_compiled", len(qm.cache))
	for key, query := range qm.cache {
		query.Close()
		delete(qm.cache, key)
	}
	return nil
}

// QueryMatch is one pattern match.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// Capture returns the first capture named name.
func (m QueryMatch) Capture(name string) (QueryCapture, bool) {
	for _, c := range m.Captures {
		if c.Name == name {
			return c, true
		}
	}
	return QueryCapture{}, false
}

// QueryCapture is one captured node.
type QueryCapture struct {
	// Name is the full capture name, e.g. "member.property".
	Name string
	// Category and Field split Name at the first dot.
	Category string
	Field    string

	Node     *ts.Node
	Text     string
	Location Location
}

// Location is 1-based for lines and columns, 0-based for bytes.
type Location struct {
	StartLine   uint32
	StartColumn uint32
	EndLine     uint32
	EndColumn   uint32
	StartByte   uint32
	EndByte     uint32
}

func parseCaptureName(name string) (category, field string) {
	if before, after, ok := strings.Cut(name, "."); ok {
		return before, after
	}
	return name, ""
}

func nodeLocation(node *ts.Node) Location {
	start := node.StartPosition()
	end := node.EndPosition()
	return Location{
		StartLine:   uint32(start.Row + 1),
		StartColumn: uint32(start.Column + 1),
		EndLine:     uint32(end.Row + 1),
		EndColumn:   uint32(end.Column + 1),
		StartByte:   uint32(node.StartByte()),
		EndByte:     uint32(node.EndByte()),
	}
}
