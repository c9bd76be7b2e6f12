package parser

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSX = `import React from 'react';
import { ArchbaseEdit } from '@archbase/react';

interface UserFormProps {
  dataSource: any;
  title?: string;
}

export function UserForm({ dataSource, title }: UserFormProps) {
  return <ArchbaseEdit dataSource={dataSource} dataField="name" label={title} />;
}
`

const sampleJSX = `export const Card = ({ title }) => <div className="card">{title}</div>;
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestParser(strict bool) *SourceParser {
	return New(Config{StrictParse: strict, Logger: testLogger()})
}

func TestParseTypeScript(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	tree, err := sp.Parse([]byte("const x: number = 1;"), LanguageTypeScript, false)
	require.NoError(t, err)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.Equal(t, "program", tree.RootNode().Kind())
}

func TestParseTSX(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	tree, err := sp.Parse([]byte(sampleTSX), LanguageTypeScript, true)
	require.NoError(t, err)
	defer tree.Close()

	assert.Contains(t, tree.RootNode().ToSexp(), "jsx_self_closing_element")
	assert.Contains(t, tree.RootNode().ToSexp(), "interface_declaration")
}

func TestParseJavaScriptWithJSX(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	tree, err := sp.Parse([]byte(sampleJSX), LanguageJavaScript, false)
	require.NoError(t, err)
	defer tree.Close()

	assert.Contains(t, tree.RootNode().ToSexp(), "jsx_element")
}

func TestParseFile(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	tests := []struct {
		path   string
		source string
	}{
		{"src/app.ts", "export const a: string = 'x';"},
		{"src/Form.tsx", sampleTSX},
		{"src/Card.jsx", sampleJSX},
		{"src/index.js", "module.exports = {};"},
		{"src/esm.mjs", "export default 1;"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tree, err := sp.ParseFile([]byte(tt.source), tt.path)
			require.NoError(t, err)
			defer tree.Close()
			assert.Equal(t, "program", tree.RootNode().Kind())
		})
	}
}

func TestParseFileGrammar_JSXInTSFile(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	tree, isTSX, err := sp.ParseFileGrammar([]byte(`export const el = <div className="x">hi</div>;`), "src/el.ts")
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, isTSX)
	assert.Contains(t, tree.RootNode().ToSexp(), "jsx_element")
	assert.Equal(t, 0, sp.Stats().SyntaxErrors)
}

func TestParseFileGrammar_TypeAssertionStaysTypeScript(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	tree, isTSX, err := sp.ParseFileGrammar([]byte("declare const v: unknown;\nconst n = <number>v;\n"), "src/cast.ts")
	require.NoError(t, err)
	defer tree.Close()
	assert.False(t, isTSX)
	assert.Equal(t, 1, sp.Stats().Pools)
}

func TestParseFileGrammar_BrokenTSStillRejected(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	_, _, err := sp.ParseFileGrammar([]byte("function ( {{{"), "src/broken.ts")
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Equal(t, 1, sp.Stats().SyntaxErrors)
}

func TestParseFile_Unsupported(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	_, err := sp.ParseFile([]byte("body {}"), "styles.css")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.Contains(t, err.Error(), "styles.css")
}

func TestParse_StrictRejectsSyntaxErrors(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	_, err := sp.ParseFile([]byte("function ( {{{ return <div"), "broken.tsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Equal(t, 1, sp.Stats().SyntaxErrors)
}

func TestParse_LenientReturnsPartialTree(t *testing.T) {
	sp := newTestParser(false)
	defer sp.Close()

	tree, err := sp.ParseFile([]byte("function ( {{{ return <div"), "broken.tsx")
	require.NoError(t, err)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}

func TestParse_UnknownLanguage(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	_, err := sp.Parse([]byte("x"), LanguageUnknown, false)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestLazyPoolCreation(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	assert.Equal(t, 0, sp.Stats().ParsersCreated)

	for i := 0; i < 3; i++ {
		tree, err := sp.Parse([]byte("const x = 1;"), LanguageTypeScript, false)
		require.NoError(t, err)
		tree.Close()
	}

	stats := sp.Stats()
	assert.Equal(t, 1, stats.ParsersCreated, "sequential parses reuse one parser")
	assert.Equal(t, 3, stats.ParsesCalled)
	assert.Equal(t, 1, stats.Pools)

	tree, err := sp.Parse([]byte("const x = <a />;"), LanguageTypeScript, true)
	require.NoError(t, err)
	tree.Close()
	assert.Equal(t, 2, sp.Stats().Pools, "tsx gets its own pool")
}

func TestJavaScriptIgnoresTSXFlag(t *testing.T) {
	sp := newTestParser(true)
	defer sp.Close()

	tree, err := sp.Parse([]byte("const a = 1;"), LanguageJavaScript, true)
	require.NoError(t, err)
	tree.Close()
	assert.Equal(t, 1, sp.Stats().Pools)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path  string
		lang  Language
		isTSX bool
	}{
		{"a.ts", LanguageTypeScript, false},
		{"a.mts", LanguageTypeScript, false},
		{"a.cts", LanguageTypeScript, false},
		{"a.tsx", LanguageTypeScript, true},
		{"A.TSX", LanguageTypeScript, true},
		{"a.js", LanguageJavaScript, false},
		{"a.jsx", LanguageJavaScript, false},
		{"a.cjs", LanguageJavaScript, false},
		{"a.java", LanguageUnknown, false},
		{"Makefile", LanguageUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.lang, DetectLanguage(tt.path))
			assert.Equal(t, tt.isTSX, IsTSXFile(tt.path))
		})
	}
}

func TestParseLanguageString(t *testing.T) {
	lang, tsx := ParseLanguageString("tsx")
	assert.Equal(t, LanguageTypeScript, lang)
	assert.True(t, tsx)

	lang, _ = ParseLanguageString("JS")
	assert.Equal(t, LanguageJavaScript, lang)

	lang, _ = ParseLanguageString("python")
	assert.Equal(t, LanguageUnknown, lang)
}
