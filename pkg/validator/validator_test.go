package validator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validForm = `import React, { useState } from 'react';
import { ArchbaseEdit } from '@archbase/react';

interface UserFormProps {
  title: string;
}

export default function UserForm(props: UserFormProps) {
  const [value, setValue] = useState('');
  if (!props.title) {
    return null;
  }
  return value ? <ArchbaseEdit label={props.title} /> : <div />;
}
`

func testValidator(t *testing.T) *Validator {
	t.Helper()
	v := NewValidator(Options{Workers: 2, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	t.Cleanup(func() { v.Close() })
	return v
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func errorMessages(r *ValidationResult) []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Message
	}
	return out
}

func warningMessages(r *ValidationResult) []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.Message
	}
	return out
}

func TestValidateCode_ValidComponent(t *testing.T) {
	r := testValidator(t).ValidateCode(validForm, "UserForm.tsx")

	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, CodeMetrics{
		LinesOfCode:    15,
		Complexity:     3,
		ComponentCount: 1,
		HookCount:      1,
		ImportCount:    2,
		HasTypeScript:  true,
	}, r.Metrics)
}

func TestValidateCode_MissingImports(t *testing.T) {
	r := testValidator(t).ValidateCode("export function Grid() {\n  return <ArchbaseDataGrid />;\n}\n", "Grid.tsx")

	assert.False(t, r.Valid)
	assert.Equal(t, []string{
		"Missing React import for JSX usage",
		"Missing @archbase/react import for Archbase components",
	}, errorMessages(r))
	for _, e := range r.Errors {
		assert.Equal(t, ErrorImport, e.Type)
		assert.Equal(t, SeverityError, e.Severity)
	}

	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "React component should have a default export", r.Warnings[0].Message)
	assert.Equal(t, "Add `export default Grid`", r.Warnings[0].Suggestion)
}

func TestValidateCode_PropsInterfaceWarning(t *testing.T) {
	code := "import React from 'react';\nexport default function Card(props) {\n  return <div>{props.title}</div>;\n}\n"
	r := testValidator(t).ValidateCode(code, "Card.jsx")

	assert.True(t, r.Valid, "warnings do not invalidate")
	assert.Equal(t, []string{"Component Card should define a Props interface"}, warningMessages(r))
	assert.Equal(t, "Add interface CardProps { ... }", r.Warnings[0].Suggestion)
}

func TestValidateCode_SyntaxError(t *testing.T) {
	r := testValidator(t).ValidateCode("import React from 'react';\nexport function Broken( {\n  return <div>;\n", "Broken.tsx")

	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	e := r.Errors[0]
	assert.Equal(t, ErrorSyntax, e.Type)
	assert.Contains(t, e.Message, "Parse error:")
	assert.GreaterOrEqual(t, e.Line, 2)
	assert.Positive(t, e.Column)
	assert.Equal(t, CodeMetrics{}, r.Metrics)
}

func TestValidateCode_ComplexityAndHooks(t *testing.T) {
	code := `import { useMemo } from 'react';
export function useTotal(a: number, b?: number) {
  const base = (a > 0 && b) || 0;
  const extra = b ?? 1;
  return useMemo(() => base + extra, [base, extra]);
}
`
	r := testValidator(t).ValidateCode(code, "useTotal.ts")

	assert.True(t, r.Valid)
	assert.Equal(t, 4, r.Metrics.Complexity)
	assert.Equal(t, 2, r.Metrics.HookCount, "declaration plus call")
	assert.Equal(t, 0, r.Metrics.ComponentCount)
}

func TestValidateCode_GrammarSelection(t *testing.T) {
	v := testValidator(t)
	jsx := "import React from 'react';\nexport default function A() { return <div />; }\n"

	for _, name := range []string{"", "snippet", "A.tsx", "a.ts", "A.jsx"} {
		r := v.ValidateCode(jsx, name)
		assert.True(t, r.Valid, "%q: %v", name, r.Errors)
	}
	assert.Equal(t, DefaultFileName, v.ValidateCode(jsx, "").FilePath)
}

func TestValidateCode_TestFileMetric(t *testing.T) {
	r := testValidator(t).ValidateCode("import React from 'react';\n", "Form.test.tsx")
	assert.True(t, r.Metrics.HasTests)
}

func TestValidateFile_ReadError(t *testing.T) {
	r := testValidator(t).ValidateFile(filepath.Join(t.TempDir(), "missing.tsx"))

	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Message, "Failed to read file:")
}

func TestValidateFiles_KeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.tsx", "b.tsx", "c.tsx", "d.tsx"} {
		paths = append(paths, writeFile(t, dir, name, validForm))
	}
	paths = append(paths, filepath.Join(dir, "missing.tsx"))

	results, err := testValidator(t).ValidateFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.FilePath)
	}
	assert.False(t, results[4].Valid)
}

func TestValidateProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{
  "dependencies": {"react": "^18.2.0", "react-dom": "^18.2.0"},
  "devDependencies": {"typescript": "^5.0.0"},
  "scripts": {"build": "vite build"}
}`)
	writeFile(t, dir, "src/App.tsx", validForm)
	writeFile(t, dir, "src/components/Bad.tsx", "export default function Bad() { return <span />; }\n")
	writeFile(t, dir, "src/types.ts", "export type Id = string;\n")
	writeFile(t, dir, "src/styles.css", "body {}")

	r, err := testValidator(t).ValidateProject(context.Background(), dir)
	require.NoError(t, err)

	assert.False(t, r.Valid)
	assert.Equal(t, 3, r.Files)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "Missing React import for JSX usage", r.Errors[0].Message)
	assert.Equal(t, "src/components/Bad.tsx", r.Errors[0].File)

	warnings := warningMessages(r)
	assert.Contains(t, warnings, "Missing recommended dependency: @types/react")
	assert.Contains(t, warnings, "Missing recommended dependency: @types/react-dom")
	assert.NotContains(t, warnings, "Missing recommended dependency: typescript")
	assert.Contains(t, warnings, "Missing script: dev")
	assert.NotContains(t, warnings, "Missing script: build")
	assert.Contains(t, warnings, "Missing tsconfig.json - TypeScript configuration recommended")

	assert.Equal(t, 2, r.Metrics.ComponentCount)
	assert.True(t, r.Metrics.HasTypeScript)
}

func TestValidateProject_MissingPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tsconfig.json", "{}")

	r, err := testValidator(t).ValidateProject(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, r.Valid)
	assert.Equal(t, []string{"Missing package.json file"}, errorMessages(r))
	assert.Equal(t, ErrorStructure, r.Errors[0].Type)
	assert.Empty(t, r.Warnings)
	assert.Zero(t, r.Files)
}

func TestValidateProject_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies": {"react": "1", "react-dom": "1"}}`)
	writeFile(t, dir, "src/App.tsx", validForm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testValidator(t).ValidateProject(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRules(t *testing.T) {
	assert.Equal(t, []string{
		"react-component-structure",
		"typescript-props-interface",
		"required-imports",
		"archbase-imports",
	}, testValidator(t).Rules())
}

func TestGeneratedFiles(t *testing.T) {
	dir := t.TempDir()
	old := writeFile(t, dir, "forms/Old.tsx", validForm)
	writeFile(t, dir, "src/nested/Deep.tsx", validForm)
	writeFile(t, dir, "views/readme.md", "# views")
	newest := writeFile(t, dir, "src/New.ts", "export const x = 1;\n")
	mid := writeFile(t, dir, "pages/Mid.tsx", validForm)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, base, base))
	require.NoError(t, os.Chtimes(mid, base.Add(time.Minute), base.Add(time.Minute)))
	require.NoError(t, os.Chtimes(newest, base.Add(2*time.Minute), base.Add(2*time.Minute)))

	files, err := GeneratedFiles(dir, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{newest, mid, old}, files, "top level only, newest first")

	files, err = GeneratedFiles(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{newest, mid}, files)
}
