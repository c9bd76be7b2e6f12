package scanner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archbase/archbase-cli/pkg/component"
	"github.com/archbase/archbase-cli/pkg/util"
)

const userFormSource = `import React from 'react';
import { ArchbaseEdit, ArchbaseFormTemplate, ArchbaseRemoteDataSource } from '@archbase/react';
import { Button } from '@mantine/core';

export function UserForm({ ds }: { ds: any }) {
  return (
    <ArchbaseFormTemplate dataSource={ds} title="Users">
      <ArchbaseEdit dataSource={ds} dataField="name" label="Name" />
      <ArchbaseEdit dataField="email" disabled />
      <Button>Save</Button>
    </ArchbaseFormTemplate>
  );
}
`

const gridPageSource = `import { ArchbaseDataGrid, ArchbaseModal as Modal, ArchbaseLoading } from 'archbase-legacy';
import { ArchbaseSelect } from './local';

export const GridPage = ({ dataSource }) => (
  <div>
    <ArchbaseDataGrid dataSource={dataSource} pageSize={20} />
    <Modal opened />
    <ArchbaseLoading loading={true} />
    <ArchbaseSelect dataSource={dataSource} />
  </div>
);
`

const packageJSONSource = `{
  "dependencies": {"@archbase/react": "^2.1.0", "react": "^18.2.0", "@mantine/core": "^7.0.0"},
  "devDependencies": {"@emotion/react": "^11.0.0"}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "src/forms/UserForm.tsx", userFormSource)
	writeFile(t, dir, "src/pages/GridPage.tsx", gridPageSource)
	writeFile(t, dir, "src/broken.tsx", "export const X = (<div>;\n")
	writeFile(t, dir, "src/util.ts", "export const add = (a: number, b: number) => a + b;\n")
	writeFile(t, dir, "node_modules/lib/index.tsx", userFormSource)
	writeFile(t, dir, "package.json", packageJSONSource)
	return dir
}

func newTestScanner(t *testing.T) *ProjectScanner {
	t.Helper()
	s := NewProjectScanner(Options{Logger: testLogger()})
	t.Cleanup(func() { s.Close() })
	return s
}

func scanProject(t *testing.T, s *ProjectScanner, dir string, workers int) *ProjectScanResult {
	t.Helper()
	result, err := s.Scan(context.Background(), ScanOptions{ProjectPath: dir, Workers: workers})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func usageNames(usages []ComponentUsage) []string {
	names := make([]string, len(usages))
	for i, u := range usages {
		names[i] = u.Name
	}
	return names
}

func TestScan_Project(t *testing.T) {
	dir := newTestProject(t)
	result := scanProject(t, newTestScanner(t), dir, 0)

	assert.Equal(t,
		[]string{"ArchbaseFormTemplate", "ArchbaseEdit", "ArchbaseEdit", "ArchbaseDataGrid", "ArchbaseLoading"},
		usageNames(result.Components))

	form := result.Components[0]
	assert.Equal(t, "src/forms/UserForm.tsx", form.File)
	assert.Equal(t, "@archbase/react", form.ImportPath)
	assert.Equal(t, 7, form.Line)
	assert.Equal(t, 4, form.Column)
	assert.True(t, form.HasDataSource)
	assert.Equal(t, component.VersionV2, form.DataSourceVersion)
	assert.Equal(t, []string{PatternFormWithDataSource}, form.Patterns)
	require.Len(t, form.Issues, 1)
	assert.Equal(t, IssueSuggestion, form.Issues[0].Type)
	assert.Equal(t, "Consider using ArchbaseDataSource V2 for better performance", form.Issues[0].Message)

	unbound := result.Components[2]
	assert.False(t, unbound.HasDataSource)
	assert.Empty(t, unbound.DataSourceVersion)
	require.Len(t, unbound.Issues, 2)
	assert.Equal(t, ComponentIssue{
		Type: IssueError, Message: "Missing required prop: dataSource",
		Fix: "Add dataSource prop to ArchbaseEdit", Line: 9, Column: 6,
	}, unbound.Issues[0])
	assert.Equal(t, IssueWarning, unbound.Issues[1].Type)
	assert.Equal(t, "ArchbaseEdit without dataSource prop may not update automatically", unbound.Issues[1].Message)

	grid := result.Components[3]
	assert.Equal(t, "src/pages/GridPage.tsx", grid.File)
	assert.Equal(t, "archbase-legacy", grid.ImportPath)
	assert.True(t, grid.HasDataSource)
	assert.Empty(t, grid.DataSourceVersion, "no version keywords in file")
	assert.Equal(t, []PropUsage{
		{Name: "dataSource", Type: PropVariable, Value: "dataSource"},
		{Name: "pageSize", Type: PropNumber, Value: float64(20)},
	}, grid.Props)

	assert.Equal(t, []string{PatternAsyncLoading}, result.Components[4].Patterns)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "src/broken.tsx", result.Errors[0].File)

	stats := result.Statistics
	assert.Equal(t, 5, stats.TotalComponents)
	assert.Equal(t, 5, stats.ArchbaseComponents)
	assert.Equal(t, 2, stats.V2Components)
	assert.Equal(t, 0, stats.V1Components)
	assert.Equal(t, 3, stats.FilesScanned)
	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 5, stats.IssuesFound)
	assert.InDelta(t, 2.0, stats.AvgPropsPerUsage, 1e-9)
	assert.InDelta(t, 0.7071, stats.StddevPropsPerUsage, 1e-3)

	assert.Equal(t, []string{PatternFormWithDataSource, PatternAsyncLoading}, result.Patterns.Detected)
	assert.Equal(t, []string{PatternCRUDWithDataGrid}, result.Patterns.Recommended)
	assert.Equal(t, []string{PatternValidationWithFeedback}, result.Patterns.Missing)

	require.Len(t, result.Migration.V1ToV2Candidates, 1)
	assert.Equal(t, "ArchbaseDataGrid", result.Migration.V1ToV2Candidates[0].Name)
	assert.Equal(t, EffortLow, result.Migration.EstimatedEffort)
	assert.Equal(t, []string{
		"Migrate 1 components to DataSource V2",
		"Use ArchbaseRemoteDataSource for better performance",
		"Implement reactive data binding patterns",
		"Add validation feedback to forms",
	}, result.Migration.Recommendations)

	assert.Equal(t, "^2.1.0", result.Dependencies.ArchbaseVersion)
	assert.Equal(t, "^18.2.0", result.Dependencies.ReactVersion)
	assert.Equal(t, []string{"@mantine/hooks", "react-query"}, result.Dependencies.MissingDependencies)
	assert.Empty(t, result.Dependencies.OutdatedDependencies)

	edit := result.Usage["ArchbaseEdit"]
	require.NotNil(t, edit)
	assert.Equal(t, 2, edit.Count)
	assert.Equal(t, map[string]int{"dataSource": 1, "dataField": 2, "label": 1, "disabled": 1}, edit.PropCounts)
	assert.Equal(t, []string{"src/forms/UserForm.tsx"}, edit.Files)
}

func TestScan_WorkerCountDoesNotChangeResult(t *testing.T) {
	dir := newTestProject(t)
	s := newTestScanner(t)

	one := scanProject(t, s, dir, 1)
	many := scanProject(t, s, dir, 8)
	assert.Equal(t, one.Components, many.Components)
	assert.Equal(t, one.Usage, many.Usage)
	assert.Equal(t, one.Statistics, many.Statistics)
	assert.Equal(t, one.Errors, many.Errors)
}

func TestScan_NoPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tsx", userFormSource)

	result := scanProject(t, newTestScanner(t), dir, 0)
	assert.Empty(t, result.Dependencies.ArchbaseVersion)
	assert.Empty(t, result.Dependencies.MissingDependencies)
	assert.NotNil(t, result.Dependencies.MissingDependencies)
}

func TestScan_EmptyProject(t *testing.T) {
	result := scanProject(t, newTestScanner(t), t.TempDir(), 0)
	assert.Empty(t, result.Components)
	assert.NotNil(t, result.Components)
	assert.Equal(t, 0, result.Statistics.FilesScanned)
	assert.Equal(t, EffortLow, result.Migration.EstimatedEffort)
	assert.Len(t, result.Patterns.Missing, 4)
}

func TestScan_Progress(t *testing.T) {
	dir := newTestProject(t)
	var calls, lastTotal int
	_, err := newTestScanner(t).Scan(context.Background(), ScanOptions{
		ProjectPath: dir,
		Progress: func(done, total int, file string) {
			calls++
			lastTotal = total
			assert.LessOrEqual(t, done, total)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, lastTotal)
}

func TestScan_InvalidPattern(t *testing.T) {
	_, err := newTestScanner(t).Scan(context.Background(), ScanOptions{
		ProjectPath: t.TempDir(),
		Include:     []string{"[unclosed"},
	})
	require.Error(t, err)
	var aerr *util.AnalyzerError
	assert.ErrorAs(t, err, &aerr)
}

func TestScan_Cancelled(t *testing.T) {
	dir := newTestProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(t).Scan(ctx, ScanOptions{ProjectPath: dir})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeSource_PropTypes(t *testing.T) {
	src := `import { ArchbaseEdit } from '@archbase/react';
export const F = () => <ArchbaseEdit dataSource={ds} dataField="name" readOnly required={false} width={12.5} onChange={() => {}} />;
`
	usages, err := newTestScanner(t).AnalyzeSource("F.jsx", []byte(src))
	require.NoError(t, err)
	require.Len(t, usages, 1)

	assert.Equal(t, []PropUsage{
		{Name: "dataSource", Type: PropVariable, Value: "ds"},
		{Name: "dataField", Type: PropString, Value: "name"},
		{Name: "readOnly", Type: PropBoolean, Value: true},
		{Name: "required", Type: PropBoolean, Value: false},
		{Name: "width", Type: PropNumber, Value: 12.5},
		{Name: "onChange", Type: PropUnknown, Value: nil},
	}, usages[0].Props)
	assert.True(t, usages[0].HasDataSource)
	assert.Empty(t, usages[0].DataSourceVersion)
	assert.Equal(t, 2, usages[0].Line)
}

func TestAnalyzeSource_ImportRules(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"named import", "import { ArchbaseButton } from '@archbase/react';\nconst a = <ArchbaseButton />;\n", 1},
		{"aliased import", "import { ArchbaseButton as B } from '@archbase/react';\nconst a = <B />;\nconst b = <ArchbaseButton />;\n", 0},
		{"default import", "import ArchbaseButton from '@archbase/react/button';\nconst a = <ArchbaseButton />;\n", 0},
		{"not imported", "const a = <ArchbaseButton />;\n", 0},
		{"non archbase source", "import { ArchbaseButton } from './button';\nconst a = <ArchbaseButton />;\n", 0},
		{"unknown component", "import { ArchbaseThing } from '@archbase/react';\nconst a = <ArchbaseThing />;\n", 0},
		{"nested elements", "import { ArchbaseModal, ArchbaseButton } from '@archbase/react';\nconst a = <ArchbaseModal opened><ArchbaseButton /></ArchbaseModal>;\n", 2},
	}

	s := newTestScanner(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usages, err := s.AnalyzeSource("x.jsx", []byte(tt.src))
			require.NoError(t, err)
			assert.Len(t, usages, tt.want)
		})
	}
}

func TestDetectDataSourceVersion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		value   any
		want    component.DataSourceVersion
	}{
		{"v2 keyword", "ds.appendToFieldArray('x')", "ds", component.VersionV2},
		{"v1 keyword", "ds.forceUpdate()", "ds", component.VersionV1},
		{"both sides", "ArchbaseRemoteDataSource; ds.setFieldValue()", "ds", ""},
		{"hook name carries a v1 keyword", "useArchbaseDataSource()", "ds", ""},
		{"no keywords", "plain", "ds", ""},
		{"empty string", "appendToFieldArray", "", ""},
		{"nil value", "appendToFieldArray", nil, ""},
		{"false value", "appendToFieldArray", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectDataSourceVersion(tt.content, tt.value))
		})
	}
}

func TestDetectIssues_RequiredProps(t *testing.T) {
	issues := detectIssues("ArchbaseRemoteDataSource", nil, 3, 2)
	require.Len(t, issues, 1)
	assert.Equal(t, "Missing required prop: url", issues[0].Message)
	assert.Equal(t, "Add url prop to ArchbaseRemoteDataSource", issues[0].Fix)

	assert.Empty(t, detectIssues("ArchbaseButton", nil, 1, 0))
	assert.Empty(t, detectIssues("ArchbaseModal", []PropUsage{{Name: "opened", Type: PropBoolean, Value: true}}, 1, 0))
}

func TestMergeUsage_OrderIndependent(t *testing.T) {
	usages := []ComponentUsage{
		{Name: "ArchbaseEdit", File: "b.tsx", Props: []PropUsage{{Name: "dataField"}}},
		{Name: "ArchbaseEdit", File: "a.tsx", Props: []PropUsage{{Name: "dataField"}, {Name: "label"}}},
		{Name: "ArchbaseButton", File: "a.tsx"},
		{Name: "ArchbaseEdit", File: "b.tsx"},
	}
	reversed := make([]ComponentUsage, len(usages))
	for i, u := range usages {
		reversed[len(usages)-1-i] = u
	}

	forward := MergeUsage(nil, usages)
	backward := MergeUsage(nil, reversed)
	assert.Equal(t, forward, backward)

	split := MergeUsage(nil, usages[2:])
	split = MergeUsage(split, usages[:2])
	assert.Equal(t, forward, split)

	assert.Equal(t, 3, forward["ArchbaseEdit"].Count)
	assert.Equal(t, []string{"a.tsx", "b.tsx"}, forward["ArchbaseEdit"].Files)
	assert.Equal(t, 2, forward["ArchbaseEdit"].PropCounts["dataField"])
}

func TestEffortFor(t *testing.T) {
	assert.Equal(t, EffortLow, effortFor(0))
	assert.Equal(t, EffortLow, effortFor(10))
	assert.Equal(t, EffortMedium, effortFor(11))
	assert.Equal(t, EffortMedium, effortFor(25))
	assert.Equal(t, EffortHigh, effortFor(26))
}

func TestWriteReport(t *testing.T) {
	dir := newTestProject(t)
	result := scanProject(t, newTestScanner(t), dir, 0)

	path := filepath.Join(t.TempDir(), "out", "report.json")
	report, err := WriteReport(result, path)
	require.NoError(t, err)
	assert.Len(t, report.ID, 36)
	assert.Equal(t, []string{
		"Fix 5 component issues found",
		"Consider migrating to DataSource V2 for better performance",
		"Install recommended dependencies for better integration",
		"Implement recommended patterns for better maintainability",
	}, report.Recommendations)

	var loaded ScanReport
	require.NoError(t, util.ReadJSONFile(path, &loaded))
	assert.Equal(t, report.ID, loaded.ID)
	assert.Equal(t, report.Summary, loaded.Summary)
	assert.Equal(t, usageNames(report.Components), usageNames(loaded.Components))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"id\""))
}

func TestAutoFix(t *testing.T) {
	dir := newTestProject(t)
	result := scanProject(t, newTestScanner(t), dir, 0)

	fix := AutoFix(result, true, testLogger())
	assert.Equal(t, 4, fix.Fixed)
	assert.Equal(t, 1, fix.Skipped)
	assert.Empty(t, fix.Errors)
	require.Len(t, fix.Actions, 4)
	for _, a := range fix.Actions {
		assert.True(t, strings.HasPrefix(a, "Would fix: "), a)
	}

	applied := AutoFix(result, false, testLogger())
	assert.True(t, strings.HasPrefix(applied.Actions[0], "Fixing: "))

	data, err := os.ReadFile(filepath.Join(dir, "src/forms/UserForm.tsx"))
	require.NoError(t, err)
	assert.Equal(t, userFormSource, string(data), "sources are never rewritten")
}

func TestScan_RescanSeesEdits(t *testing.T) {
	dir := newTestProject(t)
	s := newTestScanner(t)

	first := scanProject(t, s, dir, 2)
	require.Len(t, first.Components, 5)
	require.Len(t, first.Errors, 1)

	// Replace GridPage by rename, dropping the loading indicator.
	page := strings.Replace(gridPageSource, "    <ArchbaseLoading loading={true} />\n", "", 1)
	tmp := writeFile(t, dir, "src/pages/GridPage.tsx.tmp", page)
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, "src/pages/GridPage.tsx")))

	// Repair the broken file in place; it grows.
	writeFile(t, dir, "src/broken.tsx", "import { ArchbaseCheckbox } from '@archbase/react';\nexport const X = () => <ArchbaseCheckbox dataField=\"ok\" />;\n")

	second := scanProject(t, s, dir, 2)
	assert.Equal(t,
		[]string{"ArchbaseCheckbox", "ArchbaseFormTemplate", "ArchbaseEdit", "ArchbaseEdit", "ArchbaseDataGrid"},
		usageNames(second.Components))
	assert.Empty(t, second.Errors)
	assert.Equal(t, 4, second.Statistics.FilesScanned)
	assert.NotContains(t, second.Patterns.Detected, PatternAsyncLoading)
}
