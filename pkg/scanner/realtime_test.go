package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archbase/archbase-cli/pkg/component"
	"github.com/archbase/archbase-cli/pkg/util"
)

const gridPageEdited = `import { ArchbaseDataGrid, ArchbaseModal } from '@archbase/react';

export const GridPage = () => (
  <div>
    <ArchbaseDataGrid />
    <ArchbaseModal />
  </div>
);
`

func startRealtime(t *testing.T, dir string, opts RealtimeOptions) *RealtimeScanner {
	t.Helper()
	opts.ProjectPath = dir
	opts.Logger = testLogger()
	rs, err := NewRealtimeScanner(newTestScanner(t), opts)
	require.NoError(t, err)
	require.NoError(t, rs.Start(context.Background()))
	t.Cleanup(func() { rs.Stop() })
	return rs
}

func TestRealtime_ProcessChange(t *testing.T) {
	dir := newTestProject(t)
	// Timers never fire; the test drives process directly.
	rs := startRealtime(t, dir, RealtimeOptions{Debounce: time.Hour})

	stats := rs.Stats()
	require.NotNil(t, stats)
	assert.Equal(t, 5, stats.ArchbaseComponents)

	grid := writeFile(t, dir, "src/pages/GridPage.tsx", gridPageEdited)
	analysis, err := rs.process(grid)
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.Equal(t, "src/pages/GridPage.tsx", analysis.File)
	assert.Equal(t, []string{"ArchbaseDataGrid", "ArchbaseModal"}, usageNames(analysis.Components))
	assert.Equal(t, 1, analysis.NewIssues)
	assert.Equal(t, 0, analysis.FixedIssues)
	assert.Equal(t, []string{"Fix missing required props for better reliability"}, analysis.Suggestions)

	assert.Len(t, rs.FileComponents("src/pages/GridPage.tsx"), 2)
	assert.Len(t, rs.FileComponents(grid), 2)
	assert.Equal(t, 5, rs.Stats().ArchbaseComponents)
	assert.Equal(t, 2, rs.Stats().FilesScanned)

	again, err := rs.process(grid)
	require.NoError(t, err)
	assert.Nil(t, again, "unchanged content is skipped")
	assert.Equal(t, int64(1), rs.WatchStats().Unchanged)
	assert.Equal(t, int64(1), rs.WatchStats().Analyzed)
}

func TestRealtime_ProcessRemoval(t *testing.T) {
	dir := newTestProject(t)
	rs := startRealtime(t, dir, RealtimeOptions{Debounce: time.Hour})

	form := filepath.Join(dir, "src", "forms", "UserForm.tsx")
	require.NoError(t, os.Remove(form))

	analysis, err := rs.process(form)
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.True(t, analysis.Removed)
	assert.Equal(t, 4, analysis.FixedIssues)
	assert.Empty(t, analysis.Components)

	assert.Empty(t, rs.FileComponents("src/forms/UserForm.tsx"))
	stats := rs.Stats()
	assert.Equal(t, 2, stats.ArchbaseComponents)
	assert.Equal(t, 1, stats.FilesScanned)
	assert.Equal(t, 0, stats.V2Components)

	// Removing a file without usages changes nothing.
	plain := filepath.Join(dir, "src", "util.ts")
	require.NoError(t, os.Remove(plain))
	none, err := rs.process(plain)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRealtime_ParseErrorKeepsPreviousUsages(t *testing.T) {
	dir := newTestProject(t)
	rs := startRealtime(t, dir, RealtimeOptions{Debounce: time.Hour})

	grid := writeFile(t, dir, "src/pages/GridPage.tsx", "export const G = (<div>;\n")
	_, err := rs.process(grid)
	require.Error(t, err)

	assert.Len(t, rs.FileComponents("src/pages/GridPage.tsx"), 2)
	snap := rs.Snapshot()
	require.NotNil(t, snap)
	files := make([]string, 0, len(snap.Errors))
	for _, e := range snap.Errors {
		files = append(files, e.File)
	}
	assert.ElementsMatch(t, []string{"src/broken.tsx", "src/pages/GridPage.tsx"}, files)

	writeFile(t, dir, "src/broken.tsx", "export const fixed = 1;\n")
	_, err = rs.process(filepath.Join(dir, "src", "broken.tsx"))
	require.NoError(t, err)
	assert.Len(t, rs.Snapshot().Errors, 1)
}

func TestRealtime_ExportState(t *testing.T) {
	dir := newTestProject(t)
	rs := startRealtime(t, dir, RealtimeOptions{Debounce: time.Hour})

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, rs.ExportState(path))

	var loaded ProjectScanResult
	require.NoError(t, util.ReadJSONFile(path, &loaded))
	assert.Equal(t, rs.Stats().ArchbaseComponents, len(loaded.Components))
	assert.Equal(t, *rs.Stats(), loaded.Statistics)
}

func TestRealtime_WatchesFileChanges(t *testing.T) {
	dir := newTestProject(t)
	got := make(chan FileAnalysis, 8)
	startRealtime(t, dir, RealtimeOptions{
		Debounce:   20 * time.Millisecond,
		OnAnalysis: func(a FileAnalysis) { got <- a },
	})

	writeFile(t, dir, "src/pages/Extra.tsx", gridPageEdited)

	select {
	case a := <-got:
		assert.Equal(t, "src/pages/Extra.tsx", a.File)
		assert.Len(t, a.Components, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("no analysis delivered for new file")
	}
}

func TestRealtime_IgnoresExcludedAndForeignFiles(t *testing.T) {
	dir := newTestProject(t)
	rs, err := NewRealtimeScanner(newTestScanner(t), RealtimeOptions{ProjectPath: dir, Logger: testLogger()})
	require.NoError(t, err)
	defer rs.Stop()

	assert.True(t, rs.watched(filepath.Join(dir, "src", "a.tsx")))
	assert.False(t, rs.watched(filepath.Join(dir, "node_modules", "x", "a.tsx")))
	assert.False(t, rs.watched(filepath.Join(dir, "src", "style.css")))
	assert.True(t, rs.excluded(filepath.Join(dir, "dist"), true))
}

func TestRealtime_StartTwice(t *testing.T) {
	dir := newTestProject(t)
	rs := startRealtime(t, dir, RealtimeOptions{Debounce: time.Hour})
	assert.Error(t, rs.Start(context.Background()))
	assert.True(t, rs.WatchStats().Running)

	require.NoError(t, rs.Stop())
	require.NoError(t, rs.Stop())
	assert.False(t, rs.WatchStats().Running)
}

func TestSuggestions(t *testing.T) {
	var usages []ComponentUsage
	for i := 0; i < 6; i++ {
		usages = append(usages, ComponentUsage{Name: "ArchbaseEdit", DataSourceVersion: component.VersionV1})
	}
	usages = append(usages, ComponentUsage{Name: "ArchbaseFormTemplate", Issues: []ComponentIssue{{Type: IssueError}}})

	assert.Equal(t, []string{
		"Consider migrating 6 component(s) to DataSource V2",
		"Fix missing required props for better reliability",
		"Add validation feedback to forms",
		"Consider extracting ArchbaseEdit into a reusable component",
	}, suggestions(usages))

	assert.Empty(t, suggestions(nil))
}
