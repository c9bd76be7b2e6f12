package docs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archbase/archbase-cli/pkg/util"
)

const dataSourceV2Doc = "# DataSource V2\n" +
	"\n" +
	"The ArchbaseDataSourceV2 introduces reactive field arrays.\n" +
	"\n" +
	"New feature: immutable updates with Immer\n" +
	"\n" +
	"## appendToFieldArray(fieldName, item)\n" +
	"\n" +
	"Appends an item to an array field of the current record.\n" +
	"Param: `fieldName`\n" +
	"Returns: `Promise<void>`\n" +
	"\n" +
	"Appending an item:\n" +
	"```tsx\n" +
	"dataSource.appendToFieldArray('items', { id: 1 });\n" +
	"```\n" +
	"\n" +
	"## Migration from V1\n" +
	"\n" +
	"Benefit: fewer re-renders.\n" +
	"\n" +
	"1. Replace ArchbaseDataSource with ArchbaseDataSourceV2\n" +
	"2. Use appendToFieldArray for arrays\n" +
	"\n" +
	"Best practice: always pass ArchbaseRemoteDataSource to ArchbaseDataGrid.\n" +
	"✅ Use ArchbaseEdit with dataField\n" +
	"❌ Mutate records directly\n" +
	"\n" +
	"The new engine is faster than before.\n"

const editDoc = "# ArchbaseEdit\n" +
	"\n" +
	"Pattern: controlled text field bound to a DataSource\n" +
	"Use it inside forms with dataSource and dataField props.\n" +
	"\n" +
	"```tsx\n" +
	"<ArchbaseEdit dataSource={dataSource} dataField=\"name\" label=\"Name\" />\n" +
	"```\n"

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

func newTestDocs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "datasource/DataSourceV2.md", dataSourceV2Doc)
	writeFile(t, dir, "components/ArchbaseEdit.md", editDoc)
	writeFile(t, dir, "empty.md", "")
	writeFile(t, dir, "node_modules/pkg/README.md", dataSourceV2Doc)
	writeFile(t, dir, "notes.txt", dataSourceV2Doc)
	return dir
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a := NewAnalyzer(Options{Workers: 2, Logger: testLogger()})
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAnalyze_Docs(t *testing.T) {
	analysis, err := newTestAnalyzer(t).Analyze(context.Background(), newTestDocs(t))
	require.NoError(t, err)

	assert.Equal(t, 3, analysis.FilesAnalyzed)
	assert.Zero(t, analysis.FilesFailed)

	t.Run("datasource v2", func(t *testing.T) {
		ds := analysis.DataSourceV2
		assert.ElementsMatch(t, []string{"immutable updates with Immer", "reactive field arrays."}, ds.NewFeatures)
		assert.Equal(t, []string{"appendToFieldArray"}, ds.NewMethods)
		assert.Equal(t, []string{"The new engine is faster than before."}, ds.PerformanceImprovements)
		assert.Empty(t, ds.BreakingChanges)
		assert.Equal(t, []string{"Appending an item:"}, ds.UsageExamples)
		assert.Equal(t, []string{"Migration from V1"}, ds.MigrationPatterns)
	})

	t.Run("code examples", func(t *testing.T) {
		require.Len(t, analysis.CodeExamples, 2)
		first := analysis.CodeExamples[0]
		assert.Equal(t, "Appending an item:", first.Title)
		assert.Equal(t, "tsx", first.Language)
		assert.Equal(t, []string{"array-field-management"}, first.DataSourceFeatures)
		assert.Equal(t, "datasource/DataSourceV2.md", first.File)

		second := analysis.CodeExamples[1]
		assert.Equal(t, "Code example", second.Title)
		assert.Equal(t, []string{"input"}, second.Tags)
		assert.Empty(t, second.DataSourceFeatures)
	})

	t.Run("api reference", func(t *testing.T) {
		require.Len(t, analysis.APIReference, 1)
		ref := analysis.APIReference[0]
		assert.Equal(t, "appendToFieldArray", ref.Method)
		assert.Equal(t, "DataSource", ref.Component)
		assert.Contains(t, ref.Description, "Appends an item to an array field")
		assert.Equal(t, []string{"fieldName"}, ref.Parameters)
		assert.Equal(t, "Promise<void>", ref.ReturnType)
		assert.Equal(t, "v2", ref.Version)
		assert.Equal(t, []string{"dataSource.appendToFieldArray('items', { id: 1 });"}, ref.Examples)
	})

	t.Run("best practices", func(t *testing.T) {
		require.Len(t, analysis.BestPractices, 3)
		bp := analysis.BestPractices[0]
		assert.Equal(t, "datasource", bp.Category)
		assert.Equal(t, "Recommended practice", bp.Title)
		assert.Equal(t, []string{"ArchbaseRemoteDataSource", "ArchbaseDataGrid"}, bp.RelatedComponents)
		assert.Equal(t, "Use ArchbaseEdit with dataField", analysis.BestPractices[1].Description)
		assert.Equal(t, "Practice to avoid", analysis.BestPractices[2].Title)
	})

	t.Run("migration guides", func(t *testing.T) {
		require.Len(t, analysis.MigrationGuides, 1)
		g := analysis.MigrationGuides[0]
		assert.Equal(t, "Migration from V1", g.Description)
		assert.Equal(t, []string{
			"Replace ArchbaseDataSource with ArchbaseDataSourceV2",
			"Use appendToFieldArray for arrays",
		}, g.Steps)
		assert.Equal(t, []string{"Benefit: fewer re-renders."}, g.Benefits)
	})

	t.Run("component patterns", func(t *testing.T) {
		require.Len(t, analysis.ComponentPatterns, 1)
		p := analysis.ComponentPatterns[0]
		assert.Equal(t, "ArchbaseEdit", p.Component)
		assert.Equal(t, "controlled text field bound to a DataSource", p.Pattern)
		assert.Equal(t, "Use it inside forms with dataSource and dataField props.", p.Description)
		assert.Equal(t, "v1", p.DataSourceVersion)
		assert.Equal(t, "low", p.Complexity)
	})

	t.Run("recommendations", func(t *testing.T) {
		types := make([]string, len(analysis.Recommendations))
		for i, r := range analysis.Recommendations {
			types[i] = r.Type
		}
		assert.Equal(t, []string{"parameter", "template", "generator", "knowledge"}, types)
	})
}

func TestAnalyzeContent_PortugueseDoc(t *testing.T) {
	doc := "# DataSourceV2\n\n" +
		"Nova funcionalidade: validação assíncrona\n\n" +
		"Padrão: formulário mestre-detalhe\n\n" +
		"Recomendação: use ArchbaseFormTemplate em telas de cadastro\n"

	a := newTestAnalyzer(t).AnalyzeContent("guia/forms.md", doc)

	assert.Equal(t, []string{"validação assíncrona"}, a.DataSourceV2.NewFeatures)
	require.Len(t, a.ComponentPatterns, 1)
	assert.Equal(t, "General", a.ComponentPatterns[0].Component)
	assert.Equal(t, "formulário mestre-detalhe", a.ComponentPatterns[0].Pattern)
	assert.Equal(t, "both", a.ComponentPatterns[0].DataSourceVersion)
	require.Len(t, a.BestPractices, 1)
	assert.Equal(t, "forms", a.BestPractices[0].Category)
	assert.Equal(t, []string{"ArchbaseFormTemplate"}, a.BestPractices[0].RelatedComponents)
}

func TestAnalyzeContent_IgnoresOtherFences(t *testing.T) {
	doc := "```bash\nnpm install @archbase/react\n```\n\n```ts\nconst x = 1;\n```\n"
	a := newTestAnalyzer(t).AnalyzeContent("install.md", doc)
	assert.Empty(t, a.CodeExamples, "shell fences and plain TS without Archbase are skipped")
	assert.Empty(t, a.Recommendations)
}

func TestExampleComplexity(t *testing.T) {
	long := ""
	for i := 0; i < 31; i++ {
		long += "line\n"
	}
	assert.Equal(t, "high", exampleComplexity(long))
	assert.Equal(t, "medium", exampleComplexity("const schema = yup.object();"))
	assert.Equal(t, "medium", exampleComplexity("<ArchbaseA /><ArchbaseB /><ArchbaseC /><ArchbaseD />"))
	assert.Equal(t, "low", exampleComplexity("<ArchbaseEdit />"))
}

func TestAnalyze_MissingDir(t *testing.T) {
	_, err := newTestAnalyzer(t).Analyze(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestAnalyzer(t).Analyze(ctx, newTestDocs(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExport(t *testing.T) {
	a := newTestAnalyzer(t).AnalyzeContent("components/ArchbaseEdit.md", editDoc)
	path := filepath.Join(t.TempDir(), "out", "docs.json")
	require.NoError(t, Export(a, path))

	var decoded map[string]any
	require.NoError(t, util.ReadJSONFile(path, &decoded))
	for _, key := range []string{"dataSourceV2", "componentPatterns", "codeExamples", "apiReference", "bestPractices", "migrationGuides", "recommendations"} {
		assert.Contains(t, decoded, key)
	}
}
