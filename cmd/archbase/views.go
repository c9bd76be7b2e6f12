package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/archbase/archbase-cli/pkg/component"
	"github.com/archbase/archbase-cli/pkg/docs"
	"github.com/archbase/archbase-cli/pkg/generator"
	"github.com/archbase/archbase-cli/pkg/java"
	"github.com/archbase/archbase-cli/pkg/output"
	"github.com/archbase/archbase-cli/pkg/patterns"
	"github.com/archbase/archbase-cli/pkg/scanner"
	"github.com/archbase/archbase-cli/pkg/validator"
)

func severity(colored bool, level, text string) string {
	if !colored {
		return text
	}
	return output.SeverityColor(level, text)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func componentView(a *component.ComponentAnalysis, colored bool) *output.Report {
	title := a.Name
	if title == "" {
		title = filepath.Base(a.FilePath)
	}

	ds := "not used"
	if a.DataSourceUsage.HasDataSource {
		ds = fmt.Sprintf("%s, fields: %s", a.DataSourceUsage.Version, joinOrNone(a.DataSourceUsage.Fields))
	}
	summary := &output.Section{
		Title: "Summary",
		Items: []string{
			"File: " + a.FilePath,
			fmt.Sprintf("Complexity: %s (score %d)",
				severity(colored, string(a.Complexity), string(a.Complexity)), component.Score(a)),
			"Hooks: " + joinOrNone(a.Hooks),
			"DataSource: " + ds,
		},
	}

	props := make([][]string, 0, len(a.Props))
	for _, p := range a.Props {
		props = append(props, []string{p.Name, p.Type, strconv.FormatBool(p.Required)})
	}
	imports := make([][]string, 0, len(a.Imports))
	for _, imp := range a.Imports {
		imports = append(imports, []string{imp.Source, strings.Join(imp.Specifiers, ", "), strconv.FormatBool(imp.IsDefault)})
	}

	return &output.Report{
		Title: title,
		Sections: []output.Renderable{
			summary,
			output.NewTable("Props", []string{"Name", "Type", "Required"}, props, nil, nil),
			output.NewTable("Imports", []string{"Source", "Specifiers", "Default"}, imports, nil, nil),
		},
		Data: a,
	}
}

func componentsView(analyses []*component.ComponentAnalysis, colored bool) *output.Table {
	rows := make([][]string, 0, len(analyses))
	withDS := 0
	for _, a := range analyses {
		ds := "-"
		if a.DataSourceUsage.HasDataSource {
			ds = string(a.DataSourceUsage.Version)
			withDS++
		}
		rows = append(rows, []string{
			a.FilePath,
			a.Name,
			severity(colored, string(a.Complexity), string(a.Complexity)),
			strconv.Itoa(len(a.Props)),
			strconv.Itoa(len(a.Hooks)),
			ds,
		})
	}
	footer := []string{"Total", strconv.Itoa(len(analyses)), "", "", "", strconv.Itoa(withDS)}
	return output.NewTable("Components",
		[]string{"File", "Component", "Complexity", "Props", "Hooks", "DataSource"},
		rows, footer, analyses)
}

// javaResult adds the mapped service methods to a controller analysis.
type javaResult struct {
	*java.ControllerAnalysis
	ServiceMethods []generator.ServiceMethod `json:"serviceMethods"`
}

func javaView(a *java.ControllerAnalysis) *output.Report {
	mapped := generator.MapControllerMethods(a.Methods, a.BaseMapping)
	rows := make([][]string, 0, len(mapped))
	for _, m := range mapped {
		params := make([]string, 0, len(m.Parameters))
		for _, p := range m.Parameters {
			params = append(params, fmt.Sprintf("%s: %s (%s)", p.Name, p.Type, p.Source))
		}
		rows = append(rows, []string{m.Name, m.HTTPMethod, m.Endpoint, m.ReturnType, strings.Join(params, ", ")})
	}

	base := a.BaseMapping
	if base == "" {
		base = "(none)"
	}
	return &output.Report{
		Title: a.ClassName,
		Sections: []output.Renderable{
			&output.Section{Items: []string{
				"Base mapping: " + base,
				fmt.Sprintf("Methods: %d", len(a.Methods)),
			}},
			output.NewTable("Service Methods",
				[]string{"Method", "HTTP", "Endpoint", "Returns", "Parameters"}, rows, nil, nil),
		},
		Data: javaResult{ControllerAnalysis: a, ServiceMethods: mapped},
	}
}

func scanView(result *scanner.ProjectScanResult, colored bool) *output.Report {
	st := result.Statistics
	stats := &output.Section{
		Title: "Statistics",
		Items: []string{
			fmt.Sprintf("Files scanned: %d (%d failed)", st.FilesScanned, st.FilesFailed),
			fmt.Sprintf("Archbase components: %d (V1 %d, V2 %d)", st.ArchbaseComponents, st.V1Components, st.V2Components),
			fmt.Sprintf("Issues: %d", st.IssuesFound),
			fmt.Sprintf("Props per usage: %.1f avg, %.1f stddev", st.AvgPropsPerUsage, st.StddevPropsPerUsage),
		},
	}

	summaries := make([]*scanner.UsageSummary, 0, len(result.Usage))
	for _, u := range result.Usage {
		summaries = append(summaries, u)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Name < summaries[j].Name
	})
	usage := make([][]string, 0, len(summaries))
	for _, u := range summaries {
		usage = append(usage, []string{u.Name, strconv.Itoa(u.Count), strconv.Itoa(len(u.Files))})
	}

	var issues [][]string
	for _, c := range result.Components {
		for _, is := range c.Issues {
			issues = append(issues, []string{
				fmt.Sprintf("%s:%d", c.File, c.Line),
				c.Name,
				severity(colored, string(is.Type), string(is.Type)),
				is.Message,
			})
		}
	}

	mig := result.Migration
	migration := &output.Section{
		Title: "Migration",
		Content: fmt.Sprintf("%d DataSource V1 usages to migrate (effort: %s)",
			len(mig.V1ToV2Candidates), mig.EstimatedEffort),
		Items: mig.Recommendations,
	}

	deps := result.Dependencies
	depItems := []string{
		"@archbase/react: " + orNone(deps.ArchbaseVersion),
		"react: " + orNone(deps.ReactVersion),
	}
	for _, m := range deps.MissingDependencies {
		depItems = append(depItems, "missing "+m)
	}
	for _, o := range deps.OutdatedDependencies {
		depItems = append(depItems, fmt.Sprintf("outdated %s: %s, latest %s", o.Name, o.Current, o.Latest))
	}

	sections := []output.Renderable{
		stats,
		output.NewTable("Component Usage", []string{"Component", "Uses", "Files"}, usage, nil, nil),
		output.NewTable("Issues", []string{"Location", "Component", "Severity", "Message"}, issues, nil, nil),
		migration,
		&output.Section{Title: "Dependencies", Items: depItems},
		&output.Section{Title: "Patterns", Items: []string{
			"Detected: " + joinOrNone(result.Patterns.Detected),
			"Missing: " + joinOrNone(result.Patterns.Missing),
		}},
	}
	if recs := scanner.Recommendations(result); len(recs) > 0 {
		sections = append(sections, &output.Section{Title: "Recommendations", Items: recs})
	}
	if len(result.Errors) > 0 {
		errs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			errs = append(errs, e.File+": "+e.Error)
		}
		sections = append(sections, &output.Section{Title: "Errors", Items: errs})
	}

	return &output.Report{Title: "Archbase Scan", Sections: sections, Data: result}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func fixView(fix scanner.FixResult, dryRun bool) *output.Section {
	title := "Fixes"
	if dryRun {
		title = "Fixes (dry run)"
	}
	items := append([]string{}, fix.Actions...)
	for _, e := range fix.Errors {
		items = append(items, "error: "+e)
	}
	return &output.Section{
		Title:   title,
		Content: fmt.Sprintf("%d fixed, %d skipped", fix.Fixed, fix.Skipped),
		Items:   items,
		Data:    fix,
	}
}

func patternsView(a *patterns.PatternAnalysis) *output.Report {
	detected := make([][]string, 0, len(a.Patterns))
	for _, p := range a.Patterns {
		detected = append(detected, []string{p.Name, p.Type, strconv.Itoa(p.Frequency), p.Template})
	}
	comps := make([][]string, 0, len(a.ComponentUsage))
	for _, c := range a.ComponentUsage {
		comps = append(comps, []string{c.Component, strconv.Itoa(c.UsageCount), strings.Join(c.Contexts, ", ")})
	}
	ds := make([][]string, 0, len(a.DataSourceUsage))
	for _, d := range a.DataSourceUsage {
		ds = append(ds, []string{d.Component, d.Version, strconv.Itoa(d.UsageCount)})
	}
	recs := make([][]string, 0, len(a.Recommendations))
	for _, r := range a.Recommendations {
		recs = append(recs, []string{r.Priority, r.Title, r.Implementation})
	}

	return &output.Report{
		Title: "Pattern Analysis",
		Sections: []output.Renderable{
			&output.Section{Content: fmt.Sprintf("%d files analyzed, %d failed", a.FilesAnalyzed, a.FilesFailed)},
			output.NewTable("Detected Patterns", []string{"Name", "Type", "Frequency", "Template"}, detected, nil, nil),
			output.NewTable("Component Usage", []string{"Component", "Uses", "Contexts"}, comps, nil, nil),
			output.NewTable("DataSource Usage", []string{"Component", "Version", "Uses"}, ds, nil, nil),
			output.NewTable("Recommendations", []string{"Priority", "Title", "Implementation"}, recs, nil, nil),
		},
		Data: a,
	}
}

type generateResult struct {
	Kind      string            `json:"kind"`
	DryRun    bool              `json:"dryRun"`
	OutputDir string            `json:"outputDir,omitempty"`
	Files     []string          `json:"files"`
	Code      map[string]string `json:"code,omitempty"`
}

func generateView(kind string, opts generator.Options, res *generator.Result) output.Renderable {
	data := generateResult{Kind: kind, DryRun: opts.DryRun, Files: res.Files}
	if opts.DryRun {
		data.Code = res.Code
		sections := make([]output.Renderable, 0, len(res.Files))
		for _, f := range res.Files {
			sections = append(sections, &output.Section{Title: f, Content: res.Code[f]})
		}
		return &output.Report{Title: fmt.Sprintf("%s (dry run)", kind), Sections: sections, Data: data}
	}

	data.OutputDir = opts.OutputDir
	rows := make([][]string, 0, len(res.Files))
	for _, f := range res.Files {
		rows = append(rows, []string{filepath.Join(opts.OutputDir, filepath.FromSlash(f))})
	}
	return output.NewTable("Generated "+kind, []string{"File"}, rows, nil, data)
}

type generatorInfo struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

func generatorsView(r *generator.Registry) *output.Table {
	var infos []generatorInfo
	var rows [][]string
	for _, kind := range r.Kinds() {
		g, err := r.Lookup(kind)
		if err != nil {
			continue
		}
		infos = append(infos, generatorInfo{Kind: kind, Description: g.Description()})
		rows = append(rows, []string{kind, g.Description()})
	}
	return output.NewTable("Generators", []string{"Kind", "Description"}, rows, nil, infos)
}

func fileAnalysisView(fa scanner.FileAnalysis) *output.Section {
	title := fa.File
	if fa.Removed {
		title += " (removed)"
	}
	items := []string{
		fmt.Sprintf("Components: %d", len(fa.Components)),
		fmt.Sprintf("Issues: %d new, %d fixed", fa.NewIssues, fa.FixedIssues),
	}
	if len(fa.Patterns) > 0 {
		items = append(items, "Patterns: "+strings.Join(fa.Patterns, ", "))
	}
	items = append(items, fa.Suggestions...)
	return &output.Section{Title: title, Items: items, Data: fa}
}

func validationView(r *validator.ValidationResult, colored bool) *output.Report {
	m := r.Metrics
	status := severity(colored, "low", "valid")
	if !r.Valid {
		status = severity(colored, "error", "invalid")
	}
	items := []string{
		"Status: " + status,
		fmt.Sprintf("Lines: %d, complexity %d", m.LinesOfCode, m.Complexity),
		fmt.Sprintf("Components: %d, hooks %d, imports %d", m.ComponentCount, m.HookCount, m.ImportCount),
		fmt.Sprintf("TypeScript: %t, tests: %t", m.HasTypeScript, m.HasTests),
	}
	if r.Files > 0 {
		items = append(items, fmt.Sprintf("Files validated: %d", r.Files))
	}

	errs := make([][]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, []string{location(e.File, e.Line), string(e.Type), severity(colored, string(e.Severity), e.Message)})
	}
	warns := make([][]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warns = append(warns, []string{location(w.File, w.Line), string(w.Type), w.Message, w.Suggestion})
	}

	return &output.Report{
		Title: "Validation: " + r.FilePath,
		Sections: []output.Renderable{
			&output.Section{Title: "Summary", Items: items},
			output.NewTable("Errors", []string{"Location", "Type", "Message"}, errs, nil, nil),
			output.NewTable("Warnings", []string{"Location", "Type", "Message", "Suggestion"}, warns, nil, nil),
		},
		Data: r,
	}
}

func location(file string, line int) string {
	switch {
	case file == "" && line == 0:
		return "-"
	case line == 0:
		return file
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func batchValidationView(results []*validator.ValidationResult, colored bool) *output.Table {
	rows := make([][]string, 0, len(results))
	valid := 0
	for _, r := range results {
		status := severity(colored, "low", "valid")
		if r.Valid {
			valid++
		} else {
			status = severity(colored, "error", "invalid")
		}
		first := "-"
		if len(r.Errors) > 0 {
			first = r.Errors[0].Message
		}
		rows = append(rows, []string{r.FilePath, status, strconv.Itoa(len(r.Errors)), strconv.Itoa(len(r.Warnings)), first})
	}
	footer := []string{fmt.Sprintf("%d of %d valid", valid, len(results))}
	return output.NewTable("Validation", []string{"File", "Status", "Errors", "Warnings", "First error"}, rows, footer, results)
}

func docsView(a *docs.Analysis) *output.Report {
	ds := a.DataSourceV2
	v2 := &output.Section{
		Title: "DataSource V2",
		Items: []string{
			"New features: " + joinOrNone(ds.NewFeatures),
			"New methods: " + joinOrNone(ds.NewMethods),
			"Performance: " + joinOrNone(ds.PerformanceImprovements),
			"Breaking changes: " + joinOrNone(ds.BreakingChanges),
		},
	}

	api := make([][]string, 0, len(a.APIReference))
	for _, ref := range a.APIReference {
		api = append(api, []string{ref.Method, strings.Join(ref.Parameters, ", "), ref.ReturnType, ref.Version, ref.File})
	}
	examples := make([][]string, 0, len(a.CodeExamples))
	for _, ex := range a.CodeExamples {
		examples = append(examples, []string{ex.Title, ex.Language, strings.Join(ex.DataSourceFeatures, ", "), ex.File})
	}
	pats := make([][]string, 0, len(a.ComponentPatterns))
	for _, p := range a.ComponentPatterns {
		pats = append(pats, []string{p.Component, p.Pattern, p.DataSourceVersion, p.Complexity})
	}
	guides := make([]string, 0, len(a.MigrationGuides))
	for _, g := range a.MigrationGuides {
		guides = append(guides, fmt.Sprintf("%s (%d steps, %s)", g.Description, len(g.Steps), g.File))
	}
	recs := make([][]string, 0, len(a.Recommendations))
	for _, r := range a.Recommendations {
		recs = append(recs, []string{r.Priority, r.Title, r.Implementation})
	}

	return &output.Report{
		Title: "Documentation Analysis",
		Sections: []output.Renderable{
			&output.Section{Content: fmt.Sprintf("%d files analyzed, %d failed, %d best practices",
				a.FilesAnalyzed, a.FilesFailed, len(a.BestPractices))},
			v2,
			output.NewTable("API Reference", []string{"Method", "Parameters", "Returns", "Version", "File"}, api, nil, nil),
			output.NewTable("Code Examples", []string{"Title", "Language", "Features", "File"}, examples, nil, nil),
			output.NewTable("Component Patterns", []string{"Component", "Pattern", "DataSource", "Complexity"}, pats, nil, nil),
			&output.Section{Title: "Migration Guides", Items: guides},
			output.NewTable("Recommendations", []string{"Priority", "Title", "Implementation"}, recs, nil, nil),
		},
		Data: a,
	}
}
