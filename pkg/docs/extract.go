package docs

import (
	"path"
	"regexp"
	"slices"
	"strings"
)

const fence = "```"

var (
	featureRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:new feature|nova funcionalidade|novo recurso)[:\s]*(.+)`),
		regexp.MustCompile(`(?i)(?:introduces|introduz)[:\s]*(.+)`),
		regexp.MustCompile(`(?i)(?:added|adicionado)[:\s]*(.+)`),
	}
	methodCallRe  = regexp.MustCompile(`(\w+(?:To|From|Field|Array)\w*)\s*\(`)
	methodNamedRe = regexp.MustCompile("(?i)(?:método|method)[:\\s]*`?(\\w+)`?")
	breakingRes   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:breaking change|mudança que quebra|alteração incompatível)[:\s]*(.+)`),
		regexp.MustCompile(`(?i)(?:deprecated|depreciado|obsoleto)[:\s]*(.+)`),
		regexp.MustCompile(`(?i)(?:removed|removido)[:\s]*(.+)`),
	}
	performanceRes = sentenceRes("performance", "performante", "otimização", "optimization",
		"faster", "mais rápido", "efficiency", "eficiência")
	benefitRes = sentenceRes("benefit", "vantagem", "improvement", "melhoria")

	codeBlockRe   = regexp.MustCompile(fence + `(\w+)?\s*\n((?s:.*?))\n` + fence)
	fenceBodyRe   = regexp.MustCompile(fence + `\w*\s*\n((?s:.*?))\n` + fence)
	apiHeadingRe  = regexp.MustCompile("(?:###|##|\\*\\*)\\s*`?(\\w+(?:To|From|Field|Array)\\w*)`?\\s*(?:\\([^)]*\\))?\\s*(?:###|##|\\*\\*)?")
	paramRe       = regexp.MustCompile("(?i)(?:param|parameter|parâmetro)[:\\s]*`?(\\w+)`?")
	returnRe      = regexp.MustCompile("(?i)(?:returns?|retorna)[:\\s]*`?([^`\\n]+)`?")
	practiceRes   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:best practice|boa prática|recomendação|recommendation)[:\s]*(.+)`),
		regexp.MustCompile(`(?:✅|👍|✓)[:\s]*(.+)`),
	}
	antiPracticeRe = regexp.MustCompile(`(?:❌|👎|✗)[:\s]*(.+)`)
	headingSplitRe = regexp.MustCompile(`(?:###|##)\s*`)
	stepRe         = regexp.MustCompile(`(?:\d+\.|•|\*)\s*(.+)`)
	patternRe      = regexp.MustCompile(`(?i)\b(?:pattern|padrão)[:\s]+(.+)`)
	componentRe    = regexp.MustCompile(`Archbase\w+`)
	markupRe       = regexp.MustCompile("[#*`_]")
	emphasisRe     = regexp.MustCompile("[*_`]")
)

var (
	codeLanguages     = []string{"typescript", "javascript", "tsx", "jsx", "ts", "js"}
	migrationKeywords = []string{"migration", "migração", "upgrade", "atualização", "v1 to v2", "v1 para v2"}
	dataSourceMethods = []string{
		"appendToFieldArray", "removeFromFieldArray", "moveInFieldArray",
		"fieldByName", "getFieldValue", "setFieldValue",
		"search", "sort", "filter", "paginate",
		"createDataSource", "useArchbaseDataSource",
	}
	v2OnlyMethods = []string{"appendToFieldArray", "removeFromFieldArray", "moveInFieldArray"}
)

// sentenceRes matches the sentence, within one line, around each keyword.
func sentenceRes(keywords ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(keywords))
	for i, k := range keywords {
		out[i] = regexp.MustCompile(`(?i)([^.\n]*` + regexp.QuoteMeta(k) + `[^.\n]*\.?)`)
	}
	return out
}

// document is one markdown file. file is relative to the docs root, with
// forward slashes.
type document struct {
	file    string
	content string
}

func (d *document) analyze(a *Analysis) {
	d.dataSourceV2(a)
	d.codeExamples(a)
	d.apiReferences(a)
	d.bestPractices(a)
	d.migrationGuides(a)
	d.componentPatterns(a)
}

func isV2Doc(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "datasource v2") ||
		strings.Contains(lower, "datasourcev2") ||
		strings.Contains(content, "ArchbaseDataSourceV2")
}

func (d *document) dataSourceV2(a *Analysis) {
	if !isV2Doc(d.content) {
		return
	}
	ds := &a.DataSourceV2
	for _, re := range featureRes {
		for _, m := range re.FindAllStringSubmatch(d.content, -1) {
			if f := strings.TrimSpace(m[1]); f != "" {
				ds.NewFeatures = append(ds.NewFeatures, f)
			}
		}
	}
	for _, re := range []*regexp.Regexp{methodCallRe, methodNamedRe} {
		for _, m := range re.FindAllStringSubmatch(d.content, -1) {
			if isDataSourceMethod(m[1]) {
				ds.NewMethods = append(ds.NewMethods, m[1])
			}
		}
	}
	for _, re := range performanceRes {
		for _, m := range re.FindAllStringSubmatch(d.content, -1) {
			if s := strings.TrimSpace(m[1]); s != "" {
				ds.PerformanceImprovements = append(ds.PerformanceImprovements, s)
			}
		}
	}
	for _, re := range breakingRes {
		for _, m := range re.FindAllStringSubmatch(d.content, -1) {
			if s := strings.TrimSpace(m[1]); s != "" {
				ds.BreakingChanges = append(ds.BreakingChanges, s)
			}
		}
	}
}

func isDataSourceMethod(method string) bool {
	if strings.Contains(method, "DataSource") {
		return true
	}
	lower := strings.ToLower(method)
	for _, m := range dataSourceMethods {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

func (d *document) codeExamples(a *Analysis) {
	for _, idx := range codeBlockRe.FindAllStringSubmatchIndex(d.content, -1) {
		language := "javascript"
		if idx[2] >= 0 {
			language = d.content[idx[2]:idx[3]]
		}
		if !slices.Contains(codeLanguages, language) {
			continue
		}
		code := d.content[idx[4]:idx[5]]
		features := dataSourceFeatures(code)
		if len(features) == 0 && !strings.Contains(code, "Archbase") {
			continue
		}

		title := exampleTitle(d.content[:idx[0]])
		if title == "" {
			title = "Code example"
		}
		a.CodeExamples = append(a.CodeExamples, CodeExample{
			Title:              title,
			Description:        descriptionBefore(d.content[:idx[0]]),
			Code:               strings.TrimSpace(code),
			Language:           language,
			Tags:               codeTags(code, d.file),
			DataSourceFeatures: features,
			File:               d.file,
		})
	}
}

// exampleTitle is the line right above a fence, stripped of markup.
func exampleTitle(before string) string {
	lines := strings.Split(before, "\n")
	line := lines[len(lines)-1]
	if line == "" && len(lines) > 1 {
		line = lines[len(lines)-2]
	}
	return strings.TrimSpace(markupRe.ReplaceAllString(line, ""))
}

// descriptionBefore is the closest prose line among the five above a fence.
func descriptionBefore(before string) string {
	lines := strings.Split(before, "\n")
	for i := len(lines) - 1; i >= 0 && i >= len(lines)-5; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" && !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, fence) && len(line) > 20 {
			return emphasisRe.ReplaceAllString(line, "")
		}
	}
	return ""
}

func dataSourceFeatures(code string) []string {
	checks := []struct{ marker, feature string }{
		{"appendToFieldArray", "array-field-management"},
		{"removeFromFieldArray", "array-field-management"},
		{"fieldByName", "field-access"},
		{"search(", "search"},
		{"sort(", "sorting"},
		{"filter(", "filtering"},
		{"pagination", "pagination"},
		{"useArchbaseDataSource", "hook-usage"},
		{"createDataSource", "factory-pattern"},
	}
	features := []string{}
	for _, c := range checks {
		if strings.Contains(code, c.marker) && !slices.Contains(features, c.feature) {
			features = append(features, c.feature)
		}
	}
	return features
}

func codeTags(code, file string) []string {
	tags := []string{}
	add := func(tag string, ok bool) {
		if ok && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	add("form", strings.Contains(code, "Form"))
	add("table", strings.Contains(code, "Table"))
	add("input", strings.Contains(code, "Edit") || strings.Contains(code, "Input"))
	add("select", strings.Contains(code, "Select"))
	add("validation", strings.Contains(code, "validation") || strings.Contains(code, "yup") || strings.Contains(code, "zod"))
	add("dashboard", strings.Contains(file, "dashboard"))
	add("admin", strings.Contains(file, "admin"))
	return tags
}

func (d *document) apiReferences(a *Analysis) {
	for _, idx := range apiHeadingRe.FindAllStringSubmatchIndex(d.content, -1) {
		method := d.content[idx[2]:idx[3]]
		if !isDataSourceMethod(method) {
			continue
		}
		after := d.content[idx[1]:]
		section := untilNextHeading(after)

		returnType := "void"
		if m := returnRe.FindStringSubmatch(section); m != nil {
			returnType = strings.TrimSpace(m[1])
		}
		params := []string{}
		for _, m := range paramRe.FindAllStringSubmatch(section, -1) {
			params = append(params, m[1])
		}
		window := after
		if len(window) > 1000 {
			window = window[:1000]
		}
		examples := []string{}
		for _, m := range fenceBodyRe.FindAllStringSubmatch(window, -1) {
			examples = append(examples, strings.TrimSpace(m[1]))
		}

		a.APIReference = append(a.APIReference, APIReference{
			Method:      method,
			Component:   "DataSource",
			Description: paragraphAfter(after),
			Parameters:  params,
			ReturnType:  returnType,
			Version:     apiVersion(d.content, method),
			Examples:    examples,
			File:        d.file,
		})
	}
}

// untilNextHeading cuts s before the next markdown heading.
func untilNextHeading(s string) string {
	if i := strings.Index(s, "\n#"); i >= 0 {
		return s[:i]
	}
	return s
}

// paragraphAfter joins lines up to the first blank line, heading or fence.
func paragraphAfter(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, fence) {
			break
		}
		parts = append(parts, t)
	}
	return emphasisRe.ReplaceAllString(strings.Join(parts, " "), "")
}

// apiVersion looks for a version marker within 500 bytes of the method's
// first mention.
func apiVersion(content, method string) string {
	i := strings.Index(content, method)
	if i < 0 {
		return "both"
	}
	start, end := max(0, i-500), min(len(content), i+500)
	ctx := content[start:end]
	switch {
	case strings.Contains(ctx, "v2") || strings.Contains(ctx, "V2"):
		return "v2"
	case strings.Contains(ctx, "v1") || strings.Contains(ctx, "V1"):
		return "v1"
	case slices.Contains(v2OnlyMethods, method):
		return "v2"
	}
	return "both"
}

func (d *document) bestPractices(a *Analysis) {
	category := categoryFor(d.file)
	add := func(title, text string) {
		a.BestPractices = append(a.BestPractices, BestPractice{
			Category:          category,
			Title:             title,
			Description:       strings.TrimSpace(text),
			RelatedComponents: uniqueMatches(componentRe, text),
			File:              d.file,
		})
	}
	for _, re := range practiceRes {
		for _, m := range re.FindAllStringSubmatch(d.content, -1) {
			add("Recommended practice", m[1])
		}
	}
	for _, m := range antiPracticeRe.FindAllStringSubmatch(d.content, -1) {
		add("Practice to avoid", m[1])
	}
}

func categoryFor(file string) string {
	switch {
	case strings.Contains(file, "form"):
		return "forms"
	case strings.Contains(file, "table"):
		return "tables"
	case strings.Contains(file, "datasource"):
		return "datasource"
	case strings.Contains(file, "component"):
		return "components"
	}
	return "general"
}

// migrationGuides records every heading section that mentions a migration
// keyword and lists steps. A section matching several keywords counts once.
func (d *document) migrationGuides(a *Analysis) {
	lower := strings.ToLower(d.content)
	mentions := false
	for _, k := range migrationKeywords {
		if strings.Contains(lower, k) {
			mentions = true
			break
		}
	}
	if !mentions {
		return
	}

	for _, section := range headingSplitRe.Split(d.content, -1) {
		sl := strings.ToLower(section)
		matched := false
		for _, k := range migrationKeywords {
			if strings.Contains(sl, k) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		steps := []string{}
		for _, m := range stepRe.FindAllStringSubmatch(section, -1) {
			steps = append(steps, strings.TrimSpace(m[1]))
		}
		if len(steps) == 0 {
			continue
		}
		title, _, _ := strings.Cut(section, "\n")
		if title = strings.TrimSpace(title); title == "" {
			title = "Migration guide"
		}
		benefits := []string{}
		for _, re := range benefitRes {
			for _, m := range re.FindAllStringSubmatch(section, -1) {
				if s := strings.TrimSpace(m[1]); s != "" {
					benefits = append(benefits, s)
				}
			}
		}
		a.MigrationGuides = append(a.MigrationGuides, MigrationGuide{
			From:        "DataSource V1",
			To:          "DataSource V2",
			Description: title,
			Steps:       steps,
			Benefits:    benefits,
			File:        d.file,
		})
	}
}

func (d *document) componentPatterns(a *Analysis) {
	component := "General"
	if base := strings.TrimSuffix(path.Base(d.file), ".md"); strings.HasPrefix(base, "Archbase") {
		component = base
	}
	for _, idx := range patternRe.FindAllStringSubmatchIndex(d.content, -1) {
		after := d.content[idx[0]:]
		example := ""
		if m := fenceBodyRe.FindStringSubmatch(after); m != nil {
			example = strings.TrimSpace(m[1])
		}
		a.ComponentPatterns = append(a.ComponentPatterns, ComponentPattern{
			Component:         component,
			Pattern:           strings.TrimSpace(d.content[idx[2]:idx[3]]),
			Description:       patternDescription(after),
			CodeExample:       example,
			DataSourceVersion: exampleVersion(example),
			Complexity:        exampleComplexity(example),
			File:              d.file,
		})
	}
}

// patternDescription is the first prose line among the four after the
// pattern line.
func patternDescription(after string) string {
	lines := strings.Split(after, "\n")
	for i := 1; i < len(lines) && i < 5; i++ {
		line := strings.TrimSpace(lines[i])
		if line != "" && !strings.HasPrefix(line, "#") && len(line) > 10 {
			return emphasisRe.ReplaceAllString(line, "")
		}
	}
	return ""
}

func exampleVersion(code string) string {
	switch {
	case strings.Contains(code, "appendToFieldArray") || strings.Contains(code, "removeFromFieldArray"):
		return "v2"
	case strings.Contains(code, "dataSource") && strings.Contains(code, "dataField"):
		if strings.Contains(code, "V2") {
			return "v2"
		}
		return "v1"
	}
	return "both"
}

func exampleComplexity(code string) string {
	lines := strings.Count(code, "\n") + 1
	hasHooks := strings.Contains(code, "use")
	hasValidation := strings.Contains(code, "validation") || strings.Contains(code, "yup") || strings.Contains(code, "zod")
	manyComponents := len(componentRe.FindAllString(code, -1)) > 3
	switch {
	case lines > 30 || (hasHooks && hasValidation && manyComponents):
		return "high"
	case lines > 15 || hasValidation || manyComponents:
		return "medium"
	}
	return "low"
}

func uniqueMatches(re *regexp.Regexp, text string) []string {
	out := []string{}
	for _, m := range re.FindAllString(text, -1) {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
