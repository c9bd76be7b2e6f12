package patterns

import (
	"errors"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/archbase/archbase-cli/pkg/parser/queries"
)

// fileFindings is everything one file contributes before merging.
type fileFindings struct {
	file       string
	dataSource *dataSourceFinding
	form       *FormPattern
	components []componentFinding
	validation *ValidationPattern
	page       *PageStructurePattern
}

type dataSourceFinding struct {
	components []string
	version    string
	props      map[string]int
	patterns   []string
}

type componentFinding struct {
	name     string
	count    int
	props    map[string]int
	patterns []string
	contexts []string
}

type jsxAttr struct {
	name     string
	value    string
	isString bool
}

type jsxTag struct {
	name  string
	attrs []jsxAttr
}

// callIndex records the names called in a file. ok is false when the call
// queries could not run, and callers fall back to keyword checks.
type callIndex struct {
	ok      bool
	idents  map[string]bool
	members map[string][]string // property → object texts
}

func (c callIndex) calls(name string) bool {
	return c.idents[name] || len(c.members[name]) > 0
}

// memberCallOn reports a call obj.prop(...) where obj ends with objSuffix
// and prop starts with propPrefix.
func (c callIndex) memberCallOn(objSuffix, propPrefix string) bool {
	for prop, objects := range c.members {
		if !strings.HasPrefix(prop, propPrefix) {
			continue
		}
		for _, obj := range objects {
			if strings.HasSuffix(obj, objSuffix) {
				return true
			}
		}
	}
	return false
}

// fileContext is the parsed state shared by the per-aspect detectors.
type fileContext struct {
	file    string
	source  []byte
	content string
	root    *ts.Node
	tags    []jsxTag
	calls   callIndex
}

func (a *ProjectPatternAnalyzer) findings(fc *fileContext) *fileFindings {
	return &fileFindings{
		file:       fc.file,
		dataSource: dataSourceUsage(fc),
		form:       formPattern(fc),
		components: componentUsage(fc),
		validation: validationPattern(fc),
		page:       pageStructure(fc),
	}
}

// collectTags lists JSX tags with identifier names in document order.
func (a *ProjectPatternAnalyzer) collectTags(fc *fileContext, run queryRunner) {
	matches, err := run(queries.KindJSXTags)
	if err != nil {
		if !errors.Is(err, queries.ErrKindUnsupported) {
			a.logger.Debug("jsx query failed", "file", fc.file, "error", err)
		}
		return
	}
	for _, m := range matches {
		nameCap, ok := m.Capture("jsx.name")
		if !ok || nameCap.Node.Kind() != "identifier" {
			continue
		}
		elem, ok := m.Capture("jsx.element")
		if !ok {
			continue
		}
		tag := jsxTag{name: nameCap.Text}
		for i := uint(0); i < elem.Node.NamedChildCount(); i++ {
			attr := elem.Node.NamedChild(i)
			if attr.Kind() != "jsx_attribute" || attr.NamedChildCount() == 0 {
				continue
			}
			nameNode := attr.NamedChild(0)
			if nameNode.Kind() != "property_identifier" {
				continue
			}
			ja := jsxAttr{name: nameNode.Utf8Text(fc.source)}
			if attr.NamedChildCount() > 1 {
				if v := attr.NamedChild(attr.NamedChildCount() - 1); v.Kind() == "string" {
					ja.isString = true
					ja.value = stringContent(v, fc.source)
				}
			}
			tag.attrs = append(tag.attrs, ja)
		}
		fc.tags = append(fc.tags, tag)
	}
}

func (a *ProjectPatternAnalyzer) collectCalls(fc *fileContext, run queryRunner) {
	idx := callIndex{idents: map[string]bool{}, members: map[string][]string{}}

	hooks, err := run(queries.KindHookCalls)
	if err != nil {
		a.logger.Debug("hook query failed", "file", fc.file, "error", err)
		fc.calls = idx
		return
	}
	for _, m := range hooks {
		if c, ok := m.Capture("hook.name"); ok {
			idx.idents[c.Text] = true
		}
	}

	members, err := run(queries.KindMemberCalls)
	if err != nil {
		a.logger.Debug("member query failed", "file", fc.file, "error", err)
		fc.calls = idx
		return
	}
	for _, m := range members {
		obj, ok1 := m.Capture("member.object")
		prop, ok2 := m.Capture("member.property")
		if ok1 && ok2 {
			idx.members[prop.Text] = append(idx.members[prop.Text], obj.Text)
		}
	}
	idx.ok = true
	fc.calls = idx
}

type queryRunner func(kind queries.Kind) ([]queries.QueryMatch, error)

// dataSourceUsage reports which DataSource classes the file imports from
// @archbase/react and which API generation its Archbase tags look like.
func dataSourceUsage(fc *fileContext) *dataSourceFinding {
	imported := importedNames(fc.root, fc.source, "@archbase/react")
	var components []string
	for _, name := range imported {
		if strings.Contains(name, "DataSource") {
			components = append(components, name)
		}
	}
	if len(components) == 0 {
		return nil
	}

	v2Content := strings.Contains(fc.content, "appendToFieldArray") || strings.Contains(fc.content, "isDataSourceV2")
	var hasV1, hasV2 bool
	props := map[string]int{}
	for _, tag := range fc.tags {
		if !strings.HasPrefix(tag.name, "Archbase") {
			continue
		}
		for _, attr := range tag.attrs {
			if attr.name == "dataSource" || attr.name == "dataField" {
				hasV1 = true
			}
			if v2Content {
				hasV2 = true
			}
			props[attr.name]++
		}
	}

	version := VersionV1
	if hasV2 {
		version = VersionV2
		if hasV1 {
			version = VersionMixed
		}
	}
	return &dataSourceFinding{
		components: components,
		version:    version,
		props:      props,
		patterns:   dataSourcePatterns(fc),
	}
}

// dataSourcePatterns tags how a file drives its DataSource. Calls found in
// the tree count, and so do plain mentions, since search and pagination
// state is often read as a property rather than called.
func dataSourcePatterns(fc *fileContext) []string {
	c, content := fc.calls, fc.content
	has := func(call bool, keywords ...string) bool {
		if call {
			return true
		}
		for _, kw := range keywords {
			if strings.Contains(content, kw) {
				return true
			}
		}
		return false
	}

	patterns := []string{}
	if has(c.calls("useArchbaseDataSource"), "useArchbaseDataSource") {
		patterns = append(patterns, "hook-based")
	}
	if has(c.calls("createDataSource"), "createDataSource") {
		patterns = append(patterns, "factory-pattern")
	}
	if has(c.memberCallOn("dataSource", "fieldByName"), "dataSource.fieldByName") {
		patterns = append(patterns, "field-access")
	}
	if has(c.memberCallOn("dataSource", "search"), "dataSource.search") {
		patterns = append(patterns, "search-functionality")
	}
	if has(c.memberCallOn("dataSource", "sort"), "dataSource.sort") {
		patterns = append(patterns, "sorting")
	}
	if has(c.memberCallOn("dataSource", "pagination"), "dataSource.pagination") {
		patterns = append(patterns, "pagination")
	}
	if has(c.calls("appendToFieldArray") || c.calls("removeFromFieldArray"), "appendToFieldArray", "removeFromFieldArray") {
		patterns = append(patterns, "array-field-management")
	}
	return patterns
}

var fieldTypeTags = map[string]string{
	"ArchbaseEdit":         "text",
	"ArchbasePasswordEdit": "password",
	"ArchbaseNumberEdit":   "number",
	"ArchbaseSelect":       "select",
	"ArchbaseCheckbox":     "checkbox",
	"ArchbaseDatePicker":   "date",
	"ArchbaseTextArea":     "textarea",
}

func validationLibrary(content string) string {
	switch {
	case strings.Contains(content, "yup.") || strings.Contains(content, "* as yup"):
		return "yup"
	case strings.Contains(content, "z.") || strings.Contains(content, `from "zod"`) || strings.Contains(content, "from 'zod'"):
		return "zod"
	case strings.Contains(content, "validate") || strings.Contains(content, "validation"):
		return "custom"
	default:
		return "none"
	}
}

func formComplexity(fieldTypes int) string {
	switch {
	case fieldTypes > 5:
		return "high"
	case fieldTypes > 2:
		return "medium"
	default:
		return "low"
	}
}

// formPattern describes the file as a form when it renders Archbase field
// components. The last string `layout` attribute wins.
func formPattern(fc *fileContext) *FormPattern {
	var fieldTypes, features orderedSet
	layout := "vertical"

	for _, tag := range fc.tags {
		if ft, ok := fieldTypeTags[tag.name]; ok {
			fieldTypes.add(ft)
		}
		if tag.name == "FormBuilder" {
			features.add("form-builder")
		}
		if strings.Contains(tag.name, "Wizard") {
			features.add("wizard")
		}
		if strings.Contains(tag.name, "Step") {
			features.add("multi-step")
		}
		for _, attr := range tag.attrs {
			if attr.name == "layout" && attr.isString {
				layout = attr.value
			}
		}
	}
	if fieldTypes.len() == 0 {
		return nil
	}

	return &FormPattern{
		FieldTypes:        fieldTypes.list(),
		ValidationLibrary: validationLibrary(fc.content),
		Layout:            layout,
		CommonFeatures:    features.list(),
		Complexity:        formComplexity(fieldTypes.len()),
		Frequency:         1,
	}
}

// componentUsage counts Archbase tags in first-appearance order.
func componentUsage(fc *fileContext) []componentFinding {
	var out []componentFinding
	index := map[string]int{}
	for _, tag := range fc.tags {
		if !strings.HasPrefix(tag.name, "Archbase") {
			continue
		}
		i, ok := index[tag.name]
		if !ok {
			i = len(out)
			index[tag.name] = i
			out = append(out, componentFinding{
				name:     tag.name,
				props:    map[string]int{},
				patterns: componentPatterns(fc),
				contexts: componentContexts(fc.file),
			})
		}
		out[i].count++
		for _, attr := range tag.attrs {
			out[i].props[attr.name]++
		}
	}
	return out
}

var hookPatterns = []struct {
	pattern string
	calls   []string
}{
	{"stateful", []string{"useState"}},
	{"with-effects", []string{"useEffect"}},
	{"memoized", []string{"memo", "useMemo"}},
	{"with-ref", []string{"forwardRef"}},
}

// componentPatterns derives patterns from the React APIs the file calls.
// Without call data it falls back to keyword checks on the content.
func componentPatterns(fc *fileContext) []string {
	patterns := []string{}
	for _, hp := range hookPatterns {
		found := false
		for _, name := range hp.calls {
			if fc.calls.ok && fc.calls.calls(name) {
				found = true
			}
			if !fc.calls.ok && strings.Contains(fc.content, name) {
				found = true
			}
		}
		if found {
			patterns = append(patterns, hp.pattern)
		}
	}
	return patterns
}

var pathContexts = []struct{ keyword, context string }{
	{"form", "forms"},
	{"page", "pages"},
	{"modal", "modals"},
	{"dashboard", "dashboard"},
	{"admin", "admin"},
	{"list", "lists"},
}

func componentContexts(file string) []string {
	lower := strings.ToLower(file)
	contexts := []string{}
	for _, pc := range pathContexts {
		if strings.Contains(lower, pc.keyword) {
			contexts = append(contexts, pc.context)
		}
	}
	return contexts
}

var (
	yupRules = []struct{ marker, rule string }{
		{".required(", "required"},
		{".email(", "email"},
		{".min(", "min-length"},
		{".max(", "max-length"},
		{".matches(", "regex"},
	}
	zodRules = []struct{ marker, rule string }{
		{"z.string()", "string"},
		{"z.number()", "number"},
		{"z.email()", "email"},
		{"z.min(", "min-length"},
	}
)

// validationPattern lists the schema rules a yup or zod file uses. Files
// without recognized rules contribute nothing.
func validationPattern(fc *fileContext) *ValidationPattern {
	var kind string
	var rules []struct{ marker, rule string }
	switch {
	case strings.Contains(fc.content, "yup."):
		kind, rules = "yup", yupRules
	case strings.Contains(fc.content, "z."):
		kind, rules = "zod", zodRules
	default:
		return nil
	}

	var found orderedSet
	for _, r := range rules {
		if strings.Contains(fc.content, r.marker) {
			found.add(r.rule)
		}
	}
	if found.len() == 0 {
		return nil
	}
	return &ValidationPattern{
		Type:      kind,
		Rules:     found.list(),
		Frequency: 1,
		Examples:  []string{fc.file},
	}
}

func pageStructure(fc *fileContext) *PageStructurePattern {
	content := fc.content
	layout := "unknown"
	switch {
	case strings.Contains(content, "Sidebar") || strings.Contains(content, "sidebar"):
		layout = "sidebar"
	case strings.Contains(content, "Header") || strings.Contains(content, "header"):
		layout = "header"
	case strings.Contains(content, "Dashboard") || strings.Contains(content, "dashboard"):
		layout = "dashboard"
	}

	var sections orderedSet
	for _, s := range []string{"header", "sidebar", "footer", "main"} {
		if strings.Contains(content, s) {
			sections.add(s)
		}
	}
	navigation := "absent"
	if strings.Contains(content, "nav") {
		sections.add("navigation")
		navigation = "present"
	}
	if sections.len() == 0 {
		return nil
	}

	auth := strings.Contains(content, "auth") || strings.Contains(content, "login") || strings.Contains(content, "user")
	return &PageStructurePattern{
		Layout:         layout,
		Sections:       sections.list(),
		Navigation:     navigation,
		Authentication: auth,
		Frequency:      1,
	}
}

// importedNames returns the imported (not local) names of named imports
// whose source is exactly source.
func importedNames(root *ts.Node, src []byte, source string) []string {
	var names []string
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "import_statement" {
			continue
		}
		srcNode := stmt.ChildByFieldName("source")
		if srcNode == nil || stringContent(srcNode, src) != source {
			continue
		}
		for j := uint(0); j < stmt.NamedChildCount(); j++ {
			clause := stmt.NamedChild(j)
			if clause.Kind() != "import_clause" {
				continue
			}
			for k := uint(0); k < clause.NamedChildCount(); k++ {
				named := clause.NamedChild(k)
				if named.Kind() != "named_imports" {
					continue
				}
				for s := uint(0); s < named.NamedChildCount(); s++ {
					spec := named.NamedChild(s)
					if spec.Kind() != "import_specifier" {
						continue
					}
					if n := spec.ChildByFieldName("name"); n != nil && n.Kind() == "identifier" {
						names = append(names, n.Utf8Text(src))
					}
				}
			}
		}
	}
	return names
}

func stringContent(node *ts.Node, source []byte) string {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "string_fragment" {
			return child.Utf8Text(source)
		}
	}
	text := node.Utf8Text(source)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

// orderedSet keeps insertion order.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(v string) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if !s.seen[v] {
		s.seen[v] = true
		s.items = append(s.items, v)
	}
}

func (s *orderedSet) len() int { return len(s.items) }

func (s *orderedSet) list() []string {
	if s.items == nil {
		return []string{}
	}
	return append([]string(nil), s.items...)
}
