package scanner

import (
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/archbase/archbase-cli/pkg/component"
)

// usageExtractor collects Archbase usages from one parsed file.
type usageExtractor struct {
	source  []byte
	content string
	file    string

	// local name → import source, named imports from Archbase packages only
	imports map[string]string
	usages  []ComponentUsage
}

func extractUsages(root *ts.Node, source []byte, file string) []ComponentUsage {
	e := &usageExtractor{
		source:  source,
		content: string(source),
		file:    file,
		imports: make(map[string]string),
	}
	e.collectImports(root)
	if len(e.imports) == 0 {
		return []ComponentUsage{}
	}
	e.walk(root)
	if e.usages == nil {
		return []ComponentUsage{}
	}
	return e.usages
}

func isArchbaseSource(source string) bool {
	return strings.Contains(source, "@archbase/react") || strings.Contains(source, "archbase")
}

func (e *usageExtractor) collectImports(root *ts.Node) {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "import_statement" {
			continue
		}
		src := stmt.ChildByFieldName("source")
		if src == nil {
			continue
		}
		source := stringContent(src, e.source)
		if !isArchbaseSource(source) {
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
				e.namedImports(named, source)
			}
		}
	}
}

func (e *usageExtractor) namedImports(node *ts.Node, source string) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec.Kind() != "import_specifier" {
			continue
		}
		local := spec.ChildByFieldName("alias")
		if local == nil {
			local = spec.ChildByFieldName("name")
		}
		if local == nil || local.Kind() != "identifier" {
			continue
		}
		e.imports[local.Utf8Text(e.source)] = source
	}
}

func (e *usageExtractor) walk(node *ts.Node) {
	switch node.Kind() {
	case "jsx_element":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if open := node.NamedChild(i); open.Kind() == "jsx_opening_element" {
				e.element(node, open)
				break
			}
		}
	case "jsx_self_closing_element":
		e.element(node, node)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i))
	}
}

// element records a usage for element when its tag is an imported Archbase
// component. tag is the opening or self-closing element carrying the
// attributes.
func (e *usageExtractor) element(element, tag *ts.Node) {
	nameNode := tag.ChildByFieldName("name")
	if nameNode == nil || nameNode.Kind() != "identifier" {
		return
	}
	name := nameNode.Utf8Text(e.source)
	importPath, imported := e.imports[name]
	if !IsArchbaseComponent(name) || !imported {
		return
	}

	pos := element.StartPosition()
	usage := ComponentUsage{
		Name:       name,
		ImportPath: importPath,
		Props:      []PropUsage{},
		File:       e.file,
		Line:       int(pos.Row) + 1,
		Column:     int(pos.Column),
	}

	for i := uint(0); i < tag.NamedChildCount(); i++ {
		attr := tag.NamedChild(i)
		if attr.Kind() != "jsx_attribute" {
			continue
		}
		prop, ok := e.attribute(attr)
		if !ok {
			continue
		}
		usage.Props = append(usage.Props, prop)

		if prop.Name == "dataSource" {
			usage.HasDataSource = true
			usage.DataSourceVersion = detectDataSourceVersion(e.content, prop.Value)
		}
	}

	usage.Issues = detectIssues(name, usage.Props, usage.Line, usage.Column)
	usage.Patterns = detectUsagePatterns(name, usage.Props, e.content)
	e.usages = append(e.usages, usage)
}

// attribute classifies a jsx_attribute. Namespaced names (xlink:href) are
// ignored.
func (e *usageExtractor) attribute(attr *ts.Node) (PropUsage, bool) {
	if attr.NamedChildCount() == 0 {
		return PropUsage{}, false
	}
	nameNode := attr.NamedChild(0)
	if nameNode.Kind() != "property_identifier" {
		return PropUsage{}, false
	}
	prop := PropUsage{Name: nameNode.Utf8Text(e.source), Type: PropUnknown}

	if attr.NamedChildCount() < 2 {
		// <ArchbaseModal opened />
		prop.Type = PropBoolean
		prop.Value = true
		return prop, true
	}

	value := attr.NamedChild(attr.NamedChildCount() - 1)
	switch value.Kind() {
	case "string":
		prop.Type = PropString
		prop.Value = stringContent(value, e.source)
	case "jsx_expression":
		if value.NamedChildCount() != 1 {
			break
		}
		expr := value.NamedChild(0)
		switch expr.Kind() {
		case "true", "false":
			prop.Type = PropBoolean
			prop.Value = expr.Kind() == "true"
		case "number":
			prop.Type = PropNumber
			prop.Value = parseNumber(expr.Utf8Text(e.source))
		case "identifier":
			prop.Type = PropVariable
			prop.Value = expr.Utf8Text(e.source)
		}
	}
	return prop, true
}

// parseNumber returns a float64 for a JS numeric literal, or the literal
// text when it has no float64 form (bigint).
func parseNumber(text string) any {
	clean := strings.ReplaceAll(text, "_", "")
	if f, err := strconv.ParseFloat(clean, 64); err == nil {
		return f
	}
	if n, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return float64(n)
	}
	return text
}

// detectDataSourceVersion guesses the DataSource API version from keywords
// anywhere in the file. Only a one-sided match decides. An empty binding
// value never has a version.
func detectDataSourceVersion(content string, value any) component.DataSourceVersion {
	if !truthy(value) {
		return ""
	}
	hasV2 := containsAny(content, v2Keywords)
	hasV1 := containsAny(content, v1Keywords)
	switch {
	case hasV2 && !hasV1:
		return component.VersionV2
	case hasV1 && !hasV2:
		return component.VersionV1
	default:
		return ""
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
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
