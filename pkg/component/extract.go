package component

import (
	"strings"
	"unicode"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// v2Methods are DataSource members that only exist on the V2 API.
var v2Methods = map[string]bool{
	"appendToFieldArray":   true,
	"updateFieldArrayItem": true,
	"removeFromFieldArray": true,
}

// extractor collects facts in a single depth-first walk.
type extractor struct {
	source   []byte
	analysis *ComponentAnalysis
}

func extractFacts(root *ts.Node, source []byte, analysis *ComponentAnalysis) {
	e := &extractor{source: source, analysis: analysis}
	e.walk(root)
}

func (e *extractor) walk(node *ts.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "import_statement":
		e.importStatement(node)
	case "function_declaration":
		e.functionDeclaration(node)
	case "variable_declarator":
		e.variableDeclarator(node)
	case "interface_declaration":
		e.interfaceDeclaration(node)
	case "member_expression":
		e.memberExpression(node)
	case "call_expression":
		e.callExpression(node)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i))
	}
}

func (e *extractor) text(node *ts.Node) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(e.source)
}

func (e *extractor) importStatement(node *ts.Node) {
	source := stringContent(node.ChildByFieldName("source"), e.source)
	info := ImportInfo{Source: source, Specifiers: []string{}}

	for i := uint(0); i < node.ChildCount(); i++ {
		clause := node.Child(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.ChildCount(); j++ {
			part := clause.Child(j)
			switch part.Kind() {
			case "identifier":
				info.Specifiers = append(info.Specifiers, e.text(part))
				info.IsDefault = true
			case "named_imports":
				for k := uint(0); k < part.NamedChildCount(); k++ {
					spec := part.NamedChild(k)
					if spec.Kind() != "import_specifier" {
						continue
					}
					if name := spec.ChildByFieldName("name"); name != nil {
						info.Specifiers = append(info.Specifiers, stringOrIdent(name, e.source))
					}
				}
			case "namespace_import":
				for k := uint(0); k < part.NamedChildCount(); k++ {
					if id := part.NamedChild(k); id.Kind() == "identifier" {
						info.Specifiers = append(info.Specifiers, e.text(id))
					}
				}
			}
		}
	}

	e.analysis.Imports = append(e.analysis.Imports, info)
	if strings.Contains(source, "@archbase") || strings.Contains(source, "./datasource") {
		e.analysis.Dependencies = append(e.analysis.Dependencies, source)
	}
}

func (e *extractor) functionDeclaration(node *ts.Node) {
	name := e.text(node.ChildByFieldName("name"))
	if !isComponentName(name) {
		return
	}
	e.component(name, node)
}

func (e *extractor) variableDeclarator(node *ts.Node) {
	value := node.ChildByFieldName("value")
	if value == nil {
		return
	}
	switch value.Kind() {
	case "arrow_function", "function_expression", "function":
	default:
		return
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil || nameNode.Kind() != "identifier" {
		return
	}
	name := e.text(nameNode)
	if !isComponentName(name) {
		return
	}
	e.component(name, value)
}

// component records a component declaration. The last one in source order
// names the analysis; props accumulate across all of them.
func (e *extractor) component(name string, fn *ts.Node) {
	e.analysis.Name = name
	pattern := firstParamPattern(fn)
	if pattern == nil {
		return
	}
	for i := uint(0); i < pattern.NamedChildCount(); i++ {
		if propName := e.patternPropName(pattern.NamedChild(i)); propName != "" {
			e.analysis.Props = append(e.analysis.Props, PropDefinition{
				Name: propName,
				Type: "unknown",
			})
		}
	}
}

// firstParamPattern returns the object pattern of fn's first parameter, if any.
func firstParamPattern(fn *ts.Node) *ts.Node {
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return nil
	}
	first := params.NamedChild(0)
	switch first.Kind() {
	case "object_pattern":
		return first
	case "required_parameter", "optional_parameter":
		if p := first.ChildByFieldName("pattern"); p != nil && p.Kind() == "object_pattern" {
			return p
		}
	}
	return nil
}

func (e *extractor) patternPropName(node *ts.Node) string {
	switch node.Kind() {
	case "shorthand_property_identifier_pattern":
		return e.text(node)
	case "pair_pattern":
		if key := node.ChildByFieldName("key"); key != nil && key.Kind() == "property_identifier" {
			return e.text(key)
		}
	case "object_assignment_pattern":
		if left := node.ChildByFieldName("left"); left != nil && left.Kind() == "shorthand_property_identifier_pattern" {
			return e.text(left)
		}
	}
	return ""
}

func (e *extractor) interfaceDeclaration(node *ts.Node) {
	if !strings.Contains(e.text(node.ChildByFieldName("name")), "Props") {
		return
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}

	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		if member.Kind() != "property_signature" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "property_identifier" {
			continue
		}

		prop := PropDefinition{
			Name:     e.text(nameNode),
			Type:     e.typeString(typeOf(member)),
			Required: !isOptional(member),
		}
		e.analysis.Props = append(e.analysis.Props, prop)

		switch prop.Name {
		case "dataSource":
			e.analysis.DataSourceUsage.HasDataSource = true
		case "dataField":
			e.analysis.DataSourceUsage.HasDataSource = true
			e.analysis.DataSourceUsage.Fields = append(e.analysis.DataSourceUsage.Fields, prop.Name)
		}
	}
}

func typeOf(member *ts.Node) *ts.Node {
	annotation := member.ChildByFieldName("type")
	if annotation == nil || annotation.NamedChildCount() == 0 {
		return nil
	}
	return annotation.NamedChild(0)
}

func isOptional(member *ts.Node) bool {
	for i := uint(0); i < member.ChildCount(); i++ {
		if member.Child(i).Kind() == "?" {
			return true
		}
	}
	return false
}

// typeString renders the subset of TypeScript types the analysis keeps:
// keywords, type names and unions of those. Anything else is "unknown".
func (e *extractor) typeString(node *ts.Node) string {
	if node == nil {
		return "unknown"
	}
	switch node.Kind() {
	case "predefined_type":
		switch t := e.text(node); t {
		case "string", "number", "boolean", "any":
			return t
		}
	case "type_identifier":
		return e.text(node)
	case "generic_type":
		if name := node.ChildByFieldName("name"); name != nil && name.Kind() == "type_identifier" {
			return e.text(name)
		}
	case "union_type":
		var parts []string
		for _, member := range unionMembers(node) {
			parts = append(parts, e.typeString(member))
		}
		return strings.Join(parts, " | ")
	}
	return "unknown"
}

// unionMembers flattens tree-sitter's left-nested union_type into a list.
func unionMembers(node *ts.Node) []*ts.Node {
	var out []*ts.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "union_type" {
			out = append(out, unionMembers(child)...)
			continue
		}
		out = append(out, child)
	}
	return out
}

func (e *extractor) memberExpression(node *ts.Node) {
	object := node.ChildByFieldName("object")
	if object == nil || object.Kind() != "identifier" || e.text(object) != "dataSource" {
		return
	}
	usage := &e.analysis.DataSourceUsage
	usage.HasDataSource = true

	property := node.ChildByFieldName("property")
	if property == nil || property.Kind() != "property_identifier" {
		return
	}
	method := e.text(property)

	// v2 wins over anything seen earlier; v1 only fills an unknown version.
	switch {
	case v2Methods[method]:
		if usage.Version != VersionV2 {
			usage.Version = VersionV2
			usage.VersionSource = method
		}
	case usage.Version == VersionUnknown:
		usage.Version = VersionV1
		usage.VersionSource = method
	}
}

func (e *extractor) callExpression(node *ts.Node) {
	callee := node.ChildByFieldName("function")
	if callee == nil || callee.Kind() != "identifier" {
		return
	}
	if name := e.text(callee); strings.HasPrefix(name, "use") {
		e.analysis.Hooks = append(e.analysis.Hooks, name)
	}
}

// isComponentName reports whether name follows the component naming
// convention: a leading uppercase letter.
func isComponentName(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

// stringContent returns the text of a string node without its quotes.
func stringContent(node *ts.Node, source []byte) string {
	if node == nil {
		return ""
	}
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

func stringOrIdent(node *ts.Node, source []byte) string {
	if node.Kind() == "string" {
		return stringContent(node, source)
	}
	return node.Utf8Text(source)
}
