package validator

import (
	"strings"
	"unicode"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// facts is what the rules and metrics need from one parse tree.
type facts struct {
	imports          []string
	usesJSX          bool
	archbaseTags     []string
	hasDefaultExport bool
	defaultName      string
	component        string // last uppercase function declaration
	hasPropsIface    bool

	componentCount int
	hookCount      int
	complexity     int
}

func collectFacts(root *ts.Node, source []byte) *facts {
	f := &facts{complexity: 1}
	f.walk(root, source)
	return f
}

func (f *facts) walk(node *ts.Node, source []byte) {
	switch node.Kind() {
	case "import_statement":
		if src := node.ChildByFieldName("source"); src != nil {
			f.imports = append(f.imports, stringContent(src, source))
		}
	case "export_statement":
		if hasDefaultKeyword(node) {
			f.hasDefaultExport = true
			if decl := node.ChildByFieldName("declaration"); decl != nil && decl.Kind() == "function_declaration" {
				f.defaultName = nodeText(decl.ChildByFieldName("name"), source)
			}
		}
	case "function_declaration":
		name := nodeText(node.ChildByFieldName("name"), source)
		if isUpper(name) {
			f.componentCount++
			f.component = name
		}
		if strings.HasPrefix(name, "use") {
			f.hookCount++
		}
	case "interface_declaration":
		if strings.HasSuffix(nodeText(node.ChildByFieldName("name"), source), "Props") {
			f.hasPropsIface = true
		}
	case "call_expression":
		callee := node.ChildByFieldName("function")
		if callee != nil && callee.Kind() == "identifier" && strings.HasPrefix(nodeText(callee, source), "use") {
			f.hookCount++
		}
	case "jsx_element":
		f.usesJSX = true
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if open := node.NamedChild(i); open.Kind() == "jsx_opening_element" {
				f.tag(open, source)
				break
			}
		}
	case "jsx_self_closing_element":
		f.usesJSX = true
		f.tag(node, source)
	case "if_statement", "ternary_expression":
		f.complexity++
	case "binary_expression":
		if op := node.ChildByFieldName("operator"); op != nil {
			switch op.Kind() {
			case "&&", "||", "??":
				f.complexity++
			}
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		f.walk(node.Child(i), source)
	}
}

// tag records Archbase tags written as plain identifiers, not member
// expressions such as <ui.ArchbaseEdit>.
func (f *facts) tag(opening *ts.Node, source []byte) {
	name := opening.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return
	}
	if text := nodeText(name, source); strings.HasPrefix(text, "Archbase") {
		f.archbaseTags = append(f.archbaseTags, text)
	}
}

func (f *facts) importsFrom(source string) bool {
	for _, s := range f.imports {
		if s == source {
			return true
		}
	}
	return false
}

func hasDefaultKeyword(node *ts.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "default" {
			return true
		}
	}
	return false
}

// firstSyntaxError returns the first ERROR or MISSING node in document order.
func firstSyntaxError(node *ts.Node) *ts.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstSyntaxError(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(node *ts.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}

// stringContent gets the text inside a string node, without quotes.
func stringContent(node *ts.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == "string_fragment" {
			return child.Utf8Text(source)
		}
	}
	text := node.Utf8Text(source)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

func isUpper(name string) bool {
	return name != "" && unicode.IsUpper(rune(name[0]))
}
