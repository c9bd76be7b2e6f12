// Package java extracts controller structure from Spring Java sources with a
// line-oriented parser. It understands the subset of Java that controllers
// use: class name, base @RequestMapping, and annotated public methods.
package java

// ControllerAnalysis is the parsed shape of one controller.
type ControllerAnalysis struct {
	ClassName   string   `json:"className"`
	BaseMapping string   `json:"baseMapping,omitempty"`
	Methods     []Method `json:"methods"`
}

// Method is a controller method. HTTP verb and route are not resolved here;
// they live in the method's annotations.
type Method struct {
	Name        string       `json:"name"`
	ReturnType  string       `json:"returnType"`
	Parameters  []Parameter  `json:"parameters"`
	Annotations []Annotation `json:"annotations"`
	Modifiers   []string     `json:"modifiers"`
}

type Parameter struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Annotations []Annotation `json:"annotations"`
}

// Annotation is `@Name`, `@Name("value")` or `@Name(k = v, ...)`.
type Annotation struct {
	Name       string            `json:"name"`
	Value      string            `json:"value,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Attr returns an attribute value, falling back to Value for "value" and "path".
func (a Annotation) Attr(key string) string {
	if v, ok := a.Attributes[key]; ok {
		return v
	}
	if key == "value" || key == "path" {
		return a.Value
	}
	return ""
}
