package generator

import (
	"regexp"
	"strings"

	"github.com/archbase/archbase-cli/pkg/java"
)

// ParamSource says where a service parameter travels in the request.
type ParamSource string

const (
	SourcePath  ParamSource = "path"
	SourceQuery ParamSource = "query"
	SourceBody  ParamSource = "body"
)

// ServiceParameter is one argument of a generated service method.
type ServiceParameter struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Source ParamSource `json:"source"`
}

// ServiceMethod is a controller method mapped to a TypeScript service call.
type ServiceMethod struct {
	Name       string             `json:"name"`
	HTTPMethod string             `json:"httpMethod"`
	ReturnType string             `json:"returnType"`
	Parameters []ServiceParameter `json:"parameters"`
	Endpoint   string             `json:"endpoint"`
}

var javaTypes = map[string]string{
	"String":        "string",
	"Integer":       "number",
	"int":           "number",
	"Long":          "number",
	"long":          "number",
	"Double":        "number",
	"double":        "number",
	"Float":         "number",
	"float":         "number",
	"Short":         "number",
	"short":         "number",
	"BigDecimal":    "number",
	"Boolean":       "boolean",
	"boolean":       "boolean",
	"Date":          "Date",
	"LocalDate":     "Date",
	"LocalDateTime": "Date",
	"void":          "void",
	"Void":          "void",
}

var genericRe = regexp.MustCompile(`^(\w+)\s*<(.+)>$`)

// MapJavaType converts a Java type to its TypeScript form. Collections
// become arrays, maps become Record<string, V> and unknown names pass
// through unchanged.
func MapJavaType(javaType string) string {
	t := strings.TrimSpace(javaType)

	if m := genericRe.FindStringSubmatch(t); m != nil {
		base, args := m[1], splitTypeArgs(m[2])
		switch base {
		case "List", "Set", "Collection", "Iterable":
			return MapJavaType(args[0]) + "[]"
		case "Map":
			return "Record<string, " + MapJavaType(args[len(args)-1]) + ">"
		}
		mapped := make([]string, len(args))
		for i, a := range args {
			mapped[i] = MapJavaType(a)
		}
		return base + "<" + strings.Join(mapped, ", ") + ">"
	}

	if strings.HasSuffix(t, "[]") {
		return MapJavaType(strings.TrimSuffix(t, "[]")) + "[]"
	}
	if ts, ok := javaTypes[t]; ok {
		return ts
	}
	return t
}

// splitTypeArgs splits generic arguments at top-level commas.
func splitTypeArgs(s string) []string {
	var args []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}

// unwrapResponseEntity strips a ResponseEntity<...> wrapper.
func unwrapResponseEntity(t string) string {
	if m := genericRe.FindStringSubmatch(t); m != nil && m[1] == "ResponseEntity" {
		return strings.TrimSpace(m[2])
	}
	return t
}

var httpVerbs = []struct{ annotation, verb string }{
	{"getmapping", "get"},
	{"postmapping", "post"},
	{"putmapping", "put"},
	{"deletemapping", "delete"},
	{"patchmapping", "patch"},
}

func httpMethod(m java.Method) string {
	for _, a := range m.Annotations {
		name := strings.ToLower(a.Name)
		for _, v := range httpVerbs {
			if strings.Contains(name, v.annotation) {
				return v.verb
			}
		}
	}
	return "get"
}

// methodEndpoint appends the route of the first mapping annotation carrying
// a value to base. Other annotations (@PreAuthorize and the like) are
// skipped.
func methodEndpoint(m java.Method, base string) string {
	for _, a := range m.Annotations {
		if !strings.HasSuffix(a.Name, "Mapping") {
			continue
		}
		value := a.Attr("value")
		if value == "" {
			value = a.Attr("path")
		}
		value = strings.NewReplacer(`"`, "", "'", "").Replace(value)
		if value == "" {
			continue
		}
		if strings.HasPrefix(value, "/") {
			return base + value
		}
		return base + "/" + value
	}
	return base
}

func parameterSource(p java.Parameter) ParamSource {
	for _, a := range p.Annotations {
		name := strings.ToLower(a.Name)
		switch {
		case strings.Contains(name, "pathvariable"):
			return SourcePath
		case strings.Contains(name, "requestparam"):
			return SourceQuery
		case strings.Contains(name, "requestbody"):
			return SourceBody
		}
	}
	return SourceQuery
}

// MapControllerMethods maps parsed controller methods onto service methods
// rooted at baseEndpoint.
func MapControllerMethods(methods []java.Method, baseEndpoint string) []ServiceMethod {
	out := make([]ServiceMethod, 0, len(methods))
	for _, m := range methods {
		params := make([]ServiceParameter, 0, len(m.Parameters))
		for _, p := range m.Parameters {
			params = append(params, ServiceParameter{
				Name:   p.Name,
				Type:   MapJavaType(p.Type),
				Source: parameterSource(p),
			})
		}
		out = append(out, ServiceMethod{
			Name:       m.Name,
			HTTPMethod: httpMethod(m),
			ReturnType: MapJavaType(unwrapResponseEntity(m.ReturnType)),
			Parameters: params,
			Endpoint:   methodEndpoint(m, baseEndpoint),
		})
	}
	return out
}
