package java

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	classRe          = regexp.MustCompile(`class\s+(\w+)`)
	requestMappingRe = regexp.MustCompile(`@RequestMapping\s*\(\s*["']([^"']+)["']\s*\)`)
	indentedAnnRe    = regexp.MustCompile(`\n\s+@`)
	braceOnNextRe    = regexp.MustCompile(`\)\s*\n\s*\{`)
	signatureRe      = regexp.MustCompile(`^(public|protected|private)?\s*((?:(?:static|final|abstract|synchronized|default|native)\s+)*)([\w.]+(?:<[\w\s,.<>?\[\]]+>)?(?:\[\])?)\s+(\w+)\s*\(`)
	attributeRe      = regexp.MustCompile(`(\w+)\s*=\s*["']?([^"',]+)["']?`)
	annotationNameRe = regexp.MustCompile(`^@(\w+)`)
	finalRe          = regexp.MustCompile(`\bfinal\s+`)
	quotesRe         = regexp.MustCompile(`['"]`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

var qualifiedTypes = []struct{ full, short string }{
	{"java.lang.String", "String"},
	{"java.lang.Integer", "Integer"},
	{"java.lang.Long", "Long"},
	{"java.lang.Boolean", "Boolean"},
	{"java.util.List", "List"},
	{"java.util.Set", "Set"},
	{"java.util.Map", "Map"},
	{"java.util.Date", "Date"},
	{"java.time.LocalDate", "LocalDate"},
	{"java.time.LocalDateTime", "LocalDateTime"},
}

// Analyze parses a controller. It never fails: lines it does not understand
// are skipped.
func Analyze(code string) *ControllerAnalysis {
	analysis := &ControllerAnalysis{Methods: []Method{}}

	if m := classRe.FindStringSubmatch(code); m != nil {
		analysis.ClassName = m[1]
	}
	if m := requestMappingRe.FindStringSubmatch(code); m != nil {
		analysis.BaseMapping = m[1]
	}

	normalized := indentedAnnRe.ReplaceAllString(code, "\n@")
	normalized = braceOnNextRe.ReplaceAllString(normalized, ") {")
	lines := strings.Split(normalized, "\n")

	var pending []string
	inComment := false
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		// Comments between an annotation and its method keep the annotation.
		if inComment {
			inComment = !strings.Contains(line, "*/")
			continue
		}
		if isCommentLine(line) {
			inComment = strings.HasPrefix(line, "/*") && !strings.Contains(line, "*/")
			continue
		}

		if !isMethodLine(line) {
			switch {
			case line == "":
			case strings.HasPrefix(line, "@"):
				// `@GetMapping(\n value = "/x")` spans lines.
				ann := line
				for parenDepth(ann) > 0 && i+1 < len(lines) {
					i++
					ann += " " + strings.TrimSpace(lines[i])
				}
				if isMethodLine(ann) {
					lines[i] = ann
					i--
					continue
				}
				pending = append(pending, ann)
			default:
				pending = pending[:0]
			}
			continue
		}

		// Join continuation lines until the parameter list closes.
		decl := line
		for parenDepth(decl) > 0 && i+1 < len(lines) {
			i++
			decl += " " + strings.TrimSpace(lines[i])
		}

		annotationText := strings.Join(pending, " ")
		pending = pending[:0]

		method, ok := parseMethod(annotationText, decl)
		if !ok || method.Name == analysis.ClassName {
			continue
		}
		analysis.Methods = append(analysis.Methods, method)
	}
	return analysis
}

func isCommentLine(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*")
}

func isMethodLine(line string) bool {
	hasModifier := strings.Contains(line, "public") ||
		strings.Contains(line, "private") ||
		strings.Contains(line, "protected")
	if !hasModifier || strings.Contains(line, "class") {
		return false
	}
	open := strings.Index(line, "(")
	if open < 0 {
		return false
	}
	// Field initializers such as `private final X x = build(...)`.
	if eq := strings.Index(line, "="); eq >= 0 && eq < open && !strings.HasPrefix(line, "@") {
		return false
	}
	return true
}

// parenDepth counts unclosed parentheses, ignoring string contents.
func parenDepth(s string) int {
	depth := 0
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
		}
	}
	return depth
}

func parseMethod(pendingAnnotations, decl string) (Method, bool) {
	leading, rest := splitLeadingAnnotations(decl)

	m := signatureRe.FindStringSubmatchIndex(rest)
	if m == nil {
		return Method{}, false
	}
	access := submatch(rest, m, 1)
	extra := strings.Fields(submatch(rest, m, 2))
	returnType := submatch(rest, m, 3)
	name := submatch(rest, m, 4)

	params, _ := balancedGroup(rest[m[1]-1:])

	modifiers := []string{"public"}
	if access != "" {
		modifiers = []string{access}
	}
	modifiers = append(modifiers, extra...)

	var annotations []Annotation
	annotations = append(annotations, parseAnnotations(pendingAnnotations)...)
	annotations = append(annotations, parseAnnotations(leading)...)
	if annotations == nil {
		annotations = []Annotation{}
	}

	return Method{
		Name:        name,
		ReturnType:  returnType,
		Parameters:  parseParameters(params),
		Annotations: annotations,
		Modifiers:   modifiers,
	}, true
}

func submatch(s string, idx []int, group int) string {
	if idx[2*group] < 0 {
		return ""
	}
	return s[idx[2*group]:idx[2*group+1]]
}

// splitLeadingAnnotations separates `@A @B("x") public ...` into its
// annotation prefix and the remaining declaration.
func splitLeadingAnnotations(s string) (annotations, rest string) {
	rest = strings.TrimSpace(s)
	start := rest
	for strings.HasPrefix(rest, "@") {
		loc := annotationNameRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		after := strings.TrimLeft(rest[loc[1]:], " \t")
		if strings.HasPrefix(after, "(") {
			_, n := balancedGroup(after)
			after = after[n:]
		}
		rest = strings.TrimSpace(after)
	}
	return strings.TrimSpace(start[:len(start)-len(rest)]), rest
}

// balancedGroup expects s to start with '(' and returns the text inside the
// matching ')' and the number of bytes consumed. An unclosed group returns
// everything after the '('.
func balancedGroup(s string) (string, int) {
	if !strings.HasPrefix(s, "(") {
		return "", 0
	}
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[1:i], i + 1
			}
		}
	}
	return s[1:], len(s)
}

// parseAnnotations reads every annotation in s.
func parseAnnotations(s string) []Annotation {
	var out []Annotation
	for {
		at := strings.Index(s, "@")
		if at < 0 {
			return out
		}
		s = s[at:]
		loc := annotationNameRe.FindStringSubmatchIndex(s)
		if loc == nil {
			s = s[1:]
			continue
		}
		ann := Annotation{Name: s[loc[2]:loc[3]]}
		s = s[loc[1]:]

		if after := strings.TrimLeft(s, " \t"); strings.HasPrefix(after, "(") {
			args, n := balancedGroup(after)
			applyAnnotationArgs(&ann, strings.TrimSpace(args))
			s = after[n:]
		}
		out = append(out, ann)
	}
}

func applyAnnotationArgs(ann *Annotation, args string) {
	switch {
	case args == "":
	case strings.HasPrefix(args, `"`) || strings.HasPrefix(args, "'"):
		ann.Value = quotesRe.ReplaceAllString(args, "")
	case strings.Contains(args, "="):
		ann.Attributes = make(map[string]string)
		for _, m := range attributeRe.FindAllStringSubmatch(args, -1) {
			ann.Attributes[m[1]] = strings.TrimSpace(m[2])
		}
	case strings.HasPrefix(args, "{"):
		inner := strings.Trim(args, "{}")
		first, _, _ := strings.Cut(inner, ",")
		ann.Value = quotesRe.ReplaceAllString(strings.TrimSpace(first), "")
	}
}

func parseParameters(s string) []Parameter {
	params := []Parameter{}
	for _, raw := range splitParameters(s) {
		annotations, rest := splitLeadingAnnotations(raw)
		parts := whitespaceRe.Split(strings.TrimSpace(rest), -1)
		if len(parts) < 2 {
			continue
		}
		anns := parseAnnotations(annotations)
		if anns == nil {
			anns = []Annotation{}
		}
		params = append(params, Parameter{
			Name:        parts[len(parts)-1],
			Type:        NormalizeType(strings.Join(parts[:len(parts)-1], " ")),
			Annotations: anns,
		})
	}
	return params
}

// splitParameters splits at commas outside <> and ().
func splitParameters(s string) []string {
	var (
		params  []string
		current strings.Builder
		depth   int
	)
	for _, r := range s {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
		}
		current.WriteRune(r)
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		params = append(params, rest)
	}
	return params
}

// NormalizeType drops `final` and shortens well-known qualified names.
func NormalizeType(t string) string {
	t = finalRe.ReplaceAllString(t, "")
	for _, q := range qualifiedTypes {
		t = strings.ReplaceAll(t, q.full, q.short)
	}
	return strings.TrimSpace(t)
}

// ReadController returns the contents of pathOrCode when it names a regular
// file and pathOrCode itself otherwise.
func ReadController(pathOrCode string) (string, error) {
	if strings.ContainsAny(pathOrCode, "\n{") {
		return pathOrCode, nil
	}
	info, err := os.Stat(pathOrCode)
	if err != nil || !info.Mode().IsRegular() {
		return pathOrCode, nil
	}
	data, err := os.ReadFile(pathOrCode)
	if err != nil {
		return "", fmt.Errorf("read java controller %s: %w", pathOrCode, err)
	}
	return string(data), nil
}
