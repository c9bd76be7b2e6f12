package generator

import (
	"strings"
	"unicode"

	"github.com/aymerick/raymond"
)

// Helpers take `any` arguments: raymond passes template values through
// unconverted and rejects calls whose argument types do not match.

func str(v any) string {
	if v == nil {
		return ""
	}
	return raymond.Str(v)
}

func capitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// kebabCase turns "UserProfile" into "user-profile".
func kebabCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// pascalCase joins dash-separated words: "my-app" becomes "MyApp".
func pascalCase(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		parts[i] = capitalizeFirst(p)
	}
	return strings.Join(parts, "")
}

func eqHelper(a, b any) bool {
	return str(a) == str(b)
}

func ifEqHelper(a, b any, options *raymond.Options) string {
	if str(a) == str(b) {
		return options.Fn()
	}
	return options.Inverse()
}

func capitalizeHelper(s any) string { return capitalizeFirst(str(s)) }

func lowercaseHelper(s any) string { return strings.ToLower(str(s)) }

func uppercaseHelper(s any) string { return strings.ToUpper(str(s)) }

func kebabHelper(s any) string { return kebabCase(str(s)) }

// baseHelpers are registered for every generator.
func baseHelpers() HelperSet {
	return HelperSet{
		"eq":         eqHelper,
		"capitalize": capitalizeHelper,
		"lowercase":  lowercaseHelper,
	}
}
