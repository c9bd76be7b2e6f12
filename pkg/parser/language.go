package parser

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedLanguage is returned for files whose extension has no grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language is a grammar family understood by SourceParser.
type Language int

const (
	// LanguageTypeScript covers .ts, .mts, .cts and .tsx files.
	LanguageTypeScript Language = iota
	// LanguageJavaScript covers .js, .jsx, .mjs and .cjs files. The grammar parses JSX.
	LanguageJavaScript
	LanguageUnknown
)

func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage maps a file path to its grammar family.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts", ".tsx":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile reports whether the TSX variant of the TypeScript grammar applies.
func IsTSXFile(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".tsx")
}

// IsSupportedFile reports whether filePath can be parsed.
func IsSupportedFile(filePath string) bool {
	return DetectLanguage(filePath) != LanguageUnknown
}

// ParseLanguageString converts "ts", "typescript", "tsx", "js", "jsx" or
// "javascript" to a Language and its TSX flag.
func ParseLanguageString(lang string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "typescript", "ts":
		return LanguageTypeScript, false
	case "tsx":
		return LanguageTypeScript, true
	case "javascript", "js", "jsx":
		return LanguageJavaScript, false
	default:
		return LanguageUnknown, false
	}
}
