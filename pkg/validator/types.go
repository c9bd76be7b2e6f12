// Package validator checks React/TypeScript sources and generated projects
// for syntax errors, missing imports and common structural mistakes.
package validator

// ErrorType classifies a ValidationError.
type ErrorType string

const (
	ErrorSyntax    ErrorType = "syntax"
	ErrorImport    ErrorType = "import"
	ErrorTyping    ErrorType = "type"
	ErrorStructure ErrorType = "structure"
)

// WarningType classifies a ValidationWarning.
type WarningType string

const (
	WarningBestPractice  WarningType = "best-practice"
	WarningPerformance   WarningType = "performance"
	WarningAccessibility WarningType = "accessibility"
	WarningSecurity      WarningType = "security"
)

// Severity of a ValidationError. Only SeverityError makes a result invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is a problem that can break the build.
type ValidationError struct {
	Type     ErrorType `json:"type"`
	Message  string    `json:"message"`
	File     string    `json:"file,omitempty"`
	Line     int       `json:"line,omitempty"`   // 1-based
	Column   int       `json:"column,omitempty"` // 1-based
	Severity Severity  `json:"severity"`
}

// ValidationWarning is a best-practice finding.
type ValidationWarning struct {
	Type       WarningType `json:"type"`
	Message    string      `json:"message"`
	File       string      `json:"file,omitempty"`
	Line       int         `json:"line,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// CodeMetrics summarizes a file or, summed, a project.
type CodeMetrics struct {
	LinesOfCode    int  `json:"linesOfCode"`
	Complexity     int  `json:"complexity"`
	ComponentCount int  `json:"componentCount"`
	HookCount      int  `json:"hookCount"`
	ImportCount    int  `json:"importCount"`
	HasTests       bool `json:"hasTests"`
	HasTypeScript  bool `json:"hasTypeScript"`
}

// ValidationResult is the outcome of validating code, a file or a project.
type ValidationResult struct {
	FilePath string              `json:"filePath,omitempty"`
	Valid    bool                `json:"isValid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
	Metrics  CodeMetrics         `json:"metrics"`
	Files    int                 `json:"filesValidated,omitempty"`
}

func newResult(path string) *ValidationResult {
	return &ValidationResult{
		FilePath: path,
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
}

func (r *ValidationResult) addError(t ErrorType, msg string) {
	r.Errors = append(r.Errors, ValidationError{Type: t, Message: msg, Severity: SeverityError})
}

func (r *ValidationResult) addWarning(msg, suggestion string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Type: WarningBestPractice, Message: msg, Suggestion: suggestion})
}

// finish derives Valid from the error severities.
func (r *ValidationResult) finish() *ValidationResult {
	r.Valid = true
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			r.Valid = false
			break
		}
	}
	return r
}

// merge folds a file result into a project result.
func (r *ValidationResult) merge(file *ValidationResult) {
	for _, e := range file.Errors {
		if e.File == "" {
			e.File = file.FilePath
		}
		r.Errors = append(r.Errors, e)
	}
	for _, w := range file.Warnings {
		if w.File == "" {
			w.File = file.FilePath
		}
		r.Warnings = append(r.Warnings, w)
	}
	r.Metrics.LinesOfCode += file.Metrics.LinesOfCode
	r.Metrics.Complexity += file.Metrics.Complexity
	r.Metrics.ComponentCount += file.Metrics.ComponentCount
	r.Metrics.HookCount += file.Metrics.HookCount
	r.Metrics.ImportCount += file.Metrics.ImportCount
	r.Metrics.HasTests = r.Metrics.HasTests || file.Metrics.HasTests
	r.Metrics.HasTypeScript = r.Metrics.HasTypeScript || file.Metrics.HasTypeScript
	r.Files++
}
