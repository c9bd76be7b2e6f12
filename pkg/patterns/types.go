// Package patterns mines an existing Archbase project for recurring
// structures (DataSource bindings, forms, validation schemas and page
// layouts) and turns the frequent ones into template recommendations.
package patterns

// PatternAnalysis is the result of ProjectPatternAnalyzer.Analyze.
type PatternAnalysis struct {
	Patterns           []DetectedPattern        `json:"patterns"`
	DataSourceUsage    []DataSourceUsagePattern `json:"dataSourceUsage"`
	FormPatterns       []FormPattern            `json:"formPatterns"`
	ComponentUsage     []ComponentUsageStats    `json:"componentUsage"`
	ValidationPatterns []ValidationPattern      `json:"validationPatterns"`
	PageStructures     []PageStructurePattern   `json:"pageStructures"`
	Recommendations    []Recommendation         `json:"recommendations"`

	FilesAnalyzed int `json:"filesAnalyzed"`
	FilesFailed   int `json:"filesFailed"`
}

// DetectedPattern is a recurring structure worth a dedicated template.
type DetectedPattern struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Frequency   int            `json:"frequency"`
	Files       []string       `json:"files"`
	Description string         `json:"description"`
	Template    string         `json:"template"`
	Parameters  map[string]any `json:"parameters"`
	Examples    []Example      `json:"examples"`
}

// Example points at a file showing a pattern.
type Example struct {
	File        string `json:"file"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// DataSourceUsagePattern groups files importing the same DataSource
// component with the same API version.
type DataSourceUsagePattern struct {
	Version     string         `json:"version"`
	Component   string         `json:"component"`
	UsageCount  int            `json:"usageCount"`
	CommonProps map[string]int `json:"commonProps"`
	Patterns    []string       `json:"patterns"`
	Files       []string       `json:"files"`
}

// DataSource versions seen by the pattern analyzer.
const (
	VersionV1    = "v1"
	VersionV2    = "v2"
	VersionMixed = "mixed"
)

// FormPattern groups forms sharing validation library, layout and
// complexity.
type FormPattern struct {
	FieldTypes        []string `json:"fieldTypes"`
	ValidationLibrary string   `json:"validationLibrary"`
	Layout            string   `json:"layout"`
	CommonFeatures    []string `json:"commonFeatures"`
	Complexity        string   `json:"complexity"`
	Frequency         int      `json:"frequency"`
}

// ComponentUsageStats counts one Archbase component across the project.
type ComponentUsageStats struct {
	Component   string         `json:"component"`
	UsageCount  int            `json:"usageCount"`
	CommonProps map[string]int `json:"commonProps"`
	Patterns    []string       `json:"patterns"`
	Contexts    []string       `json:"contexts"`
}

// ValidationPattern collects the schema rules used with one library.
type ValidationPattern struct {
	Type      string   `json:"type"`
	Rules     []string `json:"rules"`
	Frequency int      `json:"frequency"`
	Examples  []string `json:"examples"`
}

// PageStructurePattern groups files with the same page layout.
type PageStructurePattern struct {
	Layout         string   `json:"layout"`
	Sections       []string `json:"sections"`
	Navigation     string   `json:"navigation"`
	Authentication bool     `json:"authentication"`
	Frequency      int      `json:"frequency"`
}

// Recommendation suggests a generator or template change.
type Recommendation struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Priority       string `json:"priority"`
	Implementation string `json:"implementation"`
}

func newAnalysis() *PatternAnalysis {
	return &PatternAnalysis{
		Patterns:           []DetectedPattern{},
		DataSourceUsage:    []DataSourceUsagePattern{},
		FormPatterns:       []FormPattern{},
		ComponentUsage:     []ComponentUsageStats{},
		ValidationPatterns: []ValidationPattern{},
		PageStructures:     []PageStructurePattern{},
		Recommendations:    []Recommendation{},
	}
}
