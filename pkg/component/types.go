// Package component extracts structural facts from React component sources:
// props, imports, hooks and DataSource usage, plus a complexity tier.
package component

// DataSourceVersion is the inferred generation of the DataSource API.
type DataSourceVersion string

const (
	VersionV1      DataSourceVersion = "v1"
	VersionV2      DataSourceVersion = "v2"
	VersionUnknown DataSourceVersion = "unknown"
)

// Complexity is a coarse size tier derived from Score.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ComponentAnalysis is the fact record for one source file. It is built
// fresh per file and not modified after it is returned.
type ComponentAnalysis struct {
	Name            string           `json:"name"`
	FilePath        string           `json:"filePath"`
	Props           []PropDefinition `json:"props"`
	Imports         []ImportInfo     `json:"imports"`
	DataSourceUsage DataSourceUsage  `json:"dataSourceUsage"`
	Complexity      Complexity       `json:"complexity"`
	Hooks           []string         `json:"hooks"`
	Dependencies    []string         `json:"dependencies"`
}

// PropDefinition is a prop declared in a Props interface or destructured
// from a component's first parameter.
type PropDefinition struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// ImportInfo is one import statement.
type ImportInfo struct {
	Source     string   `json:"source"`
	Specifiers []string `json:"specifiers"`
	IsDefault  bool     `json:"isDefault"`
}

// DataSourceUsage describes how the file touches a `dataSource` binding.
type DataSourceUsage struct {
	HasDataSource bool              `json:"hasDataSource"`
	Version       DataSourceVersion `json:"version"`
	Fields        []string          `json:"fields"`

	// VersionSource is the dataSource member that decided Version, e.g.
	// "appendToFieldArray". Empty when Version is unknown.
	VersionSource string `json:"versionSource,omitempty"`
}

func newAnalysis(path string) *ComponentAnalysis {
	return &ComponentAnalysis{
		FilePath:     path,
		Props:        []PropDefinition{},
		Imports:      []ImportInfo{},
		Hooks:        []string{},
		Dependencies: []string{},
		Complexity:   ComplexityLow,
		DataSourceUsage: DataSourceUsage{
			Version: VersionUnknown,
			Fields:  []string{},
		},
	}
}
