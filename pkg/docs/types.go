// Package docs mines Archbase markdown documentation for DataSource V2
// features, code examples, API references, best practices, migration
// guides and documented component patterns.
package docs

// Analysis is the aggregated result over a documentation tree.
type Analysis struct {
	DataSourceV2      DataSourceV2Findings `json:"dataSourceV2"`
	ComponentPatterns []ComponentPattern   `json:"componentPatterns"`
	CodeExamples      []CodeExample        `json:"codeExamples"`
	APIReference      []APIReference       `json:"apiReference"`
	BestPractices     []BestPractice       `json:"bestPractices"`
	MigrationGuides   []MigrationGuide     `json:"migrationGuides"`
	Recommendations   []Recommendation     `json:"recommendations"`

	FilesAnalyzed int `json:"filesAnalyzed"`
	FilesFailed   int `json:"filesFailed"`
}

// DataSourceV2Findings come only from documents that mention DataSource V2.
type DataSourceV2Findings struct {
	NewFeatures             []string `json:"newFeatures"`
	NewMethods              []string `json:"newMethods"`
	MigrationPatterns       []string `json:"migrationPatterns"`
	UsageExamples           []string `json:"usageExamples"`
	PerformanceImprovements []string `json:"performanceImprovements"`
	BreakingChanges         []string `json:"breakingChanges"`
}

// CodeExample is a TypeScript or JavaScript fence that uses Archbase or a
// DataSource feature.
type CodeExample struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Code               string   `json:"code"`
	Language           string   `json:"language"`
	Tags               []string `json:"tags"`
	DataSourceFeatures []string `json:"dataSourceFeatures"`
	File               string   `json:"file"`
}

// APIReference documents one DataSource method.
type APIReference struct {
	Method      string   `json:"method"`
	Component   string   `json:"component"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
	ReturnType  string   `json:"returnType"`
	Version     string   `json:"version"` // v1, v2 or both
	Examples    []string `json:"examples"`
	File        string   `json:"file"`
}

// BestPractice is a recommended (or discouraged) usage line.
type BestPractice struct {
	Category          string   `json:"category"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	RelatedComponents []string `json:"relatedComponents"`
	File              string   `json:"file"`
}

// MigrationGuide is a documentation section with ordered steps.
type MigrationGuide struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Benefits    []string `json:"benefits"`
	File        string   `json:"file"`
}

// ComponentPattern is a `Pattern: ...` line and the first code fence after it.
type ComponentPattern struct {
	Component         string `json:"component"`
	Pattern           string `json:"pattern"`
	Description       string `json:"description"`
	CodeExample       string `json:"codeExample"`
	DataSourceVersion string `json:"dataSourceVersion"`
	Complexity        string `json:"complexity"` // low, medium or high
	File              string `json:"file"`
}

// Recommendation is a suggested change to the generators.
type Recommendation struct {
	Type               string   `json:"type"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Implementation     string   `json:"implementation"`
	Priority           string   `json:"priority"`
	AffectedGenerators []string `json:"affectedGenerators"`
}

func newAnalysis() *Analysis {
	return &Analysis{
		DataSourceV2: DataSourceV2Findings{
			NewFeatures:             []string{},
			NewMethods:              []string{},
			MigrationPatterns:       []string{},
			UsageExamples:           []string{},
			PerformanceImprovements: []string{},
			BreakingChanges:         []string{},
		},
		ComponentPatterns: []ComponentPattern{},
		CodeExamples:      []CodeExample{},
		APIReference:      []APIReference{},
		BestPractices:     []BestPractice{},
		MigrationGuides:   []MigrationGuide{},
		Recommendations:   []Recommendation{},
	}
}
