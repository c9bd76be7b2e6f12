// Package scanner finds Archbase component usages across a project, flags
// issues and migration candidates, and keeps the result current while files
// change.
package scanner

import (
	"time"

	"github.com/archbase/archbase-cli/pkg/component"
)

// IssueType ranks a ComponentIssue.
type IssueType string

const (
	IssueError      IssueType = "error"
	IssueWarning    IssueType = "warning"
	IssueSuggestion IssueType = "suggestion"
)

// PropType classifies the literal form of a JSX attribute value.
type PropType string

const (
	PropString   PropType = "string"
	PropBoolean  PropType = "boolean"
	PropNumber   PropType = "number"
	PropVariable PropType = "variable"
	PropUnknown  PropType = "unknown"
)

// ProgressFunc is called after each file is processed.
type ProgressFunc func(done, total int, file string)

// ScanOptions configures ProjectScanner.Scan.
type ScanOptions struct {
	ProjectPath string
	Include     []string
	Exclude     []string

	// Workers overrides the worker count. 0 picks util.GetOptimalPoolSize().
	Workers int

	Progress ProgressFunc
}

// DefaultInclude and DefaultExclude are applied when ScanOptions leaves
// Include or Exclude empty.
var (
	DefaultInclude = []string{"**/*.{ts,tsx,js,jsx}"}
	DefaultExclude = []string{"node_modules/**", "dist/**", "build/**", ".git/**"}
)

// PropUsage is one attribute on a component tag. Value holds a string,
// bool, float64 or nil.
type PropUsage struct {
	Name  string   `json:"name"`
	Type  PropType `json:"type"`
	Value any      `json:"value"`
}

// ComponentIssue is a problem found on a single usage.
type ComponentIssue struct {
	Type    IssueType `json:"type"`
	Message string    `json:"message"`
	Fix     string    `json:"fix,omitempty"`
	Line    int       `json:"line,omitempty"`
	Column  int       `json:"column,omitempty"`
}

// ComponentUsage is one Archbase element in a source file. File is relative
// to the project root with forward slashes. Line is 1-based, Column 0-based.
type ComponentUsage struct {
	Name              string                      `json:"name"`
	ImportPath        string                      `json:"importPath"`
	Props             []PropUsage                 `json:"props"`
	File              string                      `json:"file"`
	Line              int                         `json:"line"`
	Column            int                         `json:"column"`
	HasDataSource     bool                        `json:"hasDataSource"`
	DataSourceVersion component.DataSourceVersion `json:"dataSourceVersion,omitempty"`
	Patterns          []string                    `json:"patterns"`
	Issues            []ComponentIssue            `json:"issues"`
}

// UsageSummary aggregates every usage of one component.
type UsageSummary struct {
	Name       string         `json:"name"`
	Count      int            `json:"count"`
	PropCounts map[string]int `json:"propCounts"`
	Files      []string       `json:"files"`
}

// Statistics summarizes a scan.
type Statistics struct {
	TotalComponents     int     `json:"totalComponents"`
	ArchbaseComponents  int     `json:"archbaseComponents"`
	V1Components        int     `json:"v1Components"`
	V2Components        int     `json:"v2Components"`
	FilesScanned        int     `json:"filesScanned"`
	FilesFailed         int     `json:"filesFailed"`
	IssuesFound         int     `json:"issuesFound"`
	AvgPropsPerUsage    float64 `json:"avgPropsPerUsage"`
	StddevPropsPerUsage float64 `json:"stddevPropsPerUsage"`
}

// PatternSummary lists project-level usage patterns.
type PatternSummary struct {
	Detected    []string `json:"detected"`
	Missing     []string `json:"missing"`
	Recommended []string `json:"recommended"`
}

// Effort estimates the size of a DataSource V1 to V2 migration.
type Effort string

const (
	EffortLow    Effort = "Low"
	EffortMedium Effort = "Medium"
	EffortHigh   Effort = "High"
)

// Migration lists usages that should move to DataSource V2.
type Migration struct {
	V1ToV2Candidates []ComponentUsage `json:"v1ToV2Candidates"`
	EstimatedEffort  Effort           `json:"estimatedEffort"`
	Recommendations  []string         `json:"recommendations"`
}

// OutdatedDependency is a package whose installed range is behind latest.
type OutdatedDependency struct {
	Name    string `json:"name"`
	Current string `json:"current"`
	Latest  string `json:"latest"`
}

// Dependencies is what package.json says about the project.
type Dependencies struct {
	ArchbaseVersion      string               `json:"archbaseVersion,omitempty"`
	ReactVersion         string               `json:"reactVersion,omitempty"`
	MissingDependencies  []string             `json:"missingDependencies"`
	OutdatedDependencies []OutdatedDependency `json:"outdatedDependencies"`
}

// ScanError records a file that could not be analyzed.
type ScanError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// ProjectScanResult is the outcome of a project scan.
type ProjectScanResult struct {
	Components   []ComponentUsage         `json:"components"`
	Usage        map[string]*UsageSummary `json:"usage"`
	Statistics   Statistics               `json:"statistics"`
	Patterns     PatternSummary           `json:"patterns"`
	Migration    Migration                `json:"migration"`
	Dependencies Dependencies             `json:"dependencies"`
	Errors       []ScanError              `json:"errors"`
}

// ScanReport is the document written by WriteReport.
type ScanReport struct {
	ID              string           `json:"id"`
	GeneratedAt     time.Time        `json:"generatedAt"`
	Summary         Statistics       `json:"summary"`
	Components      []ComponentUsage `json:"components"`
	Patterns        PatternSummary   `json:"patterns"`
	Migration       Migration        `json:"migration"`
	Dependencies    Dependencies     `json:"dependencies"`
	Recommendations []string         `json:"recommendations"`
}

// FixResult is returned by AutoFix.
type FixResult struct {
	Fixed   int      `json:"fixed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
	Actions []string `json:"actions"`
}

// FileAnalysis describes what changed in one file since the previous result.
type FileAnalysis struct {
	File        string           `json:"file"`
	Components  []ComponentUsage `json:"components"`
	NewIssues   int              `json:"newIssues"`
	FixedIssues int              `json:"fixedIssues"`
	Suggestions []string         `json:"suggestions"`
	Patterns    []string         `json:"patterns"`
	Removed     bool             `json:"removed,omitempty"`
}
