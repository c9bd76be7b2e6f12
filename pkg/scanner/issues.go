package scanner

import (
	"fmt"
	"strings"
)

func hasProp(props []PropUsage, name string) bool {
	_, ok := findProp(props, name)
	return ok
}

func findProp(props []PropUsage, name string) (PropUsage, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return PropUsage{}, false
}

// detectIssues checks one usage against the required-prop table and the
// DataSource binding rules. Issues carry the usage position.
func detectIssues(name string, props []PropUsage, line, column int) []ComponentIssue {
	issues := []ComponentIssue{}
	add := func(t IssueType, msg, fix string) {
		issues = append(issues, ComponentIssue{Type: t, Message: msg, Fix: fix, Line: line, Column: column})
	}

	for _, required := range RequiredProps(name) {
		if !hasProp(props, required) {
			add(IssueError,
				fmt.Sprintf("Missing required prop: %s", required),
				fmt.Sprintf("Add %s prop to %s", required, name))
		}
	}

	if name == "ArchbaseEdit" && !hasProp(props, "dataSource") {
		add(IssueWarning,
			"ArchbaseEdit without dataSource prop may not update automatically",
			"Add dataSource prop for automatic data binding")
	}

	if ds, ok := findProp(props, "dataSource"); ok && ds.Type == PropVariable {
		add(IssueSuggestion,
			"Consider using ArchbaseDataSource V2 for better performance",
			"Migrate to ArchbaseRemoteDataSource for reactive updates")
	}
	return issues
}

// detectUsagePatterns tags a usage with the patterns it takes part in.
// content is the whole file.
func detectUsagePatterns(name string, props []PropUsage, content string) []string {
	patterns := []string{}

	if name == "ArchbaseFormTemplate" && hasProp(props, "dataSource") {
		patterns = append(patterns, PatternFormWithDataSource)
	}
	if name == "ArchbaseDataGrid" && strings.Contains(content, "ArchbaseRemoteDataSource") {
		patterns = append(patterns, PatternCRUDWithDataGrid)
	}
	if strings.Contains(name, "Async") || hasProp(props, "loading") {
		patterns = append(patterns, PatternAsyncLoading)
	}
	if strings.Contains(content, "validation") || strings.Contains(content, "error") {
		patterns = append(patterns, PatternValidationWithFeedback)
	}
	return patterns
}
