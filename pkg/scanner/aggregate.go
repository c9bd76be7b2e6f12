package scanner

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/archbase/archbase-cli/pkg/component"
)

// sortUsages orders usages by file, then position. Scan results are built
// from files finishing in any order, this makes them stable.
func sortUsages(usages []ComponentUsage) {
	sort.SliceStable(usages, func(i, j int) bool {
		a, b := usages[i], usages[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// MergeUsage folds usages into summaries keyed by component name. Merging is
// commutative: counts add up and file lists are kept sorted and unique.
func MergeUsage(into map[string]*UsageSummary, usages []ComponentUsage) map[string]*UsageSummary {
	if into == nil {
		into = make(map[string]*UsageSummary)
	}
	for _, u := range usages {
		s, ok := into[u.Name]
		if !ok {
			s = &UsageSummary{Name: u.Name, PropCounts: map[string]int{}, Files: []string{}}
			into[u.Name] = s
		}
		s.Count++
		for _, p := range u.Props {
			s.PropCounts[p.Name]++
		}
		s.Files = insertSorted(s.Files, u.File)
	}
	return into
}

func insertSorted(list []string, v string) []string {
	i := sort.SearchStrings(list, v)
	if i < len(list) && list[i] == v {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func detectPatterns(usages []ComponentUsage) PatternSummary {
	names := make(map[string]bool)
	tagged := make(map[string]bool)
	for _, u := range usages {
		names[u.Name] = true
		for _, p := range u.Patterns {
			tagged[p] = true
		}
	}

	out := PatternSummary{Detected: []string{}, Missing: []string{}, Recommended: []string{}}
	detected := make(map[string]bool)
	for _, p := range projectPatterns {
		all := true
		for _, c := range p.components {
			if !names[c] {
				all = false
				break
			}
		}
		if all || tagged[p.name] {
			detected[p.name] = true
			out.Detected = append(out.Detected, p.name)
		}
	}

	recommended := make(map[string]bool)
	if names["ArchbaseFormTemplate"] && !detected[PatternFormWithDataSource] {
		recommended[PatternFormWithDataSource] = true
		out.Recommended = append(out.Recommended, PatternFormWithDataSource)
	}
	if names["ArchbaseDataGrid"] && !detected[PatternCRUDWithDataGrid] {
		recommended[PatternCRUDWithDataGrid] = true
		out.Recommended = append(out.Recommended, PatternCRUDWithDataGrid)
	}

	for _, p := range projectPatterns {
		if !detected[p.name] && !recommended[p.name] {
			out.Missing = append(out.Missing, p.name)
		}
	}
	return out
}

func analyzeMigration(usages []ComponentUsage) Migration {
	candidates := []ComponentUsage{}
	for _, u := range usages {
		if u.DataSourceVersion == component.VersionV1 || (u.HasDataSource && u.DataSourceVersion == "") {
			candidates = append(candidates, u)
		}
	}

	m := Migration{
		V1ToV2Candidates: candidates,
		EstimatedEffort:  effortFor(len(candidates)),
		Recommendations:  []string{},
	}
	if len(candidates) > 0 {
		m.Recommendations = append(m.Recommendations,
			fmt.Sprintf("Migrate %d components to DataSource V2", len(candidates)),
			"Use ArchbaseRemoteDataSource for better performance",
			"Implement reactive data binding patterns")
	}
	if countFormsWithoutValidation(usages) > 0 {
		m.Recommendations = append(m.Recommendations, "Add validation feedback to forms")
	}
	return m
}

func countFormsWithoutValidation(usages []ComponentUsage) int {
	n := 0
	for _, u := range usages {
		if u.Name == "ArchbaseFormTemplate" && !containsString(u.Patterns, PatternValidationWithFeedback) {
			n++
		}
	}
	return n
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func computeStatistics(usages []ComponentUsage, filesScanned, filesFailed int) Statistics {
	s := Statistics{
		TotalComponents:    len(usages),
		ArchbaseComponents: len(usages),
		V1Components:       countVersion(usages, component.VersionV1),
		V2Components:       countVersion(usages, component.VersionV2),
		FilesScanned:       filesScanned,
		FilesFailed:        filesFailed,
	}

	propCounts := make([]float64, len(usages))
	for i, u := range usages {
		s.IssuesFound += len(u.Issues)
		propCounts[i] = float64(len(u.Props))
	}
	if len(propCounts) > 0 {
		mean, std := stat.MeanStdDev(propCounts, nil)
		s.AvgPropsPerUsage = mean
		if !math.IsNaN(std) {
			s.StddevPropsPerUsage = std
		}
	}
	return s
}

// rebuild recomputes every aggregate of r from r.Components.
func (r *ProjectScanResult) rebuild(filesScanned int) {
	sortUsages(r.Components)
	r.Usage = MergeUsage(nil, r.Components)
	r.Statistics = computeStatistics(r.Components, filesScanned, len(r.Errors))
	r.Patterns = detectPatterns(r.Components)
	r.Migration = analyzeMigration(r.Components)
}

// uniqueFiles counts the distinct files that contributed usages.
func uniqueFiles(usages []ComponentUsage) int {
	seen := make(map[string]struct{})
	for _, u := range usages {
		seen[u.File] = struct{}{}
	}
	return len(seen)
}
