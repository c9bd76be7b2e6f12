package patterns

import "fmt"

// Thresholds for promoting a group to a DetectedPattern.
const (
	minFormFrequency       = 2
	minDataSourceUsage     = 3
	templateRecommendation = 5
)

// merge folds one file's findings into the analysis. Files must be merged
// in a stable order: first-seen patterns and contexts win on ties.
func (pa *PatternAnalysis) merge(f *fileFindings) {
	if f == nil {
		return
	}
	if f.dataSource != nil {
		pa.mergeDataSource(f.file, f.dataSource)
	}
	if f.form != nil {
		pa.mergeForm(f.form)
	}
	for _, c := range f.components {
		pa.mergeComponent(c)
	}
	if f.validation != nil {
		pa.mergeValidation(f.validation)
	}
	if f.page != nil {
		pa.mergePage(f.page)
	}
}

func (pa *PatternAnalysis) mergeDataSource(file string, ds *dataSourceFinding) {
	for _, name := range ds.components {
		found := false
		for i := range pa.DataSourceUsage {
			u := &pa.DataSourceUsage[i]
			if u.Component != name || u.Version != ds.version {
				continue
			}
			u.UsageCount++
			u.Files = append(u.Files, file)
			addCounts(u.CommonProps, ds.props)
			found = true
			break
		}
		if found {
			continue
		}
		props := map[string]int{}
		addCounts(props, ds.props)
		pa.DataSourceUsage = append(pa.DataSourceUsage, DataSourceUsagePattern{
			Version:     ds.version,
			Component:   name,
			UsageCount:  1,
			CommonProps: props,
			Patterns:    append([]string{}, ds.patterns...),
			Files:       []string{file},
		})
	}
}

func (pa *PatternAnalysis) mergeForm(form *FormPattern) {
	for i := range pa.FormPatterns {
		fp := &pa.FormPatterns[i]
		if fp.ValidationLibrary == form.ValidationLibrary &&
			fp.Layout == form.Layout &&
			fp.Complexity == form.Complexity {
			fp.Frequency++
			return
		}
	}
	pa.FormPatterns = append(pa.FormPatterns, *form)
}

func (pa *PatternAnalysis) mergeComponent(c componentFinding) {
	for i := range pa.ComponentUsage {
		s := &pa.ComponentUsage[i]
		if s.Component != c.name {
			continue
		}
		s.UsageCount += c.count
		addCounts(s.CommonProps, c.props)
		return
	}
	props := map[string]int{}
	addCounts(props, c.props)
	pa.ComponentUsage = append(pa.ComponentUsage, ComponentUsageStats{
		Component:   c.name,
		UsageCount:  c.count,
		CommonProps: props,
		Patterns:    c.patterns,
		Contexts:    c.contexts,
	})
}

func (pa *PatternAnalysis) mergeValidation(v *ValidationPattern) {
	for i := range pa.ValidationPatterns {
		vp := &pa.ValidationPatterns[i]
		if vp.Type != v.Type {
			continue
		}
		vp.Frequency++
		vp.Examples = append(vp.Examples, v.Examples...)
		var rules orderedSet
		for _, r := range vp.Rules {
			rules.add(r)
		}
		for _, r := range v.Rules {
			rules.add(r)
		}
		vp.Rules = rules.list()
		return
	}
	pa.ValidationPatterns = append(pa.ValidationPatterns, *v)
}

func (pa *PatternAnalysis) mergePage(p *PageStructurePattern) {
	for i := range pa.PageStructures {
		if pa.PageStructures[i].Layout == p.Layout {
			pa.PageStructures[i].Frequency++
			return
		}
	}
	pa.PageStructures = append(pa.PageStructures, *p)
}

func addCounts(into, from map[string]int) {
	for k, v := range from {
		into[k] += v
	}
}

// finish derives Patterns and Recommendations from the merged groups.
func (pa *PatternAnalysis) finish() {
	pa.Patterns = pa.detectedPatterns()
	pa.Recommendations = pa.recommendations()
}

func (pa *PatternAnalysis) detectedPatterns() []DetectedPattern {
	patterns := []DetectedPattern{}

	for _, fp := range pa.FormPatterns {
		if fp.Frequency < minFormFrequency {
			continue
		}
		patterns = append(patterns, DetectedPattern{
			Name:        fmt.Sprintf("form-%s-%s", fp.ValidationLibrary, fp.Layout),
			Type:        "form",
			Frequency:   fp.Frequency,
			Files:       []string{},
			Description: fmt.Sprintf("%s form with %s validation", fp.Layout, fp.ValidationLibrary),
			Template:    fmt.Sprintf("forms/%s-%s.hbs", fp.ValidationLibrary, fp.Layout),
			Parameters: map[string]any{
				"validation": fp.ValidationLibrary,
				"layout":     fp.Layout,
				"fieldTypes": fp.FieldTypes,
				"features":   fp.CommonFeatures,
			},
			Examples: []Example{},
		})
	}

	for _, ds := range pa.DataSourceUsage {
		if ds.UsageCount < minDataSourceUsage {
			continue
		}
		examples := []Example{}
		for _, f := range ds.Files {
			if len(examples) == 3 {
				break
			}
			examples = append(examples, Example{
				File:        f,
				Description: fmt.Sprintf("%s usage", ds.Component),
			})
		}
		patterns = append(patterns, DetectedPattern{
			Name:        fmt.Sprintf("datasource-%s-%s", ds.Version, ds.Component),
			Type:        "component",
			Frequency:   ds.UsageCount,
			Files:       append([]string{}, ds.Files...),
			Description: fmt.Sprintf("Uses %s with DataSource %s", ds.Component, ds.Version),
			Template:    fmt.Sprintf("components/datasource-%s.hbs", ds.Version),
			Parameters: map[string]any{
				"version":     ds.Version,
				"component":   ds.Component,
				"commonProps": ds.CommonProps,
				"patterns":    ds.Patterns,
			},
			Examples: examples,
		})
	}
	return patterns
}

func (pa *PatternAnalysis) recommendations() []Recommendation {
	recs := []Recommendation{}

	var hasV1, hasV2 bool
	for _, ds := range pa.DataSourceUsage {
		switch ds.Version {
		case VersionV1:
			hasV1 = true
		case VersionV2:
			hasV2 = true
		}
	}
	if hasV1 && !hasV2 {
		recs = append(recs, Recommendation{
			Type:           "parameter",
			Title:          "Add DataSource V2 support",
			Description:    "The project only uses DataSource V1. Consider migrating to V2 for better performance.",
			Priority:       "medium",
			Implementation: "Add --datasource-version=v2 to the generators",
		})
	}

	frequent := 0
	for _, p := range pa.Patterns {
		if p.Frequency >= templateRecommendation {
			frequent++
		}
	}
	if frequent > 0 {
		recs = append(recs, Recommendation{
			Type:           "template",
			Title:          "Create dedicated templates",
			Description:    fmt.Sprintf("Detected %d frequent pattern(s) that deserve dedicated templates.", frequent),
			Priority:       "high",
			Implementation: "Create templates for the most used patterns",
		})
	}

	var yup, zod bool
	for _, vp := range pa.ValidationPatterns {
		switch vp.Type {
		case "yup":
			yup = true
		case "zod":
			zod = true
		}
	}
	if yup && zod {
		recs = append(recs, Recommendation{
			Type:           "parameter",
			Title:          "Make the validation library configurable",
			Description:    "The project uses both Yup and Zod. Add a parameter to choose between them.",
			Priority:       "medium",
			Implementation: "Add --validation=yup|zod to the form generators",
		})
	}
	return recs
}
