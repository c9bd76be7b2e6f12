package scanner

import "github.com/archbase/archbase-cli/pkg/component"

var archbaseComponents = map[string]struct{}{
	"ArchbaseEdit": {}, "ArchbaseSelect": {}, "ArchbaseDataTable": {}, "ArchbaseFormTemplate": {},
	"ArchbaseDataGrid": {}, "ArchbaseRemoteDataSource": {}, "ArchbaseLocalDataSource": {},
	"ArchbaseCheckbox": {}, "ArchbaseRadio": {}, "ArchbaseSwitch": {}, "ArchbaseSlider": {},
	"ArchbaseTextArea": {}, "ArchbasePasswordInput": {}, "ArchbaseNumberInput": {},
	"ArchbaseDatePicker": {}, "ArchbaseTimePicker": {}, "ArchbaseColorPicker": {},
	"ArchbaseFileUpload": {}, "ArchbaseImageUpload": {}, "ArchbaseRichTextEditor": {},
	"ArchbaseCodeEditor": {}, "ArchbaseMarkdownEditor": {}, "ArchbaseTagInput": {},
	"ArchbaseAutocomplete": {}, "ArchbaseMultiSelect": {}, "ArchbaseTreeSelect": {},
	"ArchbaseAsyncSelect": {}, "ArchbaseButton": {}, "ArchbaseIconButton": {},
	"ArchbaseModal": {}, "ArchbaseDrawer": {}, "ArchbasePopover": {}, "ArchbaseTooltip": {},
	"ArchbaseNotification": {}, "ArchbaseAlert": {}, "ArchbaseLoading": {}, "ArchbaseSkeleton": {},
}

// IsArchbaseComponent reports whether name is a known Archbase component.
func IsArchbaseComponent(name string) bool {
	_, ok := archbaseComponents[name]
	return ok
}

var requiredProps = map[string][]string{
	"ArchbaseEdit":             {"dataSource", "dataField"},
	"ArchbaseSelect":           {"dataSource", "dataField"},
	"ArchbaseDataGrid":         {"dataSource"},
	"ArchbaseFormTemplate":     {"dataSource"},
	"ArchbaseRemoteDataSource": {"url"},
	"ArchbaseModal":            {"opened"},
}

// RequiredProps returns the props a component cannot work without.
func RequiredProps(name string) []string {
	return requiredProps[name]
}

// Usage pattern names.
const (
	PatternFormWithDataSource     = "form-with-datasource"
	PatternCRUDWithDataGrid       = "crud-with-datagrid"
	PatternAsyncLoading           = "async-loading"
	PatternValidationWithFeedback = "validation-with-feedback"
)

type patternDef struct {
	name        string
	components  []string
	description string
}

// projectPatterns is ordered; detected/missing lists follow this order.
var projectPatterns = []patternDef{
	{PatternFormWithDataSource, []string{"ArchbaseFormTemplate", "ArchbaseRemoteDataSource"}, "Form with DataSource integration"},
	{PatternCRUDWithDataGrid, []string{"ArchbaseDataGrid", "ArchbaseRemoteDataSource"}, "CRUD interface with DataGrid"},
	{PatternAsyncLoading, []string{"ArchbaseLoading", "ArchbaseAsyncSelect"}, "Async operations with loading states"},
	{PatternValidationWithFeedback, []string{"ArchbaseFormTemplate", "ArchbaseAlert"}, "Form validation with user feedback"},
}

// PatternDescription returns the human description of a usage pattern.
func PatternDescription(name string) string {
	for _, p := range projectPatterns {
		if p.name == name {
			return p.description
		}
	}
	return ""
}

var (
	v2Keywords = []string{"appendToFieldArray", "isDataSourceV2", "ArchbaseRemoteDataSource", "useArchbaseDataSource"}
	v1Keywords = []string{"forceUpdate", "setFieldValue", "getFieldValue", "ArchbaseDataSource"}
)

var recommendedDependencies = []string{"@mantine/core", "@mantine/hooks", "@emotion/react", "react-query"}

const (
	mediumEffortThreshold = 10
	highEffortThreshold   = 25

	// A component used more often than this in one file gets an
	// extraction suggestion.
	repeatedUsageThreshold = 5
)

func effortFor(candidates int) Effort {
	switch {
	case candidates > highEffortThreshold:
		return EffortHigh
	case candidates > mediumEffortThreshold:
		return EffortMedium
	default:
		return EffortLow
	}
}

func countVersion(usages []ComponentUsage, v component.DataSourceVersion) int {
	n := 0
	for _, u := range usages {
		if u.DataSourceVersion == v {
			n++
		}
	}
	return n
}
